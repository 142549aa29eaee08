package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		password_hash TEXT NOT NULL,
		role VARCHAR(20) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS shops (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id),
		name VARCHAR(255) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT true,
		payment_account_id TEXT,
		onboarding_complete BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		shop_id UUID NOT NULL REFERENCES shops(id),
		name VARCHAR(255) NOT NULL,
		type VARCHAR(20) NOT NULL,
		price NUMERIC(10,2) NOT NULL,
		daily_rate NUMERIC(10,2),
		quantity INT NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS product_components (
		id UUID PRIMARY KEY,
		bundle_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		stock_quantity INT NOT NULL DEFAULT 1,
		shared BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES users(id),
		shop_id UUID NOT NULL REFERENCES shops(id),
		status VARCHAR(40) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		total_amount NUMERIC(10,2) NOT NULL,
		currency VARCHAR(3) NOT NULL,
		platform_fee NUMERIC(10,2),
		vendor_amount NUMERIC(10,2),
		checkout_session_id TEXT,
		payment_intent_id TEXT,
		payment_date TIMESTAMPTZ,
		notes TEXT,
		rejection_reason TEXT,
		delivery_address TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS booking_items (
		id UUID PRIMARY KEY,
		booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id),
		quantity INT NOT NULL,
		unit_price NUMERIC(10,2) NOT NULL,
		total_price NUMERIC(10,2) NOT NULL,
		days INT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_calendar (
		unit_id UUID NOT NULL,
		date DATE NOT NULL,
		quantity_available INT NOT NULL,
		quantity_reserved INT NOT NULL DEFAULT 0,
		booking_id UUID,
		PRIMARY KEY (unit_id, date),
		CHECK (quantity_reserved <= quantity_available)
	)`,
	`CREATE TABLE IF NOT EXISTS booking_reservations (
		booking_id UUID NOT NULL,
		unit_id UUID NOT NULL,
		date DATE NOT NULL,
		quantity INT NOT NULL,
		PRIMARY KEY (booking_id, unit_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS booking_events (
		id UUID PRIMARY KEY,
		booking_id UUID NOT NULL,
		event_type VARCHAR(40) NOT NULL,
		data JSONB NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_shop ON bookings(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_events_booking ON booking_events(booking_id)`,
}

// EnsureSchema creates the tables the repositories expect. It is safe
// to call on every startup.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
