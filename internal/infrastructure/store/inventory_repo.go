package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/example/rental-marketplace/internal/inventory"
)

// InventoryRepository implements the inventory ledger on PostgreSQL.
// Calendar rows are created lazily: a (unit, day) pair without a row
// has its full base quantity free.
type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetAvailable(ctx context.Context, unitID string, date time.Time, baseQuantity int) (int, error) {
	var available, reserved int
	err := r.db.QueryRowContext(ctx, `
		SELECT quantity_available, quantity_reserved
		FROM inventory_calendar WHERE unit_id = $1 AND date = $2`,
		unitID, date).Scan(&available, &reserved)
	if err == sql.ErrNoRows {
		return baseQuantity, nil
	}
	if err != nil {
		return 0, err
	}
	return available - reserved, nil
}

// Reserve claims the given rows for a booking, all or nothing. The
// oversell guard is part of the upsert itself: a concurrent writer that
// would push reserved past available updates zero rows, and the whole
// transaction rolls back with ErrUnavailable.
func (r *InventoryRepository) Reserve(ctx context.Context, bookingID string, reservations []inventory.Reservation) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := applyReservations(ctx, tx, bookingID, reservations); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Release returns the quantities this booking held to the calendar and
// forgets the booking's reservation records. Other bookings' holds on
// the same days are untouched.
func (r *InventoryRepository) Release(ctx context.Context, bookingID string) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			UPDATE inventory_calendar ic
			SET quantity_reserved = ic.quantity_reserved - br.quantity
			FROM booking_reservations br
			WHERE br.booking_id = $1 AND ic.unit_id = br.unit_id AND ic.date = br.date`,
			bookingID)
		if err != nil {
			return fmt.Errorf("releasing reservations: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM booking_reservations WHERE booking_id = $1`, bookingID)
		if err != nil {
			return err
		}

		return tx.Commit()
	})
}

// applyReservations writes ledger and tracking rows inside an open
// transaction. Shared by Reserve and the paid-status transition so both
// paths enforce the same guard.
func applyReservations(ctx context.Context, tx *sql.Tx, bookingID string, reservations []inventory.Reservation) error {
	for _, res := range reservations {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_calendar (unit_id, date, quantity_available, quantity_reserved, booking_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (unit_id, date) DO UPDATE
			SET quantity_reserved = inventory_calendar.quantity_reserved + EXCLUDED.quantity_reserved
			WHERE inventory_calendar.quantity_reserved + EXCLUDED.quantity_reserved <= inventory_calendar.quantity_available`,
			res.UnitID, res.Date, res.BaseQuantity, res.Quantity, bookingID)
		if err != nil {
			// A fresh row asking for more than the base quantity trips
			// the table's capacity check rather than the upsert guard.
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23514" {
				return inventory.ErrUnavailable
			}
			return fmt.Errorf("reserving unit %s on %s: %w", res.UnitID, res.Date.Format("2006-01-02"), err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return inventory.ErrUnavailable
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO booking_reservations (booking_id, unit_id, date, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (booking_id, unit_id, date) DO UPDATE
			SET quantity = booking_reservations.quantity + EXCLUDED.quantity`,
			bookingID, res.UnitID, res.Date, res.Quantity)
		if err != nil {
			return fmt.Errorf("recording reservation: %w", err)
		}
	}
	return nil
}

const maxTxRetries = 3

// withRetry reruns fn when Postgres aborts the transaction for a
// serialization failure or deadlock. Anything else passes through.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		if err = fn(); err == nil || !isRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", inventory.ErrUnavailable, err)
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
