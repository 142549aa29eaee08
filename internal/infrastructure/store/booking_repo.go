package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/inventory"
)

// BookingRepository implements booking persistence on PostgreSQL.
type BookingRepository struct {
	db       *sql.DB
	currency string
}

func NewBookingRepository(db *sql.DB, currency string) *BookingRepository {
	return &BookingRepository{db: db, currency: currency}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, customer_id, shop_id, status, start_date, end_date,
			total_amount, currency, platform_fee, vendor_amount,
			checkout_session_id, payment_intent_id, payment_date,
			notes, rejection_reason, delivery_address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		b.ID, b.CustomerID, b.ShopID, string(b.Status), b.StartDate, b.EndDate,
		b.TotalAmount.StringFixed(), r.currency, nullMoney(b.PlatformFee), nullMoney(b.VendorAmount),
		nullString(b.CheckoutSessionID), nullString(b.PaymentIntentID), b.PaymentDate,
		nullString(b.Notes), nullString(b.RejectionReason), nullString(b.DeliveryAddress),
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}

	for _, item := range b.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO booking_items (id, booking_id, product_id, quantity, unit_price, total_price, days)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, b.ID, item.ProductID, item.Quantity,
			item.UnitPrice.StringFixed(), item.TotalPrice.StringFixed(), item.Days)
		if err != nil {
			return fmt.Errorf("inserting booking item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $2, platform_fee = $3, vendor_amount = $4,
			checkout_session_id = $5, payment_intent_id = $6, payment_date = $7,
			rejection_reason = $8, updated_at = $9
		WHERE id = $1`,
		b.ID, string(b.Status), nullMoney(b.PlatformFee), nullMoney(b.VendorAmount),
		nullString(b.CheckoutSessionID), nullString(b.PaymentIntentID), b.PaymentDate,
		nullString(b.RejectionReason), time.Now().UTC())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// MarkPaid transitions the booking to PAID_CONFIRMED and claims its
// inventory in a single transaction. The status guard lives in the SQL:
// a duplicate webhook finds no row still awaiting payment and the whole
// call reports applied=false without touching inventory.
func (r *BookingRepository) MarkPaid(ctx context.Context, bookingID, paymentIntentID string, paidAt time.Time, reservations []inventory.Reservation) (bool, error) {
	applied := false
	err := withRetry(ctx, func() error {
		applied = false
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET status = $2, payment_intent_id = $3, payment_date = $4, updated_at = $4
			WHERE id = $1 AND status = $5`,
			bookingID, string(booking.StatusPaidConfirmed), paymentIntentID, paidAt,
			string(booking.StatusApprovedAwaitingPayment))
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		if err := applyReservations(ctx, tx, bookingID, reservations); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*booking.Booking, error) {
	row := r.db.QueryRowContext(ctx, selectBooking+` WHERE id = $1`, id)
	b, err := r.scanBooking(row)
	if err != nil {
		return nil, err
	}
	if b.Items, err = r.loadItems(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*booking.Booking, error) {
	return r.list(ctx, `WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

func (r *BookingRepository) ListByShop(ctx context.Context, shopID string) ([]*booking.Booking, error) {
	return r.list(ctx, `WHERE shop_id = $1 ORDER BY created_at DESC`, shopID)
}

// ListApprovedBefore returns bookings still awaiting payment whose
// approval is older than the cutoff. The expiry sweeper feeds on it.
func (r *BookingRepository) ListApprovedBefore(ctx context.Context, cutoff time.Time) ([]*booking.Booking, error) {
	return r.list(ctx, `WHERE status = $2 AND updated_at < $1 ORDER BY updated_at`,
		cutoff, string(booking.StatusApprovedAwaitingPayment))
}

func (r *BookingRepository) list(ctx context.Context, where string, args ...any) ([]*booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, selectBooking+` `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range bookings {
		if b.Items, err = r.loadItems(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

const selectBooking = `
	SELECT id, customer_id, shop_id, status, start_date, end_date,
		total_amount, currency, platform_fee, vendor_amount,
		checkout_session_id, payment_intent_id, payment_date,
		notes, rejection_reason, delivery_address, created_at, updated_at
	FROM bookings`

func (r *BookingRepository) scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		b                             booking.Booking
		status, total, currency       string
		platformFee, vendorAmount     sql.NullString
		sessionID, intentID           sql.NullString
		notes, reason, address        sql.NullString
		paymentDate                   sql.NullTime
	)
	err := row.Scan(&b.ID, &b.CustomerID, &b.ShopID, &status, &b.StartDate, &b.EndDate,
		&total, &currency, &platformFee, &vendorAmount,
		&sessionID, &intentID, &paymentDate,
		&notes, &reason, &address, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.Status = booking.Status(status)
	if b.TotalAmount, err = money.FromString(total, currency); err != nil {
		return nil, fmt.Errorf("reading total for booking %s: %w", b.ID, err)
	}
	if b.PlatformFee, err = scanMoney(platformFee, currency); err != nil {
		return nil, err
	}
	if b.VendorAmount, err = scanMoney(vendorAmount, currency); err != nil {
		return nil, err
	}
	b.CheckoutSessionID = sessionID.String
	b.PaymentIntentID = intentID.String
	if paymentDate.Valid {
		t := paymentDate.Time
		b.PaymentDate = &t
	}
	b.Notes = notes.String
	b.RejectionReason = reason.String
	b.DeliveryAddress = address.String
	return &b, nil
}

func (r *BookingRepository) loadItems(ctx context.Context, bookingID string) ([]booking.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, booking_id, product_id, quantity, unit_price, total_price, days
		FROM booking_items WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []booking.Item
	for rows.Next() {
		var (
			item             booking.Item
			unitStr, totStr  string
		)
		if err := rows.Scan(&item.ID, &item.BookingID, &item.ProductID, &item.Quantity, &unitStr, &totStr, &item.Days); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = money.FromString(unitStr, r.currency); err != nil {
			return nil, err
		}
		if item.TotalPrice, err = money.FromString(totStr, r.currency); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullMoney(m money.Money) sql.NullString {
	if m.Currency() == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: m.StringFixed(), Valid: true}
}

func scanMoney(s sql.NullString, currency string) (money.Money, error) {
	if !s.Valid {
		return money.Zero(currency), nil
	}
	return money.FromString(s.String, currency)
}
