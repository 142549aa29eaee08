package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/example/rental-marketplace/internal/domain/booking"
)

// EventLog is the Postgres audit trail of booking lifecycle events.
type EventLog struct {
	db *sql.DB
}

func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

func (l *EventLog) Append(ctx context.Context, env booking.Envelope) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO booking_events (id, booking_id, event_type, data, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), env.BookingID, env.EventType, []byte(env.Data), env.Timestamp)
	return err
}

func (l *EventLog) ListByBooking(ctx context.Context, bookingID string) ([]booking.Envelope, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT booking_id, event_type, data, occurred_at
		FROM booking_events WHERE booking_id = $1 ORDER BY occurred_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var envelopes []booking.Envelope
	for rows.Next() {
		var (
			env  booking.Envelope
			data []byte
			ts   time.Time
		)
		if err := rows.Scan(&env.BookingID, &env.EventType, &data, &ts); err != nil {
			return nil, err
		}
		env.Data = json.RawMessage(data)
		env.Timestamp = ts
		envelopes = append(envelopes, env)
	}
	return envelopes, rows.Err()
}
