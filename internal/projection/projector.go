package projection

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/rental-marketplace/internal/domain/booking"
)

// AuditLog is the durable trail every event lands in.
type AuditLog interface {
	Append(ctx context.Context, env booking.Envelope) error
}

// Archiver is the long-term per-booking history store. Optional.
type Archiver interface {
	Append(ctx context.Context, env booking.Envelope) error
}

// Projector consumes the booking events topic and persists each event
// to the audit log and, when configured, the archive.
type Projector struct {
	audit   AuditLog
	archive Archiver
}

func NewProjector(audit AuditLog, archive Archiver) *Projector {
	return &Projector{audit: audit, archive: archive}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var env booking.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return err
	}
	if env.EventType == "" || env.BookingID == "" {
		log.Printf("[Projector] Dropping malformed event with key %s", key)
		return nil
	}

	log.Printf("[Projector] Received event: %s (booking: %s)", env.EventType, env.BookingID)

	if err := p.audit.Append(ctx, env); err != nil {
		return err
	}

	if p.archive != nil {
		// The archive is best effort. The audit log already committed,
		// so an archive failure is logged and the event is not retried.
		if err := p.archive.Append(ctx, env); err != nil {
			log.Printf("[Projector] Failed to archive %s for booking %s: %v", env.EventType, env.BookingID, err)
		}
	}

	return nil
}
