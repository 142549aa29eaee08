// Package inventory implements the day-granular availability engine.
// Stock is tracked per stock unit (a product or a bundle component)
// per calendar day; a booking's date range is expanded to the inclusive
// list of calendar days it touches.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/rental-marketplace/internal/domain/product"
)

// ErrUnavailable is returned by a Ledger when a reservation would
// exceed the available quantity for some (unit, day), or when write
// conflicts persisted past the retry budget.
var ErrUnavailable = errors.New("insufficient stock for the requested dates")

// Reservation is one ledger row to be written when a booking is paid.
type Reservation struct {
	UnitID       string
	Date         time.Time
	Quantity     int
	BaseQuantity int
}

// Ledger is the per-(unit, day) reservation store. GetAvailable must
// return baseQuantity when no row exists for the pair; Reserve must be
// atomic per (unit, date) and reject writes that would push reserved
// past available.
type Ledger interface {
	GetAvailable(ctx context.Context, unitID string, date time.Time, baseQuantity int) (int, error)
	Reserve(ctx context.Context, bookingID string, reservations []Reservation) error
	Release(ctx context.Context, bookingID string) error
}

// ProductSource resolves products with their bundle components.
type ProductSource interface {
	FindByID(ctx context.Context, id string) (*product.Product, error)
}

type Engine struct {
	products ProductSource
	ledger   Ledger
}

func NewEngine(products ProductSource, ledger Ledger) *Engine {
	return &Engine{products: products, ledger: ledger}
}

// DaysInRange expands [start, end] to the inclusive list of calendar
// days, in UTC. Both the start and end dates are booked days.
func DaysInRange(start, end time.Time) []time.Time {
	first := toDate(start)
	last := toDate(end)

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CheckAvailability reports whether quantity units of the product are
// unreserved on every day of the range. Bundles require every
// component to cover quantity x its per-bundle requirement; any
// shortfall short-circuits to false.
func (e *Engine) CheckAvailability(ctx context.Context, productID string, start, end time.Time, quantity int) (bool, error) {
	p, err := e.products.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if !p.Active {
		return false, nil
	}

	days := DaysInRange(start, end)

	if p.IsBundle() {
		for _, c := range p.Components {
			required := c.Quantity * quantity
			ok, err := e.unitAvailable(ctx, c.ID, c.StockQuantity, days, required)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}

	return e.unitAvailable(ctx, p.ID, p.Quantity, days, quantity)
}

func (e *Engine) unitAvailable(ctx context.Context, unitID string, baseQty int, days []time.Time, required int) (bool, error) {
	for _, day := range days {
		available, err := e.ledger.GetAvailable(ctx, unitID, day, baseQty)
		if err != nil {
			return false, fmt.Errorf("ledger lookup for unit %s on %s: %w", unitID, day.Format("2006-01-02"), err)
		}
		if available < required {
			return false, nil
		}
	}
	return true, nil
}

// BuildReservations produces the ledger rows needed to hold quantity
// units of a product over the range: one row per day for the product
// itself, or per day per component scaled by the bundle quantity.
func (e *Engine) BuildReservations(ctx context.Context, productID string, start, end time.Time, quantity int) ([]Reservation, error) {
	p, err := e.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	days := DaysInRange(start, end)
	var reservations []Reservation

	if p.IsBundle() {
		for _, c := range p.Components {
			for _, day := range days {
				reservations = append(reservations, Reservation{
					UnitID:       c.ID,
					Date:         day,
					Quantity:     c.Quantity * quantity,
					BaseQuantity: c.StockQuantity,
				})
			}
		}
		return reservations, nil
	}

	for _, day := range days {
		reservations = append(reservations, Reservation{
			UnitID:       p.ID,
			Date:         day,
			Quantity:     quantity,
			BaseQuantity: p.Quantity,
		})
	}
	return reservations, nil
}

// Reserve writes the reservation rows for one booking item.
func (e *Engine) Reserve(ctx context.Context, bookingID, productID string, start, end time.Time, quantity int) error {
	reservations, err := e.BuildReservations(ctx, productID, start, end, quantity)
	if err != nil {
		return err
	}
	return e.ledger.Reserve(ctx, bookingID, reservations)
}

// Release frees every ledger row attributed to the booking.
func (e *Engine) Release(ctx context.Context, bookingID string) error {
	return e.ledger.Release(ctx, bookingID)
}
