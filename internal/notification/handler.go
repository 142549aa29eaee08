package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/shop"
	"github.com/example/rental-marketplace/internal/domain/user"
)

// UserDirectory resolves recipient addresses.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// ShopDirectory resolves a shop to its owning vendor.
type ShopDirectory interface {
	FindByID(ctx context.Context, id string) (*shop.Shop, error)
}

// Sender is the outbound mail surface the handler drives.
type Sender interface {
	SendBookingRequested(to, bookingID, total string) error
	SendBookingApproved(to, bookingID, total, checkoutURL string) error
	SendBookingRejected(to, bookingID, reason string) error
	SendBookingPaid(to, bookingID string) error
}

// Handler turns booking lifecycle events into emails. Lookup failures
// are logged and swallowed: a missing recipient must not wedge the
// consumer group on one message.
type Handler struct {
	sender Sender
	users  UserDirectory
	shops  ShopDirectory
}

func NewHandler(sender Sender, users UserDirectory, shops ShopDirectory) *Handler {
	return &Handler{sender: sender, users: users, shops: shops}
}

// HandleEvent processes one event from Kafka.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env booking.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch env.EventType {
	case booking.EventBookingRequested:
		return h.handleRequested(ctx, env)
	case booking.EventBookingApproved:
		return h.handleApproved(ctx, env)
	case booking.EventBookingRejected:
		return h.handleRejected(ctx, env)
	case booking.EventBookingPaid:
		return h.handlePaid(ctx, env)
	}

	return nil
}

func (h *Handler) handleRequested(ctx context.Context, env booking.Envelope) error {
	var e booking.BookingRequested
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal BookingRequested event: %v", err)
		return err
	}

	vendor, ok := h.vendorFor(ctx, e.ShopID)
	if !ok {
		return nil
	}

	if err := h.sender.SendBookingRequested(vendor.Email, e.BookingID, e.TotalAmount); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", vendor.Email, err)
		return err
	}

	log.Printf("[Notifier] Booking request email sent to %s for booking %s", vendor.Email, e.BookingID)
	return nil
}

func (h *Handler) handleApproved(ctx context.Context, env booking.Envelope) error {
	var e booking.BookingApproved
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal BookingApproved event: %v", err)
		return err
	}

	customer, ok := h.userFor(ctx, e.CustomerID)
	if !ok {
		return nil
	}

	total, err := addAmounts(e.PlatformFee, e.VendorAmount)
	if err != nil {
		log.Printf("[Notifier] Bad amounts on BookingApproved for booking %s: %v", e.BookingID, err)
		return nil
	}

	if err := h.sender.SendBookingApproved(customer.Email, e.BookingID, total, e.CheckoutURL); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", customer.Email, err)
		return err
	}

	log.Printf("[Notifier] Approval email sent to %s for booking %s", customer.Email, e.BookingID)
	return nil
}

func (h *Handler) handleRejected(ctx context.Context, env booking.Envelope) error {
	var e booking.BookingRejected
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal BookingRejected event: %v", err)
		return err
	}

	customer, ok := h.userFor(ctx, e.CustomerID)
	if !ok {
		return nil
	}

	if err := h.sender.SendBookingRejected(customer.Email, e.BookingID, e.Reason); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", customer.Email, err)
		return err
	}

	log.Printf("[Notifier] Rejection email sent to %s for booking %s", customer.Email, e.BookingID)
	return nil
}

func (h *Handler) handlePaid(ctx context.Context, env booking.Envelope) error {
	var e booking.BookingPaid
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal BookingPaid event: %v", err)
		return err
	}

	customer, ok := h.userFor(ctx, e.CustomerID)
	if !ok {
		return nil
	}

	if err := h.sender.SendBookingPaid(customer.Email, e.BookingID); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", customer.Email, err)
		return err
	}

	log.Printf("[Notifier] Payment confirmation email sent to %s for booking %s", customer.Email, e.BookingID)
	return nil
}

func (h *Handler) userFor(ctx context.Context, userID string) (*user.User, bool) {
	u, err := h.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("[Notifier] User not found: %s", userID)
		return nil, false
	}
	return u, true
}

func (h *Handler) vendorFor(ctx context.Context, shopID string) (*user.User, bool) {
	s, err := h.shops.FindByID(ctx, shopID)
	if err != nil {
		log.Printf("[Notifier] Shop not found: %s", shopID)
		return nil, false
	}
	return h.userFor(ctx, s.OwnerID)
}

// addAmounts reassembles the booking total from the fee split carried
// on the event.
func addAmounts(fee, vendorAmount string) (string, error) {
	f, err := decimal.NewFromString(fee)
	if err != nil {
		return "", err
	}
	v, err := decimal.NewFromString(vendorAmount)
	if err != nil {
		return "", err
	}
	return f.Add(v).StringFixed(2), nil
}
