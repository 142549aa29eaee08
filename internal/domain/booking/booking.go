package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/rental-marketplace/internal/domain/money"
)

type Status string

const (
	StatusPendingVendorReview    Status = "PENDING_VENDOR_REVIEW"
	StatusApprovedAwaitingPayment Status = "APPROVED_AWAITING_PAYMENT"
	StatusPaidConfirmed          Status = "PAID_CONFIRMED"
	StatusActive                 Status = "ACTIVE"
	StatusReturned               Status = "RETURNED"
	StatusCompleted              Status = "COMPLETED"
	StatusRejectedByVendor       Status = "REJECTED_BY_VENDOR"
	StatusCancelledByCustomer    Status = "CANCELLED_BY_CUSTOMER"
	StatusExpiredNoPayment       Status = "EXPIRED_NO_PAYMENT"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrUnauthorized     = errors.New("not authorized for this booking")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrStartInPast      = errors.New("start date cannot be in the past")
	ErrNoItems          = errors.New("booking must have at least one item")
	ErrItemUnavailable  = errors.New("product is not available for the selected dates")
	ErrProductNotInShop = errors.New("product does not belong to this shop")
	ErrShopNotOnboarded = errors.New("shop has not completed payment onboarding")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPendingVendorReview:     {StatusApprovedAwaitingPayment, StatusRejectedByVendor, StatusCancelledByCustomer},
	StatusApprovedAwaitingPayment: {StatusPaidConfirmed, StatusCancelledByCustomer, StatusExpiredNoPayment},
	StatusPaidConfirmed:           {StatusActive},
	StatusActive:                  {StatusReturned},
	StatusReturned:                {StatusCompleted},
	StatusCompleted:               {}, // terminal
	StatusRejectedByVendor:        {}, // terminal
	StatusCancelledByCustomer:     {}, // terminal
	StatusExpiredNoPayment:        {}, // terminal
}

// InvalidTransitionError carries the booking's current status so the
// caller can tell why the operation was refused.
type InvalidTransitionError struct {
	Current Status
	Target  Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.Current, e.Target)
}

// Item is a line of a booking. Prices are snapshots taken at booking
// time and never recomputed. Days records the booking duration even
// for non-rental items, which bill a single day.
type Item struct {
	ID         string      `json:"id"`
	BookingID  string      `json:"booking_id"`
	ProductID  string      `json:"product_id"`
	Quantity   int         `json:"quantity"`
	UnitPrice  money.Money `json:"-"`
	TotalPrice money.Money `json:"-"`
	Days       int         `json:"days"`
}

type Booking struct {
	ID                string      `json:"id"`
	CustomerID        string      `json:"customer_id"`
	ShopID            string      `json:"shop_id"`
	Status            Status      `json:"status"`
	StartDate         time.Time   `json:"start_date"`
	EndDate           time.Time   `json:"end_date"`
	Items             []Item      `json:"items"`
	TotalAmount       money.Money `json:"-"`
	PlatformFee       money.Money `json:"-"`
	VendorAmount      money.Money `json:"-"`
	CheckoutSessionID string      `json:"checkout_session_id,omitempty"`
	PaymentIntentID   string      `json:"payment_intent_id,omitempty"`
	PaymentDate       *time.Time  `json:"payment_date,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	RejectionReason   string      `json:"rejection_reason,omitempty"`
	DeliveryAddress   string      `json:"delivery_address,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// CanTransitionTo checks whether the target status is reachable from
// the booking's current status.
func (b *Booking) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[b.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

func (b *Booking) transitionError(target Status) error {
	return &InvalidTransitionError{Current: b.Status, Target: target}
}

// DurationDays returns the booking's billed rental duration: the
// number of started 24h periods in the range, at least 1.
func (b *Booking) DurationDays() int {
	hours := b.EndDate.Sub(b.StartDate).Hours()
	days := int(hours / 24)
	if float64(days*24) < hours {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

func (b *Booking) IsTerminal() bool {
	return len(validTransitions[b.Status]) == 0
}
