package booking

import (
	"encoding/json"
	"time"
)

const (
	EventBookingRequested = "BookingRequested"
	EventBookingApproved  = "BookingApproved"
	EventBookingRejected  = "BookingRejected"
	EventBookingCancelled = "BookingCancelled"
	EventBookingPaid      = "BookingPaid"
	EventBookingActivated = "BookingActivated"
	EventBookingReturned  = "BookingReturned"
	EventBookingCompleted = "BookingCompleted"
	EventBookingExpired   = "BookingExpired"
)

// Envelope is the wire format published to the booking events topic.
type Envelope struct {
	EventType string          `json:"event_type"`
	BookingID string          `json:"booking_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type BookingRequested struct {
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	ShopID      string    `json:"shop_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalAmount string    `json:"total_amount"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"item_count"`
	RequestedAt time.Time `json:"requested_at"`
}

type BookingApproved struct {
	BookingID    string    `json:"booking_id"`
	ShopID       string    `json:"shop_id"`
	CustomerID   string    `json:"customer_id"`
	PlatformFee  string    `json:"platform_fee"`
	VendorAmount string    `json:"vendor_amount"`
	CheckoutURL  string    `json:"checkout_url"`
	ApprovedAt   time.Time `json:"approved_at"`
}

type BookingRejected struct {
	BookingID  string    `json:"booking_id"`
	ShopID     string    `json:"shop_id"`
	CustomerID string    `json:"customer_id"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

type BookingCancelled struct {
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	ShopID      string    `json:"shop_id"`
	Refunded    bool      `json:"refunded"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type BookingPaid struct {
	BookingID       string    `json:"booking_id"`
	CustomerID      string    `json:"customer_id"`
	ShopID          string    `json:"shop_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	PaidAt          time.Time `json:"paid_at"`
}

// StatusChanged covers the fulfillment transitions that carry no
// payment or inventory side effect.
type StatusChanged struct {
	BookingID string    `json:"booking_id"`
	ShopID    string    `json:"shop_id"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}
