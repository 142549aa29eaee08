// Package payment wraps the remote payment processor: hosted checkout
// sessions, refunds, and webhook verification. Amounts cross this
// boundary as integer minor units (cents).
package payment

import (
	"context"
	"errors"
)

const (
	EventPaymentCompleted = "payment_completed"
	EventAccountUpdated   = "account_updated"
)

var (
	ErrGateway          = errors.New("payment gateway request failed")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("webhook payload is malformed")
)

// CheckoutParams describes the hosted checkout session to create for
// an approved booking. AmountCents and PlatformFeeCents are minor
// units; the fee is retained by the platform and the remainder is
// transferred to the shop's connected account.
type CheckoutParams struct {
	BookingID            string
	CustomerID           string
	AmountCents          int64
	PlatformFeeCents     int64
	Currency             string
	DestinationAccountID string
}

type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// Event is a verified webhook event. BookingID and PaymentIntentID are
// set for payment_completed events.
type Event struct {
	Type            string
	BookingID       string
	PaymentIntentID string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string) error
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
