package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// webhookPayload is the processor's event envelope.
type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		PaymentIntent string            `json:"payment_intent"`
		Metadata      map[string]string `json:"metadata"`
	} `json:"data"`
}

// VerifyWebhook checks the HMAC-SHA256 hex signature over the raw
// payload and parses the event. Verification fails closed: any
// payload whose signature cannot be validated is rejected.
func (c *Client) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	expected := Sign(payload, c.webhookSecret)
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	expectedRaw, _ := hex.DecodeString(expected)
	if !hmac.Equal(provided, expectedRaw) {
		return nil, ErrInvalidSignature
	}

	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if p.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}

	event := &Event{Type: p.Type}
	if p.Type == EventPaymentCompleted {
		event.BookingID = p.Data.Metadata["booking_id"]
		event.PaymentIntentID = p.Data.PaymentIntent
		if event.BookingID == "" {
			return nil, fmt.Errorf("%w: payment_completed without booking_id metadata", ErrMalformedEvent)
		}
	}
	return event, nil
}

// Sign computes the hex HMAC-SHA256 signature the processor attaches
// to webhook deliveries. Exported for tests and local tooling.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
