package api

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/example/rental-marketplace/internal/payment"
)

// WebhookVerifier validates a raw webhook delivery and parses the event.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*payment.Event, error)
}

// PaymentProcessor applies a verified payment event to a booking.
type PaymentProcessor interface {
	HandlePaymentCompleted(ctx context.Context, bookingID, paymentIntentID string) error
}

// WebhookHandler receives payment processor callbacks. It is mounted
// outside the authenticated routes; the HMAC signature is the only
// credential.
type WebhookHandler struct {
	verifier  WebhookVerifier
	processor PaymentProcessor
}

func NewWebhookHandler(verifier WebhookVerifier, processor PaymentProcessor) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor}
}

func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	// The signature covers the raw bytes; read before any decoding.
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSONError(w, "cannot read body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.VerifyWebhook(payload, r.Header.Get("X-Signature"))
	if err != nil {
		log.Printf("[Webhook] Rejected delivery: %v", err)
		respondJSONError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	switch event.Type {
	case payment.EventPaymentCompleted:
		if err := h.processor.HandlePaymentCompleted(r.Context(), event.BookingID, event.PaymentIntentID); err != nil {
			log.Printf("[Webhook] Failed to process payment for booking %s: %v", event.BookingID, err)
			// Non-2xx makes the processor redeliver; processing is idempotent.
			respondJSONError(w, "processing failed", http.StatusInternalServerError)
			return
		}
	default:
		log.Printf("[Webhook] Ignoring event type %s", event.Type)
	}

	respondJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
