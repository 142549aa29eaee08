package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/rental-marketplace/internal/api/middleware"
	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/user"
)

// CreateBooking handles the customer's booking request.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var in booking.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	in.CustomerID = middleware.GetUserID(r.Context())

	b, err := h.bookings.Create(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toBookingResponse(b, h.currency, ""))
}

// ListBookings returns the caller's bookings: a customer sees their own
// requests, a vendor sees the bookings against their shop.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		bookings []*booking.Booking
		err      error
	)
	if claims.Role == user.RoleVendor {
		sh, shopErr := h.shops.FindByOwner(r.Context(), claims.UserID)
		if shopErr != nil {
			respondDomainError(w, shopErr)
			return
		}
		bookings, err = h.bookingLists.ListByShop(r.Context(), sh.ID)
	} else {
		bookings, err = h.bookingLists.ListByCustomer(r.Context(), claims.UserID)
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, toBookingResponse(b, h.currency, ""))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/bookings/")

	b, err := h.bookings.Get(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b, h.currency, ""))
}

// ApproveBooking moves a pending booking to awaiting payment and
// returns the checkout URL the customer pays through.
func (h *Handlers) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	id := bookingIDFromAction(r.URL.Path, "/approve")

	b, checkoutURL, err := h.bookings.Approve(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b, h.currency, checkoutURL))
}

func (h *Handlers) RejectBooking(w http.ResponseWriter, r *http.Request) {
	id := bookingIDFromAction(r.URL.Path, "/reject")

	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	b, err := h.bookings.Reject(r.Context(), id, middleware.GetUserID(r.Context()), req.Reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b, h.currency, ""))
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := bookingIDFromAction(r.URL.Path, "/cancel")

	b, err := h.bookings.Cancel(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b, h.currency, ""))
}

func (h *Handlers) ActivateBooking(w http.ResponseWriter, r *http.Request) {
	h.advanceBooking(w, r, "/activate", h.bookings.Activate)
}

func (h *Handlers) ReturnBooking(w http.ResponseWriter, r *http.Request) {
	h.advanceBooking(w, r, "/return", h.bookings.Return)
}

func (h *Handlers) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.advanceBooking(w, r, "/complete", h.bookings.Complete)
}

// GetBookingEvents returns the audit trail for one booking. The Get
// call enforces the same visibility rule as the detail endpoint.
func (h *Handlers) GetBookingEvents(w http.ResponseWriter, r *http.Request) {
	id := bookingIDFromAction(r.URL.Path, "/events")

	if _, err := h.bookings.Get(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		respondDomainError(w, err)
		return
	}

	events, err := h.events.ListByBooking(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if events == nil {
		events = []booking.Envelope{}
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *Handlers) advanceBooking(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error)) {
	id := bookingIDFromAction(r.URL.Path, action)

	b, err := fn(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b, h.currency, ""))
}

func bookingIDFromAction(path, action string) string {
	id := strings.TrimPrefix(path, "/bookings/")
	return strings.TrimSuffix(id, action)
}
