package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/rental-marketplace/internal/api/middleware"
	"github.com/example/rental-marketplace/internal/domain/shop"
)

type CreateShopRequest struct {
	Name string `json:"name"`
}

// CreateShop opens the vendor's shop. One shop per vendor.
func (h *Handlers) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req CreateShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondJSONError(w, "shop name is required", http.StatusBadRequest)
		return
	}

	ownerID := middleware.GetUserID(r.Context())
	if _, err := h.shops.FindByOwner(r.Context(), ownerID); err == nil {
		respondJSONError(w, "vendor already has a shop", http.StatusConflict)
		return
	}

	s := &shop.Shop{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Name:    req.Name,
		Active:  true,
	}
	if err := h.shops.Create(r.Context(), s); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, s)
}

func (h *Handlers) GetMyShop(w http.ResponseWriter, r *http.Request) {
	s, err := h.shops.FindByOwner(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handlers) GetShop(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/shops/")

	s, err := h.shops.FindByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

type ConnectPaymentsRequest struct {
	PaymentAccountID string `json:"payment_account_id"`
}

// ConnectPayments records the vendor's gateway account after
// onboarding. Approvals are refused until this is done.
func (h *Handlers) ConnectPayments(w http.ResponseWriter, r *http.Request) {
	var req ConnectPaymentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PaymentAccountID == "" {
		respondJSONError(w, "payment_account_id is required", http.StatusBadRequest)
		return
	}

	s, err := h.shops.FindByOwner(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.PaymentAccountID = req.PaymentAccountID
	s.OnboardingComplete = true
	if err := h.shops.Update(r.Context(), s); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s)
}
