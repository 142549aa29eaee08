package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/rental-marketplace/internal/api/middleware"
	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
)

type CreateProductRequest struct {
	Name       string                   `json:"name"`
	Type       product.Type             `json:"type"`
	Price      string                   `json:"price"`
	DailyRate  string                   `json:"daily_rate"`
	Quantity   int                      `json:"quantity"`
	Components []CreateComponentRequest `json:"components"`
}

type CreateComponentRequest struct {
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	StockQuantity int    `json:"stock_quantity"`
	Shared        bool   `json:"shared"`
}

// CreateProduct registers a product under the vendor's shop.
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sh, err := h.shops.FindByOwner(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	price, err := money.FromString(req.Price, h.currency)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	dailyRate := money.Zero(h.currency)
	if req.DailyRate != "" {
		if dailyRate, err = money.FromString(req.DailyRate, h.currency); err != nil {
			respondDomainError(w, err)
			return
		}
	}

	p := &product.Product{
		ID:        uuid.New().String(),
		ShopID:    sh.ID,
		Name:      req.Name,
		Type:      req.Type,
		Price:     price,
		DailyRate: dailyRate,
		Quantity:  req.Quantity,
		Active:    true,
	}
	for _, c := range req.Components {
		p.Components = append(p.Components, product.Component{
			ID:            uuid.New().String(),
			BundleID:      p.ID,
			Name:          c.Name,
			Quantity:      c.Quantity,
			StockQuantity: c.StockQuantity,
			Shared:        c.Shared,
		})
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProductResponse(p))
}

type UpdateProductRequest struct {
	Name      *string `json:"name"`
	Price     *string `json:"price"`
	DailyRate *string `json:"daily_rate"`
	Quantity  *int    `json:"quantity"`
	Active    *bool   `json:"active"`
}

// UpdateProduct patches a product the vendor owns. Omitted fields keep
// their current value.
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.products.FindByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	sh, err := h.shops.FindByOwner(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil || sh.ID != p.ShopID {
		respondJSONError(w, "not the product's vendor", http.StatusForbidden)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		if p.Price, err = money.FromString(*req.Price, h.currency); err != nil {
			respondDomainError(w, err)
			return
		}
	}
	if req.DailyRate != nil {
		if p.DailyRate, err = money.FromString(*req.DailyRate, h.currency); err != nil {
			respondDomainError(w, err)
			return
		}
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	p, err := h.products.FindByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handlers) ListShopProducts(w http.ResponseWriter, r *http.Request) {
	shopID := extractPathParam(r.URL.Path, "/shops/")
	shopID = strings.TrimSuffix(shopID, "/products")

	products, err := h.products.ListByShop(r.Context(), shopID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p))
	}
	respondJSON(w, http.StatusOK, responses)
}

// CheckAvailability answers whether a quantity of the product is free
// over a date range, without holding anything.
func (h *Handlers) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	id = strings.TrimSuffix(id, "/availability")

	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		respondJSONError(w, "invalid start date", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		respondJSONError(w, "invalid end date", http.StatusBadRequest)
		return
	}
	quantity := 1
	if qs := q.Get("quantity"); qs != "" {
		quantity, err = strconv.Atoi(qs)
		if err != nil || quantity < 1 {
			respondJSONError(w, "invalid quantity", http.StatusBadRequest)
			return
		}
	}

	available, err := h.availability.CheckAvailability(r.Context(), id, start, end, quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"product_id": id,
		"available":  available,
		"quantity":   quantity,
	})
}
