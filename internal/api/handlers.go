package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
	"github.com/example/rental-marketplace/internal/domain/shop"
	"github.com/example/rental-marketplace/internal/domain/user"
	"github.com/example/rental-marketplace/internal/inventory"
	"github.com/example/rental-marketplace/internal/payment"
	"github.com/example/rental-marketplace/internal/pricing"
)

// BookingService is the lifecycle surface the HTTP layer drives.
type BookingService interface {
	Create(ctx context.Context, in booking.CreateInput) (*booking.Booking, error)
	Approve(ctx context.Context, bookingID, vendorID string) (*booking.Booking, string, error)
	Reject(ctx context.Context, bookingID, vendorID, reason string) (*booking.Booking, error)
	Cancel(ctx context.Context, bookingID, customerID string) (*booking.Booking, error)
	Activate(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error)
	Return(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error)
	Complete(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error)
	Get(ctx context.Context, bookingID, callerID string) (*booking.Booking, error)
}

type BookingLister interface {
	ListByCustomer(ctx context.Context, customerID string) ([]*booking.Booking, error)
	ListByShop(ctx context.Context, shopID string) ([]*booking.Booking, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *product.Product) error
	Update(ctx context.Context, p *product.Product) error
	FindByID(ctx context.Context, id string) (*product.Product, error)
	ListByShop(ctx context.Context, shopID string) ([]*product.Product, error)
}

type ShopStore interface {
	Create(ctx context.Context, s *shop.Shop) error
	Update(ctx context.Context, s *shop.Shop) error
	FindByID(ctx context.Context, id string) (*shop.Shop, error)
	FindByOwner(ctx context.Context, ownerID string) (*shop.Shop, error)
}

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, productID string, start, end time.Time, quantity int) (bool, error)
}

// EventTrail reads the booking audit log the projector maintains.
type EventTrail interface {
	ListByBooking(ctx context.Context, bookingID string) ([]booking.Envelope, error)
}

type Handlers struct {
	bookings     BookingService
	bookingLists BookingLister
	products     ProductStore
	shops        ShopStore
	availability AvailabilityChecker
	events       EventTrail
	currency     string
}

func NewHandlers(bookings BookingService, bookingLists BookingLister, products ProductStore, shops ShopStore, availability AvailabilityChecker, events EventTrail, currency string) *Handlers {
	return &Handlers{
		bookings:     bookings,
		bookingLists: bookingLists,
		products:     products,
		shops:        shops,
		availability: availability,
		events:       events,
		currency:     currency,
	}
}

// Response shapes

type BookingItemResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
	Days       int    `json:"days"`
}

type BookingResponse struct {
	ID              string                `json:"id"`
	CustomerID      string                `json:"customer_id"`
	ShopID          string                `json:"shop_id"`
	Status          booking.Status        `json:"status"`
	StartDate       time.Time             `json:"start_date"`
	EndDate         time.Time             `json:"end_date"`
	Items           []BookingItemResponse `json:"items"`
	TotalAmount     string                `json:"total_amount"`
	Currency        string                `json:"currency"`
	PlatformFee     string                `json:"platform_fee,omitempty"`
	VendorAmount    string                `json:"vendor_amount,omitempty"`
	CheckoutURL     string                `json:"checkout_url,omitempty"`
	PaymentDate     *time.Time            `json:"payment_date,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	DeliveryAddress string                `json:"delivery_address,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

type ProductResponse struct {
	ID         string              `json:"id"`
	ShopID     string              `json:"shop_id"`
	Name       string              `json:"name"`
	Type       product.Type        `json:"type"`
	Price      string              `json:"price"`
	DailyRate  string              `json:"daily_rate,omitempty"`
	Quantity   int                 `json:"quantity"`
	Active     bool                `json:"active"`
	Components []product.Component `json:"components,omitempty"`
}

func toBookingResponse(b *booking.Booking, currency, checkoutURL string) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		CustomerID:      b.CustomerID,
		ShopID:          b.ShopID,
		Status:          b.Status,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		TotalAmount:     b.TotalAmount.StringFixed(),
		Currency:        currency,
		CheckoutURL:     checkoutURL,
		PaymentDate:     b.PaymentDate,
		Notes:           b.Notes,
		RejectionReason: b.RejectionReason,
		DeliveryAddress: b.DeliveryAddress,
		CreatedAt:       b.CreatedAt,
	}
	if !b.PlatformFee.IsZero() {
		resp.PlatformFee = b.PlatformFee.StringFixed()
		resp.VendorAmount = b.VendorAmount.StringFixed()
	}
	for _, item := range b.Items {
		resp.Items = append(resp.Items, BookingItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(),
			TotalPrice: item.TotalPrice.StringFixed(),
			Days:       item.Days,
		})
	}
	return resp
}

func toProductResponse(p *product.Product) ProductResponse {
	resp := ProductResponse{
		ID:         p.ID,
		ShopID:     p.ShopID,
		Name:       p.Name,
		Type:       p.Type,
		Price:      p.Price.StringFixed(),
		Quantity:   p.Quantity,
		Active:     p.Active,
		Components: p.Components,
	}
	if !p.DailyRate.IsZero() {
		resp.DailyRate = p.DailyRate.StringFixed()
	}
	return resp
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondDomainError maps domain errors to HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	var transitionErr *booking.InvalidTransitionError

	switch {
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, shop.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrUnauthorized):
		respondJSONError(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &transitionErr),
		errors.Is(err, booking.ErrItemUnavailable),
		errors.Is(err, booking.ErrShopNotOnboarded),
		errors.Is(err, inventory.ErrUnavailable),
		errors.Is(err, user.ErrEmailTaken):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrInvalidDateRange),
		errors.Is(err, booking.ErrStartInPast),
		errors.Is(err, booking.ErrNoItems),
		errors.Is(err, booking.ErrProductNotInShop),
		errors.Is(err, product.ErrInactive),
		errors.Is(err, product.ErrInvalidType),
		errors.Is(err, product.ErrDailyRateRequired),
		errors.Is(err, product.ErrNoComponents),
		errors.Is(err, product.ErrInvalidQuantity),
		errors.Is(err, shop.ErrInactive),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidDays),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrNegativeAmount):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, payment.ErrGateway):
		respondJSONError(w, "payment gateway unavailable", http.StatusBadGateway)
	default:
		respondJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
