// Package mocks provides in-memory implementations of the booking
// service's collaborators for testing.
package mocks

import (
	"context"
	"time"

	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/product"
	"github.com/example/rental-marketplace/internal/domain/shop"
	"github.com/example/rental-marketplace/internal/inventory"
	"github.com/example/rental-marketplace/internal/payment"
)

// MockBookingRepository stores bookings in memory
type MockBookingRepository struct {
	Bookings map[string]*booking.Booking

	CreateErr   error
	UpdateErr   error
	MarkPaidErr error

	// For tracking calls in tests
	MarkPaidCalls []MarkPaidCall
}

// MarkPaidCall records parameters passed to MarkPaid
type MarkPaidCall struct {
	BookingID       string
	PaymentIntentID string
	Reservations    []inventory.Reservation
}

func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{Bookings: make(map[string]*booking.Booking)}
}

func (m *MockBookingRepository) Create(_ context.Context, b *booking.Booking) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	clone := *b
	m.Bookings[b.ID] = &clone
	return nil
}

func (m *MockBookingRepository) FindByID(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := m.Bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (m *MockBookingRepository) Update(_ context.Context, b *booking.Booking) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.Bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	clone := *b
	m.Bookings[b.ID] = &clone
	return nil
}

func (m *MockBookingRepository) MarkPaid(_ context.Context, bookingID, paymentIntentID string, paidAt time.Time, reservations []inventory.Reservation) (bool, error) {
	m.MarkPaidCalls = append(m.MarkPaidCalls, MarkPaidCall{
		BookingID:       bookingID,
		PaymentIntentID: paymentIntentID,
		Reservations:    reservations,
	})
	if m.MarkPaidErr != nil {
		return false, m.MarkPaidErr
	}
	b, ok := m.Bookings[bookingID]
	if !ok {
		return false, booking.ErrNotFound
	}
	if b.Status != booking.StatusApprovedAwaitingPayment {
		return false, nil
	}
	b.Status = booking.StatusPaidConfirmed
	b.PaymentIntentID = paymentIntentID
	b.PaymentDate = &paidAt
	return true, nil
}

// MockProductRepository resolves products from a map
type MockProductRepository struct {
	Products map[string]*product.Product
}

func NewMockProductRepository(products ...*product.Product) *MockProductRepository {
	m := &MockProductRepository{Products: make(map[string]*product.Product)}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockProductRepository) FindByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.Products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

// MockShopRepository resolves shops from a map
type MockShopRepository struct {
	Shops map[string]*shop.Shop
}

func NewMockShopRepository(shops ...*shop.Shop) *MockShopRepository {
	m := &MockShopRepository{Shops: make(map[string]*shop.Shop)}
	for _, s := range shops {
		m.Shops[s.ID] = s
	}
	return m
}

func (m *MockShopRepository) FindByID(_ context.Context, id string) (*shop.Shop, error) {
	s, ok := m.Shops[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return s, nil
}

// MockAvailability is a configurable availability engine
type MockAvailability struct {
	Available    bool
	CheckErr     error
	BuildErr     error
	Reservations []inventory.Reservation

	CheckCalls []CheckCall
}

// CheckCall records parameters passed to CheckAvailability
type CheckCall struct {
	ProductID string
	Start     time.Time
	End       time.Time
	Quantity  int
}

func NewMockAvailability() *MockAvailability {
	return &MockAvailability{Available: true}
}

func (m *MockAvailability) CheckAvailability(_ context.Context, productID string, start, end time.Time, quantity int) (bool, error) {
	m.CheckCalls = append(m.CheckCalls, CheckCall{ProductID: productID, Start: start, End: end, Quantity: quantity})
	if m.CheckErr != nil {
		return false, m.CheckErr
	}
	return m.Available, nil
}

func (m *MockAvailability) BuildReservations(_ context.Context, productID string, start, end time.Time, quantity int) ([]inventory.Reservation, error) {
	if m.BuildErr != nil {
		return nil, m.BuildErr
	}
	if m.Reservations != nil {
		return m.Reservations, nil
	}
	var rs []inventory.Reservation
	for _, day := range inventory.DaysInRange(start, end) {
		rs = append(rs, inventory.Reservation{UnitID: productID, Date: day, Quantity: quantity})
	}
	return rs, nil
}

// MockGateway is a configurable payment gateway
type MockGateway struct {
	Session     *payment.CheckoutSession
	CheckoutErr error
	RefundErr   error
	VerifyEvent *payment.Event
	VerifyErr   error

	CheckoutCalls []payment.CheckoutParams
	RefundCalls   []string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Session: &payment.CheckoutSession{SessionID: "cs_test", RedirectURL: "https://pay.example/cs_test"},
	}
}

func (m *MockGateway) CreateCheckoutSession(_ context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	m.CheckoutCalls = append(m.CheckoutCalls, params)
	if m.CheckoutErr != nil {
		return nil, m.CheckoutErr
	}
	return m.Session, nil
}

func (m *MockGateway) Refund(_ context.Context, paymentIntentID string) error {
	m.RefundCalls = append(m.RefundCalls, paymentIntentID)
	return m.RefundErr
}

func (m *MockGateway) VerifyWebhook(_ []byte, _ string) (*payment.Event, error) {
	if m.VerifyErr != nil {
		return nil, m.VerifyErr
	}
	return m.VerifyEvent, nil
}

// MockPublisher records published events
type MockPublisher struct {
	PublishErr error
	Published  []PublishedEvent
}

// PublishedEvent records parameters passed to Publish
type PublishedEvent struct {
	Key   string
	Event any
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, key string, event any) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, PublishedEvent{Key: key, Event: event})
	return nil
}
