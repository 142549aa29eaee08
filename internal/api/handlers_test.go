package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rental-marketplace/internal/auth"
	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
	"github.com/example/rental-marketplace/internal/domain/shop"
	"github.com/example/rental-marketplace/internal/domain/user"
	"github.com/example/rental-marketplace/internal/payment"
)

// ============================================
// Fakes
// ============================================

type fakeBookingService struct {
	booking     *booking.Booking
	checkoutURL string
	err         error

	createInput *booking.CreateInput
	approved    []string
	cancelled   []string
}

func (f *fakeBookingService) Create(ctx context.Context, in booking.CreateInput) (*booking.Booking, error) {
	f.createInput = &in
	return f.booking, f.err
}

func (f *fakeBookingService) Approve(ctx context.Context, bookingID, vendorID string) (*booking.Booking, string, error) {
	f.approved = append(f.approved, bookingID)
	return f.booking, f.checkoutURL, f.err
}

func (f *fakeBookingService) Reject(ctx context.Context, bookingID, vendorID, reason string) (*booking.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingService) Cancel(ctx context.Context, bookingID, customerID string) (*booking.Booking, error) {
	f.cancelled = append(f.cancelled, bookingID)
	return f.booking, f.err
}

func (f *fakeBookingService) Activate(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingService) Return(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingService) Complete(ctx context.Context, bookingID, vendorID string) (*booking.Booking, error) {
	return f.booking, f.err
}

func (f *fakeBookingService) Get(ctx context.Context, bookingID, callerID string) (*booking.Booking, error) {
	return f.booking, f.err
}

type fakeBookingLister struct {
	byCustomer []*booking.Booking
	byShop     []*booking.Booking
}

func (f *fakeBookingLister) ListByCustomer(ctx context.Context, customerID string) ([]*booking.Booking, error) {
	return f.byCustomer, nil
}

func (f *fakeBookingLister) ListByShop(ctx context.Context, shopID string) ([]*booking.Booking, error) {
	return f.byShop, nil
}

type fakeProductStore struct {
	products map[string]*product.Product
	created  []*product.Product
}

func (f *fakeProductStore) Create(ctx context.Context, p *product.Product) error {
	f.created = append(f.created, p)
	return nil
}

func (f *fakeProductStore) Update(ctx context.Context, p *product.Product) error { return nil }

func (f *fakeProductStore) FindByID(ctx context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductStore) ListByShop(ctx context.Context, shopID string) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range f.products {
		if p.ShopID == shopID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeShopStore struct {
	shops   map[string]*shop.Shop
	byOwner map[string]*shop.Shop
}

func (f *fakeShopStore) Create(ctx context.Context, s *shop.Shop) error {
	f.shops[s.ID] = s
	f.byOwner[s.OwnerID] = s
	return nil
}

func (f *fakeShopStore) Update(ctx context.Context, s *shop.Shop) error {
	f.shops[s.ID] = s
	return nil
}

func (f *fakeShopStore) FindByID(ctx context.Context, id string) (*shop.Shop, error) {
	s, ok := f.shops[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return s, nil
}

func (f *fakeShopStore) FindByOwner(ctx context.Context, ownerID string) (*shop.Shop, error) {
	s, ok := f.byOwner[ownerID]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return s, nil
}

type fakeAvailability struct {
	available bool
}

func (f *fakeAvailability) CheckAvailability(ctx context.Context, productID string, start, end time.Time, quantity int) (bool, error) {
	return f.available, nil
}

type fakeEventTrail struct {
	events map[string][]booking.Envelope
}

func (f *fakeEventTrail) ListByBooking(ctx context.Context, bookingID string) ([]booking.Envelope, error) {
	return f.events[bookingID], nil
}

type fakeUserStore struct {
	users   map[string]*user.User
	byEmail map[string]*user.User
}

func (f *fakeUserStore) Create(ctx context.Context, u *user.User) error {
	if _, exists := f.byEmail[u.Email]; exists {
		return user.ErrEmailTaken
	}
	f.users[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fakeVerifier struct {
	event *payment.Event
	err   error
}

func (f *fakeVerifier) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	return f.event, f.err
}

type fakeProcessor struct {
	handled []string
	err     error
}

func (f *fakeProcessor) HandlePaymentCompleted(ctx context.Context, bookingID, paymentIntentID string) error {
	f.handled = append(f.handled, bookingID)
	return f.err
}

// ============================================
// Test environment
// ============================================

type testEnv struct {
	router    http.Handler
	tokens    *auth.TokenService
	bookings  *fakeBookingService
	lister    *fakeBookingLister
	products  *fakeProductStore
	shops     *fakeShopStore
	users     *fakeUserStore
	trail     *fakeEventTrail
	verifier  *fakeVerifier
	processor *fakeProcessor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		tokens:    auth.NewTokenService("test-secret", 15*time.Minute),
		bookings:  &fakeBookingService{},
		lister:    &fakeBookingLister{},
		products:  &fakeProductStore{products: map[string]*product.Product{}},
		shops:     &fakeShopStore{shops: map[string]*shop.Shop{}, byOwner: map[string]*shop.Shop{}},
		users:     &fakeUserStore{users: map[string]*user.User{}, byEmail: map[string]*user.User{}},
		trail:     &fakeEventTrail{events: map[string][]booking.Envelope{}},
		verifier:  &fakeVerifier{},
		processor: &fakeProcessor{},
	}

	handlers := NewHandlers(env.bookings, env.lister, env.products, env.shops, &fakeAvailability{available: true}, env.trail, "BRL")
	authHandlers := NewAuthHandlers(env.users, env.tokens)
	webhookHandler := NewWebhookHandler(env.verifier, env.processor)
	env.router = NewRouter(handlers, authHandlers, webhookHandler, env.tokens)
	return env
}

func (env *testEnv) tokenFor(t *testing.T, id string, role user.Role) string {
	t.Helper()
	token, _, err := env.tokens.GenerateToken(&user.User{ID: id, Email: id + "@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func (env *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.FromString(s, "BRL")
	require.NoError(t, err)
	return m
}

func sampleBooking(t *testing.T) *booking.Booking {
	return &booking.Booking{
		ID:          "bk-1",
		CustomerID:  "cust-1",
		ShopID:      "shop-1",
		Status:      booking.StatusPendingVendorReview,
		StartDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		TotalAmount: mustMoney(t, "200.00"),
		Items: []booking.Item{{
			ID:         "item-1",
			BookingID:  "bk-1",
			ProductID:  "prod-1",
			Quantity:   2,
			UnitPrice:  mustMoney(t, "100.00"),
			TotalPrice: mustMoney(t, "200.00"),
			Days:       2,
		}},
		CreatedAt: time.Now(),
	}
}

// ============================================
// Auth endpoints
// ============================================

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "new@example.com",
		"password": "password123",
		"name":     "New User",
		"role":     "vendor",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, user.RoleVendor, resp.User.Role)

	// Token must be valid for protected routes
	meRec := env.request(t, http.MethodGet, "/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, meRec.Code)
}

func TestRegister_ShortPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "new@example.com",
		"password": "short",
		"name":     "New User",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"email":    "dup@example.com",
		"password": "password123",
		"name":     "User",
	}
	first := env.request(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.request(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestRegister_InvalidRole(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "x@example.com",
		"password": "password123",
		"role":     "admin",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	reg := env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "login@example.com",
		"password": "password123",
		"name":     "User",
	})
	require.Equal(t, http.StatusCreated, reg.Code)

	rec := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "login@example.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "login@example.com",
		"password": "password123",
	})

	rec := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "login@example.com",
		"password": "wrongpassword",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================
// Booking endpoints
// ============================================

func TestCreateBooking_Success(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.booking = sampleBooking(t)
	token := env.tokenFor(t, "cust-1", user.RoleCustomer)

	rec := env.request(t, http.MethodPost, "/bookings", token, map[string]any{
		"shop_id":    "shop-1",
		"start_date": "2026-09-10T00:00:00Z",
		"end_date":   "2026-09-12T00:00:00Z",
		"items":      []map[string]any{{"product_id": "prod-1", "quantity": 2}},
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	// The authenticated caller is the customer regardless of the body
	require.NotNil(t, env.bookings.createInput)
	assert.Equal(t, "cust-1", env.bookings.createInput.CustomerID)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "200.00", resp.TotalAmount)
	assert.Equal(t, "BRL", resp.Currency)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "100.00", resp.Items[0].UnitPrice)
}

func TestCreateBooking_VendorForbidden(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	rec := env.request(t, http.MethodPost, "/bookings", token, map[string]any{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateBooking_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/bookings", "", map[string]any{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unavailable item", booking.ErrItemUnavailable, http.StatusConflict},
		{"invalid dates", booking.ErrInvalidDateRange, http.StatusBadRequest},
		{"start in past", booking.ErrStartInPast, http.StatusBadRequest},
		{"unknown shop", shop.ErrNotFound, http.StatusNotFound},
		{"unknown product", product.ErrNotFound, http.StatusNotFound},
		{"opaque failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.bookings.err = tt.err
			token := env.tokenFor(t, "cust-1", user.RoleCustomer)

			rec := env.request(t, http.MethodPost, "/bookings", token, map[string]any{})

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestApproveBooking_ReturnsCheckoutURL(t *testing.T) {
	env := newTestEnv(t)
	b := sampleBooking(t)
	b.Status = booking.StatusApprovedAwaitingPayment
	b.PlatformFee = mustMoney(t, "20.00")
	b.VendorAmount = mustMoney(t, "180.00")
	env.bookings.booking = b
	env.bookings.checkoutURL = "https://pay.example/cs_123"
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	rec := env.request(t, http.MethodPost, "/bookings/bk-1/approve", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"bk-1"}, env.bookings.approved)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://pay.example/cs_123", resp.CheckoutURL)
	assert.Equal(t, "20.00", resp.PlatformFee)
	assert.Equal(t, "180.00", resp.VendorAmount)
}

func TestApproveBooking_InvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.err = &booking.InvalidTransitionError{
		Current: booking.StatusPaidConfirmed,
		Target:  booking.StatusApprovedAwaitingPayment,
	}
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	rec := env.request(t, http.MethodPost, "/bookings/bk-1/approve", token, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveBooking_GatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.err = fmt.Errorf("creating checkout session: %w", payment.ErrGateway)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	rec := env.request(t, http.MethodPost, "/bookings/bk-1/approve", token, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "payment gateway unavailable", resp["error"])
}

func TestCancelBooking_ExtractsID(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.booking = sampleBooking(t)
	token := env.tokenFor(t, "cust-1", user.RoleCustomer)

	rec := env.request(t, http.MethodPost, "/bookings/bk-1/cancel", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"bk-1"}, env.bookings.cancelled)
}

func TestListBookings_CustomerSeesOwn(t *testing.T) {
	env := newTestEnv(t)
	env.lister.byCustomer = []*booking.Booking{sampleBooking(t)}
	token := env.tokenFor(t, "cust-1", user.RoleCustomer)

	rec := env.request(t, http.MethodGet, "/bookings", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "bk-1", resp[0].ID)
}

func TestListBookings_VendorSeesShop(t *testing.T) {
	env := newTestEnv(t)
	env.shops.Create(context.Background(), &shop.Shop{ID: "shop-1", OwnerID: "vendor-1", Active: true})
	env.lister.byShop = []*booking.Booking{sampleBooking(t)}
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	rec := env.request(t, http.MethodGet, "/bookings", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
}

func TestGetBookingEvents(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.booking = sampleBooking(t)
	env.trail.events["bk-1"] = []booking.Envelope{
		{EventType: booking.EventBookingRequested, BookingID: "bk-1", Data: json.RawMessage(`{}`), Timestamp: time.Now()},
		{EventType: booking.EventBookingApproved, BookingID: "bk-1", Data: json.RawMessage(`{}`), Timestamp: time.Now()},
	}
	token := env.tokenFor(t, "cust-1", user.RoleCustomer)

	rec := env.request(t, http.MethodGet, "/bookings/bk-1/events", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []booking.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, booking.EventBookingRequested, resp[0].EventType)
}

func TestGetBookingEvents_UnknownBooking(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.err = booking.ErrNotFound
	token := env.tokenFor(t, "cust-1", user.RoleCustomer)

	rec := env.request(t, http.MethodGet, "/bookings/missing/events", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================
// Shop and product endpoints
// ============================================

func TestCreateShop_ThenProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	shopRec := env.request(t, http.MethodPost, "/shops", token, map[string]string{"name": "Festa Total"})
	require.Equal(t, http.StatusCreated, shopRec.Code)

	prodRec := env.request(t, http.MethodPost, "/products", token, map[string]any{
		"name":       "Mesa Redonda",
		"type":       "rental",
		"price":      "150.00",
		"daily_rate": "25.00",
		"quantity":   10,
	})
	require.Equal(t, http.StatusCreated, prodRec.Code)

	var resp ProductResponse
	require.NoError(t, json.Unmarshal(prodRec.Body.Bytes(), &resp))
	assert.Equal(t, "150.00", resp.Price)
	assert.Equal(t, "25.00", resp.DailyRate)
	assert.Equal(t, product.TypeRental, resp.Type)
	require.Len(t, env.products.created, 1)
}

func TestCreateShop_SecondShopConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)

	first := env.request(t, http.MethodPost, "/shops", token, map[string]string{"name": "One"})
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.request(t, http.MethodPost, "/shops", token, map[string]string{"name": "Two"})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestUpdateProduct_PatchesFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)
	env.request(t, http.MethodPost, "/shops", token, map[string]string{"name": "Shop"})

	sh, err := env.shops.FindByOwner(context.Background(), "vendor-1")
	require.NoError(t, err)
	env.products.products["prod-1"] = &product.Product{
		ID:       "prod-1",
		ShopID:   sh.ID,
		Name:     "Mesa",
		Type:     product.TypeSale,
		Price:    mustMoney(t, "100.00"),
		Quantity: 5,
		Active:   true,
	}

	rec := env.request(t, http.MethodPut, "/products/prod-1", token, map[string]any{
		"price":  "120.00",
		"active": false,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "120.00", resp.Price)
	assert.False(t, resp.Active)
	assert.Equal(t, "Mesa", resp.Name)
}

func TestUpdateProduct_OtherVendorForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.products.products["prod-1"] = &product.Product{
		ID: "prod-1", ShopID: "shop-1", Name: "Mesa",
		Type: product.TypeSale, Price: mustMoney(t, "100.00"), Quantity: 5, Active: true,
	}

	otherToken := env.tokenFor(t, "vendor-2", user.RoleVendor)
	env.request(t, http.MethodPost, "/shops", otherToken, map[string]string{"name": "Other"})

	rec := env.request(t, http.MethodPut, "/products/prod-1", otherToken, map[string]any{"active": false})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateProduct_CustomerForbidden(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "cust-1", user.RoleCustomer)

	rec := env.request(t, http.MethodPost, "/products", token, map[string]any{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateProduct_RentalWithoutRate(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)
	env.request(t, http.MethodPost, "/shops", token, map[string]string{"name": "Shop"})

	// The fake store does not validate, so route it through the real
	// domain validation by checking the handler rejects missing price.
	rec := env.request(t, http.MethodPost, "/products", token, map[string]any{
		"name":     "Cadeira",
		"type":     "rental",
		"price":    "not-a-number",
		"quantity": 5,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectPayments(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "vendor-1", user.RoleVendor)
	env.request(t, http.MethodPost, "/shops", token, map[string]string{"name": "Shop"})

	rec := env.request(t, http.MethodPut, "/shops/me/payments", token, map[string]string{
		"payment_account_id": "acct_123",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var s shop.Shop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.True(t, s.OnboardingComplete)
	assert.Equal(t, "acct_123", s.PaymentAccountID)
}

func TestCheckAvailability(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet,
		"/products/prod-1/availability?start=2026-09-10T00:00:00Z&end=2026-09-12T00:00:00Z&quantity=2", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["available"])
}

func TestCheckAvailability_BadDates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/products/prod-1/availability?start=garbage", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================
// Webhook endpoint
// ============================================

func TestPaymentWebhook_Completed(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.event = &payment.Event{
		Type:            payment.EventPaymentCompleted,
		BookingID:       "bk-1",
		PaymentIntentID: "pi_123",
	}

	rec := env.request(t, http.MethodPost, "/webhooks/payment", "", map[string]string{"type": "payment_completed"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"bk-1"}, env.processor.handled)
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.err = payment.ErrInvalidSignature

	rec := env.request(t, http.MethodPost, "/webhooks/payment", "", map[string]string{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.processor.handled)
}

func TestPaymentWebhook_ProcessingFailureRetriable(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.event = &payment.Event{
		Type:            payment.EventPaymentCompleted,
		BookingID:       "bk-1",
		PaymentIntentID: "pi_123",
	}
	env.processor.err = errors.New("db down")

	rec := env.request(t, http.MethodPost, "/webhooks/payment", "", map[string]string{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPaymentWebhook_IgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.event = &payment.Event{Type: payment.EventAccountUpdated}

	rec := env.request(t, http.MethodPost, "/webhooks/payment", "", map[string]string{})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.processor.handled)
}
