package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rental-marketplace/internal/domain/booking"
	"github.com/example/rental-marketplace/internal/domain/shop"
	"github.com/example/rental-marketplace/internal/domain/user"
)

type sentMail struct {
	kind      string
	to        string
	bookingID string
	total     string
	url       string
	reason    string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) SendBookingRequested(to, bookingID, total string) error {
	f.sent = append(f.sent, sentMail{kind: "requested", to: to, bookingID: bookingID, total: total})
	return f.err
}

func (f *fakeSender) SendBookingApproved(to, bookingID, total, checkoutURL string) error {
	f.sent = append(f.sent, sentMail{kind: "approved", to: to, bookingID: bookingID, total: total, url: checkoutURL})
	return f.err
}

func (f *fakeSender) SendBookingRejected(to, bookingID, reason string) error {
	f.sent = append(f.sent, sentMail{kind: "rejected", to: to, bookingID: bookingID, reason: reason})
	return f.err
}

func (f *fakeSender) SendBookingPaid(to, bookingID string) error {
	f.sent = append(f.sent, sentMail{kind: "paid", to: to, bookingID: bookingID})
	return f.err
}

type fakeUsers struct {
	users map[string]*user.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fakeShops struct {
	shops map[string]*shop.Shop
}

func (f *fakeShops) FindByID(ctx context.Context, id string) (*shop.Shop, error) {
	s, ok := f.shops[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return s, nil
}

func newTestHandler() (*Handler, *fakeSender) {
	sender := &fakeSender{}
	users := &fakeUsers{users: map[string]*user.User{
		"cust-1":   {ID: "cust-1", Email: "customer@example.com", Role: user.RoleCustomer},
		"vendor-1": {ID: "vendor-1", Email: "vendor@example.com", Role: user.RoleVendor},
	}}
	shops := &fakeShops{shops: map[string]*shop.Shop{
		"shop-1": {ID: "shop-1", OwnerID: "vendor-1", Name: "Festa Total"},
	}}
	return NewHandler(sender, users, shops), sender
}

func envelope(t *testing.T, eventType, bookingID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	value, err := json.Marshal(booking.Envelope{
		EventType: eventType,
		BookingID: bookingID,
		Data:      raw,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	return value
}

func TestHandleEvent_Requested_EmailsVendor(t *testing.T) {
	handler, sender := newTestHandler()

	value := envelope(t, booking.EventBookingRequested, "bk-1", booking.BookingRequested{
		BookingID:   "bk-1",
		CustomerID:  "cust-1",
		ShopID:      "shop-1",
		TotalAmount: "200.00",
	})

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "requested", sender.sent[0].kind)
	assert.Equal(t, "vendor@example.com", sender.sent[0].to)
	assert.Equal(t, "200.00", sender.sent[0].total)
}

func TestHandleEvent_Approved_EmailsCustomerWithCheckout(t *testing.T) {
	handler, sender := newTestHandler()

	value := envelope(t, booking.EventBookingApproved, "bk-1", booking.BookingApproved{
		BookingID:    "bk-1",
		ShopID:       "shop-1",
		CustomerID:   "cust-1",
		PlatformFee:  "20.00",
		VendorAmount: "180.00",
		CheckoutURL:  "https://pay.example/cs_1",
	})

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "approved", sender.sent[0].kind)
	assert.Equal(t, "customer@example.com", sender.sent[0].to)
	assert.Equal(t, "200.00", sender.sent[0].total)
	assert.Equal(t, "https://pay.example/cs_1", sender.sent[0].url)
}

func TestHandleEvent_Rejected_CarriesReason(t *testing.T) {
	handler, sender := newTestHandler()

	value := envelope(t, booking.EventBookingRejected, "bk-1", booking.BookingRejected{
		BookingID:  "bk-1",
		ShopID:     "shop-1",
		CustomerID: "cust-1",
		Reason:     "Itens indisponíveis",
	})

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "rejected", sender.sent[0].kind)
	assert.Equal(t, "Itens indisponíveis", sender.sent[0].reason)
}

func TestHandleEvent_Paid_EmailsCustomer(t *testing.T) {
	handler, sender := newTestHandler()

	value := envelope(t, booking.EventBookingPaid, "bk-1", booking.BookingPaid{
		BookingID:  "bk-1",
		CustomerID: "cust-1",
		ShopID:     "shop-1",
	})

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "paid", sender.sent[0].kind)
	assert.Equal(t, "customer@example.com", sender.sent[0].to)
}

func TestHandleEvent_IgnoresFulfillmentEvents(t *testing.T) {
	handler, sender := newTestHandler()

	value := envelope(t, booking.EventBookingActivated, "bk-1", booking.StatusChanged{
		BookingID: "bk-1",
		Status:    booking.StatusActive,
	})

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleEvent_UnknownRecipient_Swallowed(t *testing.T) {
	handler, sender := newTestHandler()

	value := envelope(t, booking.EventBookingPaid, "bk-1", booking.BookingPaid{
		BookingID:  "bk-1",
		CustomerID: "ghost",
	})

	// Missing users are logged, not retried
	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleEvent_SendFailure_Propagates(t *testing.T) {
	handler, sender := newTestHandler()
	sender.err = errors.New("smtp down")

	value := envelope(t, booking.EventBookingPaid, "bk-1", booking.BookingPaid{
		BookingID:  "bk-1",
		CustomerID: "cust-1",
	})

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), value)

	assert.Error(t, err)
}

func TestHandleEvent_MalformedEnvelope(t *testing.T) {
	handler, _ := newTestHandler()

	err := handler.HandleEvent(context.Background(), []byte("bk-1"), []byte("{not json"))

	assert.Error(t, err)
}
