package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
	"github.com/example/rental-marketplace/internal/domain/shop"
	"github.com/example/rental-marketplace/internal/inventory"
	"github.com/example/rental-marketplace/internal/payment"
	"github.com/example/rental-marketplace/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	FindByID(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	// MarkPaid writes the paid status and the inventory reservations in
	// one transaction. It returns false without error when the booking
	// was no longer awaiting payment, which makes webhook retries no-ops.
	MarkPaid(ctx context.Context, bookingID, paymentIntentID string, paidAt time.Time, reservations []inventory.Reservation) (bool, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*product.Product, error)
}

type ShopRepository interface {
	FindByID(ctx context.Context, id string) (*shop.Shop, error)
}

// Availability is the inventory engine surface the lifecycle needs.
// Nothing here releases inventory: cancellation is only legal before
// payment, and reservations are written at payment time.
type Availability interface {
	CheckAvailability(ctx context.Context, productID string, start, end time.Time, quantity int) (bool, error)
	BuildReservations(ctx context.Context, productID string, start, end time.Time, quantity int) ([]inventory.Reservation, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service owns the booking lifecycle. Every transition re-validates
// its guards against current state; nothing is cached from creation.
type Service struct {
	bookings     Repository
	products     ProductRepository
	shops        ShopRepository
	availability Availability
	gateway      payment.Gateway
	publisher    Publisher
	feeRate      decimal.Decimal
	currency     string
}

func NewService(bookings Repository, products ProductRepository, shops ShopRepository, availability Availability, gateway payment.Gateway, publisher Publisher, currency string) *Service {
	return &Service{
		bookings:     bookings,
		products:     products,
		shops:        shops,
		availability: availability,
		gateway:      gateway,
		publisher:    publisher,
		feeRate:      pricing.DefaultPlatformFeeRate,
		currency:     currency,
	}
}

type CreateItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	CustomerID      string            `json:"-"`
	ShopID          string            `json:"shop_id"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	Items           []CreateItemInput `json:"items"`
	Notes           string            `json:"notes"`
	DeliveryAddress string            `json:"delivery_address"`
}

// Create validates and prices every item before anything is persisted;
// a failure on any item means no booking is created.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	if !in.StartDate.Before(in.EndDate) {
		return nil, ErrInvalidDateRange
	}
	if startDay(in.StartDate).Before(startDay(time.Now())) {
		return nil, ErrStartInPast
	}
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	sh, err := s.shops.FindByID(ctx, in.ShopID)
	if err != nil {
		return nil, err
	}
	if !sh.Active {
		return nil, shop.ErrInactive
	}

	now := time.Now()
	b := &Booking{
		ID:              uuid.New().String(),
		CustomerID:      in.CustomerID,
		ShopID:          in.ShopID,
		Status:          StatusPendingVendorReview,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Notes:           in.Notes,
		DeliveryAddress: in.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	days := b.DurationDays()

	total := money.Zero(s.currency)
	for _, item := range in.Items {
		p, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: %s", product.ErrInactive, p.Name)
		}
		if p.ShopID != in.ShopID {
			return nil, fmt.Errorf("%w: %s", ErrProductNotInShop, p.Name)
		}

		available, err := s.availability.CheckAvailability(ctx, item.ProductID, in.StartDate, in.EndDate, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, p.Name)
		}

		quote, err := pricing.PriceItem(p, item.Quantity, days)
		if err != nil {
			return nil, err
		}

		b.Items = append(b.Items, Item{
			ID:         uuid.New().String(),
			BookingID:  b.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  quote.UnitPrice,
			TotalPrice: quote.TotalPrice,
			Days:       days,
		})

		total, err = total.Add(quote.TotalPrice)
		if err != nil {
			return nil, err
		}
	}
	b.TotalAmount = total

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, EventBookingRequested, BookingRequested{
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		ShopID:      b.ShopID,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		TotalAmount: b.TotalAmount.StringFixed(),
		Currency:    s.currency,
		ItemCount:   len(b.Items),
		RequestedAt: now,
	})

	return b, nil
}

// Approve moves a pending booking to awaiting payment. The checkout
// session is created before any state is written; a gateway failure
// leaves the booking untouched.
func (s *Service) Approve(ctx context.Context, bookingID, vendorID string) (*Booking, string, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	sh, err := s.shops.FindByID(ctx, b.ShopID)
	if err != nil {
		return nil, "", err
	}
	if !sh.IsOwnedBy(vendorID) {
		return nil, "", ErrUnauthorized
	}
	if !b.CanTransitionTo(StatusApprovedAwaitingPayment) {
		return nil, "", b.transitionError(StatusApprovedAwaitingPayment)
	}
	if !sh.CanReceivePayments() {
		return nil, "", ErrShopNotOnboarded
	}

	fee, vendorAmount, err := pricing.SplitFee(b.TotalAmount, s.feeRate)
	if err != nil {
		return nil, "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutParams{
		BookingID:            b.ID,
		CustomerID:           b.CustomerID,
		AmountCents:          b.TotalAmount.Cents(),
		PlatformFeeCents:     fee.Cents(),
		Currency:             s.currency,
		DestinationAccountID: sh.PaymentAccountID,
	})
	if err != nil {
		return nil, "", err
	}

	b.Status = StatusApprovedAwaitingPayment
	b.PlatformFee = fee
	b.VendorAmount = vendorAmount
	b.CheckoutSessionID = session.SessionID
	b.UpdatedAt = time.Now()

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, "", err
	}

	s.publish(ctx, b.ID, EventBookingApproved, BookingApproved{
		BookingID:    b.ID,
		ShopID:       b.ShopID,
		CustomerID:   b.CustomerID,
		PlatformFee:  fee.StringFixed(),
		VendorAmount: vendorAmount.StringFixed(),
		CheckoutURL:  session.RedirectURL,
		ApprovedAt:   b.UpdatedAt,
	})

	return b, session.RedirectURL, nil
}

func (s *Service) Reject(ctx context.Context, bookingID, vendorID, reason string) (*Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	sh, err := s.shops.FindByID(ctx, b.ShopID)
	if err != nil {
		return nil, err
	}
	if !sh.IsOwnedBy(vendorID) {
		return nil, ErrUnauthorized
	}
	if !b.CanTransitionTo(StatusRejectedByVendor) {
		return nil, b.transitionError(StatusRejectedByVendor)
	}

	b.Status = StatusRejectedByVendor
	b.RejectionReason = reason
	b.UpdatedAt = time.Now()

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, EventBookingRejected, BookingRejected{
		BookingID:  b.ID,
		ShopID:     b.ShopID,
		CustomerID: b.CustomerID,
		Reason:     reason,
		RejectedAt: b.UpdatedAt,
	})

	return b, nil
}

// Cancel is customer-initiated and allowed while the booking is
// pending review or awaiting payment. A captured payment is refunded
// before the status moves; a refund failure aborts the cancellation.
func (s *Service) Cancel(ctx context.Context, bookingID, customerID string) (*Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrUnauthorized
	}
	if !b.CanTransitionTo(StatusCancelledByCustomer) {
		return nil, b.transitionError(StatusCancelledByCustomer)
	}

	refunded := false
	if b.PaymentIntentID != "" {
		if err := s.gateway.Refund(ctx, b.PaymentIntentID); err != nil {
			return nil, err
		}
		refunded = true
	}

	b.Status = StatusCancelledByCustomer
	b.UpdatedAt = time.Now()

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, EventBookingCancelled, BookingCancelled{
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		ShopID:      b.ShopID,
		Refunded:    refunded,
		CancelledAt: b.UpdatedAt,
	})

	return b, nil
}

// Expire marks an approved booking whose payment hold lapsed. It is an
// operator transition with no caller authorization.
func (s *Service) Expire(ctx context.Context, bookingID string) (*Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.CanTransitionTo(StatusExpiredNoPayment) {
		return nil, b.transitionError(StatusExpiredNoPayment)
	}

	b.Status = StatusExpiredNoPayment
	b.UpdatedAt = time.Now()

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, EventBookingExpired, StatusChanged{
		BookingID: b.ID,
		ShopID:    b.ShopID,
		Status:    b.Status,
		ChangedAt: b.UpdatedAt,
	})

	return b, nil
}

func (s *Service) Activate(ctx context.Context, bookingID, vendorID string) (*Booking, error) {
	return s.advance(ctx, bookingID, vendorID, StatusActive, EventBookingActivated)
}

func (s *Service) Return(ctx context.Context, bookingID, vendorID string) (*Booking, error) {
	return s.advance(ctx, bookingID, vendorID, StatusReturned, EventBookingReturned)
}

func (s *Service) Complete(ctx context.Context, bookingID, vendorID string) (*Booking, error) {
	return s.advance(ctx, bookingID, vendorID, StatusCompleted, EventBookingCompleted)
}

// advance handles the fulfillment transitions, which are status writes
// with no payment or inventory side effect.
func (s *Service) advance(ctx context.Context, bookingID, vendorID string, target Status, eventType string) (*Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	sh, err := s.shops.FindByID(ctx, b.ShopID)
	if err != nil {
		return nil, err
	}
	if !sh.IsOwnedBy(vendorID) {
		return nil, ErrUnauthorized
	}
	if !b.CanTransitionTo(target) {
		return nil, b.transitionError(target)
	}

	b.Status = target
	b.UpdatedAt = time.Now()

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, eventType, StatusChanged{
		BookingID: b.ID,
		ShopID:    b.ShopID,
		Status:    target,
		ChangedAt: b.UpdatedAt,
	})

	return b, nil
}

// HandlePaymentCompleted consumes a verified payment-completed event.
// Duplicate deliveries are no-ops: the status guard runs here and again
// inside the repository's transaction. Reservation rows and the status
// write commit atomically.
func (s *Service) HandlePaymentCompleted(ctx context.Context, bookingID, paymentIntentID string) error {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != StatusApprovedAwaitingPayment {
		log.Printf("[Booking] Ignoring payment event for booking %s in status %s", b.ID, b.Status)
		return nil
	}

	var reservations []inventory.Reservation
	for _, item := range b.Items {
		rs, err := s.availability.BuildReservations(ctx, item.ProductID, b.StartDate, b.EndDate, item.Quantity)
		if err != nil {
			return err
		}
		reservations = append(reservations, rs...)
	}

	paidAt := time.Now()
	applied, err := s.bookings.MarkPaid(ctx, b.ID, paymentIntentID, paidAt, reservations)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("[Booking] Payment for booking %s already processed", b.ID)
		return nil
	}

	s.publish(ctx, b.ID, EventBookingPaid, BookingPaid{
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		ShopID:          b.ShopID,
		PaymentIntentID: paymentIntentID,
		PaidAt:          paidAt,
	})

	return nil
}

// Get returns a booking to its customer or the owning vendor.
func (s *Service) Get(ctx context.Context, bookingID, callerID string) (*Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID == callerID {
		return b, nil
	}
	sh, err := s.shops.FindByID(ctx, b.ShopID)
	if err != nil {
		return nil, err
	}
	if !sh.IsOwnedBy(callerID) {
		return nil, ErrUnauthorized
	}
	return b, nil
}

// publish sends a lifecycle event. The database is the source of
// truth; a publish failure is logged and never fails the transition.
func (s *Service) publish(ctx context.Context, bookingID, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Booking] Failed to marshal %s event: %v", eventType, err)
		return
	}
	envelope := Envelope{
		EventType: eventType,
		BookingID: bookingID,
		Data:      raw,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, bookingID, envelope); err != nil {
		log.Printf("[Booking] Failed to publish %s event for booking %s: %v", eventType, bookingID, err)
	}
}

func startDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
