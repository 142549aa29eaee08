package shop

import "errors"

var (
	ErrNotFound = errors.New("shop not found")
	ErrInactive = errors.New("shop is not active")
)

type Shop struct {
	ID                 string `json:"id"`
	OwnerID            string `json:"owner_id"`
	Name               string `json:"name"`
	Active             bool   `json:"active"`
	PaymentAccountID   string `json:"payment_account_id,omitempty"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}

// CanReceivePayments reports whether the shop finished payment-gateway
// onboarding and has a connected account to receive transfers.
func (s *Shop) CanReceivePayments() bool {
	return s.OnboardingComplete && s.PaymentAccountID != ""
}

func (s *Shop) IsOwnedBy(userID string) bool {
	return s.OwnerID == userID
}
