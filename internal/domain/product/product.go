package product

import (
	"errors"

	"github.com/example/rental-marketplace/internal/domain/money"
)

type Type string

const (
	TypeSale   Type = "sale"
	TypeRental Type = "rental"
	TypeBundle Type = "bundle"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInactive          = errors.New("product is not active")
	ErrInvalidType       = errors.New("invalid product type")
	ErrDailyRateRequired = errors.New("rental products require a daily rate")
	ErrNoComponents      = errors.New("bundle products require at least one component")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Component belongs to exactly one bundle product. Quantity is the
// number of units consumed per one bundle; StockQuantity is the
// component's own total stock, tracked in its own inventory ledger.
type Component struct {
	ID            string `json:"id"`
	BundleID      string `json:"bundle_id"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	StockQuantity int    `json:"stock_quantity"`
	Shared        bool   `json:"shared"`
}

type Product struct {
	ID         string      `json:"id"`
	ShopID     string      `json:"shop_id"`
	Name       string      `json:"name"`
	Type       Type        `json:"type"`
	Price      money.Money `json:"-"`
	DailyRate  money.Money `json:"-"`
	Quantity   int         `json:"quantity"`
	Active     bool        `json:"active"`
	Components []Component `json:"components,omitempty"`
}

func (p *Product) IsBundle() bool { return p.Type == TypeBundle }
func (p *Product) IsRental() bool { return p.Type == TypeRental }

func (p *Product) Validate() error {
	switch p.Type {
	case TypeSale, TypeRental, TypeBundle:
	default:
		return ErrInvalidType
	}
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.Type == TypeRental && p.DailyRate.IsZero() {
		return ErrDailyRateRequired
	}
	if p.Type == TypeBundle && len(p.Components) == 0 {
		return ErrNoComponents
	}
	for _, c := range p.Components {
		if c.Quantity <= 0 || c.StockQuantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
