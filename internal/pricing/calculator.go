// Package pricing derives booking prices from a product's pricing mode
// and computes the platform-fee split on approval.
package pricing

import (
	"errors"

	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
	"github.com/shopspring/decimal"
)

// DefaultPlatformFeeRate is the share of a booking total retained by
// the marketplace.
var DefaultPlatformFeeRate = decimal.RequireFromString("0.10")

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidDays     = errors.New("days must be positive")
	ErrInvalidFeeRate  = errors.New("fee rate must be between 0 and 1")
)

// Quote is the priced result for one booking line.
type Quote struct {
	UnitPrice  money.Money
	TotalPrice money.Money
}

// PriceItem computes the unit and total price for quantity units of a
// product over a rental duration of days. Rentals bill dailyRate x days
// per unit; everything else bills the flat price once regardless of
// duration.
func PriceItem(p *product.Product, quantity, days int) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, ErrInvalidQuantity
	}
	if days <= 0 {
		return Quote{}, ErrInvalidDays
	}

	unit := p.Price
	if p.IsRental() {
		var err error
		unit, err = p.DailyRate.MulInt(days)
		if err != nil {
			return Quote{}, err
		}
	}

	total, err := unit.MulInt(quantity)
	if err != nil {
		return Quote{}, err
	}

	return Quote{UnitPrice: unit, TotalPrice: total}, nil
}

// SplitFee divides a booking total into the platform fee and the
// vendor payout. fee = round(total x rate, 2); vendor = total - fee.
func SplitFee(total money.Money, rate decimal.Decimal) (fee, vendor money.Money, err error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return money.Money{}, money.Money{}, ErrInvalidFeeRate
	}

	fee, err = total.Mul(rate)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}

	vendor, err = total.Sub(fee)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}

	return fee, vendor, nil
}
