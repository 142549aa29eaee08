package pricing

import (
	"testing"

	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.FromString(s, "BRL")
	require.NoError(t, err)
	return m
}

// ============================================
// PriceItem Tests
// ============================================

func TestPriceItem_SaleProduct(t *testing.T) {
	p := &product.Product{
		Type:  product.TypeSale,
		Price: mustMoney(t, "150.00"),
	}

	quote, err := PriceItem(p, 2, 3)

	require.NoError(t, err)
	assert.Equal(t, "150.00", quote.UnitPrice.StringFixed())
	assert.Equal(t, "300.00", quote.TotalPrice.StringFixed())
}

func TestPriceItem_RentalMultipliesByDays(t *testing.T) {
	p := &product.Product{
		Type:      product.TypeRental,
		Price:     mustMoney(t, "999.00"),
		DailyRate: mustMoney(t, "50.00"),
	}

	quote, err := PriceItem(p, 2, 3)

	require.NoError(t, err)
	assert.Equal(t, "150.00", quote.UnitPrice.StringFixed())
	assert.Equal(t, "300.00", quote.TotalPrice.StringFixed())
}

func TestPriceItem_BundleUsesFlatPrice(t *testing.T) {
	p := &product.Product{
		Type:  product.TypeBundle,
		Price: mustMoney(t, "400.00"),
	}

	quote, err := PriceItem(p, 1, 5)

	require.NoError(t, err)
	assert.Equal(t, "400.00", quote.UnitPrice.StringFixed())
	assert.Equal(t, "400.00", quote.TotalPrice.StringFixed())
}

func TestPriceItem_InvalidQuantity(t *testing.T) {
	p := &product.Product{Type: product.TypeSale, Price: mustMoney(t, "10.00")}

	_, err := PriceItem(p, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = PriceItem(p, -2, 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPriceItem_InvalidDays(t *testing.T) {
	p := &product.Product{Type: product.TypeRental, DailyRate: mustMoney(t, "10.00")}

	_, err := PriceItem(p, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

// ============================================
// SplitFee Tests
// ============================================

func TestSplitFee_DefaultRate(t *testing.T) {
	total := mustMoney(t, "200.00")

	fee, vendor, err := SplitFee(total, DefaultPlatformFeeRate)

	require.NoError(t, err)
	assert.Equal(t, "20.00", fee.StringFixed())
	assert.Equal(t, "180.00", vendor.StringFixed())
}

func TestSplitFee_SumsToTotal(t *testing.T) {
	tests := []struct {
		name  string
		total string
		rate  string
	}{
		{"even total", "100.00", "0.10"},
		{"odd cents", "99.99", "0.10"},
		{"rounding edge", "33.35", "0.15"},
		{"zero rate", "250.00", "0"},
		{"full rate", "250.00", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := mustMoney(t, tt.total)
			rate := decimal.RequireFromString(tt.rate)

			fee, vendor, err := SplitFee(total, rate)
			require.NoError(t, err)

			sum, err := fee.Add(vendor)
			require.NoError(t, err)
			assert.True(t, sum.Equal(total), "fee %s + vendor %s != total %s", fee, vendor, total)
		})
	}
}

func TestSplitFee_RejectsBadRate(t *testing.T) {
	total := mustMoney(t, "100.00")

	_, _, err := SplitFee(total, decimal.RequireFromString("-0.1"))
	assert.ErrorIs(t, err, ErrInvalidFeeRate)

	_, _, err = SplitFee(total, decimal.RequireFromString("1.5"))
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
}
