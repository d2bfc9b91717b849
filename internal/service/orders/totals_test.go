package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateTotals(t *testing.T) {
	items := []domain.LineItem{
		{ProductID: 1, Quantity: dec("3"), UnitPrice: dec("20.00")},
		{ProductID: 2, Quantity: dec("0.5"), UnitPrice: dec("10.10")},
	}

	priced, total, err := CalculateTotals(items)
	require.NoError(t, err)
	require.True(t, priced[0].Subtotal.Equal(dec("60")))
	require.True(t, priced[1].Subtotal.Equal(dec("5.05")))
	require.True(t, total.Equal(dec("65.05")), "total=%s", total)

	require.True(t, items[0].Subtotal.IsZero(), "input must not be mutated")
}

func TestCalculateTotals_Empty(t *testing.T) {
	priced, total, err := CalculateTotals(nil)
	require.NoError(t, err)
	require.Empty(t, priced)
	require.True(t, total.IsZero())
}

func TestCalculateTotals_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		item domain.LineItem
		want error
	}{
		{name: "zero quantity", item: domain.LineItem{Quantity: decimal.Zero, UnitPrice: dec("1")}, want: domain.ErrItemQtyInvalid},
		{name: "negative quantity", item: domain.LineItem{Quantity: dec("-1"), UnitPrice: dec("1")}, want: domain.ErrItemQtyInvalid},
		{name: "negative price", item: domain.LineItem{Quantity: dec("1"), UnitPrice: dec("-0.01")}, want: domain.ErrItemPriceInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CalculateTotals([]domain.LineItem{tt.item})
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want))
			require.True(t, domain.IsValidation(err))
		})
	}
}

func TestCalculateTotals_ZeroPriceAllowed(t *testing.T) {
	_, total, err := CalculateTotals([]domain.LineItem{{Quantity: dec("2"), UnitPrice: decimal.Zero}})
	require.NoError(t, err)
	require.True(t, total.IsZero())
}
