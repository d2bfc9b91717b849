package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// CalculateTotals возвращает копию позиций с заполненным Subtotal и сумму заказа.
// Исходный срез не изменяется.
func CalculateTotals(items []domain.LineItem) ([]domain.LineItem, decimal.Decimal, error) {
	priced := make([]domain.LineItem, len(items))
	total := decimal.Zero

	for idx, item := range items {
		if !item.Quantity.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", idx, domain.ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", idx, domain.ErrItemPriceInvalid)
		}

		item.Subtotal = item.Quantity.Mul(item.UnitPrice)
		total = total.Add(item.Subtotal)
		priced[idx] = item
	}

	return priced, total, nil
}
