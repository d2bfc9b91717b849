package orders

import (
	"fmt"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// ReconcileStats считает изменения, сделанные при слиянии позиций.
type ReconcileStats struct {
	Added   int
	Updated int
	Removed int
}

// Reconcile сливает входящий список позиций с сохранённым и возвращает новый список.
//
// Позиция без ID добавляется как новая. Позиция с известным ID обновляет сохранённую
// (ProductID, Quantity, UnitPrice), сохраняя её идентификатор. Сохранённые позиции,
// не упомянутые во входящем списке, удаляются. ID, которого нет в заказе, и повтор ID
// возвращают ошибку валидации. Порядок результата: оставшиеся сохранённые позиции
// в прежнем порядке, затем новые в порядке поступления.
func Reconcile(persisted, incoming []domain.LineItem) ([]domain.LineItem, ReconcileStats, error) {
	var stats ReconcileStats

	known := make(map[int64]struct{}, len(persisted))
	for _, item := range persisted {
		known[item.ID] = struct{}{}
	}

	updates := make(map[int64]domain.LineItem, len(incoming))
	added := make([]domain.LineItem, 0, len(incoming))
	for idx, item := range incoming {
		if item.IsNew() {
			added = append(added, item)
			continue
		}
		if _, ok := known[item.ID]; !ok {
			return nil, ReconcileStats{}, fmt.Errorf("item[%d] id=%d: %w", idx, item.ID, domain.ErrItemNotInOrder)
		}
		if _, dup := updates[item.ID]; dup {
			return nil, ReconcileStats{}, fmt.Errorf("item[%d] id=%d: %w", idx, item.ID, domain.ErrItemDuplicateID)
		}
		updates[item.ID] = item
	}

	merged := make([]domain.LineItem, 0, len(updates)+len(added))
	for _, current := range persisted {
		update, ok := updates[current.ID]
		if !ok {
			stats.Removed++
			continue
		}
		current.ProductID = update.ProductID
		current.Quantity = update.Quantity
		current.UnitPrice = update.UnitPrice
		merged = append(merged, current)
		stats.Updated++
	}
	merged = append(merged, added...)
	stats.Added = len(added)

	return merged, stats, nil
}
