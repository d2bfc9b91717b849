package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// orderRepositoryInMemory хранит заказы одного вида в памяти процесса.
type orderRepositoryInMemory struct {
	mu         sync.RWMutex
	kind       domain.OrderKind
	orders     map[int64]domain.Order
	nextOrder  int64
	nextItemID int64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository(kind domain.OrderKind) domain.OrderRepository {
	return &orderRepositoryInMemory{
		kind:   kind,
		orders: make(map[int64]domain.Order),
	}
}

func (r *orderRepositoryInMemory) Kind() domain.OrderKind {
	return r.kind
}

// Create выдаёт идентификаторы заказу и всем позициям.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOrder++
	stored := order.Clone()
	stored.ID = r.nextOrder
	stored.Kind = r.kind
	stored.Version = 1
	for i := range stored.Items {
		r.nextItemID++
		stored.Items[i].ID = r.nextItemID
	}

	// Храним копию, чтобы вызывающая сторона не могла мутировать состояние репозитория.
	r.orders[stored.ID] = stored
	return stored.Clone(), nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (r *orderRepositoryInMemory) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.orders[id]
	return ok, nil
}

// ListByStatus возвращает заказы по возрастанию ID.
func (r *orderRepositoryInMemory) ListByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if status != "" && order.Status != status {
			continue
		}
		result = append(result, order.Clone())
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
// Позиции без ID получают новые идентификаторы.
func (r *orderRepositoryInMemory) Save(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.Order{}, domain.ErrOrderVersionConflict
	}

	stored := order.Clone()
	stored.Kind = r.kind
	stored.CreatedAt = current.CreatedAt
	stored.Version++
	for i := range stored.Items {
		if stored.Items[i].IsNew() {
			r.nextItemID++
			stored.Items[i].ID = r.nextItemID
		}
	}

	r.orders[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *orderRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
