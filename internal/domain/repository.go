package domain

import "context"

// OrderRepository описывает хранилище заказов одного вида.
// Позиции принадлежат заказу: сохраняются и удаляются только вместе с ним.
type OrderRepository interface {
	// Kind возвращает вид заказов, которые обслуживает репозиторий.
	Kind() OrderKind
	// Create сохраняет новый заказ, выдаёт идентификаторы заказу и позициям и возвращает сохранённое состояние.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// Exists сообщает, есть ли заказ с таким идентификатором.
	Exists(ctx context.Context, id int64) (bool, error)
	// ListByStatus возвращает заказы с указанным статусом; пустой статус означает все заказы.
	ListByStatus(ctx context.Context, status OrderStatus) ([]Order, error)
	// Save атомарно применяет шапку и разницу позиций с учётом optimistic locking.
	// Новые позиции (ID == 0) получают идентификаторы, отсутствующие в order.Items удаляются.
	Save(ctx context.Context, order Order) (Order, error)
	// Delete удаляет заказ вместе с позициями.
	Delete(ctx context.Context, id int64) error
}
