package domain

import (
	"context"
	"time"
)

// CatalogStore предоставляет движку доступ на чтение к справочникам.
type CatalogStore interface {
	// FindProduct возвращает товар или ErrProductNotFound.
	FindProduct(ctx context.Context, id int64) (Product, error)
	// FindPerson возвращает клиента/продавца или ErrPersonNotFound.
	FindPerson(ctx context.Context, id int64) (Person, error)
	// FindSupplier возвращает поставщика или ErrSupplierNotFound.
	FindSupplier(ctx context.Context, id int64) (Supplier, error)
	// FindPaymentMethod возвращает способ оплаты или ErrPaymentMethodNotFound.
	FindPaymentMethod(ctx context.Context, id int64) (PaymentMethod, error)
}

// OutboxPublisher публикует события из outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
