package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bms/internal/domain"
	"github.com/vladislavdragonenkov/bms/internal/metrics"
	"github.com/vladislavdragonenkov/bms/internal/service/orders"
)

// Engine объединяет сервисы трёх видов заказов поверх общих хранилищ.
type Engine struct {
	Sales        *orders.Service
	Purchases    *orders.Service
	Reservations *orders.Service
}

// NewEngine создаёт сервис для каждого вида заказа.
// Для каждого вида в repos должен быть репозиторий того же вида.
func NewEngine(
	repos map[domain.OrderKind]domain.OrderRepository,
	catalog domain.CatalogStore,
	outboxRepo domain.OutboxRepository,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) (*Engine, error) {
	if logger == nil {
		logger = log.WithField("component", "orders")
	}

	services := make(map[domain.OrderKind]*orders.Service, len(repos))
	for _, kind := range orders.Kinds() {
		repo, ok := repos[kind.Kind]
		if !ok {
			return nil, fmt.Errorf("no order repository for kind %q", kind.Kind)
		}

		opts := []orders.Option{
			orders.WithMetrics(orderMetrics),
			orders.WithLogger(logger),
		}
		if outboxRepo != nil {
			opts = append(opts, orders.WithOutbox(outboxRepo))
		}

		svc, err := orders.NewService(kind, repo, catalog, opts...)
		if err != nil {
			return nil, fmt.Errorf("init %s service: %w", kind.Kind, err)
		}
		services[kind.Kind] = svc
	}

	return &Engine{
		Sales:        services[domain.OrderKindSale],
		Purchases:    services[domain.OrderKindPurchase],
		Reservations: services[domain.OrderKindReservation],
	}, nil
}

// Service возвращает сервис по виду заказа.
func (e *Engine) Service(kind domain.OrderKind) (*orders.Service, error) {
	switch kind {
	case domain.OrderKindSale:
		return e.Sales, nil
	case domain.OrderKindPurchase:
		return e.Purchases, nil
	case domain.OrderKindReservation:
		return e.Reservations, nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, domain.ErrOrderKindInvalid)
	}
}
