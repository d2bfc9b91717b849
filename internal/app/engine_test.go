package app

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bms/internal/domain"
	"github.com/vladislavdragonenkov/bms/internal/metrics"
	"github.com/vladislavdragonenkov/bms/internal/storage/memory"
)

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func newMemoryEngine(t *testing.T) (*Engine, *runtimeDependencies) {
	t.Helper()

	deps, err := initRuntimeDependencies(context.Background(), DefaultConfig(), quietLogger())
	require.NoError(t, err)

	catalog := deps.memoryCatalog
	catalog.UpsertPerson(domain.Person{ID: 1, Role: domain.PartyRoleClient, Names: "Ana", LastName: "Diaz", Active: true})
	catalog.UpsertPerson(domain.Person{ID: 2, Role: domain.PartyRoleSeller, Names: "Bruno", LastName: "Lopez", Active: true})
	catalog.UpsertSupplier(domain.Supplier{ID: 1, Names: "Carla", LastName: "Mendez", Active: true})
	catalog.UpsertPaymentMethod(domain.PaymentMethod{ID: 1, Name: "cash", Active: true})
	catalog.UpsertProduct(domain.Product{ID: 10, Name: "Widget", UnitPrice: decimal.RequireFromString("20"), Active: true})

	engine, err := NewEngine(deps.orderRepos, deps.catalog, deps.outboxRepo,
		metrics.NewOrderMetricsWithRegisterer(prometheus.NewRegistry()), quietLogger())
	require.NoError(t, err)
	return engine, deps
}

func TestEngine_ServicePerKind(t *testing.T) {
	engine, _ := newMemoryEngine(t)

	for _, kind := range []domain.OrderKind{domain.OrderKindSale, domain.OrderKindPurchase, domain.OrderKindReservation} {
		svc, err := engine.Service(kind)
		require.NoError(t, err)
		require.Equal(t, kind, svc.Kind().Kind)
	}

	_, err := engine.Service("invoice")
	require.ErrorIs(t, err, domain.ErrOrderKindInvalid)
}

func TestEngine_KindsShareCatalogAndOutbox(t *testing.T) {
	engine, deps := newMemoryEngine(t)
	ctx := context.Background()

	sale, err := engine.Sales.Create(ctx, domain.Order{
		CounterpartyID:  1,
		SellerID:        2,
		PaymentMethodID: 1,
		Items:           []domain.LineItem{{ProductID: 10, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(99)}},
	})
	require.NoError(t, err)
	require.Equal(t, "40", sale.Total.String())
	require.Equal(t, "Ana Diaz", sale.CounterpartyName)

	purchase, err := engine.Purchases.Create(ctx, domain.Order{
		CounterpartyID:  1,
		SellerID:        2,
		PaymentMethodID: 1,
		Items:           []domain.LineItem{{ProductID: 10, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(15)}},
	})
	require.NoError(t, err)
	require.Equal(t, "30", purchase.Total.String())
	require.Equal(t, "Carla Mendez", purchase.CounterpartyName)

	// Идентификаторы выдаются независимо для каждого вида.
	require.Equal(t, int64(1), sale.ID)
	require.Equal(t, int64(1), purchase.ID)

	pending := deps.outboxRepo.(*memory.OutboxRepository).AllPending()
	require.Len(t, pending, 2)
	require.Equal(t, string(domain.OrderKindSale), pending[0].AggregateType)
	require.Equal(t, string(domain.OrderKindPurchase), pending[1].AggregateType)
}

func TestNewEngine_MissingRepository(t *testing.T) {
	repos := map[domain.OrderKind]domain.OrderRepository{
		domain.OrderKindSale: memory.NewOrderRepository(domain.OrderKindSale),
	}

	_, err := NewEngine(repos, memory.NewCatalogStore(), nil, nil, quietLogger())
	require.Error(t, err)
}
