package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bms/internal/domain"
	"github.com/vladislavdragonenkov/bms/internal/storage/memory"
)

func newOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		CounterpartyID:  1,
		SellerID:        2,
		PaymentMethodID: 3,
		Timestamp:       now,
		Status:          domain.OrderStatusActive,
		Total:           decimal.NewFromInt(500),
		Items: []domain.LineItem{
			{ProductID: 10, Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(500)},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(domain.OrderKindSale)

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}
	if created.Kind != domain.OrderKindSale {
		t.Fatalf("expected kind sale, got %s", created.Kind)
	}
	if created.Items[0].ID == 0 {
		t.Fatal("expected item id to be assigned")
	}

	stored, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.Total.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected total 500, got %s", stored.Total)
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := memory.NewOrderRepository(domain.OrderKindPurchase)

	_, err := repo.Get(context.Background(), 42)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(domain.OrderKindSale)

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	created.Items[0].Quantity = decimal.NewFromInt(99)

	stored, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.Items[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("repository state leaked: qty=%s", stored.Items[0].Quantity)
	}
}

func TestOrderRepository_SaveAssignsItemIDs(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(domain.OrderKindSale)

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	kept := created.Items[0]

	created.Items = append(created.Items, domain.LineItem{ProductID: 11, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1), Subtotal: decimal.NewFromInt(1)})
	saved, err := repo.Save(ctx, created)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.Version != created.Version+1 {
		t.Fatalf("expected version %d, got %d", created.Version+1, saved.Version)
	}
	if len(saved.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(saved.Items))
	}
	if saved.Items[0].ID != kept.ID {
		t.Fatalf("kept item changed id: %d -> %d", kept.ID, saved.Items[0].ID)
	}
	if saved.Items[1].ID == 0 || saved.Items[1].ID == kept.ID {
		t.Fatalf("expected fresh id for new item, got %d", saved.Items[1].ID)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(domain.OrderKindSale)

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.Save(ctx, created); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	_, err = repo.Save(ctx, created)
	if !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if !domain.IsConflict(err) {
		t.Fatal("expected conflict kind")
	}
}

func TestOrderRepository_ListByStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(domain.OrderKindReservation)

	for i := 0; i < 3; i++ {
		order := newOrder()
		if i == 1 {
			order.Status = domain.OrderStatusInactive
		}
		if _, err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	active, err := repo.ListByStatus(ctx, domain.OrderStatusActive)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active orders, got %d", len(active))
	}

	all, err := repo.ListByStatus(ctx, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
}

func TestOrderRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(domain.OrderKindSale)

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, err := repo.Exists(ctx, created.ID)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Fatal("expected order to be deleted")
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on second delete, got %v", err)
	}
}
