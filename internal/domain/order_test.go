package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// makeOrder создаёт согласованный заказ с двумя позициями.
func makeOrder() domain.Order {
	return domain.Order{
		ID:     1,
		Kind:   domain.OrderKindSale,
		Status: domain.OrderStatusActive,
		Items: []domain.LineItem{
			{ID: 1, ProductID: 10, Quantity: d("2"), UnitPrice: d("10"), Subtotal: d("20")},
			{ID: 2, ProductID: 11, Quantity: d("1.5"), UnitPrice: d("4"), Subtotal: d("6")},
		},
		Total:     d("26"),
		Timestamp: time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC),
	}
}

func TestOrder_ValidateInvariants_Consistent(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}

func TestOrder_ValidateInvariants_Violations(t *testing.T) {
	order := makeOrder()
	order.Kind = "invoice"
	order.Status = "archived"
	order.Items[0].Quantity = d("0")
	order.Items[1].UnitPrice = d("-1")
	order.Total = d("1")

	errs := order.ValidateInvariants()

	for _, want := range []error{
		domain.ErrOrderKindInvalid,
		domain.ErrOrderStatusInvalid,
		domain.ErrItemQtyInvalid,
		domain.ErrItemPriceInvalid,
		domain.ErrSubtotalMismatch,
		domain.ErrTotalMismatch,
	} {
		if !errors.Is(errors.Join(errs...), want) {
			t.Errorf("expected %v among violations %v", want, errs)
		}
	}
}

func TestOrder_Clone_IndependentItems(t *testing.T) {
	order := makeOrder()
	clone := order.Clone()

	clone.Items[0].Quantity = d("100")
	clone.Items = append(clone.Items, domain.LineItem{ProductID: 12})

	if !order.Items[0].Quantity.Equal(d("2")) {
		t.Fatalf("clone shares items with original: %s", order.Items[0].Quantity)
	}
	if len(order.Items) != 2 {
		t.Fatalf("original items changed: %d", len(order.Items))
	}
}

func TestOrder_Clone_NilItems(t *testing.T) {
	clone := domain.Order{ID: 5}.Clone()
	if clone.Items != nil {
		t.Fatalf("expected nil items, got %v", clone.Items)
	}
}

func TestOrder_FormattedTimestamp(t *testing.T) {
	order := makeOrder()
	if got := order.FormattedTimestamp(); got != "05-Mar-2024 14:30" {
		t.Fatalf("unexpected formatted timestamp: %s", got)
	}

	if got := (domain.Order{}).FormattedTimestamp(); got != "" {
		t.Fatalf("zero timestamp must render empty, got %q", got)
	}
}

func TestOrder_ItemsTotal(t *testing.T) {
	if got := makeOrder().ItemsTotal(); !got.Equal(d("26")) {
		t.Fatalf("expected 26, got %s", got)
	}
	if got := (domain.Order{}).ItemsTotal(); !got.IsZero() {
		t.Fatalf("expected zero for empty order, got %s", got)
	}
}

func TestLineItem_IsNew(t *testing.T) {
	if !(domain.LineItem{}).IsNew() {
		t.Fatal("item without id must be new")
	}
	if (domain.LineItem{ID: 3}).IsNew() {
		t.Fatal("item with id must not be new")
	}
}

func TestOrderKindAndStatus_Valid(t *testing.T) {
	for _, k := range []domain.OrderKind{domain.OrderKindSale, domain.OrderKindPurchase, domain.OrderKindReservation} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if domain.OrderKind("invoice").Valid() {
		t.Error("unknown kind must be invalid")
	}

	if !domain.OrderStatusActive.Valid() || !domain.OrderStatusInactive.Valid() {
		t.Error("active and inactive must be valid")
	}
	if domain.OrderStatus("").Valid() {
		t.Error("empty status must be invalid")
	}
}

func TestPage_TotalPages(t *testing.T) {
	tests := []struct {
		page domain.Page[int]
		want int
	}{
		{domain.Page[int]{Size: 10, Total: 25}, 3},
		{domain.Page[int]{Size: 10, Total: 20}, 2},
		{domain.Page[int]{Size: 10, Total: 0}, 0},
		{domain.Page[int]{Size: 0, Total: 5}, 0},
	}
	for _, tt := range tests {
		if got := tt.page.TotalPages(); got != tt.want {
			t.Errorf("TotalPages(%+v) = %d, want %d", tt.page, got, tt.want)
		}
	}
}

func TestPersonAndSupplier_FullName(t *testing.T) {
	if got := (domain.Person{Names: "Ana", LastName: "Diaz"}).FullName(); got != "Ana Diaz" {
		t.Fatalf("unexpected person name %q", got)
	}
	if got := (domain.Supplier{Names: "Carla", LastName: "Mendez"}).FullName(); got != "Carla Mendez" {
		t.Fatalf("unexpected supplier name %q", got)
	}
}

func TestNewOrderEvent(t *testing.T) {
	order := makeOrder()
	order.Version = 4
	at := time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)

	event := domain.NewOrderEvent(domain.OrderEventUpdated, order, at)

	if event.OrderID != 1 || event.Kind != domain.OrderKindSale || event.Version != 4 {
		t.Fatalf("unexpected event header: %+v", event)
	}
	if event.Total != "26" || event.ItemCount != 2 {
		t.Fatalf("unexpected event totals: %+v", event)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("unexpected occurred_at: %s", event.OccurredAt)
	}
}
