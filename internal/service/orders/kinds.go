package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// PricingPolicy определяет, откуда берётся цена единицы товара в позиции.
type PricingPolicy interface {
	// UnitPrice возвращает цену, которая будет зафиксирована в позиции.
	UnitPrice(item domain.LineItem, product domain.Product) decimal.Decimal
	// Name используется в логах.
	Name() string
}

type catalogPricing struct{}

func (catalogPricing) UnitPrice(_ domain.LineItem, product domain.Product) decimal.Decimal {
	return product.UnitPrice
}

func (catalogPricing) Name() string { return "catalog" }

type submittedPricing struct{}

func (submittedPricing) UnitPrice(item domain.LineItem, _ domain.Product) decimal.Decimal {
	return item.UnitPrice
}

func (submittedPricing) Name() string { return "submitted" }

var (
	// CatalogPricing всегда берёт текущую цену из каталога, игнорируя переданную.
	CatalogPricing PricingPolicy = catalogPricing{}
	// SubmittedPricing сохраняет цену, переданную вызывающей стороной (цена по накладной).
	SubmittedPricing PricingPolicy = submittedPricing{}
)

// Kind описывает отличия конкретного вида заказа от общего алгоритма.
type Kind struct {
	Kind             domain.OrderKind
	CounterpartyRole domain.PartyRole
	Pricing          PricingPolicy
}

var (
	// SaleKind: контрагент-клиент, цена из каталога.
	SaleKind = Kind{Kind: domain.OrderKindSale, CounterpartyRole: domain.PartyRoleClient, Pricing: CatalogPricing}
	// PurchaseKind: контрагент-поставщик, цена из документа.
	PurchaseKind = Kind{Kind: domain.OrderKindPurchase, CounterpartyRole: domain.PartyRoleSupplier, Pricing: SubmittedPricing}
	// ReservationKind: контрагент-клиент, цена из каталога.
	ReservationKind = Kind{Kind: domain.OrderKindReservation, CounterpartyRole: domain.PartyRoleClient, Pricing: CatalogPricing}
)

// Kinds возвращает все поддерживаемые виды в стабильном порядке.
func Kinds() []Kind {
	return []Kind{SaleKind, PurchaseKind, ReservationKind}
}

// KindFor находит описание вида по его имени.
func KindFor(kind domain.OrderKind) (Kind, error) {
	for _, k := range Kinds() {
		if k.Kind == kind {
			return k, nil
		}
	}
	return Kind{}, fmt.Errorf("%q: %w", kind, domain.ErrOrderKindInvalid)
}
