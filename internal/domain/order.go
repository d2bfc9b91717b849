package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind различает три вида агрегатов заказа.
type OrderKind string

const (
	OrderKindSale        OrderKind = "sale"
	OrderKindPurchase    OrderKind = "purchase"
	OrderKindReservation OrderKind = "reservation"
)

// Valid проверяет, что вид заказа поддерживается.
func (k OrderKind) Valid() bool {
	switch k {
	case OrderKindSale, OrderKindPurchase, OrderKindReservation:
		return true
	default:
		return false
	}
}

// OrderStatus принимает одно из двух значений.
type OrderStatus string

const (
	OrderStatusActive OrderStatus = "active"
	// OrderStatusInactive означает логически удалённый (отменённый) заказ.
	OrderStatusInactive OrderStatus = "inactive"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusActive || s == OrderStatusInactive
}

const formattedTimestampLayout = "02-Jan-2006 15:04"

// LineItem представляет одну позицию заказа.
type LineItem struct {
	// ID == 0 означает новую позицию; идентификатор выдаёт репозиторий.
	ID        int64
	ProductID int64
	Quantity  decimal.Decimal
	// UnitPrice фиксируется в момент оформления и может отличаться от текущей цены каталога.
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// IsNew сообщает, что позиция ещё не сохранена.
func (i LineItem) IsNew() bool {
	return i.ID == 0
}

// Order агрегирует шапку заказа и его позиции.
// Sale, Purchase и Reservation отличаются только Kind и ролью контрагента.
type Order struct {
	ID              int64
	Kind            OrderKind
	CounterpartyID  int64
	SellerID        int64
	PaymentMethodID int64
	Timestamp       time.Time
	Status          OrderStatus
	Items           []LineItem
	Total           decimal.Decimal
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Вычисляемые поля, в хранилище не попадают.
	CounterpartyName string
	SellerName       string
}

// Clone возвращает копию заказа с независимым срезом позиций.
func (o Order) Clone() Order {
	clone := o
	if o.Items != nil {
		clone.Items = make([]LineItem, len(o.Items))
		copy(clone.Items, o.Items)
	}
	return clone
}

// FormattedTimestamp возвращает отметку времени в формате dd-MMM-yyyy HH:mm.
func (o Order) FormattedTimestamp() string {
	if o.Timestamp.IsZero() {
		return ""
	}
	return o.Timestamp.Format(formattedTimestampLayout)
}

// ItemsTotal суммирует подытоги позиций.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// ValidateInvariants проверяет согласованность сумм и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if !o.Kind.Valid() {
		errs = append(errs, ErrOrderKindInvalid)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrOrderStatusInvalid)
	}
	for _, item := range o.Items {
		if !item.Quantity.IsPositive() {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if !item.Subtotal.Equal(item.Quantity.Mul(item.UnitPrice)) {
			errs = append(errs, ErrSubtotalMismatch)
		}
	}
	if !o.Total.Equal(o.ItemsTotal()) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
