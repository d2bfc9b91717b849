package domain

import "time"

// OrderEventType определяет тип доменного события заказа.
type OrderEventType string

const (
	OrderEventCreated     OrderEventType = "order.created"
	OrderEventUpdated     OrderEventType = "order.updated"
	OrderEventActivated   OrderEventType = "order.activated"
	OrderEventDeactivated OrderEventType = "order.deactivated"
	OrderEventDeleted     OrderEventType = "order.deleted"
)

// OrderEvent кладётся в outbox как полезная нагрузка события.
type OrderEvent struct {
	EventType       OrderEventType `json:"event_type"`
	Kind            OrderKind      `json:"kind"`
	OrderID         int64          `json:"order_id"`
	Status          OrderStatus    `json:"status,omitempty"`
	Total           string         `json:"total,omitempty"`
	ItemCount       int            `json:"item_count"`
	CounterpartyID  int64          `json:"counterparty_id,omitempty"`
	SellerID        int64          `json:"seller_id,omitempty"`
	PaymentMethodID int64          `json:"payment_method_id,omitempty"`
	Version         int64          `json:"version"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// NewOrderEvent собирает событие из текущего состояния заказа.
func NewOrderEvent(eventType OrderEventType, order Order, occurredAt time.Time) OrderEvent {
	return OrderEvent{
		EventType:       eventType,
		Kind:            order.Kind,
		OrderID:         order.ID,
		Status:          order.Status,
		Total:           order.Total.String(),
		ItemCount:       len(order.Items),
		CounterpartyID:  order.CounterpartyID,
		SellerID:        order.SellerID,
		PaymentMethodID: order.PaymentMethodID,
		Version:         order.Version,
		OccurredAt:      occurredAt,
	}
}
