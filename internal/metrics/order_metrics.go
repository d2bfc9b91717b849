package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения label result.
const (
	ResultOK         = "ok"
	ResultNotFound   = "not_found"
	ResultConflict   = "conflict"
	ResultValidation = "validation"
	ResultError      = "error"
)

// OrderMetrics содержит метрики движка заказов.
type OrderMetrics struct {
	// Счётчик операций по виду, операции и результату
	operations *prometheus.CounterVec
	// Длительность операций
	operationDuration *prometheus.HistogramVec
	// Изменения позиций при reconcile: added/updated/removed
	itemChanges *prometheus.CounterVec
	// Доменные события, поставленные в outbox
	outboxEvents *prometheus.CounterVec
}

// NewOrderMetrics создаёт метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer создаёт метрики в указанном registerer (удобно для тестов).
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bms_order_operations_total",
			Help: "Total number of order aggregate operations grouped by kind, operation and result",
		}, []string{"kind", "operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "bms_order_operation_duration_seconds",
			Help:    "Duration of order aggregate operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"kind", "operation"}),
		itemChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bms_order_item_changes_total",
			Help: "Line item changes applied by reconciliation grouped by kind and change",
		}, []string{"kind", "change"}),
		outboxEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bms_order_outbox_events_total",
			Help: "Total number of order events enqueued to the outbox",
		}, []string{"kind", "event"}),
	}
}

// RecordOperation фиксирует результат и длительность операции.
func (m *OrderMetrics) RecordOperation(kind, operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(kind, operation, result).Inc()
	m.operationDuration.WithLabelValues(kind, operation).Observe(duration.Seconds())
}

// RecordItemChanges фиксирует результат слияния позиций.
func (m *OrderMetrics) RecordItemChanges(kind string, added, updated, removed int) {
	if m == nil {
		return
	}
	m.itemChanges.WithLabelValues(kind, "added").Add(float64(added))
	m.itemChanges.WithLabelValues(kind, "updated").Add(float64(updated))
	m.itemChanges.WithLabelValues(kind, "removed").Add(float64(removed))
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent(kind, event string) {
	if m == nil {
		return
	}
	m.outboxEvents.WithLabelValues(kind, event).Inc()
}
