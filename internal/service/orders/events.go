package orders

import (
	"encoding/json"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// enqueueEvent кладёт доменное событие в outbox. Заказ к этому моменту уже сохранён,
// поэтому ошибка outbox только логируется.
func (s *Service) enqueueEvent(eventType domain.OrderEventType, order domain.Order) {
	if s.outbox == nil {
		return
	}

	event := domain.NewOrderEvent(eventType, order, s.now().UTC())
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to marshal order event")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: string(s.kind.Kind),
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     string(eventType),
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Error("failed to enqueue order event")
		return
	}

	s.metrics.RecordOutboxEvent(string(s.kind.Kind), string(eventType))
}
