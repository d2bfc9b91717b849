package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
// Ключ сообщения состоит из вида и идентификатора заказа, поэтому события одного заказа
// попадают в одну партицию и читаются по порядку.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	raw      bool
	now      func() time.Time
}

// NewOutboxPublisher создаёт Kafka-паблишер событий заказов.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, now: time.Now}
}

// NewDLQPublisher создаёт паблишер для dead letter queue. Тело сообщения
// формирует outbox worker, поэтому оно отправляется без дополнительного конверта.
func NewDLQPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, raw: true, now: time.Now}
}

// Topic возвращает topic назначения.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}

	value := event.Payload
	if !p.raw {
		encoded, err := json.Marshal(Envelope{
			ID:            event.ID,
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
			EventType:     event.EventType,
			Payload:       json.RawMessage(event.Payload),
			PublishedAt:   p.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		value = encoded
	}

	return p.producer.Send(Message{
		Topic: p.topic,
		Key:   messageKey(event),
		Value: value,
		Headers: map[string]string{
			HeaderEventType:     event.EventType,
			HeaderAggregateType: event.AggregateType,
			HeaderOutboxID:      event.ID,
		},
	})
}

func messageKey(event domain.OutboxMessage) string {
	if event.AggregateID == "" {
		return event.ID
	}
	if event.AggregateType == "" {
		return event.AggregateID
	}
	return event.AggregateType + ":" + event.AggregateID
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
