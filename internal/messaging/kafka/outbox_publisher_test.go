package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestOutboxPublisher_PublishWrapsEnvelope(t *testing.T) {
	t.Parallel()

	publishedAt := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != "purchase:42" {
			return fmt.Errorf("unexpected key %q", key)
		}
		if got := headerValue(msg, HeaderEventType); got != "order.updated" {
			return fmt.Errorf("unexpected event type header %q", got)
		}
		if got := headerValue(msg, HeaderOutboxID); got != "outbox-1" {
			return fmt.Errorf("unexpected outbox id header %q", got)
		}

		raw, _ := msg.Value.Encode()
		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		if envelope.ID != "outbox-1" || envelope.AggregateID != "42" || envelope.EventType != "order.updated" {
			return fmt.Errorf("unexpected envelope %+v", envelope)
		}
		if string(envelope.Payload) != `{"total":"60"}` {
			return fmt.Errorf("unexpected payload %s", envelope.Payload)
		}
		if !envelope.PublishedAt.Equal(publishedAt) {
			return fmt.Errorf("unexpected published_at %s", envelope.PublishedAt)
		}
		return nil
	})

	publisher := NewOutboxPublisher(newProducer(mockProducer), "")
	publisher.now = func() time.Time { return publishedAt }

	if publisher.Topic() != TopicOrderEvents {
		t.Fatalf("expected default topic %s, got %s", TopicOrderEvents, publisher.Topic())
	}

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: "purchase",
		AggregateID:   "42",
		EventType:     "order.updated",
		Payload:       []byte(`{"total":"60"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDLQPublisher_SendsRawBody(t *testing.T) {
	t.Parallel()

	body := `{"outbox_id":"outbox-2","publish_error":"boom"}`

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicDeadLetterQueue {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		raw, _ := msg.Value.Encode()
		if string(raw) != body {
			return fmt.Errorf("unexpected body %s", raw)
		}
		return nil
	})

	publisher := NewDLQPublisher(newProducer(mockProducer), "")
	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: "sale",
		AggregateID:   "1",
		EventType:     "order.created",
		Payload:       []byte(body),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	publisher := NewOutboxPublisher(newProducer(mockProducer), TopicOrderEvents)
	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-3",
		AggregateType: "reservation",
		AggregateID:   "3",
		EventType:     "order.deleted",
		Payload:       []byte(`{}`),
	})
	if !errors.Is(err, sarama.ErrNotLeaderForPartition) {
		t.Fatalf("expected broker error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_NotInitialized(t *testing.T) {
	t.Parallel()

	var publisher *OutboxTopicPublisher
	if err := publisher.Publish(domain.OutboxMessage{ID: "x"}); err == nil {
		t.Fatal("expected error for nil publisher")
	}
}

func TestMessageKey(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.OutboxMessage{
		"sale:1": {ID: "a", AggregateType: "sale", AggregateID: "1"},
		"1":      {ID: "a", AggregateID: "1"},
		"a":      {ID: "a"},
	}
	for want, msg := range cases {
		if got := messageKey(msg); got != want {
			t.Errorf("messageKey(%+v) = %q, want %q", msg, got, want)
		}
	}
}
