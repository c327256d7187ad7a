// Package events publishes domain events for downstream consumers
// (fulfilment, notifications, reporting).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated        = "order.created"
	OrderStatusChanged  = "order.status_changed"
	StoreCreated        = "store.created"
	SubscriptionUpdated = "subscription.updated"
)

// Event is the envelope written to the topic. Key groups events of a single
// store onto one partition.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event, marshalling payload.
func New(eventType, key string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// KafkaPublisher writes events to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(e.Key),
			Value:   value,
			Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }

// PublishTimeout bounds how long Emit waits on the broker.
const PublishTimeout = 2 * time.Second

// Emit builds and publishes a single event. Publishing is best effort: a
// broker outage is logged after PublishTimeout and never fails the
// originating request.
func Emit(ctx context.Context, p Publisher, eventType, key string, payload interface{}) {
	log := zerolog.Ctx(ctx)
	e, err := New(eventType, key, payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("build event")
		return
	}
	pctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()
	if err := p.Publish(pctx, e); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("key", key).Msg("publish event")
	}
}
