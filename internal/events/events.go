// Package events publishes tracking events (ad impressions and clicks,
// product views and clicks) to kafka for downstream analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Type string

const (
	AdImpression Type = "ad.impression"
	AdClick      Type = "ad.click"
	ProductView  Type = "product.view"
	ProductClick Type = "product.click"
	PriceSynced  Type = "price.synced"
)

type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	EntityID   string            `json:"entityId"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func New(t Type, entityID string, attrs map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Attributes: attrs,
	}
}

// Publisher is what handlers depend on. Publishing never fails a request;
// implementations log and drop on error.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher builds an async writer so tracking calls return without
// waiting for broker acknowledgement.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				zap.L().Warn("kafka delivery failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: writer}
}

func encode(events []Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.EntityID),
			Value: value,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}
	return msgs, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	msgs, err := encode(events)
	if err != nil {
		zap.L().Error("event encoding failed", zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		zap.L().Warn("event publish failed", zap.String("type", string(events[0].Type)), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) {}
func (Nop) Close() error                      { return nil }
