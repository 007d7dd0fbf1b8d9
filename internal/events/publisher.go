// Package events publishes order status changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const eventTypeOrderStatus = "order.status_changed"

// Publisher emits order status events.
type Publisher interface {
	PublishOrderStatus(ctx context.Context, event model.OrderStatusEvent) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order status events to a Kafka topic, keyed by order ID.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	logger  zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter creates a publisher over an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "kafka-publisher").Logger(),
	}
}

// PublishOrderStatus writes one event. Events for the same order share a key
// so they stay ordered within a partition.
func (p *KafkaPublisher) PublishOrderStatus(ctx context.Context, event model.OrderStatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order status event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventTypeOrderStatus)},
		},
		Time: event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().
			Err(err).
			Str("order_id", event.OrderID.String()).
			Str("status", event.Status.String()).
			Msg("failed to publish order status event")
		return fmt.Errorf("failed to publish order status event: %w", err)
	}

	p.logger.Debug().
		Str("order_id", event.OrderID.String()).
		Str("status", event.Status.String()).
		Msg("order status event published")
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderStatus(context.Context, model.OrderStatusEvent) error { return nil }
func (NopPublisher) Close() error { return nil }
