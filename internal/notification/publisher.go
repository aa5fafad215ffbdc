package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/noah-isme/course-registration-api/pkg/config"
)

// Event is the message published for every student-facing notification.
type Event struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	Kind       string                 `json:"kind"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes notification events to a Kafka topic keyed by user id, so
// one user's events stay ordered within a partition.
type Publisher struct {
	writer messageWriter
}

// NewKafkaPublisher builds a synchronous publisher for cfg.
func NewKafkaPublisher(cfg config.KafkaConfig) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewPublisher wraps an existing writer.
func NewPublisher(writer messageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish encodes and writes a single event.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("notification publisher not configured")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", event.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification %s: %w", event.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
