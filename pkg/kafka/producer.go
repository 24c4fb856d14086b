// Package kafka publishes request lifecycle events for downstream consumers
// (notification fan-out, analytics). Publishing happens after the database
// transaction commits; a failed publish is logged and never undoes a merge
// or status change.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// RequestEvent represents a lifecycle event on a feature request
type RequestEvent struct {
	EventType string          `json:"event_type"` // request.status_changed, request.merged
	TenantID  string          `json:"tenant_id"`
	RequestID string          `json:"request_id"`
	ActorID   string          `json:"actor_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// PublishRequestEvent publishes a request event to Kafka
func (p *Producer) PublishRequestEvent(ctx context.Context, event *RequestEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRequestEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.RequestID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
			{Key: "traceparent", Value: []byte(tracing.GetTraceParent(ctx))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish request event")
		return err
	}

	metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "ok").Inc()
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"request_id": event.RequestID,
	}).Debug("Published request event")

	return nil
}
