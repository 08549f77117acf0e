package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"

	"github.com/syntecxhub/mailbot/pkg/metrics"
)

// KafkaSinkConfig configures a KafkaSink.
type KafkaSinkConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the Kafka topic to write audit events to.
	Topic string

	// Username and Password enable SASL/PLAIN authentication when set.
	Username string
	Password string

	// WriteTimeout is the timeout for writing messages.
	// Default: 10 seconds
	WriteTimeout time.Duration
}

// KafkaSink writes audit events to a Kafka topic, keyed by run ID so all
// events of one batch land in the same partition in order.
type KafkaSink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaSink creates a new KafkaSink.
func NewKafkaSink(cfg KafkaSinkConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Transport:    transport,
	}

	return &KafkaSink{
		writer: writer,
		logger: logger.Named("audit-kafka"),
	}, nil
}

// Write publishes the event to the configured topic.
func (s *KafkaSink) Write(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.AuditEventsFailed.WithLabelValues(s.Name()).Inc()
		return fmt.Errorf("marshal audit event: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
	})
	if err != nil {
		metrics.AuditEventsFailed.WithLabelValues(s.Name()).Inc()
		s.logger.Warn("Failed to write audit event to Kafka",
			zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("write audit event to kafka: %w", err)
	}

	metrics.AuditEventsWritten.WithLabelValues(s.Name()).Inc()
	return nil
}

// Close shuts down the Kafka writer.
func (s *KafkaSink) Close() error { return s.writer.Close() }

// Name returns the sink identifier.
func (s *KafkaSink) Name() string { return "kafka" }
