package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/config"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/telemetry"
)

const schemaVersion = "1.0"

// AuditPublisher implements port.AuditPublisher using Kafka. Publishing is
// fire-and-forget: the message is handed to the async producer's buffered
// input channel, and dropped with a log line when that queue is full, so
// audit delivery never blocks the login decision path.
type AuditPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
	topic    string
	metrics  *telemetry.Provider
}

// NewAuditPublisher constructs a Kafka-backed audit publisher.
func NewAuditPublisher(producer *Producer, appCfg config.AppSettings, topic string, logger *zap.Logger) *AuditPublisher {
	if topic == "" {
		topic = "audit.events"
	}
	return &AuditPublisher{producer: producer, appCfg: appCfg, topic: topic, logger: logger}
}

// WithMetrics attaches drop counters to the publisher.
func (p *AuditPublisher) WithMetrics(metrics *telemetry.Provider) *AuditPublisher {
	p.metrics = metrics
	return p
}

type auditEnvelope struct {
	EventID   string            `json:"event_id"`
	EventKind string            `json:"event_kind"`
	Component string            `json:"component"`
	ActorID   string            `json:"actor_id,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PublishAuditEvent enqueues the event for asynchronous delivery.
func (p *AuditPublisher) PublishAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := auditEnvelope{
		EventID:   event.EventID,
		EventKind: string(event.Kind),
		Component: string(event.Component),
		ActorID:   event.ActorID,
		Detail:    event.Detail,
		Timestamp: event.At.UTC(),
		Version:   schemaVersion,
		Metadata:  metadata,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal audit envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(p.topic),
		Key:   sarama.StringEncoder(event.ActorID),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case p.producer.Producer().Input() <- msg:
	default:
		p.metrics.IncAuditDropped()
		p.logger.Warn("audit queue full, dropping event",
			zap.String("event_id", event.EventID),
			zap.String("event_kind", string(event.Kind)),
		)
	}

	return nil
}

var _ port.AuditPublisher = (*AuditPublisher)(nil)
