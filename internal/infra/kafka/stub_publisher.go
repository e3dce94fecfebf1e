package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
)

// StubPublisher logs audit events instead of sending them to Kafka. Useful
// for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly audit publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishAuditEvent logs the event at info level.
func (p *StubPublisher) PublishAuditEvent(_ context.Context, event domain.AuditEvent) error {
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub audit event",
		zap.String("event_id", event.EventID),
		zap.String("event_kind", string(event.Kind)),
		zap.String("component", string(event.Component)),
		zap.String("actor_id", event.ActorID),
		zap.String("detail", event.Detail),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}

var _ port.AuditPublisher = (*StubPublisher)(nil)
