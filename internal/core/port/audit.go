package port

import (
	"context"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
)

// AuditPublisher delivers audit events to the message bus, best effort.
// Implementations must not block the caller beyond enqueueing.
type AuditPublisher interface {
	PublishAuditEvent(ctx context.Context, event domain.AuditEvent) error
}
