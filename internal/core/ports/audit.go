package ports

import (
	"context"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// AuditSink persists auth events.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditPublisher hands auth events off for asynchronous recording. Publish
// must not block the caller.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}
