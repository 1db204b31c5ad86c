package middleware

import (
	"context"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// Request headers carrying the authenticated caller to downstream handlers.
// Inbound values are always discarded by AccessGate before evaluation.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// Echo context keys set by AccessGate on authenticated requests.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the caller identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by AccessGate, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}
