package ports

import "context"

// LoginLimiter throttles repeated failed logins for the same key.
type LoginLimiter interface {
	// Check returns domain.ErrTooManyAttempts once the key is locked out.
	Check(ctx context.Context, key string) error
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
