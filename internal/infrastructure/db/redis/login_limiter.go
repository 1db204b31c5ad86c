package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

const (
	DefaultLoginMaxAttempts = 10
	DefaultLoginWindow      = 15 * time.Minute
)

// LoginLimiter throttles failed logins per email backed by Redis.
// Key format: login:fail:<email>
//
// The counter is created by the first failure and expires after the window,
// so a burst of failures locks the email out until the window elapses or a
// successful login resets it.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter. Non-positive values fall back to
// the defaults.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultLoginMaxAttempts
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Check returns domain.ErrTooManyAttempts once the failure budget for email
// is spent. Redis failures are returned wrapped so callers can fail open.
func (l *LoginLimiter) Check(ctx context.Context, email string) error {
	n, err := l.client.Get(ctx, l.key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("login limiter check: %w", err)
	}
	if n >= l.maxAttempts {
		return domain.ErrTooManyAttempts
	}
	return nil
}

// RecordFailure counts one failed attempt for email. INCR and EXPIRE NX run
// in one MULTI so a counter never outlives its window, and later failures do
// not extend it.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	key := l.key(email)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("login limiter record: %w", err)
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}

func (l *LoginLimiter) key(email string) string {
	return "login:fail:" + email
}
