package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLoginLimiter_BlocksAfterMaxFailures(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, "a@x.com"))
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	}

	assert.ErrorIs(t, limiter.Check(ctx, "a@x.com"), domain.ErrTooManyAttempts)
	assert.NoError(t, limiter.Check(ctx, "b@x.com"), "other emails are unaffected")
}

func TestLoginLimiter_ResetClearsCounter(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	require.ErrorIs(t, limiter.Check(ctx, "a@x.com"), domain.ErrTooManyAttempts)

	require.NoError(t, limiter.Reset(ctx, "a@x.com"))
	assert.False(t, mr.Exists("login:fail:a@x.com"))
	assert.NoError(t, limiter.Check(ctx, "a@x.com"))
}

func TestLoginLimiter_WindowExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 1, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	mr.FastForward(4 * time.Minute)
	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	assert.Equal(t, 6*time.Minute, mr.TTL("login:fail:a@x.com"), "later failures must not extend the window")
	require.ErrorIs(t, limiter.Check(ctx, "a@x.com"), domain.ErrTooManyAttempts)

	mr.FastForward(7 * time.Minute)
	assert.NoError(t, limiter.Check(ctx, "a@x.com"))
}

func TestLoginLimiter_CounterWithoutTTLGetsWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 3, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set("login:fail:a@x.com", "5"))
	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))

	assert.Equal(t, 10*time.Minute, mr.TTL("login:fail:a@x.com"))
	mr.FastForward(11 * time.Minute)
	assert.NoError(t, limiter.Check(ctx, "a@x.com"), "a stuck counter must not lock the email out for good")
}

func TestLoginLimiter_RedisDownReturnsError(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 1, time.Minute)
	mr.Close()

	err := limiter.Check(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTooManyAttempts)
}

func TestNewLoginLimiter_Defaults(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 0, 0)

	assert.Equal(t, int64(DefaultLoginMaxAttempts), limiter.maxAttempts)
	assert.Equal(t, DefaultLoginWindow, limiter.window)
}
