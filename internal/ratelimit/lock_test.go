package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerIsNilSafe(t *testing.T) {
	assert.Nil(t, NewLocker(nil))

	var l *Locker
	_, ok, err := l.TryLock(context.Background(), "collect:run:sales", time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, l.Release(context.Background(), "collect:run:sales", "token"))
}

func TestLockerValidatesKeyAndTTL(t *testing.T) {
	l := NewLocker(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	ctx := context.Background()

	_, _, err := l.TryLock(ctx, "", time.Minute)
	assert.Error(t, err)

	_, _, err = l.TryLock(ctx, "collect:run:sales", 0)
	assert.Error(t, err)

	// Releasing without a token is a no-op so callers can defer it
	// unconditionally.
	assert.NoError(t, l.Release(ctx, "collect:run:sales", ""))
}
