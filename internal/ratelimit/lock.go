package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only while it still holds the caller's
// token. A run whose lock expired mid-sweep must not release a lock the
// next run already claimed.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker hands out single-holder run locks backed by redis. Each sweep
// claims one per entity kind; the TTL bounds how long a crashed run can
// block the next scheduled one.
type Locker struct {
	client *redis.Client
	unlock *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		unlock: redis.NewScript(unlockScript),
	}
}

// TryLock claims key for ttl and returns the release token. ok reports
// whether this caller got the lock; a held lock is not an error.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("run lock client not configured")
	}
	if key == "" {
		return "", false, errors.New("run lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("run lock ttl must be positive")
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release is a no-op without a token so callers can defer it
// unconditionally after a failed TryLock.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.unlock.Run(ctx, l.client, []string{key}, token).Err()
}
