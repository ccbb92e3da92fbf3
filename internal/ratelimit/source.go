package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/aptrend/aptrend/internal/config"
)

const (
	keySourceCalls = "source:calls"
	keyRunLock     = "collect:run:"

	runLockTTL = 30 * time.Minute
)

// SourceLimiter paces outbound calls to the data source so concurrent
// collectors stay under its request rate. Disabled (nil-safe) when rate
// limiting is off; the daily call quota is enforced separately by the call
// budget.
type SourceLimiter struct {
	enabled bool
	bucket  *TokenBucket
	locker  *Locker
	rate    float64
	burst   int
}

func NewSourceLimiter(cfg config.Config) (*SourceLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.SourceRate <= 0 || limitCfg.SourceBurst <= 0 {
		return nil, errors.New("source rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &SourceLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.SourceRate,
		burst:   limitCfg.SourceBurst,
	}, nil
}

// TryLockRun claims kind-level exclusivity so two sweeps of the same entity
// type never interleave. Returns the release token.
func (l *SourceLimiter) TryLockRun(ctx context.Context, kind string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, keyRunLock+kind, runLockTTL)
}

func (l *SourceLimiter) ReleaseRun(ctx context.Context, kind, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, keyRunLock+kind, token)
}

func (l *SourceLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Wait blocks until a token is available or the context is done. A redis
// failure opens the limiter rather than stalling collection.
func (l *SourceLimiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}

	for {
		res, err := l.bucket.Allow(ctx, keySourceCalls, l.rate, l.burst)
		if err != nil {
			return nil
		}
		if res.Allowed {
			return nil
		}

		delay := res.RetryAfter
		if delay <= 0 {
			delay = 50 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
