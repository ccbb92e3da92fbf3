package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/observability/metrics"
	"github.com/aptrend/aptrend/internal/ratelimit"
)

const defaultPageSize = 100

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Limiter *ratelimit.SourceLimiter `optional:"true"`
	Metrics *metrics.Metrics         `optional:"true"`
}

// Client pages through the public data portal. One Client serves every
// entity type; the typed Fetch methods build the query and decode the
// portal's JSON or XML envelope.
type Client struct {
	cfg     config.SourceConfig
	http    *http.Client
	log     *zap.Logger
	limiter *ratelimit.SourceLimiter
	metrics *metrics.Metrics
}

func New(p Params) *Client {
	timeout := time.Duration(p.Config.Source.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:     p.Config.Source,
		http:    &http.Client{Timeout: timeout},
		log:     p.Log.Named("source"),
		limiter: p.Limiter,
		metrics: p.Metrics,
	}
}

func (c *Client) PageSize() int {
	if c.cfg.PageSize > 0 {
		return c.cfg.PageSize
	}
	return defaultPageSize
}

func (c *Client) apiKey() (string, error) {
	key := strings.TrimSpace(c.cfg.APIKey)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// get performs one budgeted, paced, retried GET and hands the body to
// decode. A decode failure is terminal for the page; transport failures
// back off exponentially up to the configured attempt ceiling.
func (c *Client) get(ctx context.Context, kind, endpoint string, query url.Values, budget *Budget, decode func([]byte) error) error {
	if !budget.TryAcquire() {
		return ErrBudgetExhausted
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	target := endpoint + "?" + query.Encode()
	attempts := c.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.metrics.RecordFetchRetry(ctx, kind)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		start := time.Now()
		body, err := c.do(ctx, kind, target)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				c.log.Warn("page fetch failed",
					zap.String("kind", kind),
					zap.Int("attempt", attempt+1),
					zap.Error(err))
				continue
			}
			return err
		}

		if err := decode(body); err != nil {
			return &DecodeError{Op: kind, Err: err}
		}
		c.metrics.RecordPageFetched(ctx, kind, time.Since(start))
		return nil
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, kind, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &DecodeError{Op: kind, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: kind, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: kind, Err: err}
	}
	return body, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * 200 * time.Millisecond
}

func hasMore(pageNo, pageSize, totalCount int) bool {
	return pageNo*pageSize < totalCount
}
