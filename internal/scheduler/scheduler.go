package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aptrend/aptrend/internal/clock"
	"github.com/aptrend/aptrend/internal/collect"
	"github.com/aptrend/aptrend/internal/observability/metrics"
	"github.com/aptrend/aptrend/internal/period"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Collector collect.Service
	Config    Config           `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

// Scheduler drives the periodic sweeps: recent sale and rent months, the
// reference tables behind matching, and the market statistics. Every job
// is a plain call into the collect service, so a run here and a manual
// run over HTTP behave identically.
type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	collector collect.Service
	metrics   *metrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Collector == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler"),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		collector: p.Collector,
		metrics:   p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	fn func(ctx context.Context) *collect.Result,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	result := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	s.metrics.RecordJobRun(parent, name, elapsed)

	if result == nil {
		return nil
	}
	if !result.Success {
		// Soft-fail on timeout: the next tick picks up where the cursor
		// left off.
		if ctx.Err() != nil {
			log.Warn("job timed out",
				zap.Duration("timeout", s.cfg.JobTimeout),
				zap.Strings("errors", result.Errors),
			)
			return nil
		}
		s.metrics.RecordJobError(parent, name)
		return fmt.Errorf("%s: %s", name, result.Summary)
	}

	log.Info("job finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("saved", result.Saved),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// RunOnce executes every enabled job sequentially. Order matters: the
// reference tables feed the matcher, so they refresh before the
// transaction sweeps.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) *collect.Result
	}{
		{"refresh_regions", func(ctx context.Context) *collect.Result {
			return s.collector.CollectRegions(ctx, collect.Options{})
		}},
		{"refresh_apartments", func(ctx context.Context) *collect.Result {
			return s.collector.CollectApartments(ctx, collect.Options{})
		}},
		{"refresh_details", func(ctx context.Context) *collect.Result {
			return s.collector.CollectApartmentDetails(ctx, collect.Options{})
		}},
		{"collect_sales", func(ctx context.Context) *collect.Result {
			return s.collector.CollectSales(ctx, s.lookbackOptions())
		}},
		{"collect_rents", func(ctx context.Context) *collect.Result {
			return s.collector.CollectRents(ctx, s.lookbackOptions())
		}},
		{"collect_price_index", func(ctx context.Context) *collect.Result {
			return s.collector.CollectPriceIndex(ctx, s.lookbackOptions())
		}},
		{"collect_trading_volume", func(ctx context.Context) *collect.Result {
			return s.collector.CollectTradingVolume(ctx, s.lookbackOptions())
		}},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
		if parent.Err() != nil {
			return err
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// lookbackOptions covers the trailing window ending at the current month.
// Sources keep amending recent months, so re-sweeping them is how late
// filings and cancellations land.
func (s *Scheduler) lookbackOptions() collect.Options {
	to := period.FromTime(s.clock.Now())
	from := to
	for i := 1; i < s.cfg.LookbackMonths; i++ {
		from = from.Prev()
	}
	return collect.Options{From: from, To: to}
}

func (s *Scheduler) isJobEnabled(name string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, name) {
			return true
		}
	}
	return false
}
