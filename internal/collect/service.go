package collect

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/internal/cache"
	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/matcher"
	"github.com/aptrend/aptrend/internal/observability/metrics"
	"github.com/aptrend/aptrend/internal/ratelimit"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/internal/source"
	statdomain "github.com/aptrend/aptrend/internal/statistic/domain"
	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
)

// Service drives the seven ingestion pipelines. Each run is scoped by
// Options, draws from one shared call budget, and reports a Result the
// caller can resume from.
type Service interface {
	CollectRegions(ctx context.Context, opts Options) *Result
	CollectApartments(ctx context.Context, opts Options) *Result
	CollectApartmentDetails(ctx context.Context, opts Options) *Result
	CollectSales(ctx context.Context, opts Options) *Result
	CollectRents(ctx context.Context, opts Options) *Result
	CollectPriceIndex(ctx context.Context, opts Options) *Result
	CollectTradingVolume(ctx context.Context, opts Options) *Result
}

type Params struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Client     *source.Client
	Matcher    matcher.Matcher
	Regions    regiondomain.Service
	RegionRepo regiondomain.Repository
	Apartments aptdomain.Repository
	Trades     tradedomain.Repository
	Stats      statdomain.Repository
	Candidates cache.RegionCandidateCache
	ExtCache   cache.ExternalIDCache
	Limiter    *ratelimit.SourceLimiter `optional:"true"`
	Metrics    *metrics.Metrics         `optional:"true"`
}

type service struct {
	cfg        config.CollectConfig
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	client     *source.Client
	matcher    matcher.Matcher
	regions    regiondomain.Service
	regionRepo regiondomain.Repository
	apartments aptdomain.Repository
	trades     tradedomain.Repository
	stats      statdomain.Repository
	candidates cache.RegionCandidateCache
	extCache   cache.ExternalIDCache
	limiter    *ratelimit.SourceLimiter
	metrics    *metrics.Metrics
}

func New(p Params) Service {
	return &service{
		cfg:        p.Config.Collect,
		db:         p.DB,
		log:        p.Log.Named("collect"),
		genID:      p.GenID,
		client:     p.Client,
		matcher:    p.Matcher,
		regions:    p.Regions,
		regionRepo: p.RegionRepo,
		apartments: p.Apartments,
		trades:     p.Trades,
		stats:      p.Stats,
		candidates: p.Candidates,
		extCache:   p.ExtCache,
		limiter:    p.Limiter,
		metrics:    p.Metrics,
	}
}

// regionWork processes one district end to end. Returning
// source.ErrBudgetExhausted stops the sweep and pins the resumption index to
// this district.
type regionWork func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error

// sweep is the shared pipeline skeleton: district scoping, the run lock,
// bounded concurrency, the shared budget, and the resumption cursor.
func (s *service) sweep(ctx context.Context, kind string, opts Options, work regionWork) *Result {
	res := newCollector(kind, s.cfg.MaxErrors)

	token, ok, err := s.limiter.TryLockRun(ctx, kind)
	if err != nil {
		return res.fail("%s: run lock: %v", kind, err)
	}
	if !ok {
		return res.fail("%s: another run is already in progress", kind)
	}
	defer func() {
		if err := s.limiter.ReleaseRun(ctx, kind, token); err != nil {
			s.log.Warn("run lock release failed", zap.String("kind", kind), zap.Error(err))
		}
	}()

	districts, err := s.scopedDistricts(ctx, opts)
	if err != nil {
		return res.fail("%s: list districts: %v", kind, err)
	}
	if len(districts) == 0 {
		return res.fail("%s: no districts match the requested scope", kind)
	}

	budget := source.NewBudget(opts.budget(s.cfg))

	start := opts.StartRegionIndex
	if start < 0 || start > len(districts) {
		start = 0
	}

	// First district index that could not finish within the budget. A
	// follow-up run restarts there; re-processing a half-done district is
	// safe because persistence skips duplicates.
	exhaustedAt := int64(len(districts))
	var exhausted atomic.Int64
	exhausted.Store(exhaustedAt)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency(s.cfg))

	for i := start; i < len(districts); i++ {
		if exhausted.Load() <= int64(i) {
			break
		}
		index, district := i, districts[i]
		g.Go(func() error {
			err := work(gctx, district, budget, res)
			switch {
			case errors.Is(err, source.ErrBudgetExhausted):
				storeMin(&exhausted, int64(index))
			case errors.Is(err, source.ErrMissingAPIKey):
				storeMin(&exhausted, int64(index))
				return err
			case err != nil:
				res.addError("%s region %s: %v", kind, district.Code, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res.fail("%s: %v", kind, err)
	}
	return res.finish(int(exhausted.Load()), budget.Used())
}

func storeMin(target *atomic.Int64, value int64) {
	for {
		current := target.Load()
		if value >= current || target.CompareAndSwap(current, value) {
			return
		}
	}
}

func (s *service) scopedDistricts(ctx context.Context, opts Options) ([]regiondomain.Region, error) {
	districts, err := s.regions.ListDistricts(ctx)
	if err != nil {
		return nil, err
	}

	scoped := districts[:0:0]
	for _, district := range districts {
		if opts.wantsRegion(district.Code) {
			scoped = append(scoped, district)
		}
	}
	return scoped, nil
}

// batchSize clamps the configured batch size to something sane.
func (s *service) batchSize() int {
	if s.cfg.BatchSize > 0 {
		return s.cfg.BatchSize
	}
	return 100
}
