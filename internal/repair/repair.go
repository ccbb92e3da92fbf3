package repair

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/internal/cache"
	"github.com/aptrend/aptrend/internal/collect"
	"github.com/aptrend/aptrend/internal/period"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
)

// Result reports one repair: what was deleted and what each re-collection
// brought back. A failed rent pass does not void a successful sale pass.
type Result struct {
	ApartmentID  snowflake.ID    `json:"apartment_id"`
	RegionCode   string          `json:"region_code"`
	SalesDeleted int64           `json:"sales_deleted"`
	RentsDeleted int64           `json:"rents_deleted"`
	Sales        *collect.Result `json:"sales,omitempty"`
	Rents        *collect.Result `json:"rents,omitempty"`
	Success      bool            `json:"success"`
	Errors       []string        `json:"errors,omitempty"`
}

// Orchestrator rebuilds one apartment's transaction history: hard-delete,
// then re-collect scoped to the apartment's region with duplicates allowed
// (the table was just cleared for this apartment, and sibling rows in the
// same region must not be skipped against stale state).
type Orchestrator interface {
	Repair(ctx context.Context, apartmentID snowflake.ID, from, to period.Period) (*Result, error)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Apartments aptdomain.Repository
	Regions    regiondomain.Repository
	Trades     tradedomain.Repository
	Collector  collect.Service
	Candidates cache.RegionCandidateCache
}

type orchestrator struct {
	log        *zap.Logger
	apartments aptdomain.Repository
	regions    regiondomain.Repository
	trades     tradedomain.Repository
	collector  collect.Service
	candidates cache.RegionCandidateCache
}

func New(p Params) Orchestrator {
	return &orchestrator{
		log:        p.Log.Named("repair"),
		apartments: p.Apartments,
		regions:    p.Regions,
		trades:     p.Trades,
		collector:  p.Collector,
		candidates: p.Candidates,
	}
}

func (o *orchestrator) Repair(ctx context.Context, apartmentID snowflake.ID, from, to period.Period) (*Result, error) {
	if apartmentID == 0 {
		return nil, aptdomain.ErrInvalidID
	}

	apartment, err := o.apartments.FindByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, aptdomain.ErrApartmentNotFound
	}

	region, err := o.regions.FindByID(ctx, apartment.RegionID)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, regiondomain.ErrRegionNotFound
	}

	salesDeleted, rentsDeleted, err := o.trades.DeleteByApartment(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}
	o.candidates.Invalidate(region.Code)

	o.log.Info("transactions cleared for re-collection",
		zap.Int64("apartment_id", int64(apartmentID)),
		zap.String("region_code", region.Code),
		zap.Int64("sales_deleted", salesDeleted),
		zap.Int64("rents_deleted", rentsDeleted),
	)

	opts := collect.Options{
		From:            from,
		To:              to,
		RegionCodes:     []string{region.Code},
		ApartmentID:     apartmentID,
		AllowDuplicates: true,
	}

	result := &Result{
		ApartmentID:  apartmentID,
		RegionCode:   region.Code,
		SalesDeleted: salesDeleted,
		RentsDeleted: rentsDeleted,
	}

	// Sales and rents touch disjoint tables and endpoints; run them
	// concurrently and keep whichever side succeeded.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Sales = o.collector.CollectSales(gctx, opts)
		return nil
	})
	g.Go(func() error {
		result.Rents = o.collector.CollectRents(gctx, opts)
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	result.Success = true
	if result.Sales != nil && !result.Sales.Success {
		result.Success = false
		result.Errors = append(result.Errors, result.Sales.Errors...)
	}
	if result.Rents != nil && !result.Rents.Success {
		result.Success = false
		result.Errors = append(result.Errors, result.Rents.Errors...)
	}
	return result, nil
}
