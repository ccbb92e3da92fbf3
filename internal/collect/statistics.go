package collect

import (
	"context"
	"time"

	"github.com/aptrend/aptrend/internal/period"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/internal/source"
	statdomain "github.com/aptrend/aptrend/internal/statistic/domain"
)

// Published statistic tables. The portal identifies a series by table id;
// these are the two the read side consumes.
const (
	priceIndexTableID    = "APT_PRICE_IDX"
	tradingVolumeTableID = "APT_TRADE_CNT"
)

// CollectPriceIndex ingests the housing price index series per district.
// Re-published points refresh the stored value.
func (s *service) CollectPriceIndex(ctx context.Context, opts Options) *Result {
	tableID := opts.StatTableID
	if tableID == "" {
		tableID = priceIndexTableID
	}

	return s.sweep(ctx, "price_index", opts, func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error {
		from, to := s.statRange(opts)
		records, err := s.client.FetchStatistics(ctx, tableID, district.DistrictCode(), from, to, budget)
		if err != nil {
			return err
		}

		res.addFetched(len(records))
		for _, record := range records {
			if record.Period == "" {
				res.addError("price_index %s: row with empty period skipped", district.Code)
				continue
			}

			now := time.Now().UTC()
			index := &statdomain.PriceIndex{
				ID:         s.genID.Generate(),
				TableID:    tableID,
				RegionCode: district.Code,
				Period:     record.Period,
				Value:      record.Value,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			inserted, err := s.stats.UpsertPriceIndex(ctx, index)
			if err != nil {
				res.addError("price_index %s %s: %v", district.Code, record.Period, err)
				continue
			}
			if inserted {
				res.addSaved(1)
			} else {
				res.addSkipped(1)
			}
		}

		res.markProgress(district.Code, to.String())
		return nil
	})
}

// CollectTradingVolume ingests the published monthly trade counts per
// district.
func (s *service) CollectTradingVolume(ctx context.Context, opts Options) *Result {
	tableID := opts.StatTableID
	if tableID == "" {
		tableID = tradingVolumeTableID
	}

	return s.sweep(ctx, "trading_volume", opts, func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error {
		from, to := s.statRange(opts)
		records, err := s.client.FetchStatistics(ctx, tableID, district.DistrictCode(), from, to, budget)
		if err != nil {
			return err
		}

		res.addFetched(len(records))
		for _, record := range records {
			if record.Period == "" {
				res.addError("trading_volume %s: row with empty period skipped", district.Code)
				continue
			}

			now := time.Now().UTC()
			volume := &statdomain.TradingVolume{
				ID:         s.genID.Generate(),
				RegionCode: district.Code,
				Period:     record.Period,
				Volume:     int64(record.Value),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			inserted, err := s.stats.UpsertTradingVolume(ctx, volume)
			if err != nil {
				res.addError("trading_volume %s %s: %v", district.Code, record.Period, err)
				continue
			}
			if inserted {
				res.addSaved(1)
			} else {
				res.addSkipped(1)
			}
		}

		res.markProgress(district.Code, to.String())
		return nil
	})
}

func (s *service) statRange(opts Options) (period.Period, period.Period) {
	if !opts.From.IsZero() && !opts.To.IsZero() {
		return opts.From, opts.To
	}
	current := period.FromTime(time.Now().UTC())
	return current, current
}
