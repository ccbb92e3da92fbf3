package collect

import (
	"context"
	"errors"
	"time"

	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/internal/source"
)

// CollectRegions ingests the standard region code table. This pipeline is
// not district-scoped: it pages through the whole listing and upserts each
// row by code, so it is the one that must run before any other.
func (s *service) CollectRegions(ctx context.Context, opts Options) *Result {
	const kind = "regions"
	res := newCollector(kind, s.cfg.MaxErrors)

	token, ok, err := s.limiter.TryLockRun(ctx, kind)
	if err != nil {
		return res.fail("%s: run lock: %v", kind, err)
	}
	if !ok {
		return res.fail("%s: another run is already in progress", kind)
	}
	defer func() { _ = s.limiter.ReleaseRun(ctx, kind, token) }()

	budget := source.NewBudget(opts.budget(s.cfg))

	for pageNo := 1; ; pageNo++ {
		page, err := s.client.FetchRegions(ctx, pageNo, budget)
		if errors.Is(err, source.ErrBudgetExhausted) {
			break
		}
		if errors.Is(err, source.ErrMissingAPIKey) {
			return res.fail("%s: %v", kind, err)
		}
		if err != nil {
			res.addError("%s page %d: %v", kind, pageNo, err)
			break
		}

		res.addFetched(len(page.Records))
		for _, record := range page.Records {
			if record.Code == "" || record.Name == "" {
				res.addError("%s: row with empty code or name skipped", kind)
				continue
			}
			if !opts.wantsRegion(record.Code) {
				continue
			}

			now := time.Now().UTC()
			region := &regiondomain.Region{
				ID:        s.genID.Generate(),
				Name:      record.Name,
				Code:      record.Code,
				CityName:  record.CityName,
				CreatedAt: now,
				UpdatedAt: now,
			}
			inserted, err := s.regionRepo.Upsert(ctx, region)
			if err != nil {
				res.addError("%s %s: %v", kind, record.Code, err)
				continue
			}
			if inserted {
				res.addSaved(1)
			} else {
				res.addSkipped(1)
			}
		}

		if !page.HasMore {
			break
		}
	}

	result := res.finish(0, budget.Used())
	s.metrics.RecordSaved(ctx, kind, result.Saved)
	s.metrics.RecordSkipped(ctx, kind, result.Skipped)
	return result
}
