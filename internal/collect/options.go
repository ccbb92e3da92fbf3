package collect

import (
	"github.com/bwmarrin/snowflake"

	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/period"
)

// Options scope one pipeline run. Zero values fall back to the collect
// config defaults.
type Options struct {
	// From and To bound the period sweep, inclusive. Ignored by the
	// pipelines that are not period-driven (regions, apartments, details).
	From period.Period
	To   period.Period

	// RegionCodes restricts the sweep to the named districts. Empty means
	// every known district.
	RegionCodes []string

	// ApartmentID keeps only records resolving to this apartment. Used by
	// repair.
	ApartmentID snowflake.ID

	// AllowDuplicates bypasses natural-key skip. Only safe right after the
	// target rows were deleted.
	AllowDuplicates bool

	// Budget caps source calls for this run; 0 uses the configured default.
	Budget int

	// StartRegionIndex resumes a sweep from a prior run's NextRegionIndex.
	StartRegionIndex int

	// Concurrency bounds parallel region workers; 0 uses the configured
	// default.
	Concurrency int

	// StatTableID overrides the statistic table for the index/volume
	// pipelines.
	StatTableID string
}

func (o Options) budget(cfg config.CollectConfig) int {
	if o.Budget > 0 {
		return o.Budget
	}
	return cfg.CallBudget
}

func (o Options) concurrency(cfg config.CollectConfig) int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	if cfg.Concurrency > 0 {
		return cfg.Concurrency
	}
	return 1
}

func (o Options) periods() []period.Period {
	if o.From.IsZero() || o.To.IsZero() {
		return nil
	}
	return period.Range(o.From, o.To)
}

func (o Options) wantsRegion(code string) bool {
	if len(o.RegionCodes) == 0 {
		return true
	}
	for _, want := range o.RegionCodes {
		if want == code || (len(want) >= 5 && len(code) >= 5 && want[:5] == code[:5]) {
			return true
		}
	}
	return false
}
