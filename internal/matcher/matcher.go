package matcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/internal/cache"
	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/normalizer"
	"github.com/aptrend/aptrend/internal/observability/metrics"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
)

// Outcome names the tier that resolved a record.
type Outcome string

const (
	MatchedByExternalID Outcome = "external_id"
	MatchedByExactName  Outcome = "exact_name"
	MatchedBySimilarity Outcome = "similarity"
	Created             Outcome = "created"
)

// ErrAmbiguousMatch reports a similarity search where two distinct
// apartments tied for the top score above the threshold. The record is
// skipped rather than guessed.
var ErrAmbiguousMatch = errors.New("ambiguous_match")

// Resolution is the result of resolving one external record to an
// apartment.
type Resolution struct {
	ApartmentID snowflake.ID
	Outcome     Outcome
	Created     bool
}

// Matcher resolves an external (region code, raw name, optional sale
// sequence) triple to an internal apartment, creating one when no existing
// apartment matches.
type Matcher interface {
	Resolve(ctx context.Context, regionCode, rawName, externalSeq string) (Resolution, error)
}

// Observer receives matching decisions as they happen. Optional; used for
// instrumentation beyond the built-in metrics.
type Observer interface {
	SimilaritySearched(regionCode, rawName string)
	Resolved(outcome Outcome)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Holder     *config.MatchingConfigHolder
	Regions    regiondomain.Service
	Apartments aptdomain.Repository
	Trades     tradedomain.Repository
	NormCache  cache.NormCache
	Candidates cache.RegionCandidateCache
	ExtCache   cache.ExternalIDCache
	Metrics    *metrics.Metrics `optional:"true"`
	Observer   Observer         `optional:"true"`
}

type entityMatcher struct {
	log        *zap.Logger
	genID      *snowflake.Node
	holder     *config.MatchingConfigHolder
	regions    regiondomain.Service
	apartments aptdomain.Repository
	trades     tradedomain.Repository
	normCache  cache.NormCache
	candidates cache.RegionCandidateCache
	extCache   cache.ExternalIDCache
	metrics    *metrics.Metrics
	observer   Observer
}

func New(p Params) Matcher {
	return &entityMatcher{
		log:        p.Log.Named("matcher"),
		genID:      p.GenID,
		holder:     p.Holder,
		regions:    p.Regions,
		apartments: p.Apartments,
		trades:     p.Trades,
		normCache:  p.NormCache,
		candidates: p.Candidates,
		extCache:   p.ExtCache,
		metrics:    p.Metrics,
		observer:   p.Observer,
	}
}

func (m *entityMatcher) Resolve(ctx context.Context, regionCode, rawName, externalSeq string) (Resolution, error) {
	// Tier 1: a known sale sequence identifies the apartment outright.
	if externalSeq != "" {
		if id, ok := m.resolveByExternalSeq(ctx, externalSeq); ok {
			return m.resolved(ctx, Resolution{ApartmentID: id, Outcome: MatchedByExternalID}), nil
		}
	}

	region, err := m.regions.ResolveCode(ctx, regionCode)
	if err != nil {
		return Resolution{}, err
	}

	candidates, err := m.loadCandidates(ctx, region)
	if err != nil {
		return Resolution{}, err
	}

	// Tier 2: any normalization variant equal to an existing normalized name.
	if id, ok := matchByVariant(rawName, candidates); ok {
		resolution := m.resolved(ctx, Resolution{ApartmentID: id, Outcome: MatchedByExactName})
		if externalSeq != "" {
			m.extCache.Register(externalSeq, id)
		}
		return resolution, nil
	}

	// Tier 3: trigram similarity against every candidate in the region.
	if m.observer != nil {
		m.observer.SimilaritySearched(region.Code, rawName)
	}
	key := m.normKey(rawName)
	id, ok, err := m.matchBySimilarity(key, candidates)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		resolution := m.resolved(ctx, Resolution{ApartmentID: id, Outcome: MatchedBySimilarity})
		if externalSeq != "" {
			m.extCache.Register(externalSeq, id)
		}
		return resolution, nil
	}

	return m.create(ctx, region, rawName, key, externalSeq)
}

// resolveByExternalSeq checks the in-process mapping first, then the store.
// The store fallback keeps the cache a pure optimization.
func (m *entityMatcher) resolveByExternalSeq(ctx context.Context, externalSeq string) (snowflake.ID, bool) {
	if id, ok := m.extCache.Lookup(externalSeq); ok {
		return id, true
	}

	id, err := m.trades.FindApartmentByExternalSeq(ctx, externalSeq)
	if err != nil {
		m.log.Debug("external seq store lookup failed",
			zap.String("external_seq", externalSeq), zap.Error(err))
		return 0, false
	}
	if id == 0 {
		return 0, false
	}

	m.extCache.Register(externalSeq, id)
	return id, true
}

// loadCandidates returns the region's apartments as (id, normalized name)
// pairs, loading the region-scoped list once per TTL window.
func (m *entityMatcher) loadCandidates(ctx context.Context, region *regiondomain.Region) ([]cache.Candidate, error) {
	if cached, ok := m.candidates.Get(region.Code); ok {
		return cached, nil
	}

	apartments, err := m.apartments.ListByRegion(ctx, region.ID)
	if err != nil {
		return nil, err
	}

	candidates := make([]cache.Candidate, 0, len(apartments))
	for _, apt := range apartments {
		candidates = append(candidates, cache.Candidate{
			ID:   apt.ID,
			Name: m.normKey(apt.Name),
		})
	}
	m.candidates.Set(region.Code, candidates)
	return candidates, nil
}

// normKey memoizes Normalize through the bounded cache.
func (m *entityMatcher) normKey(raw string) string {
	if key, ok := m.normCache.Get(raw); ok {
		return key
	}
	key := normalizer.Normalize(raw)
	m.normCache.Set(raw, key)
	return key
}

func matchByVariant(rawName string, candidates []cache.Candidate) (snowflake.ID, bool) {
	for _, variant := range normalizer.Variants(rawName) {
		for _, candidate := range candidates {
			if candidate.Name == variant {
				return candidate.ID, true
			}
		}
	}
	return 0, false
}

func (m *entityMatcher) matchBySimilarity(key string, candidates []cache.Candidate) (snowflake.ID, bool, error) {
	threshold := m.holder.Get().SimilarityThreshold

	var (
		bestID    snowflake.ID
		bestScore float64
		ambiguous bool
	)
	for _, candidate := range candidates {
		score := normalizer.Similarity(key, candidate.Name)
		switch {
		case score > bestScore:
			bestID, bestScore, ambiguous = candidate.ID, score, false
		case score == bestScore && bestScore > 0 && candidate.ID != bestID:
			ambiguous = true
		}
	}

	if bestScore <= threshold {
		return 0, false, nil
	}
	if ambiguous {
		return 0, false, ErrAmbiguousMatch
	}
	return bestID, true, nil
}

func (m *entityMatcher) create(ctx context.Context, region *regiondomain.Region, rawName, key, externalSeq string) (Resolution, error) {
	now := time.Now().UTC()
	apartment := &aptdomain.Apartment{
		ID:        m.genID.Generate(),
		RegionID:  region.ID,
		Name:      strings.TrimSpace(rawName),
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.apartments.Create(ctx, apartment); err != nil {
		return Resolution{}, err
	}

	// The next record in the same batch must see the new apartment.
	m.candidates.Register(region.Code, cache.Candidate{ID: apartment.ID, Name: key})
	if externalSeq != "" {
		m.extCache.Register(externalSeq, apartment.ID)
	}

	m.log.Info("apartment created",
		zap.String("region_code", region.Code),
		zap.String("name", apartment.Name),
		zap.Int64("apartment_id", int64(apartment.ID)),
	)
	return m.resolved(ctx, Resolution{ApartmentID: apartment.ID, Outcome: Created, Created: true}), nil
}

func (m *entityMatcher) resolved(ctx context.Context, resolution Resolution) Resolution {
	m.metrics.RecordMatchOutcome(ctx, string(resolution.Outcome))
	if m.observer != nil {
		m.observer.Resolved(resolution.Outcome)
	}
	return resolution
}
