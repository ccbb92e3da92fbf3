package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	aptrepository "github.com/aptrend/aptrend/internal/apartment/repository"
	"github.com/aptrend/aptrend/internal/cache"
	"github.com/aptrend/aptrend/internal/config"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	regionrepository "github.com/aptrend/aptrend/internal/region/repository"
	regionservice "github.com/aptrend/aptrend/internal/region/service"
	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
	traderepository "github.com/aptrend/aptrend/internal/trade/repository"
)

type countingObserver struct {
	similaritySearches int
	outcomes           []Outcome
}

func (o *countingObserver) SimilaritySearched(regionCode, rawName string) {
	o.similaritySearches++
}

func (o *countingObserver) Resolved(outcome Outcome) {
	o.outcomes = append(o.outcomes, outcome)
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	matcher    Matcher
	observer   *countingObserver
	apartments aptdomain.Repository
	trades     tradedomain.Repository
	extCache   cache.ExternalIDCache
	candidates cache.RegionCandidateCache
	region     *regiondomain.Region
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&regiondomain.Region{},
		&aptdomain.Apartment{},
		&aptdomain.Detail{},
		&tradedomain.SaleTransaction{},
		&tradedomain.RentTransaction{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	regionRepo := regionrepository.Provide(db)
	regions := regionservice.New(regionservice.ServiceParam{Log: log, Repo: regionRepo})
	apartments := aptrepository.Provide(db)
	trades := traderepository.Provide(db)

	region := &regiondomain.Region{
		ID:       node.Generate(),
		Name:     "종로구",
		Code:     "1111000000",
		CityName: "서울특별시",
	}
	_, err = regionRepo.Upsert(context.Background(), region)
	require.NoError(t, err)

	holder := config.NewStaticMatchingConfigHolder(config.DefaultMatchingConfig())
	observer := &countingObserver{}
	f := &fixture{
		db:         db,
		node:       node,
		observer:   observer,
		apartments: apartments,
		trades:     trades,
		extCache:   cache.NewExternalIDCache(),
		candidates: cache.NewRegionCandidateCache(holder),
		region:     region,
	}
	f.matcher = New(Params{
		Log:        log,
		GenID:      node,
		Holder:     holder,
		Regions:    regions,
		Apartments: apartments,
		Trades:     trades,
		NormCache:  cache.NewNormCache(holder),
		Candidates: f.candidates,
		ExtCache:   f.extCache,
		Observer:   observer,
	})
	return f
}

func (f *fixture) seedApartment(t *testing.T, name string) *aptdomain.Apartment {
	t.Helper()

	apt := &aptdomain.Apartment{
		ID:        f.node.Generate(),
		RegionID:  f.region.ID,
		Name:      name,
		Available: true,
	}
	require.NoError(t, f.apartments.Create(context.Background(), apt))
	return apt
}

func (f *fixture) seedSale(t *testing.T, apartmentID snowflake.ID, externalSeq string) {
	t.Helper()

	sale := &tradedomain.SaleTransaction{
		ID:          f.node.Generate(),
		ApartmentID: apartmentID,
		RegionID:    f.region.ID,
		Period:      "202401",
		DealDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		DealAmount:  95_000,
		AreaSqm:     84.97,
		Floor:       12,
		ExternalSeq: externalSeq,
	}
	require.NoError(t, f.db.Create(sale).Error)
}

func TestResolveCreatesWhenRegionIsEmpty(t *testing.T) {
	f := newFixture(t)

	res, err := f.matcher.Resolve(context.Background(), "11110", "래미안 강남 포레스트", "")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, Created, res.Outcome)
	assert.NotZero(t, res.ApartmentID)

	apt, err := f.apartments.FindByID(context.Background(), res.ApartmentID)
	require.NoError(t, err)
	require.NotNil(t, apt)
	assert.Equal(t, "래미안 강남 포레스트", apt.Name)
	assert.Equal(t, f.region.ID, apt.RegionID)
}

func TestResolveMatchesVariantSpelling(t *testing.T) {
	f := newFixture(t)
	apt := f.seedApartment(t, "이편한세상")

	// The Latin brand spelling and a phase suffix both fold away.
	res, err := f.matcher.Resolve(context.Background(), "11110", "e편한세상 1차", "")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, MatchedByExactName, res.Outcome)
	assert.Equal(t, apt.ID, res.ApartmentID)
}

func TestResolveBySimilarity(t *testing.T) {
	f := newFixture(t)
	apt := f.seedApartment(t, "래미안강남포레스트")

	res, err := f.matcher.Resolve(context.Background(), "11110", "래미안강남포레스트힐", "")
	require.NoError(t, err)
	assert.Equal(t, MatchedBySimilarity, res.Outcome)
	assert.Equal(t, apt.ID, res.ApartmentID)
	assert.Equal(t, 1, f.observer.similaritySearches)
}

func TestResolveAmbiguousTie(t *testing.T) {
	f := newFixture(t)
	f.seedApartment(t, "한강타운에이")
	f.seedApartment(t, "한강타운비이")

	_, err := f.matcher.Resolve(context.Background(), "11110", "한강타운", "")
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestResolveUnknownRegion(t *testing.T) {
	f := newFixture(t)

	_, err := f.matcher.Resolve(context.Background(), "99999", "래미안 강남", "")
	assert.ErrorIs(t, err, regiondomain.ErrRegionNotFound)
}

func TestResolveExternalSeqSkipsNameMatching(t *testing.T) {
	f := newFixture(t)
	apt := f.seedApartment(t, "래미안 강남")
	f.extCache.Register("2024-000123", apt.ID)

	// A completely unrelated name must not matter when the sequence is known.
	res, err := f.matcher.Resolve(context.Background(), "11110", "전혀다른이름", "2024-000123")
	require.NoError(t, err)
	assert.Equal(t, MatchedByExternalID, res.Outcome)
	assert.Equal(t, apt.ID, res.ApartmentID)
	assert.Equal(t, 0, f.observer.similaritySearches)
}

func TestResolveExternalSeqFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	apt := f.seedApartment(t, "래미안 강남")
	f.seedSale(t, apt.ID, "2024-000777")

	res, err := f.matcher.Resolve(context.Background(), "11110", "래미안 강남", "2024-000777")
	require.NoError(t, err)
	assert.Equal(t, MatchedByExternalID, res.Outcome)
	assert.Equal(t, apt.ID, res.ApartmentID)

	// The store hit back-fills the cache.
	id, ok := f.extCache.Lookup("2024-000777")
	require.True(t, ok)
	assert.Equal(t, apt.ID, id)
}

func TestResolveRegistersCreatedApartment(t *testing.T) {
	f := newFixture(t)

	created, err := f.matcher.Resolve(context.Background(), "11110", "힐스테이트 서초", "2024-000001")
	require.NoError(t, err)
	require.True(t, created.Created)

	// Same sequence resolves from the cache.
	id, ok := f.extCache.Lookup("2024-000001")
	require.True(t, ok)
	assert.Equal(t, created.ApartmentID, id)

	// Same batch, same name: exact match against the registered candidate.
	again, err := f.matcher.Resolve(context.Background(), "11110", "힐스테이트 서초", "")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, MatchedByExactName, again.Outcome)
	assert.Equal(t, created.ApartmentID, again.ApartmentID)
}

func TestResolveDeterministicAcrossCacheClear(t *testing.T) {
	f := newFixture(t)

	first, err := f.matcher.Resolve(context.Background(), "11110", "푸르지오 센트럴 2단지", "")
	require.NoError(t, err)
	require.True(t, first.Created)

	// Fresh caches over the same store must resolve to the same apartment.
	holder := config.NewStaticMatchingConfigHolder(config.DefaultMatchingConfig())
	log := zap.NewNop()
	regionRepo := regionrepository.Provide(f.db)
	cleared := New(Params{
		Log:        log,
		GenID:      f.node,
		Holder:     holder,
		Regions:    regionservice.New(regionservice.ServiceParam{Log: log, Repo: regionRepo}),
		Apartments: f.apartments,
		Trades:     f.trades,
		NormCache:  cache.NewNormCache(holder),
		Candidates: cache.NewRegionCandidateCache(holder),
		ExtCache:   cache.NewExternalIDCache(),
	})

	second, err := cleared.Resolve(context.Background(), "11110", "푸르지오 센트럴 2단지", "")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ApartmentID, second.ApartmentID)
}
