package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	aptrepository "github.com/aptrend/aptrend/internal/apartment/repository"
	aptservice "github.com/aptrend/aptrend/internal/apartment/service"
	"github.com/aptrend/aptrend/internal/collect"
	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/period"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/internal/repair"
)

type stubCollector struct {
	lastKind string
	lastOpts collect.Options
}

func (c *stubCollector) run(kind string, opts collect.Options) *collect.Result {
	c.lastKind = kind
	c.lastOpts = opts
	return &collect.Result{Kind: kind, Success: true, Saved: 7}
}

func (c *stubCollector) CollectRegions(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("regions", opts)
}
func (c *stubCollector) CollectApartments(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("apartments", opts)
}
func (c *stubCollector) CollectApartmentDetails(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("apartment_details", opts)
}
func (c *stubCollector) CollectSales(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("sales", opts)
}
func (c *stubCollector) CollectRents(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("rents", opts)
}
func (c *stubCollector) CollectPriceIndex(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("price_index", opts)
}
func (c *stubCollector) CollectTradingVolume(_ context.Context, opts collect.Options) *collect.Result {
	return c.run("trading_volume", opts)
}

type stubRepairer struct {
	lastID   snowflake.ID
	lastFrom period.Period
	lastTo   period.Period
	result   *repair.Result
	err      error
}

func (r *stubRepairer) Repair(_ context.Context, id snowflake.ID, from, to period.Period) (*repair.Result, error) {
	r.lastID = id
	r.lastFrom = from
	r.lastTo = to
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

type serverFixture struct {
	engine    *gin.Engine
	collector *stubCollector
	repairer  *stubRepairer
	db        *gorm.DB
	node      *snowflake.Node
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&regiondomain.Region{}, &aptdomain.Apartment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	apartments := aptservice.New(aptservice.ServiceParam{
		DB:   db,
		Log:  log,
		Repo: aptrepository.Provide(db),
	})

	f := &serverFixture{
		engine:    NewEngine(log),
		collector: &stubCollector{},
		repairer:  &stubRepairer{result: &repair.Result{Success: true}},
		db:        db,
		node:      node,
	}
	NewServer(ServerParams{
		Gin:          f.engine,
		Cfg:          config.Config{HTTPAddr: ":0"},
		ApartmentSvc: apartments,
		Collector:    f.collector,
		Repairer:     f.repairer,
	})
	return f
}

func (f *serverFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCollectDispatchesByKind(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/collect/sales",
		`{"from":"202401","to":"202402","region_codes":["11110"],"budget":50}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "sales", f.collector.lastKind)
	assert.Equal(t, "202401", f.collector.lastOpts.From.String())
	assert.Equal(t, "202402", f.collector.lastOpts.To.String())
	assert.Equal(t, []string{"11110"}, f.collector.lastOpts.RegionCodes)
	assert.Equal(t, 50, f.collector.lastOpts.Budget)

	var resp struct {
		Data collect.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Data.Saved)
}

func TestCollectEmptyBodyUsesDefaults(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/collect/trading-volume", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "trading_volume", f.collector.lastKind)
	assert.True(t, f.collector.lastOpts.From.IsZero())
}

func TestCollectUnknownKind(t *testing.T) {
	f := newServerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/collect/bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectRejectsMalformedPeriod(t *testing.T) {
	f := newServerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/collect/sales", `{"from":"2024-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRepairParsesIDAndRange(t *testing.T) {
	f := newServerFixture(t)
	id := f.node.Generate()

	rec := f.do(t, http.MethodPost, "/api/v1/repair/"+id.String(),
		`{"from":"202311","to":"202401"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, id, f.repairer.lastID)
	assert.Equal(t, "202311", f.repairer.lastFrom.String())
	assert.Equal(t, "202401", f.repairer.lastTo.String())
}

func TestRepairUnknownApartmentIs404(t *testing.T) {
	f := newServerFixture(t)
	f.repairer.err = aptdomain.ErrApartmentNotFound

	rec := f.do(t, http.MethodPost, "/api/v1/repair/12345", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestRepairRejectsMalformedID(t *testing.T) {
	f := newServerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/repair/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListApartmentsPaginates(t *testing.T) {
	f := newServerFixture(t)

	regionID := f.node.Generate()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.db.Create(&aptdomain.Apartment{
			ID:        f.node.Generate(),
			RegionID:  regionID,
			Name:      "단지",
			Available: true,
		}).Error)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/apartments?page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data aptdomain.ListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Apartments, 2)
	assert.True(t, resp.Data.HasMore)
	require.NotEmpty(t, resp.Data.NextPageToken)

	rec = f.do(t, http.MethodGet, "/api/v1/apartments?page_size=2&page_token="+url.QueryEscape(resp.Data.NextPageToken), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Apartments, 1)
	assert.False(t, resp.Data.HasMore)
}
