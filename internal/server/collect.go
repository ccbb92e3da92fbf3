package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/internal/collect"
	"github.com/aptrend/aptrend/internal/period"
)

type collectRequest struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	RegionCodes     []string `json:"region_codes"`
	Budget          int      `json:"budget"`
	StartRegionIdx  int      `json:"start_region_index"`
	Concurrency     int      `json:"concurrency"`
	AllowDuplicates bool     `json:"allow_duplicates"`
	StatTableID     string   `json:"stat_table_id"`
}

func (s *Server) Collect(c *gin.Context) {
	kind := strings.ToLower(strings.TrimSpace(c.Param("kind")))
	pipeline, ok := s.pipeline(kind)
	if !ok {
		AbortWithError(c, ErrUnknownKind)
		return
	}

	var req collectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	from, to, err := parsePeriodRange(req.From, req.To)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	opts := collect.Options{
		From:             from,
		To:               to,
		RegionCodes:      req.RegionCodes,
		Budget:           req.Budget,
		StartRegionIndex: req.StartRegionIdx,
		Concurrency:      req.Concurrency,
		AllowDuplicates:  req.AllowDuplicates,
		StatTableID:      strings.TrimSpace(req.StatTableID),
	}

	result := pipeline(c.Request.Context(), opts)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) pipeline(kind string) (func(ctx context.Context, opts collect.Options) *collect.Result, bool) {
	switch kind {
	case "regions":
		return s.collector.CollectRegions, true
	case "apartments":
		return s.collector.CollectApartments, true
	case "apartment-details":
		return s.collector.CollectApartmentDetails, true
	case "sales":
		return s.collector.CollectSales, true
	case "rents":
		return s.collector.CollectRents, true
	case "price-index":
		return s.collector.CollectPriceIndex, true
	case "trading-volume":
		return s.collector.CollectTradingVolume, true
	default:
		return nil, false
	}
}

type repairRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) Repair(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("apartment_id"))
	if err != nil {
		AbortWithError(c, aptdomain.ErrInvalidID)
		return
	}

	var req repairRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	from, to, err := parsePeriodRange(req.From, req.To)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.repairer.Repair(c.Request.Context(), id, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListApartments(c *gin.Context) {
	var query struct {
		RegionID  string `form:"region_id"`
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var regionID snowflake.ID
	if raw := strings.TrimSpace(query.RegionID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		regionID = parsed
	}

	resp, err := s.apartmentSvc.List(c.Request.Context(), aptdomain.ListRequest{
		RegionID:  regionID,
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// parsePeriodRange accepts the wire form YYYYMM for both bounds; empty
// strings leave the pipeline's default window in place.
func parsePeriodRange(fromRaw, toRaw string) (period.Period, period.Period, error) {
	var from, to period.Period
	if raw := strings.TrimSpace(fromRaw); raw != "" {
		parsed, err := period.Parse(raw)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if raw := strings.TrimSpace(toRaw); raw != "" {
		parsed, err := period.Parse(raw)
		if err != nil {
			return from, to, err
		}
		to = parsed
	}
	return from, to, nil
}
