package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/aptrend/aptrend/internal/period"
)

// StatRecord is one point of a published statistic series (index value or
// trade count, depending on the table).
type StatRecord struct {
	RegionCode string
	Period     string
	Value      float64
}

type statRow struct {
	RegionCode string `json:"C1"`
	Period     string `json:"PRD_DE"`
	Value      string `json:"DT"`
}

// FetchStatistics returns every point of a statistic table for a region and
// period range. The statistics service has no paging; one call covers the
// range.
func (c *Client) FetchStatistics(ctx context.Context, tableID, regionCode string, from, to period.Period, budget *Budget) ([]StatRecord, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("apiKey", key)
	query.Set("tblId", tableID)
	query.Set("objL1", regionCode)
	query.Set("startPrdDe", from.String())
	query.Set("endPrdDe", to.String())
	query.Set("format", "json")

	var rows []statRow
	err = c.get(ctx, "statistics", c.cfg.StatisticBaseURL+"/statisticsData", query, budget, func(body []byte) error {
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}

	records := make([]StatRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, StatRecord{
			RegionCode: strings.TrimSpace(row.RegionCode),
			Period:     strings.TrimSpace(row.Period),
			Value:      parseFloat(row.Value),
		})
	}
	return records, nil
}
