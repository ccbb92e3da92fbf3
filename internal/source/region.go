package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// RegionRecord is one row of the standard region code table.
type RegionRecord struct {
	Code     string
	Name     string
	CityName string
}

type RegionPage struct {
	Records    []RegionRecord
	TotalCount int
	PageNo     int
	HasMore    bool
}

type regionEnvelope struct {
	Response struct {
		Header jsonHeader `json:"header"`
		Body   struct {
			Items      []regionItem `json:"items"`
			TotalCount int          `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type regionItem struct {
	RegionCode string `json:"regionCd"`
	Name       string `json:"locallowNm"`
	FullName   string `json:"locataddNm"`
}

// FetchRegions returns one page of the standard region code listing.
func (c *Client) FetchRegions(ctx context.Context, pageNo int, budget *Budget) (*RegionPage, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("serviceKey", key)
	query.Set("type", "json")
	query.Set("pageNo", strconv.Itoa(pageNo))
	query.Set("numOfRows", strconv.Itoa(c.PageSize()))

	var envelope regionEnvelope
	err = c.get(ctx, "regions", c.cfg.ComplexBaseURL+"/getStanReginCdList", query, budget, func(body []byte) error {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		return checkJSONResultCode(envelope.Response.Header)
	})
	if err != nil {
		return nil, err
	}

	page := &RegionPage{
		TotalCount: envelope.Response.Body.TotalCount,
		PageNo:     pageNo,
		HasMore:    hasMore(pageNo, c.PageSize(), envelope.Response.Body.TotalCount),
	}
	for _, item := range envelope.Response.Body.Items {
		page.Records = append(page.Records, RegionRecord{
			Code:     strings.TrimSpace(item.RegionCode),
			Name:     strings.TrimSpace(item.Name),
			CityName: cityFromFullName(item.FullName),
		})
	}
	return page, nil
}

// cityFromFullName takes the leading token of "서울특별시 종로구".
func cityFromFullName(fullName string) string {
	fields := strings.Fields(strings.TrimSpace(fullName))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
