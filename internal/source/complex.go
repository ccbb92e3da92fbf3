package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ApartmentRecord is one master-list row: a complex code plus its legal
// region code.
type ApartmentRecord struct {
	Name         string
	ExternalCode string
	RegionCode   string
}

type ApartmentPage struct {
	Records    []ApartmentRecord
	TotalCount int
	PageNo     int
	HasMore    bool
}

// DetailRecord carries the per-complex attributes from the basis-info
// endpoint.
type DetailRecord struct {
	ExternalCode   string
	HouseholdCount int
	BuildYear      int
	HeatingType    string
	HallwayType    string
}

type jsonHeader struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
}

type apartmentEnvelope struct {
	Response struct {
		Header jsonHeader `json:"header"`
		Body   struct {
			Items      []apartmentItem `json:"items"`
			TotalCount int             `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type apartmentItem struct {
	ComplexCode string `json:"kaptCode"`
	ComplexName string `json:"kaptName"`
	RegionCode  string `json:"bjdCode"`
}

type detailEnvelope struct {
	Response struct {
		Header jsonHeader `json:"header"`
		Body   struct {
			Item detailItem `json:"item"`
		} `json:"body"`
	} `json:"response"`
}

type detailItem struct {
	ComplexCode    string `json:"kaptCode"`
	HouseholdCount int    `json:"kaptdaCnt"`
	ApprovalDate   string `json:"kaptUsedate"`
	HeatingType    string `json:"codeHeatNm"`
	HallwayType    string `json:"codeHallNm"`
}

// FetchApartments returns one page of the complex master list for a
// district.
func (c *Client) FetchApartments(ctx context.Context, districtCode string, pageNo int, budget *Budget) (*ApartmentPage, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("serviceKey", key)
	query.Set("bjdCode", districtCode)
	query.Set("pageNo", strconv.Itoa(pageNo))
	query.Set("numOfRows", strconv.Itoa(c.PageSize()))

	var envelope apartmentEnvelope
	err = c.get(ctx, "apartments", c.cfg.ComplexBaseURL+"/getTotalAptList", query, budget, func(body []byte) error {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		return checkJSONResultCode(envelope.Response.Header)
	})
	if err != nil {
		return nil, err
	}

	page := &ApartmentPage{
		TotalCount: envelope.Response.Body.TotalCount,
		PageNo:     pageNo,
		HasMore:    hasMore(pageNo, c.PageSize(), envelope.Response.Body.TotalCount),
	}
	for _, item := range envelope.Response.Body.Items {
		page.Records = append(page.Records, ApartmentRecord{
			Name:         strings.TrimSpace(item.ComplexName),
			ExternalCode: strings.TrimSpace(item.ComplexCode),
			RegionCode:   strings.TrimSpace(item.RegionCode),
		})
	}
	return page, nil
}

// FetchApartmentDetail returns the basis info for one complex code.
func (c *Client) FetchApartmentDetail(ctx context.Context, externalCode string, budget *Budget) (*DetailRecord, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("serviceKey", key)
	query.Set("kaptCode", externalCode)

	var envelope detailEnvelope
	err = c.get(ctx, "apartment_details", c.cfg.ComplexBaseURL+"/getAphusBassInfo", query, budget, func(body []byte) error {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		return checkJSONResultCode(envelope.Response.Header)
	})
	if err != nil {
		return nil, err
	}

	item := envelope.Response.Body.Item
	return &DetailRecord{
		ExternalCode:   strings.TrimSpace(item.ComplexCode),
		HouseholdCount: item.HouseholdCount,
		BuildYear:      parseBuildYear(item.ApprovalDate),
		HeatingType:    strings.TrimSpace(item.HeatingType),
		HallwayType:    strings.TrimSpace(item.HallwayType),
	}, nil
}

func checkJSONResultCode(header jsonHeader) error {
	code := strings.TrimSpace(header.ResultCode)
	if code != "" && code != "00" && code != "000" {
		return fmt.Errorf("result code %s: %s", code, strings.TrimSpace(header.ResultMsg))
	}
	return nil
}

// parseBuildYear reads the leading year from an approval date like
// "20031125" or "2003-11-25".
func parseBuildYear(raw string) int {
	cleaned := strings.TrimSpace(raw)
	if len(cleaned) < 4 {
		return 0
	}
	year, err := strconv.Atoi(cleaned[:4])
	if err != nil {
		return 0
	}
	return year
}
