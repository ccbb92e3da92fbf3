package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aptrend/aptrend/internal/period"
)

// SaleRecord is one filed sale as the portal reports it, before matching.
type SaleRecord struct {
	ApartmentName string
	RegionCode    string
	DealDate      time.Time
	DealAmount    int64
	AreaSqm       float64
	Floor         int
	ExternalSeq   string
	Canceled      bool
}

// RentRecord is one filed lease. Rent rows carry no external sequence.
type RentRecord struct {
	ApartmentName string
	RegionCode    string
	ContractDate  time.Time
	Deposit       int64
	MonthlyRent   int64
	AreaSqm       float64
	Floor         int
}

type SalePage struct {
	Records    []SaleRecord
	TotalCount int
	PageNo     int
	HasMore    bool
}

type RentPage struct {
	Records    []RentRecord
	TotalCount int
	PageNo     int
	HasMore    bool
}

type tradeHeader struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

type saleEnvelope struct {
	XMLName xml.Name    `xml:"response"`
	Header  tradeHeader `xml:"header"`
	Body    struct {
		Items struct {
			Item []saleItem `xml:"item"`
		} `xml:"items"`
		TotalCount int `xml:"totalCount"`
		PageNo     int `xml:"pageNo"`
	} `xml:"body"`
}

type saleItem struct {
	AptName    string `xml:"aptNm"`
	DealYear   int    `xml:"dealYear"`
	DealMonth  int    `xml:"dealMonth"`
	DealDay    int    `xml:"dealDay"`
	DealAmount string `xml:"dealAmount"`
	AreaSqm    string `xml:"excluUseAr"`
	Floor      string `xml:"floor"`
	Seq        string `xml:"aptSeq"`
	CancelType string `xml:"cdealType"`
}

type rentEnvelope struct {
	XMLName xml.Name    `xml:"response"`
	Header  tradeHeader `xml:"header"`
	Body    struct {
		Items struct {
			Item []rentItem `xml:"item"`
		} `xml:"items"`
		TotalCount int `xml:"totalCount"`
		PageNo     int `xml:"pageNo"`
	} `xml:"body"`
}

type rentItem struct {
	AptName     string `xml:"aptNm"`
	DealYear    int    `xml:"dealYear"`
	DealMonth   int    `xml:"dealMonth"`
	DealDay     int    `xml:"dealDay"`
	Deposit     string `xml:"deposit"`
	MonthlyRent string `xml:"monthlyRent"`
	AreaSqm     string `xml:"excluUseAr"`
	Floor       string `xml:"floor"`
}

// FetchSales returns one page of filed sales for a district and month.
func (c *Client) FetchSales(ctx context.Context, districtCode string, p period.Period, pageNo int, budget *Budget) (*SalePage, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("serviceKey", key)
	query.Set("LAWD_CD", districtCode)
	query.Set("DEAL_YMD", p.String())
	query.Set("pageNo", strconv.Itoa(pageNo))
	query.Set("numOfRows", strconv.Itoa(c.PageSize()))

	var envelope saleEnvelope
	err = c.get(ctx, "sales", c.cfg.TradeBaseURL+"/getRTMSDataSvcAptTrade", query, budget, func(body []byte) error {
		if err := xml.Unmarshal(body, &envelope); err != nil {
			return err
		}
		return checkResultCode(envelope.Header)
	})
	if err != nil {
		return nil, err
	}

	page := &SalePage{
		TotalCount: envelope.Body.TotalCount,
		PageNo:     pageNo,
		HasMore:    hasMore(pageNo, c.PageSize(), envelope.Body.TotalCount),
	}
	for _, item := range envelope.Body.Items.Item {
		record := SaleRecord{
			ApartmentName: strings.TrimSpace(item.AptName),
			RegionCode:    districtCode,
			DealDate:      time.Date(item.DealYear, time.Month(item.DealMonth), item.DealDay, 0, 0, 0, 0, time.UTC),
			DealAmount:    parseAmount(item.DealAmount),
			AreaSqm:       parseFloat(item.AreaSqm),
			Floor:         parseInt(item.Floor),
			ExternalSeq:   strings.TrimSpace(item.Seq),
			Canceled:      strings.TrimSpace(item.CancelType) == "O",
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}

// FetchRents returns one page of filed leases for a district and month.
func (c *Client) FetchRents(ctx context.Context, districtCode string, p period.Period, pageNo int, budget *Budget) (*RentPage, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("serviceKey", key)
	query.Set("LAWD_CD", districtCode)
	query.Set("DEAL_YMD", p.String())
	query.Set("pageNo", strconv.Itoa(pageNo))
	query.Set("numOfRows", strconv.Itoa(c.PageSize()))

	var envelope rentEnvelope
	err = c.get(ctx, "rents", c.cfg.TradeBaseURL+"/getRTMSDataSvcAptRent", query, budget, func(body []byte) error {
		if err := xml.Unmarshal(body, &envelope); err != nil {
			return err
		}
		return checkResultCode(envelope.Header)
	})
	if err != nil {
		return nil, err
	}

	page := &RentPage{
		TotalCount: envelope.Body.TotalCount,
		PageNo:     pageNo,
		HasMore:    hasMore(pageNo, c.PageSize(), envelope.Body.TotalCount),
	}
	for _, item := range envelope.Body.Items.Item {
		record := RentRecord{
			ApartmentName: strings.TrimSpace(item.AptName),
			RegionCode:    districtCode,
			ContractDate:  time.Date(item.DealYear, time.Month(item.DealMonth), item.DealDay, 0, 0, 0, 0, time.UTC),
			Deposit:       parseAmount(item.Deposit),
			MonthlyRent:   parseAmount(item.MonthlyRent),
			AreaSqm:       parseFloat(item.AreaSqm),
			Floor:         parseInt(item.Floor),
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}

func checkResultCode(header tradeHeader) error {
	code := strings.TrimSpace(header.ResultCode)
	if code != "" && code != "00" && code != "000" {
		return fmt.Errorf("result code %s: %s", code, strings.TrimSpace(header.ResultMsg))
	}
	return nil
}

// parseAmount handles the portal's thousand-separated amounts ("82,500").
func parseAmount(raw string) int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return amount
}

func parseFloat(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return value
}

func parseInt(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}
