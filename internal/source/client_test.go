package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/period"
)

const salesPayload = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header>
    <resultCode>00</resultCode>
    <resultMsg>NORMAL SERVICE.</resultMsg>
  </header>
  <body>
    <items>
      <item>
        <aptNm>래미안 강남</aptNm>
        <dealYear>2024</dealYear>
        <dealMonth>1</dealMonth>
        <dealDay>15</dealDay>
        <dealAmount>82,500</dealAmount>
        <excluUseAr>84.97</excluUseAr>
        <floor>12</floor>
        <aptSeq>11110-123</aptSeq>
      </item>
      <item>
        <aptNm>힐스테이트 서초</aptNm>
        <dealYear>2024</dealYear>
        <dealMonth>1</dealMonth>
        <dealDay>20</dealDay>
        <dealAmount>121,000</dealAmount>
        <excluUseAr>59.92</excluUseAr>
        <floor>7</floor>
        <aptSeq>11110-456</aptSeq>
        <cdealType>O</cdealType>
      </item>
    </items>
    <totalCount>3</totalCount>
    <pageNo>1</pageNo>
  </body>
</response>`

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	var cfg config.Config
	cfg.Source = config.SourceConfig{
		APIKey:           "test-key",
		TradeBaseURL:     baseURL,
		ComplexBaseURL:   baseURL,
		StatisticBaseURL: baseURL,
		PageSize:         2,
		RequestTimeout:   5,
		MaxRetries:       2,
	}
	return New(Params{Config: cfg, Log: zap.NewNop()})
}

func TestFetchSalesParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("serviceKey"))
		assert.Equal(t, "11110", r.URL.Query().Get("LAWD_CD"))
		assert.Equal(t, "202401", r.URL.Query().Get("DEAL_YMD"))
		w.Write([]byte(salesPayload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(10))
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, page.HasMore)

	first := page.Records[0]
	assert.Equal(t, "래미안 강남", first.ApartmentName)
	assert.Equal(t, int64(82_500), first.DealAmount)
	assert.Equal(t, 84.97, first.AreaSqm)
	assert.Equal(t, 12, first.Floor)
	assert.Equal(t, "11110-123", first.ExternalSeq)
	assert.False(t, first.Canceled)
	assert.Equal(t, 2024, first.DealDate.Year())

	assert.True(t, page.Records[1].Canceled)
}

func TestFetchSalesRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(salesPayload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(10))

	// Two failures then success stays invisible to the caller.
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchSalesGivesUpAfterRetryCeiling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(10))

	require.Error(t, err)
	var transport *TransportError
	assert.ErrorAs(t, err, &transport)
	assert.Equal(t, int32(3), calls.Load(), "MaxRetries=2 means three attempts")
}

func TestFetchSalesDecodeFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not xml at all"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(10))

	require.Error(t, err)
	var decode *DecodeError
	assert.ErrorAs(t, err, &decode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchSalesErrorResultCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<response><header><resultCode>99</resultCode><resultMsg>SERVICE KEY ERROR</resultMsg></header></response>`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(10))

	var decode *DecodeError
	require.ErrorAs(t, err, &decode)
	assert.Contains(t, err.Error(), "99")
}

func TestFetchSalesBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(0))

	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, int32(0), calls.Load(), "an exhausted budget must not reach the network")
}

func TestFetchSalesMissingAPIKey(t *testing.T) {
	client := newTestClient(t, "http://unused")
	client.cfg.APIKey = "  "

	_, err := client.FetchSales(context.Background(), "11110", period.Period{Year: 2024, Month: 1}, 1, NewBudget(10))
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFetchRents(t *testing.T) {
	payload := `<response>
  <header><resultCode>00</resultCode></header>
  <body>
    <items>
      <item>
        <aptNm>이편한세상</aptNm>
        <dealYear>2024</dealYear><dealMonth>2</dealMonth><dealDay>5</dealDay>
        <deposit>30,000</deposit>
        <monthlyRent>120</monthlyRent>
        <excluUseAr>59.82</excluUseAr>
        <floor>3</floor>
      </item>
    </items>
    <totalCount>1</totalCount>
  </body>
</response>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.FetchRents(context.Background(), "11110", period.Period{Year: 2024, Month: 2}, 1, NewBudget(10))
	require.NoError(t, err)

	require.Len(t, page.Records, 1)
	record := page.Records[0]
	assert.Equal(t, "이편한세상", record.ApartmentName)
	assert.Equal(t, int64(30_000), record.Deposit)
	assert.Equal(t, int64(120), record.MonthlyRent)
	assert.False(t, page.HasMore)
}

func TestFetchApartments(t *testing.T) {
	payload := `{
  "response": {
    "header": {"resultCode": "00"},
    "body": {
      "items": [
        {"kaptCode": "A10027364", "kaptName": "래미안 강남", "bjdCode": "1111010100"},
        {"kaptCode": "A10027365", "kaptName": "힐스테이트 서초", "bjdCode": "1111010200"}
      ],
      "totalCount": 2
    }
  }
}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "11110", r.URL.Query().Get("bjdCode"))
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.FetchApartments(context.Background(), "11110", 1, NewBudget(10))
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.Equal(t, "A10027364", page.Records[0].ExternalCode)
	assert.Equal(t, "1111010100", page.Records[0].RegionCode)
	assert.False(t, page.HasMore)
}

func TestFetchApartmentDetail(t *testing.T) {
	payload := `{
  "response": {
    "header": {"resultCode": "00"},
    "body": {
      "item": {
        "kaptCode": "A10027364",
        "kaptdaCnt": 1320,
        "kaptUsedate": "20031125",
        "codeHeatNm": "지역난방",
        "codeHallNm": "계단식"
      }
    }
  }
}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	detail, err := client.FetchApartmentDetail(context.Background(), "A10027364", NewBudget(10))
	require.NoError(t, err)

	assert.Equal(t, 1320, detail.HouseholdCount)
	assert.Equal(t, 2003, detail.BuildYear)
	assert.Equal(t, "지역난방", detail.HeatingType)
	assert.Equal(t, "계단식", detail.HallwayType)
}

func TestFetchRegions(t *testing.T) {
	payload := `{
  "response": {
    "header": {"resultCode": "00"},
    "body": {
      "items": [
        {"regionCd": "1111000000", "locallowNm": "종로구", "locataddNm": "서울특별시 종로구"}
      ],
      "totalCount": 1
    }
  }
}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.FetchRegions(context.Background(), 1, NewBudget(10))
	require.NoError(t, err)

	require.Len(t, page.Records, 1)
	assert.Equal(t, "1111000000", page.Records[0].Code)
	assert.Equal(t, "종로구", page.Records[0].Name)
	assert.Equal(t, "서울특별시", page.Records[0].CityName)
}

func TestFetchStatistics(t *testing.T) {
	payload := `[
  {"C1": "11110", "PRD_DE": "202401", "DT": "97.3"},
  {"C1": "11110", "PRD_DE": "202402", "DT": "97.8"}
]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "T100", r.URL.Query().Get("tblId"))
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	records, err := client.FetchStatistics(context.Background(), "T100", "11110",
		period.Period{Year: 2024, Month: 1}, period.Period{Year: 2024, Month: 2}, NewBudget(10))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 97.3, records[0].Value)
	assert.Equal(t, "202402", records[1].Period)
}

func TestBudgetCounter(t *testing.T) {
	budget := NewBudget(2)

	assert.True(t, budget.TryAcquire())
	assert.True(t, budget.TryAcquire())
	assert.False(t, budget.TryAcquire())

	assert.Equal(t, 0, budget.Remaining())
	assert.Equal(t, 2, budget.Used())

	var unlimited *Budget
	assert.True(t, unlimited.TryAcquire())
}
