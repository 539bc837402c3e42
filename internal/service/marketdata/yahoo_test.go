package marketdata

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	domrepo "SignalScan/internal/domain/repository"
	apphttp "SignalScan/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1728345600, 1728432000, 1728518400],
      "indicators": {
        "quote": [{
          "open":   [100.0, 101.0, null],
          "high":   [105.0, 106.0, null],
          "low":    [99.0, 100.0, null],
          "close":  [104.0, 105.5, null],
          "volume": [1000, 1200, null]
        }]
      }
    }],
    "error": null
  }
}`

func fixedClock() time.Time {
	return time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
}

func TestYahooFetchBars(t *testing.T) {
	var got *url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	y := NewYahoo(apphttp.NewClient(), WithBaseURL(srv.URL), WithSymbolSuffix(".NS"), WithClock(fixedClock))
	bars, err := y.FetchBars(context.Background(), "TCS", 30*24*time.Hour, domrepo.Interval1d)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/v8/finance/chart/TCS.NS", got.Path)
	assert.Equal(t, "1d", got.Query().Get("interval"))
	assert.Equal(t, "1728604800", got.Query().Get("period2"))

	require.Len(t, bars, 3)
	assert.Equal(t, 104.0, bars[0].Close)
	assert.Equal(t, time.Unix(1728432000, 0).UTC(), bars[1].Time)
	assert.True(t, math.IsNaN(bars[2].Close), "null quotes become NaN")
}

func TestYahooUnknownSymbolIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(apphttp.NewClient(), WithBaseURL(srv.URL), WithClock(fixedClock))
	bars, err := y.FetchBars(context.Background(), "NOPE", 24*time.Hour, domrepo.Interval1d)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	y := NewYahoo(apphttp.NewClient(), WithBaseURL(srv.URL), WithClock(fixedClock))
	_, err := y.FetchBars(context.Background(), "TCS", 24*time.Hour, domrepo.Interval1d)
	assert.Error(t, err)
}

func TestYahooChartErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(apphttp.NewClient(), WithBaseURL(srv.URL), WithClock(fixedClock))
	_, err := y.FetchBars(context.Background(), "TCS", 24*time.Hour, domrepo.Interval1d)
	assert.ErrorContains(t, err, "Invalid input")
}
