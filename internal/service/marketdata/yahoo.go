package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	apphttp "SignalScan/pkg/http"
	"SignalScan/pkg/util"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo reads daily bars from the Yahoo Finance v8 chart endpoint.
type Yahoo struct {
	client  *apphttp.Client
	baseURL string
	suffix  string
	now     func() time.Time
}

// YahooOption configures Yahoo.
type YahooOption func(*Yahoo)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) YahooOption {
	return func(y *Yahoo) {
		y.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSymbolSuffix sets the exchange suffix appended to every symbol (".NS" for NSE).
func WithSymbolSuffix(s string) YahooOption {
	return func(y *Yahoo) {
		y.suffix = s
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) YahooOption {
	return func(y *Yahoo) {
		y.now = now
	}
}

func NewYahoo(client *apphttp.Client, opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		client:  client,
		baseURL: DefaultYahooBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

var _ domrepo.MarketData = (*Yahoo)(nil)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchBars returns bars oldest first. An unknown symbol yields no bars.
func (y *Yahoo) FetchBars(ctx context.Context, symbol string, lookback time.Duration, interval domrepo.Interval) ([]models.Bar, error) {
	from, to := util.LookbackRange(y.now(), lookback, string(interval))

	var resp chartResponse
	err := y.client.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    y.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol+y.suffix),
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(from.Unix(), 10)},
			"period2":  {strconv.FormatInt(to.Unix(), 10)},
			"interval": {string(interval)},
			"events":   {"history"},
		},
	}, &resp)
	if err != nil {
		var se *apphttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return resp.Chart.Result[0].bars(), nil
}

func (r chartResult) bars() []models.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bars = append(bars, models.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  at(q.Close, i),
			Volume: at(q.Volume, i),
		})
	}
	return bars
}

func at(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return math.NaN()
	}
	return *vs[i]
}
