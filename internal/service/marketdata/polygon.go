package marketdata

import (
	"context"
	"fmt"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	"SignalScan/pkg/util"

	polygon "github.com/polygon-io/client-go/rest"
	pmodels "github.com/polygon-io/client-go/rest/models"
)

// AggsIterator is the iterator shape returned by the Polygon REST client.
type AggsIterator interface {
	Next() bool
	Item() pmodels.Agg
	Err() error
}

// AggsAPI lists aggregate bars.
type AggsAPI interface {
	ListAggs(ctx context.Context, params *pmodels.ListAggsParams, opts ...pmodels.RequestOption) AggsIterator
}

type polygonAPI struct {
	client *polygon.Client
}

func (p polygonAPI) ListAggs(ctx context.Context, params *pmodels.ListAggsParams, opts ...pmodels.RequestOption) AggsIterator {
	return p.client.ListAggs(ctx, params, opts...)
}

// Polygon reads bars from the Polygon aggregates endpoint.
type Polygon struct {
	api AggsAPI
	now func() time.Time
}

func NewPolygon(apiKey string) (*Polygon, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("polygon api key is required")
	}
	return NewPolygonWithAPI(polygonAPI{client: polygon.New(apiKey)}), nil
}

func NewPolygonWithAPI(api AggsAPI) *Polygon {
	return &Polygon{api: api, now: time.Now}
}

var _ domrepo.MarketData = (*Polygon)(nil)

func (p *Polygon) FetchBars(ctx context.Context, symbol string, lookback time.Duration, interval domrepo.Interval) ([]models.Bar, error) {
	from, to := util.LookbackRange(p.now(), lookback, string(interval))

	timespan := pmodels.Day
	if interval == domrepo.Interval1wk {
		timespan = pmodels.Week
	}

	params := pmodels.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   timespan,
		From:       pmodels.Millis(from),
		To:         pmodels.Millis(to),
	}.WithAdjusted(true).WithLimit(50000)

	it := p.api.ListAggs(ctx, params)
	var bars []models.Bar
	for it.Next() {
		agg := it.Item()
		bars = append(bars, models.Bar{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, err)
	}
	return bars, nil
}
