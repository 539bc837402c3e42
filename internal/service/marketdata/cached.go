package marketdata

import (
	"context"
	"math"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	"SignalScan/pkg/cache"
	applogger "SignalScan/pkg/logger"
	"SignalScan/pkg/util"
)

// Cached memoizes bar windows for ttl. Keys include the aligned range, so a
// new trading day always misses. Cache failures fall through to the provider.
type Cached struct {
	next  domrepo.MarketData
	cache cache.BytesCache
	ttl   time.Duration
	log   *applogger.Logger
	now   func() time.Time
}

func NewCached(next domrepo.MarketData, c cache.BytesCache, ttl time.Duration, log *applogger.Logger) *Cached {
	if log == nil {
		log = applogger.Nop()
	}
	return &Cached{next: next, cache: c, ttl: ttl, log: log, now: time.Now}
}

type cachedBar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

func (c *Cached) FetchBars(ctx context.Context, symbol string, lookback time.Duration, interval domrepo.Interval) ([]models.Bar, error) {
	from, to := util.LookbackRange(c.now(), lookback, string(interval))
	key := cache.GenerateKeyWithParams("bars", symbol, interval, from.Unix(), to.Unix())

	var hit []cachedBar
	ok, err := cache.GetJSON(ctx, c.cache, key, &hit)
	if err != nil {
		c.log.Warn("bar cache read failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	if ok {
		return fromCached(hit), nil
	}

	bars, err := c.next.FetchBars(ctx, symbol, lookback, interval)
	if err != nil {
		return nil, err
	}

	// NaN does not survive JSON, so only clean bars are cached.
	clean := models.CleanBars(bars)
	if err := cache.SetJSON(ctx, c.cache, key, toCached(clean), c.ttl); err != nil {
		c.log.Warn("bar cache write failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	return bars, nil
}

func toCached(bars []models.Bar) []cachedBar {
	out := make([]cachedBar, len(bars))
	for i, b := range bars {
		v := b.Volume
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[i] = cachedBar{T: b.Time.Unix(), O: b.Open, H: b.High, L: b.Low, C: b.Close, V: v}
	}
	return out
}

func fromCached(in []cachedBar) []models.Bar {
	out := make([]models.Bar, len(in))
	for i, b := range in {
		out[i] = models.Bar{Time: time.Unix(b.T, 0).UTC(), Open: b.O, High: b.H, Low: b.L, Close: b.C, Volume: b.V}
	}
	return out
}
