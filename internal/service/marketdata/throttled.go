package marketdata

import (
	"context"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/service/ratelimit"
)

// Throttled holds every fetch to a shared token bucket so concurrent workers
// stay under the provider's request rate.
type Throttled struct {
	next     domrepo.MarketData
	limiter  *ratelimit.Limiter
	key      string
	capacity float64
	refill   float64
}

func NewThrottled(next domrepo.MarketData, limiter *ratelimit.Limiter, key string, capacity, refillPerSec float64) *Throttled {
	return &Throttled{next: next, limiter: limiter, key: key, capacity: capacity, refill: refillPerSec}
}

func (t *Throttled) FetchBars(ctx context.Context, symbol string, lookback time.Duration, interval domrepo.Interval) ([]models.Bar, error) {
	if err := t.limiter.Wait(ctx, t.key, t.capacity, t.refill); err != nil {
		return nil, err
	}
	return t.next.FetchBars(ctx, symbol, lookback, interval)
}
