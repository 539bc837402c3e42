package marketdata

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/service/ratelimit"
	"SignalScan/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	bars  []models.Bar
	err   error
}

func (c *countingSource) FetchBars(context.Context, string, time.Duration, domrepo.Interval) ([]models.Bar, error) {
	c.calls.Add(1)
	return c.bars, c.err
}

func sampleBars() []models.Bar {
	t0 := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	return []models.Bar{
		{Time: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: math.NaN()},
		{Time: t0.Add(24 * time.Hour), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 10},
	}
}

func TestCachedServesSecondCallFromCache(t *testing.T) {
	src := &countingSource{bars: sampleBars()}
	mc := cache.NewMemoryCache()
	defer mc.Close()

	c := NewCached(src, mc, time.Minute, nil)
	c.now = fixedClock

	first, err := c.FetchBars(context.Background(), "TCS", 24*time.Hour, domrepo.Interval1d)
	require.NoError(t, err)
	second, err := c.FetchBars(context.Background(), "TCS", 24*time.Hour, domrepo.Interval1d)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	require.Len(t, second, len(first))
	assert.Equal(t, first[1], second[1])
	assert.Equal(t, 0.0, second[0].Volume)

	_, err = c.FetchBars(context.Background(), "INFY", 24*time.Hour, domrepo.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "cache is keyed by symbol")
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: errors.New("down")}
	mc := cache.NewMemoryCache()
	defer mc.Close()

	c := NewCached(src, mc, time.Minute, nil)
	for i := 0; i < 2; i++ {
		_, err := c.FetchBars(context.Background(), "TCS", 24*time.Hour, domrepo.Interval1d)
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, 0, mc.Len())
}

func TestThrottledPassesThroughAndHonoursContext(t *testing.T) {
	src := &countingSource{bars: sampleBars()}
	th := NewThrottled(src, ratelimit.New(), "yahoo", 1, 0.001)

	bars, err := th.FetchBars(context.Background(), "TCS", time.Hour, domrepo.Interval1d)
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = th.FetchBars(ctx, "TCS", time.Hour, domrepo.Interval1d)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), src.calls.Load())
}
