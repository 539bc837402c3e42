package mocks

import (
	"math"
	"math/rand"
	"time"

	"SignalScan/internal/domain/models"
)

// BarGenerator produces synthetic daily bars for tests.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a generator. Use a fixed seed for reproducible results.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{rng: rand.New(rand.NewSource(seed))}
}

// BarConfig configures how bars are generated.
type BarConfig struct {
	Start time.Time
	Count int
	// InitialPrice is the first open.
	InitialPrice float64
	// Drift is the per-bar relative move (0.01 = +1% a day).
	Drift float64
	// Volatility is the per-bar relative noise.
	Volatility float64
	// Range is the high-low spread relative to close.
	Range float64
}

// DefaultBarConfig returns 120 flat-ish daily bars starting 2024-01-01.
func DefaultBarConfig() BarConfig {
	return BarConfig{
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:        120,
		InitialPrice: 100,
		Drift:        0,
		Volatility:   0.005,
		Range:        0.01,
	}
}

// Generate builds bars oldest first.
func (g *BarGenerator) Generate(cfg BarConfig) []models.Bar {
	bars := make([]models.Bar, cfg.Count)
	price := cfg.InitialPrice
	for i := range bars {
		open := price
		noise := cfg.Volatility * g.rng.NormFloat64()
		closePrice := math.Max(0.01, open*(1+cfg.Drift+noise))
		hi := math.Max(open, closePrice) * (1 + cfg.Range*g.rng.Float64())
		lo := math.Min(open, closePrice) * (1 - cfg.Range*g.rng.Float64())
		bars[i] = models.Bar{
			Time:   cfg.Start.AddDate(0, 0, i),
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  closePrice,
			Volume: 1000 + 100*g.rng.Float64(),
		}
		price = closePrice
	}
	return bars
}

// Trend returns count noise-free bars moving by step per bar, each with a
// fixed high-low spread around close.
func Trend(start time.Time, count int, from, step, spread float64) []models.Bar {
	bars := make([]models.Bar, count)
	price := from
	for i := range bars {
		next := price + step
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   math.Max(price, next) + spread,
			Low:    math.Min(price, next) - spread,
			Close:  next,
			Volume: 1000,
		}
		price = next
	}
	return bars
}
