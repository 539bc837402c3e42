// Package indicators computes directional-index and Ichimoku cloud readings
// from daily bars.
package indicators

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"SignalScan/internal/domain/models"
)

// Windows holds indicator periods.
type Windows struct {
	DI         int
	Conversion int
	Base       int
	SpanB      int
}

// DefaultWindows are the periods the classifier thresholds were tuned for.
var DefaultWindows = Windows{DI: 14, Conversion: 9, Base: 26, SpanB: 52}

// MinBars is the fewest bars that produce every reading with DefaultWindows.
const MinBars = 52

// Engine implements repository.IndicatorEngine on top of go-talib.
type Engine struct {
	w Windows
}

// NewEngine creates an engine. Zero-valued windows fall back to defaults.
func NewEngine(w Windows) *Engine {
	if w.DI <= 0 {
		w.DI = DefaultWindows.DI
	}
	if w.Conversion <= 0 {
		w.Conversion = DefaultWindows.Conversion
	}
	if w.Base <= 0 {
		w.Base = DefaultWindows.Base
	}
	if w.SpanB <= 0 {
		w.SpanB = DefaultWindows.SpanB
	}
	return &Engine{w: w}
}

// Required returns the minimum number of bars Compute needs.
func (e *Engine) Required() int {
	n := e.w.SpanB
	for _, p := range []int{e.w.DI + 1, e.w.Base, e.w.Conversion} {
		if p > n {
			n = p
		}
	}
	return n
}

// Compute returns the latest +DI, -DI, span A and span B. Bars must already
// be cleaned of missing prices.
func (e *Engine) Compute(symbol string, bars []models.Bar) (models.Snapshot, error) {
	if len(bars) < e.Required() {
		return models.Snapshot{}, fmt.Errorf("%s: %d bars, need %d: %w", symbol, len(bars), e.Required(), models.ErrInsufficientHistory)
	}

	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		high[i], low[i], closes[i] = b.High, b.Low, b.Close
	}

	snap := models.Snapshot{
		Symbol:     symbol,
		PlusDI:     last(talib.PlusDI(high, low, closes, e.w.DI)),
		MinusDI:    last(talib.MinusDI(high, low, closes, e.w.DI)),
		CloudBandA: math.NaN(),
		CloudBandB: math.NaN(),
		AsOf:       bars[len(bars)-1].Time,
	}

	conv := midpoint(high, low, e.w.Conversion)
	base := midpoint(high, low, e.w.Base)
	if !math.IsNaN(conv) && !math.IsNaN(base) {
		snap.CloudBandA = (conv + base) / 2
	}
	snap.CloudBandB = midpoint(high, low, e.w.SpanB)

	return snap, nil
}

// midpoint is (highest high + lowest low) / 2 over the trailing period.
func midpoint(high, low []float64, period int) float64 {
	if len(high) < period || len(low) < period {
		return math.NaN()
	}
	hh := last(talib.Max(high, period))
	ll := last(talib.Min(low, period))
	return (hh + ll) / 2
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}
