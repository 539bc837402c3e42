package models

import (
	"math"
	"time"
)

// Bar represents a daily OHLCV record.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether every price field is a finite number.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CleanBars drops bars with missing prices, keeping order.
func CleanBars(bars []Bar) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.Valid() {
			out = append(out, b)
		}
	}
	return out
}
