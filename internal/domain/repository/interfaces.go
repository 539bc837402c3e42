package repository

import (
	"context"
	"time"

	"SignalScan/internal/domain/models"
)

// MarketData returns historical bars for a symbol, oldest first.
// A short or empty result is not an error.
type MarketData interface {
	FetchBars(ctx context.Context, symbol string, lookback time.Duration, interval Interval) ([]models.Bar, error)
}

// IndicatorEngine derives the latest indicator snapshot from cleaned bars.
type IndicatorEngine interface {
	Compute(symbol string, bars []models.Bar) (models.Snapshot, error)
}

// Store is a hierarchical key-value store with overwrite and append primitives.
type Store interface {
	// Set overwrites the record at path.
	Set(ctx context.Context, path string, value any) error
	// Push appends value under path and returns the generated key.
	Push(ctx context.Context, path string, value any) (string, error)
	Health(ctx context.Context) error
	Close() error
}

// Notifier receives events after they were persisted. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, e models.SignalEvent) error
	Close() error
}

type Metrics interface {
	RecordOutcome(outcome models.Outcome, signal models.SignalType)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordLedgerSize(n int)
}
