package models

import (
	"errors"
	"math"
	"time"
)

// SignalType is the closed set of alert categories a snapshot can produce.
type SignalType string

const (
	SignalReversalBull SignalType = "reversal_bull"
	SignalReversalBear SignalType = "reversal_bear"
	SignalBreakoutBull SignalType = "breakout_bull"
	SignalBreakoutBear SignalType = "breakout_bear"
)

// AllSignalTypes lists categories in classifier priority order.
var AllSignalTypes = []SignalType{
	SignalReversalBull,
	SignalReversalBear,
	SignalBreakoutBull,
	SignalBreakoutBear,
}

// IsValid reports whether s is one of the four known categories.
func (s SignalType) IsValid() bool {
	switch s {
	case SignalReversalBull, SignalReversalBear, SignalBreakoutBull, SignalBreakoutBear:
		return true
	default:
		return false
	}
}

func (s SignalType) String() string { return string(s) }

var (
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrIncompleteSnapshot  = errors.New("incomplete indicator snapshot")
)

// TimestampLayout is the wire format of SignalEvent.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Snapshot holds the latest indicator readings for one ticker.
// NaN marks a value the indicator engine could not produce.
type Snapshot struct {
	Symbol     string
	PlusDI     float64 // +DI, 0..100
	MinusDI    float64 // -DI, 0..100
	CloudBandA float64 // Ichimoku span A
	CloudBandB float64 // Ichimoku span B
	AsOf       time.Time
}

// Complete reports whether all four readings are present and finite.
func (s Snapshot) Complete() bool {
	for _, v := range []float64{s.PlusDI, s.MinusDI, s.CloudBandA, s.CloudBandB} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SignalEvent is what gets persisted for a classified, non-suppressed signal.
type SignalEvent struct {
	Symbol     string
	SignalType SignalType
	Timestamp  time.Time
}

// NewSignalEvent builds an event stamped with now.
func NewSignalEvent(symbol string, st SignalType, now time.Time) SignalEvent {
	return SignalEvent{Symbol: symbol, SignalType: st, Timestamp: now}
}

// Payload is the record written to the store, both latest and history.
// Timestamp is rendered in loc; a nil loc means UTC.
func (e SignalEvent) Payload(loc *time.Location) SignalPayload {
	if loc == nil {
		loc = time.UTC
	}
	return SignalPayload{
		Symbol:     e.Symbol,
		SignalType: string(e.SignalType),
		Timestamp:  e.Timestamp.In(loc).Format(TimestampLayout),
	}
}

// SignalPayload is the JSON document stored for an event.
type SignalPayload struct {
	Symbol     string `json:"symbol"`
	SignalType string `json:"signal_type"`
	Timestamp  string `json:"timestamp"`
}

// LatestPath is where the current state for (signal, symbol) lives.
func LatestPath(st SignalType, symbol string) string {
	return "/signals/" + string(st) + "/" + symbol
}

// HistoryPath is the append-only log for a signal category.
func HistoryPath(st SignalType) string {
	return "/signals/history/" + string(st)
}
