package models

import "time"

// Outcome is the per-symbol result category of a scan.
type Outcome string

const (
	OutcomePublished  Outcome = "published"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Skip reasons.
const (
	ReasonInsufficientHistory = "insufficient_history"
	ReasonIncompleteSnapshot  = "incomplete_snapshot"
	ReasonNoSignal            = "no_signal"
)

// SymbolResult describes what happened to one ticker during a scan.
type SymbolResult struct {
	Symbol     string        `json:"symbol"`
	Outcome    Outcome       `json:"outcome"`
	SignalType SignalType    `json:"signal_type,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// ScanReport aggregates the results of one pass over the universe.
type ScanReport struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []SymbolResult  `json:"results"`
	Counts     map[Outcome]int `json:"counts"`
}

// Tally recomputes Counts from Results.
func (r *ScanReport) Tally() {
	r.Counts = map[Outcome]int{
		OutcomePublished:  0,
		OutcomeSuppressed: 0,
		OutcomeSkipped:    0,
		OutcomeFailed:     0,
	}
	for _, res := range r.Results {
		r.Counts[res.Outcome]++
	}
}

// Result returns the entry for symbol, if any.
func (r *ScanReport) Result(symbol string) (SymbolResult, bool) {
	for _, res := range r.Results {
		if res.Symbol == symbol {
			return res, true
		}
	}
	return SymbolResult{}, false
}

// LedgerEntry is a read-only view of one dedup ledger record.
type LedgerEntry struct {
	Symbol          string     `json:"symbol"`
	SignalType      SignalType `json:"signal_type"`
	LastPublishedAt time.Time  `json:"last_published_at"`
}
