// Package dedup suppresses re-publication of the same signal for the same
// symbol inside a cooldown window.
package dedup

import (
	"sort"
	"sync"
	"time"

	"SignalScan/internal/domain/models"
)

// DefaultWindow is the cooldown measured from the last successful publish.
const DefaultWindow = 600 * time.Second

type key struct {
	symbol string
	signal models.SignalType
}

// Ledger tracks the last publish time per (symbol, signal).
// Entries are never evicted; the set is bounded by universe size times four.
type Ledger struct {
	mu       sync.Mutex
	window   time.Duration
	last     map[key]time.Time
	inflight map[key]struct{}
}

// NewLedger creates an empty ledger. A non-positive window uses DefaultWindow.
func NewLedger(window time.Duration) *Ledger {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Ledger{
		window:   window,
		last:     make(map[key]time.Time),
		inflight: make(map[key]struct{}),
	}
}

// Window returns the configured cooldown.
func (l *Ledger) Window() time.Duration { return l.window }

// ShouldPublish is false iff the pair was published less than window before now.
func (l *Ledger) ShouldPublish(symbol string, st models.SignalType, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shouldPublishLocked(key{symbol, st}, now)
}

func (l *Ledger) shouldPublishLocked(k key, now time.Time) bool {
	last, ok := l.last[k]
	if !ok {
		return true
	}
	return now.Sub(last) >= l.window
}

// RecordPublish stores now as the last publish time. Call only after the
// store accepted the event.
func (l *Ledger) RecordPublish(symbol string, st models.SignalType, now time.Time) {
	l.mu.Lock()
	l.last[key{symbol, st}] = now
	l.mu.Unlock()
}

// Claim checks ShouldPublish and, when true, marks the pair in flight so a
// concurrent caller gets false until Release. Every successful Claim must be
// followed by exactly one Release.
func (l *Ledger) Claim(symbol string, st models.SignalType, now time.Time) bool {
	k := key{symbol, st}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inflight[k]; busy {
		return false
	}
	if !l.shouldPublishLocked(k, now) {
		return false
	}
	l.inflight[k] = struct{}{}
	return true
}

// Release ends a claim. The publish time is recorded only if published is true.
func (l *Ledger) Release(symbol string, st models.SignalType, now time.Time, published bool) {
	k := key{symbol, st}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, k)
	if published {
		l.last[k] = now
	}
}

// LastPublished returns the recorded time for the pair.
func (l *Ledger) LastPublished(symbol string, st models.SignalType) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.last[key{symbol, st}]
	return t, ok
}

// Len returns the number of recorded pairs.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}

// Snapshot copies all entries, sorted by symbol then signal type.
func (l *Ledger) Snapshot() []models.LedgerEntry {
	l.mu.Lock()
	out := make([]models.LedgerEntry, 0, len(l.last))
	for k, t := range l.last {
		out = append(out, models.LedgerEntry{Symbol: k.symbol, SignalType: k.signal, LastPublishedAt: t})
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].SignalType < out[j].SignalType
	})
	return out
}
