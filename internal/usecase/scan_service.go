package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"SignalScan/internal/domain/models"
	drepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/services/dedup"
	applogger "SignalScan/pkg/logger"
	"SignalScan/pkg/util"

	"github.com/google/uuid"
)

// ErrDraining is returned when a background scan is requested after Drain.
var ErrDraining = errors.New("scan service is shutting down")

// ScanService owns the configured universe and the most recent report. The
// scheduler and the HTTP API both go through it.
//
// Background scans (scheduled ticks and API submissions) run on a context
// owned by the service and are tracked so Drain can wait for them before the
// store and notifiers are closed.
type ScanService struct {
	scanner  *Scanner
	ledger   *dedup.Ledger
	store    drepo.Store
	universe []string
	log      *applogger.Logger
	now      func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	latest  *models.ScanReport

	bg       context.Context
	cancelBg context.CancelFunc
	bgMu     sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// NewScanService creates a new ScanService instance.
func NewScanService(
	scanner *Scanner,
	ledger *dedup.Ledger,
	store drepo.Store,
	universe []string,
	log *applogger.Logger,
) *ScanService {
	bg, cancel := context.WithCancel(context.Background())
	return &ScanService{
		scanner:  scanner,
		ledger:   ledger,
		store:    store,
		universe: util.NormalizeSymbols(universe),
		log:      log,
		now:      time.Now,
		bg:       bg,
		cancelBg: cancel,
	}
}

// Universe returns a copy of the configured symbols.
func (s *ScanService) Universe() []string {
	return append([]string(nil), s.universe...)
}

// RunScheduled scans the full universe unless another scheduled scan is still
// running, in which case it returns (nil, false).
func (s *ScanService) RunScheduled(ctx context.Context) (*models.ScanReport, bool) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("previous scan still running, tick skipped")
		return nil, false
	}
	defer s.running.Store(false)
	return s.run(ctx, uuid.NewString(), s.universe), true
}

// Schedule starts RunScheduled in the background. It returns ErrDraining once
// Drain has been called.
func (s *ScanService) Schedule() error {
	return s.spawn(func(ctx context.Context) {
		s.RunScheduled(ctx)
	})
}

// Submit starts an on-demand scan in the background and returns its report ID.
// The report becomes visible through Latest when it finishes. It may overlap a
// scheduled scan; ledger claims still keep publishes single.
func (s *ScanService) Submit(symbols []string) (string, error) {
	symbols = s.pick(symbols)
	id := uuid.NewString()
	err := s.spawn(func(ctx context.Context) {
		report := s.run(ctx, id, symbols)
		s.log.Info("manual scan finished",
			applogger.String("scan_id", report.ID),
			applogger.Int("symbols", len(report.Results)),
		)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Trigger runs an on-demand scan over symbols, or the full universe when empty,
// and waits for it.
func (s *ScanService) Trigger(ctx context.Context, symbols []string) *models.ScanReport {
	return s.run(ctx, uuid.NewString(), s.pick(symbols))
}

// Drain stops accepting background scans and waits up to timeout for the
// running ones. Scans still running after that are cancelled and awaited.
// It reports whether everything finished within timeout.
func (s *ScanService) Drain(timeout time.Duration) bool {
	s.bgMu.Lock()
	s.draining = true
	s.bgMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		s.cancelBg()
		return true
	case <-timer.C:
		s.log.Warn("scan did not finish in time, cancelling")
		s.cancelBg()
		<-done
		return false
	}
}

// Latest returns the most recently finished report.
func (s *ScanService) Latest() (*models.ScanReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Running reports whether a scheduled scan is in progress.
func (s *ScanService) Running() bool {
	return s.running.Load()
}

// Ledger lists dedup entries, optionally filtered by symbol, signal type and
// a lower bound on the publish time. Zero values match everything.
func (s *ScanService) Ledger(symbol string, st models.SignalType, since time.Time) []models.LedgerEntry {
	all := s.ledger.Snapshot()
	if symbol == "" && st == "" && since.IsZero() {
		return all
	}
	out := make([]models.LedgerEntry, 0, len(all))
	for _, e := range all {
		if symbol != "" && e.Symbol != symbol {
			continue
		}
		if st != "" && e.SignalType != st {
			continue
		}
		if !since.IsZero() && e.LastPublishedAt.Before(since) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Health checks the store.
func (s *ScanService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *ScanService) pick(symbols []string) []string {
	symbols = util.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return s.universe
	}
	return symbols
}

func (s *ScanService) spawn(fn func(ctx context.Context)) error {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	if s.draining {
		return ErrDraining
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn(s.bg)
	}()
	return nil
}

func (s *ScanService) run(ctx context.Context, id string, symbols []string) *models.ScanReport {
	report := s.scanner.RunWithID(ctx, id, symbols, s.now)

	s.mu.Lock()
	if s.latest == nil || !report.FinishedAt.Before(s.latest.FinishedAt) {
		s.latest = report
	}
	s.mu.Unlock()
	return report
}
