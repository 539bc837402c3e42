package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"SignalScan/internal/domain/models"
	drepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/services/dedup"
	"SignalScan/internal/services/indicators"
	"SignalScan/internal/services/signals"
	applogger "SignalScan/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Scanner runs one pass over a ticker universe: fetch, compute, classify,
// dedup and publish, isolating failures per symbol.
type Scanner struct {
	data      drepo.MarketData
	engine    drepo.IndicatorEngine
	publisher *Publisher
	ledger    *dedup.Ledger
	metrics   drepo.Metrics
	log       *applogger.Logger

	workers       int
	symbolTimeout time.Duration
	lookback      time.Duration
	interval      drepo.Interval
	minBars       int
}

// ScannerOption configures Scanner.
type ScannerOption func(*Scanner)

// WithWorkers bounds how many symbols are processed at once.
func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSymbolTimeout bounds the whole pipeline for one symbol.
func WithSymbolTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.symbolTimeout = d
		}
	}
}

// WithLookback sets the history window and bar interval requested per symbol.
func WithLookback(lookback time.Duration, interval drepo.Interval) ScannerOption {
	return func(s *Scanner) {
		if lookback > 0 {
			s.lookback = lookback
		}
		s.interval = drepo.NormalizeInterval(string(interval))
	}
}

// NewScanner creates a new Scanner instance.
func NewScanner(
	data drepo.MarketData,
	engine drepo.IndicatorEngine,
	publisher *Publisher,
	ledger *dedup.Ledger,
	metrics drepo.Metrics,
	log *applogger.Logger,
	opts ...ScannerOption,
) *Scanner {
	s := &Scanner{
		data:          data,
		engine:        engine,
		publisher:     publisher,
		ledger:        ledger,
		metrics:       metrics,
		log:           log,
		workers:       4,
		symbolTimeout: 30 * time.Second,
		lookback:      180 * 24 * time.Hour,
		interval:      drepo.DefaultInterval(),
		minBars:       indicators.MinBars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans universe and always returns a complete report, one result per
// symbol in universe order. now is read when a signal is classified.
func (s *Scanner) Run(ctx context.Context, universe []string, now func() time.Time) *models.ScanReport {
	return s.RunWithID(ctx, uuid.NewString(), universe, now)
}

// RunWithID is Run with a caller-chosen report ID.
func (s *Scanner) RunWithID(ctx context.Context, id string, universe []string, now func() time.Time) *models.ScanReport {
	if now == nil {
		now = time.Now
	}
	report := &models.ScanReport{
		ID:        id,
		StartedAt: now(),
		Results:   make([]models.SymbolResult, len(universe)),
	}

	s.log.Info("scan started",
		applogger.String("scan_id", report.ID),
		applogger.Int("symbols", len(universe)),
	)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, symbol := range universe {
		i, symbol := i, symbol
		g.Go(func() error {
			report.Results[i] = s.scanSymbol(ctx, symbol, now)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = now()
	report.Tally()

	elapsed := report.FinishedAt.Sub(report.StartedAt)
	s.metrics.RecordLatency("scan", elapsed.Seconds())
	s.metrics.RecordLedgerSize(s.ledger.Len())
	s.log.Info("scan finished",
		applogger.String("scan_id", report.ID),
		applogger.Duration("elapsed", elapsed),
		applogger.Int("published", report.Counts[models.OutcomePublished]),
		applogger.Int("suppressed", report.Counts[models.OutcomeSuppressed]),
		applogger.Int("skipped", report.Counts[models.OutcomeSkipped]),
		applogger.Int("failed", report.Counts[models.OutcomeFailed]),
	)
	return report
}

// scanSymbol never panics and never returns without a result.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, now func() time.Time) (res models.SymbolResult) {
	start := time.Now()
	res.Symbol = symbol

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = models.OutcomeFailed
			res.Error = fmt.Sprintf("panic: %v", r)
			s.log.Error("symbol panicked",
				applogger.String("symbol", symbol),
				applogger.Any("panic", r),
				applogger.String("stack", string(debug.Stack())),
			)
			s.metrics.RecordError("panic")
		}
		res.Duration = time.Since(start)
		s.metrics.RecordOutcome(res.Outcome, res.SignalType)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.symbolTimeout)
	defer cancel()

	outcome, st, reason, err := s.process(ctx, symbol, now)
	res.Outcome, res.SignalType, res.Reason = outcome, st, reason
	if err != nil {
		res.Error = err.Error()
		s.metrics.RecordError(errorKind(err))
		s.log.Error("symbol failed",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}
	return res
}

func (s *Scanner) process(ctx context.Context, symbol string, now func() time.Time) (models.Outcome, models.SignalType, string, error) {
	bars, err := s.data.FetchBars(ctx, symbol, s.lookback, s.interval)
	if err != nil {
		return models.OutcomeFailed, "", "", &stageError{stage: "fetch", err: err}
	}
	if len(bars) < s.minBars {
		s.skip(symbol, models.ReasonInsufficientHistory, applogger.Int("bars", len(bars)))
		return models.OutcomeSkipped, "", models.ReasonInsufficientHistory, nil
	}

	snap, err := s.engine.Compute(symbol, models.CleanBars(bars))
	if errors.Is(err, models.ErrInsufficientHistory) {
		s.skip(symbol, models.ReasonInsufficientHistory, applogger.Error(err))
		return models.OutcomeSkipped, "", models.ReasonInsufficientHistory, nil
	}
	if err != nil {
		return models.OutcomeFailed, "", "", &stageError{stage: "compute", err: err}
	}
	if !snap.Complete() {
		s.skip(symbol, models.ReasonIncompleteSnapshot)
		return models.OutcomeSkipped, "", models.ReasonIncompleteSnapshot, nil
	}

	sig := signals.Classify(snap)
	if sig.IsNone() {
		s.skip(symbol, models.ReasonNoSignal)
		return models.OutcomeSkipped, "", models.ReasonNoSignal, nil
	}
	st := sig.Unwrap()

	at := now()
	if !s.ledger.Claim(symbol, st, at) {
		s.log.Debug("signal suppressed",
			applogger.String("symbol", symbol),
			applogger.String("signal_type", st.String()),
		)
		return models.OutcomeSuppressed, st, "", nil
	}
	// Publish records the ledger entry itself; Release only clears the claim.
	defer s.ledger.Release(symbol, st, at, false)

	if err := ctx.Err(); err != nil {
		return models.OutcomeFailed, st, "", &stageError{stage: "timeout", err: err}
	}
	if err := s.publisher.Publish(ctx, models.NewSignalEvent(symbol, st, at)); err != nil {
		return models.OutcomeFailed, st, "", &stageError{stage: "store", err: err}
	}
	return models.OutcomePublished, st, "", nil
}

func (s *Scanner) skip(symbol, reason string, fields ...applogger.Field) {
	fields = append([]applogger.Field{
		applogger.String("symbol", symbol),
		applogger.String("reason", reason),
	}, fields...)
	s.log.Debug("symbol skipped", fields...)
}

// stageError tags a per-symbol failure with the pipeline step that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func errorKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}
