package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalScan/internal/domain/models"
	drepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/services/dedup"
	applogger "SignalScan/pkg/logger"
)

// Publisher persists signal events and records them in the dedup ledger.
type Publisher struct {
	store    drepo.Store
	ledger   *dedup.Ledger
	notifier drepo.Notifier
	metrics  drepo.Metrics
	log      *applogger.Logger
	loc      *time.Location
	timeout  time.Duration
}

// PublisherOption configures Publisher.
type PublisherOption func(*Publisher)

// WithStoreTimeout bounds each store call.
func WithStoreTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.timeout = d
	}
}

// WithLocation sets the zone persisted timestamps are rendered in.
func WithLocation(loc *time.Location) PublisherOption {
	return func(p *Publisher) {
		p.loc = loc
	}
}

// WithNotifier adds a best-effort sink invoked after a successful write.
func WithNotifier(n drepo.Notifier) PublisherOption {
	return func(p *Publisher) {
		p.notifier = n
	}
}

// NewPublisher creates a new Publisher instance.
func NewPublisher(
	store drepo.Store,
	ledger *dedup.Ledger,
	metrics drepo.Metrics,
	log *applogger.Logger,
	opts ...PublisherOption,
) *Publisher {
	p := &Publisher{
		store:   store,
		ledger:  ledger,
		metrics: metrics,
		log:     log,
		loc:     time.UTC,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes the latest record, appends to history, then records the
// publish in the ledger using the event timestamp. The ledger is untouched
// when either write fails. Notifier failures are logged only.
func (p *Publisher) Publish(ctx context.Context, e models.SignalEvent) error {
	payload := e.Payload(p.loc)

	if err := p.timed(ctx, "store_set", func(ctx context.Context) error {
		return p.store.Set(ctx, models.LatestPath(e.SignalType, e.Symbol), payload)
	}); err != nil {
		p.metrics.RecordError("store")
		return fmt.Errorf("publish %s/%s latest: %w", e.SignalType, e.Symbol, err)
	}

	var key string
	if err := p.timed(ctx, "store_push", func(ctx context.Context) error {
		var err error
		key, err = p.store.Push(ctx, models.HistoryPath(e.SignalType), payload)
		return err
	}); err != nil {
		p.metrics.RecordError("store")
		return fmt.Errorf("publish %s/%s history: %w", e.SignalType, e.Symbol, err)
	}

	p.ledger.RecordPublish(e.Symbol, e.SignalType, e.Timestamp)
	p.metrics.RecordLedgerSize(p.ledger.Len())

	p.log.Info("signal published",
		applogger.String("symbol", e.Symbol),
		applogger.String("signal_type", e.SignalType.String()),
		applogger.String("timestamp", payload.Timestamp),
		applogger.String("history_key", key),
	)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, e); err != nil {
			p.metrics.RecordError("notify")
			p.log.Warn("notify failed",
				applogger.String("symbol", e.Symbol),
				applogger.Error(err),
			)
		}
	}
	return nil
}

// Close closes the notifier. The store is closed by its owner.
func (p *Publisher) Close() error {
	if p.notifier != nil {
		return p.notifier.Close()
	}
	return nil
}

func (p *Publisher) timed(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	p.metrics.RecordLatency(op, time.Since(start).Seconds())
	return err
}
