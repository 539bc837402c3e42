package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/services/dedup"
	"SignalScan/internal/usecase"
	"SignalScan/mocks"
	"SignalScan/pkg/config"
	applogger "SignalScan/pkg/logger"
	"SignalScan/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newTestApp(t *testing.T, fetch func(context.Context, string, time.Duration, domrepo.Interval) ([]models.Bar, error), closers ...closerFunc) *App {
	t.Helper()
	ctrl := gomock.NewController(t)
	data := mocks.NewMockMarketData(ctrl)
	data.EXPECT().FetchBars(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(fetch).AnyTimes()
	store := mocks.NewMockStore(ctrl)
	engine := mocks.NewMockIndicatorEngine(ctrl)
	ledger := dedup.NewLedger(dedup.DefaultWindow)

	pub := usecase.NewPublisher(store, ledger, metrics.Noop{}, applogger.Nop())
	sc := usecase.NewScanner(data, engine, pub, ledger, metrics.Noop{}, applogger.Nop())
	svc := usecase.NewScanService(sc, ledger, store, []string{"TCS"}, applogger.Nop())

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Scan.Interval = 20 * time.Millisecond
	cfg.Server.ShutdownTimeout = 50 * time.Millisecond

	app := New(cfg, applogger.Nop(), svc, nil)
	for _, c := range closers {
		app.closers = append(app.closers, c)
	}
	return app
}

func TestAppRunSchedulesUntilCancelled(t *testing.T) {
	var fetches, closed atomic.Int32
	app := newTestApp(t,
		func(context.Context, string, time.Duration, domrepo.Interval) ([]models.Bar, error) {
			fetches.Add(1)
			return nil, nil
		},
		func() error { closed.Add(1); return nil },
	)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	require.NoError(t, app.Run(ctx))

	assert.GreaterOrEqual(t, fetches.Load(), int32(3))
	assert.Equal(t, int32(1), closed.Load())
}

func TestAppRunCancelsStuckScanAfterShutdownTimeout(t *testing.T) {
	var cancelled atomic.Bool
	app := newTestApp(t, func(ctx context.Context, _ string, _ time.Duration, _ domrepo.Interval) ([]models.Bar, error) {
		<-ctx.Done()
		cancelled.Store(true)
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, cancelled.Load())
}

func TestAppRunOnceScansUniverseAndCloses(t *testing.T) {
	var closed atomic.Bool
	app := newTestApp(t,
		func(context.Context, string, time.Duration, domrepo.Interval) ([]models.Bar, error) {
			return nil, nil
		},
		func() error { closed.Store(true); return nil },
	)

	report := app.RunOnce(context.Background())
	require.Len(t, report.Results, 1)
	assert.Equal(t, models.OutcomeSkipped, report.Results[0].Outcome)
	assert.True(t, closed.Load())
}
