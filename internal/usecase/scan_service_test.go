package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalScan/internal/domain/models"
	domrepo "SignalScan/internal/domain/repository"
	"SignalScan/internal/services/dedup"
	"SignalScan/mocks"
	applogger "SignalScan/pkg/logger"
	"SignalScan/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newService(t *testing.T) (*ScanService, *mocks.MockMarketData, *mocks.MockStore, *dedup.Ledger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	data := mocks.NewMockMarketData(ctrl)
	engine := mocks.NewMockIndicatorEngine(ctrl)
	store := mocks.NewMockStore(ctrl)
	ledger := dedup.NewLedger(dedup.DefaultWindow)

	pub := NewPublisher(store, ledger, metrics.Noop{}, applogger.Nop())
	sc := NewScanner(data, engine, pub, ledger, metrics.Noop{}, applogger.Nop())
	svc := NewScanService(sc, ledger, store, []string{"tcs", "INFY"}, applogger.Nop())
	return svc, data, store, ledger
}

func TestScanServiceTriggerDefaultsToUniverse(t *testing.T) {
	svc, data, _, _ := newService(t)
	data.EXPECT().FetchBars(gomock.Any(), "TCS", gomock.Any(), gomock.Any()).Return(nil, nil)
	data.EXPECT().FetchBars(gomock.Any(), "INFY", gomock.Any(), gomock.Any()).Return(nil, nil)

	_, ok := svc.Latest()
	assert.False(t, ok)

	report := svc.Trigger(context.Background(), nil)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 2, report.Counts[models.OutcomeSkipped])

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, report.ID, latest.ID)
	assert.Equal(t, []string{"TCS", "INFY"}, svc.Universe())
}

func TestScanServiceTriggerSubset(t *testing.T) {
	svc, data, _, _ := newService(t)
	data.EXPECT().FetchBars(gomock.Any(), "RELIANCE", gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	report := svc.Trigger(context.Background(), []string{" reliance "})
	require.Len(t, report.Results, 1)
	assert.Equal(t, "RELIANCE", report.Results[0].Symbol)
	assert.Equal(t, models.OutcomeFailed, report.Results[0].Outcome)
}

func TestScanServiceScheduledScansDoNotOverlap(t *testing.T) {
	svc, data, _, _ := newService(t)

	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	data.EXPECT().FetchBars(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, time.Duration, domrepo.Interval) ([]models.Bar, error) {
			entered <- struct{}{}
			<-release
			return nil, nil
		}).Times(2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ran := svc.RunScheduled(context.Background())
		assert.True(t, ran)
	}()

	<-entered
	assert.True(t, svc.Running())
	_, ran := svc.RunScheduled(context.Background())
	assert.False(t, ran, "overlapping tick is skipped")

	close(release)
	wg.Wait()
	assert.False(t, svc.Running())
}

func TestScanServiceLedgerFilter(t *testing.T) {
	svc, _, store, ledger := newService(t)
	now := time.Date(2024, 10, 10, 9, 15, 0, 0, time.UTC)
	ledger.RecordPublish("TCS", models.SignalBreakoutBull, now)
	ledger.RecordPublish("TCS", models.SignalReversalBear, now)
	ledger.RecordPublish("INFY", models.SignalBreakoutBull, now)

	ledger.RecordPublish("SBIN", models.SignalBreakoutBear, now.Add(time.Hour))

	var anyTime time.Time
	assert.Len(t, svc.Ledger("", "", anyTime), 4)
	assert.Len(t, svc.Ledger("TCS", "", anyTime), 2)
	assert.Len(t, svc.Ledger("", models.SignalBreakoutBull, anyTime), 2)
	assert.Len(t, svc.Ledger("INFY", models.SignalReversalBear, anyTime), 0)

	recent := svc.Ledger("", "", now.Add(time.Minute))
	require.Len(t, recent, 1)
	assert.Equal(t, "SBIN", recent[0].Symbol)
	assert.Len(t, svc.Ledger("", "", now), 4, "since is inclusive")

	store.EXPECT().Health(gomock.Any()).Return(nil)
	assert.NoError(t, svc.Health(context.Background()))
}

func TestScanServiceSubmitIsAwaitedByDrain(t *testing.T) {
	svc, data, _, _ := newService(t)

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	data.EXPECT().FetchBars(gomock.Any(), "TCS", gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, time.Duration, domrepo.Interval) ([]models.Bar, error) {
			entered <- struct{}{}
			<-release
			return nil, nil
		})

	id, err := svc.Submit([]string{"tcs"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	<-entered

	drained := make(chan bool, 1)
	go func() { drained <- svc.Drain(5 * time.Second) }()

	select {
	case <-drained:
		t.Fatal("Drain returned while a submitted scan was running")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = svc.Submit(nil)
	assert.ErrorIs(t, err, ErrDraining)
	assert.ErrorIs(t, svc.Schedule(), ErrDraining)

	close(release)
	assert.True(t, <-drained)

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, models.OutcomeSkipped, latest.Results[0].Outcome)
}

func TestScanServiceDrainCancelsAfterTimeout(t *testing.T) {
	svc, data, _, _ := newService(t)

	entered := make(chan struct{}, 2)
	data.EXPECT().FetchBars(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ time.Duration, _ domrepo.Interval) ([]models.Bar, error) {
			entered <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(2)

	require.NoError(t, svc.Schedule())
	<-entered

	assert.False(t, svc.Drain(20*time.Millisecond))

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, 2, latest.Counts[models.OutcomeFailed])
}
