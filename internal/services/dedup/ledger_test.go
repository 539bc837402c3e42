package dedup

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SignalScan/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 10, 10, 9, 15, 0, 0, time.UTC)

func TestShouldPublishWindow(t *testing.T) {
	l := NewLedger(DefaultWindow)
	st := models.SignalBreakoutBull

	assert.True(t, l.ShouldPublish("TCS", st, t0), "fresh pair publishes")

	l.RecordPublish("TCS", st, t0)
	assert.False(t, l.ShouldPublish("TCS", st, t0))
	assert.False(t, l.ShouldPublish("TCS", st, t0.Add(5*time.Minute)))
	assert.False(t, l.ShouldPublish("TCS", st, t0.Add(599*time.Second)))
	assert.True(t, l.ShouldPublish("TCS", st, t0.Add(600*time.Second)), "window boundary is inclusive")
	assert.True(t, l.ShouldPublish("TCS", st, t0.Add(11*time.Minute)))

	assert.True(t, l.ShouldPublish("TCS", models.SignalReversalBear, t0), "other category is independent")
	assert.True(t, l.ShouldPublish("INFY", st, t0), "other symbol is independent")
}

func TestShouldPublishDoesNotMutate(t *testing.T) {
	l := NewLedger(DefaultWindow)
	for i := 0; i < 3; i++ {
		assert.True(t, l.ShouldPublish("TCS", models.SignalBreakoutBear, t0))
	}
	assert.Equal(t, 0, l.Len())
}

func TestRecordPublishOverwrites(t *testing.T) {
	l := NewLedger(DefaultWindow)
	st := models.SignalReversalBull

	l.RecordPublish("TCS", st, t0)
	l.RecordPublish("TCS", st, t0.Add(20*time.Minute))

	got, ok := l.LastPublished("TCS", st)
	require.True(t, ok)
	assert.Equal(t, t0.Add(20*time.Minute), got)
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.ShouldPublish("TCS", st, t0.Add(25*time.Minute)))
}

func TestNewLedgerDefaultsWindow(t *testing.T) {
	assert.Equal(t, 600*time.Second, NewLedger(0).Window())
	assert.Equal(t, time.Minute, NewLedger(time.Minute).Window())
}

func TestClaimRelease(t *testing.T) {
	l := NewLedger(DefaultWindow)
	st := models.SignalBreakoutBull

	require.True(t, l.Claim("TCS", st, t0))
	assert.False(t, l.Claim("TCS", st, t0), "in flight")

	l.Release("TCS", st, t0, false)
	assert.Equal(t, 0, l.Len(), "failed publish leaves no entry")
	require.True(t, l.Claim("TCS", st, t0.Add(time.Second)))

	l.Release("TCS", st, t0.Add(time.Second), true)
	assert.False(t, l.Claim("TCS", st, t0.Add(2*time.Second)), "suppressed inside window")
	assert.True(t, l.Claim("TCS", st, t0.Add(11*time.Minute)))
}

func TestClaimIsExclusiveUnderContention(t *testing.T) {
	l := NewLedger(DefaultWindow)
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Claim("TCS", models.SignalBreakoutBull, t0) {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestSnapshotIsSortedCopy(t *testing.T) {
	l := NewLedger(DefaultWindow)
	l.RecordPublish("TCS", models.SignalReversalBear, t0)
	l.RecordPublish("INFY", models.SignalBreakoutBull, t0)
	l.RecordPublish("INFY", models.SignalReversalBull, t0)

	got := l.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "INFY", got[0].Symbol)
	assert.Equal(t, "TCS", got[2].Symbol)

	got[0].Symbol = "MUTATED"
	assert.Equal(t, "INFY", l.Snapshot()[0].Symbol)
}
