package signals

import (
	"math"
	"testing"

	"SignalScan/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(pdi, ndi, a, b float64) models.Snapshot {
	return models.Snapshot{Symbol: "TCS", PlusDI: pdi, MinusDI: ndi, CloudBandA: a, CloudBandB: b}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   models.Snapshot
		want models.SignalType
	}{
		{"breakout bull", snap(45, 10, 30, 5), models.SignalBreakoutBull},
		{"reversal bull", snap(10, 45, 30, 5), models.SignalReversalBull},
		{"every rule matches, first wins", snap(45, 45, 30, 30), models.SignalReversalBull},
		{"reversal bear", snap(45, 10, 5, 30), models.SignalReversalBear},
		{"reversal bear beats breakout bull", snap(45, 10, 30, 30), models.SignalReversalBear},
		{"breakout bear", snap(10, 45, 5, 30), models.SignalBreakoutBear},
		{"thresholds are inclusive", snap(40, 0, 26, 0), models.SignalBreakoutBull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			require.True(t, got.IsSome())
			assert.Equal(t, tt.want, got.Unwrap())
		})
	}
}

func TestClassifyNone(t *testing.T) {
	tests := map[string]models.Snapshot{
		"weak directional":    snap(39.9, 39.9, 100, 100),
		"low cloud":           snap(80, 80, 25.9, 25.9),
		"strong di wrong leg": snap(45, 10, 5, 5),
		"all zero":            snap(0, 0, 0, 0),
		"nan band":            snap(45, 45, math.NaN(), 30),
		"inf di":              snap(math.Inf(1), 45, 30, 30),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, Classify(in).IsNone())
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	s := snap(45, 45, 30, 30)
	first := Classify(s).Unwrap()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(s).Unwrap())
	}
}
