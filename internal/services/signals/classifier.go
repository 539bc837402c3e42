// Package signals maps indicator snapshots to alert categories.
package signals

import (
	"github.com/moznion/go-optional"

	"SignalScan/internal/domain/models"
)

const (
	// DIThreshold is the minimum directional index reading that counts as strong.
	DIThreshold = 40.0
	// CloudThreshold is the minimum cloud band level that counts as confirming.
	CloudThreshold = 26.0
)

type rule struct {
	signal models.SignalType
	match  func(s models.Snapshot) bool
}

// Order matters: several predicates can hold at once and the first wins.
var rules = []rule{
	{models.SignalReversalBull, func(s models.Snapshot) bool { return s.MinusDI >= DIThreshold && s.CloudBandA >= CloudThreshold }},
	{models.SignalReversalBear, func(s models.Snapshot) bool { return s.PlusDI >= DIThreshold && s.CloudBandB >= CloudThreshold }},
	{models.SignalBreakoutBull, func(s models.Snapshot) bool { return s.PlusDI >= DIThreshold && s.CloudBandA >= CloudThreshold }},
	{models.SignalBreakoutBear, func(s models.Snapshot) bool { return s.MinusDI >= DIThreshold && s.CloudBandB >= CloudThreshold }},
}

// Classify returns the signal category for s, or None when no rule fires
// or the snapshot is incomplete.
func Classify(s models.Snapshot) optional.Option[models.SignalType] {
	if !s.Complete() {
		return optional.None[models.SignalType]()
	}
	for _, r := range rules {
		if r.match(s) {
			return optional.Some(r.signal)
		}
	}
	return optional.None[models.SignalType]()
}
