// Package analysis turns keystroke logs into typing metrics.
package analysis

import (
	"math"
	"sort"

	"github.com/verte-zerg/neurosense/internal/model"
)

// Normalize drops unusable events and orders the rest by timestamp. Events
// sharing a timestamp keep their input order. The input slice is not modified.
func Normalize(events []model.KeyEvent) []model.KeyEvent {
	out := make([]model.KeyEvent, 0, len(events))
	for _, ev := range events {
		if !usable(ev) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

func usable(ev model.KeyEvent) bool {
	if ev.Key == "" {
		return false
	}
	ts := ev.Timestamp
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return false
	}
	return ts >= 0
}

// Intervals returns the gaps between successive events in milliseconds.
// Events must already be normalized.
func Intervals(events []model.KeyEvent) []float64 {
	if len(events) < 2 {
		return nil
	}
	out := make([]float64, len(events)-1)
	for i := 1; i < len(events); i++ {
		out[i-1] = events[i].Timestamp - events[i-1].Timestamp
	}
	return out
}
