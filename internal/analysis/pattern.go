package analysis

import (
	"strings"

	"github.com/verte-zerg/neurosense/internal/model"
)

// Pattern labels, listed in the order they are reported.
const (
	LabelLongPause      = "long-pause"
	LabelBurstTyping    = "burst-typing"
	LabelRepeatedKey    = "repeated-key"
	LabelBackspaceHeavy = "backspace-heavy"
)

// Labels lists every pattern label in report order.
var Labels = []string{LabelLongPause, LabelBurstTyping, LabelRepeatedKey, LabelBackspaceHeavy}

// Patterns reports the qualitative features present in a normalized session.
// The result is never nil and follows the order of Labels.
func Patterns(events []model.KeyEvent, t model.Thresholds) []string {
	labels := []string{}
	if len(events) < 2 {
		return labels
	}
	intervals := Intervals(events)
	if hasLongPause(intervals, t.PauseMs) {
		labels = append(labels, LabelLongPause)
	}
	if hasBurst(intervals, t.BurstMs, t.BurstRun) {
		labels = append(labels, LabelBurstTyping)
	}
	if hasRepeatedKey(events, t.RepeatRun) {
		labels = append(labels, LabelRepeatedKey)
	}
	if correctionRatio(events, t.CorrectionKeys) > t.CorrectionRatio {
		labels = append(labels, LabelBackspaceHeavy)
	}
	return labels
}

func hasLongPause(intervals []float64, thresholdMs float64) bool {
	for _, dt := range intervals {
		if dt > thresholdMs {
			return true
		}
	}
	return false
}

func hasBurst(intervals []float64, thresholdMs float64, minRun int) bool {
	if minRun <= 0 {
		return false
	}
	run := 0
	for _, dt := range intervals {
		if dt < thresholdMs {
			run++
			if run >= minRun {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

func hasRepeatedKey(events []model.KeyEvent, minRun int) bool {
	if minRun < 2 || len(events) < minRun {
		return false
	}
	run := 1
	for i := 1; i < len(events); i++ {
		if events[i].Key != events[i-1].Key {
			run = 1
			continue
		}
		run++
		if run >= minRun {
			return true
		}
	}
	return false
}

// CorrectionRatio returns the share of events produced by a correction key.
func CorrectionRatio(events []model.KeyEvent, keys []string) float64 {
	return correctionRatio(events, keys)
}

func correctionRatio(events []model.KeyEvent, keys []string) float64 {
	if len(events) == 0 || len(keys) == 0 {
		return 0
	}
	count := 0
	for _, ev := range events {
		if isCorrectionKey(ev.Key, keys) {
			count++
		}
	}
	return float64(count) / float64(len(events))
}

func isCorrectionKey(key string, keys []string) bool {
	for _, k := range keys {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}
