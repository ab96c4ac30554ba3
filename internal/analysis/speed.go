package analysis

import (
	"math"

	"github.com/verte-zerg/neurosense/internal/model"
)

const (
	charsPerWord = 5.0
	msPerMinute  = 60000.0
)

// Speed estimates words per minute over the span of a normalized session,
// counting every five keystrokes as one word.
func Speed(events []model.KeyEvent) float64 {
	n := len(events)
	if n < 2 {
		return 0
	}
	durationMs := events[n-1].Timestamp - events[0].Timestamp
	if durationMs <= 0 {
		return 0
	}
	words := float64(n) / charsPerWord
	return math.Round(words / (durationMs / msPerMinute))
}

// DurationMs returns the span between the first and last normalized event.
func DurationMs(events []model.KeyEvent) float64 {
	if len(events) < 2 {
		return 0
	}
	return events[len(events)-1].Timestamp - events[0].Timestamp
}
