package stats

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/model"
)

// HistoryEntry is a stored session paired with its trend.
type HistoryEntry struct {
	model.SessionRecord
	Trend string `json:"trend"`
}

// Report contains precomputed data for history rendering.
type Report struct {
	Entries        []HistoryEntry
	AvgSpeed       float64
	BestSpeed      float64
	AvgConsistency float64
	PatternCounts  map[string]int
}

// BuildReport loads sessions from the history provider and derives trends and
// averages.
func BuildReport(ctx context.Context, hp model.HistoryProvider, q model.HistoryQuery) (Report, error) {
	records, err := hp.ListSessions(ctx, q)
	if err != nil {
		return Report{}, err
	}
	return NewReport(records), nil
}

// NewReport derives a Report from records ordered oldest first.
func NewReport(records []model.SessionRecord) Report {
	r := Report{
		Entries:       make([]HistoryEntry, len(records)),
		PatternCounts: map[string]int{},
	}
	trends := Trends(records)
	for i, rec := range records {
		r.Entries[i] = HistoryEntry{SessionRecord: rec, Trend: trends[i]}
		r.AvgSpeed += rec.Speed
		r.AvgConsistency += rec.Consistency
		if rec.Speed > r.BestSpeed {
			r.BestSpeed = rec.Speed
		}
		for _, label := range rec.Pattern {
			r.PatternCounts[label]++
		}
	}
	if n := float64(len(records)); n > 0 {
		r.AvgSpeed /= n
		r.AvgConsistency /= n
	}
	return r
}

// Records returns the underlying session records.
func (r Report) Records() []model.SessionRecord {
	out := make([]model.SessionRecord, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.SessionRecord
	}
	return out
}

// PatternSummary lists how many sessions showed each pattern, known labels
// first in report order, then any others alphabetically. Empty when no
// session had a pattern.
func (r Report) PatternSummary() string {
	var parts []string
	for _, label := range analysis.Labels {
		if n := r.PatternCounts[label]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", label, n))
		}
	}
	var other []string
	for label, n := range r.PatternCounts {
		if n > 0 && !slices.Contains(analysis.Labels, label) {
			other = append(other, label)
		}
	}
	sort.Strings(other)
	for _, label := range other {
		parts = append(parts, fmt.Sprintf("%s %d", label, r.PatternCounts[label]))
	}
	return strings.Join(parts, " · ")
}
