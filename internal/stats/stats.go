// Package stats contains derived statistics and reporting for analyzed sessions.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Trend labels comparing a session with the one before it.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// trendTolerance is the relative speed change treated as noise.
const trendTolerance = 0.05

// Summary describes one analyzed session in more detail than TypingMetrics.
type Summary struct {
	Events           int
	Dropped          int
	DurationMs       float64
	MeanIntervalMs   float64
	MedianIntervalMs float64
	StdDevIntervalMs float64
	LongestPauseMs   float64
	CorrectionRatio  float64
	Intervals        []float64
	Metrics          model.TypingMetrics
}

// Summarize analyzes events and gathers interval statistics alongside the metrics.
func Summarize(a *analysis.Analyzer, events []model.KeyEvent) Summary {
	normalized := analysis.Normalize(events)
	intervals := analysis.Intervals(normalized)
	mean, stddev := analysis.MeanStdDev(intervals)
	s := Summary{
		Events:           len(normalized),
		Dropped:          len(events) - len(normalized),
		DurationMs:       analysis.DurationMs(normalized),
		MeanIntervalMs:   mean,
		MedianIntervalMs: median(intervals),
		StdDevIntervalMs: stddev,
		CorrectionRatio:  analysis.CorrectionRatio(normalized, a.Thresholds().CorrectionKeys),
		Intervals:        intervals,
		Metrics:          a.Analyze(normalized),
	}
	for _, dt := range intervals {
		if dt > s.LongestPauseMs {
			s.LongestPauseMs = dt
		}
	}
	return s
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Trend compares speed between two consecutive sessions.
func Trend(prev, cur model.TypingMetrics) string {
	if prev.Speed == 0 {
		if cur.Speed > 0 {
			return TrendUp
		}
		return TrendStable
	}
	change := (cur.Speed - prev.Speed) / prev.Speed
	switch {
	case change > trendTolerance:
		return TrendUp
	case change < -trendTolerance:
		return TrendDown
	default:
		return TrendStable
	}
}

// Trends returns the trend of every record relative to its predecessor. The
// first record is always stable.
func Trends(records []model.SessionRecord) []string {
	out := make([]string, len(records))
	for i := range records {
		if i == 0 {
			out[i] = TrendStable
			continue
		}
		out[i] = Trend(records[i-1].TypingMetrics, records[i].TypingMetrics)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - minVal) / (maxVal - minVal) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the metrics and interval statistics of one session.
func RenderSummary(w io.Writer, title string, s Summary) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	patterns := "-"
	if len(s.Metrics.Pattern) > 0 {
		patterns = strings.Join(s.Metrics.Pattern, ", ")
	}
	tbl := newTable(column{header: "Metric"}, column{header: "Value", right: true})
	tbl.add("Speed (WPM)", fmt.Sprintf("%.0f", s.Metrics.Speed))
	tbl.add("Consistency", fmt.Sprintf("%.1f", s.Metrics.Consistency))
	tbl.add("Patterns", patterns)
	tbl.add("Events", fmt.Sprintf("%d", s.Events))
	tbl.add("Dropped", fmt.Sprintf("%d", s.Dropped))
	tbl.add("Duration", formatMs(s.DurationMs))
	tbl.add("Mean interval", formatMs(s.MeanIntervalMs))
	tbl.add("Median interval", formatMs(s.MedianIntervalMs))
	tbl.add("Interval stddev", formatMs(s.StdDevIntervalMs))
	tbl.add("Longest pause", formatMs(s.LongestPauseMs))
	tbl.add("Corrections", fmt.Sprintf("%.1f%%", s.CorrectionRatio*100))
	return tbl.write(w)
}

// RenderHistory prints stored sessions with trends and sparklines.
func RenderHistory(w io.Writer, records []model.SessionRecord, window int) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	trends := Trends(records)
	tbl := newTable(
		column{header: "Date"},
		column{header: "Source"},
		column{header: "Events", right: true},
		column{header: "Speed", right: true},
		column{header: "Consistency", right: true},
		column{header: "Trend"},
		column{header: "Patterns"},
	)
	speeds := make([]float64, len(records))
	consistency := make([]float64, len(records))
	for i, rec := range records {
		patterns := "-"
		if len(rec.Pattern) > 0 {
			patterns = strings.Join(rec.Pattern, ", ")
		}
		tbl.add(
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			rec.Source,
			fmt.Sprintf("%d", rec.EventCount),
			fmt.Sprintf("%.0f", rec.Speed),
			fmt.Sprintf("%.1f", rec.Consistency),
			trendArrow(trends[i]),
			patterns,
		)
		speeds[i] = rec.Speed
		consistency[i] = rec.Consistency
	}
	if err := tbl.write(w); err != nil {
		return err
	}
	if len(records) < 2 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Speed       %s\n", Sparkline(MovingAverage(speeds, window))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Consistency %s\n", Sparkline(MovingAverage(consistency, window))); err != nil {
		return err
	}
	return nil
}

func trendArrow(trend string) string {
	switch trend {
	case TrendUp:
		return "↑ up"
	case TrendDown:
		return "↓ down"
	default:
		return "→ stable"
	}
}

func formatMs(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}
