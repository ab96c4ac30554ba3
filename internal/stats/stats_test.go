package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/model"
)

func helloEvents() []model.KeyEvent {
	return []model.KeyEvent{
		{Key: "h", Timestamp: 0},
		{Key: "e", Timestamp: 200},
		{Key: "l", Timestamp: 400},
		{Key: "l", Timestamp: 600},
		{Key: "o", Timestamp: 800},
	}
}

func TestSummarize(t *testing.T) {
	a, err := analysis.New()
	require.NoError(t, err)

	events := append(helloEvents(), model.KeyEvent{Key: "", Timestamp: 900})
	s := Summarize(a, events)

	assert.Equal(t, 5, s.Events)
	assert.Equal(t, 1, s.Dropped)
	assert.Equal(t, 800.0, s.DurationMs)
	assert.Equal(t, 200.0, s.MeanIntervalMs)
	assert.Equal(t, 200.0, s.MedianIntervalMs)
	assert.Equal(t, 0.0, s.StdDevIntervalMs)
	assert.Equal(t, 200.0, s.LongestPauseMs)
	assert.Equal(t, 0.0, s.CorrectionRatio)
	assert.Equal(t, 75.0, s.Metrics.Speed)
	assert.Equal(t, 100.0, s.Metrics.Consistency)
	assert.Empty(t, s.Metrics.Pattern)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}

func TestTrend(t *testing.T) {
	cases := []struct {
		name      string
		prev, cur float64
		want      string
	}{
		{"faster", 50, 60, TrendUp},
		{"slower", 60, 50, TrendDown},
		{"within tolerance", 100, 104, TrendStable},
		{"from zero", 0, 10, TrendUp},
		{"both zero", 0, 0, TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Trend(model.TypingMetrics{Speed: tc.prev}, model.TypingMetrics{Speed: tc.cur})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTrendsFirstIsStable(t *testing.T) {
	records := []model.SessionRecord{
		{TypingMetrics: model.TypingMetrics{Speed: 10}},
		{TypingMetrics: model.TypingMetrics{Speed: 20}},
		{TypingMetrics: model.TypingMetrics{Speed: 5}},
	}
	assert.Equal(t, []string{TrendStable, TrendUp, TrendDown}, Trends(records))
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.Equal(t, []float64{2, 3, 5, 7}, got)

	in := []float64{1, 2}
	same := MovingAverage(in, 1)
	assert.Equal(t, in, same)
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, " @", Sparkline([]float64{0, 10}))
	flat := Sparkline([]float64{3, 3, 3})
	assert.Len(t, flat, 3)
	assert.Equal(t, strings.Repeat(flat[:1], 3), flat)
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, nil, 3))
	assert.Equal(t, "No sessions found.\n", buf.String())

	buf.Reset()
	records := []model.SessionRecord{
		{CreatedAt: time.Unix(0, 0), Source: model.SourceAPI, EventCount: 5,
			TypingMetrics: model.TypingMetrics{Speed: 40, Consistency: 90, Pattern: []string{}}},
		{CreatedAt: time.Unix(60, 0), Source: model.SourceCapture, EventCount: 12,
			TypingMetrics: model.TypingMetrics{Speed: 60, Consistency: 70, Pattern: []string{"long-pause"}}},
	}
	require.NoError(t, RenderHistory(&buf, records, 3))
	out := buf.String()
	assert.Contains(t, out, "Trend")
	assert.Contains(t, out, "→ stable")
	assert.Contains(t, out, "↑ up")
	assert.Contains(t, out, "long-pause")
	assert.Contains(t, out, "Speed       ")
	assert.Contains(t, out, "Consistency ")
}

func TestRenderSummary(t *testing.T) {
	a, err := analysis.New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, "session.json", Summarize(a, helloEvents())))
	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "session.json", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Metric "))
	assert.True(t, strings.HasSuffix(lines[1], "Value"))
	assert.Contains(t, buf.String(), "Speed (WPM)")
	assert.Contains(t, buf.String(), "800ms")
}

func TestRenderIntervalHistogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderIntervalHistogram(&buf, nil, 500, 60))
	assert.Empty(t, buf.String())

	require.NoError(t, RenderIntervalHistogram(&buf, []float64{10, 20, 120, 3000}, 500, 60))
	out := buf.String()
	assert.Contains(t, out, "Interval histogram")
	assert.Contains(t, out, "0-50ms")
	assert.Contains(t, out, "100-150ms")
	assert.Contains(t, out, ">=500ms")
	assert.NotContains(t, out, "450-500ms")
}

func TestMarkdownReport(t *testing.T) {
	s := Summary{Events: 10, Metrics: model.TypingMetrics{Speed: 42, Consistency: 61.5,
		Pattern: []string{analysis.LabelBurstTyping}}}
	md := MarkdownReport("Session", s)
	assert.True(t, strings.HasPrefix(md, "# Session\n"))
	assert.Contains(t, md, "| Speed | 42 WPM |")
	assert.Contains(t, md, "**burst-typing**")

	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, md, 80))
	assert.Contains(t, buf.String(), "Session")
	assert.Contains(t, buf.String(), "burst-typing")
}
