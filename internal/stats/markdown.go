package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/verte-zerg/neurosense/internal/analysis"
)

// MarkdownReport renders one session summary as a markdown document.
func MarkdownReport(title string, s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Speed | %.0f WPM |\n", s.Metrics.Speed)
	fmt.Fprintf(&b, "| Consistency | %.1f / 100 |\n", s.Metrics.Consistency)
	fmt.Fprintf(&b, "| Keystrokes | %d |\n", s.Events)
	fmt.Fprintf(&b, "| Duration | %s |\n", formatMs(s.DurationMs))
	fmt.Fprintf(&b, "| Median interval | %s |\n", formatMs(s.MedianIntervalMs))
	fmt.Fprintf(&b, "| Longest pause | %s |\n", formatMs(s.LongestPauseMs))
	fmt.Fprintf(&b, "| Corrections | %.1f%% |\n\n", s.CorrectionRatio*100)

	b.WriteString("## Patterns\n\n")
	if len(s.Metrics.Pattern) == 0 {
		b.WriteString("No notable patterns detected.\n")
		return b.String()
	}
	for _, label := range s.Metrics.Pattern {
		fmt.Fprintf(&b, "- **%s**: %s\n", label, patternDescription(label))
	}
	return b.String()
}

func patternDescription(label string) string {
	switch label {
	case analysis.LabelLongPause:
		return "at least one contemplative gap between keystrokes"
	case analysis.LabelBurstTyping:
		return "a run of rapid, automatic keystrokes"
	case analysis.LabelRepeatedKey:
		return "the same key pressed several times in a row"
	case analysis.LabelBackspaceHeavy:
		return "frequent corrections"
	default:
		return label
	}
}

// RenderMarkdown writes md to w, styled for a terminal when w is one.
func RenderMarkdown(w io.Writer, md string, width int) error {
	style := "notty"
	if IsTerminal(w) {
		style = "dark"
	}
	if width <= 0 {
		width = terminalWidth()
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
