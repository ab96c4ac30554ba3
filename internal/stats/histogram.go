package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	histogramBinMs      = 50.0
	histogramLabelWidth = 12
	minBarWidth         = 10
	terminalWidthBackup = 80
)

// RenderIntervalHistogram prints a horizontal bar chart of inter-keystroke
// intervals in 50ms bins. Intervals at or above capMs share one overflow bin.
// A width of 0 sizes the bars to the terminal.
func RenderIntervalHistogram(w io.Writer, intervals []float64, capMs float64, width int) error {
	if len(intervals) == 0 {
		return nil
	}
	if capMs < histogramBinMs {
		capMs = histogramBinMs
	}
	bins := int(math.Ceil(capMs / histogramBinMs))
	counts := make([]int, bins+1)
	for _, dt := range intervals {
		idx := int(dt / histogramBinMs)
		if dt >= capMs || idx >= bins {
			idx = bins
		}
		counts[max(idx, 0)]++
	}

	// Trim empty bins at the top end, keeping the overflow bin if used.
	last := bins - 1
	for last > 0 && counts[last] == 0 {
		last--
	}

	if width <= 0 {
		width = terminalWidth()
	}
	barWidth := max(width-histogramLabelWidth-8, minBarWidth)
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}

	if _, err := fmt.Fprintln(w, "Interval histogram"); err != nil {
		return err
	}
	for i := 0; i <= last; i++ {
		label := fmt.Sprintf("%.0f-%.0fms", float64(i)*histogramBinMs, float64(i+1)*histogramBinMs)
		if err := writeBar(w, label, counts[i], peak, barWidth); err != nil {
			return err
		}
	}
	if counts[bins] > 0 {
		if err := writeBar(w, fmt.Sprintf(">=%.0fms", capMs), counts[bins], peak, barWidth); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func writeBar(w io.Writer, label string, count, peak, barWidth int) error {
	n := 0
	if peak > 0 {
		n = int(math.Round(float64(count) / float64(peak) * float64(barWidth)))
	}
	if count > 0 && n == 0 {
		n = 1
	}
	_, err := fmt.Fprintf(w, "%*s │%s %d\n", histogramLabelWidth, label, strings.Repeat("█", n), count)
	return err
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
