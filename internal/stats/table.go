package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one table column. Numeric columns are right aligned.
type column struct {
	header string
	right  bool
}

// table lays out report rows in aligned columns.
type table struct {
	cols []column
	rows [][]string
}

func newTable(cols ...column) *table {
	return &table{cols: cols}
}

// add appends a row. Missing cells render empty; extra cells are ignored.
func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// lines returns the header followed by every row, with trailing spaces
// trimmed.
func (t *table) lines() []string {
	if len(t.cols) == 0 {
		return nil
	}
	widths := make([]int, len(t.cols))
	for i, col := range t.cols {
		widths[i] = cellWidth(col.header)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], cellWidth(row[i]))
		}
	}

	headers := make([]string, len(t.cols))
	for i, col := range t.cols {
		headers[i] = col.header
	}
	out := make([]string, 0, len(t.rows)+1)
	out = append(out, t.line(headers, widths))
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t *table) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, col := range t.cols {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := strings.Repeat(" ", max(widths[i]-cellWidth(cell), 0))
		if col.right {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// write prints the table followed by a blank line.
func (t *table) write(w io.Writer) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// cellWidth counts terminal cells, so wide key glyphs stay aligned.
func cellWidth(value string) int {
	return runewidth.StringWidth(value)
}
