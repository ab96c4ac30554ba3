package stats

import (
	"bytes"
	"testing"
)

func TestTableAlignsColumns(t *testing.T) {
	tbl := newTable(column{header: "Metric"}, column{header: "Value", right: true})
	tbl.add("Speed (WPM)", "75")
	tbl.add("Consistency", "100.0")

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Metric      Value" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Speed (WPM)    75" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Consistency 100.0" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableWideRunes(t *testing.T) {
	tbl := newTable(column{header: "Key"}, column{header: "N"})
	tbl.add("日", "1")
	tbl.add("a", "2")
	lines := tbl.lines()
	if lines[1] != "日  1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "a   2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}

func TestTableShortAndLongRows(t *testing.T) {
	tbl := newTable(column{header: "A"}, column{header: "B", right: true})
	tbl.add("x")
	tbl.add("y", "22", "ignored")
	lines := tbl.lines()
	if lines[1] != "x" {
		t.Fatalf("unexpected short row: %q", lines[1])
	}
	if lines[2] != "y 22" {
		t.Fatalf("unexpected long row: %q", lines[2])
	}
}

func TestTableWriteEndsWithBlankLine(t *testing.T) {
	tbl := newTable(column{header: "A"})
	tbl.add("1")
	var buf bytes.Buffer
	if err := tbl.write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "A\n1\n\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
