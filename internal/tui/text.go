package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cell is one prompt character, already styled.
type cell struct {
	s       string
	width   int
	isSpace bool
}

// styleOverlay colors the prompt according to what has been typed so far.
// cursor is the index of the next character to type, or -1 when finished.
func styleOverlay(prompt, typed []rune, cursor int) []cell {
	word := wordAt(prompt, cursor)
	out := make([]cell, 0, len(prompt))
	for i, want := range prompt {
		shown := want
		style := pendingStyle
		switch {
		case i < len(typed) && want == ' ' && typed[i] != ' ':
			shown = '·'
			style = incorrectStyle
		case i < len(typed) && typed[i] == want:
			style = correctStyle
		case i < len(typed):
			style = incorrectStyle
		case want != ' ' && i >= word.start && i < word.end:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		out = append(out, cell{
			s:       style.Render(string(shown)),
			width:   runewidth.RuneWidth(shown),
			isSpace: want == ' ',
		})
	}
	return out
}

type span struct {
	start, end int
}

// wordAt returns the word containing pos, or the next word after it. A
// negative pos selects nothing.
func wordAt(prompt []rune, pos int) span {
	if pos < 0 {
		return span{}
	}
	for pos < len(prompt) && prompt[pos] == ' ' {
		pos++
	}
	if pos >= len(prompt) {
		return span{}
	}
	start := pos
	for start > 0 && prompt[start-1] != ' ' {
		start--
	}
	end := pos
	for end < len(prompt) && prompt[end] != ' ' {
		end++
	}
	return span{start: start, end: end}
}

func joinCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.s)
	}
	return b.String()
}

// wrapCells breaks cells into lines no wider than width, preferring to break
// at spaces. The space at a break is dropped.
func wrapCells(cells []cell, width int) string {
	if width <= 0 {
		return joinCells(cells)
	}
	var lines []string
	var line []cell
	lineWidth := 0
	lastSpace := -1
	for i := 0; i < len(cells); {
		c := cells[i]
		if lineWidth+c.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, joinCells(line[:lastSpace]))
				line = append([]cell(nil), line[lastSpace+1:]...)
			} else {
				lines = append(lines, joinCells(line))
				line = nil
			}
			lineWidth, lastSpace = measure(line)
			continue
		}
		line = append(line, c)
		lineWidth += c.width
		if c.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	lines = append(lines, joinCells(line))
	return strings.Join(lines, "\n")
}

func measure(line []cell) (width, lastSpace int) {
	lastSpace = -1
	for i, c := range line {
		width += c.width
		if c.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}
