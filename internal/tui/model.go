// Package tui provides the Bubble Tea capture screen.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/stats"
	"github.com/verte-zerg/neurosense/internal/store"
)

// DefaultMinChars is the shortest session that may be submitted.
const DefaultMinChars = 50

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	resultStyle      = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Options configure the capture screen.
type Options struct {
	// MinChars is the number of characters required before ctrl+s submits.
	MinChars int
	// Save stores finished sessions through the recorder.
	Save bool
	// Prompt supplies the text to type for each session. Nil selects free
	// writing in a text area.
	Prompt func() string
	// Now is the clock used to timestamp keys.
	Now func() time.Time
}

// Model implements the capture UI. Each keystroke is recorded with its time,
// the metrics are recomputed live, and a finished session is summarized and
// optionally saved.
type Model struct {
	analyzer *analysis.Analyzer
	history  model.HistoryProvider
	recorder model.HistoryRecorder
	opts     Options

	width  int
	height int

	input  textarea.Model
	prompt []rune
	typed  []rune

	keys   keyLog
	live   model.TypingMetrics
	notice string

	finished bool
	summary  stats.Summary
	savedID  string
	saveErr  error
	results  []stats.Summary

	last    *model.SessionRecord
	lastErr error
}

// NewModel constructs a capture model. history and recorder may be nil.
func NewModel(a *analysis.Analyzer, history model.HistoryProvider, recorder model.HistoryRecorder, opts Options) *Model {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	input := textarea.New()
	input.Placeholder = "Start typing. Press ctrl+s to analyze, esc to quit."
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.Focus()

	m := &Model{
		analyzer: a,
		history:  history,
		recorder: recorder,
		opts:     opts,
		input:    input,
		keys:     keyLog{now: opts.Now},
	}
	m.loadLast()
	m.resetSession()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.opts.Prompt == nil {
		return textarea.Blink
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(msg.Width*7/10, 20))
		m.input.SetHeight(max(msg.Height/3, 3))
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.finished {
			return m.updateFinished(msg)
		}
		return m.updateTyping(msg)
	default:
		if m.opts.Prompt == nil && !m.finished {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m *Model) updateFinished(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter", "n":
		m.resetSession()
	}
	return m, nil
}

func (m *Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlS:
		if n := m.typedChars(); n < m.opts.MinChars {
			m.notice = fmt.Sprintf("Type at least %d characters before analyzing (%d so far).", m.opts.MinChars, n)
			return m, nil
		}
		m.submit()
		return m, nil
	}

	var cmd tea.Cmd
	if m.opts.Prompt == nil {
		m.keys.record(keyNames(msg))
		m.input, cmd = m.input.Update(msg)
	} else {
		m.keys.record(m.applyToPrompt(msg))
	}
	m.live = m.analyzer.Analyze(m.keys.events)
	if m.opts.Prompt != nil && len(m.prompt) > 0 && len(m.typed) >= len(m.prompt) {
		m.submit()
	}
	return m, cmd
}

// applyToPrompt edits the typed text and returns the names of the keys that
// changed it. Keys the prompt ignores are not part of the session log.
func (m *Model) applyToPrompt(msg tea.KeyMsg) []string {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		if len(m.typed) == 0 {
			return nil
		}
		m.typed = m.typed[:len(m.typed)-1]
		return keyNames(msg)
	case tea.KeySpace:
		if len(m.typed) >= len(m.prompt) {
			return nil
		}
		m.typed = append(m.typed, ' ')
		return keyNames(msg)
	case tea.KeyRunes:
		applied := make([]string, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if len(m.typed) >= len(m.prompt) {
				break
			}
			m.typed = append(m.typed, r)
			applied = append(applied, string(r))
		}
		return applied
	default:
		return nil
	}
}

func (m *Model) typedChars() int {
	if m.opts.Prompt == nil {
		return len([]rune(m.input.Value()))
	}
	return len(m.typed)
}

func (m *Model) submit() {
	events := m.keys.snapshot()
	m.summary = stats.Summarize(m.analyzer, events)
	m.results = append(m.results, m.summary)
	m.finished = true
	m.notice = ""
	m.savedID = ""
	m.saveErr = nil

	if !m.opts.Save || m.recorder == nil || m.summary.Events == 0 {
		return
	}
	rec := store.NewRecord(model.SourceCapture, m.summary.Events, m.summary.DurationMs, m.summary.Metrics, m.opts.Now())
	if err := m.recorder.InsertSession(context.Background(), rec); err != nil {
		m.saveErr = err
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.savedID = rec.ID
	m.last = &rec
}

func (m *Model) resetSession() {
	m.finished = false
	m.keys.reset()
	m.live = model.TypingMetrics{Pattern: []string{}}
	m.typed = nil
	m.notice = ""
	m.input.Reset()
	if m.opts.Prompt != nil {
		m.prompt = []rune(m.opts.Prompt())
	}
}

func (m *Model) loadLast() {
	if m.history == nil {
		return
	}
	records, err := m.history.ListSessions(context.Background(), model.HistoryQuery{Last: 1})
	if err != nil {
		m.lastErr = err
		logErrf("failed to load session history: %v\n", err)
		return
	}
	if len(records) == 1 {
		m.last = &records[0]
	}
}

// Results returns the summaries of every session submitted so far.
func (m *Model) Results() []stats.Summary {
	return append([]stats.Summary(nil), m.results...)
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	if m.finished {
		body = m.renderResult()
	} else {
		body = m.renderTyping()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return body + "\n\n" + footer
	}
	content := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	return content + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderTyping() string {
	var parts []string
	if m.opts.Prompt == nil {
		parts = append(parts, m.input.View())
	} else {
		cursor := -1
		if len(m.typed) < len(m.prompt) {
			cursor = len(m.typed)
		}
		width := 0
		if m.width > 0 {
			width = max(m.width*7/10, 1)
		}
		text := wrapCells(styleOverlay(m.prompt, m.typed, cursor), width)
		if width > 0 {
			text = lipgloss.NewStyle().Width(width).Render(text)
		}
		parts = append(parts, text)
	}
	if m.notice != "" {
		parts = append(parts, noticeStyle.Render(m.notice))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderResult() string {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, "", m.summary); err != nil {
		return err.Error()
	}
	lines := []string{strings.TrimRight(buf.String(), "\n"), ""}
	switch {
	case m.saveErr != nil:
		lines = append(lines, incorrectStyle.Render("Not saved: "+m.saveErr.Error()))
	case m.savedID != "":
		lines = append(lines, footerStyle.Render("Saved as "+m.savedID))
	}
	lines = append(lines, footerStyle.Render("enter: new session · q: quit"))
	return resultStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Keys %d", len(m.keys.events))}
	if !m.finished {
		segments = append(segments,
			fmt.Sprintf("Speed %.0f WPM", m.live.Speed),
			fmt.Sprintf("Consistency %.1f", m.live.Consistency),
		)
		if len(m.live.Pattern) > 0 {
			segments = append(segments, strings.Join(m.live.Pattern, ", "))
		}
	}
	if m.last != nil {
		segments = append(segments, fmt.Sprintf("Last %.0f WPM · %.1f", m.last.Speed, m.last.Consistency))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
