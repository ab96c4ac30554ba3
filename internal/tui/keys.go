package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/neurosense/internal/model"
)

// keyNames maps a key message to the names recorded in KeyEvent.Key. Keys
// that do not produce or remove text are not recorded.
func keyNames(msg tea.KeyMsg) []string {
	switch msg.Type {
	case tea.KeyRunes:
		names := make([]string, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			names = append(names, string(r))
		}
		return names
	case tea.KeySpace:
		return []string{" "}
	case tea.KeyBackspace:
		return []string{"Backspace"}
	case tea.KeyDelete:
		return []string{"Delete"}
	case tea.KeyEnter:
		return []string{"Enter"}
	case tea.KeyTab:
		return []string{"Tab"}
	default:
		return nil
	}
}

// keyLog timestamps keystrokes in milliseconds since the first one.
type keyLog struct {
	now    func() time.Time
	start  time.Time
	events []model.KeyEvent
}

func (l *keyLog) record(names []string) {
	if len(names) == 0 {
		return
	}
	at := l.now()
	if len(l.events) == 0 {
		l.start = at
	}
	ms := float64(at.Sub(l.start).Microseconds()) / 1000
	for _, name := range names {
		l.events = append(l.events, model.KeyEvent{Key: name, Timestamp: ms})
	}
}

func (l *keyLog) reset() {
	l.events = nil
	l.start = time.Time{}
}

// snapshot returns a copy of the recorded events.
func (l *keyLog) snapshot() []model.KeyEvent {
	return append([]model.KeyEvent(nil), l.events...)
}
