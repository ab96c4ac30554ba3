// Package model defines shared data structures.
package model

import (
	"context"
	"errors"
	"time"
)

// KeyEvent is one observed keystroke. Timestamp is in milliseconds since an
// arbitrary epoch that stays fixed for the session.
type KeyEvent struct {
	Key       string  `json:"key"`
	Timestamp float64 `json:"timestamp"`
}

// TypingMetrics is the result of analyzing one session.
type TypingMetrics struct {
	Speed       float64  `json:"speed"`
	Consistency float64  `json:"consistency"`
	Pattern     []string `json:"pattern"`
}

// Thresholds tunes pattern detection.
type Thresholds struct {
	PauseMs         float64
	BurstMs         float64
	BurstRun        int
	RepeatRun       int
	CorrectionKeys  []string
	CorrectionRatio float64
}

// DefaultThresholds returns the stock detection parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PauseMs:         2000,
		BurstMs:         80,
		BurstRun:        5,
		RepeatRun:       3,
		CorrectionKeys:  []string{"Backspace"},
		CorrectionRatio: 0.15,
	}
}

// Validate reports the first out-of-range threshold.
func (t Thresholds) Validate() error {
	if t.PauseMs <= 0 {
		return errors.New("pause-ms must be > 0")
	}
	if t.BurstMs <= 0 {
		return errors.New("burst-ms must be > 0")
	}
	if t.BurstRun < 1 {
		return errors.New("burst-run must be >= 1")
	}
	if t.RepeatRun < 2 {
		return errors.New("repeat-run must be >= 2")
	}
	if len(t.CorrectionKeys) == 0 {
		return errors.New("correction-keys must not be empty")
	}
	if t.CorrectionRatio <= 0 || t.CorrectionRatio > 1 {
		return errors.New("correction-ratio must be in (0, 1]")
	}
	return nil
}

// Session sources.
const (
	SourceAPI     = "api"
	SourceCapture = "capture"
	SourceCLI     = "cli"
)

// SessionRecord is one stored analysis.
type SessionRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Source     string    `json:"source"`
	EventCount int       `json:"eventCount"`
	DurationMs int64     `json:"durationMs"`
	TypingMetrics
}

// HistoryQuery filters stored sessions.
type HistoryQuery struct {
	Source string
	Since  *time.Time
	Last   int
}

// ErrNotFound is returned when a stored session does not exist.
var ErrNotFound = errors.New("session not found")

// HistoryProvider is the read side of session history consumed by the
// server and the CLI.
type HistoryProvider interface {
	ListSessions(ctx context.Context, q HistoryQuery) ([]SessionRecord, error)
	GetSession(ctx context.Context, id string) (SessionRecord, error)
}

// HistoryRecorder stores finished analyses.
type HistoryRecorder interface {
	InsertSession(ctx context.Context, rec SessionRecord) error
}
