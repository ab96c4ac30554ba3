package analysis

import (
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/neurosense/internal/model"
)

// Analyzer computes typing metrics with a fixed set of thresholds. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	thresholds        model.Thresholds
	parallelThreshold int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThresholds overrides the pattern detection thresholds.
func WithThresholds(t model.Thresholds) Option {
	return func(a *Analyzer) {
		t.CorrectionKeys = append([]string(nil), t.CorrectionKeys...)
		a.thresholds = t
	}
}

// WithParallelThreshold runs the three estimators concurrently for sessions
// of at least n normalized events. Zero disables concurrent evaluation.
func WithParallelThreshold(n int) Option {
	return func(a *Analyzer) {
		a.parallelThreshold = n
	}
}

// New returns an Analyzer using default thresholds unless overridden.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{thresholds: model.DefaultThresholds()}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.thresholds.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

var defaultAnalyzer = &Analyzer{thresholds: model.DefaultThresholds()}

// Analyze computes metrics for a session using default thresholds.
func Analyze(events []model.KeyEvent) model.TypingMetrics {
	return defaultAnalyzer.Analyze(events)
}

// Thresholds returns a copy of the analyzer's detection thresholds.
func (a *Analyzer) Thresholds() model.Thresholds {
	t := a.thresholds
	t.CorrectionKeys = append([]string(nil), t.CorrectionKeys...)
	return t
}

// Analyze computes metrics for a session. Malformed events are skipped.
func (a *Analyzer) Analyze(events []model.KeyEvent) model.TypingMetrics {
	return a.AnalyzeNormalized(Normalize(events))
}

// AnalyzeNormalized computes metrics for events that are already usable and
// ordered by timestamp, as returned by Normalize.
func (a *Analyzer) AnalyzeNormalized(normalized []model.KeyEvent) model.TypingMetrics {
	if a.parallelThreshold > 0 && len(normalized) >= a.parallelThreshold {
		return a.analyzeParallel(normalized)
	}
	return model.TypingMetrics{
		Speed:       Speed(normalized),
		Consistency: Consistency(normalized),
		Pattern:     Patterns(normalized, a.thresholds),
	}
}

// AnalyzeRaw decodes a JSON event array and analyzes it.
func (a *Analyzer) AnalyzeRaw(raw []byte) (model.TypingMetrics, error) {
	events, err := Decode(raw)
	if err != nil {
		return model.TypingMetrics{}, err
	}
	return a.Analyze(events), nil
}

func (a *Analyzer) analyzeParallel(normalized []model.KeyEvent) model.TypingMetrics {
	var out model.TypingMetrics
	var g errgroup.Group
	g.Go(func() error {
		out.Speed = Speed(normalized)
		return nil
	})
	g.Go(func() error {
		out.Consistency = Consistency(normalized)
		return nil
	})
	g.Go(func() error {
		out.Pattern = Patterns(normalized, a.thresholds)
		return nil
	})
	// Estimators never fail.
	_ = g.Wait()
	return out
}
