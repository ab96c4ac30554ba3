package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/prompt"
	"github.com/verte-zerg/neurosense/internal/stats"
	"github.com/verte-zerg/neurosense/internal/tui"
)

var (
	captureMinChars   int
	captureNoSave     bool
	captureFree       bool
	capturePromptFile string
	captureWords      int
	captureCaps       float64
	capturePunct      float64
)

func newCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record and analyze a typing session in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runCaptureCmd,
	}
	cmd.Flags().IntVar(&captureMinChars, "min-chars", tui.DefaultMinChars, "characters required before ctrl+s analyzes")
	cmd.Flags().BoolVar(&captureNoSave, "no-save", false, "do not save sessions to history")
	cmd.Flags().BoolVar(&captureFree, "free", false, "free writing instead of a prompt")
	cmd.Flags().StringVar(&capturePromptFile, "prompt-file", "", "file with one prompt per line")
	cmd.Flags().IntVar(&captureWords, "words", 0, "type a random drill of N common words instead of a passage")
	cmd.Flags().Float64Var(&captureCaps, "caps", 0, "drill: probability of a capitalized word (0-1)")
	cmd.Flags().Float64Var(&capturePunct, "punct", 0, "drill: probability of trailing punctuation (0-1)")
	return cmd
}

func runCaptureCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "min-chars", &captureMinChars, fileCfg.Capture.MinChars)
	applyNegatedBoolConfig(cmd, "no-save", &captureNoSave, fileCfg.Capture.Save)
	if err := validateCaptureFlags(); err != nil {
		return err
	}

	a, err := newAnalyzer(fileCfg.Analysis)
	if err != nil {
		return err
	}
	next, err := promptSource()
	if err != nil {
		return err
	}

	var history model.HistoryProvider
	var recorder model.HistoryRecorder
	st, err := openStore()
	if err != nil {
		logErrf("history unavailable: %v\n", err)
	} else {
		defer closeStore(st)
		history = st
		recorder = st
	}

	m := tui.NewModel(a, history, recorder, tui.Options{
		MinChars: captureMinChars,
		Save:     !captureNoSave,
		Prompt:   next,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	results := m.Results()
	if len(results) == 0 {
		logErrln("no sessions analyzed")
		return nil
	}
	for i, s := range results {
		if err := stats.RenderSummary(cmd.OutOrStdout(), fmt.Sprintf("Session %d", i+1), s); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func validateCaptureFlags() error {
	if captureMinChars < 1 {
		return fmt.Errorf("--min-chars must be >= 1")
	}
	if captureWords < 0 {
		return fmt.Errorf("--words must be >= 0")
	}
	if captureCaps < 0 || captureCaps > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if capturePunct < 0 || capturePunct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if captureFree && (capturePromptFile != "" || captureWords > 0) {
		return fmt.Errorf("--free cannot be combined with --prompt-file or --words")
	}
	return nil
}

// promptSource returns the per-session prompt generator, or nil for free
// writing.
func promptSource() (func() string, error) {
	if captureFree {
		return nil, nil
	}
	gen := prompt.New()
	if captureWords > 0 {
		words := prompt.Words()
		opts := prompt.Options{Words: captureWords, CapsPct: captureCaps, PunctPct: capturePunct}
		return func() string { return gen.Compose(words, opts) }, nil
	}
	passages := prompt.Passages()
	if capturePromptFile != "" {
		loaded, err := prompt.Load(capturePromptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		passages = prompt.FilterPrintable(loaded)
		if len(passages) == 0 {
			return nil, fmt.Errorf("no typeable prompts in %s", capturePromptFile)
		}
		if dropped := len(loaded) - len(passages); dropped > 0 {
			logErrf("skipped %d prompts with characters outside printable ASCII\n", dropped)
		}
	}
	return func() string { return gen.Pick(passages) }, nil
}
