package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/stats"
	"github.com/verte-zerg/neurosense/internal/store"
)

const (
	formatTable  = "table"
	formatJSON   = "json"
	formatYAML   = "yaml"
	formatReport = "report"
)

var (
	analyzeFormat    string
	analyzeSave      bool
	analyzeHistogram bool
)

// fileResult is the machine-readable output of one analyzed file.
type fileResult struct {
	File        string   `json:"file" yaml:"file"`
	Speed       float64  `json:"speed" yaml:"speed"`
	Consistency float64  `json:"consistency" yaml:"consistency"`
	Pattern     []string `json:"pattern" yaml:"pattern"`
	Events      int      `json:"events" yaml:"events"`
	Dropped     int      `json:"dropped" yaml:"dropped"`
	DurationMs  float64  `json:"durationMs" yaml:"durationMs"`
}

type analyzedFile struct {
	name    string
	summary stats.Summary
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze recorded keystroke sessions",
		Long: "Analyze JSON keystroke recordings. Each file holds either an array of\n" +
			"{\"key\", \"timestamp\"} objects or {\"typingData\": [...]}. Use - for stdin.",
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyzeCmd,
	}
	cmd.Flags().StringVar(&analyzeFormat, "format", formatTable, "output format (table, json, yaml, report)")
	cmd.Flags().BoolVar(&analyzeSave, "save", false, "save results to history")
	cmd.Flags().BoolVar(&analyzeHistogram, "histogram", false, "print an interval histogram (table format)")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case formatTable, formatJSON, formatYAML, formatReport:
	default:
		return fmt.Errorf("--format must be one of table, json, yaml, report")
	}
	if err := checkStdinOnce(args); err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	a, err := newAnalyzer(fileCfg.Analysis)
	if err != nil {
		return err
	}

	results, err := analyzeFiles(cmd.Context(), a, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	if analyzeSave {
		if err := saveResults(cmd.Context(), results); err != nil {
			return err
		}
	}
	return writeResults(cmd.OutOrStdout(), analyzeFormat, results, a.Thresholds().PauseMs)
}

func checkStdinOnce(args []string) error {
	seen := false
	for _, arg := range args {
		if arg != "-" {
			continue
		}
		if seen {
			return fmt.Errorf("stdin (-) may only be given once")
		}
		seen = true
	}
	return nil
}

// analyzeFiles decodes and analyzes every input concurrently. Results keep
// the order of names.
func analyzeFiles(ctx context.Context, a *analysis.Analyzer, names []string, stdin io.Reader) ([]analyzedFile, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]analyzedFile, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := readInput(name, stdin)
			if err != nil {
				return err
			}
			events, err := analysis.DecodeDocument(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = analyzedFile{name: name, summary: stats.Summarize(a, events)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return raw, nil
}

func saveResults(ctx context.Context, results []analyzedFile) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	for _, r := range results {
		if r.summary.Events == 0 {
			logErrf("skipping %s: no usable keystrokes\n", r.name)
			continue
		}
		rec := store.NewRecord(model.SourceCLI, r.summary.Events, r.summary.DurationMs, r.summary.Metrics, time.Now())
		if err := st.InsertSession(ctx, rec); err != nil {
			return fmt.Errorf("failed to save %s: %w", r.name, err)
		}
		logErrf("saved %s as %s\n", r.name, rec.ID)
	}
	return nil
}

func toFileResults(results []analyzedFile) []fileResult {
	out := make([]fileResult, len(results))
	for i, r := range results {
		out[i] = fileResult{
			File:        r.name,
			Speed:       r.summary.Metrics.Speed,
			Consistency: r.summary.Metrics.Consistency,
			Pattern:     r.summary.Metrics.Pattern,
			Events:      r.summary.Events,
			Dropped:     r.summary.Dropped,
			DurationMs:  r.summary.DurationMs,
		}
	}
	return out
}

func writeResults(w io.Writer, format string, results []analyzedFile, pauseMs float64) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toFileResults(results)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toFileResults(results)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return enc.Close()
	case formatReport:
		for _, r := range results {
			if err := stats.RenderMarkdown(w, stats.MarkdownReport(r.name, r.summary), 0); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, r := range results {
			if err := stats.RenderSummary(w, r.name, r.summary); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if !analyzeHistogram {
				continue
			}
			if err := stats.RenderIntervalHistogram(w, r.summary.Intervals, pauseMs, 0); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}
}
