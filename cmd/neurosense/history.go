package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/stats"
)

var (
	historySource string
	historySince  string
	historyLast   int
	historyFormat string
	historyWindow int
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved sessions with trends",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySource, "source", "", "source filter (api, capture, cli)")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(&historyFormat, "format", formatTable, "output format (table, json)")
	cmd.Flags().IntVar(&historyWindow, "window", defaultHistoryWindow, "moving average window for sparklines")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	q, err := historyQuery()
	if err != nil {
		return err
	}
	if historyFormat != formatTable && historyFormat != formatJSON {
		return fmt.Errorf("--format must be table or json")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, q)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyFormat == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Entries); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := stats.RenderHistory(out, report.Records(), historyWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Entries) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(out, "Average %.0f WPM · consistency %.1f · best %.0f WPM\n",
		report.AvgSpeed, report.AvgConsistency, report.BestSpeed); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if patterns := report.PatternSummary(); patterns != "" {
		if _, err := fmt.Fprintf(out, "Patterns %s\n", patterns); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func historyQuery() (model.HistoryQuery, error) {
	if historyLast < 0 {
		return model.HistoryQuery{}, fmt.Errorf("--last must be >= 0")
	}
	q := model.HistoryQuery{Source: historySource, Last: historyLast}
	switch historySource {
	case "", model.SourceAPI, model.SourceCapture, model.SourceCLI:
	default:
		return q, fmt.Errorf("--source must be one of api, capture, cli")
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return q, fmt.Errorf("invalid --since value: %w", err)
		}
		q.Since = &parsed
	}
	return q, nil
}
