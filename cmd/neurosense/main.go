// Package main provides the CLI entrypoint for neurosense.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/config"
	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/server"
	"github.com/verte-zerg/neurosense/internal/store"
	"github.com/verte-zerg/neurosense/internal/tui"
)

const (
	defaultAddr          = ":3000"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultHistoryWindow = 5
)

var (
	configPath string
	dbPath     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "neurosense",
		Short:         "Keystroke dynamics analysis",
		Long:          "Analyze keystroke timing for typing speed, rhythm consistency and behavioral patterns.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "history database path")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newCaptureCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func newAnalyzer(c config.AnalysisConfig) (*analysis.Analyzer, error) {
	a, err := analysis.New(
		analysis.WithThresholds(c.Thresholds()),
		analysis.WithParallelThreshold(c.Parallel()),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid [analysis] config: %w", err)
	}
	return a, nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// applyNegatedBoolConfig sets a --no-X flag from a positive config value.
func applyNegatedBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = !*value
}

func defaultConfigTemplate() string {
	t := model.DefaultThresholds()
	return fmt.Sprintf(`# neurosense configuration
# Uncomment a value to enable it. CLI flags override config values.

[analysis]
# pause-ms = %.0f           # Gap that counts as a long pause (ms)
# burst-ms = %.0f             # Gap below which keys count as a burst (ms)
# burst-run = %d             # Consecutive fast gaps needed for burst-typing
# repeat-run = %d            # Identical consecutive keys needed for repeated-key
# correction-keys = %s
# correction-ratio = %.2f    # Share of correction keys for backspace-heavy
# parallel-threshold = 0    # Run estimators concurrently from this many events (0 = never)

[server]
# addr = %q            # Listen address (PORT env overrides)
# max-body-bytes = %d  # Request body limit
# history = true            # Save API analyses to the history database
# log-level = %q        # debug, info, warn, error
# log-format = %q       # text or json

[capture]
# min-chars = %d            # Characters required before ctrl+s analyzes
# save = true               # Save captured sessions to history
`,
		t.PauseMs,
		t.BurstMs,
		t.BurstRun,
		t.RepeatRun,
		tomlStrings(t.CorrectionKeys),
		t.CorrectionRatio,
		defaultAddr,
		server.DefaultMaxBodyBytes,
		defaultLogLevel,
		defaultLogFormat,
		tui.DefaultMinChars,
	)
}

func tomlStrings(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
