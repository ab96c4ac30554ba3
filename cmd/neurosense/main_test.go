package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/neurosense/internal/config"
	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/server"
	"github.com/verte-zerg/neurosense/internal/tui"
)

const helloJSON = `[
	{"key":"h","timestamp":0},
	{"key":"e","timestamp":200},
	{"key":"l","timestamp":400},
	{"key":"l","timestamp":600},
	{"key":"o","timestamp":800}
]`

var settingLine = regexp.MustCompile(`^# ([a-z-]+ = .*)$`)

func TestDefaultConfigTemplateMatchesDefaults(t *testing.T) {
	dir := t.TempDir()
	commented := filepath.Join(dir, "commented.toml")
	require.NoError(t, os.WriteFile(commented, []byte(defaultConfigTemplate()), 0o644))
	cfg, err := config.LoadConfig(commented)
	require.NoError(t, err)
	assert.Nil(t, cfg.Analysis.PauseMs)
	assert.Nil(t, cfg.Server.Addr)

	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if m := settingLine.FindStringSubmatch(line); m != nil {
			line = m[1]
		}
		lines = append(lines, line)
	}
	enabled := filepath.Join(dir, "enabled.toml")
	require.NoError(t, os.WriteFile(enabled, []byte(strings.Join(lines, "\n")), 0o644))
	cfg, err = config.LoadConfig(enabled)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultThresholds(), cfg.Analysis.Thresholds())
	assert.Equal(t, 0, cfg.Analysis.Parallel())
	require.NotNil(t, cfg.Server.Addr)
	assert.Equal(t, defaultAddr, *cfg.Server.Addr)
	require.NotNil(t, cfg.Server.MaxBodyBytes)
	assert.Equal(t, int64(server.DefaultMaxBodyBytes), *cfg.Server.MaxBodyBytes)
	require.NotNil(t, cfg.Server.History)
	assert.True(t, *cfg.Server.History)
	require.NotNil(t, cfg.Capture.MinChars)
	assert.Equal(t, tui.DefaultMinChars, *cfg.Capture.MinChars)
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	var addr string
	var noSave bool
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "")

	fromFile := ":9000"
	save := false
	applyStringConfig(cmd, "addr", &addr, &fromFile)
	applyNegatedBoolConfig(cmd, "no-save", &noSave, &save)
	assert.Equal(t, ":9000", addr)
	assert.True(t, noSave)

	require.NoError(t, cmd.Flags().Set("addr", ":7000"))
	applyStringConfig(cmd, "addr", &addr, &fromFile)
	assert.Equal(t, ":7000", addr)
	applyStringConfig(cmd, "addr", &addr, nil)
	assert.Equal(t, ":7000", addr)
}

func TestResolveAddr(t *testing.T) {
	var addr string
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "")

	assert.Equal(t, ":3000", resolveAddr(cmd, ":3000", ""))
	assert.Equal(t, ":8080", resolveAddr(cmd, ":3000", "8080"))
	require.NoError(t, cmd.Flags().Set("addr", ":4000"))
	assert.Equal(t, ":4000", resolveAddr(cmd, ":4000", "8080"))
}

func TestCheckStdinOnce(t *testing.T) {
	assert.NoError(t, checkStdinOnce([]string{"a.json", "-"}))
	assert.Error(t, checkStdinOnce([]string{"-", "-"}))
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	full := append([]string{
		"--config", filepath.Join(dir, "config.toml"),
		"--db", filepath.Join(dir, "neurosense.db"),
	}, args...)
	root.SetArgs(full)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeCommandJSONKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")
	require.NoError(t, os.WriteFile(first, []byte(helloJSON), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(`{"typingData":[]}`), 0o644))

	out, err := runCLI(t, helloJSON, "analyze", "--format", "json", second, "-", first)
	require.NoError(t, err)

	var results []fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 3)
	assert.Equal(t, second, results[0].File)
	assert.Equal(t, 0.0, results[0].Speed)
	assert.Equal(t, "-", results[1].File)
	assert.Equal(t, 75.0, results[1].Speed)
	assert.Equal(t, first, results[2].File)
	assert.Equal(t, 100.0, results[2].Consistency)
	assert.Equal(t, 5, results[2].Events)
	assert.NotNil(t, results[2].Pattern)
}

func TestAnalyzeCommandYAML(t *testing.T) {
	out, err := runCLI(t, helloJSON, "analyze", "--format", "yaml", "-")
	require.NoError(t, err)
	var results []fileResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 1)
	assert.Equal(t, 75.0, results[0].Speed)
	assert.Equal(t, 800.0, results[0].DurationMs)
}

func TestAnalyzeCommandTable(t *testing.T) {
	out, err := runCLI(t, helloJSON, "analyze", "--histogram", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Speed (WPM)")
	assert.Contains(t, out, "Interval histogram")
	assert.Contains(t, out, "200-250ms")
}

func TestAnalyzeCommandRejectsInvalidInput(t *testing.T) {
	_, err := runCLI(t, `"hello"`, "analyze", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")

	_, err = runCLI(t, helloJSON, "analyze", "--format", "xml", "-")
	require.Error(t, err)
}

func TestAnalyzeSaveAndHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "neurosense.db")
	cfg := filepath.Join(dir, "config.toml")

	run := func(stdin string, args ...string) string {
		t.Helper()
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(append([]string{"--config", cfg, "--db", db}, args...))
		require.NoError(t, root.Execute())
		return out.String()
	}

	run(helloJSON, "analyze", "--save", "--format", "json", "-")
	run(helloJSON, "analyze", "--save", "--format", "json", "-")

	out := run("", "history", "--format", "json", "--source", "cli")
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries), out)
	require.Len(t, entries, 2)
	assert.Equal(t, "cli", entries[0]["source"])
	assert.Equal(t, "stable", entries[1]["trend"])

	out = run("", "history")
	assert.Contains(t, out, "Trend")
	assert.Contains(t, out, "Average 75 WPM")
}

func TestHistoryShowsPatternCounts(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "neurosense.db")
	cfg := filepath.Join(dir, "config.toml")

	run := func(stdin string, args ...string) string {
		t.Helper()
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(append([]string{"--config", cfg, "--db", db}, args...))
		require.NoError(t, root.Execute())
		return out.String()
	}

	paused := `[{"key":"a","timestamp":0},{"key":"b","timestamp":3000}]`
	run(paused, "analyze", "--save", "--format", "json", "-")
	run(paused, "analyze", "--save", "--format", "json", "-")
	run(helloJSON, "analyze", "--save", "--format", "json", "-")

	out := run("", "history")
	assert.Contains(t, out, "Patterns long-pause 2")
}

func TestHistoryQueryValidation(t *testing.T) {
	_, err := runCLI(t, "", "history", "--source", "web")
	assert.Error(t, err)
	_, err = runCLI(t, "", "history", "--since", "yesterday")
	assert.Error(t, err)
	_, err = runCLI(t, "", "history", "--last", "-2")
	assert.Error(t, err)
}

func TestCaptureFlagValidation(t *testing.T) {
	_, err := runCLI(t, "", "capture", "--free", "--words", "5")
	assert.Error(t, err)
	_, err = runCLI(t, "", "capture", "--min-chars", "0")
	assert.Error(t, err)
}

func TestPromptSource(t *testing.T) {
	t.Cleanup(func() {
		captureFree, captureWords, capturePromptFile = false, 0, ""
	})

	captureFree = true
	next, err := promptSource()
	require.NoError(t, err)
	assert.Nil(t, next)

	captureFree = false
	captureWords = 4
	next, err = promptSource()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(next()), 4)

	captureWords = 0
	path := filepath.Join(t.TempDir(), "prompts.txt")
	require.NoError(t, os.WriteFile(path, []byte("only one\nnaïve\n"), 0o644))
	capturePromptFile = path
	next, err = promptSource()
	require.NoError(t, err)
	assert.Equal(t, "only one", next())
}
