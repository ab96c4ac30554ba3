// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/neurosense/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Server   ServerConfig   `toml:"server"`
	Capture  CaptureConfig  `toml:"capture"`
}

// AnalysisConfig maps pattern detection thresholds.
type AnalysisConfig struct {
	PauseMs           *float64 `toml:"pause-ms"`
	BurstMs           *float64 `toml:"burst-ms"`
	BurstRun          *int     `toml:"burst-run"`
	RepeatRun         *int     `toml:"repeat-run"`
	CorrectionKeys    []string `toml:"correction-keys"`
	CorrectionRatio   *float64 `toml:"correction-ratio"`
	ParallelThreshold *int     `toml:"parallel-threshold"`
}

// ServerConfig maps HTTP service settings.
type ServerConfig struct {
	Addr         *string `toml:"addr"`
	MaxBodyBytes *int64  `toml:"max-body-bytes"`
	History      *bool   `toml:"history"`
	LogLevel     *string `toml:"log-level"`
	LogFormat    *string `toml:"log-format"`
}

// CaptureConfig maps capture screen settings.
type CaptureConfig struct {
	MinChars *int  `toml:"min-chars"`
	Save     *bool `toml:"save"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Thresholds applies the analysis section on top of the defaults.
func (c AnalysisConfig) Thresholds() model.Thresholds {
	t := model.DefaultThresholds()
	if c.PauseMs != nil {
		t.PauseMs = *c.PauseMs
	}
	if c.BurstMs != nil {
		t.BurstMs = *c.BurstMs
	}
	if c.BurstRun != nil {
		t.BurstRun = *c.BurstRun
	}
	if c.RepeatRun != nil {
		t.RepeatRun = *c.RepeatRun
	}
	if len(c.CorrectionKeys) > 0 {
		t.CorrectionKeys = append([]string(nil), c.CorrectionKeys...)
	}
	if c.CorrectionRatio != nil {
		t.CorrectionRatio = *c.CorrectionRatio
	}
	return t
}

// Parallel returns the configured parallel threshold, 0 when unset.
func (c AnalysisConfig) Parallel() int {
	if c.ParallelThreshold == nil {
		return 0
	}
	return *c.ParallelThreshold
}
