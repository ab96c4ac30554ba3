package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/neurosense/internal/config"
	"github.com/verte-zerg/neurosense/internal/logging"
	"github.com/verte-zerg/neurosense/internal/metrics"
	"github.com/verte-zerg/neurosense/internal/server"
)

var (
	serveAddr         string
	serveMaxBodyBytes int64
	serveNoHistory    bool
	serveWatchConfig  bool
	serveLogLevel     string
	serveLogFormat    string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().Int64Var(&serveMaxBodyBytes, "max-body-bytes", server.DefaultMaxBodyBytes, "request body limit")
	cmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "do not save analyses or serve history")
	cmd.Flags().BoolVar(&serveWatchConfig, "watch-config", false, "reload analysis thresholds when the config file changes")
	cmd.Flags().StringVar(&serveLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&serveLogFormat, "log-format", defaultLogFormat, "log format (text, json)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyInt64Config(cmd, "max-body-bytes", &serveMaxBodyBytes, fileCfg.Server.MaxBodyBytes)
	applyNegatedBoolConfig(cmd, "no-history", &serveNoHistory, fileCfg.Server.History)
	applyStringConfig(cmd, "log-level", &serveLogLevel, fileCfg.Server.LogLevel)
	applyStringConfig(cmd, "log-format", &serveLogFormat, fileCfg.Server.LogFormat)
	serveAddr = resolveAddr(cmd, serveAddr, os.Getenv("PORT"))

	logCfg, err := logging.ParseConfig(serveLogLevel, serveLogFormat)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, logCfg)

	a, err := newAnalyzer(fileCfg.Analysis)
	if err != nil {
		return err
	}
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxBodyBytes(serveMaxBodyBytes),
	}
	if !serveNoHistory {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		opts = append(opts, server.WithHistory(st, st))
		logger.Info("history enabled", "db", dbPath)
	}
	srv, err := server.New(a, opts...)
	if err != nil {
		return err
	}

	if serveWatchConfig {
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, serveAddr)
	})
	if serveWatchConfig {
		g.Go(func() error {
			return config.Watch(gctx, configPath, logger, func(fc config.FileConfig) {
				next, err := newAnalyzer(fc.Analysis)
				if err != nil {
					metrics.ConfigReloads.WithLabelValues("rejected").Inc()
					logger.Warn("keeping previous analysis thresholds", "error", err)
					return
				}
				srv.SetAnalyzer(next)
				metrics.ConfigReloads.WithLabelValues("applied").Inc()
				logger.Info("analysis thresholds updated")
			})
		})
	}
	return g.Wait()
}

// resolveAddr applies the PORT environment variable unless --addr was given.
func resolveAddr(cmd *cobra.Command, addr, port string) string {
	if port == "" || cmd.Flags().Changed("addr") {
		return addr
	}
	return ":" + port
}
