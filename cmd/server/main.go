package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat/internal/app"
	"github.com/vovakirdan/linechat/internal/config"
	applog "github.com/vovakirdan/linechat/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "linechat-server",
		Short:         "Line-oriented TCP chat server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := applog.New(logLevel)

			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				bootLog.Error().Err(err).Str("path", path).Msg("failed to load config")
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			logger := applog.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to build app")
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Str("config", path).Msg("starting linechat server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return fmt.Errorf("run: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to yaml config (default ./linechat.yaml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}
