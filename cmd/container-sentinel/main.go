package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nholik/container-sentinel/internal/app"
	"github.com/nholik/container-sentinel/internal/config"
	"github.com/nholik/container-sentinel/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "container-sentinel",
		Short:         "Watch local containers and alert on state changes",
		Long:          "Polls the container engine at a fixed interval and sends a notification when a container starts, stops unexpectedly, turns unhealthy, recovers or disappears.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, warnings, err := config.LoadWithFlags(cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := logging.NewWithOptions(os.Stdout, cfg.LogLevel, logging.Format(cfg.LogFormat))
			config.LogWarnings(logger, warnings)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("startup failed")
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Warn().Err(err).Msg("shutdown cleanup failed")
				}
			}()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			logger.Info().Msg("container-sentinel stopped")
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "container-sentinel: %v\n", err)
		os.Exit(1)
	}
}
