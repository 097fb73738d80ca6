package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kmzgen/internal/logging"
	"kmzgen/internal/notifications"
	"kmzgen/internal/pipeline"
	"kmzgen/internal/runlog"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Discover layer definitions, export KMZ packages, and publish them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			store, err := runlog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run log: %w", err)
			}
			defer store.Close()

			converter, err := ctx.newConverter(cfg)
			if err != nil {
				return err
			}

			runner, err := pipeline.New(cfg, logger, notifications.NewService(cfg), converter, store)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rep, err := runner.Run(runCtx)
			if err != nil {
				if errors.Is(err, pipeline.ErrRunInProgress) {
					return err
				}
				if rep != nil {
					fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
			return nil
		},
	}
}
