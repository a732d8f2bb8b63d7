package main

import (
	"logogrouper/internal/config"
	"logogrouper/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCommand constructs the 'run' subcommand that fetches and then groups.
// Grouping starts only once every fetch task has finished, and only covers the
// logos saved by this fetch: files of domains that failed or left the list
// stay out of the groups.
func runCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetches logos and groups them",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := runContext("run")
			defer cancel()

			meter, stopMetrics := setupMetrics(ctx, cfg)
			defer stopMetrics()

			summary, err := runFetch(ctx, cfg, meter)
			if err != nil {
				logger.Fatal(ctx, "fetch failed", zap.Error(err))
			}
			if ctx.Err() != nil {
				logger.Warn(ctx, "interrupted, skipping grouping")

				return
			}

			if _, err := runGroup(ctx, cfg, savedPaths(summary)); err != nil {
				logger.Fatal(ctx, "group failed", zap.Error(err))
			}
		},
	}

	return cmd
}
