package main

import (
	"logogrouper/internal/config"
	"logogrouper/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// fetchCommand constructs the 'fetch' subcommand that downloads one logo per
// domain of the input list.
func fetchCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Downloads one logo per domain of the input list",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := runContext("fetch")
			defer cancel()

			meter, stopMetrics := setupMetrics(ctx, cfg)
			defer stopMetrics()

			if _, err := runFetch(ctx, cfg, meter); err != nil {
				logger.Fatal(ctx, "fetch failed", zap.Error(err))
			}
		},
	}

	return cmd
}
