package main

import (
	"logogrouper/internal/config"
	"logogrouper/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// groupCommand constructs the 'group' subcommand that groups the logos already
// present in the logos directory.
func groupCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Groups downloaded logos by perceptual similarity",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := runContext("group")
			defer cancel()

			if _, err := runGroup(ctx, cfg, nil); err != nil {
				logger.Fatal(ctx, "group failed", zap.Error(err))
			}
		},
	}

	return cmd
}
