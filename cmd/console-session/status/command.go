package status

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkcm/console-session/internal/business"
	"github.com/openkcm/console-session/internal/cmdutils"
	"github.com/openkcm/console-session/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Console Session status",
		Long:  "Console Session status validates the stored credential and prints the session snapshot and the route-guard decision for a path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutils.LoadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			return cmdutils.RunAsJob(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
				return business.StatusMain(ctx, cfg, path, os.Stdout)
			}, cfg)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "console path to evaluate the route guard against")

	return cmd
}
