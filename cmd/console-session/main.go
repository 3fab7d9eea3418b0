package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/openkcm/common-sdk/pkg/utils"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/cmd/console-session/agent"
	"github.com/openkcm/console-session/cmd/console-session/login"
	"github.com/openkcm/console-session/cmd/console-session/logout"
	"github.com/openkcm/console-session/cmd/console-session/status"
)

var (
	// BuildInfo will be set by the build system
	BuildInfo = "{}"

	isVersionCmd     bool
	gracefulShutdown time.Duration
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Console Session Version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		isVersionCmd = true

		value, err := utils.ExtractFromComplexValue(BuildInfo)
		if err != nil {
			return err
		}

		slog.InfoContext(cmd.Context(), value)

		return nil
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console-session",
		Short: "Console Session",
		Long:  "Admin console session agent: credential persistence, proactive token renewal, and forced-logout handling.",
	}

	cmd.PersistentFlags().DurationVar(&gracefulShutdown, "graceful-shutdown", 1*time.Second, "graceful shutdown")

	cmd.AddCommand(
		versionCmd,
		agent.Cmd(BuildInfo),
		login.Cmd(BuildInfo),
		logout.Cmd(BuildInfo),
		status.Cmd(BuildInfo),
	)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Error(ctx, "failed to start the application", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)

		return err
	}

	if !isVersionCmd {
		_, _ = fmt.Fprintf(os.Stderr, "Graceful shutdown in %s\n", gracefulShutdown)
		time.Sleep(gracefulShutdown)
	}

	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
