package login

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openkcm/console-session/internal/business"
	"github.com/openkcm/console-session/internal/cmdutils"
	"github.com/openkcm/console-session/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var identifier, returnTo string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Console Session login",
		Long:  "Console Session login exchanges credentials for a token and persists it. The secret is read from the CONSOLE_SESSION_SECRET environment variable, or from stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutils.LoadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			secret, err := readSecret()
			if err != nil {
				return err
			}

			return cmdutils.RunAsJob(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
				return business.LoginMain(ctx, cfg, identifier, secret, returnTo, os.Stdout)
			}, cfg)
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "", "login identifier (email)")
	cmd.Flags().StringVar(&returnTo, "return-to", "", "path to navigate to after login")
	_ = cmd.MarkFlagRequired("identifier")

	return cmd
}

func readSecret() (string, error) {
	if secret := os.Getenv("CONSOLE_SESSION_SECRET"); secret != "" {
		return secret, nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading secret from stdin: %w", err)
	}

	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("empty secret")
	}

	return secret, nil
}
