package agent

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/console-session/internal/business"
	"github.com/openkcm/console-session/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"agent",
		"Console Session agent",
		"Console Session agent validates the stored credential and keeps the session fresh until stopped",
		buildInfo,
		cmdutils.RunAsService,
		business.AgentMain,
	)
}
