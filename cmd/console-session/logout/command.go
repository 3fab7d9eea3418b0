package logout

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/console-session/internal/business"
	"github.com/openkcm/console-session/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"logout",
		"Console Session logout",
		"Console Session logout clears the stored credential and best-effort invalidates the token server-side",
		buildInfo,
		cmdutils.RunAsJob,
		business.LogoutMain,
	)
}
