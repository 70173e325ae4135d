package root

import (
	"github.com/spf13/cobra"
)

// Local forces commands to work in-process even when a server is running.
var Local bool

var RootCmd = &cobra.Command{
	Use:   "launchdeck",
	Short: "Local launcher for scripts, executables and web apps",
	Long: `launchdeck keeps a catalog of local programs, launches them with the right
interpreter and virtual environment, hands web apps a free port and tracks
whether they are still running`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Local, "local", false, "Skip the server and work on the catalog directly")
}
