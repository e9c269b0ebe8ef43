package cli

import (
	"fmt"

	"github.com/ashkaaar/griptape/pkg/version"
	"github.com/spf13/cobra"
)

var versionFull bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionFull {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "print all build details")
}
