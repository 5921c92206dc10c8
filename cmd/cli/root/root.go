package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the itam command. Subcommand packages attach themselves to it.
var RootCmd = &cobra.Command{
	Use:           "itam",
	Short:         "IT asset and maintenance CLI",
	Long:          "Command line interface for the IT asset and maintenance workflow API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
