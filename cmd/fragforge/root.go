package main

import (
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fragforge",
		Short:         "Fragment files into recoverable ASCII85+RC4 records and restore them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides defaults, overridden by flags)")

	root.AddCommand(
		newSplitCmd(),
		newJoinCmd(),
		newArchiveSplitCmd(),
		newJoinArchiveCmd(),
		newBenchRC4Cmd(),
	)
	return root
}
