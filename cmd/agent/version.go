package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfateev/sandbox-agent/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "agent %s\n", version.String())
	},
}
