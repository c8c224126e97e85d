package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/dialogbot/core/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "dialogbot", buildinfo.Read())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
