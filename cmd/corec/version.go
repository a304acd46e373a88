package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"corec/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		if version.GitCommit != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "commit:", version.GitCommit)
		}
		return nil
	},
}
