// Package main implements the corec CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"corec/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "corec",
	Short: "corec compiler pipeline",
	Long:  "corec embeds, simplifies, differentiates, and lowers core terms to Imp.",
}

// main wires up the CLI's subcommands and global flags, then executes the
// root command. If command execution returns an error, the process exits
// with status code 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 20, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("backend", "interp", "backend (interp|llvm|llvm-mc|llvm-cuda)")
	rootCmd.PersistentFlags().String("device", "cpu", "device (cpu|gpu)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal, used to decide
// whether to launch the Bubble Tea progress UI or fall back to plain log
// lines.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
