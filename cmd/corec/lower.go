package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"corec/internal/core"
	"corec/internal/driver"
	"corec/internal/pipeline"
	"corec/internal/project"
)

var lowerCmd = &cobra.Command{
	Use:   "lower <block.msgpack>",
	Short: "embed, simplify, and lower a pre-elaborated SourceBlock to Imp",
	Args:  cobra.ExactArgs(1),
	RunE:  runLower,
}

func init() {
	lowerCmd.Flags().Bool("dump-core", false, "print the input core.Block as decoded, before simplification")
}

func runLower(cmd *cobra.Command, args []string) error {
	dumpCore, err := cmd.Flags().GetBool("dump-core")
	if err != nil {
		return err
	}

	block, err := driver.DecodeSourceBlockFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	manifest, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	req := pipeline.Request{Function: block.Name, Block: block}
	result, err := runPipeline(context.Background(), cmd, "lower", req)
	if err != nil {
		return err
	}

	if dumpCore {
		fmt.Fprintln(cmd.OutOrStdout(), core.Print(block.Body))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "lowered %s: %d parameter(s), %d result(s)\n",
		result.Output.Function.Name, len(result.Output.Function.Params), len(result.Output.Function.Results))
	return nil
}

// loadManifest reads corec.toml from the working directory, falling back to
// project.Default when absent, and applies any --backend/--device overrides.
func loadManifest(cmd *cobra.Command) (project.Manifest, error) {
	manifest, err := project.Load("corec.toml")
	if err != nil {
		return project.Manifest{}, err
	}
	if backend, err := cmd.Flags().GetString("backend"); err == nil && cmd.Flags().Changed("backend") {
		manifest.Backend = backend
	}
	if device, err := cmd.Flags().GetString("device"); err == nil && cmd.Flags().Changed("device") {
		manifest.Device = device
	}
	return manifest, nil
}
