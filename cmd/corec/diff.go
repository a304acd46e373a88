package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"corec/internal/core"
	"corec/internal/driver"
	"corec/internal/pipeline"
)

var diffCmd = &cobra.Command{
	Use:   "diff <block.msgpack>",
	Short: "linearize and transpose a SourceBlock with respect to one parameter",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().String("wrt", "", "name of the parameter to differentiate with respect to")
	_ = diffCmd.MarkFlagRequired("wrt")
}

func runDiff(cmd *cobra.Command, args []string) error {
	wrt, err := cmd.Flags().GetString("wrt")
	if err != nil {
		return err
	}

	block, err := driver.DecodeSourceBlockFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var target *core.Name
	for i := range block.Params {
		if block.Params[i].Name.Hint == wrt {
			target = &block.Params[i].Name
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no parameter named %q in %s", wrt, block.Name)
	}

	req := pipeline.Request{Function: block.Name, Block: block, DiffWrt: target}
	result, err := runPipeline(context.Background(), cmd, "diff", req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "differentiated %s wrt %s: %d result(s)\n",
		result.Output.Function.Name, wrt, len(result.Output.Function.Results))
	return nil
}
