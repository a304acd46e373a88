package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"corec/internal/core"
	"corec/internal/driver"
	"corec/internal/interp"
	"corec/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <block.msgpack>",
	Short: "lower a SourceBlock and execute it with the reference interpreter",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("args", "", "comma-separated scalar arguments, in parameter order")
}

func runRun(cmd *cobra.Command, args []string) error {
	argsFlag, err := cmd.Flags().GetString("args")
	if err != nil {
		return err
	}

	block, err := driver.DecodeSourceBlockFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	values, err := parseArgs(argsFlag, block.Params)
	if err != nil {
		return err
	}

	req := pipeline.Request{Function: block.Name, Block: block}
	result, err := runPipeline(context.Background(), cmd, "run", req)
	if err != nil {
		return err
	}

	out, err := interp.Run(context.Background(), result.Output.Function, values)
	if err != nil {
		return fmt.Errorf("executing %s: %w", block.Name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s(%s) =", block.Name, argsFlag)
	for _, v := range out {
		fmt.Fprintf(cmd.OutOrStdout(), " %s", formatValue(v))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// parseArgs splits a comma-separated argument string into interp.Value,
// typed by each parameter's base type so an integer literal like "3" is
// parsed as a float into Value.F64 when the parameter is float-typed.
func parseArgs(raw string, params []core.Binder) ([]interp.Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if len(params) != 0 {
			return nil, fmt.Errorf("%s expects %d argument(s), got 0", "block", len(params))
		}
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != len(params) {
		return nil, fmt.Errorf("expected %d argument(s), got %d", len(params), len(parts))
	}
	out := make([]interp.Value, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		base := core.BaseInt64
		if params[i].Ann != nil && params[i].Ann.Kind == core.AtomTC && params[i].Ann.TCAtom.TC == core.TCBaseType {
			base = params[i].Ann.TCAtom.Base
		}
		switch base {
		case core.BaseFloat64, core.BaseFloat32:
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = interp.Value{Base: base, F64: f}
		default:
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = interp.Value{Base: base, I64: n}
		}
	}
	return out, nil
}

func formatValue(v interp.Value) string {
	switch v.Base {
	case core.BaseFloat64, core.BaseFloat32:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	default:
		return strconv.FormatInt(v.I64, 10)
	}
}
