package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"corec/internal/driver"
	"corec/internal/pipeline"
)

var benchCmd = &cobra.Command{
	Use:   "bench <block.msgpack>",
	Short: "run the pipeline repeatedly and report per-stage timings",
	Args:  cobra.ExactArgs(1),
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().Int("iterations", 10, "number of pipeline runs to average over")
}

func runBench(cmd *cobra.Command, args []string) error {
	iterations, err := cmd.Flags().GetInt("iterations")
	if err != nil {
		return err
	}
	if iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1")
	}

	block, err := driver.DecodeSourceBlockFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	totals := map[string]float64{}
	order := []string{}
	var grandTotal float64

	for i := 0; i < iterations; i++ {
		req := pipeline.Request{Function: block.Name, Block: block}
		result, err := pipeline.Run(context.Background(), req, nil)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		for _, p := range result.Timings.Phases {
			if _, seen := totals[p.Name]; !seen {
				order = append(order, p.Name)
			}
			totals[p.Name] += p.DurationMS
		}
		grandTotal += result.Timings.TotalMS
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bench %s over %d iteration(s):\n", block.Name, iterations)
	for _, name := range order {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %8.3f ms avg\n", name, totals[name]/float64(iterations))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %8.3f ms avg\n", "total", grandTotal/float64(iterations))
	return nil
}
