package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"corec/internal/pipeline"
	"corec/internal/ui"
)

// logSink prints one line per stage transition, used when stdout isn't a
// terminal or --quiet was passed, mirroring the teacher's non-UI fallback.
type logSink struct {
	quiet bool
}

func (s logSink) OnEvent(ev pipeline.Event) {
	if s.quiet {
		return
	}
	switch ev.Status {
	case pipeline.StatusWorking:
		fmt.Fprintf(os.Stderr, "%s: %s...\n", ev.Function, ev.Stage)
	case pipeline.StatusDone:
		fmt.Fprintf(os.Stderr, "%s: %s done (%s)\n", ev.Function, ev.Stage, ev.Elapsed)
	case pipeline.StatusError:
		fmt.Fprintf(os.Stderr, "%s: %s failed: %v\n", ev.Function, ev.Stage, ev.Err)
	}
}

// runPipeline executes req, driving the Bubble Tea progress model when
// stdout is a terminal and --quiet wasn't passed, or a plain log sink
// otherwise, grounded on the teacher's ui_runner.go.
func runPipeline(ctx context.Context, cmd *cobra.Command, title string, req pipeline.Request) (pipeline.Result, error) {
	quiet, _ := cmd.Flags().GetBool("quiet")
	if quiet {
		return pipeline.Run(ctx, req, logSink{quiet: true})
	}
	if !isTerminal(os.Stdout) {
		return pipeline.Run(ctx, req, logSink{})
	}

	events := make(chan pipeline.Event, 256)
	type outcome struct {
		result pipeline.Result
		err    error
	}
	outcomeCh := make(chan outcome, 1)

	go func() {
		res, err := pipeline.Run(ctx, req, pipeline.ChannelSink{Ch: events})
		outcomeCh <- outcome{res, err}
		close(events)
	}()

	model := ui.NewProgressModel(title, []string{req.Function}, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	out := <-outcomeCh
	if out.err != nil {
		return out.result, out.err
	}
	return out.result, uiErr
}

func colorEnabled(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func warnColor(cmd *cobra.Command) *color.Color {
	if colorEnabled(cmd) {
		return color.New(color.FgYellow)
	}
	return color.New(color.Reset)
}
