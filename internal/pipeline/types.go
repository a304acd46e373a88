// Package pipeline orchestrates the five-stage compilation pipeline of
// §4 end to end: simplify (preserve substitution rules) -> linearize ->
// transpose -> simplify (no preserve) -> Imp lowering, reporting progress
// through an optional ProgressSink and timing each stage with
// corec/internal/observ.
package pipeline

import "time"

// Stage names a pipeline stage. Run emits events for the five stages from
// StageSimplify1 to StageLower; StageEmbed is listed in Stages, but Run
// emits no event for it.
type Stage string

const (
	StageEmbed     Stage = "embed"
	StageSimplify1 Stage = "simplify"
	StageLinearize Stage = "linearize"
	StageTranspose Stage = "transpose"
	StageSimplify2 Stage = "simplify2"
	StageLower     Stage = "lower"
)

// Stages lists the fixed pipeline order, used to seed a ProgressSink
// consumer's initial item list the way buildpipeline's caller lists files.
var Stages = []Stage{StageEmbed, StageSimplify1, StageLinearize, StageTranspose, StageSimplify2, StageLower}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports the start, end, or failure of one pipeline stage for one
// top-level function being compiled.
type Event struct {
	Function string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events; Run is a no-op producer when nil.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel, mirroring the teacher's
// buildpipeline.ChannelSink so the UI model can consume pipeline.Event the
// same way it used to consume buildpipeline.Event.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}
