// Package driver orchestrates the toolchain's stages: preprocess,
// compile (front-end stub), assemble, and link.
//
// An enum-plus-history-plus-panic-on-invalid-transition shape keeps
// the four file-to-file stages honest: an out-of-order AdvanceTo call
// is a driver bug, not a recoverable condition, so it panics with the
// stage history attached rather than silently continuing.
package driver

import (
	"fmt"
	"os"
)

// Stage names one point in the driver's pipeline.
type Stage int

const (
	StageInit Stage = iota
	StagePreprocess
	StageCompile
	StageAssemble
	StageLink
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "initialization"
	case StagePreprocess:
		return "preprocess"
	case StageCompile:
		return "compile"
	case StageAssemble:
		return "assemble"
	case StageLink:
		return "link"
	case StageComplete:
		return "complete"
	default:
		return fmt.Sprintf("unknown stage %d", int(s))
	}
}

// VerboseMode gates the pipeline's stage-transition tracing.
var VerboseMode = false

// Pipeline tracks the current stage of one driver invocation and
// rejects out-of-order transitions.
type Pipeline struct {
	current Stage
	history []Stage
	enabled bool
}

// NewPipeline returns a Pipeline ready to advance from StageInit.
func NewPipeline() *Pipeline {
	return &Pipeline{current: StageInit, history: []Stage{StageInit}, enabled: true}
}

var validTransitions = map[Stage]Stage{
	StageInit:       StagePreprocess,
	StagePreprocess: StageCompile,
	StageCompile:    StageAssemble,
	StageAssemble:   StageLink,
	StageLink:       StageComplete,
}

// AdvanceTo moves the pipeline to stage, panicking on an invalid
// transition.
func (p *Pipeline) AdvanceTo(stage Stage) {
	if !p.enabled {
		p.current = stage
		return
	}

	if validTransitions[p.current] != stage {
		fmt.Fprintf(os.Stderr, "ERROR: invalid stage transition: %s -> %s\n", p.current, stage)
		fmt.Fprintf(os.Stderr, "stage history:\n")
		for i, s := range p.history {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
		panic(fmt.Sprintf("invalid pipeline transition: %s -> %s", p.current, stage))
	}

	p.current = stage
	p.history = append(p.history, stage)

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "PIPELINE: advanced to stage %s\n", stage)
	}
}

// CurrentStage returns the pipeline's current stage.
func (p *Pipeline) CurrentStage() Stage { return p.current }

// ValidateStage panics if the pipeline is not currently at expected;
// call it as a guard before a stage-specific operation runs.
func (p *Pipeline) ValidateStage(expected Stage, operation string) {
	if !p.enabled {
		return
	}
	if p.current != expected {
		fmt.Fprintf(os.Stderr, "ERROR: attempted %q at wrong stage (expected %s, at %s)\n", operation, expected, p.current)
		panic(fmt.Sprintf("invalid operation %q at stage %s", operation, p.current))
	}
}
