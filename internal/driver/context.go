package driver

import (
	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/preprocess"
)

// StageContext bundles the per-file mutable state threaded through one
// driver invocation's stages into a single explicit value rather than
// scattering it across globals.
type StageContext struct {
	SourcePath string
	Target     arch.Target

	// IncludeDirs and WorkingDir configure the preprocessor; Macros is
	// the file's macro table, seeded once per file.
	IncludeDirs []string
	WorkingDir  string
	Defines     map[string]string
	Macros      *preprocess.Table

	// MaxErrors is the shared per-file diagnostic cap across stages.
	MaxErrors int

	// FlatBinary selects the assembler's flat-binary output mode.
	FlatBinary bool
}

// NewStageContext returns a StageContext with a seeded macro table for
// sourcePath.
func NewStageContext(sourcePath string, target arch.Target) *StageContext {
	return &StageContext{
		SourcePath: sourcePath,
		Target:     target,
		Defines:    map[string]string{},
		Macros:     preprocess.NewSeededTable(nil),
		MaxErrors:  10,
	}
}
