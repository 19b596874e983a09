// Package diag implements the toolchain's shared diagnostic type: a
// leveled, categorized error with source location, an optional
// suggestion/help text, and a colorized or plain renderer.
//
// One shared diagnostic shape ("toolchain-stage diagnostic" rather
// than "compiler error") lets the preprocessor, assembler, and linker
// stages all report through the same collector instead of each
// inventing their own.
package diag

import (
	"fmt"
	"strings"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	Warning Level = iota
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// Category classifies the kind of failure: six error kinds shared by
// the toolchain stages, plus a semantic category for the compiler
// front end.
type Category int

const (
	CategoryIO Category = iota
	CategoryFormat
	CategoryArch
	CategoryLexical
	CategorySymbol
	CategoryDirective
	CategorySemantic
)

func (c Category) String() string {
	switch c {
	case CategoryIO:
		return "io"
	case CategoryFormat:
		return "format"
	case CategoryArch:
		return "arch"
	case CategoryLexical:
		return "lexical"
	case CategorySymbol:
		return "symbol"
	case CategoryDirective:
		return "directive"
	case CategorySemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Location is a position within a source or assembly text file.
type Location struct {
	File string
	Line int
}

func (loc Location) String() string {
	if loc.File == "" {
		return fmt.Sprintf("%d", loc.Line)
	}
	if loc.Line == 0 {
		return loc.File
	}
	return fmt.Sprintf("%s:%d", loc.File, loc.Line)
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Stage      string // "pp", "asm", "ld64", ...
	Level      Level
	Category   Category
	Message    string
	Location   Location
	Suggestion string
	HelpText   string
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Stage, d.Location, d.Message)
}

// Format renders d as a human-readable, optionally colorized message.
func (d Diagnostic) Format(useColor bool) string {
	var sb strings.Builder

	if d.Stage != "" {
		sb.WriteString(d.Stage)
		sb.WriteString(": ")
	}
	if useColor {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString(d.Level.String())
	sb.WriteString(": ")
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	if d.Location.File != "" || d.Location.Line != 0 {
		if useColor {
			sb.WriteString("\033[1;34m")
		}
		sb.WriteString("  --> ")
		sb.WriteString(d.Location.String())
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if d.Suggestion != "" {
		if useColor {
			sb.WriteString("\033[1;32m")
		}
		sb.WriteString("   help: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(d.Suggestion)
		sb.WriteString("\n")
	}

	if d.HelpText != "" {
		if useColor {
			sb.WriteString("\033[1;36m")
		}
		sb.WriteString("   note: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(d.HelpText)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Collector accumulates diagnostics over the lifetime of one stage
// invocation and enforces the per-stage error cap.
type Collector struct {
	Stage    string
	MaxErrors int

	errors   []Diagnostic
	warnings []Diagnostic
}

// NewCollector creates a Collector for the named stage. maxErrors <= 0
// defaults to 10, this toolchain's default error limit.
func NewCollector(stage string, maxErrors int) *Collector {
	if maxErrors <= 0 {
		maxErrors = 10
	}
	return &Collector{Stage: stage, MaxErrors: maxErrors}
}

// Add records a diagnostic, classifying it as an error/fatal or a
// warning by Level.
func (c *Collector) Add(d Diagnostic) {
	d.Stage = c.Stage
	if d.Level == Fatal || d.Level == Error {
		c.errors = append(c.errors, d)
	} else {
		c.warnings = append(c.warnings, d)
	}
}

// HasErrors reports whether any error- or fatal-level diagnostic was
// recorded.
func (c *Collector) HasErrors() bool { return len(c.errors) > 0 }

// HasFatal reports whether any fatal-level diagnostic was recorded.
func (c *Collector) HasFatal() bool {
	for _, e := range c.errors {
		if e.Level == Fatal {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error/fatal diagnostics recorded.
func (c *Collector) ErrorCount() int { return len(c.errors) }

// ShouldStop reports whether the stage has hit its error cap and must
// abort.
func (c *Collector) ShouldStop() bool { return len(c.errors) >= c.MaxErrors }

// Report renders every recorded diagnostic followed by a summary line.
func (c *Collector) Report(useColor bool) string {
	var sb strings.Builder
	for i, e := range c.errors {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.Format(useColor))
	}
	for i, w := range c.warnings {
		if i > 0 || len(c.errors) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(w.Format(useColor))
	}
	if len(c.errors) > 0 || len(c.warnings) > 0 {
		sb.WriteString(fmt.Sprintf("\n%d error(s), %d warning(s)\n", len(c.errors), len(c.warnings)))
	}
	return sb.String()
}
