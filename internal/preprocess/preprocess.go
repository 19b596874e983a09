package preprocess

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/ae67/internal/diag"
)

// Options configures one preprocessor invocation.
type Options struct {
	IncludeDirs []string
	WorkingDir  string
	Defines     map[string]string
	SourceName  string // used only for diagnostics/location
}

// Engine is the per-invocation mutable state: the macro table, the
// conditional stack, and the include-cookie set.
type Engine struct {
	Macros     *Table
	cond       condStack
	included   map[string]bool
	opts       Options
	Diagnostic *diag.Collector
}

// NewEngine creates an Engine seeded per Options.
func NewEngine(opts Options) *Engine {
	return &Engine{
		Macros:     NewSeededTable(opts.Defines),
		included:   make(map[string]bool),
		opts:       opts,
		Diagnostic: diag.NewCollector("pp", 10),
	}
}

// Preprocess runs the full preprocessor pass over src, returning the
// expanded output. This is the package's top-level contract entry
// point.
func Preprocess(opts Options, src io.Reader) ([]byte, *diag.Collector, error) {
	e := NewEngine(opts)
	var out strings.Builder
	if err := e.run(src, &out); err != nil {
		return nil, e.Diagnostic, err
	}
	if err := e.checkBalanced(); err != nil {
		return nil, e.Diagnostic, err
	}
	return []byte(out.String()), e.Diagnostic, nil
}

// run is the line-at-a-time pull loop: a lazy sequence of output lines
// produced from an input line iterator, with the conditional stack as
// the iterator's explicit mutable state.
func (e *Engine) run(src io.Reader, out *strings.Builder) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if err := e.processLine(line, lineNo, out); err != nil {
			return err
		}
		if e.Diagnostic.ShouldStop() {
			return fmt.Errorf("pp: too many errors")
		}
	}
	return scanner.Err()
}

// checkBalanced verifies the conditional stack unwound to depth zero by
// end of input. Only checked once, at the top level, since the
// stack is shared across nested #include files by design.
func (e *Engine) checkBalanced() error {
	if e.cond.depth() != 0 {
		e.Diagnostic.Add(diag.Diagnostic{
			Level:    diag.Fatal,
			Category: diag.CategoryDirective,
			Message:  "unbalanced #if/#endif: unwound through end of input",
			Location: diag.Location{File: e.opts.SourceName},
		})
		return fmt.Errorf("pp: unbalanced conditional")
	}
	return nil
}

func (e *Engine) processLine(line string, lineNo int, out *strings.Builder) error {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return e.processDirective(trimmed[1:], lineNo, out)
	}

	if !e.cond.Active() {
		return nil
	}

	out.WriteString(e.Macros.Expand(line))
	out.WriteByte('\n')
	return nil
}

func (e *Engine) processDirective(rest string, lineNo int, out *strings.Builder) error {
	rest = strings.TrimLeft(rest, " \t")
	word, tail := splitWord(rest)

	// #else and #endif must be processed even while inactive, to track
	// nesting correctly.
	switch word {
	case "else":
		e.cond.toggleElse()
		return nil
	case "endif":
		e.cond.pop()
		return nil
	}

	active := e.cond.Active()

	switch word {
	case "define":
		if active {
			e.Macros.Define(parseDefine(tail))
		}
		return nil
	case "ifdef":
		name := strings.TrimSpace(tail)
		e.cond.push(Frame{Defined: e.Macros.Has(name), Inactive: !e.Macros.Has(name)})
		return nil
	case "ifndef":
		name := strings.TrimSpace(tail)
		defined := e.Macros.Has(name)
		e.cond.push(Frame{Defined: !defined, Inactive: defined})
		return nil
	case "if":
		truth := evalIf(e.Macros, tail)
		e.cond.push(Frame{Defined: truth, Inactive: !truth})
		return nil
	case "include":
		if active {
			return e.processInclude(strings.TrimSpace(tail), lineNo, out)
		}
		return nil
	case "pragma":
		if strings.TrimSpace(tail) == "once" {
			if active {
				e.included[e.opts.SourceName] = true
			}
			return nil
		}
		e.warnUnknown(word, lineNo)
		return nil
	case "warning":
		if active {
			fmt.Fprintln(os.Stdout, strings.TrimSpace(tail))
		}
		return nil
	case "error":
		if active {
			e.Diagnostic.Add(diag.Diagnostic{
				Level:    diag.Fatal,
				Category: diag.CategoryDirective,
				Message:  strings.TrimSpace(tail),
				Location: diag.Location{File: e.opts.SourceName, Line: lineNo},
			})
			return fmt.Errorf("pp: #error: %s", strings.TrimSpace(tail))
		}
		return nil
	default:
		e.warnUnknown(word, lineNo)
		return nil
	}
}

func (e *Engine) warnUnknown(word string, lineNo int) {
	e.Diagnostic.Add(diag.Diagnostic{
		Level:    diag.Warning,
		Category: diag.CategoryDirective,
		Message:  fmt.Sprintf("unknown directive #%s", word),
		Location: diag.Location{File: e.opts.SourceName, Line: lineNo},
	})
}

// processInclude resolves and inlines one #include directive. The raw
// text following #include is the idempotency cookie: a
// cookie already seen is skipped, which implements #pragma once
// implicitly through the same mechanism.
func (e *Engine) processInclude(cookie string, lineNo int, out *strings.Builder) error {
	if e.included[cookie] {
		return nil
	}

	var path string
	var angled bool
	switch {
	case strings.HasPrefix(cookie, "<") && strings.HasSuffix(cookie, ">"):
		path = cookie[1 : len(cookie)-1]
		angled = true
	case strings.HasPrefix(cookie, "\"") && strings.HasSuffix(cookie, "\""):
		path = cookie[1 : len(cookie)-1]
	default:
		path = cookie
	}

	var full string
	if angled {
		found := false
		for _, dir := range e.opts.IncludeDirs {
			candidate := filepath.Join(dir, path)
			if _, err := os.Stat(candidate); err == nil {
				full = candidate
				found = true
				break
			}
		}
		if !found {
			e.Diagnostic.Add(diag.Diagnostic{
				Level:    diag.Error,
				Category: diag.CategoryIO,
				Message:  fmt.Sprintf("include file not found: %s", path),
				Location: diag.Location{File: e.opts.SourceName, Line: lineNo},
			})
			return fmt.Errorf("pp: include not found: %s", path)
		}
	} else {
		full = filepath.Join(e.opts.WorkingDir, path)
	}

	f, err := os.Open(full)
	if err != nil {
		e.Diagnostic.Add(diag.Diagnostic{
			Level:    diag.Error,
			Category: diag.CategoryIO,
			Message:  fmt.Sprintf("cannot open include %s: %v", full, err),
			Location: diag.Location{File: e.opts.SourceName, Line: lineNo},
		})
		return err
	}
	defer f.Close()

	e.included[cookie] = true

	return e.run(f, out)
}

func splitWord(s string) (word, rest string) {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
