// Package assemble implements the assembler stage: line validation,
// public_segment/extern_segment directive handling, section
// accounting, dispatch to a per-target encoders.Encoder, and emission
// of an AE object (or a flat binary) with accumulated diagnostics.
//
// A single-pass, opcode-table-driven loop drives codegen: each source
// line dispatches through EncoderFor to whichever target's encoder is
// active, rather than hardcoding one target inline, and emits into an
// AE object instead of a platform container directly.
package assemble

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/container/ae"
	"github.com/xyproto/ae67/internal/diag"
	"github.com/xyproto/ae67/internal/symbols"
)

// Options configures one assembler invocation.
type Options struct {
	Target     arch.Target
	FlatBinary bool
	MaxErrors  int
	SourceName string
}

// Result is the assembler stage's output: exactly one of Object or
// Flat is populated, selected by Options.FlatBinary.
type Result struct {
	Object *ae.Object
	Flat   []byte
	Diag   *diag.Collector
}

type assembler struct {
	opts     Options
	encoder  encoders.Encoder
	diag     *diag.Collector
	code     []byte
	sections []*Section
	cur      *Section
}

// Assemble runs the assembler stage over src, .
func Assemble(opts Options, src io.Reader) (*Result, error) {
	d := diag.NewCollector("asm", opts.MaxErrors)

	encoder, ok := EncoderFor(opts.Target.Arch)
	if !ok {
		d.Add(diag.Diagnostic{
			Level:    diag.Fatal,
			Category: diag.CategoryArch,
			Message:  fmt.Sprintf("no encoder registered for architecture %s", opts.Target.Arch),
		})
		return &Result{Diag: d}, fmt.Errorf("assemble: %s", d.Report(false))
	}

	a := &assembler{opts: opts, encoder: encoder, diag: d}

	scanner := bufio.NewScanner(src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if a.diag.ShouldStop() {
			break
		}
		a.processLine(scanner.Text(), lineNo)
	}
	if err := scanner.Err(); err != nil {
		a.diag.Add(diag.Diagnostic{
			Level:    diag.Fatal,
			Category: diag.CategoryIO,
			Message:  err.Error(),
		})
	}

	a.finalizeCurrentSection()

	if a.diag.HasErrors() {
		return &Result{Diag: a.diag}, fmt.Errorf("assemble: %d error(s)", a.diag.ErrorCount())
	}

	if opts.FlatBinary {
		return &Result{Flat: a.code, Diag: a.diag}, nil
	}

	records := make([]ae.Record, 0, len(a.sections))
	for _, s := range a.sections {
		if s.isExtern {
			records = append(records, ae.Record{
				Name: s.Name,
				Kind: uint64(symbols.LinkerID),
			})
			continue
		}
		records = append(records, ae.Record{
			Name:   s.Name,
			Kind:   uint64(s.Kind),
			Size:   s.Size,
			Flags:  s.Flags,
			Offset: s.startInBlob,
		})
	}

	obj := &ae.Object{
		Arch:    uint8(opts.Target.Arch),
		SubArch: uint8(opts.Target.SubCPU),
		Records: records,
		Code:    a.code,
	}
	return &Result{Object: obj, Diag: a.diag}, nil
}

func (a *assembler) processLine(raw string, lineNo int) {
	line := StripComment(raw)
	if IsBlank(line) {
		return
	}
	if !ValidateLine(line) {
		a.diag.Add(diag.Diagnostic{
			Level:      diag.Error,
			Category:   diag.CategoryLexical,
			Message:    "line contains characters outside the allowed lexical set",
			Location:   diag.Location{File: a.opts.SourceName, Line: lineNo},
			Suggestion: "only alphanumerics and , ( ) \" ' [ ] + _ : @ . are permitted",
		})
		return
	}

	fields := Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "public_segment":
		a.handlePublicSegment(fields, lineNo)
		return
	case "extern_segment":
		a.handleExternSegment(line, fields, lineNo)
		return
	}

	a.handleInstruction(fields, lineNo)
}

func (a *assembler) handlePublicSegment(fields []string, lineNo int) {
	if a.opts.FlatBinary {
		a.diag.Add(diag.Diagnostic{
			Level:    diag.Error,
			Category: diag.CategoryDirective,
			Message:  "public_segment is not permitted in flat-binary mode",
			Location: diag.Location{File: a.opts.SourceName, Line: lineNo},
		})
		return
	}
	if len(fields) < 3 {
		a.diag.Add(diag.Diagnostic{
			Level:      diag.Error,
			Category:   diag.CategoryDirective,
			Message:    "public_segment requires a name and a section suffix",
			Location:   diag.Location{File: a.opts.SourceName, Line: lineNo},
			Suggestion: "public_segment <NAME> .code64|.data64|.zero64",
		})
		return
	}

	name, suffix := fields[1], fields[2]
	kind := symbols.KindFromSuffix(name, suffix)
	if kind == symbols.Invalid {
		a.diag.Add(diag.Diagnostic{
			Level:    diag.Error,
			Category: diag.CategoryDirective,
			Message:  fmt.Sprintf("unrecognized section suffix %q", suffix),
			Location: diag.Location{File: a.opts.SourceName, Line: lineNo},
		})
		return
	}

	a.finalizeCurrentSection()

	s := &Section{Name: name + suffix, Kind: kind, startInBlob: uint64(len(a.code))}
	a.sections = append(a.sections, s)
	a.cur = s
}

func (a *assembler) handleExternSegment(line string, fields []string, lineNo int) {
	if a.opts.FlatBinary {
		a.diag.Add(diag.Diagnostic{
			Level:    diag.Error,
			Category: diag.CategoryDirective,
			Message:  "extern_segment is not permitted in flat-binary mode",
			Location: diag.Location{File: a.opts.SourceName, Line: lineNo},
		})
		return
	}
	if len(fields) < 2 {
		a.diag.Add(diag.Diagnostic{
			Level:      diag.Error,
			Category:   diag.CategoryDirective,
			Message:    "extern_segment requires an identifier",
			Location:   diag.Location{File: a.opts.SourceName, Line: lineNo},
			Suggestion: "extern_segment <NAME>",
		})
		return
	}

	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "extern_segment"))
	name := symbols.UndefinedName(rest)

	a.finalizeCurrentSection()
	a.cur = nil
	a.sections = append(a.sections, &Section{Name: name, Kind: symbols.LinkerID, isExtern: true})
}

func (a *assembler) handleInstruction(fields []string, lineNo int) {
	mnemonic := fields[0]
	operands := fields[1:]

	res, err := a.encoder.Encode(mnemonic, operands)
	if err != nil {
		a.diag.Add(diag.Diagnostic{
			Level:    diag.Error,
			Category: diag.CategoryLexical,
			Message:  err.Error(),
			Location: diag.Location{File: a.opts.SourceName, Line: lineNo},
		})
		return
	}

	a.code = append(a.code, res.Bytes...)
	if a.cur != nil {
		for i := 0; i < res.RegisterRefs; i++ {
			a.cur.RegisterIndex()
		}
	}
}

func (a *assembler) finalizeCurrentSection() {
	if a.cur == nil {
		return
	}
	a.cur.Size = uint64(len(a.code)) - a.cur.startInBlob
	a.cur = nil
}
