package link

import (
	"fmt"
	"io"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/diag"
	"github.com/xyproto/ae67/internal/symbols"
)

// Options configures one linker invocation.
type Options struct {
	Target     arch.Target
	Kind       pef.Kind
	Fat        bool
	BuildEpoch int64 // stamped verbatim into the BuildEpoch synthetic header
}

// Result is a fully laid-out PEF image ready for Write, plus the
// diagnostics accumulated while resolving it.
type Result struct {
	Image pef.Image
	Diag  *diag.Collector
}

// Link runs the ten-step linker algorithm over objs, producing a
// single PEF image.
func Link(opts Options, objs []ObjectFile) (*Result, error) {
	d := diag.NewCollector("ld64", 0)

	cpuMask := uint32(opts.Target.Arch)
	for _, of := range objs {
		if err := CheckArch(of.Object, opts.Target.Arch, opts.Fat); err != nil {
			d.Add(diag.Diagnostic{Level: diag.Fatal, Category: diag.CategoryArch, Message: err.Error()})
			return &Result{Diag: d}, err
		}
		if opts.Fat {
			cpuMask |= uint32(of.Object.Arch)
		}
	}

	commands, blob, startFound := ingest(objs)

	undef := undefinedSet(commands)
	unresolved := resolve(commands, undef)
	for _, name := range unresolved {
		d.Add(diag.Diagnostic{Level: diag.Error, Category: diag.CategorySymbol, Message: errUndefinedSymbol(name).Error()})
	}

	if opts.Kind == pef.KindExec && !startFound {
		d.Add(diag.Diagnostic{Level: diag.Fatal, Category: diag.CategorySymbol, Message: errNoEntryPoint.Error()})
	}

	commands = dropUndefined(commands)
	commands = synthesize(commands, opts.Target, opts.BuildEpoch)

	laidOut, start, _ := layout(commands)

	dups := duplicates(laidOut)
	for _, name := range dups {
		d.Add(diag.Diagnostic{Level: diag.Error, Category: diag.CategorySymbol, Message: errMultipleSymbols(name).Error()})
	}

	if d.HasErrors() {
		return &Result{Diag: d}, fmt.Errorf("link: %d error(s)", d.ErrorCount())
	}

	img := pef.Image{
		Fat:      opts.Fat,
		Kind:     opts.Kind,
		ABI:      abiCode(opts.Target),
		CPU:      cpuMask,
		SubCPU:   uint32(opts.Target.SubCPU),
		Start:    start,
		Commands: laidOut,
		Blob:     blob,
	}

	return &Result{Image: img, Diag: d}, nil
}

func abiCode(t arch.Target) uint32 {
	// The ABI identifier's canonical form is the synthetic header's
	// name; the container's numeric ABI field packs the same choice
	// into a stable integer for fast comparison without a string scan.
	switch t.ABIName() {
	case "MSFT":
		return 1
	case "SYSV":
		return 2
	case "_NEP":
		return 3
	default:
		return 0
	}
}

// Write streams img to w, performing the seek-back entrypoint fix-up:
// the header is written once with a placeholder Start, the command
// table and blob follow, then the writer seeks back to offset 0 to
// rewrite the header with the real Start value before returning the
// cursor to the end of the file.
// This is the standard trick for patching a previously-written field
// in a streaming writer: seek to the fixed offset, overwrite just that
// field, then seek back to resume sequential writing.
func Write(w io.WriteSeeker, img pef.Image) error {
	if err := pef.WriteHeader(w, pef.Image{Fat: img.Fat, Kind: img.Kind, ABI: img.ABI, CPU: img.CPU, SubCPU: img.SubCPU, Commands: img.Commands}); err != nil {
		return err
	}
	for _, c := range img.Commands {
		if err := pef.WriteCommand(w, c); err != nil {
			return err
		}
	}
	if _, err := w.Write(img.Blob); err != nil {
		return err
	}

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := pef.WriteHeader(w, img); err != nil {
		return err
	}
	_, err := w.Seek(0, io.SeekEnd)
	return err
}
