package link

import (
	"bytes"
	"testing"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/container/ae"
	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/symbols"
)

func objectFile(obj ae.Object) ObjectFile {
	return ObjectFile{Path: "<memory>", Object: obj}
}

func amd64Opts(kind pef.Kind) Options {
	return Options{
		Target:     arch.Target{Arch: arch.AMD64, SubCPU: arch.SubCPUGeneric},
		Kind:       kind,
		BuildEpoch: 1700000000,
	}
}

// S1: an empty executable — one object defining __ImageStart.code64
// and a single nop instruction.
func TestLinkEmptyExecutable(t *testing.T) {
	obj := ae.Object{
		Arch: uint8(arch.AMD64),
		Records: []ae.Record{
			{Name: symbols.EntryPoint + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
		},
		Code: []byte{0x90},
	}

	res, err := Link(amd64Opts(pef.KindExec), []ObjectFile{objectFile(obj)})
	if err != nil {
		t.Fatalf("Link: %v (%s)", err, res.Diag.Report(false))
	}

	// one code header + five synthetic headers.
	if len(res.Image.Commands) != 6 {
		t.Fatalf("Commands = %d, want 6", len(res.Image.Commands))
	}

	entry, ok := pef.FindEntryPoint(res.Image.Commands)
	if !ok {
		t.Fatal("expected to find the entrypoint command")
	}
	if res.Image.Start != entry.Offset {
		t.Fatalf("Image.Start = %d, want entrypoint offset %d", res.Image.Start, entry.Offset)
	}
}

// S2: duplicate symbol — two objects each define public_segment foo.
func TestLinkDuplicateSymbol(t *testing.T) {
	def := func() ae.Object {
		return ae.Object{
			Arch: uint8(arch.AMD64),
			Records: []ae.Record{
				{Name: "foo" + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
			},
			Code: []byte{0x90},
		}
	}

	_, err := Link(amd64Opts(pef.KindDylib), []ObjectFile{objectFile(def()), objectFile(def())})
	if err == nil {
		t.Fatal("expected a duplicate-symbol error")
	}
}

// S3: unresolved reference — object A references extern_segment bar
// and no object defines it.
func TestLinkUnresolvedReference(t *testing.T) {
	objA := ae.Object{
		Arch: uint8(arch.AMD64),
		Records: []ae.Record{
			{Name: symbols.UndefinedName("bar"), Kind: uint64(symbols.LinkerID)},
			{Name: symbols.EntryPoint + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
		},
		Code: []byte{0x90},
	}

	_, err := Link(amd64Opts(pef.KindExec), []ObjectFile{objectFile(objA)})
	if err == nil {
		t.Fatal("expected an undefined-symbol error")
	}
}

func TestLinkResolvedReferenceAcrossObjects(t *testing.T) {
	objA := ae.Object{
		Arch: uint8(arch.AMD64),
		Records: []ae.Record{
			{Name: symbols.UndefinedName("bar"), Kind: uint64(symbols.LinkerID)},
			{Name: symbols.EntryPoint + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
		},
		Code: []byte{0x90},
	}
	objB := ae.Object{
		Arch: uint8(arch.AMD64),
		Records: []ae.Record{
			{Name: "bar" + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
		},
		Code: []byte{0x90},
	}

	res, err := Link(amd64Opts(pef.KindExec), []ObjectFile{objectFile(objA), objectFile(objB)})
	if err != nil {
		t.Fatalf("Link: %v (%s)", err, res.Diag.Report(false))
	}
}

// S4: FAT binary — two objects for different architectures linked
// together with Fat enabled.
func TestLinkFatBinary(t *testing.T) {
	objAMD64 := ae.Object{
		Arch: uint8(arch.AMD64),
		Records: []ae.Record{
			{Name: symbols.EntryPoint + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
		},
		Code: []byte{0x90},
	}
	objARM64 := ae.Object{
		Arch: uint8(arch.ARM64),
		Records: []ae.Record{
			{Name: "other" + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 4, Offset: 0},
		},
		Code: []byte{0x1f, 0x20, 0x03, 0xd5},
	}

	opts := amd64Opts(pef.KindExec)
	opts.Fat = true

	res, err := Link(opts, []ObjectFile{objectFile(objAMD64), objectFile(objARM64)})
	if err != nil {
		t.Fatalf("Link: %v (%s)", err, res.Diag.Report(false))
	}
	if !res.Image.Fat {
		t.Fatal("expected a FAT image")
	}
}

func TestLinkMismatchedArchWithoutFat(t *testing.T) {
	obj := ae.Object{Arch: uint8(arch.ARM64)}
	_, err := Link(amd64Opts(pef.KindExec), []ObjectFile{objectFile(obj)})
	if err == nil {
		t.Fatal("expected an architecture-mismatch error when fat mode is disabled")
	}
}

func TestWriteRoundTripWithSeekBackFixup(t *testing.T) {
	obj := ae.Object{
		Arch: uint8(arch.AMD64),
		Records: []ae.Record{
			{Name: symbols.EntryPoint + symbols.SuffixCode, Kind: uint64(symbols.Code), Size: 1, Offset: 0},
		},
		Code: []byte{0x90},
	}
	res, err := Link(amd64Opts(pef.KindExec), []ObjectFile{objectFile(obj)})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	buf := &seekBuffer{}
	if err := Write(buf, res.Image); err != nil {
		t.Fatalf("Write: %v", err)
	}

	decoded, err := pef.Decode(bytes.NewReader(buf.data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Start != res.Image.Start {
		t.Fatalf("decoded Start = %d, want %d", decoded.Start, res.Image.Start)
	}
}

// seekBuffer is a minimal in-memory io.WriteSeeker for testing Write's
// seek-back fix-up without touching the filesystem.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0: // io.SeekStart
		b.pos = int(offset)
	case 2: // io.SeekEnd
		b.pos = len(b.data) + int(offset)
	default:
		b.pos += int(offset)
	}
	return int64(b.pos), nil
}
