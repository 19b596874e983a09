// Package pef implements the Preferred Executable Format image
// container: the linker's output.
//
// Like internal/container/ae, this uses encoding/binary against fixed
// fields rather than a manual byte-at-a-time writer, since PEF images
// must round-trip bit-exact and the linker seeks backward mid-write to
// patch the entrypoint, which needs an io.WriteSeeker rather than an
// append-only bytes.Buffer writer.
package pef

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Kind enumerates PEFContainer.kind values.
type Kind uint32

const (
	KindExec Kind = iota
	KindDylib
	KindObject
	KindDebug
	KindDriver
)

// ThinMagic and FatMagic are the two container signatures. We pick "Open" as the canonical thin-image magic and
// treat the historical "Joy!" signature as a rejected alternative: it
// is neither written nor accepted.
var (
	ThinMagic = [5]byte{'O', 'p', 'e', 'n', 0}
	FatMagic  = [5]byte{'n', 'e', 'p', 'O', 0}
)

// LinkerVendorID is the fixed linker vendor id stamped into every
// image produced by this toolchain.
const LinkerVendorID uint32 = 0x41453637 // "AE67" packed as bytes

// FormatVersion is the PEF v2 dialect version.
const FormatVersion uint32 = 2

const nameSize = 255

// Container mirrors the PEF image's fixed container header.
type Container struct {
	Magic    [5]byte
	Linker   uint32
	Version  uint32
	Kind     uint32
	ABI      uint32
	CPU      uint32
	SubCPU   uint32
	Start    uint64
	HdrSize  uint64
	Count    uint64
	Checksum uint32
}

// HeaderSize is sizeof(Container) as written on disk.
const HeaderSize = 5 + 4 + 4 + 4 + 4 + 4 + 4 + 8 + 8 + 8 + 4

// CommandHeader mirrors one entry in the PEF command header array.
type CommandHeader struct {
	Name            [nameSize]byte
	CPU             uint32
	SubCPU          uint32
	Flags           uint32
	Kind            uint16
	Offset          uint64
	OffsetSize      uint64
	VirtualAddress  uint64
	VirtualSize     uint64
}

// CommandHeaderSize is sizeof(CommandHeader) as written on disk.
const CommandHeaderSize = nameSize + 4 + 4 + 4 + 2 + 8 + 8 + 8 + 8

// Command is the decoded, string-named form of a CommandHeader.
type Command struct {
	Name           string
	CPU            uint32
	SubCPU         uint32
	Flags          uint32
	Kind           uint16
	Offset         uint64
	OffsetSize     uint64
	VirtualAddress uint64
	VirtualSize    uint64
}

func (c Command) toHeader() CommandHeader {
	var ch CommandHeader
	copy(ch.Name[:], c.Name)
	ch.CPU = c.CPU
	ch.SubCPU = c.SubCPU
	ch.Flags = c.Flags
	ch.Kind = c.Kind
	ch.Offset = c.Offset
	ch.OffsetSize = c.OffsetSize
	ch.VirtualAddress = c.VirtualAddress
	ch.VirtualSize = c.VirtualSize
	return ch
}

func fromHeader(ch CommandHeader) Command {
	end := bytes.IndexByte(ch.Name[:], 0)
	if end < 0 {
		end = len(ch.Name)
	}
	return Command{
		Name:           string(ch.Name[:end]),
		CPU:            ch.CPU,
		SubCPU:         ch.SubCPU,
		Flags:          ch.Flags,
		Kind:           ch.Kind,
		Offset:         ch.Offset,
		OffsetSize:     ch.OffsetSize,
		VirtualAddress: ch.VirtualAddress,
		VirtualSize:    ch.VirtualSize,
	}
}

// Image is the in-memory, decoded form of a PEF file.
type Image struct {
	Fat      bool
	Kind     Kind
	ABI      uint32
	CPU      uint32
	SubCPU   uint32
	Start    uint64
	Checksum uint32
	Commands []Command
	Blob     []byte // payload bytes following the command table
}

// ErrBadMagic is returned by Decode on an unrecognized signature.
var ErrBadMagic = fmt.Errorf("pef: bad magic")

// WriteHeader writes just the Container header at the writer's current
// position (used both for the initial write and the entrypoint
// fix-up seek-back the linker performs after laying out the image).
func WriteHeader(w io.Writer, img Image) error {
	magic := ThinMagic
	if img.Fat {
		magic = FatMagic
	}
	fields := []any{
		magic,
		LinkerVendorID,
		FormatVersion,
		uint32(img.Kind),
		img.ABI,
		img.CPU,
		img.SubCPU,
		img.Start,
		uint64(HeaderSize),
		uint64(len(img.Commands)),
		img.Checksum,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommand writes a single CommandHeader to w.
func WriteCommand(w io.Writer, c Command) error {
	ch := c.toHeader()
	fields := []any{
		ch.Name, ch.CPU, ch.SubCPU, ch.Flags, ch.Kind,
		ch.Offset, ch.OffsetSize, ch.VirtualAddress, ch.VirtualSize,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes img as a complete PEF file: header, command table,
// then the blob.
func Encode(w io.Writer, img Image) error {
	if err := WriteHeader(w, img); err != nil {
		return err
	}
	for _, c := range img.Commands {
		if err := WriteCommand(w, c); err != nil {
			return err
		}
	}
	_, err := w.Write(img.Blob)
	return err
}

// Decode parses a PEF file from r.
func Decode(r io.Reader) (Image, error) {
	var magic [5]byte
	var linker, version, kind, abi, cpu, subCPU uint32
	var start, hdrSize, count uint64
	var checksum uint32

	for _, f := range []any{&magic, &linker, &version, &kind, &abi, &cpu, &subCPU, &start, &hdrSize, &count, &checksum} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return Image{}, fmt.Errorf("pef: reading header: %w", err)
		}
	}

	var fat bool
	switch magic {
	case ThinMagic:
		fat = false
	case FatMagic:
		fat = true
	default:
		return Image{}, ErrBadMagic
	}
	if hdrSize != HeaderSize {
		return Image{}, fmt.Errorf("pef: unexpected header size %d", hdrSize)
	}

	commands := make([]Command, 0, count)
	for i := uint64(0); i < count; i++ {
		var ch CommandHeader
		for _, f := range []any{&ch.Name, &ch.CPU, &ch.SubCPU, &ch.Flags, &ch.Kind,
			&ch.Offset, &ch.OffsetSize, &ch.VirtualAddress, &ch.VirtualSize} {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return Image{}, fmt.Errorf("pef: reading command %d: %w", i, err)
			}
		}
		commands = append(commands, fromHeader(ch))
	}

	blob, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("pef: reading blob: %w", err)
	}

	return Image{
		Fat:      fat,
		Kind:     Kind(kind),
		ABI:      abi,
		CPU:      cpu,
		SubCPU:   subCPU,
		Start:    start,
		Checksum: checksum,
		Commands: commands,
		Blob:     blob,
	}, nil
}

// FindEntryPoint returns the command header whose name contains both
// "__ImageStart" and ".code64", or false if
// none exists.
func FindEntryPoint(cmds []Command) (Command, bool) {
	for _, c := range cmds {
		if containsEntryPoint(c.Name) {
			return c, true
		}
	}
	return Command{}, false
}

func containsEntryPoint(name string) bool {
	return strings.Contains(name, "__ImageStart") && strings.Contains(name, ".code64")
}
