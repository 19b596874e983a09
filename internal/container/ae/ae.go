// Package ae implements the Advanced Executable object container: the
// assembler's output and the linker's input.
//
// The on-disk layout is bit-exact and packed, so encoding/binary is
// used directly against fixed-size arrays rather than a generic struct
// tag scheme. binary.Write/Read cover both directions, since AE
// objects must round-trip (decoded back by the linker), unlike a
// write-only container writer.
package ae

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the two-byte AE file signature.
var Magic = [2]byte{'A', 'E'}

const nameSize = 255

// Header is the AE object's fixed leading header, packed, host-native
// (little-endian) byte order.
type Header struct {
	Magic      [2]byte
	Arch       uint8
	SubArch    uint8
	Count      uint64
	Size       uint8
	StartCode  uint64
	CodeSize   uint64
	_          [8]byte // pad
}

// HeaderSize is sizeof(Header) as written on disk; stored back into
// Header.Size during encode and checked on decode.
const HeaderSize = 2 + 1 + 1 + 8 + 1 + 8 + 8 + 8

// RecordHeader is one entry in an AE object's record array.
type RecordHeader struct {
	Name   [nameSize]byte
	Kind   uint64
	Size   uint64
	Flags  uint64
	Offset uint64
	_      [8]byte // pad
}

const RecordHeaderSize = nameSize + 8 + 8 + 8 + 8 + 8

// RelocationAtRuntime is a bit within RecordHeader.Flags.
const RelocationAtRuntime uint64 = 1 << 0

// Record pairs a decoded RecordHeader with its name as a Go string for
// convenient use by the assembler and linker.
type Record struct {
	Name   string
	Kind   uint64
	Size   uint64
	Flags  uint64
	Offset uint64
}

func (r Record) toHeader() RecordHeader {
	var rh RecordHeader
	n := copy(rh.Name[:], r.Name)
	_ = n
	rh.Kind = r.Kind
	rh.Size = r.Size
	rh.Flags = r.Flags
	rh.Offset = r.Offset
	return rh
}

func fromHeader(rh RecordHeader) Record {
	end := bytes.IndexByte(rh.Name[:], 0)
	if end < 0 {
		end = len(rh.Name)
	}
	return Record{
		Name:   string(rh.Name[:end]),
		Kind:   rh.Kind,
		Size:   rh.Size,
		Flags:  rh.Flags,
		Offset: rh.Offset,
	}
}

// Object is the in-memory form of a decoded or to-be-encoded AE file.
type Object struct {
	Arch    uint8
	SubArch uint8
	Records []Record
	Code    []byte
}

// ErrBadMagic is returned by Decode when the file does not begin with
// the AE signature.
var ErrBadMagic = fmt.Errorf("ae: bad magic")

// ErrBadSize is returned by Decode when the header's declared size does
// not match HeaderSize.
var ErrBadSize = fmt.Errorf("ae: bad header size")

// Encode serializes obj as an AE file: header, record array, then the
// code blob, per file layout.
func Encode(w io.Writer, obj Object) error {
	startCode := uint64(HeaderSize) + uint64(len(obj.Records))*uint64(RecordHeaderSize)

	hdr := Header{
		Magic:     Magic,
		Arch:      obj.Arch,
		SubArch:   obj.SubArch,
		Count:     uint64(len(obj.Records)),
		Size:      HeaderSize,
		StartCode: startCode,
		CodeSize:  uint64(len(obj.Code)),
	}

	if err := binary.Write(w, binary.LittleEndian, hdr.Magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.Arch); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.SubArch); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.Count); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.Size); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.StartCode); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.CodeSize); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, make([]byte, 8)); err != nil {
		return err
	}

	for _, rec := range obj.Records {
		rh := rec.toHeader()
		if err := binary.Write(w, binary.LittleEndian, rh.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rh.Kind); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rh.Size); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rh.Flags); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rh.Offset); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, make([]byte, 8)); err != nil {
			return err
		}
	}

	_, err := w.Write(obj.Code)
	return err
}

// Decode parses an AE file from r.
func Decode(r io.Reader) (Object, error) {
	var (
		magic   [2]byte
		archB   uint8
		subArch uint8
		count   uint64
		size    uint8
		start   uint64
		codeSz  uint64
		pad     [8]byte
	)
	for _, f := range []any{&magic, &archB, &subArch, &count, &size, &start, &codeSz, &pad} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return Object{}, fmt.Errorf("ae: reading header: %w", err)
		}
	}
	if magic != Magic {
		return Object{}, ErrBadMagic
	}
	if size != HeaderSize {
		return Object{}, ErrBadSize
	}

	records := make([]Record, 0, count)
	for i := uint64(0); i < count; i++ {
		var rh RecordHeader
		if err := binary.Read(r, binary.LittleEndian, &rh.Name); err != nil {
			return Object{}, fmt.Errorf("ae: reading record %d name: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &rh.Kind); err != nil {
			return Object{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rh.Size); err != nil {
			return Object{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rh.Flags); err != nil {
			return Object{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rh.Offset); err != nil {
			return Object{}, err
		}
		var recPad [8]byte
		if err := binary.Read(r, binary.LittleEndian, &recPad); err != nil {
			return Object{}, err
		}
		records = append(records, fromHeader(rh))
	}

	code := make([]byte, codeSz)
	if _, err := io.ReadFull(r, code); err != nil {
		return Object{}, fmt.Errorf("ae: reading code blob: %w", err)
	}

	return Object{Arch: archB, SubArch: subArch, Records: records, Code: code}, nil
}
