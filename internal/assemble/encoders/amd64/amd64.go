// Package amd64 implements the x86_64 instruction encoder: REX-prefix
// computation from register index >= 8 (REX.B/REX.R bit tests),
// ModR/M byte assembly, and variable-length opcode emission with a
// 64-bit immediate for movi and a 32-bit displacement for jmp/call.
package amd64

import (
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/numlit"
	"golang.org/x/sys/unix"
)

// Encoder implements encoders.Encoder for AMD64.
type Encoder struct{}

// New returns an AMD64 Encoder.
func New() *Encoder { return &Encoder{} }

// RegisterLimit is 16 general-purpose registers on AMD64.
func (e *Encoder) RegisterLimit() int { return 16 }

var opcodeTable = map[string]encoders.OpcodeEntry{
	"nop":     {Mnemonic: "nop", Opcode: 0x90, Form: encoders.NoArgs},
	"ret":     {Mnemonic: "ret", Opcode: 0xC3, Form: encoders.NoArgs},
	"syscall": {Mnemonic: "syscall", Opcode: 0x0F05, Form: encoders.Syscall},
	"mov":     {Mnemonic: "mov", Opcode: 0x89, Form: encoders.RegToReg},
	"add":     {Mnemonic: "add", Opcode: 0x01, Form: encoders.RegToReg},
	"sub":     {Mnemonic: "sub", Opcode: 0x29, Form: encoders.RegToReg},
	"cmp":     {Mnemonic: "cmp", Opcode: 0x39, Form: encoders.RegToReg},
	"and":     {Mnemonic: "and", Opcode: 0x21, Form: encoders.RegToReg},
	"or":      {Mnemonic: "or", Opcode: 0x09, Form: encoders.RegToReg},
	"xor":     {Mnemonic: "xor", Opcode: 0x31, Form: encoders.RegToReg},
	"movi":    {Mnemonic: "movi", Opcode: 0xB8, Form: encoders.Immediate},
	"jmp":     {Mnemonic: "jmp", Opcode: 0xE9, Form: encoders.Jump},
	"call":    {Mnemonic: "call", Opcode: 0xE8, Form: encoders.BAddr},
}

// SyscallNumber looks up the AMD64 Linux syscall number for name,
// sourced from golang.org/x/sys/unix's generated constant tables
//.
func SyscallNumber(name string) (uint64, bool) {
	switch name {
	case "read":
		return unix.SYS_READ, true
	case "write":
		return unix.SYS_WRITE, true
	case "open":
		return unix.SYS_OPEN, true
	case "close":
		return unix.SYS_CLOSE, true
	case "exit":
		return unix.SYS_EXIT, true
	case "mmap":
		return unix.SYS_MMAP, true
	case "exit_group":
		return unix.SYS_EXIT_GROUP, true
	default:
		return 0, false
	}
}

func (e *Encoder) Encode(mnemonic string, operands []string) (encoders.Result, error) {
	entry, ok := opcodeTable[mnemonic]
	if !ok {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}

	switch entry.Form {
	case encoders.NoArgs:
		return encoders.Result{Bytes: []byte{byte(entry.Opcode)}}, nil

	case encoders.Syscall:
		return encoders.Result{Bytes: []byte{0x0F, 0x05}}, nil

	case encoders.RegToReg:
		return e.encodeRegToReg(entry, operands)

	case encoders.Immediate:
		return e.encodeImmediate(entry, operands)

	case encoders.Jump, encoders.BAddr, encoders.PcRel:
		return e.encodeDisplacement(entry, operands)

	default:
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}
}

func (e *Encoder) encodeRegToReg(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	var regs []int
	for _, op := range operands {
		regs = append(regs, encoders.ScanRegisters(op)...)
	}
	if err := encoders.CheckRegisters(regs, e.RegisterLimit()); err != nil {
		return encoders.Result{}, err
	}
	if len(regs) < 2 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected two register operands")
	}
	dst, src := regs[0], regs[1]

	rex := uint8(0x48) // REX.W: 64-bit operand size
	if src >= 8 {
		rex |= 0x04 // REX.R
		src -= 8
	}
	if dst >= 8 {
		rex |= 0x01 // REX.B
		dst -= 8
	}
	modrm := uint8(0xC0) | uint8(src<<3) | uint8(dst)

	return encoders.Result{
		Bytes:        []byte{rex, byte(entry.Opcode), modrm},
		RegisterRefs: len(regs),
	}, nil
}

func (e *Encoder) encodeImmediate(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	if len(operands) < 2 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected register and immediate")
	}
	regs := encoders.ScanRegisters(operands[0])
	if err := encoders.CheckRegisters(regs, e.RegisterLimit()); err != nil {
		return encoders.Result{}, err
	}
	if len(regs) != 1 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected one destination register")
	}
	dst := regs[0]

	imm, err := parseImmediate(operands[1])
	if err != nil {
		return encoders.Result{}, err
	}

	rex := uint8(0x48)
	if dst >= 8 {
		rex |= 0x01
		dst -= 8
	}
	opcode := byte(0xB8 + dst)

	buf := []byte{rex, opcode}
	buf = append(buf, numlit.PutLE64(imm)...)
	return encoders.Result{Bytes: buf, RegisterRefs: 1}, nil
}

func (e *Encoder) encodeDisplacement(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	if len(operands) < 1 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected a displacement operand")
	}
	disp, err := parseImmediate(operands[0])
	if err != nil {
		return encoders.Result{}, err
	}
	buf := []byte{byte(entry.Opcode)}
	buf = append(buf, numlit.PutLE32(disp)...)
	return encoders.Result{Bytes: buf}, nil
}

func parseImmediate(s string) (uint64, error) {
	return numlit.ParseNumber(s)
}
