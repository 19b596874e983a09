// Package power64 implements the encoder for the POWER64 target.
//
// Grounded on description of POWER's opcode assembly: a
// per-opcode stride of 4 bytes, with the four opcode bytes packed
// explicitly in order [0],[1],[2],[3] rather than through a generic
// little-endian writer — mirrored here as assembleWord, kept distinct
// from numlit.PutLE32 to preserve that explicit byte order. Register
// field packing follows riscv64_backend.go's rd/rs shape, widened to
// PowerPC's 32-register file.
package power64

import (
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/numlit"
)

// Encoder implements encoders.Encoder for POWER64.
type Encoder struct{}

// New returns a POWER64 Encoder.
func New() *Encoder { return &Encoder{} }

// RegisterLimit is the 32 general-purpose registers of the PowerPC
// register file.
func (e *Encoder) RegisterLimit() int { return 32 }

const (
	opNoArgs  = 0x00
	opRType   = 0x1F // primary opcode shared by the XO-form ALU family
	opIType   = 0x0E // ADDI-style D-form opcode
	opBranch  = 0x12 // I-form branch opcode
	opSyscall = 0x11 // SC-form system call opcode
)

var opcodeTable = map[string]encoders.OpcodeEntry{
	"nop":  {Mnemonic: "nop", Opcode: opNoArgs, Form: encoders.NoArgs},
	"sc":   {Mnemonic: "sc", Opcode: opSyscall, Form: encoders.Syscall},
	"add":  {Mnemonic: "add", Opcode: opRType, Funct3: 266, Form: encoders.RegToReg},
	"sub":  {Mnemonic: "sub", Opcode: opRType, Funct3: 40, Form: encoders.RegToReg},
	"or":   {Mnemonic: "or", Opcode: opRType, Funct3: 444, Form: encoders.RegToReg},
	"addi": {Mnemonic: "addi", Opcode: opIType, Form: encoders.Immediate},
	"b":    {Mnemonic: "b", Opcode: opBranch, Form: encoders.Jump},
	"bl":   {Mnemonic: "bl", Opcode: opBranch, Funct3: 1, Form: encoders.BAddr},
}

func (e *Encoder) Encode(mnemonic string, operands []string) (encoders.Result, error) {
	entry, ok := opcodeTable[mnemonic]
	if !ok {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}

	switch entry.Form {
	case encoders.NoArgs, encoders.Syscall:
		return encoders.Result{Bytes: assembleWord(uint32(entry.Opcode) << 26)}, nil

	case encoders.RegToReg:
		return e.encodeXForm(entry, operands)

	case encoders.Immediate:
		return e.encodeDForm(entry, operands)

	case encoders.Jump, encoders.BAddr, encoders.PcRel:
		return e.encodeIForm(entry, operands)

	default:
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}
}

// assembleWord packs a 32-bit instruction word into its four bytes
// explicitly, in order [0],[1],[2],[3] (most-significant byte first),
// rather than delegating to numlit's little-endian writer.
func assembleWord(word uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(word >> 24)
	b[1] = byte(word >> 16)
	b[2] = byte(word >> 8)
	b[3] = byte(word)
	return b
}

// encodeXForm packs an XO-form instruction: primary opcode in bits
// [31:26], rd in [25:21], ra in [20:16], extended opcode in [10:1].
func (e *Encoder) encodeXForm(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
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
	rd, ra := regs[0], regs[1]

	word := (uint32(entry.Opcode) << 26) |
		(uint32(rd&31) << 21) |
		(uint32(ra&31) << 16) |
		(entry.Funct3 << 1)

	return encoders.Result{Bytes: assembleWord(word), RegisterRefs: len(regs)}, nil
}

// encodeDForm packs a D-form instruction: primary opcode, rd, ra, and
// a 16-bit signed immediate.
func (e *Encoder) encodeDForm(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
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
	rd := regs[0]

	imm, err := numlit.ParseNumber(operands[1])
	if err != nil {
		return encoders.Result{}, err
	}

	word := (uint32(entry.Opcode) << 26) | (uint32(rd&31) << 21) | (uint32(imm) & 0xFFFF)
	return encoders.Result{Bytes: assembleWord(word), RegisterRefs: 1}, nil
}

// encodeIForm packs a branch-displacement instruction: a 24-bit signed
// word-aligned displacement plus the LK bit carried in Funct3.
func (e *Encoder) encodeIForm(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	if len(operands) < 1 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected a displacement operand")
	}
	disp, err := numlit.ParseNumber(operands[0])
	if err != nil {
		return encoders.Result{}, err
	}
	word := (uint32(entry.Opcode) << 26) | (uint32(disp) & 0x03FFFFFC) | entry.Funct3
	return encoders.Result{Bytes: assembleWord(word)}, nil
}
