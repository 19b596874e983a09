// Package arch64000 implements the encoder for the "64×0" target
//.
//
// The ISA itself has no teacher precedent; its instruction-word shape
// is grounded on riscv64_backend.go's R-type/I-type field packing
// (rd/rs1/rs2/funct3 laid into a fixed-width word), stretched to a
// 64-bit word with 6-bit register fields for this target's 30-register
// file.
package arch64000

import (
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/numlit"
)

// Encoder implements encoders.Encoder for the 64×0 target.
type Encoder struct{}

// New returns a 64×0 Encoder.
func New() *Encoder { return &Encoder{} }

// RegisterLimit is 30 per worked example for this
// target.
func (e *Encoder) RegisterLimit() int { return 30 }

const (
	opNoArgs  = 0x00
	opRType   = 0x10
	opIType   = 0x20
	opBranch  = 0x30
	opSyscall = 0x3F
)

var opcodeTable = map[string]encoders.OpcodeEntry{
	"nop":  {Mnemonic: "nop", Opcode: opNoArgs, Form: encoders.NoArgs},
	"halt": {Mnemonic: "halt", Opcode: opNoArgs | 1, Form: encoders.NoArgs},
	"trap": {Mnemonic: "trap", Opcode: opSyscall, Form: encoders.Syscall},
	"mov":  {Mnemonic: "mov", Opcode: opRType, Form: encoders.RegToReg},
	"add":  {Mnemonic: "add", Opcode: opRType | 0x1, Form: encoders.RegToReg},
	"sub":  {Mnemonic: "sub", Opcode: opRType | 0x2, Form: encoders.RegToReg},
	"movi": {Mnemonic: "movi", Opcode: opIType, Form: encoders.Immediate},
	"jmp":  {Mnemonic: "jmp", Opcode: opBranch, Form: encoders.Jump},
	"call": {Mnemonic: "call", Opcode: opBranch | 0x1, Form: encoders.BAddr},
}

func (e *Encoder) Encode(mnemonic string, operands []string) (encoders.Result, error) {
	entry, ok := opcodeTable[mnemonic]
	if !ok {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}

	switch entry.Form {
	case encoders.NoArgs, encoders.Syscall:
		return encoders.Result{Bytes: numlit.PutLE64(uint64(entry.Opcode))}, nil

	case encoders.RegToReg:
		return e.encodeRegToReg(entry, operands)

	case encoders.Immediate:
		return e.encodeImmediate(entry, operands)

	case encoders.Jump, encoders.BAddr, encoders.PcRel:
		return e.encodeBranch(entry, operands)

	default:
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}
}

// encodeRegToReg packs rd into bits [13:8] and rs into bits [21:16],
// each 6 bits wide (enough for the 30-register file), above an 8-bit
// opcode byte occupying the low byte of the word.
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
	rd, rs := regs[0], regs[1]

	word := uint64(entry.Opcode) |
		(uint64(rd&0x3F) << 8) |
		(uint64(rs&0x3F) << 16)

	return encoders.Result{Bytes: numlit.PutLE64(word), RegisterRefs: len(regs)}, nil
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
	rd := regs[0]

	imm, err := numlit.ParseNumber(operands[1])
	if err != nil {
		return encoders.Result{}, err
	}

	word := uint64(entry.Opcode) | (uint64(rd&0x3F) << 8)
	buf := numlit.PutLE64(word)
	buf = append(buf, numlit.PutLE64(imm)...)
	return encoders.Result{Bytes: buf, RegisterRefs: 1}, nil
}

func (e *Encoder) encodeBranch(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	if len(operands) < 1 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected a displacement operand")
	}
	disp, err := numlit.ParseNumber(operands[0])
	if err != nil {
		return encoders.Result{}, err
	}
	word := uint64(entry.Opcode) | (disp << 16)
	return encoders.Result{Bytes: numlit.PutLE64(word)}, nil
}
