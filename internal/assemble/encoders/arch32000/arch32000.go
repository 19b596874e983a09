// Package arch32000 implements the encoder for the "32×0" target
//.
//
// Like arch64000, this ISA has no teacher precedent; its shape mirrors
// riscv64_backend.go's fixed-width-word field packing, here narrowed
// to a 32-bit instruction word and a 16-register file.
package arch32000

import (
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/numlit"
)

// Encoder implements encoders.Encoder for the 32×0 target.
type Encoder struct{}

// New returns a 32×0 Encoder.
func New() *Encoder { return &Encoder{} }

// RegisterLimit is 16 per worked example for this
// target.
func (e *Encoder) RegisterLimit() int { return 16 }

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
		return encoders.Result{Bytes: numlit.PutLE32(uint64(entry.Opcode))}, nil

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

// encodeRegToReg packs rd into bits [11:8] and rs into bits [15:12],
// each four bits wide, enough for the 16-register file.
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

	word := uint32(entry.Opcode) |
		(uint32(rd&0xF) << 8) |
		(uint32(rs&0xF) << 12)

	return encoders.Result{Bytes: numlit.PutLE32(uint64(word)), RegisterRefs: len(regs)}, nil
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
	if imm > 0xFFFF {
		imm &= 0xFFFF // 32×0's movi carries a 16-bit immediate field
	}

	word := uint32(entry.Opcode) | (uint32(rd&0xF) << 8) | (uint32(imm) << 16)
	return encoders.Result{Bytes: numlit.PutLE32(uint64(word)), RegisterRefs: 1}, nil
}

func (e *Encoder) encodeBranch(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	if len(operands) < 1 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected a displacement operand")
	}
	disp, err := numlit.ParseNumber(operands[0])
	if err != nil {
		return encoders.Result{}, err
	}
	word := uint32(entry.Opcode) | (uint32(disp&0xFFFFFF) << 8)
	return encoders.Result{Bytes: numlit.PutLE32(uint64(word))}, nil
}
