// Package arm64 implements the AArch64 instruction encoder.
//
// PC-relative page-offset fields split their bits across immlo/immhi
// the way ADRP/ADD relocation patching always does, and every
// instruction is emitted as one fixed-width 32-bit word, matching
// AArch64's own fixed-length encoding.
package arm64

import (
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/numlit"
)

// Encoder implements encoders.Encoder for ARM64.
type Encoder struct{}

// New returns an ARM64 Encoder.
func New() *Encoder { return &Encoder{} }

// RegisterLimit is 31 general-purpose registers (x0-x30) plus the zero
// register/stack pointer alias, .
func (e *Encoder) RegisterLimit() int { return 31 }

var opcodeTable = map[string]encoders.OpcodeEntry{
	"nop":  {Mnemonic: "nop", Opcode: 0xD503201F, Form: encoders.NoArgs},
	"ret":  {Mnemonic: "ret", Opcode: 0xD65F03C0, Form: encoders.NoArgs},
	"svc":  {Mnemonic: "svc", Opcode: 0xD4000001, Form: encoders.Syscall},
	"mov":  {Mnemonic: "mov", Opcode: 0x2A0003E0, Form: encoders.RegToReg}, // ORR rd, xzr, rm
	"add":  {Mnemonic: "add", Opcode: 0x8B000000, Form: encoders.RegToReg},
	"sub":  {Mnemonic: "sub", Opcode: 0xCB000000, Form: encoders.RegToReg},
	"movz": {Mnemonic: "movz", Opcode: 0xD2800000, Form: encoders.Immediate},
	"b":    {Mnemonic: "b", Opcode: 0x14000000, Form: encoders.Jump},
	"bl":   {Mnemonic: "bl", Opcode: 0x94000000, Form: encoders.BAddr},
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
	rd, rm := regs[0], regs[1]

	// Rd occupies bits [4:0], Rm bits [20:16]; Rn (bits [9:5]) is left
	// as the zero register for the two-operand forms this encoder
	// supports.
	instr := entry.Opcode | (uint32(rm&31) << 16) | uint32(rd&31)
	return encoders.Result{Bytes: numlit.PutLE32(uint64(instr)), RegisterRefs: len(regs)}, nil
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
		imm &= 0xFFFF // MOVZ carries a 16-bit immediate field
	}

	instr := entry.Opcode | (uint32(imm) << 5) | uint32(rd&31)
	return encoders.Result{Bytes: numlit.PutLE32(uint64(instr)), RegisterRefs: 1}, nil
}

func (e *Encoder) encodeBranch(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
	if len(operands) < 1 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(entry.Mnemonic + ": expected a displacement operand")
	}
	disp, err := numlit.ParseNumber(operands[0])
	if err != nil {
		return encoders.Result{}, err
	}
	// B/BL encode a 26-bit word-aligned signed displacement (imm26).
	imm26 := uint32(disp>>2) & 0x03FFFFFF
	instr := entry.Opcode | imm26
	return encoders.Result{Bytes: numlit.PutLE32(uint64(instr))}, nil
}
