// Package riscv64 implements the RISC-V 64-bit instruction encoder:
// R-type (ADD/SUB/XOR/AND/OR), I-type (ADDI), and little-endian 4-byte
// instruction word emission.
package riscv64

import (
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/numlit"
)

// Encoder implements encoders.Encoder for RISC-V 64-bit.
type Encoder struct{}

// New returns a RISC-V 64-bit Encoder.
func New() *Encoder { return &Encoder{} }

// RegisterLimit is the 32 integer registers x0-x31.
func (e *Encoder) RegisterLimit() int { return 32 }

const (
	opADDI  = 0x13
	opRTYPE = 0x33
	opBR    = 0x63
	opJAL   = 0x6F
	opECALL = 0x73
)

// funct3/funct7 selectors for the R-type family, matching the
// teacher's ADD/SUB/XOR/AND/OR encodings.
var rtypeFunct = map[string][2]uint32{
	"add": {0x0, 0x00},
	"sub": {0x0, 0x20},
	"xor": {0x4, 0x00},
	"and": {0x7, 0x00},
	"or":  {0x6, 0x00},
	"mul": {0x0, 0x01},
}

var opcodeTable = map[string]encoders.OpcodeEntry{
	"nop":    {Mnemonic: "nop", Opcode: opADDI, Form: encoders.NoArgs},
	"ecall":  {Mnemonic: "ecall", Opcode: opECALL, Form: encoders.Syscall},
	"addi":   {Mnemonic: "addi", Opcode: opADDI, Form: encoders.Immediate},
	"add":    {Mnemonic: "add", Opcode: opRTYPE, Form: encoders.RegToReg},
	"sub":    {Mnemonic: "sub", Opcode: opRTYPE, Form: encoders.RegToReg},
	"xor":    {Mnemonic: "xor", Opcode: opRTYPE, Form: encoders.RegToReg},
	"and":    {Mnemonic: "and", Opcode: opRTYPE, Form: encoders.RegToReg},
	"or":     {Mnemonic: "or", Opcode: opRTYPE, Form: encoders.RegToReg},
	"mul":    {Mnemonic: "mul", Opcode: opRTYPE, Form: encoders.RegToReg},
	"jal":    {Mnemonic: "jal", Opcode: opJAL, Form: encoders.Jump},
	"beq":    {Mnemonic: "beq", Opcode: opBR, Form: encoders.BAddr},
}

func (e *Encoder) Encode(mnemonic string, operands []string) (encoders.Result, error) {
	entry, ok := opcodeTable[mnemonic]
	if !ok {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}

	switch entry.Form {
	case encoders.NoArgs:
		// nop == addi x0, x0, 0
		return encoders.Result{Bytes: numlit.PutLE32(uint64(opADDI))}, nil

	case encoders.Syscall:
		return encoders.Result{Bytes: numlit.PutLE32(uint64(opECALL))}, nil

	case encoders.RegToReg:
		return e.encodeRType(mnemonic, operands)

	case encoders.Immediate:
		return e.encodeIType(entry, operands)

	case encoders.Jump, encoders.BAddr, encoders.PcRel:
		return e.encodeBranch(entry, operands)

	default:
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}
}

func (e *Encoder) encodeRType(mnemonic string, operands []string) (encoders.Result, error) {
	funct, ok := rtypeFunct[mnemonic]
	if !ok {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic)
	}
	var regs []int
	for _, op := range operands {
		regs = append(regs, encoders.ScanRegisters(op)...)
	}
	if err := encoders.CheckRegisters(regs, e.RegisterLimit()); err != nil {
		return encoders.Result{}, err
	}
	if len(regs) < 2 {
		return encoders.Result{}, encoders.ErrUnknownMnemonic(mnemonic + ": expected destination and source registers")
	}
	rd, rs2 := regs[0], regs[1]
	rs1 := rd // two-operand form: rd := rd OP rs2

	instr := uint32(opRTYPE) |
		(uint32(rd&31) << 7) |
		(funct[0] << 12) |
		(uint32(rs1&31) << 15) |
		(uint32(rs2&31) << 20) |
		(funct[1] << 25)

	return encoders.Result{Bytes: numlit.PutLE32(uint64(instr)), RegisterRefs: len(regs)}, nil
}

func (e *Encoder) encodeIType(entry encoders.OpcodeEntry, operands []string) (encoders.Result, error) {
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

	instr := uint32(opADDI) |
		(uint32(rd&31) << 7) |
		(0 << 12) | // funct3 = 000 for ADDI
		(uint32(rd&31) << 15) | // rs1 = rd (matches teacher's accumulate-in-place form)
		(uint32(imm&0xFFF) << 20)

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
	instr := entry.Opcode | (uint32(disp) << 12)
	return encoders.Result{Bytes: numlit.PutLE32(uint64(instr))}, nil
}
