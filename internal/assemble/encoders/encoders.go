// Package encoders defines the per-target instruction-encoding
// contract shared by the amd64/arm64/riscv64/arch64000/arch32000/
// power64 backends.
//
// Each backend owns a map from mnemonic to an OpcodeEntry describing
// how to encode it, and a single Encode dispatch that switches on the
// entry's Form tag rather than branching per mnemonic.
package encoders

import (
	"fmt"
	"strconv"
)

// Form tags the instruction-encoding strategy for one opcode-table row
//: "the encoder branches on the type tag".
type Form int

const (
	NoArgs Form = iota
	Jump
	BAddr
	PcRel
	RegToReg
	GReg
	FReg
	VReg
	Syscall
	Immediate
)

// OpcodeEntry is one row of a target's opcode table.
type OpcodeEntry struct {
	Mnemonic string
	Opcode   uint32
	Funct3   uint32
	Funct7   uint32 // doubles as "type"/subopcode on targets that need it
	Form     Form
}

// Result is the byte output and register-reference count of encoding
// one instruction line.
type Result struct {
	Bytes        []byte
	RegisterRefs int // number of r<digits> operand occurrences seen
}

// Encoder is implemented by each target backend.
type Encoder interface {
	// Encode produces the machine bytes for one instruction line.
	// It rejects any r<digits> index that reaches or exceeds
	// RegisterLimit and reports the number of r<digits> operand
	// occurrences in Result.RegisterRefs, which the caller adds to its
	// own per-section register counter.
	Encode(mnemonic string, operands []string) (Result, error)

	// RegisterLimit is the architecture's register_limit.
	RegisterLimit() int
}

// ErrUnknownMnemonic is returned when no opcode-table row matches.
func ErrUnknownMnemonic(mnemonic string) error {
	return fmt.Errorf("unknown mnemonic %q", mnemonic)
}

// ErrRegisterOutOfRange is returned when a parsed register index is
// not less than the target's register_limit.
func ErrRegisterOutOfRange(reg, limit int) error {
	return fmt.Errorf("register r%d out of range (limit %d)", reg, limit)
}

// ScanRegisters scans operand text for every "r<digits>" occurrence,
// per RegToReg/GReg/FReg/VReg forms, and returns the
// parsed register indices in order of appearance.
func ScanRegisters(operand string) []int {
	var regs []int
	i := 0
	for i < len(operand) {
		if operand[i] == 'r' && i+1 < len(operand) && operand[i+1] >= '0' && operand[i+1] <= '9' {
			j := i + 1
			for j < len(operand) && operand[j] >= '0' && operand[j] <= '9' {
				j++
			}
			if n, err := strconv.Atoi(operand[i+1 : j]); err == nil {
				regs = append(regs, n)
			}
			i = j
			continue
		}
		i++
	}
	return regs
}

// CheckRegisters validates that every register index in regs is below
// limit, returning the first violation as an error.
func CheckRegisters(regs []int, limit int) error {
	for _, r := range regs {
		if r >= limit {
			return ErrRegisterOutOfRange(r, limit)
		}
	}
	return nil
}
