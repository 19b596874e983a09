package compile

import "github.com/xyproto/ae67/internal/arch"

// mnemonics is one target's substitution table: the concrete opcode
// names this front end emits for each abstract operation, since the
// six backends do not share a mnemonic vocabulary. An empty string means the target has no
// matching opcode; callers must handle that as a diagnostic, not a
// panic.
type mnemonics struct {
	movImm  string
	binOp   map[byte]string
	call    string // BAddr-form call/branch-and-link
	syscall string
	halt    string // best-effort "stop" opcode; falls back to nop
}

var targetMnemonics = map[arch.Tag]mnemonics{
	arch.AMD64: {
		movImm:  "movi",
		binOp:   map[byte]string{'+': "add", '-': "sub", '^': "xor", '&': "and", '|': "or"},
		call:    "call",
		syscall: "syscall",
		halt:    "nop",
	},
	arch.ARM64: {
		movImm:  "movz",
		binOp:   map[byte]string{'+': "add", '-': "sub"},
		call:    "bl",
		syscall: "svc",
		halt:    "nop",
	},
	arch.RISCV: {
		movImm:  "addi",
		binOp:   map[byte]string{'+': "add", '-': "sub", '^': "xor", '&': "and", '|': "or", '*': "mul"},
		call:    "jal", // no dedicated call opcode; substituted by an unconditional jump
		syscall: "ecall",
		halt:    "nop",
	},
	arch.Arch64000: {
		movImm:  "movi",
		binOp:   map[byte]string{'+': "add", '-': "sub"},
		call:    "call",
		syscall: "trap",
		halt:    "halt",
	},
	arch.Arch32000: {
		movImm:  "movi",
		binOp:   map[byte]string{'+': "add", '-': "sub"},
		call:    "call",
		syscall: "trap",
		halt:    "halt",
	},
	arch.PowerPC: {
		movImm:  "addi",
		binOp:   map[byte]string{'+': "add", '-': "sub", '|': "or"},
		call:    "bl",
		syscall: "sc",
		halt:    "nop",
	},
}

func mnemonicsFor(tag arch.Tag) (mnemonics, bool) {
	m, ok := targetMnemonics[tag]
	return m, ok
}
