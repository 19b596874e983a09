package riscv64

import "testing"

func TestRegisterLimit(t *testing.T) {
	if got := New().RegisterLimit(); got != 32 {
		t.Fatalf("RegisterLimit() = %d, want 32", got)
	}
}

func TestEncodeNoArgs(t *testing.T) {
	res, err := New().Encode("nop", nil)
	if err != nil {
		t.Fatalf("Encode(nop): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("nop encoding length = %d, want 4", len(res.Bytes))
	}
	if res.Bytes[0] != opADDI {
		t.Fatalf("nop low byte = %#x, want opcode %#x", res.Bytes[0], opADDI)
	}
}

func TestEncodeRType(t *testing.T) {
	res, err := New().Encode("add", []string{"r1", "r2"})
	if err != nil {
		t.Fatalf("Encode(add): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("add encoding length = %d, want 4", len(res.Bytes))
	}
	if res.Bytes[0]&0x7F != opRTYPE {
		t.Fatalf("add opcode field = %#x, want %#x", res.Bytes[0]&0x7F, opRTYPE)
	}
	if res.RegisterRefs != 2 {
		t.Fatalf("RegisterRefs = %d, want 2", res.RegisterRefs)
	}
}

func TestEncodeRTypeUnknownALU(t *testing.T) {
	if _, err := New().Encode("div", []string{"r1", "r2"}); err == nil {
		t.Fatal("expected error for unregistered R-type mnemonic")
	}
}

func TestEncodeImmediate(t *testing.T) {
	res, err := New().Encode("addi", []string{"r3", "0x10"})
	if err != nil {
		t.Fatalf("Encode(addi): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("addi encoding length = %d, want 4", len(res.Bytes))
	}
}

func TestEncodeBranchDisplacement(t *testing.T) {
	res, err := New().Encode("jal", []string{"4"})
	if err != nil {
		t.Fatalf("Encode(jal): %v", err)
	}
	if res.Bytes[0]&0x7F != opJAL {
		t.Fatalf("jal opcode field = %#x, want %#x", res.Bytes[0]&0x7F, opJAL)
	}
}

func TestEncodeRegisterOutOfRange(t *testing.T) {
	if _, err := New().Encode("add", []string{"r40", "r1"}); err == nil {
		t.Fatal("expected register-out-of-range error for r40")
	}
}

func TestEncodeUnknownMnemonic(t *testing.T) {
	if _, err := New().Encode("frobnicate", []string{"r1"}); err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}
