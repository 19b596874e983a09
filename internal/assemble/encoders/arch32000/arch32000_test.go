package arch32000

import "testing"

func TestRegisterLimit(t *testing.T) {
	if got := New().RegisterLimit(); got != 16 {
		t.Fatalf("RegisterLimit() = %d, want 16", got)
	}
}

func TestEncodeRegToReg(t *testing.T) {
	res, err := New().Encode("add", []string{"r1", "r2"})
	if err != nil {
		t.Fatalf("Encode(add): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("add encoding length = %d, want 4", len(res.Bytes))
	}
	if res.RegisterRefs != 2 {
		t.Fatalf("RegisterRefs = %d, want 2", res.RegisterRefs)
	}
}

func TestEncodeRegisterOutOfRange(t *testing.T) {
	if _, err := New().Encode("add", []string{"r16", "r1"}); err == nil {
		t.Fatal("expected register-out-of-range error for r16 (limit is 16)")
	}
}

func TestEncodeImmediateTruncates(t *testing.T) {
	res, err := New().Encode("movi", []string{"r3", "0x1FFFF"})
	if err != nil {
		t.Fatalf("Encode(movi): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("movi encoding length = %d, want 4", len(res.Bytes))
	}
	if res.Bytes[2] != 0xFF || res.Bytes[3] != 0xFF {
		t.Fatalf("movi immediate bytes = %x, want 0x1FFFF truncated to ffff", res.Bytes[2:])
	}
}

func TestEncodeUnknownMnemonic(t *testing.T) {
	if _, err := New().Encode("frobnicate", []string{"r1"}); err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}
