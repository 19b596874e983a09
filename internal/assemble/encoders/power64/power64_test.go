package power64

import "testing"

func TestRegisterLimit(t *testing.T) {
	if got := New().RegisterLimit(); got != 32 {
		t.Fatalf("RegisterLimit() = %d, want 32", got)
	}
}

func TestAssembleWordByteOrder(t *testing.T) {
	b := assembleWord(0x01020304)
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("assembleWord byte %d = %#x, want %#x", i, b[i], want[i])
		}
	}
}

func TestEncodeXForm(t *testing.T) {
	res, err := New().Encode("add", []string{"r1", "r2"})
	if err != nil {
		t.Fatalf("Encode(add): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("add encoding length = %d, want 4", len(res.Bytes))
	}
	if res.Bytes[0]>>2 != opRType {
		t.Fatalf("add primary opcode = %#x, want %#x", res.Bytes[0]>>2, opRType)
	}
}

func TestEncodeRegisterOutOfRange(t *testing.T) {
	if _, err := New().Encode("add", []string{"r32", "r1"}); err == nil {
		t.Fatal("expected register-out-of-range error for r32 (limit is 32)")
	}
}

func TestEncodeDForm(t *testing.T) {
	res, err := New().Encode("addi", []string{"r3", "10"})
	if err != nil {
		t.Fatalf("Encode(addi): %v", err)
	}
	if len(res.Bytes) != 4 {
		t.Fatalf("addi encoding length = %d, want 4", len(res.Bytes))
	}
}

func TestEncodeUnknownMnemonic(t *testing.T) {
	if _, err := New().Encode("frobnicate", []string{"r1"}); err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}
