package regalloc

import "testing"

func TestAllocateSimpleNoConflict(t *testing.T) {
	a := New(4)
	a.Def("x")
	a.Advance()
	a.Use("x")
	a.Advance()
	a.Def("y")
	a.Advance()
	a.Use("y")

	a.Allocate()

	if _, ok := a.Register("x"); !ok {
		t.Fatal("expected x to receive a register")
	}
	if _, ok := a.Register("y"); !ok {
		t.Fatal("expected y to receive a register")
	}
	if a.IsSpilled("x") || a.IsSpilled("y") {
		t.Fatal("did not expect spills with registers to spare")
	}
}

func TestAllocateReusesExpiredRegister(t *testing.T) {
	a := New(1)
	a.Def("x")
	a.Advance()
	a.Use("x") // x dies here
	a.Advance()
	a.Def("y")
	a.Advance()
	a.Use("y")

	a.Allocate()

	rx, ok := a.Register("x")
	if !ok {
		t.Fatal("expected x to receive a register")
	}
	ry, ok := a.Register("y")
	if !ok {
		t.Fatal("expected y to reuse the single register after x expired")
	}
	if rx != ry {
		t.Fatalf("expected x and y to share the single register, got %d and %d", rx, ry)
	}
}

func TestAllocateSpillsWhenOverSubscribed(t *testing.T) {
	a := New(1)
	// x and y overlap: both live across the whole window.
	a.Def("x")
	a.Advance()
	a.Def("y")
	a.Advance()
	a.Use("x")
	a.Advance()
	a.Use("y")

	a.Allocate()

	spilledCount := 0
	if a.IsSpilled("x") {
		spilledCount++
	}
	if a.IsSpilled("y") {
		spilledCount++
	}
	if spilledCount != 1 {
		t.Fatalf("expected exactly one of x/y to spill, got %d", spilledCount)
	}
	if a.SpillCount() != 1 {
		t.Fatalf("SpillCount = %d, want 1", a.SpillCount())
	}
}

func TestUnknownVariableHasNoRegister(t *testing.T) {
	a := New(2)
	a.Allocate()
	if _, ok := a.Register("ghost"); ok {
		t.Fatal("did not expect a register for a variable never defined")
	}
	if a.IsSpilled("ghost") {
		t.Fatal("did not expect an unseen variable to be marked spilled")
	}
}
