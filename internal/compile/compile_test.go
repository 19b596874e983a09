package compile

import (
	"strings"
	"testing"

	"github.com/xyproto/ae67/internal/arch"
)

func TestLexerKeywordsAndOperators(t *testing.T) {
	lex := NewLexer("func main {\n x = 5\n z = x + y\n call foo\n syscall write\n halt\n}")

	var types []TokenType
	for {
		tok := lex.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}

	want := []TokenType{
		TokenFunc, TokenIdent, TokenLBrace,
		TokenIdent, TokenEquals, TokenNumber,
		TokenIdent, TokenEquals, TokenIdent, TokenPlus, TokenIdent,
		TokenCall, TokenIdent,
		TokenSyscall, TokenIdent,
		TokenHalt,
		TokenRBrace,
		TokenEOF,
	}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(types), len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, types[i], want[i])
		}
	}
}

func TestParseProgramBasic(t *testing.T) {
	p := NewParser("func main {\n x = 5\n z = x + x\n call helper\n halt\n}")
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "main" {
		t.Fatalf("got function name %q, want main", fn.Name)
	}
	if len(fn.Stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(fn.Stmts))
	}
	if fn.Stmts[0].Kind != StmtAssignImm || fn.Stmts[0].Imm != 5 {
		t.Fatalf("stmt 0 = %+v, want AssignImm x=5", fn.Stmts[0])
	}
	if fn.Stmts[1].Kind != StmtAssignBin || fn.Stmts[1].Op != '+' {
		t.Fatalf("stmt 1 = %+v, want AssignBin op=+", fn.Stmts[1])
	}
	if fn.Stmts[2].Kind != StmtCall || fn.Stmts[2].Callee != "helper" {
		t.Fatalf("stmt 2 = %+v, want Call helper", fn.Stmts[2])
	}
	if fn.Stmts[3].Kind != StmtHalt {
		t.Fatalf("stmt 3 = %+v, want Halt", fn.Stmts[3])
	}
}

func TestParseSyscallWithAndWithoutCallee(t *testing.T) {
	p := NewParser("func main {\n syscall write\n syscall\n halt\n}")
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	stmts := prog.Functions[0].Stmts
	if stmts[0].Kind != StmtSyscall || stmts[0].Callee != "write" {
		t.Fatalf("stmt 0 = %+v, want Syscall callee=write", stmts[0])
	}
	if stmts[1].Kind != StmtSyscall || stmts[1].Callee != "" {
		t.Fatalf("stmt 1 = %+v, want bare Syscall", stmts[1])
	}
}

func TestGenerateAMD64SyscallLoadsNumber(t *testing.T) {
	p := NewParser("func main {\n syscall write\n halt\n}")
	prog := p.ParseProgram()

	out, d, err := Generate(prog, arch.Target{Arch: arch.AMD64}, "t.pp")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d != nil && d.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", d.Report(false))
	}
	if !strings.Contains(out, "movi r0 1\n") {
		t.Fatalf("output missing syscall-number load, got:\n%s", out)
	}
	if !strings.Contains(out, "syscall\n") {
		t.Fatalf("output missing syscall trap, got:\n%s", out)
	}
}

func TestGenerateUnknownSyscallNameDiagnoses(t *testing.T) {
	p := NewParser("func main {\n syscall not_a_real_syscall\n halt\n}")
	prog := p.ParseProgram()

	_, d, err := Generate(prog, arch.Target{Arch: arch.AMD64}, "t.pp")
	if err == nil {
		t.Fatal("expected an error for an unresolvable syscall name")
	}
	if d == nil || !d.HasErrors() {
		t.Fatal("expected a diagnostic for the unresolvable syscall name")
	}
}

func TestGenerateReusesRegisterAcrossBinOp(t *testing.T) {
	p := NewParser("func main {\n x = 1\n y = 2\n z = x + y\n halt\n}")
	prog := p.ParseProgram()

	out, d, err := Generate(prog, arch.Target{Arch: arch.RISCV}, "t.pp")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d != nil && d.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", d.Report(false))
	}
	if !strings.Contains(out, "add r") {
		t.Fatalf("expected an add instruction in output:\n%s", out)
	}
	if !strings.Contains(out, "add r0 r1\n") {
		t.Fatalf("expected z to reuse x's register r0 (add r0 r1) in output:\n%s", out)
	}
}

func TestGenerateExternSegmentForCrossFunctionCall(t *testing.T) {
	p := NewParser("func main {\n call printf\n halt\n}")
	prog := p.ParseProgram()

	out, _, err := Generate(prog, arch.Target{Arch: arch.ARM64}, "t.pp")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(out, "extern_segment printf\n") {
		t.Fatalf("expected extern_segment directive first, got:\n%s", out)
	}
}
