package preprocess

import (
	"strings"
	"testing"
)

func mustPreprocess(t *testing.T, src string, opts Options) string {
	t.Helper()
	out, diags, err := Preprocess(opts, strings.NewReader(src))
	if err != nil {
		t.Fatalf("Preprocess: %v (diagnostics: %s)", err, diags.Report(false))
	}
	return string(out)
}

// S5 — function-like macro arity.
func TestFunctionMacroArity(t *testing.T) {
	src := "#define F(x,y) x+y\nF(1,2)\n"
	got := strings.TrimSpace(mustPreprocess(t, src, Options{}))
	if got != "1+2" {
		t.Fatalf("got %q want %q", got, "1+2")
	}
}

// S6 — conditional nesting.
func TestConditionalNesting(t *testing.T) {
	src := "#ifdef A\n1\n#else\n2\n#endif\n"
	got := strings.TrimSpace(mustPreprocess(t, src, Options{Defines: map[string]string{"A": "1"}}))
	if got != "1" {
		t.Fatalf("got %q want %q", got, "1")
	}
}

func TestConditionalNestingUndefined(t *testing.T) {
	src := "#ifdef A\n1\n#else\n2\n#endif\n"
	got := strings.TrimSpace(mustPreprocess(t, src, Options{}))
	if got != "2" {
		t.Fatalf("got %q want %q", got, "2")
	}
}

// R5 — idempotence on directive-free, macro-free input.
func TestIdempotentPassthrough(t *testing.T) {
	src := "hello world\nanother line\n"
	got := mustPreprocess(t, src, Options{})
	if got != src {
		t.Fatalf("got %q want %q", got, src)
	}
}

func TestObjectLikeMacroWholeWordMatch(t *testing.T) {
	src := "#define MAX 100\nlimit = MAX\nmaximum = 1\n"
	got := mustPreprocess(t, src, Options{})
	if !strings.Contains(got, "limit = 100") {
		t.Errorf("expected MAX expanded, got %q", got)
	}
	if !strings.Contains(got, "maximum = 1") {
		t.Errorf("expected 'maximum' left untouched (not a whole-word match of MAX), got %q", got)
	}
}

func TestRedefinitionLastWriterWins(t *testing.T) {
	src := "#define X 1\n#define X 2\nX\n"
	got := strings.TrimSpace(mustPreprocess(t, src, Options{}))
	if got != "2" {
		t.Fatalf("got %q want %q", got, "2")
	}
}

func TestDuplicateParamsDeduplicated(t *testing.T) {
	table := NewTable()
	table.Define(parseDefine("F(x,x,y) x+y"))
	m, ok := table.Lookup("F")
	if !ok {
		t.Fatalf("expected F to be defined")
	}
	if len(m.Params) != 2 {
		t.Fatalf("expected deduplicated params [x y], got %v", m.Params)
	}
}

func TestSelfReferentialMacroDoesNotLoop(t *testing.T) {
	src := "#define X X+1\nX\n"
	got := strings.TrimSpace(mustPreprocess(t, src, Options{}))
	if got != "X+1" {
		t.Fatalf("got %q want %q (single-pass, no re-scan)", got, "X+1")
	}
}

func TestIfRelationalOperators(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{"5 == 5", true},
		{"5 != 5", false},
		{"3 < 5", true},
		{"5 > 3", true},
		{"5 <= 5", true},
		{"5 >= 6", false},
	}
	for _, c := range cases {
		table := NewTable()
		if got := evalIf(table, c.expr); got != c.want {
			t.Errorf("evalIf(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestErrorDirectiveAborts(t *testing.T) {
	src := "#error boom\n"
	_, diags, err := Preprocess(Options{}, strings.NewReader(src))
	if err == nil {
		t.Fatalf("expected abort on #error")
	}
	if !diags.HasFatal() {
		t.Errorf("expected a fatal diagnostic")
	}
}

func TestUnknownDirectiveWarnsAndContinues(t *testing.T) {
	src := "#frobnicate\nok\n"
	got, diags, err := Preprocess(Options{}, strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected abort: %v", err)
	}
	if strings.TrimSpace(string(got)) != "ok" {
		t.Errorf("got %q", got)
	}
	if diags.ErrorCount() != 0 {
		t.Errorf("unknown directive should only warn, not error")
	}
}

func TestUnbalancedConditionalAborts(t *testing.T) {
	src := "#if 1\nonly body\n"
	_, _, err := Preprocess(Options{}, strings.NewReader(src))
	if err == nil {
		t.Fatalf("expected abort on unbalanced #if")
	}
}
