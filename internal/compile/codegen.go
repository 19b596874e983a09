package compile

import (
	"fmt"
	"strings"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/assemble/encoders/amd64"
	"github.com/xyproto/ae67/internal/diag"
	"github.com/xyproto/ae67/internal/regalloc"
	"github.com/xyproto/ae67/internal/symbols"
)

// Generate lowers prog to assembly text for target, the substitution
// scheme's one real piece of codegen: variable names become registers
// via a linear-scan pass per function (internal/regalloc), and each
// Statement becomes one or two opcode-table mnemonic lines for the
// target's backend.
//
// Binary operations alias their destination to the left operand's
// register rather than emitting a register-to-register move first:
// this sidesteps the need for a "mov" mnemonic on targets that don't
// define one (riscv64, power64) and mirrors ordinary two-address
// instruction selection.
func Generate(prog *Program, target arch.Target, sourceName string) (string, *diag.Collector, error) {
	m, ok := mnemonicsFor(target.Arch)
	if !ok {
		return "", nil, fmt.Errorf("compile: no mnemonic table for architecture %s", target.Arch)
	}

	d := diag.NewCollector("compile", 10)
	var out strings.Builder

	externs := externCallees(prog)
	for _, callee := range sortedKeys(externs) {
		out.WriteString("extern_segment " + callee + "\n")
	}

	for _, fn := range prog.Functions {
		g := &funcGen{
			fn:     fn,
			target: target,
			m:      m,
			diag:   d,
			reg:    regalloc.New(target.Arch.RegisterLimit()),
			aliasOf: make(map[string]string),
			locals:  localFunctionNames(prog),
		}
		g.collectIntervals()
		g.reg.Allocate()
		body := g.emit()
		if d.ShouldStop() {
			return "", d, fmt.Errorf("compile: %s: too many errors", sourceName)
		}

		name := fn.Name
		if name == "main" {
			name = symbols.EntryPoint
		}
		out.WriteString("public_segment " + name + " " + symbols.SuffixCode + "\n")
		out.WriteString(body)
	}

	if d.HasErrors() {
		return "", d, fmt.Errorf("compile: %s: errors during codegen", sourceName)
	}
	return out.String(), d, nil
}

// funcGen lowers one Function's statement list.
type funcGen struct {
	fn      Function
	target  arch.Target
	m       mnemonics
	diag    *diag.Collector
	reg     *regalloc.Allocator
	aliasOf map[string]string // derived variable -> the root variable sharing its register
	locals  map[string]bool
}

// collectIntervals walks the statement list once to record def/use
// positions for every *root* variable (one introduced by an immediate
// assignment); binop destinations are aliases, not roots, and never
// reach the allocator directly.
func (g *funcGen) collectIntervals() {
	for _, st := range g.fn.Stmts {
		switch st.Kind {
		case StmtAssignImm:
			g.reg.Def(st.Dst)
		case StmtAssignBin:
			g.reg.Use(g.rootOf(st.Src1))
			g.reg.Use(g.rootOf(st.Src2))
			g.aliasOf[st.Dst] = g.rootOf(st.Src1)
		}
		g.reg.Advance()
	}
}

// rootOf follows the alias chain to the variable actually holding a
// register in the allocator.
func (g *funcGen) rootOf(name string) string {
	for {
		root, ok := g.aliasOf[name]
		if !ok {
			return name
		}
		name = root
	}
}

func (g *funcGen) registerOf(name string) (int, bool) {
	return g.reg.Register(g.rootOf(name))
}

func (g *funcGen) emit() string {
	var out strings.Builder
	for _, st := range g.fn.Stmts {
		switch st.Kind {
		case StmtAssignImm:
			reg, ok := g.registerOf(st.Dst)
			if !ok {
				g.spillDiag(st)
				continue
			}
			if g.m.movImm == "" {
				g.unsupportedDiag(st, "immediate load")
				continue
			}
			fmt.Fprintf(&out, "%s r%d %d\n", g.m.movImm, reg, st.Imm)

		case StmtAssignBin:
			reg, ok := g.registerOf(st.Dst)
			if !ok {
				g.spillDiag(st)
				continue
			}
			srcReg, ok := g.registerOf(st.Src2)
			if !ok {
				g.spillDiag(st)
				continue
			}
			mnemonic := g.m.binOp[st.Op]
			if mnemonic == "" {
				g.unsupportedDiag(st, fmt.Sprintf("operator %q", string(st.Op)))
				continue
			}
			fmt.Fprintf(&out, "%s r%d r%d\n", mnemonic, reg, srcReg)

		case StmtCall:
			if g.m.call == "" {
				g.unsupportedDiag(st, "call")
				continue
			}
			fmt.Fprintf(&out, "%s 0\n", g.m.call)

		case StmtSyscall:
			if g.m.syscall == "" {
				g.unsupportedDiag(st, "syscall")
				continue
			}
			// On AMD64, a named syscall ("syscall write") loads its
			// Linux syscall number into the conventional number
			// register (r0, standing in for rax) before the trap,
			// using golang.org/x/sys/unix's generated SYS_* table
			// (amd64.SyscallNumber) rather than a hand-maintained one.
			if st.Callee != "" && g.target.Arch == arch.AMD64 && g.m.movImm != "" {
				if num, ok := amd64.SyscallNumber(st.Callee); ok {
					fmt.Fprintf(&out, "%s r0 %d\n", g.m.movImm, num)
				} else {
					g.unsupportedDiag(st, fmt.Sprintf("syscall %q", st.Callee))
				}
			}
			out.WriteString(g.m.syscall + "\n")

		case StmtHalt:
			mnemonic := g.m.halt
			if mnemonic == "" {
				mnemonic = "nop"
			}
			out.WriteString(mnemonic + "\n")
		}
	}
	return out.String()
}

func (g *funcGen) spillDiag(st Statement) {
	g.diag.Add(diag.Diagnostic{
		Level:    diag.Error,
		Category: diag.CategorySemantic,
		Message:  fmt.Sprintf("variable %q spilled to the stack; this assembler has no memory-operand addressing mode to encode it", st.Dst),
		Location: diag.Location{File: g.fn.Name, Line: st.Line},
	})
}

func (g *funcGen) unsupportedDiag(st Statement, what string) {
	g.diag.Add(diag.Diagnostic{
		Level:    diag.Error,
		Category: diag.CategorySemantic,
		Message:  fmt.Sprintf("%s has no %s opcode on %s", g.fn.Name, what, g.target.Arch),
		Location: diag.Location{File: g.fn.Name, Line: st.Line},
	})
}

// externCallees collects every call target not defined as a function
// in this same translation unit.
func externCallees(prog *Program) map[string]bool {
	locals := localFunctionNames(prog)
	externs := make(map[string]bool)
	for _, fn := range prog.Functions {
		for _, st := range fn.Stmts {
			if st.Kind == StmtCall && !locals[st.Callee] {
				externs[st.Callee] = true
			}
		}
	}
	return externs
}

func localFunctionNames(prog *Program) map[string]bool {
	names := make(map[string]bool, len(prog.Functions))
	for _, fn := range prog.Functions {
		names[fn.Name] = true
	}
	return names
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion-order isn't guaranteed by Go maps; sort for
	// deterministic, diffable output across compiler runs.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
