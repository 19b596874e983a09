// Package preprocess implements the directive-driven macro and
// conditional-inclusion engine as a single-pass, mutable-state line
// loop: a small struct holding all mutable state, walked with a plain
// for-loop, no backtracking.
package preprocess

import "strings"

// Macro is a single #define entry: an ordered, deduplicated parameter
// list and a textual body. Unique by Name; redefinition is
// last-writer-wins.
type Macro struct {
	Name   string
	Params []string
	Body   string
}

// IsFunctionLike reports whether the macro takes a parameter list
// (even an empty one written as "NAME()").
func (m Macro) IsFunctionLike() bool {
	return m.Params != nil
}

// Table is the flat macro table threaded through one preprocessor
// invocation. It is never mutated concurrently; each stage owns one.
type Table struct {
	macros map[string]Macro
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{macros: make(map[string]Macro)}
}

// NewSeededTable creates a Table pre-populated with the required
// host-defined macros (__true, __false, __cplusplus, __SIZE_TYPE__)
// plus any caller-supplied seeds (e.g. target-describing macros or
// -def flags).
func NewSeededTable(extra map[string]string) *Table {
	t := NewTable()
	t.Define(Macro{Name: "__true", Body: "1"})
	t.Define(Macro{Name: "__false", Body: "0"})
	t.Define(Macro{Name: "__cplusplus", Body: "0"})
	t.Define(Macro{Name: "__SIZE_TYPE__", Body: "unsigned long"})
	for name, value := range extra {
		t.Define(Macro{Name: name, Body: value})
	}
	return t
}

// Define installs m, overwriting any prior definition of the same name
// (last-writer-wins; no diagnostic on redefinition). Duplicated
// formal parameters are deduplicated, preserving first occurrence
// order, matching "the implementation explicitly
// deduplicates its parameter list".
func (t *Table) Define(m Macro) {
	if m.Params != nil {
		m.Params = dedupParams(m.Params)
	}
	t.macros[m.Name] = m
}

func dedupParams(params []string) []string {
	seen := make(map[string]bool, len(params))
	out := make([]string, 0, len(params))
	for _, p := range params {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Lookup returns the macro named name, if defined.
func (t *Table) Lookup(name string) (Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// Has reports whether name is defined, for #ifdef/#ifndef.
func (t *Table) Has(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// parseDefine splits the text following "#define" into a Macro. Two
// forms are recognized:
//
//	NAME body...              -> object-like
//	NAME(p1, p2, ...) body... -> function-like (params may be empty)
func parseDefine(rest string) Macro {
	rest = strings.TrimSpace(rest)
	nameEnd := 0
	for nameEnd < len(rest) && isIdentByte(rest[nameEnd]) {
		nameEnd++
	}
	name := rest[:nameEnd]
	remainder := rest[nameEnd:]

	if strings.HasPrefix(remainder, "(") {
		close := strings.IndexByte(remainder, ')')
		if close >= 0 {
			paramStr := remainder[1:close]
			body := strings.TrimSpace(remainder[close+1:])
			var params []string
			if strings.TrimSpace(paramStr) != "" {
				for _, p := range strings.Split(paramStr, ",") {
					params = append(params, strings.TrimSpace(p))
				}
			} else {
				params = []string{}
			}
			return Macro{Name: name, Params: params, Body: body}
		}
	}

	return Macro{Name: name, Body: strings.TrimSpace(remainder)}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
