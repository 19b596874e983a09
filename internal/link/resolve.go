package link

import (
	"fmt"
	"strings"

	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/symbols"
)

// keptSuffixes lists the section-name substrings that survive the
// header-ingestion drop filter.
var keptSuffixes = []string{symbols.SuffixCode, symbols.SuffixData, symbols.SuffixZero}

// ingest builds the PEF command list from the intake objects, applying
// the drop rule and stamping cpu/sub_cpu per object, and reports whether the canonical entrypoint was found.
func ingest(objs []ObjectFile) (commands []pef.Command, blob []byte, startFound bool) {
	for _, of := range objs {
		base := uint64(len(blob))
		blob = append(blob, of.Object.Code...)

		for _, rec := range of.Object.Records {
			if !keepRecord(rec.Name) {
				continue
			}
			cmd := pef.Command{
				Name:   rec.Name,
				CPU:    uint32(of.Object.Arch),
				SubCPU: uint32(of.Object.SubArch),
				Kind:   uint16(rec.Kind),
				Offset: base + rec.Offset,
				OffsetSize: rec.Size,
			}
			commands = append(commands, cmd)
			if symbols.IsEntryPoint(rec.Name) {
				startFound = true
			}
		}
	}
	return commands, blob, startFound
}

func keepRecord(name string) bool {
	if symbols.IsEntryPoint(name) || symbols.IsUndefined(name) {
		return true
	}
	for _, suf := range keptSuffixes {
		if strings.Contains(name, suf) {
			return true
		}
	}
	return false
}

// dropUndefined removes :UndefinedSymbol:-prefixed commands once
// resolution has run its course; those entries exist only to drive the
// resolver's worklist and are never written to the PEF output.
func dropUndefined(commands []pef.Command) []pef.Command {
	kept := commands[:0]
	for _, c := range commands {
		if symbols.IsUndefined(c.Name) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// undefinedSet returns the indices of commands carrying the undefined
// marker but not the runtime-resolved marker.
func undefinedSet(commands []pef.Command) []int {
	var undef []int
	for i, c := range commands {
		if strings.Contains(c.Name, symbols.UndefinedPrefix) && !strings.Contains(c.Name, symbols.RuntimePrefix) {
			undef = append(undef, i)
		}
	}
	return undef
}

// resolve attempts to match each undefined command against a defining
// command elsewhere in the list, with a deliberately naive O(N*M) scan:
// demangle the undefined name, search for any non-undefined command
// whose name contains the demangled identifier, then re-verify the
// match character by character. Returns the names that remain
// unresolved.
func resolve(commands []pef.Command, undef []int) []string {
	var unresolved []string
	for _, idx := range undef {
		ident := symbols.Demangle(commands[idx].Name)
		if !resolveOne(commands, idx, ident) {
			unresolved = append(unresolved, commands[idx].Name)
		}
	}
	return unresolved
}

func resolveOne(commands []pef.Command, undefIdx int, ident string) bool {
	for j, cand := range commands {
		if j == undefIdx || symbols.IsUndefined(cand.Name) {
			continue
		}
		if !strings.Contains(cand.Name, ident) {
			continue
		}
		if verifyTail(cand.Name, ident) {
			return true
		}
	}
	return false
}

// verifyTail re-confirms, byte by byte, that ident actually occurs
// within name, the character-by-character re-verify that follows the
// substring-contains pre-check.
func verifyTail(name, ident string) bool {
	idx := strings.Index(name, ident)
	if idx < 0 {
		return false
	}
	for i := 0; i < len(ident); i++ {
		if name[idx+i] != ident[i] {
			return false
		}
	}
	return true
}

// duplicates scans for commands sharing an identical name, excluding
// undefined-symbol entries.
func duplicates(commands []pef.Command) []string {
	seen := map[string]int{}
	var dups []string
	for _, c := range commands {
		if symbols.IsUndefined(c.Name) {
			continue
		}
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}

// ErrMultipleSymbols is returned (wrapped with the offending name) when
// duplicates() finds a repeated definition.
func errMultipleSymbols(name string) error {
	return fmt.Errorf("multiple symbols of %s", name)
}

// ErrUndefinedSymbol is returned (wrapped with the offending name) when
// resolve() cannot find a definition.
func errUndefinedSymbol(name string) error {
	return fmt.Errorf("undefined symbol %s", symbols.Demangle(name))
}

// ErrNoEntryPoint is returned when an Exec image never defines
// __ImageStart.
var errNoEntryPoint = fmt.Errorf("undefined entrypoint %s", symbols.EntryPoint)
