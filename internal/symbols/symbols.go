// Package symbols classifies section names and symbol references shared
// by the assembler and the linker: section kinds, the mangled
// undefined/runtime-symbol prefixes, and the canonical entrypoint name.
//
// Both the assembler and the linker need to branch on section purpose
// by name/suffix, so the classification lives in one shared package
// instead of being duplicated per container format.
package symbols

import "strings"

// UndefinedPrefix marks a section name as an unresolved cross-object
// reference.
const UndefinedPrefix = ":UndefinedSymbol:"

// RuntimePrefix marks a section name as resolved at runtime, exempting
// it from the linker's undefined-symbol worklist.
const RuntimePrefix = ":RuntimeSymbol:"

// EntryPoint is the canonical entrypoint symbol name.
const EntryPoint = "__ImageStart"

// Suffixes recognized on public_segment/extern_segment directives.
const (
	SuffixCode = ".code64"
	SuffixData = ".data64"
	SuffixZero = ".zero64"
)

// Kind classifies a section record's storage purpose.
type Kind int

const (
	Invalid Kind = iota
	Code
	Data
	Zero
	LinkerID
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	case Data:
		return "data"
	case Zero:
		return "zero"
	case LinkerID:
		return "linkerid"
	default:
		return "invalid"
	}
}

// KindFromSuffix maps a public_segment suffix to its section kind. The
// entrypoint symbol is always forced to Code regardless of suffix
//.
func KindFromSuffix(name, suffix string) Kind {
	if name == EntryPoint {
		return Code
	}
	switch suffix {
	case SuffixCode:
		return Code
	case SuffixData:
		return Data
	case SuffixZero:
		return Zero
	default:
		return Invalid
	}
}

// IsUndefined reports whether name carries the undefined-reference
// mangling prefix.
func IsUndefined(name string) bool {
	return strings.HasPrefix(name, UndefinedPrefix)
}

// IsRuntime reports whether name carries the runtime-symbol prefix.
func IsRuntime(name string) bool {
	return strings.Contains(name, RuntimePrefix)
}

// IsEntryPoint reports whether name is the toolchain's canonical
// entrypoint and carries the .code64 suffix expected for an executable
// image.
func IsEntryPoint(name string) bool {
	return strings.Contains(name, EntryPoint) && strings.Contains(name, SuffixCode)
}

// Mangle replaces spaces and commas in an identifier with '$', the
// separator used by extern_segment records.
func Mangle(ident string) string {
	r := strings.NewReplacer(" ", "$", ",", "$")
	return r.Replace(ident)
}

// Demangle strips the undefined-reference prefix and all '$'
// separators, recovering the plain identifier.
func Demangle(name string) string {
	name = strings.TrimPrefix(name, UndefinedPrefix)
	return strings.ReplaceAll(name, "$", "")
}

// UndefinedName builds the section name emitted for an extern_segment
// directive: the prefix followed by the mangled identifier.
func UndefinedName(ident string) string {
	return UndefinedPrefix + Mangle(ident)
}
