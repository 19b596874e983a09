// Package arch defines the toolchain's architecture tags and the small
// target model (architecture + sub-architecture) shared by the
// preprocessor, assembler, and linker stages.
package arch

import (
	"runtime"
	"strings"
)

// Tag is one of the portable architecture integers from the container
// formats. It is deliberately a plain integer, not an interface, so it
// serializes directly into AEHeader.arch and PEFContainer.cpu.
type Tag uint8

const (
	Intel86S  Tag = iota // 32-bit x86, carried for completeness
	AMD64                // x86_64
	RISCV                // riscv64
	Arch64000            // fictional 64-bit RISC family ("64x0")
	Arch32000            // fictional 32-bit RISC family ("32x0")
	PowerPC              // POWER64
	ARM64                // aarch64
	Invalid   Tag = 0xFF
)

func (t Tag) String() string {
	switch t {
	case Intel86S:
		return "intel86s"
	case AMD64:
		return "amd64"
	case RISCV:
		return "riscv64"
	case Arch64000:
		return "64x0"
	case Arch32000:
		return "32x0"
	case PowerPC:
		return "power64"
	case ARM64:
		return "arm64"
	default:
		return "invalid"
	}
}

// RegisterLimit returns the number of general-purpose registers the
// assembler will accept for this target ("register index must be
// less than the register limit").
func (t Tag) RegisterLimit() int {
	switch t {
	case Arch64000:
		return 30
	case Arch32000:
		return 16
	case AMD64:
		return 16
	case ARM64:
		return 31
	case RISCV:
		return 32
	case PowerPC:
		return 32
	default:
		return 16
	}
}

// ParseFlag parses one of the CLI target-selection flags
// ("-64k / -32k / -amd64 / -power64 / -arm64 / -riscv64").
func ParseFlag(flag string) (Tag, bool) {
	switch strings.ToLower(strings.TrimPrefix(flag, "-")) {
	case "64k":
		return Arch64000, true
	case "32k":
		return Arch32000, true
	case "amd64":
		return AMD64, true
	case "power64":
		return PowerPC, true
	case "arm64":
		return ARM64, true
	case "riscv64":
		return RISCV, true
	default:
		return Invalid, false
	}
}

// HostDefault reports the Tag matching the running process's own
// GOARCH, for use as the driver's default target when no -64k/-32k/
// -amd64/-power64/-arm64/-riscv64 flag is given. The fictional families
// (64x0, 32x0) have no host to detect; unmatched hosts fall back to
// AMD64, the toolchain's baseline target.
func HostDefault() Tag {
	switch runtime.GOARCH {
	case "amd64":
		return AMD64
	case "arm64":
		return ARM64
	case "riscv64":
		return RISCV
	case "ppc64", "ppc64le":
		return PowerPC
	case "386":
		return Intel86S
	default:
		return AMD64
	}
}

// SubCPU enumerates vendor families within an architecture. The
// contract only requires it be carried through untouched; no encoder
// currently branches on it beyond the default family.
type SubCPU uint8

const (
	SubCPUGeneric SubCPU = iota
)

// Target pairs an architecture tag with its sub-CPU family.
type Target struct {
	Arch   Tag
	SubCPU SubCPU
}

func (t Target) String() string { return t.Arch.String() }

// ABIName returns the linker's synthetic ABI-identifier value for
// this target.
func (t Target) ABIName() string {
	switch t.Arch {
	case AMD64:
		return "MSFT"
	case PowerPC:
		return "SYSV"
	case Arch32000, Arch64000:
		return "_NEP"
	default:
		return "_IDK"
	}
}
