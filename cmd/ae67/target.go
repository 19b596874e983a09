package main

import (
	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/arch"
)

// targetFlags holds the mutually-exclusive architecture-selection bools
// ("-64k / -32k / -amd64 / -power64 / -arm64 / -riscv64").
type targetFlags struct {
	k64    bool
	k32    bool
	amd64  bool
	power  bool
	arm64  bool
	riscv  bool
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&t.k64, "64k", false, "target the 64x0 architecture")
	cmd.Flags().BoolVar(&t.k32, "32k", false, "target the 32x0 architecture")
	cmd.Flags().BoolVar(&t.amd64, "amd64", false, "target amd64")
	cmd.Flags().BoolVar(&t.power, "power64", false, "target power64")
	cmd.Flags().BoolVar(&t.arm64, "arm64", false, "target arm64")
	cmd.Flags().BoolVar(&t.riscv, "riscv64", false, "target riscv64")
}

// resolve picks the single selected architecture tag, defaulting to the
// host's own architecture when none of the flags are set (a single flat
// flag list has no natural "required" enforcement ).
func (t *targetFlags) resolve() arch.Tag {
	switch {
	case t.k64:
		return arch.Arch64000
	case t.k32:
		return arch.Arch32000
	case t.amd64:
		return arch.AMD64
	case t.power:
		return arch.PowerPC
	case t.arm64:
		return arch.ARM64
	case t.riscv:
		return arch.RISCV
	default:
		return arch.HostDefault()
	}
}
