package assemble

import (
	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/assemble/encoders"
	"github.com/xyproto/ae67/internal/assemble/encoders/amd64"
	"github.com/xyproto/ae67/internal/assemble/encoders/arch32000"
	"github.com/xyproto/ae67/internal/assemble/encoders/arch64000"
	"github.com/xyproto/ae67/internal/assemble/encoders/arm64"
	"github.com/xyproto/ae67/internal/assemble/encoders/power64"
	"github.com/xyproto/ae67/internal/assemble/encoders/riscv64"
)

// EncoderFor returns the per-target Encoder for tag, mirroring the
// teacher's single dispatch-on-target-enum switch (main.go selects
// codegen.go/riscv64_backend.go/codegen_arm64_writer.go by the same
// kind of tag).
func EncoderFor(tag arch.Tag) (encoders.Encoder, bool) {
	switch tag {
	case arch.AMD64:
		return amd64.New(), true
	case arch.ARM64:
		return arm64.New(), true
	case arch.RISCV:
		return riscv64.New(), true
	case arch.Arch64000:
		return arch64000.New(), true
	case arch.Arch32000:
		return arch32000.New(), true
	case arch.PowerPC:
		return power64.New(), true
	default:
		return nil, false
	}
}
