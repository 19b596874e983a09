package link

import (
	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/symbols"
	"github.com/xyproto/ae67/internal/uuidgen"
)

// synthesize appends the five synthetic headers in the fixed order
// this linker always emits: BuildEpoch, ABI identifier,
// SizeOfReserveStack, GUID, and the Container:Exec:END sentinel.
// Payload values that have no dedicated PEFCommandHeader field are
// carried in the header name, mirroring the sentinel's own
// "Container:Exec:END" naming convention.
func synthesize(commands []pef.Command, target arch.Target, buildEpoch int64) []pef.Command {
	u := uuidgen.New()

	commands = append(commands, pef.Command{
		Name: "BuildEpoch:" + itoa(buildEpoch),
		Kind: uint16(symbols.Zero), // kind=Zero
	})
	commands = append(commands, pef.Command{
		Name: "ABI:" + target.ABIName(),
		Kind: uint16(4), // kind=LinkerID
	})
	commands = append(commands, pef.Command{
		Name: "SizeOfReserveStack:" + itoa(defaultReserveStack),
		Kind: uint16(4),
	})
	commands = append(commands, pef.Command{
		Name: "GUID:4:" + uuidgen.String(u),
		Kind: uint16(4),
	})
	commands = append(commands, pef.Command{
		Name: "Container:Exec:END",
		Kind: uint16(4),
	})
	return commands
}

// defaultReserveStack is the synthetic SizeOfReserveStack payload, in
// bytes, stamped into every image this toolchain produces.
const defaultReserveStack = 1 << 20 // 1 MiB

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// layout computes the final, shifted command offsets and the
// entrypoint's post-shift file offset: the running offset is seeded at
// sizeof(container header) + commands.len x sizeof(CommandHeader) + 16
// padding bytes, since the container header is always written first.
func layout(commands []pef.Command) (laidOut []pef.Command, start uint64, startFound bool) {
	running := uint64(pef.HeaderSize) + uint64(len(commands))*uint64(pef.CommandHeaderSize) + 16

	laidOut = make([]pef.Command, len(commands))
	for i, c := range commands {
		c.Offset = running
		running += c.OffsetSize
		if symbols.IsEntryPoint(c.Name) {
			start = c.Offset
			startFound = true
		}
		laidOut[i] = c
	}
	return laidOut, start, startFound
}
