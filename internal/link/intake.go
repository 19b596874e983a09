// Package link implements the linker resolver stage: intake of AE
// objects, undefined-symbol resolution, synthetic header emission, and
// PEF image layout.
//
// Headers and section blobs are stitched together in a single pass,
// the same shape a multi-format container writer would use for ELF or
// PE output. Object intake memory-maps the input read-only via mmap-go
// instead of a buffered read, a natural fit since AE objects are read
// once, in full, and never mutated by the linker.
package link

import (
	"bytes"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/container/ae"
)

// ObjectFile is one intake AE object and the path it was read from.
// The decoded Object owns its bytes: the file and its mapping are
// closed before Intake returns.
type ObjectFile struct {
	Path   string
	Object ae.Object
}

// Intake maps each path read-only, decodes it as an AE object, and
// returns the ordered list, satisfying the linker's "verify magic and
// size" requirement on entry (delegated to ae.Decode, which already
// rejects bad magic/size).
func Intake(paths []string) ([]ObjectFile, error) {
	objs := make([]ObjectFile, 0, len(paths))
	for _, p := range paths {
		obj, err := intakeOne(p)
		if err != nil {
			return nil, fmt.Errorf("link: intake %s: %w", p, err)
		}
		objs = append(objs, ObjectFile{Path: p, Object: obj})
	}
	return objs, nil
}

func intakeOne(path string) (ae.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return ae.Object{}, err
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return ae.Object{}, err
	}
	defer data.Unmap()

	return ae.Decode(bytes.NewReader(data))
}

// CheckArch verifies obj.Arch matches target, unless fat is enabled
//.
func CheckArch(obj ae.Object, target arch.Tag, fat bool) error {
	if arch.Tag(obj.Arch) == target || fat {
		return nil
	}
	return fmt.Errorf("link: object architecture %s does not match target %s (fat mode disabled)",
		arch.Tag(obj.Arch), target)
}
