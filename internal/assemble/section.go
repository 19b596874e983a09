package assemble

import "github.com/xyproto/ae67/internal/symbols"

// Section is one public_segment/extern_segment directive's accumulated
// state. Size is finalized when the next section opens
// or the file ends.
type Section struct {
	Name  string
	Kind  symbols.Kind
	Size  uint64
	Flags uint64

	startInBlob uint64 // offset into the object's code blob
	isExtern    bool
	regCounter  int // per-section register-index counter
}

// RegisterIndex increments and returns the section's register counter,
// used by RegToReg/GReg/FReg/VReg instruction forms to track operand
// register usage.
func (s *Section) RegisterIndex() int {
	idx := s.regCounter
	s.regCounter++
	return idx
}
