package assemble

import "strings"

// allowedPunct is the punctuation set tolerated outside alphanumerics
// on an assembly line \" ' [ ] + _ : @ . \t space").
const allowedPunct = ",()\"'[]+_:@. \t"

// ValidateLine reports whether line passes the basic lexical screen:
// every byte is alphanumeric or in allowedPunct. Comments and blank
// lines are the caller's concern (StripComment / IsBlank below).
func ValidateLine(line string) bool {
	for i := 0; i < len(line); i++ {
		b := line[i]
		if isAlnum(b) {
			continue
		}
		if strings.IndexByte(allowedPunct, b) >= 0 {
			continue
		}
		return false
	}
	return true
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// StripComment removes a trailing "#" or ";" comment from line.
func StripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' || line[i] == ';' {
			return line[:i]
		}
	}
	return line
}

// IsBlank reports whether line (after trimming) is empty.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Fields splits a validated instruction/directive line into
// whitespace-separated tokens, collapsing runs of spaces/tabs.
func Fields(line string) []string {
	return strings.Fields(line)
}
