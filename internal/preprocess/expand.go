package preprocess

import "strings"

// Expand performs a single-pass macro substitution over one line of
// already-directive-stripped text: object-like macros are matched whole
// -word, function-like macros are matched at "name(" call sites with
// comma-split, depth-aware argument parsing.
//
// Expansion is single-pass per line by construction (the function never
// re-scans its own output), which is what keeps self-referential macros
// from looping.
func (t *Table) Expand(line string) string {
	var out strings.Builder
	i := 0
	for i < len(line) {
		if !isIdentStart(line[i]) {
			out.WriteByte(line[i])
			i++
			continue
		}
		start := i
		for i < len(line) && isIdentByte(line[i]) {
			i++
		}
		word := line[start:i]

		m, ok := t.Lookup(word)
		if !ok {
			out.WriteString(word)
			continue
		}

		if m.IsFunctionLike() {
			// Only treat as a call if immediately followed by '('.
			j := i
			for j < len(line) && line[j] == ' ' {
				j++
			}
			if j < len(line) && line[j] == '(' {
				args, after, ok := splitArgs(line, j)
				if ok {
					out.WriteString(substitute(m, args))
					i = after
					continue
				}
			}
			// Not actually called: emit the bare name.
			out.WriteString(word)
			continue
		}

		out.WriteString(m.Body)
	}
	return out.String()
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// splitArgs parses a parenthesized, comma-separated argument list
// starting at line[open] == '(', splitting only at depth 0 so nested
// calls aren't broken apart. It returns the trimmed
// arguments and the index just past the closing ')'.
func splitArgs(line string, open int) (args []string, after int, ok bool) {
	depth := 0
	var cur strings.Builder
	for i := open; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '(':
			depth++
			if depth == 1 {
				continue // don't include the opening paren itself
			}
		case c == ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(cur.String()))
				return args, i + 1, true
			}
		case c == ',' && depth == 1:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return nil, 0, false
}

// substitute replaces each formal parameter occurrence in m.Body with
// the corresponding actual argument, textually, parameter by parameter
//. Extra or missing arguments are tolerated: a missing
// argument substitutes as empty text.
func substitute(m Macro, args []string) string {
	body := m.Body
	for idx, param := range m.Params {
		var actual string
		if idx < len(args) {
			actual = args[idx]
		}
		body = replaceWholeWord(body, param, actual)
	}
	return body
}

// replaceWholeWord replaces every whole-word occurrence of word in s
// with repl, where a word boundary is a non-alphanumeric, non-'_'
// character.
func replaceWholeWord(s, word, repl string) string {
	if word == "" {
		return s
	}
	var out strings.Builder
	i := 0
	for i < len(s) {
		if isIdentStart(s[i]) {
			start := i
			for i < len(s) && isIdentByte(s[i]) {
				i++
			}
			tok := s[start:i]
			if tok == word {
				out.WriteString(repl)
			} else {
				out.WriteString(tok)
			}
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}
