// Package shellsplit breaks a raw shell command string into top-level
// segments at unquoted control operators, without expanding variables,
// resolving globs, or otherwise interpreting the command.
package shellsplit

import "strings"

// Split scans command character by character, tracking single-quote,
// double-quote, and backslash-escape state, and splits at unquoted ";",
// newline, "||", "&&", "|", "|&", and unattached "&". A "&" immediately
// preceded by ">" or "<", or immediately followed by ">", is treated as part
// of a redirection and does not split.
//
// Split never fails: malformed quoting simply carries the remaining buffer
// into the final segment. Returned segments are trimmed and only non-empty
// segments are included, in source order.
func Split(command string) []string {
	var segments []string
	var buf strings.Builder

	inSingle := false
	inDouble := false
	escape := false

	flush := func() {
		part := strings.TrimSpace(buf.String())
		if part != "" {
			segments = append(segments, part)
		}
		buf.Reset()
	}

	runes := []rune(command)
	n := len(runes)
	for i := 0; i < n; i++ {
		ch := runes[i]

		if escape {
			buf.WriteRune(ch)
			escape = false
			continue
		}

		if ch == '\\' && !inSingle {
			buf.WriteRune(ch)
			escape = true
			continue
		}

		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			buf.WriteRune(ch)
			continue
		}

		if ch == '"' && !inSingle {
			inDouble = !inDouble
			buf.WriteRune(ch)
			continue
		}

		if !inSingle && !inDouble {
			if has(runes, i, "&&") || has(runes, i, "||") {
				flush()
				i++
				continue
			}
			if has(runes, i, "|&") {
				flush()
				i++
				continue
			}
			if ch == '|' {
				flush()
				continue
			}
			if ch == '&' {
				var prev, next rune
				if i > 0 {
					prev = runes[i-1]
				}
				if i+1 < n {
					next = runes[i+1]
				}
				if prev == '>' || prev == '<' || next == '>' {
					buf.WriteRune(ch)
					continue
				}
				flush()
				continue
			}
			if ch == ';' || ch == '\n' {
				flush()
				continue
			}
		}

		buf.WriteRune(ch)
	}

	flush()
	return segments
}

// has reports whether runes[i:] begins with the two-character operator op.
func has(runes []rune, i int, op string) bool {
	opRunes := []rune(op)
	if i+len(opRunes) > len(runes) {
		return false
	}
	for j, r := range opRunes {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
