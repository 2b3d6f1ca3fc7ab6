// Package cmdnorm normalizes individual command tokens the way the
// dispatcher analyzers need: stripping incidental wrapper punctuation left
// behind by substitutions and grouping, and reducing a command word to its
// base name for comparison against known binaries.
package cmdnorm

import (
	"path"
	"strings"
)

// StripTokenWrappers trims whitespace and leading/trailing punctuation that
// command substitution or grouping constructs can leave attached to a
// token: a leading "$(", and any of "\`({[" / "`)}]" at the edges. It
// deliberately leaves ";" alone so callers can still recognize terminators
// like the closing `\;` of `find -exec`.
func StripTokenWrappers(token string) string {
	tok := strings.TrimSpace(token)
	for strings.HasPrefix(tok, "$(") {
		tok = tok[2:]
	}
	tok = strings.TrimLeft(tok, "\\`({[")
	tok = strings.TrimRight(tok, "`)}]")
	return tok
}

// Normalize reduces a command token to its comparable base form: wrapper
// punctuation stripped, any trailing ";" removed, lower-cased, and reduced
// to its final path component (so "/usr/bin/rm" and "rm" compare equal).
func Normalize(token string) string {
	tok := StripTokenWrappers(token)
	tok = strings.TrimRight(tok, ";")
	tok = strings.ToLower(tok)
	return path.Base(tok)
}
