// Package optutil holds small option-parsing helpers shared across the
// built-in command analyzers.
package optutil

import "strings"

// ShortOpts returns the union of single-character option letters across
// tokens that start with a single "-" (not "--"). Stops at the "--"
// end-of-options marker. Within a token, stops at the first non-alphabetic
// character so "-C/path" contributes only {C}, never "/", "p", "a", "t",
// "h".
func ShortOpts(tokens []string) map[byte]bool {
	opts := make(map[byte]bool)
	for _, tok := range tokens {
		if tok == "--" {
			break
		}
		if strings.HasPrefix(tok, "--") || !strings.HasPrefix(tok, "-") || tok == "-" {
			continue
		}
		for i := 1; i < len(tok); i++ {
			c := tok[i]
			if !isAlpha(c) {
				break
			}
			opts[c] = true
		}
	}
	return opts
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// HasShort reports whether letter is present in opts.
func HasShort(opts map[byte]bool, letter byte) bool {
	return opts[letter]
}

// IndexOf returns the index of the first occurrence of target in tokens, or
// -1 if absent.
func IndexOf(tokens []string, target string) int {
	for i, t := range tokens {
		if t == target {
			return i
		}
	}
	return -1
}

// Contains reports whether target is present in tokens.
func Contains(tokens []string, target string) bool {
	return IndexOf(tokens, target) >= 0
}

// ContainsFold reports whether target is present in tokens using
// case-insensitive comparison.
func ContainsFold(tokens []string, target string) bool {
	for _, t := range tokens {
		if strings.EqualFold(t, target) {
			return true
		}
	}
	return false
}

// ToLowerAll returns a new slice with every token lower-cased.
func ToLowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

// SplitAtDoubleDash splits tokens into the options portion (before the
// first bare "--") and the positional portion (after it). present reports
// whether a "--" was found at all.
func SplitAtDoubleDash(tokens []string) (opts []string, positional []string, present bool) {
	idx := IndexOf(tokens, "--")
	if idx < 0 {
		return tokens, nil, false
	}
	return tokens[:idx], tokens[idx+1:], true
}
