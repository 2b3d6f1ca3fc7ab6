// Package dispatch extracts the child command a dispatcher utility
// (xargs, GNU parallel) will actually execute, so the orchestrator can
// recurse into it the same way it recurses into shell/interpreter wrappers.
package dispatch

import (
	"strings"

	"github.com/ccsafetynet/safety-net/internal/cmdnorm"
)

var xargsConsumesValue = map[string]bool{
	"-a": true, "-I": true, "-J": true, "-L": true, "-l": true, "-n": true,
	"-R": true, "-S": true, "-s": true, "-P": true, "-d": true, "-E": true,
	"--arg-file": true, "--delimiter": true, "--eof": true, "--max-args": true,
	"--max-lines": true, "--max-procs": true, "--max-chars": true,
	"--process-slot-var": true,
}

// ExtractXargsChild returns the command tokens xargs will execute, or
// ok=false if none can be determined. tokens[0] must normalize to "xargs".
// This is a best-effort scan over xargs's own options; it does not attempt
// to fully model platform-specific xargs behavior.
func ExtractXargsChild(tokens []string) (child []string, ok bool) {
	if len(tokens) == 0 || cmdnorm.Normalize(tokens[0]) != "xargs" {
		return nil, false
	}

	i := 1
	for i < len(tokens) {
		tok := tokens[i]

		if tok == "--" {
			i++
			break
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			break
		}

		if strings.HasPrefix(tok, "--") {
			if xargsConsumesValue[tok] {
				i += 2
				continue
			}
			// "--opt=value" forms already carry their value in this one
			// token, so they just advance by one.
			i++
			continue
		}

		if tok == "-i" {
			// -i enables replacement (optional attached arg) but, in its
			// bare form, does not consume the next token.
			i++
			continue
		}
		if xargsConsumesValue[tok] {
			i += 2
			continue
		}

		switch {
		case strings.HasPrefix(tok, "-I") && len(tok) > 2,
			strings.HasPrefix(tok, "-i") && len(tok) > 2,
			strings.HasPrefix(tok, "-a") && len(tok) > 2,
			strings.HasPrefix(tok, "-d") && len(tok) > 2,
			strings.HasPrefix(tok, "-E") && len(tok) > 2,
			strings.HasPrefix(tok, "-J") && len(tok) > 2:
			i++
			continue
		case strings.HasPrefix(tok, "-n") && len(tok) > 2 && isDigits(tok[2:]),
			strings.HasPrefix(tok, "-P") && len(tok) > 2 && isDigits(tok[2:]),
			strings.HasPrefix(tok, "-L") && len(tok) > 2 && isDigits(tok[2:]),
			strings.HasPrefix(tok, "-R") && len(tok) > 2 && isDigits(tok[2:]),
			strings.HasPrefix(tok, "-S") && len(tok) > 2 && isDigits(tok[2:]),
			strings.HasPrefix(tok, "-s") && len(tok) > 2 && isDigits(tok[2:]):
			i++
			continue
		}

		// Unknown short option; best-effort skip.
		i++
	}

	if i >= len(tokens) {
		return nil, false
	}
	return tokens[i:], true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// XargsReplacementTokens returns the set of replacement placeholders xargs
// is configured with (-I/-i/-J/--replace[-str]), or an empty set if xargs
// is not in replacement mode.
func XargsReplacementTokens(tokens []string) map[string]bool {
	repl := map[string]bool{}
	if len(tokens) == 0 || cmdnorm.Normalize(tokens[0]) != "xargs" {
		return repl
	}

	i := 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok == "--" {
			break
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			break
		}

		switch {
		case tok == "-I" || tok == "-J":
			if i+1 < len(tokens) {
				repl[tokens[i+1]] = true
				i += 2
				continue
			}
			return repl
		case strings.HasPrefix(tok, "-I") && len(tok) > 2:
			repl[tok[2:]] = true
			i++
			continue
		case strings.HasPrefix(tok, "-J") && len(tok) > 2:
			repl[tok[2:]] = true
			i++
			continue
		case tok == "-i":
			repl["{}"] = true
			i++
			continue
		case strings.HasPrefix(tok, "-i") && len(tok) > 2:
			repl[tok[2:]] = true
			i++
			continue
		case tok == "--replace" || tok == "--replace=" || tok == "--replace-str":
			repl["{}"] = true
			i++
			continue
		case strings.HasPrefix(tok, "--replace="):
			val := strings.TrimPrefix(tok, "--replace=")
			if val == "" {
				val = "{}"
			}
			repl[val] = true
			i++
			continue
		}

		i++
	}

	return repl
}

var parallelConsumesValue = map[string]bool{
	"-j": true, "--jobs": true, "-S": true, "--sshlogin": true,
	"--sshloginfile": true, "--results": true, "--joblog": true,
	"--workdir": true, "--tmpdir": true, "--tempdir": true, "--tagstring": true,
}

// ExtractParallelTemplate returns the command template, the literal
// arguments after a ":::" marker (if present), and whether args are dynamic
// (read from stdin, i.e. no ":::" marker was found). ok is false if tokens
// don't start with "parallel".
func ExtractParallelTemplate(tokens []string) (template []string, args []string, dynamic bool, ok bool) {
	if len(tokens) == 0 || cmdnorm.Normalize(tokens[0]) != "parallel" {
		return nil, nil, false, false
	}

	marker := len(tokens)
	dynamic = true
	for idx, t := range tokens {
		if t == ":::" {
			marker = idx
			dynamic = false
			break
		}
	}
	if !dynamic {
		args = tokens[marker+1:]
	}

	i := 1
	for i < marker {
		tok := tokens[i]
		if tok == "--" {
			i++
			break
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			break
		}

		if parallelConsumesValue[tok] {
			i += 2
			continue
		}

		if strings.HasPrefix(tok, "--") {
			// "--opt=value" forms already carry their value in this one
			// token, so they just advance by one.
			i++
			continue
		}

		if strings.HasPrefix(tok, "-j") && len(tok) > 2 {
			i++
			continue
		}
		if strings.HasPrefix(tok, "-S") && len(tok) > 2 {
			i++
			continue
		}

		i++
	}

	template = tokens[i:marker]
	return template, args, dynamic, true
}
