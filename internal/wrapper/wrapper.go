// Package wrapper strips leading environment assignments and the
// sudo/env/command execution wrappers from a token list, so downstream
// analyzers see the real command being invoked.
package wrapper

import "strings"

const maxIterations = 20

// Strip repeatedly removes, from the head of tokens, environment
// assignments and sudo/env/command wrappers until a fixed point is reached
// or maxIterations is hit. It never errors: malformed input just stops the
// loop early and returns whatever remains.
func Strip(tokens []string) []string {
	var prevJoined string
	haveSeen := false

	for iter := 0; iter < maxIterations; iter++ {
		joined := strings.Join(tokens, "\x00")
		if haveSeen && joined == prevJoined {
			break
		}
		haveSeen = true
		prevJoined = joined

		tokens = stripEnvAssignments(tokens)
		if len(tokens) == 0 {
			return tokens
		}

		head := strings.ToLower(tokens[0])
		switch head {
		case "sudo":
			tokens = stripSudo(tokens)
			continue
		case "env":
			tokens = stripEnv(tokens)
			continue
		case "command":
			tokens = stripCommand(tokens)
			continue
		}
		break
	}

	return stripEnvAssignments(tokens)
}

func isEnvAssignment(tok string) (key string, ok bool) {
	idx := strings.IndexByte(tok, '=')
	if idx <= 0 {
		return "", false
	}
	key = tok[:idx]
	if !(isAlpha(key[0]) || key[0] == '_') {
		return "", false
	}
	for i := 1; i < len(key); i++ {
		c := key[i]
		if !(isAlphaNum(c) || c == '_') {
			return "", false
		}
	}
	return key, true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}

func stripEnvAssignments(tokens []string) []string {
	i := 0
	for i < len(tokens) {
		if _, ok := isEnvAssignment(tokens[i]); !ok {
			break
		}
		i++
	}
	return tokens[i:]
}

// stripSudo consumes a leading "sudo" plus its option cluster: any "-x..."
// tokens until the first non-option or "--".
func stripSudo(tokens []string) []string {
	i := 1
	for i < len(tokens) && strings.HasPrefix(tokens[i], "-") && tokens[i] != "--" {
		i++
	}
	if i < len(tokens) && tokens[i] == "--" {
		i++
	}
	return tokens[i:]
}

var envValueOpts = map[string]bool{
	"-u": true, "--unset": true,
	"-C": true, "-P": true, "-S": true,
}

// stripEnv consumes a leading "env" and its option scan.
func stripEnv(tokens []string) []string {
	i := 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok == "--" {
			i++
			break
		}
		if envValueOpts[tok] {
			i += 2
			continue
		}
		if strings.HasPrefix(tok, "--unset=") {
			i++
			continue
		}
		if (strings.HasPrefix(tok, "-u") || strings.HasPrefix(tok, "-C") ||
			strings.HasPrefix(tok, "-P") || strings.HasPrefix(tok, "-S")) && len(tok) > 2 {
			i++
			continue
		}
		if tok == "-" {
			break
		}
		if strings.HasPrefix(tok, "-") {
			i++
			continue
		}
		break
	}
	return tokens[i:]
}

// stripCommand consumes a leading "command" and its -p/-v/-V option cluster.
func stripCommand(tokens []string) []string {
	i := 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok == "--" {
			i++
			break
		}
		if tok == "-p" || tok == "-v" || tok == "-V" {
			i++
			continue
		}
		if strings.HasPrefix(tok, "-") && tok != "-" && !strings.HasPrefix(tok, "--") {
			chars := tok[1:]
			allKnown := len(chars) > 0
			for _, c := range chars {
				if c != 'p' && c != 'v' && c != 'V' {
					allKnown = false
					break
				}
			}
			if allKnown {
				i++
				continue
			}
		}
		break
	}
	return tokens[i:]
}
