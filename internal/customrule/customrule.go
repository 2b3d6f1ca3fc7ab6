// Package customrule matches a tokenized command against user-configured
// custom blocking rules (see internal/config).
package customrule

import (
	"fmt"

	"github.com/ccsafetynet/safety-net/internal/optutil"
)

// Rule is a single custom blocking rule: block an invocation of Command
// (optionally narrowed to Subcommand) when any of BlockArgs is present.
type Rule struct {
	Name       string
	Command    string
	Subcommand string // empty means "no subcommand filter"
	BlockArgs  []string
	Reason     string
}

// Check matches tokens against rules and returns the formatted
// "[rule-name] reason" block message for the first matching rule, or ""
// if none match. Command/subcommand/arg comparisons are case-sensitive.
func Check(tokens []string, rules []Rule) string {
	if len(tokens) == 0 || len(rules) == 0 {
		return ""
	}

	// Matching is case-sensitive on the raw basename, unlike the built-in
	// analyzers' cmdnorm.Normalize which also lower-cases.
	command := basename(tokens[0])

	subcommand, hasSubcommand := extractSubcommand(tokens)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	shortOpts := optutil.ShortOpts(tokens)

	for _, rule := range rules {
		if rule.Command != command {
			continue
		}
		if rule.Subcommand != "" {
			if !hasSubcommand || subcommand != rule.Subcommand {
				continue
			}
		}

		for _, blocked := range rule.BlockArgs {
			if tokenSet[blocked] {
				return fmt.Sprintf("[%s] %s", rule.Name, rule.Reason)
			}
			if len(blocked) == 2 && blocked[0] == '-' && blocked[1] != '-' && shortOpts[blocked[1]] {
				return fmt.Sprintf("[%s] %s", rule.Name, rule.Reason)
			}
		}
	}

	return ""
}

func basename(token string) string {
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '/' {
			return token[i+1:]
		}
	}
	return token
}

// extractSubcommand returns the first non-option argument after the
// command token. Mirrors the reference implementation's deliberately
// conservative stance: it does not assume a short option consumes the next
// token (it can't, without per-command knowledge), so `git -C /path push`
// yields "/path" rather than "push".
func extractSubcommand(tokens []string) (string, bool) {
	i := 1
	for i < len(tokens) {
		tok := tokens[i]

		if tok == "--" {
			i++
			if i < len(tokens) {
				return tokens[i], true
			}
			return "", false
		}

		if len(tok) >= 2 && tok[0] == '-' {
			i++
			continue
		}

		return tok, true
	}
	return "", false
}
