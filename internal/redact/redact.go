// Package redact scrubs likely secrets out of command text before it is
// echoed back in a deny reason or audit log entry.
package redact

import "regexp"

// Patterns run in a fixed order: URL credentials are resolved before the
// generic KEY=VALUE pass so a credential embedded in a URL query or userinfo
// segment isn't left exposed by a narrower key-name match firing first.
var (
	urlCredentials = regexp.MustCompile(`(?i)(https?://)([^\s/:@]+):([^\s@]+)@`)

	authQuoted      = regexp.MustCompile(`(?i)(["']\s*authorization\s*:\s*)([^"']+)(["'])`)
	authValuePair   = regexp.MustCompile(`(?i)(authorization\s*:\s*)([^\s"']+)(\s+[^\s"']+)`)
	authValueSingle = regexp.MustCompile(`(?i)(authorization\s*:\s*)([^\s"']+)`)

	keyValueSecret = regexp.MustCompile(
		`(?i)\b([A-Z0-9_]*(?:TOKEN|SECRET|PASSWORD|PASS|KEY|CREDENTIALS)[A-Z0-9_]*)=(\S+)`,
	)

	githubToken = regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`)
)

const maxExcerptLen = 300

// Secrets runs the redaction pipeline over text and returns the scrubbed
// result. It never touches the filesystem or network and has no knowledge
// of which secrets are actually live; it is a heuristic best-effort scrub.
func Secrets(text string) string {
	out := urlCredentials.ReplaceAllString(text, "${1}<redacted>:<redacted>@")
	out = authQuoted.ReplaceAllString(out, "${1}<redacted>${3}")
	out = authValuePair.ReplaceAllString(out, "${1}<redacted>")
	out = authValueSingle.ReplaceAllString(out, "${1}<redacted>")
	out = keyValueSecret.ReplaceAllString(out, "${1}=<redacted>")
	out = githubToken.ReplaceAllString(out, "<redacted>")
	return out
}

// Excerpt redacts text and truncates it to 300 characters (runes), appending
// an ellipsis if anything was cut.
func Excerpt(text string) string {
	scrubbed := Secrets(text)
	runes := []rune(scrubbed)
	if len(runes) <= maxExcerptLen {
		return scrubbed
	}
	return string(runes[:maxExcerptLen]) + "…"
}
