// Package rmrule decides whether an rm invocation is effectively `rm -rf`
// and, if so, whether every target it names is a permitted scratch path.
package rmrule

import (
	"path"
	"strings"

	"github.com/ccsafetynet/safety-net/internal/optutil"
)

const (
	ReasonRootOrHome = "rm -rf against the filesystem root or a home directory " +
		"is never allowed (root or home is always out of scope)."
	ReasonOutsideScratch = "rm -rf targets a location outside the allowed scratch " +
		"area. List files first, then delete individually."
	ReasonParanoid = "rm -rf is blocked under paranoid mode regardless of target. " +
		"Disable SAFETY_NET_PARANOID_RM if this is truly needed."
)

// Context carries the caller's working directory and home directory (for
// lexical containment checks), the paranoid_rm mode flag, and whether the
// raw segment reassigns TMPDIR.
type Context struct {
	// Cwd is the caller's working directory, or "" if unknown.
	Cwd string
	// HomeDir is the user's home directory, or "" if unknown.
	HomeDir string
	// Paranoid, when true, denies every recursive+force rm regardless of
	// target.
	Paranoid bool
	// AllowTmpdirVar is false when the raw segment reassigns TMPDIR
	// (matched via \bTMPDIR= on the original segment text), which
	// disqualifies $TMPDIR-relative targets from the allow-list.
	AllowTmpdirVar bool
}

// Analyze inspects an rm invocation (tokens[0] normalized to "rm") and
// returns a deny reason, or "" to allow. Destructive-ness requires both a
// recursive flag (-r/-R/--recursive) and a force flag (-f/--force).
func Analyze(tokens []string, ctx Context) string {
	if len(tokens) == 0 {
		return ""
	}

	if !IsDestructive(tokens) {
		return ""
	}

	_, args := splitOptsAndArgs(tokens[1:])

	if ctx.Paranoid {
		return ReasonParanoid
	}

	if len(args) == 0 {
		return ""
	}

	for _, arg := range args {
		if !targetAllowed(arg, ctx) {
			if isRootOrHome(arg) {
				return ReasonRootOrHome
			}
			return ReasonOutsideScratch
		}
	}

	return ""
}

// IsDestructive reports whether an rm invocation (tokens[0] normalized to
// "rm") combines a recursive flag (-r/-R/--recursive) with a force flag
// (-f/--force), regardless of its targets.
func IsDestructive(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	opts, _ := splitOptsAndArgs(tokens[1:])
	optsLower := optutil.ToLowerAll(opts)
	short := optutil.ShortOpts(opts)

	recursive := contains(optsLower, "--recursive") || short['r'] || short['R']
	force := contains(optsLower, "--force") || short['f']
	return recursive && force
}

// splitOptsAndArgs separates option-looking tokens (before "--") from
// positional targets. Tokens after "--" are still targets.
func splitOptsAndArgs(rest []string) (opts []string, args []string) {
	seenDashDash := false
	for _, t := range rest {
		if !seenDashDash && t == "--" {
			seenDashDash = true
			continue
		}
		if !seenDashDash && strings.HasPrefix(t, "-") && t != "-" {
			opts = append(opts, t)
			continue
		}
		args = append(args, t)
	}
	return opts, args
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func isRootOrHome(arg string) bool {
	if arg == "/" {
		return true
	}
	if arg == "~" {
		return true
	}
	// "~username" (but not "~/path", which is merely home-relative).
	if strings.HasPrefix(arg, "~") && len(arg) > 1 && arg[1] != '/' {
		return true
	}
	return false
}

// targetAllowed decides whether a single rm -rf target is a permitted
// scratch path under ctx.
func targetAllowed(arg string, ctx Context) bool {
	if isRootOrHome(arg) {
		return false
	}

	if matched, remainder, ok := tmpdirVarTarget(arg); ok {
		if !matched {
			return false
		}
		if escapesViaDotDot(remainder) {
			return false
		}
		return ctx.AllowTmpdirVar
	}

	if strings.HasPrefix(arg, "/") {
		if tmpRootTarget(arg) {
			return true
		}
	}

	// Command substitution / backtick segments never qualify as scratch,
	// even if they happen to look like they're under cwd.
	if strings.ContainsAny(arg, "`") || strings.Contains(arg, "$(") {
		return false
	}

	if strings.HasPrefix(arg, "$") || strings.HasPrefix(arg, "~") {
		// Unresolved variable/home references that didn't match the
		// TMPDIR rule above are never trusted.
		return false
	}

	if ctx.Cwd == "" {
		// Unknown cwd collapses the allow-list to /tmp, /var/tmp, $TMPDIR.
		return false
	}

	cleanCwd := path.Clean(ctx.Cwd)
	if ctx.HomeDir != "" && cleanCwd == path.Clean(ctx.HomeDir) {
		return false
	}

	var target string
	if path.IsAbs(arg) {
		target = path.Clean(arg)
	} else {
		target = path.Join(cleanCwd, arg)
	}

	return target != cleanCwd && strings.HasPrefix(target, cleanCwd+"/")
}

// tmpdirVarTarget reports whether arg is a $TMPDIR / ${TMPDIR} reference.
// ok is false if arg isn't a TMPDIR reference at all; matched mirrors ok
// here and remainder is the path segment after "$TMPDIR/" (empty for a bare
// "$TMPDIR").
func tmpdirVarTarget(arg string) (matched bool, remainder string, ok bool) {
	switch {
	case arg == "$TMPDIR" || arg == "${TMPDIR}":
		return true, "", true
	case strings.HasPrefix(arg, "$TMPDIR/"):
		return true, strings.TrimPrefix(arg, "$TMPDIR/"), true
	case strings.HasPrefix(arg, "${TMPDIR}/"):
		return true, strings.TrimPrefix(arg, "${TMPDIR}/"), true
	default:
		return false, "", false
	}
}

func escapesViaDotDot(remainder string) bool {
	if remainder == "" {
		return false
	}
	for _, part := range strings.Split(remainder, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func tmpRootTarget(arg string) bool {
	cleaned := path.Clean(arg)
	return cleaned == "/tmp" || strings.HasPrefix(cleaned, "/tmp/") ||
		cleaned == "/var/tmp" || strings.HasPrefix(cleaned, "/var/tmp/")
}
