// Package gitrule analyzes `git` invocations for subcommands that discard
// uncommitted work, rewrite history, or delete refs without a safety net.
package gitrule

import (
	"strings"

	"github.com/ccsafetynet/safety-net/internal/optutil"
)

const (
	ReasonCheckoutDoubleDash = "git checkout -- discards uncommitted changes " +
		"permanently. Use 'git stash' first."
	ReasonCheckoutRefDoubleDash = "git checkout <ref> -- <path> overwrites " +
		"working tree. Use 'git stash' first."
	ReasonCheckoutRefPathspec = "git checkout <ref> <path> overwrites working " +
		"tree. Use 'git stash' first."
	ReasonCheckoutPathspecFromFile = "git checkout --pathspec-from-file " +
		"overwrites working tree. Use 'git stash' first."
	ReasonRestore = "git restore discards uncommitted changes. Use 'git stash' " +
		"or 'git diff' first."
	ReasonRestoreWorktree = "git restore --worktree discards uncommitted " +
		"changes permanently."
	ReasonResetHard = "git reset --hard destroys uncommitted changes. Use " +
		"'git stash' first."
	ReasonResetMerge = "git reset --merge can lose uncommitted changes."
	ReasonCleanForce = "git clean -f removes untracked files permanently. " +
		"Review with 'git clean -n' first."
	ReasonPushForce = "Force push can destroy remote history. Use " +
		"--force-with-lease if necessary."
	ReasonWorktreeRemoveForce = "git worktree remove --force can delete " +
		"worktree files. Verify the path first."
	ReasonBranchDeleteForce = "git branch -D force-deletes without merge " +
		"check. Use -d for safety."
	ReasonStashDrop = "git stash drop permanently deletes stashed changes. " +
		"List stashes first with 'git stash list'."
	ReasonStashClear = "git stash clear permanently deletes ALL stashed changes."
)

// globalOptsWithValue are top-level `git` options that consume the next
// token as a value.
var globalOptsWithValue = map[string]bool{
	"-c": true, "-C": true, "--exec-path": true, "--git-dir": true,
	"--namespace": true, "--super-prefix": true, "--work-tree": true,
}

var globalOptsNoValue = map[string]bool{
	"-p": true, "-P": true, "-h": true, "--help": true, "--no-pager": true,
	"--paginate": true, "--version": true, "--bare": true,
	"--no-replace-objects": true, "--literal-pathspecs": true,
	"--noglob-pathspecs": true, "--icase-pathspecs": true,
}

// Analyze inspects a `git` invocation (tokens[0] normalized to "git") and
// returns a deny reason, or "" to allow.
func Analyze(tokens []string) string {
	sub, rest := subcommandAndRest(tokens)
	if sub == "" {
		return ""
	}
	sub = strings.ToLower(sub)
	restLower := optutil.ToLowerAll(rest)
	short := optutil.ShortOpts(rest)

	switch sub {
	case "checkout":
		return analyzeCheckout(rest, restLower, short)
	case "restore":
		return analyzeRestore(restLower)
	case "reset":
		return analyzeReset(restLower)
	case "clean":
		return analyzeClean(restLower, short)
	case "push":
		return analyzePush(restLower, short)
	case "worktree":
		return analyzeWorktreeRemove(rest, restLower)
	case "branch":
		return analyzeBranch(rest, short)
	case "stash":
		return analyzeStash(restLower)
	}
	return ""
}

func analyzeCheckout(rest, restLower []string, short map[byte]bool) string {
	if idx := optutil.IndexOf(rest, "--"); idx >= 0 {
		if idx == 0 {
			return ReasonCheckoutDoubleDash
		}
		return ReasonCheckoutRefDoubleDash
	}
	if optutil.Contains(rest, "-b") || short['b'] {
		return ""
	}
	if optutil.Contains(rest, "-B") || short['B'] {
		return ""
	}
	if optutil.Contains(restLower, "--orphan") {
		return ""
	}

	hasPathspecFromFile := false
	for _, t := range restLower {
		if t == "--pathspec-from-file" || strings.HasPrefix(t, "--pathspec-from-file=") {
			hasPathspecFromFile = true
			break
		}
	}
	if hasPathspecFromFile {
		return ReasonCheckoutPathspecFromFile
	}

	if len(checkoutPositionalArgs(rest)) >= 2 {
		return ReasonCheckoutRefPathspec
	}
	return ""
}

func analyzeRestore(restLower []string) string {
	if optutil.Contains(restLower, "-h") || optutil.Contains(restLower, "--help") ||
		optutil.Contains(restLower, "--version") {
		return ""
	}
	if optutil.Contains(restLower, "--worktree") {
		return ReasonRestoreWorktree
	}
	if optutil.Contains(restLower, "--staged") {
		return ""
	}
	return ReasonRestore
}

func analyzeReset(restLower []string) string {
	if optutil.Contains(restLower, "--hard") {
		return ReasonResetHard
	}
	if optutil.Contains(restLower, "--merge") {
		return ReasonResetMerge
	}
	return ""
}

func analyzeClean(restLower []string, short map[byte]bool) string {
	if optutil.Contains(restLower, "--force") || short['f'] {
		return ReasonCleanForce
	}
	return ""
}

func analyzePush(restLower []string, short map[byte]bool) string {
	hasForceWithLease := false
	for _, t := range restLower {
		if strings.HasPrefix(t, "--force-with-lease") {
			hasForceWithLease = true
			break
		}
	}
	hasForce := optutil.Contains(restLower, "--force") || short['f']
	if hasForce && !hasForceWithLease {
		return ReasonPushForce
	}
	if optutil.Contains(restLower, "--force") && hasForceWithLease {
		return ReasonPushForce
	}
	if short['f'] && hasForceWithLease {
		return ReasonPushForce
	}
	return ""
}

func analyzeWorktreeRemove(rest, restLower []string) string {
	if len(restLower) == 0 {
		return ""
	}
	if restLower[0] != "remove" {
		return ""
	}
	forOpts := rest
	if idx := optutil.IndexOf(forOpts, "--"); idx >= 0 {
		forOpts = forOpts[:idx]
	}
	forOptsLower := optutil.ToLowerAll(forOpts)
	shortForOpts := optutil.ShortOpts(forOpts)
	if optutil.Contains(forOptsLower, "--force") || shortForOpts['f'] {
		return ReasonWorktreeRemoveForce
	}
	return ""
}

func analyzeBranch(rest []string, short map[byte]bool) string {
	if optutil.Contains(rest, "-D") || short['D'] {
		return ReasonBranchDeleteForce
	}
	if optutil.Contains(rest, "-d") || short['d'] {
		return ""
	}
	return ""
}

func analyzeStash(restLower []string) string {
	if len(restLower) == 0 {
		return ""
	}
	switch restLower[0] {
	case "drop":
		return ReasonStashDrop
	case "clear":
		return ReasonStashClear
	}
	return ""
}

// subcommandAndRest skips `git`'s global options/values and returns the
// subcommand name plus the remaining tokens.
func subcommandAndRest(tokens []string) (string, []string) {
	if len(tokens) == 0 || strings.ToLower(tokens[0]) != "git" {
		return "", nil
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
		if globalOptsNoValue[tok] {
			i++
			continue
		}
		if globalOptsWithValue[tok] {
			i += 2
			continue
		}
		if strings.HasPrefix(tok, "--") {
			if eq := strings.IndexByte(tok, '='); eq >= 0 {
				if globalOptsWithValue[tok[:eq]] {
					i++
					continue
				}
			}
			i++
			continue
		}
		if strings.HasPrefix(tok, "-C") && len(tok) > 2 {
			i++
			continue
		}
		if strings.HasPrefix(tok, "-c") && len(tok) > 2 {
			i++
			continue
		}
		i++
	}

	if i >= len(tokens) {
		return "", nil
	}
	return tokens[i], tokens[i+1:]
}

var checkoutOptsWithValue = map[string]bool{
	"-b": true, "-B": true, "--orphan": true, "--conflict": true,
	"-U": true, "--unified": true, "--inter-hunk-context": true,
	"--pathspec-from-file": true,
}

var checkoutOptsNoValue = map[string]bool{
	"-f": true, "--force": true, "-m": true, "--merge": true,
	"-q": true, "--quiet": true, "--detach": true,
	"--ignore-skip-worktree-bits": true, "--overwrite-ignore": true,
	"--no-overlay": true, "--overlay": true, "--progress": true,
	"--no-progress": true, "--guess": true, "--no-guess": true,
	"--pathspec-file-nul": true,
}

// checkoutPositionalArgs returns positional arguments to `git checkout`,
// skipping recognized options and the values they consume.
func checkoutPositionalArgs(rest []string) []string {
	var positionals []string
	i := 0
	for i < len(rest) {
		tok := rest[i]
		if tok == "--" {
			break
		}
		if tok == "-" {
			positionals = append(positionals, tok)
			i++
			continue
		}
		if strings.HasPrefix(tok, "-") {
			if checkoutOptsNoValue[tok] {
				i++
				continue
			}
			if strings.HasPrefix(tok, "--") {
				if eq := strings.IndexByte(tok, '='); eq >= 0 {
					i++
					continue
				}
			}
			if strings.HasPrefix(tok, "-U") && len(tok) > 2 {
				i++
				continue
			}
			if strings.HasPrefix(tok, "-b") && len(tok) > 2 {
				i++
				continue
			}
			if strings.HasPrefix(tok, "-B") && len(tok) > 2 {
				i++
				continue
			}
			if checkoutOptsWithValue[tok] {
				i += 2
				continue
			}
			if tok == "--recurse-submodules" {
				if i+1 < len(rest) && (rest[i+1] == "checkout" || rest[i+1] == "on-demand") {
					i += 2
					continue
				}
				i++
				continue
			}
			if tok == "-t" || tok == "--track" {
				if i+1 < len(rest) && (rest[i+1] == "direct" || rest[i+1] == "inherit") {
					i += 2
					continue
				}
				i++
				continue
			}
			if strings.HasPrefix(tok, "--") {
				if i+1 < len(rest) && !strings.HasPrefix(rest[i+1], "-") {
					i += 2
					continue
				}
				i++
				continue
			}
			i++
			continue
		}
		positionals = append(positionals, tok)
		i++
	}
	return positionals
}
