// Package guard is the orchestrator: it splits a Bash command into
// segments, strips wrappers, recurses into interpreter one-liners, and
// dispatches each segment to the rm/git/find/xargs/parallel/custom-rule
// analyzers. It never returns an error — every input resolves to either
// allow or a deny with a human-readable reason.
package guard

import (
	"regexp"
	"strings"

	"github.com/ccsafetynet/safety-net/internal/cmdnorm"
	"github.com/ccsafetynet/safety-net/internal/customrule"
	"github.com/ccsafetynet/safety-net/internal/dispatch"
	"github.com/ccsafetynet/safety-net/internal/findrule"
	"github.com/ccsafetynet/safety-net/internal/gitrule"
	"github.com/ccsafetynet/safety-net/internal/lexer"
	"github.com/ccsafetynet/safety-net/internal/rmrule"
	"github.com/ccsafetynet/safety-net/internal/shellsplit"
	"github.com/ccsafetynet/safety-net/internal/wrapper"
)

// MaxRecursionDepth bounds interpreter/dispatcher recursion. A command at
// this depth is still analyzed; any further recursion from it denies rather
// than silently allowing.
const MaxRecursionDepth = 5

const (
	StrictSuffix               = " [strict mode - disable with: unset SAFETY_NET_STRICT]"
	ParanoidInterpretersSuffix = " [paranoid mode - disable with: unset " +
		"SAFETY_NET_PARANOID SAFETY_NET_PARANOID_INTERPRETERS]"

	ReasonRecursionLimit    = "Command analysis recursion limit reached."
	ReasonUnparseable       = "Unable to parse shell command safely." + StrictSuffix
	ReasonDashCUnparseable  = "Unable to parse shell -c wrapper safely." + StrictSuffix
	ReasonInterpreterUnsafe = "Cannot safely analyze interpreter one-liners." +
		ParanoidInterpretersSuffix

	ReasonXargsRmRf    = "xargs can feed arbitrary input to rm -rf. List files first, then delete individually."
	ReasonParallelRmRf = "parallel can feed arbitrary input to rm -rf. List files first, then delete individually."
)

var shellInterpreters = map[string]bool{
	"bash": true, "sh": true, "zsh": true, "dash": true, "ksh": true,
}

var pythonishInterpreters = map[string]bool{
	"python": true, "python3": true, "node": true, "ruby": true, "perl": true,
}

// RulesProvider reloads custom rules scoped to cwd. It is invoked when the
// working directory becomes unknown partway through a command (after a
// `cd`), so project-scope rules tied to the old cwd stop applying. cwd=""
// means "no project scope, user scope only". A nil provider keeps the
// initial rule set fixed for the whole command.
type RulesProvider func(cwd string) []customrule.Rule

// Options configures one Evaluate call.
type Options struct {
	Cwd                  string
	HomeDir              string
	Strict               bool
	ParanoidRM           bool
	ParanoidInterpreters bool
	Rules                []customrule.Rule
	ReloadRules          RulesProvider
}

// Decision is the result of evaluating a command: Deny is false for allow,
// true with Segment/Reason populated for deny. Segment is the innermost
// segment actually responsible for the deny, which may be a recursed-into
// interpreter/dispatcher child command rather than a literal top-level
// segment of the original command string.
type Decision struct {
	Deny    bool
	Segment string
	Reason  string
}

// Evaluate analyzes command and returns the first deny found across all of
// its top-level segments (and any interpreter/dispatcher children), or a
// zero-value Decision to allow.
func Evaluate(command string, opts Options) Decision {
	segment, reason, found := analyzeCommand(command, 0, state{
		cwd:                  opts.Cwd,
		homeDir:              opts.HomeDir,
		strict:               opts.Strict,
		paranoidRM:           opts.ParanoidRM,
		paranoidInterpreters: opts.ParanoidInterpreters,
		rules:                opts.Rules,
		reloadRules:          opts.ReloadRules,
	})
	if !found {
		return Decision{}
	}
	return Decision{Deny: true, Segment: segment, Reason: reason}
}

type state struct {
	cwd                  string
	homeDir              string
	strict               bool
	paranoidRM           bool
	paranoidInterpreters bool
	rules                []customrule.Rule
	reloadRules          RulesProvider
}

func analyzeCommand(command string, depth int, st state) (segment, reason string, found bool) {
	effectiveCwd := st.cwd
	rules := st.rules

	for _, seg := range shellsplit.Split(command) {
		st2 := st
		st2.cwd = effectiveCwd
		st2.rules = rules

		if innerSeg, r, found := analyzeSegment(seg, depth, st2); found {
			return innerSeg, r, true
		}

		if effectiveCwd != "" && segmentChangesCwd(seg) {
			effectiveCwd = ""
			if st.reloadRules != nil {
				rules = st.reloadRules("")
			}
		}
	}
	return "", "", false
}

// analyzeSegment returns the segment responsible for a deny (itself,
// unless it recurses into a nested command, in which case the nested
// segment is returned), the reason, and whether a deny was found at all.
func analyzeSegment(segment string, depth int, st state) (string, string, bool) {
	tokens, ok := lexer.Split(segment)
	if !ok {
		if st.strict {
			return segment, ReasonUnparseable, true
		}
		if r := dangerousInText(segment); r != "" {
			return segment, r, true
		}
		if r := dangerousFindDeleteInText(segment); r != "" {
			return segment, r, true
		}
		return "", "", false
	}
	if len(tokens) == 0 {
		return "", "", false
	}

	tokens = wrapper.Strip(tokens)
	if len(tokens) == 0 {
		return "", "", false
	}

	head := cmdnorm.Normalize(tokens[0])

	if shellInterpreters[head] {
		if cmdStr, ok := extractDashCArg(tokens); ok {
			if depth >= MaxRecursionDepth {
				return segment, ReasonRecursionLimit, true
			}
			if innerSeg, r, found := analyzeCommand(cmdStr, depth+1, st); found {
				return innerSeg, r, true
			}
		} else if st.strict && hasShellDashC(tokens) {
			return segment, ReasonDashCUnparseable, true
		}
	}

	if pythonishInterpreters[head] {
		if code, ok := extractPythonishCodeArg(tokens); ok {
			reason := dangerousInText(code)
			if reason == "" {
				reason = dangerousFindDeleteInText(code)
			}
			if reason != "" {
				return segment, reason, true
			}
			if st.paranoidInterpreters {
				return segment, ReasonInterpreterUnsafe, true
			}
		}
	}

	allowTmpdirVar := !tmpdirAssignment.MatchString(segment)
	rmCtx := rmrule.Context{
		Cwd: st.cwd, HomeDir: st.homeDir,
		Paranoid: st.paranoidRM, AllowTmpdirVar: allowTmpdirVar,
	}

	switch head {
	case "xargs":
		return analyzeXargs(segment, tokens, depth, st, rmCtx)
	case "parallel":
		return analyzeParallel(segment, tokens, depth, st, rmCtx)
	}

	if head == "busybox" && len(tokens) >= 2 {
		applet := cmdnorm.Normalize(tokens[1])
		if applet == "rm" {
			if r := rmrule.Analyze(append([]string{"rm"}, tokens[2:]...), rmCtx); r != "" {
				return segment, r, true
			}
			return "", "", false
		}
		if applet == "find" {
			if r := findrule.Analyze(tokens[2:]); r != "" {
				return segment, r, true
			}
		}
	}

	switch head {
	case "git":
		if r := gitrule.Analyze(append([]string{"git"}, tokens[1:]...)); r != "" {
			return segment, r, true
		}
		return customRuleFallback(segment, depth, tokens, st)
	case "rm":
		if r := rmrule.Analyze(append([]string{"rm"}, tokens[1:]...), rmCtx); r != "" {
			return segment, r, true
		}
		return customRuleFallback(segment, depth, tokens, st)
	case "find":
		if r := findrule.Analyze(tokens[1:]); r != "" {
			return segment, r, true
		}
		return customRuleFallback(segment, depth, tokens, st)
	}

	for i := 1; i < len(tokens); i++ {
		cmd := cmdnorm.Normalize(tokens[i])
		switch cmd {
		case "rm":
			if r := rmrule.Analyze(append([]string{"rm"}, tokens[i+1:]...), rmCtx); r != "" {
				return segment, r, true
			}
		case "git":
			if r := gitrule.Analyze(append([]string{"git"}, tokens[i+1:]...)); r != "" {
				return segment, r, true
			}
		case "find":
			if r := findrule.Analyze(tokens[i+1:]); r != "" {
				return segment, r, true
			}
		}
	}

	if r := dangerousInText(segment); r != "" {
		return segment, r, true
	}

	return customRuleFallback(segment, depth, tokens, st)
}

func customRuleFallback(segment string, depth int, tokens []string, st state) (string, string, bool) {
	if depth == 0 && len(st.rules) > 0 {
		if r := customrule.Check(tokens, st.rules); r != "" {
			return segment, r, true
		}
	}
	return "", "", false
}

func analyzeXargs(segment string, tokens []string, depth int, st state, rmCtx rmrule.Context) (string, string, bool) {
	child, ok := dispatch.ExtractXargsChild(tokens)
	if !ok {
		return customRuleFallback(segment, depth, tokens, st)
	}
	child = wrapper.Strip(child)
	if len(child) == 0 {
		return "", "", false
	}

	childHead := cmdnorm.Normalize(child[0])

	if childHead == "rm" && rmrule.IsDestructive(append([]string{"rm"}, child[1:]...)) {
		return segment, ReasonXargsRmRf, true
	}
	if childHead == "busybox" && len(child) >= 3 {
		if applet := cmdnorm.Normalize(child[1]); applet == "rm" &&
			rmrule.IsDestructive(append([]string{"rm"}, child[2:]...)) {
			return segment, ReasonXargsRmRf, true
		}
	}

	if shellInterpreters[childHead] {
		if cmdStr, ok := extractDashCArg(child); ok {
			replTokens := dispatch.XargsReplacementTokens(tokens)
			if len(replTokens) > 0 && replTokens[strings.TrimSpace(cmdStr)] {
				return segment, "xargs " + child[0] + " -c can execute arbitrary commands from input.", true
			}
			if len(replTokens) > 0 {
				for t := range replTokens {
					if t != "" && strings.Contains(cmdStr, t) {
						if r := dangerousInText(cmdStr); strings.HasPrefix(r, "rm -rf") {
							return segment, ReasonXargsRmRf, true
						}
						break
					}
				}
			}
			if depth >= MaxRecursionDepth {
				return segment, ReasonRecursionLimit, true
			}
			if innerSeg, r, found := analyzeCommand(cmdStr, depth+1, st); found {
				return innerSeg, r, true
			}
		} else if hasShellDashC(child) {
			return segment, "xargs " + child[0] + " -c can execute arbitrary commands from input.", true
		}
	}

	if childHead == "busybox" && len(child) >= 2 {
		applet := cmdnorm.Normalize(child[1])
		if applet == "rm" {
			if r := rmrule.Analyze(append([]string{"rm"}, child[2:]...), rmCtx); r != "" {
				return segment, r, true
			}
			return "", "", false
		}
		if applet == "find" {
			if r := findrule.Analyze(child[2:]); r != "" {
				return segment, r, true
			}
		}
	}

	if childHead == "git" {
		if r := gitrule.Analyze(append([]string{"git"}, child[1:]...)); r != "" {
			return segment, r, true
		}
		return "", "", false
	}
	if childHead == "rm" {
		if r := rmrule.Analyze(append([]string{"rm"}, child[1:]...), rmCtx); r != "" {
			return segment, r, true
		}
		return "", "", false
	}
	if childHead == "find" {
		if r := findrule.Analyze(child[1:]); r != "" {
			return segment, r, true
		}
	}

	return customRuleFallback(segment, depth, tokens, st)
}

func analyzeParallel(segment string, tokens []string, depth int, st state, rmCtx rmrule.Context) (string, string, bool) {
	template, argsAfterMarker, dynamic, ok := dispatch.ExtractParallelTemplate(tokens)
	if !ok {
		return "", "", false
	}

	template = wrapper.Strip(template)
	if len(template) == 0 {
		if !dynamic {
			for _, cmdStr := range argsAfterMarker {
				if depth >= MaxRecursionDepth {
					return segment, ReasonRecursionLimit, true
				}
				if innerSeg, r, found := analyzeCommand(cmdStr, depth+1, st); found {
					return innerSeg, r, true
				}
			}
		}
		return customRuleFallback(segment, depth, tokens, st)
	}

	templateHead := cmdnorm.Normalize(template[0])

	if shellInterpreters[templateHead] {
		if cmdStr, ok := extractDashCArg(template); ok {
			if strings.Contains(cmdStr, "{}") {
				if dynamic {
					if strings.TrimSpace(cmdStr) == "{}" {
						return segment, "parallel " + template[0] + " -c can execute arbitrary commands from input.", true
					}
					if r := dangerousInText(cmdStr); strings.HasPrefix(r, "rm -rf") {
						return segment, ReasonParallelRmRf, true
					}
				} else if len(argsAfterMarker) > 0 {
					for _, arg := range argsAfterMarker {
						if depth >= MaxRecursionDepth {
							return segment, ReasonRecursionLimit, true
						}
						substituted := strings.ReplaceAll(cmdStr, "{}", arg)
						if innerSeg, r, found := analyzeCommand(substituted, depth+1, st); found {
							return innerSeg, r, true
						}
					}
					return "", "", false
				}
			}
			if depth >= MaxRecursionDepth {
				return segment, ReasonRecursionLimit, true
			}
			if innerSeg, r, found := analyzeCommand(cmdStr, depth+1, st); found {
				return innerSeg, r, true
			}
		} else if hasShellDashC(template) {
			return segment, "parallel " + template[0] + " -c can execute arbitrary commands from input.", true
		}
	}

	if templateHead == "busybox" && len(template) >= 2 {
		applet := cmdnorm.Normalize(template[1])
		if applet == "rm" {
			rmTemplate := append([]string{"rm"}, template[2:]...)
			if dynamic && rmrule.IsDestructive(rmTemplate) {
				return segment, ReasonParallelRmRf, true
			}
			rmTemplates := [][]string{rmTemplate}
			if len(argsAfterMarker) > 0 {
				rmTemplates = substituteTemplates(rmTemplate, argsAfterMarker)
			}
			for _, rt := range rmTemplates {
				if r := rmrule.Analyze(rt, rmCtx); r != "" {
					return segment, r, true
				}
			}
			return "", "", false
		}
		if applet == "find" {
			if r := findrule.Analyze(template[2:]); r != "" {
				return segment, r, true
			}
		}
	}

	if templateHead == "git" {
		if r := gitrule.Analyze(append([]string{"git"}, template[1:]...)); r != "" {
			return segment, r, true
		}
		return "", "", false
	}
	if templateHead == "rm" {
		rmTemplate := append([]string{"rm"}, template[1:]...)
		if dynamic && rmrule.IsDestructive(rmTemplate) {
			return segment, ReasonParallelRmRf, true
		}
		templates := [][]string{template}
		if len(argsAfterMarker) > 0 {
			templates = substituteTemplates(template, argsAfterMarker)
		}
		for _, t := range templates {
			if r := rmrule.Analyze(append([]string{"rm"}, t[1:]...), rmCtx); r != "" {
				return segment, r, true
			}
		}
		return "", "", false
	}
	if templateHead == "find" {
		if r := findrule.Analyze(template[1:]); r != "" {
			return segment, r, true
		}
	}

	return customRuleFallback(segment, depth, tokens, st)
}

// substituteTemplates expands a command template against each literal
// parallel argument: "{}" placeholders are substituted if present,
// otherwise the argument is appended as an extra token.
func substituteTemplates(template []string, args []string) [][]string {
	hasPlaceholder := false
	for _, tok := range template {
		if strings.Contains(tok, "{}") {
			hasPlaceholder = true
			break
		}
	}

	out := make([][]string, 0, len(args))
	for _, arg := range args {
		if hasPlaceholder {
			expanded := make([]string, len(template))
			for i, tok := range template {
				expanded[i] = strings.ReplaceAll(tok, "{}", arg)
			}
			out = append(out, expanded)
		} else {
			out = append(out, append(append([]string{}, template...), arg))
		}
	}
	return out
}

func extractDashCArg(tokens []string) (string, bool) {
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "--" {
			return "", false
		}
		if tok == "-c" {
			if i+1 < len(tokens) {
				return tokens[i+1], true
			}
			return "", false
		}
		if strings.HasPrefix(tok, "-") && len(tok) > 1 && isAllAlpha(tok[1:]) {
			letters := tok[1:]
			if strings.Contains(letters, "c") && onlyFrom(letters, "clis") {
				if i+1 < len(tokens) {
					return tokens[i+1], true
				}
				return "", false
			}
		}
	}
	return "", false
}

func hasShellDashC(tokens []string) bool {
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "--" {
			break
		}
		if tok == "-c" {
			return true
		}
		if strings.HasPrefix(tok, "-") && len(tok) > 1 && isAllAlpha(tok[1:]) {
			letters := tok[1:]
			if strings.Contains(letters, "c") && onlyFrom(letters, "clis") {
				return true
			}
		}
	}
	return false
}

func extractPythonishCodeArg(tokens []string) (string, bool) {
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "--" {
			return "", false
		}
		if tok == "-c" || tok == "-e" {
			if i+1 < len(tokens) {
				return tokens[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

func isAllAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

func onlyFrom(letters, allowed string) bool {
	for _, c := range letters {
		if !strings.ContainsRune(allowed, c) {
			return false
		}
	}
	return true
}

var tmpdirAssignment = regexp.MustCompile(`\bTMPDIR=`)

var rmRfText = regexp.MustCompile(
	`(?i)(?:/[^\s'"]+/)?rm\b[^\n;|&]*(?:\s-(?:[a-z]*r[a-z]*f|[a-z]*f[a-z]*r)\b|` +
		`\s-r\b[^\n;|&]*\s-f\b|\s-f\b[^\n;|&]*\s-r\b|` +
		`\s--recursive\b[^\n;|&]*\s--force\b|\s--force\b[^\n;|&]*\s--recursive\b)`,
)

var gitBranchDeleteForce = regexp.MustCompile(`(?i)\bgit\s+branch\b`)
var dashDCapital = regexp.MustCompile(`\s-D\b`)
var gitPushForceShort = regexp.MustCompile(`(?i)\bgit\s+push\s+-f\b`)
var gitRestoreWord = regexp.MustCompile(`(?i)\bgit\s+restore\b`)

// dangerousInText is a last-resort heuristic scan used when proper token
// parsing fails, or when a destructive command is embedded in a
// substitution the tokenizer can't see into.
func dangerousInText(text string) string {
	t := strings.ToLower(text)

	if rmRfText.MatchString(t) {
		return "rm -rf is destructive. List files first, then delete individually."
	}
	if strings.Contains(t, "git reset --hard") {
		return "git reset --hard destroys uncommitted changes. Use 'git stash' first."
	}
	if strings.Contains(t, "git reset --merge") {
		return "git reset --merge can lose uncommitted changes."
	}
	if strings.Contains(t, "git clean -f") || strings.Contains(t, "git clean --force") {
		return "git clean -f removes untracked files permanently. Review with 'git clean -n' first."
	}
	if (strings.Contains(t, "git push --force") || gitPushForceShort.MatchString(t)) &&
		!strings.Contains(t, "--force-with-lease") {
		return "Force push can destroy remote history. Use --force-with-lease if necessary."
	}
	if gitBranchDeleteForce.MatchString(text) && dashDCapital.MatchString(text) {
		return "git branch -D force-deletes without merge check. Use -d for safety."
	}
	if strings.Contains(t, "git stash drop") {
		return "git stash drop permanently deletes stashed changes. List stashes first with 'git stash list'."
	}
	if strings.Contains(t, "git stash clear") {
		return "git stash clear permanently deletes ALL stashed changes."
	}
	if strings.Contains(t, "git checkout --") {
		return "git checkout -- discards uncommitted changes permanently. Use 'git stash' first."
	}
	if gitRestoreWord.MatchString(t) && !strings.Contains(t, "--staged") &&
		!strings.Contains(t, "--help") && !strings.Contains(t, "--version") {
		if strings.Contains(t, "--worktree") {
			return "git restore --worktree discards uncommitted changes permanently."
		}
		return "git restore discards uncommitted changes. Use 'git stash' or 'git diff' first."
	}

	return ""
}

var findDeleteText = regexp.MustCompile(`\bfind\b[^\n;|&]*\s-delete\b`)

// dangerousFindDeleteInText is a best-effort detection of `find -delete`
// when token parsing is unavailable.
func dangerousFindDeleteInText(text string) string {
	t := strings.ToLower(text)
	stripped := strings.TrimLeft(t, " \t")
	if strings.HasPrefix(stripped, "echo ") || strings.HasPrefix(stripped, "rg ") {
		return ""
	}
	if findDeleteText.MatchString(t) {
		return findrule.ReasonDelete
	}
	return ""
}

// segmentChangesCwd reports whether a segment is a cd/pushd/popd
// invocation, including inside grouping/subshell/command-substitution
// prefixes and a leading `builtin`.
func segmentChangesCwd(segment string) bool {
	if tokens, ok := lexer.Split(segment); ok {
		for len(tokens) > 0 && (tokens[0] == "{" || tokens[0] == "(" || tokens[0] == "$(") {
			tokens = tokens[1:]
		}
		tokens = wrapper.Strip(tokens)
		if len(tokens) > 0 && strings.ToLower(tokens[0]) == "builtin" {
			tokens = tokens[1:]
		}
		if len(tokens) > 0 {
			head := cmdnorm.Normalize(tokens[0])
			return head == "cd" || head == "pushd" || head == "popd"
		}
	}

	return cwdChangeText.MatchString(segment)
}

var cwdChangeText = regexp.MustCompile(
	`(?i)^\s*(?:\$\(\s*)?[(\{]*\s*(?:command\s+|builtin\s+)?(?:cd|pushd|popd)(?:\s|$)`,
)
