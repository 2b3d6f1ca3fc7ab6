// Package findrule analyzes `find` invocations for destructive actions:
// the `-delete` primary, and `-exec`/`-execdir`/`-ok`/`-okdir rm -rf` patterns.
package findrule

import (
	"strings"

	"github.com/ccsafetynet/safety-net/internal/cmdnorm"
	"github.com/ccsafetynet/safety-net/internal/optutil"
	"github.com/ccsafetynet/safety-net/internal/wrapper"
)

const (
	ReasonExecRmRf = "find -exec rm -rf runs destructive deletion on matched " +
		"files. Use find -print first to verify targets."
	ReasonDelete = "find -delete permanently removes files matching the " +
		"criteria. Use find -print first to verify targets."
)

// consumesOne are find predicates/actions that take exactly one argument.
var consumesOne = map[string]bool{
	"-name": true, "-iname": true, "-path": true, "-ipath": true,
	"-wholename": true, "-iwholename": true, "-regex": true, "-iregex": true,
	"-lname": true, "-ilname": true, "-samefile": true, "-newer": true,
	"-newerxy": true, "-perm": true, "-user": true, "-group": true,
	"-printf": true, "-fprintf": true, "-fprint": true, "-fprint0": true,
	"-fls": true,
}

var execLike = map[string]bool{
	"-exec": true, "-execdir": true, "-ok": true, "-okdir": true,
}

// Analyze scans find's arguments (everything after the "find" token itself)
// and returns a deny reason, or "" to allow.
func Analyze(args []string) string {
	i := 0
	for i < len(args) {
		tok := strings.ToLower(cmdnorm.StripTokenWrappers(args[i]))

		if execLike[tok] {
			execStart := i + 1
			i++
			for i < len(args) {
				end := cmdnorm.StripTokenWrappers(args[i])
				if end == ";" || end == "+" {
					break
				}
				i++
			}

			execTokens := args[execStart:i]
			if len(execTokens) > 0 {
				execTokens = wrapper.Strip(execTokens)
				if len(execTokens) > 0 {
					if reason := analyzeExecTarget(execTokens); reason != "" {
						return reason
					}
				}
			}

			i++
			continue
		}

		if consumesOne[tok] {
			i += 2
			continue
		}

		if tok == "-delete" {
			return ReasonDelete
		}

		i++
	}

	return ""
}

func analyzeExecTarget(execTokens []string) string {
	cmd := cmdnorm.Normalize(execTokens[0])

	if cmd == "busybox" && len(execTokens) >= 2 {
		if applet := cmdnorm.Normalize(execTokens[1]); applet == "rm" {
			execTokens = append([]string{"rm"}, execTokens[2:]...)
			cmd = "rm"
		}
	}

	if cmd != "rm" {
		return ""
	}

	var opts []string
	for _, t := range execTokens[1:] {
		if t == "--" {
			break
		}
		opts = append(opts, t)
	}
	optsLower := optutil.ToLowerAll(opts)
	short := optutil.ShortOpts(opts)

	recursive := optutil.Contains(optsLower, "--recursive") || short['r'] || short['R']
	force := optutil.Contains(optsLower, "--force") || short['f']
	if recursive && force {
		return ReasonExecRmRf
	}
	return ""
}
