package cli

import (
	"os"

	"github.com/ccsafetynet/safety-net/internal/config"
	"github.com/ccsafetynet/safety-net/internal/customrule"
	"github.com/ccsafetynet/safety-net/internal/guard"
	"github.com/ccsafetynet/safety-net/internal/policy"
)

// loadRules merges the JSON custom-rule config (user + project scope) with
// any enabled YAML rule packs under ~/.cc-safety-net/packs. Pack rules are
// appended after config rules, so packs layer on top of the base rule set
// rather than override it.
func loadRules(cwd string) []customrule.Rule {
	var rules []customrule.Rule
	if cfg := config.Load(cwd); cfg != nil {
		rules = append(rules, cfg.Rules...)
	}

	if dir, err := policy.PacksDir(); err == nil {
		packRules, infos := policy.LoadDir(dir)
		for _, info := range infos {
			if info.LoadError != nil {
				diagLog.Warnf("rule pack %s: %v", info.Path, info.LoadError)
			}
		}
		rules = append(rules, packRules...)
	}

	return rules
}

// buildOptions assembles guard.Options for one evaluation: the resolved
// mode flags, the merged rule set for cwd, and a reload callback so the
// guard can drop project-scope rules once a segment changes the working
// directory mid-command.
func buildOptions(cwd string) guard.Options {
	modes := resolveModes()
	home, _ := os.UserHomeDir()

	return guard.Options{
		Cwd:                  cwd,
		HomeDir:              home,
		Strict:               modes.Strict,
		ParanoidRM:           modes.ParanoidRM,
		ParanoidInterpreters: modes.ParanoidInterpreters,
		Rules:                loadRules(cwd),
		ReloadRules: func(newCwd string) []customrule.Rule {
			return loadRules(newCwd)
		},
	}
}
