// Package config loads and validates the two-scope JSON custom-rule
// configuration (user scope and project scope) and merges them into the
// rule set the guard orchestrator consults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ccsafetynet/safety-net/internal/customrule"
)

const (
	UserConfigDirName  = ".cc-safety-net"
	UserConfigFileName = "config.json"
	ProjectConfigName  = ".safety-net.json"

	maxReasonLength = 256
	supportedVersion = 1
)

var (
	namePattern    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)
	commandPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
)

// Config is a validated set of custom rules at a given schema version.
type Config struct {
	Version int
	Rules   []customrule.Rule
}

// rawRule mirrors the on-disk JSON shape of one rule entry.
type rawRule struct {
	Name       string   `json:"name"`
	Command    string   `json:"command"`
	Subcommand *string  `json:"subcommand"`
	BlockArgs  []string `json:"block_args"`
	Reason     string   `json:"reason"`
}

type rawConfig struct {
	Version int       `json:"version"`
	Rules   []rawRule `json:"rules"`
}

// ValidationResult is the outcome of validating a single config file:
// either a non-empty Errors list, or RuleNames naming every rule accepted.
type ValidationResult struct {
	Errors    []string
	RuleNames []string
}

// Load merges the user-scope config (always consulted, if present) with
// the project-scope config rooted at cwd (consulted only when cwd is
// non-empty). Project rules override user rules with the same name
// (case-insensitive). Any parse/validation failure in either scope is
// silent: that scope degrades to "no rules", never to an error — the
// `verify` command is the intended way to surface config problems.
func Load(cwd string) *Config {
	userPath, err := UserConfigPath()
	var userCfg *Config
	if err == nil {
		userCfg = loadSingle(userPath)
	}

	var projectCfg *Config
	if cwd != "" {
		projectCfg = loadSingle(filepath.Join(cwd, ProjectConfigName))
	}

	merged := merge(userCfg, projectCfg)
	if len(merged.Rules) == 0 && userCfg == nil && projectCfg == nil {
		return nil
	}
	return merged
}

// UserConfigPath returns ~/.cc-safety-net/config.json.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, UserConfigDirName, UserConfigFileName), nil
}

func loadSingle(path string) *Config {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil
	}

	var raw rawConfig
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil
	}

	cfg, err := validate(raw)
	if err != nil {
		return nil
	}
	return cfg
}

func merge(user, project *Config) *Config {
	if user == nil && project == nil {
		return &Config{Version: supportedVersion, Rules: nil}
	}
	if user == nil {
		return project
	}
	if project == nil {
		return user
	}

	projectNames := make(map[string]bool, len(project.Rules))
	for _, r := range project.Rules {
		projectNames[strings.ToLower(r.Name)] = true
	}

	merged := make([]customrule.Rule, 0, len(user.Rules)+len(project.Rules))
	for _, r := range user.Rules {
		if !projectNames[strings.ToLower(r.Name)] {
			merged = append(merged, r)
		}
	}
	merged = append(merged, project.Rules...)

	return &Config{Version: supportedVersion, Rules: merged}
}

func validate(raw rawConfig) (*Config, error) {
	if raw.Version == 0 {
		return nil, fmt.Errorf("missing required field 'version'")
	}
	if raw.Version != supportedVersion {
		return nil, fmt.Errorf("unsupported version %d, expected %d", raw.Version, supportedVersion)
	}

	seen := map[string]bool{}
	rules := make([]customrule.Rule, 0, len(raw.Rules))
	for i, rr := range raw.Rules {
		rule, err := validateRule(rr, i, seen)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return &Config{Version: raw.Version, Rules: rules}, nil
}

func validateRule(rr rawRule, index int, seen map[string]bool) (customrule.Rule, error) {
	var errs []string

	if rr.Name == "" {
		errs = append(errs, fmt.Sprintf("rules[%d]: missing required field 'name'", index))
	}
	if rr.Command == "" {
		errs = append(errs, fmt.Sprintf("rules[%d]: missing required field 'command'", index))
	}
	if len(rr.BlockArgs) == 0 {
		errs = append(errs, fmt.Sprintf("rules[%d]: missing required field 'block_args'", index))
	}
	if rr.Reason == "" {
		errs = append(errs, fmt.Sprintf("rules[%d]: missing required field 'reason'", index))
	}
	if len(errs) > 0 {
		return customrule.Rule{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	if !namePattern.MatchString(rr.Name) {
		errs = append(errs, fmt.Sprintf(
			"rules[%d].name: must match pattern ^[a-zA-Z][a-zA-Z0-9_-]{0,63}$", index))
	} else {
		lower := strings.ToLower(rr.Name)
		if seen[lower] {
			errs = append(errs, fmt.Sprintf("rules[%d].name: duplicate rule name '%s'", index, rr.Name))
		}
		seen[lower] = true
	}

	if !commandPattern.MatchString(rr.Command) {
		errs = append(errs, fmt.Sprintf(
			"rules[%d].command: must match pattern ^[a-zA-Z][a-zA-Z0-9_-]*$", index))
	}

	subcommand := ""
	if rr.Subcommand != nil {
		subcommand = *rr.Subcommand
		if subcommand != "" && !commandPattern.MatchString(subcommand) {
			errs = append(errs, fmt.Sprintf(
				"rules[%d].subcommand: must match pattern ^[a-zA-Z][a-zA-Z0-9_-]*$", index))
		}
	}

	for i, arg := range rr.BlockArgs {
		if arg == "" {
			errs = append(errs, fmt.Sprintf("rules[%d].block_args[%d]: must not be empty", index, i))
		}
	}

	if len(rr.Reason) > maxReasonLength {
		errs = append(errs, fmt.Sprintf(
			"rules[%d].reason: exceeds max length of %d", index, maxReasonLength))
	}

	if len(errs) > 0 {
		return customrule.Rule{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return customrule.Rule{
		Name:       rr.Name,
		Command:    rr.Command,
		Subcommand: subcommand,
		BlockArgs:  rr.BlockArgs,
		Reason:     rr.Reason,
	}, nil
}

// ValidateFile validates a single config file on disk and reports the
// errors found, plus the accepted rule names when there are none.
// Validation stops at the first invalid rule, so only that rule's errors
// are reported (joined with "; " into one entry). Used by the `verify` CLI
// subcommand.
func ValidateFile(path string) ValidationResult {
	expanded := expandHome(path)

	content, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return ValidationResult{Errors: []string{fmt.Sprintf("file not found: %s", path)}}
		}
		return ValidationResult{Errors: []string{fmt.Sprintf("cannot read file: %v", err)}}
	}
	if strings.TrimSpace(string(content)) == "" {
		return ValidationResult{Errors: []string{"config file is empty"}}
	}

	var raw rawConfig
	if err := json.Unmarshal(content, &raw); err != nil {
		return ValidationResult{Errors: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}

	cfg, err := validate(raw)
	if err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}

	names := make([]string, len(cfg.Rules))
	for i, r := range cfg.Rules {
		names[i] = r.Name
	}
	return ValidationResult{RuleNames: names}
}

func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Watcher watches the user and project config files for changes and
// invokes onChange (with the reloaded, merged config) whenever either one
// is written. Used by long-lived hosts that want to pick up edited custom
// rules without restarting.
type Watcher struct {
	fsw *fsnotify.Watcher
	cwd string
}

// NewWatcher starts watching the config directories that exist. It does
// not error if one scope's directory is absent — that scope simply never
// fires change events.
func NewWatcher(cwd string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	if userPath, err := UserConfigPath(); err == nil {
		_ = fsw.Add(filepath.Dir(userPath))
	}
	if cwd != "" {
		_ = fsw.Add(cwd)
	}

	return &Watcher{fsw: fsw, cwd: cwd}, nil
}

// Run blocks, invoking onChange(Load(cwd)) each time a watched config file
// is written or created, until the watcher is closed.
func (w *Watcher) Run(onChange func(*Config)) {
	userPath, _ := UserConfigPath()
	projectPath := filepath.Join(w.cwd, ProjectConfigName)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != userPath && event.Name != projectPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			onChange(Load(w.cwd))
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
