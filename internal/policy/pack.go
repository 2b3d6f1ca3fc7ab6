// Package policy loads shareable YAML "rule packs": groups of custom rules
// distributed as a single file, merged on top of the JSON custom-rule
// config that internal/config reads. The per-rule config itself stays
// JSON; packs are an optional distribution format layered on top.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccsafetynet/safety-net/internal/customrule"
)

// Pack is one YAML rule-pack file.
type Pack struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	PackVersion string     `yaml:"version"`
	Author      string     `yaml:"author"`
	Rules       []PackRule `yaml:"rules"`
}

// PackRule is the YAML shape of one pack rule, matching customrule.Rule's
// fields one for one.
type PackRule struct {
	Name       string   `yaml:"name"`
	Command    string   `yaml:"command"`
	Subcommand string   `yaml:"subcommand,omitempty"`
	BlockArgs  []string `yaml:"block_args"`
	Reason     string   `yaml:"reason"`
}

// Info summarizes one pack file for reporting (the CLI logs LoadError as a
// warning).
type Info struct {
	Name      string
	Version   string
	Author    string
	Enabled   bool
	Path      string
	RuleCount int
	LoadError error
}

// LoadDir reads every *.yaml/*.yml file in dir (a missing directory yields
// no rules and no error) and returns the rules contributed by enabled packs
// (a filename prefixed with "_" is disabled) plus a per-file Info for
// reporting. A pack that fails to parse contributes no rules but is still
// reported, with LoadError set.
func LoadDir(dir string) ([]customrule.Rule, []Info) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	var rules []customrule.Rule
	var infos []Info

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := loadOne(path)
		if err != nil {
			infos = append(infos, Info{Name: baseName, Enabled: enabled, Path: path, LoadError: err})
			continue
		}

		name := pack.Name
		if name == "" {
			name = baseName
		}
		infos = append(infos, Info{
			Name: name, Version: pack.PackVersion, Author: pack.Author,
			Enabled: enabled, Path: path, RuleCount: len(pack.Rules),
		})

		if !enabled {
			continue
		}
		for _, pr := range pack.Rules {
			rules = append(rules, customrule.Rule{
				Name: pr.Name, Command: pr.Command, Subcommand: pr.Subcommand,
				BlockArgs: pr.BlockArgs, Reason: pr.Reason,
			})
		}
	}

	return rules, infos
}

func loadOne(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pack %s: %w", path, err)
	}
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse pack %s: %w", path, err)
	}
	return &pack, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// PacksDir returns ~/.cc-safety-net/packs.
func PacksDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cc-safety-net", "packs"), nil
}
