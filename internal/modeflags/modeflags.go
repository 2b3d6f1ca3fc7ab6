// Package modeflags reads the SAFETY_NET_* environment variables that
// toggle strict and paranoid analysis modes.
package modeflags

import (
	"os"
	"strings"
)

const (
	envStrict               = "SAFETY_NET_STRICT"
	envParanoid             = "SAFETY_NET_PARANOID"
	envParanoidRM           = "SAFETY_NET_PARANOID_RM"
	envParanoidInterpreters = "SAFETY_NET_PARANOID_INTERPRETERS"
)

// Modes is the resolved set of mode flags for one process invocation.
type Modes struct {
	Strict               bool
	ParanoidRM           bool
	ParanoidInterpreters bool
}

// FromEnv resolves Modes from the SAFETY_NET_* environment variables.
// SAFETY_NET_PARANOID, if truthy, implies both ParanoidRM and
// ParanoidInterpreters regardless of their own settings.
func FromEnv() Modes {
	paranoid := truthy(os.Getenv(envParanoid))
	return Modes{
		Strict:               truthy(os.Getenv(envStrict)),
		ParanoidRM:           paranoid || truthy(os.Getenv(envParanoidRM)),
		ParanoidInterpreters: paranoid || truthy(os.Getenv(envParanoidInterpreters)),
	}
}

// truthy reports whether an environment variable value means "on":
// 1, true, yes, on — case-insensitive.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
