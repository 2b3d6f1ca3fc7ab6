package cli

import "github.com/ccsafetynet/safety-net/internal/modeflags"

// resolveModes merges the SAFETY_NET_* environment variables with any
// --strict/--paranoid* flags passed on the command line. A flag only ever
// turns a mode on; the environment variables remain the primary interface
// described by the host integration.
func resolveModes() modeflags.Modes {
	m := modeflags.FromEnv()
	if strictFlag {
		m.Strict = true
	}
	if paranoidFlag {
		m.ParanoidRM = true
		m.ParanoidInterpreters = true
	}
	if paranoidRMFlag {
		m.ParanoidRM = true
	}
	if paranoidInterpretersFlag {
		m.ParanoidInterpreters = true
	}
	return m
}
