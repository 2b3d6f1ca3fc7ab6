// Package cli wires the safety-net subcommands together with cobra.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	strictFlag               bool
	paranoidFlag             bool
	paranoidRMFlag           bool
	paranoidInterpretersFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "safety-net",
	Short: "A pre-execution safety net for AI-agent Bash commands",
	Long: `safety-net inspects a Bash command before an AI coding agent is allowed
to run it, and denies the ones that would discard uncommitted work or
delete files outside an obvious scratch area: destructive rm, git history
rewrites, and find -delete, including when they're hidden behind
xargs/parallel or an interpreter one-liner.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false,
		"deny instead of allow when a command can't be safely analyzed (env SAFETY_NET_STRICT)")
	rootCmd.PersistentFlags().BoolVar(&paranoidFlag, "paranoid", false,
		"deny every recursive-force rm and every interpreter one-liner regardless of target (env SAFETY_NET_PARANOID)")
	rootCmd.PersistentFlags().BoolVar(&paranoidRMFlag, "paranoid-rm", false,
		"deny every recursive-force rm regardless of target (env SAFETY_NET_PARANOID_RM)")
	rootCmd.PersistentFlags().BoolVar(&paranoidInterpretersFlag, "paranoid-interpreters", false,
		"deny interpreter one-liners that can't be statically verified safe (env SAFETY_NET_PARANOID_INTERPRETERS)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
