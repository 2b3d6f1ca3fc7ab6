package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ccsafetynet/safety-net/internal/config"
)

var watchFlag bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Self-test — verify the safety net blocks known-dangerous commands",
	Long: `Runs the analyzer against a fixed table of known-dangerous and
known-safe commands and prints a pass/fail report. No commands are
executed — this only checks what the analyzer would decide.

  safety-net scan
  safety-net scan --watch`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&watchFlag, "watch", false,
		"keep running, re-scanning whenever the user or project custom-rule config changes")
	rootCmd.AddCommand(scanCmd)
}

type scanCase struct {
	label    string
	command  string
	wantDeny bool
}

var scanCases = []scanCase{
	{"Destructive rm -rf", "rm -rf /tmp/build && rm -rf /", true},
	{"rm -rf outside scratch", "rm -rf ~/projects/app", true},
	{"git reset --hard", "git reset --hard origin/main", true},
	{"git push --force", "git push --force origin main", true},
	{"git clean -f", "git clean -fd", true},
	{"find -delete", "find . -name '*.bak' -delete", true},
	{"xargs rm -rf", "echo /tmp/x | xargs rm -rf", true},
	{"rm -rf in /tmp", "rm -rf /tmp/scratch-dir", false},
	{"git status", "git status", false},
	{"safe read-only", "ls -la", false},
}

func runScan(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	if !watchFlag {
		return runScanOnce(cwd)
	}
	return watchAndRescan(cwd)
}

func runScanOnce(cwd string) error {
	sessionID := "scan-" + uuid.NewString()

	fmt.Println(strings.Repeat("═", 60))
	fmt.Println("  Safety Net Self-Test")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Println()

	pass, fail := 0, 0
	for _, tc := range scanCases {
		decision := evaluateCommand(tc.command, cwd, sessionID)

		ok := decision.Deny == tc.wantDeny
		icon := "✅"
		if !ok {
			icon = "❌"
			fail++
		} else {
			pass++
		}

		got := "allow"
		if decision.Deny {
			got = "deny: " + decision.Reason
		}
		fmt.Printf("  %s  %-28s  %s\n", icon, tc.label, got)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("═", 60))
	if fail == 0 {
		fmt.Printf("  ✅ All %d cases passed\n", pass+fail)
	} else {
		fmt.Printf("  ⚠ %d/%d passed, %d failed\n", pass, pass+fail, fail)
		return fmt.Errorf("%d scan cases failed", fail)
	}
	fmt.Println(strings.Repeat("═", 60))
	return nil
}

// watchAndRescan runs the self-test once, then keeps watching the user and
// project custom-rule config files, re-running the self-test every time
// either one is edited. It blocks until interrupted.
func watchAndRescan(cwd string) error {
	_ = runScanOnce(cwd)

	watcher, err := config.NewWatcher(cwd)
	if err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		watcher.Run(func(*config.Config) {
			fmt.Println()
			fmt.Println("  custom-rule config changed, re-scanning...")
			fmt.Println()
			_ = runScanOnce(cwd)
		})
		close(done)
	}()

	fmt.Println()
	fmt.Println("  Watching for config changes. Press Ctrl-C to stop.")

	select {
	case <-sigCh:
	case <-done:
	}
	return watcher.Close()
}
