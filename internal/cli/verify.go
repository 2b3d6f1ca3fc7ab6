package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ccsafetynet/safety-net/internal/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the user and project custom-rule config files",
	Long: `Validates ~/.cc-safety-net/config.json (user scope) and
./.safety-net.json (project scope), printing the schema errors found.
Validation of a file stops at its first invalid rule.

A config file with errors is never used as-is: the hook silently falls back
to the built-in rule set for that scope. This command is the way to find
out why, since the hook itself gives no signal.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cross := "✗"
	bold := func(s string) string { return s }
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bold = func(s string) string { return "\033[1m" + s + "\033[0m" }
	}

	userPath, err := config.UserConfigPath()
	if err != nil {
		return fmt.Errorf("resolve user config path: %w", err)
	}
	projectPath := filepath.Join(".", config.ProjectConfigName)

	hasErrors := false
	configsFound := 0
	var scopesOK []string

	if fileExists(userPath) {
		configsFound++
		result := config.ValidateFile(userPath)
		if len(result.Errors) > 0 {
			hasErrors = true
			printErrors("User", userPath, result.Errors, cross)
		} else {
			scopesOK = append(scopesOK, "user")
		}
	}

	if fileExists(projectPath) {
		configsFound++
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			abs = projectPath
		}
		result := config.ValidateFile(projectPath)
		if len(result.Errors) > 0 {
			hasErrors = true
			printErrors("Project", abs, result.Errors, cross)
		} else {
			scopesOK = append(scopesOK, "project")
		}
	}

	if hasErrors {
		fmt.Fprintln(os.Stderr, "\nConfig validation failed.")
		return fmt.Errorf("invalid custom-rule configuration")
	}

	if configsFound == 0 {
		fmt.Println("No config files found. Using built-in rules only.")
		return nil
	}

	fmt.Println(bold(fmt.Sprintf("Config OK (%s)", strings.Join(scopesOK, ", "))))
	return nil
}

func printErrors(scope, path string, errors []string, cross string) {
	fmt.Fprintf(os.Stderr, "\n%s config: %s\n", scope, path)
	fmt.Fprintln(os.Stderr, strings.Repeat("-", 60))
	for _, err := range errors {
		for _, part := range strings.Split(err, "; ") {
			fmt.Fprintf(os.Stderr, "  %s %s\n", cross, part)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
