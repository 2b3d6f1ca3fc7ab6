// Command safety-net is a pre-tool-use hook that inspects Bash commands
// before an AI coding agent is allowed to run them, and denies the ones
// that would discard uncommitted work or delete files outside an obvious
// scratch area.
package main

import (
	"fmt"
	"os"

	"github.com/ccsafetynet/safety-net/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
