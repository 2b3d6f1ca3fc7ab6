package cli

import (
	"os"

	"github.com/sirupsen/logrus"
)

// diagLog is the CLI's own human-facing diagnostic logger: warnings emitted
// when a rule pack fails to load or audit-log I/O fails (JSON config
// problems stay silent), as opposed to the analyzer's
// decision output (stdout JSON) or the audit record (JSON-lines file).
var diagLog = newDiagLogger()

func newDiagLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}
