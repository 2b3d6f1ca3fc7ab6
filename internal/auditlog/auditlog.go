// Package auditlog persists a JSON-lines record of every denied command to
// a per-session log file under ~/.cc-safety-net/logs/.
package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ccsafetynet/safety-net/internal/redact"
)

const (
	logsDirName  = "logs"
	configDir    = ".cc-safety-net"
	maxSessionID = 128
	maxExcerpt   = 300
)

var invalidSessionChar = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeSessionID converts an arbitrary session identifier into a safe
// filename component: characters outside [A-Za-z0-9_.-] become "_",
// leading/trailing "._-" are stripped, the result is truncated to 128
// bytes, and the empty string or "." or ".." is rejected.
func SanitizeSessionID(sessionID string) (string, bool) {
	raw := strings.TrimSpace(sessionID)
	if raw == "" {
		return "", false
	}

	safe := invalidSessionChar.ReplaceAllString(raw, "_")
	safe = strings.Trim(safe, "._-")
	if len(safe) > maxSessionID {
		safe = safe[:maxSessionID]
	}
	if safe == "" || safe == "." || safe == ".." {
		return "", false
	}
	return safe, true
}

// Record is one audit log entry: a denied command, the specific segment
// responsible, and the reason it was denied.
type Record struct {
	Timestamp string `json:"ts"`
	Command   string `json:"command"`
	Segment   string `json:"segment"`
	Reason    string `json:"reason"`
	Cwd       string `json:"cwd,omitempty"`
}

// Logger appends Records as JSON lines to a session-scoped log file,
// rotating it via lumberjack once it grows past a threshold.
type Logger struct {
	mu   sync.Mutex
	lj   *lumberjack.Logger
	path string
}

// Open returns a Logger for sessionID, or ok=false if the session id
// sanitizes to nothing writable (core callers should then simply skip
// audit logging rather than fail the decision).
func Open(sessionID string) (logger *Logger, ok bool, err error) {
	safeID, ok := SanitizeSessionID(sessionID)
	if !ok {
		return nil, false, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, false, fmt.Errorf("resolve home directory: %w", err)
	}

	dir := filepath.Join(home, configDir, logsDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, false, fmt.Errorf("create audit log directory: %w", err)
	}

	path := filepath.Join(dir, safeID+".jsonl")
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		Compress:   false,
	}

	return &Logger{lj: lj, path: path}, true, nil
}

// Write appends one record, redacting and truncating Command/Segment the
// same way a deny reason is redacted before being echoed back.
func (l *Logger) Write(command, segment, reason, cwd string, now time.Time) error {
	rec := Record{
		Timestamp: now.UTC().Format(time.RFC3339),
		Command:   truncate(redact.Secrets(command), maxExcerpt),
		Segment:   truncate(redact.Secrets(segment), maxExcerpt),
		Reason:    reason,
		Cwd:       cwd,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.lj.Write(data); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	return l.lj.Close()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
