package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSessionID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain uuid", "abc-123_DEF.456", "abc-123_DEF.456", true},
		{"invalid chars replaced", "abc/def:ghi", "abc_def_ghi", true},
		{"leading trailing trimmed", "-._abc._-", "abc", true},
		{"whitespace trimmed first", "  abc  ", "abc", true},
		{"empty rejected", "", "", false},
		{"dot rejected", ".", "", false},
		{"dotdot rejected", "..", "", false},
		{"becomes empty after trim rejected", "._-", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SanitizeSessionID(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSanitizeSessionID_TruncatesToMax(t *testing.T) {
	long := strings.Repeat("a", 200)
	got, ok := SanitizeSessionID(long)
	require.True(t, ok)
	assert.Len(t, got, maxSessionID)
}

func TestOpen_WritesUnderHomeConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	logger, ok, err := Open("session-123")
	require.NoError(t, err)
	require.True(t, ok)
	defer logger.Close()

	assert.Equal(t, filepath.Join(home, configDir, logsDirName, "session-123.jsonl"), logger.path)
	_, statErr := os.Stat(filepath.Join(home, configDir, logsDirName))
	assert.NoError(t, statErr)
}

func TestOpen_UnsanitizableSessionIDFailsOpenWithoutError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	logger, ok, err := Open("")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, logger)
}

func TestLogger_WriteAppendsRedactedJSONLine(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	logger, ok, err := Open("sess-1")
	require.NoError(t, err)
	require.True(t, ok)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err = logger.Write("rm -rf / --token=sk-ant-abc123", "rm -rf /", "root or home directory", "/home/user", now)
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	f, err := os.Open(filepath.Join(home, configDir, logsDirName, "sess-1.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var rec Record
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))

	assert.Equal(t, "2026-01-02T03:04:05Z", rec.Timestamp)
	assert.NotContains(t, rec.Command, "sk-ant-abc123")
	assert.Equal(t, "rm -rf /", rec.Segment)
	assert.Equal(t, "root or home directory", rec.Reason)
	assert.Equal(t, "/home/user", rec.Cwd)

	assert.False(t, scanner.Scan())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "", truncate("", 5))
}
