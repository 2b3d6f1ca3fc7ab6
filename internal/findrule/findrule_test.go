package findrule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func analyze(args string) string {
	return Analyze(strings.Fields(args))
}

func TestAnalyze_Delete(t *testing.T) {
	assert.Equal(t, ReasonDelete, analyze(". -name *.bak -delete"))
}

func TestAnalyze_ExecRmRf(t *testing.T) {
	assert.Equal(t, ReasonExecRmRf, analyze(". -name *.tmp -exec rm -rf {} ;"))
	assert.Equal(t, ReasonExecRmRf, analyze(". -name *.tmp -exec rm -rf {} +"))
	assert.Equal(t, ReasonExecRmRf, analyze(". -name *.tmp -execdir rm -rf {} ;"))
	assert.Equal(t, ReasonExecRmRf, analyze(". -name *.tmp -ok rm -rf {} ;"))
}

func TestAnalyze_ExecNonDestructive(t *testing.T) {
	assert.Empty(t, analyze(". -name *.tmp -exec echo {} ;"))
	assert.Empty(t, analyze(". -name *.tmp -exec rm {} ;"))
	assert.Empty(t, analyze(". -name *.tmp -exec rm -f {} ;"))
}

func TestAnalyze_ExecBusyboxRm(t *testing.T) {
	assert.Equal(t, ReasonExecRmRf, analyze(". -exec busybox rm -rf {} ;"))
}

func TestAnalyze_PredicatesConsumeOneArg(t *testing.T) {
	// "-name -delete" should be consumed as the -name argument, not trigger
	// a deny.
	assert.Empty(t, analyze(". -name -delete"))
}

func TestAnalyze_SafeFind(t *testing.T) {
	assert.Empty(t, analyze(". -name *.go -print"))
	assert.Empty(t, analyze(". -type f"))
}
