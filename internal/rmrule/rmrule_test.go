package rmrule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func analyze(cmd string, ctx Context) string {
	return Analyze(strings.Fields(cmd), ctx)
}

func TestAnalyze_NotDestructiveWithoutBothFlags(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project"}
	assert.Empty(t, analyze("rm -r /home/user/project/sub", ctx))
	assert.Empty(t, analyze("rm -f /home/user/project/file", ctx))
	assert.Empty(t, analyze("rm file", ctx))
}

func TestAnalyze_RootAndHomeAlwaysDenied(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project", HomeDir: "/home/user"}
	assert.Equal(t, ReasonRootOrHome, analyze("rm -rf /", ctx))
	assert.Equal(t, ReasonRootOrHome, analyze("rm -rf ~", ctx))
	assert.Equal(t, ReasonRootOrHome, analyze("rm -rf ~deploy", ctx))
}

func TestAnalyze_ScratchPathsAllowed(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project"}
	assert.Empty(t, analyze("rm -rf /tmp/build", ctx))
	assert.Empty(t, analyze("rm -rf /var/tmp/cache", ctx))
	assert.Empty(t, analyze("rm -rf sub/dir", ctx))
}

func TestAnalyze_OutsideScratchDenied(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project"}
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf /var/lib/data", ctx))
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf ../sibling", ctx))
}

func TestAnalyze_CwdEqualsHomeDeniesEverything(t *testing.T) {
	ctx := Context{Cwd: "/home/user", HomeDir: "/home/user"}
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf sub", ctx))
}

func TestAnalyze_UnknownCwdCollapsesToTmpOnly(t *testing.T) {
	ctx := Context{}
	assert.Empty(t, analyze("rm -rf /tmp/x", ctx))
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf sub/dir", ctx))
}

func TestAnalyze_TmpdirVariable(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project", AllowTmpdirVar: true}
	assert.Empty(t, analyze("rm -rf $TMPDIR/x", ctx))
	assert.Empty(t, analyze("rm -rf ${TMPDIR}/x", ctx))

	ctxReassigned := Context{Cwd: "/home/user/project", AllowTmpdirVar: false}
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf $TMPDIR/x", ctxReassigned))
}

func TestAnalyze_TmpdirDotDotEscape(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project", AllowTmpdirVar: true}
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf $TMPDIR/../etc", ctx))
}

func TestAnalyze_CommandSubstitutionNeverTrusted(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project"}
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf `pwd`/sub", ctx))
	assert.Equal(t, ReasonOutsideScratch, analyze("rm -rf $(pwd)/sub", ctx))
}

func TestAnalyze_ParanoidDeniesRegardlessOfTarget(t *testing.T) {
	ctx := Context{Cwd: "/home/user/project", Paranoid: true}
	assert.Equal(t, ReasonParanoid, analyze("rm -rf /tmp/x", ctx))
}

func TestIsDestructive(t *testing.T) {
	assert.True(t, IsDestructive([]string{"rm", "-rf", "/tmp/x"}))
	assert.True(t, IsDestructive([]string{"rm", "-r", "-f", "/tmp/x"}))
	assert.True(t, IsDestructive([]string{"rm", "--recursive", "--force", "/tmp/x"}))
	assert.False(t, IsDestructive([]string{"rm", "-r", "/tmp/x"}))
	assert.False(t, IsDestructive([]string{"rm", "/tmp/x"}))
}
