package customrule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func check(cmd string, rules []Rule) string {
	return Check(strings.Fields(cmd), rules)
}

func TestCheck_BlockArgToken(t *testing.T) {
	rules := []Rule{{Name: "no-force-apply", Command: "kubectl", Subcommand: "apply", BlockArgs: []string{"--force"}, Reason: "no forced applies"}}
	assert.Equal(t, "[no-force-apply] no forced applies", check("kubectl apply --force -f deploy.yaml", rules))
	assert.Empty(t, check("kubectl apply -f deploy.yaml", rules))
}

func TestCheck_BlockArgBundledShortOpt(t *testing.T) {
	rules := []Rule{{Name: "no-rf", Command: "rm", BlockArgs: []string{"-f"}, Reason: "no forced removes"}}
	assert.Equal(t, "[no-rf] no forced removes", check("rm -rf /tmp/x", rules))
	assert.Empty(t, check("rm -r /tmp/x", rules))
}

func TestCheck_SubcommandMismatch(t *testing.T) {
	rules := []Rule{{Name: "no-terraform-destroy", Command: "terraform", Subcommand: "destroy", BlockArgs: []string{"-auto-approve"}, Reason: "no terraform destroy"}}
	assert.Empty(t, check("terraform plan -auto-approve", rules))
}

func TestCheck_CommandMismatch(t *testing.T) {
	rules := []Rule{{Name: "no-curl", Command: "curl", BlockArgs: []string{"-s"}, Reason: "blocked"}}
	assert.Empty(t, check("wget -s https://example.com", rules))
}

func TestCheck_BasenameResolved(t *testing.T) {
	rules := []Rule{{Name: "no-sudo-rf", Command: "sudo", BlockArgs: []string{"-rf"}, Reason: "no sudo rf"}}
	assert.Equal(t, "[no-sudo-rf] no sudo rf", check("/usr/bin/sudo rm -rf /tmp/x", rules))
}

func TestCheck_NoBlockArgsNeverMatches(t *testing.T) {
	rules := []Rule{{Name: "bare", Command: "curl", Reason: "blocked"}}
	assert.Empty(t, check("curl https://example.com", rules))
}

func TestCheck_NoRulesOrTokens(t *testing.T) {
	assert.Empty(t, check("rm -rf /tmp/x", nil))
	assert.Empty(t, Check(nil, []Rule{{Name: "x", Command: "rm", BlockArgs: []string{"-f"}, Reason: "r"}}))
}
