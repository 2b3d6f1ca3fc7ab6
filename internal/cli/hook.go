package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccsafetynet/safety-net/internal/auditlog"
	"github.com/ccsafetynet/safety-net/internal/guard"
	"github.com/ccsafetynet/safety-net/internal/redact"
)

// hookInput unifies the three hook JSON shapes this command auto-detects.
// Claude Code sends {"hook_event_name":"PreToolUse","tool_name":"Bash",
// "tool_input":{"command":"..."},"cwd":"...","session_id":"..."}. Cursor
// sends {"command":"...","cwd":"..."} at the top level. Windsurf sends
// {"agent_action_name":"pre_run_command","tool_info":{"command_line":"...",
// "cwd":"..."}}.
type hookInput struct {
	// Windsurf fields.
	AgentActionName string   `json:"agent_action_name"`
	ToolInfo        toolInfo `json:"tool_info"`

	// Cursor field.
	Command string `json:"command"`

	// Claude Code fields.
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	ToolInput     claudeToolInput `json:"tool_input"`

	// Shared.
	Cwd       string `json:"cwd"`
	SessionID string `json:"session_id"`
}

type toolInfo struct {
	CommandLine string `json:"command_line"`
	Cwd         string `json:"cwd"`
}

type claudeToolInput struct {
	Command string `json:"command"`
}

type cursorHookOutput struct {
	Continue     bool   `json:"continue"`
	Permission   string `json:"permission"`
	UserMessage  string `json:"user_message,omitempty"`
	AgentMessage string `json:"agent_message,omitempty"`
}

type claudeHookOutput struct {
	HookSpecificOutput claudeHookSpecificOutput `json:"hookSpecificOutput"`
}

type claudeHookSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Pre-tool-use hook handler for Claude Code, Cursor, and Windsurf",
	Long: `Reads one hook JSON payload from stdin, evaluates tool_input.command
against the safety net, and answers in the calling host's native shape.

Auto-detects the host from which top-level fields are present:
  Claude Code — hook_event_name / tool_name / tool_input.command
  Cursor      — command / cwd at the top level
  Windsurf    — agent_action_name: pre_run_command / tool_info.command_line

Only the Claude Code shape is part of the documented interface; the other
two are thin adapters onto the same analyzer.`,
	RunE: runHook,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read hook input: %w", err)
	}

	var input hookInput
	if err := json.Unmarshal(data, &input); err != nil {
		if resolveModes().Strict {
			return emitClaudeDeny("Unable to parse hook request JSON.", "", "")
		}
		return nil
	}

	switch {
	case input.HookEventName != "":
		return handleClaudeCodeHook(input)
	case input.Command != "":
		return handleCursorHook(input)
	case input.AgentActionName == "pre_run_command":
		return handleWindsurfHook(input)
	default:
		return nil
	}
}

// evaluateCommand runs the analyzer and, on deny, persists the audit
// record when a session id was supplied.
func evaluateCommand(cmdStr, cwd, sessionID string) guard.Decision {
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	decision := guard.Evaluate(cmdStr, buildOptions(cwd))
	if decision.Deny && sessionID != "" {
		writeAudit(sessionID, cmdStr, decision, cwd)
	}
	return decision
}

func writeAudit(sessionID, command string, decision guard.Decision, cwd string) {
	logger, ok, err := auditlog.Open(sessionID)
	if err != nil {
		diagLog.Warnf("audit log open failed: %v", err)
		return
	}
	if !ok {
		return
	}
	defer func() {
		if err := logger.Close(); err != nil {
			diagLog.Warnf("audit log close failed: %v", err)
		}
	}()

	if err := logger.Write(command, decision.Segment, decision.Reason, cwd, time.Now()); err != nil {
		diagLog.Warnf("audit log write failed: %v", err)
	}
}

// handleClaudeCodeHook processes Claude Code's PreToolUse hook. Only Bash
// tool calls are evaluated; everything else passes through. The deny
// response is Claude Code's own hookSpecificOutput deny envelope; exit code
// is always 0 — the host reads the JSON, not the exit status.
func handleClaudeCodeHook(input hookInput) error {
	if input.ToolName != "Bash" {
		return nil
	}
	cmdStr := input.ToolInput.Command
	if cmdStr == "" {
		return nil
	}

	decision := evaluateCommand(cmdStr, input.Cwd, input.SessionID)
	if !decision.Deny {
		return nil
	}
	return emitClaudeDeny(decision.Reason, cmdStr, decision.Segment)
}

func emitClaudeDeny(reason, command, segment string) error {
	msg := fmt.Sprintf(
		"BLOCKED by Safety Net\n\nReason: %s\n\nCommand: %s\n\nSegment: %s\n\n"+
			"If this operation is truly needed, ask the user for explicit "+
			"permission and have them run the command manually.",
		reason, redact.Excerpt(command), redact.Excerpt(segment))

	out := claudeHookOutput{HookSpecificOutput: claudeHookSpecificOutput{
		HookEventName:            "PreToolUse",
		PermissionDecision:       "deny",
		PermissionDecisionReason: msg,
	}}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal hook output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// handleCursorHook processes Cursor's beforeShellExecution hook. Deny
// responds with permission:"deny" JSON; Cursor itself decides whether to
// surface it.
func handleCursorHook(input hookInput) error {
	cmdStr := input.Command
	if cmdStr == "" {
		outputCursorAllow()
		return nil
	}

	decision := evaluateCommand(cmdStr, input.Cwd, input.SessionID)
	if !decision.Deny {
		outputCursorAllow()
		return nil
	}

	out := cursorHookOutput{
		Continue:     true,
		Permission:   "deny",
		UserMessage:  "Blocked by Safety Net: " + decision.Reason,
		AgentMessage: "Segment: " + redact.Excerpt(decision.Segment),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal hook output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputCursorAllow() {
	data, _ := json.Marshal(cursorHookOutput{Continue: true, Permission: "allow"})
	fmt.Println(string(data))
}

// handleWindsurfHook processes Windsurf's pre_run_command Cascade Hook.
// Deny is signaled by exit code 2 with the reason on stderr.
func handleWindsurfHook(input hookInput) error {
	cmdStr := input.ToolInfo.CommandLine
	if cmdStr == "" {
		return nil
	}

	decision := evaluateCommand(cmdStr, input.ToolInfo.Cwd, input.SessionID)
	if !decision.Deny {
		return nil
	}

	fmt.Fprintln(os.Stderr, "BLOCKED by Safety Net")
	fmt.Fprintf(os.Stderr, "Reason: %s\n", decision.Reason)
	fmt.Fprintf(os.Stderr, "Segment: %s\n", redact.Excerpt(decision.Segment))
	os.Exit(2)
	return nil
}
