package tools

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/google/uuid"

	"github.com/MEKXH/warden/internal/audit"
	"github.com/MEKXH/warden/internal/guard"
	"github.com/MEKXH/warden/internal/metrics"
	"github.com/MEKXH/warden/internal/sandbox"
)

// ExecInput parameters for the exec tool
type ExecInput struct {
	Command    string `json:"command" jsonschema:"required,description=The shell command to execute"`
	WorkingDir string `json:"working_dir" jsonschema:"description=Optional working directory for the command"`
}

// ShellTool evaluates a command against policy and, when permitted, runs it
// in a sandboxed process group. The guard decision always completes before
// the runner is invoked; a rejected command never reaches the runner.
type ShellTool struct {
	policy   *guard.Policy
	runner   *sandbox.Runner
	workDir  string
	auditor  *audit.Writer
	recorder *metrics.Recorder
}

// NewShellTool wires a policy and runner into the execute boundary.
// auditor and recorder may be nil to disable the audit trail and metrics.
func NewShellTool(policy *guard.Policy, runner *sandbox.Runner, workDir string, auditor *audit.Writer, recorder *metrics.Recorder) *ShellTool {
	return &ShellTool{
		policy:   policy,
		runner:   runner,
		workDir:  workDir,
		auditor:  auditor,
		recorder: recorder,
	}
}

// Execute is the single boundary the tool-dispatch layer depends on. Every
// failure mode resolves to a textual result the calling agent can act on.
func (t *ShellTool) Execute(ctx context.Context, command, workingDir string) string {
	start := time.Now()

	requestID := InvocationFromContext(ctx).RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	cwd := workingDir
	if cwd == "" {
		cwd = t.workDir
	}
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	decision := t.policy.Evaluate(command, cwd)
	t.recordDecision(requestID, command, decision)
	if !decision.Permitted() {
		slog.Info("command rejected", "request_id", requestID, "reason", decision.Reason)
		return rejectionMessage(decision)
	}

	// The original command string runs, not the normalized form.
	result := t.runner.Run(ctx, command, cwd)
	t.recordRun(requestID, command, result, time.Since(start))
	return result.Output
}

func (t *ShellTool) recordDecision(requestID, command string, decision guard.Decision) {
	if t.recorder != nil && !decision.Permitted() {
		if _, err := t.recorder.RecordRejection(string(decision.Reason)); err != nil {
			slog.Warn("failed to record rejection metric", "error", err)
		}
	}
	if t.auditor == nil {
		return
	}
	if err := t.auditor.Append(audit.Event{
		Time:      time.Now().UTC(),
		Type:      audit.EventGuardDecision,
		RequestID: requestID,
		Command:   command,
		Verdict:   string(decision.Verdict),
		Reason:    string(decision.Reason),
	}); err != nil {
		slog.Warn("failed to append audit event", "error", err)
	}
}

func (t *ShellTool) recordRun(requestID, command string, result sandbox.Result, elapsed time.Duration) {
	if t.recorder != nil {
		if _, err := t.recorder.RecordRun(elapsed, result.TimedOut, result.Truncated, result.SpawnError); err != nil {
			slog.Warn("failed to record run metric", "error", err)
		}
	}
	if t.auditor == nil {
		return
	}
	if err := t.auditor.Append(audit.Event{
		Time:      time.Now().UTC(),
		Type:      audit.EventExecResult,
		RequestID: requestID,
		Command:   command,
		Verdict:   string(guard.VerdictPermit),
		ExitCode:  result.ExitCode,
		TimedOut:  result.TimedOut,
		Truncated: result.Truncated,
	}); err != nil {
		slog.Warn("failed to append audit event", "error", err)
	}
}

func rejectionMessage(d guard.Decision) string {
	switch d.Reason {
	case guard.ReasonDeniedPattern:
		return "Error: Command blocked by safety guard (dangerous pattern detected)"
	case guard.ReasonNotAllowlisted:
		return "Error: Command blocked by safety guard (not in allowlist)"
	case guard.ReasonPathTraversal:
		return "Error: Command blocked by safety guard (path traversal detected)"
	case guard.ReasonOutsideWorkspace:
		return "Error: Command blocked by safety guard (path outside working dir)"
	}
	return "Error: Command blocked by safety guard"
}

type execToolImpl struct {
	shell *ShellTool
}

func (e *execToolImpl) execute(ctx context.Context, input *ExecInput) (string, error) {
	return e.shell.Execute(ctx, input.Command, input.WorkingDir), nil
}

// NewExecTool wraps a ShellTool as an eino tool for agent registration.
func NewExecTool(shell *ShellTool) (tool.InvokableTool, error) {
	impl := &execToolImpl{shell: shell}
	return utils.InferTool(
		"exec",
		"Execute a shell command and return its output. Use with caution. Command substitution ($(...) and backticks) is blocked; run commands separately instead.",
		impl.execute,
	)
}
