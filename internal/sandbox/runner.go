package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// killGracePeriod bounds how long we wait for a signaled process group to
// be reaped before giving up and reporting anyway.
const killGracePeriod = 5 * time.Second

// Result is the outcome of one sandboxed run. Non-zero exit, timeout and
// spawn failure are all reported here as data; Run never returns an error.
type Result struct {
	Output     string
	ExitCode   int
	TimedOut   bool
	Truncated  bool
	SpawnError bool
}

// Runner executes shell commands with a bounded wall-clock lifetime and
// bounded output size. Each invocation owns its own process group and
// buffers, so a single Runner is safe for concurrent use.
type Runner struct {
	timeout   time.Duration
	maxOutput int
}

// NewRunner creates a runner with the given timeout and output cap.
// Non-positive values fall back to 60s and 10000 characters.
func NewRunner(timeout time.Duration, maxOutput int) *Runner {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxOutput <= 0 {
		maxOutput = 10000
	}
	return &Runner{timeout: timeout, maxOutput: maxOutput}
}

// Run executes command through the platform shell in a new process group
// and returns a textual result. On timeout or cancellation the entire
// process group is force-killed so no descendants survive.
func (r *Runner) Run(ctx context.Context, command, dir string) Result {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return Result{
			Output:     fmt.Sprintf("Error executing command: %s", err),
			ExitCode:   -1,
			SpawnError: true,
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		r.reap(cmd, done)
		return Result{
			Output:   fmt.Sprintf("Error: Command timed out after %d seconds", int(r.timeout.Seconds())),
			ExitCode: -1,
			TimedOut: true,
		}
	case <-ctx.Done():
		r.reap(cmd, done)
		return Result{
			Output:   fmt.Sprintf("Error: Command canceled: %s", ctx.Err()),
			ExitCode: -1,
		}
	}

	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return Result{
				Output:     fmt.Sprintf("Error executing command: %s", waitErr),
				ExitCode:   -1,
				SpawnError: true,
			}
		}
		exitCode = exitErr.ExitCode()
	}

	return r.report(stdout.String(), stderr.String(), exitCode)
}

// reap kills the whole process group and waits a bounded grace period for
// the shell to be collected. A group that already exited is fine; the
// desired end state is reached either way.
func (r *Runner) reap(cmd *exec.Cmd, done <-chan error) {
	killProcessGroup(cmd)
	select {
	case <-done:
	case <-time.After(killGracePeriod):
		slog.Warn("process group did not exit within grace period", "pid", cmd.Process.Pid)
	}
}

func (r *Runner) report(stdout, stderr string, exitCode int) Result {
	parts := make([]string, 0, 3)
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if strings.TrimSpace(stderr) != "" {
		parts = append(parts, "STDERR:\n"+stderr)
	}
	if exitCode != 0 {
		parts = append(parts, fmt.Sprintf("\nExit code: %d", exitCode))
	}

	output := "(no output)"
	if len(parts) > 0 {
		output = strings.Join(parts, "\n")
	}

	truncated := false
	if len(output) > r.maxOutput {
		omitted := len(output) - r.maxOutput
		output = output[:r.maxOutput] + fmt.Sprintf("\n... (truncated, %d more chars)", omitted)
		truncated = true
	}

	return Result{Output: output, ExitCode: exitCode, Truncated: truncated}
}
