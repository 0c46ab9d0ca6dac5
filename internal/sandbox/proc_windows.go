//go:build windows

package sandbox

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the shell in a new process group so console
// signals do not propagate to the runner.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killProcessGroup terminates the shell process. Child reaping on Windows
// is best effort; descendants are not tracked via job objects.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
