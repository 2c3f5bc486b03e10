//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// setProcGroup starts the child in its own process group so a grace-period
// termination reaches any grandchildren the vendor CLI itself forks.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcessGroup sends SIGTERM to the whole process group for pid.
func terminateProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// killProcessGroup sends SIGKILL to the whole process group for pid.
func killProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
