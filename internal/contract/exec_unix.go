//go:build !windows

package contract

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the tool in its own process group and kills the whole group on
// cancellation, so helpers such as git-remote-https cannot outlive the timeout.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
