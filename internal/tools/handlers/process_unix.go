//go:build unix

package handlers

import (
	"os/exec"
	"syscall"
)

// killProcessGroupOnCancel starts the script in its own process group and
// kills the whole group when the command's context ends, so children the
// script spawned die with it.
func killProcessGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
