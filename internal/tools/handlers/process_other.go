//go:build !unix

package handlers

import "os/exec"

// killProcessGroupOnCancel falls back to killing only the direct child.
func killProcessGroupOnCancel(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
}
