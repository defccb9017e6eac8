//go:build windows

package procshim

import "os/exec"

// setProcAttrs is a no-op on Windows; the process-group kill path below
// falls back to exec.Cmd's default single-process Kill.
func setProcAttrs(cmd *exec.Cmd) {}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
