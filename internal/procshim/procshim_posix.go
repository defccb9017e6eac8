//go:build !windows

package procshim

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttrs puts cmd in its own process group so that a shell-invoked
// build step (e.g. a dependency's build_cmd spawning make, which spawns
// gcc) can be killed as a unit rather than leaving orphaned grandchildren
// behind when the build is interrupted.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup sends SIGKILL to cmd's entire process group. It is installed as
// cmd.Cancel so that context cancellation (flappy.InterruptibleContext)
// takes down the whole child tree, not just the direct child.
func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}
