// Package procshim launches child processes the way the Toolchain
// Abstraction and the Dependency Builder need: capturing both output
// streams, normalising the exit status into an error, and optionally
// injecting extra environment variables on top of the current process's
// environment.
package procshim

import (
	"bytes"
	"context"
	"os/exec"

	"golang.org/x/xerrors"
)

// Result is the outcome of a single child-process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError is returned when the child process exits with a non-zero
// status; it carries the captured stderr and exit code per spec.md §7.
type ExitError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return xerrors.Errorf("%s %v: exit status %d: %s", e.Command, e.Args, e.ExitCode, e.Stderr).Error()
}

// Run launches name with args in dir, with extraEnv appended to the
// process's inherited environment, and waits for it to exit.
//
// The only suspension point is the process exit (and any blocking I/O the
// child itself performs); Run does not retry or time out.
func Run(ctx context.Context, dir string, extraEnv []string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Environ(), extraEnv...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcAttrs(cmd)
	cmd.Cancel = func() error { return killGroup(cmd) }

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err == nil {
		res.ExitCode = 0
		return res, nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		// The process never started (e.g. command not found).
		return res, xerrors.Errorf("%s: %w", name, err)
	}
	res.ExitCode = exitErr.ExitCode()
	return res, &ExitError{
		Command:  name,
		Args:     args,
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
	}
}
