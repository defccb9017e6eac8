package procshim

import (
	"context"
	"runtime"
	"testing"
)

func TestRunSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	res, err := Run(context.Background(), t.TempDir(), nil, "/bin/sh", "-c", "echo hi")
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "hi\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hi\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	_, err := Run(context.Background(), t.TempDir(), nil, "/bin/sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	exitErr, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("err = %T, want *ExitError", err)
	}
	if exitErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", exitErr.ExitCode)
	}
	if exitErr.Stderr != "boom\n" {
		t.Errorf("Stderr = %q, want %q", exitErr.Stderr, "boom\n")
	}
}

func TestRunEnvInjection(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	res, err := Run(context.Background(), t.TempDir(), []string{"FLAPPY_TEST_VAR=present"}, "/bin/sh", "-c", "echo $FLAPPY_TEST_VAR")
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "present\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "present\n")
	}
}
