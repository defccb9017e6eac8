package toolchain

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// vcArchToken maps flappy's arch identifiers onto the token vcvarsall.bat
// expects.
var vcArchToken = map[string]string{
	"x86":   "x86",
	"x64":   "x64",
	"arm64": "arm64",
}

// BootstrapError is returned when the MSVC developer-environment bootstrap
// cannot locate vswhere.exe or vcvarsall.bat.
type BootstrapError struct {
	Msg string
	Err error
}

func (e *BootstrapError) Error() string {
	if e.Err != nil {
		return xerrors.Errorf("msvc bootstrap: %s: %w", e.Msg, e.Err).Error()
	}
	return "msvc bootstrap: " + e.Msg
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// VCVarsallLocator finds the vcvarsall.bat belonging to an MSVC
// installation. The production locator shells out to vswhere.exe; tests
// inject a stub.
type VCVarsallLocator interface {
	Locate() (path string, err error)
}

// vswhereLocator queries vswhere.exe under the 32-bit Program Files tree
// for an installation carrying the VC.Tools.x86.x64 component, as described
// in spec.md §4.7.
type vswhereLocator struct {
	run func(name string, args ...string) (string, error)
}

func (l *vswhereLocator) Locate() (string, error) {
	programFilesX86 := os.Getenv("PROGRAMFILES(X86)")
	if programFilesX86 == "" {
		return "", &BootstrapError{Msg: "PROGRAMFILES(X86) is not set"}
	}
	vswhere := filepath.Join(programFilesX86, "Microsoft Visual Studio", "Installer", "vswhere.exe")
	out, err := l.run(vswhere,
		"-latest",
		"-products", "*",
		"-requires", "Microsoft.VisualStudio.Component.VC.Tools.x86.x64",
		"-property", "installationPath")
	if err != nil {
		return "", &BootstrapError{Msg: "vswhere.exe query failed", Err: err}
	}
	installPath := strings.TrimSpace(out)
	if installPath == "" {
		return "", &BootstrapError{Msg: "no Visual Studio installation with VC.Tools.x86.x64 found"}
	}
	return filepath.Join(installPath, "VC", "Auxiliary", "Build", "vcvarsall.bat"), nil
}

// NewVCVarsallLocator returns the production vswhere-backed locator.
func NewVCVarsallLocator(run func(name string, args ...string) (string, error)) VCVarsallLocator {
	return &vswhereLocator{run: run}
}

// Shim wraps an MSVC invocation in the developer-command-prompt bootstrap:
// (cl, args) becomes (cmd.exe, /c "call "<vcvarsall>" <arch> && cl <args>").
// Compiler families other than MSVC pass through unchanged.
type Shim struct {
	Locator VCVarsallLocator
}

// Wrap transforms an invocation for the given family. For GCC/Clang it is
// the identity transform.
func (s *Shim) Wrap(family Family, arch, command string, args []string) (wrappedCommand string, wrappedArgs []string, err error) {
	if family != MSVC {
		return command, args, nil
	}
	vcvarsall, err := s.Locator.Locate()
	if err != nil {
		return "", nil, err
	}
	archToken, ok := vcArchToken[arch]
	if !ok {
		return "", nil, &BootstrapError{Msg: "unsupported MSVC architecture: " + arch}
	}
	inner := quoteAll(append([]string{command}, args...))
	cmdLine := `call "` + vcvarsall + `" ` + archToken + ` && ` + inner
	return "cmd.exe", []string{"/c", cmdLine}, nil
}

func quoteAll(tokens []string) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		if strings.ContainsAny(t, " \t\"") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(t, `"`, `\"`))
			b.WriteByte('"')
		} else {
			b.WriteString(t)
		}
	}
	return b.String()
}

// bannerPrefixes are the standard MSVC developer-prompt banner lines that
// ScrubBanner removes from shim stdout.
var bannerPrefixes = []string{
	"Microsoft (R)",
	"Copyright (C)",
	"Developer Command Prompt",
	"vcvarsall.bat",
}

// ScrubBanner filters the vcvarsall/cl banner noise out of stdout so that
// compiler diagnostics are the only thing surfaced to the user.
func ScrubBanner(stdout string) string {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	var kept []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		skip := false
		for _, prefix := range bannerPrefixes {
			if strings.HasPrefix(strings.TrimSpace(line), prefix) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
