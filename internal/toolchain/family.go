// Package toolchain normalises GCC-family, Clang-family, and MSVC-family
// compiler invocations: flag syntax, include/define conventions,
// output-file suffixes, and (for MSVC) the developer-command-prompt
// environment bootstrap.
package toolchain

import (
	"path"
	"path/filepath"
	"strings"
)

// Family is the classification of a compiler command.
type Family int

const (
	Unknown Family = iota
	GCC
	Clang
	MSVC
)

func (f Family) String() string {
	switch f {
	case GCC:
		return "gcc"
	case Clang:
		return "clang"
	case MSVC:
		return "msvc"
	default:
		return "unknown"
	}
}

var msvcCommands = map[string]bool{
	"cl":             true,
	"cl.exe":         true,
	"msvc":           true,
	"clang-cl":       true,
	"clang-cl.exe":   true,
	"lib":            true,
	"lib.exe":        true,
}

// Classify determines the Family of a compiler command, which may be a
// bare command name or an absolute path.
func Classify(compiler string) Family {
	norm := strings.ReplaceAll(compiler, "\\", "/")
	base := strings.ToLower(path.Base(norm))
	if msvcCommands[base] {
		return MSVC
	}
	// Any absolute path whose ancestor directory contains VC/Auxiliary/Build
	// is an MSVC toolchain install, regardless of the leaf binary name.
	if filepath.IsAbs(compiler) {
		if strings.Contains(norm, "/VC/Auxiliary/Build") {
			return MSVC
		}
	}
	switch {
	case strings.Contains(base, "clang"):
		return Clang
	case strings.Contains(base, "gcc"), strings.Contains(base, "g++"), base == "cc", base == "c++":
		return GCC
	}
	return Unknown
}
