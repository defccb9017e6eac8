package depbuild

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/flappy-build/flappy/internal/toolchain"
)

// BuildEnv computes the environment a dependency's build sees, per
// spec.md §4.4: CC/CXX set to the current compiler, one
// FLAPPY_DEP_<NAME>_INCLUDE/LIB pair per already-resolved sibling, and (on
// MSVC) INCLUDE/LIB or (on GCC/Clang) CPATH/LIBRARY_PATH prepended with the
// same paths.
//
// resolvedSiblings must be the snapshot of metadata as it stood before the
// current node started building — later siblings never retroactively
// observe earlier ones' environments, so callers build this map
// incrementally in topological order.
func BuildEnv(family toolchain.Family, compiler string, resolvedSiblings map[string]Metadata) []string {
	env := []string{"CC=" + compiler, "CXX=" + compiler}

	names := make([]string, 0, len(resolvedSiblings))
	for name := range resolvedSiblings {
		names = append(names, name)
	}
	sort.Strings(names)

	sep := string(os.PathListSeparator)
	var allInclude, allLib []string
	for _, name := range names {
		meta := resolvedSiblings[name]
		envName := sanitizeEnvName(name)
		env = append(env, fmt.Sprintf("FLAPPY_DEP_%s_INCLUDE=%s", envName, strings.Join(meta.IncludeDirs, sep)))
		env = append(env, fmt.Sprintf("FLAPPY_DEP_%s_LIB=%s", envName, strings.Join(meta.LibDirs, sep)))
		allInclude = append(allInclude, meta.IncludeDirs...)
		allLib = append(allLib, meta.LibDirs...)
	}

	if family == toolchain.MSVC {
		if len(allInclude) > 0 {
			env = append(env, "INCLUDE="+prepend(allInclude, ";", os.Getenv("INCLUDE")))
		}
		if len(allLib) > 0 {
			env = append(env, "LIB="+prepend(allLib, ";", os.Getenv("LIB")))
		}
		return env
	}

	if len(allInclude) > 0 {
		env = append(env, "CPATH="+prepend(allInclude, ":", os.Getenv("CPATH")))
	}
	if len(allLib) > 0 {
		env = append(env, "LIBRARY_PATH="+prepend(allLib, ":", os.Getenv("LIBRARY_PATH")))
	}
	return env
}

func prepend(paths []string, sep, existing string) string {
	joined := strings.Join(paths, sep)
	if existing == "" {
		return joined
	}
	return joined + sep + existing
}

// sanitizeEnvName turns a dependency name into a valid, uppercased
// environment-variable fragment, e.g. "boost-system" -> "BOOST_SYSTEM".
func sanitizeEnvName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
