package toolchain

import (
	"github.com/flappy-build/flappy/internal/manifest"
)

// CompileArgs holds everything needed to assemble one compiler invocation's
// argument list for a single translation unit.
type CompileArgs struct {
	Family     Family
	Profile    manifest.Profile
	Arch       string
	Language   manifest.Language
	Standard   string
	Includes   []string
	Defines    []string
	ExtraFlags []string
	Source     string
	Object     string
}

// ProfileFlags returns the Debug/Release preset flags for family.
func ProfileFlags(family Family, profile manifest.Profile) []string {
	if family == MSVC {
		if profile == manifest.Release {
			return []string{"/O2", "/DNDEBUG", "/MD"}
		}
		return []string{"/Zi", "/Od", "/MDd"}
	}
	if profile == manifest.Release {
		return []string{"-O3", "-DNDEBUG"}
	}
	return []string{"-g", "-O0"}
}

// ArchFlags returns the architecture flags for family. MSVC's target
// architecture is selected through the linker/compiler invocation chosen by
// the developer-prompt bootstrap (see Shim), not a compile-time flag, so
// MSVC returns nothing here.
func ArchFlags(family Family, arch string) []string {
	if family == MSVC {
		return nil
	}
	switch arch {
	case "x86":
		return []string{"-m32"}
	case "x64":
		return []string{"-m64"}
	default:
		return nil
	}
}

// IncludeFlag formats one include-directory flag. The result is passed as a
// single argv element straight to exec.CommandContext with no shell in
// between (internal/procshim), so it must carry no quote characters of its
// own — only the MSVC developer-prompt shim (msvcshim.go's quoteAll) adds
// shell-style quoting, for the cmd.exe /c line it builds.
func IncludeFlag(family Family, dir string) string {
	if family == MSVC {
		return "/I" + dir
	}
	return "-I" + dir
}

// DefineFlag formats one preprocessor-define flag.
func DefineFlag(family Family, define string) string {
	if family == MSVC {
		return "/D" + define
	}
	return "-D" + define
}

// StandardFlag formats the language-standard flag. Whether MSVC's /std:
// switch should differ from GCC's -std= when the user requests a C (not
// C++) standard is an open question (spec.md §9) — flappy always emits the
// MSVC-style form for MSVC and additionally appends /EHsc for C++, matching
// the shape most commonly seen for clang-cl and cl.exe invocations; see
// DESIGN.md.
func StandardFlag(family Family, lang manifest.Language, standard string) []string {
	if standard == "" {
		return nil
	}
	if family == MSVC {
		flags := []string{"/std:" + standard}
		if lang == manifest.LangCpp {
			flags = append(flags, "/EHsc")
		}
		return flags
	}
	return []string{"-std=" + standard}
}

// Assemble builds the full ordered argument list for one compile
// invocation: profile flags, arch flags, include flags, define flags, user
// flags, then the standard token, matching the order spec.md §4.5
// describes.
func Assemble(a CompileArgs) []string {
	var args []string
	args = append(args, ProfileFlags(a.Family, a.Profile)...)
	args = append(args, ArchFlags(a.Family, a.Arch)...)
	for _, dir := range a.Includes {
		args = append(args, IncludeFlag(a.Family, dir))
	}
	for _, define := range a.Defines {
		args = append(args, DefineFlag(a.Family, define))
	}
	args = append(args, a.ExtraFlags...)
	args = append(args, StandardFlag(a.Family, a.Language, a.Standard)...)
	if a.Family == MSVC {
		args = append(args, "/c", a.Source, "/Fo"+a.Object)
	} else {
		args = append(args, "-c", a.Source, "-o", a.Object)
	}
	return args
}
