package toolchain

import (
	"runtime"

	"github.com/flappy-build/flappy"
	"github.com/flappy-build/flappy/internal/manifest"
)

// OutputSuffix returns the platform-native filename suffix for outputType
// on platform, per spec.md §4.5.
func OutputSuffix(outputType manifest.OutputType, family Family, platform flappy.Platform) string {
	switch outputType {
	case manifest.TypeExe:
		if platform == flappy.Windows {
			return ".exe"
		}
		return ""
	case manifest.TypeStatic:
		if family == MSVC {
			return ".lib"
		}
		return ".a"
	case manifest.TypeShared:
		switch platform {
		case flappy.Windows:
			return ".dll"
		case flappy.MacOS:
			return ".dylib"
		default:
			return ".so"
		}
	}
	return ""
}

// ObjectSuffix returns "obj" for MSVC and "o" otherwise, matching the
// obj/<arch>/<profile>/<relpath>.{o|obj} layout of spec.md §3.
func ObjectSuffix(family Family) string {
	if family == MSVC {
		return "obj"
	}
	return "o"
}

// HostPlatform is a small convenience re-export so toolchain callers don't
// need to import runtime directly just to pick a default platform.
func HostPlatform() flappy.Platform {
	switch runtime.GOOS {
	case "windows":
		return flappy.Windows
	case "darwin":
		return flappy.MacOS
	default:
		return flappy.Linux
	}
}

// ArchiveCommand returns the command and arguments to create or update a
// static archive from objects into output.
func ArchiveCommand(family Family, output string, objects []string) (string, []string) {
	if family == MSVC {
		args := append([]string{"/OUT:" + output}, objects...)
		return "lib", args
	}
	args := append([]string{"rcs", output}, objects...)
	return "ar", args
}

// LinkCommand returns the command and arguments to link an executable or
// shared library from objects, resolved dependency libs, and a compiler.
func LinkCommand(family Family, compiler string, outputType manifest.OutputType, profile manifest.Profile, output string, objects, libs []string) (string, []string) {
	var args []string
	if family == MSVC {
		args = append(args, objects...)
		args = append(args, libs...)
		args = append(args, "/OUT:"+output)
		if outputType == manifest.TypeShared {
			args = append(args, "/LD")
		}
		if profile == manifest.Debug {
			args = append(args, "/DEBUG")
		}
		return compiler, args
	}
	args = append(args, objects...)
	if outputType == manifest.TypeShared {
		args = append(args, "-shared", "-fPIC")
	}
	args = append(args, "-o", output)
	args = append(args, libs...)
	if profile == manifest.Debug {
		args = append(args, "-g")
	}
	return compiler, args
}
