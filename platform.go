package flappy

import "runtime"

// Platform identifies one of the host operating systems the build
// configuration's [build.<platform>] override layer can target.
type Platform string

const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	MacOS   Platform = "macos"
)

// HostPlatform returns the Platform the current process is running under,
// as consumed by the Manifest Resolver's override merge.
func HostPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	default:
		return Linux
	}
}

// Arches contains one entry for each architecture identifier flappy
// recognises. Only x86 and x64 map to a GCC-family arch flag (-m32/-m64);
// arm64 adds none.
var Arches = map[string]bool{
	"x86":   true,
	"x64":   true,
	"arm64": true,
}

// HostArch returns the architecture identifier matching runtime.GOARCH.
func HostArch() string {
	switch runtime.GOARCH {
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	default:
		return "x64"
	}
}
