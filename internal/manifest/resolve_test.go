package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flappy-build/flappy"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "flappy.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestOverrideMerge exercises the scenario from spec.md §8 example 2:
// build{defines=["A"]}, build.release{defines=["B"]}, build.windows{defines=["C"]}.
func TestOverrideMerge(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"
defines = ["A"]

[build.release]
defines = ["B"]

[build.windows]
defines = ["C"]
`)

	debugLinux, err := Load(path, Options{Mode: Debug, Platform: flappy.Linux})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A"}, debugLinux.Build.Defines); diff != "" {
		t.Errorf("debug/linux defines mismatch (-want +got):\n%s", diff)
	}
	if debugLinux.Build.IsProfileDefined {
		t.Errorf("debug/linux IsProfileDefined = true, want false (no platform/profile layer matched)")
	}

	releaseWindows, err := Load(path, Options{Mode: Release, Platform: flappy.Windows})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, releaseWindows.Build.Defines); diff != "" {
		t.Errorf("release/windows defines mismatch (-want +got):\n%s", diff)
	}
	if !releaseWindows.Build.IsProfileDefined {
		t.Errorf("release/windows IsProfileDefined = false, want true")
	}
}

func TestResolveIdempotent(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"
`)
	m1, err := Load(path, Options{Mode: Release, Platform: flappy.Linux})
	if err != nil {
		t.Fatal(err)
	}
	m2, err := Load(path, Options{Mode: Release, Platform: flappy.Linux})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m1.Build, m2.Build); diff != "" {
		t.Errorf("re-resolution of the same inputs produced different configs (-first +second):\n%s", diff)
	}
}

func TestCustomProfileLayer(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"

[build.ci]
flags = ["-Werror"]

[build.ci.release]
defines = ["CI_RELEASE"]
`)
	m, err := Load(path, Options{Profile: "ci", Mode: Release, Platform: flappy.Linux})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"-Werror"}, m.Build.Flags); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CI_RELEASE"}, m.Build.Defines); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}
	if !m.Build.IsProfileDefined {
		t.Errorf("IsProfileDefined = false, want true")
	}
}

func TestMissingBuildTable(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"
`)
	if _, err := Load(path, Options{}); err == nil {
		t.Fatal("expected error for missing [build] table")
	}
}

func TestDependencyZeroSources(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"

[dependencies.fmt]
defines = ["FMT_HEADER_ONLY"]
`)
	if _, err := Load(path, Options{}); err == nil {
		t.Fatal("expected ConfigError for dependency with zero sources")
	}
}

func TestDependencyMultipleSources(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"

[dependencies.fmt]
git = "https://github.com/fmtlib/fmt.git"
path = "../fmt"
`)
	if _, err := Load(path, Options{}); err == nil {
		t.Fatal("expected ConfigError for dependency with multiple sources")
	}
}

func TestDependencyOrderPreserved(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"

[dependencies.zeta]
path = "../zeta"

[dependencies.alpha]
path = "../alpha"

[dependencies.middle]
path = "../middle"
`)
	m, err := Load(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range m.Dependencies {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "middle"}, names); diff != "" {
		t.Errorf("dependency order mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencyBridging(t *testing.T) {
	path := writeManifest(t, `
[package]
name = "hello"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/hello"
type = "exe"

[dependencies.curl]
path = "../curl"
build_cmd = "make"
extra_dependencies = ["openssl"]

[dependencies.openssl]
path = "../openssl"
build_cmd = "make"
`)
	m, err := Load(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var curl Dependency
	for _, d := range m.Dependencies {
		if d.Name == "curl" {
			curl = d
		}
	}
	if diff := cmp.Diff([]string{"openssl"}, curl.ExtraDependencies); diff != "" {
		t.Errorf("curl.ExtraDependencies mismatch (-want +got):\n%s", diff)
	}
}
