package toolchain

import (
	"testing"

	"github.com/flappy-build/flappy"
	"github.com/flappy-build/flappy/internal/manifest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		compiler string
		want     Family
	}{
		{"g++", GCC},
		{"gcc", GCC},
		{"/usr/bin/clang++", Clang},
		{"cl.exe", MSVC},
		{"clang-cl", MSVC},
		{`C:\VS\VC\Auxiliary\Build\..\..\bin\Hostx64\x64\cl.exe`, MSVC},
		{"tcc", Unknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.compiler); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.compiler, got, tt.want)
		}
	}
}

func TestOutputSuffix(t *testing.T) {
	tests := []struct {
		outputType manifest.OutputType
		family     Family
		platform   flappy.Platform
		want       string
	}{
		{manifest.TypeExe, GCC, flappy.Linux, ""},
		{manifest.TypeExe, MSVC, flappy.Windows, ".exe"},
		{manifest.TypeStatic, GCC, flappy.Linux, ".a"},
		{manifest.TypeStatic, MSVC, flappy.Windows, ".lib"},
		{manifest.TypeShared, GCC, flappy.Linux, ".so"},
		{manifest.TypeShared, Clang, flappy.MacOS, ".dylib"},
		{manifest.TypeShared, MSVC, flappy.Windows, ".dll"},
	}
	for _, tt := range tests {
		if got := OutputSuffix(tt.outputType, tt.family, tt.platform); got != tt.want {
			t.Errorf("OutputSuffix(%v, %v, %v) = %q, want %q", tt.outputType, tt.family, tt.platform, got, tt.want)
		}
	}
}

func TestAssembleOrder(t *testing.T) {
	args := Assemble(CompileArgs{
		Family:     GCC,
		Profile:    manifest.Release,
		Arch:       "x64",
		Language:   manifest.LangCpp,
		Standard:   "c++20",
		Includes:   []string{"/pkg/include"},
		Defines:    []string{"FOO"},
		ExtraFlags: []string{"-Wall"},
		Source:     "src/main.cpp",
		Object:     "obj/x64/release/src/main.cpp.o",
	})
	want := []string{
		"-O3", "-DNDEBUG",
		"-m64",
		"-I/pkg/include",
		"-DFOO",
		"-Wall",
		"-std=c++20",
		"-c", "src/main.cpp", "-o", "obj/x64/release/src/main.cpp.o",
	}
	if len(args) != len(want) {
		t.Fatalf("Assemble() = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestScrubBanner(t *testing.T) {
	in := "Microsoft (R) C/C++ Optimizing Compiler\r\nCopyright (C) Microsoft Corporation\r\n\r\nmain.cpp\r\n"
	got := ScrubBanner(in)
	if got != "main.cpp" {
		t.Errorf("ScrubBanner() = %q, want %q", got, "main.cpp")
	}
}
