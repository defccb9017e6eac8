package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flappy-build/flappy/internal/fetch"
	"github.com/flappy-build/flappy/internal/manifest"
)

func writeSubManifest(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "flappy.toml"), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func localDep(name, path string) manifest.Dependency {
	return manifest.Dependency{Name: name, Source: manifest.Source{Kind: manifest.SourceLocal, LocalPath: path}}
}

func newTestEngine(cacheRoot string) *Engine {
	return &Engine{
		Fetcher:  fetch.New(cacheRoot),
		Profile:  manifest.Debug,
		Compiler: "g++",
		Arch:     "x64",
	}
}

// TestBridging exercises spec.md §8 scenario 3: curl depends (via
// extra_dependencies) on a sibling openssl dependency, neither of which
// natively declares the other.
func TestBridging(t *testing.T) {
	root := t.TempDir()
	opensslDir := filepath.Join(root, "openssl")
	curlDir := filepath.Join(root, "curl")
	os.MkdirAll(opensslDir, 0755)
	os.MkdirAll(curlDir, 0755)

	e := newTestEngine(t.TempDir())
	roots := []manifest.Dependency{
		func() manifest.Dependency {
			d := localDep("curl", curlDir)
			d.BuildCmd = "make"
			d.ExtraDependencies = []string{"openssl"}
			return d
		}(),
		func() manifest.Dependency {
			d := localDep("openssl", opensslDir)
			d.BuildCmd = "make"
			return d
		}(),
	}

	res, err := e.Resolve(context.Background(), roots)
	if err != nil {
		t.Fatal(err)
	}
	curl := res.Nodes["curl"]
	if len(curl.Children) != 1 || curl.Children[0].Name != "openssl" {
		t.Fatalf("curl.Children = %v, want [openssl]", curl.Children)
	}

	// openssl must precede curl in topological order.
	idxOpenssl, idxCurl := -1, -1
	for i, n := range res.Topo {
		switch n.Name {
		case "openssl":
			idxOpenssl = i
		case "curl":
			idxCurl = i
		}
	}
	if idxOpenssl == -1 || idxCurl == -1 || idxOpenssl >= idxCurl {
		t.Fatalf("expected openssl before curl in topo order, got %v", namesOf(res.Topo))
	}
}

func namesOf(nodes []*ResolvedNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

// TestCycle exercises spec.md §8 scenario 4: a lists extra_dependencies=[b];
// b's own manifest depends on a.
func TestCycle(t *testing.T) {
	root := t.TempDir()
	aDir := filepath.Join(root, "a")
	bDir := filepath.Join(root, "b")
	os.MkdirAll(aDir, 0755)
	writeSubManifest(t, bDir, `
[package]
name = "b"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/b"
type = "exe"

[dependencies.a]
path = "`+aDir+`"
`)

	e := newTestEngine(t.TempDir())
	a := localDep("a", aDir)
	a.ExtraDependencies = []string{"b"}
	b := localDep("b", bDir)
	roots := []manifest.Dependency{a, b}

	_, err := e.Resolve(context.Background(), roots)
	if err == nil {
		t.Fatal("expected CycleError")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("err = %T (%v), want *CycleError", err, err)
	}
}

// TestConflict exercises spec.md §8 scenario 5: two transitive paths
// resolve the same name to different sources.
func TestConflict(t *testing.T) {
	root := t.TempDir()
	fmtA := filepath.Join(root, "fmt-a")
	fmtB := filepath.Join(root, "fmt-b")
	libADir := filepath.Join(root, "liba")
	libBDir := filepath.Join(root, "libb")
	os.MkdirAll(fmtA, 0755)
	os.MkdirAll(fmtB, 0755)
	writeSubManifest(t, libADir, `
[package]
name = "liba"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/liba"
type = "static"

[dependencies.fmt]
path = "`+fmtA+`"
`)
	writeSubManifest(t, libBDir, `
[package]
name = "libb"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/libb"
type = "static"

[dependencies.fmt]
path = "`+fmtB+`"
`)

	e := newTestEngine(t.TempDir())
	roots := []manifest.Dependency{
		localDep("liba", libADir),
		localDep("libb", libBDir),
	}
	_, err := e.Resolve(context.Background(), roots)
	if err == nil {
		t.Fatal("expected ConflictError")
	}
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("err = %T (%v), want *ConflictError", err, err)
	}
}

// TestDiamondDependencyShared verifies that two paths resolving the same
// name to the *same* source are not a conflict, and the shared node appears
// exactly once in topological order.
func TestDiamondDependencyShared(t *testing.T) {
	root := t.TempDir()
	sharedDir := filepath.Join(root, "shared")
	libADir := filepath.Join(root, "liba")
	libBDir := filepath.Join(root, "libb")
	os.MkdirAll(sharedDir, 0755)
	writeSubManifest(t, libADir, `
[package]
name = "liba"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/liba"
type = "static"

[dependencies.shared]
path = "`+sharedDir+`"
`)
	writeSubManifest(t, libBDir, `
[package]
name = "libb"

[build]
compiler = "g++"
language = "c++"
standard = "c++17"
output = "bin/libb"
type = "static"

[dependencies.shared]
path = "`+sharedDir+`"
`)

	e := newTestEngine(t.TempDir())
	roots := []manifest.Dependency{
		localDep("liba", libADir),
		localDep("libb", libBDir),
	}
	res, err := e.Resolve(context.Background(), roots)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, n := range res.Topo {
		if n.Name == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared node appears %d times in topo order, want 1", count)
	}
}
