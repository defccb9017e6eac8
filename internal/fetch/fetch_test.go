package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flappy-build/flappy/internal/manifest"
)

func TestFetchLocal(t *testing.T) {
	dir := t.TempDir()
	f := New(t.TempDir())
	req := Request{Dependency: manifest.Dependency{
		Name:   "mylib",
		Source: manifest.Source{Kind: manifest.SourceLocal, LocalPath: dir},
	}}
	res, err := f.Fetch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Resolved != "local" {
		t.Errorf("Resolved = %q, want %q", res.Resolved, "local")
	}
	abs, _ := filepath.Abs(dir)
	if res.Dir != abs {
		t.Errorf("Dir = %q, want %q", res.Dir, abs)
	}
}

func TestFetchLocalMissing(t *testing.T) {
	f := New(t.TempDir())
	req := Request{Dependency: manifest.Dependency{
		Name:   "mylib",
		Source: manifest.Source{Kind: manifest.SourceLocal, LocalPath: "/does/not/exist/xyz"},
	}}
	if _, err := f.Fetch(context.Background(), req); err == nil {
		t.Fatal("expected error for missing local path")
	}
}

func TestCacheKeyPartitionsByProfile(t *testing.T) {
	dep := manifest.Dependency{
		Name:   "fmt",
		Source: manifest.Source{Kind: manifest.SourceGit, GitURL: "https://github.com/fmtlib/fmt.git", GitTag: "11.0.2"},
	}
	debug := cacheKey(dep, manifest.Debug, "g++", "x64")
	release := cacheKey(dep, manifest.Release, "g++", "x64")
	if debug == release {
		t.Errorf("cache keys for Debug and Release must differ, both got %q", debug)
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	dep := manifest.Dependency{
		Name:   "fmt",
		Source: manifest.Source{Kind: manifest.SourceGit, GitURL: "https://github.com/fmtlib/fmt.git", GitTag: "11.0.2"},
	}
	a := cacheKey(dep, manifest.Debug, "g++", "x64")
	b := cacheKey(dep, manifest.Debug, "g++", "x64")
	if a != b {
		t.Errorf("cacheKey not deterministic: %q != %q", a, b)
	}
}

func TestFetchHTTPNoReFetch(t *testing.T) {
	cacheRoot := t.TempDir()
	dep := manifest.Dependency{
		Name:   "single",
		Source: manifest.Source{Kind: manifest.SourceHttp, HttpURL: "https://example.invalid/single.h"},
	}
	req := Request{Dependency: dep, Compiler: "g++", Arch: "x64"}
	dir := filepath.Join(cacheRoot, cacheKey(dep, manifest.Debug, "g++", "x64"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	f := New(cacheRoot)
	res, err := f.Fetch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Dir != dir {
		t.Errorf("Dir = %q, want %q", res.Dir, dir)
	}
}
