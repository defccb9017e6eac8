package build

import (
	"os"
	"path/filepath"

	"github.com/flappy-build/flappy/internal/depbuild"
	"github.com/flappy-build/flappy/internal/fetch"
	"github.com/flappy-build/flappy/internal/manifest"
)

// linkPackagesDir (re)creates the project-local packages/<name> symlinks
// pointing at each resolved dependency's current-profile cache entry
// (spec.md §3, §6). It re-derives each dependency's on-disk directory via
// the same cacheKey-bearing Fetcher rather than threading ResolvedNode
// paths through, since only names+metadata are available by the time the
// whole build has completed.
//
// Creation follows distri's cmd/distri/symlinkfarm.go: a symlink is
// written to a sibling temp name and renamed into place, so a concurrent
// reader never observes a half-written link. Per spec.md §7, a failure
// here is a warning, not a fatal IoError — the link is a convenience.
func linkPackagesDir(projectDir string, depMeta map[string]depbuild.Metadata, fetcher *fetch.Fetcher, deps []manifest.Dependency, profile manifest.Profile, compiler, arch string) error {
	packagesDir := filepath.Join(projectDir, "packages")
	if err := os.MkdirAll(packagesDir, 0755); err != nil {
		return err
	}

	var firstErr error
	for _, dep := range deps {
		if _, ok := depMeta[dep.Name]; !ok {
			continue
		}
		if dep.Source.Kind == manifest.SourceLocal {
			continue // local sources bypass the cache entirely
		}
		target, err := fetcher.Locate(fetch.Request{Dependency: dep, Profile: profile, Compiler: compiler, Arch: arch})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := symlinkAtomic(target, filepath.Join(packagesDir, dep.Name)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// symlinkAtomic (re)points link at target, replacing any existing link or
// file.
func symlinkAtomic(target, link string) error {
	tmp, err := os.CreateTemp(filepath.Dir(link), "flappy-packages")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	if err := os.Remove(tmpName); err != nil {
		return err
	}
	if err := os.Symlink(target, tmpName); err != nil {
		return err
	}
	return os.Rename(tmpName, link)
}
