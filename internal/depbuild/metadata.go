package depbuild

import (
	"os"
	"path/filepath"

	"github.com/flappy-build/flappy"
	"github.com/flappy-build/flappy/internal/graph"
)

// ComputeMetadata resolves a built node's include paths, static-lib paths,
// and runtime libs, per spec.md §4.4: explicitly declared values are used
// verbatim (resolved against the package directory); anything left
// unspecified falls back to standard locations (dist/include, dist/lib,
// include/) and finally a recursive scan for platform-appropriate library
// file globs.
func ComputeMetadata(node *graph.ResolvedNode, platform flappy.Platform) (Metadata, error) {
	dep := node.Dependency
	m := Metadata{Resolved: node.Resolved}

	for _, d := range dep.IncludeDirs {
		m.IncludeDirs = append(m.IncludeDirs, filepath.Join(node.Path, d))
	}
	for _, d := range dep.LibDirs {
		m.LibDirs = append(m.LibDirs, filepath.Join(node.Path, d))
	}
	for _, l := range dep.Libs {
		m.Libs = append(m.Libs, filepath.Join(node.Path, l))
	}

	if len(m.IncludeDirs) == 0 {
		if dir := filepath.Join(node.Path, "dist", "include"); isDir(dir) {
			m.IncludeDirs = append(m.IncludeDirs, dir)
		} else if dir := filepath.Join(node.Path, "include"); isDir(dir) {
			m.IncludeDirs = append(m.IncludeDirs, dir)
		}
	}
	if len(m.LibDirs) == 0 {
		if dir := filepath.Join(node.Path, "dist", "lib"); isDir(dir) {
			m.LibDirs = append(m.LibDirs, dir)
		}
	}
	if len(m.Libs) == 0 {
		libs, err := scanFiles(node.Path, staticLibPatterns(platform))
		if err != nil {
			return m, err
		}
		m.Libs = libs
	}

	runtimeLibs, err := scanFiles(node.Path, runtimeLibPatterns(platform))
	if err != nil {
		return m, err
	}
	m.RuntimeLibs = runtimeLibs

	return m, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func staticLibPatterns(platform flappy.Platform) []string {
	if platform == flappy.Windows {
		return []string{"*.lib"}
	}
	return []string{"*.a", "*.so", "*.dylib"}
}

func runtimeLibPatterns(platform flappy.Platform) []string {
	switch platform {
	case flappy.Windows:
		return []string{"*.dll"}
	case flappy.MacOS:
		return []string{"*.dylib"}
	default:
		return []string{"*.so"}
	}
}

// scanFiles walks root recursively, returning every file matching any of
// patterns.
func scanFiles(root string, patterns []string) ([]string, error) {
	var matches []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, info.Name()); ok {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
