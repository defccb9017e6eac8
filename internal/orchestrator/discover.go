// Package orchestrator implements the Main Build Orchestrator: source
// discovery, parallel per-file compilation with incremental skip,
// link/archive, and runtime-artifact post-processing.
package orchestrator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flappy-build/flappy/internal/manifest"
)

func walk(root string, visit func(path string)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		visit(path)
		return nil
	})
}

var cppExtensions = map[string]bool{
	".cpp": true, ".cc": true, ".cxx": true, ".c": true,
	".ixx": true, ".cppm": true,
}

var cExtensions = map[string]bool{
	".c": true,
}

// isModuleUnit reports whether ext is a C++ interface/module-unit
// extension, which must be compiled before any implementation unit.
func isModuleUnit(ext string) bool {
	return ext == ".ixx" || ext == ".cppm"
}

func extensionsFor(lang manifest.Language) map[string]bool {
	if lang == manifest.LangC {
		return cExtensions
	}
	return cppExtensions
}

// DiscoverSources walks srcDir for files matching lang's extension set and
// returns them with module/interface units first, then implementation
// units, each group sorted for determinism.
func DiscoverSources(srcDir string, lang manifest.Language) ([]string, error) {
	exts := extensionsFor(lang)
	var modules, impls []string

	err := walk(srcDir, func(path string) {
		ext := strings.ToLower(filepath.Ext(path))
		if !exts[ext] {
			return
		}
		if isModuleUnit(ext) {
			modules = append(modules, path)
		} else {
			impls = append(impls, path)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(modules)
	sort.Strings(impls)
	return append(modules, impls...), nil
}
