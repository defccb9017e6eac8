// Package env captures details about the flappy environment, chiefly the
// location of the global dependency cache.
package env

import (
	"os"
	"path/filepath"
	"runtime"
)

// CacheRoot is the root directory of the profile-partitioned global
// dependency cache (spec.md §6):
//
//	%APPDATA%/flappy/cache            on Windows
//	$XDG_CACHE_HOME/flappy/cache      elsewhere, if set
//	$HOME/.cache/flappy/cache         elsewhere, otherwise
var CacheRoot = findCacheRoot()

func findCacheRoot() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "flappy", "cache")
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "flappy", "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache", "flappy", "cache")
}
