package fetch

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/flappy-build/flappy/internal/manifest"
)

// cacheKey computes the on-disk directory name for a remote dependency,
// per spec.md §4.2:
//
//	<name>@<version_or_HEAD>_<url_fnv1a32>_<profile>_<arch>_<safe_compiler>
//
// The profile/arch/compiler partitioning guarantees ABI isolation between
// Debug and Release builds sharing one global cache.
func cacheKey(dep manifest.Dependency, profile manifest.Profile, compiler, arch string) string {
	version := "HEAD"
	url := ""
	switch dep.Source.Kind {
	case manifest.SourceGit:
		url = dep.Source.GitURL
		if dep.Source.GitTag != "" {
			version = dep.Source.GitTag
		}
	case manifest.SourceHttp:
		url = dep.Source.HttpURL
	}
	return strings.Join([]string{
		dep.Name + "@" + version,
		urlHash(url),
		profile.String(),
		arch,
		safeCompiler(compiler),
	}, "_")
}

// urlHash returns the FNV-1a 32-bit hash of url as 8 hex digits.
func urlHash(url string) string {
	h := fnv.New32a()
	h.Write([]byte(url))
	return fmt.Sprintf("%08x", h.Sum32())
}

// safeCompiler turns an arbitrary compiler command or path into a token
// safe to embed in a directory name.
func safeCompiler(compiler string) string {
	base := filepath.Base(compiler)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "compiler"
	}
	return b.String()
}
