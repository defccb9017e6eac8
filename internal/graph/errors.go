package graph

import (
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/xerrors"

	"github.com/flappy-build/flappy/internal/manifest"
)

// CycleError is returned when a dependency's ancestor set already contains
// its own name.
type CycleError struct {
	Name string
	Path []string // DFS ancestor set when the cycle was found, in no particular order
}

func (e *CycleError) Error() string {
	return xerrors.Errorf("dependency cycle detected: %v -> %s", e.Path, e.Name).Error()
}

// ConflictError is returned when two nodes with the same name carry
// different sources, per the strict "first-win with strict source-equality
// enforcement" policy.
type ConflictError struct {
	Name string
	A, B manifest.Source
}

func (e *ConflictError) Error() string {
	base := xerrors.Errorf("dependency %q resolved to conflicting sources: %s vs %s", e.Name, e.A, e.B).Error()
	if hint := tagVersionHint(e.A, e.B); hint != "" {
		return base + " (" + hint + ")"
	}
	return base
}

// tagVersionHint compares two Git tags as semver, if both are valid
// versions, to tell the user whether the conflict is a major-version
// mismatch or a lesser version mismatch; tags that are not both valid
// versions get no hint — e.g. distinguishing spec.md §8 scenario 5's
// fmt@11.0.2-vs-10.2.1 (a major bump) from two arbitrary branch names.
func tagVersionHint(a, b manifest.Source) string {
	if a.Kind != manifest.SourceGit || b.Kind != manifest.SourceGit {
		return ""
	}
	va, vb := normalizeSemver(a.GitTag), normalizeSemver(b.GitTag)
	if !semver.IsValid(va) || !semver.IsValid(vb) {
		return ""
	}
	if semver.Major(va) != semver.Major(vb) {
		return "major version mismatch: " + va + " vs " + vb
	}
	return "version mismatch: " + va + " vs " + vb
}

func normalizeSemver(tag string) string {
	if tag == "" {
		return ""
	}
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}

// ManifestParseError wraps a failure to parse a fetched dependency's own
// manifest.
type ManifestParseError struct {
	Name string
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return xerrors.Errorf("parsing manifest for dependency %q at %s: %w", e.Name, e.Path, e.Err).Error()
}

func (e *ManifestParseError) Unwrap() error { return e.Err }

// BridgeError is returned when a dependency's extra_dependencies names a
// sibling that does not exist in its declaring scope.
type BridgeError struct {
	Name   string
	Bridge string
}

func (e *BridgeError) Error() string {
	return xerrors.Errorf("dependency %q: bridged dependency %q not found among its siblings", e.Name, e.Bridge).Error()
}
