// Package graph walks a project's transitive dependency graph in
// topological order, fetching each node via the Fetcher, detecting cycles
// and source conflicts, and resolving the "bridging" mechanism that lets a
// parent manifest inject a sibling dependency into a raw third-party
// library's build.
package graph

import "github.com/flappy-build/flappy/internal/manifest"

// ResolvedNode is one node in the resolved dependency DAG.
type ResolvedNode struct {
	Name       string
	Dependency manifest.Dependency
	Path       string // absolute on-disk directory containing the source tree
	Resolved   string // commit SHA, URL hash, or "local"
	Children   []*ResolvedNode
}

// Resolution is the output of the Graph Engine: every resolved node keyed
// by name, plus a topologically sorted (leaf-first) list suitable for the
// Dependency Builder.
type Resolution struct {
	Nodes map[string]*ResolvedNode
	Roots []*ResolvedNode
	Topo  []*ResolvedNode
}
