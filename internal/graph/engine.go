package graph

import (
	"context"
	"os"
	"path/filepath"

	"github.com/flappy-build/flappy/internal/fetch"
	"github.com/flappy-build/flappy/internal/manifest"
)

// Engine walks a project's dependency list into a resolved DAG. All nodes
// in one Engine.Resolve call share the same build Profile, Compiler, and
// Arch, since those three values partition the Fetcher's cache.
type Engine struct {
	Fetcher  *fetch.Fetcher
	Profile  manifest.Profile
	Compiler string
	Arch     string
}

// Resolve walks roots depth-first, fetching and recursing into each node's
// own dependencies (native, plus any bridged via extra_dependencies),
// returning the full resolved graph and a leaf-first topological order.
func (e *Engine) Resolve(ctx context.Context, roots []manifest.Dependency) (*Resolution, error) {
	path := make(map[string]bool)
	resolved := make(map[string]*ResolvedNode)

	rootNodes, err := e.resolveList(ctx, roots, path, resolved)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Nodes: resolved,
		Roots: rootNodes,
		Topo:  topoSort(rootNodes),
	}, nil
}

// resolveList resolves every Dependency in depList against a scope built
// from depList itself (depList's own entries are one another's siblings,
// which is what extra_dependencies bridging resolves against), deduplicated
// by name.
func (e *Engine) resolveList(ctx context.Context, depList []manifest.Dependency, path map[string]bool, resolved map[string]*ResolvedNode) ([]*ResolvedNode, error) {
	scope := make(map[string]manifest.Dependency, len(depList))
	for _, d := range depList {
		scope[d.Name] = d
	}

	var out []*ResolvedNode
	seen := make(map[string]bool)
	for _, d := range depList {
		node, err := e.resolveOne(ctx, d, scope, path, resolved)
		if err != nil {
			return nil, err
		}
		if !seen[node.Name] {
			seen[node.Name] = true
			out = append(out, node)
		}
	}
	return out, nil
}

func (e *Engine) resolveOne(ctx context.Context, dep manifest.Dependency, scope map[string]manifest.Dependency, path map[string]bool, resolved map[string]*ResolvedNode) (*ResolvedNode, error) {
	if path[dep.Name] {
		return nil, &CycleError{Name: dep.Name, Path: ancestorChain(path)}
	}
	if existing, ok := resolved[dep.Name]; ok {
		if !existing.Dependency.Source.Equal(dep.Source) {
			return nil, &ConflictError{Name: dep.Name, A: existing.Dependency.Source, B: dep.Source}
		}
		return existing, nil
	}

	path[dep.Name] = true
	defer delete(path, dep.Name)

	res, err := e.Fetcher.Fetch(ctx, fetch.Request{
		Dependency: dep,
		Profile:    e.Profile,
		Compiler:   e.Compiler,
		Arch:       e.Arch,
	})
	if err != nil {
		return nil, err
	}

	var childDeps []manifest.Dependency

	subManifestPath := filepath.Join(res.Dir, "flappy.toml")
	if _, statErr := os.Stat(subManifestPath); statErr == nil {
		sub, loadErr := manifest.Load(subManifestPath, manifest.Options{Mode: e.Profile})
		if loadErr != nil {
			return nil, &ManifestParseError{Name: dep.Name, Path: subManifestPath, Err: loadErr}
		}
		childDeps = append(childDeps, sub.Dependencies...)
	}

	for _, name := range dep.ExtraDependencies {
		bridged, ok := scope[name]
		if !ok {
			return nil, &BridgeError{Name: dep.Name, Bridge: name}
		}
		childDeps = append(childDeps, bridged)
	}

	children, err := e.resolveList(ctx, childDeps, path, resolved)
	if err != nil {
		return nil, err
	}

	node := &ResolvedNode{
		Name:       dep.Name,
		Dependency: dep,
		Path:       res.Dir,
		Resolved:   res.Resolved,
		Children:   children,
	}
	resolved[dep.Name] = node
	return node, nil
}

// ancestorChain returns the current DFS ancestor set as a slice; order is
// not guaranteed since path is a set, but the error message is diagnostic
// only.
func ancestorChain(path map[string]bool) []string {
	chain := make([]string, 0, len(path))
	for name := range path {
		chain = append(chain, name)
	}
	return chain
}

// topoSort returns a leaf-first post-order traversal of roots: every
// child appears before its parent, and shared (diamond-dependency) nodes
// appear exactly once.
func topoSort(roots []*ResolvedNode) []*ResolvedNode {
	visited := make(map[string]bool)
	var out []*ResolvedNode
	var visit func(n *ResolvedNode)
	visit = func(n *ResolvedNode) {
		if visited[n.Name] {
			return
		}
		visited[n.Name] = true
		for _, c := range n.Children {
			visit(c)
		}
		out = append(out, n)
	}
	for _, r := range roots {
		visit(r)
	}
	return out
}
