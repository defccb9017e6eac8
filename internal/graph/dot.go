package graph

import (
	"fmt"
	"sort"
	"strings"
)

// DOT renders the resolved dependency DAG as Graphviz dot source, for
// debugging a graph's shape. It is pure and side-effect free: the CLI
// collaborator decides whether and where to write it.
func DOT(res *Resolution) string {
	var b strings.Builder
	b.WriteString("digraph flappy {\n")

	names := make([]string, 0, len(res.Nodes))
	for name := range res.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := res.Nodes[name]
		fmt.Fprintf(&b, "  %q;\n", node.Name)
		children := make([]*ResolvedNode, len(node.Children))
		copy(children, node.Children)
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		for _, c := range children {
			fmt.Fprintf(&b, "  %q -> %q;\n", node.Name, c.Name)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
