// Package graph provides the module instance graph: an edge from a parent
// module to every module it instantiates.
package graph

import "slices"

// Graph is a directed graph of module names with forward edges
// (parent to child). Nodes keep their insertion order so every traversal
// is deterministic.
type Graph struct {
	nodes map[string]struct{}
	order []string
	edges map[string][]string
	rev   map[string][]string
	seen  map[edge]struct{}
}

type edge struct{ parent, child string }

// New returns a graph with no nodes or edges. sizeHint preallocates the
// node maps.
func New(sizeHint int) *Graph {
	return &Graph{
		nodes: make(map[string]struct{}, sizeHint),
		order: make([]string, 0, sizeHint),
		edges: make(map[string][]string, sizeHint),
		rev:   make(map[string][]string, sizeHint),
		seen:  make(map[edge]struct{}, sizeHint),
	}
}

// AddNode registers a module. Duplicate calls are no-ops.
func (g *Graph) AddNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = struct{}{}
	g.order = append(g.order, name)
}

// AddEdge records that parent instantiates child. Missing nodes are created
// implicitly. Duplicate edges are ignored.
func (g *Graph) AddEdge(parent, child string) {
	g.AddNode(parent)
	g.AddNode(child)

	e := edge{parent, child}
	if _, dup := g.seen[e]; dup {
		return
	}
	g.seen[e] = struct{}{}
	g.edges[parent] = append(g.edges[parent], child)
	g.rev[child] = append(g.rev[child], parent)
}

// Children returns the modules instantiated by name, in edge order.
func (g *Graph) Children(name string) []string {
	return g.edges[name]
}

// Parents returns the modules that instantiate name, in edge order.
func (g *Graph) Parents(name string) []string {
	return g.rev[name]
}

// HasNode reports whether the module exists in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Nodes returns every module in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

// Reachable returns the modules reachable from root (root included) in
// depth-first pre-order.
func (g *Graph) Reachable(root string) []string {
	if !g.HasNode(root) {
		return nil
	}
	seen := map[string]bool{root: true}
	out := []string{root}
	var visit func(string)
	visit = func(n string) {
		for _, c := range g.edges[n] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
				visit(c)
			}
		}
	}
	visit(root)
	return out
}

// Ancestors returns every module lying on some path from root to target,
// root and target included. The result is in insertion order and is empty
// when target is not reachable from root.
func (g *Graph) Ancestors(root, target string) []string {
	reach := make(map[string]bool)
	for _, n := range g.Reachable(root) {
		reach[n] = true
	}
	if !reach[target] {
		return nil
	}
	// Walk reverse edges from target, staying inside the reachable set.
	on := map[string]bool{target: true}
	queue := []string{target}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, p := range g.rev[n] {
			if reach[p] && !on[p] {
				on[p] = true
				queue = append(queue, p)
			}
		}
	}
	var out []string
	for _, n := range g.order {
		if on[n] {
			out = append(out, n)
		}
	}
	return out
}
