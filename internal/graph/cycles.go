package graph

import "slices"

// FindCycles returns all strongly connected components with more than one
// node, or a single node instantiating itself, found via Tarjan's
// algorithm. Nodes are visited in insertion order.
func (g *Graph) FindCycles() [][]string {
	var (
		index    int
		stack    []string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		sccs     [][]string
	)

	var strongConnect func(n string)
	strongConnect = func(n string) {
		indices[n] = index
		lowlinks[n] = index
		index++
		stack = append(stack, n)
		onStack[n] = true

		for _, child := range g.edges[n] {
			if _, visited := indices[child]; !visited {
				strongConnect(child)
				lowlinks[n] = min(lowlinks[n], lowlinks[child])
			} else if onStack[child] {
				lowlinks[n] = min(lowlinks[n], indices[child])
			}
		}

		if lowlinks[n] == indices[n] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == n {
					break
				}
			}
			if len(scc) > 1 || slices.Contains(g.edges[scc[0]], scc[0]) {
				sccs = append(sccs, scc)
			}
		}
	}

	for _, n := range g.order {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}

	return sccs
}

// HasCycles reports whether the graph contains any cycles.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}
