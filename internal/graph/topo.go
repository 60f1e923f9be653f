package graph

// TopologicalOrder returns modules ordered so that parents come before the
// modules they instantiate (Kahn's algorithm). Ties are broken by insertion
// order. Modules involved in cycles are returned separately in the second
// slice.
func (g *Graph) TopologicalOrder() (order []string, cyclic []string) {
	inDegree := make(map[string]int, len(g.order))
	for _, n := range g.order {
		for _, child := range g.edges[n] {
			inDegree[child]++
		}
	}

	var queue []string
	for _, n := range g.order {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		for _, child := range g.edges[n] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	for _, n := range g.order {
		if inDegree[n] > 0 {
			cyclic = append(cyclic, n)
		}
	}

	return order, cyclic
}

// BottomUpOrder returns modules with children before parents, the reverse
// of TopologicalOrder.
func (g *Graph) BottomUpOrder() (order []string, cyclic []string) {
	order, cyclic = g.TopologicalOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, cyclic
}
