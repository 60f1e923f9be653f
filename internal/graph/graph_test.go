package graph

import (
	"slices"
	"testing"
)

func TestGraphBasic(t *testing.T) {
	g := New(0)

	g.AddNode("Top")
	g.AddNode("Core")
	g.AddEdge("Top", "Core")

	if !g.HasNode("Top") {
		t.Error("graph should have node Top")
	}
	if !g.HasNode("Core") {
		t.Error("graph should have node Core")
	}
	if got := g.Children("Top"); !slices.Equal(got, []string{"Core"}) {
		t.Errorf("Top children = %v, want [Core]", got)
	}
	if got := g.Parents("Core"); !slices.Equal(got, []string{"Top"}) {
		t.Errorf("Core parents = %v, want [Top]", got)
	}
}

func TestAddEdgeCreatesNodes(t *testing.T) {
	g := New(0)

	// No AddNode calls, only AddEdge.
	g.AddEdge("Top", "Core")

	if !g.HasNode("Top") {
		t.Error("AddEdge should create parent node")
	}
	if !g.HasNode("Core") {
		t.Error("AddEdge should create child node")
	}
	if got := g.Nodes(); !slices.Equal(got, []string{"Top", "Core"}) {
		t.Errorf("Nodes = %v, want insertion order [Top Core]", got)
	}
}

func TestDuplicateEdges(t *testing.T) {
	g := New(0)

	g.AddEdge("Top", "Core")
	g.AddEdge("Top", "Core")
	g.AddEdge("Top", "Core")

	if len(g.Children("Top")) != 1 {
		t.Errorf("children = %d, want 1 (duplicate edges deduplicated)", len(g.Children("Top")))
	}
	if len(g.Parents("Core")) != 1 {
		t.Errorf("parents = %d, want 1", len(g.Parents("Core")))
	}
}

func TestTopologicalOrderEmpty(t *testing.T) {
	g := New(0)
	order, cyclic := g.TopologicalOrder()
	if len(order) != 0 {
		t.Errorf("order = %d, want 0", len(order))
	}
	if len(cyclic) != 0 {
		t.Errorf("cyclic = %d, want 0", len(cyclic))
	}
}

func TestTopologicalOrderChain(t *testing.T) {
	g := New(0)
	g.AddEdge("Top", "Core")
	g.AddEdge("Core", "ALU")

	order, cyclic := g.TopologicalOrder()
	if len(cyclic) != 0 {
		t.Errorf("cyclic = %v, want none", cyclic)
	}
	if want := []string{"Top", "Core", "ALU"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	up, _ := g.BottomUpOrder()
	if want := []string{"ALU", "Core", "Top"}; !slices.Equal(up, want) {
		t.Errorf("bottom-up order = %v, want %v", up, want)
	}
}

func TestTopologicalOrderDiamond(t *testing.T) {
	g := New(0)

	// Top instantiates A and B, both instantiate Leaf.
	g.AddEdge("Top", "A")
	g.AddEdge("Top", "B")
	g.AddEdge("A", "Leaf")
	g.AddEdge("B", "Leaf")

	order, cyclic := g.TopologicalOrder()
	if len(cyclic) != 0 {
		t.Errorf("cyclic = %v, want none", cyclic)
	}
	if want := []string{"Top", "A", "B", "Leaf"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestTopologicalOrderCycle(t *testing.T) {
	g := New(0)
	g.AddEdge("Top", "A")
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")

	order, cyclic := g.TopologicalOrder()
	if want := []string{"Top"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if want := []string{"A", "B"}; !slices.Equal(cyclic, want) {
		t.Errorf("cyclic = %v, want %v", cyclic, want)
	}
}

func TestFindCycles(t *testing.T) {
	g := New(0)
	g.AddEdge("Top", "A")
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddEdge("C", "A")

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	if len(cycles[0]) != 3 {
		t.Errorf("cycle length = %d, want 3", len(cycles[0]))
	}
	if !g.HasCycles() {
		t.Error("HasCycles should be true")
	}
}

func TestFindCyclesSelfLoop(t *testing.T) {
	g := New(0)
	g.AddEdge("Rec", "Rec")

	cycles := g.FindCycles()
	if len(cycles) != 1 || len(cycles[0]) != 1 {
		t.Fatalf("cycles = %v, want one self-loop", cycles)
	}
}

func TestFindCyclesAcyclic(t *testing.T) {
	g := New(0)
	g.AddEdge("Top", "A")
	g.AddEdge("Top", "B")
	if g.HasCycles() {
		t.Error("acyclic graph reported cycles")
	}
}

func TestReachable(t *testing.T) {
	g := New(0)
	g.AddEdge("Top", "A")
	g.AddEdge("A", "Leaf")
	g.AddEdge("Orphan", "Leaf")

	got := g.Reachable("Top")
	if want := []string{"Top", "A", "Leaf"}; !slices.Equal(got, want) {
		t.Errorf("Reachable = %v, want %v", got, want)
	}
	if got := g.Reachable("Missing"); got != nil {
		t.Errorf("Reachable(Missing) = %v, want nil", got)
	}
}

func TestAncestors(t *testing.T) {
	g := New(0)
	g.AddEdge("Top", "A")
	g.AddEdge("Top", "B")
	g.AddEdge("A", "Leaf")
	g.AddEdge("B", "Other")
	g.AddEdge("Orphan", "Leaf")

	got := g.Ancestors("Top", "Leaf")
	if want := []string{"Top", "A", "Leaf"}; !slices.Equal(got, want) {
		t.Errorf("Ancestors = %v, want %v", got, want)
	}
	if got := g.Ancestors("Top", "Orphan"); got != nil {
		t.Errorf("Ancestors of unreachable = %v, want nil", got)
	}
}
