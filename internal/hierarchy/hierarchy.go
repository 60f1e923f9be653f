// Package hierarchy expands the instance tree of a circuit into dotted
// instance paths relative to the top module.
package hierarchy

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/xfuzz/hwcover/internal/graph"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// ErrInstanceCycle is returned when a module instantiates itself through
// any chain of instances.
var ErrInstanceCycle = errors.New("instance hierarchy contains a cycle")

// Child is one instance statement inside a module.
type Child struct {
	Name   string // instance name
	Module string // instantiated module
}

// Instance is one node of the expanded instance tree.
type Instance struct {
	Path   string // "Top.core.alu"
	Module string
}

// Index is the expanded instance tree of one circuit.
type Index struct {
	top       string
	graph     *graph.Graph
	children  map[string][]Child
	paths     map[string][]string
	instances []Instance
	order     []string
	rank      map[string]int
}

// Build indexes c. Instances of unknown modules are reported as
// diagnostics and left out of the index.
func Build(c *ir.Circuit, logger *slog.Logger) (*Index, []ir.Diagnostic, error) {
	log := types.Logger{L: logger}
	idx := &Index{
		top:      c.Main,
		graph:    graph.New(len(c.Modules)),
		children: make(map[string][]Child),
		paths:    make(map[string][]string),
	}
	var diags []ir.Diagnostic

	for _, m := range c.Modules {
		idx.graph.AddNode(m.ModuleName())
	}
	for _, m := range c.DefinedModules() {
		ir.Walk(m.Body, func(s ir.Statement) bool {
			inst, ok := s.(*ir.Instance)
			if !ok {
				return true
			}
			if _, known := c.Module(inst.Module); !known {
				loc, _ := ir.ParseSourceInfo(inst.Info)
				diags = append(diags, ir.Diagnostic{
					Severity: ir.SeverityError,
					Code:     types.DiagUnknownModule,
					Message:  fmt.Sprintf("instance %s of unknown module %s skipped", inst.Name, inst.Module),
					Module:   m.Name,
					Line:     loc.Line,
					Column:   loc.Column,
				})
				return true
			}
			idx.children[m.Name] = append(idx.children[m.Name], Child{Name: inst.Name, Module: inst.Module})
			idx.graph.AddEdge(m.Name, inst.Module)
			return true
		})
	}

	if cycles := idx.graph.FindCycles(); len(cycles) > 0 {
		return nil, diags, fmt.Errorf("%w: %s", ErrInstanceCycle, strings.Join(cycles[0], " -> "))
	}
	if !idx.graph.HasNode(c.Main) {
		return nil, diags, fmt.Errorf("top module %q not found", c.Main)
	}

	idx.expand(c.Main, c.Main)

	reachable := make(map[string]bool)
	for _, n := range idx.graph.Reachable(c.Main) {
		reachable[n] = true
	}
	order, _ := idx.graph.TopologicalOrder()
	idx.rank = make(map[string]int, len(order))
	for _, n := range order {
		if reachable[n] {
			idx.rank[n] = len(idx.order)
			idx.order = append(idx.order, n)
		}
	}

	log.Log(slog.LevelDebug, "hierarchy indexed",
		slog.String("top", c.Main),
		slog.Int("instances", len(idx.instances)),
		slog.Int("modules", len(idx.order)))
	return idx, diags, nil
}

func (idx *Index) expand(path, module string) {
	idx.instances = append(idx.instances, Instance{Path: path, Module: module})
	idx.paths[module] = append(idx.paths[module], path)
	for _, ch := range idx.children[module] {
		idx.expand(path+"."+ch.Name, ch.Module)
	}
}

// Top returns the top module name.
func (idx *Index) Top() string {
	return idx.top
}

// Instances returns every instance of the tree in depth-first order,
// starting with the top module itself.
func (idx *Index) Instances() []Instance {
	return idx.instances
}

// Paths returns every dotted path at which module is instantiated.
func (idx *Index) Paths(module string) []string {
	return idx.paths[module]
}

// Children returns the instance statements of module in body order.
func (idx *Index) Children(module string) []Child {
	return idx.children[module]
}

// Reachable reports whether module is instantiated under the top module.
func (idx *Index) Reachable(module string) bool {
	return len(idx.paths[module]) > 0
}

// Ancestors returns the modules on any path from the top module to
// module, both included, in top-down order.
func (idx *Index) Ancestors(module string) []string {
	if !idx.Reachable(module) {
		return nil
	}
	on := map[string]bool{module: true}
	out := []string{module}
	for i := 0; i < len(out); i++ {
		for _, p := range idx.graph.Parents(out[i]) {
			if idx.Reachable(p) && !on[p] {
				on[p] = true
				out = append(out, p)
			}
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(idx.rank[a], idx.rank[b])
	})
	return out
}

// Order returns the modules reachable from the top, parents before the
// modules they instantiate.
func (idx *Index) Order() []string {
	return idx.order
}
