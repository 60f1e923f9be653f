// Package namespace allocates collision-free identifiers inside one module
// or across the module names of one circuit.
package namespace

import (
	"strconv"

	"github.com/xfuzz/hwcover/ir"
)

// Namespace tracks used names and generates unique ones.
type Namespace struct {
	used     map[string]struct{}
	counters map[string]int
}

// New returns an empty namespace.
func New() *Namespace {
	return &Namespace{
		used:     make(map[string]struct{}),
		counters: make(map[string]int),
	}
}

// ForModule returns a namespace holding every port and declared name of m.
func ForModule(m *ir.DefinedModule) *Namespace {
	ns := New()
	for _, p := range m.Ports {
		ns.Reserve(p.Name)
	}
	ir.Walk(m.Body, func(s ir.Statement) bool {
		if name, ok := ir.DeclaredName(s); ok {
			ns.Reserve(name)
		}
		return true
	})
	return ns
}

// ForCircuit returns a namespace holding every module name of c.
func ForCircuit(c *ir.Circuit) *Namespace {
	ns := New()
	for _, name := range c.ModuleNames() {
		ns.Reserve(name)
	}
	return ns
}

// Reserve marks a name as used without returning it.
func (n *Namespace) Reserve(name string) {
	n.used[name] = struct{}{}
}

// Contains reports whether name is already used.
func (n *Namespace) Contains(name string) bool {
	_, ok := n.used[name]
	return ok
}

// Fresh returns base if it is unused, otherwise base_N with the smallest
// N not yet tried for this base. The result is reserved.
func (n *Namespace) Fresh(base string) string {
	if base == "" {
		base = "_GEN"
	}
	if !n.Contains(base) {
		n.Reserve(base)
		return base
	}
	for {
		candidate := base + "_" + strconv.Itoa(n.counters[base])
		n.counters[base]++
		if !n.Contains(candidate) {
			n.Reserve(candidate)
			return candidate
		}
	}
}

// Len returns the number of names tracked.
func (n *Namespace) Len() int {
	return len(n.used)
}
