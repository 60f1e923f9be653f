// Package ir defines the lowered circuit representation instrumented by
// hwcover.
//
// A Circuit is a set of modules with one top module (Main). Modules are
// either defined (ports plus a statement body) or opaque (ports plus
// parameters; black boxes and generated probe stubs). Statements and
// expressions are closed unions: every variant implements Accept for a
// visitor interface that lists all variants.
package ir

import (
	"fmt"
	"slices"
)

// Circuit is a complete design handed over by the host compiler.
type Circuit struct {
	Main        string
	Modules     []Module
	Annotations []Annotation

	// byName caches module positions. Entries are checked on use and the
	// cache is rebuilt on a miss, so Modules may be edited directly.
	byName map[string]int
}

// Module is a closed union of DefinedModule and OpaqueModule.
type Module interface {
	ModuleName() string
	ModulePorts() []Port
	module()
}

// DefinedModule has a statement body.
type DefinedModule struct {
	Name  string
	Ports []Port
	Body  *Block
}

// OpaqueModule has no body. DefName is the name used by code generation;
// several opaque modules may share one DefName with different parameters.
type OpaqueModule struct {
	Name    string
	DefName string
	Ports   []Port
	Params  []Param
}

func (m *DefinedModule) ModuleName() string  { return m.Name }
func (m *DefinedModule) ModulePorts() []Port { return m.Ports }
func (m *OpaqueModule) ModuleName() string   { return m.Name }
func (m *OpaqueModule) ModulePorts() []Port  { return m.Ports }

func (*DefinedModule) module() {}
func (*OpaqueModule) module()  {}

// Port returns the port named name.
func (m *DefinedModule) Port(name string) (Port, bool) {
	return findPort(m.Ports, name)
}

// AddPort appends a port.
func (m *DefinedModule) AddPort(p Port) {
	m.Ports = append(m.Ports, p)
}

// Param returns the value of the named parameter.
func (m *OpaqueModule) Param(name string) (int64, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Module returns the module named name.
func (c *Circuit) Module(name string) (Module, bool) {
	if m, ok := c.cached(name); ok {
		return m, true
	}
	c.reindex()
	return c.cached(name)
}

func (c *Circuit) cached(name string) (Module, bool) {
	i, ok := c.byName[name]
	if !ok || i >= len(c.Modules) || c.Modules[i].ModuleName() != name {
		return nil, false
	}
	return c.Modules[i], true
}

func (c *Circuit) reindex() {
	c.byName = make(map[string]int, len(c.Modules))
	for i, m := range c.Modules {
		if _, dup := c.byName[m.ModuleName()]; !dup {
			c.byName[m.ModuleName()] = i
		}
	}
}

// Defined returns the defined module named name.
func (c *Circuit) Defined(name string) (*DefinedModule, bool) {
	m, ok := c.Module(name)
	if !ok {
		return nil, false
	}
	d, ok := m.(*DefinedModule)
	return d, ok
}

// Top returns the top module.
func (c *Circuit) Top() (*DefinedModule, error) {
	top, ok := c.Defined(c.Main)
	if !ok {
		return nil, fmt.Errorf("top module %q is not a defined module", c.Main)
	}
	return top, nil
}

// AddModule appends a module.
func (c *Circuit) AddModule(m Module) {
	c.Modules = append(c.Modules, m)
	if c.byName != nil {
		if _, dup := c.byName[m.ModuleName()]; !dup {
			c.byName[m.ModuleName()] = len(c.Modules) - 1
		}
	}
}

// Annotate appends circuit-level annotations.
func (c *Circuit) Annotate(annos ...Annotation) {
	c.Annotations = append(c.Annotations, annos...)
}

// ModuleNames returns the names of all modules in declaration order.
func (c *Circuit) ModuleNames() []string {
	names := make([]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		names = append(names, m.ModuleName())
	}
	return names
}

// DefinedModules returns the defined modules in declaration order.
func (c *Circuit) DefinedModules() []*DefinedModule {
	var out []*DefinedModule
	for _, m := range c.Modules {
		if d, ok := m.(*DefinedModule); ok {
			out = append(out, d)
		}
	}
	return out
}

// RemoveAnnotations drops every annotation for which drop returns true.
func (c *Circuit) RemoveAnnotations(drop func(Annotation) bool) {
	c.Annotations = slices.DeleteFunc(c.Annotations, drop)
}
