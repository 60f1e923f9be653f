// Package testutil provides circuit fixtures and assertion helpers shared by
// the package tests.
package testutil

import (
	"fmt"

	"github.com/xfuzz/hwcover/ir"
)

// ModuleBuilder assembles a defined module statement by statement.
type ModuleBuilder struct {
	m *ir.DefinedModule
}

// Module starts a defined module with an empty body.
func Module(name string) *ModuleBuilder {
	return &ModuleBuilder{m: &ir.DefinedModule{Name: name, Body: ir.NewBlock()}}
}

// Clocked starts a module with the conventional clock and reset ports.
func Clocked(name string) *ModuleBuilder {
	return Module(name).Input("clock", ir.Clock()).Input("reset", ir.Reset())
}

// Input adds an input port.
func (b *ModuleBuilder) Input(name string, t ir.Type) *ModuleBuilder {
	b.m.AddPort(ir.Port{Name: name, Direction: ir.Input, Type: t})
	return b
}

// Output adds an output port.
func (b *ModuleBuilder) Output(name string, t ir.Type) *ModuleBuilder {
	b.m.AddPort(ir.Port{Name: name, Direction: ir.Output, Type: t})
	return b
}

// Wire declares a wire.
func (b *ModuleBuilder) Wire(name string, t ir.Type) *ModuleBuilder {
	b.m.Body.Append(&ir.Wire{Name: name, Type: t})
	return b
}

// Node binds name to value.
func (b *ModuleBuilder) Node(name string, value ir.Expression) *ModuleBuilder {
	b.m.Body.Append(&ir.Node{Name: name, Value: value})
	return b
}

// NodeAt binds name to value with a source locator.
func (b *ModuleBuilder) NodeAt(name string, value ir.Expression, info string) *ModuleBuilder {
	b.m.Body.Append(&ir.Node{Name: name, Value: value, Info: info})
	return b
}

// Reg declares a register clocked by the clock port.
func (b *ModuleBuilder) Reg(name string, t ir.Type) *ModuleBuilder {
	b.m.Body.Append(&ir.Register{Name: name, Type: t, Clock: ir.NewRef("clock")})
	return b
}

// Inst instantiates module under name.
func (b *ModuleBuilder) Inst(name, module string) *ModuleBuilder {
	b.m.Body.Append(&ir.Instance{Name: name, Module: module})
	return b
}

// Connect drives loc with value.
func (b *ModuleBuilder) Connect(loc string, value ir.Expression) *ModuleBuilder {
	b.m.Body.Append(&ir.Connect{Loc: ir.NewRef(loc), Value: value})
	return b
}

// When appends a conditional with the given branches.
func (b *ModuleBuilder) When(pred ir.Expression, then, els []ir.Statement) *ModuleBuilder {
	cond := &ir.Conditional{Pred: pred, Then: ir.NewBlock(then...)}
	if els != nil {
		cond.Else = ir.NewBlock(els...)
	}
	b.m.Body.Append(cond)
	return b
}

// Stmt appends arbitrary statements.
func (b *ModuleBuilder) Stmt(stmts ...ir.Statement) *ModuleBuilder {
	b.m.Body.Append(stmts...)
	return b
}

// Build returns the module.
func (b *ModuleBuilder) Build() *ir.DefinedModule {
	return b.m
}

// Circuit returns a circuit whose top module is the first module.
func Circuit(modules ...ir.Module) *ir.Circuit {
	c := &ir.Circuit{}
	for _, m := range modules {
		c.AddModule(m)
	}
	if len(modules) > 0 {
		c.Main = modules[0].ModuleName()
	}
	return c
}

// And returns and(a, b) over references.
func And(a, b string) ir.Expression {
	return ir.Prim(ir.OpAnd, []ir.Expression{ir.NewRef(a), ir.NewRef(b)})
}

// Bits returns bits(name, hi, lo).
func Bits(name string, hi, lo int) ir.Expression {
	return ir.Prim(ir.OpBits, []ir.Expression{ir.NewRef(name)}, hi, lo)
}

// Gate returns a clocked module with one input a of width w and a binding
// x = a that can carry a cover request.
func Gate(name string, w int) *ir.DefinedModule {
	return Clocked(name).
		Input("a", ir.UInt(w)).
		Output("y", ir.UInt(w)).
		Node("x", ir.NewRef("a")).
		Connect("y", ir.NewRef("x")).
		Build()
}

// Fanout returns a circuit where Top instantiates n leaf modules. Top and
// the leaves have a clock but no reset port, and each leaf binds x = a.
// Leaves are named Leaf0, Leaf1, ... and instantiated as leaf0, leaf1, ...
func Fanout(n int) *ir.Circuit {
	top := Module("Top").Input("clock", ir.Clock())
	var leaves []ir.Module
	for i := range n {
		name := fmt.Sprintf("Leaf%d", i)
		leaves = append(leaves, Module(name).
			Input("clock", ir.Clock()).
			Input("a", ir.UInt(1)).
			Node("x", ir.NewRef("a")).
			Build())
		inst := fmt.Sprintf("leaf%d", i)
		top.Inst(inst, name).
			Connect(inst+".clock", ir.NewRef("clock"))
	}
	return Circuit(append([]ir.Module{top.Build()}, leaves...)...)
}

// Inverters returns a single clocked module Top binding n nodes x0, x1, ...
// to not(a).
func Inverters(n int) *ir.Circuit {
	b := Clocked("Top").Input("a", ir.UInt(1))
	for i := range n {
		b.Node(fmt.Sprintf("x%d", i), ir.Prim(ir.OpNot, []ir.Expression{ir.NewRef("a")}))
	}
	return Circuit(b.Build())
}
