package cover

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// Probe port and parameter names shared with code generation.
const (
	ProbeClock      = "clock"
	ProbeReset      = "reset"
	ProbeValid      = "valid"
	ParamCoverTotal = "COVER_TOTAL"
	ParamCoverIndex = "COVER_INDEX"
)

// portRole describes how to find a clock or reset in a module.
type portRole struct {
	name     string
	kind     ir.TypeKind
	suffixes []string
}

var (
	clockRole = portRole{name: "clock", kind: ir.KindClock, suffixes: []string{"_clock", "clk"}}
	resetRole = portRole{name: "reset", kind: ir.KindReset, suffixes: []string{"_reset", "rst"}}
)

// portLookup caches the clock and reset references of one module.
type portLookup struct {
	clock  ir.Expression
	reset  ir.Expression
	inject []ir.Statement
}

// ProbePorts returns the port list of a probe module of the given width.
func ProbePorts(width int) []ir.Port {
	return []ir.Port{
		{Name: ProbeClock, Direction: ir.Input, Type: ir.Clock()},
		{Name: ProbeReset, Direction: ir.Input, Type: ir.Reset()},
		{Name: ProbeValid, Direction: ir.Input, Type: ir.UInt(width)},
	}
}

// Rewrite inserts a probe instance after every synthesized binding. The
// binding itself is kept unchanged.
func Rewrite(c *Context) error {
	byModule := c.RequestsByModule()
	for _, m := range c.Circuit.DefinedModules() {
		pending := make(map[string][]*PointRequest)
		for _, req := range byModule[m.Name] {
			if req.Site != nil {
				pending[req.Name] = append(pending[req.Name], req)
			}
		}
		if len(pending) == 0 {
			continue
		}

		ir.MapBlock(m.Body, func(s ir.Statement) []ir.Statement {
			node, ok := s.(*ir.Node)
			if !ok {
				return ir.Keep(s)
			}
			reqs, ok := pending[node.Name]
			if !ok {
				return ir.Keep(s)
			}
			delete(pending, node.Name)
			out := []ir.Statement{node}
			for _, req := range reqs {
				out = append(out, c.probe(m, node, req)...)
			}
			return out
		})
		if len(pending) > 0 {
			return fmt.Errorf("%w: %d bindings of %s disappeared before rewrite", ErrTargetNotFound, len(pending), m.Name)
		}
		if pl := c.ports[m.Name]; pl != nil && len(pl.inject) > 0 {
			m.Body.Stmts = append(pl.inject, m.Body.Stmts...)
			pl.inject = nil
		}
	}
	return nil
}

// probe returns the statements covering one site of node.
func (c *Context) probe(m *ir.DefinedModule, node *ir.Node, req *PointRequest) []ir.Statement {
	site := req.Site
	d := site.Descriptor
	ns := c.Namespace(m)
	scope := c.Scope(m)
	clock, reset := c.clockReset(m)

	mod := &ir.OpaqueModule{
		Name:    c.modules.Fresh(d.DefName),
		DefName: d.DefName,
		Ports:   ProbePorts(d.Width),
		Params: []ir.Param{
			{Name: ParamCoverTotal, Value: int64(c.KindTotal(d.Kind))},
			{Name: ParamCoverIndex, Value: int64(site.Index())},
		},
	}
	c.Circuit.AddModule(mod)

	inst := ns.Fresh(node.Name + "_cover")
	c.Circuit.Annotate(ir.DontTouchAnnotation{Module: m.Name, Name: inst})
	out := []ir.Statement{&ir.Instance{Name: inst, Module: mod.Name, Info: node.Info}}

	var value ir.Expression = ir.NewRef(node.Name)
	if req.Type.Kind != ir.KindUInt {
		value = ir.Prim(ir.OpAsUInt, []ir.Expression{value})
	}

	if d.Transition() {
		prev := ns.Fresh(node.Name + "_prev")
		valid := ns.Fresh(node.Name + "_valid")
		out = append(out,
			&ir.Register{
				Name:  prev,
				Type:  ir.UInt(d.Width),
				Clock: clock,
				Reset: reset,
				Init:  ir.U(0, d.Width),
				Info:  node.Info,
			},
			&ir.Connect{Loc: ir.NewRef(prev), Value: value, Info: node.Info},
			&ir.Node{
				Name:  valid,
				Value: ir.Prim(ir.OpXor, []ir.Expression{value, ir.NewRef(prev)}),
				Info:  node.Info,
			},
		)
		scope.Declare(prev, ir.UInt(d.Width))
		scope.Declare(valid, ir.UInt(d.Width))
		value = ir.NewRef(valid)
	}

	out = append(out,
		&ir.Connect{Loc: ir.NewRef(inst + "." + ProbeClock), Value: clock, Info: node.Info},
		&ir.Connect{Loc: ir.NewRef(inst + "." + ProbeReset), Value: reset, Info: node.Info},
		&ir.Connect{Loc: ir.NewRef(inst + "." + ProbeValid), Value: value, Info: node.Info},
	)
	c.Accounting.Rewritten++

	if c.TraceEnabled() {
		c.Trace("rewrote cover site",
			slog.String("module", m.Name),
			slog.String("binding", node.Name),
			slog.String("probe", mod.Name),
			slog.Int("index", site.Index()))
	}
	return out
}

// clockReset returns the clock and reset references of m, resolving and
// caching them on first use.
func (c *Context) clockReset(m *ir.DefinedModule) (clock, reset ir.Expression) {
	pl, ok := c.ports[m.Name]
	if !ok {
		pl = &portLookup{}
		pl.clock = c.findPort(m, pl, clockRole)
		pl.reset = c.findPort(m, pl, resetRole)
		c.ports[m.Name] = pl
	}
	return pl.clock, pl.reset
}

// findPort resolves one role: exact port name first, then a unique port of
// the role's type, then a name suffix match. Without any match a local
// wire is injected and a global wire request registered.
func (c *Context) findPort(m *ir.DefinedModule, pl *portLookup, role portRole) ir.Expression {
	var inputs []ir.Port
	for _, p := range m.Ports {
		if p.Direction == ir.Input {
			inputs = append(inputs, p)
		}
	}

	for _, p := range inputs {
		if p.Name == role.name {
			return ir.NewRef(p.Name)
		}
	}

	var typed []ir.Port
	for _, p := range inputs {
		if p.Type.Kind == role.kind {
			typed = append(typed, p)
		}
	}
	if len(typed) == 1 {
		c.EmitDiagnostic(types.DiagAmbiguousPortMatch, ir.SeverityMinor, m.Name, "",
			fmt.Sprintf("no %s port, using %s port %s", role.name, role.kind, typed[0].Name))
		return ir.NewRef(typed[0].Name)
	}

	for _, p := range inputs {
		if p.Type.Width != 1 {
			continue
		}
		for _, suffix := range role.suffixes {
			if strings.HasSuffix(p.Name, suffix) {
				c.EmitDiagnostic(types.DiagAmbiguousPortMatch, ir.SeverityMinor, m.Name, "",
					fmt.Sprintf("no %s port, using %s by suffix %q", role.name, p.Name, suffix))
				return ir.NewRef(p.Name)
			}
		}
	}

	t := ir.Type{Kind: role.kind, Width: 1}
	wire := c.Namespace(m).Fresh(role.name)
	pl.inject = append(pl.inject, &ir.Wire{Name: wire, Type: t})
	c.Scope(m).Declare(wire, t)
	c.WireRequests = append(c.WireRequests, GlobalWireRequest{
		Module: m.Name,
		Port:   role.name,
		Width:  1,
		Kind:   role.kind,
		Target: wire,
	})
	c.EmitDiagnostic(types.DiagMissingPort, ir.SeverityMinor, m.Name, "",
		fmt.Sprintf("no %s port, injected wire %s driven from the top module", role.name, wire))
	c.Log(slog.LevelDebug, "injected global wire",
		slog.String("module", m.Name),
		slog.String("signal", role.name),
		slog.String("wire", wire))
	return ir.NewRef(wire)
}
