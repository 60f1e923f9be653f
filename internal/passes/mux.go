package passes

import (
	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// Mux binds the condition of every mux to a node and requests Normal
// coverage of it. Constant conditions are left alone.
func Mux(ctx *cover.Context) error {
	r := newRequester(ctx, KindMux)
	for _, m := range ctx.Circuit.DefinedModules() {
		h := newHoister(ctx, m)
		ir.MapBlock(m.Body, func(s ir.Statement) []ir.Statement {
			switch s := s.(type) {
			case *ir.Node:
				s.Value = h.muxes(r, s.Value, s.Info)
			case *ir.Connect:
				s.Value = h.muxes(r, s.Value, s.Info)
			}
			return h.flush(s)
		})
	}
	r.done()
	return nil
}

// muxes rewrites e bottom-up, replacing each mux condition by a reference
// to its node.
func (h *hoister) muxes(r *requester, e ir.Expression, info string) ir.Expression {
	switch e := e.(type) {
	case *ir.Mux:
		e.Cond = h.muxes(r, e.Cond, info)
		e.High = h.muxes(r, e.High, info)
		e.Low = h.muxes(r, e.Low, info)
		if ir.IsLiteral(e.Cond) {
			return e
		}
		name := h.bind(e.Cond, "mux_cond", info)
		e.Cond = ir.NewRef(name)
		r.add(h.m.Name, name, ir.CoverRequest{Kind: ir.CoverNormal})
	case *ir.PrimOp:
		for i, a := range e.Args {
			e.Args[i] = h.muxes(r, a, info)
		}
	}
	return e
}
