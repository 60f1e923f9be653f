// Package passes holds the kind-specific annotation producers and the
// built-in host transforms run around instrumentation.
//
// A kind pass only adds named bindings and cover requests; it never
// removes or reorders existing statements. Instrumentation itself happens
// later, once every selected pass has run.
package passes

import (
	"log/slog"
	"slices"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// Pass adds cover requests to the context table.
type Pass func(ctx *cover.Context) error

// SourceResolver maps the file key of a source locator ("Core.scala") to
// the file it names.
type SourceResolver interface {
	Resolve(key string) (path string, ok bool)
}

// Config carries the inputs some passes need beyond the context.
type Config struct {
	Sources SourceResolver
}

// Kind names.
const (
	KindMux        = "mux"
	KindControl    = "control"
	KindToggle     = "toggle"
	KindFSM        = "fsm"
	KindLine       = "line"
	KindReadyValid = "ready_valid"
)

// Kinds lists every kind pass name in a stable order.
var Kinds = []string{KindMux, KindControl, KindToggle, KindFSM, KindLine, KindReadyValid}

// Legacy reports whether a kind predates clock and reset protection.
func Legacy(kind string) bool {
	return kind == KindLine || kind == KindReadyValid
}

// Known reports whether kind names a pass.
func Known(kind string) bool {
	return slices.Contains(Kinds, kind)
}

// Lookup returns the pass of a kind.
func Lookup(kind string, cfg Config) (Pass, bool) {
	switch kind {
	case KindMux:
		return Mux, true
	case KindControl:
		return Control, true
	case KindToggle:
		return Toggle, true
	case KindFSM:
		return FSM, true
	case KindLine:
		return Line(cfg.Sources), true
	case KindReadyValid:
		return ReadyValid, true
	default:
		return nil, false
	}
}

// requester adds cover requests for one pass. A binding that already has
// a pending request, from this pass or an earlier one, is not requested
// again.
type requester struct {
	ctx  *cover.Context
	pass string
	n    int
}

func newRequester(ctx *cover.Context, pass string) *requester {
	return &requester{ctx: ctx, pass: pass}
}

func (r *requester) add(module, name string, req ir.CoverRequest) {
	target := ir.CoverTarget{Module: module, Name: name}
	if r.ctx.Table.Has(target) {
		return
	}
	r.ctx.Table.Add(target, req)
	r.n++
	if r.ctx.TraceEnabled() {
		r.ctx.Trace("requested cover point",
			slog.String("pass", r.pass),
			slog.String("target", target.String()),
			slog.String("kind", req.Kind.String()))
	}
}

func (r *requester) done() {
	r.ctx.Log(slog.LevelDebug, "pass complete",
		slog.String("pass", r.pass),
		slog.Int("requests", r.n))
}

// nodeNames returns the names of every node declared in m.
func nodeNames(m *ir.DefinedModule) map[string]bool {
	names := make(map[string]bool)
	ir.Walk(m.Body, func(s ir.Statement) bool {
		if n, ok := s.(*ir.Node); ok {
			names[n.Name] = true
		}
		return true
	})
	return names
}

// hoister binds expressions to fresh nodes placed before the statement
// being rewritten.
type hoister struct {
	ctx     *cover.Context
	m       *ir.DefinedModule
	nodes   map[string]bool
	pending []ir.Statement
}

func newHoister(ctx *cover.Context, m *ir.DefinedModule) *hoister {
	return &hoister{ctx: ctx, m: m, nodes: nodeNames(m)}
}

// bind returns the name of a node holding e. A reference to an existing
// node is returned as is; anything else is hoisted into a new node.
func (h *hoister) bind(e ir.Expression, base, info string) string {
	if ref, ok := e.(*ir.Ref); ok && h.nodes[ref.Name] {
		return ref.Name
	}
	name := h.ctx.Namespace(h.m).Fresh(base)
	h.pending = append(h.pending, &ir.Node{Name: name, Value: e, Info: info})
	h.nodes[name] = true
	return name
}

// flush returns the hoisted nodes followed by s.
func (h *hoister) flush(s ir.Statement) []ir.Statement {
	if len(h.pending) == 0 {
		return ir.Keep(s)
	}
	out := append(h.pending, s)
	h.pending = nil
	return out
}
