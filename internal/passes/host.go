package passes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xfuzz/hwcover/internal/hierarchy"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/internal/wiring"
	"github.com/xfuzz/hwcover/ir"
)

// Host transform names.
const (
	TransformNoDedup           = "no-dedup"
	TransformDedup             = "dedup"
	TransformProtectClockReset = "protect-clock-reset"
	TransformRemoveDeadReset   = "remove-dead-reset"
	TransformWiring            = "wiring"
)

// Transforms lists the transforms Builtin implements.
var Transforms = []string{
	TransformNoDedup,
	TransformDedup,
	TransformProtectClockReset,
	TransformRemoveDeadReset,
	TransformWiring,
}

// ErrUnknownTransform is returned for a transform name Builtin does not
// implement.
var ErrUnknownTransform = errors.New("unknown host transform")

// Builtin implements the host transforms needed around instrumentation
// when no host compiler supplies them.
type Builtin struct {
	types.Logger
}

// NewBuiltin returns a Builtin logging to logger, which may be nil.
func NewBuiltin(logger *slog.Logger) *Builtin {
	return &Builtin{Logger: types.Logger{L: logger}}
}

// Transform applies the named transform to c.
func (b *Builtin) Transform(ctx context.Context, name string, c *ir.Circuit) ([]ir.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch name {
	case TransformNoDedup:
		c.Annotate(ir.NoDedupAnnotation{})
		return nil, nil
	case TransformDedup:
		c.RemoveAnnotations(func(a ir.Annotation) bool {
			_, ok := a.(ir.NoDedupAnnotation)
			return ok
		})
		return nil, nil
	case TransformProtectClockReset:
		b.protectClockReset(c)
		return nil, nil
	case TransformRemoveDeadReset:
		b.removeDeadReset(c)
		return nil, nil
	case TransformWiring:
		idx, diags, err := hierarchy.Build(c, b.L)
		if err != nil {
			return diags, err
		}
		wdiags, err := wiring.Materialize(c, idx, b.L)
		return append(diags, wdiags...), err
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, name)
	}
}

// protectClockReset marks every clock and reset port so the host keeps
// them for the probes connected later.
func (b *Builtin) protectClockReset(c *ir.Circuit) {
	n := 0
	for _, m := range c.DefinedModules() {
		for _, p := range m.Ports {
			if p.Type.Kind != ir.KindClock && p.Type.Kind != ir.KindReset &&
				p.Name != "clock" && p.Name != "reset" {
				continue
			}
			c.Annotate(ir.DontTouchAnnotation{Module: m.Name, Name: p.Name})
			n++
		}
	}
	b.Log(slog.LevelDebug, "protected clock and reset ports", slog.Int("ports", n))
}

// removeDeadReset drops Reset wires that nothing reads, together with the
// connects driving them and any wiring sink targeting them.
func (b *Builtin) removeDeadReset(c *ir.Circuit) {
	removed := 0
	for _, m := range c.DefinedModules() {
		dead := deadResetWires(m)
		if len(dead) == 0 {
			continue
		}
		ir.MapBlock(m.Body, func(s ir.Statement) []ir.Statement {
			switch s := s.(type) {
			case *ir.Wire:
				if dead[s.Name] {
					return nil
				}
			case *ir.Connect:
				if ref, ok := s.Loc.(*ir.Ref); ok && dead[ref.Name] {
					return nil
				}
			}
			return ir.Keep(s)
		})
		c.RemoveAnnotations(func(a ir.Annotation) bool {
			sink, ok := a.(ir.WiringSinkAnnotation)
			return ok && sink.Module == m.Name && dead[sink.Target]
		})
		for name := range dead {
			if b.TraceEnabled() {
				b.Trace("removed dead reset wire",
					slog.String("module", m.Name),
					slog.String("wire", name))
			}
		}
		removed += len(dead)
	}
	b.Log(slog.LevelDebug, "removed dead reset wires", slog.Int("wires", removed))
}

// deadResetWires returns the Reset wires of m that no statement reads.
func deadResetWires(m *ir.DefinedModule) map[string]bool {
	dead := make(map[string]bool)
	ir.Walk(m.Body, func(s ir.Statement) bool {
		if w, ok := s.(*ir.Wire); ok && w.Type.Kind == ir.KindReset {
			dead[w.Name] = true
		}
		return true
	})
	if len(dead) == 0 {
		return nil
	}

	read := func(e ir.Expression) {
		for _, name := range ir.References(e) {
			delete(dead, name)
		}
	}
	ir.Walk(m.Body, func(s ir.Statement) bool {
		switch s := s.(type) {
		case *ir.Node:
			read(s.Value)
		case *ir.Connect:
			read(s.Value)
			if _, ok := s.Loc.(*ir.Ref); !ok {
				read(s.Loc)
			}
		case *ir.Register:
			read(s.Clock)
			read(s.Reset)
			read(s.Init)
		case *ir.Conditional:
			read(s.Pred)
		}
		return true
	})
	return dead
}
