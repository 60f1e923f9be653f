package passes

import (
	"fmt"
	"strings"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// Control binds the predicate of every conditional to a node and requests
// Normal coverage of it.
func Control(ctx *cover.Context) error {
	r := newRequester(ctx, KindControl)
	for _, m := range ctx.Circuit.DefinedModules() {
		h := newHoister(ctx, m)
		ir.MapBlock(m.Body, func(s ir.Statement) []ir.Statement {
			cond, ok := s.(*ir.Conditional)
			if !ok || ir.IsLiteral(cond.Pred) {
				return ir.Keep(s)
			}
			name := h.bind(cond.Pred, "when_cond", cond.Info)
			cond.Pred = ir.NewRef(name)
			r.add(m.Name, name, ir.CoverRequest{Kind: ir.CoverNormal})
			return h.flush(s)
		})
	}
	r.done()
	return nil
}

// Line covers conditionals like Control but names each point after its
// source locator. The hoisted node carries the resolved file path so the
// manifest points back to the source. Conditionals without a usable
// locator are reported and skipped.
func Line(sources SourceResolver) Pass {
	return func(ctx *cover.Context) error {
		r := newRequester(ctx, KindLine)
		for _, m := range ctx.Circuit.DefinedModules() {
			h := newHoister(ctx, m)
			ir.MapBlock(m.Body, func(s ir.Statement) []ir.Statement {
				cond, ok := s.(*ir.Conditional)
				if !ok || ir.IsLiteral(cond.Pred) {
					return ir.Keep(s)
				}
				loc, ok := ir.ParseSourceInfo(cond.Info)
				if !ok {
					ctx.EmitDiagnostic(types.DiagUnresolvedSource, ir.SeverityInfo, m.Name, cond.Info,
						"conditional has no source locator, not line covered")
					return ir.Keep(s)
				}
				info := cond.Info
				if sources != nil {
					if path, found := sources.Resolve(loc.File); found {
						loc.File = path
						info = loc.String()
					} else {
						ctx.EmitDiagnostic(types.DiagUnresolvedSource, ir.SeverityInfo, m.Name, cond.Info,
							fmt.Sprintf("source %s not found, keeping locator as is", loc.File))
					}
				}
				// Force a new node so every line has its own point.
				name := ctx.Namespace(m).Fresh(lineName(loc))
				h.pending = append(h.pending, &ir.Node{Name: name, Value: cond.Pred, Info: info})
				cond.Pred = ir.NewRef(name)
				r.add(m.Name, name, ir.CoverRequest{Kind: ir.CoverNormal})
				return h.flush(s)
			})
		}
		r.done()
		return nil
	}
}

// lineName returns "line_<file stem>_<line>" with every character that is
// not valid in an identifier replaced by '_'.
func lineName(loc ir.SourceLocation) string {
	base := loc.File
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, base)
	return fmt.Sprintf("line_%s_%d", base, loc.Line)
}
