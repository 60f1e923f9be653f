package passes

import (
	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// Toggle requests Multibit coverage of every named binding that no other
// pass has requested yet. Constant bindings are skipped.
func Toggle(ctx *cover.Context) error {
	r := newRequester(ctx, KindToggle)
	for _, m := range ctx.Circuit.DefinedModules() {
		ir.Walk(m.Body, func(s ir.Statement) bool {
			n, ok := s.(*ir.Node)
			if !ok || ir.IsLiteral(n.Value) {
				return true
			}
			r.add(m.Name, n.Name, ir.CoverRequest{Kind: ir.CoverMultibit})
			return true
		})
	}
	r.done()
	return nil
}
