package passes

import (
	"log/slog"
	"strings"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// stateSuffixes mark registers holding an FSM state.
var stateSuffixes = []string{"state", "_fsm"}

func isStateRegister(r *ir.Register) bool {
	name := strings.ToLower(r.Name)
	for _, s := range stateSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// FSM requests encoded-state coverage of every value driven into a state
// register. Registers of unknown width or wider than the encoded-width
// limit are skipped, as are driven values wider than the limit.
func FSM(ctx *cover.Context) error {
	r := newRequester(ctx, KindFSM)
	for _, m := range ctx.Circuit.DefinedModules() {
		states := make(map[string]bool)
		ir.Walk(m.Body, func(s ir.Statement) bool {
			reg, ok := s.(*ir.Register)
			if !ok || !isStateRegister(reg) {
				return true
			}
			if !reg.Type.Known() || reg.Type.Width > ctx.MaxEncodedWidth() {
				ctx.Log(slog.LevelDebug, "state register width unsuitable for encoded coverage",
					slog.String("module", m.Name),
					slog.String("register", reg.Name),
					slog.Int("width", reg.Type.Width))
				return true
			}
			states[reg.Name] = true
			return true
		})
		if len(states) == 0 {
			continue
		}

		scope := ir.NewScope(ctx.Circuit, m)
		h := newHoister(ctx, m)
		ir.MapBlock(m.Body, func(s ir.Statement) []ir.Statement {
			conn, ok := s.(*ir.Connect)
			if !ok {
				return ir.Keep(s)
			}
			loc, ok := conn.Loc.(*ir.Ref)
			if !ok || !states[loc.Name] || ir.IsLiteral(conn.Value) {
				return ir.Keep(s)
			}
			if w, err := ir.InferWidth(scope, conn.Value); err != nil || w > ctx.MaxEncodedWidth() {
				ctx.Log(slog.LevelDebug, "next state not covered",
					slog.String("module", m.Name),
					slog.String("register", loc.Name),
					slog.Int("width", w),
					slog.Any("error", err))
				return ir.Keep(s)
			}
			name := h.bind(conn.Value, loc.Name+"_next", conn.Info)
			conn.Value = ir.NewRef(name)
			r.add(m.Name, name, ir.CoverRequest{Kind: ir.CoverNormal})
			return h.flush(s)
		})
	}
	r.done()
	return nil
}
