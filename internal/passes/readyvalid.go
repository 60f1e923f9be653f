package passes

import (
	"fmt"
	"strings"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

type handshake struct {
	ready, valid string
}

// ReadyValid pairs <p>_ready and <p>_valid ports, binds their conjunction
// to a <p>_fire node and requests Normal coverage of it. When exactly one
// ready and one valid port remain unpaired they are paired anyway with an
// ambiguous match diagnostic; any other leftover ready port is reported.
func ReadyValid(ctx *cover.Context) error {
	r := newRequester(ctx, KindReadyValid)
	for _, m := range ctx.Circuit.DefinedModules() {
		pairs := handshakes(ctx, m)
		if len(pairs) == 0 {
			continue
		}
		ns := ctx.Namespace(m)
		var fires []ir.Statement
		for _, p := range pairs {
			prefix := strings.TrimSuffix(strings.TrimSuffix(p.ready, "ready"), "_")
			base := "fire"
			if prefix != "" {
				base = prefix + "_fire"
			}
			name := ns.Fresh(base)
			fires = append(fires, &ir.Node{
				Name:  name,
				Value: ir.Prim(ir.OpAnd, []ir.Expression{ir.NewRef(p.ready), ir.NewRef(p.valid)}),
			})
			r.add(m.Name, name, ir.CoverRequest{Kind: ir.CoverNormal})
		}
		m.Body.Stmts = append(fires, m.Body.Stmts...)
	}
	r.done()
	return nil
}

func handshakes(ctx *cover.Context, m *ir.DefinedModule) []handshake {
	var readies, valids []string
	for _, p := range m.Ports {
		if p.Type.Width != 1 || p.Type.Kind != ir.KindUInt {
			continue
		}
		switch {
		case strings.HasSuffix(p.Name, "ready"):
			readies = append(readies, p.Name)
		case strings.HasSuffix(p.Name, "valid"):
			valids = append(valids, p.Name)
		}
	}

	eligible := make(map[string]bool, len(valids))
	for _, v := range valids {
		eligible[v] = true
	}
	var pairs []handshake
	used := make(map[string]bool)
	var leftover []string
	for _, ready := range readies {
		valid := strings.TrimSuffix(ready, "ready") + "valid"
		if eligible[valid] && !used[valid] {
			used[valid] = true
			pairs = append(pairs, handshake{ready: ready, valid: valid})
			continue
		}
		leftover = append(leftover, ready)
	}
	var freeValids []string
	for _, v := range valids {
		if !used[v] {
			freeValids = append(freeValids, v)
		}
	}

	if len(leftover) == 1 && len(freeValids) == 1 {
		ctx.EmitDiagnostic(types.DiagAmbiguousPortMatch, ir.SeverityMinor, m.Name, "",
			fmt.Sprintf("pairing %s with %s by suffix", leftover[0], freeValids[0]))
		return append(pairs, handshake{ready: leftover[0], valid: freeValids[0]})
	}
	for _, ready := range leftover {
		ctx.EmitDiagnostic(types.DiagUnpairedHandshake, ir.SeverityStyle, m.Name, "",
			fmt.Sprintf("no valid port pairs with %s", ready))
	}
	return pairs
}
