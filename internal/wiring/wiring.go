// Package wiring threads signals from the top module down to the modules
// that requested them.
//
// Planning deduplicates the requests, creates (or reuses) one top-level
// input port per signal and records the source and sinks as annotations.
// Materialize later turns those annotations into ports and connections on
// every module lying between the top and a sink.
package wiring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/hierarchy"
	"github.com/xfuzz/hwcover/internal/namespace"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// ErrSourceNotTop is returned when a wiring source annotation names a
// module other than the top module.
var ErrSourceNotTop = errors.New("wiring source is not the top module")

// Signal is one deduplicated signal threaded from the top module.
type Signal struct {
	Name  string // requested name
	Width int
	Kind  ir.TypeKind

	// Port is the top-level input port carrying the signal. It doubles as
	// the signal identity in wiring annotations.
	Port string

	// Added reports whether Port was created rather than reused.
	Added bool

	Sinks []Sink
}

// Sink is a local wire in a requesting module.
type Sink struct {
	Module string
	Target string
}

// Plan is the result of the planning phase.
type Plan struct {
	Top     string
	Signals []*Signal
}

type signalKey struct {
	name  string
	width int
}

// PortType returns the type of a port carrying a signal.
func PortType(kind ir.TypeKind, width int) ir.Type {
	switch kind {
	case ir.KindClock:
		return ir.Clock()
	case ir.KindReset:
		return ir.Reset()
	case ir.KindSInt:
		return ir.SInt(width)
	default:
		return ir.UInt(width)
	}
}

// NewPlan deduplicates reqs by (name, width), gives every signal exactly
// one top-level input port and annotates c with one source per signal and
// one sink per request.
func NewPlan(c *ir.Circuit, reqs []cover.GlobalWireRequest, logger *slog.Logger) (*Plan, error) {
	log := types.Logger{L: logger}
	top, err := c.Top()
	if err != nil {
		return nil, err
	}
	plan := &Plan{Top: top.Name}
	if len(reqs) == 0 {
		return plan, nil
	}

	ns := namespace.ForModule(top)
	grouped := lo.GroupBy(reqs, func(r cover.GlobalWireRequest) signalKey {
		return signalKey{name: r.Port, width: r.Width}
	})
	keys := lo.Uniq(lo.Map(reqs, func(r cover.GlobalWireRequest, _ int) signalKey {
		return signalKey{name: r.Port, width: r.Width}
	}))

	for _, key := range keys {
		group := grouped[key]
		sig := &Signal{Name: key.name, Width: key.width, Kind: group[0].Kind}
		pt := PortType(sig.Kind, sig.Width)

		if p, ok := top.Port(key.name); ok && p.Direction == ir.Input && p.Type.Width == key.width {
			sig.Port = p.Name
		} else {
			sig.Port = ns.Fresh(key.name)
			sig.Added = true
			top.AddPort(ir.Port{Name: sig.Port, Direction: ir.Input, Type: pt})
		}

		c.Annotate(ir.WiringSourceAnnotation{Module: top.Name, Port: sig.Port, Signal: sig.Port})
		for _, r := range group {
			sig.Sinks = append(sig.Sinks, Sink{Module: r.Module, Target: r.Target})
			c.Annotate(ir.WiringSinkAnnotation{Module: r.Module, Target: r.Target, Signal: sig.Port})
		}
		plan.Signals = append(plan.Signals, sig)

		log.Log(slog.LevelDebug, "planned global signal",
			slog.String("signal", sig.Name),
			slog.Int("width", sig.Width),
			slog.String("port", sig.Port),
			slog.Bool("added", sig.Added),
			slog.Int("sinks", len(sig.Sinks)))
	}
	return plan, nil
}

// AddedPorts returns the top-level ports created by the plan.
func (p *Plan) AddedPorts() []string {
	return lo.FilterMap(p.Signals, func(s *Signal, _ int) (string, bool) {
		return s.Port, s.Added
	})
}

// SinkCount returns the number of sinks over all signals.
func (p *Plan) SinkCount() int {
	return lo.SumBy(p.Signals, func(s *Signal) int { return len(s.Sinks) })
}

// materializer holds the per-run state of Materialize.
type materializer struct {
	c          *ir.Circuit
	idx        *hierarchy.Index
	namespaces map[string]*namespace.Namespace
	diags      []ir.Diagnostic
	types.Logger
}

// Materialize realizes every wiring source/sink annotation pair of c. Each
// module on a path from the top to a sink gains one pass-through input
// port per signal, instances are connected parent to child, and the sink
// wire is driven from the port. The annotations are removed afterwards.
// Sinks in modules not instantiated under the top are reported and left
// undriven.
func Materialize(c *ir.Circuit, idx *hierarchy.Index, logger *slog.Logger) ([]ir.Diagnostic, error) {
	mz := &materializer{
		c:          c,
		idx:        idx,
		namespaces: make(map[string]*namespace.Namespace),
		Logger:     types.Logger{L: logger},
	}

	sources := ir.AnnotationsOf[ir.WiringSourceAnnotation](c)
	sinks := lo.GroupBy(ir.AnnotationsOf[ir.WiringSinkAnnotation](c), func(a ir.WiringSinkAnnotation) string {
		return a.Signal
	})

	for _, src := range sources {
		if src.Module != idx.Top() {
			return mz.diags, fmt.Errorf("%w: signal %s sourced from %s", ErrSourceNotTop, src.Signal, src.Module)
		}
		if err := mz.signal(src, sinks[src.Signal]); err != nil {
			return mz.diags, err
		}
	}

	c.RemoveAnnotations(func(a ir.Annotation) bool {
		switch a.(type) {
		case ir.WiringSourceAnnotation, ir.WiringSinkAnnotation:
			return true
		}
		return false
	})
	return mz.diags, nil
}

func (mz *materializer) namespace(m *ir.DefinedModule) *namespace.Namespace {
	ns, ok := mz.namespaces[m.Name]
	if !ok {
		ns = namespace.ForModule(m)
		mz.namespaces[m.Name] = ns
	}
	return ns
}

func (mz *materializer) defined(name string) (*ir.DefinedModule, error) {
	m, ok := mz.c.Defined(name)
	if !ok {
		return nil, fmt.Errorf("wiring: %s is not a defined module", name)
	}
	return m, nil
}

func (mz *materializer) signal(src ir.WiringSourceAnnotation, sinks []ir.WiringSinkAnnotation) error {
	top, err := mz.defined(src.Module)
	if err != nil {
		return err
	}
	srcPort, ok := top.Port(src.Port)
	if !ok {
		return fmt.Errorf("wiring: source port %s.%s not found", src.Module, src.Port)
	}

	// Modules on any path from the top to a reachable sink.
	on := make(map[string]bool)
	var live []ir.WiringSinkAnnotation
	for _, s := range sinks {
		if !mz.idx.Reachable(s.Module) {
			mz.diags = append(mz.diags, ir.Diagnostic{
				Severity: ir.SeverityMinor,
				Code:     types.DiagUnreachableSink,
				Message:  fmt.Sprintf("%s is not instantiated under %s, %s left undriven", s.Module, src.Module, s.Target),
				Module:   s.Module,
			})
			continue
		}
		live = append(live, s)
		for _, a := range mz.idx.Ancestors(s.Module) {
			on[a] = true
		}
	}

	// One port per (signal, module), top-down so parents exist first.
	portOf := map[string]string{src.Module: src.Port}
	path := lo.Filter(mz.idx.Order(), func(name string, _ int) bool { return on[name] })
	for _, name := range path {
		if _, done := portOf[name]; done {
			continue
		}
		m, err := mz.defined(name)
		if err != nil {
			return err
		}
		port := mz.namespace(m).Fresh(src.Signal)
		m.AddPort(ir.Port{Name: port, Direction: ir.Input, Type: srcPort.Type})
		portOf[name] = port
		if mz.TraceEnabled() {
			mz.Trace("added pass-through port",
				slog.String("module", name),
				slog.String("port", port),
				slog.String("signal", src.Signal))
		}
	}

	for _, name := range path {
		m, err := mz.defined(name)
		if err != nil {
			return err
		}
		for _, ch := range mz.idx.Children(name) {
			childPort, ok := portOf[ch.Module]
			if !ok {
				continue
			}
			m.Body.Append(&ir.Connect{
				Loc:   ir.NewRef(ch.Name + "." + childPort),
				Value: ir.NewRef(portOf[name]),
			})
		}
	}

	for _, s := range live {
		m, err := mz.defined(s.Module)
		if err != nil {
			return err
		}
		m.Body.Append(&ir.Connect{Loc: ir.NewRef(s.Target), Value: ir.NewRef(portOf[s.Module])})
	}

	mz.Log(slog.LevelDebug, "materialized global signal",
		slog.String("signal", src.Signal),
		slog.Int("modules", len(path)),
		slog.Int("sinks", len(live)))
	return nil
}
