package hwcover

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/xfuzz/hwcover/internal/passes"
)

// StepKind identifies who runs a plan step.
type StepKind int

const (
	// StepTransform is a host transform.
	StepTransform StepKind = iota
	// StepPass is a kind pass adding cover requests.
	StepPass
	// StepInstrument runs Instrument over the collected requests.
	StepInstrument
)

func (k StepKind) String() string {
	switch k {
	case StepTransform:
		return "transform"
	case StepPass:
		return "pass"
	case StepInstrument:
		return "instrument"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is one entry of a plan.
type Step struct {
	Kind StepKind
	Name string
}

func (s Step) String() string {
	return s.Kind.String() + " " + s.Name
}

// Plan is the ordered step list derived from a kind list.
type Plan struct {
	// Kinds lists the recognized kinds, deduplicated, in request order.
	Kinds []string
	Steps []Step
}

// Empty reports whether the plan has nothing to run.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// ParsePlan builds the plan for a comma-separated kind list such as
// "mux,control". Unknown kinds are ignored. A non-empty plan disables
// deduplication first; modern kinds also protect clock and reset ports
// before their passes run.
func ParsePlan(kinds string) Plan {
	var p Plan
	for _, k := range strings.Split(kinds, ",") {
		k = strings.TrimSpace(k)
		if passes.Known(k) && !slices.Contains(p.Kinds, k) {
			p.Kinds = append(p.Kinds, k)
		}
	}
	if len(p.Kinds) == 0 {
		return p
	}

	p.Steps = append(p.Steps, Step{StepTransform, passes.TransformNoDedup})
	if slices.ContainsFunc(p.Kinds, func(k string) bool { return !passes.Legacy(k) }) {
		p.Steps = append(p.Steps, Step{StepTransform, passes.TransformProtectClockReset})
	}
	for _, k := range p.Kinds {
		p.Steps = append(p.Steps, Step{StepPass, k})
	}
	p.Steps = append(p.Steps,
		Step{StepInstrument, "instrument"},
		Step{StepTransform, passes.TransformDedup},
		Step{StepTransform, passes.TransformRemoveDeadReset},
		Step{StepTransform, passes.TransformWiring},
	)
	return p
}

// Run executes the plan of kinds over circuit. An empty plan leaves the
// circuit untouched.
//
// Example:
//
//	res, err := hwcover.Run(ctx, circuit, "toggle,fsm",
//	    hwcover.WithOutputDir("build/generated-src"),
//	)
func Run(ctx context.Context, circuit *Circuit, kinds string, opts ...Option) (*Result, error) {
	if circuit == nil {
		return nil, ErrNoCircuit
	}
	cfg := newConfig(opts)
	plan := ParsePlan(kinds)
	r := newRun(circuit, nil, cfg)
	logger := cfg.logger

	if plan.Empty() {
		if logEnabled(logger, slog.LevelInfo) {
			logger.LogAttrs(ctx, slog.LevelInfo, "no known coverage kind selected",
				slog.String("kinds", kinds))
		}
		return r.result(), nil
	}
	r.indexDiagnostics()

	var pcfg passes.Config
	if cfg.sources != nil {
		pcfg.Sources = cfg.sources
	}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return r.result(), err
		}
		if logEnabled(logger, slog.LevelDebug) {
			logger.LogAttrs(ctx, slog.LevelDebug, "running step",
				slog.String("kind", step.Kind.String()),
				slog.String("name", step.Name))
		}

		switch step.Kind {
		case StepTransform:
			diags, err := r.host.Transform(ctx, step.Name, r.circuit)
			r.cover.AddDiagnostics(diags)
			if err != nil {
				return r.result(), fmt.Errorf("%s: %w", step.Name, err)
			}
		case StepPass:
			pass, _ := passes.Lookup(step.Name, pcfg)
			if err := pass(r.cover); err != nil {
				return r.result(), fmt.Errorf("%s: %w", step.Name, err)
			}
		case StepInstrument:
			if err := r.instrument(ctx); err != nil {
				return r.result(), err
			}
		}

		if err := r.threshold(); err != nil {
			return r.result(), err
		}
	}
	return r.result(), nil
}
