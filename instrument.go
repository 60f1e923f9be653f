package hwcover

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/xfuzz/hwcover/internal/codegen"
	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/passes"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/internal/wiring"
	"github.com/xfuzz/hwcover/ir"
)

// Instrument turns the requests of table into probe instances on circuit,
// plans the global signals the probes need and renders the generated
// files. Unless WithoutArtifacts is given the files are written to the
// output directory and each probe body is attached to the circuit.
//
// The circuit is modified in place. Wiring sources and sinks are left as
// annotations for the host's wiring transform; Run applies it.
//
// Example:
//
//	table := ir.NewCoverTable()
//	table.Add(ir.CoverTarget{Module: "Core", Name: "stall"}, ir.CoverRequest{Kind: ir.CoverNormal})
//	res, err := hwcover.Instrument(ctx, circuit, table, hwcover.WithOutputDir("out"))
func Instrument(ctx context.Context, circuit *ir.Circuit, table *ir.CoverTable, opts ...Option) (*Result, error) {
	if circuit == nil {
		return nil, ErrNoCircuit
	}
	r := newRun(circuit, table, newConfig(opts))
	err := r.instrument(ctx)
	return r.result(), err
}

// run holds the state of one Instrument or Run call.
type run struct {
	cfg     config
	circuit *ir.Circuit
	cover   *cover.Context
	host    Host

	signals   []string
	artifacts []Artifact
	outputDir string
}

func newRun(circuit *ir.Circuit, table *ir.CoverTable, cfg config) *run {
	host := cfg.host
	if host == nil {
		host = passes.NewBuiltin(componentLogger(cfg.logger, "host"))
	}
	cctx := cover.NewContext(circuit, table, cover.Config{
		Diag:            cfg.diagConfig,
		MaxEncodedWidth: cfg.maxEncodedWidth,
	}, componentLogger(cfg.logger, "cover"))
	return &run{cfg: cfg, circuit: circuit, cover: cctx, host: host}
}

func (r *run) result() *Result {
	return &Result{
		Circuit:     r.circuit,
		Descriptors: r.cover.Descriptors,
		Accounting:  r.cover.Accounting,
		Signals:     r.signals,
		Artifacts:   r.artifacts,
		OutputDir:   r.outputDir,
		Diagnostics: r.cover.Diagnostics(),
	}
}

// threshold fails on the first diagnostic at or above FailAt.
func (r *run) threshold() error {
	for _, d := range r.cover.Diagnostics() {
		if r.cfg.diagConfig.ShouldFail(d.Severity) {
			return fmt.Errorf("%w: %s", ErrDiagnosticThreshold, d)
		}
	}
	return nil
}

type phase struct {
	name string
	fn   func(*cover.Context) error
}

var coverPhases = []phase{
	{"collect", cover.Collect},
	{"synthesize", cover.Synthesize},
	{"rewrite", cover.Rewrite},
}

func (r *run) instrument(ctx context.Context) error {
	logger := r.cfg.logger
	if logEnabled(logger, slog.LevelInfo) {
		logger.LogAttrs(ctx, slog.LevelInfo, "instrumenting",
			slog.String("top", r.circuit.Main),
			slog.Int("requests", r.cover.Table.Len()))
	}

	for _, p := range coverPhases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.fn(r.cover); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		if logEnabled(logger, slog.LevelDebug) {
			logger.LogAttrs(ctx, slog.LevelDebug, "phase complete",
				slog.String("phase", p.name),
				slog.Int("descriptors", len(r.cover.Descriptors)),
				slog.Int("points", r.cover.Accounting.Points))
		}
	}

	plan, err := wiring.NewPlan(r.circuit, r.cover.WireRequests, componentLogger(logger, "wiring"))
	if err != nil {
		return fmt.Errorf("wiring: %w", err)
	}
	r.signals = lo.Map(plan.Signals, func(s *wiring.Signal, _ int) string { return s.Port })

	if err := r.threshold(); err != nil {
		return err
	}
	if err := r.cover.Check(); err != nil {
		return err
	}
	if len(r.cover.Descriptors) == 0 {
		if logEnabled(logger, slog.LevelInfo) {
			logger.LogAttrs(ctx, slog.LevelInfo, "nothing covered, no files generated")
		}
		return nil
	}

	bundle, err := codegen.Render(r.cover, r.signals, componentLogger(logger, "codegen"))
	if err != nil {
		return err
	}
	r.artifacts = bundle.Files()
	if r.cfg.noArtifacts {
		return nil
	}

	dir := r.cfg.outputDir
	if dir == "" {
		if dir, err = codegen.DefaultOutputDir(); err != nil {
			return err
		}
	}
	if err := codegen.Write(dir, bundle); err != nil {
		return err
	}
	r.outputDir = dir
	codegen.Attach(r.circuit, bundle)

	if logEnabled(logger, slog.LevelInfo) {
		logger.LogAttrs(ctx, slog.LevelInfo, "instrumentation complete",
			slog.Int("descriptors", len(r.cover.Descriptors)),
			slog.Int("points", r.cover.Accounting.Points),
			slog.Int("signals", len(r.signals)),
			slog.String("dir", dir))
	}
	return nil
}

// indexDiagnostics reports every source key the index disabled.
func (r *run) indexDiagnostics() {
	idx := r.cfg.sources
	if idx == nil {
		return
	}
	for _, key := range idx.DuplicateKeys() {
		r.cover.EmitDiagnostic(types.DiagDuplicateSourceMapping, ir.SeverityMinor, "", "",
			fmt.Sprintf("source %s maps to %d files, locators naming it are not resolved",
				key, len(idx.Candidates(key))))
	}
}
