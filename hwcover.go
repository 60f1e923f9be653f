package hwcover

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/passes"
	"github.com/xfuzz/hwcover/ir"
)

// Errors returned by Instrument and Run.
var (
	// ErrNoCircuit is returned when Instrument or Run is called with a nil
	// circuit.
	ErrNoCircuit = errors.New("no circuit provided")

	// ErrDiagnosticThreshold is returned when a diagnostic reaches the
	// configured FailAt severity.
	ErrDiagnosticThreshold = errors.New("diagnostic severity threshold reached")
)

// Errors of the instrumentation phases, re-exported for errors.Is.
var (
	ErrUnsupportedTargetKind   = cover.ErrUnsupportedTargetKind
	ErrTargetNotFound          = cover.ErrTargetNotFound
	ErrEncodedWidthTooLarge    = cover.ErrEncodedWidthTooLarge
	ErrPointAccountingMismatch = cover.ErrPointAccountingMismatch
	ErrNonConstantType         = ir.ErrNonConstantType
	ErrUnknownTransform        = passes.ErrUnknownTransform
)

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item logging (requests, sites, pass-through ports).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = slog.Level(-8)

// Option configures Instrument and Run.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	diagConfig      ir.DiagnosticConfig
	outputDir       string
	maxEncodedWidth int
	sources         *SourceIndex
	host            Host
	noArtifacts     bool
}

func newConfig(opts []Option) config {
	cfg := config{diagConfig: ir.DefaultConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithDiagnosticConfig sets the diagnostic filtering and failure policy.
// The default is ir.DefaultConfig().
func WithDiagnosticConfig(dc ir.DiagnosticConfig) Option {
	return func(c *config) { c.diagConfig = dc }
}

// WithStrictness replaces the diagnostic configuration with the preset of
// a strictness level.
func WithStrictness(level ir.StrictnessLevel) Option {
	return func(c *config) { c.diagConfig = ir.ConfigForLevel(level) }
}

// WithOutputDir sets the directory generated files are written to. Without
// it the directory derives from $NOOP_HOME.
func WithOutputDir(dir string) Option {
	return func(c *config) { c.outputDir = dir }
}

// WithMaxEncodedWidth bounds the width of encoded-state coverage.
func WithMaxEncodedWidth(w int) Option {
	return func(c *config) { c.maxEncodedWidth = w }
}

// WithSourceIndex sets the index used to resolve source locators for line
// coverage.
func WithSourceIndex(idx *SourceIndex) Option {
	return func(c *config) { c.sources = idx }
}

// WithHost sets the host running cleanup transforms. The default is
// BuiltinHost.
func WithHost(h Host) Option {
	return func(c *config) { c.host = h }
}

// WithoutArtifacts renders the generated files into the result without
// writing them or attaching probe bodies to the circuit.
func WithoutArtifacts() Option {
	return func(c *config) { c.noArtifacts = true }
}

// Host runs the cleanup transforms of the host compiler.
type Host interface {
	// Transform applies the named transform to c in place.
	Transform(ctx context.Context, name string, c *ir.Circuit) ([]ir.Diagnostic, error)
}

// BuiltinHost returns a host implementing the no-dedup, dedup,
// protect-clock-reset, remove-dead-reset and wiring transforms.
func BuiltinHost() Host {
	return passes.NewBuiltin(nil)
}

// Result is the outcome of one instrumentation run.
type Result struct {
	Circuit     *ir.Circuit
	Descriptors []*Descriptor
	Accounting  Accounting

	// Signals lists the top-level ports threaded to requesting modules.
	Signals []string

	// Artifacts lists the generated files, empty when nothing was covered.
	Artifacts []Artifact

	// OutputDir is where Artifacts were written, empty when they were not.
	OutputDir string

	Diagnostics []ir.Diagnostic
}

// Points returns the number of cover points over all descriptors.
func (r *Result) Points() int {
	return r.Accounting.Points
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("component", component))
}

// logEnabled returns true if logging is enabled at the given level.
func logEnabled(logger *slog.Logger, level slog.Level) bool {
	return logger != nil && logger.Enabled(context.Background(), level)
}
