// Package cover turns cover requests into probe instances.
//
// # Phases
//
// The package runs the following phases over one Context, in order:
//
//  1. Collect: consume the request table, one PointRequest per entry
//  2. Synthesize: infer widths, skip literals, assign descriptor ranges
//  3. Rewrite: insert a probe instance (and transition detector) after
//     every covered binding, injecting clock and reset when absent
//
// Accounting.Check validates the counters before any artifact is emitted.
//
// # Usage
//
//	ctx := cover.NewContext(circuit, table, cover.Config{}, logger)
//	err := cover.Collect(ctx)
//	...
package cover

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/xfuzz/hwcover/internal/namespace"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// Errors returned by the cover phases. Callers test them with errors.Is.
var (
	ErrUnsupportedTargetKind   = errors.New("cover target is not a named binding")
	ErrTargetNotFound          = errors.New("cover target not found")
	ErrEncodedWidthTooLarge    = errors.New("encoded cover width too large")
	ErrPointAccountingMismatch = errors.New("cover point accounting mismatch")
)

// DefaultMaxEncodedWidth bounds the width of encoded-state coverage, which
// needs 2^W points.
const DefaultMaxEncodedWidth = 16

// Config holds per-invocation settings.
type Config struct {
	Diag            ir.DiagnosticConfig
	MaxEncodedWidth int
}

// PointRequest is one cover request bound to its named binding. It is
// produced once by Collect and consumed exactly once by Synthesize.
type PointRequest struct {
	Module string
	Name   string
	Kind   ir.CoverKind
	Points int // requested point count, Raw only
	Node   *ir.Node

	// Set by Synthesize.
	Type    ir.Type
	Skipped bool
	Site    *Site
}

// Target returns the module and binding name of the request.
func (r *PointRequest) Target() ir.CoverTarget {
	return ir.CoverTarget{Module: r.Module, Name: r.Name}
}

// GlobalWireRequest asks for a signal absent from a module's ports to be
// threaded down from the top module into the local wire Target.
type GlobalWireRequest struct {
	Module string
	Port   string // signal name, also the top-level port name
	Width  int
	Kind   ir.TypeKind
	Target string // local wire driven by the signal
}

// Context holds the working state of one instrumentation run. Nothing in
// it is shared between runs.
type Context struct {
	Circuit *ir.Circuit
	Table   *ir.CoverTable

	// Requests lists collected requests in module order, then body order.
	Requests []*PointRequest

	// Descriptors lists probe descriptors in creation order.
	Descriptors []*Descriptor
	descByKey   map[descKey]*Descriptor

	// WireRequests lists signals to thread from the top module.
	WireRequests []GlobalWireRequest

	Accounting Accounting

	scopes     map[string]*ir.Scope
	namespaces map[string]*namespace.Namespace
	modules    *namespace.Namespace
	ports      map[string]*portLookup

	maxEncodedWidth int

	diagConfig  ir.DiagnosticConfig
	diagnostics []ir.Diagnostic

	types.Logger
}

// NewContext returns a context for instrumenting c with the requests of
// table. The table is consumed by Collect.
func NewContext(c *ir.Circuit, table *ir.CoverTable, cfg Config, logger *slog.Logger) *Context {
	if table == nil {
		table = ir.NewCoverTable()
	}
	maxW := cfg.MaxEncodedWidth
	if maxW <= 0 {
		maxW = DefaultMaxEncodedWidth
	}
	return &Context{
		Circuit:         c,
		Table:           table,
		descByKey:       make(map[descKey]*Descriptor),
		scopes:          make(map[string]*ir.Scope),
		namespaces:      make(map[string]*namespace.Namespace),
		modules:         namespace.ForCircuit(c),
		ports:           make(map[string]*portLookup),
		maxEncodedWidth: maxW,
		diagConfig:      cfg.Diag,
		Logger:          types.Logger{L: logger},
	}
}

// Scope returns the cached type scope of a defined module.
func (c *Context) Scope(m *ir.DefinedModule) *ir.Scope {
	s, ok := c.scopes[m.Name]
	if !ok {
		s = ir.NewScope(c.Circuit, m)
		c.scopes[m.Name] = s
	}
	return s
}

// Namespace returns the cached fresh-name allocator of a defined module.
func (c *Context) Namespace(m *ir.DefinedModule) *namespace.Namespace {
	ns, ok := c.namespaces[m.Name]
	if !ok {
		ns = namespace.ForModule(m)
		c.namespaces[m.Name] = ns
	}
	return ns
}

// EmitDiagnostic records a diagnostic if the configuration reports it.
// info is the statement source locator, possibly empty.
func (c *Context) EmitDiagnostic(code string, severity ir.Severity, module, info, message string) {
	if !c.diagConfig.ShouldReport(code, severity) {
		return
	}
	loc, _ := ir.ParseSourceInfo(info)
	c.diagnostics = append(c.diagnostics, ir.Diagnostic{
		Severity: c.diagConfig.Effective(code, severity),
		Code:     code,
		Message:  message,
		Module:   module,
		Line:     loc.Line,
		Column:   loc.Column,
	})
}

// AddDiagnostics records diagnostics produced outside the context, applying
// the same filtering as EmitDiagnostic.
func (c *Context) AddDiagnostics(diags []ir.Diagnostic) {
	for _, d := range diags {
		if c.diagConfig.ShouldReport(d.Code, d.Severity) {
			d.Severity = c.diagConfig.Effective(d.Code, d.Severity)
			c.diagnostics = append(c.diagnostics, d)
		}
	}
}

// Diagnostics returns all diagnostics collected so far.
func (c *Context) Diagnostics() []ir.Diagnostic {
	return c.diagnostics
}

// MaxEncodedWidth returns the widest binding accepted for encoded-state
// coverage.
func (c *Context) MaxEncodedWidth() int {
	return c.maxEncodedWidth
}

// DiagnosticConfig returns the active strictness and filtering configuration.
func (c *Context) DiagnosticConfig() ir.DiagnosticConfig {
	return c.diagConfig
}

// Accounting holds the request counters checked before codegen.
type Accounting struct {
	Requested   int // requests collected
	Synthesized int // requests assigned a descriptor range
	Skipped     int // requests on literal bindings
	Rewritten   int // probe instances inserted
	Points      int // points assigned across all descriptors
}

// Check verifies that every request was either synthesized or skipped and
// that every synthesized request was rewritten.
func (a Accounting) Check() error {
	if a.Synthesized+a.Skipped != a.Requested {
		return fmt.Errorf("%w: %d synthesized + %d skipped != %d requested",
			ErrPointAccountingMismatch, a.Synthesized, a.Skipped, a.Requested)
	}
	if a.Rewritten != a.Synthesized {
		return fmt.Errorf("%w: %d rewritten != %d synthesized",
			ErrPointAccountingMismatch, a.Rewritten, a.Synthesized)
	}
	return nil
}

// Check verifies the context counters against its descriptors.
func (c *Context) Check() error {
	if err := c.Accounting.Check(); err != nil {
		return err
	}
	total := 0
	for _, d := range c.Descriptors {
		sum := 0
		for _, s := range d.Sites {
			sum += s.Points
		}
		if sum != d.Total {
			return fmt.Errorf("%w: descriptor %s sites hold %d points, total %d",
				ErrPointAccountingMismatch, d.DefName, sum, d.Total)
		}
		total += d.Total
	}
	if total != c.Accounting.Points {
		return fmt.Errorf("%w: descriptors hold %d points, accounted %d",
			ErrPointAccountingMismatch, total, c.Accounting.Points)
	}
	return nil
}
