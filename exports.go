// Package hwcover instruments a hardware circuit IR with coverage probes.
//
// A run turns cover requests on named bindings into probe instances, one
// shared probe module per (kind, width) pair, and emits the C++ point
// tables, the Verilog probe bodies and a JSON manifest that a fuzzing
// harness links against.
//
// Example:
//
//	res, err := hwcover.Run(ctx, circuit, "mux,control",
//	    hwcover.WithOutputDir("build/generated-src"),
//	    hwcover.WithLogger(slog.Default()),
//	)
package hwcover

import (
	"github.com/xfuzz/hwcover/internal/codegen"
	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// Type aliases for the public API.

// Circuit is the IR of a whole design.
type Circuit = ir.Circuit

// CoverTable holds pending cover requests keyed by binding.
type CoverTable = ir.CoverTable

// Descriptor is one generated probe module and its sites.
type Descriptor = cover.Descriptor

// Site is one covered binding inside a descriptor.
type Site = cover.Site

// Accounting holds the request counters of a run.
type Accounting = cover.Accounting

// Artifact is one generated file.
type Artifact = codegen.Artifact

// Diagnostic represents an issue found during instrumentation.
type Diagnostic = ir.Diagnostic

// Severity for diagnostics.
type Severity = ir.Severity

// DiagnosticConfig controls diagnostic reporting and failure.
type DiagnosticConfig = ir.DiagnosticConfig

// StrictnessLevel selects a diagnostic preset.
type StrictnessLevel = ir.StrictnessLevel
