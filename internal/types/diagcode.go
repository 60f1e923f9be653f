package types

import "github.com/xfuzz/hwcover/ir"

// Diagnostic codes emitted by the instrumentation phases.
// Centralizing these prevents silent breakage from typos in string literals.

// Hierarchy diagnostic codes.
const (
	DiagUnknownModule = "unknown-module"
	DiagInstanceCycle = "instance-cycle"
)

// Synthesis and rewrite diagnostic codes.
const (
	DiagCoverLiteral       = "cover-literal"
	DiagRawPointsDefault   = "raw-points-default"
	DiagMissingPort        = "missing-port"
	DiagAmbiguousPortMatch = "ambiguous-port-match"
)

// Wiring diagnostic codes.
const (
	DiagUnreachableSink = "unreachable-sink"
)

// Selection and source diagnostic codes.
const (
	DiagDuplicateSourceMapping = "duplicate-source-mapping"
	DiagUnresolvedSource       = "unresolved-source"
	DiagUnpairedHandshake      = "unpaired-handshake"
)

// AllDiagnosticCodes returns all known diagnostic codes grouped by phase,
// with the severity each is emitted at.
func AllDiagnosticCodes() []DiagCodeInfo {
	return []DiagCodeInfo{
		// Hierarchy
		{Code: DiagUnknownModule, Phase: "hierarchy", Severity: ir.SeverityError},
		{Code: DiagInstanceCycle, Phase: "hierarchy", Severity: ir.SeveritySevere},
		// Synthesis
		{Code: DiagCoverLiteral, Phase: "synth", Severity: ir.SeverityInfo},
		{Code: DiagRawPointsDefault, Phase: "synth", Severity: ir.SeverityWarning},
		// Rewrite
		{Code: DiagMissingPort, Phase: "rewrite", Severity: ir.SeverityMinor},
		{Code: DiagAmbiguousPortMatch, Phase: "rewrite", Severity: ir.SeverityMinor},
		// Wiring
		{Code: DiagUnreachableSink, Phase: "wiring", Severity: ir.SeverityMinor},
		// Passes
		{Code: DiagDuplicateSourceMapping, Phase: "source", Severity: ir.SeverityMinor},
		{Code: DiagUnresolvedSource, Phase: "passes", Severity: ir.SeverityInfo},
		{Code: DiagUnpairedHandshake, Phase: "passes", Severity: ir.SeverityStyle},
	}
}

// DiagCodeInfo describes a diagnostic code and the phase that emits it.
type DiagCodeInfo struct {
	Code     string
	Phase    string
	Severity ir.Severity
}
