package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity levels for diagnostics. Lower values are more severe.
type Severity int

const (
	SeverityFatal   Severity = 0 // Cannot continue
	SeveritySevere  Severity = 1 // Coverage map would be inconsistent
	SeverityError   Severity = 2 // Able to continue, should correct
	SeverityMinor   Severity = 3 // Recovered automatically, should check
	SeverityStyle   Severity = 4 // Naming or layout recommendation
	SeverityWarning Severity = 5 // Might be correct under some circumstances
	SeverityInfo    Severity = 6 // Informational notice
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeveritySevere:
		return "severe"
	case SeverityError:
		return "error"
	case SeverityMinor:
		return "minor"
	case SeverityStyle:
		return "style"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// ParseSeverity parses the String form of a severity.
func ParseSeverity(s string) (Severity, error) {
	for sev := SeverityFatal; sev <= SeverityInfo; sev++ {
		if sev.String() == strings.ToLower(s) {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// StrictnessLevel defines preset strictness configurations.
type StrictnessLevel int

const (
	StrictnessStrict     StrictnessLevel = 0 // Report everything
	StrictnessNormal     StrictnessLevel = 3 // Default, report recovered issues
	StrictnessPermissive StrictnessLevel = 5 // Report warnings too, fail only on fatal
	StrictnessSilent     StrictnessLevel = 6 // Report nothing
)

func (l StrictnessLevel) String() string {
	switch l {
	case StrictnessStrict:
		return "strict"
	case StrictnessNormal:
		return "normal"
	case StrictnessPermissive:
		return "permissive"
	case StrictnessSilent:
		return "silent"
	default:
		return fmt.Sprintf("StrictnessLevel(%d)", l)
	}
}

// ParseStrictness parses the String form of a strictness level.
func ParseStrictness(s string) (StrictnessLevel, error) {
	for _, l := range []StrictnessLevel{StrictnessStrict, StrictnessNormal, StrictnessPermissive, StrictnessSilent} {
		if l.String() == strings.ToLower(s) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown strictness level %q", s)
}

// Diagnostic is an issue found while instrumenting a circuit.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g., "missing-port", "cover-literal"
	Message  string
	Module   string // circuit module name
	Line     int    // 1-based source line, 0 if not applicable
	Column   int    // 1-based source column, 0 if not applicable
}

// String returns "[severity] module:line:col: message" with location parts
// omitted when zero.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(d.Severity.String())
	b.WriteString("] ")
	if d.Module != "" {
		b.WriteString(d.Module)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return b.String()
}

// DiagnosticConfig controls strictness and diagnostic filtering.
type DiagnosticConfig struct {
	// Level sets the base strictness level.
	// Diagnostics with severity > Level are suppressed.
	Level StrictnessLevel

	// FailAt sets the severity threshold for failure.
	// If any reported diagnostic has severity <= FailAt, the run fails.
	FailAt Severity

	// Overrides change severity for specific diagnostic codes.
	Overrides map[string]Severity

	// Ignore lists diagnostic codes to suppress entirely.
	// Supports glob patterns (e.g., "raw-*").
	Ignore []string
}

// DefaultConfig returns the default diagnostic configuration (Normal strictness).
func DefaultConfig() DiagnosticConfig {
	return DiagnosticConfig{
		Level:  StrictnessNormal,
		FailAt: SeveritySevere,
	}
}

// StrictConfig reports every diagnostic and fails on recoverable errors.
func StrictConfig() DiagnosticConfig {
	return DiagnosticConfig{
		Level:  StrictnessStrict,
		FailAt: SeverityError,
	}
}

// PermissiveConfig reports warnings but only fails on fatal diagnostics.
// The source-mapping check is ignored since generated designs commonly
// reuse file names across packages.
func PermissiveConfig() DiagnosticConfig {
	return DiagnosticConfig{
		Level:  StrictnessPermissive,
		FailAt: SeverityFatal,
		Ignore: []string{"duplicate-source-mapping"},
	}
}

// ConfigForLevel returns the preset configuration for a strictness level.
func ConfigForLevel(l StrictnessLevel) DiagnosticConfig {
	switch {
	case l <= StrictnessStrict:
		return StrictConfig()
	case l >= StrictnessPermissive:
		cfg := PermissiveConfig()
		cfg.Level = l
		return cfg
	default:
		cfg := DefaultConfig()
		cfg.Level = l
		return cfg
	}
}

// ShouldReport returns true if a diagnostic with the given code and severity
// should be reported under this configuration.
//
// The Level controls reporting threshold:
//   - Level 0 (Strict): Report all diagnostics (Info and above)
//   - Level 3 (Normal): Report Minor and above (0-3)
//   - Level 5 (Permissive): Report Warning and above (0-5)
//   - Level 6 (Silent): Report nothing
func (c DiagnosticConfig) ShouldReport(code string, sev Severity) bool {
	for _, pattern := range c.Ignore {
		if MatchGlob(pattern, code) {
			return false
		}
	}
	sev = c.Effective(code, sev)
	if c.Level >= StrictnessSilent {
		return false
	}
	if c.Level == StrictnessStrict {
		return true
	}
	return int(sev) <= int(c.Level)
}

// Effective returns the severity of code after overrides.
func (c DiagnosticConfig) Effective(code string, sev Severity) Severity {
	if override, ok := c.Overrides[code]; ok {
		return override
	}
	return sev
}

// ShouldFail returns true if a diagnostic with the given severity should
// cause the run to fail.
func (c DiagnosticConfig) ShouldFail(sev Severity) bool {
	return sev <= c.FailAt
}

// MatchGlob performs simple glob matching with * wildcard.
func MatchGlob(pattern, s string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(s, suffix)
	}
	return pattern == s
}

// SourceLocation is a parsed source locator such as "Core.scala 12:3".
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// ParseSourceInfo splits a source locator into file, line and column. An
// empty or unparseable locator returns ok == false.
func ParseSourceInfo(info string) (loc SourceLocation, ok bool) {
	file, pos, found := strings.Cut(strings.TrimSpace(info), " ")
	if !found || file == "" {
		return SourceLocation{}, false
	}
	lineStr, colStr, _ := strings.Cut(pos, ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return SourceLocation{}, false
	}
	loc = SourceLocation{File: file, Line: line}
	if colStr != "" {
		if col, err := strconv.Atoi(colStr); err == nil {
			loc.Column = col
		}
	}
	return loc, true
}

func (l SourceLocation) String() string {
	if l.Column > 0 {
		return fmt.Sprintf("%s %d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s %d", l.File, l.Line)
}
