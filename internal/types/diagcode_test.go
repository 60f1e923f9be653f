package types

import "testing"

func TestAllDiagnosticCodesUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, info := range AllDiagnosticCodes() {
		if prev, ok := seen[info.Code]; ok {
			t.Errorf("code %q listed for both %s and %s", info.Code, prev, info.Phase)
		}
		seen[info.Code] = info.Phase
		if info.Phase == "" {
			t.Errorf("code %q has no phase", info.Code)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l Logger
	if l.Enabled(LevelTrace) {
		t.Error("nil logger should not be enabled")
	}
	l.Trace("ignored")
	l.Debug("ignored")
	if Component(nil, "x") != nil {
		t.Error("Component(nil) should stay nil")
	}
}
