package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfuzz/hwcover/ir"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileConfigDefaults(t *testing.T) {
	cfg, err := loadFileConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultFileConfig(), cfg)

	dc, err := cfg.diagnosticConfig()
	require.NoError(t, err)
	assert.Equal(t, ir.DefaultConfig(), dc)
}

func TestLoadFileConfigEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := loadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "normal", cfg.Strictness)
}

func TestLoadFileConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hwcover.yaml", `
kinds: mux,control
output_dir: out
strictness: permissive
fail_at: error
max_encoded_width: 12
sources: [rtl]
ignore: [raw-*]
overrides:
  missing-port: info
`)
	cfg, err := loadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mux,control", cfg.Kinds)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 12, cfg.MaxEncodedWidth)
	assert.Equal(t, []string{"rtl"}, cfg.Sources)

	dc, err := cfg.diagnosticConfig()
	require.NoError(t, err)
	assert.Equal(t, ir.StrictnessPermissive, dc.Level)
	assert.Equal(t, ir.SeverityError, dc.FailAt)
	assert.Equal(t, []string{"duplicate-source-mapping", "raw-*"}, dc.Ignore)
	assert.Equal(t, map[string]ir.Severity{"missing-port": ir.SeverityInfo}, dc.Overrides)
}

func TestLoadFileConfigRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "kinds: mux\ncolour: blue\n")
	_, err := loadFileConfig(path)
	assert.Error(t, err)
}

func TestLoadFileConfigMissing(t *testing.T) {
	_, err := loadFileConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiagnosticConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  fileConfig
	}{
		{"strictness", fileConfig{Strictness: "lenient"}},
		{"fail_at", fileConfig{Strictness: "normal", FailAt: "panic"}},
		{"override", fileConfig{Strictness: "normal", Overrides: map[string]string{"x": "loud"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.diagnosticConfig()
			assert.Error(t, err)
		})
	}
}

func TestSourceIndex(t *testing.T) {
	idx, err := defaultFileConfig().sourceIndex(nil)
	require.NoError(t, err)
	assert.Nil(t, idx)

	dir := t.TempDir()
	writeFile(t, dir, "src/Core.scala", "class Core\n")
	writeFile(t, dir, "src/util/Queue.scala", "class Queue\n")

	cfg := fileConfig{Sources: []string{filepath.Join(dir, "src")}}
	idx, err = cfg.sourceIndex(nil)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 2, idx.Len())

	_, err = cfg.sourceIndex([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
