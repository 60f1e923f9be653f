package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xfuzz/hwcover"
	"github.com/xfuzz/hwcover/ir"
)

// fileConfig is the YAML config file read with -c.
//
//	kinds: mux,control
//	output_dir: build/generated-src
//	strictness: normal
//	fail_at: severe
//	max_encoded_width: 16
//	sources: [src/main/scala]
//	ignore: [raw-*]
//	overrides:
//	  missing-port: info
type fileConfig struct {
	Kinds           string            `yaml:"kinds"`
	OutputDir       string            `yaml:"output_dir"`
	Strictness      string            `yaml:"strictness"`
	FailAt          string            `yaml:"fail_at"`
	MaxEncodedWidth int               `yaml:"max_encoded_width"`
	Sources         []string          `yaml:"sources"`
	Ignore          []string          `yaml:"ignore"`
	Overrides       map[string]string `yaml:"overrides"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Strictness: ir.StrictnessNormal.String(),
	}
}

// loadFileConfig reads the config at path over the defaults. An empty
// path returns the defaults.
func loadFileConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

// diagnosticConfig builds the diagnostic policy of the config.
func (fc fileConfig) diagnosticConfig() (ir.DiagnosticConfig, error) {
	level, err := ir.ParseStrictness(fc.Strictness)
	if err != nil {
		return ir.DiagnosticConfig{}, err
	}
	dc := ir.ConfigForLevel(level)
	if fc.FailAt != "" {
		if dc.FailAt, err = ir.ParseSeverity(fc.FailAt); err != nil {
			return dc, fmt.Errorf("fail_at: %w", err)
		}
	}
	dc.Ignore = append(dc.Ignore, fc.Ignore...)
	if len(fc.Overrides) > 0 {
		dc.Overrides = make(map[string]ir.Severity, len(fc.Overrides))
		for code, s := range fc.Overrides {
			sev, err := ir.ParseSeverity(s)
			if err != nil {
				return dc, fmt.Errorf("override %s: %w", code, err)
			}
			dc.Overrides[code] = sev
		}
	}
	return dc, nil
}

// sourceIndex indexes the configured source trees, or returns nil when
// none is configured.
func (fc fileConfig) sourceIndex(extra []string) (*hwcover.SourceIndex, error) {
	roots := append(append([]string(nil), fc.Sources...), extra...)
	if len(roots) == 0 {
		return nil, nil
	}
	var sources []hwcover.Source
	for _, root := range roots {
		src, err := hwcover.DirTree(root)
		if err != nil {
			return nil, fmt.Errorf("source path %s: %w", root, err)
		}
		sources = append(sources, src)
	}
	return hwcover.NewSourceIndex(hwcover.Multi(sources...))
}
