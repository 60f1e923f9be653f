// Package codegen renders the native point tables and the Verilog probe
// bodies of an instrumented circuit.
//
// Rendering happens entirely in memory. Files are written only after every
// artifact rendered and the accounting check passed, so a failed run
// leaves no partial output behind.
package codegen

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/manifest"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// BuildRootEnv names the environment variable holding the build root.
const BuildRootEnv = "NOOP_HOME"

// ErrNoOutputDir is returned when no output directory is configured and
// the build root is unset.
var ErrNoOutputDir = errors.New("no output directory: set " + BuildRootEnv + " or configure one")

// Artifact is one rendered file.
type Artifact struct {
	Name    string // file name relative to the output directory
	Content []byte
}

// Bundle holds every artifact of one run.
type Bundle struct {
	Header   Artifact
	Source   Artifact
	Manifest Artifact
	Probes   []Artifact // one per descriptor, in descriptor order
}

// Files returns every artifact in write order.
func (b *Bundle) Files() []Artifact {
	if b == nil {
		return nil
	}
	out := []Artifact{b.Header, b.Source, b.Manifest}
	return append(out, b.Probes...)
}

// DefaultOutputDir returns $NOOP_HOME/build/generated-src.
func DefaultOutputDir() (string, error) {
	root := os.Getenv(BuildRootEnv)
	if root == "" {
		return "", ErrNoOutputDir
	}
	return filepath.Join(root, "build", "generated-src"), nil
}

// Render checks the accounting of ctx and renders all artifacts. signals
// lists the top-level ports threaded for missing clocks and resets.
func Render(ctx *cover.Context, signals []string, logger *slog.Logger) (*Bundle, error) {
	log := types.Logger{L: logger}
	if err := ctx.Check(); err != nil {
		return nil, err
	}

	kinds := ctx.UsedKinds()
	data, err := manifest.Encode(manifest.Build(ctx, signals))
	if err != nil {
		return nil, err
	}
	b := &Bundle{
		Header:   Artifact{Name: HeaderFile, Content: renderHeader(kinds, signals)},
		Source:   Artifact{Name: SourceFile, Content: renderSource(ctx, kinds)},
		Manifest: Artifact{Name: manifest.FileName, Content: data},
	}
	for _, d := range ctx.Descriptors {
		b.Probes = append(b.Probes, Artifact{
			Name:    VerilogFile(d),
			Content: renderProbe(d, ctx.KindTotal(d.Kind)),
		})
		if log.TraceEnabled() {
			log.Trace("rendered probe body",
				slog.String("module", d.DefName),
				slog.Int("width", d.Width),
				slog.Int("sites", len(d.Sites)))
		}
	}

	log.Log(slog.LevelDebug, "rendered artifacts",
		slog.Int("kinds", len(kinds)),
		slog.Int("probes", len(b.Probes)))
	return b, nil
}

// Attach records every probe body as an inline body annotation on c, keyed
// by descriptor module name.
func Attach(c *ir.Circuit, b *Bundle) {
	for _, p := range b.Probes {
		c.Annotate(ir.InlineBodyAnnotation{
			DefName:  p.Name[:len(p.Name)-len(filepath.Ext(p.Name))],
			Filename: p.Name,
			Text:     string(p.Content),
		})
	}
}

// Write stores every artifact of b under dir, creating it if needed.
func Write(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, a := range b.Files() {
		path := filepath.Join(dir, a.Name)
		if err := os.WriteFile(path, a.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
