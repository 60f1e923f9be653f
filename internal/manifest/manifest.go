// Package manifest describes the generated coverage tables in a JSON file
// that harness-side tools load without parsing C++.
//
// Every manifest is checked against the embedded CUE schema before it is
// written and after it is read.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// FileName is the manifest file name inside the output directory.
const FileName = "firrtl-cover.json"

// Version is the manifest format version.
const Version = 1

// ErrInvalidManifest is returned when a manifest does not match the schema.
var ErrInvalidManifest = errors.New("invalid coverage manifest")

//go:embed schema.cue
var schemaSource []byte

// Manifest lists the point tables of one instrumented circuit.
type Manifest struct {
	Version int      `json:"version"`
	Top     string   `json:"top"`
	Kinds   []Kind   `json:"kinds"`
	Signals []string `json:"signals,omitempty"`
}

// Kind is one point table, in the order of the firrtl_cover array.
type Kind struct {
	Name        string       `json:"name"`
	Total       int          `json:"total"`
	Feedback    bool         `json:"feedback"`
	Points      []string     `json:"points"`
	Descriptors []Descriptor `json:"descriptors"`
}

// Descriptor is one generated probe module.
type Descriptor struct {
	Module string `json:"module"`
	Width  int    `json:"width"`
	Base   int    `json:"base"`
	Total  int    `json:"total"`
	Sites  []Site `json:"sites"`
}

// Site is one covered binding.
type Site struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Points int    `json:"points"`
	Source string `json:"source,omitempty"`
}

// Build returns the manifest of an instrumented context. The first used
// kind is the feedback kind. signals lists the threaded top-level ports.
func Build(ctx *cover.Context, signals []string) *Manifest {
	m := &Manifest{
		Version: Version,
		Top:     ctx.Circuit.Main,
		Kinds:   []Kind{},
		Signals: signals,
	}
	for i, kind := range ctx.UsedKinds() {
		k := Kind{
			Name:     kind.String(),
			Total:    ctx.KindTotal(kind),
			Feedback: i == 0,
			Points:   []string{},
		}
		for _, d := range ctx.Descriptors {
			if d.Kind != kind {
				continue
			}
			desc := Descriptor{
				Module: d.DefName,
				Width:  d.Width,
				Base:   d.Base,
				Total:  d.Total,
				Sites:  []Site{},
			}
			for _, s := range d.Sites {
				desc.Sites = append(desc.Sites, Site{
					Module: s.Module,
					Name:   s.Name,
					Index:  s.Index(),
					Points: s.Points,
					Source: s.Info,
				})
				k.Points = append(k.Points, s.PointNames()...)
			}
			k.Descriptors = append(k.Descriptors, desc)
		}
		m.Kinds = append(m.Kinds, k)
	}
	return m
}

// Kind returns the table named name.
func (m *Manifest) Kind(name string) (*Kind, bool) {
	for i := range m.Kinds {
		if m.Kinds[i].Name == name {
			return &m.Kinds[i], true
		}
	}
	return nil, false
}

// Feedback returns the feedback table, if any.
func (m *Manifest) Feedback() (*Kind, bool) {
	for i := range m.Kinds {
		if m.Kinds[i].Feedback {
			return &m.Kinds[i], true
		}
	}
	return nil, false
}

// Total returns the number of points over all kinds.
func (m *Manifest) Total() int {
	n := 0
	for _, k := range m.Kinds {
		n += k.Total
	}
	return n
}

// Encode validates m and returns its indented JSON form.
func Encode(m *Manifest) ([]byte, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode reads and validates a manifest.
func Decode(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := decodeStrict(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeStrict(data []byte) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// ValidateJSON checks manifest JSON against the schema.
func ValidateJSON(data []byte) error {
	m, err := decodeStrict(data)
	if err != nil {
		return err
	}
	return Validate(m)
}

// Validate checks m against the schema. The per-point and per-site lists
// are checked directly; the schema sees m with those lists emptied, so
// its cost does not grow with the number of points.
func Validate(m *Manifest) error {
	if err := checkLists(m); err != nil {
		return err
	}
	skeleton, err := json.Marshal(outline(m))
	if err != nil {
		return fmt.Errorf("encoding manifest outline: %w", err)
	}
	return validateSchema(skeleton)
}

func checkLists(m *Manifest) error {
	for _, k := range m.Kinds {
		if len(k.Points) != k.Total {
			return fmt.Errorf("%w: kind %s has total %d but %d point names",
				ErrInvalidManifest, k.Name, k.Total, len(k.Points))
		}
		for _, d := range k.Descriptors {
			for i, s := range d.Sites {
				if s.Module == "" || s.Name == "" || s.Index < 0 || s.Points < 0 {
					return fmt.Errorf("%w: descriptor %s site %d is incomplete",
						ErrInvalidManifest, d.Module, i)
				}
			}
		}
	}
	return nil
}

// outline returns a copy of m without point names and sites.
func outline(m *Manifest) *Manifest {
	out := *m
	out.Kinds = make([]Kind, len(m.Kinds))
	for i, k := range m.Kinds {
		k.Points = []string{}
		descs := make([]Descriptor, len(k.Descriptors))
		for j, d := range k.Descriptors {
			d.Sites = []Site{}
			descs[j] = d
		}
		k.Descriptors = descs
		out.Kinds[i] = k
	}
	return &out
}

type validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

var loadValidator = sync.OnceValues(func() (*validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling manifest schema: %w", schema.Err())
	}
	return &validator{ctx: ctx, schema: schema}, nil
})

func validateSchema(data []byte) error {
	v, err := loadValidator()
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	value := v.ctx.CompileBytes(data)
	if value.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, value.Err())
	}
	def := v.schema.LookupPath(cue.ParsePath("#Manifest"))
	if def.Err() != nil {
		return fmt.Errorf("looking up #Manifest definition: %w", def.Err())
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return nil
}

// KindOf parses the kind name of a table.
func KindOf(k *Kind) (ir.CoverKind, error) {
	return ir.ParseCoverKind(k.Name)
}
