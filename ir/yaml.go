package ir

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// circuitFile is the on-disk form of a Circuit. Statements, modules and
// annotations are tagged with a kind field; expressions and types are
// written in their Format text form.
type circuitFile struct {
	Main        string           `yaml:"main"`
	Modules     []moduleFile     `yaml:"modules"`
	Annotations []annotationFile `yaml:"annotations,omitempty"`
}

type moduleFile struct {
	Kind    string      `yaml:"kind"`
	Name    string      `yaml:"name"`
	DefName string      `yaml:"defname,omitempty"`
	Ports   []portFile  `yaml:"ports,omitempty"`
	Params  []paramFile `yaml:"params,omitempty"`
	Body    []stmtFile  `yaml:"body,omitempty"`
}

type portFile struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
	Type string `yaml:"type"`
}

type paramFile struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type stmtFile struct {
	Kind    string     `yaml:"kind"`
	Name    string     `yaml:"name,omitempty"`
	Type    string     `yaml:"type,omitempty"`
	Module  string     `yaml:"module,omitempty"`
	Value   string     `yaml:"value,omitempty"`
	Loc     string     `yaml:"loc,omitempty"`
	Clock   string     `yaml:"clock,omitempty"`
	Reset   string     `yaml:"reset,omitempty"`
	Init    string     `yaml:"init,omitempty"`
	Depth   int        `yaml:"depth,omitempty"`
	Readers []string   `yaml:"readers,omitempty"`
	Writers []string   `yaml:"writers,omitempty"`
	Pred    string     `yaml:"pred,omitempty"`
	Then    []stmtFile `yaml:"then,omitempty"`
	Else    []stmtFile `yaml:"else,omitempty"`
	Stmts   []stmtFile `yaml:"stmts,omitempty"`
	Info    string     `yaml:"info,omitempty"`
}

type annotationFile struct {
	Kind     string `yaml:"kind"`
	Module   string `yaml:"module,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Port     string `yaml:"port,omitempty"`
	Target   string `yaml:"target,omitempty"`
	Signal   string `yaml:"signal,omitempty"`
	DefName  string `yaml:"defname,omitempty"`
	Filename string `yaml:"filename,omitempty"`
	Text     string `yaml:"text,omitempty"`
}

// DecodeCircuit reads a circuit from its YAML form.
func DecodeCircuit(r io.Reader) (*Circuit, error) {
	var f circuitFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding circuit: %w", err)
	}
	c := &Circuit{Main: f.Main}
	for _, mf := range f.Modules {
		m, err := decodeModule(mf)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", mf.Name, err)
		}
		c.Modules = append(c.Modules, m)
	}
	for i, af := range f.Annotations {
		a, err := decodeAnnotation(af)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		c.Annotations = append(c.Annotations, a)
	}
	return c, nil
}

// EncodeCircuit writes c in its YAML form.
func EncodeCircuit(w io.Writer, c *Circuit) error {
	f := circuitFile{Main: c.Main}
	for _, m := range c.Modules {
		f.Modules = append(f.Modules, encodeModule(m))
	}
	for _, a := range c.Annotations {
		f.Annotations = append(f.Annotations, encodeAnnotation(a))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encoding circuit: %w", err)
	}
	return enc.Close()
}

func decodeModule(mf moduleFile) (Module, error) {
	ports := make([]Port, 0, len(mf.Ports))
	for _, pf := range mf.Ports {
		t, err := ParseType(pf.Type)
		if err != nil {
			return nil, fmt.Errorf("port %s: %w", pf.Name, err)
		}
		dir := Input
		switch pf.Dir {
		case "input", "":
		case "output":
			dir = Output
		default:
			return nil, fmt.Errorf("port %s: unknown direction %q", pf.Name, pf.Dir)
		}
		ports = append(ports, Port{Name: pf.Name, Direction: dir, Type: t})
	}
	switch mf.Kind {
	case "defined", "":
		body, err := decodeStmts(mf.Body)
		if err != nil {
			return nil, err
		}
		return &DefinedModule{Name: mf.Name, Ports: ports, Body: NewBlock(body...)}, nil
	case "opaque":
		m := &OpaqueModule{Name: mf.Name, DefName: mf.DefName, Ports: ports}
		for _, p := range mf.Params {
			m.Params = append(m.Params, Param(p))
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown module kind %q", mf.Kind)
	}
}

func encodeModule(m Module) moduleFile {
	mf := moduleFile{Name: m.ModuleName()}
	for _, p := range m.ModulePorts() {
		mf.Ports = append(mf.Ports, portFile{Name: p.Name, Dir: p.Direction.String(), Type: p.Type.String()})
	}
	switch m := m.(type) {
	case *DefinedModule:
		mf.Kind = "defined"
		if m.Body != nil {
			mf.Body = encodeStmts(m.Body.Stmts)
		}
	case *OpaqueModule:
		mf.Kind = "opaque"
		mf.DefName = m.DefName
		for _, p := range m.Params {
			mf.Params = append(mf.Params, paramFile(p))
		}
	}
	return mf
}

func decodeStmts(files []stmtFile) ([]Statement, error) {
	out := make([]Statement, 0, len(files))
	for i, sf := range files {
		s, err := decodeStmt(sf)
		if err != nil {
			return nil, fmt.Errorf("statement %d (%s %s): %w", i, sf.Kind, sf.Name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalExpr(s string) (Expression, error) {
	if s == "" {
		return nil, nil
	}
	return ParseExpression(s)
}

func decodeStmt(sf stmtFile) (Statement, error) {
	switch sf.Kind {
	case "wire":
		t, err := ParseType(sf.Type)
		if err != nil {
			return nil, err
		}
		return &Wire{Name: sf.Name, Type: t, Info: sf.Info}, nil
	case "register":
		t, err := ParseType(sf.Type)
		if err != nil {
			return nil, err
		}
		r := &Register{Name: sf.Name, Type: t, Info: sf.Info}
		if r.Clock, err = ParseExpression(sf.Clock); err != nil {
			return nil, err
		}
		if r.Reset, err = optionalExpr(sf.Reset); err != nil {
			return nil, err
		}
		if r.Init, err = optionalExpr(sf.Init); err != nil {
			return nil, err
		}
		return r, nil
	case "instance":
		return &Instance{Name: sf.Name, Module: sf.Module, Info: sf.Info}, nil
	case "memory":
		t, err := ParseType(sf.Type)
		if err != nil {
			return nil, err
		}
		return &Memory{Name: sf.Name, Type: t, Depth: sf.Depth, Readers: sf.Readers, Writers: sf.Writers, Info: sf.Info}, nil
	case "node":
		v, err := ParseExpression(sf.Value)
		if err != nil {
			return nil, err
		}
		return &Node{Name: sf.Name, Value: v, Info: sf.Info}, nil
	case "connect":
		loc, err := ParseExpression(sf.Loc)
		if err != nil {
			return nil, err
		}
		v, err := ParseExpression(sf.Value)
		if err != nil {
			return nil, err
		}
		return &Connect{Loc: loc, Value: v, Info: sf.Info}, nil
	case "when":
		pred, err := ParseExpression(sf.Pred)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmts(sf.Then)
		if err != nil {
			return nil, err
		}
		c := &Conditional{Pred: pred, Then: NewBlock(then...), Info: sf.Info}
		if len(sf.Else) > 0 {
			els, err := decodeStmts(sf.Else)
			if err != nil {
				return nil, err
			}
			c.Else = NewBlock(els...)
		}
		return c, nil
	case "block":
		stmts, err := decodeStmts(sf.Stmts)
		if err != nil {
			return nil, err
		}
		return &Block{Stmts: stmts, Info: sf.Info}, nil
	default:
		return nil, fmt.Errorf("unknown statement kind %q", sf.Kind)
	}
}

func formatOptional(e Expression) string {
	if e == nil {
		return ""
	}
	return Format(e)
}

func encodeStmts(stmts []Statement) []stmtFile {
	out := make([]stmtFile, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, encodeStmt(s))
	}
	return out
}

func encodeStmt(s Statement) stmtFile {
	sf := stmtFile{Info: s.SourceInfo()}
	switch s := s.(type) {
	case *Wire:
		sf.Kind, sf.Name, sf.Type = "wire", s.Name, s.Type.String()
	case *Register:
		sf.Kind, sf.Name, sf.Type = "register", s.Name, s.Type.String()
		sf.Clock = formatOptional(s.Clock)
		sf.Reset = formatOptional(s.Reset)
		sf.Init = formatOptional(s.Init)
	case *Instance:
		sf.Kind, sf.Name, sf.Module = "instance", s.Name, s.Module
	case *Memory:
		sf.Kind, sf.Name, sf.Type = "memory", s.Name, s.Type.String()
		sf.Depth, sf.Readers, sf.Writers = s.Depth, s.Readers, s.Writers
	case *Node:
		sf.Kind, sf.Name, sf.Value = "node", s.Name, Format(s.Value)
	case *Connect:
		sf.Kind, sf.Loc, sf.Value = "connect", Format(s.Loc), Format(s.Value)
	case *Conditional:
		sf.Kind, sf.Pred = "when", Format(s.Pred)
		if s.Then != nil {
			sf.Then = encodeStmts(s.Then.Stmts)
		}
		if s.Else != nil {
			sf.Else = encodeStmts(s.Else.Stmts)
		}
	case *Block:
		sf.Kind, sf.Stmts = "block", encodeStmts(s.Stmts)
	}
	return sf
}

func decodeAnnotation(af annotationFile) (Annotation, error) {
	switch af.Kind {
	case "no-dedup":
		return NoDedupAnnotation{Module: af.Module}, nil
	case "dont-touch":
		return DontTouchAnnotation{Module: af.Module, Name: af.Name}, nil
	case "wiring-source":
		return WiringSourceAnnotation{Module: af.Module, Port: af.Port, Signal: af.Signal}, nil
	case "wiring-sink":
		return WiringSinkAnnotation{Module: af.Module, Target: af.Target, Signal: af.Signal}, nil
	case "inline-body":
		return InlineBodyAnnotation{DefName: af.DefName, Filename: af.Filename, Text: af.Text}, nil
	default:
		return nil, fmt.Errorf("unknown annotation kind %q", af.Kind)
	}
}

func encodeAnnotation(a Annotation) annotationFile {
	switch a := a.(type) {
	case NoDedupAnnotation:
		return annotationFile{Kind: "no-dedup", Module: a.Module}
	case DontTouchAnnotation:
		return annotationFile{Kind: "dont-touch", Module: a.Module, Name: a.Name}
	case WiringSourceAnnotation:
		return annotationFile{Kind: "wiring-source", Module: a.Module, Port: a.Port, Signal: a.Signal}
	case WiringSinkAnnotation:
		return annotationFile{Kind: "wiring-sink", Module: a.Module, Target: a.Target, Signal: a.Signal}
	case InlineBodyAnnotation:
		return annotationFile{Kind: "inline-body", DefName: a.DefName, Filename: a.Filename, Text: a.Text}
	default:
		return annotationFile{Kind: fmt.Sprintf("%T", a)}
	}
}

// coverFile is the on-disk form of a CoverTable.
type coverFile struct {
	Covers []coverEntry `yaml:"covers"`
}

type coverEntry struct {
	Module string `yaml:"module"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Points int    `yaml:"points,omitempty"`
}

// DecodeCoverTable reads a cover request table. Entry order is kept.
func DecodeCoverTable(r io.Reader) (*CoverTable, error) {
	var f coverFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding cover table: %w", err)
	}
	t := NewCoverTable()
	for i, e := range f.Covers {
		kind, err := ParseCoverKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("cover entry %d (%s.%s): %w", i, e.Module, e.Name, err)
		}
		t.Add(CoverTarget{Module: e.Module, Name: e.Name}, CoverRequest{Kind: kind, Points: e.Points})
	}
	return t, nil
}

// EncodeCoverTable writes the pending entries of t.
func EncodeCoverTable(w io.Writer, t *CoverTable) error {
	var f coverFile
	for _, target := range t.Pending() {
		for _, req := range t.entries[target] {
			f.Covers = append(f.Covers, coverEntry{
				Module: target.Module,
				Name:   target.Name,
				Kind:   req.Kind.String(),
				Points: req.Points,
			})
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encoding cover table: %w", err)
	}
	return enc.Close()
}
