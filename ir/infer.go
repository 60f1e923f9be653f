package ir

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrNonConstantType is returned when the width of an expression cannot be
// determined statically.
var ErrNonConstantType = errors.New("width cannot be statically determined")

// Scope resolves names declared in one module to their types.
type Scope struct {
	circuit *Circuit
	module  *DefinedModule

	decls     map[string]Type
	nodes     map[string]Expression
	instances map[string]string
	memories  map[string]*Memory

	// resolving guards against cyclic node definitions.
	resolving map[string]bool
}

// NewScope indexes the declarations of m. The circuit is used to type
// instance ports; it may be nil when m has no instances.
func NewScope(c *Circuit, m *DefinedModule) *Scope {
	s := &Scope{
		circuit:   c,
		module:    m,
		decls:     make(map[string]Type),
		nodes:     make(map[string]Expression),
		instances: make(map[string]string),
		memories:  make(map[string]*Memory),
		resolving: make(map[string]bool),
	}
	for _, p := range m.Ports {
		s.decls[p.Name] = p.Type
	}
	Walk(m.Body, func(st Statement) bool {
		switch st := st.(type) {
		case *Wire:
			s.decls[st.Name] = st.Type
		case *Register:
			s.decls[st.Name] = st.Type
		case *Node:
			s.nodes[st.Name] = st.Value
		case *Instance:
			s.instances[st.Name] = st.Module
		case *Memory:
			s.memories[st.Name] = st
		}
		return true
	})
	return s
}

// Module returns the module this scope indexes.
func (s *Scope) Module() *DefinedModule {
	return s.module
}

// Declare records a new name, used when a pass adds declarations after
// the scope was built.
func (s *Scope) Declare(name string, t Type) {
	s.decls[name] = t
}

// DeclareNode records a new named binding.
func (s *Scope) DeclareNode(name string, value Expression) {
	s.nodes[name] = value
}

// Lookup returns the type of a reference name.
func (s *Scope) Lookup(name string) (Type, error) {
	if t, ok := s.decls[name]; ok {
		return t, nil
	}
	if v, ok := s.nodes[name]; ok {
		if s.resolving[name] {
			return Type{}, fmt.Errorf("%w: node %q is defined in terms of itself", ErrNonConstantType, name)
		}
		s.resolving[name] = true
		defer delete(s.resolving, name)
		t, err := InferType(s, v)
		if err != nil {
			return Type{}, err
		}
		s.decls[name] = t
		return t, nil
	}
	head, rest, dotted := strings.Cut(name, ".")
	if dotted {
		if mod, ok := s.instances[head]; ok {
			return s.lookupInstancePort(head, mod, rest)
		}
		if mem, ok := s.memories[head]; ok {
			return lookupMemoryField(mem, rest)
		}
	}
	return Type{}, fmt.Errorf("%w: unknown reference %q in module %s", ErrNonConstantType, name, s.module.Name)
}

func (s *Scope) lookupInstancePort(inst, mod, port string) (Type, error) {
	if s.circuit == nil {
		return Type{}, fmt.Errorf("%w: instance %s has no circuit context", ErrNonConstantType, inst)
	}
	m, ok := s.circuit.Module(mod)
	if !ok {
		return Type{}, fmt.Errorf("%w: instance %s of unknown module %s", ErrNonConstantType, inst, mod)
	}
	p, ok := findPort(m.ModulePorts(), port)
	if !ok {
		return Type{}, fmt.Errorf("%w: module %s has no port %q", ErrNonConstantType, mod, port)
	}
	return p.Type, nil
}

func lookupMemoryField(mem *Memory, rest string) (Type, error) {
	port, field, ok := strings.Cut(rest, ".")
	if !ok {
		return Type{}, fmt.Errorf("%w: memory reference %s.%s has no field", ErrNonConstantType, mem.Name, rest)
	}
	isReader := containsString(mem.Readers, port)
	isWriter := containsString(mem.Writers, port)
	if !isReader && !isWriter {
		return Type{}, fmt.Errorf("%w: memory %s has no port %q", ErrNonConstantType, mem.Name, port)
	}
	switch field {
	case "addr":
		return UInt(AddressWidth(mem.Depth)), nil
	case "en":
		return UInt(1), nil
	case "clk":
		return Clock(), nil
	case "data":
		return mem.Type, nil
	case "mask":
		if isWriter {
			return UInt(1), nil
		}
	}
	return Type{}, fmt.Errorf("%w: memory port %s.%s has no field %q", ErrNonConstantType, mem.Name, port, field)
}

// AddressWidth is the number of address bits needed for depth entries.
func AddressWidth(depth int) int {
	if depth <= 1 {
		return 1
	}
	return bits.Len(uint(depth - 1))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// InferWidth returns the bit width of e.
func InferWidth(s *Scope, e Expression) (int, error) {
	t, err := InferType(s, e)
	if err != nil {
		return 0, err
	}
	return t.Width, nil
}

// InferType returns the type of e. Every width must be statically known.
func InferType(s *Scope, e Expression) (Type, error) {
	var t Type
	var err error
	switch e := e.(type) {
	case *Ref:
		t, err = s.Lookup(e.Name)
	case *Literal:
		t = literalType(e)
	case *Mux:
		t, err = inferMux(s, e)
	case *PrimOp:
		t, err = inferPrimOp(s, e)
	default:
		return Type{}, fmt.Errorf("%w: unsupported expression %T", ErrNonConstantType, e)
	}
	if err != nil {
		return Type{}, err
	}
	if !t.Known() {
		return Type{}, fmt.Errorf("%w: %s has uninferred type %s", ErrNonConstantType, Format(e), t)
	}
	return t, nil
}

func literalType(l *Literal) Type {
	kind := KindUInt
	if l.Signed {
		kind = KindSInt
	}
	if l.Width >= 0 {
		return Type{Kind: kind, Width: l.Width}
	}
	w := l.Value.BitLen()
	if l.Signed {
		w++
	}
	return Type{Kind: kind, Width: max(w, 1)}
}

func inferMux(s *Scope, m *Mux) (Type, error) {
	if _, err := InferType(s, m.Cond); err != nil {
		return Type{}, err
	}
	hi, err := InferType(s, m.High)
	if err != nil {
		return Type{}, err
	}
	lo, err := InferType(s, m.Low)
	if err != nil {
		return Type{}, err
	}
	return Type{Kind: hi.Kind, Width: max(hi.Width, lo.Width)}, nil
}

func inferPrimOp(s *Scope, p *PrimOp) (Type, error) {
	args := make([]Type, len(p.Args))
	for i, a := range p.Args {
		t, err := InferType(s, a)
		if err != nil {
			return Type{}, err
		}
		args[i] = t
	}
	need := func(nargs, nconsts int) error {
		if len(args) != nargs || len(p.Consts) != nconsts {
			return fmt.Errorf("%w: %s expects %d arguments and %d constants", ErrNonConstantType, p.Op, nargs, nconsts)
		}
		return nil
	}
	arith := func(a Type) TypeKind {
		if a.Kind == KindSInt {
			return KindSInt
		}
		return KindUInt
	}

	switch p.Op {
	case OpAdd, OpSub:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: max(args[0].Width, args[1].Width) + 1}, nil
	case OpMul:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: args[0].Width + args[1].Width}, nil
	case OpDiv:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		w := args[0].Width
		if args[0].Kind == KindSInt {
			w++
		}
		return Type{Kind: arith(args[0]), Width: w}, nil
	case OpRem:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: min(args[0].Width, args[1].Width)}, nil
	case OpLt, OpLeq, OpGt, OpGeq, OpEq, OpNeq:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return UInt(1), nil
	case OpPad:
		if err := need(1, 1); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: max(args[0].Width, p.Consts[0])}, nil
	case OpAsUInt:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		return UInt(args[0].Width), nil
	case OpAsSInt:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		return SInt(args[0].Width), nil
	case OpAsClk:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		return Clock(), nil
	case OpShl:
		if err := need(1, 1); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: args[0].Width + p.Consts[0]}, nil
	case OpShr:
		if err := need(1, 1); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: max(args[0].Width-p.Consts[0], 1)}, nil
	case OpDshl:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		if args[1].Width > 20 {
			return Type{}, fmt.Errorf("%w: dshl shift amount of %d bits", ErrNonConstantType, args[1].Width)
		}
		return Type{Kind: arith(args[0]), Width: args[0].Width + (1 << args[1].Width) - 1}, nil
	case OpDshr:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return Type{Kind: arith(args[0]), Width: args[0].Width}, nil
	case OpCvt:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		if args[0].Kind == KindSInt {
			return SInt(args[0].Width), nil
		}
		return SInt(args[0].Width + 1), nil
	case OpNeg:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		return SInt(args[0].Width + 1), nil
	case OpNot:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		return UInt(args[0].Width), nil
	case OpAnd, OpOr, OpXor:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return UInt(max(args[0].Width, args[1].Width)), nil
	case OpAndr, OpOrr, OpXorr:
		if err := need(1, 0); err != nil {
			return Type{}, err
		}
		return UInt(1), nil
	case OpCat:
		if err := need(2, 0); err != nil {
			return Type{}, err
		}
		return UInt(args[0].Width + args[1].Width), nil
	case OpBits:
		if err := need(1, 2); err != nil {
			return Type{}, err
		}
		hi, lo := p.Consts[0], p.Consts[1]
		if hi < lo || hi >= args[0].Width {
			return Type{}, fmt.Errorf("%w: bits(%d, %d) out of range for width %d", ErrNonConstantType, hi, lo, args[0].Width)
		}
		return UInt(hi - lo + 1), nil
	case OpHead:
		if err := need(1, 1); err != nil {
			return Type{}, err
		}
		if p.Consts[0] > args[0].Width {
			return Type{}, fmt.Errorf("%w: head(%d) exceeds width %d", ErrNonConstantType, p.Consts[0], args[0].Width)
		}
		return UInt(p.Consts[0]), nil
	case OpTail:
		if err := need(1, 1); err != nil {
			return Type{}, err
		}
		if p.Consts[0] > args[0].Width {
			return Type{}, fmt.Errorf("%w: tail(%d) exceeds width %d", ErrNonConstantType, p.Consts[0], args[0].Width)
		}
		return UInt(args[0].Width - p.Consts[0]), nil
	default:
		return Type{}, fmt.Errorf("%w: unknown primitive operation %q", ErrNonConstantType, p.Op)
	}
}
