package ir

import (
	"strconv"
	"strings"
)

// Format returns the canonical text of an expression, e.g.
// "and(a, bits(b, 3, 0))" or "UInt<4>(5)".
func Format(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	f := &formatter{}
	e.Accept(f)
	return f.b.String()
}

type formatter struct {
	b strings.Builder
}

func (f *formatter) VisitRef(e *Ref) {
	f.b.WriteString(e.Name)
}

func (f *formatter) VisitLiteral(e *Literal) {
	if e.Signed {
		f.b.WriteString("SInt")
	} else {
		f.b.WriteString("UInt")
	}
	if e.Width >= 0 {
		f.b.WriteByte('<')
		f.b.WriteString(strconv.Itoa(e.Width))
		f.b.WriteByte('>')
	}
	f.b.WriteByte('(')
	if e.Value != nil {
		f.b.WriteString(e.Value.String())
	} else {
		f.b.WriteByte('0')
	}
	f.b.WriteByte(')')
}

func (f *formatter) VisitPrimOp(e *PrimOp) {
	f.b.WriteString(string(e.Op))
	f.b.WriteByte('(')
	for i, a := range e.Args {
		if i > 0 {
			f.b.WriteString(", ")
		}
		a.Accept(f)
	}
	for i, c := range e.Consts {
		if i > 0 || len(e.Args) > 0 {
			f.b.WriteString(", ")
		}
		f.b.WriteString(strconv.Itoa(c))
	}
	f.b.WriteByte(')')
}

func (f *formatter) VisitMux(e *Mux) {
	f.b.WriteString("mux(")
	e.Cond.Accept(f)
	f.b.WriteString(", ")
	e.High.Accept(f)
	f.b.WriteString(", ")
	e.Low.Accept(f)
	f.b.WriteByte(')')
}

// References returns the names referenced by e in first-use order.
func References(e Expression) []string {
	r := &refCollector{seen: make(map[string]bool)}
	if e != nil {
		e.Accept(r)
	}
	return r.names
}

type refCollector struct {
	seen  map[string]bool
	names []string
}

func (r *refCollector) VisitRef(e *Ref) {
	if !r.seen[e.Name] {
		r.seen[e.Name] = true
		r.names = append(r.names, e.Name)
	}
}

func (r *refCollector) VisitLiteral(*Literal) {}

func (r *refCollector) VisitPrimOp(e *PrimOp) {
	for _, a := range e.Args {
		a.Accept(r)
	}
}

func (r *refCollector) VisitMux(e *Mux) {
	e.Cond.Accept(r)
	e.High.Accept(r)
	e.Low.Accept(r)
}
