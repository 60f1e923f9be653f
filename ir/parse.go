package ir

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

var knownOps = map[Op]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpRem: true,
	OpLt: true, OpLeq: true, OpGt: true, OpGeq: true, OpEq: true, OpNeq: true,
	OpPad: true, OpAsUInt: true, OpAsSInt: true, OpAsClk: true,
	OpShl: true, OpShr: true, OpDshl: true, OpDshr: true,
	OpCvt: true, OpNeg: true, OpNot: true,
	OpAnd: true, OpOr: true, OpXor: true, OpAndr: true, OpOrr: true, OpXorr: true,
	OpCat: true, OpBits: true, OpHead: true, OpTail: true,
}

// ParseType parses "UInt<8>", "SInt<4>", "UInt" (unknown width), "Clock"
// or "Reset".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "Clock":
		return Clock(), nil
	case "Reset":
		return Reset(), nil
	}
	var kind TypeKind
	var rest string
	switch {
	case strings.HasPrefix(s, "UInt"):
		kind, rest = KindUInt, s[len("UInt"):]
	case strings.HasPrefix(s, "SInt"):
		kind, rest = KindSInt, s[len("SInt"):]
	default:
		return Type{}, fmt.Errorf("unknown type %q", s)
	}
	if rest == "" {
		return Type{Kind: kind, Width: UnknownWidth}, nil
	}
	inner, ok := strings.CutPrefix(rest, "<")
	if !ok {
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	inner, ok = strings.CutSuffix(inner, ">")
	if !ok {
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	w, err := strconv.Atoi(inner)
	if err != nil || w < 0 {
		return Type{}, fmt.Errorf("malformed width in type %q", s)
	}
	return Type{Kind: kind, Width: w}, nil
}

// ParseExpression parses the text produced by Format.
func ParseExpression(s string) (Expression, error) {
	p := &exprParser{src: s}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("expression %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func isIdentByte(c byte, first bool) bool {
	r := rune(c)
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	if first {
		return false
	}
	return unicode.IsDigit(r) || r == '.' || r == '$'
}

func (p *exprParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) integer() (string, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start || p.src[start:p.pos] == "-" {
		return "", p.errorf("expected integer")
	}
	return p.src[start:p.pos], nil
}

func (p *exprParser) expression() (Expression, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected expression")
	}
	switch {
	case name == "UInt" || name == "SInt":
		return p.literal(name == "SInt")
	case p.peek() != '(':
		return NewRef(name), nil
	case name == "mux":
		return p.mux()
	default:
		return p.primOp(Op(name))
	}
}

func (p *exprParser) literal(signed bool) (Expression, error) {
	width := UnknownWidth
	if p.peek() == '<' {
		p.pos++
		w, err := p.integer()
		if err != nil {
			return nil, err
		}
		width, err = strconv.Atoi(w)
		if err != nil {
			return nil, p.errorf("bad literal width %q", w)
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	p.skipSpace()
	digits, err := p.integer()
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, p.errorf("bad literal value %q", digits)
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return &Literal{Value: v, Width: width, Signed: signed}, nil
}

func (p *exprParser) mux() (Expression, error) {
	p.pos++ // '('
	var parts [3]Expression
	for i := range parts {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		parts[i] = e
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return &Mux{Cond: parts[0], High: parts[1], Low: parts[2]}, nil
}

func (p *exprParser) primOp(op Op) (Expression, error) {
	if !knownOps[op] {
		return nil, p.errorf("unknown primitive operation %q", op)
	}
	p.pos++ // '('
	prim := &PrimOp{Op: op}
	for i := 0; ; i++ {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return prim, nil
		}
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
			p.skipSpace()
		}
		if c := p.peek(); c == '-' || (c >= '0' && c <= '9') {
			digits, err := p.integer()
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(digits)
			if err != nil {
				return nil, p.errorf("bad constant %q", digits)
			}
			prim.Consts = append(prim.Consts, n)
			continue
		}
		if len(prim.Consts) > 0 {
			return nil, p.errorf("argument after constant in %s", op)
		}
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		prim.Args = append(prim.Args, arg)
	}
}
