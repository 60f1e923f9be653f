package ir

import "math/big"

// Expression is a closed union of expression variants. Dispatch with a
// type switch or, when every variant must be handled, with an
// ExpressionVisitor.
type Expression interface {
	Accept(v ExpressionVisitor)
	expression()
}

// ExpressionVisitor has one method per expression variant. Adding a
// variant adds a method here, so every visitor must be updated.
type ExpressionVisitor interface {
	VisitRef(*Ref)
	VisitLiteral(*Literal)
	VisitPrimOp(*PrimOp)
	VisitMux(*Mux)
}

// Ref references a declared name. Sub-element references of instances and
// memories are dotted ("core.io_out", "mem.r.data").
type Ref struct {
	Name string
}

// Literal is an integer constant. A Width of UnknownWidth means the
// minimum width that holds Value.
type Literal struct {
	Value  *big.Int
	Width  int
	Signed bool
}

// PrimOp applies a primitive operation to expression arguments and
// integer constants.
type PrimOp struct {
	Op     Op
	Args   []Expression
	Consts []int
}

// Mux selects High when Cond is 1, Low otherwise.
type Mux struct {
	Cond Expression
	High Expression
	Low  Expression
}

func (e *Ref) Accept(v ExpressionVisitor)     { v.VisitRef(e) }
func (e *Literal) Accept(v ExpressionVisitor) { v.VisitLiteral(e) }
func (e *PrimOp) Accept(v ExpressionVisitor)  { v.VisitPrimOp(e) }
func (e *Mux) Accept(v ExpressionVisitor)     { v.VisitMux(e) }

func (*Ref) expression()     {}
func (*Literal) expression() {}
func (*PrimOp) expression()  {}
func (*Mux) expression()     {}

// Op is a primitive operation code.
type Op string

// Primitive operations.
const (
	OpAdd    Op = "add"
	OpSub    Op = "sub"
	OpMul    Op = "mul"
	OpDiv    Op = "div"
	OpRem    Op = "rem"
	OpLt     Op = "lt"
	OpLeq    Op = "leq"
	OpGt     Op = "gt"
	OpGeq    Op = "geq"
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpPad    Op = "pad"
	OpAsUInt Op = "asUInt"
	OpAsSInt Op = "asSInt"
	OpAsClk  Op = "asClock"
	OpShl    Op = "shl"
	OpShr    Op = "shr"
	OpDshl   Op = "dshl"
	OpDshr   Op = "dshr"
	OpCvt    Op = "cvt"
	OpNeg    Op = "neg"
	OpNot    Op = "not"
	OpAnd    Op = "and"
	OpOr     Op = "or"
	OpXor    Op = "xor"
	OpAndr   Op = "andr"
	OpOrr    Op = "orr"
	OpXorr   Op = "xorr"
	OpCat    Op = "cat"
	OpBits   Op = "bits"
	OpHead   Op = "head"
	OpTail   Op = "tail"
)

// NewRef returns a reference to name.
func NewRef(name string) *Ref { return &Ref{Name: name} }

// U returns an unsigned literal of the given width.
func U(value int64, width int) *Literal {
	return &Literal{Value: big.NewInt(value), Width: width}
}

// S returns a signed literal of the given width.
func S(value int64, width int) *Literal {
	return &Literal{Value: big.NewInt(value), Width: width, Signed: true}
}

// Prim builds a primitive operation.
func Prim(op Op, args []Expression, consts ...int) *PrimOp {
	return &PrimOp{Op: op, Args: args, Consts: consts}
}

// IsLiteral reports whether e is a constant literal.
func IsLiteral(e Expression) bool {
	_, ok := e.(*Literal)
	return ok
}
