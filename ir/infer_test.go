package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inferCircuit() (*Circuit, *DefinedModule) {
	child := &DefinedModule{
		Name: "Child",
		Ports: []Port{
			{Name: "in", Direction: Input, Type: UInt(4)},
			{Name: "out", Direction: Output, Type: UInt(6)},
		},
		Body: NewBlock(),
	}
	top := &DefinedModule{
		Name: "Top",
		Ports: []Port{
			{Name: "clock", Direction: Input, Type: Clock()},
			{Name: "a", Direction: Input, Type: UInt(8)},
			{Name: "b", Direction: Input, Type: UInt(3)},
			{Name: "s", Direction: Input, Type: SInt(5)},
			{Name: "u", Direction: Input, Type: UInt(UnknownWidth)},
		},
		Body: NewBlock(
			&Wire{Name: "w", Type: UInt(2)},
			&Register{Name: "r", Type: UInt(7), Clock: NewRef("clock")},
			&Instance{Name: "c", Module: "Child"},
			&Memory{Name: "m", Type: UInt(16), Depth: 32, Readers: []string{"rd"}, Writers: []string{"wr"}},
			&Node{Name: "n", Value: Prim(OpAdd, []Expression{NewRef("a"), NewRef("b")})},
			&Node{Name: "loop", Value: NewRef("loop")},
		),
	}
	return &Circuit{Main: "Top", Modules: []Module{top, child}}, top
}

func TestInferType(t *testing.T) {
	c, top := inferCircuit()
	s := NewScope(c, top)
	a, b, sv := NewRef("a"), NewRef("b"), NewRef("s")

	tests := []struct {
		name string
		expr Expression
		want Type
	}{
		{"port", a, UInt(8)},
		{"wire", NewRef("w"), UInt(2)},
		{"register", NewRef("r"), UInt(7)},
		{"node", NewRef("n"), UInt(9)},
		{"instance port", NewRef("c.out"), UInt(6)},
		{"memory data", NewRef("m.rd.data"), UInt(16)},
		{"memory addr", NewRef("m.wr.addr"), UInt(5)},
		{"memory mask", NewRef("m.wr.mask"), UInt(1)},
		{"memory clk", NewRef("m.rd.clk"), Clock()},
		{"literal sized", U(3, 4), UInt(4)},
		{"literal minimal", &Literal{Value: U(5, 0).Value, Width: UnknownWidth}, UInt(3)},
		{"signed literal minimal", &Literal{Value: U(5, 0).Value, Width: UnknownWidth, Signed: true}, SInt(4)},
		{"add", Prim(OpAdd, []Expression{a, b}), UInt(9)},
		{"sub signed", Prim(OpSub, []Expression{sv, sv}), SInt(6)},
		{"mul", Prim(OpMul, []Expression{a, b}), UInt(11)},
		{"div", Prim(OpDiv, []Expression{a, b}), UInt(8)},
		{"rem", Prim(OpRem, []Expression{a, b}), UInt(3)},
		{"eq", Prim(OpEq, []Expression{a, b}), UInt(1)},
		{"pad", Prim(OpPad, []Expression{b}, 10), UInt(10)},
		{"pad smaller", Prim(OpPad, []Expression{a}, 2), UInt(8)},
		{"asSInt", Prim(OpAsSInt, []Expression{a}), SInt(8)},
		{"asClock", Prim(OpAsClk, []Expression{NewRef("w")}), Clock()},
		{"shl", Prim(OpShl, []Expression{b}, 2), UInt(5)},
		{"shr", Prim(OpShr, []Expression{b}, 5), UInt(1)},
		{"dshl", Prim(OpDshl, []Expression{a, NewRef("w")}), UInt(11)},
		{"dshr", Prim(OpDshr, []Expression{a, b}), UInt(8)},
		{"cvt unsigned", Prim(OpCvt, []Expression{a}), SInt(9)},
		{"cvt signed", Prim(OpCvt, []Expression{sv}), SInt(5)},
		{"neg", Prim(OpNeg, []Expression{a}), SInt(9)},
		{"not", Prim(OpNot, []Expression{sv}), UInt(5)},
		{"and", Prim(OpAnd, []Expression{a, b}), UInt(8)},
		{"orr", Prim(OpOrr, []Expression{a}), UInt(1)},
		{"cat", Prim(OpCat, []Expression{a, b}), UInt(11)},
		{"bits", Prim(OpBits, []Expression{a}, 6, 2), UInt(5)},
		{"head", Prim(OpHead, []Expression{a}, 3), UInt(3)},
		{"tail", Prim(OpTail, []Expression{a}, 3), UInt(5)},
		{"mux", &Mux{Cond: Prim(OpOrr, []Expression{b}), High: a, Low: b}, UInt(8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferType(s, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferTypeErrors(t *testing.T) {
	c, top := inferCircuit()
	s := NewScope(c, top)

	tests := []struct {
		name string
		expr Expression
	}{
		{"unknown reference", NewRef("missing")},
		{"unknown width port", NewRef("u")},
		{"self-referencing node", NewRef("loop")},
		{"unknown instance port", NewRef("c.nope")},
		{"reader has no mask", NewRef("m.rd.mask")},
		{"bits out of range", Prim(OpBits, []Expression{NewRef("b")}, 5, 0)},
		{"wrong arity", Prim(OpAdd, []Expression{NewRef("a")})},
		{"unknown op", Prim(Op("frob"), []Expression{NewRef("a")})},
		{"width through unknown", Prim(OpAnd, []Expression{NewRef("a"), NewRef("u")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InferType(s, tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNonConstantType), "error %v should wrap ErrNonConstantType", err)
		})
	}
}

func TestScopeDeclare(t *testing.T) {
	c, top := inferCircuit()
	s := NewScope(c, top)

	s.Declare("fresh", UInt(12))
	w, err := InferWidth(s, NewRef("fresh"))
	require.NoError(t, err)
	assert.Equal(t, 12, w)

	s.DeclareNode("alias", NewRef("fresh"))
	w, err = InferWidth(s, NewRef("alias"))
	require.NoError(t, err)
	assert.Equal(t, 12, w)
}

func TestAddressWidth(t *testing.T) {
	for depth, want := range map[int]int{0: 1, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 32: 5, 33: 6} {
		assert.Equal(t, want, AddressWidth(depth), "depth %d", depth)
	}
}
