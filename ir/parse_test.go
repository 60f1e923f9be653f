package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	inputs := []string{
		"a",
		"core.io_out",
		"mem.rd.data",
		"UInt<4>(5)",
		"SInt<8>(-3)",
		"UInt(7)",
		"and(a, b)",
		"bits(x, 3, 0)",
		"pad(x, 8)",
		"mux(eq(sel, UInt<2>(1)), add(a, b), tail(c, 1))",
		"cat(not(a), orr(b))",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			e, err := ParseExpression(in)
			require.NoError(t, err)
			assert.Equal(t, in, Format(e))
		})
	}
}

func TestParseExpressionErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"frob(a)",
		"and(a, b",
		"bits(1, x)",
		"UInt<4>(x)",
		"UInt<99999999999999999999>(1)",
		"mux(a, b)",
		"a b",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseExpression(in)
			assert.Error(t, err)
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"UInt<8>", UInt(8)},
		{"SInt<1>", SInt(1)},
		{"UInt", UInt(UnknownWidth)},
		{"Clock", Clock()},
		{"Reset", Reset()},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}
	for _, bad := range []string{"Bool", "UInt<x>", "UInt<8", "UInt8", "UInt<99999999999999999999>"} {
		_, err := ParseType(bad)
		assert.Error(t, err, bad)
	}
}

func TestReferences(t *testing.T) {
	e, err := ParseExpression("mux(sel, add(a, b), a)")
	require.NoError(t, err)
	assert.Equal(t, []string{"sel", "a", "b"}, References(e))
	assert.Empty(t, References(U(1, 1)))
}
