package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xfuzz/hwcover/ir"
)

// Defined returns the defined module named name or fails the test.
func Defined(t testing.TB, c *ir.Circuit, name string) *ir.DefinedModule {
	t.Helper()
	m, ok := c.Defined(name)
	require.Truef(t, ok, "defined module %s not found", name)
	return m
}

// Opaque returns the opaque module named name or fails the test.
func Opaque(t testing.TB, c *ir.Circuit, name string) *ir.OpaqueModule {
	t.Helper()
	m, ok := c.Module(name)
	require.Truef(t, ok, "module %s not found", name)
	o, ok := m.(*ir.OpaqueModule)
	require.Truef(t, ok, "module %s is %T, not opaque", name, m)
	return o
}

// Find returns the statement of type T declaring name anywhere in m.
func Find[T ir.Statement](t testing.TB, m *ir.DefinedModule, name string) T {
	t.Helper()
	var found T
	ok := false
	ir.Walk(m.Body, func(s ir.Statement) bool {
		if got, isT := s.(T); isT && !ok {
			if n, named := ir.DeclaredName(s); named && n == name {
				found, ok = got, true
			}
		}
		return true
	})
	require.Truef(t, ok, "%s has no %T named %s", m.Name, found, name)
	return found
}

// Count returns the number of statements of type T in m.
func Count[T ir.Statement](m *ir.DefinedModule) int {
	n := 0
	ir.Walk(m.Body, func(s ir.Statement) bool {
		if _, ok := s.(T); ok {
			n++
		}
		return true
	})
	return n
}

// Dump renders a block as one line per statement, nested blocks indented.
func Dump(b *ir.Block) []string {
	var lines []string
	dump(b, "", &lines)
	return lines
}

func dump(b *ir.Block, indent string, lines *[]string) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		*lines = append(*lines, indent+Line(s))
		switch s := s.(type) {
		case *ir.Conditional:
			dump(s.Then, indent+"  ", lines)
			if s.Else != nil {
				*lines = append(*lines, indent+"else")
				dump(s.Else, indent+"  ", lines)
			}
		case *ir.Block:
			dump(s, indent+"  ", lines)
		}
	}
}

// Line renders one statement without its nested blocks.
func Line(s ir.Statement) string {
	switch s := s.(type) {
	case *ir.Wire:
		return fmt.Sprintf("wire %s : %s", s.Name, s.Type)
	case *ir.Register:
		var b strings.Builder
		fmt.Fprintf(&b, "reg %s : %s, %s", s.Name, s.Type, ir.Format(s.Clock))
		if s.Reset != nil {
			fmt.Fprintf(&b, " reset %s = %s", ir.Format(s.Reset), ir.Format(s.Init))
		}
		return b.String()
	case *ir.Instance:
		return fmt.Sprintf("inst %s of %s", s.Name, s.Module)
	case *ir.Memory:
		return fmt.Sprintf("mem %s : %s[%d]", s.Name, s.Type, s.Depth)
	case *ir.Node:
		return fmt.Sprintf("node %s = %s", s.Name, ir.Format(s.Value))
	case *ir.Connect:
		return fmt.Sprintf("%s <= %s", ir.Format(s.Loc), ir.Format(s.Value))
	case *ir.Conditional:
		return fmt.Sprintf("when %s", ir.Format(s.Pred))
	case *ir.Block:
		return "block"
	default:
		return ir.StatementKind(s)
	}
}
