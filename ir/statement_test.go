package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingVisitor struct {
	counts map[string]int
}

func (v *countingVisitor) VisitWire(*Wire)               { v.counts["wire"]++ }
func (v *countingVisitor) VisitRegister(*Register)       { v.counts["register"]++ }
func (v *countingVisitor) VisitInstance(*Instance)       { v.counts["instance"]++ }
func (v *countingVisitor) VisitMemory(*Memory)           { v.counts["memory"]++ }
func (v *countingVisitor) VisitNode(*Node)               { v.counts["node"]++ }
func (v *countingVisitor) VisitConnect(*Connect)         { v.counts["connect"]++ }
func (v *countingVisitor) VisitConditional(*Conditional) { v.counts["conditional"]++ }
func (v *countingVisitor) VisitBlock(*Block)             { v.counts["block"]++ }

func nestedBody() *Block {
	return NewBlock(
		&Wire{Name: "w", Type: UInt(1)},
		&Conditional{
			Pred: NewRef("w"),
			Then: NewBlock(&Node{Name: "a", Value: NewRef("w")}),
			Else: NewBlock(&Block{Stmts: []Statement{&Node{Name: "b", Value: NewRef("w")}}}),
		},
		&Node{Name: "c", Value: NewRef("w")},
	)
}

func TestWalkVisitsNested(t *testing.T) {
	v := &countingVisitor{counts: make(map[string]int)}
	Walk(nestedBody(), func(s Statement) bool {
		s.Accept(v)
		return true
	})
	assert.Equal(t, map[string]int{"wire": 1, "conditional": 1, "node": 3, "block": 1}, v.counts)
}

func TestWalkSkipsChildren(t *testing.T) {
	var names []string
	Walk(nestedBody(), func(s Statement) bool {
		if n, ok := DeclaredName(s); ok {
			names = append(names, n)
		}
		_, isCond := s.(*Conditional)
		return !isCond
	})
	assert.Equal(t, []string{"w", "c"}, names)
}

func TestMapBlockInsertsAfter(t *testing.T) {
	body := nestedBody()
	MapBlock(body, func(s Statement) []Statement {
		n, ok := s.(*Node)
		if !ok {
			return Keep(s)
		}
		return []Statement{n, &Wire{Name: n.Name + "_probe", Type: UInt(1)}}
	})

	var order []string
	Walk(body, func(s Statement) bool {
		if n, ok := DeclaredName(s); ok {
			order = append(order, StatementKind(s)+":"+n)
		}
		return true
	})
	require.Equal(t, []string{
		"wire:w",
		"node:a", "wire:a_probe",
		"node:b", "wire:b_probe",
		"node:c", "wire:c_probe",
	}, order)
}

func TestMapBlockDrops(t *testing.T) {
	body := nestedBody()
	MapBlock(body, func(s Statement) []Statement {
		if _, ok := s.(*Node); ok {
			return nil
		}
		return Keep(s)
	})
	Walk(body, func(s Statement) bool {
		_, isNode := s.(*Node)
		assert.False(t, isNode, "node should have been dropped")
		return true
	})
}
