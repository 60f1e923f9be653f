package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

func module(name string, insts ...string) *ir.DefinedModule {
	m := &ir.DefinedModule{Name: name, Body: ir.NewBlock()}
	for i := 0; i+1 < len(insts); i += 2 {
		m.Body.Append(&ir.Instance{Name: insts[i], Module: insts[i+1]})
	}
	return m
}

func diamond() *ir.Circuit {
	return &ir.Circuit{Main: "Top", Modules: []ir.Module{
		module("Top", "core", "Core", "uncore", "Uncore"),
		module("Core", "alu", "ALU", "lsu", "LSU"),
		module("Uncore", "alu", "ALU"),
		module("LSU"),
		module("ALU"),
		module("Unused", "alu", "ALU"),
	}}
}

func TestPaths(t *testing.T) {
	idx, diags, err := Build(diamond(), nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, []string{"Top"}, idx.Paths("Top"))
	assert.Equal(t, []string{"Top.core.alu", "Top.uncore.alu"}, idx.Paths("ALU"))
	assert.Equal(t, []string{"Top.core.lsu"}, idx.Paths("LSU"))
	assert.Empty(t, idx.Paths("Unused"))
	assert.False(t, idx.Reachable("Unused"))

	var all []string
	for _, inst := range idx.Instances() {
		all = append(all, inst.Path)
	}
	assert.Equal(t, []string{"Top", "Top.core", "Top.core.alu", "Top.core.lsu", "Top.uncore", "Top.uncore.alu"}, all)
}

func TestOrderAndAncestors(t *testing.T) {
	idx, _, err := Build(diamond(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Top", "Core", "Uncore", "LSU", "ALU"}, idx.Order())
	assert.Equal(t, []string{"Top", "Core", "Uncore", "ALU"}, idx.Ancestors("ALU"))
	assert.Equal(t, []string{"Top", "Core", "LSU"}, idx.Ancestors("LSU"))
	assert.Equal(t, []string{"Top"}, idx.Ancestors("Top"))
	assert.Empty(t, idx.Ancestors("Unused"))

	assert.Equal(t, []Child{{Name: "alu", Module: "ALU"}, {Name: "lsu", Module: "LSU"}}, idx.Children("Core"))
}

func TestUnknownModuleIsDiagnostic(t *testing.T) {
	c := &ir.Circuit{Main: "Top", Modules: []ir.Module{
		module("Top", "ghost", "Ghost", "leaf", "Leaf"),
		module("Leaf"),
	}}
	idx, diags, err := Build(c, nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, types.DiagUnknownModule, diags[0].Code)
	assert.Equal(t, "Top", diags[0].Module)
	assert.Equal(t, []string{"Top.leaf"}, idx.Paths("Leaf"))
}

func TestCycleIsError(t *testing.T) {
	c := &ir.Circuit{Main: "Top", Modules: []ir.Module{
		module("Top", "a", "A"),
		module("A", "b", "B"),
		module("B", "a", "A"),
	}}
	_, _, err := Build(c, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInstanceCycle))
}

func TestMissingTop(t *testing.T) {
	_, _, err := Build(&ir.Circuit{Main: "Nope", Modules: []ir.Module{module("Top")}}, nil)
	require.Error(t, err)
}
