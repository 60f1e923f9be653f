package hwcover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfuzz/hwcover/internal/codegen"
	"github.com/xfuzz/hwcover/internal/manifest"
	"github.com/xfuzz/hwcover/internal/testutil"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

func gateTable(kind ir.CoverKind) *ir.CoverTable {
	table := ir.NewCoverTable()
	table.Add(ir.CoverTarget{Module: "Top", Name: "x"}, ir.CoverRequest{Kind: kind})
	return table
}

func TestInstrumentWritesArtifacts(t *testing.T) {
	c := testutil.Circuit(testutil.Gate("Top", 2))
	dir := filepath.Join(t.TempDir(), "gen")

	res, err := Instrument(context.Background(), c, gateTable(ir.CoverNormal), WithOutputDir(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, res.OutputDir)
	assert.Equal(t, 4, res.Points())
	assert.Equal(t, Accounting{Requested: 1, Synthesized: 1, Rewritten: 1, Points: 4}, res.Accounting)
	require.Len(t, res.Descriptors, 1)
	assert.Equal(t, "CoverNormal_2", res.Descriptors[0].DefName)
	assert.Empty(t, res.Signals)

	var names []string
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
		data, err := os.ReadFile(filepath.Join(dir, a.Name))
		require.NoError(t, err)
		assert.Equal(t, a.Content, data)
	}
	assert.ElementsMatch(t, []string{codegen.HeaderFile, codegen.SourceFile, manifest.FileName, "CoverNormal_2.v"}, names)

	annos := ir.AnnotationsOf[ir.InlineBodyAnnotation](c)
	require.Len(t, annos, 1)
	assert.Equal(t, "CoverNormal_2", annos[0].DefName)
	testutil.Find[*ir.Instance](t, testutil.Defined(t, c, "Top"), "x_cover")
}

func TestInstrumentWithoutArtifacts(t *testing.T) {
	t.Setenv(codegen.BuildRootEnv, "")
	c := testutil.Circuit(testutil.Gate("Top", 1))

	res, err := Instrument(context.Background(), c, gateTable(ir.CoverMultibit), WithoutArtifacts())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Artifacts)
	assert.Empty(t, res.OutputDir)
	assert.Empty(t, ir.AnnotationsOf[ir.InlineBodyAnnotation](c))
}

func TestInstrumentDefaultOutputDir(t *testing.T) {
	root := t.TempDir()
	t.Setenv(codegen.BuildRootEnv, root)

	res, err := Instrument(context.Background(), testutil.Circuit(testutil.Gate("Top", 1)), gateTable(ir.CoverNormal))
	require.NoError(t, err)

	want := filepath.Join(root, "build", "generated-src")
	assert.Equal(t, want, res.OutputDir)
	assert.FileExists(t, filepath.Join(want, manifest.FileName))
}

func TestInstrumentNoOutputDir(t *testing.T) {
	t.Setenv(codegen.BuildRootEnv, "")
	_, err := Instrument(context.Background(), testutil.Circuit(testutil.Gate("Top", 1)), gateTable(ir.CoverNormal))
	assert.ErrorIs(t, err, codegen.ErrNoOutputDir)
}

func TestInstrumentNothingCovered(t *testing.T) {
	t.Setenv(codegen.BuildRootEnv, "")
	c := testutil.Circuit(testutil.Gate("Top", 1))

	res, err := Instrument(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Artifacts)
	assert.Empty(t, res.Descriptors)
	assert.Zero(t, res.Points())
}

func TestInstrumentOnlyLiterals(t *testing.T) {
	t.Setenv(codegen.BuildRootEnv, "")
	m := testutil.Clocked("Top").Node("k", ir.U(3, 2)).Build()
	table := ir.NewCoverTable()
	table.Add(ir.CoverTarget{Module: "Top", Name: "k"}, ir.CoverRequest{Kind: ir.CoverNormal})

	res, err := Instrument(context.Background(), testutil.Circuit(m), table, WithStrictness(ir.StrictnessStrict))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accounting.Skipped)
	assert.Empty(t, res.Artifacts)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, types.DiagCoverLiteral, res.Diagnostics[0].Code)
}

func TestInstrumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		table func() *ir.CoverTable
		opts  []Option
		want  error
	}{
		{
			name: "target not found",
			table: func() *ir.CoverTable {
				table := ir.NewCoverTable()
				table.Add(ir.CoverTarget{Module: "Top", Name: "nope"}, ir.CoverRequest{Kind: ir.CoverNormal})
				return table
			},
			want: ErrTargetNotFound,
		},
		{
			name: "target is a port",
			table: func() *ir.CoverTable {
				table := ir.NewCoverTable()
				table.Add(ir.CoverTarget{Module: "Top", Name: "y"}, ir.CoverRequest{Kind: ir.CoverNormal})
				return table
			},
			want: ErrTargetNotFound,
		},
		{
			name:  "encoded width too large",
			table: func() *ir.CoverTable { return gateTable(ir.CoverNormal) },
			opts:  []Option{WithMaxEncodedWidth(2)},
			want:  ErrEncodedWidthTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opts := append([]Option{WithOutputDir(dir)}, tt.opts...)
			_, err := Instrument(context.Background(), testutil.Circuit(testutil.Gate("Top", 3)), tt.table(), opts...)
			assert.ErrorIs(t, err, tt.want)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing is written on failure")
		})
	}
}

func TestInstrumentThreshold(t *testing.T) {
	c := testutil.Fanout(2)
	table := ir.NewCoverTable()
	table.Add(ir.CoverTarget{Module: "Leaf0", Name: "x"}, ir.CoverRequest{Kind: ir.CoverNormal})
	dir := t.TempDir()

	res, err := Instrument(context.Background(), c, table,
		WithOutputDir(dir),
		WithDiagnosticConfig(ir.DiagnosticConfig{Level: ir.StrictnessNormal, FailAt: ir.SeverityMinor}))
	assert.ErrorIs(t, err, ErrDiagnosticThreshold)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, types.DiagMissingPort, res.Diagnostics[0].Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInstrumentPlansSignals(t *testing.T) {
	c := testutil.Fanout(4)
	table := ir.NewCoverTable()
	for _, leaf := range []string{"Leaf0", "Leaf1", "Leaf2", "Leaf3"} {
		table.Add(ir.CoverTarget{Module: leaf, Name: "x"}, ir.CoverRequest{Kind: ir.CoverNormal})
	}

	res, err := Instrument(context.Background(), c, table, WithOutputDir(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, []string{"reset"}, res.Signals)
	assert.Len(t, ir.AnnotationsOf[ir.WiringSinkAnnotation](c), 4)
	for _, a := range res.Artifacts {
		if a.Name == codegen.HeaderFile {
			assert.Contains(t, string(a.Content), "#define FIRRTL_COVER_RESET\n")
		}
	}
}

func TestInstrumentNilCircuit(t *testing.T) {
	_, err := Instrument(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoCircuit)
}

func TestInstrumentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Instrument(ctx, testutil.Circuit(testutil.Gate("Top", 1)), gateTable(ir.CoverNormal), WithOutputDir(t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
}
