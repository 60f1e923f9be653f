package hwcover

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfuzz/hwcover/internal/codegen"
	"github.com/xfuzz/hwcover/internal/testutil"
	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

func steps(p Plan) []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.String()
	}
	return out
}

func TestParsePlan(t *testing.T) {
	tail := []string{
		"instrument instrument",
		"transform dedup",
		"transform remove-dead-reset",
		"transform wiring",
	}
	tests := []struct {
		kinds     string
		wantKinds []string
		want      []string
	}{
		{"", nil, nil},
		{"branch,,cond", nil, nil},
		{
			"mux",
			[]string{"mux"},
			append([]string{"transform no-dedup", "transform protect-clock-reset", "pass mux"}, tail...),
		},
		{
			"line,ready_valid",
			[]string{"line", "ready_valid"},
			append([]string{"transform no-dedup", "pass line", "pass ready_valid"}, tail...),
		},
		{
			" line, fsm ,fsm,bogus,toggle",
			[]string{"line", "fsm", "toggle"},
			append([]string{"transform no-dedup", "transform protect-clock-reset", "pass line", "pass fsm", "pass toggle"}, tail...),
		},
	}
	for _, tt := range tests {
		t.Run(tt.kinds, func(t *testing.T) {
			p := ParsePlan(tt.kinds)
			assert.Equal(t, tt.wantKinds, p.Kinds)
			if tt.want == nil {
				assert.True(t, p.Empty())
				return
			}
			assert.Equal(t, tt.want, steps(p))
		})
	}
}

func TestRunEmptyPlan(t *testing.T) {
	c := testutil.Circuit(testutil.Gate("Top", 1))
	res, err := Run(context.Background(), c, "nothing")
	require.NoError(t, err)
	assert.Empty(t, c.Annotations)
	assert.Empty(t, res.Descriptors)
	assert.Equal(t, []string{"node x = a", "y <= x"}, testutil.Dump(testutil.Defined(t, c, "Top").Body))
}

// Many leaves lacking a reset port share one new top-level port.
func TestRunThreadsResetThroughHierarchy(t *testing.T) {
	c := testutil.Fanout(8)
	dir := t.TempDir()

	res, err := Run(context.Background(), c, "toggle", WithOutputDir(dir))
	require.NoError(t, err)

	assert.Equal(t, []string{"reset"}, res.Signals)
	assert.Equal(t, 8, res.Points())
	require.Len(t, res.Descriptors, 1)
	assert.Equal(t, "CoverMultibit_1", res.Descriptors[0].DefName)

	top := testutil.Defined(t, c, "Top")
	assert.Len(t, top.Ports, 2)
	p, ok := top.Port("reset")
	require.True(t, ok)
	assert.Equal(t, ir.Reset(), p.Type)
	lines := testutil.Dump(top.Body)
	assert.Contains(t, lines, "leaf0.reset_0 <= reset")
	assert.Contains(t, lines, "leaf7.reset_0 <= reset")

	leaf := testutil.Defined(t, c, "Leaf0")
	leafLines := testutil.Dump(leaf.Body)
	assert.Equal(t, "reset <= reset_0", leafLines[len(leafLines)-1])
	assert.Contains(t, leafLines, "inst x_cover of CoverMultibit_1_0")

	assert.Empty(t, ir.AnnotationsOf[ir.NoDedupAnnotation](c))
	assert.Empty(t, ir.AnnotationsOf[ir.WiringSourceAnnotation](c))
	assert.Empty(t, ir.AnnotationsOf[ir.WiringSinkAnnotation](c))
	assert.Len(t, ir.AnnotationsOf[ir.InlineBodyAnnotation](c), 1)
	assert.Contains(t, ir.AnnotationsOf[ir.DontTouchAnnotation](c), ir.DontTouchAnnotation{Module: "Top", Name: "clock"})

	var missing int
	for _, d := range res.Diagnostics {
		if d.Code == types.DiagMissingPort {
			missing++
		}
	}
	assert.Equal(t, 8, missing)
}

func TestRunLineResolvesSources(t *testing.T) {
	fsys := fstest.MapFS{
		"src/Core.scala":  {Data: []byte("class Core")},
		"a/Dup.scala":     {Data: []byte("class Dup")},
		"b/Dup.scala":     {Data: []byte("class Dup")},
		"docs/README.txt": {Data: []byte("readme")},
	}
	idx, err := NewSourceIndex(FS("rtl", fsys))
	require.NoError(t, err)

	m := testutil.Clocked("Top").
		Input("a", ir.UInt(1)).
		Wire("w", ir.UInt(1)).
		Stmt(
			&ir.Conditional{Pred: ir.NewRef("a"), Then: ir.NewBlock(&ir.Connect{Loc: ir.NewRef("w"), Value: ir.U(1, 1)}), Info: "Core.scala 3:5"},
			&ir.Conditional{Pred: ir.NewRef("a"), Then: ir.NewBlock(), Info: "Dup.scala 9:1"},
		).
		Build()

	c := testutil.Circuit(m)
	res, err := Run(context.Background(), c, "line", WithSourceIndex(idx), WithoutArtifacts())
	require.NoError(t, err)

	require.Len(t, res.Descriptors, 1)
	sites := res.Descriptors[0].Sites
	require.Len(t, sites, 2)
	assert.Equal(t, "line_Core_3", sites[0].Name)
	assert.Equal(t, "rtl/src/Core.scala 3:5", sites[0].Info)
	assert.Equal(t, "Dup.scala 9:1", sites[1].Info)

	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, types.DiagDuplicateSourceMapping)
	assert.Empty(t, ir.AnnotationsOf[ir.DontTouchAnnotation](c), "line is a legacy kind")
}

type recordingHost struct {
	calls []string
	fail  string
}

func (h *recordingHost) Transform(_ context.Context, name string, _ *ir.Circuit) ([]ir.Diagnostic, error) {
	h.calls = append(h.calls, name)
	if name == h.fail {
		return nil, errors.New("host refused")
	}
	return nil, nil
}

func TestRunCustomHost(t *testing.T) {
	host := &recordingHost{}
	c := testutil.Circuit(testutil.Gate("Top", 2))

	res, err := Run(context.Background(), c, "control,mux", WithHost(host), WithOutputDir(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, []string{"no-dedup", "protect-clock-reset", "dedup", "remove-dead-reset", "wiring"}, host.calls)
	assert.Empty(t, res.Descriptors, "gate has neither mux nor conditional")
}

func TestRunHostError(t *testing.T) {
	host := &recordingHost{fail: "remove-dead-reset"}
	m := testutil.Clocked("Top").
		Input("s", ir.UInt(1)).
		Input("a", ir.UInt(2)).
		Node("x", &ir.Mux{Cond: ir.NewRef("s"), High: ir.NewRef("a"), Low: ir.U(0, 2)}).
		Build()

	res, err := Run(context.Background(), testutil.Circuit(m), "mux", WithHost(host), WithOutputDir(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove-dead-reset")
	assert.Equal(t, 1, res.Points(), "instrumentation ran before the failing transform")
}

func TestRunMuxEndToEnd(t *testing.T) {
	t.Setenv(codegen.BuildRootEnv, t.TempDir())
	m := testutil.Clocked("Top").
		Input("s", ir.UInt(1)).
		Input("a", ir.UInt(2)).
		Input("b", ir.UInt(2)).
		Output("y", ir.UInt(2)).
		Connect("y", &ir.Mux{Cond: ir.NewRef("s"), High: ir.NewRef("a"), Low: ir.NewRef("b")}).
		Build()
	c := testutil.Circuit(m)

	res, err := Run(context.Background(), c, "mux")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Points())
	assert.NotEmpty(t, res.OutputDir)
	assert.Contains(t, testutil.Dump(m.Body), "y <= mux(mux_cond, a, b)")
	assert.Empty(t, res.Signals)
}

func TestRunToggleWideModule(t *testing.T) {
	const n = 20000
	c := testutil.Inverters(n)

	res, err := Run(context.Background(), c, "toggle", WithoutArtifacts())
	require.NoError(t, err)

	assert.Equal(t, n, res.Points())
	require.Len(t, res.Descriptors, 1)
	assert.Equal(t, n, res.Descriptors[0].Total)
	assert.Len(t, res.Descriptors[0].Sites, n)
}

func TestRunNilCircuit(t *testing.T) {
	_, err := Run(context.Background(), nil, "mux")
	assert.ErrorIs(t, err, ErrNoCircuit)
}
