package manifest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/internal/testutil"
	"github.com/xfuzz/hwcover/ir"
)

func instrumented(t *testing.T) *cover.Context {
	t.Helper()
	m := testutil.Clocked("Top").
		Input("a", ir.UInt(2)).
		NodeAt("x", ir.NewRef("a"), "Top.scala 4:7").
		Node("t", ir.NewRef("a")).
		Build()
	table := ir.NewCoverTable()
	table.Add(ir.CoverTarget{Module: "Top", Name: "x"}, ir.CoverRequest{Kind: ir.CoverNormal})
	table.Add(ir.CoverTarget{Module: "Top", Name: "t"}, ir.CoverRequest{Kind: ir.CoverMultibit})

	ctx := cover.NewContext(testutil.Circuit(m), table, cover.Config{}, nil)
	require.NoError(t, cover.Collect(ctx))
	require.NoError(t, cover.Synthesize(ctx))
	require.NoError(t, cover.Rewrite(ctx))
	return ctx
}

func TestBuild(t *testing.T) {
	m := Build(instrumented(t), []string{"reset"})

	assert.Equal(t, "Top", m.Top)
	require.Len(t, m.Kinds, 2)

	normal, ok := m.Kind("normal")
	require.True(t, ok)
	assert.True(t, normal.Feedback)
	assert.Equal(t, 4, normal.Total)
	assert.Equal(t, []string{"Top.x == 0", "Top.x == 1", "Top.x == 2", "Top.x == 3"}, normal.Points)
	require.Len(t, normal.Descriptors, 1)
	assert.Equal(t, Site{Module: "Top", Name: "x", Index: 0, Points: 4, Source: "Top.scala 4:7"},
		normal.Descriptors[0].Sites[0])

	multibit, ok := m.Kind("multibit")
	require.True(t, ok)
	assert.False(t, multibit.Feedback)
	assert.Equal(t, []string{"Top.t[0]", "Top.t[1]"}, multibit.Points)

	fb, ok := m.Feedback()
	require.True(t, ok)
	assert.Equal(t, "normal", fb.Name)
	assert.Equal(t, 6, m.Total())

	for _, k := range m.Kinds {
		assert.Len(t, k.Points, k.Total, "kind %s", k.Name)
	}
}

func TestEncodeDecode(t *testing.T) {
	m := Build(instrumented(t), nil)
	data, err := Encode(m)
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestEmptyManifestIsValid(t *testing.T) {
	ctx := cover.NewContext(testutil.Circuit(testutil.Gate("Top", 1)), nil, cover.Config{}, nil)
	data, err := Encode(Build(ctx, nil))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kinds": []`)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"total mismatch", `{"version":1,"top":"T","kinds":[{"name":"normal","total":2,"feedback":true,"points":["a"],"descriptors":[]}]}`},
		{"unknown kind", `{"version":1,"top":"T","kinds":[{"name":"line","total":0,"feedback":true,"points":[],"descriptors":[]}]}`},
		{"wrong version", `{"version":2,"top":"T","kinds":[]}`},
		{"empty top", `{"version":1,"top":"","kinds":[]}`},
		{"unknown field", `{"version":1,"top":"T","kinds":[],"extra":true}`},
		{"site without name", `{"version":1,"top":"T","kinds":[{"name":"multibit","total":1,"feedback":true,"points":["T.x[0]"],"descriptors":[{"module":"CoverMultibit_1","width":1,"base":0,"total":1,"sites":[{"module":"T","name":"","index":0,"points":1}]}]}]}`},
		{"negative site index", `{"version":1,"top":"T","kinds":[{"name":"multibit","total":1,"feedback":true,"points":["T.x[0]"],"descriptors":[{"module":"CoverMultibit_1","width":1,"base":0,"total":1,"sites":[{"module":"T","name":"x","index":-1,"points":1}]}]}]}`},
		{"bad descriptor name", `{"version":1,"top":"T","kinds":[{"name":"raw","total":0,"feedback":true,"points":[],"descriptors":[{"module":"Probe","width":1,"base":0,"total":0,"sites":[]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON([]byte(tt.json))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestEncodeDecodeManySites(t *testing.T) {
	const n = 50000
	k := Kind{Name: "multibit", Total: n, Feedback: true}
	d := Descriptor{Module: "CoverMultibit_1", Width: 1, Total: n}
	for i := range n {
		name := fmt.Sprintf("x%d", i)
		k.Points = append(k.Points, "Top."+name+"[0]")
		d.Sites = append(d.Sites, Site{Module: "Top", Name: name, Index: i, Points: 1})
	}
	k.Descriptors = []Descriptor{d}
	m := &Manifest{Version: Version, Top: "Top", Kinds: []Kind{k}}

	data, err := Encode(m)
	require.NoError(t, err)
	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, n, got.Total())
	assert.Equal(t, m, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":`))
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	k, err := KindOf(&Kind{Name: "multibit"})
	require.NoError(t, err)
	assert.Equal(t, ir.CoverMultibit, k)
}
