package hwcover

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("// "+f), 0o644))
	}
}

func TestDirNonExistentPath(t *testing.T) {
	_, err := Dir("/this/path/does/not/exist/at/all")
	assert.Error(t, err)
}

func TestDirNotADirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "Core.scala")
	_, err := Dir(filepath.Join(root, "Core.scala"))
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestMustDirPanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustDir("/this/path/does/not/exist") })
	assert.Panics(t, func() { MustDirTree("/this/path/does/not/exist") })
}

func TestDirListsOneLevel(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "Core.scala", "Alu.SV", "notes.md", "sub/Deep.scala")

	files, err := MustDir(root).ListFiles()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "Core.scala"),
		filepath.Join(root, "Alu.SV"),
	}, files)
}

func TestDirTreeRecurses(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "Core.scala", "sub/Deep.scala", "sub/skip.txt")

	files, err := MustDirTree(root).ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Core.scala"),
		filepath.Join(root, "sub", "Deep.scala"),
	}, files)
}

func TestWithExtensions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "Core.scala", "top.fir", "notes.txt")

	files, err := MustDirTree(root, WithExtensions(".txt")).ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "notes.txt")}, files)
}

func TestSourceIndexResolve(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "core/Core.scala", "alu/Alu.scala")
	fsys := fstest.MapFS{"gen/Top.sv": {Data: []byte("module Top; endmodule")}}

	idx, err := NewSourceIndex(Multi(MustDirTree(root), FS("embedded", fsys)))
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	p, ok := idx.Resolve("Core.scala")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "core", "Core.scala"), p)
	p, ok = idx.Resolve("Top.sv")
	require.True(t, ok)
	assert.Equal(t, "embedded/gen/Top.sv", p)
	_, ok = idx.Resolve("Missing.scala")
	assert.False(t, ok)
	assert.Empty(t, idx.DuplicateKeys())
}

func TestSourceIndexDuplicates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a/Util.scala", "b/Util.scala", "c/Util.scala", "a/Core.scala")

	idx, err := NewSourceIndex(MustDirTree(root))
	require.NoError(t, err)

	_, ok := idx.Resolve("Util.scala")
	assert.False(t, ok, "ambiguous key is disabled")
	_, ok = idx.Resolve("Core.scala")
	assert.True(t, ok, "other keys keep working")

	assert.Equal(t, []string{"Util.scala"}, idx.DuplicateKeys())
	assert.Equal(t, []string{
		filepath.Join(root, "a", "Util.scala"),
		filepath.Join(root, "b", "Util.scala"),
		filepath.Join(root, "c", "Util.scala"),
	}, idx.Candidates("Util.scala"))
}

func TestSourceIndexSameFileTwice(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "Core.scala")
	src := MustDir(root)

	idx, err := NewSourceIndex(Multi(src, src))
	require.NoError(t, err)
	_, ok := idx.Resolve("Core.scala")
	assert.True(t, ok)
}

func TestNilSourceIndex(t *testing.T) {
	var idx *SourceIndex
	_, ok := idx.Resolve("Core.scala")
	assert.False(t, ok)
	assert.Zero(t, idx.Len())
	assert.Nil(t, idx.DuplicateKeys())
}
