package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRoot creates a canonical sandbox root inside a temp dir. The returned
// parent lets tests create siblings next to the root.
func newRoot(t *testing.T) (Root, string) {
	t.Helper()
	parent := t.TempDir()
	dir := filepath.Join(parent, "work")
	require.NoError(t, os.Mkdir(dir, 0o755))
	root, err := NewRoot(dir)
	require.NoError(t, err)
	return root, filepath.Dir(root.Path())
}

func TestNewRoot_RejectsMissingAndFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := NewRoot("")
	require.Error(t, err)

	_, err = NewRoot(filepath.Join(dir, "missing"))
	require.Error(t, err)

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewRoot(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestResolve_AcceptsPathsInsideRoot(t *testing.T) {
	root, _ := newRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root.Path(), "pkg", "sub"), 0o755))

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{"empty is root", "", root.Path()},
		{"dot is root", ".", root.Path()},
		{"relative file", "notes.txt", filepath.Join(root.Path(), "notes.txt")},
		{"nested new file", "pkg/sub/new.go", filepath.Join(root.Path(), "pkg", "sub", "new.go")},
		{"missing parents", "a/b/c.txt", filepath.Join(root.Path(), "a", "b", "c.txt")},
		{"dotdot collapsing inside", "pkg/../notes.txt", filepath.Join(root.Path(), "notes.txt")},
		{"absolute inside", filepath.Join(root.Path(), "pkg"), filepath.Join(root.Path(), "pkg")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Resolve(tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RejectsEscapes(t *testing.T) {
	root, parent := newRoot(t)

	tests := []struct {
		name      string
		candidate string
	}{
		{"parent traversal", "../etc/passwd"},
		{"parent itself", ".."},
		{"deep traversal", "pkg/../../outside.txt"},
		{"absolute outside", "/etc/passwd"},
		{"filesystem root", "/"},
		{"sibling sharing name prefix", filepath.Join(parent, "work2", "x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := root.Resolve(tt.candidate)
			require.Error(t, err)
			var ce *ContainmentError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.candidate, ce.Path)
			assert.True(t, IsContainmentError(err))
		})
	}
}

func TestResolve_SiblingPrefixDirectoryRejected(t *testing.T) {
	root, parent := newRoot(t)
	sibling := filepath.Join(parent, "work2")
	require.NoError(t, os.Mkdir(sibling, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sibling, "x"), []byte("secret"), 0o644))

	_, err := root.Resolve(filepath.Join(sibling, "x"))
	require.Error(t, err)
	assert.True(t, IsContainmentError(err))

	_, err = root.Resolve("../work2/x")
	require.Error(t, err)
	assert.True(t, IsContainmentError(err))
}

func TestResolve_SymlinkEscapeRejected(t *testing.T) {
	root, parent := newRoot(t)
	outside := filepath.Join(parent, "outside")
	require.NoError(t, os.Mkdir(outside, 0o755))

	if err := os.Symlink(outside, filepath.Join(root.Path(), "escape")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := root.Resolve("escape/file.txt")
	require.Error(t, err)
	assert.True(t, IsContainmentError(err))
}

func TestResolve_DanglingSymlinkEscapeRejected(t *testing.T) {
	root, parent := newRoot(t)
	target := filepath.Join(parent, "not-yet-created.txt")

	if err := os.Symlink(target, filepath.Join(root.Path(), "dangling")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := root.Resolve("dangling")
	require.Error(t, err)
	assert.True(t, IsContainmentError(err))
}

func TestResolve_SymlinkInsideRootAccepted(t *testing.T) {
	root, _ := newRoot(t)
	real := filepath.Join(root.Path(), "real")
	require.NoError(t, os.Mkdir(real, 0o755))

	if err := os.Symlink("real", filepath.Join(root.Path(), "alias")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	got, err := root.Resolve("alias/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(real, "file.txt"), got)
}

func TestResolve_SymlinkLoopRejected(t *testing.T) {
	root, _ := newRoot(t)
	a := filepath.Join(root.Path(), "a")
	b := filepath.Join(root.Path(), "b")
	if err := os.Symlink(b, a); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(a, b))

	_, err := root.Resolve("a")
	require.Error(t, err)
	assert.True(t, IsContainmentError(err))
}

func TestResolve_ErrorNeverLeaksResolvedPath(t *testing.T) {
	root, parent := newRoot(t)

	_, err := root.Resolve("../secret/../../x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), parent)
	assert.Contains(t, err.Error(), `"../secret/../../x"`)
}

func TestResolve_PackageFunctionCanonicalizesRoot(t *testing.T) {
	root, _ := newRoot(t)
	// A root spelled with a redundant segment must behave exactly like the
	// canonical one.
	spelled := filepath.Join(root.Path(), "..", filepath.Base(root.Path()))

	got, err := Resolve(spelled, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root.Path(), "notes.txt"), got)

	_, err = Resolve(spelled, "../etc/passwd")
	assert.True(t, IsContainmentError(err))
}

func TestResolve_ZeroRootFails(t *testing.T) {
	var r Root
	_, err := r.Resolve("x")
	require.Error(t, err)
	assert.False(t, IsContainmentError(err))
}
