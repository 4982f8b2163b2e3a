package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func TestWalker_Walk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.pdf", "notes/b.txt", "notes/c.md", "drafts/d.pdf")

	w := NewWalker([]string{"**/*.pdf", "**/*.txt"}, []string{"drafts/**"})
	files, err := w.Walk(root)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.ElementsMatch(t, []string{"a.pdf", "notes/b.txt"}, rel)
}

func TestWalker_Resolve(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.pdf", "sub/b.pdf", "sub/c.txt")

	w := NewWalker([]string{"**/*.pdf"}, nil)

	files, err := w.Resolve([]string{
		filepath.Join(root, "sub", "c.txt"),
		filepath.Join(root, "**", "*.pdf"),
		root,
	})
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{
		filepath.Join(root, "a.pdf"),
		filepath.Join(root, "sub", "b.pdf"),
		filepath.Join(root, "sub", "c.txt"),
	}, paths)
}

func TestWalker_ResolveNoMatch(t *testing.T) {
	w := NewWalker(nil, nil)
	_, err := w.Resolve([]string{filepath.Join(t.TempDir(), "*.pdf")})
	assert.Error(t, err)
}
