package grammar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCachedHitsAndInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.m")
	require.NoError(t, os.WriteFile(path, []byte("function f()\nend\n"), 0o644))

	cache, err := NewCache(4)
	require.NoError(t, err)

	tree1, err := cache.ParseCached(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	tree2, err := cache.ParseCached(path)
	require.NoError(t, err)
	assert.Same(t, tree1, tree2)

	require.NoError(t, os.WriteFile(path, []byte("function g()\nend\n"), 0o644))
	tree3, err := cache.ParseCached(path)
	require.NoError(t, err)
	assert.NotSame(t, tree1, tree3)

	fns := tree3.Find([]string{string(KindFunction)}, -1)
	require.Len(t, fns, 1)
	assert.Equal(t, []string{"g"}, fns[0].Element.Children[0].Names)
}

func TestPurgeEmptiesCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.m")
	require.NoError(t, os.WriteFile(path, []byte("x = 1;\n"), 0o644))

	cache, err := NewCache(4)
	require.NoError(t, err)
	_, err = cache.ParseCached(path)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestReadSourceEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.m")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	content, hash, err := ReadSource(path)
	require.NoError(t, err)
	assert.Empty(t, content)
	assert.NotEmpty(t, hash)
}
