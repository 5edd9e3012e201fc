package builtin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTestdataSet(t *testing.T) {
	s := Load(filepath.Join("testdata", "builtins.json"), nil)
	require.Greater(t, s.Len(), 0)
	assert.True(t, s.Contains("disp"))

	u, ok := s.URL("disp")
	assert.True(t, ok)
	assert.Contains(t, u, "mathworks.com")
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := Load(filepath.Join("testdata", "does-not-exist.json"), nil)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("disp"))
}

func TestLoadCorruptFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	s := Load(bad, nil)
	assert.Equal(t, 0, s.Len())
}

func TestNilSetIsSafe(t *testing.T) {
	var s *Set
	assert.False(t, s.Contains("disp"))
	assert.Equal(t, 0, s.Len())
	_, ok := s.URL("disp")
	assert.False(t, ok)
}
