package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watermarkhu/mpath/pkg/builder"
	"github.com/watermarkhu/mpath/pkg/dependency"
	"github.com/watermarkhu/mpath/pkg/grammar"
	"github.com/watermarkhu/mpath/pkg/pathengine"
)

func newTestEngine(t *testing.T, dir string) *pathengine.Engine {
	t.Helper()
	cache, err := grammar.NewCache(16)
	require.NoError(t, err)
	b := builder.New(cache, dependency.New(nil), true, nil)
	e, err := pathengine.New([]string{dir}, b, pathengine.Options{}, nil)
	require.NoError(t, err)
	return e
}

func TestWatcherPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, dir)

	w, err := New(e, Options{DebounceMs: 20}, nil)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.Start(dir, true, false))

	path := filepath.Join(dir, "added.m")
	require.NoError(t, os.WriteFile(path, []byte("function added()\nend\n"), 0o644))

	require.Eventually(t, func() bool {
		_, ok := e.Resolve("added", nil)
		return ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherRemovalDropsNode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.m")
	require.NoError(t, os.WriteFile(path, []byte("function gone()\nend\n"), 0o644))

	e := newTestEngine(t, dir)
	_, ok := e.Resolve("gone", nil)
	require.True(t, ok)

	w, err := New(e, Options{DebounceMs: 20}, nil)
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Start(dir, true, false))

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		_, ok := e.Resolve("gone", nil)
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, dir)
	w, err := New(e, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
