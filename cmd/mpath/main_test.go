package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildEngineDefaultRunsDependencyAnalysis exercises the default CLI
// path - no --no-deps flag, no .mpath/config.yaml - and checks that
// dependency analysis actually ran, so resolve/deps see a populated
// Dependencies/Dependants graph instead of silently-empty sections.
func TestBuildEngineDefaultRunsDependencyAnalysis(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.m"), []byte("function helper()\nend\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "caller.m"), []byte("function caller()\nhelper();\nend\n"), 0o644))

	// No .mpath/config.yaml in this directory: loadProjectConfig must see nil.
	old, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(old)
	require.NoError(t, os.Chdir(t.TempDir()))

	f := cliFlags{paths: []string{dir}, logLevel: "info", logFormat: "json"}
	engine, err := buildEngine(f)
	require.NoError(t, err)

	caller, ok := engine.Resolve("caller", nil)
	require.True(t, ok)
	require.Len(t, caller.Dependencies, 1, "dependency analysis should have run by default")
	require.Equal(t, "helper", caller.Dependencies[0].Name)

	helper, ok := engine.Resolve("helper", nil)
	require.True(t, ok)
	require.Len(t, helper.Dependants, 1)
	require.Equal(t, "caller", helper.Dependants[0].Name)
}

// TestBuildEngineNoDepsFlagSkipsAnalysis confirms --no-deps still disables
// the analysis explicitly, the complementary case to the default-on test.
func TestBuildEngineNoDepsFlagSkipsAnalysis(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.m"), []byte("function helper()\nend\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "caller.m"), []byte("function caller()\nhelper();\nend\n"), 0o644))

	old, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(old)
	require.NoError(t, os.Chdir(t.TempDir()))

	f := cliFlags{paths: []string{dir}, noDeps: true, logLevel: "info", logFormat: "json"}
	engine, err := buildEngine(f)
	require.NoError(t, err)

	caller, ok := engine.Resolve("caller", nil)
	require.True(t, ok)
	require.Empty(t, caller.Dependencies)
}
