package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watermarkhu/mpath/pkg/dependency"
	"github.com/watermarkhu/mpath/pkg/grammar"
	"github.com/watermarkhu/mpath/pkg/node"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	cache, err := grammar.NewCache(64)
	require.NoError(t, err)
	return New(cache, dependency.New(nil), true, nil)
}

func writeM(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildPlainFunction(t *testing.T) {
	dir := t.TempDir()
	path := writeM(t, dir, "square.m", "function y = square(x)\ny = x * x;\nend\n")

	b := newTestBuilder(t)
	n, err := b.Build(path, nil)
	require.NoError(t, err)
	assert.Equal(t, node.KindFunction, n.Kind)
	assert.Equal(t, "square", n.Name)
	require.NotNil(t, n.Function)
	assert.Equal(t, []string{"x"}, n.Function.Input)
	assert.Equal(t, []string{"y"}, n.Function.Output)
}

func TestBuildScriptWhenNoFunctionOrClass(t *testing.T) {
	dir := t.TempDir()
	path := writeM(t, dir, "runme.m", "x = 1;\ndisp(x);\n")

	b := newTestBuilder(t)
	n, err := b.Build(path, nil)
	require.NoError(t, err)
	assert.Equal(t, node.KindScript, n.Kind)
}

func TestBuildClassdefFile(t *testing.T) {
	dir := t.TempDir()
	path := writeM(t, dir, "Dog.m", `classdef Dog < Animal
properties
    Name (1,1) string
end
methods
    function obj = Dog(name)
        obj.Name = name;
    end
    function bark(obj)
        disp(obj.Name);
    end
end
end
`)
	b := newTestBuilder(t)
	n, err := b.Build(path, nil)
	require.NoError(t, err)
	assert.Equal(t, node.KindClassdef, n.Kind)
	require.NotNil(t, n.Classdef)
	assert.Equal(t, []string{"Animal"}, n.Classdef.Ancestors)
	assert.Contains(t, n.Classdef.Properties, "Name")

	keys := n.Classdef.Methods.Keys()
	assert.Equal(t, []string{"Dog", "bark"}, keys)

	ctor, ok := n.Classdef.Methods.Get("Dog")
	require.True(t, ok)
	assert.True(t, ctor.Method.IsConstructor)

	bark, ok := n.Classdef.Methods.Get("bark")
	require.True(t, ok)
	assert.False(t, bark.Method.IsConstructor)
	// The object receiver is dropped from a non-static instance method.
	assert.Empty(t, bark.Method.Input)
}

func TestBuildClassFolderWithMissingPrimary(t *testing.T) {
	dir := t.TempDir()
	classDir := filepath.Join(dir, "@Widget")
	require.NoError(t, os.MkdirAll(classDir, 0o755))
	writeM(t, classDir, "render.m", "function render(obj)\ndisp(obj);\nend\n")

	b := newTestBuilder(t)
	n, err := b.Build(classDir, nil)
	require.NoError(t, err)
	assert.Equal(t, node.KindClassdef, n.Kind)
	assert.True(t, n.Classdef.IsClassFolder)
	assert.Equal(t, 1, n.Classdef.Methods.Len())
}

func TestBuildPackageRecursesSubpackagesAndClassFolders(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "+mypkg")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	writeM(t, pkgDir, "helper.m", "function helper()\nend\n")

	subDir := filepath.Join(pkgDir, "+subpkg")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	writeM(t, subDir, "inner.m", "function inner()\nend\n")

	classDir := filepath.Join(pkgDir, "@Thing")
	require.NoError(t, os.MkdirAll(classDir, 0o755))
	writeM(t, classDir, "Thing.m", "classdef Thing\nend\n")

	b := newTestBuilder(t)
	n, err := b.Build(pkgDir, nil)
	require.NoError(t, err)
	assert.Equal(t, node.KindPackage, n.Kind)
	require.Len(t, n.Package.Functions, 1)
	assert.Equal(t, "helper", n.Package.Functions[0].Name)
	require.Len(t, n.Package.Subpackages, 1)
	assert.Equal(t, "subpkg", n.Package.Subpackages[0].Name)
	require.Len(t, n.Package.Classdefs, 1)
	assert.Equal(t, "Thing", n.Package.Classdefs[0].Name)
}

func TestBuildSkipsBareContentsM(t *testing.T) {
	dir := t.TempDir()
	path := writeM(t, dir, "Contents.m", "% package docs\n")

	b := newTestBuilder(t)
	_, err := b.Build(path, nil)
	require.Error(t, err)
}
