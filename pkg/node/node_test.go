package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "classdef", KindClassdef.String())
	assert.Equal(t, "unknown", Kind(999).String())
}

func TestFullyQualifiedNameWalksParents(t *testing.T) {
	root := &Node{Header: Header{Name: "pkg"}}
	mid := &Node{Header: Header{Name: "subpkg", Parent: root}}
	leaf := &Node{Header: Header{Name: "Helper", Parent: mid}}

	assert.Equal(t, "pkg", FullyQualifiedName(root))
	assert.Equal(t, "pkg.subpkg", FullyQualifiedName(mid))
	assert.Equal(t, "pkg.subpkg.Helper", FullyQualifiedName(leaf))
}

func TestNameFromPathStripsMarkersAndExt(t *testing.T) {
	assert.Equal(t, "Helper", NameFromPath("/root/+pkg/@Helper"))
	assert.Equal(t, "foo", NameFromPath("/a/b/foo.m"))
	assert.Equal(t, "subpkg", NameFromPath("/a/+subpkg"))
}

func TestOrderedMethodsPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMethods()
	m.Set("b", &Node{Header: Header{Name: "b"}})
	m.Set("a", &Node{Header: Header{Name: "a"}})
	m.Set("b", &Node{Header: Header{Name: "b-updated"}})

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	assert.Equal(t, 2, m.Len())

	got, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "b-updated", got.Name)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}
