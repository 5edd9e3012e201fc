package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunctionSimple(t *testing.T) {
	src := []byte("function y = square(x)\n" +
		"y = x * x;\n" +
		"end\n")
	tree, err := Parse(src)
	require.NoError(t, err)

	fns := tree.Find([]string{string(KindFunction)}, -1)
	require.Len(t, fns, 1)
	fn := fns[0].Element
	decl := fn.Children[0]
	assert.Equal(t, []string{"square"}, decl.Names)
	assert.Equal(t, []string{"x"}, decl.Inputs)
	assert.Equal(t, []string{"y"}, decl.Outputs)

	calls := fn.Find([]string{string(KindReadwrite)}, -1)
	var names []string
	for _, m := range calls {
		names = append(names, m.Element.Content)
	}
	assert.Contains(t, names, "x")
	assert.Contains(t, names, "y")
}

func TestParseClassdefWithAncestors(t *testing.T) {
	src := []byte(`classdef Dog < Animal & Loggable
properties
    Name (1,1) string = "Rex"
end
methods
    function obj = Dog(name)
        obj.Name = name;
    end
end
end
`)
	tree, err := Parse(src)
	require.NoError(t, err)

	classes := tree.Find([]string{string(KindClass)}, -1)
	require.Len(t, classes, 1)
	cls := classes[0].Element
	decl := cls.Children[0]
	assert.Equal(t, []string{"Dog"}, decl.Names)
	assert.ElementsMatch(t, []string{"Animal", "Loggable"}, decl.Ancestors)

	props := cls.Find([]string{string(KindArgProperty)}, -1)
	require.Len(t, props, 1)
	assert.Equal(t, "string", props[0].Element.TypeStr)
	assert.Equal(t, `"Rex"`, props[0].Element.Default)

	// Default expression and type annotation must be exposed as children
	// too, so the generic dependency walk can see them.
	typeLeaves := props[0].Element.Find([]string{string(KindStorageType)}, -1)
	assert.Len(t, typeLeaves, 1)
}

func TestParseCommentBlockAndLineInFunction(t *testing.T) {
	src := []byte("function noop()\n" +
		"%{\n" +
		"block comment\n" +
		"%}\n" +
		"% line comment\n" +
		"end\n")
	tree, err := Parse(src)
	require.NoError(t, err)

	fns := tree.Find([]string{string(KindFunction)}, -1)
	require.Len(t, fns, 1)
	comments := fns[0].Element.Find([]string{
		string(KindCommentBlock), string(KindCommentLine),
	}, -1)
	require.NotEmpty(t, comments)
}

func TestTokenizeStatementDottedCall(t *testing.T) {
	toks := tokenizeStatement("obj.method(x, y)", 1, 0)
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, KindReadwrite)
	assert.Contains(t, kinds, KindAccessorDot)
	assert.Contains(t, kinds, KindCallParens)
}

func TestParseImportStatement(t *testing.T) {
	src := []byte("function f()\n" +
		"import pkg.subpkg.Helper\n" +
		"Helper.run();\n" +
		"end\n")
	tree, err := Parse(src)
	require.NoError(t, err)
	fns := tree.Find([]string{string(KindFunction)}, -1)
	require.Len(t, fns, 1)
	imports := fns[0].Element.Find([]string{string(KindNamespace)}, -1)
	require.NotEmpty(t, imports)
}
