package dependency

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watermarkhu/mpath/pkg/builtin"
	"github.com/watermarkhu/mpath/pkg/grammar"
)

func parseFunctionBody(t *testing.T, src string) *grammar.Element {
	t.Helper()
	tree, err := grammar.Parse([]byte(src))
	require.NoError(t, err)
	fns := tree.Find([]string{"meta.function"}, -1)
	require.Len(t, fns, 1)
	return fns[0].Element
}

func TestAnalyzeSkipsLocalsAndParams(t *testing.T) {
	fn := parseFunctionBody(t, `function y = compute(x)
total = helper(x);
y = total;
end
`)
	a := New(builtin.Empty())
	result := a.Analyze(fn)

	assert.Contains(t, result.Calls, "helper")
	assert.NotContains(t, result.Calls, "x")
	assert.NotContains(t, result.Calls, "total")
	assert.NotContains(t, result.Calls, "y")
}

func TestAnalyzeRecognizesBuiltins(t *testing.T) {
	fn := parseFunctionBody(t, `function noop()
disp('hello');
helper();
end
`)
	set := loadBuiltinSet(t, map[string]string{"disp": "https://www.mathworks.com/help/matlab/ref/disp.html"})
	a := New(set)
	result := a.Analyze(fn)

	assert.Contains(t, result.BuiltinDependencies, "disp")
	assert.Contains(t, result.Calls, "helper")
	assert.NotContains(t, result.Calls, "disp")
}

func TestAnalyzeImportWildcard(t *testing.T) {
	fn := parseFunctionBody(t, `function f()
import pkg.subpkg.*
run();
end
`)
	a := New(builtin.Empty())
	result := a.Analyze(fn)
	assert.Contains(t, result.Imports, "pkg.subpkg")
}

func TestAnalyzeImportSpecificName(t *testing.T) {
	fn := parseFunctionBody(t, `function f()
import pkg.subpkg.Helper
Helper.run();
end
`)
	a := New(builtin.Empty())
	result := a.Analyze(fn)
	// A non-wildcard import names a specific symbol - it is treated as a
	// call to that symbol, not recorded in Imports.
	assert.Contains(t, result.Calls, "pkg.subpkg.Helper")
}

func TestAnalyzeDottedCallOnLocalIsSkipped(t *testing.T) {
	fn := parseFunctionBody(t, `function f()
obj = Builder();
obj.build();
end
`)
	a := New(builtin.Empty())
	result := a.Analyze(fn)

	assert.Contains(t, result.Calls, "Builder")
	assert.NotContains(t, result.Calls, "obj.build")
}

func TestAnalyzeFunctionPragma(t *testing.T) {
	fn := parseFunctionBody(t, `function f()
%#function helperA helperB
feval('helperA');
end
`)
	a := New(builtin.Empty())
	result := a.Analyze(fn)
	assert.Contains(t, result.Calls, "helperA")
	assert.Contains(t, result.Calls, "helperB")
}

func loadBuiltinSet(t *testing.T, m map[string]string) *builtin.Set {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/builtins.json"
	data := `{`
	first := true
	for k, v := range m {
		if !first {
			data += ","
		}
		first = false
		data += `"` + k + `":"` + v + `"`
	}
	data += `}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return builtin.Load(path, nil)
}
