// Package dependency walks a parsed grammar element tree for one analysis
// scope (a script, a function, a method, or a class declaration) and
// produces its unresolved call/import/builtin sets. Resolving those sets
// into actual node references is the path engine's job (pkg/pathengine),
// not this package's.
package dependency

import (
	"strings"

	"github.com/watermarkhu/mpath/pkg/builtin"
	"github.com/watermarkhu/mpath/pkg/grammar"
)

// Result is the unresolved dependency surface for one analysis scope.
type Result struct {
	Calls               []string
	Imports             []string
	BuiltinDependencies []string
}

// Analyzer extracts Results using a fixed built-in reference list.
type Analyzer struct {
	builtins *builtin.Set
}

func New(builtins *builtin.Set) *Analyzer {
	if builtins == nil {
		builtins = builtin.Empty()
	}
	return &Analyzer{builtins: builtins}
}

var assignmentTargetKinds = map[grammar.Kind]bool{
	grammar.KindAssignSingle: true,
	grammar.KindAssignGroup:  true,
}

// Analyze walks scope (the element for a function/method body, or a class
// declaration) and returns its unresolved calls, imports, and recognized
// built-ins, with locally-bound names already subtracted from calls.
func (a *Analyzer) Analyze(scope *grammar.Element) Result {
	locals := map[string]bool{}
	var calls, imports, builtins []string

	matches := scope.Flatten()

	for _, m := range matches {
		switch m.Element.Kind {
		case grammar.KindParamInput:
			locals[m.Element.Content] = true

		case grammar.KindAssignSingle, grammar.KindAssignGroup:
			for _, child := range m.Element.Children {
				if child.Kind == grammar.KindReadwrite {
					locals[child.Content] = true
				}
			}

		case grammar.KindStorageType:
			a.add(&calls, &builtins, m.Element.Content)

		case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
			if names, ok := functionPragma(m.Element.Content); ok {
				for _, n := range names {
					a.add(&calls, &builtins, n)
				}
			}

		case grammar.KindNamespace:
			name := strings.TrimSpace(m.Element.Content)
			if strings.HasSuffix(name, "*") {
				prefix := strings.TrimSuffix(name, "*")
				prefix = strings.TrimSuffix(prefix, ".")
				if prefix != "" {
					imports = append(imports, prefix)
				}
			} else if name != "" {
				a.add(&calls, &builtins, name)
			}

		case grammar.KindReadwrite:
			if !assignmentTargetKinds[m.Parent.Kind] {
				a.add(&calls, &builtins, m.Element.Content)
			}
		}
	}

	// Dotted call-site resolution: a.b.c(...) tokenizes as a flat sibling
	// run [readwrite(a), dot, readwrite(b), dot, call-parens{function-name(c)}].
	// Walk backward from each call-parens sibling to assemble the full
	// dotted name, then skip it entirely if its root is a local variable
	// (a method call on a local value, not an external dependency).
	for _, m := range scope.Find([]string{string(grammar.KindCallParens)}, -1) {
		name, root, dotted := dottedCallName(m.Element, m.Parent)
		if dotted && locals[root] {
			continue
		}
		a.add(&calls, &builtins, name)
	}

	calls = subtractLocals(calls, locals)

	return Result{Calls: dedupe(calls), Imports: dedupe(imports), BuiltinDependencies: dedupe(builtins)}
}

func (a *Analyzer) add(calls, builtins *[]string, name string) {
	if name == "" {
		return
	}
	if a.builtins.Contains(name) {
		*builtins = append(*builtins, name)
	} else {
		*calls = append(*calls, name)
	}
}

// functionPragma recognizes a "%#function name1 name2" docstring pragma.
// content is the comment element's raw text, which still carries its
// leading '%'.
func functionPragma(content string) ([]string, bool) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "%")
	if !strings.HasPrefix(trimmed, "#function") {
		return nil, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "#function"))
	if rest == "" {
		return nil, false
	}
	return strings.Fields(rest), true
}

// dottedCallName returns the bare or fully dotted call name for a
// meta.function-call.parens element found at callElem within parent's
// Children, plus the root identifier of that chain and whether it is in
// fact dotted (vs. a bare call).
func dottedCallName(callElem, parent *grammar.Element) (name, root string, dotted bool) {
	var fnName string
	for _, c := range callElem.Children {
		if c.Kind == grammar.KindFunctionName {
			fnName = c.Content
			break
		}
	}
	idx := -1
	for i, sib := range parent.Children {
		if sib == callElem {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fnName, fnName, false
	}

	var chain []string
	i := idx - 1
	for i >= 1 {
		dot := parent.Children[i]
		ident := parent.Children[i-1]
		if dot.Kind != grammar.KindAccessorDot || ident.Kind != grammar.KindReadwrite {
			break
		}
		chain = append([]string{ident.Content}, chain...)
		i -= 2
	}
	if len(chain) == 0 {
		return fnName, fnName, false
	}
	full := strings.Join(chain, ".") + "." + fnName
	return full, chain[0], true
}

func subtractLocals(calls []string, locals map[string]bool) []string {
	out := calls[:0]
	for _, c := range calls {
		root := c
		if idx := strings.IndexByte(c, '.'); idx >= 0 {
			root = c[:idx]
		}
		if locals[root] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
