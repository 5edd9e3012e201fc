package pathengine

import (
	"path/filepath"
	"strings"

	"github.com/watermarkhu/mpath/pkg/node"
)

// ResolveDependencies sweeps every node in the database, resolving each
// unresolved call/import string into an actual node reference and linking
// both sides of the edge. Classdef nodes additionally resolve each of their
// methods as an independent subject, under the class's own directory.
func (e *Engine) ResolveDependencies() {
	for path, n := range e.database {
		switch n.Kind {
		case node.KindScript, node.KindFunction:
			e.resolveSubject(n, filepath.Dir(path))
		case node.KindClassdef:
			classDir := filepath.Dir(path)
			e.resolveSubject(n, classDir)
			if n.Classdef != nil && n.Classdef.Methods != nil {
				for _, name := range n.Classdef.Methods.Keys() {
					if m, ok := n.Classdef.Methods.Get(name); ok {
						e.resolveSubject(m, classDir)
					}
				}
			}
		}
	}
}

// resolveSubject resolves one node's imports and calls under dir (its own
// containing directory).
//
// Imports are kept in declaration order - first import wins, matching
// ordinary first-match shadowing elsewhere in this engine - rather than
// reproducing a reverse-import-precedence quirk some sources exhibit.
func (e *Engine) resolveSubject(n *node.Node, dir string) {
	var importDirs []string
	for _, imp := range n.Imports {
		if target, ok := e.Resolve(imp, []string{dir}); ok {
			importDirs = append(importDirs, target.Path)
		}
	}
	stack := append(append([]string{}, importDirs...), dir)

	for _, call := range n.Calls {
		resolved, ok := e.Resolve(call, stack)
		if !ok && strings.Contains(call, ".") {
			head := call[:strings.IndexByte(call, '.')]
			resolved, ok = e.Resolve(head, importDirs)
		}
		if !ok {
			n.UnresolvedDependencies = append(n.UnresolvedDependencies, call)
			continue
		}
		n.Dependencies = append(n.Dependencies, resolved)
		resolved.Dependants = append(resolved.Dependants, n)
	}
}
