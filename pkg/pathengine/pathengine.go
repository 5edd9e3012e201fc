// Package pathengine owns the ordered search path, the shadowing-aware
// global namespace, per-directory local namespaces, and the node database.
// It is the single-threaded, cooperative engine: every exported method
// assumes it is never called concurrently with another on the same Engine.
package pathengine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/watermarkhu/mpath/pkg/builder"
	"github.com/watermarkhu/mpath/pkg/node"
)

// ErrInvalidArgument is returned when the constructor receives a non-path
// element in the search-path list.
var ErrInvalidArgument = errors.New("pathengine: invalid search path argument")

// Options selects the engine's programmatic-surface knobs: whether
// dependency analysis is wanted, whether to surface progress while
// scanning, and which doublestar glob patterns to skip during directory
// discovery (e.g. "*.asv", "**/.git/**"). The Engine itself does not read
// DependencyAnalysis: inline analysis during AddPath is the Builder's
// runAnalysis setting, and cmd/mpath reads the field to decide whether to
// call ResolveDependencies.
type Options struct {
	DependencyAnalysis bool
	ShowProgress       bool
	ExcludeGlobs       []string
}

type memberEntry struct {
	fqdm string
	path string
}

// Engine is the path-and-namespace engine. Zero value is not usable; build
// one with New.
type Engine struct {
	searchPath      []string
	pathMembers     map[string][]memberEntry
	namespace       map[string][]string
	localNamespaces map[string]map[string]string
	database        map[string]*node.Node

	builder      *builder.Builder
	logger       *slog.Logger
	showProgress bool
	excludeGlobs []string
}

// New validates every entry of paths eagerly - it type-checks its whole
// list up front rather than failing partway through addpath calls - and
// then adds each one with to_end=true, matching a constructor that calls
// self.addpath(path, to_end=True) in a loop.
func New(paths []string, b *builder.Builder, opts Options, logger *slog.Logger) (*Engine, error) {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("%w: empty search path entry", ErrInvalidArgument)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		pathMembers:     map[string][]memberEntry{},
		namespace:       map[string][]string{},
		localNamespaces: map[string]map[string]string{},
		database:        map[string]*node.Node{},
		builder:         b,
		logger:          logger,
		showProgress:    opts.ShowProgress,
		excludeGlobs:    opts.ExcludeGlobs,
	}
	for _, p := range paths {
		if err := e.AddPath(p, true, false); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SearchPath returns the current ordered search path, front first.
func (e *Engine) SearchPath() []string {
	out := make([]string, len(e.searchPath))
	copy(out, e.searchPath)
	return out
}

// Database returns the node registered at an exact path, if any.
func (e *Engine) Database(path string) (*node.Node, bool) {
	n, ok := e.database[path]
	return n, ok
}

// AddPath inserts path into the search order (front by default, back when
// toEnd is set), discovers its immediate members, builds a node for each,
// and wires them into the namespaces and database. If path is already
// present it is first removed and then re-inserted at the requested end,
// matching the reference implementation.
func (e *Engine) AddPath(path string, toEnd bool, recursive bool) error {
	path = filepath.Clean(path)
	e.RmPath(path, false)
	if toEnd {
		e.searchPath = append(e.searchPath, path)
	} else {
		e.searchPath = append([]string{path}, e.searchPath...)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read search path %s: %w", path, err)
	}
	if e.showProgress {
		e.logger.Info("scanning search path directory", "path", path, "entries", len(entries))
	}

	isPrivate := filepath.Base(path) == "private"

	for _, entry := range entries {
		memberPath := filepath.Join(path, entry.Name())

		if e.isExcluded(entry.Name()) {
			continue
		}

		if recursive && entry.IsDir() && !strings.HasPrefix(entry.Name(), "+") && !strings.HasPrefix(entry.Name(), "@") {
			if err := e.AddPath(memberPath, toEnd, true); err != nil {
				e.logger.Warn("skipping subdirectory during recursive addpath", "path", memberPath, "error", err)
			}
			continue
		}
		if !entry.IsDir() && entry.Name() == "Contents.m" {
			continue
		}

		n, err := e.builder.Build(memberPath, nil)
		if err != nil {
			if !errors.Is(err, builder.ErrSkip) {
				e.logger.Warn("skipping path member", "path", memberPath, "error", err)
			}
			continue
		}

		e.pathMembers[path] = append(e.pathMembers[path], memberEntry{fqdm: n.Fqdm, path: memberPath})
		e.database[memberPath] = n

		if isPrivate {
			e.setLocal(filepath.Dir(path), n.Fqdm, memberPath)
		} else {
			e.insertNamespace(n.Fqdm, memberPath, toEnd)
		}

		if n.Kind == node.KindPackage && n.Package != nil {
			e.addPackageToLocalNamespace(path, memberPath, n, toEnd)
		}
	}
	if e.showProgress {
		e.logger.Info("finished search path directory", "path", path, "members", len(e.pathMembers[path]))
	}
	return nil
}

// addPackageToLocalNamespace registers a package's contents into the
// package directory's local namespace (so "P.c" and bare "c" both
// resolve) and recursively into the global namespace by fqdm. Unlike some
// reference implementations, these entries are also recorded in pathMembers
// so rm_path can fully reverse them - otherwise addpath/rm_path would not
// round-trip, since a namespace that never tracks package members for
// removal leaves them registered after their path is removed.
func (e *Engine) addPackageToLocalNamespace(rootPath, pkgPath string, pkg *node.Node, toEnd bool) {
	members := append(append([]*node.Node{}, pkg.Package.Classdefs...), pkg.Package.Functions...)
	members = append(members, pkg.Package.Subpackages...)
	for _, item := range members {
		e.setLocal(pkgPath, item.Name, item.Path)
		e.insertNamespace(item.Fqdm, item.Path, toEnd)
		e.database[item.Path] = item
		e.pathMembers[rootPath] = append(e.pathMembers[rootPath], memberEntry{fqdm: item.Fqdm, path: item.Path})
	}
	for _, sub := range pkg.Package.Subpackages {
		e.addPackageToLocalNamespace(rootPath, sub.Path, sub, toEnd)
	}
}

func (e *Engine) setLocal(dir, name, path string) {
	if e.localNamespaces[dir] == nil {
		e.localNamespaces[dir] = map[string]string{}
	}
	e.localNamespaces[dir][name] = path
}

func (e *Engine) insertNamespace(fqdm, path string, toEnd bool) {
	if toEnd {
		e.namespace[fqdm] = append(e.namespace[fqdm], path)
	} else {
		e.namespace[fqdm] = append([]string{path}, e.namespace[fqdm]...)
	}
}

func (e *Engine) removeFromSearchOrder(path string) {
	for i, p := range e.searchPath {
		if p == path {
			e.searchPath = append(e.searchPath[:i], e.searchPath[i+1:]...)
			return
		}
	}
}

// RmPath removes path from the search order, dropping every namespace and
// database entry it contributed. If recursive, every other search-path
// entry that is a descendant directory of path is removed too.
func (e *Engine) RmPath(path string, recursive bool) {
	path = filepath.Clean(path)
	found := false
	for _, p := range e.searchPath {
		if p == path {
			found = true
			break
		}
	}
	if !found {
		return
	}
	e.removeFromSearchOrder(path)

	for _, entry := range e.pathMembers[path] {
		e.namespace[entry.fqdm] = removeValue(e.namespace[entry.fqdm], entry.path)
		if len(e.namespace[entry.fqdm]) == 0 {
			delete(e.namespace, entry.fqdm)
		}
		delete(e.database, entry.path)
		for dir, table := range e.localNamespaces {
			for name, p := range table {
				if p == entry.path {
					delete(table, name)
				}
			}
			if len(table) == 0 {
				delete(e.localNamespaces, dir)
			}
		}
	}
	delete(e.pathMembers, path)

	if recursive {
		for _, other := range append([]string{}, e.searchPath...) {
			if isSubdirectory(path, other) {
				e.RmPath(other, false)
			}
		}
	}
}

func removeValue(list []string, v string) []string {
	for i, item := range list {
		if item == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func isSubdirectory(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// Resolve looks name up: first through each directory in localNamespaces in
// order (private-folder and package-local scoping), then through the
// global namespace's effective (front) entry.
func (e *Engine) Resolve(name string, localNamespaces []string) (*node.Node, bool) {
	for _, dir := range localNamespaces {
		dir = filepath.Clean(dir)
		if table, ok := e.localNamespaces[dir]; ok {
			if p, ok := table[name]; ok {
				return e.database[p], true
			}
		}
	}
	if paths, ok := e.namespace[name]; ok && len(paths) > 0 {
		return e.database[paths[0]], true
	}
	return nil, false
}

// isExcluded reports whether name matches any of the engine's configured
// exclude globs (project config's "exclude" list, e.g. "*.asv", "*.mex*").
func (e *Engine) isExcluded(name string) bool {
	for _, pattern := range e.excludeGlobs {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
