// Package builder turns one discovered path - a file or a package/class
// folder - into the node.Node it represents, dispatching by path shape and
// file extension.
package builder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/watermarkhu/mpath/pkg/attribute"
	"github.com/watermarkhu/mpath/pkg/dependency"
	"github.com/watermarkhu/mpath/pkg/docstring"
	"github.com/watermarkhu/mpath/pkg/grammar"
	"github.com/watermarkhu/mpath/pkg/node"
)

// ErrSkip is wrapped, with the path or reason added, into the error Build
// returns when a path is recognized but deliberately not turned into a
// node - e.g. a bare Contents.m outside any package/class folder. Callers
// test for it with errors.Is and treat it as "no node, no error to report".
var ErrSkip = errors.New("builder: path intentionally skipped")

// ErrUnparseable signals that the grammar adapter raised or produced no
// usable tree for a source file. The member is skipped, never fatal.
var ErrUnparseable = errors.New("builder: source unparseable")

var extKind = map[string]node.Kind{
	".p":        node.KindScript,
	".mlx":      node.KindLiveScript,
	".mlapp":    node.KindApp,
	".mex":      node.KindMex,
	".mexa64":   node.KindMex,
	".mexmaci64": node.KindMex,
	".mexw32":   node.KindMex,
	".mexw64":   node.KindMex,
}

// Builder constructs Node values from disk, parsing .m files through a
// shared grammar.Cache and optionally running the dependency analyzer
// inline, gated by an "analysis runs during addpath" option.
type Builder struct {
	cache              *grammar.Cache
	analyzer           *dependency.Analyzer
	runDependencyPass  bool
	logger             *slog.Logger
}

// New builds a Builder. analyzer may be nil; when it is, Build never
// populates Calls/Imports/BuiltinDependencies regardless of runAnalysis.
func New(cache *grammar.Cache, analyzer *dependency.Analyzer, runAnalysis bool, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cache: cache, analyzer: analyzer, runDependencyPass: runAnalysis, logger: logger}
}

// Build dispatches on path: a "+"-prefixed directory becomes a Package, an
// "@"-prefixed directory becomes a Classdef (class folder), and a file
// dispatches on extension. parent is the node.Node this one will be nested
// under, or nil for a search-path root member.
func (b *Builder) Build(path string, parent *node.Node) (*node.Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	base := filepath.Base(path)

	if info.IsDir() {
		switch {
		case strings.HasPrefix(base, "+"):
			return b.buildPackage(path, parent)
		case strings.HasPrefix(base, "@"):
			return b.buildClassFolder(path, parent)
		default:
			return nil, fmt.Errorf("%w: %s is a plain directory, not a node-shaped path", ErrSkip, path)
		}
	}

	if base == "Contents.m" {
		return nil, fmt.Errorf("%w: bare Contents.m", ErrSkip)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".m" {
		return b.buildMFile(path, parent)
	}
	if kind, ok := extKind[ext]; ok {
		return &node.Node{Header: node.Header{
			Kind: kind, Name: node.NameFromPath(path), Path: path, Parent: parent,
		}}, nil
	}
	return nil, fmt.Errorf("%w: unrecognized extension %s", ErrSkip, ext)
}

func (b *Builder) parse(path string) (*grammar.Element, error) {
	tree, err := b.cache.ParseCached(path)
	if err != nil {
		b.logger.Warn("skipping unparseable source", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnparseable, path, err)
	}
	return tree, nil
}

// buildMFile handles a plain Name.m file: a meta.class at depth 1 makes it
// a Classdef, a meta.function makes it a Function, anything else is a
// Script.
func (b *Builder) buildMFile(path string, parent *node.Node) (*node.Node, error) {
	tree, err := b.parse(path)
	if err != nil {
		return nil, err
	}
	if classes := tree.Find([]string{string(grammar.KindClass)}, 0); len(classes) > 0 {
		return b.buildClassdefFromElement(path, classes[0].Element, parent, false)
	}
	if fns := tree.Find([]string{string(grammar.KindFunction)}, 0); len(fns) > 0 {
		n, err := b.buildFunctionFromElement(path, fns[0].Element, parent)
		return n, err
	}
	return b.buildScript(path, tree, parent)
}

func (b *Builder) buildScript(path string, tree *grammar.Element, parent *node.Node) (*node.Node, error) {
	n := &node.Node{Header: node.Header{
		Kind: node.KindScript, Name: node.NameFromPath(path), Path: path, Parent: parent,
		Doc: leadingDoc(tree),
	}}
	n.Fqdm = node.FullyQualifiedName(n)
	b.analyze(n, tree)
	return n, nil
}

// leadingDoc collects the run of comment elements that precede any
// structural element (class/function/properties/...) at depth 1.
func leadingDoc(tree *grammar.Element) string {
	var run []*grammar.Element
	for _, child := range tree.Children {
		switch child.Kind {
		case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
			run = append(run, child)
		default:
			return docstring.FromComments(run)
		}
	}
	return docstring.FromComments(run)
}

func (b *Builder) buildFunctionFromElement(path string, fnElem *grammar.Element, parent *node.Node) (*node.Node, error) {
	if len(fnElem.Children) == 0 || fnElem.Children[0].Kind != grammar.KindFunctionDecl {
		return nil, fmt.Errorf("%w: %s: function has no declaration", ErrUnparseable, path)
	}
	decl := fnElem.Children[0]
	name := path
	if len(decl.Names) > 0 {
		name = decl.Names[0]
	} else {
		name = node.NameFromPath(path)
	}

	inputs, outputs, options, args := extractArguments(fnElem, decl.Inputs, decl.Outputs)

	n := &node.Node{Header: node.Header{
		Kind: node.KindFunction, Name: name, Path: path, Parent: parent,
		Doc: functionDoc(fnElem),
	}}
	n.Fqdm = node.FullyQualifiedName(n)
	n.Function = &node.FunctionPayload{Input: inputs, Output: outputs, Options: options, Arguments: args}
	b.analyze(n, fnElem)
	return n, nil
}

func functionDoc(fnElem *grammar.Element) string {
	var run []*grammar.Element
	for _, child := range fnElem.Children {
		switch child.Kind {
		case grammar.KindFunctionDecl:
			continue
		case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
			run = append(run, child)
		default:
			return docstring.FromComments(run)
		}
	}
	return docstring.FromComments(run)
}

// extractArguments walks a function/method element's meta.arguments
// children, producing the final input/output lists (after the pack.name
// options sentinel rule has pulled dotted entries out of input) plus the
// options map and the Argument nodes themselves.
func extractArguments(fnElem *grammar.Element, declInputs, declOutputs []string) ([]string, []string, map[string]string, []*node.Node) {
	inputs := append([]string(nil), declInputs...)
	outputs := append([]string(nil), declOutputs...)
	options := map[string]string{}
	var args []*node.Node

	removeInput := func(name string) {
		for i, in := range inputs {
			if in == name {
				inputs = append(inputs[:i], inputs[i+1:]...)
				return
			}
		}
	}

	for _, block := range fnElem.Children {
		if block.Kind != grammar.KindArguments {
			continue
		}
		attrs := attribute.DecodeArgument(block.Raw)
		var pending []*grammar.Element
		for _, entry := range block.Children {
			switch entry.Kind {
			case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
				pending = append(pending, entry)
				continue
			case grammar.KindArgProperty:
				doc := docstring.FromComments(pending)
				pending = nil
				argName := entry.Names[0]

				var option string
				if dot := strings.IndexByte(argName, '.'); dot >= 0 {
					pack := argName[:dot]
					option = argName[dot+1:]
					removeInput(pack)
					options[option] = entry.TypeStr
				} else if attrs.IsInput() {
					// already present via declInputs in the common case;
					// ensure it shows up even if the declaration header
					// didn't list it (rare, but arguments blocks are the
					// authoritative source per MATLAB semantics).
					found := false
					for _, in := range inputs {
						if in == argName {
							found = true
							break
						}
					}
					if !found {
						inputs = append(inputs, argName)
					}
				} else {
					found := false
					for _, out := range outputs {
						if out == argName {
							found = true
							break
						}
					}
					if !found {
						outputs = append(outputs, argName)
					}
				}

				argNode := &node.Node{Header: node.Header{
					Kind: node.KindArgument, Name: argName, Doc: doc,
				}}
				argAttrs := attrs
				argNode.Argument = &node.LeafPayload{
					TypeStr: entry.TypeStr, Default: entry.Default,
					Size: entry.Size, Validators: entry.Validators,
					ArgumentAttrs: &argAttrs,
				}
				args = append(args, argNode)
			}
		}
	}
	return inputs, outputs, options, args
}

// buildClassdefFromElement builds a Classdef node body from an already
// parsed meta.class element (used both for a plain Name.m file and for the
// primary file inside a class folder).
func (b *Builder) buildClassdefFromElement(path string, classElem *grammar.Element, parent *node.Node, isClassFolder bool) (*node.Node, error) {
	if len(classElem.Children) == 0 || classElem.Children[0].Kind != grammar.KindClassDecl {
		return nil, fmt.Errorf("%w: %s: class has no declaration", ErrUnparseable, path)
	}
	decl := classElem.Children[0]
	name := node.NameFromPath(path)
	if len(decl.Names) > 0 {
		name = decl.Names[0]
	}

	n := &node.Node{Header: node.Header{Kind: node.KindClassdef, Name: name, Path: path, Parent: parent}}
	payload := &node.ClassdefPayload{
		Attributes:    attribute.DecodeClassdef(decl.Raw),
		Ancestors:     decl.Ancestors,
		Methods:       node.NewOrderedMethods(),
		Properties:    map[string]*node.Node{},
		IsClassFolder: isClassFolder,
	}
	n.Classdef = payload
	n.Fqdm = node.FullyQualifiedName(n)

	var docRun []*grammar.Element
	if len(classElem.Children) > 1 {
		if c := classElem.Children[1]; c.Kind == grammar.KindCommentLine {
			docRun = append(docRun, c)
		}
	}

	for _, child := range classElem.Children[1:] {
		switch child.Kind {
		case grammar.KindProperties:
			b.fillProperties(child, payload, n)
		case grammar.KindMethods:
			b.fillMethods(path, child, payload, n)
		case grammar.KindEnum:
			b.fillEnums(child, payload, n)
		case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
			docRun = append(docRun, child)
		}
	}
	n.Doc = docstring.FromComments(docRun)

	// Class-level analysis covers ancestors, ancestor references, and
	// property type/default annotations only; method bodies are analyzed
	// as their own subjects in fillMethods, so methods blocks are excluded
	// here to avoid double-counting their calls against the class itself.
	classScope := &grammar.Element{Children: []*grammar.Element{decl}}
	for _, ancestor := range decl.Ancestors {
		classScope.Children = append(classScope.Children, grammar.NewLeaf(grammar.KindStorageType, ancestor, decl.Start, decl.Start))
	}
	for _, child := range classElem.Children[1:] {
		if child.Kind == grammar.KindProperties {
			classScope.Children = append(classScope.Children, child)
		}
	}
	b.analyze(n, classScope)
	return n, nil
}

func (b *Builder) fillProperties(block *grammar.Element, payload *node.ClassdefPayload, parent *node.Node) {
	attrs := attribute.DecodeProperty(block.Raw)
	var pending []*grammar.Element
	for _, entry := range block.Children {
		switch entry.Kind {
		case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
			pending = append(pending, entry)
		case grammar.KindArgProperty:
			doc := docstring.FromComments(pending)
			pending = nil
			propAttrs := attrs
			propNode := &node.Node{Header: node.Header{
				Kind: node.KindProperty, Name: entry.Names[0], Parent: parent, Doc: doc,
			}}
			propNode.Fqdm = node.FullyQualifiedName(propNode)
			propNode.Property = &node.LeafPayload{
				TypeStr: entry.TypeStr, Default: entry.Default,
				Size: entry.Size, Validators: entry.Validators,
				PropertyAttrs: &propAttrs,
			}
			payload.Properties[propNode.Name] = propNode
		}
	}
}

func (b *Builder) fillEnums(block *grammar.Element, payload *node.ClassdefPayload, parent *node.Node) {
	var pending []*grammar.Element
	for _, entry := range block.Children {
		switch entry.Kind {
		case grammar.KindCommentLine, grammar.KindCommentSection, grammar.KindCommentBlock:
			pending = append(pending, entry)
		case grammar.KindEnumMember:
			doc := docstring.FromComments(pending)
			pending = nil
			value := ""
			for _, c := range entry.Children {
				if c.Kind == grammar.KindParens {
					value = c.Content
				}
			}
			enumNode := &node.Node{Header: node.Header{
				Kind: node.KindEnum, Name: entry.Names[0], Parent: parent, Doc: doc,
			}}
			enumNode.Fqdm = node.FullyQualifiedName(enumNode)
			enumNode.Enum = &node.LeafPayload{EnumValue: value}
			payload.Enums = append(payload.Enums, enumNode)
		}
	}
}

func (b *Builder) fillMethods(classPath string, block *grammar.Element, payload *node.ClassdefPayload, classNode *node.Node) {
	attrs := attribute.DecodeMethod(block.Raw)
	for _, fn := range block.Children {
		if fn.Kind != grammar.KindFunction {
			continue
		}
		methodNode := b.buildMethod(classPath, fn, classNode, attrs)
		if methodNode != nil {
			payload.Methods.Set(methodNode.Name, methodNode)
		}
	}
}

func (b *Builder) buildMethod(classPath string, fnElem *grammar.Element, classNode *node.Node, attrs attribute.MethodAttributes) *node.Node {
	if len(fnElem.Children) == 0 || fnElem.Children[0].Kind != grammar.KindFunctionDecl {
		return nil
	}
	decl := fnElem.Children[0]
	name := decl.Names[0]
	inputs, outputs, options, args := extractArguments(fnElem, decl.Inputs, decl.Outputs)

	isConstructor := name == classNode.Name
	// Drop the object receiver (first formal input) for any non-static,
	// non-constructor method.
	if !isConstructor && !attrs.Static && len(inputs) > 0 {
		inputs = inputs[1:]
	}

	n := &node.Node{Header: node.Header{
		Kind: node.KindMethod, Name: name, Parent: classNode, Doc: functionDoc(fnElem),
	}}
	n.Fqdm = node.FullyQualifiedName(n)
	n.Method = &node.MethodPayload{
		Input: inputs, Output: outputs, Options: options, Arguments: args,
		Attributes: attrs, IsConstructor: isConstructor,
	}
	b.analyze(n, fnElem)
	return n
}

// buildClassFolder handles an "@Name/" directory: Name.m (if present)
// supplies the class body, every other .m file becomes a Method, and
// Contents.m is ignored. A missing Name.m still yields a Classdef, just an
// empty one, rather than failing the whole folder.
func (b *Builder) buildClassFolder(path string, parent *node.Node) (*node.Node, error) {
	name := node.NameFromPath(path)
	primary := filepath.Join(path, name+".m")

	var classNode *node.Node
	if _, err := os.Stat(primary); err == nil {
		tree, perr := b.parse(primary)
		if perr != nil {
			return nil, perr
		}
		classes := tree.Find([]string{string(grammar.KindClass)}, 0)
		if len(classes) == 0 {
			return nil, fmt.Errorf("%w: %s: class folder primary file has no classdef", ErrUnparseable, primary)
		}
		classNode, err = b.buildClassdefFromElement(primary, classes[0].Element, parent, true)
		if err != nil {
			return nil, err
		}
	} else {
		classNode = &node.Node{Header: node.Header{Kind: node.KindClassdef, Name: name, Path: path, Parent: parent}}
		classNode.Fqdm = node.FullyQualifiedName(classNode)
		classNode.Classdef = &node.ClassdefPayload{
			Methods: node.NewOrderedMethods(), Properties: map[string]*node.Node{}, IsClassFolder: true,
		}
	}
	classNode.Path = path

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read class folder %s: %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".m" {
			continue
		}
		if entry.Name() == name+".m" || entry.Name() == "Contents.m" {
			continue
		}
		methodPath := filepath.Join(path, entry.Name())
		tree, perr := b.parse(methodPath)
		if perr != nil {
			b.logger.Warn("skipping unparseable class folder method", "path", methodPath, "error", perr)
			continue
		}
		fns := tree.Find([]string{string(grammar.KindFunction)}, 0)
		if len(fns) == 0 {
			continue
		}
		methodNode := b.buildMethod(methodPath, fns[0].Element, classNode, attribute.MethodAttributes{Access: "public"})
		if methodNode != nil {
			methodNode.Path = methodPath
			classNode.Classdef.Methods.Set(methodNode.Name, methodNode)
		}
	}
	return classNode, nil
}

// buildPackage handles a "+Name/" directory: regular files become package
// members, Contents.m supplies the package docstring, +-prefixed
// subdirectories recurse as sub-packages, and @-prefixed subdirectories
// become nested class folders.
func (b *Builder) buildPackage(path string, parent *node.Node) (*node.Node, error) {
	n := &node.Node{Header: node.Header{Kind: node.KindPackage, Name: node.NameFromPath(path), Path: path, Parent: parent}}
	n.Fqdm = node.FullyQualifiedName(n)
	payload := &node.PackagePayload{}
	n.Package = payload

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read package %s: %w", path, err)
	}
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		switch {
		case entry.Name() == "Contents.m":
			tree, perr := b.parse(childPath)
			if perr == nil {
				n.Doc = leadingDoc(tree)
			}
		case entry.IsDir() && strings.HasPrefix(entry.Name(), "+"):
			sub, berr := b.buildPackage(childPath, n)
			if berr != nil {
				b.logger.Warn("skipping subpackage", "path", childPath, "error", berr)
				continue
			}
			payload.Subpackages = append(payload.Subpackages, sub)
		case entry.IsDir() && strings.HasPrefix(entry.Name(), "@"):
			sub, berr := b.buildClassFolder(childPath, n)
			if berr != nil {
				b.logger.Warn("skipping class folder", "path", childPath, "error", berr)
				continue
			}
			payload.Classdefs = append(payload.Classdefs, sub)
		case entry.IsDir():
			continue
		default:
			member, berr := b.Build(childPath, n)
			if berr != nil {
				if !errors.Is(berr, ErrSkip) {
					b.logger.Warn("skipping package member", "path", childPath, "error", berr)
				}
				continue
			}
			switch member.Kind {
			case node.KindClassdef:
				payload.Classdefs = append(payload.Classdefs, member)
			case node.KindFunction:
				payload.Functions = append(payload.Functions, member)
			}
		}
	}
	return n, nil
}

func (b *Builder) analyze(n *node.Node, scope *grammar.Element) {
	if !b.runDependencyPass || b.analyzer == nil {
		return
	}
	result := b.analyzer.Analyze(scope)
	n.Calls = result.Calls
	n.Imports = result.Imports
	n.BuiltinDependencies = result.BuiltinDependencies
}
