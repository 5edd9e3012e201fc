// Package node defines the tagged-union family of indexed artifacts: every
// file or directory the path engine discovers becomes exactly one of these
// variants, all sharing a common Header.
package node

import (
	"path/filepath"
	"strings"

	"github.com/watermarkhu/mpath/pkg/attribute"
)

// Kind discriminates the Node variants.
type Kind int

const (
	KindScript Kind = iota
	KindFunction
	KindClassdef
	KindPackage
	KindMethod
	KindProperty
	KindArgument
	KindEnum
	KindLiveScript
	KindApp
	KindMex
)

func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindFunction:
		return "function"
	case KindClassdef:
		return "classdef"
	case KindPackage:
		return "package"
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindArgument:
		return "argument"
	case KindEnum:
		return "enum"
	case KindLiveScript:
		return "livescript"
	case KindApp:
		return "app"
	case KindMex:
		return "mex"
	default:
		return "unknown"
	}
}

// Header carries the fields every node variant shares.
type Header struct {
	Kind Kind
	Name string
	Path string
	// Parent is a non-owning back-link (design note: dependency graphs and
	// parent links are references into a central node table, never owning
	// pointers, so deletion and traversal can't cycle).
	Parent *Node
	Fqdm   string
	Doc    string

	Calls                []string
	Imports              []string
	BuiltinDependencies  []string
	Dependencies         []*Node
	Dependants           []*Node
	UnresolvedDependencies []string
}

// Node is one artifact in the indexed corpus. Exactly one of the payload
// fields below is populated, selected by Header.Kind - a closed,
// discriminated union of artifact shapes.
type Node struct {
	Header

	Function  *FunctionPayload
	Classdef  *ClassdefPayload
	Package   *PackagePayload
	Method    *MethodPayload
	Property  *LeafPayload
	Argument  *LeafPayload
	Enum      *LeafPayload
}

// FunctionPayload holds a Function node's signature.
type FunctionPayload struct {
	Input     []string
	Output    []string
	Options   map[string]string
	Arguments []*Node
}

// ClassdefPayload holds a Classdef node's body.
type ClassdefPayload struct {
	Attributes    attribute.ClassdefAttributes
	Ancestors     []string
	Methods       *orderedMethods
	Properties    map[string]*Node
	Enums         []*Node
	IsClassFolder bool
}

// PackagePayload holds a Package node's contents.
type PackagePayload struct {
	Classdefs   []*Node
	Functions   []*Node
	Subpackages []*Node
}

// MethodPayload holds a Method node's signature plus its method attributes.
// Method embeds the same shape as FunctionPayload; kept distinct because
// method attributes decode against a different schema.
type MethodPayload struct {
	Input         []string
	Output        []string
	Options       map[string]string
	Arguments     []*Node
	Attributes    attribute.MethodAttributes
	IsConstructor bool
}

// LeafPayload covers Property, Argument, and Enum: name/type/default/size
// /validator leaves, differing only in which attribute schema applies.
type LeafPayload struct {
	TypeStr          string
	Default          string
	Size             []string
	Validators       []string
	PropertyAttrs    *attribute.PropertyAttributes
	ArgumentAttrs    *attribute.ArgumentAttributes
	EnumValue        string
}

// orderedMethods is an insertion-ordered name->node map, giving Classdef's
// Methods a stable ordering guarantee: keys come back in discovery order,
// matching a class folder's method file layout.
type orderedMethods struct {
	order []string
	byName map[string]*Node
}

func NewOrderedMethods() *orderedMethods {
	return &orderedMethods{byName: map[string]*Node{}}
}

func (m *orderedMethods) Set(name string, n *Node) {
	if _, exists := m.byName[name]; !exists {
		m.order = append(m.order, name)
	}
	m.byName[name] = n
}

func (m *orderedMethods) Get(name string) (*Node, bool) {
	n, ok := m.byName[name]
	return n, ok
}

func (m *orderedMethods) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *orderedMethods) Len() int { return len(m.order) }

// FullyQualifiedName walks n's Parent links, joining names with '.', from
// the outermost ancestor down to n itself - innermost name last, matching
// the reference implementation's parent-walk construction order.
func FullyQualifiedName(n *Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		parts = append([]string{cur.Name}, parts...)
	}
	return strings.Join(parts, ".")
}

// NameFromPath derives a short name from a file or directory path, stripping
// the leading '+'/'@' package/class-folder marker and any extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "+")
	base = strings.TrimPrefix(base, "@")
	return base
}
