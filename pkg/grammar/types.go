// Package grammar wraps the tokenizer that turns a TCL-like source file into
// a tree of typed content elements. The tokenizer itself is treated as an
// external collaborator (see DESIGN.md). There is no separate adapter
// interface: the node builder and dependency analyzer call Parse, Cache and
// the Element tree of this package directly.
package grammar

// Position is a line/column location in a source file. Lines are 1-based
// and absolute. Columns are 1-based line positions on comment elements;
// on tokens lexed from a statement they are 0-based byte offsets within
// that statement's text. Byte is not set by the scanner.
type Position struct {
	Line   int
	Column int
	Byte   int
}

// Kind identifies the grammar scope of an Element, mirroring the TextMate
// scope names the reference tokenizer (textmate-grammar's MATLAB grammar)
// emits: dotted, most-specific-last identifiers such as "meta.class" or
// "entity.name.function".
type Kind string

const (
	KindSource       Kind = "source.matlab"
	KindClass        Kind = "meta.class"
	KindClassDecl    Kind = "meta.class.declaration"
	KindInheritedCls Kind = "meta.inherited-class"
	KindClassName    Kind = "entity.name.type.class"
	KindProperties   Kind = "meta.properties"
	KindMethods      Kind = "meta.methods"
	KindEnum         Kind = "meta.enum"
	KindEnumMember   Kind = "meta.assignment.definition.enummember"
	KindParens       Kind = "meta.parens"
	KindFunction     Kind = "meta.function"
	KindFunctionDecl Kind = "meta.function.declaration"
	KindArguments    Kind = "meta.arguments"
	KindArgProperty  Kind = "meta.assignment.definition.property"
	KindParamInput   Kind = "variable.parameter.input"
	KindParamOutput  Kind = "variable.parameter.output"
	KindStorageType  Kind = "storage.type"
	KindStorageMod   Kind = "storage.modifier.arguments"
	KindSizeParens   Kind = "meta.parens.size"
	KindValidation   Kind = "meta.block.validation"
	KindNamespace    Kind = "entity.name.namespace"
	KindFunctionName Kind = "entity.name.function"
	KindCallParens   Kind = "meta.function-call.parens"
	KindReadwrite    Kind = "variable.other.readwrite"
	KindAssignSingle Kind = "meta.assignment.variable.single"
	KindAssignGroup  Kind = "meta.assignment.variable.group"
	KindAccessorDot  Kind = "punctuation.accessor.dot"
	KindParenBegin   Kind = "punctuation.section.parens.begin"
	KindParenEnd     Kind = "punctuation.section.parens.end"
	KindAssignOp     Kind = "keyword.operator.assignment"

	KindCommentLine    Kind = "comment.line.percentage"
	KindCommentSection Kind = "comment.line.double-percentage"
	KindCommentBlock   Kind = "comment.block.percentage"
)

// Element is a single node in the parsed content tree. It carries a
// concatenated textual content and the absolute start/end positions of that
// content, exactly as spec'd in section 4.1.
//
// Begin and EndToks hold tokens attached to the opening and closing side of
// an element. The scanner fills EndToks only with the trailing "% comment"
// of a property/argument line and never fills Begin; most elements leave
// both nil.
type Element struct {
	Kind     Kind
	Content  string
	Start    Position
	End      Position
	Children []*Element
	Begin    []*Element
	EndToks  []*Element

	// The fields below are populated only on the declaration-shaped
	// elements that need them (meta.class.declaration,
	// meta.function.declaration, meta.assignment.definition.property,
	// meta.properties/meta.methods/meta.arguments headers). The scanner
	// performs this lightweight structural parsing directly rather than
	// re-deriving it from a generic token walk, since unlike a real
	// TextMate/tree-sitter grammar we also own the producer side; see
	// DESIGN.md.
	Names      []string       // declared name: class/function name, or property/argument/enum member name
	Inputs     []string       // function/method input parameter names, in order
	Outputs    []string       // function/method output parameter names, in order
	Ancestors  []string       // classdef ancestor names
	Raw        map[string]any // raw decoded attribute parens: name -> string value or true
	TypeStr    string         // property/argument type annotation
	Size       []string       // property/argument size specification entries
	Validators []string       // property/argument validator function names
	Default    string         // property/argument default expression, verbatim
}

// NewLeaf builds a childless Element of the given kind and content.
func NewLeaf(kind Kind, content string, start, end Position) *Element {
	return &Element{Kind: kind, Content: content, Start: start, End: end}
}
