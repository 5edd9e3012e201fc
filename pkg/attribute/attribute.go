// Package attribute decodes the raw name -> value-or-true maps that the
// grammar scanner recovers from attribute parens ("(Access=private, Hidden)")
// into the four typed attribute records MATLAB defines for classes,
// properties, methods, and argument blocks.
package attribute

import (
	"fmt"
	"strconv"
)

// ErrUnknownAttributeValue reports that an attribute parens entry decoded to
// a Go value shape none of the decoders recognize (only string and bool ever
// come out of the scanner's parseAttrParens). Unlike an unrecognized key -
// which is simply ignored, forgiving of grammar drift - an unrecognized
// value shape means the scanner itself changed behavior underneath this
// package, so it is treated as a loud, fatal programming error rather than a
// silently-degraded default.
var ErrUnknownAttributeValue = fmt.Errorf("attribute: value shape not recognized")

// decodeBool matches the reference decoder's truthy-token set: an entry with
// no value (Raw[key] == true) or one of the listed tokens counts as true.
func decodeBool(raw map[string]any, key string, def bool) bool {
	v, ok := raw[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Errorf("%w: attribute %q has Go type %T", ErrUnknownAttributeValue, key, v))
	}
	switch s {
	case "True", "true", "t", "1":
		return true
	default:
		return false
	}
}

func decodeInt(raw map[string]any, key string, def int) int {
	v, ok := raw[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Errorf("%w: attribute %q has Go type %T", ErrUnknownAttributeValue, key, v))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func decodeString(raw map[string]any, key string, def string) string {
	v, ok := raw[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Errorf("%w: attribute %q has Go type %T", ErrUnknownAttributeValue, key, v))
	}
	return s
}

// ClassdefAttributes mirrors matlab.org's class attribute list.
type ClassdefAttributes struct {
	Abstract          bool
	AllowedSubclasses string
	ConstructOnLoad   bool
	HandleCompatible  bool
	Hidden            bool
	InferiorClasses   string
	Sealed            bool
}

func DecodeClassdef(raw map[string]any) ClassdefAttributes {
	return ClassdefAttributes{
		Abstract:          decodeBool(raw, "Abstract", false),
		AllowedSubclasses: decodeString(raw, "AllowedSubclasses", ""),
		ConstructOnLoad:   decodeBool(raw, "ConstructOnLoad", false),
		HandleCompatible:  decodeBool(raw, "HandleCompatible", false),
		Hidden:            decodeBool(raw, "Hidden", false),
		InferiorClasses:   decodeString(raw, "InferiorClasses", ""),
		Sealed:            decodeBool(raw, "Sealed", false),
	}
}

// PropertyAttributes mirrors matlab.org's property attribute list.
type PropertyAttributes struct {
	Abortset             bool
	Abstract             bool
	Access               string
	Constant             bool
	Dependent            bool
	GetAccess            string
	GetObservable        bool
	Hidden               bool
	NonCopyable          bool
	PartialMatchPriority int
	SetAccess            string
	SetObservable        bool
	Transient            bool
	DiscreteState        bool
	NonTunable           bool
	TestParameter        bool
	MethodSetupParameter bool
	ClassSetupParameter  bool
}

func DecodeProperty(raw map[string]any) PropertyAttributes {
	return PropertyAttributes{
		Abortset:             decodeBool(raw, "Abortset", false),
		Abstract:             decodeBool(raw, "Abstract", false),
		Access:               decodeString(raw, "Access", "public"),
		Constant:             decodeBool(raw, "Constant", false),
		Dependent:            decodeBool(raw, "Dependent", false),
		GetAccess:            decodeString(raw, "GetAccess", "public"),
		GetObservable:        decodeBool(raw, "GetObservable", false),
		Hidden:               decodeBool(raw, "Hidden", false),
		NonCopyable:          decodeBool(raw, "NonCopyable", false),
		PartialMatchPriority: decodeInt(raw, "PartialMatchPriority", 1),
		SetAccess:            decodeString(raw, "SetAccess", "public"),
		SetObservable:        decodeBool(raw, "SetObservable", false),
		Transient:            decodeBool(raw, "Transient", false),
		DiscreteState:        decodeBool(raw, "DiscreteState", false),
		NonTunable:           decodeBool(raw, "NonTunable", false),
		TestParameter:        decodeBool(raw, "TestParameter", false),
		MethodSetupParameter: decodeBool(raw, "MethodSetupParameter", false),
		ClassSetupParameter:  decodeBool(raw, "ClassSetupParameter", false),
	}
}

// MethodAttributes mirrors matlab.org's method attribute list. TestTags is a
// list-shaped field that this decoder does not expand, so it is kept as the
// opaque raw string here too.
type MethodAttributes struct {
	Abstract                bool
	Access                  string
	Hidden                  bool
	Sealed                  bool
	Static                  bool
	Test                    bool
	TestMethodSetup         bool
	TestMethodTeardown      bool
	TestClassSetup          bool
	TestClassTeardown       bool
	ParameterCombination    string
	TestParameterDefinition string
	TestTags                string
}

func DecodeMethod(raw map[string]any) MethodAttributes {
	return MethodAttributes{
		Abstract:                decodeBool(raw, "Abstract", false),
		Access:                  decodeString(raw, "Access", "public"),
		Hidden:                  decodeBool(raw, "Hidden", false),
		Sealed:                  decodeBool(raw, "Sealed", false),
		Static:                  decodeBool(raw, "Static", false),
		Test:                    decodeBool(raw, "Test", false),
		TestMethodSetup:         decodeBool(raw, "TestMethodSetup", false),
		TestMethodTeardown:      decodeBool(raw, "TestMethodTeardown", false),
		TestClassSetup:          decodeBool(raw, "TestClassSetup", false),
		TestClassTeardown:       decodeBool(raw, "TestClassTeardown", false),
		ParameterCombination:    decodeString(raw, "ParameterCombination", "exhaustive"),
		TestParameterDefinition: decodeString(raw, "TestParameterDefinition", ""),
		TestTags:                decodeString(raw, "TestTags", ""),
	}
}

// ArgumentAttributes mirrors matlab.org's arguments-block attribute list.
type ArgumentAttributes struct {
	Input     bool
	Output    bool
	Repeating bool
}

// IsInput reports whether this block's entries belong in a function's input
// parameter list: Output wins over Input when both are somehow set.
func (a ArgumentAttributes) IsInput() bool {
	if a.Output {
		return false
	}
	return a.Input
}

func DecodeArgument(raw map[string]any) ArgumentAttributes {
	return ArgumentAttributes{
		Input:     decodeBool(raw, "Input", true),
		Output:    decodeBool(raw, "Output", false),
		Repeating: decodeBool(raw, "Repeating", false),
	}
}
