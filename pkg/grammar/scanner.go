package grammar

import "strings"

// endKeywords are the block terminators that close one nesting level opened
// by a blockOpeners keyword.
var endKeywords = map[string]bool{
	"end": true, "endfunction": true, "endif": true, "endfor": true,
	"endwhile": true, "endswitch": true, "endtry": true, "endclassdef": true,
	"endproperties": true, "endmethods": true, "endenumeration": true,
	"endarguments": true, "endevents": true, "endparfor": true, "endspmd": true,
}

// scanState holds the physical lines of one source file while it is being
// structurally parsed.
type scanState struct {
	lines []string
}

// Parse tokenizes TCL-like source into an Element tree rooted at
// source.matlab, whose depth-1 children are comments, at most one
// meta.class, and/or one-or-more meta.function elements, with any remaining
// statements flattened for dependency analysis.
func Parse(source []byte) (*Element, error) {
	normalized := strings.ReplaceAll(string(source), "\r\n", "\n")
	s := &scanState{lines: strings.Split(normalized, "\n")}
	root := &Element{Kind: KindSource}
	root.Children, _ = s.parseRange(0, len(s.lines))
	return root, nil
}

// findBlockEnd returns the line index of the "end"-family keyword that
// closes the block opened at lines[start] (which must start with a
// blockOpeners keyword), balancing nested blocks of any kind. Falls back to
// the last line if the file never closes the block (tolerated rather than
// raised, so one malformed file never aborts a larger scan).
func (s *scanState) findBlockEnd(start int) int {
	depth := 0
	i := start
	for i < len(s.lines) {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "%") {
			if trimmed == "%{" {
				j := i + 1
				for j < len(s.lines) && strings.TrimSpace(s.lines[j]) != "%}" {
					j++
				}
				i = j + 1
				continue
			}
			i++
			continue
		}
		word := firstWord(trimmed)
		switch {
		case i == start && blockOpeners[word]:
			depth = 1
		case blockOpeners[word]:
			depth++
		case endKeywords[word]:
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return len(s.lines) - 1
}

func (s *scanState) tryComment(i int) (*Element, bool, int) {
	if i >= len(s.lines) {
		return nil, false, i
	}
	raw := s.lines[i]
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "%") {
		return nil, false, i
	}
	col := strings.Index(raw, "%") + 1
	switch {
	case trimmed == "%{":
		j := i + 1
		for j < len(s.lines) && strings.TrimSpace(s.lines[j]) != "%}" {
			j++
		}
		end := j
		if end >= len(s.lines) {
			end = len(s.lines) - 1
		}
		content := strings.Join(s.lines[i:end+1], "\n")
		return &Element{Kind: KindCommentBlock, Content: content, Start: Position{Line: i + 1, Column: col}}, true, end + 1
	case strings.HasPrefix(trimmed, "%%"):
		return &Element{Kind: KindCommentSection, Content: raw[strings.Index(raw, "%"):], Start: Position{Line: i + 1, Column: col}}, true, i + 1
	default:
		return &Element{Kind: KindCommentLine, Content: raw[strings.Index(raw, "%"):], Start: Position{Line: i + 1, Column: col}}, true, i + 1
	}
}

// parseRange scans lines[start:end], dispatching to structural parsers for
// classdef/function/properties/methods/enumeration/import and falling back
// to flat statement tokenization for everything else (including, crucially,
// the bodies of if/for/while/switch/try statements, which are not modeled
// structurally but simply flattened into the enclosing function's call
// stream).
func (s *scanState) parseRange(start, end int) ([]*Element, int) {
	var out []*Element
	i := start
	for i < end {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if elem, ok, next := s.tryComment(i); ok {
			out = append(out, elem)
			i = next
			continue
		}
		switch firstWord(trimmed) {
		case "classdef":
			elem, next := s.parseClass(i)
			out = append(out, elem)
			i = next
		case "function":
			elem, next := s.parseFunction(i, end)
			out = append(out, elem)
			i = next
		case "properties":
			elem, next := s.parsePropertiesBlock(i)
			out = append(out, elem)
			i = next
		case "methods":
			elem, next := s.parseMethodsBlock(i)
			out = append(out, elem)
			i = next
		case "enumeration":
			elem, next := s.parseEnumBlock(i)
			out = append(out, elem)
			i = next
		case "import":
			out = append(out, s.parseImport(i))
			i++
		default:
			out = append(out, s.tokenizeLine(i)...)
			i++
		}
	}
	return out, i
}

func (s *scanState) tokenizeLine(i int) []*Element {
	code, comment, hasComment := splitTrailingComment(s.lines[i])
	code = strings.TrimSpace(code)
	var out []*Element
	for _, stmt := range splitStatements(code) {
		if lhs, rhs, ok := parseAssignment(stmt); ok {
			if target, _ := tokenizeAssignmentTarget(lhs, i+1, 0); target != nil {
				out = append(out, target)
			}
			out = append(out, tokenizeStatement(rhs, i+1, 0)...)
		} else {
			out = append(out, tokenizeStatement(stmt, i+1, 0)...)
		}
	}
	if hasComment {
		out = append(out, &Element{Kind: KindCommentLine, Content: "%" + comment, Start: Position{Line: i + 1}})
	}
	return out
}

func (s *scanState) parseImport(i int) *Element {
	line := strings.TrimSpace(s.lines[i])
	rest := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, "import")), ";")
	return &Element{Kind: KindNamespace, Content: strings.TrimSpace(rest), Start: Position{Line: i + 1}}
}

// parseFunctionHeader splits "[out1,out2] = name(in1,in2)" (and the
// single-output and no-output/no-paren variants) into parts.
func parseFunctionHeader(content string) (outputs []string, name string, inputs []string) {
	content = strings.TrimSpace(content)
	if lhs, rhs, ok := parseAssignment(content); ok {
		if strings.HasPrefix(lhs, "[") {
			for _, o := range splitTopLevel(strings.Trim(lhs, "[]"), ',') {
				o = strings.TrimSpace(o)
				if o != "" {
					outputs = append(outputs, o)
				}
			}
		} else if lhs != "" {
			outputs = []string{lhs}
		}
		content = rhs
	}
	if paren := strings.IndexByte(content, '('); paren >= 0 {
		name = strings.TrimSpace(content[:paren])
		if close := matchBracket(content, paren); close > paren+1 {
			for _, in := range splitTopLevel(content[paren+1:close], ',') {
				in = strings.TrimSpace(in)
				if in != "" {
					inputs = append(inputs, in)
				}
			}
		}
	} else {
		name = strings.TrimSpace(content)
	}
	return outputs, name, inputs
}

func (s *scanState) parseFunction(start, limit int) (*Element, int) {
	endIdx := s.findBlockEnd(start)
	if endIdx >= limit {
		endIdx = limit - 1
	}
	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.lines[start]), "function"))
	code, comment, hasComment := splitTrailingComment(header)
	outputs, name, inputs := parseFunctionHeader(strings.TrimSpace(code))

	decl := &Element{
		Kind: KindFunctionDecl, Content: strings.TrimSpace(code),
		Names: []string{name}, Inputs: inputs, Outputs: outputs,
		Start: Position{Line: start + 1},
	}
	for _, o := range outputs {
		decl.Children = append(decl.Children, NewLeaf(KindParamOutput, o, Position{Line: start + 1}, Position{Line: start + 1}))
	}
	for _, in := range inputs {
		decl.Children = append(decl.Children, NewLeaf(KindParamInput, in, Position{Line: start + 1}, Position{Line: start + 1}))
	}

	fn := &Element{Kind: KindFunction, Start: Position{Line: start + 1}, End: Position{Line: endIdx + 1}}
	fn.Children = append(fn.Children, decl)
	if hasComment {
		fn.Children = append(fn.Children, &Element{Kind: KindCommentLine, Content: "%" + comment, Start: Position{Line: start + 1}})
	}

	i := start + 1
	for i < endIdx {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if elem, ok, next := s.tryComment(i); ok {
			fn.Children = append(fn.Children, elem)
			i = next
			continue
		}
		switch firstWord(trimmed) {
		case "arguments":
			elem, next := s.parseArgumentsBlock(i)
			fn.Children = append(fn.Children, elem)
			i = next
		case "function":
			elem, next := s.parseFunction(i, endIdx)
			fn.Children = append(fn.Children, elem)
			i = next
		case "import":
			fn.Children = append(fn.Children, s.parseImport(i))
			i++
		default:
			fn.Children = append(fn.Children, s.tokenizeLine(i)...)
			i++
		}
	}
	return fn, endIdx + 1
}

func parseAttrParens(header string) map[string]any {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "(") {
		return nil
	}
	close := matchBracket(header, 0)
	if close < 0 {
		return nil
	}
	inner := header[1:close]
	attrs := map[string]any{}
	for _, entry := range splitTopLevel(inner, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if lhs, rhs, ok := parseAssignment(entry); ok {
			attrs[lhs] = strings.TrimSpace(rhs)
		} else {
			attrs[entry] = true
		}
	}
	return attrs
}

func (s *scanState) parseClass(start int) (*Element, int) {
	endIdx := s.findBlockEnd(start)
	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.lines[start]), "classdef"))
	code, comment, hasComment := splitTrailingComment(header)
	code = strings.TrimSpace(code)

	var attrs map[string]any
	if strings.HasPrefix(code, "(") {
		if close := matchBracket(code, 0); close >= 0 {
			attrs = parseAttrParens(code[:close+1])
			code = strings.TrimSpace(code[close+1:])
		}
	}
	var name string
	var ancestors []string
	if idx := strings.IndexByte(code, '<'); idx >= 0 {
		name = strings.TrimSpace(code[:idx])
		for _, a := range strings.Split(code[idx+1:], "&") {
			if a = strings.TrimSpace(a); a != "" {
				ancestors = append(ancestors, a)
			}
		}
	} else {
		name = code
	}

	decl := &Element{
		Kind: KindClassDecl, Content: code, Names: []string{name},
		Ancestors: ancestors, Raw: attrs, Start: Position{Line: start + 1},
	}
	cls := &Element{Kind: KindClass, Start: Position{Line: start + 1}, End: Position{Line: endIdx + 1}}
	cls.Children = append(cls.Children, decl)
	if hasComment {
		cls.Children = append(cls.Children, &Element{Kind: KindCommentLine, Content: "%" + comment, Start: Position{Line: start + 1}})
	}

	i := start + 1
	for i < endIdx {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if elem, ok, next := s.tryComment(i); ok {
			cls.Children = append(cls.Children, elem)
			i = next
			continue
		}
		switch firstWord(trimmed) {
		case "properties":
			elem, next := s.parsePropertiesBlock(i)
			cls.Children = append(cls.Children, elem)
			i = next
		case "methods":
			elem, next := s.parseMethodsBlock(i)
			cls.Children = append(cls.Children, elem)
			i = next
		case "enumeration":
			elem, next := s.parseEnumBlock(i)
			cls.Children = append(cls.Children, elem)
			i = next
		default:
			i++
		}
	}
	return cls, endIdx + 1
}

// parsePropertyDefLine parses one property/argument declaration line of the
// form `name (size) type {validators} = default % comment`, all parts
// optional except name.
func (s *scanState) parsePropertyDefLine(i int) *Element {
	code, comment, hasComment := splitTrailingComment(s.lines[i])
	code = strings.TrimSpace(code)

	j := 0
	for j < len(code) && (isIdentPart(code[j]) || code[j] == '.') {
		j++
	}
	name := code[:j]
	rest := strings.TrimSpace(code[j:])

	elem := &Element{Kind: KindArgProperty, Content: name, Names: []string{name}, Start: Position{Line: i + 1}}

	if strings.HasPrefix(rest, "(") {
		if close := matchBracket(rest, 0); close >= 0 {
			for _, sz := range splitTopLevel(rest[1:close], ',') {
				if sz = strings.TrimSpace(sz); sz != "" {
					elem.Size = append(elem.Size, sz)
				}
			}
			rest = strings.TrimSpace(rest[close+1:])
		}
	}
	if rest != "" && rest[0] != '{' && rest[0] != '=' {
		k := 0
		for k < len(rest) && (isIdentPart(rest[k]) || rest[k] == '.') {
			k++
		}
		elem.TypeStr = rest[:k]
		rest = strings.TrimSpace(rest[k:])
	}
	if strings.HasPrefix(rest, "{") {
		if close := matchBracket(rest, 0); close >= 0 {
			for _, v := range splitTopLevel(rest[1:close], ',') {
				if v = strings.TrimSpace(v); v != "" {
					elem.Validators = append(elem.Validators, v)
				}
			}
			rest = strings.TrimSpace(rest[close+1:])
		}
	}
	if strings.HasPrefix(rest, "=") {
		elem.Default = strings.TrimSpace(rest[1:])
	}
	if hasComment {
		elem.EndToks = append(elem.EndToks, &Element{Kind: KindCommentLine, Content: "%" + comment, Start: Position{Line: i + 1}})
	}
	// Re-expose the type annotation and default expression as child tokens
	// too, so the dependency analyzer's generic storage.type/readwrite scan
	// can find type references and calls in default expressions without a
	// special case - it only ever walks the Children tree.
	if elem.TypeStr != "" {
		elem.Children = append(elem.Children, NewLeaf(KindStorageType, elem.TypeStr, Position{Line: i + 1}, Position{Line: i + 1}))
	}
	if elem.Default != "" {
		elem.Children = append(elem.Children, tokenizeStatement(elem.Default, i+1, 0)...)
	}
	return elem
}

func (s *scanState) parsePropertiesBlock(start int) (*Element, int) {
	endIdx := s.findBlockEnd(start)
	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.lines[start]), "properties"))
	elem := &Element{Kind: KindProperties, Raw: parseAttrParens(header), Start: Position{Line: start + 1}}
	i := start + 1
	for i < endIdx {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if c, ok, next := s.tryComment(i); ok {
			elem.Children = append(elem.Children, c)
			i = next
			continue
		}
		elem.Children = append(elem.Children, s.parsePropertyDefLine(i))
		i++
	}
	return elem, endIdx + 1
}

func (s *scanState) parseMethodsBlock(start int) (*Element, int) {
	endIdx := s.findBlockEnd(start)
	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.lines[start]), "methods"))
	elem := &Element{Kind: KindMethods, Raw: parseAttrParens(header), Start: Position{Line: start + 1}}
	i := start + 1
	for i < endIdx {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if c, ok, next := s.tryComment(i); ok {
			elem.Children = append(elem.Children, c)
			i = next
			continue
		}
		if firstWord(trimmed) == "function" {
			fn, next := s.parseFunction(i, endIdx)
			elem.Children = append(elem.Children, fn)
			i = next
			continue
		}
		i++
	}
	return elem, endIdx + 1
}

func (s *scanState) parseArgumentsBlock(start int) (*Element, int) {
	endIdx := s.findBlockEnd(start)
	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.lines[start]), "arguments"))
	elem := &Element{Kind: KindArguments, Raw: parseAttrParens(header), Start: Position{Line: start + 1}}
	i := start + 1
	for i < endIdx {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if c, ok, next := s.tryComment(i); ok {
			elem.Children = append(elem.Children, c)
			i = next
			continue
		}
		elem.Children = append(elem.Children, s.parsePropertyDefLine(i))
		i++
	}
	return elem, endIdx + 1
}

func (s *scanState) parseEnumBlock(start int) (*Element, int) {
	endIdx := s.findBlockEnd(start)
	elem := &Element{Kind: KindEnum, Start: Position{Line: start + 1}}
	i := start + 1
	for i < endIdx {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if c, ok, next := s.tryComment(i); ok {
			elem.Children = append(elem.Children, c)
			i = next
			continue
		}
		j := 0
		for j < len(trimmed) && isIdentPart(trimmed[j]) {
			j++
		}
		name := trimmed[:j]
		member := &Element{Kind: KindEnumMember, Content: name, Names: []string{name}, Start: Position{Line: i + 1}}
		rest := strings.TrimSpace(trimmed[j:])
		if strings.HasPrefix(rest, "(") {
			if close := matchBracket(rest, 0); close >= 0 {
				value := rest[1:close]
				member.Children = append(member.Children, &Element{Kind: KindParens, Content: value, Start: Position{Line: i + 1}})
			}
		}
		elem.Children = append(elem.Children, member)
		i++
	}
	return elem, endIdx + 1
}
