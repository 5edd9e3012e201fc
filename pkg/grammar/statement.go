package grammar

import "strings"

// tokenizeStatement lexes a single statement's code (no trailing comment,
// no leading/trailing whitespace required) into a flat, document-ordered
// token stream: variable.other.readwrite for identifiers,
// punctuation.accessor.dot for '.', and meta.function-call.parens wrapping
// entity.name.function for "name(" call sites. Keywords are dropped.
// Arguments inside call parens are recursively tokenized so nested calls
// are found too.
//
// This mirrors the reference tokenizer's flattened scan: deciding whether a
// readwrite/call chain is a local variable, an import, or an external
// dependency is left entirely to the dependency analyzer.
func tokenizeStatement(code string, line, colBase int) []*Element {
	var toks []*Element
	i := 0
	n := len(code)
	// pendingIdentEnd tracks the byte index right after the most recently
	// emitted identifier/dot token. A '(' found exactly at that index, with
	// no whitespace in between, turns the last identifier into a call;
	// "name (x)" is not treated as a call. Any other non-space character
	// resets it.
	pendingIdentEnd := -1

	for i < n {
		c := code[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < n {
				if code[j] == quote {
					if j+1 < n && code[j+1] == quote {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			i = j
			pendingIdentEnd = -1

		case c >= '0' && c <= '9':
			j := i
			for j < n && (isIdentPart(code[j]) || code[j] == '.') {
				j++
			}
			i = j
			pendingIdentEnd = -1

		case isIdentStart(c):
			start := i
			j := i
			for j < n && isIdentPart(code[j]) {
				j++
			}
			word := code[start:j]
			i = j
			if reservedWords[word] {
				pendingIdentEnd = -1
				continue
			}
			col := colBase + start
			toks = append(toks, NewLeaf(KindReadwrite, word,
				Position{Line: line, Column: col},
				Position{Line: line, Column: colBase + j}))
			pendingIdentEnd = i

		case c == '.' && i+2 < n && code[i+1] == '.' && code[i+2] == '.':
			i = n // line-continuation marker: rest of physical line is ignored
			pendingIdentEnd = -1

		case c == '.' && i+1 < n && strings.IndexByte("*/^'\\", code[i+1]) >= 0:
			i += 2
			pendingIdentEnd = -1

		case c == '.':
			col := colBase + i
			toks = append(toks, NewLeaf(KindAccessorDot, ".",
				Position{Line: line, Column: col}, Position{Line: line, Column: col + 1}))
			i++
			pendingIdentEnd = i

		case c == '(':
			close := matchBracket(code, i)
			if close < 0 {
				close = n - 1
			}
			inner := ""
			if close > i+1 {
				inner = code[i+1 : close]
			}
			if pendingIdentEnd == i && len(toks) > 0 && toks[len(toks)-1].Kind == KindReadwrite {
				last := toks[len(toks)-1]
				toks[len(toks)-1] = &Element{
					Kind:    KindCallParens,
					Content: code[last.Start.Column-colBase : close+1],
					Start:   last.Start,
					End:     Position{Line: line, Column: colBase + close + 1},
					Children: []*Element{
						NewLeaf(KindFunctionName, last.Content, last.Start, last.End),
					},
				}
			}
			if inner != "" {
				toks = append(toks, tokenizeStatement(inner, line, colBase+i+1)...)
			}
			i = close + 1
			pendingIdentEnd = -1

		default:
			i++
			pendingIdentEnd = -1
		}
	}
	return toks
}

// parseAssignment splits a statement into an assignment target and
// right-hand side if it contains a top-level '=' that is not part of
// '==', '~=', '<=', '>=', or isn't inside brackets. Returns ok=false for
// non-assignment statements (plain calls/expressions).
func parseAssignment(stmt string) (lhs, rhs string, ok bool) {
	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
			continue
		case inDouble:
			if c == '"' {
				inDouble = false
			}
			continue
		case c == '\'':
			inSingle = true
			continue
		case c == '"':
			inDouble = true
			continue
		case c == '(' || c == '[' || c == '{':
			depth++
			continue
		case c == ')' || c == ']' || c == '}':
			depth--
			continue
		}
		if depth != 0 || c != '=' {
			continue
		}
		if i > 0 && strings.IndexByte("=~<>+-*/^", stmt[i-1]) >= 0 {
			continue
		}
		if i+1 < len(stmt) && stmt[i+1] == '=' {
			continue
		}
		return strings.TrimSpace(stmt[:i]), strings.TrimSpace(stmt[i+1:]), true
	}
	return "", "", false
}

// tokenizeAssignmentTarget builds the meta.assignment.variable.single or
// .group element for an LHS, plus the set of root names it binds.
func tokenizeAssignmentTarget(lhs string, line, colBase int) (*Element, []string) {
	trimmed := strings.TrimSpace(lhs)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		inner := trimmed[1 : len(trimmed)-1]
		var children []*Element
		var names []string
		for _, part := range splitTopLevel(inner, ',') {
			name := rootIdentifier(strings.TrimSpace(part))
			if name == "" || name == "~" {
				continue
			}
			children = append(children, NewLeaf(KindReadwrite, name, Position{Line: line}, Position{Line: line}))
			names = append(names, name)
		}
		return &Element{Kind: KindAssignGroup, Content: trimmed, Children: children}, names
	}
	name := rootIdentifier(trimmed)
	if name == "" {
		return nil, nil
	}
	elem := &Element{
		Kind:     KindAssignSingle,
		Content:  trimmed,
		Children: []*Element{NewLeaf(KindReadwrite, name, Position{Line: line}, Position{Line: line})},
	}
	return elem, []string{name}
}

// rootIdentifier returns the leading identifier of an lvalue expression
// such as "s.field", "arr(1)", or a bare "x".
func rootIdentifier(expr string) string {
	i := 0
	for i < len(expr) && isIdentPart(expr[i]) {
		i++
	}
	return expr[:i]
}
