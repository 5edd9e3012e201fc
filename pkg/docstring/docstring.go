// Package docstring turns the comment elements a grammar scan produces into
// a single, indentation-normalized docstring.
package docstring

import (
	"sort"
	"strings"

	"github.com/watermarkhu/mpath/pkg/grammar"
)

// Map is a line-indexed docstring: source line number -> raw content for
// that line, prior to indentation normalization.
type Map map[int]string

// AppendLine records a "% comment" element at its line.
func AppendLine(m Map, e *grammar.Element) Map {
	if m == nil {
		m = Map{}
	}
	content := e.Content
	if idx := strings.Index(content, "%"); idx >= 0 {
		content = content[idx+1:]
	}
	m[e.Start.Line] = content
	return m
}

// AppendSection records a "%% comment" element at its line, stripping both
// percent signs.
func AppendSection(m Map, e *grammar.Element) Map {
	if m == nil {
		m = Map{}
	}
	content := e.Content
	if idx := strings.Index(content, "%%"); idx >= 0 {
		content = content[idx+2:]
	}
	m[e.Start.Line] = content
	return m
}

// AppendBlock records a "%{ ... %}" comment element, one entry per interior
// line, starting at the line after the opening "%{".
func AppendBlock(m Map, e *grammar.Element) Map {
	if m == nil {
		m = Map{}
	}
	lines := strings.Split(e.Content, "\n")
	if len(lines) < 2 {
		return m
	}
	interior := lines[1:]
	if len(interior) > 0 && strings.TrimSpace(interior[len(interior)-1]) == "%}" {
		interior = interior[:len(interior)-1]
	}
	start := e.Start.Line + 1
	for i, line := range interior {
		m[start+i] = line
	}
	return m
}

// FixIndentation finds the minimum leading-whitespace width across
// non-blank lines and strips it from every line, also stripping trailing
// whitespace. Blank lines keep their position but collapse to "".
func FixIndentation(m Map) Map {
	if len(m) == 0 {
		return Map{}
	}
	indent := -1
	for _, line := range m {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pad := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || pad < indent {
			indent = pad
		}
	}
	if indent < 0 {
		indent = 0
	}
	out := make(Map, len(m))
	for i, line := range m {
		if len(line) >= indent {
			out[i] = strings.TrimRight(line[indent:], " \t")
		} else {
			out[i] = strings.TrimRight(line, " \t")
		}
	}
	return out
}

// String renders a Map into its final multi-line docstring, in ascending
// line order, after FixIndentation has already been applied.
func (m Map) String() string {
	if len(m) == 0 {
		return ""
	}
	lines := make([]int, 0, len(m))
	for l := range m {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = m[l]
	}
	return strings.Join(parts, "\n")
}

// FromComments builds the normalized docstring for a leading run of comment
// elements in document order: a block comment, once encountered, takes
// precedence over any further line/section comment in the same run.
func FromComments(elems []*grammar.Element) string {
	m := Map{}
	blockSeen := false
	for _, e := range elems {
		switch e.Kind {
		case grammar.KindCommentBlock:
			m = AppendBlock(m, e)
			blockSeen = true
		case grammar.KindCommentSection:
			if blockSeen {
				continue
			}
			m = AppendSection(m, e)
		case grammar.KindCommentLine:
			if blockSeen {
				continue
			}
			m = AppendLine(m, e)
		}
	}
	return FixIndentation(m).String()
}
