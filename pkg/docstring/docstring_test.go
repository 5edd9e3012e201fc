package docstring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/watermarkhu/mpath/pkg/grammar"
)

func leaf(kind grammar.Kind, content string, line int) *grammar.Element {
	return grammar.NewLeaf(kind, content, grammar.Position{Line: line}, grammar.Position{Line: line})
}

func TestAppendLineStripsPercent(t *testing.T) {
	m := AppendLine(nil, leaf(grammar.KindCommentLine, "% hello", 3))
	assert.Equal(t, " hello", m[3])
}

func TestAppendSectionStripsDoublePercent(t *testing.T) {
	m := AppendSection(nil, leaf(grammar.KindCommentSection, "%% Section Title", 1))
	assert.Equal(t, " Section Title", m[1])
}

func TestAppendBlockSplitsInteriorLines(t *testing.T) {
	block := leaf(grammar.KindCommentBlock, "%{\n  line one\n  line two\n%}", 5)
	m := AppendBlock(nil, block)
	assert.Equal(t, "  line one", m[6])
	assert.Equal(t, "  line two", m[7])
	_, has3 := m[8]
	assert.False(t, has3)
}

func TestFixIndentationStripsCommonPrefix(t *testing.T) {
	m := Map{1: "    foo", 2: "    bar baz", 3: "  "}
	got := FixIndentation(m)
	assert.Equal(t, "foo", got[1])
	assert.Equal(t, "bar baz", got[2])
}

func TestFromCommentsBlockPrecedesLine(t *testing.T) {
	elems := []*grammar.Element{
		leaf(grammar.KindCommentLine, "% kept, comes before the block", 1),
		leaf(grammar.KindCommentBlock, "%{\nDoc body\n%}", 2),
		leaf(grammar.KindCommentLine, "% not used, block already seen", 5),
	}
	got := FromComments(elems)
	assert.Contains(t, got, "Doc body")
	assert.NotContains(t, got, "not used")
}

func TestFromCommentsLineOnly(t *testing.T) {
	elems := []*grammar.Element{
		leaf(grammar.KindCommentLine, "% first line", 1),
		leaf(grammar.KindCommentLine, "% second line", 2),
	}
	got := FromComments(elems)
	assert.Equal(t, "first line\nsecond line", got)
}
