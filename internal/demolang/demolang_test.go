package demolang_test

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/linewrap/internal/demolang"
	"github.com/teleivo/linewrap/uwline"
)

func TestLexTokenizesEachKind(t *testing.T) {
	lexemes := demolang.Lex(`foo(x, y) a = 1 // hi`)

	kinds := make([]demolang.Kind, len(lexemes))
	for i, lx := range lexemes {
		kinds[i] = lx.Kind
	}
	want := []demolang.Kind{
		demolang.Ident, demolang.LParen, demolang.Ident, demolang.Comma, demolang.Ident, demolang.RParen,
		demolang.Ident, demolang.Equals, demolang.Number, demolang.Comment,
	}
	assert.Equals(t, len(kinds), len(want), "lexes one lexeme per token, comment runs to end of input")
	for i := range want {
		assert.Equals(t, kinds[i], want[i], "kind mismatch")
	}
}

func TestLexMarksBlankLineAfter(t *testing.T) {
	lexemes := demolang.Lex("a = 1\n\nb = 2\n")

	assert.True(t, len(lexemes) == 6, "six lexemes: a = 1 b = 2")
	assert.True(t, lexemes[2].BlankLineAfter, "two newlines after '1' mark a blank line")
	assert.True(t, !lexemes[0].BlankLineAfter, "a single newline does not")
}

func TestBuildGroupsConsecutiveAssignmentsIntoTabularAlignment(t *testing.T) {
	tree, tokens, err := demolang.Build("a = 1\nbb = 22\n")

	assert.True(t, err == nil, "no error expected")
	assert.Equals(t, len(tokens), 6, "two assignments, three tokens each")
	assert.Equals(t, len(tree.Root.Children), 1, "the two assignments merge into one group")

	group := tree.Root.Children[0]
	assert.Equals(t, group.Line.Policy, uwline.TabularAlignment, "consecutive assignments group for alignment")
	assert.Equals(t, len(group.Children), 2, "one row per assignment")
	cells := demolang.Schema(group.Children[0].Line.Origin)
	assert.Equals(t, len(cells), 3, "name, '=', and value are each a cell")
}

func TestBuildCallUsesAppendFittingSubPartitions(t *testing.T) {
	tree, tokens, err := demolang.Build("foo(x, y)\n")

	assert.True(t, err == nil, "no error expected")
	assert.Equals(t, len(tokens), 6, "foo ( x , y )")
	assert.Equals(t, len(tree.Root.Children), 1, "one call statement")

	call := tree.Root.Children[0]
	assert.Equals(t, call.Line.Policy, uwline.AppendFittingSubPartitions, "calls reshape their argument list")
	assert.Equals(t, len(call.Children), 2, "header and argument-list wrapper")
	assert.Equals(t, call.Children[0].Line.Begin, 0, "header starts at 'foo'")
	assert.Equals(t, call.Children[0].Line.End, 2, "header spans 'foo' and '('")
	assert.Equals(t, len(call.Children[1].Children), 2, "two arguments")
	assert.Equals(t, call.Children[1].Children[1].Line.End, 6, "last argument absorbs the closing ')'")
}

func TestBuildCommentIsAlreadyFormatted(t *testing.T) {
	tree, tokens, err := demolang.Build("// hello\n")

	assert.True(t, err == nil, "no error expected")
	assert.Equals(t, len(tokens), 1, "one comment token")
	assert.Equals(t, tree.Root.Children[0].Line.Policy, uwline.AlreadyFormatted, "comments are never re-searched")
}

func TestBuildReturnsErrorOnMalformedInput(t *testing.T) {
	_, _, err := demolang.Build("a 1")

	assert.True(t, err != nil, "expected a parse error")
}

func TestLexTokenizesListLiteral(t *testing.T) {
	lexemes := demolang.Lex("x = [a, b]")

	kinds := make([]demolang.Kind, len(lexemes))
	for i, lx := range lexemes {
		kinds[i] = lx.Kind
	}
	want := []demolang.Kind{
		demolang.Ident, demolang.Equals, demolang.LBracket,
		demolang.Ident, demolang.Comma, demolang.Ident, demolang.RBracket,
	}
	assert.Equals(t, len(kinds), len(want), "one lexeme per token including the brackets")
	for i := range want {
		assert.Equals(t, kinds[i], want[i], "kind mismatch")
	}
}

func TestBuildListLiteralUsesWrapPolicy(t *testing.T) {
	tree, tokens, err := demolang.Build("x = [a, b, c]\n")

	assert.True(t, err == nil, "no error expected")
	assert.Equals(t, len(tokens), 9, "x = [ a , b , c ]")
	assert.Equals(t, len(tree.Root.Children), 1, "one assignment statement")

	assign := tree.Root.Children[0]
	assert.Equals(t, assign.Line.Policy, uwline.Juxtaposition, "a list-valued assignment juxtaposes its header and its list")
	assert.Equals(t, len(assign.Children), 2, "header and list-literal wrapper")

	header := assign.Children[0]
	assert.Equals(t, header.Line.Begin, 0, "header starts at the name")
	assert.Equals(t, header.Line.End, 2, "header spans the name and '='")

	list := assign.Children[1]
	assert.Equals(t, list.Line.Policy, uwline.Wrap, "the list literal itself is policed Wrap")
	assert.Equals(t, len(list.Children), 3, "three elements")
	assert.Equals(t, list.Children[0].Line.Begin, 2, "'[' folds onto the first element's range")
	assert.Equals(t, list.Children[len(list.Children)-1].Line.End, 9, "last element absorbs the closing ']'")
}

func TestBuildEmptyListLiteralIsFlatLine(t *testing.T) {
	tree, tokens, err := demolang.Build("x = []\n")

	assert.True(t, err == nil, "no error expected")
	assert.Equals(t, len(tokens), 4, "x = [ ]")

	assign := tree.Root.Children[0]
	list := assign.Children[1]
	assert.True(t, list.IsLeaf(), "an empty list has no elements to host '[' and ']' on")
	assert.Equals(t, list.Line.Begin, 2, "list spans '[' and ']'")
	assert.Equals(t, list.Line.End, 4, "list spans '[' and ']'")
}

func TestBuildListValuedAssignmentIsNotTabularAligned(t *testing.T) {
	tree, _, err := demolang.Build("a = 1\nbb = [x, y]\n")

	assert.True(t, err == nil, "no error expected")
	assert.Equals(t, len(tree.Root.Children), 2, "the list-valued assignment is not folded into a tabular run")
	assert.Equals(t, tree.Root.Children[0].Line.Policy, uwline.FitOnLineElseExpand, "single plain assignment stays standalone")
	assert.Equals(t, tree.Root.Children[1].Line.Policy, uwline.Juxtaposition, "the list-valued assignment keeps its own policy")
}

func TestBuildReturnsErrorOnUnclosedListLiteral(t *testing.T) {
	_, _, err := demolang.Build("x = [a, b\n")

	assert.True(t, err != nil, "expected a parse error for an unclosed '['")
}
