package reshape_test

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/partition"
	"github.com/teleivo/linewrap/reshape"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

func makeTokens(offsets []int, words []string) []*token.Format {
	tokens := make([]*token.Format, len(words))
	for i, w := range words {
		tokens[i] = token.New(w, offsets[i], 0)
		if i > 0 {
			tokens[i].Before.SpacesRequired = 1
		}
	}
	token.ConnectPreservedSpace(tokens)
	return tokens
}

func TestReshapePrefersFewerGroups(t *testing.T) {
	// "foo(" "a," "b," "ccccccc" at column_limit=10: appending the header's
	// first argument fits, so variant (i) packs header+a,+b, onto one line
	// (2 groups) while variant (ii), which always wraps after the header,
	// needs 3. Variant (i) wins.
	words := []string{"foo(", "a,", "b,", "ccccccc"}
	offsets := []int{0, 5, 8, 11}
	tokens := makeTokens(offsets, words)
	buf := "foo( a, b, ccccccc"

	header := partition.Node{Line: uwline.Line{Begin: 0, End: 1}}
	args := partition.Node{
		Line: uwline.Line{Begin: 1, End: 4},
		Children: []partition.Node{
			{Line: uwline.Line{Begin: 1, End: 2}},
			{Line: uwline.Line{Begin: 2, End: 3}},
			{Line: uwline.Line{Begin: 3, End: 4}},
		},
	}
	tree := partition.New(partition.Node{
		Line:     uwline.Line{Begin: 0, End: 4},
		Children: []partition.Node{header, args},
	})

	style := linewrap.Style{WrapSpaces: 4, ColumnLimit: 10}
	reshape.Reshape(tree, nil, tokens, buf, style)

	assert.Equals(t, len(tree.Root.Children), 2, "variant (i) wins with 2 groups")

	g0 := tree.Root.Children[0]
	assert.Equals(t, g0.Line.Begin, 0, "first group starts at header")
	assert.Equals(t, g0.Line.End, 3, "first group absorbs header, a, and b,")
	assert.Equals(t, g0.Line.Indentation, 0, "first group keeps the header's indentation")
	assert.Equals(t, g0.Line.Policy, uwline.FitOnLineElseExpand, "group gets the fitting policy")
	assert.Equals(t, len(g0.Children), 3, "first group has three children")

	g1 := tree.Root.Children[1]
	assert.Equals(t, g1.Line.Begin, 3, "second group starts right after the first")
	assert.Equals(t, g1.Line.End, 4, "second group is just the overflowing argument")
	assert.Equals(t, g1.Line.Indentation, 4, "second group indents by the header's own width")
	assert.Equals(t, g1.Line.Policy, uwline.FitOnLineElseExpand, "group gets the fitting policy")
	assert.Equals(t, len(g1.Children), 0, "a single-node group is re-indented in place, not wrapped")
}

func TestReshapeForcesWrapWhenHeaderDoesNotFitWithFirstArgument(t *testing.T) {
	// The header alone already reaches column_limit, so appending even the
	// first argument overflows: variant (i) degenerates to variant (ii), and
	// both wrap after the header at indentation+wrap_spaces.
	words := []string{"fooooooo(", "a"}
	offsets := []int{0, 10}
	tokens := makeTokens(offsets, words)
	buf := "fooooooo( a"

	header := partition.Node{Line: uwline.Line{Begin: 0, End: 1}}
	args := partition.Node{
		Line:     uwline.Line{Begin: 1, End: 2},
		Children: []partition.Node{{Line: uwline.Line{Begin: 1, End: 2}}},
	}
	tree := partition.New(partition.Node{
		Line:     uwline.Line{Begin: 0, End: 2},
		Children: []partition.Node{header, args},
	})

	style := linewrap.Style{WrapSpaces: 2, ColumnLimit: 9}
	reshape.Reshape(tree, nil, tokens, buf, style)

	assert.Equals(t, len(tree.Root.Children), 2, "header and argument split into two groups")
	assert.Equals(t, tree.Root.Children[1].Line.Indentation, 2, "wrap lands at indentation+wrap_spaces")
}

func TestReshapeSingleArgumentStaysWithHeader(t *testing.T) {
	words := []string{"f(", "a"}
	offsets := []int{0, 3}
	tokens := makeTokens(offsets, words)
	buf := "f( a"

	header := partition.Node{Line: uwline.Line{Begin: 0, End: 1}}
	args := partition.Node{
		Line:     uwline.Line{Begin: 1, End: 2},
		Children: []partition.Node{{Line: uwline.Line{Begin: 1, End: 2}}},
	}
	tree := partition.New(partition.Node{
		Line:     uwline.Line{Begin: 0, End: 2},
		Children: []partition.Node{header, args},
	})

	style := linewrap.Style{WrapSpaces: 4, ColumnLimit: 80}
	reshape.Reshape(tree, nil, tokens, buf, style)

	assert.Equals(t, len(tree.Root.Children), 1, "everything fits on the header's own line")
	assert.Equals(t, len(tree.Root.Children[0].Children), 2, "single group holds header and argument")
}
