// Package reshape implements the Fitting Reshaper (spec §4.4): it
// re-groups a header plus its argument list into as few line groups as
// possible, each materialized as a new child partition policed
// FitOnLineElseExpand.
package reshape

import (
	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/internal/assert"
	"github.com/teleivo/linewrap/partition"
	"github.com/teleivo/linewrap/search"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// group is one accumulated run of nodes destined to become a single
// FitOnLineElseExpand child, plus the absolute column it starts at.
type group struct {
	nodes  []partition.Node
	indent int
}

// Reshape re-groups the AppendFittingSubPartitions node at path (spec
// §4.4). The node must have exactly two children: a header and an
// argument-list node whose own children are the individual arguments.
func Reshape(tree *partition.Tree, path partition.Path, tokens []*token.Format, buf string, style linewrap.Style) {
	node := tree.At(path)
	assert.That(len(node.Children) == 2,
		"reshape: AppendFittingSubPartitions requires exactly two children (header, argument list), got %d", len(node.Children))

	header := node.Children[0]
	args := node.Children[1].Children
	indentation := header.Line.Indentation

	variantI := computeVariantI(header, args, tokens, buf, style, indentation)
	variantII := computeVariantII(header, args, tokens, buf, style, indentation)

	chosen := variantI
	if len(variantII) < len(variantI) {
		chosen = variantII
	}

	newChildren := make([]partition.Node, len(chosen))
	for i, g := range chosen {
		newChildren[i] = groupNode(g)
	}
	node.Children = newChildren
	tree.VerifyFull()
}

// computeVariantI allows the first argument to append directly onto the
// header's own line (spec §4.4 variant (i)).
func computeVariantI(header partition.Node, args []partition.Node, tokens []*token.Format, buf string, style linewrap.Style, indentation int) []group {
	if len(args) == 0 {
		return []group{{nodes: []partition.Node{header}, indent: indentation}}
	}

	firstFits := fits([]partition.Node{header, args[0]}, indentation, tokens, buf, style)

	var groups []group
	var cur group
	var fixedIndent int

	if firstFits {
		cur = group{nodes: []partition.Node{header, args[0]}, indent: indentation}
		fixedIndent = indentation + header.Line.Width(tokens)
	} else {
		groups = append(groups, group{nodes: []partition.Node{header}, indent: indentation})
		fixedIndent = indentation + style.WrapSpaces
		cur = group{nodes: []partition.Node{args[0]}, indent: fixedIndent}
	}

	for _, arg := range args[1:] {
		candidate := append(append([]partition.Node{}, cur.nodes...), arg)
		if fits(candidate, cur.indent, tokens, buf, style) {
			cur.nodes = candidate
		} else {
			groups = append(groups, cur)
			cur = group{nodes: []partition.Node{arg}, indent: fixedIndent}
		}
	}
	groups = append(groups, cur)
	return groups
}

// computeVariantII forces a wrap after the header unconditionally (spec
// §4.4 variant (ii)).
func computeVariantII(header partition.Node, args []partition.Node, tokens []*token.Format, buf string, style linewrap.Style, indentation int) []group {
	groups := []group{{nodes: []partition.Node{header}, indent: indentation}}
	if len(args) == 0 {
		return groups
	}

	fixedIndent := indentation + style.WrapSpaces
	cur := group{nodes: []partition.Node{args[0]}, indent: fixedIndent}

	for _, arg := range args[1:] {
		candidate := append(append([]partition.Node{}, cur.nodes...), arg)
		if fits(candidate, fixedIndent, tokens, buf, style) {
			cur.nodes = candidate
		} else {
			groups = append(groups, cur)
			cur = group{nodes: []partition.Node{arg}, indent: fixedIndent}
		}
	}
	groups = append(groups, cur)
	return groups
}

// fits reports whether nodes, laid out flat starting at indent, stays
// within the column limit. nodes are always contiguous siblings, so their
// combined token range is exactly [nodes[0].Line.Begin, nodes[last].Line.End).
func fits(nodes []partition.Node, indent int, tokens []*token.Format, buf string, style linewrap.Style) bool {
	merged := uwline.Line{
		Begin:       nodes[0].Line.Begin,
		End:         nodes[len(nodes)-1].Line.End,
		Indentation: indent,
	}
	ok, _ := search.FitsOnLine(buf, merged, tokens, style)
	return ok
}

func groupNode(g group) partition.Node {
	// A single-node group needs no wrapper: wrapping it would produce a
	// node whose only child spans its own exact range, and if that child
	// still doesn't fit, the driver's generic fallback re-renders it using
	// its own (pre-reshape) indentation rather than this group's. Instead
	// re-indent the node itself in place.
	if len(g.nodes) == 1 {
		n := g.nodes[0]
		n.Line.Indentation = g.indent
		// A node already carrying a layout-algebra hint (e.g. an argument
		// policed Wrap) keeps that hint: the reshaper only assigns
		// FitOnLineElseExpand to nodes that had no policy of their own.
		if n.Line.Policy == uwline.Uninitialized {
			n.Line.Policy = uwline.FitOnLineElseExpand
		}
		return n
	}
	return partition.Node{
		Line: uwline.Line{
			Begin:       g.nodes[0].Line.Begin,
			End:         g.nodes[len(g.nodes)-1].Line.End,
			Indentation: g.indent,
			Policy:      uwline.FitOnLineElseExpand,
		},
		Children: g.nodes,
	}
}
