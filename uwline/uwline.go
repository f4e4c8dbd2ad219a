// Package uwline defines the Unwrapped Line: a contiguous range of Format
// Tokens intended to fit on one line unless expanded into children (spec
// §3, "Unwrapped Line"). It is the node type of the Partition Tree in
// package partition.
package uwline

import (
	"fmt"

	"github.com/teleivo/linewrap/token"
)

// Policy is a partition policy (spec §3 "Partition policies"). This set is
// closed; do not add cases without updating every switch over Policy in
// package driver and the Policy checks in package reshape.
type Policy int

const (
	// Uninitialized is invalid outside of construction.
	Uninitialized Policy = iota
	// AlwaysExpand puts each child on its own line.
	AlwaysExpand
	// FitOnLineElseExpand fits all tokens on one line if they fit,
	// otherwise expands into children.
	FitOnLineElseExpand
	// TabularAlignment treats children as rows of a table to be
	// column-aligned.
	TabularAlignment
	// AlreadyFormatted means spacing is fixed; do not re-search.
	AlreadyFormatted
	// Inline means children are meant to be juxtaposed on a parent's line.
	Inline
	// AppendFittingSubPartitions uses the Fitting Reshaper.
	AppendFittingSubPartitions
	// Juxtaposition is a hint to the layout-function algebra: lay children
	// out side by side.
	Juxtaposition
	// Stack is a hint to the layout-function algebra: lay children out one
	// per line, stacked.
	Stack
	// Wrap is a hint to the layout-function algebra: pack children
	// paragraph-style.
	Wrap
	// JuxtapositionOrIndentedStack is a hint to the layout-function
	// algebra: try Juxtaposition, falling back to an indented Stack.
	JuxtapositionOrIndentedStack
)

func (p Policy) String() string {
	switch p {
	case Uninitialized:
		return "Uninitialized"
	case AlwaysExpand:
		return "AlwaysExpand"
	case FitOnLineElseExpand:
		return "FitOnLineElseExpand"
	case TabularAlignment:
		return "TabularAlignment"
	case AlreadyFormatted:
		return "AlreadyFormatted"
	case Inline:
		return "Inline"
	case AppendFittingSubPartitions:
		return "AppendFittingSubPartitions"
	case Juxtaposition:
		return "Juxtaposition"
	case Stack:
		return "Stack"
	case Wrap:
		return "Wrap"
	case JuxtapositionOrIndentedStack:
		return "JuxtapositionOrIndentedStack"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// IsLayoutAlgebraHint reports whether p is one of the four hints consumed by
// the layout-function algebra (spec §4.3) rather than by the driver's
// expand/search/align dispatch directly.
func (p Policy) IsLayoutAlgebraHint() bool {
	switch p {
	case Juxtaposition, Stack, Wrap, JuxtapositionOrIndentedStack:
		return true
	default:
		return false
	}
}

// Line is a contiguous half-open range over the global Format Token array,
// plus indentation, a partition policy, and an opaque origin reference into
// the source syntax tree (spec §3, "Unwrapped Line").
type Line struct {
	// Begin and End are indices into the global token slice. The range is
	// half-open: [Begin, End).
	Begin, End int
	// Indentation is the number of spaces this line starts at (spec §3
	// "indentation spaces"), already resolved from whatever nesting-level
	// convention the partition builder uses; package search and package
	// layoutfn consume it directly, never multiplying it by
	// Style.IndentationSpaces themselves (that multiplication, if any, is
	// the partition builder's job when it first assembles a Line).
	Indentation int
	// Policy governs how this line is expanded/searched/aligned.
	Policy Policy
	// Origin is an opaque reference into the source syntax tree, used only
	// by the Alignment Engine's column-schema visitor and for diagnostic
	// printing (spec §6). May be nil.
	Origin any
}

// Len returns the number of tokens spanned by the line.
func (l Line) Len() int { return l.End - l.Begin }

// Empty reports whether the line spans no tokens.
func (l Line) Empty() bool { return l.Begin == l.End }

// Tokens returns the slice of all's tokens spanned by l.
func (l Line) Tokens(all []*token.Format) []*token.Format {
	return all[l.Begin:l.End]
}

// Width returns the single-line rendered width of l: every token's text
// length plus the Contract.SpacesRequired of every token after the first,
// ignoring indentation and the first token's leading spaces. This is the
// flat width a Line item would measure in the layout-function algebra (spec
// §4.3 Line).
func (l Line) Width(all []*token.Format) int {
	width := 0
	for i, t := range l.Tokens(all) {
		if i > 0 {
			width += t.Before.SpacesRequired
		}
		width += t.Length()
	}
	return width
}
