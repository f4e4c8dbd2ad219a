// Package align implements the Alignment Engine (spec §4.5): it turns a
// contiguous run of sibling partitions declared TabularAlignment into a
// conceptual table, computes a column schema by asking a caller-supplied
// function to name each row's leaf cells, and rewrites each cell's leading
// spacing so that cells of the same column land at the same absolute
// column across rows.
//
// Cells are modeled as exactly one anchor Format Token each: the schema
// function names, in column order, the token that begins each leaf a row
// contributes. Tokens that are not named by any cell (punctuation between
// cells, for instance) keep their own Contract.SpacesRequired untouched,
// matching spec §4.5 "intra-cell spacing is untouched". A row may have
// fewer cells than the schema's column count, but only by omitting
// trailing columns (sparse rows are tail-sparse, not hole-sparse); the
// caller's schema function is responsible for that ordering.
package align

import (
	"strings"

	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/internal/assert"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// Flush is the padding direction of one column (spec §4.5 "flush flag").
type Flush int

const (
	// FlushLeft pads on the right: cells are left-aligned within their
	// column's box.
	FlushLeft Flush = iota
	// FlushRight pads on the left: cells are right-aligned within their
	// column's box.
	FlushRight
)

// Cell names the Format Token that anchors one leaf of a row, and which
// way it flushes within its column (spec §4.5 "column schema").
type Cell struct {
	Token *token.Format
	Flush Flush
}

// Schema visits a row's Origin (uwline.Line.Origin) and returns, in
// column order, the cells that row contributes. It is supplied by the
// partition builder, which alone understands the source syntax tree.
type Schema func(origin any) []Cell

// Policy is the alignment sub-behaviour for a group of rows (spec §4.5
// "Policies").
type Policy int

const (
	// PolicyAlign always aligns columns to a shared schema.
	PolicyAlign Policy = iota
	// PolicyFlushLeft skips alignment, keeping SpacesRequired spacing.
	PolicyFlushLeft
	// PolicyPreserve restores original spacing verbatim.
	PolicyPreserve
	// PolicyInferUserIntent heuristically picks one of the above per group.
	PolicyInferUserIntent
)

// Groups splits a contiguous run of rows first by blank-line separation,
// then each resulting block by subtype tag, so only rows with matching
// subtype align against each other (spec §4.5 "Grouping"). subtype may be
// nil, meaning every row shares one subtype.
func Groups(rows []uwline.Line, tokens []*token.Format, buf string, subtype func(uwline.Line) string) [][]uwline.Line {
	var blocks [][]uwline.Line
	var block []uwline.Line
	for i, row := range rows {
		if i > 0 && blankLineBetween(rows[i-1], row, tokens, buf) {
			blocks = append(blocks, block)
			block = nil
		}
		block = append(block, row)
	}
	if len(block) > 0 {
		blocks = append(blocks, block)
	}

	var groups [][]uwline.Line
	for _, b := range blocks {
		groups = append(groups, splitBySubtype(b, subtype)...)
	}
	return groups
}

func blankLineBetween(prev, cur uwline.Line, tokens []*token.Format, buf string) bool {
	if prev.Empty() || cur.Empty() {
		return false
	}
	gapStart := tokens[prev.End-1].End
	gapEnd := tokens[cur.Begin].Start
	if gapStart >= gapEnd {
		return false
	}
	return strings.Count(buf[gapStart:gapEnd], "\n") >= 2
}

func splitBySubtype(block []uwline.Line, subtype func(uwline.Line) string) [][]uwline.Line {
	if subtype == nil {
		return [][]uwline.Line{block}
	}
	var groups [][]uwline.Line
	var cur []uwline.Line
	var curTag string
	for i, row := range block {
		tag := subtype(row)
		if i > 0 && tag != curTag {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, row)
		curTag = tag
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// column is the resolved geometry of one schema column.
type column struct {
	flush Flush
	width int
	start int // absolute offset of this column's box, relative to a row's own indentation
}

// Rows renders one alignment group (spec §4.5 "Application"). ignore, if
// non-nil, marks rows excluded from the column schema and left untouched
// (for example comment-only rows); any row with a token intersecting
// disabled is likewise excluded and forced to Preserve spacing. Groups of
// fewer than two rows are never aligned, regardless of policy.
func Rows(buf string, tokens []*token.Format, rows []uwline.Line, schema Schema, policy Policy, style linewrap.Style, disabled token.DisabledRanges, ignore func(uwline.Line) bool) []token.Excerpt {
	cells := make([][]Cell, len(rows))
	excluded := make([]bool, len(rows))
	for i, row := range rows {
		if ignore != nil && ignore(row) {
			excluded[i] = true
			continue
		}
		for _, t := range row.Tokens(tokens) {
			start := t.Start
			if t.Before.HasPreservedSpace() {
				start = t.Before.PreservedSpaceStart
			}
			if disabled.Overlaps(start, t.End) {
				excluded[i] = true
				break
			}
		}
		cells[i] = schema(row.Origin)
	}

	numCols := 0
	for _, c := range cells {
		if len(c) > numCols {
			numCols = len(c)
		}
	}

	columns := make([]column, numCols)
	for c := range columns {
		width := 0
		for i, row := range cells {
			if excluded[i] || c >= len(row) {
				continue
			}
			cell := row[c]
			columns[c].flush = cell.Flush
			w := ownWidth(cell, c)
			if w > width {
				width = w
			}
		}
		columns[c].width = width
	}
	running := 0
	for c := range columns {
		columns[c].start = running
		running += columns[c].width
	}
	totalWidth := running

	resolved := policy
	if countNonExcluded(excluded) < 2 {
		resolved = PolicyFlushLeft
	} else if resolved == PolicyInferUserIntent {
		resolved = inferPolicy(buf, cells, excluded, columns)
	}
	if resolved == PolicyAlign {
		maxIndent := 0
		for i, row := range rows {
			if excluded[i] {
				continue
			}
			if row.Indentation > maxIndent {
				maxIndent = row.Indentation
			}
		}
		if maxIndent+totalWidth > style.ColumnLimit {
			resolved = PolicyFlushLeft
		}
	}

	excerpts := make([]token.Excerpt, len(rows))
	for i, row := range rows {
		rowPolicy := resolved
		if excluded[i] {
			rowPolicy = PolicyPreserve
		}
		excerpts[i] = renderRow(row, tokens, cells[i], columns, rowPolicy)
	}
	return excerpts
}

func countNonExcluded(excluded []bool) int {
	n := 0
	for _, e := range excluded {
		if !e {
			n++
		}
	}
	return n
}

// ownWidth is the box width one cell demands: its own text length, plus
// its leading SpacesRequired unless it is column 0 (spec §4.5
// "first-of-row treated as zero").
func ownWidth(cell Cell, col int) int {
	w := cell.Token.Length()
	if col > 0 {
		w += cell.Token.Before.SpacesRequired
	}
	return w
}

func inferPolicy(buf string, cells [][]Cell, excluded []bool, columns []column) Policy {
	var deviationFlushLeft, deviationAligned int
	for i, row := range cells {
		if excluded[i] {
			continue
		}
		for c, cell := range row {
			original := len(cell.Token.OriginalLeadingSpace(buf))
			flushLeftSpaces := cell.Token.Before.SpacesRequired
			if c == 0 {
				flushLeftSpaces = 0
			}
			deviationFlushLeft += absInt(original - flushLeftSpaces)
			deviationAligned += absInt(original - alignedSpacesWithinBox(cell, c, columns))
		}
	}

	switch {
	case deviationFlushLeft <= 2:
		return PolicyFlushLeft
	case deviationAligned <= 2:
		return PolicyAlign
	case absInt(deviationFlushLeft-deviationAligned) >= 4:
		if deviationFlushLeft < deviationAligned {
			return PolicyFlushLeft
		}
		return PolicyAlign
	default:
		return PolicyPreserve
	}
}

// alignedSpacesWithinBox is how many spaces would precede cell's token if
// it immediately followed another box-filling cell (i.e. the padding a
// cell carries within its own box), used only to estimate deviation for
// InferUserIntent, not to place a token relative to the row's whole
// history (renderRow does that precisely, token by token).
func alignedSpacesWithinBox(cell Cell, col int, columns []column) int {
	own := ownWidth(cell, col)
	if columns[col].flush == FlushLeft || col == 0 {
		if col == 0 {
			return 0
		}
		return cell.Token.Before.SpacesRequired
	}
	return columns[col].width - own + cell.Token.Before.SpacesRequired
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func renderRow(row uwline.Line, tokens []*token.Format, cells []Cell, columns []column, policy Policy) token.Excerpt {
	rowTokens := row.Tokens(tokens)
	excerpt := token.Excerpt{
		Tokens:    rowTokens,
		Decisions: make([]token.Decision, len(rowTokens)),
	}
	if len(rowTokens) == 0 {
		return excerpt
	}

	if policy == PolicyPreserve {
		for i, t := range rowTokens {
			excerpt.Decisions[i] = token.Decision{Action: token.ActionPreserve, PreservedSpaceStart: t.Before.PreservedSpaceStart}
		}
		return excerpt
	}

	anchorCol := make(map[*token.Format]int, len(cells))
	for c, cell := range cells {
		anchorCol[cell.Token] = c
	}

	curColumn := row.Indentation
	for i, t := range rowTokens {
		var start int
		switch {
		case i == 0:
			start = row.Indentation
		case policy == PolicyFlushLeft:
			start = curColumn + t.Before.SpacesRequired
		default:
			if c, ok := anchorCol[t]; ok {
				own := ownWidth(cells[c], c)
				start = row.Indentation + columns[c].start + own - t.Length()
				if columns[c].flush == FlushRight {
					start += columns[c].width - own
				}
			} else {
				start = curColumn + t.Before.SpacesRequired
			}
		}
		spaces := start - curColumn
		assert.That(spaces >= 0, "align: computed negative spacing (%d) before %q", spaces, t.Text)

		action := token.ActionAppend
		if _, ok := anchorCol[t]; ok && policy != PolicyFlushLeft && i > 0 {
			action = token.ActionAlign
		}
		excerpt.Decisions[i] = token.Decision{Action: action, Spaces: spaces}
		curColumn = start + t.Length()
	}
	return excerpt
}
