// Package layoutfn implements the Layout Function algebra: a piecewise-linear
// cost function over starting column for a code fragment, built by combining
// smaller Layout Functions with the combinators of spec §4.3 (Line, Stack,
// Juxtaposition, Choice, Indent, Wrap).
//
// Every combinator is a pure function of its operands: a Function owns its
// own Segment slice and shares no mutable state with the functions it was
// built from (spec §5, "the Layout Function algebra is purely value-based").
// Grounded on verible's LayoutFunctionSegment/LayoutFunction shape
// (layout_optimizer_internal.h), generalized from its in-memory
// VectorTree<LayoutItem> to a flattened value type since this package never
// mutates a layout after it is chosen.
package layoutfn

import (
	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/internal/assert"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// Kind labels a node of a chosen Layout (spec §3 "Layout Item / Layout
// Tree").
type Kind int

const (
	// KindLine is always a leaf: a single Unwrapped Line rendered flat.
	KindLine Kind = iota
	// KindJuxtaposition places children side by side.
	KindJuxtaposition
	// KindStack places children one per line.
	KindStack
)

// Layout is one node of a chosen Layout Tree: the concrete rendering a
// Function's segment resolves to at some starting column (spec §3 "Layout
// Item / Layout Tree"). Value-typed and immutable once built.
type Layout struct {
	Kind Kind
	// Indentation is the number of spaces this layout's own content (and any
	// wrapped continuation of it) is shifted by, propagated by Indent.
	Indentation int
	// SpacesBefore is the number of spaces before this layout when appended
	// to a non-empty line (the first token's SpacesRequired, for a Line).
	SpacesBefore int
	// MustWrap reports whether a break is forced immediately before this
	// layout (the first token's break_decision == MustWrap, for a Line).
	MustWrap bool
	// Line identifies the source range, set only when Kind == KindLine.
	Line uwline.Line
	// Children holds the sub-layouts, set only when Kind is Juxtaposition or
	// Stack.
	Children []Layout
}

// Segment is one piece of a Function's piecewise-linear domain (spec §3
// "Layout Function Segment"): for starting columns in [Column, next
// segment's Column), cost(c) = Intercept + Gradient*(c - Column).
type Segment struct {
	Column    int
	Intercept float64
	Gradient  float64
	// Span is the width of the last rendered line of Layout, used by callers
	// (Juxtaposition, the Fitting Reshaper) composing this fragment with
	// what follows it on the same line.
	Span   int
	Layout Layout
}

// CostAt returns the segment's cost at margin, which must be >= Column.
func (s Segment) CostAt(margin int) float64 {
	return s.Intercept + s.Gradient*float64(margin-s.Column)
}

// Function is a piecewise-linear, monotonically non-decreasing cost function
// of the starting column (spec §3 "Layout Function"). Segments are sorted by
// Column and the first segment starts at Column 0.
type Function struct {
	Segments []Segment
}

func (f Function) verify() {
	assert.That(len(f.Segments) > 0, "layoutfn: function has no segments")
	assert.That(f.Segments[0].Column == 0, "layoutfn: first segment must start at column 0, got %d", f.Segments[0].Column)
	for i := 1; i < len(f.Segments); i++ {
		assert.That(f.Segments[i].Column > f.Segments[i-1].Column,
			"layoutfn: segments must be strictly increasing, %d then %d", f.Segments[i-1].Column, f.Segments[i].Column)
	}
}

// segmentIndexAt returns the index of the segment covering column c (the
// last segment whose Column is <= c).
func (f Function) segmentIndexAt(c int) int {
	i := 0
	for i+1 < len(f.Segments) && f.Segments[i+1].Column <= c {
		i++
	}
	return i
}

// SegmentAt returns the segment covering starting column c.
func (f Function) SegmentAt(c int) Segment {
	return f.Segments[f.segmentIndexAt(c)]
}

// CostAt returns the function's cost at starting column c.
func (f Function) CostAt(c int) float64 {
	return f.SegmentAt(c).CostAt(c)
}

// segmentEnd returns the column at which the segment at index i ends, or inf
// if it is the function's last segment.
func (f Function) segmentEnd(i int) int {
	if i+1 < len(f.Segments) {
		return f.Segments[i+1].Column
	}
	return inf
}

// inf stands in for "extends to infinity" on a segment's open upper bound.
// Columns never legitimately reach this value in practice (a fragment's
// column never approaches 1<<30), so treating it as a sentinel is safe.
const inf = 1 << 30

// Line returns the Layout Function for a single-line rendering of line (spec
// §4.3 "Line"). tokens is the global token array; style supplies
// column_limit and over_column_limit_penalty.
func Line(line uwline.Line, tokens []*token.Format, style linewrap.Style) Function {
	span := line.Width(tokens)
	lineTokens := line.Tokens(tokens)

	layout := Layout{Kind: KindLine, Line: line}
	if len(lineTokens) > 0 {
		layout.SpacesBefore = lineTokens[0].Before.SpacesRequired
		layout.MustWrap = lineTokens[0].Before.Decision == token.MustWrap
	}

	limit := style.ColumnLimit
	penalty := float64(style.OverColumnLimitPenalty)

	if span > limit {
		return Function{Segments: []Segment{
			{Column: 0, Intercept: float64(span-limit) * penalty, Gradient: penalty, Span: span, Layout: layout},
		}}
	}

	segs := []Segment{{Column: 0, Intercept: 0, Gradient: 0, Span: span, Layout: layout}}
	if knot := limit - span; knot > 0 {
		segs = append(segs, Segment{Column: knot, Intercept: 0, Gradient: penalty, Span: span, Layout: layout})
	}
	return Function{Segments: segs}
}

// earlyPackingEpsilon is the tiny per-remaining-item preference Stack adds
// to deterministically prefer packing earlier content, per spec §4.3
// "Stack": "a tiny earlier-lines preference (≈1e-3 · remaining count)".
const earlyPackingEpsilon = 1e-3

// Stack combines operands vertically: every operand's first line starts at
// the same column (spec §4.3 "Stack").
func Stack(style linewrap.Style, fs ...Function) Function {
	assert.That(len(fs) > 0, "layoutfn: Stack requires at least one operand")
	for _, f := range fs {
		f.verify()
	}
	if len(fs) == 1 {
		return fs[0]
	}

	breakPenalty := float64(style.LineBreakPenalty) * float64(len(fs)-1)

	knots := mergeKnots(fs)
	segs := make([]Segment, 0, len(knots))
	for _, col := range knots {
		intercept := breakPenalty
		children := make([]Layout, len(fs))
		for i, f := range fs {
			seg := f.SegmentAt(col)
			intercept += seg.CostAt(col)
			intercept += earlyPackingEpsilon * float64(len(fs)-1-i)
			children[i] = seg.Layout
		}
		last := fs[len(fs)-1].SegmentAt(col)
		segs = append(segs, Segment{
			Column:    col,
			Intercept: intercept,
			Gradient:  sumGradientsAt(fs, col),
			Span:      last.Span,
			Layout:    Layout{Kind: KindStack, Children: children},
		})
	}
	result := Function{Segments: segs}
	result.verify()
	return result
}

func sumGradientsAt(fs []Function, col int) float64 {
	var g float64
	for _, f := range fs {
		g += f.SegmentAt(col).Gradient
	}
	return g
}

// mergeKnots returns the sorted union of every function's segment columns.
func mergeKnots(fs []Function) []int {
	set := map[int]bool{0: true}
	for _, f := range fs {
		for _, s := range f.Segments {
			set[s.Column] = true
		}
	}
	knots := make([]int, 0, len(set))
	for c := range set {
		knots = append(knots, c)
	}
	insertionSort(knots)
	return knots
}

func insertionSort(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}

// Juxtaposition combines operands horizontally: operand i+1 starts at the
// column where operand i's last line ends (spec §4.3 "Juxtaposition").
func Juxtaposition(fs ...Function) Function {
	assert.That(len(fs) > 0, "layoutfn: Juxtaposition requires at least one operand")
	for _, f := range fs {
		f.verify()
	}
	result := fs[0]
	for _, next := range fs[1:] {
		result = juxtapose2(result, next)
	}
	result.verify()
	return result
}

// juxtapose2 combines a then b: b's effective starting column, as a function
// of the composite's own starting column c, is c + a's span at c (a merge-
// walk over a's segments and b's knots shifted back by that span, per spec
// §9 "Layout-function segments ... linear merges").
func juxtapose2(a, b Function) Function {
	var segs []Segment
	for i, as := range a.Segments {
		aLo := as.Column
		aHi := a.segmentEnd(i)
		bLo := aLo + as.Span
		bHi := aHi
		if bHi != inf {
			bHi += as.Span
		}

		for j, bs := range b.Segments {
			bsLo := bs.Column
			bsHi := b.segmentEnd(j)
			// Intersect [bsLo,bsHi) with [bLo,bHi).
			lo := maxInt(bsLo, bLo)
			hi := minInt(bsHi, bHi)
			if lo >= hi {
				continue
			}
			cLo := lo - as.Span
			if cLo < aLo {
				cLo = aLo
			}
			intercept := as.CostAt(cLo) + bs.CostAt(cLo+as.Span)
			segs = append(segs, Segment{
				Column:    cLo,
				Intercept: intercept,
				Gradient:  as.Gradient + bs.Gradient,
				Span:      bs.Span,
				Layout:    Layout{Kind: KindJuxtaposition, Children: []Layout{as.Layout, bs.Layout}},
			})
		}
	}
	return Function{Segments: dedupeColumns(segs)}
}

// dedupeColumns drops segments whose Column repeats the previous one (can
// happen at shared boundaries during a merge-walk); the first of a run wins.
func dedupeColumns(segs []Segment) []Segment {
	if len(segs) == 0 {
		return segs
	}
	out := segs[:1]
	for _, s := range segs[1:] {
		if s.Column == out[len(out)-1].Column {
			continue
		}
		out = append(out, s)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Choice returns the piecewise-minimum of its operands (spec §4.3
// "Choice"). Ties are broken by preferring the lower gradient, then the
// earlier operand index.
func Choice(fs ...Function) Function {
	assert.That(len(fs) > 0, "layoutfn: Choice requires at least one operand")
	for _, f := range fs {
		f.verify()
	}
	if len(fs) == 1 {
		return fs[0]
	}

	breaks := map[int]bool{0: true}
	for _, f := range fs {
		for _, s := range f.Segments {
			breaks[s.Column] = true
		}
	}
	for i := range fs {
		for j := i + 1; j < len(fs); j++ {
			for _, c := range crossings(fs[i], fs[j]) {
				breaks[c] = true
			}
		}
	}
	cols := make([]int, 0, len(breaks))
	for c := range breaks {
		cols = append(cols, c)
	}
	insertionSort(cols)

	segs := make([]Segment, 0, len(cols))
	for _, col := range cols {
		winner := winnerAt(fs, col)
		segs = append(segs, winner)
		segs[len(segs)-1].Column = col
	}
	result := Function{Segments: dedupeColumns(segs)}
	result.verify()
	return result
}

func winnerAt(fs []Function, col int) Segment {
	best := fs[0].SegmentAt(col)
	bestCost := best.CostAt(col)
	for _, f := range fs[1:] {
		seg := f.SegmentAt(col)
		cost := seg.CostAt(col)
		if cost < bestCost || (cost == bestCost && seg.Gradient < best.Gradient) {
			best, bestCost = seg, cost
		}
	}
	return best
}

// crossings returns every column > 0 at which a and b's active segments have
// equal cost, restricted to columns where both are within range of a real
// segment boundary pair (a coarse but sound over-approximation: real
// crossings can only occur where both functions are piecewise-affine with
// constant slope, i.e. strictly inside the overlap of one segment from each).
func crossings(a, b Function) []int {
	var out []int
	for i, as := range a.Segments {
		aLo, aHi := as.Column, a.segmentEnd(i)
		for j, bs := range b.Segments {
			bLo, bHi := bs.Column, b.segmentEnd(j)
			lo := maxInt(aLo, bLo)
			hi := minInt(aHi, bHi)
			if lo >= hi {
				continue
			}
			if as.Gradient == bs.Gradient {
				continue // parallel: no interior crossing
			}
			// as.Intercept + as.Gradient*(c-aLo) == bs.Intercept + bs.Gradient*(c-bLo)
			num := bs.Intercept - as.Intercept + as.Gradient*float64(aLo) - bs.Gradient*float64(bLo)
			den := as.Gradient - bs.Gradient
			c := int(num/den + 0.5)
			if c > lo && c < hi {
				out = append(out, c)
			}
		}
	}
	return out
}

// Indent shifts a fragment's rendering by n columns: its continuation (and,
// for a Line, any future wrap) lines are indented n spaces further than the
// context around it (spec §4.3 "Indent").
//
// The cost-per-starting-column relationship of f is unaffected: Indent
// describes how f's own content is rendered once placed, not where it is
// placed, so segment Columns and costs are unchanged; only the propagated
// Layout.Indentation changes. This keeps the "first segment starts at
// column 0" invariant intact, which a literal column-shift of the domain
// would violate.
func Indent(f Function, n int) Function {
	f.verify()
	segs := make([]Segment, len(f.Segments))
	for i, s := range f.Segments {
		s.Layout = indentLayout(s.Layout, n)
		segs[i] = s
	}
	result := Function{Segments: segs}
	result.verify()
	return result
}

func indentLayout(l Layout, n int) Layout {
	l.Indentation += n
	return l
}

// Wrap produces a paragraph-like packing of its operands: every split point
// between Juxtaposition (pack onto the current line) and Stack (start a new
// line) is tried, and the cheapest is chosen via Choice, with a tiny
// preference for earlier splits (spec §4.3 "Wrap").
func Wrap(style linewrap.Style, fs ...Function) Function {
	assert.That(len(fs) > 0, "layoutfn: Wrap requires at least one operand")
	if len(fs) == 1 {
		fs[0].verify()
		return fs[0]
	}

	var choices []Function
	for split := 1; split < len(fs); split++ {
		head := Juxtaposition(fs[:split]...)
		tail := Wrap(style, fs[split:]...)
		combo := Stack(style, head, tail)
		penalized := penalizeLaterSplit(combo, split)
		choices = append(choices, penalized)
	}
	choices = append(choices, Juxtaposition(fs...))
	return Choice(choices...)
}

// penalizeLaterSplit nudges f's cost up slightly in proportion to split, so
// that Wrap's final Choice prefers the earliest-splitting candidate among
// otherwise-equal-cost alternatives.
func penalizeLaterSplit(f Function, split int) Function {
	segs := make([]Segment, len(f.Segments))
	for i, s := range f.Segments {
		s.Intercept += earlyPackingEpsilon * float64(split)
		segs[i] = s
	}
	return Function{Segments: segs}
}
