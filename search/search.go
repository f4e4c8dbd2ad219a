// Package search implements the Wrap Searcher: a Dijkstra-style search over
// State Nodes that decides, for one Unwrapped Line, where to break lines and
// how much to indent continuations (spec §4.2).
//
// Every successful search returns one or more tied winning [Result]s, walked
// backwards from the cheapest State Node chain into a [token.Excerpt]. A
// search that exceeds its state budget returns the greedily-completed best
// state instead, flagged incomplete.
package search

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/internal/assert"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// columnStack is a persistent (cons-list) stack of wrap-column positions,
// shared by every State Node that branched from a common ancestor (spec §9
// "Column stack per state"). Pushing or popping never mutates an existing
// frame, so a State Node's stack can be referenced by any number of
// descendants without copying.
type columnStack struct {
	column int
	prev   *columnStack
}

func newColumnStack(bottom int) *columnStack {
	return &columnStack{column: bottom}
}

func (s *columnStack) push(column int) *columnStack {
	return &columnStack{column: column, prev: s}
}

// pop discards the top frame, unless it is the last one: the stack always
// contains at least one element (spec §4.2 "the bottom is
// indentation_spaces + wrap_spaces").
func (s *columnStack) pop() *columnStack {
	if s.prev == nil {
		return s
	}
	return s.prev
}

func (s *columnStack) top() int { return s.column }

// state is one State Node (spec §3 "State Node"). It is immutable once
// constructed and forms a linked chain back to the root via prev, so many
// states can share the same ancestry without copying (spec §9 "State chain
// as immutable sharing").
type state struct {
	prev *state

	tokens []*token.Format // the full line's tokens, shared by every state
	idx    int             // index of the next undecided token; [0,idx) is decided

	action token.Action // decision committed for the transition into this state
	spaces int          // spaces (or newline indent) committed for that transition
	column int          // current_column after committing that decision

	cost  int
	stack *columnStack
}

func (s *state) isEnd() bool { return s.idx >= len(s.tokens) }

// priority orders states by (cumulative_cost, current_column), ascending,
// matching the priority queue ordering in spec §4.2: cost first, column as a
// tie-breaker preferring solutions that finish earlier on the line.
func (s *state) less(o *state) bool {
	if s.cost != o.cost {
		return s.cost < o.cost
	}
	return s.column < o.column
}

// queue is a binary heap of states ordered by [*state.less], implementing
// container/heap.Interface.
type queue []*state

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].less(q[j]) }
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)         { *q = append(*q, x.(*state)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Result is one winning path through the search: the committed decisions for
// every token of the line, plus the total cost of that path.
type Result struct {
	Excerpt token.Excerpt
	Cost    int
}

// Outcome is the return value of [Search]: one or more tied winning Results,
// or a single greedily-completed Result flagged Incomplete if the search
// aborted (spec §4.2 "Stopping").
type Outcome struct {
	Results    []Result
	Incomplete bool
}

// MaxStates bounds the number of queue pops a search performs before
// aborting (spec §4.2 "max_search_states"). Zero means unbounded.
type MaxStates int

// Search runs the Wrap Searcher over line's tokens (spec §4.2). buf is the
// backing buffer, needed to reconstruct Preserve spacing. indentation is the
// line's starting indentation in spaces (spec §3 "Unwrapped Line").
func Search(buf string, tokens []*token.Format, indentation int, style linewrap.Style, max MaxStates) Outcome {
	if len(tokens) == 0 {
		return Outcome{Results: []Result{{Excerpt: token.Excerpt{}, Cost: 0}}}
	}

	root := newRootState(buf, tokens, indentation, style)
	if root.isEnd() {
		return Outcome{Results: []Result{{Excerpt: reconstruct(root), Cost: root.cost}}}
	}

	q := &queue{root}
	heap.Init(q)

	var winners []*state
	var winningCost int
	pops := 0
	var best *state

	for q.Len() > 0 {
		if max > 0 && pops >= int(max) {
			best = best.quickFinish(buf, style)
			return Outcome{
				Results:    []Result{{Excerpt: reconstruct(best), Cost: best.cost}},
				Incomplete: true,
			}
		}
		cur := heap.Pop(q).(*state)
		pops++
		if best == nil || cur.less(best) {
			best = cur
		}

		if len(winners) > 0 && cur.cost > winningCost {
			// The heap pops states in non-decreasing (cost, column) order,
			// so every remaining state costs at least this much too: no
			// further tie can appear.
			break
		}

		if cur.isEnd() {
			if len(winners) == 0 {
				winningCost = cur.cost
			}
			winners = append(winners, cur)
			continue
		}

		for _, succ := range successors(cur, buf, style) {
			heap.Push(q, succ)
		}
	}

	if len(winners) == 0 {
		// Every state dead-ended without reaching isEnd(), which cannot
		// happen: every token admits at least one successor (Preserve,
		// Append, or Wrap).
		assert.Never("search: queue exhausted without a winning path")
	}

	results := make([]Result, len(winners))
	for i, w := range winners {
		results[i] = Result{Excerpt: reconstruct(w), Cost: w.cost}
	}
	return Outcome{Results: results}
}

// newRootState seeds the search: the first token is placed unconditionally,
// consuming no decision (spec §4.2 "the seed state places the first token,
// consumes no decisions for it").
func newRootState(buf string, tokens []*token.Format, indentation int, style linewrap.Style) *state {
	first := tokens[0]
	// indentation already is a literal space count (uwline.Line.Indentation,
	// spec §3): the partition builder decides how levels map to spaces, not
	// the searcher.
	indentCols := indentation

	// A disabled first token has no predecessor to reconstruct preserved
	// space from; its column is just its own text, ignoring indentation
	// (verible's StateNode ConstructionWithPreserveLeadingSpace).
	action := token.ActionAppend
	spaces := indentCols
	column := indentCols + first.Length()
	if first.HasNewline() {
		column = first.LastLineLength()
	}
	if first.Before.Decision == token.Preserve {
		action = token.ActionPreserve
		spaces = 0
		column = first.Length()
		if first.HasNewline() {
			column = first.LastLineLength()
		}
	}

	stack := newColumnStack(indentCols + style.WrapSpaces)
	if first.Balance == token.OpenGroup {
		stack = stack.push(column)
	}

	return &state{
		tokens: tokens,
		idx:    1,
		action: action,
		spaces: spaces,
		column: column,
		stack:  stack,
	}
}

// successors expands the frontier token at cur.idx into every applicable
// successor state, per the filtering rules of spec §4.2.
func successors(cur *state, buf string, style linewrap.Style) []*state {
	t := cur.tokens[cur.idx]

	if t.Before.Decision == token.Preserve {
		return []*state{preserveSuccessor(cur, t, buf)}
	}

	var out []*state
	switch t.Before.Decision {
	case token.Undecided:
		out = append(out, appendSuccessor(cur, t, style))
		out = append(out, wrapSuccessor(cur, t, style))
	case token.MustAppend, token.AppendAligned:
		out = append(out, appendSuccessor(cur, t, style))
	case token.MustWrap:
		out = append(out, wrapSuccessor(cur, t, style))
	default:
		assert.Never("search: unrecognized break decision %v", t.Before.Decision)
	}
	return out
}

func stackForToken(t *token.Format, stack *columnStack) *columnStack {
	if t.Balance == token.CloseGroup {
		return stack.pop()
	}
	return stack
}

func stackAfterToken(t *token.Format, stack *columnStack, column int) *columnStack {
	if t.Balance == token.OpenGroup {
		return stack.push(column)
	}
	return stack
}

func preserveSuccessor(cur *state, t *token.Format, buf string) *state {
	preserved := t.OriginalLeadingSpace(buf)
	var trailingCol int
	if i := lastNewline(preserved); i >= 0 {
		trailingCol = len(preserved) - i - 1
	} else {
		trailingCol = cur.column + len(preserved)
	}
	column := trailingCol + t.Length()
	if t.HasNewline() {
		column = t.LastLineLength()
	}

	stack := stackForToken(t, cur.stack)
	stack = stackAfterToken(t, stack, column)

	return &state{
		prev:   cur,
		tokens: cur.tokens,
		idx:    cur.idx + 1,
		action: token.ActionPreserve,
		column: column,
		cost:   cur.cost,
		stack:  stack,
	}
}

func lastNewline(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}

func appendSuccessor(cur *state, t *token.Format, style linewrap.Style) *state {
	spaces := t.Before.SpacesRequired
	columnForPenalty := cur.column + spaces + t.FirstLineLength()
	column := columnForPenalty
	if t.HasNewline() {
		column = t.LastLineLength()
	}

	cost := cur.cost
	if columnForPenalty > style.ColumnLimit {
		cost += style.OverColumnLimitPenalty + (columnForPenalty - style.ColumnLimit)
	}

	stack := stackForToken(t, cur.stack)
	stack = stackAfterToken(t, stack, column)

	return &state{
		prev:   cur,
		tokens: cur.tokens,
		idx:    cur.idx + 1,
		action: token.ActionAppend,
		spaces: spaces,
		column: column,
		cost:   cost,
		stack:  stack,
	}
}

func wrapSuccessor(cur *state, t *token.Format, style linewrap.Style) *state {
	stack := stackForToken(t, cur.stack)
	wrapColumn := stack.top()

	column := wrapColumn + t.Length()
	if t.HasNewline() {
		column = t.LastLineLength()
	}

	stack = stackAfterToken(t, stack, column)

	return &state{
		prev:   cur,
		tokens: cur.tokens,
		idx:    cur.idx + 1,
		action: token.ActionWrap,
		spaces: wrapColumn,
		column: column,
		cost:   cur.cost + t.Before.BreakPenalty + style.LineBreakPenalty,
		stack:  stack,
	}
}

// quickFinish completes s by repeatedly calling [*state.appendIfItFits] with
// no further search (spec §4.2 "Stopping": "the current best state is
// greedily finished via repeated Append-if-it-fits-else-Wrap"). It is named
// and kept independently testable, matching verible's StateNode::QuickFinish.
func (s *state) quickFinish(buf string, style linewrap.Style) *state {
	assert.That(s != nil, "search: aborted with no states ever popped")
	cur := s
	for !cur.isEnd() {
		cur = cur.appendIfItFits(buf, style)
	}
	return cur
}

// appendIfItFits advances s by one token: Preserve tokens always preserve,
// MustWrap tokens always wrap, MustAppend and AppendAligned tokens always
// append, and Undecided tokens append when doing so keeps the line within
// the column limit, wrapping otherwise (verible's StateNode::AppendIfItFits).
func (s *state) appendIfItFits(buf string, style linewrap.Style) *state {
	t := s.tokens[s.idx]
	if t.Before.Decision == token.Preserve {
		return preserveSuccessor(s, t, buf)
	}
	candidate := appendSuccessor(s, t, style)
	fits := candidate.column <= style.ColumnLimit
	if t.Before.Decision == token.MustWrap || (!fits && t.Before.Decision == token.Undecided) {
		return wrapSuccessor(s, t, style)
	}
	return candidate
}

// reconstruct walks w's chain backwards into a token.Excerpt (spec §4.2
// "Output"). The first token's action is always Append (the seed state's
// indentation) or Preserve if its own decision said so.
func reconstruct(w *state) token.Excerpt {
	n := 0
	for s := w; s != nil; s = s.prev {
		n++
	}
	excerpt := token.Excerpt{
		Tokens:    make([]*token.Format, n),
		Decisions: make([]token.Decision, n),
	}
	i := n - 1
	for s := w; s != nil; s = s.prev {
		excerpt.Tokens[i] = s.tokens[i]
		d := token.NewDecisionFromContract(s.tokens[i].Before)
		d.Action = s.action
		d.Spaces = s.spaces
		excerpt.Decisions[i] = d
		i--
	}
	return excerpt
}

// Diagnose renders outcome for tests and the CLI's -verbose output (spec
// §4.2 "tie reporting"). A single, complete Result is reported in one line;
// tied Results are listed each with its rendered text; an Incomplete
// Result notes that it was greedily finished after the search aborted.
func Diagnose(outcome Outcome, buf string) string {
	var b strings.Builder
	switch {
	case outcome.Incomplete:
		fmt.Fprintf(&b, "search aborted: greedily finished at cost %d\n", outcome.Results[0].Cost)
		fmt.Fprintf(&b, "  %s", outcome.Results[0].Excerpt.FormattedText(buf))
	case len(outcome.Results) == 1:
		fmt.Fprintf(&b, "search found one winner at cost %d", outcome.Results[0].Cost)
	default:
		fmt.Fprintf(&b, "search found %d tied winners at cost %d\n", len(outcome.Results), outcome.Results[0].Cost)
		for i, r := range outcome.Results {
			fmt.Fprintf(&b, "  [%d] %s", i, r.Excerpt.FormattedText(buf))
			if i < len(outcome.Results)-1 {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// FitsOnLine performs the same walk as Search but considers only Append
// successors, short-circuiting on a MustWrap decision or on exceeding the
// column limit (spec §4.2 "Utility API"). It is the primitive behind the
// driver's FitOnLineElseExpand policy.
func FitsOnLine(buf string, line uwline.Line, tokens []*token.Format, style linewrap.Style) (fits bool, finalColumn int) {
	all := line.Tokens(tokens)
	if len(all) == 0 {
		return true, line.Indentation
	}

	column := line.Indentation + all[0].Length()
	if all[0].HasNewline() {
		column = all[0].LastLineLength()
	}
	if column > style.ColumnLimit {
		return false, column
	}

	for _, t := range all[1:] {
		if t.Before.Decision == token.MustWrap {
			return false, column
		}
		if t.Before.Decision == token.Preserve {
			preserved := t.OriginalLeadingSpace(buf)
			var trailingCol int
			if i := lastNewline(preserved); i >= 0 {
				trailingCol = len(preserved) - i - 1
			} else {
				trailingCol = column + len(preserved)
			}
			column = trailingCol + t.Length()
			if t.HasNewline() {
				column = t.LastLineLength()
			}
			if column > style.ColumnLimit {
				return false, column
			}
			continue
		}

		columnForPenalty := column + t.Before.SpacesRequired + t.FirstLineLength()
		if columnForPenalty > style.ColumnLimit {
			return false, columnForPenalty
		}
		if t.HasNewline() {
			column = t.LastLineLength()
		} else {
			column = columnForPenalty
		}
	}
	return true, column
}
