package search_test

import (
	"strings"
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/search"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// scenarioStyle is the style used in spec's end-to-end scenarios:
// indentation_spaces=2, wrap_spaces=4, column_limit=30,
// over_column_limit_penalty=100, line_break_penalty=2.
var scenarioStyle = linewrap.Style{
	IndentationSpaces:      2,
	WrapSpaces:             4,
	ColumnLimit:            30,
	OverColumnLimitPenalty: 100,
	LineBreakPenalty:       2,
}

func row(buf string, words ...string) (string, []*token.Format) {
	var tokens []*token.Format
	offset := 0
	for i, w := range words {
		if i > 0 {
			offset++ // one space between words in buf, for Preserve reconstruction
		}
		t := token.New(w, offset, 0)
		t.Before.SpacesRequired = 1
		tokens = append(tokens, t)
		offset += len(w)
	}
	token.ConnectPreservedSpace(tokens)
	return buf, tokens
}

func buildBuf(words ...string) string {
	s := ""
	for i, w := range words {
		if i > 0 {
			s += " "
		}
		s += w
	}
	return s
}

func TestSearchFits(t *testing.T) {
	words := []string{"zz", "yyy", "xxxx"}
	buf, tokens := row(buildBuf(words...), words...)
	style := scenarioStyle
	style.ColumnLimit = 13 // room for "zz yyy xxxx" (11 columns)

	out := search.Search(buf, tokens, 0, style, 0)

	assert.True(t, !out.Incomplete, "search should complete")
	assert.True(t, len(out.Results) >= 1, "at least one winning path")
	got := out.Results[0].Excerpt.FormattedText(buf)
	assert.Equals(t, got, "zz yyy xxxx", "fits on one line")
	assert.Equals(t, out.Results[0].Cost, 0, "no penalty when it fits")
}

func TestSearchWrapsToNextLine(t *testing.T) {
	// Appending "wwwww" after "zz yyy xxxx" would land at column 17, over a
	// limit of 13, costing over_column_limit_penalty=100 plus 4; wrapping it
	// costs its own (zero) break_penalty plus line_break_penalty=2, so the
	// cheaper path wraps.
	words := []string{"zz", "yyy", "xxxx", "wwwww"}
	buf, tokens := row(buildBuf(words...), words...)
	style := scenarioStyle
	style.ColumnLimit = 13

	out := search.Search(buf, tokens, 0, style, 0)

	assert.True(t, !out.Incomplete, "search should complete")
	got := out.Results[0].Excerpt.FormattedText(buf)
	assert.Equals(t, got, "zz yyy xxxx\n    wwwww", "wraps the last word at wrap_spaces=4")
}

func TestSearchMustWrapRespected(t *testing.T) {
	buf := "aa bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 3, 0)
	b.Before.SpacesRequired = 1
	b.Before.Decision = token.MustWrap
	tokens := []*token.Format{a, b}
	token.ConnectPreservedSpace(tokens)

	out := search.Search(buf, tokens, 0, scenarioStyle, 0)

	assert.Equals(t, out.Results[0].Excerpt.Decisions[1].Action, token.ActionWrap, "must-wrap token committed to Wrap")
}

func TestSearchMustAppendRespected(t *testing.T) {
	buf := "aa bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 3, 0)
	b.Before.SpacesRequired = 1
	b.Before.Decision = token.MustAppend
	tokens := []*token.Format{a, b}
	token.ConnectPreservedSpace(tokens)

	out := search.Search(buf, tokens, 0, scenarioStyle, 0)

	assert.Equals(t, out.Results[0].Excerpt.Decisions[1].Action, token.ActionAppend, "must-append token committed to Append")
}

func TestSearchFirstTokenPreserveIgnoresIndentation(t *testing.T) {
	buf := "token1"
	first := token.New("token1", 0, 0)
	first.Before.Decision = token.Preserve
	tokens := []*token.Format{first}

	out := search.Search(buf, tokens, 1, scenarioStyle, 0)

	assert.Equals(t, out.Results[0].Excerpt.Decisions[0].Action, token.ActionPreserve, "disabled first token stays Preserve")
	assert.Equals(t, out.Results[0].Cost, 0, "single-token line costs nothing")
}

func TestSearchPreservePolicy(t *testing.T) {
	buf := "aa   bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 5, 0)
	b.Before.SpacesRequired = 1
	b.Before.Decision = token.Preserve
	tokens := []*token.Format{a, b}
	token.ConnectPreservedSpace(tokens)

	out := search.Search(buf, tokens, 0, scenarioStyle, 0)

	got := out.Results[0].Excerpt.FormattedText(buf)
	assert.Equals(t, got, "aa   bb", "preserve replays original spacing verbatim")
}

func TestSearchGroupBalancingWrapAlignsToOpen(t *testing.T) {
	// "foo(" then a forced wrap inside the group should align to the column
	// right after "(", not to the line's own indentation.
	buf := "foo ( aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	foo := token.New("foo", 0, 0)
	open := token.New("(", 4, 0)
	open.Before.SpacesRequired = 1
	open.Balance = token.OpenGroup
	inner := token.New("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 6, 0)
	inner.Before.SpacesRequired = 1
	tokens := []*token.Format{foo, open, inner}
	token.ConnectPreservedSpace(tokens)

	out := search.Search(buf, tokens, 0, scenarioStyle, 0)

	assert.Equals(t, out.Results[0].Excerpt.Decisions[2].Action, token.ActionWrap, "overflow forces the long token onto its own line")
	assert.Equals(t, out.Results[0].Excerpt.Decisions[2].Spaces, len("foo ("), "wrap aligns to the column right after the open group")
}

func TestSearchIncompleteOnAbort(t *testing.T) {
	words := []string{"zz", "yyy", "xxxx", "wwwwww"}
	buf, tokens := row(buildBuf(words...), words...)

	out := search.Search(buf, tokens, 1, scenarioStyle, 1)

	assert.True(t, out.Incomplete, "search should report incomplete after one pop")
	assert.Equals(t, len(out.Results), 1, "one greedily-completed result")
}

func TestSearchReturnsAllTiedWinners(t *testing.T) {
	// With no over-limit penalty in play and a zero break penalty, appending
	// "bb" and wrapping it onto its own line cost exactly the same, so both
	// paths tie for cheapest.
	buf := "aa bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 3, 0)
	b.Before.SpacesRequired = 1
	tokens := []*token.Format{a, b}
	token.ConnectPreservedSpace(tokens)
	style := linewrap.Style{IndentationSpaces: 0, WrapSpaces: 4, ColumnLimit: 80, OverColumnLimitPenalty: 100, LineBreakPenalty: 0}

	out := search.Search(buf, tokens, 0, style, 0)

	assert.True(t, !out.Incomplete, "search should complete")
	assert.Equals(t, len(out.Results), 2, "append and wrap tie at the same cost")

	report := search.Diagnose(out, buf)
	assert.True(t, strings.Contains(report, "2 tied winners"), "Diagnose reports the tie count")
	assert.True(t, strings.Contains(report, "aa bb"), "Diagnose renders the appended winner")
	assert.True(t, strings.Contains(report, "aa\n"), "Diagnose renders the wrapped winner")
}

func TestSearchDiagnoseRendersIncomplete(t *testing.T) {
	words := []string{"zz", "yyy", "xxxx", "wwwwww"}
	buf, tokens := row(buildBuf(words...), words...)

	out := search.Search(buf, tokens, 1, scenarioStyle, 1)

	report := search.Diagnose(out, buf)
	assert.True(t, strings.Contains(report, "aborted"), "Diagnose notes the abort")
	assert.True(t, strings.Contains(report, "greedily finished"), "Diagnose names the fallback strategy")
}

func TestFitsOnLine(t *testing.T) {
	words := []string{"zz", "yyy", "xxxx", "wwwww"}
	buf, tokens := row(buildBuf(words...), words...)
	line := uwline.Line{Begin: 0, End: len(tokens), Indentation: 2}

	fits, column := search.FitsOnLine(buf, line, tokens, scenarioStyle)

	assert.True(t, fits, "row fits within column_limit=30")
	assert.Equals(t, column, len("  zz yyy xxxx wwwww"), "final column")
}

func TestFitsOnLineMustWrapShortCircuits(t *testing.T) {
	buf := "aa bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 3, 0)
	b.Before.SpacesRequired = 1
	b.Before.Decision = token.MustWrap
	tokens := []*token.Format{a, b}
	token.ConnectPreservedSpace(tokens)
	line := uwline.Line{Begin: 0, End: 2}

	fits, _ := search.FitsOnLine(buf, line, tokens, scenarioStyle)

	assert.True(t, !fits, "a MustWrap token never fits on one line")
}
