package token_test

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/linewrap/token"
)

func TestFormatMultiline(t *testing.T) {
	tests := map[string]struct {
		text            string
		wantHasNewline  bool
		wantFirstLine   int
		wantLastLine    int
		wantLengthMatch bool
	}{
		"single line": {
			text:            "hello",
			wantHasNewline:  false,
			wantFirstLine:   5,
			wantLastLine:    5,
			wantLengthMatch: true,
		},
		"block comment spanning lines": {
			text:           "/* one\ntwo\nthree */",
			wantHasNewline: true,
			wantFirstLine:  6,
			wantLastLine:   8,
		},
		"empty": {
			text:            "",
			wantHasNewline:  false,
			wantFirstLine:   0,
			wantLastLine:    0,
			wantLengthMatch: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := token.New(tt.text, 0, 0)
			assert.Equals(t, f.HasNewline(), tt.wantHasNewline, "HasNewline(%q)", tt.text)
			assert.Equals(t, f.FirstLineLength(), tt.wantFirstLine, "FirstLineLength(%q)", tt.text)
			assert.Equals(t, f.LastLineLength(), tt.wantLastLine, "LastLineLength(%q)", tt.text)
			if tt.wantLengthMatch {
				assert.Equals(t, f.Length(), len(tt.text), "Length(%q)", tt.text)
			}
		})
	}
}

func TestConnectPreservedSpace(t *testing.T) {
	buf := "aa  bb\tcc"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 4, 0)
	c := token.New("cc", 7, 0)
	tokens := []*token.Format{a, b, c}

	token.ConnectPreservedSpace(tokens)

	assert.Equals(t, a.OriginalLeadingSpace(buf), "", "first token has no leading space")
	assert.Equals(t, b.OriginalLeadingSpace(buf), "  ", "OriginalLeadingSpace(b)")
	assert.Equals(t, c.OriginalLeadingSpace(buf), "\t", "OriginalLeadingSpace(c)")
}

func TestApplyDisabledRanges(t *testing.T) {
	// source text: "aa  bb  cc"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 4, 0)
	c := token.New("cc", 8, 0)
	tokens := []*token.Format{a, b, c}
	token.ConnectPreservedSpace(tokens)

	// disable the whitespace between b and c only.
	disabled := token.NewDisabledRanges([]token.Range{{Start: 6, End: 8}})
	token.ApplyDisabledRanges(tokens, disabled)

	assert.Equals(t, a.Before.Decision, token.Undecided, "a untouched")
	assert.Equals(t, b.Before.Decision, token.Undecided, "b untouched")
	assert.Equals(t, c.Before.Decision, token.Preserve, "c forced to Preserve")
}

func TestDisabledRangesOverlaps(t *testing.T) {
	d := token.NewDisabledRanges([]token.Range{{Start: 10, End: 20}, {Start: 0, End: 5}})

	tests := map[string]struct {
		start, end int
		want       bool
	}{
		"before any range":      {start: 6, end: 9, want: false},
		"inside first range":    {start: 12, end: 13, want: true},
		"touches boundary end":  {start: 20, end: 25, want: false},
		"spans across a range":  {start: 8, end: 11, want: true},
		"empty range never hit": {start: 5, end: 5, want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equals(t, d.Overlaps(tt.start, tt.end), tt.want, "Overlaps(%d, %d)", tt.start, tt.end)
		})
	}
}

func TestExcerptFormattedText(t *testing.T) {
	buf := "aa  bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 4, 0)
	e := token.Excerpt{
		Tokens: []*token.Format{a, b},
		Decisions: []token.Decision{
			{Action: token.ActionAppend, Spaces: 0},
			{Action: token.ActionWrap, Spaces: 2},
		},
	}

	assert.Equals(t, e.FormattedText(buf), "aa\n  bb", "FormattedText")
}

func TestExcerptFormattedTextPreserve(t *testing.T) {
	buf := "aa  bb"
	a := token.New("aa", 0, 0)
	b := token.New("bb", 4, 0)
	e := token.Excerpt{
		Tokens: []*token.Format{a, b},
		Decisions: []token.Decision{
			{Action: token.ActionAppend, Spaces: 0},
			{Action: token.ActionPreserve, PreservedSpaceStart: 2},
		},
	}

	assert.Equals(t, e.FormattedText(buf), "aa  bb", "FormattedText with preserved spacing")
}
