// Package token defines the Format Token: one emitted lexeme plus the
// mutable leading-space contract attached to it (spec §3, "Format Token").
//
// A Format Token is the unit every other package in linewrap operates on:
// the Partition Tree (package uwline/partition) groups them into ranges, the
// Wrap Searcher (package search) commits a spacing Decision for each one,
// and the Alignment Engine (package align) commits an aligned Decision for
// each token of a tabular row.
package token

import (
	"fmt"
	"sort"
	"strings"
)

// BreakDecision is the exploration option for the spacing before a token
// (spec §3 break_decision; verible's SpacingOptions). The zero value is
// Undecided.
type BreakDecision int

const (
	// Undecided means the spacing here is unconstrained and should be
	// optimized by the Wrap Searcher.
	Undecided BreakDecision = iota
	// MustAppend forbids a break before this token.
	MustAppend
	// MustWrap forces a break before this token.
	MustWrap
	// AppendAligned behaves like MustAppend but allows left-padding spaces
	// when the token is rendered as part of an aligned column.
	AppendAligned
	// Preserve means the original spacing before this token must be kept
	// verbatim, either because a disabled range covers it or because the
	// token's own contract was annotated that way.
	Preserve
)

func (d BreakDecision) String() string {
	switch d {
	case Undecided:
		return "Undecided"
	case MustAppend:
		return "MustAppend"
	case MustWrap:
		return "MustWrap"
	case AppendAligned:
		return "AppendAligned"
	case Preserve:
		return "Preserve"
	default:
		return fmt.Sprintf("BreakDecision(%d)", int(d))
	}
}

// GroupBalance is the advisory group-balancing tag used by the Wrap
// Searcher to push/pop the column-position stack (spec §3, §4.2).
type GroupBalance int

const (
	// NoGroup means this token does not participate in group balancing.
	NoGroup GroupBalance = iota
	// OpenGroup marks the start of a balanced group, e.g. an opening
	// bracket.
	OpenGroup
	// CloseGroup marks the end of a balanced group, e.g. a closing bracket.
	CloseGroup
)

func (b GroupBalance) String() string {
	switch b {
	case NoGroup:
		return "NoGroup"
	case OpenGroup:
		return "OpenGroup"
	case CloseGroup:
		return "CloseGroup"
	default:
		return fmt.Sprintf("GroupBalance(%d)", int(b))
	}
}

// Action is the final, bound spacing decision committed for a token (spec
// §3 break_decision outcome space; verible's SpacingDecision). Unlike
// BreakDecision there is no Undecided value: every committed token has one
// of these.
type Action int

const (
	// ActionPreserve keeps the original inter-token spacing verbatim.
	ActionPreserve Action = iota
	// ActionAppend adds the token onto the current line with
	// Decision.Spaces spaces before it.
	ActionAppend
	// ActionWrap breaks onto a new line, indented to the wrap column.
	ActionWrap
	// ActionAlign behaves like ActionAppend but the spacing was computed by
	// the Alignment Engine to land the token at a fixed column, possibly
	// left-padded.
	ActionAlign
)

func (a Action) String() string {
	switch a {
	case ActionPreserve:
		return "Preserve"
	case ActionAppend:
		return "Append"
	case ActionWrap:
		return "Wrap"
	case ActionAlign:
		return "Align"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// noPreservedSpace is the sentinel for Contract.PreservedSpaceStart and
// Decision.PreservedSpaceStart meaning "no preserved-space pointer was set",
// mirroring verible's use of -1/nullptr as a safety sentinel
// (state-node.h's wrap_multiline_token_spaces_before).
const noPreservedSpace = -1

// Contract is the mutable leading-space contract of a Format Token (spec §3;
// verible's InterTokenInfo). It is filled in by the external spacing
// annotator before the core runs; inside the core only ApplyDisabledRanges
// changes it.
type Contract struct {
	// SpacesRequired is the minimum number of spaces before this token.
	// Must be non-negative.
	SpacesRequired int
	// BreakPenalty is the cost of breaking before this token.
	BreakPenalty int
	// Decision is the exploration option for this token.
	Decision BreakDecision
	// PreservedSpaceStart is a byte offset into the backing buffer marking
	// where this token's original leading whitespace begins, or
	// noPreservedSpace if not set.
	PreservedSpaceStart int
}

// NewContract returns a Contract with PreservedSpaceStart unset.
func NewContract(spacesRequired, breakPenalty int, decision BreakDecision) Contract {
	return Contract{
		SpacesRequired:      spacesRequired,
		BreakPenalty:        breakPenalty,
		Decision:            decision,
		PreservedSpaceStart: noPreservedSpace,
	}
}

// HasPreservedSpace reports whether PreservedSpaceStart was set.
func (c Contract) HasPreservedSpace() bool { return c.PreservedSpaceStart != noPreservedSpace }

// Format is one emitted lexeme plus its leading-space contract (spec §3).
// Format is held by pointer everywhere so that the disabled-range
// preprocessing can mutate Before in place; every
// leaf partition is the exclusive writer of its own tokens' contracts (spec
// §5).
type Format struct {
	// Text is the literal text of the lexeme.
	Text string
	// Start and End are byte offsets of Text into the backing buffer, used
	// to reconstruct preserved whitespace and to test disabled-range
	// overlap.
	Start, End int
	// Enum is the language-specific token tag. Opaque to the core (spec
	// §1, §6).
	Enum int
	// Before is this token's leading-space contract.
	Before Contract
	// Balance is this token's group-balancing tag.
	Balance GroupBalance
}

// New returns a Format token for the given text occupying [start, start+len(text)).
func New(text string, start int, enum int) *Format {
	return &Format{
		Text:    text,
		Start:   start,
		End:     start + len(text),
		Enum:    enum,
		Before:  NewContract(0, 0, Undecided),
		Balance: NoGroup,
	}
}

// Length is the byte length of the token's text.
func (f *Format) Length() int { return len(f.Text) }

// HasNewline reports whether the token's own text spans multiple lines,
// e.g. a block comment. Spec §4.2 "Multiline tokens" special-cases these.
func (f *Format) HasNewline() bool { return strings.ContainsRune(f.Text, '\n') }

// FirstLineLength is the length of Text up to (not including) its first
// newline, or the full length if Text has no newline.
func (f *Format) FirstLineLength() int {
	if i := strings.IndexByte(f.Text, '\n'); i >= 0 {
		return i
	}
	return len(f.Text)
}

// LastLineLength is the length of Text after its last newline, or the full
// length if Text has no newline. This is what the column position becomes
// after appending a multiline token (spec §4.2).
func (f *Format) LastLineLength() int {
	if i := strings.LastIndexByte(f.Text, '\n'); i >= 0 {
		return len(f.Text) - i - 1
	}
	return len(f.Text)
}

// OriginalLeadingSpace reconstructs the whitespace that preceded this token
// in buf, using Before.PreservedSpaceStart. Returns "" if no preserved-space
// pointer was recorded.
func (f *Format) OriginalLeadingSpace(buf string) string {
	if !f.Before.HasPreservedSpace() {
		return ""
	}
	return buf[f.Before.PreservedSpaceStart:f.Start]
}

// ConnectPreservedSpace sets each token's Before.PreservedSpaceStart to the
// end offset of the previous token (0 for the first token), so that the
// whitespace between any two adjacent tokens can be reconstructed from buf
// later (spec §3 "preserved_space_start"; verible's
// ConnectPreFormatTokensPreservedSpaceStarts). It does not cover the space
// between the last token and EOF.
func ConnectPreservedSpace(tokens []*Format) {
	prevEnd := 0
	for _, t := range tokens {
		t.Before.PreservedSpaceStart = prevEnd
		prevEnd = t.End
	}
}

// Range is a half-open byte interval [Start, End) over the backing buffer.
type Range struct{ Start, End int }

// DisabledRanges is a set of half-open byte intervals inside which the
// original spacing must be preserved verbatim (spec §6 "Disabled-range
// set"). It must be constructed sorted by Start via NewDisabledRanges;
// ranges must not overlap.
type DisabledRanges struct {
	ranges []Range
}

// NewDisabledRanges builds a DisabledRanges from an unsorted slice of
// ranges.
func NewDisabledRanges(ranges []Range) DisabledRanges {
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return DisabledRanges{ranges: sorted}
}

// Overlaps reports whether [start, end) intersects any disabled range.
func (d DisabledRanges) Overlaps(start, end int) bool {
	if len(d.ranges) == 0 || start >= end {
		return false
	}
	// First range whose End could exceed start.
	i := sort.Search(len(d.ranges), func(i int) bool { return d.ranges[i].End > start })
	return i < len(d.ranges) && d.ranges[i].Start < end
}

// ApplyDisabledRanges forces Before.Decision to Preserve on every token
// whose leading whitespace (as reconstructed via PreservedSpaceStart)
// intersects a disabled range (spec §6 "Disabled-range set"; verible's
// PreserveSpacesOnDisabledTokenRanges). Tokens must already have
// PreservedSpaceStart set via ConnectPreservedSpace.
func ApplyDisabledRanges(tokens []*Format, disabled DisabledRanges) {
	for _, t := range tokens {
		start := t.Start
		if t.Before.HasPreservedSpace() {
			start = t.Before.PreservedSpaceStart
		}
		if disabled.Overlaps(start, t.End) {
			t.Before.Decision = Preserve
		}
	}
}

// Decision is the bound outcome of formatting one token: what spacing to
// emit before its text (spec §3; verible's InterTokenDecision).
type Decision struct {
	// Spaces is the number of spaces to emit, when Action is ActionAppend
	// or ActionAlign, or after the newline when Action is ActionWrap.
	Spaces int
	// Action is the committed spacing decision.
	Action Action
	// PreservedSpaceStart is the byte offset to start reconstructing
	// verbatim whitespace from, when Action is ActionPreserve.
	PreservedSpaceStart int
}

// NewDecisionFromContract seeds a Decision from a token's Contract, leaving
// Action at its zero value (ActionPreserve) until a search or the alignment
// engine commits one.
func NewDecisionFromContract(c Contract) Decision {
	return Decision{PreservedSpaceStart: c.PreservedSpaceStart}
}

// Excerpt is an ordered, formatted slice of tokens with every Decision
// bound (spec §4.2 "Output"; verible's FormattedExcerpt). It is the unit the
// Wrap Searcher returns per winning path and the unit the Formatter Driver
// emits.
type Excerpt struct {
	Tokens    []*Format
	Decisions []Decision
}

// FormattedText renders e to buf using buf as the backing buffer for any
// ActionPreserve decisions.
func (e Excerpt) FormattedText(buf string) string {
	var sb strings.Builder
	for i, t := range e.Tokens {
		d := e.Decisions[i]
		switch d.Action {
		case ActionPreserve:
			sb.WriteString(buf[d.PreservedSpaceStart:t.Start])
		case ActionAppend, ActionAlign:
			for range d.Spaces {
				sb.WriteByte(' ')
			}
		case ActionWrap:
			sb.WriteByte('\n')
			for range d.Spaces {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}
