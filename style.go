// Package linewrap is the core of a source-code formatter: given a stream of
// format tokens partitioned into a hierarchy of candidate lines, it decides
// where to break lines, how much to indent continuation lines, and how to
// align repeated constructs into columns, minimizing a numeric penalty so the
// emitted layout stays within a column limit while respecting the ordering
// and breakability constraints annotated on each inter-token position.
//
// The four subsystems are the token-partition tree (package partition), the
// line-wrap search (package search), the layout-function algebra (package
// layoutfn, consumed by package driver), and the tabular alignment engine
// (package align). Package driver ties them together behind [driver.Format].
//
// linewrap does not tokenize or parse source. The token stream, the
// annotation of each token's leading-space contract, and the initial
// Partition Tree are the caller's responsibility (spec §6, "External
// interfaces"); see package token and package uwline for the shapes those
// collaborators must produce.
package linewrap

import "fmt"

// Style is the immutable configuration threaded through every stage of the
// core. There is no package-level configuration state anywhere in linewrap;
// every entry point takes a Style explicitly.
type Style struct {
	// IndentationSpaces is the number of spaces per indentation level.
	IndentationSpaces int
	// WrapSpaces is the number of extra spaces added for continuation wraps,
	// on top of the enclosing indentation.
	WrapSpaces int
	// ColumnLimit is the target maximum column width.
	ColumnLimit int
	// OverColumnLimitPenalty is the additive penalty for a line ending past
	// ColumnLimit.
	OverColumnLimitPenalty int
	// LineBreakPenalty is the penalty added per inserted line break.
	LineBreakPenalty int
}

// Validate reports whether s has sane, non-negative parameters. Every
// subsystem assumes a validated Style; callers should call this once before
// formatting, not on every call.
func (s Style) Validate() error {
	if s.IndentationSpaces < 0 {
		return fmt.Errorf("linewrap: IndentationSpaces must be non-negative, got %d", s.IndentationSpaces)
	}
	if s.WrapSpaces < 0 {
		return fmt.Errorf("linewrap: WrapSpaces must be non-negative, got %d", s.WrapSpaces)
	}
	if s.ColumnLimit <= 0 {
		return fmt.Errorf("linewrap: ColumnLimit must be positive, got %d", s.ColumnLimit)
	}
	if s.OverColumnLimitPenalty < 0 {
		return fmt.Errorf("linewrap: OverColumnLimitPenalty must be non-negative, got %d", s.OverColumnLimitPenalty)
	}
	if s.LineBreakPenalty < 0 {
		return fmt.Errorf("linewrap: LineBreakPenalty must be non-negative, got %d", s.LineBreakPenalty)
	}
	return nil
}
