// Package driver implements the Formatter Driver (spec §4.6): it walks a
// Partition Tree post-order, decides at each internal node whether to
// keep it as one candidate line or expand into its children, hands every
// resulting leaf line to the Wrap Searcher (or the Fitting Reshaper /
// Alignment Engine, for the policies that call for those instead), and
// emits the final formatted text.
package driver

import (
	"strings"

	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/align"
	"github.com/teleivo/linewrap/internal/assert"
	"github.com/teleivo/linewrap/layoutfn"
	"github.com/teleivo/linewrap/partition"
	"github.com/teleivo/linewrap/reshape"
	"github.com/teleivo/linewrap/search"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// AlignConfig supplies the domain-specific pieces the Alignment Engine
// needs and that the driver cannot know on its own (spec §4.5): how to
// read a row's column schema from its Origin, which base policy to use
// before InferUserIntent resolution, and how to split a run of sibling
// rows into blank-line/subtype groups.
type AlignConfig struct {
	Schema  align.Schema
	Policy  align.Policy
	Subtype func(uwline.Line) string
	Ignore  func(uwline.Line) bool
}

// Diagnose, when passed to [Format], is called once per searched line with
// its name and [search.Diagnose] report, surfacing every tied winner (spec
// §4.2 "tie reporting") for tests or a CLI's -verbose output.
type Diagnose func(name, report string)

// Format runs the full pipeline over tree and returns the emitted text.
// It returns a non-nil error only as *linewrap.IncompleteError (still
// usable output, spec §7 "Search aborted") or if style is invalid.
// diagnose may be nil.
func Format(tree *partition.Tree, tokens []*token.Format, buf string, style linewrap.Style, maxStates search.MaxStates, disabled token.DisabledRanges, alignCfg AlignConfig, diagnose Diagnose) (string, error) {
	if err := style.Validate(); err != nil {
		return "", err
	}

	token.ApplyDisabledRanges(tokens, disabled)

	d := &driver{
		tree:      tree,
		tokens:    tokens,
		buf:       buf,
		style:     style,
		maxStates: maxStates,
		disabled:  disabled,
		align:     alignCfg,
		diagnose:  diagnose,
	}
	excerpts, _ := d.process(nil)
	excerpts = dropTrailingBlank(excerpts)

	trailing := ""
	if n := len(tokens); n > 0 {
		trailing = buf[tokens[n-1].End:]
	}

	out := Emit(excerpts, buf) + trailing

	var err error
	if len(d.incomplete) > 0 {
		err = &linewrap.IncompleteError{Partitions: d.incomplete}
	}
	return out, err
}

type driver struct {
	tree      *partition.Tree
	tokens    []*token.Format
	buf       string
	style     linewrap.Style
	maxStates search.MaxStates
	disabled  token.DisabledRanges
	align     AlignConfig
	diagnose  Diagnose

	incomplete []string
}

// process implements spec §4.6's bottom-up expand rule and returns the
// flat, left-to-right list of rendered excerpts for the subtree at path,
// plus whether that subtree counted as expanded (so the parent can apply
// "if any child is expanded, this node is expanded").
func (d *driver) process(path partition.Path) ([]token.Excerpt, bool) {
	node := d.tree.At(path)

	// The policies below are decided by the node's own policy alone, and
	// take effect whether or not the node happens to be a leaf (an
	// AlreadyFormatted line, for instance, is very often a childless leaf).
	switch node.Line.Policy {
	case uwline.AppendFittingSubPartitions:
		reshape.Reshape(d.tree, path, d.tokens, d.buf, d.style)
		// The reshaper already decided the minimal grouping; each group
		// re-classifies itself as FitOnLineElseExpand at its own level, so
		// this node always recurses into its (new) children.
		return d.expandChildren(path), true
	case uwline.TabularAlignment:
		return d.alignGroup(path), true
	case uwline.AlreadyFormatted:
		return []token.Excerpt{commitAsIs(node.Line, d.tokens)}, false
	case uwline.Juxtaposition, uwline.Stack, uwline.Wrap, uwline.JuxtapositionOrIndentedStack:
		return d.layoutGroup(path), true
	}

	if node.IsLeaf() {
		return d.searchLine(node.Line, path.String()), false
	}

	var children []token.Excerpt
	anyChildExpanded := false
	for i := range node.Children {
		ce, expanded := d.process(path.Child(i))
		children = append(children, ce...)
		if expanded {
			anyChildExpanded = true
		}
	}

	expand := anyChildExpanded
	if !expand && node.Line.Policy == uwline.AlwaysExpand {
		expand = true
	} else if !expand {
		fits, _ := search.FitsOnLine(d.buf, node.Line, d.tokens, d.style)
		expand = !fits
	}

	if expand {
		return children, true
	}
	return d.searchLine(node.Line, path.String()), false
}

func (d *driver) expandChildren(path partition.Path) []token.Excerpt {
	node := d.tree.At(path)
	var out []token.Excerpt
	for i := range node.Children {
		ce, _ := d.process(path.Child(i))
		out = append(out, ce...)
	}
	return out
}

func (d *driver) searchLine(line uwline.Line, name string) []token.Excerpt {
	if line.Empty() {
		return []token.Excerpt{{}}
	}
	out := search.Search(d.buf, line.Tokens(d.tokens), line.Indentation, d.style, d.maxStates)
	if out.Incomplete {
		d.incomplete = append(d.incomplete, name)
	}
	if d.diagnose != nil {
		d.diagnose(name, search.Diagnose(out, d.buf))
	}
	return []token.Excerpt{out.Results[0].Excerpt}
}

func (d *driver) alignGroup(path partition.Path) []token.Excerpt {
	node := d.tree.At(path)
	rows := make([]uwline.Line, len(node.Children))
	for i, c := range node.Children {
		rows[i] = c.Line
	}

	var out []token.Excerpt
	for _, group := range align.Groups(rows, d.tokens, d.buf, d.align.Subtype) {
		if len(group) < 2 {
			for _, row := range group {
				out = append(out, d.searchLine(row, path.String())...)
			}
			continue
		}
		out = append(out, align.Rows(d.buf, d.tokens, group, d.align.Schema, d.align.Policy, d.style, d.disabled, d.align.Ignore)...)
	}
	return out
}

// layoutGroup renders a node policed by one of the four layout-algebra
// hints by building a Layout Function over its children, picking the
// Layout chosen at the node's own starting column, and rendering that
// Layout to excerpts (spec §4.3, §4.6).
func (d *driver) layoutGroup(path partition.Path) []token.Excerpt {
	node := d.tree.At(path)
	fn := d.hintFunction(path)
	chosen := fn.SegmentAt(node.Line.Indentation).Layout
	return d.renderLayout(chosen, node.Line.Indentation)
}

// functionFor returns the Layout Function for the subtree at path: a Line
// function for a leaf or a non-hint subtree (rendered flat, its interior
// decisions left to the Wrap Searcher once a Layout is chosen), or the
// combined function for a nested layout-algebra hint.
func (d *driver) functionFor(path partition.Path) layoutfn.Function {
	node := d.tree.At(path)
	if node.Line.Policy.IsLayoutAlgebraHint() {
		return d.hintFunction(path)
	}
	return layoutfn.Line(node.Line, d.tokens, d.style)
}

// hintFunction builds the combined Layout Function for a node already known
// to carry one of the four hint policies, combining one Function per child.
func (d *driver) hintFunction(path partition.Path) layoutfn.Function {
	node := d.tree.At(path)
	fns := make([]layoutfn.Function, len(node.Children))
	for i := range node.Children {
		fns[i] = d.functionFor(path.Child(i))
	}

	switch node.Line.Policy {
	case uwline.Juxtaposition:
		return layoutfn.Juxtaposition(fns...)
	case uwline.Stack:
		return layoutfn.Stack(d.style, fns...)
	case uwline.Wrap:
		return layoutfn.Wrap(d.style, fns...)
	case uwline.JuxtapositionOrIndentedStack:
		indented := layoutfn.Indent(layoutfn.Stack(d.style, fns...), d.style.WrapSpaces)
		return layoutfn.Choice(layoutfn.Juxtaposition(fns...), indented)
	default:
		assert.Never("driver: hintFunction called with non-hint policy %v", node.Line.Policy)
		return layoutfn.Function{}
	}
}

// renderLayout turns a chosen Layout into excerpts. A Stack child starts a
// fresh physical line per spec §4.3 "Stack"; a Juxtaposition's children
// share one physical line and so must collapse into a single excerpt,
// since [Emit] always places a newline between excerpts.
func (d *driver) renderLayout(l layoutfn.Layout, indent int) []token.Excerpt {
	indent += l.Indentation
	switch l.Kind {
	case layoutfn.KindLine:
		line := l.Line
		line.Indentation = indent
		return d.searchLine(line, "layout")
	case layoutfn.KindStack:
		var out []token.Excerpt
		for _, c := range l.Children {
			out = append(out, d.renderLayout(c, indent)...)
		}
		return out
	case layoutfn.KindJuxtaposition:
		return []token.Excerpt{d.renderJuxtaposition(l, indent)}
	default:
		assert.Never("driver: unrecognized layout kind %v", l.Kind)
		return nil
	}
}

// renderJuxtaposition flattens a (possibly nested) Juxtaposition into its
// leaf Lines, searches each independently, and stitches the results onto
// one physical line with appendOnSameLine.
func (d *driver) renderJuxtaposition(l layoutfn.Layout, indent int) token.Excerpt {
	lines := collectJuxtaposedLines(l)
	assert.That(len(lines) > 0, "driver: juxtaposition with no leaf lines")

	first := lines[0]
	first.Indentation = indent
	merged := d.searchLine(first, "layout")[0]
	for _, line := range lines[1:] {
		ex := d.searchLine(line, "layout")[0]
		merged = appendOnSameLine(merged, ex)
	}
	return merged
}

// collectJuxtaposedLines returns, left to right, the leaf Lines a
// Juxtaposition Layout places on one physical line.
func collectJuxtaposedLines(l layoutfn.Layout) []uwline.Line {
	if l.Kind != layoutfn.KindJuxtaposition {
		return []uwline.Line{l.Line}
	}
	var out []uwline.Line
	for _, c := range l.Children {
		out = append(out, collectJuxtaposedLines(c)...)
	}
	return out
}

// appendOnSameLine concatenates b onto a as a continuation of the same
// physical line: b's first decision is recomputed as a same-line Append
// (its own SpacesRequired) unless it was already Preserve.
func appendOnSameLine(a, b token.Excerpt) token.Excerpt {
	assert.That(len(b.Tokens) > 0, "driver: cannot juxtapose an empty excerpt")

	bDecisions := make([]token.Decision, len(b.Decisions))
	copy(bDecisions, b.Decisions)
	if bDecisions[0].Action != token.ActionPreserve {
		bDecisions[0] = token.Decision{Action: token.ActionAppend, Spaces: b.Tokens[0].Before.SpacesRequired}
	}

	tokens := make([]*token.Format, 0, len(a.Tokens)+len(b.Tokens))
	tokens = append(tokens, a.Tokens...)
	tokens = append(tokens, b.Tokens...)
	decisions := make([]token.Decision, 0, len(a.Decisions)+len(bDecisions))
	decisions = append(decisions, a.Decisions...)
	decisions = append(decisions, bDecisions...)

	return token.Excerpt{Tokens: tokens, Decisions: decisions}
}

// commitAsIs renders an AlreadyFormatted line's already-decided spacing
// without consulting the Wrap Searcher (spec §4.6 "AlreadyFormatted ⇒ do
// nothing").
func commitAsIs(line uwline.Line, tokens []*token.Format) token.Excerpt {
	toks := line.Tokens(tokens)
	excerpt := token.Excerpt{Tokens: toks, Decisions: make([]token.Decision, len(toks))}
	for i, t := range toks {
		if t.Before.Decision == token.Preserve {
			excerpt.Decisions[i] = token.Decision{Action: token.ActionPreserve, PreservedSpaceStart: t.Before.PreservedSpaceStart}
			continue
		}
		spaces := t.Before.SpacesRequired
		if i == 0 {
			spaces = line.Indentation
		}
		excerpt.Decisions[i] = token.Decision{Action: token.ActionAppend, Spaces: spaces}
	}
	return excerpt
}

func dropTrailingBlank(excerpts []token.Excerpt) []token.Excerpt {
	end := len(excerpts)
	for end > 0 && len(excerpts[end-1].Tokens) == 0 {
		end--
	}
	return excerpts[:end]
}

// Emit renders excerpts to text (spec §4.6 "Emit"): each excerpt's own
// first token carries its line-start spacing (indentation, or the
// verbatim preserved gap when its decision is ActionPreserve), so Emit
// itself only supplies the separating newline between excerpts, and only
// when that newline is not already part of a preserved gap.
func Emit(excerpts []token.Excerpt, buf string) string {
	var sb strings.Builder
	for i, ex := range excerpts {
		if len(ex.Tokens) == 0 {
			if i > 0 {
				sb.WriteByte('\n')
			}
			continue
		}
		if i > 0 && ex.Decisions[0].Action != token.ActionPreserve {
			sb.WriteByte('\n')
		}
		sb.WriteString(ex.FormattedText(buf))
	}
	return sb.String()
}
