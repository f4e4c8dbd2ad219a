package demolang

import (
	"fmt"

	"github.com/teleivo/linewrap/partition"
	"github.com/teleivo/linewrap/token"
	"github.com/teleivo/linewrap/uwline"
)

// Error is a parse error in demolang source. Pos is the byte offset of the
// offending lexeme. Unlike a resilient parser, Build stops at the first
// error: demolang has no error-recovery grammar to resume from.
type Error struct {
	Pos int
	Msg string
}

func (e Error) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Pos, e.Msg)
}

type stmtKind int

const (
	kindAssign stmtKind = iota
	kindCall
	kindComment
)

type stmt struct {
	kind       stmtKind
	node       partition.Node
	blankAfter bool
}

// Build lexes and parses src into a Partition Tree ready for
// [github.com/teleivo/linewrap/driver.Format], plus the flat Format Token
// slice the tree's ranges index into.
//
// A program is top-level only (no blocks, no nesting): assignments, calls,
// and line comments, one per source line. Runs of two or more consecutive
// plain (non-list) assignments are grouped under a single TabularAlignment
// partition so the Alignment Engine lines up their "=" signs. Any other
// plain assignment and any call without arguments is FitOnLineElseExpand,
// a call with arguments is AppendFittingSubPartitions (for the Fitting
// Reshaper), a list-literal assignment is Juxtaposition with a Wrap list,
// and a comment is AlreadyFormatted.
func Build(src string) (*partition.Tree, []*token.Format, error) {
	lexemes := Lex(src)

	var all []*token.Format
	var stmts []stmt
	i := 0
	for i < len(lexemes) {
		s, next, err := parseStmt(lexemes, i, &all)
		if err != nil {
			return nil, nil, err
		}
		stmts = append(stmts, s)
		i = next
	}

	root := buildRoot(stmts, len(all))
	tree := partition.New(root)
	tree.VerifyFull()
	token.ConnectPreservedSpace(all)
	return tree, all, nil
}

func parseStmt(lexemes []Lexeme, i int, all *[]*token.Format) (stmt, int, error) {
	lx := lexemes[i]
	switch lx.Kind {
	case Comment:
		tok := token.New(lx.Text, lx.Start, 0)
		begin := len(*all)
		*all = append(*all, tok)
		node := partition.Node{Line: uwline.Line{Begin: begin, End: len(*all), Policy: uwline.AlreadyFormatted}}
		return stmt{kind: kindComment, node: node, blankAfter: lx.BlankLineAfter}, i + 1, nil
	case Ident:
		if i+1 >= len(lexemes) {
			return stmt{}, 0, Error{Pos: lx.Start, Msg: fmt.Sprintf("unexpected end of input after identifier %q", lx.Text)}
		}
		switch lexemes[i+1].Kind {
		case Equals:
			return parseAssign(lexemes, i, all)
		case LParen:
			return parseCall(lexemes, i, all)
		default:
			return stmt{}, 0, Error{Pos: lexemes[i+1].Start, Msg: fmt.Sprintf("expected '=' or '(' after identifier %q", lx.Text)}
		}
	default:
		return stmt{}, 0, Error{Pos: lx.Start, Msg: fmt.Sprintf("unexpected token %q", lx.Text)}
	}
}

func parseAssign(lexemes []Lexeme, i int, all *[]*token.Format) (stmt, int, error) {
	nameLex := lexemes[i]
	eqLex := lexemes[i+1]
	if i+2 >= len(lexemes) || !(lexemes[i+2].Kind.IsValue() || lexemes[i+2].Kind == LBracket) {
		return stmt{}, 0, Error{Pos: eqLex.Start, Msg: "expected a value after '='"}
	}
	valLex := lexemes[i+2]

	name := token.New(nameLex.Text, nameLex.Start, 0)
	eq := token.New("=", eqLex.Start, 0)
	eq.Before.SpacesRequired = 1

	begin := len(*all)
	*all = append(*all, name, eq)
	headerEnd := len(*all)

	if valLex.Kind == LBracket {
		listNode, next, err := parseList(lexemes, i+2, all, 1)
		if err != nil {
			return stmt{}, 0, err
		}

		header := partition.Node{Line: uwline.Line{Begin: begin, End: headerEnd}}
		node := partition.Node{
			Line:     uwline.Line{Begin: begin, End: listNode.Line.End, Policy: uwline.Juxtaposition},
			Children: []partition.Node{header, listNode},
		}
		return stmt{kind: kindAssign, node: node, blankAfter: lexemes[next-1].BlankLineAfter}, next, nil
	}

	val := token.New(valLex.Text, valLex.Start, 0)
	val.Before.SpacesRequired = 1
	*all = append(*all, val)
	end := len(*all)

	node := partition.Node{
		Line: uwline.Line{
			Begin:  begin,
			End:    end,
			Policy: uwline.FitOnLineElseExpand,
			Origin: []*token.Format{name, eq, val},
		},
	}
	return stmt{kind: kindAssign, node: node, blankAfter: valLex.BlankLineAfter}, i + 3, nil
}

// parseList parses a bracketed, comma-separated list literal starting at
// lexemes[i] (lexemes[i].Kind == LBracket). Each element absorbs its own
// trailing comma into its range, the same convention parseCall uses for
// call arguments. The opening '[' folds onto the first element's range and
// the closing ']' onto the last, so a non-empty list needs no separate
// header node; an empty list has no element to host them and is returned
// as a single flat, childless Line. spaceBefore sets '['s leading space.
func parseList(lexemes []Lexeme, i int, all *[]*token.Format, spaceBefore int) (partition.Node, int, error) {
	lbracketLex := lexemes[i]
	begin := len(*all)
	i++

	var elems []partition.Node
	for i < len(lexemes) && lexemes[i].Kind != RBracket {
		if !lexemes[i].Kind.IsValue() {
			return partition.Node{}, 0, Error{Pos: lexemes[i].Start, Msg: fmt.Sprintf("expected a list element or ']', got %q", lexemes[i].Text)}
		}
		elemLex := lexemes[i]
		elemStart := len(*all)
		if len(elems) == 0 {
			lbracket := token.New("[", lbracketLex.Start, 0)
			lbracket.Balance = token.OpenGroup
			lbracket.Before.SpacesRequired = spaceBefore
			*all = append(*all, lbracket)
		}
		elemTok := token.New(elemLex.Text, elemLex.Start, 0)
		if len(elems) > 0 {
			elemTok.Before.SpacesRequired = 1
		}
		*all = append(*all, elemTok)
		i++

		if i < len(lexemes) && lexemes[i].Kind == Comma {
			comma := token.New(",", lexemes[i].Start, 0)
			*all = append(*all, comma)
			i++
		} else if i < len(lexemes) && lexemes[i].Kind != RBracket {
			return partition.Node{}, 0, Error{Pos: lexemes[i].Start, Msg: "expected ',' or ']' after list element"}
		}

		elems = append(elems, partition.Node{Line: uwline.Line{Begin: elemStart, End: len(*all)}})
	}
	if i >= len(lexemes) {
		return partition.Node{}, 0, Error{Pos: lbracketLex.Start, Msg: "unclosed '[' for list literal"}
	}

	if len(elems) == 0 {
		lbracket := token.New("[", lbracketLex.Start, 0)
		lbracket.Before.SpacesRequired = spaceBefore
		*all = append(*all, lbracket)
	}
	rbracketLex := lexemes[i]
	rbracket := token.New("]", rbracketLex.Start, 0)
	rbracket.Balance = token.CloseGroup
	*all = append(*all, rbracket)
	i++

	if len(elems) == 0 {
		return partition.Node{Line: uwline.Line{Begin: begin, End: len(*all)}}, i, nil
	}

	elems[len(elems)-1].Line.End = len(*all)
	node := partition.Node{
		Line:     uwline.Line{Begin: begin, End: len(*all), Policy: uwline.Wrap},
		Children: elems,
	}
	return node, i, nil
}

func parseCall(lexemes []Lexeme, i int, all *[]*token.Format) (stmt, int, error) {
	nameLex := lexemes[i]
	lparenLex := lexemes[i+1]

	name := token.New(nameLex.Text, nameLex.Start, 0)
	lparen := token.New("(", lparenLex.Start, 0)
	lparen.Balance = token.OpenGroup

	begin := len(*all)
	*all = append(*all, name, lparen)
	headerEnd := len(*all)

	i += 2
	var args []partition.Node
	for i < len(lexemes) && lexemes[i].Kind != RParen {
		if !lexemes[i].Kind.IsValue() {
			return stmt{}, 0, Error{Pos: lexemes[i].Start, Msg: fmt.Sprintf("expected an argument or ')', got %q", lexemes[i].Text)}
		}
		argLex := lexemes[i]
		argStart := len(*all)
		argTok := token.New(argLex.Text, argLex.Start, 0)
		if len(args) > 0 {
			argTok.Before.SpacesRequired = 1
		}
		*all = append(*all, argTok)
		i++

		if i < len(lexemes) && lexemes[i].Kind == Comma {
			comma := token.New(",", lexemes[i].Start, 0)
			*all = append(*all, comma)
			i++
		} else if i < len(lexemes) && lexemes[i].Kind != RParen {
			return stmt{}, 0, Error{Pos: lexemes[i].Start, Msg: "expected ',' or ')' after argument"}
		}

		args = append(args, partition.Node{Line: uwline.Line{Begin: argStart, End: len(*all)}})
	}
	if i >= len(lexemes) {
		return stmt{}, 0, Error{Pos: lparenLex.Start, Msg: fmt.Sprintf("unclosed '(' for %q", nameLex.Text)}
	}

	rparenLex := lexemes[i]
	rparen := token.New(")", rparenLex.Start, 0)
	rparen.Balance = token.CloseGroup
	*all = append(*all, rparen)
	i++

	if len(args) == 0 {
		node := partition.Node{Line: uwline.Line{Begin: begin, End: len(*all), Policy: uwline.FitOnLineElseExpand}}
		return stmt{kind: kindCall, node: node, blankAfter: rparenLex.BlankLineAfter}, i, nil
	}

	args[len(args)-1].Line.End = len(*all)
	header := partition.Node{Line: uwline.Line{Begin: begin, End: headerEnd}}
	argList := partition.Node{Line: uwline.Line{Begin: headerEnd, End: len(*all)}, Children: args}
	node := partition.Node{
		Line:     uwline.Line{Begin: begin, End: len(*all), Policy: uwline.AppendFittingSubPartitions},
		Children: []partition.Node{header, argList},
	}
	return stmt{kind: kindCall, node: node, blankAfter: rparenLex.BlankLineAfter}, i, nil
}

func buildRoot(stmts []stmt, totalTokens int) partition.Node {
	var children []partition.Node
	i := 0
	for i < len(stmts) {
		if isTabularAssign(stmts[i]) {
			j := i
			for j < len(stmts) && isTabularAssign(stmts[j]) {
				j++
			}
			run := stmts[i:j]
			if len(run) >= 2 {
				rowNodes := make([]partition.Node, len(run))
				for k, s := range run {
					rowNodes[k] = s.node
				}
				children = append(children, partition.Node{
					Line: uwline.Line{
						Begin:  run[0].node.Line.Begin,
						End:    run[len(run)-1].node.Line.End,
						Policy: uwline.TabularAlignment,
					},
					Children: rowNodes,
				})
			} else {
				children = append(children, run[0].node)
			}
			if run[len(run)-1].blankAfter && j < len(stmts) {
				children = append(children, blankMarker(run[len(run)-1].node.Line.End))
			}
			i = j
			continue
		}

		children = append(children, stmts[i].node)
		if stmts[i].blankAfter && i+1 < len(stmts) {
			children = append(children, blankMarker(stmts[i].node.Line.End))
		}
		i++
	}

	begin, end := 0, totalTokens
	if len(children) > 0 {
		begin = children[0].Line.Begin
		end = children[len(children)-1].Line.End
	}
	return partition.Node{
		Line:     uwline.Line{Begin: begin, End: end, Policy: uwline.AlwaysExpand},
		Children: children,
	}
}

// isTabularAssign reports whether s is a plain "name = value" assignment
// eligible for TabularAlignment grouping. A list-valued assignment carries
// its own Juxtaposition policy and Children, which [align.Rows] would
// never recurse into, so it must stay out of a tabular run and be emitted
// as its own standalone partition instead.
func isTabularAssign(s stmt) bool {
	return s.kind == kindAssign && s.node.Line.Policy == uwline.FitOnLineElseExpand
}

func blankMarker(at int) partition.Node {
	return partition.Node{Line: uwline.Line{Begin: at, End: at}}
}
