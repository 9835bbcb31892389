package parse

import (
	"strconv"
	"strings"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
)

// symbol is the table-driven LR stack's element type: exactly one of a
// shifted token, a reduced AST node, or an in-progress argument list (the
// ARGS non-terminal's value before it is unwrapped into a FunctionCall).
// Only one of the three fields is meaningful, selected by kind.
type symbol struct {
	kind  symbolKind
	state int
	token lex.Token
	node  ast.Node
	args  []ast.Node
}

type symbolKind int

const (
	symToken symbolKind = iota
	symNode
	symArgs
)

// Parse drives t over toks, building the formula's AST (spec.md §4.5).
// toks must end with a DOLLAR token. depthLimit and nodeLimit bound the
// resulting tree; zero means unbounded.
func Parse(t *Table, g grammar.Grammar, toks []lex.Token, depthLimit, nodeLimit int) (ast.Node, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lex.DOLLAR {
		return nil, diag.New(diag.UnexpectedEndOfInput, "token stream must end with $")
	}

	stack := []symbol{{kind: symToken, state: t.Start}}
	pos := 0
	lastIdx := len(toks) - 1

	for {
		state := stack[len(stack)-1].state
		// toks ends in exactly one $ token; once it has been shifted, keep
		// re-reading it rather than indexing past the slice, matching the
		// lexer's own documented behavior of repeating $ forever at EOF.
		tok := toks[min(pos, lastIdx)]

		act, ok := t.Action[state][tok.Kind]
		if !ok || act.Type == Error {
			return nil, diag.NewAt(diag.SyntaxError, "unexpected token "+tok.Kind.String(), tok.Position)
		}

		switch act.Type {
		case Shift:
			stack = append(stack, symbol{kind: symToken, state: act.State, token: tok})
			pos++

		case Reduce:
			var err error
			stack, err = reduce(stack, act.Production, g, t, depthLimit, nodeLimit)
			if err != nil {
				return nil, err
			}

		case Accept:
			// Per spec.md §4.5 step 4: the result is the symbol just below
			// the final $ on the stack, which must be a reduced node.
			if len(stack) < 2 || stack[len(stack)-2].kind != symNode {
				return nil, diag.New(diag.ParserTableError, "accept reached with no parsed node beneath $")
			}
			return stack[len(stack)-2].node, nil

		default:
			return nil, diag.New(diag.ParserTableError, "unknown action type")
		}
	}
}

// reduce pops len(p.RHS) symbols off the stack, applies p's builder to
// produce a new ast.Node (or, for ARGS productions, an args-list symbol),
// looks up the GOTO entry for p.LHS from the state now exposed, and pushes
// the result.
func reduce(stack []symbol, p grammar.Production, g grammar.Grammar, t *Table, depthLimit, nodeLimit int) ([]symbol, error) {
	n := len(p.RHS)
	children := stack[len(stack)-n:]
	rest := stack[:len(stack)-n]

	built, isArgs, err := build(p, children)
	if err != nil {
		return nil, err
	}

	exposedState := rest[len(rest)-1].state
	gotoState, ok := t.Goto[exposedState][p.LHS]
	if !ok {
		return nil, diag.New(diag.ParserTableError, "no GOTO entry for "+p.LHS.String()+" from state "+strconv.Itoa(exposedState))
	}

	var sym symbol
	if isArgs {
		sym = symbol{kind: symArgs, state: gotoState, args: built.(argList)}
	} else {
		node := built.(ast.Node)
		if depthLimit > 0 && ast.Depth(node) > depthLimit {
			return nil, diag.New(diag.LimitExceeded, "formula exceeds maximum nesting depth")
		}
		if nodeLimit > 0 && ast.CountNodes(node) > nodeLimit {
			return nil, diag.New(diag.LimitExceeded, "formula exceeds maximum node count")
		}
		sym = symbol{kind: symNode, state: gotoState, node: node}
	}

	return append(rest, sym), nil
}

// argList is the interim value carried by an ARGS reduction.
type argList []ast.Node

// build applies p's Builder tag to children, returning either an ast.Node
// or (for the two ARGS builders) an argList.
func build(p grammar.Production, children []symbol) (result any, isArgs bool, err error) {
	switch p.Builder {
	case grammar.BuildIdentity:
		return children[0].node, false, nil

	case grammar.BuildParenthesized:
		return children[1].node, false, nil

	case grammar.BuildBinaryOp:
		return ast.BinaryOp{
			Op:       children[1].token.Kind,
			Left:     children[0].node,
			Right:    children[2].node,
			Position: children[0].node.Pos(),
		}, false, nil

	case grammar.BuildUnaryOp:
		return ast.UnaryOp{
			Op:       children[0].token.Kind,
			Operand:  children[1].node,
			Position: children[0].token.Position,
		}, false, nil

	case grammar.BuildNumber:
		tok := children[0].token
		v, convErr := strconv.ParseFloat(tok.Text, 64)
		if convErr != nil {
			return nil, false, diag.NewAt(diag.SyntaxError, "invalid number literal "+tok.Text, tok.Position)
		}
		return ast.Number{Value: v, Position: tok.Position}, false, nil

	case grammar.BuildVariable:
		tok := children[0].token
		return ast.Variable{Name: tok.Text, Position: tok.Position}, false, nil

	case grammar.BuildBooleanTrue:
		tok := children[0].token
		return ast.Boolean{Value: true, Position: tok.Position}, false, nil

	case grammar.BuildBooleanFalse:
		tok := children[0].token
		return ast.Boolean{Value: false, Position: tok.Position}, false, nil

	case grammar.BuildFunctionCall:
		name := children[0].token
		return ast.FunctionCall{
			Name:     strings.ToUpper(name.Text),
			Args:     []ast.Node(children[2].args),
			Position: name.Position,
		}, false, nil

	case grammar.BuildFunctionCallEmpty:
		name := children[0].token
		return ast.FunctionCall{
			Name:     strings.ToUpper(name.Text),
			Args:     nil,
			Position: name.Position,
		}, false, nil

	case grammar.BuildIf:
		kw := children[0].token
		return ast.If{
			Cond:     children[2].node,
			Then:     children[4].node,
			Else:     children[6].node,
			Position: kw.Position,
		}, false, nil

	case grammar.BuildArgsSingle:
		return argList{children[0].node}, true, nil

	case grammar.BuildArgsMultiple:
		combined := make(argList, 0, len(children[0].args)+1)
		combined = append(combined, children[0].args...)
		combined = append(combined, children[2].node)
		return combined, true, nil

	default:
		return nil, false, diag.New(diag.AstBuilderError, "unhandled builder "+p.Builder.String())
	}
}
