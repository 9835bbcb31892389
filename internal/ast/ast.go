// Package ast defines the typed formula AST built by the LR driver
// (internal/parse) and consumed by the evaluator (internal/eval). Node is a
// sealed sum type over the eight node kinds the grammar can produce
// (spec.md §3); every node is immutable once built.
package ast

import (
	"fmt"

	"github.com/dekarrin/formulon/internal/lex"
)

// Default limits on a built tree (spec.md §4.5 and §7). These constants are
// not consulted by the parser: internal/parse enforces the depth and node
// limits passed to it (formulon's MaxAstDepth/MaxAstNodes options, whose
// defaults equal these values) as it reduces productions, rejecting a
// formula whose parse tree would exceed either bound with a LimitExceeded
// diagnostic before it ever reaches the evaluator.
const (
	MaxDepth = 50
	MaxNodes = 1000
)

// Node is any formula AST node. The unexported method seals the interface
// to this package's node kinds.
type Node interface {
	Pos() lex.Position
	astNode()
}

// Number is a numeric literal.
type Number struct {
	Value    float64
	Position lex.Position
}

func (n Number) Pos() lex.Position { return n.Position }
func (Number) astNode() {}
func (n Number) String() string { return fmt.Sprintf("%g", n.Value) }

// Boolean is a true/false literal.
type Boolean struct {
	Value    bool
	Position lex.Position
}

func (n Boolean) Pos() lex.Position { return n.Position }
func (Boolean) astNode() {}
func (n Boolean) String() string { return fmt.Sprintf("%t", n.Value) }

// Variable is a named or braced variable reference, e.g. "{my var}" or a
// bare identifier used as a binding lookup (not a function call).
type Variable struct {
	Name     string
	Position lex.Position
}

func (n Variable) Pos() lex.Position { return n.Position }
func (Variable) astNode() {}
func (n Variable) String() string { return n.Name }

// BinaryOp is a two-operand operator application, e.g. Left + Right.
type BinaryOp struct {
	Op       lex.Kind
	Left     Node
	Right    Node
	Position lex.Position
}

func (n BinaryOp) Pos() lex.Position { return n.Position }
func (BinaryOp) astNode() {}
func (n BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }

// UnaryOp is a single-operand prefix operator application: +x, -x, or !x.
type UnaryOp struct {
	Op       lex.Kind
	Operand  Node
	Position lex.Position
}

func (n UnaryOp) Pos() lex.Position { return n.Position }
func (UnaryOp) astNode() {}
func (n UnaryOp) String() string { return fmt.Sprintf("(%s%s)", n.Op, n.Operand) }

// FunctionCall invokes a named built-in function with zero or more argument
// expressions.
type FunctionCall struct {
	Name     string
	Args     []Node
	Position lex.Position
}

func (n FunctionCall) Pos() lex.Position { return n.Position }
func (FunctionCall) astNode() {}
func (n FunctionCall) String() string { return fmt.Sprintf("%s(...)", n.Name) }

// If is a three-branch conditional expression: if(Cond, Then, Else).
type If struct {
	Cond     Node
	Then     Node
	Else     Node
	Position lex.Position
}

func (n If) Pos() lex.Position { return n.Position }
func (If) astNode() {}
func (n If) String() string { return "if(...)" }

// Arguments is an argument-list node. The driver (internal/parse) does not
// build it: ARGS reductions carry their own argument list, which is attached
// to a FunctionCall as a []Node, so Arguments never appears in a finished
// tree handed to the evaluator.
type Arguments struct {
	Items    []Node
	Position lex.Position
}

func (n Arguments) Pos() lex.Position { return n.Position }
func (Arguments) astNode() {}
func (n Arguments) String() string { return fmt.Sprintf("args(%d)", len(n.Items)) }

// CountNodes returns the total number of nodes in the tree rooted at n,
// counting n itself.
func CountNodes(n Node) int {
	if n == nil {
		return 0
	}
	switch v := n.(type) {
	case BinaryOp:
		return 1 + CountNodes(v.Left) + CountNodes(v.Right)
	case UnaryOp:
		return 1 + CountNodes(v.Operand)
	case FunctionCall:
		count := 1
		for _, a := range v.Args {
			count += CountNodes(a)
		}
		return count
	case If:
		return 1 + CountNodes(v.Cond) + CountNodes(v.Then) + CountNodes(v.Else)
	case Arguments:
		count := 1
		for _, a := range v.Items {
			count += CountNodes(a)
		}
		return count
	default:
		return 1
	}
}

// Depth returns the height of the tree rooted at n: a leaf has depth 1.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	switch v := n.(type) {
	case BinaryOp:
		return 1 + max(Depth(v.Left), Depth(v.Right))
	case UnaryOp:
		return 1 + Depth(v.Operand)
	case FunctionCall:
		return 1 + maxDepthOf(v.Args)
	case If:
		return 1 + max(Depth(v.Cond), max(Depth(v.Then), Depth(v.Else)))
	case Arguments:
		return 1 + maxDepthOf(v.Items)
	default:
		return 1
	}
}

func maxDepthOf(nodes []Node) int {
	m := 0
	for _, n := range nodes {
		if d := Depth(n); d > m {
			m = d
		}
	}
	return m
}
