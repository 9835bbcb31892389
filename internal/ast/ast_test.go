package ast

import (
	"testing"

	"github.com/dekarrin/formulon/internal/lex"
	"github.com/stretchr/testify/assert"
)

func Test_CountNodes_leaf(t *testing.T) {
	assert := assert.New(t)
	n := Number{Value: 1}
	assert.Equal(1, CountNodes(n))
}

func Test_CountNodes_binaryTree(t *testing.T) {
	assert := assert.New(t)
	tree := BinaryOp{
		Op:   lex.PLUS,
		Left: Number{Value: 1},
		Right: BinaryOp{
			Op:    lex.MULTIPLY,
			Left:  Number{Value: 2},
			Right: Number{Value: 3},
		},
	}
	assert.Equal(5, CountNodes(tree))
}

func Test_CountNodes_functionCallCountsArgs(t *testing.T) {
	assert := assert.New(t)
	call := FunctionCall{
		Name: "SUM",
		Args: []Node{Number{Value: 1}, Number{Value: 2}, Number{Value: 3}},
	}
	assert.Equal(4, CountNodes(call))
}

func Test_Depth_leafIsOne(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1, Depth(Number{Value: 1}))
}

func Test_Depth_unbalancedTree(t *testing.T) {
	assert := assert.New(t)
	deep := UnaryOp{Op: lex.MINUS, Operand: UnaryOp{Op: lex.MINUS, Operand: Number{Value: 1}}}
	tree := BinaryOp{Op: lex.PLUS, Left: Number{Value: 1}, Right: deep}
	assert.Equal(4, Depth(tree))
}

func Test_Depth_ifTakesDeepestBranch(t *testing.T) {
	assert := assert.New(t)
	cond := If{
		Cond: Boolean{Value: true},
		Then: Number{Value: 1},
		Else: BinaryOp{Op: lex.PLUS, Left: Number{Value: 1}, Right: Number{Value: 2}},
	}
	assert.Equal(3, Depth(cond))
}

func Test_CountNodes_nilIsZero(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, CountNodes(nil))
	assert.Equal(0, Depth(nil))
}
