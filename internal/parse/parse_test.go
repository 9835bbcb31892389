package parse

import (
	"testing"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/dekarrin/formulon/internal/automaton"
	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTable is shared test scaffolding: build the one grammar's table,
// mirroring formulon.getEngine's own build sequence.
func buildTable(t *testing.T) (*Table, grammar.Grammar) {
	t.Helper()
	g := grammar.New()
	ff := grammar.Compute(g)
	aut, err := automaton.Build(g, ff)
	require.NoError(t, err)
	tbl, err := Build(g, aut)
	require.NoError(t, err)
	return tbl, g
}

func parseFormula(t *testing.T, tbl *Table, g grammar.Grammar, formula string) (ast.Node, error) {
	t.Helper()
	lx := lex.New(formula, lex.Context{})
	toks, err := lx.Tokens()
	require.NoError(t, err)
	return Parse(tbl, g, toks, 0, 0)
}

func Test_Parse_precedenceOverMultiplyAndAdd(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	node, err := parseFormula(t, tbl, g, "1 + 2 * 3")
	if !assert.NoError(err) {
		return
	}

	bin, ok := node.(ast.BinaryOp)
	if !assert.True(ok, "expected top-level node to be a BinaryOp") {
		return
	}
	assert.Equal(lex.PLUS, bin.Op, "addition must bind looser than multiplication")
	_, rightIsMul := bin.Right.(ast.BinaryOp)
	assert.True(rightIsMul)
}

func Test_Parse_powerIsRightAssociative(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	// 2 ^ 3 ^ 2 must parse as 2 ^ (3 ^ 2), not (2 ^ 3) ^ 2.
	node, err := parseFormula(t, tbl, g, "2 ^ 3 ^ 2")
	if !assert.NoError(err) {
		return
	}

	bin, ok := node.(ast.BinaryOp)
	if !assert.True(ok) {
		return
	}
	assert.Equal(lex.POWER, bin.Op)
	_, leftIsNumber := bin.Left.(ast.Number)
	assert.True(leftIsNumber, "left operand of the outer ^ should be the literal 2")
	_, rightIsPower := bin.Right.(ast.BinaryOp)
	assert.True(rightIsPower, "right operand should itself be a ^ application")
}

func Test_Parse_parenthesesOverridePrecedence(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	node, err := parseFormula(t, tbl, g, "(1 + 2) * 3")
	if !assert.NoError(err) {
		return
	}
	bin, ok := node.(ast.BinaryOp)
	if !assert.True(ok) {
		return
	}
	assert.Equal(lex.MULTIPLY, bin.Op)
	_, leftIsAdd := bin.Left.(ast.BinaryOp)
	assert.True(leftIsAdd)
}

func Test_Parse_functionCallWithArgs(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	node, err := parseFormula(t, tbl, g, "SUM(1, 2, 3)")
	if !assert.NoError(err) {
		return
	}
	call, ok := node.(ast.FunctionCall)
	if !assert.True(ok) {
		return
	}
	assert.Equal("SUM", call.Name)
	assert.Len(call.Args, 3)
}

func Test_Parse_functionCallEmptyArgs(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	node, err := parseFormula(t, tbl, g, "NOW()")
	if !assert.NoError(err) {
		return
	}
	call, ok := node.(ast.FunctionCall)
	if !assert.True(ok) {
		return
	}
	assert.Equal("NOW", call.Name)
	assert.Empty(call.Args)
}

func Test_Parse_ifExpression(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	node, err := parseFormula(t, tbl, g, "if(x > 0, 1, -1)")
	if !assert.NoError(err) {
		return
	}
	ifNode, ok := node.(ast.If)
	assert.True(ok)
	_, condIsComparison := ifNode.Cond.(ast.BinaryOp)
	assert.True(condIsComparison)
}

func Test_Parse_variableReference(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	node, err := parseFormula(t, tbl, g, "{my var} + 1")
	if !assert.NoError(err) {
		return
	}
	bin, ok := node.(ast.BinaryOp)
	if !assert.True(ok) {
		return
	}
	v, ok := bin.Left.(ast.Variable)
	if assert.True(ok) {
		assert.Equal("my var", v.Name)
	}
}

func Test_Parse_syntaxErrorOnUnexpectedToken(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	_, err := parseFormula(t, tbl, g, "1 + + ")
	assert.Error(err)
}

func Test_Parse_depthLimitRejectsDeepNesting(t *testing.T) {
	assert := assert.New(t)
	tbl, g := buildTable(t)

	formula := "1"
	for i := 0; i < 10; i++ {
		formula = "(" + formula + " + 1)"
	}

	lx := lex.New(formula, lex.Context{})
	toks, err := lx.Tokens()
	require.NoError(t, err)

	_, err = Parse(tbl, g, toks, 5, 0)
	assert.Error(err)
}

func Test_Build_deterministic(t *testing.T) {
	assert := assert.New(t)
	tbl1, _ := buildTable(t)
	tbl2, _ := buildTable(t)

	assert.Equal(len(tbl1.Action), len(tbl2.Action), "building the table twice from the same grammar must produce the same state count")
}
