package eval

import (
	"testing"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/dekarrin/formulon/internal/lex"
	"github.com/stretchr/testify/assert"
)

func Test_Evaluate_arithmetic(t *testing.T) {
	assert := assert.New(t)

	// (2 + 3) * 4
	tree := ast.BinaryOp{
		Op: lex.MULTIPLY,
		Left: ast.BinaryOp{
			Op:    lex.PLUS,
			Left:  ast.Number{Value: 2},
			Right: ast.Number{Value: 3},
		},
		Right: ast.Number{Value: 4},
	}

	v, warnings, err := Evaluate(tree, Bindings{}, true)
	if !assert.NoError(err) {
		return
	}
	assert.Empty(warnings)
	assert.Equal(KindNumber, v.Kind)
	assert.Equal(20.0, v.Num)
}

func Test_Evaluate_divisionByZero(t *testing.T) {
	assert := assert.New(t)

	tree := ast.BinaryOp{Op: lex.DIVIDE, Left: ast.Number{Value: 1}, Right: ast.Number{Value: 0}}
	_, _, err := Evaluate(tree, Bindings{}, true)
	assert.Error(err)
}

func Test_Evaluate_stringConcatenation(t *testing.T) {
	assert := assert.New(t)

	tree := ast.BinaryOp{Op: lex.PLUS, Left: ast.Variable{Name: "a"}, Right: ast.Variable{Name: "b"}}
	bindings := Bindings{"a": String("foo"), "b": String("bar")}

	v, _, err := Evaluate(tree, bindings, true)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("foobar", v.Str)
}

func Test_Evaluate_undefinedVariable(t *testing.T) {
	assert := assert.New(t)

	tree := ast.Variable{Name: "missing"}
	_, _, err := Evaluate(tree, Bindings{}, true)
	assert.Error(err)
}

func Test_Evaluate_epsilonEquality(t *testing.T) {
	assert := assert.New(t)

	tree := ast.BinaryOp{
		Op:    lex.EQUAL,
		Left:  ast.Number{Value: 0.1},
		Right: ast.BinaryOp{Op: lex.PLUS, Left: ast.Number{Value: 0.05}, Right: ast.Number{Value: 0.05}},
	}
	v, _, err := Evaluate(tree, Bindings{}, true)
	if !assert.NoError(err) {
		return
	}
	assert.True(v.Bool)
}

func Test_Evaluate_andOrAreNotShortCircuit(t *testing.T) {
	assert := assert.New(t)

	// false && (1/0 == 1) must still evaluate the right side and surface its
	// DivisionByZero error, proving && does not short-circuit.
	tree := ast.BinaryOp{
		Op:   lex.AND,
		Left: ast.Boolean{Value: false},
		Right: ast.BinaryOp{
			Op:    lex.EQUAL,
			Left:  ast.BinaryOp{Op: lex.DIVIDE, Left: ast.Number{Value: 1}, Right: ast.Number{Value: 0}},
			Right: ast.Number{Value: 1},
		},
	}
	_, _, err := Evaluate(tree, Bindings{}, true)
	assert.Error(err, "&& must evaluate both sides even when the left side alone determines the result")
}

func Test_Evaluate_ifBranchesOnCondition(t *testing.T) {
	assert := assert.New(t)

	tree := ast.If{
		Cond: ast.Boolean{Value: false},
		Then: ast.Number{Value: 1},
		Else: ast.Number{Value: 2},
	}
	v, _, err := Evaluate(tree, Bindings{}, true)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(2.0, v.Num)
}

func Test_Evaluate_strictModeRejectsBadCoercion(t *testing.T) {
	assert := assert.New(t)

	tree := ast.BinaryOp{Op: lex.PLUS, Left: ast.Variable{Name: "x"}, Right: ast.Number{Value: 1}}
	bindings := Bindings{"x": Boolean(true)}

	// Boolean coerces fine to number, so this isn't the failure case; use a
	// non-numeric string instead to trigger CoercionError.
	bindings["x"] = String("not a number")

	_, warnings, err := Evaluate(tree, bindings, true)
	assert.Error(err)
	assert.Empty(warnings)
}

func Test_Evaluate_nonStrictModeDowngradesToWarning(t *testing.T) {
	assert := assert.New(t)

	tree := ast.BinaryOp{Op: lex.PLUS, Left: ast.Variable{Name: "x"}, Right: ast.Number{Value: 1}}
	bindings := Bindings{"x": String("not a number")}

	v, warnings, err := Evaluate(tree, bindings, false)
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(warnings)
	assert.Equal(1.0, v.Num, "failed coercion should fall back to 0.0 before adding 1")
}

func Test_Evaluate_unaryOperators(t *testing.T) {
	assert := assert.New(t)

	neg, _, err := Evaluate(ast.UnaryOp{Op: lex.MINUS, Operand: ast.Number{Value: 5}}, Bindings{}, true)
	if assert.NoError(err) {
		assert.Equal(-5.0, neg.Num)
	}

	not, _, err := Evaluate(ast.UnaryOp{Op: lex.NOT, Operand: ast.Boolean{Value: true}}, Bindings{}, true)
	if assert.NoError(err) {
		assert.False(not.Bool)
	}
}
