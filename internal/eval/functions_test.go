package eval

import (
	"testing"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/stretchr/testify/assert"
)

func call(name string, args ...ast.Node) ast.FunctionCall {
	return ast.FunctionCall{Name: name, Args: args}
}

func Test_BuiltinFunctions_numeric(t *testing.T) {
	tests := []struct {
		name string
		call ast.FunctionCall
		want float64
	}{
		{"ABS", call("ABS", ast.Number{Value: -5}), 5},
		{"SQRT", call("SQRT", ast.Number{Value: 9}), 3},
		{"ROUND one arg ties up", call("ROUND", ast.Number{Value: 2.5}), 3},
		{"ROUND one arg ties down for negative", call("ROUND", ast.Number{Value: -2.5}), -3},
		{"ROUND two args", call("ROUND", ast.Number{Value: 3.14159}, ast.Number{Value: 2}), 3.14},
		{"MIN", call("MIN", ast.Number{Value: 3}, ast.Number{Value: 1}, ast.Number{Value: 2}), 1},
		{"MAX", call("MAX", ast.Number{Value: 3}, ast.Number{Value: 1}, ast.Number{Value: 2}), 3},
		{"SUM", call("SUM", ast.Number{Value: 1}, ast.Number{Value: 2}, ast.Number{Value: 3}), 6},
		{"AVG", call("AVG", ast.Number{Value: 2}, ast.Number{Value: 4}), 3},
		{"AVERAGE alias", call("AVERAGE", ast.Number{Value: 2}, ast.Number{Value: 4}), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			v, warnings, err := Evaluate(tt.call, Bindings{}, true)
			if !assert.NoError(err) {
				return
			}
			assert.Empty(warnings)
			assert.InDelta(tt.want, v.Num, 1e-9)
		})
	}
}

func Test_BuiltinFunctions_if(t *testing.T) {
	assert := assert.New(t)

	v, _, err := Evaluate(call("IF", ast.Boolean{Value: true}, ast.Number{Value: 1}, ast.Number{Value: 2}), Bindings{}, true)
	if assert.NoError(err) {
		assert.Equal(1.0, v.Num)
	}
}

func Test_BuiltinFunctions_arityErrors(t *testing.T) {
	assert := assert.New(t)

	_, _, err := Evaluate(call("ABS", ast.Number{Value: 1}, ast.Number{Value: 2}), Bindings{}, true)
	assert.Error(err)

	_, _, err = Evaluate(call("MIN"), Bindings{}, true)
	assert.Error(err)
}

func Test_BuiltinFunctions_unknownNameListsKnownFunctions(t *testing.T) {
	assert := assert.New(t)

	_, _, err := Evaluate(call("BOGUS", ast.Number{Value: 1}), Bindings{}, true)
	if assert.Error(err) {
		assert.Contains(err.Error(), "ABS")
	}
}
