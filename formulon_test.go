package formulon

import (
	"testing"

	"github.com/dekarrin/formulon/internal/eval"
	"github.com/stretchr/testify/assert"
)

func Test_Evaluate_simpleArithmetic(t *testing.T) {
	assert := assert.New(t)

	result := Evaluate("1 + 2 * 3", eval.Bindings{}, DefaultOptions())
	if !assert.Empty(result.Errors) {
		return
	}
	assert.Equal(7.0, result.Value.Num)
	assert.NotEmpty(result.RequestID)
}

func Test_Evaluate_withBindings(t *testing.T) {
	assert := assert.New(t)

	bindings := eval.Bindings{"x": eval.Number(10)}
	result := Evaluate("x * 2", bindings, DefaultOptions())
	if !assert.Empty(result.Errors) {
		return
	}
	assert.Equal(20.0, result.Value.Num)
}

func Test_Evaluate_syntaxErrorSurfacesAsResultError(t *testing.T) {
	assert := assert.New(t)

	result := Evaluate("1 + + +", eval.Bindings{}, DefaultOptions())
	assert.NotEmpty(result.Errors)
}

func Test_Evaluate_formulaLengthLimit(t *testing.T) {
	assert := assert.New(t)

	opts := DefaultOptions()
	opts.MaxFormulaLength = 5
	result := Evaluate("123456789", eval.Bindings{}, opts)
	assert.NotEmpty(result.Errors)
}

func Test_Evaluate_repeatBuildsAreIdempotent(t *testing.T) {
	assert := assert.New(t)

	r1 := Evaluate("2 ^ 10", eval.Bindings{}, DefaultOptions())
	r2 := Evaluate("2 ^ 10", eval.Bindings{}, DefaultOptions())
	assert.Equal(r1.Value, r2.Value, "building the one-shot engine repeatedly must not change evaluation results")
}

func Test_DumpGrammar_rendersTable(t *testing.T) {
	assert := assert.New(t)

	dump, err := DumpGrammar()
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(dump)
}

func Test_CacheTable_encodesNonEmpty(t *testing.T) {
	assert := assert.New(t)

	data, err := CacheTable()
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(data)
}
