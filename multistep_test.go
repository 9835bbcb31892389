package formulon

import (
	"testing"

	"github.com/dekarrin/formulon/internal/eval"
	"github.com/stretchr/testify/assert"
)

func Test_EvaluateMultiStep_threadsResultsForward(t *testing.T) {
	assert := assert.New(t)

	steps := []Step{
		{Name: "base", Formula: "10", ResultVariable: "base"},
		{Name: "doubled", Formula: "base * 2", ResultVariable: "doubled"},
		{Name: "final", Formula: "doubled + 1"},
	}

	result := EvaluateMultiStep(eval.Bindings{}, steps, DefaultOptions())
	if !assert.Len(result.Steps, 3) {
		return
	}
	assert.Equal(21.0, result.Steps[2].Value.Num)
	assert.Equal(10.0, result.FinalBindings["base"].Num)
	assert.Equal(20.0, result.FinalBindings["doubled"].Num)
}

func Test_EvaluateMultiStep_abortsOnFirstFailure(t *testing.T) {
	assert := assert.New(t)

	steps := []Step{
		{Name: "ok", Formula: "1", ResultVariable: "a"},
		{Name: "bad", Formula: "undefined_var + 1"},
		{Name: "never runs", Formula: "1 + 1"},
	}

	result := EvaluateMultiStep(eval.Bindings{}, steps, DefaultOptions())
	if !assert.Len(result.Steps, 2) {
		return
	}
	assert.Error(result.Steps[1].Err)

	stepErr, ok := result.Steps[1].Err.(*StepError)
	if assert.True(ok) {
		assert.Equal(1, stepErr.Index)
	}
}

func Test_EvaluateMultiStep_maxStepsLimit(t *testing.T) {
	assert := assert.New(t)

	opts := DefaultOptions()
	opts.MaxSteps = 1
	steps := []Step{
		{Formula: "1"},
		{Formula: "2"},
	}

	result := EvaluateMultiStep(eval.Bindings{}, steps, opts)
	assert.Empty(result.Steps, "exceeding MaxSteps should abort before running any step")
}

func Test_EvaluateMultiStep_initialBindingsArePreserved(t *testing.T) {
	assert := assert.New(t)

	initial := eval.Bindings{"seed": eval.Number(5)}
	steps := []Step{{Formula: "seed + 1", ResultVariable: "next"}}

	result := EvaluateMultiStep(initial, steps, DefaultOptions())
	assert.Equal(5.0, result.FinalBindings["seed"].Num)
	assert.Equal(6.0, result.FinalBindings["next"].Num)
	assert.Equal(5.0, initial["seed"].Num, "EvaluateMultiStep must not mutate the caller's bindings map")
}
