package formulon

import (
	"strconv"
	"time"

	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/eval"
	"github.com/dekarrin/formulon/internal/lex"
)

// Step is a single entry in a multi-step evaluation pipeline (spec.md §4.7):
// a formula, an optional name for diagnostics, and an optional variable
// name its result is bound to for subsequent steps.
type Step struct {
	Name         string
	Formula      string
	ResultVariable string
}

// StepOutcome records what happened when a single Step ran.
type StepOutcome struct {
	Name           string
	Value          eval.Value
	Warnings       []eval.Warning
	Err            error
	ExecutionNanos int64
}

// MultiResult is the outcome of an EvaluateMultiStep call.
type MultiResult struct {
	Steps          []StepOutcome
	FinalBindings  eval.Bindings
	ExecutionNanos int64
	RequestID      string
}

// StepError wraps the failure of step Index, aborting the remaining steps
// (spec.md §4.7, §7).
type StepError struct {
	Index int
	Cause error
}

func (e *StepError) Error() string {
	return "step " + strconv.Itoa(e.Index) + " failed: " + e.Cause.Error()
}

func (e *StepError) Unwrap() error { return e.Cause }

func (e *StepError) ErrKind() diag.Kind { return diag.StepError }

func (e *StepError) ErrCode() diag.Code { return diag.CodeEvaluation }

// Pos delegates to the wrapped cause when it carries a source position.
func (e *StepError) Pos() (lex.Position, bool) {
	if d, ok := e.Cause.(diag.Diagnostic); ok {
		return d.Pos()
	}
	return lex.Position{}, false
}

// EvaluateMultiStep runs steps in order against a mutable copy of
// initialBindings, feeding each step's named result into the bindings seen
// by later steps (spec.md §4.7). A step failure aborts the remaining steps
// and is surfaced as a StepError.
func EvaluateMultiStep(initialBindings eval.Bindings, steps []Step, opts Options) MultiResult {
	start := time.Now()
	id := newRequestID()

	result := MultiResult{RequestID: id}

	if opts.MaxSteps > 0 && len(steps) > opts.MaxSteps {
		result.ExecutionNanos = time.Since(start).Nanoseconds()
		return result
	}
	if opts.MaxVariables > 0 && len(initialBindings) > opts.MaxVariables {
		result.ExecutionNanos = time.Since(start).Nanoseconds()
		return result
	}

	bindings := make(eval.Bindings, len(initialBindings))
	for k, v := range initialBindings {
		bindings[k] = v
	}

	for i, step := range steps {
		stepStart := time.Now()

		stepRes := Evaluate(step.Formula, bindings, opts)
		outcome := StepOutcome{
			Name:           step.Name,
			Value:          stepRes.Value,
			Warnings:       stepRes.Warnings,
			ExecutionNanos: time.Since(stepStart).Nanoseconds(),
		}

		if len(stepRes.Errors) > 0 {
			outcome.Err = &StepError{Index: i, Cause: stepRes.Errors[0]}
			result.Steps = append(result.Steps, outcome)
			break
		}

		if step.ResultVariable != "" {
			if opts.MaxVariables > 0 && len(bindings) >= opts.MaxVariables {
				outcome.Err = &StepError{Index: i, Cause: diag.New(diag.LimitExceeded, "binding count exceeds maximum")}
				result.Steps = append(result.Steps, outcome)
				break
			}
			bindings[step.ResultVariable] = stepRes.Value
		}

		result.Steps = append(result.Steps, outcome)
	}

	result.FinalBindings = bindings
	result.ExecutionNanos = time.Since(start).Nanoseconds()
	return result
}
