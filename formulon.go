// Package formulon evaluates formula-language expressions against variable
// bindings: tokenize, parse with a table-driven LR(1)/LALR driver, and
// interpret the resulting AST, either as a single expression or as an
// ordered multi-step pipeline that threads each step's result into the next
// step's bindings.
package formulon

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/dekarrin/formulon/internal/automaton"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/eval"
	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
	"github.com/dekarrin/formulon/internal/parse"
)

// Options configures a single evaluation or multi-step run (spec.md §6).
// The zero value is not valid; use DefaultOptions.
type Options struct {
	// StrictMode surfaces coercion warnings as errors instead of letting
	// the evaluator fall back to a default value.
	StrictMode bool

	// AllowUnicodeIdentifiers permits Unicode letters in identifiers and
	// variable names, case-folded with golang.org/x/text/cases.
	AllowUnicodeIdentifiers bool

	MaxFormulaLength int
	MaxSteps         int
	MaxVariables     int
	MaxTokenLength   int
	MaxAstNodes      int
	MaxAstDepth      int
}

// DefaultOptions returns the documented default configuration.
func DefaultOptions() Options {
	return Options{
		StrictMode:              true,
		AllowUnicodeIdentifiers: false,
		MaxFormulaLength:        10_000,
		MaxSteps:                50,
		MaxVariables:            1_000,
		MaxTokenLength:          1_000,
		MaxAstNodes:             1_000,
		MaxAstDepth:             50,
	}
}

// Result is the outcome of a single Evaluate call.
type Result struct {
	Value          eval.Value
	ExecutionNanos int64
	Errors         []error
	Warnings       []eval.Warning
	RequestID      string
}

// engine holds the grammar, FIRST/FOLLOW sets, automaton, and compiled
// ACTION/GOTO table, built exactly once (spec.md §5: "built once under a
// one-shot initialization guard ... repeated initialization must produce
// byte-identical outputs").
type engine struct {
	grammar grammar.Grammar
	table   *parse.Table
}

var (
	theEngine     engine
	engineInit    sync.Once
	engineInitErr error
)

func getEngine() (engine, error) {
	engineInit.Do(func() {
		g := grammar.New()
		ff := grammar.Compute(g)

		aut, err := automaton.Build(g, ff)
		if err != nil {
			engineInitErr = err
			return
		}

		table, err := parse.Build(g, aut)
		if err != nil {
			engineInitErr = err
			return
		}

		theEngine = engine{grammar: g, table: table}
	})
	return theEngine, engineInitErr
}

// Evaluate parses and interprets formula against bindings under opts
// (spec.md §6, §4.1-§4.6).
func Evaluate(formula string, bindings eval.Bindings, opts Options) Result {
	start := time.Now()
	id := newRequestID()

	node, errs := parseFormula(formula, opts)
	if len(errs) > 0 {
		return Result{ExecutionNanos: time.Since(start).Nanoseconds(), Errors: errs, RequestID: id}
	}

	value, warnings, err := eval.Evaluate(node, bindings, opts.StrictMode)
	result := Result{
		Value:          value,
		ExecutionNanos: time.Since(start).Nanoseconds(),
		Warnings:       warnings,
		RequestID:      id,
	}
	if err != nil {
		result.Errors = []error{err}
	}
	return result
}

// parseFormula runs the full lex → parse pipeline, returning the built AST
// or a single-element error slice (kept as a slice for symmetry with
// Result.Errors, though at most one error is ever produced here).
func parseFormula(formula string, opts Options) (ast.Node, []error) {
	if opts.MaxFormulaLength > 0 && len(formula) > opts.MaxFormulaLength {
		return nil, []error{diag.New(diag.LimitExceeded, "formula exceeds maximum length")}
	}

	eng, err := getEngine()
	if err != nil {
		return nil, []error{err}
	}

	lx := lex.New(formula, lex.Context{
		Strict:         opts.StrictMode,
		AllowUnicode:   opts.AllowUnicodeIdentifiers,
		MaxTokenLength: opts.MaxTokenLength,
	})
	toks, lexErr := lx.Tokens()
	if lexErr != nil {
		return nil, []error{translateLexError(lexErr)}
	}

	node, parseErr := parse.Parse(eng.table, eng.grammar, toks, opts.MaxAstDepth, opts.MaxAstNodes)
	if parseErr != nil {
		return nil, []error{parseErr}
	}
	return node, nil
}

// DumpGrammar builds the engine if needed and renders its ACTION/GOTO table
// as a formatted text table, for the "grammar dump" diagnostic CLI
// subcommand.
func DumpGrammar() (string, error) {
	eng, err := getEngine()
	if err != nil {
		return "", err
	}
	return eng.table.Dump(eng.grammar), nil
}

// DumpConflicts builds the engine if needed and renders the conflicts
// encountered while building its ACTION/GOTO table, resolved or not
// (spec.md §4.4 step 7), for the "grammar conflicts" diagnostic CLI
// subcommand.
func DumpConflicts() (string, error) {
	eng, err := getEngine()
	if err != nil {
		return "", err
	}
	return eng.table.Conflicts.String(), nil
}

// CacheTable builds the engine if needed and serializes its ACTION/GOTO
// table with rezi, for the "grammar cache" diagnostic CLI subcommand.
func CacheTable() ([]byte, error) {
	eng, err := getEngine()
	if err != nil {
		return nil, err
	}
	return eng.table.EncodeBinary(), nil
}

func translateLexError(err error) error {
	le, ok := err.(*lex.LexError)
	if !ok {
		return err
	}
	return diag.NewAt(diag.Kind(le.Kind), le.Detail, le.Position)
}

func newRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return id.String()
}
