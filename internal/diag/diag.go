// Package diag defines the structured error taxonomy shared by every stage
// of the engine: lexer, parser, table builder, and evaluator all report
// failures as a Diagnostic rather than an opaque error string.
package diag

import (
	"fmt"

	"github.com/dekarrin/formulon/internal/lex"
)

// Kind is the closed set of diagnostic kinds the engine can raise.
type Kind string

const (
	UnexpectedCharacter Kind = "UnexpectedCharacter"
	UnclosedVariable    Kind = "UnclosedVariable"
	SyntaxError         Kind = "SyntaxError"
	UnexpectedEndOfInput Kind = "UnexpectedEndOfInput"
	UndefinedVariable   Kind = "UndefinedVariable"
	DivisionByZero      Kind = "DivisionByZero"
	CoercionError        Kind = "CoercionError"
	FunctionError       Kind = "FunctionError"
	LimitExceeded       Kind = "LimitExceeded"
	GrammarConflict     Kind = "GrammarConflict"
	ParserTableError    Kind = "ParserTableError"
	AstBuilderError     Kind = "AstBuilderError"
	StepError           Kind = "StepError"
)

// Code is the exit-code family a Diagnostic maps to, per the CLI contract:
// 0 success, 1 syntax error, 2 evaluation error, 3 configuration/limit
// violation, 4 internal (grammar/table) error.
type Code int

const (
	CodeSuccess Code = iota
	CodeSyntax
	CodeEvaluation
	CodeLimit
	CodeInternal
)

var kindCodes = map[Kind]Code{
	UnexpectedCharacter:  CodeSyntax,
	UnclosedVariable:     CodeSyntax,
	SyntaxError:          CodeSyntax,
	UnexpectedEndOfInput: CodeSyntax,
	UndefinedVariable:    CodeEvaluation,
	DivisionByZero:       CodeEvaluation,
	CoercionError:        CodeEvaluation,
	FunctionError:        CodeEvaluation,
	LimitExceeded:        CodeLimit,
	GrammarConflict:      CodeInternal,
	ParserTableError:     CodeInternal,
	AstBuilderError:      CodeInternal,
	StepError:            CodeEvaluation,
}

// Diagnostic is the common contract every engine error satisfies.
type Diagnostic interface {
	error

	// ErrKind returns the taxonomy kind of this diagnostic.
	ErrKind() Kind

	// Pos returns the source position the diagnostic occurred at, if any.
	Pos() (lex.Position, bool)

	// ErrCode returns the CLI exit code family this diagnostic maps to.
	ErrCode() Code
}

// Error is the concrete Diagnostic implementation used throughout the
// engine. It carries an optional source Position and an optional wrapped
// cause so errors.Is/errors.As compose the usual way.
type Error struct {
	Kind     Kind
	Message  string
	Position *lex.Position
	Cause    error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewAt(kind Kind, message string, pos lex.Position) *Error {
	return &Error{Kind: kind, Message: message, Position: &pos}
}

func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), Cause: cause}
}

func (e *Error) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) ErrKind() Kind {
	return e.Kind
}

func (e *Error) Pos() (lex.Position, bool) {
	if e.Position == nil {
		return lex.Position{}, false
	}
	return *e.Position, true
}

func (e *Error) ErrCode() Code {
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return CodeInternal
}

// ExitCode maps any error to a CLI exit code: 0 if err is nil, the
// Diagnostic's own Code if it implements Diagnostic, else CodeInternal as a
// conservative fallback for an unexpected error type.
func ExitCode(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var d Diagnostic
	if asDiagnostic(err, &d) {
		return d.ErrCode()
	}
	return CodeInternal
}

func asDiagnostic(err error, target *Diagnostic) bool {
	for err != nil {
		if d, ok := err.(Diagnostic); ok {
			*target = d
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
