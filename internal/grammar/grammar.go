// Package grammar defines the fixed formula grammar: its terminals and
// non-terminals (shared with internal/lex via lex.Kind), its productions
// tagged with the AST builder each invokes, and the operator precedence
// table consulted by the LR(1) table builder to resolve shift/reduce
// conflicts.
package grammar

import (
	"fmt"

	"github.com/dekarrin/formulon/internal/lex"
	"github.com/dekarrin/formulon/internal/util"
)

// Builder is a tag identifying which fixed AST-construction rule a
// production invokes when the LR driver reduces it. Builders are constants,
// not closures, so every reduction's shape is statically known.
type Builder int

const (
	BuildIdentity Builder = iota
	BuildBinaryOp
	BuildUnaryOp
	BuildParenthesized
	BuildNumber
	BuildVariable
	BuildBooleanTrue
	BuildBooleanFalse
	BuildFunctionCall
	BuildFunctionCallEmpty
	BuildIf
	BuildArgsSingle
	BuildArgsMultiple
	BuildStart
)

func (b Builder) String() string {
	names := [...]string{
		"Identity", "BinaryOp", "UnaryOp", "Parenthesized", "Number",
		"Variable", "BooleanTrue", "BooleanFalse", "FunctionCall",
		"FunctionCallEmpty", "If", "ArgsSingle", "ArgsMultiple", "Start",
	}
	if int(b) < len(names) {
		return names[b]
	}
	return fmt.Sprintf("Builder(%d)", int(b))
}

// Production is a single grammar rule: LHS -> RHS, tagged with the Builder
// the LR driver invokes upon reducing it. ID -1 is reserved for the
// augmented start production; all others are assigned small non-negative
// integers in declaration order.
type Production struct {
	ID      int
	LHS     lex.Kind
	RHS     []lex.Kind
	Builder Builder
}

func (p Production) String() string {
	rhs := ""
	for i, k := range p.RHS {
		if i > 0 {
			rhs += " "
		}
		rhs += k.String()
	}
	if rhs == "" {
		rhs = "ε"
	}
	return fmt.Sprintf("%s -> %s", p.LHS, rhs)
}

// RightmostTerminal returns the rightmost terminal symbol in the production's
// RHS, used to look up the production's precedence for shift/reduce
// conflict resolution (spec §4.4 step 7). The second return is false if the
// RHS contains no terminal at all.
func (p Production) RightmostTerminal() (lex.Kind, bool) {
	for i := len(p.RHS) - 1; i >= 0; i-- {
		if p.RHS[i].Terminal() {
			return p.RHS[i], true
		}
	}
	return 0, false
}

// Assoc is operator associativity.
type Assoc int

const (
	LEFT Assoc = iota
	RIGHT
	NONE
)

// PrecEntry records an operator's precedence level (higher binds tighter)
// and associativity.
type PrecEntry struct {
	Level int
	Assoc Assoc
}

// Grammar is the fixed formula language grammar: the start symbol, the
// productions keyed by LHS, and the operator precedence table. A Grammar
// value is immutable once constructed and safe to share across goroutines.
type Grammar struct {
	Start        lex.Kind
	Productions  []Production
	ByLHS        map[lex.Kind][]Production
	ByID         map[int]Production
	Terminals    []lex.Kind
	NonTerminals []lex.Kind
	Precedence   map[lex.Kind]PrecEntry
}

// ProductionByID returns the production with the given id, including the
// augmented start production (id -1). Panics if id names no production —
// that indicates a bug in table construction, never malformed input.
func (g Grammar) ProductionByID(id int) Production {
	if id == AugmentedStart.ID {
		return AugmentedStart
	}
	p, ok := g.ByID[id]
	if !ok {
		panic(fmt.Sprintf("grammar: no production with id %d", id))
	}
	return p
}

// AugmentedStart is the id -1 production added by the table builder:
// START -> EXPR $.
var AugmentedStart = Production{
	ID:      -1,
	LHS:     lex.START,
	RHS:     []lex.Kind{lex.EXPR, lex.DOLLAR},
	Builder: BuildStart,
}

// New constructs the canonical formula grammar described in spec.md §4.2: a
// C-family precedence ladder encoded as explicit non-terminals, so the
// grammar is unambiguous by construction and the precedence table exists
// only to resolve the rare residual conflict (there should be none for this
// grammar, but the table builder implements the general mechanism).
func New() Grammar {
	productions := []Production{
		// EXPR -> EXPR OR AND_EXPR | AND_EXPR
		{ID: 0, LHS: lex.EXPR, RHS: []lex.Kind{lex.EXPR, lex.OR, lex.AND_EXPR}, Builder: BuildBinaryOp},
		{ID: 1, LHS: lex.EXPR, RHS: []lex.Kind{lex.AND_EXPR}, Builder: BuildIdentity},

		// AND_EXPR -> AND_EXPR AND COMP_EXPR | COMP_EXPR
		{ID: 2, LHS: lex.AND_EXPR, RHS: []lex.Kind{lex.AND_EXPR, lex.AND, lex.COMP_EXPR}, Builder: BuildBinaryOp},
		{ID: 3, LHS: lex.AND_EXPR, RHS: []lex.Kind{lex.COMP_EXPR}, Builder: BuildIdentity},

		// COMP_EXPR -> ARITH_EXPR (==|!=|<|<=|>|>=) ARITH_EXPR | ARITH_EXPR
		{ID: 4, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.EQUAL, lex.ARITH_EXPR}, Builder: BuildBinaryOp},
		{ID: 5, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.NOT_EQUAL, lex.ARITH_EXPR}, Builder: BuildBinaryOp},
		{ID: 6, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.LESS, lex.ARITH_EXPR}, Builder: BuildBinaryOp},
		{ID: 7, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.LESS_EQUAL, lex.ARITH_EXPR}, Builder: BuildBinaryOp},
		{ID: 8, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.GREATER, lex.ARITH_EXPR}, Builder: BuildBinaryOp},
		{ID: 9, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.GREATER_EQUAL, lex.ARITH_EXPR}, Builder: BuildBinaryOp},
		{ID: 10, LHS: lex.COMP_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR}, Builder: BuildIdentity},

		// ARITH_EXPR -> ARITH_EXPR (+|-) TERM | TERM
		{ID: 11, LHS: lex.ARITH_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.PLUS, lex.TERM}, Builder: BuildBinaryOp},
		{ID: 12, LHS: lex.ARITH_EXPR, RHS: []lex.Kind{lex.ARITH_EXPR, lex.MINUS, lex.TERM}, Builder: BuildBinaryOp},
		{ID: 13, LHS: lex.ARITH_EXPR, RHS: []lex.Kind{lex.TERM}, Builder: BuildIdentity},

		// TERM -> TERM (*|/|%) FACTOR | FACTOR
		{ID: 14, LHS: lex.TERM, RHS: []lex.Kind{lex.TERM, lex.MULTIPLY, lex.FACTOR}, Builder: BuildBinaryOp},
		{ID: 15, LHS: lex.TERM, RHS: []lex.Kind{lex.TERM, lex.DIVIDE, lex.FACTOR}, Builder: BuildBinaryOp},
		{ID: 16, LHS: lex.TERM, RHS: []lex.Kind{lex.TERM, lex.MODULO, lex.FACTOR}, Builder: BuildBinaryOp},
		{ID: 17, LHS: lex.TERM, RHS: []lex.Kind{lex.FACTOR}, Builder: BuildIdentity},

		// FACTOR -> PRIMARY ^ FACTOR | PRIMARY   (right-associative)
		{ID: 18, LHS: lex.FACTOR, RHS: []lex.Kind{lex.PRIMARY, lex.POWER, lex.FACTOR}, Builder: BuildBinaryOp},
		{ID: 19, LHS: lex.FACTOR, RHS: []lex.Kind{lex.PRIMARY}, Builder: BuildIdentity},

		// PRIMARY -> ...
		{ID: 20, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.LEFT_PAREN, lex.EXPR, lex.RIGHT_PAREN}, Builder: BuildParenthesized},
		{ID: 21, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.PLUS, lex.PRIMARY}, Builder: BuildUnaryOp},
		{ID: 22, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.MINUS, lex.PRIMARY}, Builder: BuildUnaryOp},
		{ID: 23, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.NOT, lex.PRIMARY}, Builder: BuildUnaryOp},
		{ID: 24, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.NUMBER}, Builder: BuildNumber},
		{ID: 25, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.VARIABLE}, Builder: BuildVariable},
		{ID: 26, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.IDENTIFIER}, Builder: BuildVariable},
		{ID: 27, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.TRUE}, Builder: BuildBooleanTrue},
		{ID: 28, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.FALSE}, Builder: BuildBooleanFalse},
		{ID: 29, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.IDENTIFIER, lex.LEFT_PAREN, lex.ARGS, lex.RIGHT_PAREN}, Builder: BuildFunctionCall},
		{ID: 30, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.IDENTIFIER, lex.LEFT_PAREN, lex.RIGHT_PAREN}, Builder: BuildFunctionCallEmpty},
		{ID: 31, LHS: lex.PRIMARY, RHS: []lex.Kind{lex.IF, lex.LEFT_PAREN, lex.EXPR, lex.COMMA, lex.EXPR, lex.COMMA, lex.EXPR, lex.RIGHT_PAREN}, Builder: BuildIf},

		// ARGS -> ARGS COMMA EXPR | EXPR
		{ID: 32, LHS: lex.ARGS, RHS: []lex.Kind{lex.ARGS, lex.COMMA, lex.EXPR}, Builder: BuildArgsMultiple},
		{ID: 33, LHS: lex.ARGS, RHS: []lex.Kind{lex.EXPR}, Builder: BuildArgsSingle},
	}

	precedence := map[lex.Kind]PrecEntry{
		lex.OR:            {Level: 1, Assoc: LEFT},
		lex.AND:           {Level: 2, Assoc: LEFT},
		lex.EQUAL:         {Level: 3, Assoc: NONE},
		lex.NOT_EQUAL:     {Level: 3, Assoc: NONE},
		lex.LESS:          {Level: 4, Assoc: NONE},
		lex.LESS_EQUAL:    {Level: 4, Assoc: NONE},
		lex.GREATER:       {Level: 4, Assoc: NONE},
		lex.GREATER_EQUAL: {Level: 4, Assoc: NONE},
		lex.PLUS:          {Level: 5, Assoc: LEFT},
		lex.MINUS:         {Level: 5, Assoc: LEFT},
		lex.MULTIPLY:      {Level: 6, Assoc: LEFT},
		lex.DIVIDE:        {Level: 6, Assoc: LEFT},
		lex.MODULO:        {Level: 6, Assoc: LEFT},
		lex.POWER:         {Level: 7, Assoc: RIGHT},
		lex.NOT:           {Level: 8, Assoc: RIGHT},
	}

	g := Grammar{
		Start:       lex.EXPR,
		Productions: productions,
		ByLHS:       map[lex.Kind][]Production{},
		ByID:        map[int]Production{},
		Precedence:  precedence,
	}

	nonTerms := util.NewKeySet[lex.Kind]()
	terms := util.NewKeySet[lex.Kind]()
	for _, p := range productions {
		g.ByLHS[p.LHS] = append(g.ByLHS[p.LHS], p)
		g.ByID[p.ID] = p
		nonTerms.Add(p.LHS)
		for _, sym := range p.RHS {
			if sym.Terminal() {
				terms.Add(sym)
			}
		}
	}

	g.NonTerminals = orderedKinds(nonTerms)
	g.Terminals = orderedKinds(terms)

	return g
}

func orderedKinds(s util.KeySet[lex.Kind]) []lex.Kind {
	// deterministic order: by underlying int value, which is declaration
	// order of the Kind constants.
	elems := s.Elements()
	for i := 1; i < len(elems); i++ {
		for j := i; j > 0 && elems[j] < elems[j-1]; j-- {
			elems[j], elems[j-1] = elems[j-1], elems[j]
		}
	}
	return elems
}

// ProductionsFor returns the productions whose LHS is nt, in declaration
// order.
func (g Grammar) ProductionsFor(nt lex.Kind) []Production {
	return g.ByLHS[nt]
}

// PrecedenceOf looks up the precedence entry for a terminal. ok is false if
// the terminal carries no declared precedence (meaning: default to Shift in
// a shift/reduce conflict, per spec §4.4 step 7).
func (g Grammar) PrecedenceOf(t lex.Kind) (PrecEntry, bool) {
	e, ok := g.Precedence[t]
	return e, ok
}
