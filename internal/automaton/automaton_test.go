package automaton

import (
	"testing"

	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
	"github.com/dekarrin/formulon/internal/util"
	"github.com/stretchr/testify/assert"
)

func Test_Closure_startState(t *testing.T) {
	assert := assert.New(t)

	g := grammar.New()
	ff := grammar.Compute(g)

	startItem := grammar.Item{ProductionID: grammar.AugmentedStart.ID, Dot: 0, Lookahead: lex.DOLLAR}
	closure := Closure(g, ff, util.KeySetOf([]grammar.Item{startItem}))

	assert.True(closure.Has(startItem))
	// Closure over START -> .EXPR $ must predict PRIMARY -> .NUMBER with
	// lookahead PLUS: the predicted item ARITH_EXPR -> .ARITH_EXPR PLUS TERM
	// puts PLUS in the lookaheads of ARITH_EXPR's predictions, and that
	// lookahead is carried down through TERM and FACTOR to PRIMARY.
	wantPredicted := grammar.Item{ProductionID: 24, Dot: 0, Lookahead: lex.PLUS}
	assert.True(closure.Has(wantPredicted), "expected closure to predict PRIMARY -> .NUMBER with lookahead PLUS")
}

func Test_GotoSet_advancesDot(t *testing.T) {
	assert := assert.New(t)

	g := grammar.New()
	ff := grammar.Compute(g)

	startItem := grammar.Item{ProductionID: grammar.AugmentedStart.ID, Dot: 0, Lookahead: lex.DOLLAR}
	start := Closure(g, ff, util.KeySetOf([]grammar.Item{startItem}))

	onNumber := GotoSet(g, ff, start, lex.NUMBER)
	assert.False(onNumber.Empty())

	advanced := grammar.Item{ProductionID: 24, Dot: 1, Lookahead: lex.DOLLAR}
	assert.True(onNumber.Has(advanced), "goto on NUMBER should produce a state containing the advanced NUMBER item with lookahead $")
}

func Test_Build_deterministicAndBounded(t *testing.T) {
	assert := assert.New(t)

	g := grammar.New()
	ff := grammar.Compute(g)

	a1, err := Build(g, ff)
	if !assert.NoError(err) {
		return
	}
	a2, err := Build(g, ff)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(len(a1.States), len(a2.States), "building the same grammar twice must produce the same state count")
	assert.Less(len(a1.States), MaxStates)

	for _, st := range a1.States {
		assert.LessOrEqual(len(st.Items), MaxItemsPerState)
	}

	// The start state must have an outgoing transition on every token that
	// can legally begin a formula.
	startTrans := a1.Trans[a1.Start]
	for _, sym := range []lex.Kind{lex.NUMBER, lex.VARIABLE, lex.IDENTIFIER, lex.TRUE, lex.FALSE, lex.LEFT_PAREN, lex.MINUS, lex.PLUS, lex.NOT, lex.IF} {
		_, ok := startTrans[sym]
		assert.True(ok, "expected start state to have a transition on %s", sym)
	}
}

func Test_Build_tracksShiftChain(t *testing.T) {
	assert := assert.New(t)

	g := grammar.New()
	ff := grammar.Compute(g)

	a, err := Build(g, ff)
	if !assert.NoError(err) {
		return
	}

	// Shift NUMBER, then expect no further shift (NUMBER reduces to
	// PRIMARY immediately, with no further input consumed by that single
	// production).
	afterNumber := a.Trans[a.Start][lex.NUMBER]
	assert.NotZero(len(a.States[afterNumber].Items))
	assert.Empty(a.Trans[afterNumber], "the state after shifting NUMBER should have no outgoing transitions")
}
