// Package parse builds the ACTION/GOTO table from an LR(1)/LALR automaton
// and drives it over a token stream to build an AST. Table construction and
// conflict resolution follow spec.md §4.4 steps 6-7; the driver follows
// §4.5. The conflict-resolution style (shift/reduce via precedence and
// associativity) is grounded on internal/ictiobus/parse/lraction.go's
// LRAction, generalized to the typed Action here.
package parse

import (
	"github.com/dekarrin/formulon/internal/automaton"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
)

// Table is the compiled ACTION/GOTO table for a grammar: dense per-state
// maps keyed by terminal (ACTION) or non-terminal (GOTO). Conflicts records
// every ACTION-table collision table construction found, resolved or not.
type Table struct {
	Action    map[int]map[lex.Kind]Action
	Goto      map[int]map[lex.Kind]int
	Start     int
	Conflicts *grammar.ConflictReport
}

// Build constructs the ACTION/GOTO table for g from its automaton a,
// resolving shift/reduce and reduce/reduce conflicts via g's precedence
// table (spec.md §4.4 step 7). It returns a diag.GrammarConflict error for
// any conflict precedence cannot resolve. Every conflict encountered along
// the way, resolved or not, is recorded on the returned Table's Conflicts.
func Build(g grammar.Grammar, aut automaton.Automaton) (*Table, error) {
	t := &Table{
		Action:    map[int]map[lex.Kind]Action{},
		Goto:      map[int]map[lex.Kind]int{},
		Start:     aut.Start,
		Conflicts: &grammar.ConflictReport{},
	}

	for _, state := range aut.States {
		t.Action[state.ID] = map[lex.Kind]Action{}

		for it := range state.Items {
			sym, hasNext := it.NextSymbol(g)

			switch {
			case !hasNext && it.ProductionID == grammar.AugmentedStart.ID:
				if err := t.set(state.ID, it.Lookahead, Action{Type: Accept}, g); err != nil {
					return nil, err
				}

			case !hasNext:
				prod := g.ProductionByID(it.ProductionID)
				act := Action{Type: Reduce, Production: prod}
				if err := t.set(state.ID, it.Lookahead, act, g); err != nil {
					return nil, err
				}

			case sym.Terminal():
				target, ok := aut.Trans[state.ID][sym]
				if !ok {
					continue
				}
				act := Action{Type: Shift, State: target}
				if err := t.set(state.ID, sym, act, g); err != nil {
					return nil, err
				}

			default:
				target, ok := aut.Trans[state.ID][sym]
				if !ok {
					continue
				}
				if t.Goto[state.ID] == nil {
					t.Goto[state.ID] = map[lex.Kind]int{}
				}
				t.Goto[state.ID][sym] = target
			}
		}
	}

	return t, nil
}

// set installs act into the cell for (state, on), resolving a conflict with
// whatever is already there, if anything. Every conflict found, resolved or
// not, is appended to t.Conflicts before its error (if any) is returned.
func (t *Table) set(state int, on lex.Kind, act Action, g grammar.Grammar) error {
	existing, occupied := t.Action[state][on]
	if !occupied || existing.Type == Error {
		t.Action[state][on] = act
		return nil
	}
	if existing.Type == act.Type && existing.State == act.State && existing.Production.ID == act.Production.ID {
		return nil
	}

	resolved, resolution, err := resolveConflict(existing, act, on, g)
	t.Conflicts.Add(grammar.Conflict{
		State:      state,
		On:         on,
		Kind:       conflictKind(existing, act),
		Resolution: resolution,
	})
	if err != nil {
		return err
	}
	t.Action[state][on] = resolved
	return nil
}

// conflictKind names the two action types competing for a cell.
func conflictKind(a, b Action) string {
	return a.Type.String() + "/" + b.Type.String()
}

// resolveConflict picks between two actions competing for the same cell, by
// operator precedence and associativity (spec.md §4.4 step 7). Accept
// always wins over a competing shift or reduce, since it only arises from
// the augmented production on the sentinel $ and represents a complete
// parse. Reduce/reduce conflicts prefer the production with the longer RHS;
// on a tie in RHS length, the smaller production id wins.
func resolveConflict(a, b Action, on lex.Kind, g grammar.Grammar) (Action, string, error) {
	if a.Type == Accept {
		return a, "accept wins over " + b.Type.String(), nil
	}
	if b.Type == Accept {
		return b, "accept wins over " + a.Type.String(), nil
	}

	shift, reduce, ok := asShiftReduce(a, b)
	if ok {
		return resolveShiftReduce(shift, reduce, on, g)
	}

	if a.Type == Reduce && b.Type == Reduce {
		winner, reason := longerRHSWins(a, b)
		return winner, reason, nil
	}

	return Action{}, "unresolved", diag.New(diag.GrammarConflict, "unresolvable conflict on "+on.String())
}

// longerRHSWins picks between two competing reduce actions: the production
// with the longer RHS wins; a tie in RHS length is broken by the smaller
// production id.
func longerRHSWins(a, b Action) (Action, string) {
	aLen, bLen := len(a.Production.RHS), len(b.Production.RHS)
	switch {
	case aLen > bLen:
		return a, "longer rhs"
	case bLen > aLen:
		return b, "longer rhs"
	case a.Production.ID <= b.Production.ID:
		return a, "rhs length tie, smaller id"
	default:
		return b, "rhs length tie, smaller id"
	}
}

func asShiftReduce(a, b Action) (shift, reduce Action, ok bool) {
	if a.Type == Shift && b.Type == Reduce {
		return a, b, true
	}
	if b.Type == Shift && a.Type == Reduce {
		return b, a, true
	}
	return Action{}, Action{}, false
}

// resolveShiftReduce compares the precedence of the terminal about to be
// shifted against the precedence of the production about to be reduced
// (keyed by its rightmost terminal). Higher precedence wins; equal
// precedence defers to associativity (left associative reduces, right
// associative shifts, non-associative is a conflict). Missing precedence on
// either side defaults to shift, the conventional yacc default for an
// undeclared operator.
func resolveShiftReduce(shift, reduce Action, on lex.Kind, g grammar.Grammar) (Action, string, error) {
	shiftPrec, shiftOk := g.PrecedenceOf(on)
	if !shiftOk {
		return shift, "no precedence for " + on.String() + ", default to shift", nil
	}

	rightmost, hasRightmost := reduce.Production.RightmostTerminal()
	if !hasRightmost {
		return shift, "reduce side has no rightmost terminal, default to shift", nil
	}
	reducePrec, reduceOk := g.PrecedenceOf(rightmost)
	if !reduceOk {
		return shift, "no precedence for " + rightmost.String() + ", default to shift", nil
	}

	switch {
	case shiftPrec.Level > reducePrec.Level:
		return shift, "higher shift precedence", nil
	case reducePrec.Level > shiftPrec.Level:
		return reduce, "higher reduce precedence", nil
	}

	switch shiftPrec.Assoc {
	case grammar.LEFT:
		return reduce, "equal precedence, left associative", nil
	case grammar.RIGHT:
		return shift, "equal precedence, right associative", nil
	default:
		return Action{}, "unresolved", diag.New(diag.GrammarConflict, "non-associative operator conflict on "+on.String())
	}
}
