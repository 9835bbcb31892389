// Package automaton builds the canonical LR(1) item-set automaton for a
// grammar and merges LALR-compatible states, per spec.md §4.4 steps 1-5. The
// resulting Automaton is consumed by internal/parse to populate the
// ACTION/GOTO tables.
package automaton

import (
	"fmt"
	"sort"

	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
	"github.com/dekarrin/formulon/internal/util"
)

// Bounds from spec.md §4.4: guarantee termination of table construction.
const (
	MaxStates            = 10_000
	MaxItemsPerState      = 1_000
	MaxTransitionsPerState = 500
)

// ItemSet is an unordered collection of LR(1) items.
type ItemSet = util.KeySet[grammar.Item]

// State is one node of the LR(1)/LALR automaton.
type State struct {
	ID    int
	Items ItemSet
}

// Automaton is the built item-set automaton: states and the transitions
// between them on grammar symbols (terminal transitions become Shift
// actions, non-terminal transitions become GOTO entries, in the parse
// package).
type Automaton struct {
	States []State
	Trans  map[int]map[lex.Kind]int
	Start  int
}

// coreSignature is the sorted list of (production, dot) pairs appearing in
// a state's item set, used to detect LALR-mergeable states (spec.md §4.4
// step 5).
type coreSignature string

func signatureOf(items ItemSet) coreSignature {
	cores := make([]grammar.Core, 0, len(items))
	seen := map[grammar.Core]bool{}
	for it := range items {
		c := it.Core()
		if !seen[c] {
			seen[c] = true
			cores = append(cores, c)
		}
	}
	sort.Slice(cores, func(i, j int) bool {
		if cores[i].ProductionID != cores[j].ProductionID {
			return cores[i].ProductionID < cores[j].ProductionID
		}
		return cores[i].Dot < cores[j].Dot
	})
	s := ""
	for _, c := range cores {
		s += fmt.Sprintf("%d:%d;", c.ProductionID, c.Dot)
	}
	return coreSignature(s)
}

// lookaheadsByCore groups the lookaheads of items in a set by their core.
func lookaheadsByCore(items ItemSet) map[grammar.Core]util.KeySet[lex.Kind] {
	out := map[grammar.Core]util.KeySet[lex.Kind]{}
	for it := range items {
		c := it.Core()
		if out[c] == nil {
			out[c] = util.NewKeySet[lex.Kind]()
		}
		out[c].Add(it.Lookahead)
	}
	return out
}

// Closure computes the closure of a set of LR(1) items (spec.md §4.4 step
//2): repeatedly, for each item [A -> alpha . B beta, a] with B a
// non-terminal, add [B -> . gamma, b] for every production B -> gamma and
// every b in first_of_sequence(beta, a).
func Closure(g grammar.Grammar, ff grammar.FirstFollow, items ItemSet) ItemSet {
	result := util.NewKeySet[grammar.Item]()
	result.AddAll(items)

	changed := true
	for changed {
		changed = false
		for _, it := range result.Elements() {
			sym, ok := it.NextSymbol(g)
			if !ok || sym.Terminal() {
				continue
			}
			p := g.ProductionByID(it.ProductionID)
			beta := p.RHS[it.Dot+1:]
			lookaheads := ff.FirstOfSequence(beta, it.Lookahead)

			for _, prod := range g.ProductionsFor(sym) {
				for _, la := range lookaheads.Elements() {
					newItem := grammar.Item{ProductionID: prod.ID, Dot: 0, Lookahead: la}
					if !result.Has(newItem) {
						result.Add(newItem)
						changed = true
					}
				}
			}
		}
	}

	return result
}

// GotoSet computes GOTO(items, sym): advance the dot past sym in every item
// where sym is next, then take the closure (spec.md §4.4 step 3).
func GotoSet(g grammar.Grammar, ff grammar.FirstFollow, items ItemSet, sym lex.Kind) ItemSet {
	moved := util.NewKeySet[grammar.Item]()
	for it := range items {
		next, ok := it.NextSymbol(g)
		if ok && next == sym {
			moved.Add(it.Advanced())
		}
	}
	if moved.Len() == 0 {
		return moved
	}
	return Closure(g, ff, moved)
}

// Build constructs the canonical LR(1) automaton for g and merges
// LALR-compatible states in construction order, per spec.md §4.4 steps 1-5.
func Build(g grammar.Grammar, ff grammar.FirstFollow) (Automaton, error) {
	startItem := grammar.Item{ProductionID: grammar.AugmentedStart.ID, Dot: 0, Lookahead: lex.DOLLAR}
	startSet := Closure(g, ff, util.KeySetOf([]grammar.Item{startItem}))

	a := Automaton{Trans: map[int]map[lex.Kind]int{}}
	a.States = append(a.States, State{ID: 0, Items: startSet})
	a.Start = 0

	bySignature := map[coreSignature][]int{signatureOf(startSet): {0}}

	// BFS worklist of state ids whose outgoing transitions haven't been
	// computed yet.
	queue := []int{0}

	// DOLLAR never appears in an ordinary production's RHS, so it is absent
	// from g.Terminals; it appears only in the augmented start production,
	// and the automaton still needs a transition on it to ever reach the
	// completed [START -> EXPR DOLLAR ., $] item that Accept depends on.
	allSymbols := append(append([]lex.Kind{lex.DOLLAR}, g.Terminals...), g.NonTerminals...)

	for len(queue) > 0 {
		stateID := queue[0]
		queue = queue[1:]

		if len(a.States[stateID].Items) > MaxItemsPerState {
			return Automaton{}, diag.New(diag.LimitExceeded, fmt.Sprintf("state %d exceeds max item count %d", stateID, MaxItemsPerState))
		}

		transitionsForState := 0
		for _, sym := range allSymbols {
			gotoSet := GotoSet(g, ff, a.States[stateID].Items, sym)
			if gotoSet.Len() == 0 {
				continue
			}

			transitionsForState++
			if transitionsForState > MaxTransitionsPerState {
				return Automaton{}, diag.New(diag.LimitExceeded, fmt.Sprintf("state %d exceeds max transition count %d", stateID, MaxTransitionsPerState))
			}

			targetID, isNew, err := a.findOrMerge(gotoSet, bySignature)
			if err != nil {
				return Automaton{}, err
			}
			if isNew {
				queue = append(queue, targetID)
			}

			if a.Trans[stateID] == nil {
				a.Trans[stateID] = map[lex.Kind]int{}
			}
			a.Trans[stateID][sym] = targetID
		}
	}

	return a, nil
}

// findOrMerge first looks for an existing state sharing gotoSet's core
// signature that already holds every item of gotoSet, and returns its id.
// Failing that, it looks for one whose lookaheads are, per core, disjoint
// from gotoSet's; if found, it merges gotoSet's lookaheads into that state in
// place and returns its id. Otherwise it appends gotoSet as a brand-new state.
func (a *Automaton) findOrMerge(gotoSet ItemSet, bySignature map[coreSignature][]int) (id int, isNew bool, err error) {
	sig := signatureOf(gotoSet)

	for _, candidateID := range bySignature[sig] {
		existing := a.States[candidateID].Items
		covered := true
		for it := range gotoSet {
			if !existing.Has(it) {
				covered = false
				break
			}
		}
		if covered {
			return candidateID, false, nil
		}
	}

	for _, candidateID := range bySignature[sig] {
		if a.mergeable(candidateID, gotoSet) {
			a.merge(candidateID, gotoSet)
			return candidateID, false, nil
		}
	}

	if len(a.States) >= MaxStates {
		return 0, false, diag.New(diag.LimitExceeded, fmt.Sprintf("automaton exceeds max state count %d", MaxStates))
	}

	newID := len(a.States)
	a.States = append(a.States, State{ID: newID, Items: gotoSet})
	bySignature[sig] = append(bySignature[sig], newID)
	return newID, true, nil
}

// mergeable reports whether gotoSet can merge into the existing state
// candidateID: same core signature (already guaranteed by caller) and, for
// every shared core, the existing and incoming lookahead sets are disjoint
// (spec.md §4.4 step 5).
func (a *Automaton) mergeable(candidateID int, gotoSet ItemSet) bool {
	existing := lookaheadsByCore(a.States[candidateID].Items)
	incoming := lookaheadsByCore(gotoSet)

	for core, incomingLAs := range incoming {
		existingLAs, ok := existing[core]
		if !ok {
			continue
		}
		for la := range incomingLAs {
			if existingLAs.Has(la) {
				return false
			}
		}
	}
	return true
}

// merge unions gotoSet's items (and, for shared cores, lookaheads) into the
// existing state candidateID.
func (a *Automaton) merge(candidateID int, gotoSet ItemSet) {
	for it := range gotoSet {
		a.States[candidateID].Items.Add(it)
	}
}
