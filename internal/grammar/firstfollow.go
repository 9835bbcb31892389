package grammar

import (
	"github.com/dekarrin/formulon/internal/lex"
	"github.com/dekarrin/formulon/internal/util"
)

// FirstFollow holds the FIRST and FOLLOW sets computed for every symbol of a
// Grammar, plus which non-terminals are nullable (can derive the empty
// string). This grammar has no epsilon productions, so nullable is always
// empty for it, but the computation is written generally per spec.md §4.3.
//
// Computed once via the standard worklist fixed-point algorithm — iterative,
// not recursive, so it terminates correctly on left-recursive productions (a
// naive recursive FIRST(X) that calls itself to compute FIRST of a
// left-recursive non-terminal would never return).
type FirstFollow struct {
	first    map[lex.Kind]util.KeySet[lex.Kind]
	follow   map[lex.Kind]util.KeySet[lex.Kind]
	nullable map[lex.Kind]bool
}

// Compute builds the FIRST and FOLLOW sets for every symbol in g.
func Compute(g Grammar) FirstFollow {
	ff := FirstFollow{
		first:    map[lex.Kind]util.KeySet[lex.Kind]{},
		follow:   map[lex.Kind]util.KeySet[lex.Kind]{},
		nullable: map[lex.Kind]bool{},
	}

	for _, t := range g.Terminals {
		ff.first[t] = util.KeySetOf([]lex.Kind{t})
	}
	for _, nt := range g.NonTerminals {
		ff.first[nt] = util.NewKeySet[lex.Kind]()
		ff.follow[nt] = util.NewKeySet[lex.Kind]()
	}

	// Nullable + FIRST fixed point.
	changed := true
	for changed {
		changed = false
		for _, p := range g.Productions {
			if len(p.RHS) == 0 {
				if !ff.nullable[p.LHS] {
					ff.nullable[p.LHS] = true
					changed = true
				}
				continue
			}

			allNullableSoFar := true
			for _, sym := range p.RHS {
				if allNullableSoFar {
					before := ff.first[p.LHS].Len()
					ff.first[p.LHS].AddAll(ff.first[sym])
					if ff.first[p.LHS].Len() != before {
						changed = true
					}
				}
				if !ff.isNullable(sym) {
					allNullableSoFar = false
					break
				}
			}
			if allNullableSoFar && !ff.nullable[p.LHS] {
				ff.nullable[p.LHS] = true
				changed = true
			}
		}
	}

	// FOLLOW fixed point. FOLLOW($ of start) isn't separately tracked here;
	// the table builder handles the augmented production's own FOLLOW
	// (which is just {$}) directly.
	ff.follow[g.Start] = util.KeySetOf([]lex.Kind{lex.DOLLAR})

	changed = true
	for changed {
		changed = false
		for _, p := range g.Productions {
			for i, B := range p.RHS {
				if B.Terminal() {
					continue
				}
				beta := p.RHS[i+1:]
				firstBeta, betaNullable := ff.firstOfSequence(beta)

				before := ff.follow[B].Len()
				ff.follow[B].AddAll(firstBeta)
				if betaNullable {
					ff.follow[B].AddAll(ff.follow[p.LHS])
				}
				if ff.follow[B].Len() != before {
					changed = true
				}
			}
		}
	}

	return ff
}

func (ff FirstFollow) isNullable(sym lex.Kind) bool {
	if sym.Terminal() {
		return false
	}
	return ff.nullable[sym]
}

// firstOfSequence returns FIRST(gamma) (excluding epsilon) and whether gamma
// is entirely nullable.
func (ff FirstFollow) firstOfSequence(gamma []lex.Kind) (util.KeySet[lex.Kind], bool) {
	result := util.NewKeySet[lex.Kind]()
	for _, sym := range gamma {
		result.AddAll(ff.firstOf(sym))
		if !ff.isNullable(sym) {
			return result, false
		}
	}
	return result, true
}

// firstOf returns FIRST(sym), treating any terminal (even one that never
// appears in a production RHS, such as the sentinel DOLLAR used only in the
// augmented production) as trivially FIRST(sym) = {sym}.
func (ff FirstFollow) firstOf(sym lex.Kind) util.KeySet[lex.Kind] {
	if sym.Terminal() {
		return util.KeySetOf([]lex.Kind{sym})
	}
	return ff.first[sym]
}

// FirstOfSequence is the helper described in spec.md §4.3: FIRST(gamma), and
// if gamma is entirely nullable, the lookahead terminal is folded in too.
// This is exactly what LR(1) closure needs when computing the lookahead set
// for a predicted item [B -> .gamma, b] derived from [A -> alpha.B beta, a]:
// the new lookahead set is first_of_sequence(beta, a).
func (ff FirstFollow) FirstOfSequence(gamma []lex.Kind, lookahead lex.Kind) util.KeySet[lex.Kind] {
	first, nullable := ff.firstOfSequence(gamma)
	result := util.NewKeySet[lex.Kind]()
	result.AddAll(first)
	if nullable {
		result.Add(lookahead)
	}
	return result
}

// First returns FIRST(sym).
func (ff FirstFollow) First(sym lex.Kind) util.KeySet[lex.Kind] {
	return ff.first[sym]
}

// Follow returns FOLLOW(nt).
func (ff FirstFollow) Follow(nt lex.Kind) util.KeySet[lex.Kind] {
	return ff.follow[nt]
}

// Nullable reports whether sym can derive the empty string.
func (ff FirstFollow) Nullable(sym lex.Kind) bool {
	return ff.isNullable(sym)
}
