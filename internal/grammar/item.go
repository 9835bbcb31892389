package grammar

import (
	"fmt"

	"github.com/dekarrin/formulon/internal/lex"
)

// Item is an LR(1) item: a production (identified by ID, so Item stays a
// plain comparable value usable as a map key) with a dot position and a
// single lookahead terminal (spec.md §3, "LR(1) item"). Core is the
// (production, dot) pair shared by items that differ only in lookahead.
type Item struct {
	ProductionID int
	Dot          int
	Lookahead    lex.Kind
}

// Core identifies an item's (production, dot) pair, ignoring lookahead. Two
// items with equal cores are said to share a core (spec.md §3).
type Core struct {
	ProductionID int
	Dot          int
}

func (it Item) Core() Core {
	return Core{ProductionID: it.ProductionID, Dot: it.Dot}
}

// Complete reports whether the dot has reached the end of p's RHS, where p
// is the production this item's ProductionID names.
func (it Item) Complete(g Grammar) bool {
	return it.Dot >= len(g.ProductionByID(it.ProductionID).RHS)
}

// NextSymbol returns the grammar symbol immediately after the dot. ok is
// false if the item is complete.
func (it Item) NextSymbol(g Grammar) (lex.Kind, bool) {
	p := g.ProductionByID(it.ProductionID)
	if it.Dot >= len(p.RHS) {
		return 0, false
	}
	return p.RHS[it.Dot], true
}

// Advanced returns the item with the dot moved one position to the right.
func (it Item) Advanced() Item {
	return Item{ProductionID: it.ProductionID, Dot: it.Dot + 1, Lookahead: it.Lookahead}
}

func (it Item) String(g Grammar) string {
	p := g.ProductionByID(it.ProductionID)
	var left, right string
	for i, s := range p.RHS {
		if i < it.Dot {
			left += s.String() + " "
		} else {
			right += s.String() + " "
		}
	}
	return fmt.Sprintf("[%s -> %s. %s, %s]", p.LHS, left, right, it.Lookahead)
}
