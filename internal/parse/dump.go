package parse

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/formulon/internal/grammar"
	"github.com/dekarrin/formulon/internal/lex"
)

// Dump renders the ACTION/GOTO table as a formatted text table for the
// "grammar dump" diagnostic CLI subcommand, in the style of
// internal/ictiobus/parse/lalr.go's own table dump.
func (t *Table) Dump(g grammar.Grammar) string {
	states := make([]int, 0, len(t.Action))
	for s := range t.Action {
		states = append(states, s)
	}
	sort.Ints(states)

	allTerms := append(append([]lex.Kind{}, g.Terminals...), lex.DOLLAR)

	data := [][]string{}

	headers := []string{"S", "|"}
	for _, term := range allTerms {
		headers = append(headers, fmt.Sprintf("A:%s", term))
	}
	headers = append(headers, "|")
	for _, nt := range g.NonTerminals {
		headers = append(headers, fmt.Sprintf("G:%s", nt))
	}
	data = append(data, headers)

	for _, s := range states {
		row := []string{fmt.Sprintf("%d", s), "|"}

		for _, term := range allTerms {
			cell := ""
			if act, ok := t.Action[s][term]; ok {
				switch act.Type {
				case Accept:
					cell = "acc"
				case Reduce:
					cell = fmt.Sprintf("r%d", act.Production.ID)
				case Shift:
					cell = fmt.Sprintf("s%d", act.State)
				}
			}
			row = append(row, cell)
		}

		row = append(row, "|")

		for _, nt := range g.NonTerminals {
			cell := ""
			if target, ok := t.Goto[s][nt]; ok {
				cell = fmt.Sprintf("%d", target)
			}
			row = append(row, cell)
		}

		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
