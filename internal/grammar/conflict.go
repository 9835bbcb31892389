package grammar

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/formulon/internal/lex"
)

// Conflict records one ACTION-table cell where two competing actions were
// found while building a table (spec.md §4.4 step 7): a shift/reduce or
// reduce/reduce collision, along with what it was resolved to, or
// "unresolved" if precedence left it unresolved.
type Conflict struct {
	State      int
	On         lex.Kind
	Kind       string
	Resolution string
}

// ConflictReport collects every conflict encountered while building an
// ACTION/GOTO table, resolved or not, in the order table construction found
// them.
type ConflictReport struct {
	Conflicts []Conflict
}

// Add appends c to the report.
func (r *ConflictReport) Add(c Conflict) {
	r.Conflicts = append(r.Conflicts, c)
}

// Empty reports whether no conflicts were recorded.
func (r *ConflictReport) Empty() bool {
	return r == nil || len(r.Conflicts) == 0
}

// String renders the report as a table, one row per conflict, in the style
// of internal/parse's Table.Dump.
func (r *ConflictReport) String() string {
	if r.Empty() {
		return "no conflicts"
	}

	conflicts := make([]Conflict, len(r.Conflicts))
	copy(conflicts, r.Conflicts)
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].State != conflicts[j].State {
			return conflicts[i].State < conflicts[j].State
		}
		return conflicts[i].On < conflicts[j].On
	})

	data := [][]string{{"state", "on", "kind", "resolution"}}
	for _, c := range conflicts {
		data = append(data, []string{
			fmt.Sprintf("%d", c.State),
			c.On.String(),
			c.Kind,
			c.Resolution,
		})
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
