package parse

import (
	"fmt"

	"github.com/dekarrin/formulon/internal/grammar"
)

// ActionType is the kind of entry found in an ACTION table cell.
type ActionType int

const (
	Error ActionType = iota
	Shift
	Reduce
	Accept
)

func (t ActionType) String() string {
	switch t {
	case Shift:
		return "shift"
	case Reduce:
		return "reduce"
	case Accept:
		return "accept"
	default:
		return "error"
	}
}

// Action is a single ACTION table cell: shift to State, reduce by
// Production, or accept. The zero value is Error.
type Action struct {
	Type       ActionType
	State      int
	Production grammar.Production
}

func (a Action) String() string {
	switch a.Type {
	case Shift:
		return fmt.Sprintf("shift %d", a.State)
	case Reduce:
		return fmt.Sprintf("reduce %s", a.Production)
	case Accept:
		return "accept"
	default:
		return "error"
	}
}
