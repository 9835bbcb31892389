package eval

import (
	"math"
	"strconv"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/util"
)

// knownFunctions lists the built-in names evalCall dispatches on, used to
// build the "unknown function" error's suggestion list.
var knownFunctions = []string{"ABS", "SQRT", "ROUND", "MIN", "MAX", "SUM", "AVG", "AVERAGE", "IF"}

func (c *evaluator) evalCall(n ast.FunctionCall) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := c.eval(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	nums := func() ([]float64, error) {
		out := make([]float64, len(args))
		for i, a := range args {
			v, err := c.toNumber(a, n.Position)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch n.Name {
	case "ABS":
		if err := arity(n, 1); err != nil {
			return Value{}, err
		}
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		return Number(math.Abs(vs[0])), nil

	case "SQRT":
		if err := arity(n, 1); err != nil {
			return Value{}, err
		}
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		return Number(math.Sqrt(vs[0])), nil

	case "ROUND":
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		switch len(vs) {
		case 1:
			return Number(roundHalfAwayFromZero(vs[0])), nil
		case 2:
			places := math.Pow(10, vs[1])
			return Number(roundHalfAwayFromZero(vs[0]*places) / places), nil
		default:
			return Value{}, diag.NewAt(diag.FunctionError, "ROUND takes 1 or 2 arguments", n.Position)
		}

	case "MIN":
		if err := arityAtLeast(n, 1); err != nil {
			return Value{}, err
		}
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		m := vs[0]
		for _, v := range vs[1:] {
			if v < m {
				m = v
			}
		}
		return Number(m), nil

	case "MAX":
		if err := arityAtLeast(n, 1); err != nil {
			return Value{}, err
		}
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		m := vs[0]
		for _, v := range vs[1:] {
			if v > m {
				m = v
			}
		}
		return Number(m), nil

	case "SUM":
		if err := arityAtLeast(n, 1); err != nil {
			return Value{}, err
		}
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		var sum float64
		for _, v := range vs {
			sum += v
		}
		return Number(sum), nil

	case "AVG", "AVERAGE":
		if err := arityAtLeast(n, 1); err != nil {
			return Value{}, err
		}
		vs, err := nums()
		if err != nil {
			return Value{}, err
		}
		var sum float64
		for _, v := range vs {
			sum += v
		}
		return Number(sum / float64(len(vs))), nil

	case "IF":
		if err := arity(n, 3); err != nil {
			return Value{}, err
		}
		cond, err := c.eval(n.Args[0])
		if err != nil {
			return Value{}, err
		}
		if toBool(cond) {
			return c.eval(n.Args[1])
		}
		return c.eval(n.Args[2])

	default:
		msg := "unknown function " + n.Name + "; known functions are " + util.MakeTextList(append([]string{}, knownFunctions...))
		return Value{}, diag.NewAt(diag.FunctionError, msg, n.Position)
	}
}

func arity(n ast.FunctionCall, want int) error {
	if len(n.Args) != want {
		return diag.NewAt(diag.FunctionError, n.Name+" requires exactly "+strconv.Itoa(want)+" argument(s)", n.Position)
	}
	return nil
}

func arityAtLeast(n ast.FunctionCall, min int) error {
	if len(n.Args) < min {
		return diag.NewAt(diag.FunctionError, n.Name+" requires at least "+strconv.Itoa(min)+" argument(s)", n.Position)
	}
	return nil
}

// roundHalfAwayFromZero implements spec.md §4.6's chosen ROUND tie-breaking
// rule, matching math.Round's own documented behavior.
func roundHalfAwayFromZero(v float64) float64 {
	return math.Round(v)
}
