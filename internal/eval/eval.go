package eval

import (
	"math"

	"github.com/dekarrin/formulon/internal/ast"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/lex"
)

// Bindings is the variable environment an evaluation runs against.
type Bindings map[string]Value

// Warning is a non-fatal issue surfaced only in non-strict mode, where a
// coercion that would otherwise raise CoercionError instead falls back to a
// default value (spec.md §6: strictMode "surface[s] coercion warnings as
// errors", implying the converse in non-strict mode).
type Warning struct {
	Kind    diag.Kind
	Message string
}

// Evaluate interprets root against bindings and returns its value, any
// warnings accumulated in non-strict mode, and a fatal error if evaluation
// could not complete.
func Evaluate(root ast.Node, bindings Bindings, strict bool) (Value, []Warning, error) {
	c := &evaluator{bindings: bindings, strict: strict}
	v, err := c.eval(root)
	return v, c.warnings, err
}

type evaluator struct {
	bindings Bindings
	strict   bool
	warnings []Warning
}

func (c *evaluator) eval(n ast.Node) (Value, error) {
	switch v := n.(type) {
	case ast.Number:
		return Number(v.Value), nil

	case ast.Boolean:
		return Boolean(v.Value), nil

	case ast.Variable:
		val, ok := c.bindings[v.Name]
		if !ok {
			return Value{}, diag.NewAt(diag.UndefinedVariable, "undefined variable "+v.Name, v.Position)
		}
		return val, nil

	case ast.UnaryOp:
		return c.evalUnary(v)

	case ast.BinaryOp:
		return c.evalBinary(v)

	case ast.If:
		cond, err := c.eval(v.Cond)
		if err != nil {
			return Value{}, err
		}
		if toBool(cond) {
			return c.eval(v.Then)
		}
		return c.eval(v.Else)

	case ast.FunctionCall:
		return c.evalCall(v)

	default:
		return Value{}, diag.NewAt(diag.AstBuilderError, "unevaluable node", n.Pos())
	}
}

func (c *evaluator) evalUnary(n ast.UnaryOp) (Value, error) {
	operand, err := c.eval(n.Operand)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case lex.MINUS:
		num, err := c.toNumber(operand, n.Position)
		if err != nil {
			return Value{}, err
		}
		return Number(-num), nil
	case lex.PLUS:
		num, err := c.toNumber(operand, n.Position)
		if err != nil {
			return Value{}, err
		}
		return Number(num), nil
	case lex.NOT:
		return Boolean(!toBool(operand)), nil
	default:
		return Value{}, diag.NewAt(diag.AstBuilderError, "unknown unary operator", n.Position)
	}
}

func (c *evaluator) evalBinary(n ast.BinaryOp) (Value, error) {
	left, err := c.eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := c.eval(n.Right)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case lex.PLUS:
		if left.Kind == KindString && right.Kind == KindString {
			return String(left.Str + right.Str), nil
		}
		return c.arith(left, right, n.Position, func(a, b float64) (float64, error) { return a + b, nil })
	case lex.MINUS:
		return c.arith(left, right, n.Position, func(a, b float64) (float64, error) { return a - b, nil })
	case lex.MULTIPLY:
		return c.arith(left, right, n.Position, func(a, b float64) (float64, error) { return a * b, nil })
	case lex.DIVIDE:
		return c.arith(left, right, n.Position, func(a, b float64) (float64, error) {
			if b == 0.0 {
				return 0, diag.NewAt(diag.DivisionByZero, "division by zero", n.Position)
			}
			return a / b, nil
		})
	case lex.MODULO:
		return c.arith(left, right, n.Position, func(a, b float64) (float64, error) {
			if b == 0.0 {
				return 0, diag.NewAt(diag.DivisionByZero, "modulo by zero", n.Position)
			}
			return math.Mod(a, b), nil
		})
	case lex.POWER:
		return c.arith(left, right, n.Position, func(a, b float64) (float64, error) { return math.Pow(a, b), nil })

	case lex.EQUAL:
		return Boolean(valuesEqual(left, right)), nil
	case lex.NOT_EQUAL:
		return Boolean(!valuesEqual(left, right)), nil

	case lex.LESS, lex.LESS_EQUAL, lex.GREATER, lex.GREATER_EQUAL:
		a, err := c.toNumber(left, n.Position)
		if err != nil {
			return Value{}, err
		}
		b, err := c.toNumber(right, n.Position)
		if err != nil {
			return Value{}, err
		}
		switch n.Op {
		case lex.LESS:
			return Boolean(a < b), nil
		case lex.LESS_EQUAL:
			return Boolean(a <= b), nil
		case lex.GREATER:
			return Boolean(a > b), nil
		default:
			return Boolean(a >= b), nil
		}

	case lex.AND:
		// Strict, non-short-circuit: both sides already evaluated above.
		return Boolean(toBool(left) && toBool(right)), nil
	case lex.OR:
		return Boolean(toBool(left) || toBool(right)), nil

	default:
		return Value{}, diag.NewAt(diag.AstBuilderError, "unknown binary operator", n.Position)
	}
}

func (c *evaluator) arith(left, right Value, pos lex.Position, op func(a, b float64) (float64, error)) (Value, error) {
	a, err := c.toNumber(left, pos)
	if err != nil {
		return Value{}, err
	}
	b, err := c.toNumber(right, pos)
	if err != nil {
		return Value{}, err
	}
	result, err := op(a, b)
	if err != nil {
		return Value{}, err
	}
	return Number(result), nil
}

// epsilon is the tolerance spec.md §4.6 mandates for numeric equality.
const epsilon = 1e-10

func valuesEqual(a, b Value) bool {
	if a.Kind == KindString && b.Kind == KindString {
		return a.Str == b.Str
	}
	if a.Kind == KindBoolean && b.Kind == KindBoolean {
		return a.Bool == b.Bool
	}
	an, aErr := toNumber(a)
	bn, bErr := toNumber(b)
	if aErr != nil || bErr != nil {
		return false
	}
	return math.Abs(an-bn) < epsilon
}

// toNumber coerces v, downgrading a CoercionError to a Warning (falling
// back to 0.0) when the evaluator is running in non-strict mode.
func (c *evaluator) toNumber(v Value, pos lex.Position) (float64, error) {
	n, err := toNumber(v)
	if err != nil {
		if c.strict {
			if de, ok := err.(*diag.Error); ok {
				return 0, diag.NewAt(de.Kind, de.Message, pos)
			}
			return 0, err
		}
		c.warnings = append(c.warnings, Warning{Kind: diag.CoercionError, Message: err.Error()})
		return 0, nil
	}
	return n, nil
}
