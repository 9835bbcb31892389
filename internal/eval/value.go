// Package eval interprets a formula AST (internal/ast) against a binding
// map, per spec.md §4.6.
package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/dekarrin/formulon/internal/diag"
)

// ValueKind is the tag of a Value's active field.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindBoolean
	KindString
)

// Value is the evaluator's runtime value: a Number, Boolean, or String
// (spec.md §4.6). Bindings are Value maps; every AST node evaluates to one.
type Value struct {
	Kind ValueKind
	Num  float64
	Bool bool
	Str  string
}

func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }
func Boolean(v bool) Value { return Value{Kind: KindBoolean, Bool: v} }
func String(v string) Value { return Value{Kind: KindString, Str: v} }

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// toNumber implements spec.md §4.6's toNumber coercion: Number → itself;
// Boolean → 1.0/0.0; String → parsed double else CoercionError.
func toNumber(v Value) (float64, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindBoolean:
		if v.Bool {
			return 1.0, nil
		}
		return 0.0, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, diag.New(diag.CoercionError, "cannot coerce string "+strconv.Quote(v.Str)+" to number")
		}
		return f, nil
	default:
		return 0, diag.New(diag.CoercionError, "cannot coerce value to number")
	}
}

// toBool implements spec.md §4.6's toBool coercion: Boolean → itself;
// Number → nonzero and not NaN; String → non-empty and not one of the
// falsy sentinels, case-insensitively.
func toBool(v Value) bool {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Num != 0.0 && !math.IsNaN(v.Num)
	case KindString:
		if v.Str == "" {
			return false
		}
		switch strings.ToLower(v.Str) {
		case "false", "0", "null", "undefined":
			return false
		default:
			return true
		}
	default:
		return true
	}
}
