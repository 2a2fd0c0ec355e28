// Package types implements the value and type model of section 4.1 of the
// spec: a closed type tag together with a value struct, re-architected
// from the original C++ union-plus-flag pattern. The tag is carried
// alongside the value and selects which of its fields is meaningful; Go
// does not check the switches over it for exhaustiveness.
package types

import (
	"fmt"

	"github.com/quadlang/quadc/internal/token"
)

// Tag is the closed set of expression/identifier types.
type Tag int

const (
	Logical Tag = iota
	Integer
	Real
	String
	EnumRef
)

// TokenKind maps a Tag back to its token.Kind for diagnostics rendering.
func (t Tag) TokenKind() token.Kind {
	switch t {
	case Logical:
		return token.LOGICAL
	case Integer:
		return token.INTEGER
	case Real:
		return token.DOUBLE
	case String:
		return token.STRING
	case EnumRef:
		return token.ENUM_TYPE_DECLARATION
	default:
		return token.ILLEGAL
	}
}

// Name renders the diagnostics-facing name for a type tag.
func (t Tag) Name() string {
	return token.Name(t.TokenKind())
}

// IsNumeric reports whether the tag is Integer or Real.
func (t Tag) IsNumeric() bool {
	return t == Integer || t == Real
}

// Value is a tagged union carrying exactly one payload, matching section 3's
// Value V. The zero Value is only meaningful when paired with an Expression
// whose IsConst is false — callers must never read a field without checking
// the owning tag first.
type Value struct {
	Logical bool
	Integer int64
	Real    float64
	Str     string
}

// BoolValue builds a Logical-tagged Value.
func BoolValue(b bool) Value { return Value{Logical: b} }

// IntValue builds an Integer-tagged Value.
func IntValue(i int64) Value { return Value{Integer: i} }

// RealValue builds a Real-tagged Value.
func RealValue(f float64) Value { return Value{Real: f} }

// StringValue builds a String-tagged Value. The string is owned outright by
// the Value, unlike the original's raw-pointer-backed `value.str`.
func StringValue(s string) Value { return Value{Str: s} }

// NumericValue returns the Value interpreted as a float64, given its tag.
// It panics if tag is not numeric; callers must check IsNumeric first since
// this mirrors a compile-time-checked invariant, not a runtime input.
func NumericValue(tag Tag, v Value) float64 {
	switch tag {
	case Integer:
		return float64(v.Integer)
	case Real:
		return v.Real
	default:
		panic(fmt.Sprintf("NumericValue called on non-numeric tag %v", tag))
	}
}

// Render formats a constant Value for the symbol-table log: booleans as
// true/false, strings double-quoted, numbers in their natural form.
func Render(tag Tag, v Value) string {
	switch tag {
	case Logical:
		if v.Logical {
			return "true"
		}
		return "false"
	case Integer:
		return fmt.Sprintf("%d", v.Integer)
	case Real:
		return fmt.Sprintf("%g", v.Real)
	case String:
		return fmt.Sprintf("%q", v.Str)
	default:
		return "-"
	}
}
