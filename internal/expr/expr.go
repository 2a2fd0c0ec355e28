// Package expr implements the expression evaluator of section 4.2 of the
// spec: building Expression records, applying unary/binary operators,
// propagating constness, performing numeric promotion, and emitting the
// conversion quads that promotion requires.
//
// Expressions are transient: they are built while a grammar production is
// reduced and consumed by the very next semantic action, never retained
// past the statement that produced them.
package expr

import (
	"fmt"

	"github.com/quadlang/quadc/internal/token"
	"github.com/quadlang/quadc/internal/types"
)

// Emitter is the subset of the quad emitter the evaluator needs to drive
// directly: literal pushes, the INT2REAL/REAL2INT promotion pair, and the
// runtime opcode for every unary/binary operator. Kept as a narrow
// interface here so that expr does not import internal/emit;
// *emit.Emitter satisfies it.
type Emitter interface {
	PushInt(int64)
	PushReal(float64)
	PushBool(bool)
	PushString(string)
	PopTemp()
	PushTemp()
	Int2Real()
	Real2Int()
	Neg()
	Not()
	Plus()
	Minus()
	Mult()
	Div()
	Lt()
	Gt()
	Lteq()
	Gteq()
	Eq()
	Neq()
	And()
	Or()
}

// Expression is the record described in section 3: a type tag, a constness
// flag, a value meaningful only when IsConst, and the enum type name when
// Type is types.EnumRef.
type Expression struct {
	Type         types.Tag
	IsConst      bool
	Value        types.Value
	EnumTypeName string
}

// IsNum reports whether the expression's type is numeric (Integer or Real).
func (e Expression) IsNum() bool { return e.Type.IsNumeric() }

// num returns the expression's value as a float64; callers must have
// already checked IsNum.
func (e Expression) num() float64 { return types.NumericValue(e.Type, e.Value) }

// Literal builds a constant expression of a primitive type and emits the
// matching PUSH quad, since the emitted instruction stream always carries
// every operand regardless of whether it was later folded for diagnostics.
func Literal(tag types.Tag, v types.Value, em Emitter) Expression {
	switch tag {
	case Integer:
		em.PushInt(v.Integer)
	case Real:
		em.PushReal(v.Real)
	case Logical:
		em.PushBool(v.Logical)
	case String:
		em.PushString(v.Str)
	}
	return Expression{Type: tag, IsConst: true, Value: v}
}

// Aliases so call sites can write expr.Integer instead of types.Integer.
const (
	Logical = types.Logical
	Integer = types.Integer
	Real    = types.Real
	String  = types.String
	EnumRef = types.EnumRef
)

// EnumExpr builds a non-constant EnumRef expression for a fully-qualified
// enum variant reference (e.g. "Color.Red") and emits its PUSH, matching
// the original's check_and_get_static_enum_code which resolves a variant
// reference into a "Type.Variant" code string pushed as a runtime constant.
func EnumExpr(enumTypeName, code string, em Emitter) Expression {
	em.PushString(code)
	return Expression{Type: EnumRef, IsConst: false, EnumTypeName: enumTypeName}
}

// Neg negates a numeric expression in place, emitting NEG.
func Neg(e Expression, em Emitter) (Expression, error) {
	if e.Type != Integer && e.Type != Real {
		return Expression{}, fmt.Errorf("Cannot negate %s.", e.Type.Name())
	}
	em.Neg()
	if e.IsConst {
		if e.Type == Integer {
			e.Value.Integer = -e.Value.Integer
		} else {
			e.Value.Real = -e.Value.Real
		}
	}
	return e, nil
}

// Complement logically negates a Logical expression, emitting NOT.
func Complement(e Expression, em Emitter) (Expression, error) {
	if e.Type != Logical {
		return Expression{}, fmt.Errorf("Cannot logically complement %s.", e.Type.Name())
	}
	em.Not()
	if e.IsConst {
		e.Value.Logical = !e.Value.Logical
	}
	return e, nil
}

// Oper applies a binary operator between left and right, returning the
// result expression. The result is constant iff both operands are
// constant, per section 4.2's constness propagation rule. Any type
// mismatch is a fatal semantic error citing token.Name(op) and the two
// operand type names.
func Oper(left Expression, op token.Kind, right Expression, em Emitter) (Expression, error) {
	isConst := left.IsConst && right.IsConst

	switch op {
	case token.PLUS, token.MINUS, token.MULT, token.DIV:
		return arithmetic(left, op, right, em, isConst)
	case token.LT, token.GT, token.LTE, token.GTE:
		return relational(left, op, right, em, isConst)
	case token.EQ, token.NE:
		return equality(left, op, right, em, isConst)
	case token.AND, token.OR:
		return logical(left, op, right, em, isConst)
	default:
		return Expression{}, fmt.Errorf("Operation %s cannot be performed between %s and %s.", token.Name(op), left.Type.Name(), right.Type.Name())
	}
}

// promote emits exactly the conversion quad(s) the promotion table in
// section 4.2 calls for and returns the two operand values promoted to a
// common numeric representation, plus the result type.
func promote(left, right Expression, em Emitter) (resultType types.Tag, lf, rf float64) {
	switch {
	case left.Type == Integer && right.Type == Integer:
		return Integer, float64(left.Value.Integer), float64(right.Value.Integer)
	case left.Type == Real && right.Type == Real:
		return Real, left.Value.Real, right.Value.Real
	case left.Type == Integer && right.Type == Real:
		em.PopTemp()
		em.Int2Real()
		em.PushTemp()
		return Real, float64(left.Value.Integer), right.Value.Real
	default: // Real, Integer
		em.Int2Real()
		return Real, left.Value.Real, float64(right.Value.Integer)
	}
}

func arithmetic(left Expression, op token.Kind, right Expression, em Emitter, isConst bool) (Expression, error) {
	if !left.IsNum() || !right.IsNum() {
		return Expression{}, fmt.Errorf("Operation %s cannot be performed between %s and %s.", token.Name(op), left.Type.Name(), right.Type.Name())
	}

	resultType, lf, rf := promote(left, right, em)

	switch op {
	case token.PLUS:
		em.Plus()
	case token.MINUS:
		em.Minus()
	case token.MULT:
		em.Mult()
	case token.DIV:
		em.Div()
	}

	result := Expression{Type: resultType, IsConst: isConst}
	if isConst {
		if resultType == Integer {
			li, ri := int64(lf), int64(rf)
			switch op {
			case token.PLUS:
				result.Value.Integer = li + ri
			case token.MINUS:
				result.Value.Integer = li - ri
			case token.MULT:
				result.Value.Integer = li * ri
			case token.DIV:
				if ri == 0 {
					// Division by zero in constant folding is not checked
					// by the original; we simply decline to fold further
					// rather than crash the compiler itself (see
					// SPEC_FULL.md's Open Questions).
					result.IsConst = false
					return result, nil
				}
				result.Value.Integer = li / ri
			}
		} else {
			switch op {
			case token.PLUS:
				result.Value.Real = lf + rf
			case token.MINUS:
				result.Value.Real = lf - rf
			case token.MULT:
				result.Value.Real = lf * rf
			case token.DIV:
				result.Value.Real = lf / rf
			}
		}
	}
	return result, nil
}

func relational(left Expression, op token.Kind, right Expression, em Emitter, isConst bool) (Expression, error) {
	if !left.IsNum() || !right.IsNum() {
		return Expression{}, fmt.Errorf("Operation %s cannot be performed between %s and %s.", token.Name(op), left.Type.Name(), right.Type.Name())
	}
	_, lf, rf := promote(left, right, em)

	var result bool
	switch op {
	case token.LT:
		em.Lt()
		result = lf < rf
	case token.GT:
		em.Gt()
		result = lf > rf
	case token.LTE:
		em.Lteq()
		result = lf <= rf
	case token.GTE:
		em.Gteq()
		result = lf >= rf
	}
	return Expression{Type: Logical, IsConst: isConst, Value: types.BoolValue(result)}, nil
}

func equality(left Expression, op token.Kind, right Expression, em Emitter, isConst bool) (Expression, error) {
	var result bool
	switch {
	case left.IsNum() && right.IsNum():
		_, lf, rf := promote(left, right, em)
		if op == token.EQ {
			em.Eq()
			result = lf == rf
		} else {
			em.Neq()
			result = lf != rf
		}
	case left.Type == String && right.Type == String:
		if op == token.EQ {
			em.Eq()
			result = left.Value.Str == right.Value.Str
		} else {
			em.Neq()
			result = left.Value.Str != right.Value.Str
		}
	case left.Type == EnumRef && right.Type == EnumRef:
		if left.EnumTypeName != right.EnumTypeName {
			return Expression{}, fmt.Errorf("Enum '%s' and '%s' are incompatible for comparison.", left.EnumTypeName, right.EnumTypeName)
		}
		if op == token.EQ {
			em.Eq()
		} else {
			em.Neq()
		}
		isConst = false // enum identity is never folded: no literal payload to compare.
	default:
		return Expression{}, fmt.Errorf("Operation %s cannot be performed between %s and %s.", token.Name(op), left.Type.Name(), right.Type.Name())
	}
	return Expression{Type: Logical, IsConst: isConst, Value: types.BoolValue(result)}, nil
}

func logical(left Expression, op token.Kind, right Expression, em Emitter, isConst bool) (Expression, error) {
	if left.Type != Logical || right.Type != Logical {
		return Expression{}, fmt.Errorf("Operation %s cannot be performed between %s and %s.", token.Name(op), left.Type.Name(), right.Type.Name())
	}
	var result bool
	if op == token.AND {
		em.And()
		result = left.Value.Logical && right.Value.Logical
	} else {
		em.Or()
		result = left.Value.Logical || right.Value.Logical
	}
	return Expression{Type: Logical, IsConst: isConst, Value: types.BoolValue(result)}, nil
}
