package expr

import (
	"testing"

	"github.com/quadlang/quadc/internal/token"
	"github.com/quadlang/quadc/internal/types"
)

// recordingEmitter satisfies Emitter and records the name of every call it
// receives, so tests can assert on emission order without going through
// internal/emit's string formatting.
type recordingEmitter struct {
	calls []string
}

func (r *recordingEmitter) PushInt(v int64)    { r.calls = append(r.calls, "PushInt") }
func (r *recordingEmitter) PushReal(v float64) { r.calls = append(r.calls, "PushReal") }
func (r *recordingEmitter) PushBool(v bool)    { r.calls = append(r.calls, "PushBool") }
func (r *recordingEmitter) PushString(s string) { r.calls = append(r.calls, "PushString") }
func (r *recordingEmitter) PopTemp()           { r.calls = append(r.calls, "PopTemp") }
func (r *recordingEmitter) PushTemp()          { r.calls = append(r.calls, "PushTemp") }
func (r *recordingEmitter) Int2Real()          { r.calls = append(r.calls, "Int2Real") }
func (r *recordingEmitter) Real2Int()          { r.calls = append(r.calls, "Real2Int") }
func (r *recordingEmitter) Neg()               { r.calls = append(r.calls, "Neg") }
func (r *recordingEmitter) Not()               { r.calls = append(r.calls, "Not") }
func (r *recordingEmitter) Plus()              { r.calls = append(r.calls, "Plus") }
func (r *recordingEmitter) Minus()             { r.calls = append(r.calls, "Minus") }
func (r *recordingEmitter) Mult()              { r.calls = append(r.calls, "Mult") }
func (r *recordingEmitter) Div()               { r.calls = append(r.calls, "Div") }
func (r *recordingEmitter) Lt()                { r.calls = append(r.calls, "Lt") }
func (r *recordingEmitter) Gt()                { r.calls = append(r.calls, "Gt") }
func (r *recordingEmitter) Lteq()              { r.calls = append(r.calls, "Lteq") }
func (r *recordingEmitter) Gteq()              { r.calls = append(r.calls, "Gteq") }
func (r *recordingEmitter) Eq()                { r.calls = append(r.calls, "Eq") }
func (r *recordingEmitter) Neq()               { r.calls = append(r.calls, "Neq") }
func (r *recordingEmitter) And()               { r.calls = append(r.calls, "And") }
func (r *recordingEmitter) Or()                { r.calls = append(r.calls, "Or") }

func TestLiteralEmitsMatchingPush(t *testing.T) {
	tests := []struct {
		tag  types.Tag
		v    types.Value
		want string
	}{
		{Integer, types.IntValue(1), "PushInt"},
		{Real, types.RealValue(1.5), "PushReal"},
		{Logical, types.BoolValue(true), "PushBool"},
		{String, types.StringValue("hi"), "PushString"},
	}
	for _, tt := range tests {
		em := &recordingEmitter{}
		Literal(tt.tag, tt.v, em)
		if len(em.calls) != 1 || em.calls[0] != tt.want {
			t.Errorf("Literal(%v) calls = %v, want [%s]", tt.tag, em.calls, tt.want)
		}
	}
}

func TestOperConstantFolding(t *testing.T) {
	em := &recordingEmitter{}
	left := Literal(Integer, types.IntValue(3), em)
	right := Literal(Integer, types.IntValue(4), em)

	result, err := Oper(left, token.PLUS, right, em)
	if err != nil {
		t.Fatalf("Oper() error = %v", err)
	}
	if !result.IsConst || result.Value.Integer != 7 {
		t.Errorf("result = %+v, want constant 7", result)
	}
}

func TestOperPromotesIntToReal(t *testing.T) {
	em := &recordingEmitter{}
	left := Literal(Integer, types.IntValue(2), em)
	right := Literal(Real, types.RealValue(1.5), em)
	em.calls = nil

	result, err := Oper(left, token.PLUS, right, em)
	if err != nil {
		t.Fatalf("Oper() error = %v", err)
	}
	if result.Type != Real {
		t.Errorf("result.Type = %v, want Real", result.Type)
	}
	if result.Value.Real != 3.5 {
		t.Errorf("result.Value.Real = %v, want 3.5", result.Value.Real)
	}
	wantCalls := []string{"PopTemp", "Int2Real", "PushTemp", "Plus"}
	if len(em.calls) != len(wantCalls) {
		t.Fatalf("calls = %v, want %v", em.calls, wantCalls)
	}
	for i, c := range wantCalls {
		if em.calls[i] != c {
			t.Errorf("calls[%d] = %s, want %s", i, em.calls[i], c)
		}
	}
}

func TestOperDivisionByZeroDeclinesToFold(t *testing.T) {
	em := &recordingEmitter{}
	left := Literal(Integer, types.IntValue(5), em)
	right := Literal(Integer, types.IntValue(0), em)

	result, err := Oper(left, token.DIV, right, em)
	if err != nil {
		t.Fatalf("Oper() error = %v", err)
	}
	if result.IsConst {
		t.Error("expected division by zero to not be folded")
	}
}

func TestOperTypeMismatchFails(t *testing.T) {
	em := &recordingEmitter{}
	left := Literal(Integer, types.IntValue(1), em)
	right := Literal(String, types.StringValue("x"), em)

	_, err := Oper(left, token.PLUS, right, em)
	if err == nil {
		t.Fatal("expected an error adding an integer and a string")
	}
}

func TestNegOnlyAppliesToNumeric(t *testing.T) {
	em := &recordingEmitter{}
	n := Literal(Integer, types.IntValue(5), em)
	result, err := Neg(n, em)
	if err != nil {
		t.Fatalf("Neg() error = %v", err)
	}
	if result.Value.Integer != -5 {
		t.Errorf("Neg(5) = %d, want -5", result.Value.Integer)
	}

	s := Literal(String, types.StringValue("x"), em)
	if _, err := Neg(s, em); err == nil {
		t.Fatal("expected an error negating a string")
	}
}

func TestComplementOnlyAppliesToLogical(t *testing.T) {
	em := &recordingEmitter{}
	b := Literal(Logical, types.BoolValue(true), em)
	result, err := Complement(b, em)
	if err != nil {
		t.Fatalf("Complement() error = %v", err)
	}
	if result.Value.Logical != false {
		t.Errorf("Complement(true) = %v, want false", result.Value.Logical)
	}

	n := Literal(Integer, types.IntValue(1), em)
	if _, err := Complement(n, em); err == nil {
		t.Fatal("expected an error complementing an integer")
	}
}

func TestEqualityBetweenIncompatibleEnumsFails(t *testing.T) {
	em := &recordingEmitter{}
	a := EnumExpr("Color", "Color.Red", em)
	b := EnumExpr("Shape", "Shape.Circle", em)
	if _, err := Oper(a, token.EQ, b, em); err == nil {
		t.Fatal("expected an error comparing two different enum types")
	}
}

func TestEqualityBetweenSameEnumSucceeds(t *testing.T) {
	em := &recordingEmitter{}
	a := EnumExpr("Color", "Color.Red", em)
	b := EnumExpr("Color", "Color.Green", em)
	result, err := Oper(a, token.EQ, b, em)
	if err != nil {
		t.Fatalf("Oper() error = %v", err)
	}
	if result.IsConst {
		t.Error("enum identity comparisons are never constant-folded")
	}
}
