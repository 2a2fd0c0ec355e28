package types

import "testing"

func TestTagName(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{Logical, "a logical"},
		{Integer, "an integer"},
		{Real, "a float"},
		{String, "a string"},
		{EnumRef, "an enum"},
	}
	for _, tt := range tests {
		if got := tt.tag.Name(); got != tt.want {
			t.Errorf("Tag(%d).Name() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestTagIsNumeric(t *testing.T) {
	tests := []struct {
		tag  Tag
		want bool
	}{
		{Integer, true},
		{Real, true},
		{Logical, false},
		{String, false},
		{EnumRef, false},
	}
	for _, tt := range tests {
		if got := tt.tag.IsNumeric(); got != tt.want {
			t.Errorf("Tag(%d).IsNumeric() = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestNumericValue(t *testing.T) {
	if got := NumericValue(Integer, IntValue(7)); got != 7 {
		t.Errorf("NumericValue(Integer, 7) = %v, want 7", got)
	}
	if got := NumericValue(Real, RealValue(2.5)); got != 2.5 {
		t.Errorf("NumericValue(Real, 2.5) = %v, want 2.5", got)
	}
}

func TestNumericValuePanicsOnNonNumeric(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NumericValue to panic on a non-numeric tag")
		}
	}()
	NumericValue(String, StringValue("nope"))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		v    Value
		want string
	}{
		{"true", Logical, BoolValue(true), "true"},
		{"false", Logical, BoolValue(false), "false"},
		{"integer", Integer, IntValue(42), "42"},
		{"real", Real, RealValue(3.5), "3.5"},
		{"string", String, StringValue("hi"), `"hi"`},
		{"enum", EnumRef, Value{}, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.tag, tt.v); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
