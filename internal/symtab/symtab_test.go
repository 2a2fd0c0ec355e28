package symtab

import (
	"testing"

	"github.com/quadlang/quadc/internal/types"
)

func TestDeclareAndLookupInSameScope(t *testing.T) {
	st := New()
	id := &Identifier{Name: "x", Kind: Variable, VarType: types.Integer, DeclaredLine: 1}
	if err := st.Declare(id); err != nil {
		t.Fatalf("Declare() error = %v", err)
	}

	got, err := st.Lookup("x", Variable)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got != id {
		t.Errorf("Lookup() returned a different identifier")
	}
}

func TestDeclareDuplicateInSameScopeFails(t *testing.T) {
	st := New()
	st.Declare(&Identifier{Name: "x", Kind: Variable, DeclaredLine: 1})
	err := st.Declare(&Identifier{Name: "x", Kind: Variable, DeclaredLine: 2})
	if err == nil {
		t.Fatal("expected an error redeclaring 'x' in the same scope")
	}
}

func TestLookupFindsOuterScope(t *testing.T) {
	st := New()
	st.Declare(&Identifier{Name: "x", Kind: Variable, DeclaredLine: 1})
	st.EnterScope()
	defer st.LeaveScope(func(*Identifier) {})

	got, err := st.Lookup("x", Variable)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Name != "x" {
		t.Errorf("Lookup() = %v, want x", got.Name)
	}
}

func TestInnerScopeShadowsOuter(t *testing.T) {
	st := New()
	st.Declare(&Identifier{Name: "x", Kind: Variable, VarType: types.Integer, DeclaredLine: 1})
	st.EnterScope()
	st.Declare(&Identifier{Name: "x", Kind: Variable, VarType: types.String, DeclaredLine: 2})

	got, _ := st.Lookup("x", Variable)
	if got.VarType != types.String {
		t.Errorf("Lookup() found the outer 'x', want the inner shadow")
	}
	if got.DeclaredScope != 1 {
		t.Errorf("DeclaredScope = %d, want 1", got.DeclaredScope)
	}
}

func TestLookupUndeclaredFails(t *testing.T) {
	st := New()
	_, err := st.Lookup("missing", Variable)
	if err == nil {
		t.Fatal("expected an error looking up an undeclared identifier")
	}
}

func TestLookupWrongKindFails(t *testing.T) {
	st := New()
	st.Declare(&Identifier{Name: "f", Kind: Function, DeclaredLine: 1})
	_, err := st.Lookup("f", EnumType)
	if err == nil {
		t.Fatal("expected an error looking up a function as an enum type")
	}
}

func TestLookupVariableAcceptsEnumVariant(t *testing.T) {
	st := New()
	st.Declare(&Identifier{Name: "c", Kind: EnumVariant, EnumTypeName: "Color", DeclaredLine: 1})
	got, err := st.Lookup("c", Variable)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Kind != EnumVariant {
		t.Errorf("Lookup() returned Kind %v, want EnumVariant", got.Kind)
	}
}

func TestLeaveScopeReportsUnused(t *testing.T) {
	st := New()
	st.EnterScope()
	st.Declare(&Identifier{Name: "unused", Kind: Variable, DeclaredLine: 4})
	st.Declare(&Identifier{Name: "used", Kind: Variable, DeclaredLine: 5, IsUsed: true})

	var reported []string
	st.LeaveScope(func(id *Identifier) { reported = append(reported, id.Name) })

	if len(reported) != 1 || reported[0] != "unused" {
		t.Errorf("reported = %v, want [unused]", reported)
	}
}

func TestScopeOf(t *testing.T) {
	st := New()
	st.Declare(&Identifier{Name: "global", Kind: Variable, DeclaredLine: 1})
	st.EnterScope()
	st.Declare(&Identifier{Name: "local", Kind: Variable, DeclaredLine: 2})

	if got := st.ScopeOf("global"); got != 0 {
		t.Errorf("ScopeOf(global) = %d, want 0", got)
	}
	if got := st.ScopeOf("local"); got != 1 {
		t.Errorf("ScopeOf(local) = %d, want 1", got)
	}
	if got := st.ScopeOf("nope"); got != -1 {
		t.Errorf("ScopeOf(nope) = %d, want -1", got)
	}
}
