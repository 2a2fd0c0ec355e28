package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/quadlang/quadc/internal/compiler"
	"github.com/quadlang/quadc/internal/diag"
	"github.com/quadlang/quadc/internal/emit"
)

// compile runs src through a fresh Parser/Compiler and returns the emitted
// quad stream and the diagnostics written to stderr.
func compile(t *testing.T, src string) (quad, stderr string, err error) {
	t.Helper()
	var quadBuf, errBuf bytes.Buffer
	em := emit.New(&quadBuf)
	d := diag.NewBag(&errBuf, nil, nil)
	c := compiler.New(em, d)
	p := New(src, c)
	err = p.Parse()
	return quadBuf.String(), errBuf.String(), err
}

func TestParseVarDeclAndAssign(t *testing.T) {
	quad, stderr, err := compile(t, `var x: int := 1; x := x + 2;`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if stderr != "" {
		t.Fatalf("unexpected diagnostics: %s", stderr)
	}
	snaps.MatchSnapshot(t, "vardecl_quad", quad)
}

func TestParseIfElse(t *testing.T) {
	quad, stderr, err := compile(t, `
var x: int := 0;
if x < 10 then
	x := 1;
else
	x := 2;
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if stderr != "" {
		t.Fatalf("unexpected diagnostics: %s", stderr)
	}
	snaps.MatchSnapshot(t, "ifelse_quad", quad)
}

func TestParseWhileLoop(t *testing.T) {
	quad, _, err := compile(t, `
var i: int := 0;
while i < 5 do
	i := i + 1;
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	snaps.MatchSnapshot(t, "while_quad", quad)
}

func TestParseForLoopWithStep(t *testing.T) {
	quad, _, err := compile(t, `
var i: int := 0;
for i := 0 to 10 step 2 do
	i := i;
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	snaps.MatchSnapshot(t, "for_step_quad", quad)
}

func TestParseFunctionDeclAndCall(t *testing.T) {
	quad, _, err := compile(t, `
func add(a: int, b: int): int
begin
	return a + b;
end

var r: int := add(1, 2);
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	snaps.MatchSnapshot(t, "function_quad", quad)
}

func TestParseEnumDeclAndVariantRef(t *testing.T) {
	quad, stderr, err := compile(t, `
enum Color { Red, Green, Blue }
var c: Color := Color.Green;
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if stderr != "" {
		t.Fatalf("unexpected diagnostics: %s", stderr)
	}
	snaps.MatchSnapshot(t, "enum_quad", quad)
}

func TestParseSwitchStatement(t *testing.T) {
	quad, _, err := compile(t, `
var x: int := 1;
switch x begin
case 1:
	x := 10;
case 2:
	x := 20;
default:
	x := 0;
endswitch
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	snaps.MatchSnapshot(t, "switch_quad", quad)
}

func TestParseSemanticErrorAborts(t *testing.T) {
	_, stderr, err := compile(t, `var x: int := 1; x := "oops";`)
	if err == nil {
		t.Fatal("expected a fatal semantic error")
	}
	if !strings.Contains(stderr, "SEM-E") {
		t.Fatalf("expected SEM-E diagnostic, got: %s", stderr)
	}
}

func TestParseSyntaxErrorIsRecoverable(t *testing.T) {
	quad, stderr, err := compile(t, `var x int := 1; var y: int := 2;`)
	if err != nil {
		t.Fatalf("a syntax error must not be fatal, got: %v", err)
	}
	if !strings.Contains(stderr, "STX") {
		t.Fatalf("expected STX diagnostic, got: %s", stderr)
	}
	if quad == "" {
		t.Fatal("expected quad emission to continue past the syntax error")
	}
}

func TestParseUndeclaredVariableIsFatal(t *testing.T) {
	_, stderr, err := compile(t, `x := 1;`)
	if err == nil {
		t.Fatal("expected a fatal semantic error for an undeclared variable")
	}
	if !strings.Contains(stderr, "has not been declared before") {
		t.Fatalf("unexpected diagnostic: %s", stderr)
	}
}
