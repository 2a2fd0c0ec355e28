// Package emit implements the control-flow quad emitter of section 4.5 of
// the spec: a per-scope label allocator and the structured emission of the
// six control-flow patterns (if, if/else, while, repeat, for, switch) plus
// function prologue/epilogue quads, grounded in original_source/quads.hpp's
// macro set and in the teacher's internal/bytecode package for the overall
// "emitter type wrapping an io.Writer" shape.
package emit

import (
	"fmt"
	"io"
	"strconv"
)

// Emitter writes the line-oriented stack-IR described in section 4.5 and
// section 6 (tab-indented instructions, flush-left labels terminated with
// ':', C-style quoted strings).
type Emitter struct {
	w       io.Writer
	labels  map[int]int // per-scope monotonically increasing label counter
	switchT []string    // stack of switch exit-label names, innermost last
}

// New creates an Emitter writing to w.
func New(w io.Writer) *Emitter {
	return &Emitter{w: w, labels: make(map[int]int)}
}

func (e *Emitter) instr(format string, args ...interface{}) {
	fmt.Fprintf(e.w, "\t"+format+"\n", args...)
}

func (e *Emitter) label(name string) {
	fmt.Fprintf(e.w, "%s:\n", name)
}

// nextLabel allocates the next label number within scope and returns its
// rendered name, per section 3's `s<scope>_l<counter>` scheme.
func (e *Emitter) nextLabel(scope int) string {
	e.labels[scope]++
	return fmt.Sprintf("s%d_l%d", scope, e.labels[scope])
}

// ---------------------------------------------------------------------
// Block markers
// ---------------------------------------------------------------------

// StartBlock emits the opening `/* kind statement */` comment marker.
func (e *Emitter) StartBlock(kind string) {
	fmt.Fprintf(e.w, "\n\n/* %s statement */\n", kind)
}

// EndBlock emits the closing `/* kind statement */` comment marker.
func (e *Emitter) EndBlock(kind string) {
	fmt.Fprintf(e.w, "/* %s statement */\n\n", kind)
}

// ---------------------------------------------------------------------
// Stack primitives and operator opcodes (also satisfy expr.Emitter)
// ---------------------------------------------------------------------

func (e *Emitter) PushInt(v int64)     { e.instr("PUSH %d", v) }
func (e *Emitter) PushReal(v float64)  { e.instr("PUSH %v", v) }
func (e *Emitter) PushBool(v bool) {
	if v {
		e.instr("PUSH true")
	} else {
		e.instr("PUSH false")
	}
}
func (e *Emitter) PushString(s string) { e.instr("PUSH %s", strconv.Quote(s)) }

func (e *Emitter) Pop()      { e.instr("POP") }
func (e *Emitter) Dup()      { e.instr("DUP") }
func (e *Emitter) PopTemp()  { e.instr("POP tmp") }
func (e *Emitter) PushTemp() { e.instr("PUSH tmp") }

func (e *Emitter) Int2Real() { e.instr("INT2REAL") }
func (e *Emitter) Real2Int() { e.instr("REAL2INT") }

func (e *Emitter) Neg() { e.instr("NEG") }
func (e *Emitter) Not() { e.instr("NOT") }

func (e *Emitter) Plus()  { e.instr("PLUS") }
func (e *Emitter) Minus() { e.instr("MINUS") }
func (e *Emitter) Mult()  { e.instr("MULT") }
func (e *Emitter) Div()   { e.instr("DIV") }

func (e *Emitter) Lt()   { e.instr("LT") }
func (e *Emitter) Gt()   { e.instr("GT") }
func (e *Emitter) Lteq() { e.instr("LTEQ") }
func (e *Emitter) Gteq() { e.instr("GTEQ") }
func (e *Emitter) Eq()   { e.instr("EQ") }
func (e *Emitter) Neq()  { e.instr("NEQ") }
func (e *Emitter) And()  { e.instr("AND") }
func (e *Emitter) Or()   { e.instr("OR") }

func (e *Emitter) Print() { e.instr("PRINT") }

// ---------------------------------------------------------------------
// Variables, calls, functions
// ---------------------------------------------------------------------

// PushVar emits a PUSH of a scope-qualified variable reference.
func (e *Emitter) PushVar(name string, scope int) { e.instr("PUSH v_%s%d", name, scope) }

// PopVar emits a POP storing into a scope-qualified variable reference.
func (e *Emitter) PopVar(name string, scope int) { e.instr("POP v_%s%d", name, scope) }

// Call emits a CALL to a scope-qualified function reference.
func (e *Emitter) Call(name string, scope int) { e.instr("CALL f_%s%d", name, scope) }

// Ret emits a RET.
func (e *Emitter) Ret() { e.instr("RET") }

// BeginFunction emits the function prologue: a JMP over the body to the
// function's end label, followed by the DEF label the CALL opcode targets.
func (e *Emitter) BeginFunction(name string, scope int) {
	e.instr("JMP fend_%s%d", name, scope)
	e.label(fmt.Sprintf("DEF f_%s%d", name, scope))
}

// EndFunction emits the function's end label, the target of the prologue's
// JMP that skips over the function body.
func (e *Emitter) EndFunction(name string, scope int) {
	e.label(fmt.Sprintf("LABEL fend_%s%d", name, scope))
}

// ---------------------------------------------------------------------
// if / if-else
// ---------------------------------------------------------------------

// If emits the JZ past the then-body once the condition is on the stack,
// and returns the label to close with EndIf (or to redirect to Else).
func (e *Emitter) If(scope int) (endLabel string) {
	endLabel = e.nextLabel(scope)
	e.instr("JZ %s", endLabel)
	return endLabel
}

// Else emits the JMP past the else-body and the label the then-body's JZ
// jumps to, returning the new end label to close with EndIf.
func (e *Emitter) Else(scope int, thenEndLabel string) (endLabel string) {
	endLabel = e.nextLabel(scope)
	e.instr("JMP %s", endLabel)
	e.label(fmt.Sprintf("LABEL %s", thenEndLabel))
	return endLabel
}

// EndIf emits the closing label for an if or if/else statement.
func (e *Emitter) EndIf(label string) {
	e.label(fmt.Sprintf("LABEL %s", label))
}

// ---------------------------------------------------------------------
// while
// ---------------------------------------------------------------------

// BeginWhile emits the loop-head label and returns it.
func (e *Emitter) BeginWhile(scope int) (head string) {
	head = e.nextLabel(scope)
	e.label(fmt.Sprintf("LABEL %s", head))
	return head
}

// CheckWhile emits the JZ out of the loop once the condition is on the
// stack, and returns the exit label.
func (e *Emitter) CheckWhile(scope int) (exit string) {
	exit = e.nextLabel(scope)
	e.instr("JZ %s", exit)
	return exit
}

// EndWhile emits the back-edge jump to head and the exit label.
func (e *Emitter) EndWhile(head, exit string) {
	e.instr("JMP %s", head)
	e.label(fmt.Sprintf("LABEL %s", exit))
}

// ---------------------------------------------------------------------
// repeat
// ---------------------------------------------------------------------

// BeginRepeat emits the loop-head label and returns it.
func (e *Emitter) BeginRepeat(scope int) (head string) {
	head = e.nextLabel(scope)
	e.label(fmt.Sprintf("LABEL %s", head))
	return head
}

// EndRepeat emits the JZ back to head once the until-condition is on the
// stack: the loop repeats while the condition is false (the inverse of
// while), per section 4.5.
func (e *Emitter) EndRepeat(head string) {
	e.instr("JZ %s", head)
}

// ---------------------------------------------------------------------
// for
// ---------------------------------------------------------------------

// ForLabels holds the four labels a for-loop reserves up front, per the
// spec's section 9 recommendation that the original's offset arithmetic
// (lbl+1, lbl+2, lbl+3) be replaced with an explicit up-front reservation.
type ForLabels struct {
	Head     string // re-checks the bound each iteration
	Continue string // loop body entry point
	Step     string // runs the increment, then jumps back to Head
	Exit     string // falls out of the loop
}

// BeginFor reserves all four for-loop labels and emits the head label.
func (e *Emitter) BeginFor(scope int) ForLabels {
	lbl := ForLabels{
		Head:     e.nextLabel(scope),
		Continue: e.nextLabel(scope),
		Step:     e.nextLabel(scope),
		Exit:     e.nextLabel(scope),
	}
	e.label(fmt.Sprintf("LABEL %s", lbl.Head))
	return lbl
}

// CheckFor emits the bound test once the comparison is on the stack: JZ
// exits the loop, otherwise control falls through to a JMP straight into
// the body (skipping the step on the loop's first pass), followed by the
// step label so the step expression's quads land right after it.
func (e *Emitter) CheckFor(lbl ForLabels) {
	e.instr("JZ %s", lbl.Exit)
	e.instr("JMP %s", lbl.Continue)
	e.label(fmt.Sprintf("LABEL %s", lbl.Step))
}

// ForBack closes the step section: after the increment quads, jump back to
// Head to re-test the bound, then open the body label.
func (e *Emitter) ForBack(lbl ForLabels) {
	e.instr("JMP %s", lbl.Head)
	e.label(fmt.Sprintf("LABEL %s", lbl.Continue))
}

// EndFor closes the body: after the body's quads, jump to Step to run the
// increment, then place the exit label.
func (e *Emitter) EndFor(lbl ForLabels) {
	e.instr("JMP %s", lbl.Step)
	e.label(fmt.Sprintf("LABEL %s", lbl.Exit))
}

// ---------------------------------------------------------------------
// switch / case
// ---------------------------------------------------------------------

// BeginSwitch reserves the switch's exit label and pushes it onto the
// switch stack so nested `case` blocks can find their enclosing switch.
func (e *Emitter) BeginSwitch(scope int) {
	e.switchT = append(e.switchT, e.nextLabel(scope))
}

// CaseDup duplicates the scrutinee so the upcoming equality test doesn't
// consume the copy later cases still need.
func (e *Emitter) CaseDup() { e.Dup() }

// CaseCheck emits the equality test against the duplicated scrutinee and
// the JZ to skip this case's body, returning the label to close with
// EndCase.
func (e *Emitter) CaseCheck(scope int) (nextCase string) {
	e.Eq()
	nextCase = e.nextLabel(scope)
	e.instr("JZ %s", nextCase)
	return nextCase
}

// EndCase closes a case body: jump to the switch's exit, then open the
// label the next case's CaseCheck jumps to on a non-match.
func (e *Emitter) EndCase(nextCase string) {
	e.instr("JMP %s", e.switchT[len(e.switchT)-1])
	e.label(fmt.Sprintf("LABEL %s", nextCase))
}

// EndSwitch emits the exit label, pops the switch stack, and discards the
// scrutinee that every case's duplicate left behind.
func (e *Emitter) EndSwitch() {
	exit := e.switchT[len(e.switchT)-1]
	e.switchT = e.switchT[:len(e.switchT)-1]
	e.label(fmt.Sprintf("LABEL %s", exit))
	e.Pop()
}
