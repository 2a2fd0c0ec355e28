// Package compiler implements the parts of the spec that sit above the
// symbol table, expression evaluator, and quad emitter: the declaration &
// assignment façade (section 4.4), the control-flow quad driver (section
// 4.5), and the function machinery (section 4.6). It is the single
// `Compiler` context the parser drives as a sequence of grammar-production
// callbacks, replacing the original's scattered global functions and
// process-wide state (symtable, label counters, switch/return stacks) with
// fields of one context, per SPEC_FULL.md's restructuring of
// internal/semantic/analyzer.go's orchestrator role into a single-pass
// driver.
package compiler

import (
	"fmt"
	"io"
	"sort"

	"github.com/quadlang/quadc/internal/diag"
	"github.com/quadlang/quadc/internal/emit"
	"github.com/quadlang/quadc/internal/expr"
	"github.com/quadlang/quadc/internal/symtab"
	"github.com/quadlang/quadc/internal/types"
)

// Param is a single function-parameter declaration (name, type).
type Param struct {
	Name string
	Type types.Tag
}

type returnFrame struct {
	Name        string
	Scope       int
	ReturnType  types.Tag
	HasReturned bool
}

// Compiler is the core context described in section 5 (Concurrency &
// Resource Model): all mutable analysis state lives here, serialised by
// the parser's sequential invocation of its methods.
type Compiler struct {
	ST   *symtab.SymbolTable
	Em   *emit.Emitter
	Diag *diag.Bag

	returnStack     []returnFrame
	switchTypeStack []types.Tag
}

// New creates a Compiler ready to be driven by a parser.
func New(em *emit.Emitter, d *diag.Bag) *Compiler {
	return &Compiler{ST: symtab.New(), Em: em, Diag: d}
}

func (c *Compiler) scopeErr(line int, err error) error {
	return c.Diag.Error(line, "%s", err.Error())
}

// ---------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------

// EnterScope pushes a new lexical scope.
func (c *Compiler) EnterScope() { c.ST.EnterScope() }

// LeaveScope pops the current scope, warning on every identifier in it
// that was declared but never used, per section 4.3.
func (c *Compiler) LeaveScope(line int) {
	c.ST.LeaveScope(func(id *symtab.Identifier) {
		c.Diag.Warning(line, "Identifier '%s' defined in L#%d has never been used.", id.Name, id.DeclaredLine)
	})
}

// ---------------------------------------------------------------------
// Declarations (section 4.4)
// ---------------------------------------------------------------------

// VarIdentifier declares an uninitialised, mutable variable of a primitive
// type.
func (c *Compiler) VarIdentifier(name string, tag types.Tag, line int) error {
	id := &symtab.Identifier{Name: name, Kind: symtab.Variable, DeclaredLine: line, VarType: tag}
	if err := c.ST.Declare(id); err != nil {
		return c.scopeErr(line, err)
	}
	return nil
}

// ConstVarIdentifier declares a constant whose value is already known at
// compile time. It requires e.Type == tag and e.IsConst.
func (c *Compiler) ConstVarIdentifier(name string, tag types.Tag, e expr.Expression, line int) error {
	if e.Type != tag {
		return c.Diag.Error(line, "Type mismatch in constant declaration. Expected %s but got %s.", tag.Name(), e.Type.Name())
	}
	if !e.IsConst {
		return c.Diag.Error(line, "A non-constant expression doesn't have a compile-time known value.")
	}
	id := &symtab.Identifier{
		Name: name, Kind: symtab.Variable, DeclaredLine: line,
		VarType: tag, IsConst: true, IsInitialized: true, Value: e.Value,
	}
	if err := c.ST.Declare(id); err != nil {
		return c.scopeErr(line, err)
	}
	return nil
}

// FuncParamIdentifier declares a function parameter: a variable considered
// initialised on entry.
func (c *Compiler) FuncParamIdentifier(name string, tag types.Tag, line int) error {
	id := &symtab.Identifier{Name: name, Kind: symtab.Variable, DeclaredLine: line, VarType: tag, IsInitialized: true}
	if err := c.ST.Declare(id); err != nil {
		return c.scopeErr(line, err)
	}
	return nil
}

// EnumTypeIdentifier declares a named enum type with its (unique) ordered
// variant names.
func (c *Compiler) EnumTypeIdentifier(name string, variants []string, line int) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if seen[v] {
			return c.Diag.Error(line, "Enum '%s' declares duplicate variant '%s'.", name, v)
		}
		seen[v] = true
	}
	id := &symtab.Identifier{Name: name, Kind: symtab.EnumType, DeclaredLine: line, Variants: variants}
	if err := c.ST.Declare(id); err != nil {
		return c.scopeErr(line, err)
	}
	return nil
}

// EnumVarIdentifier declares a variable whose type is a previously
// declared enum type.
func (c *Compiler) EnumVarIdentifier(name, enumTypeName string, line int) error {
	if _, err := c.ST.Lookup(enumTypeName, symtab.EnumType); err != nil {
		return c.scopeErr(line, err)
	}
	id := &symtab.Identifier{Name: name, Kind: symtab.EnumVariant, DeclaredLine: line, EnumTypeName: enumTypeName}
	if err := c.ST.Declare(id); err != nil {
		return c.scopeErr(line, err)
	}
	return nil
}

// declaredType returns the effective type of a variable-shaped identifier
// for assignment/read compatibility checks: EnumRef for an enum-typed
// variable, its VarType otherwise.
func declaredType(id *symtab.Identifier) types.Tag {
	if id.Kind == symtab.EnumVariant {
		return types.EnumRef
	}
	return id.VarType
}

// ---------------------------------------------------------------------
// Reads, calls, assignment (section 4.4)
// ---------------------------------------------------------------------

// GetExprForVariable reads a variable, warning if it is used before being
// initialised, marking it used, and emitting its PUSH quad.
func (c *Compiler) GetExprForVariable(name string, line int) (expr.Expression, error) {
	id, err := c.ST.Lookup(name, symtab.Variable)
	if err != nil {
		return expr.Expression{}, c.scopeErr(line, err)
	}
	if !id.IsInitialized {
		c.Diag.Warning(line, "Variable '%s' is being used without being initialized", name)
	}
	id.IsUsed = true
	c.Em.PushVar(name, id.DeclaredScope)

	if id.Kind == symtab.EnumVariant {
		return expr.Expression{Type: expr.EnumRef, EnumTypeName: id.EnumTypeName}, nil
	}
	return expr.Expression{Type: id.VarType, IsConst: id.IsConst, Value: id.Value}, nil
}

// EnumVariantExpr resolves a qualified enum-variant reference such as
// Color.Red: the variant must exist on the named enum type, which is
// marked used. Emits the variant's PUSH.
func (c *Compiler) EnumVariantExpr(enumTypeName, variantName string, line int) (expr.Expression, error) {
	id, err := c.ST.Lookup(enumTypeName, symtab.EnumType)
	if err != nil {
		return expr.Expression{}, c.scopeErr(line, err)
	}
	found := false
	for _, v := range id.Variants {
		if v == variantName {
			found = true
			break
		}
	}
	if !found {
		return expr.Expression{}, c.Diag.Error(line, "Enum '%s' does not contain variant '%s'.", enumTypeName, variantName)
	}
	id.IsUsed = true
	return expr.EnumExpr(enumTypeName, enumTypeName+"."+variantName, c.Em), nil
}

// GetExprForFuncInvocation validates an argument-type list against a
// function's declared signature, emits the CALL, and returns the return
// expression.
func (c *Compiler) GetExprForFuncInvocation(name string, argTypes []types.Tag, line int) (expr.Expression, error) {
	id, err := c.ST.Lookup(name, symtab.Function)
	if err != nil {
		return expr.Expression{}, c.scopeErr(line, err)
	}
	if len(id.ParamTypes) != len(argTypes) {
		return expr.Expression{}, c.Diag.Error(line, "Function '%s' expects %d arguments, but %d were provided.", name, len(id.ParamTypes), len(argTypes))
	}
	for i, t := range argTypes {
		if t != id.ParamTypes[i] {
			return expr.Expression{}, c.Diag.Error(line, "Argument N#%d of function '%s' is %s, but %s was provided.", i+1, name, id.ParamTypes[i].Name(), t.Name())
		}
	}
	id.IsUsed = true
	c.Em.Call(name, id.DeclaredScope)
	return expr.Expression{Type: id.ReturnType, IsConst: false}, nil
}

// AssignExprToVariable stores e into the named variable: the target must
// not be constant, enum-typed targets require a matching enum type, and
// any other type mismatch between numeric types triggers a conversion
// quad rather than a fatal error.
func (c *Compiler) AssignExprToVariable(e expr.Expression, name string, line int) error {
	id, err := c.ST.Lookup(name, symtab.Variable)
	if err != nil {
		return c.scopeErr(line, err)
	}
	if id.IsConst {
		return c.Diag.Error(line, "Cannot assign to constant '%s'.", name)
	}

	target := declaredType(id)
	switch {
	case target == types.EnumRef && e.Type == types.EnumRef:
		if id.EnumTypeName != e.EnumTypeName {
			return c.Diag.Error(line, "'%s' of enum type '%s' cannot be assigned an expression of enum type '%s'.", name, id.EnumTypeName, e.EnumTypeName)
		}
	case target != e.Type:
		if target.IsNumeric() && e.Type.IsNumeric() {
			if target == types.Real {
				c.Em.Int2Real()
			} else {
				c.Em.Real2Int()
			}
		} else {
			return c.Diag.Error(line, "Variable '%s' declared in L#%d of type %s can't be assigned %s.", name, id.DeclaredLine, target.Name(), e.Type.Name())
		}
	}

	c.Em.PopVar(name, id.DeclaredScope)
	id.IsInitialized = true
	id.Value = e.Value
	return nil
}

// ---------------------------------------------------------------------
// Control flow (section 4.5)
// ---------------------------------------------------------------------

func (c *Compiler) checkCondition(stmtKind string, cond expr.Expression, line int) error {
	if cond.Type != types.Logical {
		return c.Diag.Error(line, "%s statement's condition is %s but it must be %s.", stmtKind, cond.Type.Name(), types.Logical.Name())
	}
	if cond.IsConst {
		value := "false"
		if cond.Value.Logical {
			value = "true"
		}
		c.Diag.Warning(line, "%s statement's condition is always %s.", stmtKind, value)
	}
	return nil
}

func (c *Compiler) checkSwitchCondition(cond expr.Expression, line int) error {
	var value string
	switch {
	case cond.IsNum():
		if cond.Type == types.Integer {
			value = fmt.Sprintf("%d", cond.Value.Integer)
		} else {
			value = fmt.Sprintf("%g", cond.Value.Real)
		}
	case cond.Type == types.String:
		value = cond.Value.Str
	default:
		return c.Diag.Error(line, "Switch statement's condition is %s but it must be %s, %s or %s.", cond.Type.Name(), types.Integer.Name(), types.Real.Name(), types.String.Name())
	}
	if cond.IsConst {
		c.Diag.Warning(line, "Switch statement's condition is always %s.", value)
	}
	return nil
}

// BeginIf opens an if statement's quad block and emits the JZ past its
// then-body once cond is on the stack.
func (c *Compiler) BeginIf(cond expr.Expression, line int) (string, error) {
	c.Em.StartBlock("if")
	if err := c.checkCondition("If", cond, line); err != nil {
		return "", err
	}
	return c.Em.If(c.ST.CurrentScope()), nil
}

// Else closes the then-branch and opens the else-branch.
func (c *Compiler) Else(thenEndLabel string) string {
	return c.Em.Else(c.ST.CurrentScope(), thenEndLabel)
}

// EndIf closes an if (or if/else) statement.
func (c *Compiler) EndIf(label string) {
	c.Em.EndIf(label)
	c.Em.EndBlock("if")
}

// BeginWhile opens a while statement and emits its loop-head label.
func (c *Compiler) BeginWhile() string {
	c.Em.StartBlock("while")
	return c.Em.BeginWhile(c.ST.CurrentScope())
}

// CheckWhile validates the condition and emits the JZ out of the loop.
func (c *Compiler) CheckWhile(cond expr.Expression, line int) (string, error) {
	if err := c.checkCondition("While", cond, line); err != nil {
		return "", err
	}
	return c.Em.CheckWhile(c.ST.CurrentScope()), nil
}

// EndWhile closes a while statement.
func (c *Compiler) EndWhile(head, exit string) {
	c.Em.EndWhile(head, exit)
	c.Em.EndBlock("while")
}

// BeginRepeat opens a repeat statement and emits its loop-head label.
func (c *Compiler) BeginRepeat() string {
	c.Em.StartBlock("repeat")
	return c.Em.BeginRepeat(c.ST.CurrentScope())
}

// EndRepeat validates the until-condition and emits the back-edge JZ.
func (c *Compiler) EndRepeat(head string, cond expr.Expression, line int) error {
	if err := c.checkCondition("Repeat", cond, line); err != nil {
		return err
	}
	c.Em.EndRepeat(head)
	c.Em.EndBlock("repeat")
	return nil
}

// BeginFor opens a for statement, reserving its four labels.
func (c *Compiler) BeginFor() emit.ForLabels {
	c.Em.StartBlock("for")
	return c.Em.BeginFor(c.ST.CurrentScope())
}

// CheckFor emits the bound test once it is on the stack.
func (c *Compiler) CheckFor(lbl emit.ForLabels) {
	c.Em.CheckFor(lbl)
}

// ForBack closes the step section.
func (c *Compiler) ForBack(lbl emit.ForLabels) {
	c.Em.ForBack(lbl)
}

// EndFor closes the body section and the for statement.
func (c *Compiler) EndFor(lbl emit.ForLabels) {
	c.Em.EndFor(lbl)
	c.Em.EndBlock("for")
}

// BeginSwitch opens a switch statement and pushes its scrutinee's type.
func (c *Compiler) BeginSwitch(scrutinee expr.Expression, line int) error {
	c.Em.StartBlock("switch")
	if err := c.checkSwitchCondition(scrutinee, line); err != nil {
		return err
	}
	c.switchTypeStack = append(c.switchTypeStack, scrutinee.Type)
	c.Em.BeginSwitch(c.ST.CurrentScope())
	return nil
}

// CaseDup duplicates the scrutinee ahead of a case's equality test.
func (c *Compiler) CaseDup() { c.Em.CaseDup() }

// CaseCheck validates the case value's type against the switch's
// scrutinee type and emits the equality test plus its JZ.
func (c *Compiler) CaseCheck(caseValue expr.Expression, line int) (string, error) {
	want := c.switchTypeStack[len(c.switchTypeStack)-1]
	if caseValue.Type != want {
		return "", c.Diag.Error(line, "Case type mismatch. Expected %s, got %s.", want.Name(), caseValue.Type.Name())
	}
	return c.Em.CaseCheck(c.ST.CurrentScope()), nil
}

// EndCase closes a case body.
func (c *Compiler) EndCase(nextCase string) { c.Em.EndCase(nextCase) }

// EndSwitch closes a switch statement.
func (c *Compiler) EndSwitch() {
	c.switchTypeStack = c.switchTypeStack[:len(c.switchTypeStack)-1]
	c.Em.EndSwitch()
	c.Em.EndBlock("switch")
}

// ---------------------------------------------------------------------
// Functions (section 4.6)
// ---------------------------------------------------------------------

// BeginFunction declares a function at the current scope, emits its
// prologue, enters its scope, and declares its parameters as already
// initialised variables there.
func (c *Compiler) BeginFunction(name string, returnType types.Tag, params []Param, line int) error {
	paramTypes := make([]types.Tag, len(params))
	for i, p := range params {
		paramTypes[i] = p.Type
	}
	funcScope := c.ST.CurrentScope()
	id := &symtab.Identifier{
		Name: name, Kind: symtab.Function, DeclaredLine: line,
		ReturnType: returnType, ParamTypes: paramTypes,
	}
	if err := c.ST.Declare(id); err != nil {
		return c.scopeErr(line, err)
	}

	c.Em.BeginFunction(name, funcScope)
	c.ST.EnterScope()
	c.returnStack = append(c.returnStack, returnFrame{Name: name, Scope: funcScope, ReturnType: returnType})

	for _, p := range params {
		if err := c.FuncParamIdentifier(p.Name, p.Type, line); err != nil {
			return err
		}
	}
	return nil
}

// Return type-checks a return expression against the innermost function's
// declared return type and emits RET.
func (c *Compiler) Return(e expr.Expression, line int) error {
	top := &c.returnStack[len(c.returnStack)-1]
	if e.Type != top.ReturnType {
		return c.Diag.Error(line, "Return type mismatch. Expected %s, got %s.", top.ReturnType.Name(), e.Type.Name())
	}
	top.HasReturned = true
	c.Em.Ret()
	return nil
}

// EndFunction closes a function: if no return statement fired, it warns
// and synthesises a default return, then emits the function's end label,
// pops the return-type stack, and leaves the function's scope.
func (c *Compiler) EndFunction(line int) {
	top := c.returnStack[len(c.returnStack)-1]
	c.returnStack = c.returnStack[:len(c.returnStack)-1]

	if !top.HasReturned {
		c.Diag.Warning(line, "Function '%s' doesn't return anything.", top.Name)
		switch top.ReturnType {
		case types.Integer, types.Logical:
			c.Em.PushInt(0)
		case types.Real:
			c.Em.PushReal(0)
		case types.String:
			c.Em.PushString("")
		}
		c.Em.Ret()
	}

	c.Em.EndFunction(top.Name, top.Scope)
	c.LeaveScope(line)
}

// ---------------------------------------------------------------------
// Print and symbol-table log (section 4.7)
// ---------------------------------------------------------------------

// Print emits a PRINT of the already-evaluated expression on the stack.
func (c *Compiler) Print() { c.Em.Print() }

// LogSymbolTable writes the section 4.7 symbol-table dump: a separator, an
// "L#<line>:" header, the column header row, and one row per identifier
// across all live scopes, sorted by name within a scope to keep the log
// deterministic (std::map's sorted iteration in the original).
func (c *Compiler) LogSymbolTable(w io.Writer, line int) {
	fmt.Fprintf(w, "\t\t\t\t\t\t\t==================\n")
	fmt.Fprintf(w, "L#%d:\n", line)
	fmt.Fprintf(w, "Id. Name\t\tScope\tDec. Line\tIs Used\t\tIs Init.\tIs Const.\tValue\n")

	for _, frame := range c.ST.Frames() {
		names := make([]string, 0, len(frame))
		for name := range frame {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			id := frame[name]
			value := "-"
			if id.IsConst {
				value = types.Render(declaredType(id), id.Value)
			}
			fmt.Fprintf(w, "%s\t\t%d\t\t\t%d\t\t\t%t\t\t\t%t\t\t\t%t\t\t%s\n",
				id.Name, id.DeclaredScope, id.DeclaredLine, id.IsUsed, id.IsInitialized, id.IsConst, value)
		}
	}
}
