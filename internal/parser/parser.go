// Package parser implements a single-pass recursive-descent parser that
// drives internal/compiler directly as each grammar production is
// recognised, with no intermediate AST: a syntax-directed translation in
// the spirit of the original Bison grammar's semantic actions, whose Flex/
// Bison sources were not part of the retrieved reference pack (see
// SPEC_FULL.md section 4).
//
// Syntax errors (a token that doesn't match what the grammar expects) are
// recoverable: they are counted on the STX channel and parsing continues
// by skipping the offending token. A semantic error from internal/compiler
// is fatal and aborts parsing immediately, per spec.md section 7.
package parser

import (
	"fmt"
	"strconv"

	"github.com/quadlang/quadc/internal/compiler"
	"github.com/quadlang/quadc/internal/expr"
	"github.com/quadlang/quadc/internal/lexer"
	"github.com/quadlang/quadc/internal/token"
	"github.com/quadlang/quadc/internal/types"
)

// Parser holds the two-token lookahead window over the lexer's stream and
// the compiler context every production drives.
type Parser struct {
	lex  *lexer.Lexer
	comp *compiler.Compiler

	cur  token.Token
	peek token.Token

	forCounter int // disambiguates hidden per-loop bound/step variable names
}

// New creates a Parser over src that drives comp.
func New(src string, comp *compiler.Compiler) *Parser {
	p := &Parser{lex: lexer.New(src), comp: comp}
	p.cur = p.lex.Next()
	p.peek = p.lex.Next()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) curText() string {
	if p.cur.Literal != "" {
		return p.cur.Literal
	}
	return token.Name(p.cur.Kind)
}

// expect consumes cur if it matches kind. On a mismatch it records a
// syntax error and skips the offending token so parsing always makes
// forward progress.
func (p *Parser) expect(kind token.Kind) bool {
	if p.cur.Kind == kind {
		p.advance()
		return true
	}
	p.comp.Diag.Syntax(p.cur.Pos.Line, p.curText())
	p.advance()
	return false
}

// Parse consumes the whole program, driving comp as it goes. It returns
// non-nil only when a semantic error aborted compilation; syntax errors
// are tallied in comp.Diag and do not stop the parse.
func (p *Parser) Parse() error {
	for p.cur.Kind != token.EOF {
		if err := p.topLevelItem(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) topLevelItem() error {
	switch p.cur.Kind {
	case token.ENUM:
		return p.enumDecl()
	case token.FUNC:
		return p.funcDecl()
	default:
		return p.statement()
	}
}

// ---------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------

func (p *Parser) parseType() (types.Tag, string) {
	switch p.cur.Kind {
	case token.INTEGER:
		p.advance()
		return types.Integer, ""
	case token.DOUBLE:
		p.advance()
		return types.Real, ""
	case token.STRING:
		p.advance()
		return types.String, ""
	case token.LOGICAL:
		p.advance()
		return types.Logical, ""
	case token.IDENT:
		name := p.cur.Literal
		p.advance()
		return types.EnumRef, name
	default:
		p.comp.Diag.Syntax(p.cur.Pos.Line, p.curText())
		p.advance()
		return types.Integer, ""
	}
}

func (p *Parser) varDecl() error {
	line := p.cur.Pos.Line
	p.advance() // 'var'
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.COLON)
	tag, enumName := p.parseType()

	var err error
	if tag == types.EnumRef {
		err = p.comp.EnumVarIdentifier(name, enumName, line)
	} else {
		err = p.comp.VarIdentifier(name, tag, line)
	}
	if err != nil {
		return err
	}

	if p.cur.Kind == token.ASSIGN {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		if err := p.comp.AssignExprToVariable(e, name, line); err != nil {
			return err
		}
	}
	p.expect(token.SEMI)
	return nil
}

func (p *Parser) constDecl() error {
	line := p.cur.Pos.Line
	p.advance() // 'const'
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.COLON)
	tag, _ := p.parseType()
	p.expect(token.ASSIGN)
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.comp.ConstVarIdentifier(name, tag, e, line); err != nil {
		return err
	}
	p.expect(token.SEMI)
	return nil
}

func (p *Parser) enumDecl() error {
	line := p.cur.Pos.Line
	p.advance() // 'enum'
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.LBRACE)

	var variants []string
	if p.cur.Kind != token.RBRACE {
		variants = append(variants, p.cur.Literal)
		p.expect(token.IDENT)
		for p.cur.Kind == token.COMMA {
			p.advance()
			variants = append(variants, p.cur.Literal)
			p.expect(token.IDENT)
		}
	}
	p.expect(token.RBRACE)
	return p.comp.EnumTypeIdentifier(name, variants, line)
}

func (p *Parser) funcDecl() error {
	line := p.cur.Pos.Line
	p.advance() // 'func'
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.LPAREN)

	var params []compiler.Param
	if p.cur.Kind != token.RPAREN {
		params = append(params, p.parseParam())
		for p.cur.Kind == token.COMMA {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.COLON)
	returnType, _ := p.parseType()

	if err := p.comp.BeginFunction(name, returnType, params, line); err != nil {
		return err
	}

	p.expect(token.BEGIN)
	for p.cur.Kind != token.END && p.cur.Kind != token.EOF {
		if err := p.statement(); err != nil {
			return err
		}
	}
	p.expect(token.END)

	p.comp.EndFunction(line)
	return nil
}

func (p *Parser) parseParam() compiler.Param {
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.COLON)
	tag, _ := p.parseType()
	return compiler.Param{Name: name, Type: tag}
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) statement() error {
	switch p.cur.Kind {
	case token.VAR:
		return p.varDecl()
	case token.CONST:
		return p.constDecl()
	case token.BEGIN:
		return p.block()
	case token.IF:
		return p.ifStmt()
	case token.WHILE:
		return p.whileStmt()
	case token.REPEAT:
		return p.repeatStmt()
	case token.FOR:
		return p.forStmt()
	case token.SWITCH:
		return p.switchStmt()
	case token.RETURN:
		return p.returnStmt()
	case token.PRINT:
		return p.printStmt()
	case token.SEMI:
		p.advance()
		return nil
	case token.IDENT:
		return p.assignStmt()
	default:
		p.comp.Diag.Syntax(p.cur.Pos.Line, p.curText())
		p.advance()
		return nil
	}
}

// block parses a "begin ... end" statement group as its own lexical scope.
func (p *Parser) block() error {
	line := p.cur.Pos.Line
	p.expect(token.BEGIN)
	p.comp.EnterScope()
	for p.cur.Kind != token.END && p.cur.Kind != token.EOF {
		if err := p.statement(); err != nil {
			p.comp.LeaveScope(line)
			return err
		}
	}
	p.expect(token.END)
	p.comp.LeaveScope(line)
	return nil
}

func (p *Parser) assignStmt() error {
	line := p.cur.Pos.Line
	name := p.cur.Literal
	p.advance()
	if !p.expect(token.ASSIGN) {
		return nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.expect(token.SEMI)
	return p.comp.AssignExprToVariable(e, name, line)
}

func (p *Parser) ifStmt() error {
	line := p.cur.Pos.Line
	p.advance() // 'if'
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.expect(token.THEN)

	label, err := p.comp.BeginIf(cond, line)
	if err != nil {
		return err
	}
	if err := p.statement(); err != nil {
		return err
	}
	if p.cur.Kind == token.ELSE {
		p.advance()
		label = p.comp.Else(label)
		if err := p.statement(); err != nil {
			return err
		}
	}
	p.comp.EndIf(label)
	return nil
}

func (p *Parser) whileStmt() error {
	p.advance() // 'while'
	head := p.comp.BeginWhile()
	line := p.cur.Pos.Line
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	exit, err := p.comp.CheckWhile(cond, line)
	if err != nil {
		return err
	}
	p.expect(token.DO)
	if err := p.statement(); err != nil {
		return err
	}
	p.comp.EndWhile(head, exit)
	return nil
}

func (p *Parser) repeatStmt() error {
	p.advance() // 'repeat'
	head := p.comp.BeginRepeat()
	for p.cur.Kind != token.UNTIL && p.cur.Kind != token.EOF {
		if err := p.statement(); err != nil {
			return err
		}
	}
	p.expect(token.UNTIL)
	line := p.cur.Pos.Line
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.comp.EndRepeat(head, cond, line); err != nil {
		return err
	}
	p.expect(token.SEMI)
	return nil
}

// forStmt compiles "for i := start to bound [step s] do body" using the
// existing loop variable (declared beforehand), in the assignment style
// the rest of the language already uses rather than introducing an
// implicit per-loop binding. The bound and step expressions are evaluated
// once at loop entry and cached in hidden scope-local variables, since a
// single-pass emitter with no AST can't re-walk their token stream on
// every iteration the way a re-evaluated-each-time condition would need.
func (p *Parser) forStmt() error {
	line := p.cur.Pos.Line
	p.advance() // 'for'
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	start, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.comp.AssignExprToVariable(start, name, line); err != nil {
		return err
	}
	p.expect(token.TO)
	bound, err := p.parseExpr()
	if err != nil {
		return err
	}

	p.forCounter++
	boundName := fmt.Sprintf("__bound%d", p.forCounter)
	if err := p.comp.VarIdentifier(boundName, bound.Type, line); err != nil {
		return err
	}
	if err := p.comp.AssignExprToVariable(bound, boundName, line); err != nil {
		return err
	}

	hasStep := false
	stepName := ""
	if p.cur.Kind == token.STEP {
		p.advance()
		hasStep = true
		step, err := p.parseExpr()
		if err != nil {
			return err
		}
		stepName = fmt.Sprintf("__step%d", p.forCounter)
		if err := p.comp.VarIdentifier(stepName, step.Type, line); err != nil {
			return err
		}
		if err := p.comp.AssignExprToVariable(step, stepName, line); err != nil {
			return err
		}
	}
	p.expect(token.DO)

	lbl := p.comp.BeginFor()

	loopVar, err := p.comp.GetExprForVariable(name, line)
	if err != nil {
		return err
	}
	boundVar, err := p.comp.GetExprForVariable(boundName, line)
	if err != nil {
		return err
	}
	if _, err := expr.Oper(loopVar, token.LTE, boundVar, p.comp.Em); err != nil {
		return p.comp.Diag.Error(line, "%s", err.Error())
	}
	p.comp.CheckFor(lbl)

	// Step section: i := i + step (default 1).
	cur, err := p.comp.GetExprForVariable(name, line)
	if err != nil {
		return err
	}
	var stepExpr expr.Expression
	if hasStep {
		stepExpr, err = p.comp.GetExprForVariable(stepName, line)
		if err != nil {
			return err
		}
	} else {
		stepExpr = expr.Literal(types.Integer, types.IntValue(1), p.comp.Em)
	}
	next, err := expr.Oper(cur, token.PLUS, stepExpr, p.comp.Em)
	if err != nil {
		return p.comp.Diag.Error(line, "%s", err.Error())
	}
	if err := p.comp.AssignExprToVariable(next, name, line); err != nil {
		return err
	}
	p.comp.ForBack(lbl)

	if err := p.statement(); err != nil {
		return err
	}
	p.comp.EndFor(lbl)
	return nil
}

func (p *Parser) switchStmt() error {
	line := p.cur.Pos.Line
	p.advance() // 'switch'
	scrutinee, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.comp.BeginSwitch(scrutinee, line); err != nil {
		return err
	}
	p.expect(token.BEGIN)

	for p.cur.Kind == token.CASE {
		p.advance()
		p.comp.CaseDup()
		caseLine := p.cur.Pos.Line
		caseVal, err := p.parseExpr()
		if err != nil {
			return err
		}
		nextCase, err := p.comp.CaseCheck(caseVal, caseLine)
		if err != nil {
			return err
		}
		p.expect(token.COLON)
		for p.cur.Kind != token.CASE && p.cur.Kind != token.DEFAULT && p.cur.Kind != token.ENDSWITCH && p.cur.Kind != token.EOF {
			if err := p.statement(); err != nil {
				return err
			}
		}
		p.comp.EndCase(nextCase)
	}
	if p.cur.Kind == token.DEFAULT {
		p.advance()
		p.expect(token.COLON)
		for p.cur.Kind != token.ENDSWITCH && p.cur.Kind != token.EOF {
			if err := p.statement(); err != nil {
				return err
			}
		}
	}
	p.expect(token.ENDSWITCH)
	p.comp.EndSwitch()
	return nil
}

func (p *Parser) returnStmt() error {
	line := p.cur.Pos.Line
	p.advance() // 'return'
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.expect(token.SEMI)
	return p.comp.Return(e, line)
}

func (p *Parser) printStmt() error {
	p.advance() // 'print'
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	_ = e
	p.expect(token.SEMI)
	p.comp.Print()
	return nil
}

// ---------------------------------------------------------------------
// Expressions (precedence climbing)
// ---------------------------------------------------------------------

func (p *Parser) parseExpr() (expr.Expression, error) { return p.parseOr() }

func (p *Parser) parseOr() (expr.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return expr.Expression{}, err
	}
	for p.cur.Kind == token.OR {
		line := p.cur.Pos.Line
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return expr.Expression{}, err
		}
		left, err = expr.Oper(left, token.OR, right, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
	}
	return left, nil
}

func (p *Parser) parseAnd() (expr.Expression, error) {
	left, err := p.parseEquality()
	if err != nil {
		return expr.Expression{}, err
	}
	for p.cur.Kind == token.AND {
		line := p.cur.Pos.Line
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return expr.Expression{}, err
		}
		left, err = expr.Oper(left, token.AND, right, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
	}
	return left, nil
}

func (p *Parser) parseEquality() (expr.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return expr.Expression{}, err
	}
	for p.cur.Kind == token.EQ || p.cur.Kind == token.NE {
		op := p.cur.Kind
		line := p.cur.Pos.Line
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return expr.Expression{}, err
		}
		left, err = expr.Oper(left, op, right, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
	}
	return left, nil
}

func (p *Parser) parseRelational() (expr.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return expr.Expression{}, err
	}
	for p.cur.Kind == token.LT || p.cur.Kind == token.GT || p.cur.Kind == token.LTE || p.cur.Kind == token.GTE {
		op := p.cur.Kind
		line := p.cur.Pos.Line
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return expr.Expression{}, err
		}
		left, err = expr.Oper(left, op, right, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (expr.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return expr.Expression{}, err
	}
	for p.cur.Kind == token.PLUS || p.cur.Kind == token.MINUS {
		op := p.cur.Kind
		line := p.cur.Pos.Line
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return expr.Expression{}, err
		}
		left, err = expr.Oper(left, op, right, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (expr.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return expr.Expression{}, err
	}
	for p.cur.Kind == token.MULT || p.cur.Kind == token.DIV {
		op := p.cur.Kind
		line := p.cur.Pos.Line
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return expr.Expression{}, err
		}
		left, err = expr.Oper(left, op, right, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
	}
	return left, nil
}

func (p *Parser) parseUnary() (expr.Expression, error) {
	switch p.cur.Kind {
	case token.MINUS:
		line := p.cur.Pos.Line
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return expr.Expression{}, err
		}
		result, err := expr.Neg(operand, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
		return result, nil
	case token.NOT:
		line := p.cur.Pos.Line
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return expr.Expression{}, err
		}
		result, err := expr.Complement(operand, p.comp.Em)
		if err != nil {
			return expr.Expression{}, p.comp.Diag.Error(line, "%s", err.Error())
		}
		return result, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (expr.Expression, error) {
	switch p.cur.Kind {
	case token.INT_LIT:
		v, _ := strconv.ParseInt(p.cur.Literal, 10, 64)
		p.advance()
		return expr.Literal(types.Integer, types.IntValue(v), p.comp.Em), nil
	case token.REAL_LIT:
		v, _ := strconv.ParseFloat(p.cur.Literal, 64)
		p.advance()
		return expr.Literal(types.Real, types.RealValue(v), p.comp.Em), nil
	case token.STRING_LIT:
		v := p.cur.Literal
		p.advance()
		return expr.Literal(types.String, types.StringValue(v), p.comp.Em), nil
	case token.TRUE:
		p.advance()
		return expr.Literal(types.Logical, types.BoolValue(true), p.comp.Em), nil
	case token.FALSE:
		p.advance()
		return expr.Literal(types.Logical, types.BoolValue(false), p.comp.Em), nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return expr.Expression{}, err
		}
		p.expect(token.RPAREN)
		return e, nil
	case token.IDENT:
		return p.parseIdentExpr()
	default:
		line := p.cur.Pos.Line
		p.comp.Diag.Syntax(line, p.curText())
		p.advance()
		return expr.Literal(types.Integer, types.IntValue(0), p.comp.Em), nil
	}
}

func (p *Parser) parseIdentExpr() (expr.Expression, error) {
	name := p.cur.Literal
	line := p.cur.Pos.Line
	p.advance()

	switch p.cur.Kind {
	case token.DOT:
		p.advance()
		variant := p.cur.Literal
		p.expect(token.IDENT)
		return p.comp.EnumVariantExpr(name, variant, line)
	case token.LPAREN:
		p.advance()
		var args []expr.Expression
		if p.cur.Kind != token.RPAREN {
			arg, err := p.parseExpr()
			if err != nil {
				return expr.Expression{}, err
			}
			args = append(args, arg)
			for p.cur.Kind == token.COMMA {
				p.advance()
				arg, err := p.parseExpr()
				if err != nil {
					return expr.Expression{}, err
				}
				args = append(args, arg)
			}
		}
		p.expect(token.RPAREN)
		argTypes := make([]types.Tag, len(args))
		for i, a := range args {
			argTypes[i] = a.Type
		}
		return p.comp.GetExprForFuncInvocation(name, argTypes, line)
	default:
		return p.comp.GetExprForVariable(name, line)
	}
}
