// Package parser implements the recursive-descent parser that turns a token
// stream into the statement sequence the resolver and interpreter consume.
//
// The grammar, precedence climbing via a cascade of per-precedence-level
// methods, and panic/recover-based statement-level error recovery follow the
// classic recursive-descent design, scaled to Lox's small grammar and to
// line-based diagnostics rather than byte-offset positions.
package parser

import (
	"fmt"

	"github.com/loxlang/loxi/internal/diag"
	"github.com/loxlang/loxi/lang/ast"
	"github.com/loxlang/loxi/lang/token"
)

const maxArgs = 255

// errParseMode is panicked to unwind to the nearest statement boundary after
// a syntax error is reported; it is always recovered within Parse and never
// escapes the package.
var errParseMode = fmt.Errorf("parse error")

// Parser consumes a token stream and produces a program (a slice of
// statements).
type Parser struct {
	toks []token.TokenAndValue
	rep  diag.Reporter
	pos  int
}

// New returns a Parser over toks (as produced by scanner.Scanner.ScanTokens),
// reporting syntax errors to rep.
func New(toks []token.TokenAndValue, rep diag.Reporter) *Parser {
	return &Parser{toks: toks, rep: rep}
}

// Parse parses the whole token stream and returns the program's statements.
// Parse errors are reported through the configured diag.Reporter; the
// caller should check Reporter.HadError() rather than any return value here.
func (p *Parser) Parse() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// --- token stream helpers ---

func (p *Parser) peek() token.TokenAndValue { return p.toks[p.pos] }
func (p *Parser) previous() token.TokenAndValue {
	return p.toks[p.pos-1]
}
func (p *Parser) isAtEnd() bool { return p.peek().Token == token.EOF }

func (p *Parser) check(tok token.Token) bool {
	if p.isAtEnd() {
		return tok == token.EOF
	}
	return p.peek().Token == tok
}

func (p *Parser) advance() token.TokenAndValue {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) match(toks ...token.Token) bool {
	for _, tok := range toks {
		if p.check(tok) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(tok token.Token, message string) token.TokenAndValue {
	if p.check(tok) {
		return p.advance()
	}
	panic(p.errorAt(p.peek(), message))
}

func (p *Parser) errorAt(tv token.TokenAndValue, message string) error {
	where := " at '" + tv.Value.Raw + "'"
	if tv.Token == token.EOF {
		where = " at end"
	}
	p.rep.Report(tv.Value.Line, where, message)
	return errParseMode
}

func (p *Parser) ident(tv token.TokenAndValue) *ast.Ident {
	return &ast.Ident{Lexeme: tv.Value.Raw, Line: tv.Value.Line}
}

// synchronize discards tokens until it reaches a likely statement boundary,
// so that parsing can continue reporting further independent errors.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Token == token.SEMICOLON {
			return
		}
		switch p.peek().Token {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- declarations ---

func (p *Parser) declaration() (s ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if r != errParseMode {
				panic(r)
			}
			p.synchronize()
			s = nil
		}
	}()

	switch {
	case p.match(token.CLASS):
		return p.classDeclaration()
	case p.match(token.FUN):
		return p.function("function")
	case p.match(token.VAR):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.ident(p.consume(token.IDENT, "Expect class name."))

	var superclass *ast.VariableExpr
	if p.match(token.LT) {
		superTV := p.consume(token.IDENT, "Expect superclass name.")
		superclass = &ast.VariableExpr{Name: p.ident(superTV)}
	}

	p.consume(token.LBRACE, "Expect '{' before class body.")
	var methods []*ast.FunctionStmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")

	return &ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) function(kind string) *ast.FunctionStmt {
	name := p.ident(p.consume(token.IDENT, "Expect "+kind+" name."))
	p.consume(token.LPAREN, "Expect '(' after "+kind+" name.")

	var params []*ast.Ident
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxArgs {
				p.errorAt(p.peek(), "Can't have more than 255 parameters.")
			}
			params = append(params, p.ident(p.consume(token.IDENT, "Expect parameter name.")))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before "+kind+" body.")
	body := p.block()

	return &ast.FunctionStmt{Name: name, Params: params, Body: body}
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.ident(p.consume(token.IDENT, "Expect variable name."))
	var init ast.Expr
	if p.match(token.EQ) {
		init = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	return &ast.VarStmt{Name: name, Init: init}
}

// --- statements ---

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.LBRACE):
		line := p.previous().Value.Line
		return &ast.BlockStmt{Line_: line, Stmts: p.block()}
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) forStatement() ast.Stmt {
	line := p.previous().Value.Line
	p.consume(token.LPAREN, "Expect '(' after 'for'.")

	var init ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
		init = nil
	case p.match(token.VAR):
		init = p.varDeclaration()
	default:
		init = p.expressionStatement()
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after loop condition.")

	var post ast.Expr
	if !p.check(token.RPAREN) {
		post = p.expression()
	}
	p.consume(token.RPAREN, "Expect ')' after for clauses.")

	body := p.statement()

	// Desugar the for loop into a while loop wrapped in blocks.
	if post != nil {
		body = &ast.BlockStmt{Line_: line, Stmts: []ast.Stmt{body, &ast.ExpressionStmt{Expr: post}}}
	}
	if cond == nil {
		// A fresh node per desugared loop: two different for-loops must never
		// share this synthesized condition's identity.
		cond = &ast.LiteralExpr{Line_: line, Value: true}
	}
	body = &ast.WhileStmt{Line_: line, Cond: cond, Body: body}
	if init != nil {
		body = &ast.BlockStmt{Line_: line, Stmts: []ast.Stmt{init, body}}
	}
	return body
}

func (p *Parser) ifStatement() ast.Stmt {
	line := p.previous().Value.Line
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	cond := p.expression()
	p.consume(token.RPAREN, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch = p.statement()
	}
	return &ast.IfStmt{Line_: line, Cond: cond, Then: thenBranch, Else: elseBranch}
}

func (p *Parser) printStatement() ast.Stmt {
	line := p.previous().Value.Line
	value := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	return &ast.PrintStmt{Line_: line, Expr: value}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.ident(p.previous())
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() ast.Stmt {
	line := p.previous().Value.Line
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	cond := p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{Line_: line, Cond: cond, Body: body}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
	return stmts
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	return &ast.ExpressionStmt{Expr: expr}
}

// --- expressions, low to high precedence ---

func (p *Parser) expression() ast.Expr { return p.assignment() }

func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(token.EQ) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{Name: target.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{Object: target.Object, Name: target.Name, Value: value}
		default:
			p.errorAt(equals, "Invalid assignment target.")
			return expr
		}
	}
	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(token.OR) {
		op := p.previous()
		right := p.and()
		expr = &ast.LogicalExpr{Left: expr, Op: token.OR, Line_: op.Value.Line, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(token.AND) {
		op := p.previous()
		right := p.equality()
		expr = &ast.LogicalExpr{Left: expr, Op: token.AND, Line_: op.Value.Line, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.BANGEQ, token.EQEQ) {
		op := p.previous()
		right := p.comparison()
		expr = &ast.BinaryExpr{Left: expr, Op: op.Token, OpLit: op.Value.Raw, Line_: op.Value.Line, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GT, token.GE, token.LT, token.LE) {
		op := p.previous()
		right := p.term()
		expr = &ast.BinaryExpr{Left: expr, Op: op.Token, OpLit: op.Value.Raw, Line_: op.Value.Line, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.MINUS, token.PLUS) {
		op := p.previous()
		right := p.factor()
		expr = &ast.BinaryExpr{Left: expr, Op: op.Token, OpLit: op.Value.Raw, Line_: op.Value.Line, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.SLASH, token.STAR) {
		op := p.previous()
		right := p.unary()
		expr = &ast.BinaryExpr{Left: expr, Op: op.Token, OpLit: op.Value.Raw, Line_: op.Value.Line, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{Op: op.Token, Line_: op.Value.Line, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := p.ident(p.consume(token.IDENT, "Expect property name after '.'."))
			expr = &ast.GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxArgs {
				p.errorAt(p.peek(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RPAREN, "Expect ')' after arguments.")
	return &ast.CallExpr{Callee: callee, Line_: paren.Value.Line, Args: args}
}

func (p *Parser) primary() ast.Expr {
	tv := p.peek()
	switch tv.Token {
	case token.FALSE:
		p.advance()
		return &ast.LiteralExpr{Line_: tv.Value.Line, Value: false}
	case token.TRUE:
		p.advance()
		return &ast.LiteralExpr{Line_: tv.Value.Line, Value: true}
	case token.NIL:
		p.advance()
		return &ast.LiteralExpr{Line_: tv.Value.Line, Value: nil}
	case token.NUMBER:
		p.advance()
		return &ast.LiteralExpr{Line_: tv.Value.Line, Value: tv.Value.Num}
	case token.STRING:
		p.advance()
		return &ast.LiteralExpr{Line_: tv.Value.Line, Value: tv.Value.Str}
	case token.SUPER:
		p.advance()
		keyword := p.ident(tv)
		p.consume(token.DOT, "Expect '.' after 'super'.")
		method := p.ident(p.consume(token.IDENT, "Expect superclass method name."))
		return &ast.SuperExpr{Keyword: keyword, Method: method}
	case token.THIS:
		p.advance()
		return &ast.ThisExpr{Keyword: p.ident(tv)}
	case token.IDENT:
		p.advance()
		return &ast.VariableExpr{Name: p.ident(tv)}
	case token.LPAREN:
		p.advance()
		expr := p.expression()
		p.consume(token.RPAREN, "Expect ')' after expression.")
		return &ast.GroupingExpr{Line_: tv.Value.Line, Inner: expr}
	default:
		panic(p.errorAt(tv, "Expect expression."))
	}
}
