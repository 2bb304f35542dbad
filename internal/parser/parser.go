// internal/parser/parser.go
package parser

import (
	"taglox/internal/errors"
	"taglox/internal/lexer"
)

// maxArgs caps both call arguments and function parameters.
const maxArgs = 255

type Parser struct {
	tokens  []lexer.Token
	current int
	file    string
	Errors  []error
}

func NewParser(tokens []lexer.Token) *Parser {
	return NewParserWithFile(tokens, "")
}

func NewParserWithFile(tokens []lexer.Token, file string) *Parser {
	return &Parser{
		tokens: tokens,
		file:   file,
		Errors: []error{},
	}
}

// Parse returns every declaration that parsed cleanly. Malformed declarations
// are reported in p.Errors and left out of the result.
func (p *Parser) Parse() []Stmt {
	var stmts []Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (p *Parser) declaration() (stmt Stmt) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(*errors.LoxError)
			if !ok {
				panic(r)
			}
			p.Errors = append(p.Errors, err)
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.match(lexer.TokenClass):
		return p.classDeclaration()
	case p.check(lexer.TokenFun) && p.checkNext(lexer.TokenIdentifier):
		p.advance()
		return p.function("function")
	case p.match(lexer.TokenVar):
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) classDeclaration() Stmt {
	name := p.consume(lexer.TokenIdentifier, "Expect class name.")

	var superclass *Variable
	if p.match(lexer.TokenLess) {
		p.consume(lexer.TokenIdentifier, "Expect superclass name.")
		superclass = NewVariable(p.previous())
	}

	p.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	var methods []*FunctionStmt
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after class body.")

	return &ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) function(kind string) *FunctionStmt {
	name := p.consume(lexer.TokenIdentifier, "Expect "+kind+" name.")
	p.consume(lexer.TokenLeftParen, "Expect '(' after "+kind+" name.")
	params := p.parameters()
	p.consume(lexer.TokenLeftBrace, "Expect '{' before "+kind+" body.")
	return &FunctionStmt{Name: name, Params: params, Body: p.block()}
}

// parameters parses a parameter list after '(' through the closing ')'.
func (p *Parser) parameters() []lexer.Token {
	var params []lexer.Token
	if !p.check(lexer.TokenRightParen) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), "Cannot have more than 255 parameters.")
			}
			params = append(params, p.consume(lexer.TokenIdentifier, "Expect parameter name."))
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	return params
}

func (p *Parser) varDeclaration() Stmt {
	name := p.consume(lexer.TokenIdentifier, "Expect variable name.")

	var initializer Expr
	if p.match(lexer.TokenEqual) {
		initializer = p.expression()
	}

	p.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	return &VarStmt{Name: name, Initializer: initializer}
}

func (p *Parser) statement() Stmt {
	switch {
	case p.match(lexer.TokenFor):
		return p.forStatement()
	case p.match(lexer.TokenIf):
		return p.ifStatement()
	case p.match(lexer.TokenPrint):
		return p.printStatement()
	case p.match(lexer.TokenReturn):
		return p.returnStatement()
	case p.match(lexer.TokenWhile):
		return p.whileStatement()
	case p.match(lexer.TokenBreak):
		return p.breakStatement()
	case p.match(lexer.TokenLeftBrace):
		return &BlockStmt{Statements: p.block()}
	}
	return p.expressionStatement()
}

// forStatement desugars into a while loop wrapped in blocks.
func (p *Parser) forStatement() Stmt {
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	var initializer Stmt
	switch {
	case p.match(lexer.TokenSemicolon):
	case p.match(lexer.TokenVar):
		initializer = p.varDeclaration()
	default:
		initializer = p.expressionStatement()
	}

	var condition Expr
	if !p.check(lexer.TokenSemicolon) {
		condition = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")

	var increment Expr
	if !p.check(lexer.TokenRightParen) {
		increment = p.expression()
	}
	p.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

	body := p.statement()
	if increment != nil {
		body = &BlockStmt{Statements: []Stmt{body, &ExpressionStmt{Expr: increment}}}
	}
	if condition == nil {
		condition = NewLiteral(true)
	}
	body = &WhileStmt{Condition: condition, Body: body}
	if initializer != nil {
		body = &BlockStmt{Statements: []Stmt{initializer, body}}
	}
	return body
}

func (p *Parser) ifStatement() Stmt {
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after if condition.")

	then := p.statement()
	var els Stmt
	if p.match(lexer.TokenElse) {
		els = p.statement()
	}
	return &IfStmt{Condition: condition, Then: then, Else: els}
}

func (p *Parser) printStatement() Stmt {
	value := p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	return &PrintStmt{Expr: value}
}

func (p *Parser) returnStatement() Stmt {
	keyword := p.previous()
	var value Expr
	if !p.check(lexer.TokenSemicolon) {
		value = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	return &ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() Stmt {
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after condition.")
	return &WhileStmt{Condition: condition, Body: p.statement()}
}

func (p *Parser) breakStatement() Stmt {
	keyword := p.previous()
	p.consume(lexer.TokenSemicolon, "Expect ';' after 'break'.")
	return &BreakStmt{Keyword: keyword}
}

func (p *Parser) expressionStatement() Stmt {
	expr := p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	return &ExpressionStmt{Expr: expr}
}

// block parses statements after '{' through the closing '}'.
func (p *Parser) block() []Stmt {
	var stmts []Stmt
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after block.")
	return stmts
}

// --- Expressions, lowest precedence first ---

func (p *Parser) expression() Expr {
	expr := p.comma()
	if p.match(lexer.TokenQuestionMark) {
		then := p.expression()
		p.consume(lexer.TokenColon, "Expect a colon.")
		expr = NewTernary(expr, then, p.expression())
	}
	return expr
}

func (p *Parser) comma() Expr {
	expr := p.assignment()
	for p.match(lexer.TokenComma) {
		expr = NewComma(expr, p.assignment())
	}
	return expr
}

// conditional is a ternary without a top-level comma. Call arguments and
// assignment values are parsed here so ',' keeps separating arguments.
func (p *Parser) conditional() Expr {
	expr := p.assignment()
	if p.match(lexer.TokenQuestionMark) {
		then := p.expression()
		p.consume(lexer.TokenColon, "Expect a colon.")
		expr = NewTernary(expr, then, p.conditional())
	}
	return expr
}

func (p *Parser) assignment() Expr {
	expr := p.or()

	if p.match(lexer.TokenEqual) {
		equals := p.previous()
		value := p.conditional()

		switch target := expr.(type) {
		case *Variable:
			return NewAssign(target.Name, value)
		case *Get:
			return NewSet(target.Object, target.Name, value)
		}
		p.report(equals, "Invalid assignment target.")
	}
	return expr
}

func (p *Parser) or() Expr {
	expr := p.and()
	for p.match(lexer.TokenOr) {
		operator := p.previous()
		expr = NewLogical(expr, operator, p.and())
	}
	return expr
}

func (p *Parser) and() Expr {
	expr := p.equality()
	for p.match(lexer.TokenAnd) {
		operator := p.previous()
		expr = NewLogical(expr, operator, p.equality())
	}
	return expr
}

func (p *Parser) equality() Expr {
	return p.binary(p.comparison, lexer.TokenBangEqual, lexer.TokenEqualEqual)
}

func (p *Parser) comparison() Expr {
	return p.binary(p.term, lexer.TokenGreater, lexer.TokenGreaterEqual, lexer.TokenLess, lexer.TokenLessEqual)
}

func (p *Parser) term() Expr {
	return p.binary(p.factor, lexer.TokenMinus, lexer.TokenPlus)
}

func (p *Parser) factor() Expr {
	return p.binary(p.unary, lexer.TokenSlash, lexer.TokenStar)
}

// binary parses a left-associative chain of operand (op operand)*.
func (p *Parser) binary(operand func() Expr, ops ...lexer.TokenType) Expr {
	expr := operand()
	for p.match(ops...) {
		operator := p.previous()
		expr = NewBinary(expr, operator, operand())
	}
	return expr
}

func (p *Parser) unary() Expr {
	if p.match(lexer.TokenBang, lexer.TokenMinus) {
		operator := p.previous()
		return NewUnary(operator, p.unary())
	}
	return p.call()
}

func (p *Parser) call() Expr {
	expr := p.primary()
	for {
		if p.match(lexer.TokenLeftParen) {
			expr = p.finishCall(expr)
		} else if p.match(lexer.TokenDot) {
			name := p.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
			expr = NewGet(expr, name)
		} else {
			break
		}
	}
	return expr
}

func (p *Parser) finishCall(callee Expr) Expr {
	var args []Expr
	if !p.check(lexer.TokenRightParen) {
		for {
			if len(args) >= maxArgs {
				p.report(p.peek(), "Cannot have more than 255 arguments.")
			}
			args = append(args, p.conditional())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	paren := p.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return NewCall(callee, paren, args)
}

func (p *Parser) primary() Expr {
	switch {
	case p.match(lexer.TokenFalse):
		return NewLiteral(false)
	case p.match(lexer.TokenTrue):
		return NewLiteral(true)
	case p.match(lexer.TokenNil):
		return NewLiteral(nil)
	case p.match(lexer.TokenNumber, lexer.TokenString):
		return NewLiteral(p.previous().Literal)
	case p.match(lexer.TokenTag):
		tok := p.previous()
		key, _ := tok.Literal.(string)
		return NewTag(tok, key)
	case p.match(lexer.TokenSuper):
		keyword := p.previous()
		p.consume(lexer.TokenDot, "Expect '.' after 'super'.")
		method := p.consume(lexer.TokenIdentifier, "Expect superclass method name.")
		return NewSuper(keyword, method)
	case p.match(lexer.TokenThis):
		return NewThis(p.previous())
	case p.match(lexer.TokenIdentifier):
		return NewVariable(p.previous())
	case p.match(lexer.TokenFun):
		return p.functionExpression()
	case p.match(lexer.TokenLeftParen):
		expr := p.expression()
		p.consume(lexer.TokenRightParen, "Expect ')' after expression.")
		return NewGrouping(expr)
	}
	panic(p.error(p.peek(), "Expect expression."))
}

func (p *Parser) functionExpression() Expr {
	var name *lexer.Token
	if p.check(lexer.TokenIdentifier) {
		tok := p.advance()
		name = &tok
	}
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'fun'.")
	params := p.parameters()
	p.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	return NewFunction(name, params, p.block())
}

// --- Utility methods ---

func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == lexer.TokenSemicolon {
			return
		}
		switch p.peek().Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		p.advance()
	}
}

func (p *Parser) error(tok lexer.Token, message string) *errors.LoxError {
	err := errors.NewParseError(message, p.file, tok.Loc.Line, tok.Loc.Column, tok.Loc.EndColumn)
	if tok.Type == lexer.TokenEOF {
		return err.WithAt("end")
	}
	return err.WithAt("'" + tok.Lexeme + "'")
}

// report records a non-fatal error; parsing carries on.
func (p *Parser) report(tok lexer.Token, message string) {
	p.Errors = append(p.Errors, p.error(tok, message))
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	panic(p.error(p.peek(), msg))
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) checkNext(t lexer.TokenType) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.tokens[p.current-1]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}
