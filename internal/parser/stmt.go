// internal/parser/stmt.go
package parser

import "taglox/internal/lexer"

// Stmt is the closed set of statement nodes declared in this file.
type Stmt interface {
	stmtNode()
}

// ExpressionStmt wraps a raw expression as a statement.
type ExpressionStmt struct {
	Expr Expr
}

// PrintStmt wraps an expression to print.
type PrintStmt struct {
	Expr Expr
}

// VarStmt represents a variable declaration: var x = expr;
type VarStmt struct {
	Name        lexer.Token
	Initializer Expr // nil when absent
}

// BlockStmt represents { stmts... }
type BlockStmt struct {
	Statements []Stmt
}

// IfStmt represents if (cond) then else otherwise
type IfStmt struct {
	Condition Expr
	Then      Stmt
	Else      Stmt // nil when absent
}

// WhileStmt represents while (cond) body. Desugared for loops end up here too.
type WhileStmt struct {
	Condition Expr
	Body      Stmt
}

// BreakStmt represents break;
type BreakStmt struct {
	Keyword lexer.Token
}

// FunctionStmt represents a function declaration or a class method.
type FunctionStmt struct {
	Name   lexer.Token
	Params []lexer.Token
	Body   []Stmt
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Keyword lexer.Token
	Value   Expr // nil for a bare return
}

// ClassStmt represents a class declaration.
type ClassStmt struct {
	Name       lexer.Token
	Superclass *Variable // nil when absent
	Methods    []*FunctionStmt
}

func (*ExpressionStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*VarStmt) stmtNode()        {}
func (*BlockStmt) stmtNode()      {}
func (*IfStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()      {}
func (*FunctionStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()     {}
func (*ClassStmt) stmtNode()      {}
