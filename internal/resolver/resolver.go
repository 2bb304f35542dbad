// Package resolver binds every local variable reference to the number of
// scopes between its use and its declaration, and rejects programs that
// misuse return, break, this or super.
package resolver

import (
	"taglox/internal/errors"
	"taglox/internal/lexer"
	"taglox/internal/parser"
)

// Locals receives the scope distance of each resolved local reference.
// References that are never reported are globals.
type Locals interface {
	Resolve(id parser.NodeID, depth int)
}

type FunctionType int

const (
	FunctionNone FunctionType = iota
	FunctionPlain
	FunctionInitializer
	FunctionMethod
)

type ClassType int

const (
	ClassNone ClassType = iota
	ClassPlain
	ClassSubclass
)

type Resolver struct {
	locals          Locals
	scopes          []map[string]bool
	currentFunction FunctionType
	currentClass    ClassType
	loopDepth       int

	// Errors holds every *errors.LoxError found, in source order.
	Errors []error
}

func New(locals Locals) *Resolver {
	return &Resolver{locals: locals}
}

// Resolve walks the whole program. It never stops early; check r.Errors.
func (r *Resolver) Resolve(stmts []parser.Stmt) {
	for _, stmt := range stmts {
		r.stmt(stmt)
	}
}

func (r *Resolver) stmt(s parser.Stmt) {
	switch s := s.(type) {
	case *parser.BlockStmt:
		r.beginScope()
		r.Resolve(s.Statements)
		r.endScope()

	case *parser.VarStmt:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.expr(s.Initializer)
		}
		r.define(s.Name)

	case *parser.FunctionStmt:
		r.declare(s.Name)
		r.define(s.Name)
		r.function(s.Params, s.Body, FunctionPlain)

	case *parser.ClassStmt:
		r.class(s)

	case *parser.ExpressionStmt:
		r.expr(s.Expr)

	case *parser.PrintStmt:
		r.expr(s.Expr)

	case *parser.IfStmt:
		r.expr(s.Condition)
		r.stmt(s.Then)
		if s.Else != nil {
			r.stmt(s.Else)
		}

	case *parser.WhileStmt:
		r.expr(s.Condition)
		r.loopDepth++
		r.stmt(s.Body)
		r.loopDepth--

	case *parser.BreakStmt:
		if r.loopDepth == 0 {
			r.error(s.Keyword, "Cannot use 'break' outside of a loop.")
		}

	case *parser.ReturnStmt:
		if r.currentFunction == FunctionNone {
			r.error(s.Keyword, "Cannot return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == FunctionInitializer {
				r.error(s.Keyword, "Cannot return a value from an initializer.")
			}
			r.expr(s.Value)
		}
	}
}

func (r *Resolver) class(s *parser.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = ClassPlain
	defer func() { r.currentClass = enclosingClass }()

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.error(s.Superclass.Name, "A class cannot inherit from itself.")
		}
		r.currentClass = ClassSubclass
		r.expr(s.Superclass)

		r.beginScope()
		r.peekScope()["super"] = true
		defer r.endScope()
	}

	r.beginScope()
	r.peekScope()["this"] = true
	for _, method := range s.Methods {
		kind := FunctionMethod
		if method.Name.Lexeme == "init" {
			kind = FunctionInitializer
		}
		r.function(method.Params, method.Body, kind)
	}
	r.endScope()
}

func (r *Resolver) function(params []lexer.Token, body []parser.Stmt, kind FunctionType) {
	enclosingFunction, enclosingLoops := r.currentFunction, r.loopDepth
	r.currentFunction, r.loopDepth = kind, 0

	r.beginScope()
	for _, param := range params {
		r.declare(param)
		r.define(param)
	}
	r.Resolve(body)
	r.endScope()

	r.currentFunction, r.loopDepth = enclosingFunction, enclosingLoops
}

func (r *Resolver) expr(e parser.Expr) {
	switch e := e.(type) {
	case *parser.Variable:
		if len(r.scopes) > 0 {
			if defined, ok := r.peekScope()[e.Name.Lexeme]; ok && !defined {
				r.error(e.Name, "Cannot read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e.ID(), e.Name.Lexeme)

	case *parser.Assign:
		r.expr(e.Value)
		r.resolveLocal(e.ID(), e.Name.Lexeme)

	case *parser.Function:
		if e.Name != nil {
			r.beginScope()
			r.peekScope()[e.Name.Lexeme] = true
			r.function(e.Params, e.Body, FunctionPlain)
			r.endScope()
			return
		}
		r.function(e.Params, e.Body, FunctionPlain)

	case *parser.This:
		if r.currentClass == ClassNone {
			r.error(e.Keyword, "Cannot use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e.ID(), "this")

	case *parser.Super:
		switch r.currentClass {
		case ClassNone:
			r.error(e.Keyword, "Cannot use 'super' outside of a class.")
			return
		case ClassPlain:
			r.error(e.Keyword, "Cannot use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(e.ID(), "super")

	case *parser.Binary:
		r.expr(e.Left)
		r.expr(e.Right)
	case *parser.Logical:
		r.expr(e.Left)
		r.expr(e.Right)
	case *parser.Comma:
		r.expr(e.Left)
		r.expr(e.Right)
	case *parser.Ternary:
		r.expr(e.Condition)
		r.expr(e.Then)
		r.expr(e.Else)
	case *parser.Unary:
		r.expr(e.Right)
	case *parser.Grouping:
		r.expr(e.Inner)
	case *parser.Call:
		r.expr(e.Callee)
		for _, arg := range e.Args {
			r.expr(arg)
		}
	case *parser.Get:
		r.expr(e.Object)
	case *parser.Set:
		r.expr(e.Value)
		r.expr(e.Object)
	case *parser.Literal, *parser.Tag:
	}
}

// resolveLocal reports the distance to the innermost scope declaring name.
// Nothing is reported for globals.
func (r *Resolver) resolveLocal(id parser.NodeID, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals.Resolve(id, len(r.scopes)-1-i)
			return
		}
	}
}

func (r *Resolver) declare(name lexer.Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.peekScope()
	if _, ok := scope[name.Lexeme]; ok {
		r.error(name, "Variable with this name already declared in this scope.")
	}
	scope[name.Lexeme] = false
}

func (r *Resolver) define(name lexer.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.peekScope()[name.Lexeme] = true
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, map[string]bool{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) peekScope() map[string]bool {
	return r.scopes[len(r.scopes)-1]
}

func (r *Resolver) error(tok lexer.Token, message string) {
	err := errors.NewResolutionError(message, "", tok.Loc.Line, tok.Loc.Column, tok.Loc.EndColumn).
		WithAt("'" + tok.Lexeme + "'")
	r.Errors = append(r.Errors, err)
}
