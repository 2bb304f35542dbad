// Package interpreter executes resolved programs by walking the syntax tree.
package interpreter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"

	"taglox/internal/errors"
	"taglox/internal/lexer"
	"taglox/internal/parser"
)

// maxCallDepth bounds recursion so runaway programs fail with a runtime error
// instead of exhausting the goroutine stack.
const maxCallDepth = 4096

// TagSource resolves 'tag' literals. found is false for unknown keys.
type TagSource interface {
	Lookup(key string) (value interface{}, found bool, err error)
}

type Option func(*Interpreter)

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

func WithTagSource(src TagSource) Option {
	return func(i *Interpreter) { i.tags = src }
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithClock replaces the time source behind the clock() native.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

type completionKind int

const (
	completionNormal completionKind = iota
	completionBreak
	completionReturn
)

// completion is how a statement finished. value is only set for returns.
type completion struct {
	kind  completionKind
	value Value
}

var normal = completion{kind: completionNormal}

// Interpreter is single-threaded. Globals and resolved locals persist across
// Interpret calls, which is what the REPL relies on.
type Interpreter struct {
	globals   *Environment
	env       *Environment
	locals    map[parser.NodeID]int
	out       io.Writer
	tags      TagSource
	logger    *slog.Logger
	now       func() time.Time
	callDepth int
}

func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		globals: NewEnvironment(nil),
		locals:  make(map[parser.NodeID]int),
		out:     os.Stdout,
		tags:    noTags{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.env = i.globals

	i.globals.Define("clock", NewNativeFunction("clock", 0, func([]Value) (Value, error) {
		return float64(i.now().UnixNano()) / float64(time.Second), nil
	}))
	return i
}

// Resolve records that the expression id refers to a variable depth scopes
// out from where it is evaluated.
func (i *Interpreter) Resolve(id parser.NodeID, depth int) {
	i.locals[id] = depth
}

func (i *Interpreter) Globals() *Environment {
	return i.globals
}

// Interpret runs stmts in order and stops at the first runtime error, which
// is always a *errors.LoxError of type RuntimeError unless writing output
// failed.
func (i *Interpreter) Interpret(stmts []parser.Stmt) error {
	start := time.Now()
	i.logger.Debug("interpret start", "statements", len(stmts))
	for _, stmt := range stmts {
		if _, err := i.execute(stmt); err != nil {
			i.env = i.globals
			i.callDepth = 0
			i.logger.Debug("interpret failed", "error", err, "elapsed", time.Since(start))
			return err
		}
	}
	i.logger.Debug("interpret finished", "elapsed", time.Since(start))
	return nil
}

// Evaluate computes a single expression in the global scope.
func (i *Interpreter) Evaluate(expr parser.Expr) (Value, error) {
	v, err := i.evaluate(expr)
	if err != nil {
		i.env = i.globals
		i.callDepth = 0
	}
	return v, err
}

func (i *Interpreter) execute(stmt parser.Stmt) (completion, error) {
	switch s := stmt.(type) {
	case *parser.ExpressionStmt:
		_, err := i.evaluate(s.Expr)
		return normal, err

	case *parser.PrintStmt:
		v, err := i.evaluate(s.Expr)
		if err != nil {
			return normal, err
		}
		if _, err := fmt.Fprintln(i.out, Stringify(v)); err != nil {
			return normal, pkgerrors.Wrap(err, "write program output")
		}
		return normal, nil

	case *parser.VarStmt:
		var value Value
		if s.Initializer != nil {
			v, err := i.evaluate(s.Initializer)
			if err != nil {
				return normal, err
			}
			value = v
		}
		i.env.Define(s.Name.Lexeme, value)
		return normal, nil

	case *parser.BlockStmt:
		return i.executeBlock(s.Statements, NewEnvironment(i.env))

	case *parser.IfStmt:
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return normal, err
		}
		if IsTruthy(cond) {
			return i.execute(s.Then)
		}
		if s.Else != nil {
			return i.execute(s.Else)
		}
		return normal, nil

	case *parser.WhileStmt:
		for {
			cond, err := i.evaluate(s.Condition)
			if err != nil {
				return normal, err
			}
			if !IsTruthy(cond) {
				return normal, nil
			}
			c, err := i.execute(s.Body)
			if err != nil {
				return normal, err
			}
			switch c.kind {
			case completionBreak:
				return normal, nil
			case completionReturn:
				return c, nil
			}
		}

	case *parser.BreakStmt:
		return completion{kind: completionBreak}, nil

	case *parser.FunctionStmt:
		fn := &Function{name: s.Name.Lexeme, params: s.Params, body: s.Body, closure: i.env}
		i.env.Define(s.Name.Lexeme, fn)
		return normal, nil

	case *parser.ReturnStmt:
		var value Value
		if s.Value != nil {
			v, err := i.evaluate(s.Value)
			if err != nil {
				return normal, err
			}
			value = v
		}
		return completion{kind: completionReturn, value: value}, nil

	case *parser.ClassStmt:
		return normal, i.classDeclaration(s)
	}
	return normal, fmt.Errorf("unknown statement %T", stmt)
}

// executeBlock runs stmts in env and restores the current environment on
// every exit path.
func (i *Interpreter) executeBlock(stmts []parser.Stmt, env *Environment) (completion, error) {
	previous := i.env
	i.env = env
	defer func() { i.env = previous }()

	for _, stmt := range stmts {
		c, err := i.execute(stmt)
		if err != nil || c.kind != completionNormal {
			return c, err
		}
	}
	return normal, nil
}

func (i *Interpreter) classDeclaration(s *parser.ClassStmt) error {
	var superclass *Class
	if s.Superclass != nil {
		v, err := i.evaluate(s.Superclass)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return runtimeError(s.Superclass.Name, "Superclass must be a class.")
		}
		superclass = sc
	}

	i.env.Define(s.Name.Lexeme, nil)
	declaring := i.env
	if superclass != nil {
		i.env = NewEnvironment(i.env)
		i.env.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &Function{
			name:          m.Name.Lexeme,
			params:        m.Params,
			body:          m.Body,
			closure:       i.env,
			isInitializer: m.Name.Lexeme == "init",
		}
	}

	i.env = declaring
	declaring.Define(s.Name.Lexeme, &Class{Name: s.Name.Lexeme, Superclass: superclass, methods: methods})
	return nil
}

func (i *Interpreter) evaluate(expr parser.Expr) (Value, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		return e.Value, nil

	case *parser.Tag:
		v, found, err := i.tags.Lookup(e.Key)
		if err != nil {
			return nil, runtimeError(e.Keyword, fmt.Sprintf("Tag lookup failed for '%s': %v", e.Key, err))
		}
		if !found {
			return nil, nil
		}
		return v, nil

	case *parser.Grouping:
		return i.evaluate(e.Inner)

	case *parser.Unary:
		right, err := i.evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		switch e.Operator.Type {
		case lexer.TokenBang:
			return !IsTruthy(right), nil
		case lexer.TokenMinus:
			n, ok := right.(float64)
			if !ok {
				return nil, runtimeError(e.Operator, "Operand must be a number.")
			}
			return -n, nil
		}

	case *parser.Binary:
		return i.binary(e)

	case *parser.Logical:
		left, err := i.evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Operator.Type == lexer.TokenOr {
			if IsTruthy(left) {
				return left, nil
			}
		} else if !IsTruthy(left) {
			return left, nil
		}
		return i.evaluate(e.Right)

	case *parser.Ternary:
		cond, err := i.evaluate(e.Condition)
		if err != nil {
			return nil, err
		}
		if IsTruthy(cond) {
			return i.evaluate(e.Then)
		}
		return i.evaluate(e.Else)

	case *parser.Comma:
		if _, err := i.evaluate(e.Left); err != nil {
			return nil, err
		}
		return i.evaluate(e.Right)

	case *parser.Variable:
		return i.lookUpVariable(e.Name, e.ID())

	case *parser.Assign:
		value, err := i.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if depth, ok := i.locals[e.ID()]; ok {
			i.env.AssignAt(depth, e.Name.Lexeme, value)
			return value, nil
		}
		if err := i.globals.Assign(e.Name, value); err != nil {
			return nil, err
		}
		return value, nil

	case *parser.Call:
		return i.call(e)

	case *parser.Get:
		object, err := i.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*Instance)
		if !ok {
			return nil, runtimeError(e.Name, "Only instances have properties.")
		}
		return instance.Get(e.Name)

	case *parser.Set:
		object, err := i.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*Instance)
		if !ok {
			return nil, runtimeError(e.Name, "Only instances have fields.")
		}
		value, err := i.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(e.Name, value)
		return value, nil

	case *parser.This:
		return i.lookUpVariable(e.Keyword, e.ID())

	case *parser.Super:
		depth := i.locals[e.ID()]
		superclass, _ := i.env.GetAt(depth, "super").(*Class)
		object, _ := i.env.GetAt(depth-1, "this").(*Instance)
		method := superclass.FindMethod(e.Method.Lexeme)
		if method == nil {
			return nil, runtimeError(e.Method, "Undefined property '"+e.Method.Lexeme+"'.")
		}
		return method.Bind(object), nil

	case *parser.Function:
		if e.Name == nil {
			return &Function{params: e.Params, body: e.Body, closure: i.env}, nil
		}
		env := NewEnvironment(i.env)
		fn := &Function{name: e.Name.Lexeme, params: e.Params, body: e.Body, closure: env}
		env.Define(e.Name.Lexeme, fn)
		return fn, nil
	}
	return nil, fmt.Errorf("unknown expression %T", expr)
}

func (i *Interpreter) binary(e *parser.Binary) (Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case lexer.TokenEqualEqual:
		return IsEqual(left, right), nil
	case lexer.TokenBangEqual:
		return !IsEqual(left, right), nil
	case lexer.TokenPlus:
		l, lok := left.(float64)
		r, rok := right.(float64)
		if lok && rok {
			return l + r, nil
		}
		_, lstr := left.(string)
		_, rstr := right.(string)
		if lstr || rstr {
			return Stringify(left) + Stringify(right), nil
		}
		return nil, runtimeError(e.Operator, "Operands must be two numbers or two strings.")
	}

	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return nil, runtimeError(e.Operator, "Operands must be numbers.")
	}
	switch e.Operator.Type {
	case lexer.TokenMinus:
		return l - r, nil
	case lexer.TokenSlash:
		return l / r, nil
	case lexer.TokenStar:
		return l * r, nil
	case lexer.TokenGreater:
		return l > r, nil
	case lexer.TokenGreaterEqual:
		return l >= r, nil
	case lexer.TokenLess:
		return l < r, nil
	case lexer.TokenLessEqual:
		return l <= r, nil
	}
	return nil, runtimeError(e.Operator, "Unknown operator '"+e.Operator.Lexeme+"'.")
}

func (i *Interpreter) call(e *parser.Call) (Value, error) {
	callee, err := i.evaluate(e.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		v, err := i.evaluate(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeError(e.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeError(e.Paren, fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity(), len(args)))
	}
	if i.callDepth >= maxCallDepth {
		return nil, runtimeError(e.Paren, "Stack overflow.")
	}

	i.callDepth++
	result, err := fn.Call(i, args)
	i.callDepth--
	if err != nil {
		if le, ok := errors.As(err); ok {
			le.AddStackFrame(frameName(callee), "", e.Paren.Loc.Line, e.Paren.Loc.Column)
		}
		return nil, err
	}
	return result, nil
}

func (i *Interpreter) lookUpVariable(name lexer.Token, id parser.NodeID) (Value, error) {
	if depth, ok := i.locals[id]; ok {
		return i.env.GetAt(depth, name.Lexeme), nil
	}
	return i.globals.Get(name)
}

func frameName(callee Value) string {
	switch c := callee.(type) {
	case *Function:
		return c.Name()
	case *Class:
		return c.Name
	case *NativeFunction:
		return c.Name
	}
	return "?"
}

type noTags struct{}

func (noTags) Lookup(string) (interface{}, bool, error) { return nil, false, nil }
