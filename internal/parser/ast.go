package parser

import (
	"sync/atomic"

	"taglox/internal/lexer"
)

// NodeID identifies an expression node for the lifetime of the process. The
// resolver keys its scope-distance table by it.
type NodeID int64

var lastNodeID atomic.Int64

func nextID() NodeID {
	return NodeID(lastNodeID.Add(1))
}

// Expr is the closed set of expression nodes declared in this file.
type Expr interface {
	ID() NodeID
	exprNode()
}

type node struct {
	id NodeID
}

func newNode() node { return node{id: nextID()} }

func (n node) ID() NodeID { return n.id }
func (node) exprNode()    {}

// Literal expression: nil, true, 12, "text"
type Literal struct {
	node
	Value interface{}
}

// Tag expression: 'key', resolved against an external data source
type Tag struct {
	node
	Keyword lexer.Token
	Key     string
}

// Grouping expression: (inner)
type Grouping struct {
	node
	Inner Expr
}

// Unary expression: !x, -x
type Unary struct {
	node
	Operator lexer.Token
	Right    Expr
}

// Binary expression: a + b
type Binary struct {
	node
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

// Logical expression: a and b, a or b
type Logical struct {
	node
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

// Ternary expression: cond ? then : else
type Ternary struct {
	node
	Condition Expr
	Then      Expr
	Else      Expr
}

// Comma expression: left, right
type Comma struct {
	node
	Left  Expr
	Right Expr
}

// Variable expression: x
type Variable struct {
	node
	Name lexer.Token
}

// Assign expression: x = value
type Assign struct {
	node
	Name  lexer.Token
	Value Expr
}

// Call expression: callee(args...). Paren is kept for error locations.
type Call struct {
	node
	Callee Expr
	Paren  lexer.Token
	Args   []Expr
}

// Get expression: object.name
type Get struct {
	node
	Object Expr
	Name   lexer.Token
}

// Set expression: object.name = value
type Set struct {
	node
	Object Expr
	Name   lexer.Token
	Value  Expr
}

// This expression
type This struct {
	node
	Keyword lexer.Token
}

// Super expression: super.method
type Super struct {
	node
	Keyword lexer.Token
	Method  lexer.Token
}

// Function expression: fun (a, b) { ... } or fun name(a) { ... }
type Function struct {
	node
	Name   *lexer.Token
	Params []lexer.Token
	Body   []Stmt
}

func NewLiteral(value interface{}) *Literal {
	return &Literal{node: newNode(), Value: value}
}

func NewTag(keyword lexer.Token, key string) *Tag {
	return &Tag{node: newNode(), Keyword: keyword, Key: key}
}

func NewGrouping(inner Expr) *Grouping {
	return &Grouping{node: newNode(), Inner: inner}
}

func NewUnary(operator lexer.Token, right Expr) *Unary {
	return &Unary{node: newNode(), Operator: operator, Right: right}
}

func NewBinary(left Expr, operator lexer.Token, right Expr) *Binary {
	return &Binary{node: newNode(), Left: left, Operator: operator, Right: right}
}

func NewLogical(left Expr, operator lexer.Token, right Expr) *Logical {
	return &Logical{node: newNode(), Left: left, Operator: operator, Right: right}
}

func NewTernary(condition, then, els Expr) *Ternary {
	return &Ternary{node: newNode(), Condition: condition, Then: then, Else: els}
}

func NewComma(left, right Expr) *Comma {
	return &Comma{node: newNode(), Left: left, Right: right}
}

func NewVariable(name lexer.Token) *Variable {
	return &Variable{node: newNode(), Name: name}
}

func NewAssign(name lexer.Token, value Expr) *Assign {
	return &Assign{node: newNode(), Name: name, Value: value}
}

func NewCall(callee Expr, paren lexer.Token, args []Expr) *Call {
	return &Call{node: newNode(), Callee: callee, Paren: paren, Args: args}
}

func NewGet(object Expr, name lexer.Token) *Get {
	return &Get{node: newNode(), Object: object, Name: name}
}

func NewSet(object Expr, name lexer.Token, value Expr) *Set {
	return &Set{node: newNode(), Object: object, Name: name, Value: value}
}

func NewThis(keyword lexer.Token) *This {
	return &This{node: newNode(), Keyword: keyword}
}

func NewSuper(keyword, method lexer.Token) *Super {
	return &Super{node: newNode(), Keyword: keyword, Method: method}
}

func NewFunction(name *lexer.Token, params []lexer.Token, body []Stmt) *Function {
	return &Function{node: newNode(), Name: name, Params: params, Body: body}
}
