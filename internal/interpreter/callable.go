package interpreter

import (
	"taglox/internal/lexer"
	"taglox/internal/parser"
)

// Callable is implemented by every value that can appear before '('.
type Callable interface {
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
}

// NativeFunction represents a built-in function
type NativeFunction struct {
	Name     string
	arity    int
	function func(args []Value) (Value, error)
}

func NewNativeFunction(name string, arity int, fn func(args []Value) (Value, error)) *NativeFunction {
	return &NativeFunction{Name: name, arity: arity, function: fn}
}

func (n *NativeFunction) Arity() int { return n.arity }

func (n *NativeFunction) Call(_ *Interpreter, args []Value) (Value, error) {
	return n.function(args)
}

// Function is a user function, method or function expression together with
// the environment it closes over.
type Function struct {
	name          string
	params        []lexer.Token
	body          []parser.Stmt
	closure       *Environment
	isInitializer bool
}

func (f *Function) Arity() int { return len(f.params) }

func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(f.closure)
	for i, param := range f.params {
		env.Define(param.Lexeme, args[i])
	}

	c, err := in.executeBlock(f.body, env)
	if err != nil {
		return nil, err
	}
	if f.isInitializer {
		return f.closure.GetAt(0, "this"), nil
	}
	if c.kind == completionReturn {
		return c.value, nil
	}
	return nil, nil
}

// Bind returns a copy of f whose closure defines this as instance.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnvironment(f.closure)
	env.Define("this", instance)
	bound := *f
	bound.closure = env
	return &bound
}

// Name is the declared name, or "anonymous".
func (f *Function) Name() string {
	if f.name == "" {
		return "anonymous"
	}
	return f.name
}

func (f *Function) String() string {
	return "<fn " + f.Name() + ">"
}

// Class is both a value and a constructor: calling it creates an Instance.
type Class struct {
	Name       string
	Superclass *Class
	methods    map[string]*Function
}

// FindMethod walks the superclass chain; nil when no class defines name.
func (c *Class) FindMethod(name string) *Function {
	for class := c; class != nil; class = class.Superclass {
		if m, ok := class.methods[name]; ok {
			return m
		}
	}
	return nil
}

func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	instance := &Instance{class: c, fields: make(map[string]Value)}
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.Bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

type Instance struct {
	class  *Class
	fields map[string]Value
}

func (i *Instance) Class() *Class { return i.class }

// Get returns a field, or a method bound to i. Fields shadow methods.
func (i *Instance) Get(name lexer.Token) (Value, error) {
	if v, ok := i.fields[name.Lexeme]; ok {
		return v, nil
	}
	if m := i.class.FindMethod(name.Lexeme); m != nil {
		return m.Bind(i), nil
	}
	return nil, runtimeError(name, "Undefined property '"+name.Lexeme+"'.")
}

func (i *Instance) Set(name lexer.Token, value Value) {
	i.fields[name.Lexeme] = value
}

func (i *Instance) String() string {
	return i.class.Name + " instance"
}
