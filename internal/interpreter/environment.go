package interpreter

import (
	"taglox/internal/errors"
	"taglox/internal/lexer"
)

// Environment is one lexical scope. Closures keep their defining environment
// alive by holding a pointer to it.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]Value),
		enclosing: enclosing,
	}
}

// Define binds name in this scope, replacing any previous binding.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks name up through the whole chain.
func (e *Environment) Get(name lexer.Token) (Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values[name.Lexeme]; ok {
			return v, nil
		}
	}
	return nil, undefinedVariable(name)
}

// Assign updates an existing binding somewhere in the chain.
func (e *Environment) Assign(name lexer.Token, value Value) error {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = value
			return nil
		}
	}
	return undefinedVariable(name)
}

// GetAt reads name from the scope distance hops up the chain. The resolver
// guarantees the binding exists there.
func (e *Environment) GetAt(distance int, name string) Value {
	return e.ancestor(distance).values[name]
}

func (e *Environment) AssignAt(distance int, name string, value Value) {
	e.ancestor(distance).values[name] = value
}

// Names lists the bindings of this scope only.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	return names
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.enclosing
	}
	return env
}

func undefinedVariable(name lexer.Token) *errors.LoxError {
	return runtimeError(name, "Undefined variable '"+name.Lexeme+"'.")
}

func runtimeError(tok lexer.Token, message string) *errors.LoxError {
	return errors.NewRuntimeError(message, "", tok.Loc.Line, tok.Loc.Column, tok.Loc.EndColumn)
}
