package runtime

import (
	"github.com/dolthub/swiss"

	"github.com/loxlang/loxi/lang/ast"
)

// Environment is a single lexical scope: a table of bindings plus a link to
// the enclosing scope. Storage is a swiss.Map rather than a builtin map, for
// its cache-friendlier open addressing.
type Environment struct {
	Enclosing *Environment
	Values    *swiss.Map[string, Value]
}

// NewEnvironment returns an environment enclosed by (possibly nil) parent.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{Enclosing: enclosing, Values: swiss.NewMap[string, Value](uint32(8))}
}

// Define binds name to v in this scope, shadowing any outer binding. An
// existing binding of name in this scope is overwritten; Define never
// errors (local redeclarations are rejected earlier, by the resolver).
func (e *Environment) Define(name string, v Value) {
	e.Values.Put(name, v)
}

// Get looks up name starting at this scope and walking outward.
func (e *Environment) Get(name *ast.Ident) (Value, error) {
	if v, ok := e.Values.Get(name.Lexeme); ok {
		return v, nil
	}
	if e.Enclosing != nil {
		return e.Enclosing.Get(name)
	}
	return nil, newError(name.Line, "Undefined variable '%s'.", name.Lexeme)
}

// Assign rebinds an existing name, walking outward; it errors rather than
// creating a new binding if name is not already defined anywhere in the
// chain.
func (e *Environment) Assign(name *ast.Ident, v Value) error {
	if _, ok := e.Values.Get(name.Lexeme); ok {
		e.Values.Put(name.Lexeme, v)
		return nil
	}
	if e.Enclosing != nil {
		return e.Enclosing.Assign(name, v)
	}
	return newError(name.Line, "Undefined variable '%s'.", name.Lexeme)
}

func (e *Environment) ancestor(dist int) *Environment {
	env := e
	for i := 0; i < dist; i++ {
		env = env.Enclosing
	}
	return env
}

// GetAt reads name from the scope dist hops out, as resolved by the
// resolver. The name is always present: the resolver only ever records a
// distance for a name it found declared in that very scope.
func (e *Environment) GetAt(dist int, name string) Value {
	v, _ := e.ancestor(dist).Values.Get(name)
	return v
}

// AssignAt rebinds name in the scope dist hops out.
func (e *Environment) AssignAt(dist int, name string, v Value) {
	e.ancestor(dist).Values.Put(name, v)
}
