package runtime

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/loxlang/loxi/lang/ast"
)

// Function is a user-defined Lox function or method: its declaration plus
// the environment it closed over at definition time.
type Function struct {
	Declaration   *ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

var (
	_ Value    = (*Function)(nil)
	_ Callable = (*Function)(nil)
)

func (f *Function) String() string { return fmt.Sprintf("<fn %s>", f.Declaration.Name.Lexeme) }
func (f *Function) Type() string   { return "function" }
func (f *Function) Arity() int     { return len(f.Declaration.Params) }

// Bind returns a copy of f whose closure additionally defines "this" as
// instance, so that a method body can refer to the instance it was called
// on.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer}
}

// Call executes the function body in a fresh environment enclosed by its
// closure, in which every parameter is bound. A bare `return;` (or falling off the end
// of the body) yields Nil, except in an initializer, which always yields the
// bound instance (`this`) regardless of the return statement's value.
func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(f.Closure)
	for i, p := range f.Declaration.Params {
		env.Define(p.Lexeme, args[i])
	}

	ctrl, err := in.executeBlock(f.Declaration.Body, env)
	if err != nil {
		return nil, err
	}

	if f.IsInitializer {
		return f.Closure.GetAt(0, "this"), nil
	}
	if ctrl != nil {
		return ctrl.value, nil
	}
	return Nil, nil
}

// Class is a Lox class: a name, an optional superclass and its own methods.
// Method lookup walks the superclass chain.
type Class struct {
	Name       string
	Superclass *Class
	Methods    *swiss.Map[string, *Function]

	// ownMethodNames is a sorted snapshot of this class's own declared method
	// names (not inherited ones), built once at class-declaration time since
	// swiss.Map offers no stable iteration order of its own. Used only by
	// MethodNames, an introspection helper with no corresponding Lox syntax.
	ownMethodNames []string
}

var (
	_ Value    = (*Class)(nil)
	_ Callable = (*Class)(nil)
)

func (c *Class) String() string { return c.Name }
func (c *Class) Type() string   { return "class" }

// FindMethod looks up name among this class's own methods, then its
// superclass chain.
func (c *Class) FindMethod(name string) (*Function, bool) {
	if m, ok := c.Methods.Get(name); ok {
		return m, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

// MethodNames returns this class's own declared method names (not inherited
// ones) in sorted order.
func (c *Class) MethodNames() []string { return c.ownMethodNames }

// Arity is the arity of the class's init method, or 0 if it has none.
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// Call constructs a new instance and, if the class (or a superclass) defines
// init, runs it bound to the new instance.
func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	instance := &Instance{Class: c, Fields: swiss.NewMap[string, Value](uint32(4))}
	if init, ok := c.FindMethod("init"); ok {
		if _, err := init.Bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is an instance of a Lox class: its own field table plus a
// reference to the class that produced it, used for method lookup.
type Instance struct {
	Class  *Class
	Fields *swiss.Map[string, Value]
}

var _ Value = (*Instance)(nil)

func (i *Instance) String() string { return i.Class.Name + " instance" }
func (i *Instance) Type() string   { return "instance" }

// Get reads a field, falling back to a bound method, in that order.
func (i *Instance) Get(name *ast.Ident) (Value, error) {
	if v, ok := i.Fields.Get(name.Lexeme); ok {
		return v, nil
	}
	if m, ok := i.Class.FindMethod(name.Lexeme); ok {
		return m.Bind(i), nil
	}
	return nil, newError(name.Line, "Undefined property '%s'.", name.Lexeme)
}

// Set writes a field, creating it if absent; Lox instances have no fixed
// field list.
func (i *Instance) Set(name *ast.Ident, v Value) {
	i.Fields.Put(name.Lexeme, v)
}

// NativeFn wraps a host-provided function (e.g. clock) as a callable value.
type NativeFn struct {
	NameStr string
	ArityN  int
	Fn      func(args []Value) (Value, error)
}

var (
	_ Value    = (*NativeFn)(nil)
	_ Callable = (*NativeFn)(nil)
)

func (n *NativeFn) String() string { return "<native fn>" }
func (n *NativeFn) Type() string   { return "native function" }
func (n *NativeFn) Arity() int     { return n.ArityN }
func (n *NativeFn) Call(_ *Interpreter, args []Value) (Value, error) {
	return n.Fn(args)
}
