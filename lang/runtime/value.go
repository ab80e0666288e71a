// Package runtime implements the tree-walking evaluator: the runtime value
// model, lexical environments, callables and the interpreter that executes a
// resolved program.
//
// The Value interface (String/Type) and the split between a plain value and
// the richer capability interfaces (Callable here) keep values down to what
// Lox actually has: nil, booleans, numbers, strings, functions, classes and
// instances. There is no bytecode, no cells and no tuple/array/bytes types
// here, since Lox has no literal syntax for any of those.
package runtime

import "strconv"

// Value is implemented by every runtime value.
type Value interface {
	String() string
	Type() string
}

// NilType is the type of Nil. Represented as a byte, not struct{}, so that
// Nil can be a package-level constant.
type NilType byte

// Nil is the sole NilType value.
const Nil = NilType(0)

var _ Value = Nil

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Bool is a Lox boolean.
type Bool bool

var _ Value = Bool(false)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is a Lox number, always a double, as in the source language.
type Number float64

var _ Value = Number(0)

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (Number) Type() string     { return "number" }

// String is a Lox string.
type String string

var _ Value = String("")

func (s String) String() string { return string(s) }
func (String) Type() string     { return "string" }

// Callable is implemented by any value that may appear as the callee of a
// call expression: user functions, classes (whose call constructs an
// instance) and native functions.
type Callable interface {
	Value
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
}
