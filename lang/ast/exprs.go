package ast

import (
	"github.com/loxlang/loxi/lang/token"
)

type (
	// AssignExpr represents an assignment expression, e.g. x = y.
	AssignExpr struct {
		Name  *Ident
		Value Expr
	}

	// BinaryExpr represents a binary expression, e.g. x + y.
	BinaryExpr struct {
		Left  Expr
		Op    token.Token
		OpLit string
		Line_ int
		Right Expr
	}

	// CallExpr represents a function call, e.g. callee(args...).
	CallExpr struct {
		Callee Expr
		Line_  int // line of the closing paren, used for runtime error reporting
		Args   []Expr
	}

	// GetExpr represents a property read, e.g. object.name.
	GetExpr struct {
		Object Expr
		Name   *Ident
	}

	// GroupingExpr represents a parenthesized expression.
	GroupingExpr struct {
		Line_ int
		Inner Expr
	}

	// LiteralExpr represents a literal nil, boolean, number or string.
	LiteralExpr struct {
		Line_ int
		Value interface{} // nil | bool | float64 | string
	}

	// LogicalExpr represents a short-circuiting `and`/`or` expression.
	LogicalExpr struct {
		Left  Expr
		Op    token.Token
		Line_ int
		Right Expr
	}

	// SetExpr represents a property write, e.g. object.name = value.
	SetExpr struct {
		Object Expr
		Name   *Ident
		Value  Expr
	}

	// SuperExpr represents a `super.method` expression.
	SuperExpr struct {
		Keyword *Ident // lexeme "super", carries the line
		Method  *Ident
	}

	// ThisExpr represents a `this` expression.
	ThisExpr struct {
		Keyword *Ident // lexeme "this", carries the line
	}

	// UnaryExpr represents a unary expression, e.g. -x or !x.
	UnaryExpr struct {
		Op    token.Token
		Line_ int
		Right Expr
	}

	// VariableExpr represents a bare identifier used as an expression.
	VariableExpr struct {
		Name *Ident
	}

	// Ident is not itself an ast.Expr — it is the name payload shared by
	// AssignExpr, VariableExpr, GetExpr, SetExpr and function/class/param
	// declarations. Its pointer identity is irrelevant; only VariableExpr,
	// AssignExpr, ThisExpr and SuperExpr are ever used as resolver side-table
	// keys, and those are the enclosing expression nodes, not the Ident.
	Ident struct {
		Lexeme string
		Line   int
	}
)

func (n *AssignExpr) expr()   {}
func (n *BinaryExpr) expr()   {}
func (n *CallExpr) expr()     {}
func (n *GetExpr) expr()      {}
func (n *GroupingExpr) expr() {}
func (n *LiteralExpr) expr()  {}
func (n *LogicalExpr) expr()  {}
func (n *SetExpr) expr()      {}
func (n *SuperExpr) expr()    {}
func (n *ThisExpr) expr()     {}
func (n *UnaryExpr) expr()    {}
func (n *VariableExpr) expr() {}
