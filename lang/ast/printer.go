package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer renders expressions as canonical parenthesized S-expressions,
// e.g. `(+ 1 (* 2 3))`. It is used by the testable law that parsing then
// printing is stable under a second round of parse and print.
type Printer struct{}

// Print renders e as an S-expression.
func (Printer) Print(e Expr) string {
	var b strings.Builder
	printExpr(&b, e)
	return b.String()
}

func printExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *LiteralExpr:
		b.WriteString(literalString(e.Value))
	case *GroupingExpr:
		parenthesize(b, "group", e.Inner)
	case *UnaryExpr:
		parenthesize(b, e.Op.String(), e.Right)
	case *BinaryExpr:
		parenthesize(b, e.OpLit, e.Left, e.Right)
	case *LogicalExpr:
		parenthesize(b, e.Op.String(), e.Left, e.Right)
	case *VariableExpr:
		b.WriteString(e.Name.Lexeme)
	case *AssignExpr:
		parenthesize(b, "= "+e.Name.Lexeme, e.Value)
	case *CallExpr:
		b.WriteString("(call ")
		printExpr(b, e.Callee)
		for _, a := range e.Args {
			b.WriteByte(' ')
			printExpr(b, a)
		}
		b.WriteByte(')')
	case *GetExpr:
		b.WriteString("(get ")
		printExpr(b, e.Object)
		b.WriteByte(' ')
		b.WriteString(e.Name.Lexeme)
		b.WriteByte(')')
	case *SetExpr:
		b.WriteString("(set ")
		printExpr(b, e.Object)
		b.WriteByte(' ')
		b.WriteString(e.Name.Lexeme)
		b.WriteByte(' ')
		printExpr(b, e.Value)
		b.WriteByte(')')
	case *ThisExpr:
		b.WriteString("this")
	case *SuperExpr:
		b.WriteString("(super " + e.Method.Lexeme + ")")
	default:
		fmt.Fprintf(b, "<unknown %T>", e)
	}
}

func parenthesize(b *strings.Builder, name string, exprs ...Expr) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteByte(' ')
		printExpr(b, e)
	}
	b.WriteByte(')')
}

func literalString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
