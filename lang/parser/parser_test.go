package parser_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/loxi/internal/diag"
	"github.com/loxlang/loxi/lang/ast"
	"github.com/loxlang/loxi/lang/parser"
	"github.com/loxlang/loxi/lang/scanner"
)

func parse(t *testing.T, src string) ([]ast.Stmt, *diag.StdReporter) {
	t.Helper()
	var buf bytes.Buffer
	rep := &diag.StdReporter{Out: &buf}
	toks := scanner.New(src, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	return stmts, rep
}

func printExpr(t *testing.T, src string) string {
	t.Helper()
	stmts, rep := parse(t, src)
	require.False(t, rep.HadError())
	require.Len(t, stmts, 1)
	es, ok := stmts[0].(*ast.ExpressionStmt)
	require.True(t, ok)
	return new(ast.Printer).Print(es.Expr)
}

func TestPrecedence(t *testing.T) {
	assert.Equal(t, "(+ 1 (* 2 3))", printExpr(t, "1 + 2 * 3;"))
	assert.Equal(t, "(* (group (+ 1 2)) 3)", printExpr(t, "(1 + 2) * 3;"))
	assert.Equal(t, "(or a (and b c))", printExpr(t, "a or b and c;"))
}

func TestUnaryAndGrouping(t *testing.T) {
	assert.Equal(t, "(- (group (- 1)))", printExpr(t, "-(-1);"))
	assert.Equal(t, "(! true)", printExpr(t, "!true;"))
}

func TestCallAndGet(t *testing.T) {
	assert.Equal(t, "(call foo 1 2)", printExpr(t, "foo(1, 2);"))
	assert.Equal(t, "(get obj field)", printExpr(t, "obj.field;"))
}

func TestAssignmentTargets(t *testing.T) {
	stmts, rep := parse(t, "x = 1;")
	require.False(t, rep.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	_, ok := es.Expr.(*ast.AssignExpr)
	assert.True(t, ok)

	stmts, rep = parse(t, "obj.field = 1;")
	require.False(t, rep.HadError())
	es = stmts[0].(*ast.ExpressionStmt)
	_, ok = es.Expr.(*ast.SetExpr)
	assert.True(t, ok)
}

func TestInvalidAssignmentTarget(t *testing.T) {
	var buf bytes.Buffer
	rep := &diag.StdReporter{Out: &buf}
	toks := scanner.New("1 + 2 = 3;", rep).ScanTokens()
	parser.New(toks, rep).Parse()
	assert.True(t, rep.HadError())
	assert.Contains(t, buf.String(), "Invalid assignment target.")
}

func TestVarDeclaration(t *testing.T) {
	stmts, rep := parse(t, "var a = 1; var b;")
	require.False(t, rep.HadError())
	require.Len(t, stmts, 2)
	v0 := stmts[0].(*ast.VarStmt)
	assert.Equal(t, "a", v0.Name.Lexeme)
	assert.NotNil(t, v0.Init)
	v1 := stmts[1].(*ast.VarStmt)
	assert.Nil(t, v1.Init)
}

func TestIfElse(t *testing.T) {
	stmts, rep := parse(t, "if (true) print 1; else print 2;")
	require.False(t, rep.HadError())
	require.Len(t, stmts, 1)
	ifs := stmts[0].(*ast.IfStmt)
	assert.NotNil(t, ifs.Then)
	assert.NotNil(t, ifs.Else)
}

func TestWhile(t *testing.T) {
	stmts, rep := parse(t, "while (x) { x = x - 1; }")
	require.False(t, rep.HadError())
	require.Len(t, stmts, 1)
	_, ok := stmts[0].(*ast.WhileStmt)
	assert.True(t, ok)
}

func TestForDesugarsToWhile(t *testing.T) {
	stmts, rep := parse(t, "for (var i = 0; i < 10; i = i + 1) print i;")
	require.False(t, rep.HadError())
	require.Len(t, stmts, 1)
	block := stmts[0].(*ast.BlockStmt)
	require.Len(t, block.Stmts, 2)
	_, ok := block.Stmts[0].(*ast.VarStmt)
	assert.True(t, ok)
	loop, ok := block.Stmts[1].(*ast.WhileStmt)
	require.True(t, ok)
	body := loop.Body.(*ast.BlockStmt)
	require.Len(t, body.Stmts, 2)
}

func TestForWithoutConditionUsesTrueLiteral(t *testing.T) {
	stmts, rep := parse(t, "for (;;) print 1;")
	require.False(t, rep.HadError())
	// with no initializer there is no enclosing block, just the while loop
	loop, ok := stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	lit, ok := loop.Cond.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, true, lit.Value)
}

func TestFunctionDeclaration(t *testing.T) {
	stmts, rep := parse(t, "fun add(a, b) { return a + b; }")
	require.False(t, rep.HadError())
	require.Len(t, stmts, 1)
	fn := stmts[0].(*ast.FunctionStmt)
	assert.Equal(t, "add", fn.Name.Lexeme)
	require.Len(t, fn.Params, 2)
	require.Len(t, fn.Body, 1)
}

func TestClassDeclarationWithSuperclass(t *testing.T) {
	stmts, rep := parse(t, "class B < A { method() { return 1; } }")
	require.False(t, rep.HadError())
	require.Len(t, stmts, 1)
	cls := stmts[0].(*ast.ClassStmt)
	assert.Equal(t, "B", cls.Name.Lexeme)
	require.NotNil(t, cls.Superclass)
	assert.Equal(t, "A", cls.Superclass.Name.Lexeme)
	require.Len(t, cls.Methods, 1)
}

func TestMissingSemicolonReportsAndSynchronizes(t *testing.T) {
	var buf bytes.Buffer
	rep := &diag.StdReporter{Out: &buf}
	toks := scanner.New("var a = 1 2;\nvar b = 2;", rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	assert.True(t, rep.HadError())
	assert.Contains(t, buf.String(), "Expect ';' after variable declaration.")
	// synchronize() should recover and still parse the next statement
	require.Len(t, stmts, 1)
	v := stmts[0].(*ast.VarStmt)
	assert.Equal(t, "b", v.Name.Lexeme)
}

func TestThisAndSuperExpressions(t *testing.T) {
	assert.Equal(t, "this", printExpr(t, "this;"))
	assert.Equal(t, "(super method)", printExpr(t, "super.method;"))
}
