package runtime_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/loxi/internal/diag"
	"github.com/loxlang/loxi/lang/parser"
	"github.com/loxlang/loxi/lang/resolver"
	"github.com/loxlang/loxi/lang/runtime"
	"github.com/loxlang/loxi/lang/scanner"
)

func run(t *testing.T, src string) (string, *diag.StdReporter) {
	t.Helper()
	var diagBuf, outBuf bytes.Buffer
	rep := &diag.StdReporter{Out: &diagBuf}

	toks := scanner.New(src, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	require.False(t, rep.HadError(), "parse error: %s", diagBuf.String())

	locals := resolver.New(rep).Resolve(stmts)
	require.False(t, rep.HadError(), "resolve error: %s", diagBuf.String())

	in := runtime.New(&outBuf)
	in.Resolve(locals)
	in.Interpret(stmts, rep)

	return outBuf.String(), rep
}

func TestArithmeticAndPrint(t *testing.T) {
	out, rep := run(t, `print 1 + 2 * 3;`)
	assert.False(t, rep.HadRuntimeError())
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, rep := run(t, `print "a" + "b";`)
	assert.False(t, rep.HadRuntimeError())
	assert.Equal(t, "ab\n", out)
}

func TestVariablesAndScoping(t *testing.T) {
	out, rep := run(t, `
		var a = "global";
		{
			var a = "local";
			print a;
		}
		print a;
	`)
	assert.False(t, rep.HadRuntimeError())
	assert.Equal(t, "local\nglobal\n", out)
}

func TestIfElse(t *testing.T) {
	out, _ := run(t, `if (1 < 2) print "yes"; else print "no";`)
	assert.Equal(t, "yes\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, _ := run(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
	`)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestForLoop(t *testing.T) {
	out, _ := run(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestFunctionsAndClosures(t *testing.T) {
	out, rep := run(t, `
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				print i;
			}
			return count;
		}
		var counter = makeCounter();
		counter();
		counter();
	`)
	assert.False(t, rep.HadRuntimeError())
	assert.Equal(t, "1\n2\n", out)
}

func TestClassesAndMethods(t *testing.T) {
	out, rep := run(t, `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				print "hi " + this.name;
			}
		}
		var g = Greeter("world");
		g.greet();
	`)
	require.False(t, rep.HadRuntimeError())
	assert.Equal(t, "hi world\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out, rep := run(t, `
		class A {
			method() {
				print "A method";
			}
		}
		class B < A {
			method() {
				super.method();
				print "B method";
			}
		}
		B().method();
	`)
	require.False(t, rep.HadRuntimeError())
	assert.Equal(t, "A method\nB method\n", out)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, rep := run(t, `print missing;`)
	assert.True(t, rep.HadRuntimeError())
}

func TestOperandTypeErrors(t *testing.T) {
	var diagBuf, outBuf bytes.Buffer
	rep := &diag.StdReporter{Out: &diagBuf}
	toks := scanner.New(`print 1 + "a";`, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	require.False(t, rep.HadError())
	locals := resolver.New(rep).Resolve(stmts)
	require.False(t, rep.HadError())

	in := runtime.New(&outBuf)
	in.Resolve(locals)
	in.Interpret(stmts, rep)

	assert.True(t, rep.HadRuntimeError())
	assert.Contains(t, diagBuf.String(), "Operands must be two numbers or two strings.")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	var diagBuf, outBuf bytes.Buffer
	rep := &diag.StdReporter{Out: &diagBuf}
	toks := scanner.New(`var x = 1; x();`, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	require.False(t, rep.HadError())
	locals := resolver.New(rep).Resolve(stmts)

	in := runtime.New(&outBuf)
	in.Resolve(locals)
	in.Interpret(stmts, rep)

	assert.True(t, rep.HadRuntimeError())
	assert.Contains(t, diagBuf.String(), "Can only call functions and classes.")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	var diagBuf, outBuf bytes.Buffer
	rep := &diag.StdReporter{Out: &diagBuf}
	toks := scanner.New(`fun f(a) { return a; } f(1, 2);`, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	require.False(t, rep.HadError())
	locals := resolver.New(rep).Resolve(stmts)

	in := runtime.New(&outBuf)
	in.Resolve(locals)
	in.Interpret(stmts, rep)

	assert.True(t, rep.HadRuntimeError())
	assert.Contains(t, diagBuf.String(), "Expected 1 arguments but got 2.")
}

func TestClassMethodNamesSorted(t *testing.T) {
	var diagBuf, outBuf bytes.Buffer
	rep := &diag.StdReporter{Out: &diagBuf}
	toks := scanner.New(`class A { zeta() {} alpha() {} }`, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	require.False(t, rep.HadError())
	locals := resolver.New(rep).Resolve(stmts)
	require.False(t, rep.HadError())

	in := runtime.New(&outBuf)
	in.Resolve(locals)
	in.Interpret(stmts, rep)
	require.False(t, rep.HadRuntimeError())

	v, err := in.Globals.Get(ident("A"))
	require.NoError(t, err)
	class := v.(*runtime.Class)
	assert.Equal(t, []string{"alpha", "zeta"}, class.MethodNames())
}

func TestClockIsDefined(t *testing.T) {
	out, rep := run(t, `print clock() >= 0;`)
	assert.False(t, rep.HadRuntimeError())
	assert.Equal(t, "true\n", out)
}
