package runtime

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/maps"

	"github.com/loxlang/loxi/internal/diag"
	"github.com/loxlang/loxi/lang/ast"
	"github.com/loxlang/loxi/lang/token"
)

// controlSignal unwinds execution back to the enclosing Function.Call after
// a return statement. Lox's only non-local control transfer is `return`, so
// a single explicit sentinel threaded through every execute* return value
// does the job; a general exception mechanism (or panic/recover, as the
// parser uses for syntax errors) would be overkill for one signal.
type controlSignal struct {
	value Value
}

// Interpreter walks a resolved program and evaluates it directly, without
// compiling to any intermediate form.
type Interpreter struct {
	Globals *Environment
	out     io.Writer

	env    *Environment
	locals map[ast.Expr]int
}

// New returns an Interpreter that writes `print` output to out and defines
// the small set of native globals (currently just clock).
func New(out io.Writer) *Interpreter {
	globals := NewEnvironment(nil)
	globals.Define("clock", &NativeFn{
		NameStr: "clock",
		ArityN:  0,
		Fn: func(args []Value) (Value, error) {
			return Number(float64(time.Now().UnixNano()) / 1e9), nil
		},
	})
	return &Interpreter{Globals: globals, out: out, env: globals}
}

// Resolve installs the resolver's side table of variable resolution
// distances; it must be called before Interpret.
func (in *Interpreter) Resolve(locals map[ast.Expr]int) { in.locals = locals }

// Interpret executes stmts in order, stopping and reporting at the first
// runtime error.
func (in *Interpreter) Interpret(stmts []ast.Stmt, rep diag.Reporter) {
	for _, s := range stmts {
		if _, err := in.execute(s); err != nil {
			rep.RuntimeError(err)
			return
		}
	}
}

// --- statement execution ---

func (in *Interpreter) execute(stmt ast.Stmt) (*controlSignal, error) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return in.executeBlock(s.Stmts, NewEnvironment(in.env))
	case *ast.ClassStmt:
		return nil, in.executeClass(s)
	case *ast.ExpressionStmt:
		_, err := in.eval(s.Expr)
		return nil, err
	case *ast.FunctionStmt:
		fn := &Function{Declaration: s, Closure: in.env}
		in.env.Define(s.Name.Lexeme, fn)
		return nil, nil
	case *ast.IfStmt:
		cond, err := in.eval(s.Cond)
		if err != nil {
			return nil, err
		}
		switch {
		case truthy(cond):
			return in.execute(s.Then)
		case s.Else != nil:
			return in.execute(s.Else)
		default:
			return nil, nil
		}
	case *ast.PrintStmt:
		v, err := in.eval(s.Expr)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(in.out, Stringify(v))
		return nil, nil
	case *ast.ReturnStmt:
		var v Value = Nil
		if s.Value != nil {
			var err error
			v, err = in.eval(s.Value)
			if err != nil {
				return nil, err
			}
		}
		return &controlSignal{value: v}, nil
	case *ast.VarStmt:
		var v Value = Nil
		if s.Init != nil {
			var err error
			v, err = in.eval(s.Init)
			if err != nil {
				return nil, err
			}
		}
		in.env.Define(s.Name.Lexeme, v)
		return nil, nil
	case *ast.WhileStmt:
		for {
			cond, err := in.eval(s.Cond)
			if err != nil {
				return nil, err
			}
			if !truthy(cond) {
				return nil, nil
			}
			ctrl, err := in.execute(s.Body)
			if err != nil || ctrl != nil {
				return ctrl, err
			}
		}
	default:
		return nil, fmt.Errorf("runtime: unhandled statement %T", stmt)
	}
}

// executeBlock runs stmts in env, restoring the previous environment
// afterwards regardless of how execution ends.
func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) (*controlSignal, error) {
	previous := in.env
	in.env = env
	defer func() { in.env = previous }()

	for _, s := range stmts {
		ctrl, err := in.execute(s)
		if err != nil || ctrl != nil {
			return ctrl, err
		}
	}
	return nil, nil
}

func (in *Interpreter) executeClass(s *ast.ClassStmt) error {
	var superclass *Class
	if s.Superclass != nil {
		v, err := in.eval(s.Superclass)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return newError(s.Superclass.Name.Line, "Superclass must be a class.")
		}
		superclass = sc
	}

	in.env.Define(s.Name.Lexeme, Nil)

	env := in.env
	if s.Superclass != nil {
		env = NewEnvironment(in.env)
		env.Define("super", superclass)
	}

	methods := swiss.NewMap[string, *Function](uint32(len(s.Methods)))
	methodSet := make(map[string]struct{}, len(s.Methods))
	for _, m := range s.Methods {
		fn := &Function{Declaration: m, Closure: env, IsInitializer: m.Name.Lexeme == "init"}
		methods.Put(m.Name.Lexeme, fn)
		methodSet[m.Name.Lexeme] = struct{}{}
	}
	methodNames := maps.Keys(methodSet)
	sort.Strings(methodNames)

	class := &Class{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods, ownMethodNames: methodNames}
	return in.env.Assign(s.Name, class)
}

// --- expression evaluation ---

func (in *Interpreter) eval(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil
	case *ast.GroupingExpr:
		return in.eval(e.Inner)
	case *ast.VariableExpr:
		return in.lookUpVariable(e.Name, e)
	case *ast.AssignExpr:
		v, err := in.eval(e.Value)
		if err != nil {
			return nil, err
		}
		if dist, ok := in.locals[e]; ok {
			in.env.AssignAt(dist, e.Name.Lexeme, v)
		} else if err := in.Globals.Assign(e.Name, v); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.UnaryExpr:
		return in.evalUnary(e)
	case *ast.BinaryExpr:
		return in.evalBinary(e)
	case *ast.LogicalExpr:
		return in.evalLogical(e)
	case *ast.CallExpr:
		return in.evalCall(e)
	case *ast.GetExpr:
		obj, err := in.eval(e.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, newError(e.Name.Line, "Only instances have properties.")
		}
		return inst.Get(e.Name)
	case *ast.SetExpr:
		obj, err := in.eval(e.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, newError(e.Name.Line, "Only instances have fields.")
		}
		v, err := in.eval(e.Value)
		if err != nil {
			return nil, err
		}
		inst.Set(e.Name, v)
		return v, nil
	case *ast.ThisExpr:
		return in.lookUpVariable(e.Keyword, e)
	case *ast.SuperExpr:
		return in.evalSuper(e)
	default:
		return nil, fmt.Errorf("runtime: unhandled expression %T", expr)
	}
}

func (in *Interpreter) lookUpVariable(name *ast.Ident, expr ast.Expr) (Value, error) {
	if dist, ok := in.locals[expr]; ok {
		return in.env.GetAt(dist, name.Lexeme), nil
	}
	return in.Globals.Get(name)
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	right, err := in.eval(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.MINUS:
		n, ok := right.(Number)
		if !ok {
			return nil, newError(e.Line_, "Operand must be a number.")
		}
		return -n, nil
	case token.BANG:
		return Bool(!truthy(right)), nil
	default:
		return nil, fmt.Errorf("runtime: unhandled unary operator %v", e.Op)
	}
}

func (in *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == token.OR {
		if truthy(left) {
			return left, nil
		}
	} else if !truthy(left) {
		return left, nil
	}
	return in.eval(e.Right)
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.PLUS:
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if lok && rok {
			return ln + rn, nil
		}
		ls, lok := left.(String)
		rs, rok := right.(String)
		if lok && rok {
			return ls + rs, nil
		}
		return nil, newError(e.Line_, "Operands must be two numbers or two strings.")
	case token.MINUS, token.STAR, token.SLASH, token.GT, token.GE, token.LT, token.LE:
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if !lok || !rok {
			return nil, newError(e.Line_, "Operands must be numbers.")
		}
		switch e.Op {
		case token.MINUS:
			return ln - rn, nil
		case token.STAR:
			return ln * rn, nil
		case token.SLASH:
			return ln / rn, nil
		case token.GT:
			return Bool(ln > rn), nil
		case token.GE:
			return Bool(ln >= rn), nil
		case token.LT:
			return Bool(ln < rn), nil
		default:
			return Bool(ln <= rn), nil
		}
	case token.EQEQ:
		return Bool(isEqual(left, right)), nil
	case token.BANGEQ:
		return Bool(!isEqual(left, right)), nil
	default:
		return nil, fmt.Errorf("runtime: unhandled binary operator %v", e.Op)
	}
}

func (in *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := in.eval(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := in.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, newError(e.Line_, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, newError(e.Line_, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	return fn.Call(in, args)
}

func (in *Interpreter) evalSuper(e *ast.SuperExpr) (Value, error) {
	dist := in.locals[e]
	superclass, _ := in.env.GetAt(dist, "super").(*Class)
	object, _ := in.env.GetAt(dist-1, "this").(*Instance)

	method, ok := superclass.FindMethod(e.Method.Lexeme)
	if !ok {
		return nil, newError(e.Method.Line, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(object), nil
}

// --- shared helpers ---

func literalValue(v interface{}) Value {
	switch v := v.(type) {
	case nil:
		return Nil
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case string:
		return String(v)
	default:
		panic(fmt.Sprintf("runtime: unhandled literal value %T", v))
	}
}

func truthy(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

func isEqual(a, b Value) bool {
	if a == Nil && b == Nil {
		return true
	}
	if a == Nil || b == Nil {
		return false
	}
	return a == b
}

// Stringify renders v the way `print` and the REPL do.
func Stringify(v Value) string { return v.String() }
