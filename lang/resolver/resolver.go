// Package resolver performs a static pass over the parsed program that
// resolves every variable reference to a lexical scope depth, so the
// interpreter can look variables up by a fixed number of environment hops
// instead of walking the chain and checking each link at run time.
//
// The scope-stack design (a slice of map[string]bool tracking
// declared-but-not-yet-defined names) and the side-table of resolved
// distances keyed by expression identity implement a two-phase
// declare/define resolution over Lox's class and closure semantics
// (this/super binding, method resolution, initializer detection).
package resolver

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/loxlang/loxi/internal/diag"
	"github.com/loxlang/loxi/lang/ast"
)

type functionType int

const (
	funcNone functionType = iota
	funcFunction
	funcInitializer
	funcMethod
)

type classType int

const (
	classNone classType = iota
	classClass
	classSubclass
)

// Resolver walks a parsed program once and records, for every variable
// reference that resolves to a local (non-global) binding, how many
// enclosing scopes separate the reference from its declaration.
type Resolver struct {
	rep    diag.Reporter
	scopes []map[string]bool
	locals map[ast.Expr]int

	currentFunction functionType
	currentClass    classType
}

// New returns a Resolver reporting errors to rep.
func New(rep diag.Reporter) *Resolver {
	return &Resolver{rep: rep, locals: make(map[ast.Expr]int)}
}

// Resolve walks stmts and returns the resolved-distance side table. Callers
// should check Reporter.HadError() before trusting the result.
func (r *Resolver) Resolve(stmts []ast.Stmt) map[ast.Expr]int {
	r.resolveStmts(stmts)
	return r.locals
}

// CurrentScopeNames returns a sorted snapshot of the names declared in the
// innermost active scope, or nil outside any scope. It exists purely as a
// diagnostic/introspection aid (e.g. for a future "did you mean" hint) and
// plays no part in resolution itself.
func (r *Resolver) CurrentScopeNames() []string {
	if len(r.scopes) == 0 {
		return nil
	}
	names := maps.Keys(r.scopes[len(r.scopes)-1])
	sort.Strings(names)
	return names
}

// --- scope stack ---

func (r *Resolver) beginScope() { r.scopes = append(r.scopes, map[string]bool{}) }
func (r *Resolver) endScope()   { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) declare(name *ast.Ident) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, ok := scope[name.Lexeme]; ok {
		r.rep.Report(name.Line, " at '"+name.Lexeme+"'", "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = false
}

func (r *Resolver) define(name *ast.Ident) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

func (r *Resolver) resolveLocal(expr ast.Expr, name *ast.Ident) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
	// not found in any scope: treated as global, resolved dynamically
}

// --- statements ---

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Stmts)
		r.endScope()
	case *ast.ClassStmt:
		r.resolveClass(s)
	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expr)
	case *ast.FunctionStmt:
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, funcFunction)
	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)
	case *ast.ReturnStmt:
		if r.currentFunction == funcNone {
			r.rep.Report(s.Keyword.Line, "", "Can't return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == funcInitializer {
				r.rep.Report(s.Keyword.Line, "", "Can't return a value from an initializer.")
			}
			r.resolveExpr(s.Value)
		}
	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)
	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Body)
	}
}

func (r *Resolver) resolveClass(s *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = classClass

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.rep.Report(s.Superclass.Name.Line, "", "A class can't inherit from itself.")
		}
		r.currentClass = classSubclass
		r.resolveExpr(s.Superclass)

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, m := range s.Methods {
		fnType := funcMethod
		if m.Name.Lexeme == "init" {
			fnType = funcInitializer
		}
		r.resolveFunction(m, fnType)
	}

	r.endScope()
	if s.Superclass != nil {
		r.endScope()
	}

	r.currentClass = enclosingClass
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, typ functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = typ

	r.beginScope()
	for _, p := range fn.Params {
		r.declare(p)
		r.define(p)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFunction = enclosingFunction
}

// --- expressions ---

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !defined {
				r.rep.Report(e.Name.Line, "", "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name)
	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
	case *ast.GetExpr:
		r.resolveExpr(e.Object)
	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)
	case *ast.LiteralExpr:
		// no sub-expressions, no identifiers
	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)
	case *ast.SuperExpr:
		switch r.currentClass {
		case classNone:
			r.rep.Report(e.Keyword.Line, "", "Can't use 'super' outside of a class.")
		case classClass:
			r.rep.Report(e.Keyword.Line, "", "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(e, e.Keyword)
	case *ast.ThisExpr:
		if r.currentClass == classNone {
			r.rep.Report(e.Keyword.Line, "", "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, e.Keyword)
	case *ast.UnaryExpr:
		r.resolveExpr(e.Right)
	}
}
