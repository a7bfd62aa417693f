// Package resolver performs static scope resolution over a parsed program
// before it is handed to the tree-walk interpreter (the bytecode path
// compiles straight from tokens and has no resolver stage).
//
// For every variable reference, it computes how many enclosing block scopes
// separate the reference from the scope that declares it, and writes that
// hop count onto the AST node itself (Variable.Depth, Assign.Depth,
// This.Depth). A nil Depth means the name must be looked up in the global
// scope at runtime. Writing the distance on the node instead of into a
// name-keyed map means two different variables that happen to share a
// lexeme, declared in two different scopes, never collide.
package resolver

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"lox/ast"
	"lox/token"
)

type funcType int

const (
	funcTypeNone funcType = iota
	funcTypeFunction
	funcTypeInitializer
	funcTypeMethod
)

type classType int

const (
	classTypeNone classType = iota
	classTypeClass
)

// scope maps a declared name to whether its initializer has finished
// running. A value of false marks "declared but not yet defined", the
// window during which referencing the name in its own initializer is an
// error (`var a = a;`).
type scope map[string]bool

// Resolver walks a parsed program and annotates every variable reference
// with its static hop distance.
type Resolver struct {
	scopes       []scope
	currentFunc  funcType
	currentClass classType
	errors       []error
}

// New constructs a Resolver ready to walk a program.
func New() *Resolver {
	return &Resolver{
		scopes:       []scope{},
		currentFunc:  funcTypeNone,
		currentClass: classTypeNone,
	}
}

// Resolve walks every top-level statement and returns any resolution errors
// found. Like the parser, it keeps going after an error so it can report as
// many problems as possible in one pass.
func (r *Resolver) Resolve(statements []ast.Stmt) []error {
	r.resolveStmtList(statements)
	return r.errors
}

func (r *Resolver) resolveStmtList(statements []ast.Stmt) {
	for _, stmt := range statements {
		r.resolveStmt(stmt)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	stmt.Accept(r)
}

func (r *Resolver) resolveExpr(expr ast.Expression) {
	expr.Accept(r)
}

func (r *Resolver) fail(tok token.Token, message string) {
	r.errors = append(r.errors, CreateResolutionError(tok.Line, tok.Column, message))
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare registers name in the innermost scope as "not yet ready", so that
// a reference to it inside its own initializer can be rejected. Declaring
// the same name twice in one scope is also rejected: shadowing across
// scopes is fine, but re-declaring within a scope is almost always a typo.
func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	current := r.scopes[len(r.scopes)-1]
	if _, exists := current[name.Lexeme]; exists {
		r.fail(name, fmt.Sprintf("'%s' has already been declared in this scope", name.Lexeme))
		return
	}
	current[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal walks the scope stack from innermost to outermost looking for
// name, and writes the hop distance into setDepth when found. Leaving
// setDepth untouched (nil) means the name is assumed global.
func (r *Resolver) resolveLocal(name token.Token, setDepth func(int)) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, exists := r.scopes[i][name.Lexeme]; exists {
			depth := len(r.scopes) - 1 - i
			logrus.Tracef("resolve: '%s' at line %d -> depth %d", name.Lexeme, name.Line, depth)
			setDepth(depth)
			return
		}
	}
	logrus.Tracef("resolve: '%s' at line %d -> global", name.Lexeme, name.Line)
}

func (r *Resolver) resolveFunction(params []token.Token, body []ast.Stmt, kind funcType) {
	logrus.Tracef("resolve: entering function body (kind=%d, params=%d)", kind, len(params))
	enclosingFunc := r.currentFunc
	r.currentFunc = kind

	r.beginScope()
	for _, param := range params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmtList(body)
	r.endScope()

	r.currentFunc = enclosingFunc
}

// --- StmtVisitor ---

func (r *Resolver) VisitExpressionStmt(stmt *ast.ExpressionStmt) any {
	r.resolveExpr(stmt.Expression)
	return nil
}

func (r *Resolver) VisitPrintStmt(stmt *ast.PrintStmt) any {
	r.resolveExpr(stmt.Expression)
	return nil
}

func (r *Resolver) VisitVarStmt(stmt *ast.VarStmt) any {
	r.declare(stmt.Name)
	if stmt.Initializer != nil {
		r.resolveExpr(stmt.Initializer)
	}
	r.define(stmt.Name)
	return nil
}

func (r *Resolver) VisitBlockStmt(stmt *ast.BlockStmt) any {
	r.beginScope()
	r.resolveStmtList(stmt.Statements)
	r.endScope()
	return nil
}

func (r *Resolver) VisitIfStmt(stmt *ast.IfStmt) any {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Then)
	if stmt.Else != nil {
		r.resolveStmt(stmt.Else)
	}
	return nil
}

func (r *Resolver) VisitWhileStmt(stmt *ast.WhileStmt) any {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Body)
	return nil
}

func (r *Resolver) VisitFunctionStmt(stmt *ast.Function) any {
	r.declare(stmt.Name)
	r.define(stmt.Name)
	r.resolveFunction(stmt.Params, stmt.Body, funcTypeFunction)
	return nil
}

func (r *Resolver) VisitReturnStmt(stmt *ast.Return) any {
	if r.currentFunc == funcTypeNone {
		r.fail(stmt.Keyword, "cannot return from outside of a function or method")
		return nil
	}
	if stmt.Value != nil {
		if r.currentFunc == funcTypeInitializer {
			r.fail(stmt.Keyword, "cannot return a value from an initializer")
			return nil
		}
		r.resolveExpr(stmt.Value)
	}
	return nil
}

func (r *Resolver) VisitClassStmt(stmt *ast.Class) any {
	enclosingClass := r.currentClass
	r.currentClass = classTypeClass

	r.declare(stmt.Name)
	r.define(stmt.Name)

	// `this` lives in an implicit scope wrapping every method body, one
	// level outside of the method's own parameter scope.
	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range stmt.Methods {
		kind := funcTypeMethod
		if method.Name.Lexeme == initializerName {
			kind = funcTypeInitializer
		}
		r.resolveFunction(method.Params, method.Body, kind)
	}

	r.endScope()
	r.currentClass = enclosingClass
	return nil
}

// --- ExpressionVisitor ---

func (r *Resolver) VisitVariableExpression(expr *ast.Variable) any {
	if len(r.scopes) > 0 {
		if ready, exists := r.scopes[len(r.scopes)-1][expr.Name.Lexeme]; exists && !ready {
			r.fail(expr.Name, fmt.Sprintf("cannot read local variable '%s' in its own initializer", expr.Name.Lexeme))
			return nil
		}
	}
	r.resolveLocal(expr.Name, func(depth int) { expr.Depth = &depth })
	return nil
}

func (r *Resolver) VisitAssignExpression(expr *ast.Assign) any {
	r.resolveExpr(expr.Value)
	r.resolveLocal(expr.Name, func(depth int) { expr.Depth = &depth })
	return nil
}

func (r *Resolver) VisitBinary(expr *ast.Binary) any {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitUnary(expr *ast.Unary) any {
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitLiteral(expr *ast.Literal) any {
	return nil
}

func (r *Resolver) VisitGrouping(expr *ast.Grouping) any {
	r.resolveExpr(expr.Expression)
	return nil
}

func (r *Resolver) VisitLogicalExpression(expr *ast.Logical) any {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitCallExpression(expr *ast.Call) any {
	r.resolveExpr(expr.Callee)
	for _, arg := range expr.Arguments {
		r.resolveExpr(arg)
	}
	return nil
}

func (r *Resolver) VisitGetExpression(expr *ast.Get) any {
	r.resolveExpr(expr.Object)
	return nil
}

func (r *Resolver) VisitSetExpression(expr *ast.Set) any {
	r.resolveExpr(expr.Value)
	r.resolveExpr(expr.Object)
	return nil
}

func (r *Resolver) VisitThisExpression(expr *ast.This) any {
	if r.currentClass == classTypeNone {
		r.fail(expr.Keyword, "cannot use 'this' outside of a class method")
		return nil
	}
	r.resolveLocal(expr.Keyword, func(depth int) { expr.Depth = &depth })
	return nil
}

// initializerName is the well-known method name treated as a class's
// constructor. A method with this name runs implicitly on `Class(...)` and
// always returns the instance regardless of its own return statements.
const initializerName = "init"
