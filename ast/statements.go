// statements.go contains all the statement AST nodes. A statement node does
// not produce a value.

package ast

import "lox/token"

// ExpressionStmt represents a statement that consists of a single expression.
// Example: `foo + bar;`
// This evaluates the expression and discards the result.
type ExpressionStmt struct {
	Expression Expression // The expression used as a statement
}

func (e *ExpressionStmt) Accept(v StmtVisitor) any {
	return v.VisitExpressionStmt(e)
}

// PrintStmt represents a print statement that outputs the result
// of evaluating an expression. Example: `print foo + bar;`
type PrintStmt struct {
	Expression Expression // The expression whose result will be printed
}

func (p *PrintStmt) Accept(v StmtVisitor) any {
	return v.VisitPrintStmt(p)
}

// VarStmt represents a variable declaration statement, composed of the name
// of the variable and the expression it binds to. Initializer is nil for a
// bare `var x;` declaration.
type VarStmt struct {
	Name        token.Token
	Initializer Expression
}

func (varStmt *VarStmt) Accept(v StmtVisitor) any {
	return v.VisitVarStmt(varStmt)
}

// BlockStmt represents a block statement containing a list
// of statement expression AST nodes.
type BlockStmt struct {
	Statements []Stmt
}

func (blockStmt *BlockStmt) Accept(v StmtVisitor) any {
	return v.VisitBlockStmt(blockStmt)
}

// IfStmt represents a conditional statement. Else is nil when there is no
// `else` clause.
type IfStmt struct {
	Condition Expression
	Then      Stmt
	Else      Stmt
}

func (ifStmt *IfStmt) Accept(v StmtVisitor) any {
	return v.VisitIfStmt(ifStmt)
}

// WhileStmt represents a `while` loop. The parser also desugars `for` loops
// down to a WhileStmt wrapped in the appropriate BlockStmt nodes, so the
// resolver and interpreter only ever need to handle this one looping form.
type WhileStmt struct {
	Condition Expression
	Body      Stmt
}

func (whileStmt *WhileStmt) Accept(v StmtVisitor) any {
	return v.VisitWhileStmt(whileStmt)
}

// Function represents a function or method declaration. It is shared between
// top-level `fun` declarations and methods declared inside a class body,
// which parse identically and differ only in how the surrounding declaration
// binds the resulting callable.
type Function struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

func (function *Function) Accept(v StmtVisitor) any {
	return v.VisitFunctionStmt(function)
}

// Return represents a `return` statement. Value is nil for a bare `return;`.
type Return struct {
	Keyword token.Token
	Value   Expression
}

func (ret *Return) Accept(v StmtVisitor) any {
	return v.VisitReturnStmt(ret)
}

// Class represents a class declaration: a name and its method set. There is
// no inheritance clause; `super` is reserved vocabulary but this dialect has
// no single-inheritance grammar production to attach it to.
type Class struct {
	Name    token.Token
	Methods []*Function
}

func (class *Class) Accept(v StmtVisitor) any {
	return v.VisitClassStmt(class)
}
