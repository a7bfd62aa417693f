package resolver

import (
	"testing"

	"lox/ast"
	"lox/token"
)

func ident(name string) token.Token {
	return token.CreateLiteralToken(token.IDENTIFIER, nil, name, 1, 0)
}

// thisKeyword builds a `this` token the way the lexer emits it: keyword
// tokens carry their lexeme, which is what resolution looks names up by.
func thisKeyword() token.Token {
	return token.CreateLiteralToken(token.THIS, nil, "this", 1, 0)
}

func TestResolve_GlobalVariableHasNilDepth(t *testing.T) {
	varStmt := &ast.VarStmt{Name: ident("x"), Initializer: &ast.Literal{Value: 1}}
	ref := &ast.Variable{Name: ident("x")}
	stmts := []ast.Stmt{
		varStmt,
		&ast.ExpressionStmt{Expression: ref},
	}

	if errs := New().Resolve(stmts); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if ref.Depth != nil {
		t.Fatalf("expected global reference to have nil depth, got %v", *ref.Depth)
	}
}

func TestResolve_LocalVariableHopDistance(t *testing.T) {
	// { var x = 1; { print x; } }
	innerRef := &ast.Variable{Name: ident("x")}
	block := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.VarStmt{Name: ident("x"), Initializer: &ast.Literal{Value: 1}},
		&ast.BlockStmt{Statements: []ast.Stmt{
			&ast.PrintStmt{Expression: innerRef},
		}},
	}}

	if errs := New().Resolve([]ast.Stmt{block}); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if innerRef.Depth == nil || *innerRef.Depth != 1 {
		t.Fatalf("expected depth 1, got %v", innerRef.Depth)
	}
}

func TestResolve_IsIdempotent(t *testing.T) {
	innerRef := &ast.Variable{Name: ident("x")}
	block := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.VarStmt{Name: ident("x"), Initializer: &ast.Literal{Value: 1}},
		&ast.BlockStmt{Statements: []ast.Stmt{
			&ast.PrintStmt{Expression: innerRef},
		}},
	}}

	if errs := New().Resolve([]ast.Stmt{block}); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	first := *innerRef.Depth
	if errs := New().Resolve([]ast.Stmt{block}); len(errs) != 0 {
		t.Fatalf("unexpected errors on second pass: %v", errs)
	}
	if *innerRef.Depth != first {
		t.Fatalf("second resolve changed depth: %d -> %d", first, *innerRef.Depth)
	}
}

func TestResolve_SelfReferencingInitializerIsError(t *testing.T) {
	block := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.VarStmt{Name: ident("a"), Initializer: &ast.Variable{Name: ident("a")}},
	}}

	errs := New().Resolve([]ast.Stmt{block})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestResolve_DuplicateDeclarationInSameScopeIsError(t *testing.T) {
	block := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.VarStmt{Name: ident("a"), Initializer: &ast.Literal{Value: 1}},
		&ast.VarStmt{Name: ident("a"), Initializer: &ast.Literal{Value: 2}},
	}}

	errs := New().Resolve([]ast.Stmt{block})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestResolve_ReturnOutsideFunctionIsError(t *testing.T) {
	errs := New().Resolve([]ast.Stmt{
		&ast.Return{Keyword: token.CreateToken(token.RETURN, 1, 0)},
	})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestResolve_ReturnValueFromInitializerIsError(t *testing.T) {
	class := &ast.Class{
		Name: ident("Box"),
		Methods: []*ast.Function{
			{
				Name: ident("init"),
				Body: []ast.Stmt{
					&ast.Return{
						Keyword: token.CreateToken(token.RETURN, 1, 0),
						Value:   &ast.Literal{Value: 1},
					},
				},
			},
		},
	}

	errs := New().Resolve([]ast.Stmt{class})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestResolve_ThisOutsideClassIsError(t *testing.T) {
	errs := New().Resolve([]ast.Stmt{
		&ast.ExpressionStmt{Expression: &ast.This{Keyword: thisKeyword()}},
	})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestResolve_ThisInsideMethodResolvesToImplicitScope(t *testing.T) {
	thisExpr := &ast.This{Keyword: thisKeyword()}
	class := &ast.Class{
		Name: ident("Box"),
		Methods: []*ast.Function{
			{
				Name: ident("peek"),
				Body: []ast.Stmt{
					&ast.ExpressionStmt{Expression: thisExpr},
				},
			},
		},
	}

	if errs := New().Resolve([]ast.Stmt{class}); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if thisExpr.Depth == nil || *thisExpr.Depth != 1 {
		t.Fatalf("expected depth 1, got %v", thisExpr.Depth)
	}
}
