package lexer

import (
	"testing"

	"lox/token"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	types := make([]token.TokenType, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.TokenType)
	}
	return types
}

func assertTypes(t *testing.T, got []token.Token, want []token.TokenType) {
	t.Helper()
	gotTypes := tokenTypes(got)
	if len(gotTypes) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(gotTypes), gotTypes, len(want), want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full: %v)", i, gotTypes[i], want[i], gotTypes)
		}
	}
}

func TestScan_Operators(t *testing.T) {
	toks, errs := New("== != <= >= < > = ! + - * /").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, []token.TokenType{
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS_EQUAL, token.LARGER_EQUAL,
		token.LESS, token.LARGER, token.ASSIGN, token.BANG,
		token.ADD, token.SUB, token.MULT, token.DIV, token.EOF,
	})
}

func TestScan_Punctuation(t *testing.T) {
	toks, errs := New("(){};,.").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, []token.TokenType{
		token.LPA, token.RPA, token.LCUR, token.RCUR, token.SEMICOLON, token.COMMA, token.DOT, token.EOF,
	})
}

func TestScan_Keywords(t *testing.T) {
	toks, errs := New("and class else false fun for if nil or print return super this true var while").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, []token.TokenType{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FUNC, token.FOR, token.IF, token.NULL,
		token.OR, token.PRINT, token.RETURN, token.SUPER, token.THIS, token.TRUE, token.VAR, token.WHILE,
		token.EOF,
	})
}

func TestScan_Identifiers(t *testing.T) {
	toks, errs := New("foo bar_baz _qux x1").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"foo", "bar_baz", "_qux", "x1"}
	for i, w := range want {
		if toks[i].TokenType != token.IDENTIFIER || toks[i].Lexeme != w {
			t.Fatalf("token %d: got %v, want identifier %q", i, toks[i], w)
		}
	}
}

func TestScan_Numbers(t *testing.T) {
	toks, errs := New("1 2.5 100").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].TokenType != token.INT || toks[0].Literal != int64(1) {
		t.Fatalf("expected int literal 1, got %v", toks[0])
	}
	if toks[1].TokenType != token.FLOAT || toks[1].Literal != 2.5 {
		t.Fatalf("expected float literal 2.5, got %v", toks[1])
	}
	if toks[2].TokenType != token.INT || toks[2].Literal != int64(100) {
		t.Fatalf("expected int literal 100, got %v", toks[2])
	}
}

func TestScan_NumberFollowedByDotAccessIsNotDecimal(t *testing.T) {
	// `1.toString` is never valid syntax, but the scanner must still emit a
	// separate DOT token rather than fail trying to parse "1." as a number.
	toks, errs := New("1.b").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, []token.TokenType{token.INT, token.DOT, token.IDENTIFIER, token.EOF})
}

func TestScan_StringLiteral(t *testing.T) {
	toks, errs := New(`"hello world"`).Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].TokenType != token.STRING || toks[0].Literal != "hello world" {
		t.Fatalf("expected string literal, got %v", toks[0])
	}
}

func TestScan_UnclosedStringIsError(t *testing.T) {
	_, errs := New(`"unterminated`).Scan()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestScan_LineCommentIsIgnored(t *testing.T) {
	toks, errs := New("1 // this is a comment\n2").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, []token.TokenType{token.INT, token.INT, token.EOF})
}

func TestScan_UnexpectedCharacterIsError(t *testing.T) {
	_, errs := New("@").Scan()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}
