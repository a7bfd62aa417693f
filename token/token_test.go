package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		line      int32
		column    int
		want      Token
	}{
		{
			name:      "Create ASSIGN token",
			tokenType: ASSIGN,
			line:      1,
			column:    3,
			want:      Token{TokenType: ASSIGN, Lexeme: "=", Line: 1, Column: 3},
		},
		{
			name:      "Create MULT token",
			tokenType: MULT,
			line:      2,
			column:    0,
			want:      Token{TokenType: MULT, Lexeme: "*", Line: 2, Column: 0},
		},
		{
			name:      "Create EOF token",
			tokenType: EOF,
			line:      5,
			column:    1,
			want:      Token{TokenType: EOF, Lexeme: "EOF", Line: 5, Column: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, tt.line, tt.column)
			if got != tt.want {
				t.Errorf("CreateToken() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		literal   any
		lexeme    string
		line      int32
		column    int
	}{
		{"identifier", IDENTIFIER, nil, "myVar", 1, 0},
		{"int literal", INT, int64(42), "42", 3, 4},
		{"string literal", STRING, "hi", `"hi"`, 7, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateLiteralToken(tt.tokenType, tt.literal, tt.lexeme, tt.line, tt.column)
			if got.TokenType != tt.tokenType || got.Lexeme != tt.lexeme || got.Literal != tt.literal || got.Line != tt.line || got.Column != tt.column {
				t.Errorf("CreateLiteralToken() = %+v, want fields {%v %v %v %v %v}", got, tt.tokenType, tt.literal, tt.lexeme, tt.line, tt.column)
			}
		})
	}
}

func TestTokenString(t *testing.T) {
	tok := CreateToken(ASSIGN, 1, 1)
	want := `Token {Type: =, Value: "="}`
	if got := tok.String(); got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}
