package lexer

import (
	"testing"

	"github.com/apexforge/apex/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `
import mem as memory;

fn apex() {
    let total = 1 + 2 * 3;
    var ratio = 2.5 / 1e3;
    return total != 0 && ratio <= 1.0 || !false;
}
`
	expected := []struct {
		typ    token.Type
		lexeme string
	}{
		{token.IMPORT, "import"},
		{token.IDENT, "mem"},
		{token.AS, "as"},
		{token.IDENT, "memory"},
		{token.SEMICOLON, ";"},
		{token.FUNCTION, "fn"},
		{token.IDENT, "apex"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.LET, "let"},
		{token.IDENT, "total"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.PLUS, "+"},
		{token.INT, "2"},
		{token.STAR, "*"},
		{token.INT, "3"},
		{token.SEMICOLON, ";"},
		{token.VAR, "var"},
		{token.IDENT, "ratio"},
		{token.ASSIGN, "="},
		{token.FLOAT, "2.5"},
		{token.SLASH, "/"},
		{token.FLOAT, "1e3"},
		{token.SEMICOLON, ";"},
		{token.RETURN, "return"},
		{token.IDENT, "total"},
		{token.NOT_EQ, "!="},
		{token.INT, "0"},
		{token.AND, "&&"},
		{token.IDENT, "ratio"},
		{token.LE, "<="},
		{token.FLOAT, "1.0"},
		{token.OR, "||"},
		{token.BANG, "!"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ || tok.Lexeme != want.lexeme {
			t.Fatalf("token %d: got (%s, %q), want (%s, %q)", i, tok.Type, tok.Lexeme, want.typ, want.lexeme)
		}
	}
}

func TestStringsAndEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `"hello"`, "hello"},
		{"escapes", `"a\nb\t\"c\\"`, "a\nb\t\"c\\"},
		{"unknown escape passes through", `"\q"`, "q"},
		{"unicode", `"héllo"`, "héllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != token.STRING {
				t.Fatalf("got %s, want STRING", tok.Type)
			}
			if tok.Lexeme != tt.want {
				t.Errorf("got %q, want %q", tok.Lexeme, tt.want)
			}
		})
	}

	t.Run("unterminated string", func(t *testing.T) {
		tok := New(`"oops`).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("got %s, want ILLEGAL", tok.Type)
		}
	})
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   token.Type
	}{
		{"0", token.INT},
		{"1234567890123456789012345678901234567890", token.INT},
		{"1.5", token.FLOAT},
		{"2e10", token.FLOAT},
		{"2E-3", token.FLOAT},
		{"3.25e+2", token.FLOAT},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ || tok.Lexeme != tt.input {
				t.Errorf("got (%s, %q), want (%s, %q)", tok.Type, tok.Lexeme, tt.typ, tt.input)
			}
		})
	}

	t.Run("dot without digits is not a float", func(t *testing.T) {
		l := New("1.foo")
		first := l.NextToken()
		if first.Type != token.INT || first.Lexeme != "1" {
			t.Fatalf("got (%s, %q), want (INT, 1)", first.Type, first.Lexeme)
		}
		if dot := l.NextToken(); dot.Type != token.DOT {
			t.Errorf("got %s, want DOT", dot.Type)
		}
	})
}

func TestCommentsAndPositions(t *testing.T) {
	l := New("// leading comment\nlet x = 1; // trailing\n")
	tok := l.NextToken()
	if tok.Type != token.LET {
		t.Fatalf("got %s, want LET", tok.Type)
	}
	if tok.Line != 2 {
		t.Errorf("got line %d, want 2", tok.Line)
	}
	for tok.Type != token.EOF {
		tok = l.NextToken()
	}
}

func TestIllegalRunes(t *testing.T) {
	for _, input := range []string{"@", "#", "&", "|"} {
		tok := New(input).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("%q: got %s, want ILLEGAL", input, tok.Type)
		}
	}
}
