package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/apexforge/apex/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	line, column := l.line, l.column

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: column}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.EQ, Lexeme: "==", Line: line, Column: column}
		}
		l.readChar()
		return token.Token{Type: token.ASSIGN, Lexeme: "=", Line: line, Column: column}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.NOT_EQ, Lexeme: "!=", Line: line, Column: column}
		}
		l.readChar()
		return token.Token{Type: token.BANG, Lexeme: "!", Line: line, Column: column}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.LE, Lexeme: "<=", Line: line, Column: column}
		}
		l.readChar()
		return token.Token{Type: token.LT, Lexeme: "<", Line: line, Column: column}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.GE, Lexeme: ">=", Line: line, Column: column}
		}
		l.readChar()
		return token.Token{Type: token.GT, Lexeme: ">", Line: line, Column: column}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.AND, Lexeme: "&&", Line: line, Column: column}
		}
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Lexeme: "&", Line: line, Column: column}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.OR, Lexeme: "||", Line: line, Column: column}
		}
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Lexeme: "|", Line: line, Column: column}
	case '+':
		l.readChar()
		return token.Token{Type: token.PLUS, Lexeme: "+", Line: line, Column: column}
	case '-':
		l.readChar()
		return token.Token{Type: token.MINUS, Lexeme: "-", Line: line, Column: column}
	case '*':
		l.readChar()
		return token.Token{Type: token.STAR, Lexeme: "*", Line: line, Column: column}
	case '/':
		l.readChar()
		return token.Token{Type: token.SLASH, Lexeme: "/", Line: line, Column: column}
	case '%':
		l.readChar()
		return token.Token{Type: token.PERCENT, Lexeme: "%", Line: line, Column: column}
	case ',':
		l.readChar()
		return token.Token{Type: token.COMMA, Lexeme: ",", Line: line, Column: column}
	case ';':
		l.readChar()
		return token.Token{Type: token.SEMICOLON, Lexeme: ";", Line: line, Column: column}
	case '.':
		l.readChar()
		return token.Token{Type: token.DOT, Lexeme: ".", Line: line, Column: column}
	case '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Lexeme: "(", Line: line, Column: column}
	case ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Lexeme: ")", Line: line, Column: column}
	case '{':
		l.readChar()
		return token.Token{Type: token.LBRACE, Lexeme: "{", Line: line, Column: column}
	case '}':
		l.readChar()
		return token.Token{Type: token.RBRACE, Lexeme: "}", Line: line, Column: column}
	case '"':
		return l.readString(line, column)
	}

	if isLetter(l.ch) {
		lexeme := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(lexeme), Lexeme: lexeme, Line: line, Column: column}
	}
	if unicode.IsDigit(l.ch) {
		return l.readNumber(line, column)
	}

	illegal := string(l.ch)
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Lexeme: illegal, Line: line, Column: column}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || unicode.IsDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber consumes an integer or float literal. The two stay distinct
// token types so the parser can preserve exact integer semantics.
func (l *Lexer) readNumber(line, column int) token.Token {
	start := l.position
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		peek := l.peekChar()
		if unicode.IsDigit(peek) || peek == '+' || peek == '-' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for unicode.IsDigit(l.ch) {
				l.readChar()
			}
		}
	}
	lexeme := l.input[start:l.position]
	if isFloat {
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Line: line, Column: column}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Line: line, Column: column}
}

func (l *Lexer) readString(line, column int) token.Token {
	l.readChar() // opening quote
	var out []rune
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				out = append(out, l.ch)
			}
			l.readChar()
			continue
		}
		out = append(out, l.ch)
		l.readChar()
	}
	if l.ch == 0 {
		return token.Token{Type: token.ILLEGAL, Lexeme: string(out), Line: line, Column: column}
	}
	l.readChar() // closing quote
	return token.Token{Type: token.STRING, Lexeme: string(out), Line: line, Column: column}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}
