package parser

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/apexforge/apex/internal/ast"
	"github.com/apexforge/apex/internal/lexer"
	"github.com/apexforge/apex/internal/token"
)

// Parser is a recursive-descent parser over the lexer's token stream. It
// stops at the first syntax error; the returned error carries the position
// and the offending lexeme.
type Parser struct {
	tokens  []token.Token
	current int
}

func Parse(source string) (*ast.Program, error) {
	l := lexer.New(source)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			return nil, fmt.Errorf("unexpected character %q at line %d, column %d", tok.Lexeme, tok.Line, tok.Column)
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	p := &Parser{tokens: tokens}
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	for p.check(token.IMPORT) {
		imp, err := p.parseImport()
		if err != nil {
			return nil, err
		}
		program.Imports = append(program.Imports, imp)
	}
	for !p.atEnd() {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, fn)
	}
	return program, nil
}

func (p *Parser) parseImport() (*ast.ImportStatement, error) {
	tok := p.advance() // 'import'
	module, err := p.expectIdent("expected module name after 'import'")
	if err != nil {
		return nil, err
	}
	imp := &ast.ImportStatement{Token: tok, Module: module}
	if p.match(token.DOT) {
		imp.Symbol, err = p.expectIdent("expected symbol name after '.' in import")
		if err != nil {
			return nil, err
		}
	}
	if p.match(token.AS) {
		imp.Alias, err = p.expectIdent("expected alias name after 'as'")
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.SEMICOLON, "expected ';' after import statement"); err != nil {
		return nil, err
	}
	return imp, nil
}

func (p *Parser) parseFunction() (*ast.FunctionStatement, error) {
	tok := p.peek()
	if err := p.expect(token.FUNCTION, "expected 'fn' at the start of a function"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("expected function name after 'fn'")
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(token.RPAREN) {
		for {
			param, err := p.expectIdent("expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if err := p.expect(token.RPAREN, "expected ')' after function parameters"); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE, "expected '{' to start function body"); err != nil {
		return nil, err
	}
	var body []ast.Statement
	for !p.check(token.RBRACE) && !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if err := p.expect(token.RBRACE, "expected '}' to end function body"); err != nil {
		return nil, err
	}
	return &ast.FunctionStatement{Token: tok, Name: name, Parameters: params, Body: body}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch {
	case p.check(token.RETURN):
		tok := p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON, "expected ';' after return expression"); err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Token: tok, Value: value}, nil
	case p.check(token.LET):
		return p.parseDeclaration(false)
	case p.check(token.VAR):
		return p.parseDeclaration(true)
	case p.check(token.IDENT) && p.checkNext(token.ASSIGN):
		tok := p.advance()
		p.advance() // '='
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON, "expected ';' after assignment"); err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Token: tok, Name: tok.Lexeme, Value: value}, nil
	}
	tok := p.peek()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.SEMICOLON, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Token: tok, Expression: expr}, nil
}

func (p *Parser) parseDeclaration(mutable bool) (ast.Statement, error) {
	tok := p.advance() // 'let' or 'var'
	name, err := p.expectIdent("expected variable name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.ASSIGN, "expected '=' after variable name"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.SEMICOLON, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}
	return &ast.LetStatement{Token: tok, Name: name, Mutable: mutable, Value: value}, nil
}

// Expression grammar, loosest binding first:
// or > and > equality > comparison > term > factor > unary > call > primary.

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseComparison, token.EQ, token.NOT_EQ)
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseTerm, token.LT, token.LE, token.GT, token.GE)
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseFactor, token.PLUS, token.MINUS)
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseUnary, token.STAR, token.SLASH, token.PERCENT)
}

func (p *Parser) parseBinaryLevel(next func() (ast.Expression, error), ops ...token.Type) (ast.Expression, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, op := range ops {
			if p.check(op) {
				tok := p.advance()
				right, err := next()
				if err != nil {
					return nil, err
				}
				expr = &ast.InfixExpression{Token: tok, Left: expr, Operator: tok.Lexeme, Right: right}
				matched = true
				break
			}
		}
		if !matched {
			return expr, nil
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.check(token.BANG) || p.check(token.MINUS) || p.check(token.PLUS) {
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpression{Token: tok, Operator: tok.Lexeme, Right: right}, nil
	}
	return p.parseCall()
}

func (p *Parser) parseCall() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(token.LPAREN) {
		tok := p.advance()
		var args []ast.Expression
		if !p.check(token.RPAREN) {
			for {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		if err := p.expect(token.RPAREN, "expected ')' after arguments"); err != nil {
			return nil, err
		}
		expr = &ast.CallExpression{Token: tok, Callee: expr, Arguments: args}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Type {
	case token.INT:
		p.advance()
		value, ok := new(big.Int).SetString(tok.Lexeme, 10)
		if !ok {
			return nil, p.errorAt(tok, "invalid integer literal")
		}
		return &ast.IntegerLiteral{Token: tok, Value: value}, nil
	case token.FLOAT:
		p.advance()
		value, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid float literal")
		}
		return &ast.FloatLiteral{Token: tok, Value: value}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Token: tok, Value: tok.Lexeme}, nil
	case token.TRUE:
		p.advance()
		return &ast.BooleanLiteral{Token: tok, Value: true}, nil
	case token.FALSE:
		p.advance()
		return &ast.BooleanLiteral{Token: tok, Value: false}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case token.IDENT:
		p.advance()
		segments := []string{tok.Lexeme}
		for p.match(token.DOT) {
			seg, err := p.expectIdent("expected identifier after '.'")
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		}
		return &ast.PathExpression{Token: tok, Segments: segments}, nil
	}
	return nil, p.errorAt(tok, "expected expression")
}

func (p *Parser) peek() token.Token { return p.tokens[p.current] }

func (p *Parser) peekNext() token.Token {
	if p.current+1 < len(p.tokens) {
		return p.tokens[p.current+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) atEnd() bool { return p.peek().Type == token.EOF }

func (p *Parser) check(t token.Type) bool { return p.peek().Type == t }

func (p *Parser) checkNext(t token.Type) bool { return p.peekNext().Type == t }

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.current]
	if !p.atEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t token.Type, message string) error {
	if p.check(t) {
		p.advance()
		return nil
	}
	return p.errorAt(p.peek(), message)
}

func (p *Parser) expectIdent(message string) (string, error) {
	if p.check(token.IDENT) {
		return p.advance().Lexeme, nil
	}
	return "", p.errorAt(p.peek(), message)
}

func (p *Parser) errorAt(tok token.Token, message string) error {
	near := tok.Lexeme
	if tok.Type == token.EOF {
		near = "end of file"
	}
	return fmt.Errorf("%s at line %d, column %d near %q", message, tok.Line, tok.Column, near)
}
