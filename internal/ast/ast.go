package ast

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/apexforge/apex/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
	String() string
}

// Statement is a Node that appears in a function body.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every tree the parser produces.
type Program struct {
	Imports   []*ImportStatement
	Functions []*FunctionStatement
}

func (p *Program) TokenLiteral() string {
	if len(p.Functions) > 0 {
		return p.Functions[0].TokenLiteral()
	}
	return ""
}

func (p *Program) GetToken() token.Token {
	if len(p.Imports) > 0 {
		return p.Imports[0].Token
	}
	if len(p.Functions) > 0 {
		return p.Functions[0].Token
	}
	return token.Token{}
}

func (p *Program) String() string {
	var out strings.Builder
	for _, imp := range p.Imports {
		out.WriteString(imp.String())
		out.WriteString("\n")
	}
	for _, fn := range p.Functions {
		out.WriteString(fn.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ImportStatement covers all three import forms:
//
//	import mod;              whole module, calls stay qualified
//	import mod as m;         whole module under an alias
//	import mod.sym;          single symbol, visible unqualified
//	import mod.sym as name;  single symbol under an alias
type ImportStatement struct {
	Token  token.Token // the 'import' token
	Module string
	Symbol string // empty for whole-module imports
	Alias  string // empty when no 'as' clause
}

func (is *ImportStatement) statementNode()       {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Lexeme }
func (is *ImportStatement) GetToken() token.Token {
	if is == nil {
		return token.Token{}
	}
	return is.Token
}

func (is *ImportStatement) String() string {
	var out strings.Builder
	out.WriteString("import ")
	out.WriteString(is.Module)
	if is.Symbol != "" {
		out.WriteString(".")
		out.WriteString(is.Symbol)
	}
	if is.Alias != "" {
		out.WriteString(" as ")
		out.WriteString(is.Alias)
	}
	out.WriteString(";")
	return out.String()
}

// FunctionStatement is a top-level fn declaration.
type FunctionStatement struct {
	Token      token.Token // the 'fn' token
	Name       string
	Parameters []string
	Body       []Statement
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Lexeme }
func (fs *FunctionStatement) GetToken() token.Token {
	if fs == nil {
		return token.Token{}
	}
	return fs.Token
}

func (fs *FunctionStatement) String() string {
	var out strings.Builder
	out.WriteString("fn ")
	out.WriteString(fs.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(fs.Parameters, ", "))
	out.WriteString(") { ")
	for _, stmt := range fs.Body {
		out.WriteString(stmt.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// LetStatement introduces a binding in the innermost scope. Mutable reports
// whether the source used 'var' rather than 'let'.
type LetStatement struct {
	Token   token.Token
	Name    string
	Mutable bool
	Value   Expression
}

func (ls *LetStatement) statementNode()        {}
func (ls *LetStatement) TokenLiteral() string  { return ls.Token.Lexeme }
func (ls *LetStatement) GetToken() token.Token { return ls.Token }

func (ls *LetStatement) String() string {
	keyword := "let"
	if ls.Mutable {
		keyword = "var"
	}
	return keyword + " " + ls.Name + " = " + ls.Value.String() + ";"
}

// AssignStatement updates the nearest enclosing binding.
type AssignStatement struct {
	Token token.Token // the identifier token
	Name  string
	Value Expression
}

func (as *AssignStatement) statementNode()        {}
func (as *AssignStatement) TokenLiteral() string  { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token { return as.Token }
func (as *AssignStatement) String() string        { return as.Name + " = " + as.Value.String() + ";" }

// ReturnStatement unwinds to the enclosing call boundary.
type ReturnStatement struct {
	Token token.Token
	Value Expression
}

func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }
func (rs *ReturnStatement) String() string        { return "return " + rs.Value.String() + ";" }

// ExpressionStatement is a bare expression followed by ';'.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }
func (es *ExpressionStatement) String() string        { return es.Expression.String() + ";" }

// IntegerLiteral keeps full precision; the lexer never collapses integers
// into floats.
type IntegerLiteral struct {
	Token token.Token
	Value *big.Int
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }
func (il *IntegerLiteral) String() string        { return il.Value.String() }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }
func (fl *FloatLiteral) String() string        { return fl.Token.Lexeme }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }
func (bl *BooleanLiteral) String() string        { return bl.Token.Lexeme }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }
func (sl *StringLiteral) String() string        { return strconv.Quote(sl.Value) }

// PathExpression is a possibly-dotted name: `x`, `mod.sym`. Resolution of
// segments against imports happens in the evaluator, not here.
type PathExpression struct {
	Token    token.Token
	Segments []string
}

func (pe *PathExpression) expressionNode()       {}
func (pe *PathExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PathExpression) GetToken() token.Token { return pe.Token }

func (pe *PathExpression) String() string { return strings.Join(pe.Segments, ".") }

// PrefixExpression is !x, -x or +x.
type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }
func (pe *PrefixExpression) String() string        { return "(" + pe.Operator + pe.Right.String() + ")" }

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }

func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// CallExpression applies a callee (always a PathExpression in the current
// grammar) to arguments.
type CallExpression struct {
	Token     token.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Arguments))
	for i, arg := range ce.Arguments {
		args[i] = arg.String()
	}
	return ce.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}
