package token

type Type string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	IDENT  = "IDENT"
	INT    = "INT"
	FLOAT  = "FLOAT"
	STRING = "STRING"

	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	STAR     = "*"
	SLASH    = "/"
	PERCENT  = "%"
	BANG     = "!"
	EQ       = "=="
	NOT_EQ   = "!="
	LT       = "<"
	LE       = "<="
	GT       = ">"
	GE       = ">="
	AND      = "&&"
	OR       = "||"

	COMMA     = ","
	SEMICOLON = ";"
	DOT       = "."
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"

	FUNCTION = "FN"
	RETURN   = "RETURN"
	LET      = "LET"
	VAR      = "VAR"
	IMPORT   = "IMPORT"
	AS       = "AS"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
)

type Token struct {
	Type   Type
	Lexeme string
	Line   int
	Column int
}

var keywords = map[string]Type{
	"fn":     FUNCTION,
	"return": RETURN,
	"let":    LET,
	"var":    VAR,
	"import": IMPORT,
	"as":     AS,
	"true":   TRUE,
	"false":  FALSE,
}

// LookupIdent reports the keyword type for an identifier lexeme, or IDENT.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}
