package lexer

import "fmt"

type TokenType string

const (
	// Single-character tokens
	TokenLeftParen    TokenType = "("
	TokenRightParen   TokenType = ")"
	TokenLeftBrace    TokenType = "{"
	TokenRightBrace   TokenType = "}"
	TokenComma        TokenType = ","
	TokenDot          TokenType = "."
	TokenMinus        TokenType = "-"
	TokenPlus         TokenType = "+"
	TokenSemicolon    TokenType = ";"
	TokenSlash        TokenType = "/"
	TokenStar         TokenType = "*"
	TokenQuestionMark TokenType = "?"
	TokenColon        TokenType = ":"

	// One or two character tokens
	TokenBang         TokenType = "!"
	TokenBangEqual    TokenType = "!="
	TokenEqual        TokenType = "="
	TokenEqualEqual   TokenType = "=="
	TokenGreater      TokenType = ">"
	TokenGreaterEqual TokenType = ">="
	TokenLess         TokenType = "<"
	TokenLessEqual    TokenType = "<="

	// Literals
	TokenIdentifier TokenType = "IDENTIFIER"
	TokenString     TokenType = "STRING"
	TokenTag        TokenType = "TAG"
	TokenNumber     TokenType = "NUMBER"

	// Keywords
	TokenAnd    TokenType = "AND"
	TokenBreak  TokenType = "BREAK"
	TokenClass  TokenType = "CLASS"
	TokenElse   TokenType = "ELSE"
	TokenFalse  TokenType = "FALSE"
	TokenFor    TokenType = "FOR"
	TokenFun    TokenType = "FUN"
	TokenIf     TokenType = "IF"
	TokenNil    TokenType = "NIL"
	TokenOr     TokenType = "OR"
	TokenPrint  TokenType = "PRINT"
	TokenReturn TokenType = "RETURN"
	TokenSuper  TokenType = "SUPER"
	TokenThis   TokenType = "THIS"
	TokenTrue   TokenType = "TRUE"
	TokenVar    TokenType = "VAR"
	TokenWhile  TokenType = "WHILE"

	TokenEOF TokenType = "EOF"
)

// Keywords maps reserved words to their token types.
var Keywords = map[string]TokenType{
	"and":    TokenAnd,
	"break":  TokenBreak,
	"class":  TokenClass,
	"else":   TokenElse,
	"false":  TokenFalse,
	"for":    TokenFor,
	"fun":    TokenFun,
	"if":     TokenIf,
	"nil":    TokenNil,
	"or":     TokenOr,
	"print":  TokenPrint,
	"return": TokenReturn,
	"super":  TokenSuper,
	"this":   TokenThis,
	"true":   TokenTrue,
	"var":    TokenVar,
	"while":  TokenWhile,
}

// Location is a 1-based line plus a half-open column range on that line.
type Location struct {
	Line      int
	Column    int
	EndColumn int
}

// Token is immutable once scanned. Literal holds the float64 of a NUMBER, the
// contents of a STRING, or the key of a TAG.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Loc     Location
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("[%s] '%s' %v", t.Type, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}
