package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"taglox/internal/errors"
)

type Scanner struct {
	source   string
	file     string
	tokens   []Token
	start    int
	current  int
	line     int
	colStart int
	colEnd   int

	// Errors holds every *errors.LoxError met while scanning, in order.
	Errors []error
}

func NewScanner(source string) *Scanner {
	return NewScannerWithFile(source, "")
}

func NewScannerWithFile(source, file string) *Scanner {
	return &Scanner{
		source:   source,
		file:     file,
		line:     1,
		colStart: 1,
		colEnd:   1,
	}
}

// ScanTokens never fails: bad input is reported in s.Errors and skipped. The
// result always ends with exactly one EOF token.
func (s *Scanner) ScanTokens() []Token {
	for !s.isAtEnd() {
		s.start = s.current
		s.colStart = s.colEnd
		s.scanToken()
	}
	s.tokens = append(s.tokens, Token{
		Type: TokenEOF,
		Loc:  Location{Line: s.line, Column: s.colEnd, EndColumn: s.colEnd},
	})
	return s.tokens
}

func (s *Scanner) scanToken() {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(TokenLeftParen)
	case ')':
		s.addToken(TokenRightParen)
	case '{':
		s.addToken(TokenLeftBrace)
	case '}':
		s.addToken(TokenRightBrace)
	case ',':
		s.addToken(TokenComma)
	case '.':
		s.addToken(TokenDot)
	case '-':
		s.addToken(TokenMinus)
	case '+':
		s.addToken(TokenPlus)
	case ';':
		s.addToken(TokenSemicolon)
	case '*':
		s.addToken(TokenStar)
	case '?':
		s.addToken(TokenQuestionMark)
	case ':':
		s.addToken(TokenColon)
	case '!':
		if s.match('=') {
			s.addToken(TokenBangEqual)
		} else {
			s.addToken(TokenBang)
		}
	case '=':
		if s.match('=') {
			s.addToken(TokenEqualEqual)
		} else {
			s.addToken(TokenEqual)
		}
	case '<':
		if s.match('=') {
			s.addToken(TokenLessEqual)
		} else {
			s.addToken(TokenLess)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokenGreaterEqual)
		} else {
			s.addToken(TokenGreater)
		}
	case '/':
		if s.match('/') {
			// Skip to end of line (ignore comments)
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(TokenSlash)
		}
	case '"':
		s.quoted('"', TokenString, "Unterminated string.")
	case '\'':
		s.quoted('\'', TokenTag, "Unterminated tag.")
	case '\n':
		s.newline()
	case ' ', '\r', '\t':
		// Ignore whitespace
	default:
		if isDigit(c) {
			s.number()
		} else if isAlpha(c) {
			s.identifier()
		} else {
			s.unexpected()
		}
	}
}

// unexpected reports the character starting at s.start once, consuming all
// of its UTF-8 bytes. It occupies a single column.
func (s *Scanner) unexpected() {
	r, size := utf8.DecodeRuneInString(s.source[s.start:])
	s.current = s.start + size
	at := string(r)
	if r == utf8.RuneError && size == 1 {
		at = strconv.QuoteToASCII(s.source[s.start:s.current])
		at = at[1 : len(at)-1]
	}
	err := errors.NewScanError("Unexpected character.", s.file, s.line, s.colStart, s.colStart+1)
	s.Errors = append(s.Errors, err.WithAt("'"+at+"'"))
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	s.colEnd++
	return true
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if kind, ok := Keywords[text]; ok {
		s.addToken(kind)
		return
	}
	s.addToken(TokenIdentifier)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	// A trailing '.' without a digit after it belongs to the next token.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	value, _ := strconv.ParseFloat(s.source[s.start:s.current], 64)
	s.addLiteral(TokenNumber, value)
}

// quoted scans a raw "string" or 'tag' body. There is no escape processing.
// The token is located at its opening quote; a literal spanning lines ends at
// the end of its first line.
func (s *Scanner) quoted(quote byte, kind TokenType, unterminated string) {
	line, column := s.line, s.colStart
	for s.peek() != quote && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.advance()
			s.newline()
			continue
		}
		s.advance()
	}
	if s.isAtEnd() {
		s.Errors = append(s.Errors, errors.NewScanError(unterminated, s.file, line, column, s.firstLineEnd(column)))
		return
	}
	s.advance()
	s.tokens = append(s.tokens, Token{
		Type:    kind,
		Lexeme:  s.source[s.start:s.current],
		Literal: s.source[s.start+1 : s.current-1],
		Loc:     Location{Line: line, Column: column, EndColumn: s.firstLineEnd(column)},
	})
}

func (s *Scanner) firstLineEnd(column int) int {
	text := s.source[s.start:s.current]
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return column + len(text)
}

func (s *Scanner) newline() {
	s.line++
	s.colStart = 1
	s.colEnd = 1
}

func (s *Scanner) addToken(t TokenType) {
	s.addLiteral(t, nil)
}

func (s *Scanner) addLiteral(t TokenType, literal interface{}) {
	text := s.source[s.start:s.current]
	s.tokens = append(s.tokens, Token{
		Type:    t,
		Lexeme:  text,
		Literal: literal,
		Loc:     Location{Line: s.line, Column: s.colStart, EndColumn: s.colEnd},
	})
}

func (s *Scanner) advance() byte {
	s.current++
	s.colEnd++
	return s.source[s.current-1]
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return '\000'
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return '\000'
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
