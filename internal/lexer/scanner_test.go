package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"taglox/internal/errors"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestScanTokenTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"empty", "", []TokenType{TokenEOF}},
		{"punctuation", "(){},.-+;*/?:", []TokenType{
			TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace, TokenComma, TokenDot,
			TokenMinus, TokenPlus, TokenSemicolon, TokenStar, TokenSlash, TokenQuestionMark, TokenColon, TokenEOF,
		}},
		{"two char operators", "! != = == > >= < <=", []TokenType{
			TokenBang, TokenBangEqual, TokenEqual, TokenEqualEqual,
			TokenGreater, TokenGreaterEqual, TokenLess, TokenLessEqual, TokenEOF,
		}},
		{"keywords", "and class else false for fun if nil or print return super this true var while break", []TokenType{
			TokenAnd, TokenClass, TokenElse, TokenFalse, TokenFor, TokenFun, TokenIf, TokenNil, TokenOr,
			TokenPrint, TokenReturn, TokenSuper, TokenThis, TokenTrue, TokenVar, TokenWhile, TokenBreak, TokenEOF,
		}},
		{"identifiers are not keywords", "classy _var orchid", []TokenType{
			TokenIdentifier, TokenIdentifier, TokenIdentifier, TokenEOF,
		}},
		{"comment", "print 1; // the rest is ignored ;;;", []TokenType{
			TokenPrint, TokenNumber, TokenSemicolon, TokenEOF,
		}},
		{"string and tag", `"text" 'key'`, []TokenType{TokenString, TokenTag, TokenEOF}},
		{"trailing dot", "12.", []TokenType{TokenNumber, TokenDot, TokenEOF}},
		{"method call on number", "12.34.abs", []TokenType{TokenNumber, TokenDot, TokenIdentifier, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.input)
			got := types(s.ScanTokens())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("token types mismatch (-want +got):\n%s", diff)
			}
			if len(s.Errors) != 0 {
				t.Errorf("unexpected scan errors: %v", s.Errors)
			}
		})
	}
}

func TestScanLiterals(t *testing.T) {
	tokens := NewScanner(`12 12.5 "a b" 'user.name'`).ScanTokens()
	want := []interface{}{12.0, 12.5, "a b", "user.name", nil}
	got := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		got[i] = tok.Literal
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("literals mismatch (-want +got):\n%s", diff)
	}
}

func TestScanLocations(t *testing.T) {
	tokens := NewScanner("var ab = 1;\n  print ab;").ScanTokens()
	want := []Location{
		{Line: 1, Column: 1, EndColumn: 4},   // var
		{Line: 1, Column: 5, EndColumn: 7},   // ab
		{Line: 1, Column: 8, EndColumn: 9},   // =
		{Line: 1, Column: 10, EndColumn: 11}, // 1
		{Line: 1, Column: 11, EndColumn: 12}, // ;
		{Line: 2, Column: 3, EndColumn: 8},   // print
		{Line: 2, Column: 9, EndColumn: 11},  // ab
		{Line: 2, Column: 11, EndColumn: 12}, // ;
		{Line: 2, Column: 12, EndColumn: 12}, // EOF
	}
	got := make([]Location, len(tokens))
	for i, tok := range tokens {
		got[i] = tok.Loc
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestScanMultilineString(t *testing.T) {
	tokens := NewScanner("\"one\ntwo\" x").ScanTokens()
	if tokens[0].Literal != "one\ntwo" {
		t.Fatalf("literal = %q", tokens[0].Literal)
	}
	if tokens[1].Loc.Line != 2 {
		t.Errorf("identifier after multi-line string on line %d, want 2", tokens[1].Loc.Line)
	}
}

func TestScanMultilineLiteralLocation(t *testing.T) {
	s := NewScanner("print \"one\ntwo\";\nprint 'a\nb';\n  \"open\nend")
	tokens := s.ScanTokens()

	var got []Location
	for _, tok := range tokens {
		if tok.Type == TokenString || tok.Type == TokenTag {
			got = append(got, tok.Loc)
		}
	}
	want := []Location{
		{Line: 1, Column: 7, EndColumn: 11},
		{Line: 3, Column: 7, EndColumn: 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("literal locations mismatch (-want +got):\n%s", diff)
	}

	if len(s.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(s.Errors))
	}
	wantErr := errors.SourceLocation{Line: 5, Column: 3, EndColumn: 8}
	if diff := cmp.Diff(wantErr, s.Errors[0].(*errors.LoxError).Location); diff != "" {
		t.Errorf("unterminated string location mismatch (-want +got):\n%s", diff)
	}
}

func TestScanNonASCII(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		at     string
		column int
		next   int
	}{
		{"two-byte rune", "var x = é;", "'é'", 9, 10},
		{"three-byte rune", "var x = € ;", "'€'", 9, 11},
		{"invalid byte", "var x = \xff;", `'\xff'`, 9, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.input)
			tokens := s.ScanTokens()
			if len(s.Errors) != 1 {
				t.Fatalf("len(Errors) = %d, want 1: %v", len(s.Errors), s.Errors)
			}
			le := s.Errors[0].(*errors.LoxError)
			if le.At != tt.at || le.Message != "Unexpected character." {
				t.Errorf("error = %s", le.Headline())
			}
			want := errors.SourceLocation{Line: 1, Column: tt.column, EndColumn: tt.column + 1}
			if diff := cmp.Diff(want, le.Location); diff != "" {
				t.Errorf("location mismatch (-want +got):\n%s", diff)
			}
			semi := tokens[len(tokens)-2]
			if semi.Type != TokenSemicolon || semi.Loc.Column != tt.next {
				t.Errorf("token after the rune = %s at column %d, want ; at %d", semi.Type, semi.Loc.Column, tt.next)
			}
		})
	}
}

func TestScanErrorsContinue(t *testing.T) {
	s := NewScanner("var a = @ 1; # print a;")
	got := types(s.ScanTokens())
	want := []TokenType{
		TokenVar, TokenIdentifier, TokenEqual, TokenNumber, TokenSemicolon,
		TokenPrint, TokenIdentifier, TokenSemicolon, TokenEOF,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
	if len(s.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(s.Errors))
	}
	first := s.Errors[0].(*errors.LoxError)
	if first.Type != errors.ScanError || first.Message != "Unexpected character." {
		t.Errorf("unexpected first error: %+v", first)
	}
	if first.Location.Column != 9 {
		t.Errorf("column = %d, want 9", first.Location.Column)
	}
}

func TestScanUnterminated(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`print "oops;`, "Unterminated string."},
		{`print 'oops;`, "Unterminated tag."},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			s := NewScanner(tt.input)
			tokens := s.ScanTokens()
			if got := tokens[len(tokens)-1].Type; got != TokenEOF {
				t.Errorf("last token = %s, want EOF", got)
			}
			if len(s.Errors) != 1 {
				t.Fatalf("len(Errors) = %d, want 1", len(s.Errors))
			}
			if msg := s.Errors[0].(*errors.LoxError).Message; msg != tt.msg {
				t.Errorf("message = %q, want %q", msg, tt.msg)
			}
		})
	}
}
