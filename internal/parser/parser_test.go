package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"taglox/internal/errors"
	"taglox/internal/lexer"
)

// Test helper to parse a string and collect its errors
func parseString(input string) ([]Stmt, []error) {
	tokens := lexer.NewScanner(input).ScanTokens()
	p := NewParser(tokens)
	stmts := p.Parse()
	return stmts, p.Errors
}

// sexpr renders an expression as a fully parenthesized string.
func sexpr(e Expr) string {
	switch e := e.(type) {
	case *Literal:
		if e.Value == nil {
			return "nil"
		}
		return fmt.Sprint(e.Value)
	case *Tag:
		return "'" + e.Key + "'"
	case *Grouping:
		return "(group " + sexpr(e.Inner) + ")"
	case *Unary:
		return "(" + e.Operator.Lexeme + " " + sexpr(e.Right) + ")"
	case *Binary:
		return "(" + e.Operator.Lexeme + " " + sexpr(e.Left) + " " + sexpr(e.Right) + ")"
	case *Logical:
		return "(" + e.Operator.Lexeme + " " + sexpr(e.Left) + " " + sexpr(e.Right) + ")"
	case *Ternary:
		return "(? " + sexpr(e.Condition) + " " + sexpr(e.Then) + " " + sexpr(e.Else) + ")"
	case *Comma:
		return "(, " + sexpr(e.Left) + " " + sexpr(e.Right) + ")"
	case *Variable:
		return e.Name.Lexeme
	case *Assign:
		return "(= " + e.Name.Lexeme + " " + sexpr(e.Value) + ")"
	case *Call:
		parts := []string{"call", sexpr(e.Callee)}
		for _, a := range e.Args {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *Get:
		return "(. " + sexpr(e.Object) + " " + e.Name.Lexeme + ")"
	case *Set:
		return "(=. " + sexpr(e.Object) + " " + e.Name.Lexeme + " " + sexpr(e.Value) + ")"
	case *This:
		return "this"
	case *Super:
		return "(super " + e.Method.Lexeme + ")"
	case *Function:
		return fmt.Sprintf("(fun %d)", len(e.Params))
	}
	return "?"
}

func parseExpr(t *testing.T, input string) Expr {
	t.Helper()
	stmts, errs := parseString(input + ";")
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	stmt, ok := stmts[0].(*ExpressionStmt)
	require.True(t, ok, "want expression statement, got %T", stmts[0])
	return stmt.Expr
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (group (+ 1 2)) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"-a.b", "(- (. a b))"},
		{"!!true", "(! (! true))"},
		{"a < b == c >= d", "(== (< a b) (>= c d))"},
		{"a or b and c", "(or a (and b c))"},
		{"a ? b : c ? d : e", "(? a b (? c d e))"},
		{"a ? b ? c : d : e", "(? a (? b c d) e)"},
		{"a, b, c", "(, (, a b) c)"},
		{"a, b ? c : d", "(? (, a b) c d)"},
		{"a = b = c", "(= a (= b c))"},
		{"a = b ? 1 : 2", "(= a (? b 1 2))"},
		{"x.y.z = 3", "(=. (. x y) z 3)"},
		{"f(1, 2)(3)", "(call (call f 1 2) 3)"},
		{"f(a ? b : c, d)", "(call f (? a b c) d)"},
		{"f((a, b))", "(call f (group (, a b)))"},
		{"'user.name' + 1", "(+ 'user.name' 1)"},
		{"super.init", "(super init)"},
		{"fun (a, b) { return a; }", "(fun 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sexpr(parseExpr(t, tt.input))
			if got != tt.want {
				t.Errorf("parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	a := parseExpr(t, "x + x")
	b := parseExpr(t, "x + x")
	bin := a.(*Binary)
	ids := map[NodeID]bool{a.ID(): true, bin.Left.ID(): true, bin.Right.ID(): true, b.ID(): true}
	if len(ids) != 4 {
		t.Errorf("expected 4 distinct ids, got %v", ids)
	}
}

func TestForDesugaring(t *testing.T) {
	stmts, errs := parseString("for (var i = 0; i < 3; i = i + 1) print i;")
	require.Empty(t, errs)
	require.Len(t, stmts, 1)

	outer, ok := stmts[0].(*BlockStmt)
	require.True(t, ok, "outer is %T", stmts[0])
	require.Len(t, outer.Statements, 2)
	if _, ok := outer.Statements[0].(*VarStmt); !ok {
		t.Errorf("initializer is %T, want *VarStmt", outer.Statements[0])
	}
	loop, ok := outer.Statements[1].(*WhileStmt)
	require.True(t, ok, "loop is %T", outer.Statements[1])
	if got := sexpr(loop.Condition); got != "(< i 3)" {
		t.Errorf("condition = %s", got)
	}
	body, ok := loop.Body.(*BlockStmt)
	require.True(t, ok, "body is %T", loop.Body)
	require.Len(t, body.Statements, 2)
	if _, ok := body.Statements[0].(*PrintStmt); !ok {
		t.Errorf("body[0] is %T, want *PrintStmt", body.Statements[0])
	}
	incr := body.Statements[1].(*ExpressionStmt)
	if got := sexpr(incr.Expr); got != "(= i (+ i 1))" {
		t.Errorf("increment = %s", got)
	}
}

func TestForWithoutClauses(t *testing.T) {
	stmts, errs := parseString("for (;;) break;")
	require.Empty(t, errs)
	loop, ok := stmts[0].(*WhileStmt)
	require.True(t, ok, "got %T", stmts[0])
	if got := sexpr(loop.Condition); got != "true" {
		t.Errorf("condition = %s, want true", got)
	}
	if _, ok := loop.Body.(*BreakStmt); !ok {
		t.Errorf("body is %T, want *BreakStmt", loop.Body)
	}
}

func TestDeclarations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, s Stmt)
	}{
		{"var without initializer", "var a;", func(t *testing.T, s Stmt) {
			v := s.(*VarStmt)
			if v.Name.Lexeme != "a" || v.Initializer != nil {
				t.Errorf("unexpected var: %+v", v)
			}
		}},
		{"function", "fun add(a, b) { return a + b; }", func(t *testing.T, s Stmt) {
			f := s.(*FunctionStmt)
			if f.Name.Lexeme != "add" || len(f.Params) != 2 || len(f.Body) != 1 {
				t.Errorf("unexpected function: %+v", f)
			}
		}},
		{"anonymous function statement", "fun () {};", func(t *testing.T, s Stmt) {
			e := s.(*ExpressionStmt)
			if fn, ok := e.Expr.(*Function); !ok || fn.Name != nil {
				t.Errorf("unexpected expression: %#v", e.Expr)
			}
		}},
		{"class with superclass", "class B < A { init(x) {} get() { return 1; } }", func(t *testing.T, s Stmt) {
			c := s.(*ClassStmt)
			if c.Name.Lexeme != "B" || c.Superclass == nil || c.Superclass.Name.Lexeme != "A" {
				t.Errorf("unexpected class: %+v", c)
			}
			if len(c.Methods) != 2 || c.Methods[0].Name.Lexeme != "init" {
				t.Errorf("unexpected methods: %+v", c.Methods)
			}
		}},
		{"if else", "if (a) print 1; else print 2;", func(t *testing.T, s Stmt) {
			i := s.(*IfStmt)
			if i.Else == nil {
				t.Error("missing else branch")
			}
		}},
		{"bare return", "fun f() { return; }", func(t *testing.T, s Stmt) {
			r := s.(*FunctionStmt).Body[0].(*ReturnStmt)
			if r.Value != nil {
				t.Errorf("return value = %v, want nil", r.Value)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, errs := parseString(tt.input)
			require.Empty(t, errs)
			require.Len(t, stmts, 1)
			tt.check(t, stmts[0])
		})
	}
}

func messages(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.(*errors.LoxError).Headline()
	}
	return out
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      []string
		survivors int
	}{
		{
			name:      "missing expression",
			input:     "print ;",
			want:      []string{"ParseError at ';': Expect expression."},
			survivors: 0,
		},
		{
			name:      "missing semicolon at end",
			input:     "print 1",
			want:      []string{"ParseError at end: Expect ';' after value."},
			survivors: 0,
		},
		{
			name:      "recovers at next statement",
			input:     "var = 1; print 2; var x = ; print 3;",
			want:      []string{"ParseError at '=': Expect variable name.", "ParseError at ';': Expect expression."},
			survivors: 2,
		},
		{
			name:      "invalid assignment target is not fatal",
			input:     "1 + 2 = 3; print 4;",
			want:      []string{"ParseError at '=': Invalid assignment target."},
			survivors: 2,
		},
		{
			name:      "ternary without colon",
			input:     "print a ? b;",
			want:      []string{"ParseError at ';': Expect a colon."},
			survivors: 0,
		},
		{
			name:      "error inside block keeps the block",
			input:     "{ print ; print 1; }",
			want:      []string{"ParseError at ';': Expect expression."},
			survivors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, errs := parseString(tt.input)
			if diff := cmp.Diff(tt.want, messages(errs)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			if len(stmts) != tt.survivors {
				t.Errorf("len(stmts) = %d, want %d", len(stmts), tt.survivors)
			}
		})
	}
}

func TestTooManyArguments(t *testing.T) {
	args := make([]string, 256)
	for i := range args {
		args[i] = "1"
	}
	stmts, errs := parseString("f(" + strings.Join(args, ", ") + ");")
	require.Len(t, stmts, 1)
	if diff := cmp.Diff([]string{"ParseError at '1': Cannot have more than 255 arguments."}, messages(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorLocation(t *testing.T) {
	_, errs := parseString("var a = 1;\nprint a +;")
	require.Len(t, errs, 1)
	le := errs[0].(*errors.LoxError)
	want := errors.SourceLocation{Line: 2, Column: 10, EndColumn: 11}
	if diff := cmp.Diff(want, le.Location); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%s", diff)
	}
}
