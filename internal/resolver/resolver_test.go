package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"taglox/internal/errors"
	"taglox/internal/lexer"
	"taglox/internal/parser"
)

type table map[parser.NodeID]int

func (t table) Resolve(id parser.NodeID, depth int) { t[id] = depth }

func resolve(t *testing.T, source string) ([]parser.Stmt, table, []string) {
	t.Helper()
	p := parser.NewParser(lexer.NewScanner(source).ScanTokens())
	stmts := p.Parse()
	require.Empty(t, p.Errors, "source must parse")

	locals := table{}
	r := New(locals)
	r.Resolve(stmts)

	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.(*errors.LoxError).Message
	}
	return stmts, locals, msgs
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"top level return", "return 1;", []string{"Cannot return from top-level code."}},
		{"value from initializer", "class A { init() { return 1; } }", []string{"Cannot return a value from an initializer."}},
		{"bare return from initializer", "class A { init() { return; } }", nil},
		{"this outside class", "print this;", []string{"Cannot use 'this' outside of a class."}},
		{"this in function outside class", "fun f() { return this; }", []string{"Cannot use 'this' outside of a class."}},
		{"super outside class", "fun f() { super.g(); }", []string{"Cannot use 'super' outside of a class."}},
		{"super without superclass", "class A { f() { super.f(); } }", []string{"Cannot use 'super' in a class with no superclass."}},
		{"inherit from itself", "class A < A {}", []string{"A class cannot inherit from itself."}},
		{"duplicate local", "{ var a = 1; var a = 2; }", []string{"Variable with this name already declared in this scope."}},
		{"duplicate global is allowed", "var a = 1; var a = 2;", nil},
		{"duplicate parameter", "fun f(a, a) {}", []string{"Variable with this name already declared in this scope."}},
		{"own initializer", "{ var a = a; }", []string{"Cannot read local variable in its own initializer."}},
		{"global own initializer is allowed", "var a = a;", nil},
		{"break outside loop", "break;", []string{"Cannot use 'break' outside of a loop."}},
		{"break inside loop", "while (true) { if (true) break; }", nil},
		{"break crossing a function", "while (true) { fun f() { break; } }", []string{"Cannot use 'break' outside of a loop."}},
		{"collects every error", "return; print this; break;", []string{
			"Cannot return from top-level code.",
			"Cannot use 'this' outside of a class.",
			"Cannot use 'break' outside of a loop.",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, got := resolve(t, tt.source)
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveDepths(t *testing.T) {
	stmts, locals, errs := resolve(t, `
var g = 1;
{
  var a = 1;
  {
    print a;
    print g;
  }
}`)
	require.Empty(t, errs)

	inner := stmts[1].(*parser.BlockStmt).Statements[1].(*parser.BlockStmt)
	useA := inner.Statements[0].(*parser.PrintStmt).Expr
	useG := inner.Statements[1].(*parser.PrintStmt).Expr

	if depth, ok := locals[useA.ID()]; !ok || depth != 1 {
		t.Errorf("depth(a) = %d, %v; want 1, true", depth, ok)
	}
	if _, ok := locals[useG.ID()]; ok {
		t.Errorf("global g must not be resolved as a local")
	}
}

func TestResolveClosureCapturesDeclarationScope(t *testing.T) {
	// The reference to a inside show() resolves to the global even after a
	// shadowing local is declared later in the same block.
	stmts, locals, errs := resolve(t, `
var a = "global";
{
  fun show() { print a; }
  show();
  var a = "block";
  show();
}`)
	require.Empty(t, errs)

	show := stmts[1].(*parser.BlockStmt).Statements[0].(*parser.FunctionStmt)
	use := show.Body[0].(*parser.PrintStmt).Expr
	if depth, ok := locals[use.ID()]; ok {
		t.Errorf("a inside show() resolved to depth %d, want global", depth)
	}
}

func TestResolveThisAndSuper(t *testing.T) {
	stmts, locals, errs := resolve(t, `
class A { m() { return 1; } }
class B < A {
  m() { return super.m() + this.n; }
}`)
	require.Empty(t, errs)

	method := stmts[1].(*parser.ClassStmt).Methods[0]
	sum := method.Body[0].(*parser.ReturnStmt).Value.(*parser.Binary)
	super := sum.Left.(*parser.Call).Callee.(*parser.Super)
	this := sum.Right.(*parser.Get).Object.(*parser.This)

	if got := locals[this.ID()]; got != 1 {
		t.Errorf("depth(this) = %d, want 1", got)
	}
	if got := locals[super.ID()]; got != 2 {
		t.Errorf("depth(super) = %d, want 2", got)
	}
}

func TestResolveNamedFunctionExpression(t *testing.T) {
	stmts, locals, errs := resolve(t, `var f = fun fact(n) { return n < 2 ? 1 : n * fact(n - 1); };`)
	require.Empty(t, errs)

	fn := stmts[0].(*parser.VarStmt).Initializer.(*parser.Function)
	ternary := fn.Body[0].(*parser.ReturnStmt).Value.(*parser.Ternary)
	call := ternary.Else.(*parser.Binary).Right.(*parser.Call)
	if got, ok := locals[call.Callee.ID()]; !ok || got != 1 {
		t.Errorf("depth(fact) = %d, %v; want 1, true", got, ok)
	}
}
