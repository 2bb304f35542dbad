package formatter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"taglox/internal/lexer"
	"taglox/internal/parser"
)

func parse(t *testing.T, source string) []parser.Stmt {
	t.Helper()
	p := parser.NewParser(lexer.NewScanner(source).ScanTokens())
	stmts := p.Parse()
	require.Empty(t, p.Errors)
	return stmts
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "statements",
			input: `var a=1;print a+2*3;a=a?"x":'tag';`,
			want:  "var a = 1;\nprint a + 2 * 3;\na = a ? \"x\" : 'tag';\n",
		},
		{
			name:  "function and class",
			input: "fun add(a,b){return a+b;} class B<A{init(x){this.x=x;} get(){return super.get();}}",
			want: `fun add(a, b) {
    return a + b;
}

class B < A {
    init(x) {
        this.x = x;
    }
    get() {
        return super.get();
    }
}
`,
		},
		{
			name:  "if else chain",
			input: "if(a)print 1;else if(b){print 2;}else print 3;",
			want:  "if (a)\n    print 1;\nelse if (b) {\n    print 2;\n} else\n    print 3;\n",
		},
		{
			name:  "for comes back as while",
			input: "for(var i=0;i<2;i=i+1)print i;",
			want: `{
    var i = 0;
    while (i < 2) {
        print i;
        i = i + 1;
    }
}
`,
		},
		{
			name:  "anonymous function and break",
			input: "var f=fun(n){while(true)break;return(n,1);};",
			want:  "var f = fun (n) {\n    while (true)\n        break;\n    return (n, 1);\n};\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(parse(t, tt.input))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatIsStable(t *testing.T) {
	src := `
class Counter {
  init() { this.n = 0; }
  inc() { this.n = this.n + 1; return this; }
}
var c = Counter();
for (var i = 0; i < 3; i = i + 1) { if (i == 1) break; c.inc(); }
print c.inc().n, -c.n, !nil;
(fun named() {});
`
	once := Format(parse(t, src))
	twice := Format(parse(t, once))
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("formatting is not stable (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(PrintAST(parse(t, once)), PrintAST(parse(t, twice))); diff != "" {
		t.Errorf("formatting changed the tree:\n%s", diff)
	}
}

func TestPrintAST(t *testing.T) {
	stmts := parse(t, `var a = -1 * (2 + 3); if (a > 0 and true) print "pos"; else print nil;
fun f(x) { return x, 'k'; }`)
	want := `(var a (* (- 1) (group (+ 2 3))))
(if-else (and (> a 0) true) (print "pos") (print nil))
(fun f (x) (return (, x (tag k))))
`
	if diff := cmp.Diff(want, PrintAST(stmts)); diff != "" {
		t.Errorf("PrintAST mismatch (-want +got):\n%s", diff)
	}
}

func TestRPN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "1 2 3 * +"},
		{"(1 + 2) * 3", "1 2 + 3 *"},
		{"-4 - -2", "4 neg 2 neg -"},
		{"a = b ? 1 : 2", "a b 1 2 ?: ="},
		{"f(1, g(2))", "f 1 g 2 call/1 call/2"},
		{"o.x = 'tag' + 1", "o 'tag' 1 + .x="},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmts := parse(t, tt.input+";")
			got := RPNProgram(stmts)
			if diff := cmp.Diff([]string{tt.want}, got); diff != "" {
				t.Errorf("RPN mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
