package runner

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"taglox/internal/errors"
	"taglox/internal/tags"
)

func headlines(diags []*errors.LoxError) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Headline()
	}
	return out
}

func TestExecute(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(WithOutput(&out))

	res, err := s.Execute(`
fun greet(name) { return "hi " + name; }
print greet("ada");
print 1 + 2 * 3;`)
	require.NoError(t, err)
	require.True(t, res.OK())
	if diff := cmp.Diff("hi ada\n7\n", out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCollectsDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "scan and parse errors together",
			source: "var a = @;\nprint ;",
			want: []string{
				"ScanError at '@': Unexpected character.",
				"ParseError at ';': Expect expression.",
				"ParseError at ';': Expect expression.",
			},
		},
		{
			name:   "resolution errors",
			source: "return 1;\n{ var b = b; }",
			want: []string{
				"ResolutionError at 'return': Cannot return from top-level code.",
				"ResolutionError at 'b': Cannot read local variable in its own initializer.",
			},
		},
		{
			name:   "surviving statements are resolved after syntax errors",
			source: "return 1; print ;\n{ var a = a; }",
			want: []string{
				"ParseError at ';': Expect expression.",
				"ResolutionError at 'return': Cannot return from top-level code.",
				"ResolutionError at 'a': Cannot read local variable in its own initializer.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSession().Run(tt.source)
			if diff := cmp.Diff(tt.want, headlines(res.Diagnostics)); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiagnosticsCarrySourceLine(t *testing.T) {
	res := NewSession(WithFile("main.lox")).Run("var x = 1;\nprint x +;")
	require.Len(t, res.Diagnostics, 1)

	d := res.Diagnostics[0]
	want := errors.SourceLocation{File: "main.lox", Line: 2, Column: 10, EndColumn: 11}
	if diff := cmp.Diff(want, d.Location); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%s", diff)
	}
	if d.Source != "print x +;" || d.Severity != errors.SeverityError {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}

func TestInterpretRefusesStaticErrors(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(WithOutput(&out))

	// A resolver error alone is enough to keep the program from running.
	_, err := s.Execute(`print "side effect"; return;`)
	var static *StaticError
	require.ErrorAs(t, err, &static)
	if got := static.Error(); got != "ResolutionError at 'return': Cannot return from top-level code." {
		t.Errorf("Error() = %q", got)
	}
	if out.Len() != 0 {
		t.Errorf("program ran: %q", out.String())
	}
}

func TestRuntimeErrorIsDecorated(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(WithOutput(&out), WithFile("boom.lox"))

	_, err := s.Execute("print 1;\nprint nope;\nprint 2;")
	le, ok := errors.As(err)
	require.True(t, ok, "want *errors.LoxError, got %T", err)
	if le.Type != errors.RuntimeError || le.Message != "Undefined variable 'nope'." {
		t.Errorf("unexpected error: %s", le.Headline())
	}
	if le.Source != "print nope;" || le.Location.File != "boom.lox" {
		t.Errorf("error not decorated: %+v", le)
	}
	if out.String() != "1\n" {
		t.Errorf("output = %q, want %q", out.String(), "1\n")
	}
}

func TestSessionKeepsGlobals(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(WithOutput(&out))

	_, err := s.Execute("var total = 40;")
	require.NoError(t, err)

	text, ok, err := s.Echo(s.Run("total + 2;"))
	require.NoError(t, err)
	require.True(t, ok)
	if text != "42" {
		t.Errorf("echo = %q, want 42", text)
	}

	_, ok, err = s.Echo(s.Run("print total;"))
	require.NoError(t, err)
	if ok {
		t.Error("print statement must not be echoed")
	}
}

func TestTagSource(t *testing.T) {
	var out bytes.Buffer
	src := tags.NewMapSource(map[string]interface{}{"env": "prod", "replicas": 3})
	s := NewSession(WithOutput(&out), WithTagSource(src))

	_, err := s.Execute(`print 'env' == "prod" ? 'replicas' * 2 : 0;`)
	require.NoError(t, err)
	if out.String() != "6\n" {
		t.Errorf("output = %q, want 6", out.String())
	}
}

func TestGlobals(t *testing.T) {
	s := NewSession()
	_, err := s.Execute("var b = 1; fun a() {} { var local = 2; }")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"a", "b", "clock"}, s.Globals()); diff != "" {
		t.Errorf("globals mismatch (-want +got):\n%s", diff)
	}
}
