// Package runner drives source text through scanning, parsing, resolution
// and execution, collecting every diagnostic along the way.
package runner

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"taglox/internal/errors"
	"taglox/internal/interpreter"
	"taglox/internal/lexer"
	"taglox/internal/parser"
	"taglox/internal/resolver"
)

// Result is the static outcome of one source text.
type Result struct {
	File        string
	Tokens      int
	Statements  []parser.Stmt
	Diagnostics []*errors.LoxError

	reporter *errors.Reporter
}

// OK reports whether the program may be executed.
func (r *Result) OK() bool {
	return len(r.Diagnostics) == 0
}

// StaticError is returned by Interpret when a Result carries diagnostics.
type StaticError struct {
	Diagnostics []*errors.LoxError
}

func (e *StaticError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.Headline()
	}
	return strings.Join(lines, "\n")
}

type Option func(*Session)

func WithFile(file string) Option {
	return func(s *Session) { s.file = file }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
		s.interpOpts = append(s.interpOpts, interpreter.WithLogger(logger))
	}
}

func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.interpOpts = append(s.interpOpts, interpreter.WithOutput(w))
	}
}

func WithTagSource(src interpreter.TagSource) Option {
	return func(s *Session) {
		s.interpOpts = append(s.interpOpts, interpreter.WithTagSource(src))
	}
}

// WithInterpreterOptions passes extra options through to the interpreter.
func WithInterpreterOptions(opts ...interpreter.Option) Option {
	return func(s *Session) {
		s.interpOpts = append(s.interpOpts, opts...)
	}
}

// Session owns one interpreter. Global state survives between runs, so a
// REPL keeps a single Session for its whole life.
type Session struct {
	file       string
	logger     *slog.Logger
	interpOpts []interpreter.Option
	interp     *interpreter.Interpreter
}

func NewSession(opts ...Option) *Session {
	s := &Session{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	s.interp = interpreter.New(s.interpOpts...)
	return s
}

// Run scans, parses and resolves source. The statements that survive syntax
// errors are still resolved, so one pass reports every static diagnostic.
func (s *Session) Run(source string) *Result {
	reporter := errors.NewReporter(source, s.file)

	scanner := lexer.NewScannerWithFile(source, s.file)
	tokens := scanner.ScanTokens()
	reporter.ReportAll(errors.ScanError, scanner.Errors)

	p := parser.NewParserWithFile(tokens, s.file)
	stmts := p.Parse()
	reporter.ReportAll(errors.ParseError, p.Errors)

	r := resolver.New(s.interp)
	r.Resolve(stmts)
	reporter.ReportAll(errors.ResolutionError, r.Errors)

	res := &Result{
		File:        s.file,
		Tokens:      len(tokens),
		Statements:  stmts,
		Diagnostics: reporter.Diagnostics(),
		reporter:    reporter,
	}
	s.logger.Debug("static analysis finished",
		"file", s.file, "tokens", res.Tokens, "statements", len(stmts), "diagnostics", len(res.Diagnostics))
	return res
}

// Interpret executes res. It refuses with a *StaticError when res has any
// diagnostic; runtime failures come back as *errors.LoxError decorated with
// the offending source line.
func (s *Session) Interpret(res *Result) error {
	if !res.OK() {
		return &StaticError{Diagnostics: res.Diagnostics}
	}
	err := s.interp.Interpret(res.Statements)
	if err == nil {
		return nil
	}
	if le, ok := errors.As(err); ok {
		res.reporter.Decorate(le)
		for i := range le.CallStack {
			if le.CallStack[i].File == "" {
				le.CallStack[i].File = res.File
			}
		}
		return le
	}
	return pkgerrors.Wrap(err, "interpret")
}

// Execute is Run followed by Interpret.
func (s *Session) Execute(source string) (*Result, error) {
	res := s.Run(source)
	return res, s.Interpret(res)
}

// Echo evaluates res when it is exactly one expression statement and returns
// the printed form of its value. ok is false for anything else, in which
// case the caller should Interpret instead.
func (s *Session) Echo(res *Result) (text string, ok bool, err error) {
	if !res.OK() || len(res.Statements) != 1 {
		return "", false, nil
	}
	stmt, isExpr := res.Statements[0].(*parser.ExpressionStmt)
	if !isExpr {
		return "", false, nil
	}
	v, err := s.interp.Evaluate(stmt.Expr)
	if err != nil {
		if le, ok := errors.As(err); ok {
			res.reporter.Decorate(le)
		}
		return "", true, err
	}
	return interpreter.Stringify(v), true, nil
}

// Globals lists the names defined in the global scope, sorted.
func (s *Session) Globals() []string {
	names := s.interp.Globals().Names()
	sort.Strings(names)
	return names
}
