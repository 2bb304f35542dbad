// cmd/taglox/commands/commands.go
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/pkg/errors"

	"taglox/internal/config"
	loxerrors "taglox/internal/errors"
	"taglox/internal/lexer"
	"taglox/internal/parser"
	"taglox/internal/tags"
)

// Exit codes follow sysexits.h.
const (
	ExitStatic  = 65 // EX_DATAERR
	ExitRuntime = 70 // EX_SOFTWARE
	ExitFailure = 1
)

// ExitError asks main to exit with Code. Diagnostics have already been
// written when it is returned.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Env is what a command reads from and writes to.
type Env struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Colored bool
}

// DefaultEnv writes to the process streams and colors diagnostics when
// stderr is a terminal.
func DefaultEnv() *Env {
	return &Env{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Colored: loxerrors.IsTerminal(os.Stderr),
	}
}

// parseFlags runs getopt over args, whose first element is the command name,
// and returns the options and remaining operands.
func parseFlags(args []string, spec string) ([]getopt.Option, []string, error) {
	opts, optind, err := getopt.Getopts(args, spec)
	if err != nil {
		return nil, nil, errors.Wrap(err, args[0])
	}
	return opts, args[optind:], nil
}

func oneFile(name string, operands []string) (string, error) {
	if len(operands) != 1 {
		return "", errors.Errorf("usage: taglox %s FILE", name)
	}
	return operands[0], nil
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read source")
	}
	return string(data), nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// setup loads the configuration and opens its tag source. tagFile, when
// set, replaces whatever tag source the configuration names.
func setup(env *Env, configPath, tagFile string) (*config.Config, *slog.Logger, *tags.Handle, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if tagFile != "" {
		cfg.Tags = config.Tags{File: tagFile}
	}
	logger := newLogger(cfg, env.Stderr)
	handle, err := tags.Open(cfg.Tags, logger)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "open tag source")
	}
	return cfg, logger, handle, nil
}

// parseFile scans and parses path without resolving it. Syntax errors are
// rendered to env.Stderr and turn into ExitStatic.
func parseFile(env *Env, path string) ([]parser.Stmt, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	reporter := loxerrors.NewReporter(source, path)
	scanner := lexer.NewScannerWithFile(source, path)
	tokens := scanner.ScanTokens()
	reporter.ReportAll(loxerrors.ScanError, scanner.Errors)
	p := parser.NewParserWithFile(tokens, path)
	stmts := p.Parse()
	reporter.ReportAll(loxerrors.ParseError, p.Errors)

	if reporter.HasErrors() {
		loxerrors.RenderAll(env.Stderr, reporter.Diagnostics(), env.Colored)
		return nil, &ExitError{Code: ExitStatic}
	}
	return stmts, nil
}
