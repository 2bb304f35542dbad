// internal/repl/repl.go
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	pkgerrors "github.com/pkg/errors"

	"taglox/internal/errors"
	"taglox/internal/lexer"
	"taglox/internal/runner"
)

const (
	PromptMain = "> "
	PromptCont = ". "

	historyFile = ".taglox_history"
)

const helpText = `Enter declarations, statements or a bare expression to see its value.
Input continues on the next line while a bracket or string is left open.

  :help          this text
  :globals       list global names
  :load FILE     run FILE in this session
  :reset         start over with a fresh interpreter
  :quit          leave (Ctrl+D works too)
`

// LineReader is the part of *liner.State the loop needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// SessionFactory builds a session whose print statements write to out.
type SessionFactory func(out io.Writer) *runner.Session

type REPL struct {
	lines      LineReader
	out        io.Writer
	errOut     io.Writer
	colored    bool
	newSession SessionFactory
	session    *runner.Session
}

func New(lines LineReader, out, errOut io.Writer, newSession SessionFactory) *REPL {
	return &REPL{
		lines:      lines,
		out:        out,
		errOut:     errOut,
		colored:    errors.IsTerminal(errOut),
		newSession: newSession,
		session:    newSession(out),
	}
}

// Start runs an interactive loop on the terminal with line editing and
// history kept in the user's home directory.
func Start(newSession SessionFactory) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
	}

	if errors.IsTerminal(os.Stdin) {
		fmt.Println("taglox REPL | :help for commands, :quit to leave")
	}

	err := New(ln, os.Stdout, os.Stderr, newSession).Run()

	if histPath != "" {
		if f, ferr := os.Create(histPath); ferr == nil {
			_, _ = ln.WriteHistory(f)
			f.Close()
		}
	}
	return err
}

// Run reads and evaluates input until end of input or :quit.
func (r *REPL) Run() error {
	for {
		src, ok, err := r.read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		r.lines.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if cmd := strings.TrimSpace(src); strings.HasPrefix(cmd, ":") {
			if r.command(cmd) {
				return nil
			}
			continue
		}
		r.eval(src)
	}
}

// read collects one complete input, prompting again while Pending says the
// text so far is unfinished. ok is false at end of input.
func (r *REPL) read() (src string, ok bool, err error) {
	var b strings.Builder
	for {
		prompt := PromptMain
		if b.Len() > 0 {
			prompt = PromptCont
		}
		line, err := r.lines.Prompt(prompt)
		switch {
		case err == io.EOF:
			return "", false, nil
		case err == liner.ErrPromptAborted:
			return "", true, nil
		case err != nil:
			return "", false, pkgerrors.Wrap(err, "read input")
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !Pending(b.String()) {
			return b.String(), true, nil
		}
	}
}

// Pending reports whether src stops inside an open string, tag, parenthesis
// or brace, so the user is still typing.
func Pending(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	s := lexer.NewScanner(src)
	tokens := s.ScanTokens()
	for _, err := range s.Errors {
		if le, ok := errors.As(err); ok && strings.HasPrefix(le.Message, "Unterminated") {
			return true
		}
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case lexer.TokenLeftParen, lexer.TokenLeftBrace:
			depth++
		case lexer.TokenRightParen, lexer.TokenRightBrace:
			depth--
		}
	}
	return depth > 0
}

func (r *REPL) eval(src string) {
	res := r.session.Run(src)
	if !res.OK() {
		errors.RenderAll(r.errOut, res.Diagnostics, r.colored)
		return
	}
	text, echoed, err := r.session.Echo(res)
	if echoed {
		if err != nil {
			errors.Render(r.errOut, err, r.colored)
			return
		}
		fmt.Fprintln(r.out, text)
		return
	}
	if err := r.session.Interpret(res); err != nil {
		errors.Render(r.errOut, err, r.colored)
	}
}

// command runs a colon command and reports whether the loop should stop.
func (r *REPL) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":exit":
		return true
	case ":help":
		fmt.Fprint(r.out, helpText)
	case ":globals":
		for _, name := range r.session.Globals() {
			fmt.Fprintln(r.out, name)
		}
	case ":reset":
		r.session = r.newSession(r.out)
		fmt.Fprintln(r.out, "interpreter reset.")
	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.errOut, "usage: :load FILE")
			return false
		}
		data, err := os.ReadFile(fields[1])
		if err != nil {
			errors.Render(r.errOut, pkgerrors.Wrapf(err, "load %s", fields[1]), r.colored)
			return false
		}
		r.eval(string(data))
	default:
		fmt.Fprintf(r.errOut, "unknown command %s, try :help\n", fields[0])
	}
	return false
}
