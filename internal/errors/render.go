package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal, which is when diagnostics get
// colored.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes err to w. A *LoxError gets its headline in bold red when
// colored is set, followed by location, snippet and call stack. Any other
// error is printed as "error: <message>".
func Render(w io.Writer, err error, colored bool) {
	header := color.New(color.FgRed, color.Bold)
	if colored {
		header.EnableColor()
	} else {
		header.DisableColor()
	}

	le, ok := As(err)
	if !ok {
		header.Fprint(w, "error:")
		fmt.Fprintf(w, " %v\n", err)
		return
	}

	text := le.Error()
	head, rest, _ := strings.Cut(text, "\n")
	header.Fprintln(w, head)
	if rest != "" {
		fmt.Fprint(w, rest)
	}
}

// RenderAll renders every diagnostic in order.
func RenderAll(w io.Writer, diags []*LoxError, colored bool) {
	for _, d := range diags {
		Render(w, d, colored)
	}
}
