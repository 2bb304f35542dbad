// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the stage of the pipeline that produced an error
type ErrorType string

const (
	ScanError       ErrorType = "ScanError"
	ParseError      ErrorType = "ParseError"
	ResolutionError ErrorType = "ResolutionError"
	RuntimeError    ErrorType = "RuntimeError"

	// RequestError reports a malformed request to a host, not a program fault.
	RequestError ErrorType = "RequestError"
)

// SeverityError is the only severity the pipeline emits today.
const SeverityError = "error"

// SourceLocation represents a location in source code. Columns are 1-based
// and EndColumn is exclusive.
type SourceLocation struct {
	File      string `json:"file,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"columnStart"`
	EndColumn int    `json:"columnEnd"`
}

// LoxError is a diagnostic with source location information
type LoxError struct {
	Type      ErrorType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	At        string         `json:"at,omitempty"` // offending lexeme, or "end"
	Location  SourceLocation `json:"location"`
	CallStack []StackFrame   `json:"callStack,omitempty"`
	Source    string         `json:"-"` // The source line where error occurred
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Error implements the error interface
func (e *LoxError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Headline())
	sb.WriteString("\n")

	if e.Location.Line > 0 {
		if e.Location.File != "" {
			sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n",
				e.Location.File, e.Location.Line, e.Location.Column))
		} else {
			sb.WriteString(fmt.Sprintf("  at line %d, column %d\n",
				e.Location.Line, e.Location.Column))
		}

		if e.Source != "" {
			sb.WriteString(e.Snippet())
		}
	}

	if len(e.CallStack) > 0 {
		sb.WriteString("\nCall Stack:\n")
		for _, frame := range e.CallStack {
			sb.WriteString(fmt.Sprintf("  at %s (line %d)\n", frame.Function, frame.Line))
		}
	}

	return sb.String()
}

// Headline is the single-line form: "ParseError at ';': Expect expression."
func (e *LoxError) Headline() string {
	if e.At != "" {
		return fmt.Sprintf("%s at %s: %s", e.Type, e.At, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Snippet renders the source line with a caret run under the offending columns.
func (e *LoxError) Snippet() string {
	if e.Source == "" || e.Location.Line <= 0 {
		return ""
	}
	var sb strings.Builder
	gutter := fmt.Sprintf("  %d | ", e.Location.Line)
	sb.WriteString("\n")
	sb.WriteString(gutter)
	sb.WriteString(e.Source)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", len(gutter)))
	if e.Location.Column > 1 {
		sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
	}
	width := e.Location.EndColumn - e.Location.Column
	if width < 1 {
		width = 1
	}
	sb.WriteString(strings.Repeat("^", width))
	sb.WriteString("\n")
	return sb.String()
}

func newError(kind ErrorType, message, file string, line, column, endColumn int) *LoxError {
	return &LoxError{
		Type:     kind,
		Severity: SeverityError,
		Message:  message,
		Location: SourceLocation{
			File:      file,
			Line:      line,
			Column:    column,
			EndColumn: endColumn,
		},
	}
}

// NewScanError creates a new scan error
func NewScanError(message string, file string, line, column, endColumn int) *LoxError {
	return newError(ScanError, message, file, line, column, endColumn)
}

// NewParseError creates a new parse error
func NewParseError(message string, file string, line, column, endColumn int) *LoxError {
	return newError(ParseError, message, file, line, column, endColumn)
}

// NewResolutionError creates a new resolution error
func NewResolutionError(message string, file string, line, column, endColumn int) *LoxError {
	return newError(ResolutionError, message, file, line, column, endColumn)
}

// NewRuntimeError creates a new runtime error
func NewRuntimeError(message string, file string, line, column, endColumn int) *LoxError {
	return newError(RuntimeError, message, file, line, column, endColumn)
}

// WithAt records the offending lexeme
func (e *LoxError) WithAt(at string) *LoxError {
	e.At = at
	return e
}

// WithSource adds source code context to the error
func (e *LoxError) WithSource(source string) *LoxError {
	e.Source = source
	return e
}

// WithStack adds a call stack to the error
func (e *LoxError) WithStack(stack []StackFrame) *LoxError {
	e.CallStack = stack
	return e
}

// AddStackFrame adds a single stack frame
func (e *LoxError) AddStackFrame(function, file string, line, column int) *LoxError {
	e.CallStack = append(e.CallStack, StackFrame{
		Function: function,
		File:     file,
		Line:     line,
		Column:   column,
	})
	return e
}

// As reports whether err is a *LoxError and returns it.
func As(err error) (*LoxError, bool) {
	le, ok := err.(*LoxError)
	return le, ok
}

// NewRequestError creates a location-less error about a host request.
func NewRequestError(message string) *LoxError {
	return newError(RequestError, message, "", 0, 0, 0)
}
