package errors

import "strings"

// Reporter collects diagnostics from every pipeline stage in the order they
// were produced and decorates them with the offending source line.
type Reporter struct {
	file        string
	sourceLines []string
	diagnostics []*LoxError
}

// NewReporter creates a reporter for one source text.
func NewReporter(source, file string) *Reporter {
	return &Reporter{
		file:        file,
		sourceLines: strings.Split(source, "\n"),
	}
}

// Report records err. Errors that are not *LoxError are wrapped as-is into a
// location-less diagnostic of the given type.
func (r *Reporter) Report(kind ErrorType, err error) {
	le, ok := As(err)
	if !ok {
		le = newError(kind, err.Error(), r.file, 0, 0, 0)
	}
	r.Decorate(le)
	r.diagnostics = append(r.diagnostics, le)
}

// ReportAll records every error of errs.
func (r *Reporter) ReportAll(kind ErrorType, errs []error) {
	for _, err := range errs {
		r.Report(kind, err)
	}
}

// Decorate fills in the file name and source line of le when missing.
func (r *Reporter) Decorate(le *LoxError) {
	if le.Location.File == "" {
		le.Location.File = r.file
	}
	if le.Source == "" && le.Location.Line > 0 && le.Location.Line <= len(r.sourceLines) {
		le.Source = strings.TrimRight(r.sourceLines[le.Location.Line-1], "\r")
	}
}

// Diagnostics returns the recorded diagnostics.
func (r *Reporter) Diagnostics() []*LoxError {
	return r.diagnostics
}

// HasErrors reports whether anything was recorded.
func (r *Reporter) HasErrors() bool {
	return len(r.diagnostics) > 0
}

// First returns the first diagnostic or nil.
func (r *Reporter) First() *LoxError {
	if len(r.diagnostics) == 0 {
		return nil
	}
	return r.diagnostics[0]
}
