// Package scripttest runs .lox scripts and checks them against expectations
// written in their comments:
//
//	print 1 + 2; // expect: 3
//	print nope;  // expect error: Undefined variable 'nope'.
//	// tag: region: eu-west
//
// expect lines are matched in order against the printed output. expect
// error lines are matched against the messages of the diagnostics or the
// runtime error. tag lines form a YAML document that backs the script's
// tag literals.
package scripttest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"taglox/internal/errors"
	"taglox/internal/runner"
	"taglox/internal/tags"
)

const (
	expectPrefix      = "// expect: "
	expectErrorPrefix = "// expect error: "
	tagPrefix         = "// tag: "
)

// Expectation is what a script declares about itself.
type Expectation struct {
	Output []string
	Errors []string
	Tags   string
}

// ParseExpectations collects the annotations of src.
func ParseExpectations(src string) Expectation {
	var exp Expectation
	var tagLines []string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimRight(line, "\r")
		if i := strings.Index(line, expectErrorPrefix); i >= 0 {
			exp.Errors = append(exp.Errors, strings.TrimSpace(line[i+len(expectErrorPrefix):]))
			continue
		}
		if i := strings.Index(line, expectPrefix); i >= 0 {
			exp.Output = append(exp.Output, line[i+len(expectPrefix):])
			continue
		}
		if i := strings.Index(line, tagPrefix); i >= 0 {
			tagLines = append(tagLines, line[i+len(tagPrefix):])
		}
	}
	exp.Tags = strings.Join(tagLines, "\n")
	return exp
}

// Result is the outcome of one script.
type Result struct {
	Name     string
	File     string
	Passed   bool
	Duration time.Duration
	Bytes    int
	Message  string
	Error    error
}

// Summary aggregates a directory run.
type Summary struct {
	Results   []Result
	Passed    int
	Failed    int
	Bytes     int
	TotalTime time.Duration
}

func (s *Summary) OK() bool {
	return s.Failed == 0
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithParallel sets how many scripts run at once.
func WithParallel(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithFilter keeps only scripts whose name contains filter.
func WithFilter(filter string) Option {
	return func(r *Runner) { r.filter = filter }
}

type Runner struct {
	logger   *slog.Logger
	parallel int
	filter   string
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		parallel: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Discover lists the .lox files under dir, sorted.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lox" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "walk %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// RunDir runs every script under dir. Each script gets its own session.
func (r *Runner) RunDir(ctx context.Context, dir string) (*Summary, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if r.filter != "" {
		kept := files[:0]
		for _, f := range files {
			if strings.Contains(filepath.Base(f), r.filter) {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	start := time.Now()
	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, relErr := filepath.Rel(dir, file)
			if relErr != nil {
				rel = file
			}
			results[i] = r.RunFile(file)
			results[i].Name = rel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{Results: results, TotalTime: time.Since(start)}
	for _, res := range results {
		sum.Bytes += res.Bytes
		if res.Passed {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	r.logger.Info("scripts finished", "dir", dir, "passed", sum.Passed, "failed", sum.Failed, "duration", sum.TotalTime)
	return sum, nil
}

// RunFile runs one script and compares it with its expectations.
func (r *Runner) RunFile(path string) (res Result) {
	res = Result{Name: filepath.Base(path), File: path}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = pkgerrors.Wrapf(err, "read %s", path)
		return res
	}
	res.Bytes = len(data)
	src := string(data)
	exp := ParseExpectations(src)

	tagSource, err := tags.ParseYAML([]byte(exp.Tags))
	if err != nil {
		res.Error = pkgerrors.Wrapf(err, "tags in %s", path)
		return res
	}

	var out bytes.Buffer
	session := runner.NewSession(
		runner.WithFile(path),
		runner.WithOutput(&out),
		runner.WithTagSource(tagSource),
		runner.WithLogger(r.logger),
	)
	_, runErr := session.Execute(src)

	gotErrors, err := messages(runErr)
	if err != nil {
		res.Error = err
		return res
	}
	gotOutput := lines(out.String())

	var failures []string
	if diff := cmp.Diff(exp.Output, gotOutput); diff != "" {
		failures = append(failures, "output mismatch (-want +got):\n"+diff)
	}
	if diff := cmp.Diff(exp.Errors, gotErrors); diff != "" {
		failures = append(failures, "errors mismatch (-want +got):\n"+diff)
	}
	res.Passed = len(failures) == 0
	res.Message = strings.Join(failures, "\n")
	r.logger.Debug("script finished", "file", path, "passed", res.Passed)
	return res
}

// messages flattens the error of a run into diagnostic messages. Errors
// that are neither static nor runtime diagnostics are returned as is.
func messages(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	var static *runner.StaticError
	if pkgerrors.As(err, &static) {
		out := make([]string, len(static.Diagnostics))
		for i, d := range static.Diagnostics {
			out[i] = d.Message
		}
		return out, nil
	}
	if le, ok := errors.As(err); ok {
		return []string{le.Message}, nil
	}
	return nil, err
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
