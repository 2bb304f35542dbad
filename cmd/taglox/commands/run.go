// cmd/taglox/commands/run.go
package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	loxerrors "taglox/internal/errors"
	"taglox/internal/runner"
)

// RunCommand executes a script: taglox run [-c config] [-t tags.yaml] [-s] FILE
func RunCommand(env *Env, args []string) error {
	opts, operands, err := parseFlags(args, "c:t:s")
	if err != nil {
		return err
	}
	var configPath, tagFile string
	stats := false
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
			configPath = opt.Value
		case 't':
			tagFile = opt.Value
		case 's':
			stats = true
		}
	}
	path, err := oneFile("run", operands)
	if err != nil {
		return err
	}
	source, err := readSource(path)
	if err != nil {
		return err
	}

	_, logger, handle, err := setup(env, configPath, tagFile)
	if err != nil {
		return err
	}
	defer handle.Close()

	session := runner.NewSession(
		runner.WithFile(path),
		runner.WithOutput(env.Stdout),
		runner.WithTagSource(handle),
		runner.WithLogger(logger),
	)

	start := time.Now()
	res := session.Run(source)
	if !res.OK() {
		loxerrors.RenderAll(env.Stderr, res.Diagnostics, env.Colored)
		return &ExitError{Code: ExitStatic}
	}
	analysed := time.Since(start)

	if err := session.Interpret(res); err != nil {
		loxerrors.Render(env.Stderr, err, env.Colored)
		if _, ok := loxerrors.As(err); ok {
			return &ExitError{Code: ExitRuntime}
		}
		return &ExitError{Code: ExitFailure}
	}

	if stats {
		fmt.Fprintf(env.Stderr, "%s: %s of source, %s tokens, %s statements; analysed in %v, ran in %v\n",
			path,
			humanize.Bytes(uint64(len(source))),
			humanize.Comma(int64(res.Tokens)),
			humanize.Comma(int64(len(res.Statements))),
			analysed.Round(time.Microsecond),
			(time.Since(start) - analysed).Round(time.Microsecond))
	}
	return nil
}

// CheckCommand reports every static diagnostic of a script without running
// it: taglox check FILE
func CheckCommand(env *Env, args []string) error {
	_, operands, err := parseFlags(args, "")
	if err != nil {
		return err
	}
	path, err := oneFile("check", operands)
	if err != nil {
		return err
	}
	source, err := readSource(path)
	if err != nil {
		return err
	}

	res := runner.NewSession(runner.WithFile(path)).Run(source)
	if !res.OK() {
		loxerrors.RenderAll(env.Stderr, res.Diagnostics, env.Colored)
		return &ExitError{Code: ExitStatic}
	}
	fmt.Fprintf(env.Stdout, "%s: ok\n", path)
	return nil
}
