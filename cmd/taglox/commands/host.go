// cmd/taglox/commands/host.go
package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"taglox/internal/playground"
	"taglox/internal/repl"
	"taglox/internal/runner"
	"taglox/internal/scripttest"
)

// ReplCommand starts the interactive loop: taglox repl [-c config] [-t tags.yaml]
func ReplCommand(env *Env, args []string) error {
	opts, _, err := parseFlags(args, "c:t:")
	if err != nil {
		return err
	}
	var configPath, tagFile string
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
			configPath = opt.Value
		case 't':
			tagFile = opt.Value
		}
	}

	_, logger, handle, err := setup(env, configPath, tagFile)
	if err != nil {
		return err
	}
	defer handle.Close()

	return repl.Start(func(out io.Writer) *runner.Session {
		return runner.NewSession(
			runner.WithOutput(out),
			runner.WithTagSource(handle),
			runner.WithLogger(logger),
		)
	})
}

// TestCommand runs golden scripts: taglox test [-v] [-f FILTER] [-j N] DIR
func TestCommand(env *Env, args []string) error {
	opts, operands, err := parseFlags(args, "vf:j:")
	if err != nil {
		return err
	}
	verbose := false
	var runOpts []scripttest.Option
	for _, opt := range opts {
		switch opt.Option {
		case 'v':
			verbose = true
		case 'f':
			runOpts = append(runOpts, scripttest.WithFilter(opt.Value))
		case 'j':
			n, err := strconv.Atoi(opt.Value)
			if err != nil || n < 1 {
				return errors.Errorf("invalid -j value %q", opt.Value)
			}
			runOpts = append(runOpts, scripttest.WithParallel(n))
		}
	}
	dir, err := oneFile("test", operands)
	if err != nil {
		return errors.New("usage: taglox test [-v] [-f FILTER] [-j N] DIR")
	}

	sum, err := scripttest.NewRunner(runOpts...).RunDir(context.Background(), dir)
	if err != nil {
		return err
	}
	scripttest.NewTextReporter(env.Stdout, verbose, env.Colored).Report(sum)
	if !sum.OK() {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

// ServeCommand runs the WebSocket playground until interrupted:
// taglox serve [-c config] [-a ADDR]
func ServeCommand(env *Env, args []string) error {
	opts, _, err := parseFlags(args, "c:a:")
	if err != nil {
		return err
	}
	var configPath, addr string
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
			configPath = opt.Value
		case 'a':
			addr = opt.Value
		}
	}

	cfg, logger, handle, err := setup(env, configPath, "")
	if err != nil {
		return err
	}
	defer handle.Close()
	if addr != "" {
		cfg.Serve.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := playground.New(cfg.Serve,
		playground.WithLogger(logger),
		playground.WithTagSource(handle),
	)
	return server.ListenAndServe(ctx)
}
