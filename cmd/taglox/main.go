// cmd/taglox/main.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	"taglox/cmd/taglox/commands"
)

const VERSION = "0.3.0"

// Set with -ldflags "-X main.GitCommit=..." at build time.
var (
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(2)
	}

	env := commands.DefaultEnv()
	var err error
	switch args[0] {
	case "run":
		err = commands.RunCommand(env, args)
	case "check":
		err = commands.CheckCommand(env, args)
	case "fmt":
		err = commands.FmtCommand(env, args)
	case "ast":
		err = commands.AstCommand(env, args)
	case "rpn":
		err = commands.RpnCommand(env, args)
	case "repl":
		err = commands.ReplCommand(env, args)
	case "test":
		err = commands.TestCommand(env, args)
	case "serve":
		err = commands.ServeCommand(env, args)
	case "version", "--version", "-v":
		showVersion()
		return
	case "help", "--help", "-h":
		showUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "taglox: unknown command %q\n\n", args[0])
		showUsage()
		os.Exit(2)
	}

	var exit *commands.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func showVersion() {
	fmt.Printf("taglox v%s\n", VERSION)
	fmt.Printf("Build Date: %s\n", BuildDate)
	if GitCommit != "unknown" {
		fmt.Printf("Git Commit: %s\n", GitCommit)
	}
	fmt.Printf("Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func showUsage() {
	fmt.Println("taglox - a Lox interpreter with external 'tag' lookups")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  taglox run [-c cfg] [-t tags.yaml] [-s] FILE   Run a script (-s prints stats)")
	fmt.Println("  taglox check FILE                             Report static errors without running")
	fmt.Println("  taglox fmt FILE                               Print FILE in canonical layout")
	fmt.Println("  taglox ast FILE                               Print the syntax tree")
	fmt.Println("  taglox rpn FILE                               Print expressions in reverse Polish notation")
	fmt.Println("  taglox repl [-c cfg] [-t tags.yaml]           Start the interactive REPL")
	fmt.Println("  taglox test [-v] [-f FILTER] [-j N] DIR       Run golden scripts under DIR")
	fmt.Println("  taglox serve [-c cfg] [-a ADDR]               Start the WebSocket playground")
	fmt.Println("  taglox version                                Show version")
	fmt.Println()
	fmt.Println("Exit status: 65 static errors, 70 runtime error, 1 other failures.")
	fmt.Println()
	fmt.Println("Configuration is read from taglox.yaml when present; TAGLOX_LOG_LEVEL,")
	fmt.Println("TAGLOX_TAGS_DRIVER, TAGLOX_TAGS_DSN and TAGLOX_SERVE_ADDR override it.")
}
