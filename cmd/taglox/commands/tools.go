// cmd/taglox/commands/tools.go
package commands

import (
	"fmt"

	"taglox/internal/formatter"
	"taglox/internal/parser"
)

// FmtCommand prints a script in canonical layout: taglox fmt FILE
func FmtCommand(env *Env, args []string) error {
	stmts, err := parsedOperand(env, "fmt", args)
	if err != nil {
		return err
	}
	fmt.Fprint(env.Stdout, formatter.Format(stmts))
	return nil
}

// AstCommand prints the syntax tree as S-expressions: taglox ast FILE
func AstCommand(env *Env, args []string) error {
	stmts, err := parsedOperand(env, "ast", args)
	if err != nil {
		return err
	}
	fmt.Fprint(env.Stdout, formatter.PrintAST(stmts))
	return nil
}

// RpnCommand prints each top-level expression in reverse Polish notation:
// taglox rpn FILE
func RpnCommand(env *Env, args []string) error {
	stmts, err := parsedOperand(env, "rpn", args)
	if err != nil {
		return err
	}
	for _, line := range formatter.RPNProgram(stmts) {
		fmt.Fprintln(env.Stdout, line)
	}
	return nil
}

func parsedOperand(env *Env, name string, args []string) ([]parser.Stmt, error) {
	_, operands, err := parseFlags(args, "")
	if err != nil {
		return nil, err
	}
	path, err := oneFile(name, operands)
	if err != nil {
		return nil, err
	}
	return parseFile(env, path)
}
