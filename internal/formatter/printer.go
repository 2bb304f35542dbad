package formatter

import (
	"strconv"
	"strings"

	"taglox/internal/lexer"
	"taglox/internal/parser"
)

// PrintAST renders each statement as one fully parenthesized line.
func PrintAST(stmts []parser.Stmt) string {
	var sb strings.Builder
	for _, stmt := range stmts {
		sb.WriteString(sexprStmt(stmt))
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintExpr renders a single expression in prefix form: 1 + 2 * 3 becomes
// (+ 1 (* 2 3)).
func PrintExpr(expr parser.Expr) string {
	switch e := expr.(type) {
	case *parser.Literal:
		return literal(e.Value, true)
	case *parser.Tag:
		return parenthesize("tag", e.Key)
	case *parser.Grouping:
		return parenthesize("group", PrintExpr(e.Inner))
	case *parser.Unary:
		return parenthesize(e.Operator.Lexeme, PrintExpr(e.Right))
	case *parser.Binary:
		return parenthesize(e.Operator.Lexeme, PrintExpr(e.Left), PrintExpr(e.Right))
	case *parser.Logical:
		return parenthesize(e.Operator.Lexeme, PrintExpr(e.Left), PrintExpr(e.Right))
	case *parser.Ternary:
		return parenthesize("?", PrintExpr(e.Condition), PrintExpr(e.Then), PrintExpr(e.Else))
	case *parser.Comma:
		return parenthesize(",", PrintExpr(e.Left), PrintExpr(e.Right))
	case *parser.Variable:
		return e.Name.Lexeme
	case *parser.Assign:
		return parenthesize("=", e.Name.Lexeme, PrintExpr(e.Value))
	case *parser.Call:
		parts := []string{PrintExpr(e.Callee)}
		for _, arg := range e.Args {
			parts = append(parts, PrintExpr(arg))
		}
		return parenthesize("call", parts...)
	case *parser.Get:
		return parenthesize(".", PrintExpr(e.Object), e.Name.Lexeme)
	case *parser.Set:
		return parenthesize("=", parenthesize(".", PrintExpr(e.Object), e.Name.Lexeme), PrintExpr(e.Value))
	case *parser.This:
		return "this"
	case *parser.Super:
		return parenthesize("super", e.Method.Lexeme)
	case *parser.Function:
		name := "anonymous"
		if e.Name != nil {
			name = e.Name.Lexeme
		}
		return sexprFunction(name, e.Params, e.Body)
	}
	return "?"
}

func sexprStmt(stmt parser.Stmt) string {
	switch s := stmt.(type) {
	case *parser.ExpressionStmt:
		return parenthesize(";", PrintExpr(s.Expr))
	case *parser.PrintStmt:
		return parenthesize("print", PrintExpr(s.Expr))
	case *parser.VarStmt:
		if s.Initializer == nil {
			return parenthesize("var", s.Name.Lexeme)
		}
		return parenthesize("var", s.Name.Lexeme, PrintExpr(s.Initializer))
	case *parser.BlockStmt:
		return parenthesize("block", sexprStmts(s.Statements)...)
	case *parser.IfStmt:
		if s.Else == nil {
			return parenthesize("if", PrintExpr(s.Condition), sexprStmt(s.Then))
		}
		return parenthesize("if-else", PrintExpr(s.Condition), sexprStmt(s.Then), sexprStmt(s.Else))
	case *parser.WhileStmt:
		return parenthesize("while", PrintExpr(s.Condition), sexprStmt(s.Body))
	case *parser.BreakStmt:
		return "(break)"
	case *parser.ReturnStmt:
		if s.Value == nil {
			return "(return)"
		}
		return parenthesize("return", PrintExpr(s.Value))
	case *parser.FunctionStmt:
		return sexprFunction(s.Name.Lexeme, s.Params, s.Body)
	case *parser.ClassStmt:
		parts := []string{s.Name.Lexeme}
		if s.Superclass != nil {
			parts = append(parts, "<", s.Superclass.Name.Lexeme)
		}
		for _, m := range s.Methods {
			parts = append(parts, sexprFunction(m.Name.Lexeme, m.Params, m.Body))
		}
		return parenthesize("class", parts...)
	}
	return "?"
}

func sexprStmts(stmts []parser.Stmt) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = sexprStmt(s)
	}
	return out
}

func sexprFunction(name string, params []lexer.Token, body []parser.Stmt) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	parts := append([]string{name, "(" + strings.Join(names, " ") + ")"}, sexprStmts(body)...)
	return parenthesize("fun", parts...)
}

func parenthesize(name string, parts ...string) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(name)
	for _, p := range parts {
		sb.WriteString(" ")
		sb.WriteString(p)
	}
	sb.WriteString(")")
	return sb.String()
}

// RPN renders an expression in reverse Polish notation, tokens separated by
// spaces: (1 + 2) * 3 becomes "1 2 + 3 *". Grouping leaves no trace. Calls
// end with call/N where N is the argument count.
func RPN(expr parser.Expr) string {
	return strings.Join(rpn(expr, nil), " ")
}

func rpn(expr parser.Expr, out []string) []string {
	switch e := expr.(type) {
	case *parser.Literal:
		return append(out, literal(e.Value, true))
	case *parser.Tag:
		return append(out, "'"+e.Key+"'")
	case *parser.Grouping:
		return rpn(e.Inner, out)
	case *parser.Unary:
		op := e.Operator.Lexeme
		if e.Operator.Type == lexer.TokenMinus {
			op = "neg"
		}
		return append(rpn(e.Right, out), op)
	case *parser.Binary:
		return append(rpn(e.Right, rpn(e.Left, out)), e.Operator.Lexeme)
	case *parser.Logical:
		return append(rpn(e.Right, rpn(e.Left, out)), e.Operator.Lexeme)
	case *parser.Ternary:
		return append(rpn(e.Else, rpn(e.Then, rpn(e.Condition, out))), "?:")
	case *parser.Comma:
		return append(rpn(e.Right, rpn(e.Left, out)), ",")
	case *parser.Variable:
		return append(out, e.Name.Lexeme)
	case *parser.Assign:
		return append(rpn(e.Value, append(out, e.Name.Lexeme)), "=")
	case *parser.Call:
		out = rpn(e.Callee, out)
		for _, arg := range e.Args {
			out = rpn(arg, out)
		}
		return append(out, "call/"+strconv.Itoa(len(e.Args)))
	case *parser.Get:
		return append(rpn(e.Object, out), "."+e.Name.Lexeme)
	case *parser.Set:
		return append(rpn(e.Value, rpn(e.Object, out)), "."+e.Name.Lexeme+"=")
	case *parser.This:
		return append(out, "this")
	case *parser.Super:
		return append(out, "super."+e.Method.Lexeme)
	case *parser.Function:
		return append(out, "<fn>")
	}
	return append(out, "?")
}

// RPNProgram converts every top-level expression of stmts (expression
// statements, print operands and variable initializers) to RPN, one line each.
func RPNProgram(stmts []parser.Stmt) []string {
	var lines []string
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.ExpressionStmt:
			lines = append(lines, RPN(s.Expr))
		case *parser.PrintStmt:
			lines = append(lines, RPN(s.Expr))
		case *parser.VarStmt:
			if s.Initializer != nil {
				lines = append(lines, RPN(s.Initializer))
			}
		}
	}
	return lines
}
