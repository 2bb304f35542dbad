package formatter

import (
	"strconv"
	"strings"

	"taglox/internal/lexer"
	"taglox/internal/parser"
)

type Formatter struct {
	indent    int
	indentStr string
	output    strings.Builder
	lineBreak string
}

func NewFormatter() *Formatter {
	return &Formatter{
		indent:    0,
		indentStr: "    ", // 4 spaces
		lineBreak: "\n",
	}
}

// Format renders stmts as canonical source. for loops come back in their
// desugared while form.
func Format(stmts []parser.Stmt) string {
	return NewFormatter().Format(stmts)
}

func (f *Formatter) Format(stmts []parser.Stmt) string {
	f.output.Reset()
	f.indent = 0

	for i, stmt := range stmts {
		f.formatStmt(stmt)
		if i < len(stmts)-1 && f.needsBlankLine(stmt, stmts[i+1]) {
			f.output.WriteString(f.lineBreak)
		}
	}

	return f.output.String()
}

func (f *Formatter) needsBlankLine(curr, next parser.Stmt) bool {
	// Add blank line around function and class declarations
	return isDeclaration(curr) || isDeclaration(next)
}

func isDeclaration(s parser.Stmt) bool {
	switch s.(type) {
	case *parser.FunctionStmt, *parser.ClassStmt:
		return true
	}
	return false
}

func (f *Formatter) writeIndent() {
	for i := 0; i < f.indent; i++ {
		f.output.WriteString(f.indentStr)
	}
}

func (f *Formatter) write(parts ...string) {
	for _, p := range parts {
		f.output.WriteString(p)
	}
}

func (f *Formatter) formatStmt(stmt parser.Stmt) {
	f.writeIndent()
	f.formatStmtInline(stmt)
	f.output.WriteString(f.lineBreak)
}

// formatStmtInline writes stmt without leading indent or trailing newline.
func (f *Formatter) formatStmtInline(stmt parser.Stmt) {
	switch s := stmt.(type) {
	case *parser.VarStmt:
		f.write("var ", s.Name.Lexeme)
		if s.Initializer != nil {
			f.write(" = ")
			f.formatExpr(s.Initializer)
		}
		f.write(";")

	case *parser.PrintStmt:
		f.write("print ")
		f.formatExpr(s.Expr)
		f.write(";")

	case *parser.ExpressionStmt:
		// A leading named function expression would read as a declaration.
		if fn, ok := s.Expr.(*parser.Function); ok && fn.Name != nil {
			f.write("(")
			f.formatExpr(s.Expr)
			f.write(");")
			return
		}
		f.formatExpr(s.Expr)
		f.write(";")

	case *parser.BlockStmt:
		f.formatBlock(s.Statements)

	case *parser.IfStmt:
		f.write("if (")
		f.formatExpr(s.Condition)
		f.write(")")
		f.formatBody(s.Then)
		if s.Else == nil {
			return
		}
		if _, ok := s.Then.(*parser.BlockStmt); ok {
			f.write(" else")
		} else {
			f.write(f.lineBreak)
			f.writeIndent()
			f.write("else")
		}
		if _, ok := s.Else.(*parser.IfStmt); ok {
			f.write(" ")
			f.formatStmtInline(s.Else)
			return
		}
		f.formatBody(s.Else)

	case *parser.WhileStmt:
		f.write("while (")
		f.formatExpr(s.Condition)
		f.write(")")
		f.formatBody(s.Body)

	case *parser.BreakStmt:
		f.write("break;")

	case *parser.ReturnStmt:
		f.write("return")
		if s.Value != nil {
			f.write(" ")
			f.formatExpr(s.Value)
		}
		f.write(";")

	case *parser.FunctionStmt:
		f.write("fun ")
		f.formatFunction(s.Name.Lexeme, s.Params, s.Body)

	case *parser.ClassStmt:
		f.write("class ", s.Name.Lexeme)
		if s.Superclass != nil {
			f.write(" < ", s.Superclass.Name.Lexeme)
		}
		f.write(" {", f.lineBreak)
		f.indent++
		for _, m := range s.Methods {
			f.writeIndent()
			f.formatFunction(m.Name.Lexeme, m.Params, m.Body)
			f.write(f.lineBreak)
		}
		f.indent--
		f.writeIndent()
		f.write("}")
	}
}

// formatBody writes a loop or branch body: blocks stay on the same line,
// single statements go indented on the next one.
func (f *Formatter) formatBody(body parser.Stmt) {
	if block, ok := body.(*parser.BlockStmt); ok {
		f.write(" ")
		f.formatBlock(block.Statements)
		return
	}
	f.write(f.lineBreak)
	f.indent++
	f.writeIndent()
	f.formatStmtInline(body)
	f.indent--
}

func (f *Formatter) formatBlock(stmts []parser.Stmt) {
	if len(stmts) == 0 {
		f.write("{}")
		return
	}
	f.write("{", f.lineBreak)
	f.indent++
	for _, stmt := range stmts {
		f.formatStmt(stmt)
	}
	f.indent--
	f.writeIndent()
	f.write("}")
}

func (f *Formatter) formatFunction(name string, params []lexer.Token, body []parser.Stmt) {
	f.write(name, "(")
	for i, param := range params {
		if i > 0 {
			f.write(", ")
		}
		f.write(param.Lexeme)
	}
	f.write(") ")
	f.formatBlock(body)
}

func (f *Formatter) formatExpr(expr parser.Expr) {
	switch e := expr.(type) {
	case *parser.Literal:
		f.write(literal(e.Value, true))

	case *parser.Tag:
		f.write("'", e.Key, "'")

	case *parser.Grouping:
		f.write("(")
		f.formatExpr(e.Inner)
		f.write(")")

	case *parser.Unary:
		f.write(e.Operator.Lexeme)
		f.formatExpr(e.Right)

	case *parser.Binary:
		f.formatExpr(e.Left)
		f.write(" ", e.Operator.Lexeme, " ")
		f.formatExpr(e.Right)

	case *parser.Logical:
		f.formatExpr(e.Left)
		f.write(" ", e.Operator.Lexeme, " ")
		f.formatExpr(e.Right)

	case *parser.Ternary:
		f.formatExpr(e.Condition)
		f.write(" ? ")
		f.formatExpr(e.Then)
		f.write(" : ")
		f.formatExpr(e.Else)

	case *parser.Comma:
		f.formatExpr(e.Left)
		f.write(", ")
		f.formatExpr(e.Right)

	case *parser.Variable:
		f.write(e.Name.Lexeme)

	case *parser.Assign:
		f.write(e.Name.Lexeme, " = ")
		f.formatExpr(e.Value)

	case *parser.Call:
		f.formatExpr(e.Callee)
		f.write("(")
		for i, arg := range e.Args {
			if i > 0 {
				f.write(", ")
			}
			f.formatExpr(arg)
		}
		f.write(")")

	case *parser.Get:
		f.formatExpr(e.Object)
		f.write(".", e.Name.Lexeme)

	case *parser.Set:
		f.formatExpr(e.Object)
		f.write(".", e.Name.Lexeme, " = ")
		f.formatExpr(e.Value)

	case *parser.This:
		f.write("this")

	case *parser.Super:
		f.write("super.", e.Method.Lexeme)

	case *parser.Function:
		f.write("fun ")
		if e.Name != nil {
			f.formatFunction(e.Name.Lexeme, e.Params, e.Body)
			return
		}
		f.formatFunction("", e.Params, e.Body)
	}
}

// literal renders a literal value; quoted wraps strings in double quotes.
func literal(v interface{}, quoted bool) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if quoted {
			return `"` + v + `"`
		}
		return v
	}
	return "?"
}
