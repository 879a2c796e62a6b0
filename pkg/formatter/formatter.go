// Package formatter prints a program back to canonical source.
package formatter

import (
	"strconv"
	"strings"

	"github.com/rdni/interpreter/pkg/ast"
)

const indent = "    "

// maxInline is the widest object or list literal kept on one line.
const maxInline = 72

// Binding strength of each expression form, loosest first. An operand whose
// form binds looser than its position allows is parenthesized.
const (
	precAssign = iota
	precCompare
	precObject
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

func precedence(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.AssignmentExpr:
		return precAssign
	case *ast.ComparativeExpr:
		return precCompare
	case *ast.ObjectLiteral:
		return precObject
	case *ast.BinaryExpr:
		if expr.Op == ast.OpAdd || expr.Op == ast.OpSub {
			return precAdditive
		}
		return precMultiplicative
	case *ast.UnaryExpr:
		return precUnary
	case *ast.CallExpr, *ast.MemberExpr:
		return precPostfix
	}
	return precPrimary
}

// Format pretty-prints a program. Comments are not part of the tree and are
// dropped; see HasComments.
func Format(program *ast.Program) string {
	if len(program.Body.Statements) == 0 {
		return ""
	}
	return formatStmts(program.Body.Statements, 0) + "\n"
}

// HasComments checks if a source string contains // comments outside of
// string literals.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(source) && source[i+1] == '/':
			return true
		}
	}
	return false
}

func formatStmts(stmts []ast.Stmt, depth int) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth)
	}
	return strings.Join(lines, "\n")
}

func formatBody(body *ast.Body, depth int) string {
	if len(body.Statements) == 0 {
		return "{}"
	}
	return "{\n" + formatStmts(body.Statements, depth+1) + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.VarDeclaration:
		kw := "var "
		if stmt.Constant {
			kw = "const "
		}
		if stmt.Value == nil {
			return prefix + kw + stmt.Name + ";"
		}
		return prefix + kw + stmt.Name + " = " + formatExpr(stmt.Value, precAssign, depth) + ";"

	case *ast.FunctionDeclaration:
		return prefix + "function " + stmt.Name + "(" + strings.Join(stmt.Params, ", ") + ") " + formatBody(stmt.Body, depth)

	case *ast.Return:
		if stmt.Value == nil {
			return prefix + "return;"
		}
		return prefix + "return " + formatExpr(stmt.Value, precAssign, depth) + ";"

	case *ast.If:
		return prefix + formatIf(stmt, depth)

	case *ast.While:
		return prefix + "while (" + formatExpr(stmt.Cond, precAssign, depth) + ") " + formatBody(stmt.Body, depth)

	case *ast.For:
		return prefix + "for " + stmt.Var.Name + " in " + formatExpr(stmt.Iterable, precCompare, depth) + " " + formatBody(stmt.Body, depth)

	case *ast.Body:
		return prefix + formatBody(stmt, depth)

	case ast.Expr:
		out := formatExpr(stmt, precAssign, depth)
		// A statement starting with '{' would parse as a block.
		if strings.HasPrefix(out, "{") {
			out = "(" + out + ")"
		}
		return prefix + out + ";"
	}
	return ""
}

func formatIf(stmt *ast.If, depth int) string {
	out := "if (" + formatExpr(stmt.Cond, precAssign, depth) + ") " + formatBody(stmt.Then, depth)
	if stmt.Else == nil {
		return out
	}
	if len(stmt.Else.Statements) == 1 {
		if nested, ok := stmt.Else.Statements[0].(*ast.If); ok {
			return out + " else " + formatIf(nested, depth)
		}
	}
	return out + " else " + formatBody(stmt.Else, depth)
}

// formatExpr renders e, parenthesizing it if it binds looser than minPrec.
func formatExpr(e ast.Expr, minPrec int, depth int) string {
	out := formatBare(e, depth)
	if precedence(e) < minPrec {
		return "(" + out + ")"
	}
	return out
}

func formatBare(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.Identifier:
		return expr.Name
	case *ast.NumericLiteral:
		return strconv.FormatFloat(expr.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		return quote(expr.Value)
	case *ast.AssignmentExpr:
		return formatExpr(expr.Assignee, precCompare, depth) + " = " + formatExpr(expr.Value, precAssign, depth)
	case *ast.ComparativeExpr:
		return formatExpr(expr.Left, precCompare, depth) + " " + string(expr.Op) + " " + formatExpr(expr.Right, precObject, depth)
	case *ast.BinaryExpr:
		p := precedence(expr)
		return formatExpr(expr.Left, p, depth) + " " + string(expr.Op) + " " + formatExpr(expr.Right, p+1, depth)
	case *ast.UnaryExpr:
		return "-" + formatExpr(expr.Operand, precPostfix, depth)
	case *ast.ObjectLiteral:
		return formatObject(expr, depth)
	case *ast.ListLiteral:
		return formatList(expr, depth)
	case *ast.MemberExpr:
		obj := formatExpr(expr.Object, precPostfix, depth)
		if expr.Computed {
			return obj + "[" + formatExpr(expr.Property, precAssign, depth) + "]"
		}
		return obj + "." + formatBare(expr.Property, depth)
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a, precAssign, depth)
		}
		return formatExpr(expr.Callee, precPostfix, depth) + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

// quote renders a string literal using only the escapes the lexer accepts.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatProperty(p *ast.Property, depth int) string {
	if p.Value == nil {
		return p.Key
	}
	return p.Key + ": " + formatExpr(p.Value, precAssign, depth)
}

func formatObject(obj *ast.ObjectLiteral, depth int) string {
	if len(obj.Properties) == 0 {
		return "{}"
	}

	// Try inline first
	inlineParts := make([]string, len(obj.Properties))
	for i, p := range obj.Properties {
		inlineParts[i] = formatProperty(p, depth+1)
	}
	inline := "{" + strings.Join(inlineParts, ", ") + "}"
	if len(inline) <= maxInline && !strings.Contains(inline, "\n") {
		return inline
	}

	// Multi-line
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	parts := make([]string, len(obj.Properties))
	for i, p := range obj.Properties {
		parts[i] = inner + formatProperty(p, depth+1)
	}
	return "{\n" + strings.Join(parts, ",\n") + "\n" + outer + "}"
}

func formatList(list *ast.ListLiteral, depth int) string {
	if len(list.Elements) == 0 {
		return "[]"
	}

	// Try inline first
	inlineParts := make([]string, len(list.Elements))
	for i, e := range list.Elements {
		inlineParts[i] = formatExpr(e, precAssign, depth+1)
	}
	inline := "[" + strings.Join(inlineParts, ", ") + "]"
	if len(inline) <= maxInline && !strings.Contains(inline, "\n") {
		return inline
	}

	// Multi-line
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	parts := make([]string, len(list.Elements))
	for i, e := range list.Elements {
		parts[i] = inner + formatExpr(e, precAssign, depth+1)
	}
	return "[\n" + strings.Join(parts, ",\n") + "\n" + outer + "]"
}
