package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a node as an indented tree, one node per line.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return strings.TrimRight(b.String(), "\n")
}

func dump(b *strings.Builder, n Node, depth int) {
	pad := strings.Repeat("  ", depth)
	line := func(format string, args ...any) {
		b.WriteString(pad)
		fmt.Fprintf(b, format, args...)
		b.WriteByte('\n')
	}
	child := func(label string, c Node) {
		if c == nil {
			return
		}
		b.WriteString(pad + "  " + label + ":\n")
		dump(b, c, depth+2)
	}

	switch v := n.(type) {
	case *Program:
		line("Program")
		dump(b, v.Body, depth+1)
	case *Body:
		line("Body (%d)", len(v.Statements))
		for _, s := range v.Statements {
			dump(b, s, depth+1)
		}
	case *VarDeclaration:
		kw := "var"
		if v.Constant {
			kw = "const"
		}
		line("VarDeclaration %s %s", kw, v.Name)
		child("value", v.Value)
	case *FunctionDeclaration:
		line("FunctionDeclaration %s(%s)", v.Name, strings.Join(v.Params, ", "))
		dump(b, v.Body, depth+1)
	case *Return:
		line("Return")
		child("value", v.Value)
	case *If:
		line("If")
		child("cond", v.Cond)
		child("then", v.Then)
		if v.Else != nil {
			child("else", v.Else)
		}
	case *While:
		line("While")
		child("cond", v.Cond)
		child("body", v.Body)
	case *For:
		line("For %s", v.Var.Name)
		child("in", v.Iterable)
		child("body", v.Body)
	case *Identifier:
		line("Identifier %s", v.Name)
	case *NumericLiteral:
		line("NumericLiteral %s", strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *StringLiteral:
		line("StringLiteral %q", v.Value)
	case *BinaryExpr:
		line("BinaryExpr %s", v.Op)
		dump(b, v.Left, depth+1)
		dump(b, v.Right, depth+1)
	case *UnaryExpr:
		line("UnaryExpr -")
		dump(b, v.Operand, depth+1)
	case *ComparativeExpr:
		line("ComparativeExpr %s", v.Op)
		dump(b, v.Left, depth+1)
		dump(b, v.Right, depth+1)
	case *AssignmentExpr:
		line("AssignmentExpr")
		child("target", v.Assignee)
		child("value", v.Value)
	case *ObjectLiteral:
		line("ObjectLiteral (%d)", len(v.Properties))
		for _, p := range v.Properties {
			if p.Value == nil {
				b.WriteString(pad + "  " + p.Key + " (shorthand)\n")
				continue
			}
			child(p.Key, p.Value)
		}
	case *ListLiteral:
		line("ListLiteral (%d)", len(v.Elements))
		for _, el := range v.Elements {
			dump(b, el, depth+1)
		}
	case *MemberExpr:
		if v.Computed {
			line("MemberExpr [computed]")
		} else {
			line("MemberExpr")
		}
		dump(b, v.Object, depth+1)
		dump(b, v.Property, depth+1)
	case *CallExpr:
		line("CallExpr (%d args)", len(v.Args))
		child("callee", v.Callee)
		for i, a := range v.Args {
			child(strconv.Itoa(i), a)
		}
	default:
		line("%T", n)
	}
}
