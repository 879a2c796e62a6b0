// Package validator implements static checks over a parsed program.
package validator

import (
	"fmt"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

type scope struct {
	bindings map[string]bool // name → constant
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) lookup(name string) (constant, found bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if c, ok := cur.bindings[name]; ok {
			return c, true
		}
	}
	return false, false
}

func (s *scope) hasLocal(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// pendingFn is a function body whose check is deferred until its enclosing
// block is complete, so calls to functions declared later in that block
// resolve.
type pendingFn struct {
	decl  *ast.FunctionDeclaration
	scope *scope
}

type validator struct {
	diags   []diagnostics.Diagnostic
	fnDepth int
}

// Validate checks program without executing it. globals are the names bound
// in the root environment besides null, true and false; they are treated as
// constants.
func Validate(program *ast.Program, globals []string) []diagnostics.Diagnostic {
	root := newScope(nil)
	for _, name := range []string{"null", "true", "false"} {
		root.bindings[name] = true
	}
	for _, name := range globals {
		root.bindings[name] = true
	}

	v := &validator{}
	v.validateBlock(program.Body.Statements, root)
	return v.diags
}

func (v *validator) addError(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeError(code, msg, &span))
}

func (v *validator) addWarning(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeWarning(code, msg, &span))
}

func (v *validator) declare(s *scope, name string, constant bool, span ast.Span) {
	if s.hasLocal(name) {
		v.addError(diagnostics.ERedeclare, fmt.Sprintf("cannot declare '%s': already declared in this scope", name), span)
		return
	}
	s.bindings[name] = constant
}

// validateBlock checks stmts in s, then the bodies of functions declared
// directly in it.
func (v *validator) validateBlock(stmts []ast.Stmt, s *scope) {
	var pending []pendingFn
	for _, stmt := range stmts {
		v.validateStmt(stmt, s, &pending)
	}
	for _, p := range pending {
		v.validateFunction(p.decl, p.scope)
	}
}

func (v *validator) validateFunction(fn *ast.FunctionDeclaration, s *scope) {
	fnScope := newScope(s)
	for _, param := range fn.Params {
		v.declare(fnScope, param, false, fn.Span)
	}
	v.fnDepth++
	v.validateBlock(fn.Body.Statements, fnScope)
	v.fnDepth--
}

func (v *validator) validateStmt(stmt ast.Stmt, s *scope, pending *[]pendingFn) {
	switch st := stmt.(type) {
	case *ast.VarDeclaration:
		if st.Value != nil {
			v.validateExpr(st.Value, s)
		}
		v.declare(s, st.Name, st.Constant, st.Span)

	case *ast.FunctionDeclaration:
		v.declare(s, st.Name, true, st.Span)
		*pending = append(*pending, pendingFn{decl: st, scope: s})

	case *ast.Return:
		if v.fnDepth == 0 {
			v.addError(diagnostics.EReturnOutsideFn, "return is only allowed inside a function", st.Span)
		}
		if st.Value != nil {
			v.validateExpr(st.Value, s)
		}

	case *ast.If:
		v.validateExpr(st.Cond, s)
		v.validateBlock(st.Then.Statements, newScope(s))
		if st.Else != nil {
			v.validateBlock(st.Else.Statements, newScope(s))
		}

	case *ast.While:
		v.validateExpr(st.Cond, s)
		v.validateBlock(st.Body.Statements, newScope(s))

	case *ast.For:
		v.validateExpr(st.Iterable, s)
		if constant, found := s.lookup(st.Var.Name); !found {
			s.bindings[st.Var.Name] = false
		} else if constant {
			v.addError(diagnostics.EConstAssign,
				fmt.Sprintf("cannot assign to '%s': it is a constant", st.Var.Name), st.Var.Span)
		}
		v.validateBlock(st.Body.Statements, newScope(s))

	case *ast.Body:
		v.validateBlock(st.Statements, newScope(s))

	case ast.Expr:
		v.validateExpr(st, s)
	}
}

func (v *validator) validateExpr(expr ast.Expr, s *scope) {
	switch e := expr.(type) {
	case *ast.Identifier:
		v.checkBound(e.Name, e.Span, s)

	case *ast.NumericLiteral, *ast.StringLiteral:

	case *ast.UnaryExpr:
		v.validateExpr(e.Operand, s)

	case *ast.BinaryExpr:
		v.validateExpr(e.Left, s)
		v.validateExpr(e.Right, s)

	case *ast.ComparativeExpr:
		v.validateExpr(e.Left, s)
		v.validateExpr(e.Right, s)

	case *ast.AssignmentExpr:
		v.validateAssignment(e, s)

	case *ast.ObjectLiteral:
		for _, prop := range e.Properties {
			if prop.Value == nil {
				v.checkBound(prop.Key, prop.Span, s)
				continue
			}
			v.validateExpr(prop.Value, s)
		}

	case *ast.ListLiteral:
		for _, el := range e.Elements {
			v.validateExpr(el, s)
		}

	case *ast.MemberExpr:
		v.validateExpr(e.Object, s)
		if e.Computed {
			v.validateExpr(e.Property, s)
		}

	case *ast.CallExpr:
		v.validateExpr(e.Callee, s)
		for _, arg := range e.Args {
			v.validateExpr(arg, s)
		}
	}
}

func (v *validator) validateAssignment(e *ast.AssignmentExpr, s *scope) {
	v.validateExpr(e.Value, s)

	var root *ast.Identifier
	switch target := e.Assignee.(type) {
	case *ast.Identifier:
		root = target
	case *ast.MemberExpr:
		id, ok := target.Object.(*ast.Identifier)
		if !ok {
			v.addError(diagnostics.EBadAssign, "member assignment must target a variable's property directly", target.Span)
			v.validateExpr(target, s)
			return
		}
		if target.Computed {
			v.validateExpr(target.Property, s)
		}
		root = id
	default:
		v.addError(diagnostics.EBadAssign, "invalid left-hand side in assignment", e.Assignee.NodeSpan())
		return
	}

	constant, found := s.lookup(root.Name)
	if !found {
		v.checkBound(root.Name, root.Span, s)
		return
	}
	if constant {
		v.addError(diagnostics.EConstAssign, fmt.Sprintf("cannot assign to '%s': it is a constant", root.Name), root.Span)
	}
}

func (v *validator) checkBound(name string, span ast.Span, s *scope) {
	if _, found := s.lookup(name); !found {
		v.addWarning(diagnostics.EUnbound, fmt.Sprintf("'%s' is not declared in any enclosing scope", name), span)
	}
}
