package evaluator

import (
	"fmt"
	"sort"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

func (ev *evaluator) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumericLiteral:
		return NewNumber(e.Value), nil

	case *ast.StringLiteral:
		return NewString(e.Value), nil

	case *ast.Identifier:
		val, err := env.Lookup(e.Name)
		if err != nil {
			return nil, withSpan(err, e.Span)
		}
		return val, nil

	case *ast.UnaryExpr:
		operand, err := ev.evalExpr(e.Operand, env)
		if err != nil {
			return nil, err
		}
		return ev.binary(ast.OpSub, NewNumber(0), operand, e.Span), nil

	case *ast.BinaryExpr:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		return ev.binary(e.Op, left, right, e.Span), nil

	case *ast.ComparativeExpr:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		return ev.compare(e.Op, left, right, e.Span)

	case *ast.AssignmentExpr:
		return ev.evalAssignment(e, env)

	case *ast.ObjectLiteral:
		return ev.evalObject(e, env)

	case *ast.ListLiteral:
		items := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := ev.evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewList(items), nil

	case *ast.MemberExpr:
		return ev.evalMember(e, env)

	case *ast.CallExpr:
		return ev.evalCall(e, env)
	}

	span := expr.NodeSpan()
	return nil, &RuntimeError{
		Code:    diagnostics.EType,
		Message: "cannot evaluate " + expr.Kind(),
		Span:    &span,
	}
}

func (ev *evaluator) evalObject(e *ast.ObjectLiteral, env *Env) (Value, error) {
	obj := NewObject(nil)
	for _, prop := range e.Properties {
		var (
			val Value
			err error
		)
		if prop.Value == nil {
			val, err = env.Lookup(prop.Key)
			err = withSpan(err, prop.Span)
		} else {
			val, err = ev.evalExpr(prop.Value, env)
		}
		if err != nil {
			return nil, err
		}
		obj.Set(prop.Key, val)
	}
	return obj, nil
}

// propertyKey resolves the key of a member expression. Static access uses
// the identifier's name; computed access evaluates the expression.
func (ev *evaluator) propertyKey(e *ast.MemberExpr, env *Env) (Value, error) {
	if !e.Computed {
		id, ok := e.Property.(*ast.Identifier)
		if !ok {
			span := e.Property.NodeSpan()
			return nil, &RuntimeError{Code: diagnostics.EType, Message: "property name must be an identifier", Span: &span}
		}
		return NewString(id.Name), nil
	}
	return ev.evalExpr(e.Property, env)
}

func (ev *evaluator) evalMember(e *ast.MemberExpr, env *Env) (Value, error) {
	base, err := ev.evalExpr(e.Object, env)
	if err != nil {
		return nil, err
	}
	key, err := ev.propertyKey(e, env)
	if err != nil {
		return nil, err
	}

	switch b := base.(type) {
	case *Object:
		k, ok := key.(String)
		if !ok {
			return nil, fatalAt(e.Property, diagnostics.EType, "object key must be a string, got %s", key.Type())
		}
		val, ok := b.Get(k.Value)
		if !ok {
			return nil, fatalAt(e.Property, diagnostics.EKey, "object has no property '%s'", k.Value)
		}
		return val, nil

	case *List:
		if !e.Computed {
			return nil, fatalAt(e.Property, diagnostics.EType, "lists can only be indexed with [...]")
		}
		n, ok := key.(Number)
		if !ok {
			return nil, fatalAt(e.Property, diagnostics.EType, "list index must be a number, got %s", key.Type())
		}
		i, ok := b.Index(n.Value)
		if !ok {
			return nil, fatalAt(e.Property, diagnostics.EIndex, "list index %s out of range (length %d)", n, len(b.Items))
		}
		return b.Items[i], nil
	}

	return nil, fatalAt(e.Object, diagnostics.EType, "cannot access a member of %s", base.Type())
}

func (ev *evaluator) evalAssignment(e *ast.AssignmentExpr, env *Env) (Value, error) {
	switch target := e.Assignee.(type) {
	case *ast.Identifier:
		val, err := ev.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if _, err := env.Assign(target.Name, val); err != nil {
			return nil, withSpan(err, target.Span)
		}
		return val, nil

	case *ast.MemberExpr:
		return ev.assignMember(target, e.Value, env)
	}
	return nil, fatalAt(e.Assignee, diagnostics.EBadAssign, "invalid left-hand side in assignment")
}

// assignMember writes a property through the base identifier's binding:
// the bound value is cloned, the clone updated, and the clone rebound.
func (ev *evaluator) assignMember(target *ast.MemberExpr, valueExpr ast.Expr, env *Env) (Value, error) {
	root, ok := target.Object.(*ast.Identifier)
	if !ok {
		return nil, fatalAt(target.Object, diagnostics.EBadAssign, "member assignment must target a variable's property directly")
	}
	key, err := ev.propertyKey(target, env)
	if err != nil {
		return nil, err
	}
	val, err := ev.evalExpr(valueExpr, env)
	if err != nil {
		return nil, err
	}
	current, err := env.Lookup(root.Name)
	if err != nil {
		return nil, withSpan(err, root.Span)
	}

	var updated Value
	switch base := current.(type) {
	case *Object:
		k, ok := key.(String)
		if !ok {
			return nil, fatalAt(target.Property, diagnostics.EType, "object key must be a string, got %s", key.Type())
		}
		clone := base.Clone().(*Object)
		clone.Set(k.Value, val)
		updated = clone

	case *List:
		n, ok := key.(Number)
		if !ok || !target.Computed {
			return nil, fatalAt(target.Property, diagnostics.EType, "list index must be a number")
		}
		i, ok := base.Index(n.Value)
		if !ok {
			return nil, fatalAt(target.Property, diagnostics.EIndex, "list index %s out of range (length %d)", n, len(base.Items))
		}
		clone := base.Clone().(*List)
		clone.Items[i] = val
		updated = clone

	default:
		return nil, fatalAt(target.Object, diagnostics.EBadAssign, "cannot assign a property on %s", current.Type())
	}

	if _, err := env.Assign(root.Name, updated); err != nil {
		return nil, withSpan(err, root.Span)
	}
	return val, nil
}

func fatalAt(node ast.Node, code, format string, args ...any) error {
	span := node.NodeSpan()
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
