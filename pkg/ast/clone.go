package ast

// Clone returns a deep copy of a statement tree.
func Clone(s Stmt) Stmt {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *Program:
		return &Program{Span: n.Span, Body: CloneBody(n.Body)}
	case *Body:
		return CloneBody(n)
	case *VarDeclaration:
		return &VarDeclaration{Span: n.Span, Name: n.Name, Constant: n.Constant, Value: CloneExpr(n.Value)}
	case *FunctionDeclaration:
		params := make([]string, len(n.Params))
		copy(params, n.Params)
		return &FunctionDeclaration{Span: n.Span, Name: n.Name, Params: params, Body: CloneBody(n.Body)}
	case *Return:
		return &Return{Span: n.Span, Value: CloneExpr(n.Value)}
	case *If:
		return &If{Span: n.Span, Cond: CloneExpr(n.Cond), Then: CloneBody(n.Then), Else: CloneBody(n.Else)}
	case *While:
		return &While{Span: n.Span, Cond: CloneExpr(n.Cond), Body: CloneBody(n.Body)}
	case *For:
		v := *n.Var
		return &For{Span: n.Span, Var: &v, Iterable: CloneExpr(n.Iterable), Body: CloneBody(n.Body)}
	case Expr:
		return CloneExpr(n)
	}
	return s
}

// CloneBody returns a deep copy of b, or nil.
func CloneBody(b *Body) *Body {
	if b == nil {
		return nil
	}
	stmts := make([]Stmt, len(b.Statements))
	for i, s := range b.Statements {
		stmts[i] = Clone(s)
	}
	return &Body{Span: b.Span, Statements: stmts}
}

// CloneExpr returns a deep copy of an expression tree.
func CloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Identifier:
		c := *n
		return &c
	case *NumericLiteral:
		c := *n
		return &c
	case *StringLiteral:
		c := *n
		return &c
	case *BinaryExpr:
		return &BinaryExpr{Span: n.Span, Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *UnaryExpr:
		return &UnaryExpr{Span: n.Span, Operand: CloneExpr(n.Operand)}
	case *ComparativeExpr:
		return &ComparativeExpr{Span: n.Span, Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *AssignmentExpr:
		return &AssignmentExpr{Span: n.Span, Assignee: CloneExpr(n.Assignee), Value: CloneExpr(n.Value)}
	case *ObjectLiteral:
		props := make([]*Property, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = &Property{Span: p.Span, Key: p.Key, Value: CloneExpr(p.Value)}
		}
		return &ObjectLiteral{Span: n.Span, Properties: props}
	case *ListLiteral:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = CloneExpr(el)
		}
		return &ListLiteral{Span: n.Span, Elements: elems}
	case *MemberExpr:
		return &MemberExpr{Span: n.Span, Object: CloneExpr(n.Object), Property: CloneExpr(n.Property), Computed: n.Computed}
	case *CallExpr:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = CloneExpr(a)
		}
		return &CallExpr{Span: n.Span, Callee: CloneExpr(n.Callee), Args: args}
	}
	return e
}
