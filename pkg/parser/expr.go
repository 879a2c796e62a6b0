package parser

import (
	"fmt"
	"strconv"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/lexer"
)

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment is right-associative. The target is whatever the
// comparison layer produced; the evaluator rejects invalid targets.
func (p *parser) parseAssignment() ast.Expr {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	if p.peek() != lexer.TokEquals {
		return left
	}
	p.advance()
	value := p.parseAssignment()
	if value == nil {
		return nil
	}
	return &ast.AssignmentExpr{
		Span:     p.spanFrom(left.NodeSpan()),
		Assignee: left,
		Value:    value,
	}
}

// comparisonOp composes a relational operator from the next one or two
// tokens. It returns the operator and the number of tokens it spans.
func (p *parser) comparisonOp() (ast.CompareOp, int) {
	first, second := p.peek(), p.peekAt(1)
	switch {
	case first == lexer.TokEquals && second == lexer.TokEquals:
		return ast.OpEq, 2
	case first == lexer.TokBang && second == lexer.TokEquals:
		return ast.OpNeq, 2
	case first == lexer.TokLt && second == lexer.TokEquals:
		return ast.OpLtEq, 2
	case first == lexer.TokGt && second == lexer.TokEquals:
		return ast.OpGtEq, 2
	case first == lexer.TokLt:
		return ast.OpLt, 1
	case first == lexer.TokGt:
		return ast.OpGt, 1
	}
	return "", 0
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseObject()
	if left == nil {
		return nil
	}
	for {
		op, n := p.comparisonOp()
		if n == 0 {
			return left
		}
		for i := 0; i < n; i++ {
			p.advance()
		}
		right := p.parseObject()
		if right == nil {
			return nil
		}
		left = &ast.ComparativeExpr{
			Span:  p.spanFrom(left.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

// parseObject parses an object literal when the next token is '{' and
// otherwise falls through to the additive layer.
func (p *parser) parseObject() ast.Expr {
	if p.peek() != lexer.TokLBrace {
		return p.parseAdditive()
	}
	start := p.advance()

	obj := &ast.ObjectLiteral{}
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		key, ok := p.expect(lexer.TokIdent, "as object key")
		if !ok {
			return nil
		}
		prop := &ast.Property{Span: key.Span, Key: key.Value}

		switch p.peek() {
		case lexer.TokComma:
			p.advance()
			obj.Properties = append(obj.Properties, prop)
			continue
		case lexer.TokRBrace:
			obj.Properties = append(obj.Properties, prop)
			continue
		}

		if _, ok := p.expect(lexer.TokColon, "after object key"); !ok {
			return nil
		}
		prop.Value = p.parseExpr()
		if prop.Value == nil {
			return nil
		}
		prop.Span = p.spanFrom(key.Span)
		obj.Properties = append(obj.Properties, prop)

		if p.peek() != lexer.TokRBrace {
			if _, ok := p.expect(lexer.TokComma, "between object properties"); !ok {
				return nil
			}
		}
	}

	if _, ok := p.expect(lexer.TokRBrace, "to close object literal"); !ok {
		return nil
	}
	obj.Span = p.spanFrom(start.Span)
	return obj
}

func (p *parser) atOperator(ops ...string) bool {
	tok := p.current()
	if tok.Type != lexer.TokBinaryOperator {
		return false
	}
	for _, op := range ops {
		if tok.Value == op {
			return true
		}
	}
	return false
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	for p.atOperator("+", "-") {
		op := p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFrom(left.NodeSpan()),
			Op:    ast.BinaryOp(op.Value),
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseCallMember()
	if left == nil {
		return nil
	}
	for p.atOperator("*", "/", "%") {
		op := p.advance()
		right := p.parseCallMember()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFrom(left.NodeSpan()),
			Op:    ast.BinaryOp(op.Value),
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseCallMember() ast.Expr {
	member := p.parseMember()
	if member == nil {
		return nil
	}
	if p.peek() == lexer.TokLParen {
		return p.parseCall(member)
	}
	return member
}

// parseCall wraps callee in nested CallExpr nodes so f()() chains.
func (p *parser) parseCall(callee ast.Expr) ast.Expr {
	var expr ast.Expr = callee
	for p.peek() == lexer.TokLParen {
		args, ok := p.parseArgs()
		if !ok {
			return nil
		}
		expr = &ast.CallExpr{
			Span:   p.spanFrom(callee.NodeSpan()),
			Callee: expr,
			Args:   args,
		}
	}
	return expr
}

func (p *parser) parseArgs() ([]ast.Expr, bool) {
	if _, ok := p.expect(lexer.TokLParen, "to open argument list"); !ok {
		return nil, false
	}
	var args []ast.Expr
	if p.peek() != lexer.TokRParen {
		for {
			arg := p.parseAssignment()
			if arg == nil {
				return nil, false
			}
			args = append(args, arg)
			if p.peek() != lexer.TokComma {
				break
			}
			p.advance()
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "to close argument list"); !ok {
		return nil, false
	}
	return args, true
}

// parseMember only starts a member chain from an identifier. The chain is
// left-leaning: a.b[c] is (a.b)[c].
func (p *parser) parseMember() ast.Expr {
	if p.peek() != lexer.TokIdent {
		return p.parsePrimary()
	}
	tok := p.advance()
	var expr ast.Expr = &ast.Identifier{Span: tok.Span, Name: tok.Value}

	for p.peek() == lexer.TokDot || p.peek() == lexer.TokLBracket {
		if p.advance().Type == lexer.TokDot {
			prop, ok := p.expect(lexer.TokIdent, "after '.'")
			if !ok {
				return nil
			}
			expr = &ast.MemberExpr{
				Span:     p.spanFrom(tok.Span),
				Object:   expr,
				Property: &ast.Identifier{Span: prop.Span, Name: prop.Value},
			}
			continue
		}
		index := p.parseExpr()
		if index == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRBracket, "to close index"); !ok {
			return nil
		}
		expr = &ast.MemberExpr{
			Span:     p.spanFrom(tok.Span),
			Object:   expr,
			Property: index,
			Computed: true,
		}
	}
	return expr
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()

	switch tok.Type {
	case lexer.TokIdent:
		p.advance()
		return &ast.Identifier{Span: tok.Span, Name: tok.Value}

	case lexer.TokNumber:
		p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid number literal '%s'", tok.Value), &tok.Span)
			return nil
		}
		return &ast.NumericLiteral{Span: tok.Span, Value: val}

	case lexer.TokString:
		p.advance()
		return &ast.StringLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokLParen:
		p.advance()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen, "to close parenthesized expression"); !ok {
			return nil
		}
		return inner

	case lexer.TokLBracket:
		return p.parseList()

	case lexer.TokBinaryOperator:
		if tok.Value == "-" {
			p.advance()
			operand := p.parseCallMember()
			if operand == nil {
				return nil
			}
			return &ast.UnaryExpr{Span: p.spanFrom(tok.Span), Operand: operand}
		}
	}

	p.addError(fmt.Sprintf("unexpected token %s", tok), &tok.Span)
	return nil
}

func (p *parser) parseList() ast.Expr {
	start := p.advance() // [
	list := &ast.ListLiteral{}
	for p.peek() != lexer.TokRBracket && p.peek() != lexer.TokEOF {
		el := p.parseExpr()
		if el == nil {
			return nil
		}
		list.Elements = append(list.Elements, el)
		if p.peek() != lexer.TokRBracket {
			if _, ok := p.expect(lexer.TokComma, "between list elements"); !ok {
				return nil
			}
		}
	}
	if _, ok := p.expect(lexer.TokRBracket, "to close list literal"); !ok {
		return nil
	}
	list.Span = p.spanFrom(start.Span)
	return list
}
