// Package parser builds an AST from source text by recursive descent.
//
// Precedence, lowest to highest: assignment, comparison, object literal,
// additive, multiplicative, call/member, primary.
package parser

import (
	"fmt"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
	failed bool
}

// Parse tokenizes source and parses it into an AST.
//
// Structural errors are fatal: the returned Program is nil and the last
// diagnostic explains why. Missing statement semicolons only produce
// warnings, which are returned alongside a usable Program.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens}
	prog := p.parseProgram()
	if p.failed {
		return nil, p.diags
	}
	return prog, p.diags
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType, context string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s %s, got %s", tokenName(typ), context, tok), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	p.failed = true
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, ""))
}

func (p *parser) addWarning(msg string, span *ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeWarning(diagnostics.EMissingSemi, msg, span))
}

// endStatement consumes a statement-terminating semicolon. A missing one is
// only a warning, and none is needed before '}' or the end of input.
func (p *parser) endStatement(what string) {
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokEOF, lexer.TokRBrace:
	default:
		tok := p.current()
		p.addWarning(fmt.Sprintf("expected ';' after %s, got %s", what, tok), &tok.Span)
	}
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	prev := start
	if p.pos > 0 {
		prev = p.tokens[p.pos-1].Span
	}
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   prev.EndLine,
		EndCol:    prev.EndCol,
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokLBracket:
		return "'['"
	case lexer.TokRBracket:
		return "']'"
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokColon:
		return "':'"
	case lexer.TokComma:
		return "','"
	case lexer.TokSemicolon:
		return "';'"
	case lexer.TokEquals:
		return "'='"
	case lexer.TokIn:
		return "'in'"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

// --- Program and blocks ---

func (p *parser) parseProgram() *ast.Program {
	start := p.current().Span
	var stmts []ast.Stmt

	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if p.failed {
			return nil
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	span := p.spanFrom(start)
	return &ast.Program{
		Span: span,
		Body: &ast.Body{Span: span, Statements: stmts},
	}
}

func (p *parser) parseBody() *ast.Body {
	start, ok := p.expect(lexer.TokLBrace, "to open block")
	if !ok {
		return nil
	}

	var stmts []ast.Stmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if p.failed {
			return nil
		}
		if stmt == nil {
			break
		}
		stmts = append(stmts, stmt)
	}

	if _, ok := p.expect(lexer.TokRBrace, "to close block"); !ok {
		return nil
	}
	return &ast.Body{Span: p.spanFrom(start.Span), Statements: stmts}
}

// --- Statements ---

// parseStmt returns nil without failing when a bare ';' ends the current
// statement sequence.
func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokVar, lexer.TokConst:
		return nilIfFailed(p, p.parseVarDeclaration())
	case lexer.TokFunction:
		return nilIfFailed(p, p.parseFunctionDeclaration())
	case lexer.TokReturn:
		return nilIfFailed(p, p.parseReturn())
	case lexer.TokIf:
		return nilIfFailed(p, p.parseIf())
	case lexer.TokWhile:
		return nilIfFailed(p, p.parseWhile())
	case lexer.TokFor:
		return nilIfFailed(p, p.parseFor())
	case lexer.TokSemicolon:
		p.advance()
		if p.peek() != lexer.TokEOF && p.peek() != lexer.TokRBrace {
			return p.parseStmt()
		}
		return nil
	case lexer.TokLBrace:
		body := p.parseBody()
		if body == nil {
			return nil
		}
		return body
	}

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	p.endStatement("expression")
	return expr
}

// nilIfFailed keeps typed nil pointers from leaking into ast.Stmt.
func nilIfFailed[T ast.Stmt](p *parser, s T) ast.Stmt {
	if p.failed {
		return nil
	}
	return s
}

func (p *parser) parseVarDeclaration() *ast.VarDeclaration {
	kw := p.advance()
	constant := kw.Type == lexer.TokConst
	name, ok := p.expect(lexer.TokIdent, "after "+kw.Value)
	if !ok {
		return nil
	}

	if p.peek() == lexer.TokSemicolon {
		semi := p.advance()
		if constant {
			p.addError(fmt.Sprintf("constant '%s' must be initialized", name.Value), &semi.Span)
			return nil
		}
		return &ast.VarDeclaration{
			Span:  p.spanFrom(kw.Span),
			Name:  name.Value,
			Value: &ast.Identifier{Span: name.Span, Name: "null"},
		}
	}

	if _, ok := p.expect(lexer.TokEquals, "in variable declaration"); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	decl := &ast.VarDeclaration{
		Span:     p.spanFrom(kw.Span),
		Name:     name.Value,
		Constant: constant,
		Value:    value,
	}
	p.endStatement("variable declaration")
	return decl
}

func (p *parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	kw := p.advance()
	name, ok := p.expect(lexer.TokIdent, "after function")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen, "after function name"); !ok {
		return nil
	}

	var params []string
	for p.peek() != lexer.TokRParen {
		param, ok := p.expect(lexer.TokIdent, "in parameter list")
		if !ok {
			return nil
		}
		params = append(params, param.Value)
		if p.peek() != lexer.TokRParen {
			if _, ok := p.expect(lexer.TokComma, "between parameters"); !ok {
				return nil
			}
		}
	}
	p.advance() // )

	body := p.parseBody()
	if body == nil {
		return nil
	}
	return &ast.FunctionDeclaration{
		Span:   p.spanFrom(kw.Span),
		Name:   name.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseReturn() *ast.Return {
	kw := p.advance()
	var value ast.Expr
	if p.peek() != lexer.TokSemicolon {
		value = p.parseExpr()
		if value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after return value"); !ok {
		return nil
	}
	return &ast.Return{Span: p.spanFrom(kw.Span), Value: value}
}

func (p *parser) parseIf() *ast.If {
	kw := p.advance()
	cond := p.parseComparison()
	if cond == nil {
		return nil
	}
	then := p.parseBody()
	if then == nil {
		return nil
	}

	stmt := &ast.If{Cond: cond, Then: then}
	if p.peek() == lexer.TokElse {
		p.advance()
		switch p.peek() {
		case lexer.TokLBrace:
			stmt.Else = p.parseBody()
			if stmt.Else == nil {
				return nil
			}
		case lexer.TokIf:
			nested := p.parseIf()
			if nested == nil {
				return nil
			}
			stmt.Else = &ast.Body{Span: nested.Span, Statements: []ast.Stmt{nested}}
		default:
			tok := p.current()
			p.addError(fmt.Sprintf("expected '{' or 'if' after else, got %s", tok), &tok.Span)
			return nil
		}
	}
	stmt.Span = p.spanFrom(kw.Span)
	return stmt
}

func (p *parser) parseWhile() *ast.While {
	kw := p.advance()
	cond := p.parseComparison()
	if cond == nil {
		return nil
	}
	body := p.parseBody()
	if body == nil {
		return nil
	}
	return &ast.While{Span: p.spanFrom(kw.Span), Cond: cond, Body: body}
}

// parseFor accepts both "for x in xs { }" and "for (x in xs) { }".
func (p *parser) parseFor() *ast.For {
	kw := p.advance()
	parens := p.peek() == lexer.TokLParen && p.peekAt(1) == lexer.TokIdent && p.peekAt(2) == lexer.TokIn
	if parens {
		p.advance()
	}

	name, ok := p.expect(lexer.TokIdent, "after for")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokIn, "after loop variable"); !ok {
		return nil
	}
	iterable := p.parseComparison()
	if iterable == nil {
		return nil
	}
	if parens {
		if _, ok := p.expect(lexer.TokRParen, "after for clause"); !ok {
			return nil
		}
	}
	body := p.parseBody()
	if body == nil {
		return nil
	}
	return &ast.For{
		Span:     p.spanFrom(kw.Span),
		Var:      &ast.Identifier{Span: name.Span, Name: name.Value},
		Iterable: iterable,
		Body:     body,
	}
}
