// Package lexer implements the tokenizer.
//
// Relational characters are emitted one token per character; the parser
// composes ==, <=, >= and != from adjacent tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokVar TokenType = iota
	TokConst
	TokFunction
	TokReturn
	TokIf
	TokElse
	TokWhile
	TokFor
	TokIn

	// Literals
	TokNumber
	TokString

	// Identifiers
	TokIdent

	// Punctuation
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokLParen    // (
	TokRParen    // )
	TokColon     // :
	TokComma     // ,
	TokDot       // .
	TokSemicolon // ;

	// Relational characters
	TokEquals // =
	TokBang   // !
	TokLt     // <
	TokGt     // >

	// + - * / %
	TokBinaryOperator

	// Special
	TokEOF
)

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

// String renders the token for error messages.
func (t Token) String() string {
	if t.Type == TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("'%s'", t.Value)
}

var keywords = map[string]TokenType{
	"var":      TokVar,
	"const":    TokConst,
	"function": TokFunction,
	"return":   TokReturn,
	"if":       TokIf,
	"else":     TokElse,
	"while":    TokWhile,
	"for":      TokFor,
	"in":       TokIn,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

var singles = map[byte]TokenType{
	'{': TokLBrace,
	'}': TokRBrace,
	'[': TokLBracket,
	']': TokRBracket,
	'(': TokLParen,
	')': TokRParen,
	':': TokColon,
	',': TokComma,
	'.': TokDot,
	';': TokSemicolon,
	'=': TokEquals,
	'!': TokBang,
	'<': TokLt,
	'>': TokGt,
	'+': TokBinaryOperator,
	'-': TokBinaryOperator,
	'*': TokBinaryOperator,
	'/': TokBinaryOperator,
	'%': TokBinaryOperator,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) advanceRune() rune {
	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	for i := 0; i < size; i++ {
		s.advance()
	}
	return r
}

func (s *scanner) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return r
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '/' && s.peekAt(1) == '/' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance()
			return Token{
				Type:  TokString,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, nil
		}
		if ch != '\\' {
			buf.WriteRune(s.advanceRune())
			continue
		}
		escLine, escCol := s.line, s.col
		s.advance()
		if s.atEnd() {
			return Token{}, s.lexError(escLine, escCol, "unterminated string escape")
		}
		esc := s.advance()
		switch esc {
		case '\\':
			buf.WriteByte('\\')
		case '"':
			buf.WriteByte('"')
		case '\'':
			buf.WriteByte('\'')
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		default:
			return Token{}, s.lexError(escLine, escCol, fmt.Sprintf("invalid escape sequence: \\%c", esc))
		}
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

// scanNumber consumes a greedy run of digits and dots. "1.2.3" is a single
// token; the parser rejects it when converting.
func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for !s.atEnd() && (isDigit(s.peek()) || s.peek() == '.') {
		s.advance()
	}
	return Token{
		Type:  TokNumber,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isIdentPart(s.peekRune()) {
		s.advanceRune()
	}

	text := s.source[startPos:s.pos]
	typ := TokIdent
	if kw, ok := keywords[text]; ok {
		typ = kw
	}
	return Token{
		Type:  typ,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors. Lex errors are always fatal.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type: TokEOF,
			Span: s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	if typ, ok := singles[ch]; ok {
		s.advance()
		return Token{Type: typ, Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	if isDigit(ch) {
		return s.scanNumber(), nil
	}

	if ch == '"' {
		return s.scanString()
	}

	if r := s.peekRune(); isIdentStart(r) {
		return s.scanIdentOrKeyword(), nil
	}

	r := s.advanceRune()
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character %q", r))
}

// Tokenize breaks source code into a slice of tokens ending in TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
