// Package diagnostics defines the diagnostic vocabulary shared by the lexer,
// parser, validator and evaluator.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rdni/interpreter/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex             = "E_LEX"
	EParse           = "E_PARSE"
	EMissingSemi     = "E_MISSING_SEMI"
	EUnbound         = "E_UNBOUND"
	ERedeclare       = "E_REDECLARE"
	EConstAssign     = "E_CONST_ASSIGN"
	EArity           = "E_ARITY"
	EType            = "E_TYPE"
	EIndex           = "E_INDEX"
	EKey             = "E_KEY"
	ENotCallable     = "E_NOT_CALLABLE"
	EBadAssign       = "E_BAD_ASSIGN"
	EReturnOutsideFn = "E_RETURN_OUTSIDE_FN"
	EOrder           = "E_ORDER"
	EStringOp        = "E_STRING_OP"
	EBudget          = "E_BUDGET"
	ECapDenied       = "E_CAP_DENIED"
	ETool            = "E_TOOL"
	EIO              = "E_IO"
	ECancelled       = "E_CANCELLED"
)

// Severity classifies how a diagnostic affects execution.
type Severity string

const (
	// SeverityWarning is informational; evaluation is unaffected.
	SeverityWarning Severity = "warning"
	// SeverityError is a reported error: it is printed and a default value
	// takes the place of the failed operation.
	SeverityError Severity = "error"
	// SeverityFatal aborts the run.
	SeverityFatal Severity = "fatal"
)

// Prefix returns the user-facing line prefix for the severity.
func (s Severity) Prefix() string {
	switch s {
	case SeverityFatal:
		return "FATAL ERROR:"
	case SeverityWarning:
		return "WARNING:"
	default:
		return "ERROR:"
	}
}

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Span     *ast.Span `json:"span,omitempty"`
	Hint     string    `json:"hint,omitempty"`
}

// MakeDiag creates a new fatal Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityFatal,
		Message:  message,
		Span:     span,
		Hint:     hint,
	}
}

// MakeWarning creates a Diagnostic with warning severity.
func MakeWarning(code, message string, span *ast.Span) Diagnostic {
	d := MakeDiag(code, message, span, "")
	d.Severity = SeverityWarning
	return d
}

// MakeError creates a Diagnostic with reported-error severity.
func MakeError(code, message string, span *ast.Span) Diagnostic {
	d := MakeDiag(code, message, span, "")
	d.Severity = SeverityError
	return d
}

// IsFatal reports whether any diagnostic in the slice is fatal.
func IsFatal(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Location renders the span as file:line:col.
func (d Diagnostic) Location() string {
	if d.Span == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
}

// FormatDiagnostic formats a single diagnostic for display.
//
// The plain form is "PREFIX CODE: message (file:line:col)". The pretty form
// adds a source excerpt with a caret when source is non-empty.
func FormatDiagnostic(d Diagnostic, pretty bool, source string) string {
	out := fmt.Sprintf("%s %s: %s", d.Severity.Prefix(), d.Code, d.Message)
	if d.Span != nil {
		out += " (" + d.Location() + ")"
	}
	if !pretty {
		return out
	}
	if excerpt := sourceExcerpt(source, d.Span); excerpt != "" {
		out += "\n" + excerpt
	}
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

func sourceExcerpt(source string, span *ast.Span) string {
	if source == "" || span == nil || span.StartLine < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if span.StartLine > len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[span.StartLine-1], "\r")
	gutter := fmt.Sprintf("%4d | ", span.StartLine)
	col := span.StartCol
	if col < 1 {
		col = 1
	}
	caret := strings.Repeat(" ", len(gutter)+col-1) + "^"
	return gutter + line + "\n" + caret
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool, source string) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, pretty, source)
	}
	sep := "\n"
	if pretty {
		sep = "\n\n"
	}
	return strings.Join(parts, sep)
}

// FormatJSON renders diagnostics as a JSON array.
func FormatJSON(diags []Diagnostic) string {
	if diags == nil {
		diags = []Diagnostic{}
	}
	b, _ := json.Marshal(diags)
	return string(b)
}

// Reporter receives reported (non-fatal) errors and warnings while a program
// keeps running.
type Reporter interface {
	Report(d Diagnostic)
}

// WriterReporter prints each diagnostic on its own line. With Pretty set,
// each one carries a source excerpt taken from Source.
type WriterReporter struct {
	W      io.Writer
	Pretty bool
	Source string
}

// Report writes d.
func (r WriterReporter) Report(d Diagnostic) {
	fmt.Fprintln(r.W, FormatDiagnostic(d, r.Pretty, r.Source))
}

// Collector accumulates diagnostics in memory.
type Collector struct {
	Diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.Diags = append(c.Diags, d)
}
