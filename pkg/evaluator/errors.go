package evaluator

import (
	"fmt"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

// RuntimeError is a fatal error raised while evaluating a program. It
// propagates to the driver, which aborts the run.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error for rendering.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

// Fatalf creates a RuntimeError. Native functions return it to abort with a
// specific code.
func Fatalf(code, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ExitError is returned by the exit builtin. The driver terminates the
// process with Code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// withSpan attaches span to err when it is a RuntimeError without one.
func withSpan(err error, span ast.Span) error {
	if re, ok := err.(*RuntimeError); ok && re.Span == nil {
		re.Span = &span
	}
	return err
}
