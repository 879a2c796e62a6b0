package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

// Budget holds the resource limits for a program execution. Zero fields
// mean unlimited.
type Budget struct {
	MaxSteps     int64
	MaxCallDepth int
	Timeout      time.Duration
}

// DefaultMaxCallDepth is the call depth limit the runtime applies when none
// is configured.
const DefaultMaxCallDepth = 10000

// Stats reports resource consumption after a run.
type Stats struct {
	Steps        int64         `json:"steps"`
	Calls        int64         `json:"calls"`
	BuiltinCalls int64         `json:"builtinCalls"`
	Iterations   int64         `json:"iterations"`
	MaxDepth     int           `json:"maxDepth"`
	Duration     time.Duration `json:"duration"`
}

// tick counts one executed statement and checks the step budget and
// cancellation.
func (ev *evaluator) tick(span ast.Span) error {
	ev.stats.Steps++
	if max := ev.opts.Budget.MaxSteps; max > 0 && ev.stats.Steps > max {
		return ev.budgetExceeded(span, fmt.Sprintf("step budget exceeded (max %d)", max))
	}
	return ev.checkContext(span)
}

func (ev *evaluator) checkContext(span ast.Span) error {
	err := ev.ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ev.budgetExceeded(span, fmt.Sprintf("time budget exceeded (%s)", ev.opts.Budget.Timeout))
	}
	return &RuntimeError{Code: diagnostics.ECancelled, Message: "execution cancelled", Span: &span}
}

func (ev *evaluator) checkDepth(span ast.Span) error {
	if max := ev.opts.Budget.MaxCallDepth; max > 0 && ev.depth >= max {
		return ev.budgetExceeded(span, fmt.Sprintf("call depth budget exceeded (max %d)", max))
	}
	return nil
}

func (ev *evaluator) budgetExceeded(span ast.Span, msg string) error {
	ev.logger.Debug("budget exceeded", "reason", msg, "steps", ev.stats.Steps, "depth", ev.depth)
	return &RuntimeError{Code: diagnostics.EBudget, Message: msg, Span: &span}
}
