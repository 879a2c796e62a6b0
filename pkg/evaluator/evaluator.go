package evaluator

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart      TraceEventType = "run_start"
	TraceRunEnd        TraceEventType = "run_end"
	TraceCallStart     TraceEventType = "call_start"
	TraceCallEnd       TraceEventType = "call_end"
	TraceBuiltinCall   TraceEventType = "builtin_call"
	TraceLoopIter      TraceEventType = "loop_iter"
	TraceReportedError TraceEventType = "reported_error"
	TraceFatalError    TraceEventType = "fatal_error"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      *Object        `json:"data,omitempty"`
}

// Options configures program execution.
type Options struct {
	// Reporter receives reported (non-fatal) errors. Nil discards them.
	Reporter diagnostics.Reporter
	Trace    func(event TraceEvent)
	RunID    string
	Budget   Budget
	Logger   *slog.Logger
}

// Result holds the result of a program execution.
type Result struct {
	Value Value
	Stats Stats
}

// NativeCall is passed to every native function invocation.
type NativeCall struct {
	Ctx  context.Context
	Env  *Env
	Span ast.Span
	Name string
}

// control signals how a statement completed.
type control int

const (
	ctlNormal control = iota
	ctlReturn
)

type evaluator struct {
	ctx    context.Context
	opts   Options
	logger *slog.Logger
	stats  Stats
	depth  int
}

// Execute runs program against env. The program's top-level statements
// run directly in env, so a REPL can pass the same root scope to every
// call. The result is the value of the last top-level statement.
func Execute(ctx context.Context, program *ast.Program, env *Env, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Budget.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Budget.Timeout)
		defer cancel()
	}

	ev := &evaluator{ctx: ctx, opts: opts, logger: logger}
	start := time.Now()
	span := program.Span
	ev.emit(TraceRunStart, &span, nil)

	val, _, err := ev.execStatements(program.Body.Statements, env)

	ev.stats.Duration = time.Since(start)
	if err != nil {
		if re, ok := err.(*RuntimeError); ok {
			ev.emit(TraceFatalError, re.Span, map[string]Value{
				"code":    NewString(re.Code),
				"message": NewString(re.Message),
			})
		}
	}
	ev.emit(TraceRunEnd, &span, map[string]Value{
		"steps":      NewNumber(float64(ev.stats.Steps)),
		"calls":      NewNumber(float64(ev.stats.Calls)),
		"durationMs": NewNumber(float64(ev.stats.Duration.Microseconds()) / 1000),
	})
	logger.Debug("execution finished", "steps", ev.stats.Steps, "calls", ev.stats.Calls, "duration", ev.stats.Duration)

	if err != nil {
		return &Result{Stats: ev.stats}, err
	}
	return &Result{Value: val, Stats: ev.stats}, nil
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]Value) {
	if ev.opts.Trace == nil {
		return
	}
	var obj *Object
	if data != nil {
		obj = NewObject(nil)
		for _, k := range sortedKeys(data) {
			obj.Set(k, data[k])
		}
	}
	ev.opts.Trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.opts.RunID,
		Event:     event,
		Span:      span,
		Data:      obj,
	})
}

// report delivers a reported error and lets evaluation continue.
func (ev *evaluator) report(code, msg string, span ast.Span) {
	d := diagnostics.MakeError(code, msg, &span)
	if ev.opts.Reporter != nil {
		ev.opts.Reporter.Report(d)
	}
	ev.emit(TraceReportedError, &span, map[string]Value{
		"code":    NewString(code),
		"message": NewString(msg),
	})
}

// --- Statements ---

func (ev *evaluator) execStatements(stmts []ast.Stmt, env *Env) (Value, control, error) {
	var last Value = NewNull()
	for _, stmt := range stmts {
		val, ctl, err := ev.execStmt(stmt, env)
		if err != nil {
			return nil, ctlNormal, err
		}
		if ctl == ctlReturn {
			return val, ctlReturn, nil
		}
		last = val
	}
	return last, ctlNormal, nil
}

// execBody runs a block in a fresh child scope of env.
func (ev *evaluator) execBody(body *ast.Body, env *Env) (Value, control, error) {
	return ev.execStatements(body.Statements, env.Child())
}

func (ev *evaluator) execStmt(stmt ast.Stmt, env *Env) (Value, control, error) {
	span := stmt.NodeSpan()
	if err := ev.tick(span); err != nil {
		return nil, ctlNormal, err
	}

	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		var val Value = NewNull()
		if s.Value != nil {
			v, err := ev.evalExpr(s.Value, env)
			if err != nil {
				return nil, ctlNormal, err
			}
			val = v
		}
		if err := env.Declare(s.Name, val, s.Constant); err != nil {
			return nil, ctlNormal, withSpan(err, span)
		}
		return val, ctlNormal, nil

	case *ast.FunctionDeclaration:
		fn := &Function{Name: s.Name, Params: s.Params, Body: s.Body, Closure: env}
		if err := env.Declare(s.Name, fn, true); err != nil {
			return nil, ctlNormal, withSpan(err, span)
		}
		return NewNull(), ctlNormal, nil

	case *ast.Return:
		if ev.depth == 0 {
			return nil, ctlNormal, &RuntimeError{
				Code:    diagnostics.EReturnOutsideFn,
				Message: "return is only allowed inside a function",
				Span:    &span,
			}
		}
		var val Value = NewNull()
		if s.Value != nil {
			v, err := ev.evalExpr(s.Value, env)
			if err != nil {
				return nil, ctlNormal, err
			}
			val = v
		}
		return val, ctlReturn, nil

	case *ast.If:
		cond, err := ev.evalExpr(s.Cond, env)
		if err != nil {
			return nil, ctlNormal, err
		}
		branch := s.Then
		if !cond.Truthy() {
			branch = s.Else
		}
		if branch == nil {
			return NewNull(), ctlNormal, nil
		}
		val, ctl, err := ev.execBody(branch, env)
		if err != nil || ctl == ctlReturn {
			return val, ctl, err
		}
		return NewNull(), ctlNormal, nil

	case *ast.While:
		return ev.execWhile(s, env)

	case *ast.For:
		return ev.execFor(s, env)

	case *ast.Body:
		return ev.execBody(s, env)

	case ast.Expr:
		val, err := ev.evalExpr(s, env)
		return val, ctlNormal, err
	}

	return nil, ctlNormal, &RuntimeError{
		Code:    diagnostics.EType,
		Message: "cannot execute " + stmt.Kind(),
		Span:    &span,
	}
}

// execWhile evaluates the condition in env and each pass of the body in a
// fresh child scope.
func (ev *evaluator) execWhile(s *ast.While, env *Env) (Value, control, error) {
	var iterations int64
	for {
		if err := ev.checkContext(s.Span); err != nil {
			return nil, ctlNormal, err
		}
		cond, err := ev.evalExpr(s.Cond, env)
		if err != nil {
			return nil, ctlNormal, err
		}
		if !cond.Truthy() {
			break
		}
		iterations++
		ev.stats.Iterations++
		ev.emit(TraceLoopIter, &s.Span, map[string]Value{"iteration": NewNumber(float64(iterations))})
		val, ctl, err := ev.execBody(s.Body, env)
		if err != nil || ctl == ctlReturn {
			return val, ctl, err
		}
	}
	ev.logger.Debug("while finished", "iterations", iterations)
	return NewNull(), ctlNormal, nil
}

// execFor rebinds the loop variable in env, the scope enclosing the loop,
// and runs each pass of the body in a fresh child scope.
func (ev *evaluator) execFor(s *ast.For, env *Env) (Value, control, error) {
	iterable, err := ev.evalExpr(s.Iterable, env)
	if err != nil {
		return nil, ctlNormal, err
	}
	list, ok := iterable.(*List)
	if !ok {
		span := s.Iterable.NodeSpan()
		return nil, ctlNormal, &RuntimeError{
			Code:    diagnostics.EType,
			Message: "for loop requires a list, got " + string(iterable.Type()),
			Span:    &span,
		}
	}
	if len(list.Items) == 0 {
		return NewNull(), ctlNormal, nil
	}

	name := s.Var.Name
	if !env.Has(name) {
		if err := env.Declare(name, NewNull(), false); err != nil {
			return nil, ctlNormal, withSpan(err, s.Var.Span)
		}
	}

	for i, item := range list.Items {
		if err := ev.checkContext(s.Span); err != nil {
			return nil, ctlNormal, err
		}
		if _, err := env.Assign(name, item); err != nil {
			return nil, ctlNormal, withSpan(err, s.Var.Span)
		}
		ev.stats.Iterations++
		ev.emit(TraceLoopIter, &s.Span, map[string]Value{"iteration": NewNumber(float64(i + 1))})
		val, ctl, err := ev.execBody(s.Body, env)
		if err != nil || ctl == ctlReturn {
			return val, ctl, err
		}
	}
	ev.logger.Debug("for finished", "iterations", len(list.Items))
	return NewNull(), ctlNormal, nil
}
