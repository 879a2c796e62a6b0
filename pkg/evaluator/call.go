package evaluator

import (
	"fmt"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

func (ev *evaluator) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	callee, err := ev.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := ev.evalExpr(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return ev.callValue(callee, args, env, e.Span)
}

func (ev *evaluator) callValue(callee Value, args []Value, env *Env, span ast.Span) (Value, error) {
	switch fn := callee.(type) {
	case *NativeFunction:
		return ev.callNative(fn, args, env, span)
	case *Function:
		return ev.callFunction(fn, args, span)
	}
	return nil, &RuntimeError{
		Code:    diagnostics.ENotCallable,
		Message: fmt.Sprintf("cannot call a value of type %s", callee.Type()),
		Span:    &span,
	}
}

func (ev *evaluator) callNative(fn *NativeFunction, args []Value, env *Env, span ast.Span) (Value, error) {
	ev.stats.BuiltinCalls++
	ev.emit(TraceBuiltinCall, &span, map[string]Value{
		"name": NewString(fn.Name),
		"args": NewNumber(float64(len(args))),
	})

	val, err := fn.Fn(&NativeCall{Ctx: ev.ctx, Env: env, Span: span, Name: fn.Name}, args)
	if err != nil {
		switch e := err.(type) {
		case *RuntimeError:
			return nil, withSpan(e, span)
		case *ExitError:
			return nil, e
		}
		return nil, &RuntimeError{
			Code:    diagnostics.ETool,
			Message: fmt.Sprintf("%s: %s", fn.Name, err),
			Span:    &span,
		}
	}
	if val == nil {
		val = NewNull()
	}
	return val, nil
}

// callFunction runs a user function in a fresh scope whose parent is the
// function's captured environment.
func (ev *evaluator) callFunction(fn *Function, args []Value, span ast.Span) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", fn.Name, len(fn.Params), len(args)),
			Span:    &span,
		}
	}
	if err := ev.checkDepth(span); err != nil {
		return nil, err
	}

	callEnv := fn.Closure.Child()
	for i, param := range fn.Params {
		if err := callEnv.Declare(param, args[i], false); err != nil {
			return nil, withSpan(err, span)
		}
	}

	ev.stats.Calls++
	ev.depth++
	if ev.depth > ev.stats.MaxDepth {
		ev.stats.MaxDepth = ev.depth
	}
	ev.emit(TraceCallStart, &span, map[string]Value{
		"name":  NewString(fn.Name),
		"depth": NewNumber(float64(ev.depth)),
	})

	val, _, err := ev.execStatements(fn.Body.Statements, callEnv)

	ev.depth--
	if err != nil {
		return nil, err
	}
	ev.emit(TraceCallEnd, &span, map[string]Value{"name": NewString(fn.Name)})
	return val, nil
}

