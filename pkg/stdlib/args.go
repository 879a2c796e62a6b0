package stdlib

import (
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

func arity(call *evaluator.NativeCall, args []evaluator.Value, n int) error {
	if len(args) != n {
		return evaluator.Fatalf(diagnostics.EArity, "%s expects %d argument(s), got %d", call.Name, n, len(args))
	}
	return nil
}

func arityRange(call *evaluator.NativeCall, args []evaluator.Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return evaluator.Fatalf(diagnostics.EArity, "%s expects %d to %d arguments, got %d", call.Name, min, max, len(args))
	}
	return nil
}

func typeError(call *evaluator.NativeCall, i int, want string, got evaluator.Value) error {
	return evaluator.Fatalf(diagnostics.EType, "%s: argument %d must be %s, got %s", call.Name, i+1, want, got.Type())
}

func numberArg(call *evaluator.NativeCall, args []evaluator.Value, i int) (float64, error) {
	n, ok := args[i].(evaluator.Number)
	if !ok {
		return 0, typeError(call, i, "a number", args[i])
	}
	return n.Value, nil
}

func stringArg(call *evaluator.NativeCall, args []evaluator.Value, i int) (string, error) {
	s, ok := args[i].(evaluator.String)
	if !ok {
		return "", typeError(call, i, "a string", args[i])
	}
	return s.Value, nil
}

func listArg(call *evaluator.NativeCall, args []evaluator.Value, i int) (*evaluator.List, error) {
	l, ok := args[i].(*evaluator.List)
	if !ok {
		return nil, typeError(call, i, "a list", args[i])
	}
	return l, nil
}

func objectArg(call *evaluator.NativeCall, args []evaluator.Value, i int) (*evaluator.Object, error) {
	o, ok := args[i].(*evaluator.Object)
	if !ok {
		return nil, typeError(call, i, "an object", args[i])
	}
	return o, nil
}
