package tools

import (
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

func checkArgs(name string, args []evaluator.Value, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return evaluator.Fatalf(diagnostics.EArity, "%s expects %d argument(s), got %d", name, min, len(args))
		}
		return evaluator.Fatalf(diagnostics.EArity, "%s expects %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func stringParam(name string, args []evaluator.Value, i int, param string) (string, error) {
	s, ok := args[i].(evaluator.String)
	if !ok {
		return "", evaluator.Fatalf(diagnostics.EType, "%s requires '%s' to be a string, got %s", name, param, args[i].Type())
	}
	return s.Value, nil
}

func objectParam(name string, args []evaluator.Value, i int, param string) (*evaluator.Object, error) {
	if i >= len(args) {
		return evaluator.NewObject(nil), nil
	}
	o, ok := args[i].(*evaluator.Object)
	if !ok {
		return nil, evaluator.Fatalf(diagnostics.EType, "%s requires '%s' to be an object, got %s", name, param, args[i].Type())
	}
	return o, nil
}
