package stdlib

import (
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

// json.parse(s) → value
func stdlibJSONParse(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	s, err := stringArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	result, err := evaluator.ParseJSON([]byte(s))
	if err != nil {
		return nil, evaluator.Fatalf(diagnostics.EType, "json.parse: invalid JSON: %v", err)
	}
	return result, nil
}

// json.stringify(v) → string
func stdlibJSONStringify(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	b, err := evaluator.ValueToJSON(args[0])
	if err != nil {
		return nil, evaluator.Fatalf(diagnostics.EType, "json.stringify: %v", err)
	}
	return evaluator.NewString(string(b)), nil
}
