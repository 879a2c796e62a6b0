package stdlib

import (
	"math"

	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

func unaryMath(fn func(float64) float64) evaluator.NativeFunc {
	return func(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
		if err := arity(call, args, 1); err != nil {
			return nil, err
		}
		n, err := numberArg(call, args, 0)
		if err != nil {
			return nil, err
		}
		return evaluator.NewNumber(fn(n)), nil
	}
}

// pow(base, exp) → number
func stdlibPow(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	base, err := numberArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	exp, err := numberArg(call, args, 1)
	if err != nil {
		return nil, err
	}
	return evaluator.NewNumber(math.Pow(base, exp)), nil
}

// numbers returns the numbers of a non-empty list argument.
func numbers(call *evaluator.NativeCall, args []evaluator.Value) ([]float64, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	list, err := listArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return nil, evaluator.Fatalf(diagnostics.EType, "%s: list must not be empty", call.Name)
	}
	out := make([]float64, len(list.Items))
	for i, item := range list.Items {
		num, ok := item.(evaluator.Number)
		if !ok {
			return nil, evaluator.Fatalf(diagnostics.EType, "%s: all elements must be numbers", call.Name)
		}
		out[i] = num.Value
	}
	return out, nil
}

// max(list) → number
func stdlibMax(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers(call, args)
	if err != nil {
		return nil, err
	}
	max := math.Inf(-1)
	for _, n := range nums {
		if n > max {
			max = n
		}
	}
	return evaluator.NewNumber(max), nil
}

// min(list) → number
func stdlibMin(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers(call, args)
	if err != nil {
		return nil, err
	}
	min := math.Inf(1)
	for _, n := range nums {
		if n < min {
			min = n
		}
	}
	return evaluator.NewNumber(min), nil
}
