package stdlib

import (
	"strings"

	"github.com/rdni/interpreter/pkg/evaluator"
)

func stringMapper(fn func(string) string) evaluator.NativeFunc {
	return func(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
		if err := arity(call, args, 1); err != nil {
			return nil, err
		}
		s, err := stringArg(call, args, 0)
		if err != nil {
			return nil, err
		}
		return evaluator.NewString(fn(s)), nil
	}
}

var (
	stdlibUpper = stringMapper(strings.ToUpper)
	stdlibLower = stringMapper(strings.ToLower)
	stdlibTrim  = stringMapper(strings.TrimSpace)
)

// split(s, sep) → list of strings; an empty sep splits into characters
func stdlibSplit(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	s, err := stringArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	sep, err := stringArg(call, args, 1)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	items := make([]evaluator.Value, len(parts))
	for i, p := range parts {
		items[i] = evaluator.NewString(p)
	}
	return evaluator.NewList(items), nil
}

// replace(s, old, new) → string with every occurrence of old replaced
func stdlibReplace(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 3); err != nil {
		return nil, err
	}
	var strs [3]string
	for i := range strs {
		s, err := stringArg(call, args, i)
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}
	return evaluator.NewString(strings.ReplaceAll(strs[0], strs[1], strs[2])), nil
}
