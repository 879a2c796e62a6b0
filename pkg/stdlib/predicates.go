package stdlib

import (
	"strings"

	"github.com/rdni/interpreter/pkg/evaluator"
)

// type(v) → the value's type tag
func stdlibType(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	return evaluator.NewString(string(args[0].Type())), nil
}

// contains(haystack, needle) → bool
//
// Strings test for a substring, lists for an equal element and objects for
// a key.
func stdlibContains(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	needle := args[1]

	switch in := args[0].(type) {
	case evaluator.String:
		s, ok := needle.(evaluator.String)
		if !ok {
			return evaluator.NewBool(false), nil
		}
		return evaluator.NewBool(strings.Contains(in.Value, s.Value)), nil

	case *evaluator.List:
		for _, item := range in.Items {
			if item.Type() == needle.Type() && item.Equals(needle) {
				return evaluator.NewBool(true), nil
			}
		}
		return evaluator.NewBool(false), nil

	case *evaluator.Object:
		s, ok := needle.(evaluator.String)
		if !ok {
			return evaluator.NewBool(false), nil
		}
		_, found := in.Get(s.Value)
		return evaluator.NewBool(found), nil
	}

	return nil, typeError(call, 0, "a string, list or object", args[0])
}
