package stdlib

import (
	"github.com/rdni/interpreter/pkg/evaluator"
)

// keys(obj) → list of strings in insertion order
func stdlibKeys(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	obj, err := objectArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	items := make([]evaluator.Value, len(obj.Pairs))
	for i, kv := range obj.Pairs {
		items[i] = evaluator.NewString(kv.Key)
	}
	return evaluator.NewList(items), nil
}

// values(obj) → list
func stdlibValues(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	obj, err := objectArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	items := make([]evaluator.Value, len(obj.Pairs))
	for i, kv := range obj.Pairs {
		items[i] = kv.Value
	}
	return evaluator.NewList(items), nil
}

// has(obj, key) → bool
func stdlibHas(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	obj, err := objectArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	key, err := stringArg(call, args, 1)
	if err != nil {
		return nil, err
	}
	_, found := obj.Get(key)
	return evaluator.NewBool(found), nil
}

// merge(a, b) → new object (b wins on conflicts)
func stdlibMerge(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	a, err := objectArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	b, err := objectArg(call, args, 1)
	if err != nil {
		return nil, err
	}

	result := evaluator.NewObject(a.Pairs)
	for _, kv := range b.Pairs {
		result.Set(kv.Key, kv.Value)
	}
	return result, nil
}
