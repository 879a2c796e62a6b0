package stdlib

import (
	"math"
	"sort"
	"strings"

	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

// maxRange caps the number of items range may produce.
const maxRange = 1_000_000

// len(x) → length of a string (in characters), list or object
func stdlibLen(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *evaluator.List:
		return evaluator.NewNumber(float64(len(v.Items))), nil
	case *evaluator.Object:
		return evaluator.NewNumber(float64(v.Len())), nil
	case evaluator.String:
		return evaluator.NewNumber(float64(len([]rune(v.Value)))), nil
	}
	return nil, typeError(call, 0, "a string, list or object", args[0])
}

// append(list, v) → new list with v at the end
func stdlibAppend(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	list, err := listArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	newItems := make([]evaluator.Value, len(list.Items)+1)
	copy(newItems, list.Items)
	newItems[len(list.Items)] = args[1]
	return evaluator.NewList(newItems), nil
}

// concat(a, b) → new list
func stdlibConcat(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 2); err != nil {
		return nil, err
	}
	a, err := listArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	b, err := listArg(call, args, 1)
	if err != nil {
		return nil, err
	}
	newItems := make([]evaluator.Value, 0, len(a.Items)+len(b.Items))
	newItems = append(newItems, a.Items...)
	newItems = append(newItems, b.Items...)
	return evaluator.NewList(newItems), nil
}

// range(n) → [0, n); range(a, b) → [a, b)
func stdlibRange(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arityRange(call, args, 1, 2); err != nil {
		return nil, err
	}
	from, to := 0.0, 0.0
	var err error
	if len(args) == 1 {
		to, err = numberArg(call, args, 0)
	} else {
		from, err = numberArg(call, args, 0)
		if err == nil {
			to, err = numberArg(call, args, 1)
		}
	}
	if err != nil {
		return nil, err
	}
	if math.IsNaN(from) || math.IsNaN(to) || to <= from {
		return evaluator.NewList(nil), nil
	}
	if math.Ceil(to-from) > maxRange {
		return nil, evaluator.Fatalf(diagnostics.EBudget, "range too large: %s items", evaluator.FormatNumber(math.Ceil(to-from)))
	}

	items := make([]evaluator.Value, 0, int(math.Ceil(to-from)))
	for i := from; i < to; i++ {
		items = append(items, evaluator.NewNumber(i))
	}
	return evaluator.NewList(items), nil
}

// sort(list) → new list in ascending order; all numbers or all strings
func stdlibSort(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	list, err := listArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	sorted := make([]evaluator.Value, len(list.Items))
	copy(sorted, list.Items)
	if len(sorted) == 0 {
		return evaluator.NewList(sorted), nil
	}

	switch sorted[0].(type) {
	case evaluator.Number:
		for _, item := range sorted {
			if _, ok := item.(evaluator.Number); !ok {
				return nil, evaluator.Fatalf(diagnostics.EType, "sort: cannot mix number and %s", item.Type())
			}
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].(evaluator.Number).Value < sorted[j].(evaluator.Number).Value
		})
	case evaluator.String:
		for _, item := range sorted {
			if _, ok := item.(evaluator.String); !ok {
				return nil, evaluator.Fatalf(diagnostics.EType, "sort: cannot mix string and %s", item.Type())
			}
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].(evaluator.String).Value < sorted[j].(evaluator.String).Value
		})
	default:
		return nil, evaluator.Fatalf(diagnostics.EOrder, "sort: values of type %s cannot be ordered", sorted[0].Type())
	}
	return evaluator.NewList(sorted), nil
}

// join(list, sep?) → string of the items' string forms
func stdlibJoin(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arityRange(call, args, 1, 2); err != nil {
		return nil, err
	}
	list, err := listArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	sep := ""
	if len(args) == 2 {
		if sep, err = stringArg(call, args, 1); err != nil {
			return nil, err
		}
	}
	parts := make([]string, len(list.Items))
	for i, item := range list.Items {
		parts[i] = item.String()
	}
	return evaluator.NewString(strings.Join(parts, sep)), nil
}
