// Package stdlib provides the builtin values bound in the root environment.
package stdlib

import (
	"sort"

	"github.com/rdni/interpreter/pkg/evaluator"
)

// Registry holds named builtin values.
type Registry struct {
	values map[string]evaluator.Value
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		values: make(map[string]evaluator.Value),
	}
}

// Register binds a builtin value under name, replacing any earlier one.
func (r *Registry) Register(name string, v evaluator.Value) {
	r.values[name] = v
}

// RegisterFunc registers a native function under its own name.
func (r *Registry) RegisterFunc(name string, fn evaluator.NativeFunc) {
	r.values[name] = evaluator.NewNative(name, fn)
}

// Get retrieves a builtin by name.
func (r *Registry) Get(name string) (evaluator.Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns the registry contents for evaluator.NewRootEnv.
func (r *Registry) Builtins() []evaluator.Builtin {
	names := r.Names()
	out := make([]evaluator.Builtin, len(names))
	for i, name := range names {
		out[i] = evaluator.Builtin{Name: name, Value: r.values[name]}
	}
	return out
}

// Module builds an object of native functions, named "module.fn" for
// diagnostics.
func Module(name string, fns map[string]evaluator.NativeFunc) *evaluator.Object {
	keys := make([]string, 0, len(fns))
	for k := range fns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := evaluator.NewObject(nil)
	for _, k := range keys {
		obj.Set(k, evaluator.NewNative(name+"."+k, fns[k]))
	}
	return obj
}
