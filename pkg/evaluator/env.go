package evaluator

import (
	"fmt"
	"sort"

	"github.com/rdni/interpreter/pkg/diagnostics"
)

// Env is one scope in the lexical scope chain. Closures keep their
// defining Env alive after the creating call returns.
type Env struct {
	bindings map[string]Value
	consts   map[string]bool
	parent   *Env
}

// Builtin is a named value installed as a constant in the root scope.
type Builtin struct {
	Name  string
	Value Value
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		consts:   make(map[string]bool),
		parent:   parent,
	}
}

// NewRootEnv creates a root scope holding null, true, false and the given
// builtins, all as constants.
func NewRootEnv(builtins []Builtin) *Env {
	env := NewEnv(nil)
	env.bindings["null"] = NewNull()
	env.bindings["true"] = NewBool(true)
	env.bindings["false"] = NewBool(false)
	for _, name := range []string{"null", "true", "false"} {
		env.consts[name] = true
	}
	for _, b := range builtins {
		env.bindings[b.Name] = b.Value
		env.consts[b.Name] = true
	}
	return env
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Declare binds name in this scope. Redeclaring a name that already exists
// in this same scope is an error; shadowing a parent binding is not.
func (e *Env) Declare(name string, val Value, constant bool) error {
	if _, exists := e.bindings[name]; exists {
		return &RuntimeError{
			Code:    diagnostics.ERedeclare,
			Message: fmt.Sprintf("cannot declare '%s': already declared in this scope", name),
		}
	}
	e.bindings[name] = val
	if constant {
		e.consts[name] = true
	}
	return nil
}

// Resolve returns the innermost scope that declares name, or nil.
func (e *Env) Resolve(name string) *Env {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.bindings[name]; ok {
			return cur
		}
	}
	return nil
}

// Lookup returns the value bound to name in the nearest declaring scope.
func (e *Env) Lookup(name string) (Value, error) {
	owner := e.Resolve(name)
	if owner == nil {
		return nil, unresolved(name)
	}
	return owner.bindings[name], nil
}

// Assign updates name in the scope that declared it. It never creates a
// binding.
func (e *Env) Assign(name string, val Value) (Value, error) {
	owner := e.Resolve(name)
	if owner == nil {
		return nil, unresolved(name)
	}
	if owner.consts[name] {
		return nil, &RuntimeError{
			Code:    diagnostics.EConstAssign,
			Message: fmt.Sprintf("cannot assign to '%s': it is a constant", name),
		}
	}
	owner.bindings[name] = val
	return val, nil
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	return e.Resolve(name) != nil
}

// Names returns every visible name, sorted.
func (e *Env) Names() []string {
	seen := make(map[string]bool)
	for cur := e; cur != nil; cur = cur.parent {
		for name := range cur.bindings {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unresolved(name string) error {
	return &RuntimeError{
		Code:    diagnostics.EUnbound,
		Message: fmt.Sprintf("cannot resolve '%s': it does not exist", name),
	}
}
