// Package tools provides the host-access modules (fs, http, sh) and binds
// them into the builtin registry behind the capability policy.
package tools

import (
	"context"
	"io"
	"log/slog"

	"github.com/rdni/interpreter/pkg/capabilities"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
	"github.com/rdni/interpreter/pkg/stdlib"
)

// Def represents a host-access function.
type Def struct {
	Module       string
	Name         string
	Mode         string // "read" or "effect"
	CapabilityID string
	Execute      func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error)
}

// FullName returns the module-qualified name, e.g. "fs.read".
func (d *Def) FullName() string {
	return d.Module + "." + d.Name
}

// Registry holds registered tools.
type Registry struct {
	tools map[string]*Def
	order []string
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Def),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Def) {
	name := tool.FullName()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = &tool
}

// All returns all registered tools in registration order.
func (r *Registry) All() []*Def {
	out := make([]*Def, len(r.order))
	for i, name := range r.order {
		out[i] = r.tools[name]
	}
	return out
}

// RegisterDefaults adds all built-in tools.
func RegisterDefaults(r *Registry) {
	r.Register(fsReadTool())
	r.Register(fsWriteTool())
	r.Register(fsListTool())
	r.Register(fsExistsTool())
	r.Register(httpGetTool())
	r.Register(shExecTool())
}

// Bind exposes every tool as a function on its module object in lib. The
// policy is checked on each call, so a denied function is still visible but
// calling it is fatal.
func Bind(lib *stdlib.Registry, r *Registry, policy *capabilities.Policy, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	modules := make(map[string]map[string]evaluator.NativeFunc)
	var order []string
	for _, def := range r.All() {
		if modules[def.Module] == nil {
			modules[def.Module] = make(map[string]evaluator.NativeFunc)
			order = append(order, def.Module)
		}
		modules[def.Module][def.Name] = gate(def, policy, logger)
	}
	for _, name := range order {
		lib.Register(name, stdlib.Module(name, modules[name]))
	}
}

func gate(def *Def, policy *capabilities.Policy, logger *slog.Logger) evaluator.NativeFunc {
	return func(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
		if !policy.IsAllowed(def.CapabilityID) {
			logger.Debug("capability denied", "tool", def.FullName(), "capability", def.CapabilityID)
			return nil, evaluator.Fatalf(diagnostics.ECapDenied,
				"%s requires capability '%s', which the policy does not allow", def.FullName(), def.CapabilityID)
		}
		logger.Debug("tool call", "tool", def.FullName(), "mode", def.Mode)
		return def.Execute(call.Ctx, args)
	}
}
