// Package runtime wires the tl pipeline together: parse, validate, format
// and evaluate against a root scope built from the standard library and the
// policy-gated host modules.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/capabilities"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
	"github.com/rdni/interpreter/pkg/formatter"
	"github.com/rdni/interpreter/pkg/parser"
	"github.com/rdni/interpreter/pkg/stdlib"
	"github.com/rdni/interpreter/pkg/tools"
	"github.com/rdni/interpreter/pkg/validator"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFatal      = 1
	ExitSyntax     = 2
	ExitCapability = 3
	ExitIO         = 4
)

// Result holds the outcome of a program execution.
type Result struct {
	Value evaluator.Value
	Stats evaluator.Stats
	// Warnings are the non-fatal parse diagnostics, already reported.
	Warnings []diagnostics.Diagnostic
}

// Runtime wires together all components for program execution.
type Runtime struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	policy *capabilities.Policy
	budget evaluator.Budget
	trace  func(event evaluator.TraceEvent)
	logger *slog.Logger
	runID  string
	pretty bool

	lib *stdlib.Registry
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets where print writes.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithStderr sets where reported errors and warnings are written.
func WithStderr(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stderr = w
	}
}

// WithStdin sets where input reads.
func WithStdin(r io.Reader) Option {
	return func(rt *Runtime) {
		rt.stdin = r
	}
}

// WithPolicy sets the capability policy.
func WithPolicy(p *capabilities.Policy) Option {
	return func(rt *Runtime) {
		rt.policy = p
	}
}

// WithUnsafeAllowAll sets the policy to allow all capabilities.
func WithUnsafeAllowAll() Option {
	return func(rt *Runtime) {
		rt.policy = capabilities.AllowAll()
	}
}

// WithBudget sets execution limits. Zero fields fall back to the policy's
// limits.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithPrettyDiagnostics renders reported errors with a source excerpt.
func WithPrettyDiagnostics(pretty bool) Option {
	return func(rt *Runtime) {
		rt.pretty = pretty
	}
}

// New creates a new Runtime with the given options.
// By default output goes to the process streams and the policy is deny-all.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
		policy: capabilities.DenyAll(),
		runID:  "tl",
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rt.policy == nil {
		rt.policy = capabilities.DenyAll()
	}

	rt.lib = stdlib.NewRegistry()
	stdlib.RegisterDefaults(rt.lib, stdlib.IO{Stdout: rt.stdout, Stdin: rt.stdin})

	toolsReg := tools.NewRegistry()
	tools.RegisterDefaults(toolsReg)
	tools.Bind(rt.lib, toolsReg, rt.policy, rt.logger)
	return rt
}

// Policy returns the capability policy in effect.
func (rt *Runtime) Policy() *capabilities.Policy {
	return rt.policy
}

// Budget returns the effective limits: explicit options first, then the
// policy's limits block. Call depth falls back to
// evaluator.DefaultMaxCallDepth.
func (rt *Runtime) Budget() evaluator.Budget {
	b := rt.budget
	limits := rt.policy.Limits
	if b.MaxSteps == 0 {
		b.MaxSteps = limits.MaxSteps
	}
	if b.MaxCallDepth == 0 {
		b.MaxCallDepth = limits.MaxCallDepth
	}
	if b.MaxCallDepth == 0 {
		b.MaxCallDepth = evaluator.DefaultMaxCallDepth
	}
	if b.Timeout == 0 {
		b.Timeout = limits.Timeout
	}
	return b
}

// Globals lists the names bound in every fresh root scope.
func (rt *Runtime) Globals() []string {
	return rt.lib.Names()
}

// NewRootEnv returns a fresh root scope holding the builtins and modules.
func (rt *Runtime) NewRootEnv() *evaluator.Env {
	return evaluator.NewRootEnv(rt.lib.Builtins())
}

// Parse parses source. Parse warnings are reported to stderr and returned;
// a fatal parse error is returned as a *DiagnosticError.
func (rt *Runtime) Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic, error) {
	start := time.Now()
	program, diags := parser.Parse(source, filename)
	rt.logger.Debug("parsed", "file", filename, "duration", time.Since(start), "diagnostics", len(diags))
	if program == nil || diagnostics.IsFatal(diags) {
		return nil, diags, &DiagnosticError{Diagnostics: diags}
	}
	reporter := rt.reporter(source)
	for _, d := range diags {
		reporter.Report(d)
	}
	return program, diags, nil
}

// Run parses and executes a program in a fresh root scope.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	return rt.eval(ctx, source, filename, rt.NewRootEnv())
}

func (rt *Runtime) eval(ctx context.Context, source, filename string, env *evaluator.Env) (*Result, error) {
	program, warnings, err := rt.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	return rt.Execute(ctx, program, source, env, warnings)
}

// Execute evaluates an already parsed program against env.
func (rt *Runtime) Execute(ctx context.Context, program *ast.Program, source string, env *evaluator.Env, warnings []diagnostics.Diagnostic) (*Result, error) {
	res, err := evaluator.Execute(ctx, program, env, evaluator.Options{
		Reporter: rt.reporter(source),
		Trace:    rt.trace,
		RunID:    rt.runID,
		Budget:   rt.Budget(),
		Logger:   rt.logger,
	})
	out := &Result{Warnings: warnings}
	if res != nil {
		out.Value = res.Value
		out.Stats = res.Stats
	}
	rt.logger.Debug("evaluated", "file", program.Span.File, "steps", out.Stats.Steps, "duration", out.Stats.Duration, "error", err != nil)
	return out, err
}

// Check parses and validates a program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if program == nil {
		return diags
	}
	return append(diags, validator.Validate(program, rt.Globals())...)
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if program == nil {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

func (rt *Runtime) reporter(source string) diagnostics.Reporter {
	return diagnostics.WriterReporter{W: rt.stderr, Pretty: rt.pretty, Source: source}
}

// Session evaluates successive inputs against one persistent root scope.
type Session struct {
	rt  *Runtime
	env *evaluator.Env
}

// NewSession starts a session with a fresh root scope.
func (rt *Runtime) NewSession() *Session {
	return &Session{rt: rt, env: rt.NewRootEnv()}
}

// Eval parses and runs source in the session scope. Declarations made before
// a fatal error stay in place.
func (s *Session) Eval(ctx context.Context, source, filename string) (*Result, error) {
	return s.rt.eval(ctx, source, filename, s.env)
}

// Execute runs an already parsed program in the session scope.
func (s *Session) Execute(ctx context.Context, program *ast.Program, source string) (*Result, error) {
	return s.rt.Execute(ctx, program, source, s.env, nil)
}

// Lookup resolves a name in the session scope.
func (s *Session) Lookup(name string) (evaluator.Value, bool) {
	v, err := s.env.Lookup(name)
	return v, err == nil
}

// Names lists every name visible in the session scope, sorted.
func (s *Session) Names() []string {
	return s.env.Names()
}

// Reset discards every binding made in the session.
func (s *Session) Reset() {
	s.env = s.rt.NewRootEnv()
}

// Runtime returns the runtime the session evaluates with.
func (s *Session) Runtime() *Runtime {
	return s.rt
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// ErrorDiagnostics returns the diagnostics describing err, or nil when err
// is nil or an exit request.
func ErrorDiagnostics(err error) []diagnostics.Diagnostic {
	var diagErr *DiagnosticError
	var rtErr *evaluator.RuntimeError
	var exitErr *evaluator.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
		return nil
	case errors.As(err, &diagErr):
		return diagErr.Diagnostics
	case errors.As(err, &rtErr):
		return []diagnostics.Diagnostic{rtErr.Diagnostic()}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ETool, err.Error(), nil, "")}
}

// ExitCode maps the error from Run or Eval to a process exit code.
func ExitCode(err error) int {
	var diagErr *DiagnosticError
	var rtErr *evaluator.RuntimeError
	var exitErr *evaluator.ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.As(err, &diagErr):
		return ExitSyntax
	case errors.As(err, &rtErr):
		switch rtErr.Code {
		case diagnostics.ECapDenied:
			return ExitCapability
		case diagnostics.EIO:
			return ExitIO
		}
	}
	return ExitFatal
}
