// Command tl runs, checks and formats tl programs, and hosts the REPL.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rdni/interpreter/pkg/capabilities"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
	"github.com/rdni/interpreter/pkg/formatter"
	"github.com/rdni/interpreter/pkg/help"
	"github.com/rdni/interpreter/pkg/runtime"
)

const usage = `usage: tl [command] [options] [file]
commands: run, repl, check, fmt, trace, help, policy
run 'tl help' for the quick reference`

func main() {
	os.Exit(dispatch(os.Args[1:]))
}

func dispatch(args []string) int {
	if len(args) == 0 {
		return cmdRepl(nil)
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return cmdRun(args[1:])
	case "repl":
		return cmdRepl(args[1:])
	case "check":
		return cmdCheck(args[1:])
	case "fmt":
		return cmdFmt(args[1:])
	case "trace":
		return cmdTrace(args[1:])
	case "help", "--help", "-h":
		return cmdHelp(args[1:])
	case "policy":
		return cmdPolicy(args[1:])
	}
	if strings.HasSuffix(cmd, ".tl") || cmd == "-" {
		return cmdRun(args)
	}
	fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", cmd, usage)
	return 1
}

// options holds the flags shared by the subcommands. Each subcommand reads
// the ones it cares about.
type options struct {
	file      string
	pretty    bool
	debug     bool
	json      bool
	write     bool
	force     bool
	summary   bool
	unsafe    bool
	traceFile string
	outFile   string
	budget    evaluator.Budget
	rest      []string
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	value := func(i *int, flag string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--pretty":
			opts.pretty = true
		case "--debug":
			opts.debug = true
		case "--json":
			opts.json = true
		case "--write", "-w":
			opts.write = true
		case "--force":
			opts.force = true
		case "--summary":
			opts.summary = true
		case "--unsafe-allow-all":
			opts.unsafe = true
		case "--trace", "--out":
			v, err := value(&i, arg)
			if err != nil {
				return nil, err
			}
			if arg == "--trace" {
				opts.traceFile = v
			} else {
				opts.outFile = v
			}
		case "--max-steps":
			v, err := value(&i, arg)
			if err != nil {
				return nil, err
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("--max-steps: invalid value %q", v)
			}
			opts.budget.MaxSteps = n
		case "--max-depth":
			v, err := value(&i, arg)
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("--max-depth: invalid value %q", v)
			}
			opts.budget.MaxCallDepth = n
		case "--timeout":
			v, err := value(&i, arg)
			if err != nil {
				return nil, err
			}
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("--timeout: invalid duration %q", v)
			}
			opts.budget.Timeout = d
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return nil, fmt.Errorf("unknown flag: %s", arg)
			}
			if opts.file == "" {
				opts.file = arg
			} else {
				opts.rest = append(opts.rest, arg)
			}
		}
	}
	return opts, nil
}

// debugEnabled reports whether debug logging was requested by flag or by
// TL_DEBUG.
func debugEnabled(flag bool) bool {
	if flag {
		return true
	}
	v := os.Getenv("TL_DEBUG")
	return v != "" && v != "0" && v != "false"
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debugEnabled(debug) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadPolicy returns the effective capability policy for the working
// directory.
func loadPolicy(opts *options, logger *slog.Logger) (*capabilities.Policy, error) {
	if opts.unsafe {
		return capabilities.AllowAll(), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	policy, err := capabilities.LoadPolicy(cwd)
	if err != nil {
		return nil, err
	}
	logger.Debug("policy loaded", "source", policy.Source, "allow", policy.Allowed())
	return policy, nil
}

// newRuntime builds a runtime from the shared flags. extra options are
// applied last.
func newRuntime(opts *options, extra ...runtime.Option) (*runtime.Runtime, int) {
	logger := newLogger(opts.debug)
	policy, err := loadPolicy(opts, logger)
	if err != nil {
		printDiags([]diagnostics.Diagnostic{policyDiag(err)}, opts, "")
		return nil, runtime.ExitIO
	}
	rtOpts := []runtime.Option{
		runtime.WithPolicy(policy),
		runtime.WithBudget(opts.budget),
		runtime.WithLogger(logger),
		runtime.WithPrettyDiagnostics(opts.pretty),
	}
	return runtime.New(append(rtOpts, extra...)...), 0
}

func printDiags(diags []diagnostics.Diagnostic, opts *options, source string) {
	if len(diags) == 0 {
		return
	}
	if opts.json {
		fmt.Fprintln(os.Stderr, diagnostics.FormatJSON(diags))
		return
	}
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, opts.pretty, source))
}

// interruptContext is cancelled on Ctrl-C so a running program stops with
// E_CANCELLED instead of killing the process.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func cmdRun(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "usage: tl run <file> [--pretty] [--json] [--trace <path>] [--max-steps N] [--max-depth N] [--timeout DUR] [--unsafe-allow-all]")
		return 1
	}

	source, filename, code := readSource(opts.file, opts)
	if code != 0 {
		return code
	}

	var extra []runtime.Option
	if opts.traceFile != "" {
		sink, err := openTraceSink(opts.traceFile)
		if err != nil {
			printDiags([]diagnostics.Diagnostic{ioDiag(err)}, opts, "")
			return runtime.ExitIO
		}
		defer sink.Close()
		extra = append(extra, runtime.WithTrace(sink.Write), runtime.WithRunID(newRunID()))
	}

	rt, code := newRuntime(opts, extra...)
	if rt == nil {
		return code
	}

	ctx, cancel := interruptContext()
	defer cancel()
	result, execErr := rt.Run(ctx, source, filename)
	if execErr != nil {
		printDiags(runtime.ErrorDiagnostics(execErr), opts, source)
		return runtime.ExitCode(execErr)
	}

	if opts.json && result != nil && result.Value != nil {
		jsonBytes, err := evaluator.ValueToJSON(result.Value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error serializing result: %s\n", err)
			return runtime.ExitFatal
		}
		fmt.Println(string(jsonBytes))
	}
	return runtime.ExitOK
}

func cmdCheck(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "usage: tl check <file> [--pretty] [--json]")
		return 1
	}

	source, filename, code := readSource(opts.file, opts)
	if code != 0 {
		return code
	}

	rt, code := newRuntime(opts)
	if rt == nil {
		return code
	}
	diags := rt.Check(source, filename)

	if opts.json {
		fmt.Println(diagnostics.FormatJSON(diags))
	} else if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, opts.pretty, source))
	} else {
		fmt.Println("No errors found.")
	}
	return checkExitCode(diags)
}

// checkExitCode fails on anything but warnings.
func checkExitCode(diags []diagnostics.Diagnostic) int {
	for _, d := range diags {
		if d.Severity != diagnostics.SeverityWarning {
			return runtime.ExitSyntax
		}
	}
	return runtime.ExitOK
}

func cmdFmt(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "usage: tl fmt <file> [--write] [--force]")
		return 1
	}

	source, filename, code := readSource(opts.file, opts)
	if code != 0 {
		return code
	}

	rt := runtime.New(runtime.WithLogger(newLogger(opts.debug)))
	formatted, fmtErr := rt.Format(source, filename)
	if fmtErr != nil {
		printDiags(runtime.ErrorDiagnostics(fmtErr), opts, source)
		return runtime.ExitCode(fmtErr)
	}

	// Warn about comments
	if formatter.HasComments(source) {
		if opts.write && !opts.force {
			fmt.Fprintln(os.Stderr, "error: the formatter drops comments; rerun with --force to rewrite anyway")
			return 1
		}
		fmt.Fprintln(os.Stderr, "warning: comments are not preserved by the formatter")
	}

	if opts.write && opts.file != "-" {
		if formatted == source {
			return runtime.ExitOK
		}
		if err := os.WriteFile(opts.file, []byte(formatted), 0644); err != nil {
			printDiags([]diagnostics.Diagnostic{ioDiag(err)}, opts, "")
			return runtime.ExitIO
		}
		return runtime.ExitOK
	}
	// Format already ends with a newline.
	fmt.Print(formatted)
	return runtime.ExitOK
}

func cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		fmt.Print(help.StdlibIndex())
		return 0
	}
	if topic == "" {
		fmt.Print(help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(content)
	return 0
}

func cmdPolicy(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	policy, err := loadPolicy(opts, newLogger(opts.debug))
	if err != nil {
		printDiags([]diagnostics.Diagnostic{policyDiag(err)}, opts, "")
		return runtime.ExitIO
	}

	if opts.json {
		out := map[string]any{
			"source": policy.Source,
			"allow":  policy.Allowed(),
			"limits": policy.Limits,
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(b))
		return 0
	}

	source := policy.Source
	if source == "" {
		source = "default (deny all)"
	}
	fmt.Printf("# source: %s\n", source)
	b, err := yaml.Marshal(policy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(string(b))
	return 0
}

func ioDiag(err error) diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")
}

// policyDiag reports a policy file that could not be read or parsed.
func policyDiag(err error) diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "check "+capabilities.ProjectFile)
}

func readSource(file string, opts *options) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			printDiags([]diagnostics.Diagnostic{ioDiag(err)}, opts, "")
			return "", "", runtime.ExitIO
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		printDiags([]diagnostics.Diagnostic{diag}, opts, "")
		return "", "", runtime.ExitIO
	}
	return string(source), file, 0
}

func newRunID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
