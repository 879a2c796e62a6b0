package interpreter_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rdni/interpreter/internal/testutil"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/runtime"
)

// outcome is what the CLI would have printed and returned.
type outcome struct {
	stdout   string
	stderr   string
	exitCode int
	diags    []diagnostics.Diagnostic
}

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("listing scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			source, filename, err := testutil.ReadProgramFile(dir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			got := runScenario(t, scenario, source, filename)
			checkOutcome(t, scenario, got)
		})
	}
}

func runScenario(t *testing.T, scenario *testutil.Scenario, source, filename string) outcome {
	t.Helper()

	policy, err := scenario.Policy.Build()
	if err != nil {
		t.Fatalf("invalid scenario policy: %v", err)
	}
	pretty := testutil.HasFlag(scenario.Cmd, "--pretty")

	var stdout, stderr bytes.Buffer
	rt := runtime.New(
		runtime.WithStdout(&stdout),
		runtime.WithStderr(&stderr),
		runtime.WithStdin(strings.NewReader(scenario.Stdin)),
		runtime.WithPolicy(policy),
		runtime.WithPrettyDiagnostics(pretty),
		runtime.WithRunID("conformance"),
	)

	timeout := 10 * time.Second
	if scenario.TimeoutMs > 0 {
		timeout = time.Duration(scenario.TimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var out outcome
	switch scenario.Cmd[0] {
	case "run":
		_, runErr := rt.Run(ctx, source, filename)
		out.diags = runtime.ErrorDiagnostics(runErr)
		out.exitCode = runtime.ExitCode(runErr)
	case "check":
		out.diags = rt.Check(source, filename)
		for _, d := range out.diags {
			if d.Severity != diagnostics.SeverityWarning {
				out.exitCode = runtime.ExitSyntax
			}
		}
	case "fmt":
		formatted, fmtErr := rt.Format(source, filename)
		stdout.WriteString(formatted)
		out.diags = runtime.ErrorDiagnostics(fmtErr)
		out.exitCode = runtime.ExitCode(fmtErr)
	default:
		t.Skipf("unsupported command: %s", scenario.Cmd[0])
	}
	if len(out.diags) > 0 {
		fmt.Fprintln(&stderr, diagnostics.FormatDiagnostics(out.diags, pretty, source))
	}

	out.stdout = stdout.String()
	out.stderr = stderr.String()
	return out
}

func checkOutcome(t *testing.T, scenario *testutil.Scenario, got outcome) {
	t.Helper()
	want := scenario.Expect

	if got.exitCode != want.ExitCode {
		t.Errorf("exit code: got %d, want %d\nstderr:\n%s", got.exitCode, want.ExitCode, got.stderr)
	}
	if want.Stdout != nil && got.stdout != *want.Stdout {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", got.stdout, *want.Stdout)
	}
	for _, s := range want.StdoutContains {
		if !strings.Contains(got.stdout, s) {
			t.Errorf("stdout should contain %q, got: %s", s, got.stdout)
		}
	}
	for _, s := range want.StderrContains {
		if !strings.Contains(got.stderr, s) {
			t.Errorf("stderr should contain %q, got: %s", s, got.stderr)
		}
	}
	if want.StderrEmpty && got.stderr != "" {
		t.Errorf("stderr should be empty, got: %s", got.stderr)
	}

	for _, expected := range want.Diagnostics {
		if !hasDiag(got.diags, expected) {
			t.Errorf("diagnostic not found: %+v\ngot: %s", expected, diagnostics.FormatJSON(got.diags))
		}
	}
}

func hasDiag(diags []diagnostics.Diagnostic, want testutil.ExpectedDiag) bool {
	for _, d := range diags {
		if d.Code != want.Code {
			continue
		}
		if want.Severity != "" && string(d.Severity) != want.Severity {
			continue
		}
		if want.Line != 0 && (d.Span == nil || d.Span.StartLine != want.Line) {
			continue
		}
		return true
	}
	return false
}

// Every scenario directory must be loadable, so a typo in a YAML file
// fails loudly instead of being skipped.
func TestScenarioFilesParse(t *testing.T) {
	entries, err := os.ReadDir(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("reading scenarios: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(testutil.ScenariosDir, e.Name())
		if _, err := testutil.LoadScenario(dir); err != nil {
			t.Errorf("%s: %v", e.Name(), err)
		}
	}
}
