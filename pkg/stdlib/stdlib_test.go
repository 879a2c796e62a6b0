package stdlib_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
	"github.com/rdni/interpreter/pkg/parser"
	"github.com/rdni/interpreter/pkg/stdlib"
)

// run executes src with the default builtins, returning the last value and
// everything written to stdout.
func run(t *testing.T, src, stdin string) (evaluator.Value, string, error) {
	t.Helper()
	prog, diags := parser.Parse(src, "test.tl")
	if prog == nil {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, false, src))
	}
	var out bytes.Buffer
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, stdlib.IO{Stdout: &out, Stdin: strings.NewReader(stdin)})
	env := evaluator.NewRootEnv(reg.Builtins())
	res, err := evaluator.Execute(context.Background(), prog, env, evaluator.Options{})
	if err != nil {
		return nil, out.String(), err
	}
	return res.Value, out.String(), nil
}

func mustEval(t *testing.T, src string) string {
	t.Helper()
	v, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", src, err)
	}
	return evaluator.Inspect(v)
}

func expectCode(t *testing.T, src, code string) {
	t.Helper()
	_, _, err := run(t, src, "")
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("%s: expected runtime error %s, got %v", src, code, err)
	}
	if re.Code != code {
		t.Errorf("%s: code = %s, want %s (%s)", src, re.Code, code, re.Message)
	}
}

func TestRegistry(t *testing.T) {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, stdlib.IO{})
	for _, name := range []string{"print", "time", "sleep", "input", "exit", "str", "int", "json", "len"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("missing builtin %q", name)
		}
	}
	names := reg.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	if len(reg.Builtins()) != len(names) {
		t.Errorf("Builtins and Names disagree")
	}
}

func TestPrint(t *testing.T) {
	_, out, err := run(t, `print("a", 1, [1, "b"], null); print();`, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "a 1 [1, \"b\"] null\n\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestPrintObject(t *testing.T) {
	_, out, err := run(t, `var o = {a: 1, b: {c: "x"}}; print(o);`, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    a: 1\n    b: {\n        c: \"x\"\n    }\n}\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestInput(t *testing.T) {
	v, out, err := run(t, `var a = input("name? "); var b = input(); var c = input(); [a, b, c];`, "ada\r\nlin\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != "name? " {
		t.Errorf("prompt = %q", out)
	}
	if got := v.String(); got != `["ada", "lin", null]` {
		t.Errorf("got %s", got)
	}
}

func TestStrAndInt(t *testing.T) {
	tests := []struct{ src, want string }{
		{`str(12);`, `"12"`},
		{`str([1, 2]);`, `"[1, 2]"`},
		{`str("x");`, `"x"`},
		{`int("42");`, "42"},
		{`int(" 2.5 ");`, "2.5"},
		{`int(7);`, "7"},
		{`int("4") + 1;`, "5"},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}
	expectCode(t, `int("abc");`, diagnostics.EType)
	expectCode(t, `int(null);`, diagnostics.EType)
	expectCode(t, `str();`, diagnostics.EArity)
}

func TestTimeAndSleep(t *testing.T) {
	v, _, err := run(t, "time();", "")
	if err != nil {
		t.Fatal(err)
	}
	now := float64(time.Now().Unix())
	if got := v.(evaluator.Number).Value; got < now-5 || got > now+5 {
		t.Errorf("time() = %v, want about %v", got, now)
	}

	start := time.Now()
	if _, _, err := run(t, "sleep(0.01);", ""); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Errorf("sleep returned too early")
	}
	expectCode(t, "sleep();", diagnostics.EArity)
	expectCode(t, "sleep(1, 2);", diagnostics.EArity)
	expectCode(t, `sleep("1");`, diagnostics.EType)
}

func TestSleepIsCancellable(t *testing.T) {
	prog, _ := parser.Parse("sleep(60);", "t.tl")
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, stdlib.IO{Stdout: &bytes.Buffer{}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := evaluator.Execute(ctx, prog, evaluator.NewRootEnv(reg.Builtins()), evaluator.Options{})
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.ECancelled {
		t.Fatalf("err = %v, want %s", err, diagnostics.ECancelled)
	}
}

func TestExit(t *testing.T) {
	_, out, err := run(t, `print("before"); exit(7); print("after");`, "")
	var exit *evaluator.ExitError
	if !errors.As(err, &exit) || exit.Code != 7 {
		t.Fatalf("err = %v, want exit 7", err)
	}
	if out != "before\n" {
		t.Errorf("stdout = %q", out)
	}
	_, _, err = run(t, "exit();", "")
	if !errors.As(err, &exit) || exit.Code != 0 {
		t.Fatalf("err = %v, want exit 0", err)
	}
}

func TestCollections(t *testing.T) {
	tests := []struct{ src, want string }{
		{`len("héllo");`, "5"},
		{`len([1, 2, 3]);`, "3"},
		{`len({a: 1});`, "1"},
		{`append([1], 2);`, "[1, 2]"},
		{`var l = [1]; append(l, 2); l;`, "[1]"},
		{`concat([1], [2, 3]);`, "[1, 2, 3]"},
		{`range(3);`, "[0, 1, 2]"},
		{`range(2, 5);`, "[2, 3, 4]"},
		{`range(5, 2);`, "[]"},
		{`sort([3, 1, 2]);`, "[1, 2, 3]"},
		{`sort(["b", "a"]);`, `["a", "b"]`},
		{`sort([]);`, "[]"},
		{`join([1, "a", true], "-");`, `"1-a-true"`},
		{`join(["a", "b"]);`, `"ab"`},
		{`keys({b: 1, a: 2});`, `["b", "a"]`},
		{`values({b: 1, a: 2});`, "[1, 2]"},
		{`has({a: 1}, "a");`, "true"},
		{`has({a: 1}, "b");`, "false"},
		{`var m = merge({a: 1, b: 2}, {b: 3, c: 4}); values(m);`, "[1, 3, 4]"},
		{`contains("hello", "ell");`, "true"},
		{`contains([1, "2"], 2);`, "false"},
		{`contains([1, [2]], [2]);`, "true"},
		{`contains({k: 1}, "k");`, "true"},
		{`type(1);`, `"number"`},
		{`type(print);`, `"native-function"`},
		{`function f() {} type(f);`, `"function"`},
		{`type({});`, `"object"`},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}
	expectCode(t, `sort([1, "a"]);`, diagnostics.EType)
	expectCode(t, `sort([{}, {}]);`, diagnostics.EOrder)
	expectCode(t, `range(10000000);`, diagnostics.EBudget)
	expectCode(t, `len(1);`, diagnostics.EType)
	expectCode(t, `keys([1]);`, diagnostics.EType)
	expectCode(t, `contains(1, 1);`, diagnostics.EType)
}

func TestStrings(t *testing.T) {
	tests := []struct{ src, want string }{
		{`upper("abc");`, `"ABC"`},
		{`lower("ABC");`, `"abc"`},
		{`trim("  x  ");`, `"x"`},
		{`split("a,b,c", ",");`, `["a", "b", "c"]`},
		{`split("ab", "");`, `["a", "b"]`},
		{`replace("a-b-c", "-", "+");`, `"a+b+c"`},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}
	expectCode(t, `upper(1);`, diagnostics.EType)
	expectCode(t, `replace("a", "b");`, diagnostics.EArity)
}

func TestMath(t *testing.T) {
	tests := []struct{ src, want string }{
		{`abs(-3);`, "3"},
		{`floor(2.7);`, "2"},
		{`ceil(2.1);`, "3"},
		{`round(2.5);`, "3"},
		{`sqrt(16);`, "4"},
		{`pow(2, 10);`, "1024"},
		{`min([3, 1, 2]);`, "1"},
		{`max([3, 1, 2]);`, "3"},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}
	expectCode(t, `max([]);`, diagnostics.EType)
	expectCode(t, `min([1, "a"]);`, diagnostics.EType)
}

func TestJSON(t *testing.T) {
	tests := []struct{ src, want string }{
		{`json.stringify({a: [1, 2], b: "x"});`, `"{\"a\":[1,2],\"b\":\"x\"}"`},
		{`var v = json.parse("{\"z\": 1, \"a\": [true, null]}"); keys(v);`, `["z", "a"]`},
		{`var v = json.parse("[1, 2]"); v[1];`, "2"},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}
	expectCode(t, `json.parse("{");`, diagnostics.EType)
	expectCode(t, `json.stringify(print);`, diagnostics.EType)
}

func TestBuiltinErrorSpan(t *testing.T) {
	_, _, err := run(t, "var x = 1;\nlen(x);", "")
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if re.Span == nil || re.Span.StartLine != 2 {
		t.Errorf("span = %+v, want line 2", re.Span)
	}
	if !strings.HasPrefix(re.Message, "len:") {
		t.Errorf("message = %q", re.Message)
	}
}
