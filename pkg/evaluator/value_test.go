package evaluator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{evaluator.NewNull(), false},
		{evaluator.NewBool(false), false},
		{evaluator.NewBool(true), true},
		{evaluator.NewNumber(0), false},
		{evaluator.NewNumber(math.NaN()), false},
		{evaluator.NewNumber(1), true},
		{evaluator.NewNumber(-1), true},
		{evaluator.NewString(""), false},
		{evaluator.NewString("hello"), true},
		{evaluator.NewList(nil), true},
		{evaluator.NewObject(nil), true},
		{evaluator.NewNative("n", nil), true},
	}

	for i, tt := range tests {
		if got := tt.value.Truthy(); got != tt.expected {
			t.Errorf("test %d: Truthy(%v) = %v, want %v", i, tt.value, got, tt.expected)
		}
	}
}

func TestValueString(t *testing.T) {
	obj := evaluator.NewObject([]evaluator.KeyValue{
		{Key: "name", Value: evaluator.NewString("ada")},
		{Key: "inner", Value: evaluator.NewObject([]evaluator.KeyValue{
			{Key: "n", Value: evaluator.NewNumber(1)},
		})},
	})
	fn := &evaluator.Function{Name: "add", Params: []string{"a", "b"}}

	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.NewNull(), "null"},
		{evaluator.NewBool(true), "true"},
		{evaluator.NewNumber(3), "3"},
		{evaluator.NewNumber(-0.5), "-0.5"},
		{evaluator.NewNumber(1e21), "1e+21"},
		{evaluator.NewNumber(math.Inf(1)), "inf"},
		{evaluator.NewNumber(math.Inf(-1)), "-inf"},
		{evaluator.NewString("plain"), "plain"},
		{evaluator.NewList([]evaluator.Value{evaluator.NewString("a"), evaluator.NewNumber(2)}), `["a", 2]`},
		{evaluator.NewList(nil), "[]"},
		{evaluator.NewObject(nil), "{}"},
		{obj, "{\n    name: \"ada\"\n    inner: {\n        n: 1\n    }\n}"},
		{fn, "<function add(a, b)>"},
		{evaluator.NewNative("print", nil), "<native function print>"},
	}
	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestObjectOrderPreserved(t *testing.T) {
	obj := evaluator.NewObject([]evaluator.KeyValue{
		{Key: "b", Value: evaluator.NewNumber(2)},
		{Key: "a", Value: evaluator.NewNumber(1)},
		{Key: "c", Value: evaluator.NewNumber(3)},
	})

	keys := obj.Keys()
	expected := []string{"b", "a", "c"}
	for i, k := range keys {
		if k != expected[i] {
			t.Errorf("key %d: got %q, want %q", i, k, expected[i])
		}
	}
}

func TestObjectGetSet(t *testing.T) {
	obj := evaluator.NewObject([]evaluator.KeyValue{
		{Key: "x", Value: evaluator.NewNumber(10)},
	})

	val, ok := obj.Get("x")
	if !ok {
		t.Fatal("expected key 'x' to exist")
	}
	if n, isNum := val.(evaluator.Number); !isNum || n.Value != 10 {
		t.Errorf("got %v, want Number{10}", val)
	}
	if _, ok := obj.Get("missing"); ok {
		t.Error("expected key 'missing' to not exist")
	}

	obj.Set("y", evaluator.NewString("hello"))
	obj.Set("x", evaluator.NewNumber(11))
	if obj.Len() != 2 {
		t.Fatalf("len = %d, want 2", obj.Len())
	}
	val, _ = obj.Get("x")
	if n := val.(evaluator.Number); n.Value != 11 {
		t.Errorf("x = %v, want 11", n)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	inner := evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1)})
	obj := evaluator.NewObject([]evaluator.KeyValue{{Key: "l", Value: inner}})

	clone := obj.Clone().(*evaluator.Object)
	clone.Set("k", evaluator.NewBool(true))
	l, _ := clone.Get("l")
	l.(*evaluator.List).Items[0] = evaluator.NewNumber(9)

	if obj.Len() != 1 {
		t.Errorf("original gained a key")
	}
	if inner.Items[0].(evaluator.Number).Value != 1 {
		t.Errorf("original nested list was mutated")
	}
}

func TestEquality(t *testing.T) {
	native := evaluator.NewNative("n", nil)
	env := evaluator.NewEnv(nil)
	f1 := &evaluator.Function{Name: "f", Closure: env}
	f2 := &evaluator.Function{Name: "g", Closure: env}
	f3 := &evaluator.Function{Name: "f", Closure: evaluator.NewEnv(nil)}
	list := func(vs ...evaluator.Value) evaluator.Value { return evaluator.NewList(vs) }

	tests := []struct {
		a, b evaluator.Value
		want bool
	}{
		{evaluator.NewNull(), evaluator.NewNull(), true},
		{evaluator.NewNumber(1), evaluator.NewNumber(1), true},
		{evaluator.NewNumber(math.NaN()), evaluator.NewNumber(math.NaN()), false},
		{evaluator.NewString("a"), evaluator.NewString("a"), true},
		{evaluator.NewString("1"), evaluator.NewNumber(1), false},
		{list(evaluator.NewNumber(1)), list(evaluator.NewNumber(1)), true},
		{list(evaluator.NewNumber(1)), list(evaluator.NewString("1")), false},
		{native, native, true},
		{native, evaluator.NewNative("n", nil), false},
		{f1, f2, true},
		{f1, f3, false},
	}
	for i, tt := range tests {
		if got := tt.a.Equals(tt.b); got != tt.want {
			t.Errorf("test %d: %v == %v = %v, want %v", i, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestListIndex(t *testing.T) {
	l := evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1), evaluator.NewNumber(2), evaluator.NewNumber(3)})
	tests := []struct {
		n    float64
		want int
		ok   bool
	}{
		{0, 0, true},
		{2, 2, true},
		{2.7, 2, true},
		{-1, 2, true},
		{-0.5, 0, true},
		{3, 0, false},
		{-2, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{1e300, 0, false},
	}
	for _, tt := range tests {
		got, ok := l.Index(tt.n)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Index(%v) = %d, %v; want %d, %v", tt.n, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnvDeclareLookupAssign(t *testing.T) {
	root := evaluator.NewRootEnv(nil)
	if _, err := root.Assign("true", evaluator.NewBool(false)); err == nil {
		t.Fatal("true should be a constant root binding")
	}
	if err := root.Declare("x", evaluator.NewNumber(1), false); err != nil {
		t.Fatal(err)
	}
	child := root.Child()
	if child.Resolve("x") != root {
		t.Fatal("x should resolve to the root scope")
	}
	if _, err := child.Assign("x", evaluator.NewNumber(2)); err != nil {
		t.Fatal(err)
	}
	v, _ := root.Lookup("x")
	if v.(evaluator.Number).Value != 2 {
		t.Errorf("assign through child did not reach root")
	}
	if !child.Has("x") {
		t.Errorf("child should see the inherited binding")
	}
}

func TestEnvErrors(t *testing.T) {
	env := evaluator.NewEnv(nil)
	_ = env.Declare("c", evaluator.NewNumber(1), true)

	codeOf := func(err error) string {
		var re *evaluator.RuntimeError
		if !errors.As(err, &re) {
			return ""
		}
		return re.Code
	}

	if got := codeOf(env.Declare("c", evaluator.NewNull(), false)); got != diagnostics.ERedeclare {
		t.Errorf("redeclare code = %q", got)
	}
	if _, err := env.Assign("c", evaluator.NewNull()); codeOf(err) != diagnostics.EConstAssign {
		t.Errorf("const assign code = %q", codeOf(err))
	}
	if _, err := env.Assign("nope", evaluator.NewNull()); codeOf(err) != diagnostics.EUnbound {
		t.Errorf("assign unbound code = %q", codeOf(err))
	}
	if _, err := env.Lookup("nope"); codeOf(err) != diagnostics.EUnbound {
		t.Errorf("lookup unbound code = %q", codeOf(err))
	}
	if err := env.Child().Declare("c", evaluator.NewNull(), false); err != nil {
		t.Errorf("shadowing in a child scope should succeed: %v", err)
	}
}

func TestEnvNames(t *testing.T) {
	root := evaluator.NewRootEnv([]evaluator.Builtin{{Name: "print", Value: evaluator.NewNative("print", nil)}})
	child := root.Child()
	_ = child.Declare("a", evaluator.NewNull(), false)
	want := []string{"a", "false", "null", "print", "true"}
	got := child.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names = %v, want %v", got, want)
			break
		}
	}
}

func TestValueToJSON(t *testing.T) {
	obj := evaluator.NewObject([]evaluator.KeyValue{
		{Key: "z", Value: evaluator.NewNumber(1)},
		{Key: "a", Value: evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1.5), evaluator.NewBool(true), evaluator.NewNull()})},
		{Key: "s", Value: evaluator.NewString("x\"y")},
	})
	got := evaluator.ValueToJSONString(obj)
	want := `{"z":1,"a":[1.5,true,null],"s":"x\"y"}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	if _, err := evaluator.ValueToJSON(evaluator.NewNative("f", nil)); err == nil {
		t.Error("expected error encoding a native function")
	}
	if _, err := evaluator.ValueToJSON(evaluator.NewNumber(math.NaN())); err == nil {
		t.Error("expected error encoding NaN")
	}
}

func TestParseJSON(t *testing.T) {
	v, err := evaluator.ParseJSON([]byte(`{"b": [1, "two", null], "a": {"t": true}}`))
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := v.(*evaluator.Object)
	if !ok {
		t.Fatalf("expected Object, got %T", v)
	}
	if keys := obj.Keys(); keys[0] != "b" || keys[1] != "a" {
		t.Errorf("keys = %v, want document order", keys)
	}
	b, _ := obj.Get("b")
	if got := b.String(); got != `[1, "two", null]` {
		t.Errorf("b = %s", got)
	}

	for _, bad := range []string{``, `{`, `[1,]`, `1 2`, `{"a" 1}`} {
		if _, err := evaluator.ParseJSON([]byte(bad)); err == nil {
			t.Errorf("ParseJSON(%q) should fail", bad)
		}
	}
}
