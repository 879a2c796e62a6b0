// Package evaluator implements the value model, the scope chain and the
// tree-walking evaluator.
package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/rdni/interpreter/pkg/ast"
)

// ValueType is the runtime type tag of a Value.
type ValueType string

const (
	TypeNull           ValueType = "null"
	TypeBoolean        ValueType = "boolean"
	TypeNumber         ValueType = "number"
	TypeString         ValueType = "string"
	TypeObject         ValueType = "object"
	TypeList           ValueType = "list"
	TypeNativeFunction ValueType = "native-function"
	TypeFunction       ValueType = "function"
)

// Value is the interface for all runtime values.
//
// Values are never mutated after they become reachable from an environment;
// Object and List updates go through Clone and rebind the whole value.
type Value interface {
	Type() ValueType
	String() string
	Truthy() bool
	Equals(other Value) bool
	Clone() Value
}

// Null represents the null value.
type Null struct{}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

// Number represents a 64-bit float.
type Number struct {
	Value float64
}

// String represents a text value.
type String struct {
	Value string
}

// KeyValue is a key-value pair in an ordered Object.
type KeyValue struct {
	Key   string
	Value Value
}

// Object is a string-keyed map that preserves insertion order.
type Object struct {
	Pairs []KeyValue
	index map[string]int
}

// List is an ordered sequence of values.
type List struct {
	Items []Value
}

// NativeFunc is the host implementation behind a NativeFunction.
type NativeFunc func(call *NativeCall, args []Value) (Value, error)

// NativeFunction wraps a host callable. Equality is pointer identity.
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

// Function is a user-defined closure. Body is shared with the declaration.
type Function struct {
	Name    string
	Params  []string
	Body    *ast.Body
	Closure *Env
}

// NewNull creates a null value.
func NewNull() Value { return Null{} }

// NewBool creates a boolean value.
func NewBool(b bool) Value { return Bool{Value: b} }

// NewNumber creates a number value.
func NewNumber(n float64) Value { return Number{Value: n} }

// NewString creates a string value.
func NewString(s string) Value { return String{Value: s} }

// NewList creates a list value.
func NewList(items []Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{Items: items}
}

// NewObject creates an object from ordered pairs. Later duplicates win.
func NewObject(pairs []KeyValue) *Object {
	o := &Object{}
	for _, kv := range pairs {
		o.Set(kv.Key, kv.Value)
	}
	return o
}

// NewNative creates a native function value.
func NewNative(name string, fn NativeFunc) *NativeFunction {
	return &NativeFunction{Name: name, Fn: fn}
}

// --- Null ---

func (Null) Type() ValueType { return TypeNull }
func (Null) String() string  { return "null" }
func (Null) Truthy() bool    { return false }
func (Null) Clone() Value    { return Null{} }
func (Null) Equals(other Value) bool {
	_, ok := other.(Null)
	return ok
}

// --- Bool ---

func (b Bool) Type() ValueType { return TypeBoolean }
func (b Bool) String() string  { return strconv.FormatBool(b.Value) }
func (b Bool) Truthy() bool    { return b.Value }
func (b Bool) Clone() Value    { return b }
func (b Bool) Equals(other Value) bool {
	o, ok := other.(Bool)
	return ok && o.Value == b.Value
}

// --- Number ---

func (n Number) Type() ValueType { return TypeNumber }
func (n Number) String() string  { return FormatNumber(n.Value) }
func (n Number) Truthy() bool    { return n.Value != 0 && !math.IsNaN(n.Value) }
func (n Number) Clone() Value    { return n }
func (n Number) Equals(other Value) bool {
	o, ok := other.(Number)
	return ok && o.Value == n.Value
}

// Compare orders two numbers. NaN compares unequal to everything.
func (n Number) Compare(other Number) int {
	switch {
	case n.Value < other.Value:
		return -1
	case n.Value > other.Value:
		return 1
	}
	return 0
}

// --- String ---

func (s String) Type() ValueType { return TypeString }
func (s String) String() string  { return s.Value }
func (s String) Truthy() bool    { return s.Value != "" }
func (s String) Clone() Value    { return s }
func (s String) Equals(other Value) bool {
	o, ok := other.(String)
	return ok && o.Value == s.Value
}

// --- Object ---

func (o *Object) Type() ValueType { return TypeObject }
func (o *Object) Truthy() bool    { return true }

// String renders the object one property per line, each line indented by
// four spaces so nested objects stay readable.
func (o *Object) String() string {
	if len(o.Pairs) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, kv := range o.Pairs {
		b.WriteString(padLines(kv.Key+": "+Inspect(kv.Value), 4))
		b.WriteByte('\n')
	}
	b.WriteByte('}')
	return b.String()
}

// Equals compares property counts first, then the rendered form.
func (o *Object) Equals(other Value) bool {
	p, ok := other.(*Object)
	if !ok {
		return false
	}
	if len(o.Pairs) != len(p.Pairs) {
		return false
	}
	return o.String() == p.String()
}

// Clone deep-copies the object.
func (o *Object) Clone() Value {
	pairs := make([]KeyValue, len(o.Pairs))
	for i, kv := range o.Pairs {
		pairs[i] = KeyValue{Key: kv.Key, Value: kv.Value.Clone()}
	}
	return &Object{Pairs: pairs}
}

func (o *Object) buildIndex() {
	o.index = make(map[string]int, len(o.Pairs))
	for i, kv := range o.Pairs {
		o.index[kv.Key] = i
	}
}

// Get looks up a property.
func (o *Object) Get(key string) (Value, bool) {
	if o.index == nil {
		o.buildIndex()
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.Pairs[i].Value, true
}

// Set inserts or overwrites a property in place. Only call it on an object
// that is not yet reachable from an environment.
func (o *Object) Set(key string, v Value) {
	if o.index == nil {
		o.buildIndex()
	}
	if i, ok := o.index[key]; ok {
		o.Pairs[i].Value = v
		return
	}
	o.index[key] = len(o.Pairs)
	o.Pairs = append(o.Pairs, KeyValue{Key: key, Value: v})
}

// Keys returns property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.Pairs))
	for i, kv := range o.Pairs {
		keys[i] = kv.Key
	}
	return keys
}

// Len returns the number of properties.
func (o *Object) Len() int { return len(o.Pairs) }

// --- List ---

func (l *List) Type() ValueType { return TypeList }
func (l *List) Truthy() bool    { return true }

func (l *List) String() string {
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = Inspect(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equals compares lists element-wise.
func (l *List) Equals(other Value) bool {
	m, ok := other.(*List)
	if !ok || len(l.Items) != len(m.Items) {
		return false
	}
	for i := range l.Items {
		if !l.Items[i].Equals(m.Items[i]) {
			return false
		}
	}
	return true
}

// Clone deep-copies the list.
func (l *List) Clone() Value {
	items := make([]Value, len(l.Items))
	for i, item := range l.Items {
		items[i] = item.Clone()
	}
	return &List{Items: items}
}

// Index resolves a list index: 0..len-1, and -1 for the last element.
func (l *List) Index(n float64) (int, bool) {
	if math.IsNaN(n) {
		return 0, false
	}
	t := math.Trunc(n)
	if t == -1 && len(l.Items) > 0 {
		return len(l.Items) - 1, true
	}
	if t < 0 || t >= float64(len(l.Items)) {
		return 0, false
	}
	return int(t), true
}

// --- NativeFunction ---

func (f *NativeFunction) Type() ValueType { return TypeNativeFunction }
func (f *NativeFunction) String() string  { return "<native function " + f.Name + ">" }
func (f *NativeFunction) Truthy() bool    { return true }
func (f *NativeFunction) Clone() Value    { return f }
func (f *NativeFunction) Equals(other Value) bool {
	o, ok := other.(*NativeFunction)
	return ok && o == f
}

// --- Function ---

func (f *Function) Type() ValueType { return TypeFunction }
func (f *Function) Truthy() bool    { return true }
func (f *Function) Clone() Value    { return f }
func (f *Function) String() string {
	return "<function " + f.Name + "(" + strings.Join(f.Params, ", ") + ")>"
}

// Equals reports whether both functions captured the same environment.
func (f *Function) Equals(other Value) bool {
	o, ok := other.(*Function)
	return ok && o.Closure == f.Closure
}

// Inspect renders a value as it appears inside a container: strings are
// quoted, everything else uses String.
func Inspect(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(s.Value)
	}
	return v.String()
}

func padLines(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}

// FormatNumber renders whole numbers without a fractional part.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case math.Abs(n) < 1e21:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
