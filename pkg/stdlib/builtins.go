package stdlib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

// IO holds the streams the core builtins read from and write to.
type IO struct {
	Stdout io.Writer
	Stdin  io.Reader
}

// RegisterDefaults adds the core and pure builtins.
func RegisterDefaults(r *Registry, streams IO) {
	if streams.Stdout == nil {
		streams.Stdout = os.Stdout
	}
	if streams.Stdin == nil {
		streams.Stdin = os.Stdin
	}
	stdin := bufio.NewReader(streams.Stdin)

	// Core
	r.RegisterFunc("print", printFn(streams.Stdout))
	r.RegisterFunc("input", inputFn(streams.Stdout, stdin))
	r.RegisterFunc("time", stdlibTime)
	r.RegisterFunc("sleep", stdlibSleep)
	r.RegisterFunc("exit", stdlibExit)
	r.RegisterFunc("str", stdlibStr)
	r.RegisterFunc("int", stdlibInt)

	// Predicates
	r.RegisterFunc("type", stdlibType)
	r.RegisterFunc("contains", stdlibContains)

	// List ops
	r.RegisterFunc("len", stdlibLen)
	r.RegisterFunc("append", stdlibAppend)
	r.RegisterFunc("concat", stdlibConcat)
	r.RegisterFunc("range", stdlibRange)
	r.RegisterFunc("sort", stdlibSort)
	r.RegisterFunc("join", stdlibJoin)

	// String ops
	r.RegisterFunc("upper", stdlibUpper)
	r.RegisterFunc("lower", stdlibLower)
	r.RegisterFunc("split", stdlibSplit)
	r.RegisterFunc("trim", stdlibTrim)
	r.RegisterFunc("replace", stdlibReplace)

	// Object ops
	r.RegisterFunc("keys", stdlibKeys)
	r.RegisterFunc("values", stdlibValues)
	r.RegisterFunc("has", stdlibHas)
	r.RegisterFunc("merge", stdlibMerge)

	// Math
	r.RegisterFunc("abs", unaryMath(math.Abs))
	r.RegisterFunc("floor", unaryMath(math.Floor))
	r.RegisterFunc("ceil", unaryMath(math.Ceil))
	r.RegisterFunc("round", unaryMath(math.Round))
	r.RegisterFunc("sqrt", unaryMath(math.Sqrt))
	r.RegisterFunc("pow", stdlibPow)
	r.RegisterFunc("min", stdlibMin)
	r.RegisterFunc("max", stdlibMax)

	// JSON
	r.Register("json", Module("json", map[string]evaluator.NativeFunc{
		"parse":     stdlibJSONParse,
		"stringify": stdlibJSONStringify,
	}))
}

// print(...args) writes the arguments separated by spaces, then a newline.
func printFn(w io.Writer) evaluator.NativeFunc {
	return func(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return nil, evaluator.Fatalf(diagnostics.EIO, "print: %v", err)
		}
		return evaluator.NewNull(), nil
	}
}

// input(prompt?) reads one line without its trailing newline. At end of
// input it returns null.
func inputFn(w io.Writer, r *bufio.Reader) evaluator.NativeFunc {
	return func(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
		if err := arityRange(call, args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			prompt, err := stringArg(call, args, 0)
			if err != nil {
				return nil, err
			}
			fmt.Fprint(w, prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, evaluator.Fatalf(diagnostics.EIO, "input: %v", err)
		}
		if err == io.EOF && line == "" {
			return evaluator.NewNull(), nil
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		return evaluator.NewString(line), nil
	}
}

// time() returns seconds since the Unix epoch.
func stdlibTime(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 0); err != nil {
		return nil, err
	}
	return evaluator.NewNumber(float64(time.Now().UnixNano()) / 1e9), nil
}

// sleep(seconds) blocks until the duration passes or the run is cancelled.
func stdlibSleep(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	secs, err := numberArg(call, args, 0)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(secs) || secs <= 0 {
		return evaluator.NewNull(), nil
	}
	d := time.Duration(secs * float64(time.Second))
	if secs > math.MaxInt64/float64(time.Second) {
		d = math.MaxInt64
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return evaluator.NewNull(), nil
	case <-call.Ctx.Done():
		return nil, evaluator.Fatalf(diagnostics.ECancelled, "sleep interrupted: %v", call.Ctx.Err())
	}
}

// exit(code?) ends the program with the given status.
func stdlibExit(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arityRange(call, args, 0, 1); err != nil {
		return nil, err
	}
	code := 0
	if len(args) == 1 {
		n, err := numberArg(call, args, 0)
		if err != nil {
			return nil, err
		}
		code = int(n)
	}
	return nil, &evaluator.ExitError{Code: code}
}

// str(v) renders any value as a string.
func stdlibStr(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	return evaluator.NewString(args[0].String()), nil
}

// int(v) parses a numeric string; numbers pass through unchanged.
func stdlibInt(call *evaluator.NativeCall, args []evaluator.Value) (evaluator.Value, error) {
	if err := arity(call, args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case evaluator.Number:
		return v, nil
	case evaluator.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return nil, evaluator.Fatalf(diagnostics.EType, "int: cannot parse %q as a number", v.Value)
		}
		return evaluator.NewNumber(n), nil
	}
	return nil, typeError(call, 0, "a string or number", args[0])
}
