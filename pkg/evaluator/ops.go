package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
)

// maxRepeatLen caps the length of a string produced by string * number.
const maxRepeatLen = 1 << 24

// binary applies an arithmetic operator. Unsupported operand combinations
// are reported or yield null; they never abort the run.
func (ev *evaluator) binary(op ast.BinaryOp, left, right Value, span ast.Span) Value {
	switch l := left.(type) {
	case Number:
		switch r := right.(type) {
		case Number:
			return NewNumber(arith(op, l.Value, r.Value))
		case String:
			return ev.stringNumber(op, r.Value, l.Value, false, span)
		}
	case String:
		switch r := right.(type) {
		case String:
			if op == ast.OpAdd {
				return NewString(l.Value + r.Value)
			}
			ev.report(diagnostics.EStringOp, fmt.Sprintf("cannot apply '%s' to strings", op), span)
			return NewString("")
		case Number:
			return ev.stringNumber(op, l.Value, r.Value, true, span)
		}
	}
	return NewNull()
}

func arith(op ast.BinaryOp, a, b float64) float64 {
	switch op {
	case ast.OpAdd:
		return a + b
	case ast.OpSub:
		return a - b
	case ast.OpMul:
		return a * b
	case ast.OpDiv:
		return a / b
	case ast.OpMod:
		return math.Mod(a, b)
	}
	return math.NaN()
}

// stringNumber combines a string with a number. stringLeft records which
// side of the expression the string was on.
func (ev *evaluator) stringNumber(op ast.BinaryOp, s string, n float64, stringLeft bool, span ast.Span) Value {
	switch op {
	case ast.OpAdd:
		if stringLeft {
			return NewString(s + FormatNumber(n))
		}
		return NewString(FormatNumber(n) + s)
	case ast.OpMul:
		count := math.Floor(n)
		if math.IsNaN(count) || count <= 0 || s == "" {
			return NewString("")
		}
		if count*float64(len(s)) > maxRepeatLen {
			ev.report(diagnostics.EStringOp, fmt.Sprintf("string repetition too large (%s times)", FormatNumber(count)), span)
			return NewString("")
		}
		return NewString(strings.Repeat(s, int(count)))
	}
	ev.report(diagnostics.EStringOp, fmt.Sprintf("cannot apply '%s' to a string and a number", op), span)
	return NewString("")
}

// compare applies a relational or equality operator. Values of different
// types are never equal and never ordered.
func (ev *evaluator) compare(op ast.CompareOp, left, right Value, span ast.Span) (Value, error) {
	if left.Type() != right.Type() {
		switch op {
		case ast.OpNeq:
			return NewBool(true), nil
		case ast.OpLt, ast.OpGt:
			ev.report(diagnostics.EOrder,
				fmt.Sprintf("cannot order %s and %s", left.Type(), right.Type()), span)
		}
		return NewBool(false), nil
	}

	switch op {
	case ast.OpEq:
		return NewBool(left.Equals(right)), nil
	case ast.OpNeq:
		return NewBool(!left.Equals(right)), nil
	case ast.OpLtEq, ast.OpGtEq:
		if left.Equals(right) {
			return NewBool(true), nil
		}
	}

	l, ok := left.(Number)
	if !ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EOrder,
			Message: fmt.Sprintf("values of type %s cannot be ordered", left.Type()),
			Span:    &span,
		}
	}
	c := l.Compare(right.(Number))
	switch op {
	case ast.OpLt, ast.OpLtEq:
		return NewBool(c < 0), nil
	default:
		return NewBool(c > 0), nil
	}
}
