// Package formula evaluates the arithmetic formulas attached to TAC rows.
//
// A formula combines numeric literals and variable references with + - * /
// and parentheses. Evaluation never fails: malformed formulas, non-finite
// results and blank input yield a null Result, unresolved or non-numeric
// variables count as zero, and a formula consisting of a single reference to a
// string value yields that string unchanged.
package formula

import (
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	Null Kind = iota
	Number
	Text
)

// Result is the outcome of evaluating a formula.
type Result struct {
	Kind Kind
	Num  float64
	Str  string
}

func NumberResult(value float64) Result { return Result{Kind: Number, Num: value} }

func TextResult(value string) Result { return Result{Kind: Text, Str: value} }

func (r Result) IsNull() bool { return r.Kind == Null }

// Float returns the numeric value when the result is a number.
func (r Result) Float() (float64, bool) {
	if r.Kind != Number {
		return 0, false
	}
	return r.Num, true
}

// Text returns the string value when the result is text.
func (r Result) Text() (string, bool) {
	if r.Kind != Text {
		return "", false
	}
	return r.Str, true
}

// Value returns the result as nil, float64 or string.
func (r Result) Value() any {
	switch r.Kind {
	case Number:
		return r.Num
	case Text:
		return r.Str
	default:
		return nil
	}
}

func (r Result) String() string {
	switch r.Kind {
	case Number:
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	case Text:
		return r.Str
	default:
		return "null"
	}
}

// Evaluate computes a formula against vars.
func Evaluate(src string, vars Vars) Result {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return Result{}
	}

	node, err := Parse(trimmed)
	if err != nil {
		return Result{}
	}

	if ref, ok := node.(*refNode); ok && ref.name == trimmed {
		if value, found := vars.Lookup(ref.path); found {
			if s, isString := value.(string); isString {
				return TextResult(s)
			}
		}
	}

	value := node.Eval(vars)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Result{}
	}
	return NumberResult(value)
}

// EvaluatePtr treats a nil formula like a blank one.
func EvaluatePtr(src *string, vars Vars) Result {
	if src == nil {
		return Result{}
	}
	return Evaluate(*src, vars)
}
