// Package formula parses and evaluates price-rule formulas such as
// "x*0.9" or "max(x - 5, round(x * 0.8, 2))". The variable x (or price)
// is the price the rule is applied to.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDivisionByZero is returned by Eval when a divisor evaluates to zero.
var ErrDivisionByZero = errors.New("division by zero")

// Formula is a parsed price formula. It is immutable and safe for
// concurrent use.
type Formula struct {
	src  string
	root *expr
}

// Parse parses and checks src.
func Parse(src string) (*Formula, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("formula: empty")
	}
	root, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", src, err)
	}
	if err := checkExpr(root); err != nil {
		return nil, fmt.Errorf("formula %q: %w", src, err)
	}
	return &Formula{src: src, root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Formula {
	f, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate reports whether src is a valid formula.
func Validate(src string) error {
	_, err := Parse(src)
	return err
}

// String returns the source text.
func (f *Formula) String() string { return f.src }

// Eval applies the formula to price.
func (f *Formula) Eval(price float64) (float64, error) {
	return evalExpr(f.root, price)
}

type function struct {
	minArgs, maxArgs int
	fn               func(args []float64) float64
}

var functions = map[string]function{
	"min":   {1, -1, func(a []float64) float64 { return fold(a, math.Min) }},
	"max":   {1, -1, func(a []float64) float64 { return fold(a, math.Max) }},
	"abs":   {1, 1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"floor": {1, 1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"ceil":  {1, 1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"round": {1, 2, round},
}

func fold(a []float64, f func(x, y float64) float64) float64 {
	out := a[0]
	for _, v := range a[1:] {
		out = f(out, v)
	}
	return out
}

// round rounds half away from zero to an optional number of decimals.
func round(a []float64) float64 {
	if len(a) == 1 {
		return math.Round(a[0])
	}
	scale := math.Pow(10, math.Trunc(a[1]))
	return math.Round(a[0]*scale) / scale
}

func isVariable(name string) bool {
	return strings.EqualFold(name, "x") || strings.EqualFold(name, "price")
}

func checkExpr(e *expr) error {
	if err := checkTerm(e.Left); err != nil {
		return err
	}
	for _, r := range e.Right {
		if err := checkTerm(r.Term); err != nil {
			return err
		}
	}
	return nil
}

func checkTerm(t *term) error {
	if err := checkValue(t.Left.Value); err != nil {
		return err
	}
	for _, r := range t.Right {
		if err := checkValue(r.Factor.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(v *value) error {
	switch {
	case v.Var != nil:
		if !isVariable(*v.Var) {
			return fmt.Errorf("%s: unknown variable %q", v.Pos, *v.Var)
		}
	case v.Sub != nil:
		return checkExpr(v.Sub)
	case v.Call != nil:
		fn, ok := functions[strings.ToLower(v.Call.Name)]
		if !ok {
			return fmt.Errorf("%s: unknown function %q", v.Call.Pos, v.Call.Name)
		}
		n := len(v.Call.Args)
		if n < fn.minArgs || (fn.maxArgs >= 0 && n > fn.maxArgs) {
			return fmt.Errorf("%s: wrong number of arguments to %s: %d", v.Call.Pos, v.Call.Name, n)
		}
		for _, a := range v.Call.Args {
			if err := checkExpr(a); err != nil {
				return err
			}
		}
	}
	return nil
}

func evalExpr(e *expr, x float64) (float64, error) {
	out, err := evalTerm(e.Left, x)
	if err != nil {
		return 0, err
	}
	for _, r := range e.Right {
		v, err := evalTerm(r.Term, x)
		if err != nil {
			return 0, err
		}
		if r.Op == "+" {
			out += v
		} else {
			out -= v
		}
	}
	return out, nil
}

func evalTerm(t *term, x float64) (float64, error) {
	out, err := evalFactor(t.Left, x)
	if err != nil {
		return 0, err
	}
	for _, r := range t.Right {
		v, err := evalFactor(r.Factor, x)
		if err != nil {
			return 0, err
		}
		switch r.Op {
		case "*":
			out *= v
		case "/":
			if v == 0 {
				return 0, ErrDivisionByZero
			}
			out /= v
		case "%":
			if v == 0 {
				return 0, ErrDivisionByZero
			}
			out = math.Mod(out, v)
		}
	}
	return out, nil
}

func evalFactor(f *factor, x float64) (float64, error) {
	v, err := evalValue(f.Value, x)
	if f.Neg {
		v = -v
	}
	return v, err
}

func evalValue(v *value, x float64) (float64, error) {
	switch {
	case v.Number != nil:
		return *v.Number, nil
	case v.Var != nil:
		return x, nil
	case v.Sub != nil:
		return evalExpr(v.Sub, x)
	case v.Call != nil:
		args := make([]float64, len(v.Call.Args))
		for i, a := range v.Call.Args {
			r, err := evalExpr(a, x)
			if err != nil {
				return 0, err
			}
			args[i] = r
		}
		return functions[strings.ToLower(v.Call.Name)].fn(args), nil
	}
	return 0, fmt.Errorf("%s: empty value", v.Pos)
}
