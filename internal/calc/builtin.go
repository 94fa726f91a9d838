package calc

import (
	"math"
)

var (
	plusFunction  = NewStrict("+", plus)
	minusFunction = NewStrict("-", minus)
	mulFunction   = NewStrict("*", mul)
	divFunction   = NewStrict("/", div)
	avgFunction   = NewStrict("avg", avg)
	ifFunction    = NewLazy("if", conditional)
)

// DefaultRegistry returns a fresh registry with the operators and the
// built-in functions.
func DefaultRegistry() Registry {
	return Registry{
		"+": plusFunction,
		"-": minusFunction,
		"*": mulFunction,
		"/": divFunction,

		"SUM":     plusFunction,
		"PRODUCT": mulFunction,
		"AVG":     avgFunction,
		"IF":      ifFunction,
		"MIN":     NewStrict("min", minimum),
		"MAX":     NewStrict("max", maximum),
		"COUNT":   NewStrict("count", count),
		"ROUND":   NewStrict("round", round),
		"AND":     NewLazy("and", and),
		"OR":      NewLazy("or", or),

		"NOT":  Lift("not", not),
		"ABS":  Lift("abs", math.Abs),
		"SQRT": Lift("sqrt", math.Sqrt),
		"EXP":  Lift("exp", math.Exp),
		"LN":   Lift("ln", math.Log),
		"SIN":  Lift("sin", math.Sin),
		"COS":  Lift("cos", math.Cos),
		"TAN":  Lift("tan", math.Tan),
		"PI":   Lift("pi", func(float64) float64 { return math.Pi }),
	}
}

func plus(args []float64) (float64, error) {
	sum := 0.0
	for _, v := range args {
		sum += v
	}
	return sum, nil
}

// minus: no operands gives 1, one operand is negated, more are folded
// left to right.
func minus(args []float64) (float64, error) {
	switch len(args) {
	case 0:
		return 1, nil
	case 1:
		return -args[0], nil
	}
	ret := args[0]
	for _, v := range args[1:] {
		ret -= v
	}
	return ret, nil
}

func mul(args []float64) (float64, error) {
	product := 1.0
	for _, v := range args {
		product *= v
	}
	return product, nil
}

// div mirrors minus: 1 with no operands, the reciprocal of a single one.
// Division by zero yields an infinity or NaN.
func div(args []float64) (float64, error) {
	switch len(args) {
	case 0:
		return 1, nil
	case 1:
		return 1 / args[0], nil
	}
	ret := args[0]
	for _, v := range args[1:] {
		ret /= v
	}
	return ret, nil
}

func avg(args []float64) (float64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	sum, _ := plus(args)
	return sum / float64(len(args)), nil
}

func minimum(args []float64) (float64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	ret := args[0]
	for _, v := range args[1:] {
		ret = math.Min(ret, v)
	}
	return ret, nil
}

func maximum(args []float64) (float64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	ret := args[0]
	for _, v := range args[1:] {
		ret = math.Max(ret, v)
	}
	return ret, nil
}

func count(args []float64) (float64, error) {
	return float64(len(args)), nil
}

// round takes the value and optionally the number of decimal places.
func round(args []float64) (float64, error) {
	switch len(args) {
	case 1:
		return math.Round(args[0]), nil
	case 2:
		m := math.Pow(10, math.Trunc(args[1]))
		return math.Round(args[0]*m) / m, nil
	}
	return 0, &EvaluationError{Err: ErrArity, Msg: "round requires 1 or 2 parameters"}
}

func not(v float64) float64 {
	if v == 0 {
		return 1
	}
	return 0
}

// conditional evaluates its test, then only the branch it selects.
func conditional(env *Env, args []Expr) (float64, error) {
	if len(args) != 3 {
		return 0, ArityError("if", 3)
	}
	test, err := env.Eval(args[0])
	if err != nil {
		return 0, err
	}
	if test != 0 {
		return env.Eval(args[1])
	}
	return env.Eval(args[2])
}

// and stops at the first zero argument; with no arguments it is true.
func and(env *Env, args []Expr) (float64, error) {
	for _, arg := range args {
		v, err := env.Eval(arg)
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return 0, nil
		}
	}
	return 1, nil
}

// or stops at the first non-zero argument; with no arguments it is false.
func or(env *Env, args []Expr) (float64, error) {
	for _, arg := range args {
		v, err := env.Eval(arg)
		if err != nil {
			return 0, err
		}
		if v != 0 {
			return 1, nil
		}
	}
	return 0, nil
}
