package calc

import (
	"fmt"
	"sort"
)

// Strategy says how a function receives its arguments.
type Strategy int

const (
	// Strict functions get every argument evaluated, left to right,
	// before they run.
	Strict Strategy = iota
	// Lazy functions get the raw argument trees and decide which ones to
	// evaluate, so a branch that is never taken is never cycle-checked.
	Lazy
)

func (s Strategy) String() string {
	if s == Lazy {
		return "lazy"
	}
	return "strict"
}

// StrictFunc computes a result from already evaluated arguments.
type StrictFunc func(args []float64) (float64, error)

// LazyFunc evaluates whichever arguments it needs through env.
type LazyFunc func(env *Env, args []Expr) (float64, error)

// Function is a registered function or operator. Name is the display name
// used when rendering trees, which need not equal the registry key
// (SUM displays as "+").
type Function struct {
	Name     string
	Strategy Strategy

	strict StrictFunc
	lazy   LazyFunc
}

func NewStrict(name string, fn StrictFunc) *Function {
	return &Function{Name: name, Strategy: Strict, strict: fn}
}

func NewLazy(name string, fn LazyFunc) *Function {
	return &Function{Name: name, Strategy: Lazy, lazy: fn}
}

// Lift turns a plain one-argument math function into a strict function
// that insists on exactly one argument.
func Lift(name string, fn func(float64) float64) *Function {
	return NewStrict(name, func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, ArityError(name, 1)
		}
		return fn(args[0]), nil
	})
}

// Apply runs the function on unevaluated argument trees.
func (f *Function) Apply(env *Env, args []Expr) (float64, error) {
	switch f.Strategy {
	case Lazy:
		return f.lazy(env, args)
	default:
		values := make([]float64, 0, len(args))
		for _, arg := range args {
			v, err := env.Eval(arg)
			if err != nil {
				return 0, err
			}
			values = append(values, v)
		}
		return f.strict(values)
	}
}

// Registry maps case-sensitive names, including the operator symbols
// "+", "-", "*" and "/", to functions. The parser only reads it.
type Registry map[string]*Function

// Lookup finds a function by registry key.
func (r Registry) Lookup(name string) (*Function, bool) {
	f, ok := r[name]
	return f, ok
}

// lookupDisplay finds a function by registry key, falling back to its
// display name. Used when reading rendered S-expressions back.
func (r Registry) lookupDisplay(name string) (*Function, bool) {
	if f, ok := r[name]; ok {
		return f, true
	}
	for _, key := range r.Names() {
		if r[key].Name == name {
			return r[key], true
		}
	}
	return nil, false
}

// Names returns the registry keys in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Alias registers name as another key for the function registered as target.
func (r Registry) Alias(name, target string) error {
	f, ok := r[target]
	if !ok {
		return fmt.Errorf("alias %s: no function -- %s", name, target)
	}
	r[name] = f
	return nil
}
