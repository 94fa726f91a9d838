package calc

import (
	"fmt"

	"formulagrid/internal/grid"
)

// Store is the read-only view of compiled cells an evaluation runs
// against. It must not change while an evaluation is in progress.
type Store interface {
	Lookup(idx grid.Index) (Expr, bool)
}

// Table is the plain map implementation of Store.
type Table map[grid.Index]Expr

func (t Table) Lookup(idx grid.Index) (Expr, bool) {
	e, ok := t[idx]
	return e, ok
}

// Env binds one evaluation request to a store and to the set of cells
// currently being resolved. An Env belongs to a single top-level
// evaluation and must not be shared.
type Env struct {
	store Store
	stack map[grid.Index]struct{}
}

// NewEnv returns an environment with an empty evaluation stack.
func NewEnv(store Store) *Env {
	return &Env{store: store, stack: map[grid.Index]struct{}{}}
}

// Evaluate computes the value of root against store with a fresh
// evaluation stack.
func Evaluate(root Expr, store Store) (float64, error) {
	return NewEnv(store).Eval(root)
}

// Eval evaluates e within this environment. Lazy functions use it to
// evaluate the arguments they select.
func (env *Env) Eval(e Expr) (float64, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil
	case *CellRef:
		return env.Find(n.Index)
	case *Call:
		return n.Func.Apply(env, n.Args)
	default:
		return 0, fmt.Errorf("calc: unknown expression node %T", e)
	}
}

// Find resolves a cell and evaluates its formula. The cell stays on the
// evaluation stack until Find returns, whichever way it returns, so a
// reference back to it from inside its own formula is a circular
// reference while a later unrelated reference is not.
func (env *Env) Find(idx grid.Index) (float64, error) {
	release, err := env.push(idx)
	if err != nil {
		return 0, err
	}
	defer release()

	e, ok := env.store.Lookup(idx)
	if !ok {
		return 0, &EvaluationError{Err: ErrMissingCell, Msg: fmt.Sprintf("%v -- %s", ErrMissingCell, idx)}
	}
	return env.Eval(e)
}

// push puts idx on the evaluation stack and returns the function that
// takes it off again. It fails without touching the stack when idx is
// already being resolved.
func (env *Env) push(idx grid.Index) (func(), error) {
	if env.resolving(idx) {
		return nil, &EvaluationError{Err: ErrCircularReference, Msg: fmt.Sprintf("%v -- %s", ErrCircularReference, idx)}
	}
	env.stack[idx] = struct{}{}
	return func() { delete(env.stack, idx) }, nil
}

// resolving reports whether idx is on the evaluation stack.
func (env *Env) resolving(idx grid.Index) bool {
	_, ok := env.stack[idx]
	return ok
}
