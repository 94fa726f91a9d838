package calc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFormula classifies input that is plain text rather than a
	// formula. Callers store and display such text verbatim.
	ErrNotFormula = errors.New("not formula")

	// ErrSyntax matches every *SyntaxError.
	ErrSyntax = errors.New("syntax error")

	// ErrEvaluation matches every *EvaluationError.
	ErrEvaluation = errors.New("evaluation error")

	ErrCircularReference = errors.New("circular reference")
	ErrMissingCell       = errors.New("not formula or number cell")
	ErrArity             = errors.New("wrong number of parameters")
)

// SyntaxError reports malformed formula text. Pos is the byte offset in
// the formula body (after the leading '=') where the problem was found.
type SyntaxError struct {
	Msg string
	Pos int
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func syntaxErrorf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// EvaluationError is raised while evaluating a compiled tree. It never
// invalidates the tree: a later change to a dependency can make the same
// tree evaluate successfully.
type EvaluationError struct {
	Err error
	Msg string
}

func (e *EvaluationError) Error() string {
	return e.Msg
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

// ArityError builds the error a function returns when called with the
// wrong number of arguments, e.g. "if requires 3 parameters".
func ArityError(name string, want int) *EvaluationError {
	noun := "parameters"
	if want == 1 {
		noun = "parameter"
	}
	return &EvaluationError{Err: ErrArity, Msg: fmt.Sprintf("%s requires %d %s", name, want, noun)}
}
