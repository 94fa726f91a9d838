// Package sheet keeps the raw input of every cell next to its compiled
// form and renders cell values for display.
package sheet

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"formulagrid/internal/calc"
	"formulagrid/internal/grid"
	"formulagrid/internal/logging"
)

// ErrEmpty is returned by Value for a cell with no input.
var ErrEmpty = errors.New("empty cell")

const (
	syntaxErrorPrefix = "#SYNTAX_ERROR "
	evalErrorPrefix   = "#EVAL_ERROR "
)

// Sheet is a grid of cells. It is not safe for concurrent use.
type Sheet struct {
	funcs   calc.Registry
	inputs  grid.Cells
	exprs   calc.Table
	errs    map[grid.Index]error
	logger  *slog.Logger
	metrics *Metrics
	prec    int
}

// Option configures a Sheet.
type Option func(*Sheet)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sheet) { s.logger = logger }
}

// WithMetrics records compile and evaluation counts in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Sheet) { s.metrics = m }
}

// WithPrecision sets the significant digits Evaluate shows; -1 is the
// shortest form that reads back to the same number.
func WithPrecision(digits int) Option {
	return func(s *Sheet) { s.prec = digits }
}

// New returns an empty sheet whose formulas may call the functions in funcs.
func New(funcs calc.Registry, opts ...Option) *Sheet {
	s := &Sheet{
		funcs:  funcs,
		inputs: grid.Cells{},
		exprs:  calc.Table{},
		errs:   map[grid.Index]error{},
		logger: logging.NewNop(),
		prec:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set replaces the input of a cell and compiles it. Empty text erases the
// cell.
func (s *Sheet) Set(idx grid.Index, text string) {
	s.Erase(idx)
	if text == "" {
		return
	}
	s.inputs[idx] = text

	e, err := calc.Parse(text, s.funcs)
	switch {
	case err == nil:
		s.exprs[idx] = e
		s.metrics.compiled("formula")
	case errors.Is(err, calc.ErrNotFormula):
		s.metrics.compiled("text")
	default:
		s.errs[idx] = err
		s.metrics.compiled("syntax_error")
		s.logger.Debug("compile failed", "cell", idx.String(), "err", err)
	}
}

// Get returns the raw input of a cell, "" when empty.
func (s *Sheet) Get(idx grid.Index) string {
	return s.inputs[idx]
}

// Erase removes a cell. Erasing an empty cell does nothing.
func (s *Sheet) Erase(idx grid.Index) {
	delete(s.errs, idx)
	delete(s.exprs, idx)
	delete(s.inputs, idx)
}

// Expr returns the compiled tree of a formula or number cell.
func (s *Sheet) Expr(idx grid.Index) (calc.Expr, bool) {
	return s.exprs.Lookup(idx)
}

// Value evaluates a cell. Text cells give calc.ErrNotFormula, cells that
// failed to compile give their *calc.SyntaxError.
func (s *Sheet) Value(idx grid.Index) (float64, error) {
	if _, ok := s.inputs[idx]; !ok {
		return 0, ErrEmpty
	}
	if err, ok := s.errs[idx]; ok {
		return 0, err
	}
	e, ok := s.exprs[idx]
	if !ok {
		return 0, calc.ErrNotFormula
	}

	start := time.Now()
	v, err := calc.Evaluate(e, s.exprs)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.evaluated("eval_error", elapsed)
		s.logger.Debug("evaluation failed", "cell", idx.String(), "err", err)
		return 0, err
	}
	s.metrics.evaluated("ok", elapsed)
	return v, nil
}

// Evaluate renders the display value of a cell.
func (s *Sheet) Evaluate(idx grid.Index) string {
	v, err := s.Value(idx)
	return s.Display(idx, v, err)
}

// Display renders a result already obtained from Value for idx.
func (s *Sheet) Display(idx grid.Index, v float64, err error) string {
	switch {
	case err == nil:
		return s.Format(v)
	case errors.Is(err, ErrEmpty):
		return ""
	case errors.Is(err, calc.ErrNotFormula):
		return s.inputs[idx]
	case errors.Is(err, calc.ErrSyntax):
		return syntaxErrorPrefix + err.Error()
	default:
		return evalErrorPrefix + err.Error()
	}
}

// Format renders a number with the sheet's precision.
func (s *Sheet) Format(v float64) string {
	return strconv.FormatFloat(v, 'g', s.prec, 64)
}

// NonEmpty lists the cells holding input in index order.
func (s *Sheet) NonEmpty() []grid.Index {
	return s.inputs.Sorted()
}

// Cells returns a copy of the raw inputs.
func (s *Sheet) Cells() grid.Cells {
	out := make(grid.Cells, len(s.inputs))
	for idx, text := range s.inputs {
		out[idx] = text
	}
	return out
}

// Load replaces the whole sheet with cells.
func (s *Sheet) Load(cells grid.Cells) {
	s.inputs = grid.Cells{}
	s.exprs = calc.Table{}
	s.errs = map[grid.Index]error{}
	for _, idx := range cells.Sorted() {
		s.Set(idx, cells[idx])
	}
	s.logger.Debug("sheet loaded", "cells", len(s.inputs))
}
