package calc

import (
	"strconv"

	"formulagrid/internal/grid"
)

// ParseSExpr reads the canonical form produced by Render back into a
// tree. Functions are resolved by registry key first and then by display
// name, so "(+ 1 2)" and "(avg A1)" both resolve with the default
// registry.
func ParseSExpr(text string, funcs Registry) (Expr, error) {
	r := &sexprReader{src: text, funcs: funcs}
	e, err := r.read()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if r.pos < len(r.src) {
		return nil, syntaxErrorf(r.pos, "unexpected %q after expression", r.src[r.pos:])
	}
	return e, nil
}

type sexprReader struct {
	src   string
	pos   int
	funcs Registry
}

func (r *sexprReader) skipSpace() {
	for r.pos < len(r.src) && isSpace(r.src[r.pos]) {
		r.pos++
	}
}

// atom reads a run of characters up to whitespace or a paren.
func (r *sexprReader) atom() string {
	start := r.pos
	for r.pos < len(r.src) && !isSpace(r.src[r.pos]) && r.src[r.pos] != '(' && r.src[r.pos] != ')' {
		r.pos++
	}
	return r.src[start:r.pos]
}

func (r *sexprReader) read() (Expr, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return nil, syntaxErrorf(r.pos, "unexpected end of expression")
	}
	switch r.src[r.pos] {
	case ')':
		return nil, syntaxErrorf(r.pos, "unexpected ')'")
	case '(':
		return r.readCall()
	}

	pos := r.pos
	text := r.atom()
	if isLetter(text[0]) {
		idx, err := grid.ParseIndex(text)
		if err != nil {
			return nil, syntaxErrorf(pos, "invalid cell reference -- %s", text)
		}
		return &CellRef{Index: idx}, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, syntaxErrorf(pos, "malformed number %q", text)
	}
	return &Literal{Value: v}, nil
}

func (r *sexprReader) readCall() (Expr, error) {
	open := r.pos
	r.pos++
	r.skipSpace()
	pos := r.pos
	name := r.atom()
	if name == "" {
		return nil, syntaxErrorf(pos, "missing function name")
	}
	f, ok := r.funcs.lookupDisplay(name)
	if !ok {
		return nil, syntaxErrorf(pos, "no function -- %s", name)
	}

	var args []Expr
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return nil, syntaxErrorf(open, "cannot parse, no matching closing paren for (%s", name)
		}
		if r.src[r.pos] == ')' {
			r.pos++
			return &Call{Func: f, Args: args}, nil
		}
		arg, err := r.read()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}
