package calc

import (
	"strings"

	"formulagrid/internal/grid"
)

// Expr is a node of a compiled formula. The set of node types is closed:
// *Literal, *CellRef and *Call. A tree owns its children exclusively and
// is never mutated after parsing.
type Expr interface {
	// String renders the node as a canonical S-expression.
	String() string
	expr()
}

// Literal is a numeric constant.
type Literal struct {
	Value float64
}

// CellRef refers to another cell, resolved at evaluation time.
type CellRef struct {
	Index grid.Index
}

// Call applies a function (or an operator) to unevaluated arguments.
type Call struct {
	Func *Function
	Args []Expr
}

func (*Literal) expr() {}
func (*CellRef) expr() {}
func (*Call) expr()    {}

func (l *Literal) String() string {
	return formatNumber(l.Value)
}

func (r *CellRef) String() string {
	return r.Index.String()
}

func (c *Call) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c *Call) write(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(c.Func.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		if call, ok := arg.(*Call); ok {
			call.write(b)
		} else {
			b.WriteString(arg.String())
		}
	}
	b.WriteByte(')')
}

// Render returns the canonical S-expression of a tree, e.g. "=1+2*A1"
// renders as "(+ 1 (* 2 A1))".
func Render(e Expr) string {
	return e.String()
}

// References lists the cells a tree refers to, in order of appearance
// and without duplicates.
func References(e Expr) []grid.Index {
	var out []grid.Index
	seen := map[grid.Index]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *CellRef:
			if !seen[n.Index] {
				seen[n.Index] = true
				out = append(out, n.Index)
			}
		case *Call:
			for _, arg := range n.Args {
				walk(arg)
			}
		}
	}
	walk(e)
	return out
}
