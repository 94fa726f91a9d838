package calc

import (
	"testing"

	"formulagrid/internal/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRender(t *testing.T) {
	funcs := DefaultRegistry()
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{" 42", "42"},
		{"-5", "-5"},
		{"+2.5", "2.5"},
		{"1e3", "1000"},
		{"=1+2*3", "(+ 1 (* 2 3))"},
		{"=(1+2)*3", "(* (+ 1 2) 3)"},
		{"=1-2-3", "(- (- 1 2) 3)"},
		{"=8/4/2", "(/ (/ 8 4) 2)"},
		{"=B1 + 3", "(+ B1 3)"},
		{"=SUM(B1, B2, B3)", "(+ B1 B2 B3)"},
		{"=AVG(B2, 10 + 2 * 5, SUM(B2, 0))", "(avg B2 (+ 10 (* 2 5)) (+ B2 0))"},
		{"=SUM()", "(+)"},
		{"=IF(0,D1,1)", "(if 0 D1 1)"},
		{"= ((A1))", "A1"},
		{"=AA3*.5", "(* AA3 0.5)"},
		{"=1e21", "1e+21"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input, funcs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Render(e))
		})
	}
}

func TestParseNodes(t *testing.T) {
	funcs := DefaultRegistry()

	e, err := Parse("42", funcs)
	require.NoError(t, err)
	assert.Equal(t, &Literal{Value: 42}, e)

	e, err = Parse("=Z2", funcs)
	require.NoError(t, err)
	assert.Equal(t, &CellRef{Index: grid.Index{Col: 25, Row: 1}}, e)

	e, err = Parse("=SUM(1,A1)", funcs)
	require.NoError(t, err)
	call, ok := e.(*Call)
	require.True(t, ok)
	assert.Same(t, funcs["SUM"], call.Func)
	assert.Equal(t, []Expr{&Literal{Value: 1}, &CellRef{Index: grid.Index{}}}, call.Args)
}

func TestParseNotFormula(t *testing.T) {
	for _, input := range []string{"", "hello", "A1", "42 ", "1+2", " =1", "inf", "0x10"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input, DefaultRegistry())
			assert.ErrorIs(t, err, ErrNotFormula)
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"=", "cannot parse formula, unexpected end of formula"},
		{"=1+", "cannot parse formula, unexpected end of formula"},
		{"=B1 + ", "cannot parse formula, unexpected end of formula"},
		{"=SUM(1,1", "cannot parse, no matching closing paren for SUM(, found end of formula"},
		{"=(1+", "cannot parse formula, unexpected end of formula"},
		{"=(1+2", "cannot parse, no matching closing paren, found end of formula"},
		{"=+", "cannot parse formula, unexpected '+'"},
		{"=-1", "cannot parse formula, unexpected '-'"},
		{"=#", "unrecognized character '#'"},
		{"=FOO(1,1)", "no function -- FOO"},
		{"=sum(1)", "no function -- sum"},
		{"=1 2", "unexpected 2 after expression"},
		{"=(1))", "unexpected ')' after expression"},
		{"=SUM(1,)", "cannot parse formula, unexpected ')'"},
		{"=SUM(1 2)", "cannot parse, no matching closing paren for SUM(, found 2"},
		{"=foo", "invalid cell reference -- foo"},
		{"=A0", "invalid cell reference -- A0"},
		{"=1e", `malformed number "1e"`},
		{"=2e+", `malformed number "2e+"`},
		{"=SUM(1E-)", `malformed number "1E-"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input, DefaultRegistry())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.NotErrorIs(t, err, ErrNotFormula)
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestParseResolvesOperatorsEagerly(t *testing.T) {
	funcs := DefaultRegistry()
	delete(funcs, "*")

	_, err := Parse("=2*3", funcs)
	assert.EqualError(t, err, "no function -- *")

	// A bare name is a cell reference and never consults the registry.
	e, err := Parse("=IF", funcs)
	require.Error(t, err)
	assert.Nil(t, e)
	assert.EqualError(t, err, "invalid cell reference -- IF")

	e, err = Parse("=PI1", funcs)
	require.NoError(t, err)
	assert.Equal(t, "PI1", Render(e))
}

func TestParseUnknownFunctionFailsBeforeEvaluation(t *testing.T) {
	// An unknown function is rejected even when it would never be evaluated.
	_, err := Parse("=IF(1,2,NOPE(A1))", DefaultRegistry())
	assert.ErrorIs(t, err, ErrSyntax)
	assert.EqualError(t, err, "no function -- NOPE")
}

func TestReferences(t *testing.T) {
	e, err := Parse("=SUM(B1,A2*B1,IF(C3,1,A2))", DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, []grid.Index{
		grid.MustParseIndex("B1"),
		grid.MustParseIndex("A2"),
		grid.MustParseIndex("C3"),
	}, References(e))
}
