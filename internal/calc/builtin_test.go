package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictBuiltins(t *testing.T) {
	tests := []struct {
		name string
		fn   StrictFunc
		args []float64
		want float64
	}{
		{"plus empty", plus, nil, 0},
		{"plus", plus, []float64{1, 2, 3.5}, 6.5},
		{"minus empty", minus, nil, 1},
		{"minus negates", minus, []float64{5}, -5},
		{"minus folds", minus, []float64{10, 3, 2}, 5},
		{"mul empty", mul, nil, 1},
		{"mul", mul, []float64{2, 3, 4}, 24},
		{"div empty", div, nil, 1},
		{"div reciprocal", div, []float64{4}, 0.25},
		{"div folds", div, []float64{8, 2, 2}, 2},
		{"avg empty", avg, nil, 0},
		{"avg", avg, []float64{1, 2, 6}, 3},
		{"min empty", minimum, nil, 0},
		{"min", minimum, []float64{3, -1, 2}, -1},
		{"max", maximum, []float64{3, -1, 2}, 3},
		{"count", count, []float64{0, 0, 0}, 3},
		{"round", round, []float64{2.5}, 3},
		{"round places", round, []float64{3.14159, 2}, 3.14},
		{"round tens", round, []float64{1234, -2}, 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.args)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDefaultRegistryFormulas(t *testing.T) {
	tests := map[string]float64{
		"=SUM(1,2,3)":         6,
		"=PRODUCT(2,3,4)":     24,
		"=AVG()":              0,
		"=AVG(2,4)":           3,
		"=MIN(4,2,8)":         2,
		"=MAX(4,2,8)":         8,
		"=COUNT(4,2,8)":       3,
		"=ROUND(2.567,1)":     2.6,
		"=NOT(0)":             1,
		"=NOT(3)":             0,
		"=AND(1,2,3)":         1,
		"=AND(1,0,3)":         0,
		"=AND()":              1,
		"=OR(0,0,2)":          1,
		"=OR()":               0,
		"=ABS(0-3)":           3,
		"=SQRT(16)":           4,
		"=EXP(0)":             1,
		"=LN(1)":              0,
		"=SIN(0)":             0,
		"=COS(0)":             1,
		"=TAN(0)":             0,
		"=PI(0)":              math.Pi,
		"=IF(1-1,10,20)":      20,
		"=IF(SUM(1,1),10,20)": 10,
	}
	funcs := DefaultRegistry()
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			e, err := Parse(input, funcs)
			require.NoError(t, err)
			got, err := Evaluate(e, Table{})
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12)
		})
	}
}

func TestLazyAndOrShortCircuit(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"H1": "=AND(0,H1)",
		"H2": "=OR(1,H2)",
		"H3": "=AND(1,H3)",
		"H4": "=OR(0,H4)",
	})

	got, err := evalCell(table, "H1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = evalCell(table, "H2")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	for _, name := range []string{"H3", "H4"} {
		_, err = evalCell(table, name)
		assert.ErrorIs(t, err, ErrCircularReference, name)
	}
}

func TestLift(t *testing.T) {
	double := Lift("double", func(v float64) float64 { return v * 2 })
	assert.Equal(t, "double", double.Name)
	assert.Equal(t, Strict, double.Strategy)

	got, err := double.Apply(NewEnv(Table{}), []Expr{&Literal{Value: 21}})
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)

	_, err = double.Apply(NewEnv(Table{}), nil)
	assert.EqualError(t, err, "double requires 1 parameter")
}

func TestRegistryAlias(t *testing.T) {
	base := DefaultRegistry()
	funcs := DefaultRegistry()
	require.NoError(t, funcs.Alias("MEAN", "AVG"))
	assert.Error(t, funcs.Alias("X", "NOPE"))

	_, ok := base.Lookup("MEAN")
	assert.False(t, ok)

	e, err := Parse("=MEAN(1,3)", funcs)
	require.NoError(t, err)
	assert.Equal(t, "(avg 1 3)", Render(e))

	assert.Contains(t, funcs.Names(), "MEAN")
	assert.Equal(t, "lazy", funcs["IF"].Strategy.String())
}
