package calc

import (
	"errors"
	"math"
	"testing"

	"formulagrid/internal/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile parses every input the way a sheet would, keeping only
// formulas and numbers.
func compile(t *testing.T, funcs Registry, inputs map[string]string) Table {
	t.Helper()
	table := Table{}
	for name, text := range inputs {
		e, err := Parse(text, funcs)
		if errors.Is(err, ErrNotFormula) {
			continue
		}
		require.NoError(t, err, name)
		table[grid.MustParseIndex(name)] = e
	}
	return table
}

func evalCell(table Table, name string) (float64, error) {
	idx := grid.MustParseIndex(name)
	return Evaluate(table[idx], table)
}

func TestEvaluateArithmetic(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"A2":  "A2",
		"C11": "C11",
		"B1":  "=1+2*3",
		"B2":  "=B1 + 3",
		"B3":  "=B1 * B2",
		"B4":  "=SUM(B1, B2, B3)",
		"B5":  "=AVG(B2, 10 + 2 * 5, SUM(B2, 0))",
		"B6":  "3",
		"B7":  "=(1+2)*3",
		"B8":  "=10-4-3",
		"B9":  "=100/10/5",
		"B10": "=B6/2-B6*2",
	})

	tests := map[string]float64{
		"B1":  7,
		"B2":  10,
		"B3":  70,
		"B4":  87,
		"B5":  40.0 / 3,
		"B6":  3,
		"B7":  9,
		"B8":  3,
		"B9":  2,
		"B10": -4.5,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := evalCell(table, name)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12)
		})
	}
}

func TestEvaluateCircularReferences(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"A1": "=A2",
		"A2": "=A1",
		"B1": "=B2+B3",
		"B2": "5",
		"B3": "=SUM(B1,B2)",
		"C1": "=C1",
		"D1": "=IF(0,D1,1)",
		"D2": "=IF(0,2,D2)",
		"D3": "=IF(1,3,D3)",
		"D4": "=IF(1,D4,4)",
		"D5": "=IF(0,5,6)",
		"D6": "=IF(1,7,8)",
	})

	for _, name := range []string{"A1", "A2", "B1", "B3", "C1", "D2", "D4"} {
		t.Run(name, func(t *testing.T) {
			_, err := evalCell(table, name)
			assert.ErrorIs(t, err, ErrEvaluation)
			assert.ErrorIs(t, err, ErrCircularReference)
		})
	}

	values := map[string]float64{"B2": 5, "D1": 1, "D3": 3, "D5": 6, "D6": 7}
	for name, want := range values {
		t.Run(name, func(t *testing.T) {
			got, err := evalCell(table, name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestEvaluateCircularReferenceMessage(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{"C1": "=C1"})
	_, err := evalCell(table, "C1")
	assert.EqualError(t, err, "circular reference -- C1")
}

func TestStrictConditionalReportsCycle(t *testing.T) {
	funcs := DefaultRegistry()
	funcs["IF"] = NewStrict("if", func(args []float64) (float64, error) {
		if len(args) != 3 {
			return 0, ArityError("if", 3)
		}
		if args[0] != 0 {
			return args[1], nil
		}
		return args[2], nil
	})
	table := compile(t, funcs, map[string]string{"D1": "=IF(0,D1,1)"})

	_, err := evalCell(table, "D1")
	assert.ErrorIs(t, err, ErrCircularReference)
}

func TestEvaluateSiblingReferencesAreNotCycles(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"E1": "=E2+E2*E2",
		"E2": "=E3*2",
		"E3": "4",
		"E4": "=IF(E3,E3,E3)+E3",
	})

	got, err := evalCell(table, "E1")
	require.NoError(t, err)
	assert.Equal(t, 72.0, got)

	got, err = evalCell(table, "E4")
	require.NoError(t, err)
	assert.Equal(t, 8.0, got)
}

func TestEvaluationStackIsReleasedOnFailure(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"B1": "=B2+B3",
		"B2": "5",
		"B3": "=SUM(B1,B2)",
		"F1": "=F2",
	})
	env := NewEnv(table)

	_, err := env.Find(grid.MustParseIndex("B1"))
	require.ErrorIs(t, err, ErrCircularReference)
	for _, name := range []string{"B1", "B2", "B3"} {
		assert.False(t, env.resolving(grid.MustParseIndex(name)), name)
	}

	_, err = env.Find(grid.MustParseIndex("F1"))
	require.ErrorIs(t, err, ErrMissingCell)
	assert.False(t, env.resolving(grid.MustParseIndex("F1")))

	// The same environment can resolve B2 again after both failures.
	got, err := env.Find(grid.MustParseIndex("B2"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)
}

func TestEvaluateMissingCell(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"A1": "=Z99+1",
		"A2": "text",
		"A3": "=A2",
	})

	_, err := evalCell(table, "A1")
	assert.ErrorIs(t, err, ErrMissingCell)
	assert.EqualError(t, err, "not formula or number cell -- Z99")

	_, err = evalCell(table, "A3")
	assert.ErrorIs(t, err, ErrMissingCell)
}

func TestEvaluateRecoversAfterDependencyChange(t *testing.T) {
	funcs := DefaultRegistry()
	table := compile(t, funcs, map[string]string{"A1": "=A2*2"})

	_, err := evalCell(table, "A1")
	require.ErrorIs(t, err, ErrMissingCell)

	a2, err := Parse("21", funcs)
	require.NoError(t, err)
	table[grid.MustParseIndex("A2")] = a2

	got, err := evalCell(table, "A1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)
}

func TestEvaluateDivisionByZero(t *testing.T) {
	table := compile(t, DefaultRegistry(), map[string]string{
		"A1": "=1/0",
		"A2": "=0/0",
		"A3": "=0-1/0",
	})

	got, err := evalCell(table, "A1")
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))

	got, err = evalCell(table, "A2")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))

	got, err = evalCell(table, "A3")
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, -1))
}

func TestEvaluateArity(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"=SIN()", "sin requires 1 parameter"},
		{"=SIN(1,2)", "sin requires 1 parameter"},
		{"=PI()", "pi requires 1 parameter"},
		{"=IF(1,2)", "if requires 3 parameters"},
		{"=IF(1,2,3,4)", "if requires 3 parameters"},
		{"=IF()", "if requires 3 parameters"},
		{"=ROUND()", "round requires 1 or 2 parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input, DefaultRegistry())
			require.NoError(t, err)
			_, err = Evaluate(e, Table{})
			assert.ErrorIs(t, err, ErrEvaluation)
			assert.ErrorIs(t, err, ErrArity)
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestConditionalArityCheckedBeforeArguments(t *testing.T) {
	// The arity error wins over the cycle the first argument would cause.
	table := compile(t, DefaultRegistry(), map[string]string{"G1": "=IF(G1,1)"})
	_, err := evalCell(table, "G1")
	assert.ErrorIs(t, err, ErrArity)
}
