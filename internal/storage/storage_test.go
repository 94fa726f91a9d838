package storage

import (
	"os"
	"path/filepath"
	"testing"

	"formulagrid/internal/calc"
	"formulagrid/internal/grid"
	"formulagrid/internal/sheet"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = grid.MustParseIndex

func sample() grid.Cells {
	return grid.Cells{
		at("A1"): "label, with comma",
		at("B1"): "=A2*2",
		at("A2"): "21",
		at("C3"): "=SUM(B1,A2)",
		at("B4"): "=FOO(",
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, SaveCSV(sample(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"label, with comma\",=A2*2\n21\n,,\"=SUM(B1,A2)\"\n,=FOO(\n", string(data))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, SaveCSV(grid.Cells{}, path))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveCSVRowsEndAtLastCell(t *testing.T) {
	tests := []struct {
		name  string
		cells grid.Cells
		want  string
	}{
		{"blank rows", grid.Cells{at("A1"): "1", at("A3"): "3"}, "1\n,\n3\n"},
		{"leading blank row", grid.Cells{at("B2"): "x"}, ",\n,x\n"},
		{"far column", grid.Cells{at("A1"): "1", at("E2"): "2"}, "1\n,,,,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sheet.csv")
			require.NoError(t, SaveCSV(tt.cells, path))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			got, err := LoadCSV(path)
			require.NoError(t, err)
			assert.Equal(t, tt.cells, got)
		})
	}
}

func TestSaveCSVDistantCell(t *testing.T) {
	cells := grid.Cells{at("A1"): "1", at("XFD2000"): "2"}
	path := filepath.Join(t.TempDir(), "far.csv")
	require.NoError(t, SaveCSV(cells, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	// "1\n", 1998 blank rows of ",\n", then 16383 commas and "2\n".
	assert.Equal(t, int64(2+1998*2+16383+2), info.Size())

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, cells, got)
}

func TestSaveXLSXEvaluatesEachCellOnce(t *testing.T) {
	m := sheet.NewMetrics(nil)
	s := sheet.New(calc.DefaultRegistry(), sheet.WithMetrics(m))
	s.Load(sample())

	require.NoError(t, SaveXLSX(s, filepath.Join(t.TempDir(), "sheet.xlsx")))
	// B1, A2 and C3 evaluate; A1 is text and B4 does not compile.
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("ok")))
}

func TestLoadCSVRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(path, []byte("1\n2,=A1+A2\n"), 0o644))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, grid.Cells{at("A1"): "1", at("A2"): "2", at("B2"): "=A1+A2"}, got)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "none.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestXLSXRoundTrip(t *testing.T) {
	s := sheet.New(calc.DefaultRegistry())
	s.Load(sample())

	path := filepath.Join(t.TempDir(), "sheet.xlsx")
	require.NoError(t, SaveXLSX(s, path))

	got, err := LoadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestOpenSaveDispatch(t *testing.T) {
	s := sheet.New(calc.DefaultRegistry())
	s.Load(sample())
	dir := t.TempDir()

	for _, name := range []string{"a.csv", "b.XLSX"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, s))
			got, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, sample(), got)
		})
	}

	assert.EqualError(t, Save(filepath.Join(dir, "c.ods"), s), `unsupported file type ".ods"`)
	_, err := Open(filepath.Join(dir, "c.txt"))
	assert.EqualError(t, err, `unsupported file type ".txt"`)
}
