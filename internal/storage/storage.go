// Package storage persists the raw input of a sheet's cells.
package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"formulagrid/internal/grid"
)

// Source is what the savers read from. *sheet.Sheet implements it.
type Source interface {
	Cells() grid.Cells
	Value(idx grid.Index) (float64, error)
	Display(idx grid.Index, v float64, err error) string
}

// Open loads cells from a .csv or .xlsx file.
func Open(path string) (grid.Cells, error) {
	switch ext(path) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// Save writes src to a .csv or .xlsx file.
func Save(path string, src Source) error {
	switch ext(path) {
	case ".csv":
		return SaveCSV(src.Cells(), path)
	case ".xlsx":
		return SaveXLSX(src, path)
	}
	return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// SaveCSV writes the raw input of cells to a CSV file, one record per row.
// Each record ends at the row's last non-empty cell.
func SaveCSV(cells grid.Cells, filename string) error {
	rows := map[uint32]map[uint32]string{}
	last := -1
	for idx, text := range cells {
		if text == "" {
			continue
		}
		if rows[idx.Row] == nil {
			rows[idx.Row] = map[uint32]string{}
		}
		rows[idx.Row][idx.Col] = text
		last = max(last, int(idx.Row))
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	for r := 0; r <= last; r++ {
		if err := w.Write(record(rows[uint32(r)])); err != nil {
			return fmt.Errorf("error writing CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return f.Close()
}

// blankRecord is written for rows with no cells. A bare newline would be
// skipped by the reader and shift the rows below it.
var blankRecord = []string{"", ""}

func record(row map[uint32]string) []string {
	if len(row) == 0 {
		return blankRecord
	}
	width := 0
	for c := range row {
		width = max(width, int(c)+1)
	}
	out := make([]string, width)
	for c, text := range row {
		out[c] = text
	}
	return out
}

// LoadCSV reads a file written by SaveCSV. Records may have different
// lengths.
func LoadCSV(filename string) (grid.Cells, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	cells := grid.Cells{}
	for rIdx, row := range records {
		for cIdx, val := range row {
			if val != "" {
				cells[grid.Index{Col: uint32(cIdx), Row: uint32(rIdx)}] = val
			}
		}
	}
	return cells, nil
}
