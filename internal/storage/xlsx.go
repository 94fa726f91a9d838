package storage

import (
	"fmt"
	"strings"

	"formulagrid/internal/grid"

	"github.com/xuri/excelize/v2"
)

// SaveXLSX writes src to the first worksheet of a new workbook. Formula
// cells become Excel formulas whose cached value is the evaluated number,
// or the error text when evaluation fails. Number cells are stored as
// numbers and everything else as text.
func SaveXLSX(src Source, filename string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	cells := src.Cells()
	for _, idx := range cells.Sorted() {
		addr := idx.String()
		text := cells[idx]
		v, err := src.Value(idx)

		if body, ok := strings.CutPrefix(text, "="); ok {
			var cached any = src.Display(idx, v, err)
			if err == nil {
				cached = v
			}
			if err := f.SetCellValue(sheet, addr, cached); err != nil {
				return fmt.Errorf("cell %s: %w", addr, err)
			}
			if err := f.SetCellFormula(sheet, addr, body); err != nil {
				return fmt.Errorf("cell %s: %w", addr, err)
			}
			continue
		}

		var value any = text
		if err == nil {
			value = v
		}
		if err := f.SetCellValue(sheet, addr, value); err != nil {
			return fmt.Errorf("cell %s: %w", addr, err)
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("error writing XLSX: %w", err)
	}
	return nil
}

// LoadXLSX reads the first worksheet of a workbook. Cells holding a formula
// load as "=" followed by the formula, others as their displayed value.
// A formula cell with no cached value at the end of a row is not seen.
func LoadXLSX(filename string) (grid.Cells, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return grid.Cells{}, nil
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("error reading XLSX: %w", err)
	}

	cells := grid.Cells{}
	for r, row := range rows {
		for c, val := range row {
			idx := grid.Index{Col: uint32(c), Row: uint32(r)}
			formula, err := f.GetCellFormula(sheet, idx.String())
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", idx, err)
			}
			if formula != "" {
				cells[idx] = "=" + strings.TrimPrefix(formula, "=")
			} else if val != "" {
				cells[idx] = val
			}
		}
	}
	return cells, nil
}
