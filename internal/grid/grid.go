package grid

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Index is a zero-based (column, row) cell coordinate.
type Index struct {
	Col uint32
	Row uint32
}

// Less orders indices by column first, then by row.
func (i Index) Less(other Index) bool {
	if i.Col == other.Col {
		return i.Row < other.Row
	}
	return i.Col < other.Col
}

// String renders the coordinate: col 0,row 0 -> "A1", col 26,row 2 -> "AA3".
func (i Index) String() string {
	return ColumnName(i.Col) + strconv.FormatUint(uint64(i.Row)+1, 10)
}

// ColumnName: 0 -> A, 25 -> Z, 26 -> AA and so on
func ColumnName(col uint32) string {
	n := uint64(col) + 1
	var letters []byte
	for n > 0 {
		n--
		letters = append(letters, byte('A'+n%26))
		n /= 26
	}
	for l, r := 0, len(letters)-1; l < r; l, r = l+1, r-1 {
		letters[l], letters[r] = letters[r], letters[l]
	}
	return string(letters)
}

// InvalidCoordinateError is returned for text that is not a cell name.
type InvalidCoordinateError struct {
	Text   string
	Reason string
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid cell index -- %s -- %s", e.Reason, e.Text)
}

// ParseIndex parses names like A1 or AA10. The column must be uppercase
// letters and the 1-based row all digits.
func ParseIndex(text string) (Index, error) {
	if len(text) < 2 {
		return Index{}, &InvalidCoordinateError{Text: text, Reason: "too short"}
	}
	if !isUpper(text[0]) {
		return Index{}, &InvalidCoordinateError{Text: text, Reason: "doesnt start with upper character"}
	}

	i := 0
	var col uint64
	for i < len(text) && isUpper(text[i]) {
		col = col*26 + uint64(text[i]-'A') + 1
		if col > math.MaxUint32+1 {
			return Index{}, &InvalidCoordinateError{Text: text, Reason: "column out of range"}
		}
		i++
	}
	if i == len(text) {
		return Index{}, &InvalidCoordinateError{Text: text, Reason: "missing row"}
	}

	var row uint64
	for ; i < len(text); i++ {
		if !isDigit(text[i]) {
			return Index{}, &InvalidCoordinateError{Text: text, Reason: "rest is not digits"}
		}
		row = row*10 + uint64(text[i]-'0')
		if row > math.MaxUint32+1 {
			return Index{}, &InvalidCoordinateError{Text: text, Reason: "row out of range"}
		}
	}
	if row == 0 {
		return Index{}, &InvalidCoordinateError{Text: text, Reason: "rows start at 1"}
	}
	return Index{Col: uint32(col - 1), Row: uint32(row - 1)}, nil
}

// MustParseIndex is ParseIndex for literals known to be valid.
func MustParseIndex(text string) Index {
	idx, err := ParseIndex(text)
	if err != nil {
		panic(err)
	}
	return idx
}

// Cells maps coordinates to raw (uncompiled) cell text.
type Cells map[Index]string

// Bounds returns how many columns and rows the non-empty cells span,
// counting from A1.
func (c Cells) Bounds() (cols, rows int) {
	for idx, text := range c {
		if text == "" {
			continue
		}
		if int(idx.Col)+1 > cols {
			cols = int(idx.Col) + 1
		}
		if int(idx.Row)+1 > rows {
			rows = int(idx.Row) + 1
		}
	}
	return cols, rows
}

// Sorted returns the indices of non-empty cells in Index order.
func (c Cells) Sorted() []Index {
	out := make([]Index, 0, len(c))
	for idx, text := range c {
		if text != "" {
			out = append(out, idx)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Less(out[b]) })
	return out
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
