package app

import (
	"fmt"
	"strings"

	"formulagrid/internal/grid"

	"github.com/gdamore/tcell/v2"
)

const helpText = "\n i / Enter - edit \n Ctrl+Enter - save&stay \n Shift/Alt+Enter - newline \n Delete - erase cell \n : - command \n = - formula \n Ctrl←/Ctrl→ - col width \n Ctrl↑/Ctrl↓ - row height \n PgUp/PgDn/Home/End - scroll \n :w [file] | :o file | :wq | :q \n :cw N | :rh N \n "

var (
	headerStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	activeStyle   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	selectedStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
	statusStyle   = tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorWhite)
	caretStyle    = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorLightGray)
)

func (a *App) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()

	// header row: column names
	x := a.LeftGutter
	for c := a.ViewCol; c < len(a.ColWidths); c++ {
		wc := a.ColWidths[c]
		style := headerStyle
		if c == a.CurCol {
			style = activeStyle
			a.printTextFixedWidth(s, x, 0, "", style, wc)
		}
		a.printPadded(s, x, 0, grid.ColumnName(uint32(c)), style, wc)

		x += wc
		if x >= w {
			break
		}
	}

	y := 1
	for r := a.ViewRow; r < len(a.RowHeights); r++ {
		if y >= h-a.StatusLines {
			break
		}
		gutterStyle := headerStyle
		if r == a.CurRow {
			gutterStyle = activeStyle
		}
		a.printTextFixedWidth(s, 0, y, fmt.Sprintf("%d", r+1), gutterStyle, a.LeftGutter-1)

		x = a.LeftGutter
		hh := a.RowHeights[r]
		for c := a.ViewCol; c < len(a.ColWidths); c++ {
			wc := a.ColWidths[c]
			selected := r == a.CurRow && c == a.CurCol

			text := a.GetDisplayText(r, c)
			if a.Mode == modeInsert && selected {
				text = a.InputBuf
			}
			style := tcell.StyleDefault
			if selected {
				style = selectedStyle
			}

			lines := a.splitLines(text, hh)
			for dy := 0; dy < hh; dy++ {
				if y+dy >= h-a.StatusLines {
					break
				}
				a.printTextFixedWidth(s, x, y+dy, "", style, wc)
				a.printPadded(s, x, y+dy, lines[dy], style, wc)
			}

			x += wc
			if x >= w {
				break
			}
		}
		y += hh
	}

	statusY := maxInt(0, h-a.StatusLines)
	statusLeft := fmt.Sprintf("Mode:%s  Cell:%s  cw(cur)=%d rh(cur)=%d  View:%d,%d",
		a.Mode, a.Current(), a.ColWidths[a.CurCol], a.RowHeights[a.CurRow], a.ViewRow+1, a.ViewCol+1)
	a.printTextFixedWidth(s, 0, statusY, statusLeft, statusStyle, w)
	if a.Mode == modeInsert {
		a.printTextFixedWidth(s, 0, statusY+1, "EDIT: "+a.InputBuf, statusStyle, w)
	} else {
		a.printTextFixedWidth(s, 0, statusY+1, a.statusText(), statusStyle, w)
	}

	if a.HelpVisible {
		a.drawHelpPopup(s, helpText)
	}

	if a.Mode == modeInsert {
		a.drawCaret(s)
	} else {
		s.HideCursor()
	}
	s.Show()
}

// drawCaret marks the end of the edit buffer inside the current cell.
func (a *App) drawCaret(s tcell.Screen) {
	w, h := s.Size()
	cellX := a.LeftGutter
	for cc := a.ViewCol; cc < a.CurCol && cc < len(a.ColWidths); cc++ {
		cellX += a.ColWidths[cc]
	}
	cellY := 1
	for rr := a.ViewRow; rr < a.CurRow && rr < len(a.RowHeights); rr++ {
		cellY += a.RowHeights[rr]
	}
	if a.CurCol < a.ViewCol || a.CurRow < a.ViewRow || cellX >= w || cellY >= h-a.StatusLines {
		s.HideCursor()
		return
	}

	lines := strings.Split(a.InputBuf, "\n")
	last := len(lines) - 1
	colW := a.ColWidths[a.CurCol]
	rowH := a.RowHeights[a.CurRow]

	cx := cellX + minInt(runeLen(lines[last]), maxInt(0, colW-1))
	if innerW := colW - 2*a.CellPadding; innerW >= 1 {
		cx = cellX + a.CellPadding + minInt(runeLen(lines[last]), innerW-1)
	}
	cy := cellY + minInt(last, maxInt(0, rowH-1))
	if cx < w && cy < h {
		s.SetContent(cx, cy, '▏', nil, caretStyle)
	} else {
		s.HideCursor()
	}
}

// ----------------------------- Helpers -----------------------------

func (a *App) EnsureColExists(idx int) {
	for len(a.ColWidths) <= idx {
		a.ColWidths = append(a.ColWidths, a.DefaultWidth)
	}
}

func (a *App) EnsureRowExists(idx int) {
	for len(a.RowHeights) <= idx {
		a.RowHeights = append(a.RowHeights, a.DefaultHeight)
	}
}

// printPadded prints str inside a cell of width wc, keeping the padding
// clear when the cell is wide enough.
func (a *App) printPadded(s tcell.Screen, x, y int, str string, style tcell.Style, wc int) {
	innerW := wc - 2*a.CellPadding
	if innerW > 0 {
		a.printTextFixedWidth(s, x+a.CellPadding, y, str, style, innerW)
	} else {
		a.printTextFixedWidth(s, x, y, str, style, wc)
	}
}

func (a *App) printTextFixedWidth(s tcell.Screen, x, y int, str string, style tcell.Style, width int) {
	runes := []rune(str)
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		if x+i >= 0 && y >= 0 {
			s.SetContent(x+i, y, ch, nil, style)
		}
	}
}

// splitLines returns exactly maxLines lines of text.
func (a *App) splitLines(text string, maxLines int) []string {
	if maxLines <= 0 {
		return []string{}
	}
	out := make([]string, maxLines)
	copy(out, strings.Split(text, "\n"))
	return out
}

func (a *App) drawHelpPopup(s tcell.Screen, help string) {
	w, h := s.Size()
	if w < 10 || h < 5 {
		return
	}

	padding := 4
	maxPW := w - 6
	maxPH := h - 6

	innerW := minInt(maxPW-padding*2, 50)
	if innerW < 30 {
		innerW = maxInt(30, maxPW-padding*2)
	}
	innerW = minInt(innerW, maxPW-padding*2)

	lines := wrapText(help, innerW)
	if len(lines) > maxPH-padding*2 {
		lines = lines[:maxInt(0, maxPH-padding*2)]
	}
	innerH := maxInt(len(lines), 3)

	pw := innerW + padding*2
	ph := innerH + padding*2
	left := (w - pw) / 2
	top := (h - ph) / 2

	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDefault)
	bgStyle := tcell.StyleDefault.Background(tcell.ColorDefault).Foreground(tcell.ColorWhite)

	for yy := 0; yy < ph; yy++ {
		for xx := 0; xx < pw; xx++ {
			s.SetContent(left+xx, top+yy, ' ', nil, bgStyle)
		}
	}

	s.SetContent(left, top, '┌', nil, borderStyle)
	s.SetContent(left+pw-1, top, '┐', nil, borderStyle)
	s.SetContent(left, top+ph-1, '└', nil, borderStyle)
	s.SetContent(left+pw-1, top+ph-1, '┘', nil, borderStyle)
	for xx := 1; xx < pw-1; xx++ {
		s.SetContent(left+xx, top, '─', nil, borderStyle)
		s.SetContent(left+xx, top+ph-1, '─', nil, borderStyle)
	}
	for yy := 1; yy < ph-1; yy++ {
		s.SetContent(left, top+yy, '│', nil, borderStyle)
		s.SetContent(left+pw-1, top+yy, '│', nil, borderStyle)
	}

	vOffset := (ph - padding*2 - innerH) / 2
	for i, ln := range lines {
		a.printTextFixedWidth(s, left+padding, top+padding+vOffset+i, ln, bgStyle, innerW)
	}
}

// wrapText breaks s into lines of at most max runes, each indented by one
// space. Blank lines separate the original paragraphs.
func wrapText(s string, max int) []string {
	if max <= 2 {
		return []string{s}
	}

	var result []string
	paragraphs := strings.Split(s, "\n")

	for pi, para := range paragraphs {
		words := strings.Fields(para)
		if len(words) == 0 {
			result = append(result, "")
			continue
		}

		cur := " "
		for _, w := range words {
			for _, piece := range chunkString(w, max-1) {
				switch {
				case runeLen(cur) == 1:
					cur += piece
				case runeLen(cur)+1+runeLen(piece) <= max:
					cur += " " + piece
				default:
					result = append(result, cur)
					cur = " " + piece
				}
			}
		}
		result = append(result, cur)

		if pi < len(paragraphs)-1 {
			result = append(result, "")
		}
	}
	return result
}

func runeLen(s string) int {
	return len([]rune(s))
}

func chunkString(s string, size int) []string {
	r := []rune(s)
	var out []string
	for i := 0; i < len(r); i += size {
		j := minInt(i+size, len(r))
		out = append(out, string(r[i:j]))
	}
	return out
}

// ----------------------------- Viewport / Geometry -----------------------------

// visibleSpan counts how many of sizes, starting at from, fit in room.
// It is never less than one.
func visibleSpan(sizes []int, from, room int) int {
	sum, n := 0, 0
	for i := from; i < len(sizes); i++ {
		if sum+sizes[i] > room {
			break
		}
		sum += sizes[i]
		n++
	}
	return maxInt(n, 1)
}

func (a *App) ComputeVisible(s tcell.Screen) (visibleRows, visibleCols int) {
	w, h := s.Size()
	usableW := maxInt(1, w-a.LeftGutter)
	usableH := maxInt(1, h-a.StatusLines-1)
	return visibleSpan(a.RowHeights, a.ViewRow, usableH), visibleSpan(a.ColWidths, a.ViewCol, usableW)
}

func (a *App) EnsureCursorVisible(s tcell.Screen) {
	if s == nil {
		return
	}
	visibleRows, visibleCols := a.ComputeVisible(s)

	if a.CurCol < a.ViewCol {
		a.ViewCol = a.CurCol
	} else if a.CurCol >= a.ViewCol+visibleCols {
		a.ViewCol = a.CurCol - visibleCols + 1
	}
	a.ViewCol = clamp(a.ViewCol, 0, len(a.ColWidths)-1)

	if a.CurRow < a.ViewRow {
		a.ViewRow = a.CurRow
	} else if a.CurRow >= a.ViewRow+visibleRows {
		a.ViewRow = a.CurRow - visibleRows + 1
	}
	a.ViewRow = clamp(a.ViewRow, 0, len(a.RowHeights)-1)
}

func clamp(v, lo, hi int) int {
	return maxInt(lo, minInt(v, hi))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
