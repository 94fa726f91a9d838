// Package app is the interactive terminal editor for a sheet.
package app

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"formulagrid/internal/calc"
	"formulagrid/internal/grid"
	"formulagrid/internal/sheet"
	"formulagrid/internal/storage"

	"github.com/gdamore/tcell/v2"
)

const (
	modeNormal = "normal"
	modeInsert = "insert"
)

type App struct {
	// layout
	LeftGutter    int
	StatusLines   int
	DefaultWidth  int
	DefaultHeight int

	CellPadding int

	ColWidths  []int
	RowHeights []int

	Sheet *sheet.Sheet
	// File is the path :w writes to when given no argument.
	File string

	// cursor / view
	CurRow  int
	CurCol  int
	ViewRow int
	ViewCol int

	// UI state
	Mode     string // normal | insert
	InputBuf string
	Message  string
	Quit     bool

	// editing behavior options
	EnterStartsEdit     bool
	PrintableStartsEdit bool
	MoveAfterEnter      bool
	SelectAllOnEdit     bool
	ReplaceOnNextRune   bool

	HelpVisible bool

	logger *slog.Logger
}

func NewApp(s *sheet.Sheet, logger *slog.Logger) *App {
	a := &App{
		LeftGutter:      4,
		StatusLines:     2,
		DefaultWidth:    16,
		DefaultHeight:   1,
		CellPadding:     1,
		Sheet:           s,
		Mode:            modeNormal,
		EnterStartsEdit: true,
		MoveAfterEnter:  true,
		SelectAllOnEdit: true,
		logger:          logger,
	}
	a.EnsureColExists(7)
	a.EnsureRowExists(7)
	a.fitToSheet()
	return a
}

// Run draws the sheet on screen and handles events until the user quits.
func (a *App) Run(s tcell.Screen) {
	for !a.Quit {
		a.EnsureCursorVisible(s)
		a.Draw(s)
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			a.HandleKeyEvent(s, ev)
		case *tcell.EventResize:
			s.Sync()
		case nil:
			return
		}
	}
}

// Current is the index of the cell under the cursor.
func (a *App) Current() grid.Index {
	return grid.Index{Col: uint32(a.CurCol), Row: uint32(a.CurRow)}
}

// fitLimit caps how far fitToSheet grows the column and row tables.
// Cells beyond it are reached by moving the cursor.
const fitLimit = 256

// fitToSheet makes room for the non-empty cells, up to fitLimit.
func (a *App) fitToSheet() {
	cols, rows := a.Sheet.Cells().Bounds()
	a.EnsureColExists(min(cols, fitLimit) - 1)
	a.EnsureRowExists(min(rows, fitLimit) - 1)
}

// ----------------------------- Events / Input -----------------------------

func (a *App) HandleKeyEvent(s tcell.Screen, ev *tcell.EventKey) {
	if a.Mode == modeInsert {
		a.handleInsertKey(ev)
		return
	}

	// The help popup only closes with Esc or '?'.
	if a.HelpVisible {
		if ev.Key() == tcell.KeyEsc || ev.Rune() == '?' {
			a.HelpVisible = false
		}
		return
	}

	a.Message = ""
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
	case tcell.KeyCtrlC:
		a.Quit = true
	case tcell.KeyUp:
		if mod&tcell.ModCtrl != 0 {
			if a.CurRow < len(a.RowHeights) && a.RowHeights[a.CurRow] > 1 {
				a.RowHeights[a.CurRow]--
			}
		} else if a.CurRow > 0 {
			a.CurRow--
		}
	case tcell.KeyDown:
		if mod&tcell.ModCtrl != 0 {
			if a.CurRow < len(a.RowHeights) {
				a.RowHeights[a.CurRow]++
			}
		} else {
			a.CurRow++
			a.EnsureRowExists(a.CurRow)
		}
	case tcell.KeyLeft:
		if mod&tcell.ModCtrl != 0 {
			if a.CurCol < len(a.ColWidths) && a.ColWidths[a.CurCol] > 4 {
				a.ColWidths[a.CurCol]--
			}
		} else if a.CurCol > 0 {
			a.CurCol--
		}
	case tcell.KeyRight:
		if mod&tcell.ModCtrl != 0 {
			if a.CurCol < len(a.ColWidths) {
				a.ColWidths[a.CurCol]++
			}
		} else {
			a.CurCol++
			a.EnsureColExists(a.CurCol)
		}
	case tcell.KeyPgUp:
		vr, _ := a.ComputeVisible(s)
		a.ViewRow = maxInt(0, a.ViewRow-vr)
	case tcell.KeyPgDn:
		vr, _ := a.ComputeVisible(s)
		a.ViewRow += vr
		if a.ViewRow >= len(a.RowHeights) {
			a.ViewRow = maxInt(0, len(a.RowHeights)-1)
		}
	case tcell.KeyHome:
		a.ViewCol = 0
		a.ViewRow = 0
	case tcell.KeyEnd:
		a.ViewCol = maxInt(0, len(a.ColWidths)-1)
		a.ViewRow = maxInt(0, len(a.RowHeights)-1)
	case tcell.KeyDelete:
		a.Sheet.Erase(a.Current())
	case tcell.KeyEnter:
		if a.EnterStartsEdit {
			a.startEdit()
		}
	default:
		r := ev.Rune()
		switch r {
		case 0:
		case 'q':
			a.Quit = true
		case 'i':
			a.startEdit()
		case ':':
			if command, ok := a.PopupInput(s, ":", ""); ok {
				a.ExecuteCommand(command)
			}
		case '=':
			if value, ok := a.PopupInput(s, "", "="); ok {
				a.SetCellValue(value)
			}
		case '?':
			a.HelpVisible = true
		default:
			if a.PrintableStartsEdit {
				a.Mode = modeInsert
				a.InputBuf = string(r)
				a.ReplaceOnNextRune = false
			}
		}
	}
}

func (a *App) handleInsertKey(ev *tcell.EventKey) {
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
		a.Mode = modeNormal
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
	case tcell.KeyEnter:
		// Shift+Enter or Alt+Enter keeps a newline in the text.
		if mod&tcell.ModShift != 0 || mod&tcell.ModAlt != 0 {
			a.InputBuf += "\n"
			return
		}
		a.SetCellValue(a.InputBuf)
		a.Mode = modeNormal
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
		// Ctrl+Enter stays on the cell.
		if mod&tcell.ModCtrl == 0 && a.MoveAfterEnter {
			a.CurRow++
			a.EnsureRowExists(a.CurRow)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.InputBuf) > 0 {
			runes := []rune(a.InputBuf)
			a.InputBuf = string(runes[:len(runes)-1])
		}
		a.ReplaceOnNextRune = false
	default:
		if r := ev.Rune(); r != 0 {
			if a.ReplaceOnNextRune {
				a.InputBuf = string(r)
				a.ReplaceOnNextRune = false
			} else {
				a.InputBuf += string(r)
			}
		}
	}
}

func (a *App) startEdit() {
	a.Mode = modeInsert
	a.InputBuf = a.Sheet.Get(a.Current())
	a.ReplaceOnNextRune = a.SelectAllOnEdit
}

// SetCellValue stores text in the current cell; empty text erases it.
func (a *App) SetCellValue(text string) {
	a.EnsureColExists(a.CurCol)
	a.EnsureRowExists(a.CurRow)
	a.Sheet.Set(a.Current(), text)
}

// ----------------------------- Commands / Storage -----------------------------

func (a *App) ExecuteCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}
	switch parts[0] {
	case "q", "quit":
		a.Quit = true
	case "cw":
		if len(parts) >= 2 {
			if v, err := strconv.Atoi(parts[1]); err == nil && v >= 4 {
				for i := range a.ColWidths {
					a.ColWidths[i] = v
				}
			}
		}
	case "rh":
		if len(parts) >= 2 {
			if v, err := strconv.Atoi(parts[1]); err == nil && v >= 1 {
				for i := range a.RowHeights {
					a.RowHeights[i] = v
				}
			}
		}
	case "w", "wq":
		filename := a.File
		if len(parts) >= 2 {
			filename = parts[1]
		}
		if filename == "" {
			a.Message = "no file name"
			return
		}
		if err := storage.Save(filename, a.Sheet); err != nil {
			a.fail("save", filename, err)
			return
		}
		a.File = filename
		a.Message = fmt.Sprintf("written %s", filename)
		a.logger.Debug("sheet saved", "file", filename)
		if parts[0] == "wq" {
			a.Quit = true
		}
	case "o":
		if len(parts) < 2 {
			a.Message = "no file name"
			return
		}
		filename := parts[1]
		cells, err := storage.Open(filename)
		if err != nil {
			a.fail("open", filename, err)
			return
		}
		a.Sheet.Load(cells)
		a.File = filename
		a.fitToSheet()
		a.CurRow, a.CurCol, a.ViewRow, a.ViewCol = 0, 0, 0, 0
		a.Message = fmt.Sprintf("opened %s", filename)
	default:
		a.Message = fmt.Sprintf("unknown command -- %s", parts[0])
	}
}

func (a *App) fail(op, filename string, err error) {
	a.Message = fmt.Sprintf("%s %s: %v", op, filename, err)
	a.logger.Error(op+" failed", "file", filename, "err", err)
}

// ----------------------------- Display -----------------------------

func (a *App) GetDisplayText(r, c int) string {
	return a.Sheet.Evaluate(grid.Index{Col: uint32(c), Row: uint32(r)})
}

// statusText describes the current cell: its input and compiled form, or
// the last command's message.
func (a *App) statusText() string {
	if a.Message != "" {
		return a.Message
	}
	idx := a.Current()
	input := a.Sheet.Get(idx)
	if input == "" {
		return idx.String()
	}
	e, ok := a.Sheet.Expr(idx)
	if !ok {
		return fmt.Sprintf("%s: %s", idx, input)
	}
	status := fmt.Sprintf("%s: %s  %s", idx, input, calc.Render(e))
	if refs := calc.References(e); len(refs) > 0 {
		names := make([]string, len(refs))
		for i, ref := range refs {
			names[i] = ref.String()
		}
		status += "  uses " + strings.Join(names, " ")
	}
	return status
}
