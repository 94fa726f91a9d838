package app

import (
	"github.com/gdamore/tcell/v2"
)

const maxPopupInput = 4096

// PopupInput shows a modal one-line prompt over the sheet, starting with
// initial. It returns the text and true on Enter, or "" and false on Esc.
func (a *App) PopupInput(s tcell.Screen, prompt, initial string) (string, bool) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorReset)

	promptRunes := []rune(prompt)
	buf := []rune(initial)
	pos := len(buf)

	w, h := s.Size()
	contentW := minInt(maxInt(20, len(promptRunes)+len(buf)+2), w-4)
	boxW := contentW + 4
	boxH := 3
	left := (w - boxW) / 2
	top := (h - boxH) / 2

	drawBox := func() {
		for y := top; y < top+boxH; y++ {
			for x := left; x < left+boxW; x++ {
				s.SetContent(x, y, ' ', nil, style)
			}
		}
		for x := left; x < left+boxW; x++ {
			s.SetContent(x, top, tcell.RuneHLine, nil, style)
			s.SetContent(x, top+boxH-1, tcell.RuneHLine, nil, style)
		}
		for y := top; y < top+boxH; y++ {
			s.SetContent(left, y, tcell.RuneVLine, nil, style)
			s.SetContent(left+boxW-1, y, tcell.RuneVLine, nil, style)
		}
		s.SetContent(left, top, tcell.RuneULCorner, nil, style)
		s.SetContent(left+boxW-1, top, tcell.RuneURCorner, nil, style)
		s.SetContent(left, top+boxH-1, tcell.RuneLLCorner, nil, style)
		s.SetContent(left+boxW-1, top+boxH-1, tcell.RuneLRCorner, nil, style)

		x := left + 2
		y := top + 1
		for i, r := range promptRunes {
			s.SetContent(x+i, y, r, nil, style)
		}
		x += len(promptRunes) + 1

		maxField := maxInt(1, boxW-4-len(promptRunes))
		shown := buf
		start := 0
		if len(shown) > maxField {
			if pos > maxField {
				start = pos - maxField
			}
			shown = shown[start:minInt(start+maxField, len(shown))]
		}
		for i := 0; i < maxField; i++ {
			r := ' '
			if i < len(shown) {
				r = shown[i]
			}
			s.SetContent(x+i, y, r, nil, style)
		}
		s.ShowCursor(maxInt(left+1, x+pos-start), y)
	}

	redraw := func() {
		a.Draw(s)
		drawBox()
		s.Show()
	}
	done := func(text string, ok bool) (string, bool) {
		s.HideCursor()
		a.Draw(s)
		return text, ok
	}

	redraw()
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return done("", false)
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEsc:
				return done("", false)
			case tcell.KeyEnter:
				return done(string(buf), true)
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if pos > 0 {
					buf = append(buf[:pos-1], buf[pos:]...)
					pos--
				}
			case tcell.KeyDelete:
				if pos < len(buf) {
					buf = append(buf[:pos], buf[pos+1:]...)
				}
			case tcell.KeyLeft:
				if pos > 0 {
					pos--
				}
			case tcell.KeyRight:
				if pos < len(buf) {
					pos++
				}
			case tcell.KeyHome:
				pos = 0
			case tcell.KeyEnd:
				pos = len(buf)
			default:
				if r := ev.Rune(); r != 0 && len(buf) < maxPopupInput {
					buf = append(buf[:pos], append([]rune{r}, buf[pos:]...)...)
					pos++
				}
			}
			redraw()
		case *tcell.EventResize:
			s.Sync()
			w, h = s.Size()
			boxW = minInt(boxW, w-4)
			left = (w - boxW) / 2
			top = (h - boxH) / 2
			redraw()
		}
	}
}
