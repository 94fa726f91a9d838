package app

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// Splash reveals the program name letter by letter and waits for a key.
func Splash(s tcell.Screen, delay time.Duration) {
	title := []struct {
		char  rune
		color tcell.Color
	}{
		{'F', tcell.ColorWhite},
		{'O', tcell.ColorWhite},
		{'R', tcell.ColorWhite},
		{'M', tcell.ColorWhite},
		{'U', tcell.ColorWhite},
		{'L', tcell.ColorWhite},
		{'A', tcell.ColorWhite},
		{'=', tcell.ColorYellow},
		{'G', tcell.ColorYellow},
		{'R', tcell.ColorYellow},
		{'I', tcell.ColorYellow},
		{'D', tcell.ColorYellow},
	}
	const hint = "Press any key to enter the application"

	width, height := s.Size()
	for reveal := 1; reveal <= len(title); reveal++ {
		s.Clear()

		startX := (width - len(title)) / 2
		y := height / 2
		for i := 0; i < reveal; i++ {
			style := tcell.StyleDefault.Foreground(title[i].color).Bold(true)
			s.SetContent(startX+i, y, title[i].char, nil, style)
		}

		startHintX := (width - len(hint)) / 2
		for i, ch := range hint {
			s.SetContent(startHintX+i, y+2, ch, nil, headerStyle)
		}

		s.Show()
		time.Sleep(delay)
	}

	for {
		switch s.PollEvent().(type) {
		case *tcell.EventKey, nil:
			return
		case *tcell.EventResize:
			s.Sync()
		}
	}
}
