package main

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/jtmpu/chiprs/chip8"
	"github.com/jtmpu/chiprs/emu"
)

// screen renders the machine framebuffer in the terminal and translates
// terminal keys into keypad events. Terminals report no key-up events, so
// every press is released again after keyHold.
type screen struct {
	tc     tcell.Screen
	keymap map[rune]byte
}

const keyHold = 100 * time.Millisecond

var (
	styleOff = tcell.StyleDefault.
			Background(tcell.ColorBlack).
			Foreground(tcell.ColorBlack)
	styleOn = tcell.StyleDefault.
		Background(tcell.ColorWhite).
		Foreground(tcell.ColorWhite)
)

func newScreen(keymap map[rune]byte) (*screen, error) {
	tc, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := tc.Init(); err != nil {
		return nil, err
	}
	tc.HideCursor()
	tc.Clear()
	return &screen{tc: tc, keymap: keymap}, nil
}

// frameEvent carries one framebuffer copy from the run loop into the
// terminal event loop, which owns all tcell drawing.
type frameEvent struct {
	tcell.EventTime
	pixels [chip8.FrameSize]byte
}

// Frame is the Runner's display callback. It copies the framebuffer and
// hands it to the event loop; it never draws itself.
func (s *screen) Frame(m *chip8.Machine) {
	ev := &frameEvent{pixels: m.Pixels()}
	ev.SetEventNow()
	s.tc.PostEvent(ev)
}

// HandleInput runs the terminal event loop until the screen is closed or
// the user quits, feeding keypad events to r. Escape quits, space toggles
// pause, '.' steps one instruction while paused.
func (s *screen) HandleInput(r *emu.Runner) {
	paused := false
	for {
		switch ev := s.tc.PollEvent().(type) {
		case nil:
			return
		case *frameEvent:
			s.draw(ev.pixels)
		case *tcell.EventResize:
			s.tc.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				r.Halt()
				return
			}
			if ev.Rune() == ' ' {
				if paused {
					r.Debug("c", 0)
				} else {
					r.Debug("p", 0)
				}
				paused = !paused
				continue
			}
			if ev.Rune() == '.' {
				r.Debug("s", 0)
				continue
			}
			if k, ok := s.keymap[ev.Rune()]; ok {
				r.Key(emu.KeyEvent{Key: k, Down: true})
				time.AfterFunc(keyHold, func() {
					r.Key(emu.KeyEvent{Key: k, Down: false})
				})
			}
		}
	}
}

func (s *screen) draw(pixels [chip8.FrameSize]byte) {
	for y := 0; y < chip8.DisplayHeight; y++ {
		for x := 0; x < chip8.DisplayWidth; x++ {
			style := styleOff
			if pixels[y*chip8.DisplayWidth/8+x/8]&(0x80>>(x%8)) != 0 {
				style = styleOn
			}
			s.tc.SetContent(2*x, y, ' ', nil, style)
			s.tc.SetContent(2*x+1, y, ' ', nil, style)
		}
	}
	s.tc.Show()
}

func (s *screen) Close() {
	s.tc.Fini()
}
