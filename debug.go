package main

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jtmpu/chiprs/chip8"
	"github.com/jtmpu/chiprs/emu"
)

type debugger struct {
	run *emu.Runner

	log   *tview.TextView
	disp  *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	dbg, brk *symbol

	mu      sync.Mutex
	syms    symbols
	watches []watch
}

type watch struct {
	symbol
	word bool
}

func (d *debugger) symbols() symbols {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syms
}

func (d *debugger) setSymbols(s symbols) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syms = s
}

func newDebugger() *debugger {
	d := &debugger{
		log: tview.NewTextView().
			SetMaxLines(1000),
		disp: tview.NewTextView().
			SetWrap(false),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.disp, chip8.DisplayWidth+1, 0, false).
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 4, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if cmd, arg, ok := strings.Cut(t, " "); ok {
			switch cmd {
			case "b", "break", "d", "debug", "w", "w2", "watch", "watch2":
				for _, s := range d.symbols().withLabelPrefix(arg) {
					entries = append(entries, cmd+" "+s.label)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		if cmd == "" {
			return
		}
		d.input.SetText("")
		if cmd == "exit" {
			d.app.Stop()
			return
		}
		if cmd, arg, ok := strings.Cut(cmd, " "); ok {
			switch cmd {
			case "b", "break", "d", "debug":
				s, ok := d.symbols().resolve(arg)
				if !ok {
					log.Printf("invalid addr %q", arg)
					return
				}
				d.run.Debug(cmd, s.addr)
				switch cmd[0] {
				case 'b':
					d.brk = &s
					log.Printf("set break %.4x", s.addr)
				case 'd':
					d.dbg = &s
					log.Printf("set debug %.4x", s.addr)
				}
				return
			case "w", "w2", "watch", "watch2":
				s, ok := d.symbols().resolve(arg)
				if !ok {
					log.Printf("invalid address %q", arg)
					return
				}
				d.mu.Lock()
				d.watches = append(d.watches,
					watch{symbol: s, word: strings.HasSuffix(cmd, "2")})
				d.mu.Unlock()
				log.Printf("watching %.4x", s.addr)
				return
			case "key":
				if len(arg) == 1 {
					if k, ok := hexDigit(arg[0]); ok {
						d.run.Key(emu.KeyEvent{Key: k, Down: true})
						d.run.Key(emu.KeyEvent{Key: k, Down: false})
						return
					}
				}
				log.Printf("invalid key %q", arg)
				return
			}
		}
		switch cmd {
		case "b", "break", "d", "debug":
			d.run.Debug(cmd, 0)
			switch cmd[0] {
			case 'b':
				d.brk = nil
				log.Print("cleared break")
			case 'd':
				d.dbg = nil
				log.Print("cleared debug")
			}
		case "p", "pause", "c", "cont", "s", "step":
			d.run.Debug(cmd, 0)
		default:
			log.Printf("unknown command %q", cmd)
		}
	})
	return d
}

func (d *debugger) Run() error { return d.app.Run() }

// StateFunc is the Runner's state callback. The machine is only valid for
// the duration of the call, so all content renders before the queued
// update runs.
func (d *debugger) StateFunc(m *chip8.Machine, k emu.StateKind) {
	var (
		watch = d.watchContent(m)
		disp  = displayContent(m.Pixels())
		state string
	)
	if k != emu.ClearState && k != emu.QuietState {
		state = stateMsg(d.symbols(), m.Snapshot(), k)
	}
	d.app.QueueUpdateDraw(func() {
		switch k {
		case emu.DebugState, emu.ClearState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case emu.BreakState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case emu.PauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case emu.HaltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.disp.SetText(disp)
		d.watch.SetText(watch)
		if k != emu.QuietState {
			d.state.SetText(state)
		}
	})
}

// displayContent renders the framebuffer as text, two pixel rows per text
// line using half-block characters.
func displayContent(pixels [chip8.FrameSize]byte) string {
	pixel := func(x, y int) bool {
		return pixels[y*chip8.DisplayWidth/8+x/8]&(0x80>>(x%8)) != 0
	}
	var b strings.Builder
	for y := 0; y < chip8.DisplayHeight; y += 2 {
		for x := 0; x < chip8.DisplayWidth; x++ {
			switch top, bot := pixel(x, y), pixel(x, y+1); {
			case top && bot:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bot:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func stateMsg(syms symbols, s chip8.Snapshot, k emu.StateKind) string {
	var (
		pcSym string
		sym   string
		instr = fmt.Sprintf("%.4x", s.Word)
	)
	if ss := syms.forAddr(s.PC); len(ss) > 0 {
		pcSym = ss[0].String() + " -> "
	}
	if s.NextOK {
		instr = s.Next.String()
		if s.Next.Op == chip8.Jmp || s.Next.Op == chip8.Call {
			if ss := syms.forAddr(s.Next.NNN); len(ss) > 0 {
				sym = ss[0].String()
			}
		}
	}
	kind := "       "
	switch k {
	case emu.BreakState:
		kind = "[break]"
	case emu.DebugState:
		kind = "[debug]"
	case emu.PauseState:
		kind = "[pause]"
	case emu.HaltState:
		kind = "[HALT!]"
	}
	msg := fmt.Sprintf("%.4x %- 14s %s %s%s\nstack: %s\ndt: %.2x st: %.2x\n",
		s.PC, instr, kind, pcSym, sym, stackString(s.Stack), s.Delay, s.Sound)
	if s.Fault != nil {
		msg += fmt.Sprintf("%v\n", s.Fault)
	}
	return msg
}

func stackString(addrs []uint16) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range addrs {
		fmt.Fprintf(&b, " %.3x", a)
	}
	b.WriteString(" )")
	return b.String()
}

func (d *debugger) watchContent(m *chip8.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if s := d.brk; s != nil {
		fmt.Fprintf(&b, "%s [%.4x] brk!\n", s.label, s.addr)
	}
	if s := d.dbg; s != nil {
		fmt.Fprintf(&b, "%s [%.4x] dbg?\n", s.label, s.addr)
	}
	for i := 0; i < chip8.NumRegisters; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "r%-2d %.2x", i, m.V[i])
	}
	fmt.Fprintf(&b, "\ni   %.4x", m.I)
	for _, w := range d.watches {
		fmt.Fprintf(&b, "\n%s [%.4x] ", w.label, w.addr)
		if w.word {
			fmt.Fprintf(&b, "%.2x%.2x",
				m.Mem[w.addr&(chip8.MemSize-1)],
				m.Mem[(w.addr+1)&(chip8.MemSize-1)])
		} else {
			fmt.Fprintf(&b, "  %.2x", m.Mem[w.addr&(chip8.MemSize-1)])
		}
	}
	return b.String()
}
