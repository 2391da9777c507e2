package chip8

import (
	"errors"
	"fmt"
)

// ErrExit is returned by Step when the program executes the exit
// instruction. It is a clean stop, not a fault.
var ErrExit = errors.New("exit")

// HaltCode signifies the kind of condition that halted execution.
type HaltCode byte

const (
	InvalidOpcode HaltCode = iota
	StackOverflow
	StackUnderflow
)

func (c HaltCode) String() string {
	if s, ok := map[HaltCode]string{
		InvalidOpcode:  "invalid opcode",
		StackOverflow:  "stack overflow",
		StackUnderflow: "stack underflow",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}

// HaltError is returned by Step when execution faults. The fault is sticky:
// every subsequent Step returns the same error without advancing state.
type HaltError struct {
	Code HaltCode
	Addr uint16 // address of the faulting instruction
	Word uint16 // the instruction word at Addr
}

func (e HaltError) Error() string {
	return fmt.Sprintf("%s executing %.4x at %.4x", e.Code, e.Word, e.Addr)
}

// Step executes the instruction at m.PC. It returns nil after a normal
// instruction, ErrExit after the exit instruction, and a HaltError if
// execution faults. A blocked machine makes no progress and returns nil;
// only PressKey resumes it. A halted machine re-reports its outcome.
func (m *Machine) Step() error {
	switch m.state {
	case Blocked:
		return nil
	case Halted:
		if m.fault != nil {
			return *m.fault
		}
		return ErrExit
	}

	word := m.word(m.PC)
	in, ok := Decode(word)
	if !ok {
		return m.halt(InvalidOpcode, word)
	}

	// next is where control goes after this instruction; jump, call, ret,
	// and the skips override it.
	next := m.PC + 2

	switch in.Op {
	case Clear:
		m.Frame = [FrameSize]byte{}
	case Ret:
		addr, ok := m.Stack.pop()
		if !ok {
			return m.halt(StackUnderflow, word)
		}
		next = addr
	case Exit:
		m.state = Halted
		return ErrExit
	case Jmp:
		next = in.NNN
	case Call:
		if !m.Stack.push(m.PC + 2) {
			return m.halt(StackOverflow, word)
		}
		next = in.NNN
	case SeImm:
		if m.V[in.X] == in.NN {
			next += 2
		}
	case SneImm:
		if m.V[in.X] != in.NN {
			next += 2
		}
	case SeReg:
		if m.V[in.X] == m.V[in.Y] {
			next += 2
		}
	case SneReg:
		if m.V[in.X] != m.V[in.Y] {
			next += 2
		}
	case MovImm:
		m.V[in.X] = in.NN
	case MovReg:
		m.V[in.X] = m.V[in.Y]
	case AddImm:
		m.V[in.X] += in.NN
	case AddReg:
		sum := uint16(m.V[in.X]) + uint16(m.V[in.Y])
		m.V[in.X] = byte(sum)
		m.setFlag(sum > 0xFF)
	case Or:
		m.V[in.X] |= m.V[in.Y]
	case And:
		m.V[in.X] &= m.V[in.Y]
	case Xor:
		m.V[in.X] ^= m.V[in.Y]
	case Sub:
		noBorrow := m.V[in.X] >= m.V[in.Y]
		m.V[in.X] -= m.V[in.Y]
		m.setFlag(noBorrow)
	case Subn:
		noBorrow := m.V[in.Y] >= m.V[in.X]
		m.V[in.X] = m.V[in.Y] - m.V[in.X]
		m.setFlag(noBorrow)
	case Shr:
		out := m.V[in.Y] & 0x01
		m.V[in.X] = m.V[in.Y] >> 1
		m.setFlag(out != 0)
	case Shl:
		out := m.V[in.Y] & 0x80
		m.V[in.X] = m.V[in.Y] << 1
		m.setFlag(out != 0)
	case Ldi:
		m.I = in.NNN
	case Draw:
		m.draw(in)
	case Skp:
		if m.keyHeld(m.V[in.X]) {
			next += 2
		}
	case Sknp:
		if !m.keyHeld(m.V[in.X]) {
			next += 2
		}
	case Ldd:
		m.V[in.X] = m.Delay
	case Input:
		// Suspend without advancing; PressKey completes the register
		// write and moves PC past this instruction.
		m.state = Blocked
		m.waitReg = in.X
		return nil
	case Delay:
		m.Delay = m.V[in.X]
	case Sound:
		m.Sound = m.V[in.X]
	case Adi:
		m.I = (m.I + uint16(m.V[in.X])) & 0x0FFF
	case Ldf:
		m.I = FontAddr(m.V[in.X])
	case Bcd:
		v := m.V[in.X]
		m.store(m.I, v/100)
		m.store(m.I+1, v/10%10)
		m.store(m.I+2, v%10)
	case Str:
		for r := byte(0); r <= in.X; r++ {
			m.store(m.I+uint16(r), m.V[r])
		}
	case Ldr:
		for r := byte(0); r <= in.X; r++ {
			m.V[r] = m.Mem[(m.I+uint16(r))&(MemSize-1)]
		}
	default:
		return m.halt(InvalidOpcode, word)
	}

	m.PC = next & (MemSize - 1)
	return nil
}

func (m *Machine) halt(code HaltCode, word uint16) error {
	m.fault = &HaltError{Code: code, Addr: m.PC, Word: word}
	m.state = Halted
	return *m.fault
}

func (m *Machine) setFlag(on bool) {
	if on {
		m.V[0xF] = 1
	} else {
		m.V[0xF] = 0
	}
}

func (m *Machine) store(addr uint16, v byte) {
	m.Mem[addr&(MemSize-1)] = v
}

// draw XORs an 8-wide sprite of in.N rows, read from memory at I, onto the
// framebuffer at (V[x], V[y]). Coordinates wrap modulo the framebuffer
// dimensions. VF is set to 1 if any lit pixel was cleared, else 0.
func (m *Machine) draw(in Instruction) {
	x0 := int(m.V[in.X]) % DisplayWidth
	y0 := int(m.V[in.Y]) % DisplayHeight
	collision := false
	for row := 0; row < int(in.N); row++ {
		bits := m.Mem[(m.I+uint16(row))&(MemSize-1)]
		y := (y0 + row) % DisplayHeight
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			x := (x0 + col) % DisplayWidth
			idx := y*DisplayWidth/8 + x/8
			mask := byte(0x80) >> (x % 8)
			if m.Frame[idx]&mask != 0 {
				collision = true
			}
			m.Frame[idx] ^= mask
		}
	}
	m.setFlag(collision)
}
