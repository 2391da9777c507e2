package asm

import (
	"fmt"
	"strings"

	"github.com/jtmpu/chiprs/chip8"
)

// Disassemble translates a flat byte program back into source text, one
// instruction line per word, with a synthesized label ahead of every
// jump/call target. The output assembles back to the exact input bytes.
// It fails at the first word with no matching decode rule.
func Disassemble(program []byte) (string, error) {
	if len(program)%2 != 0 {
		return "", fmt.Errorf("program is %d bytes, not an even number", len(program))
	}

	// Scan one: collect every jump and call target that lands inside the
	// program on an instruction boundary. Targets elsewhere stay numeric.
	end := chip8.ProgramStart + uint16(len(program))
	targets := make(map[uint16]bool)
	for off := 0; off < len(program); off += 2 {
		in, ok := chip8.Decode(word(program, off))
		if !ok {
			return "", fmt.Errorf("no instruction encoded at offset %.4x: %.4x",
				off, word(program, off))
		}
		if in.Op != chip8.Jmp && in.Op != chip8.Call {
			continue
		}
		if t := in.NNN; t >= chip8.ProgramStart && t <= end && (t-chip8.ProgramStart)%2 == 0 {
			targets[t] = true
		}
	}

	// Scan two: emit.
	var b strings.Builder
	for off := 0; off < len(program); off += 2 {
		addr := chip8.ProgramStart + uint16(off)
		if targets[addr] {
			fmt.Fprintf(&b, "%s:\n", labelName(addr))
		}
		in, _ := chip8.Decode(word(program, off))
		if (in.Op == chip8.Jmp || in.Op == chip8.Call) && targets[in.NNN] {
			fmt.Fprintf(&b, "%s %s\n", in.Op.Mnemonic(), labelName(in.NNN))
			continue
		}
		fmt.Fprintf(&b, "%s\n", in)
	}
	if targets[end] {
		fmt.Fprintf(&b, "%s:\n", labelName(end))
	}
	return b.String(), nil
}

// labelName synthesizes the deterministic label for a target address, so
// repeated disassemblies of one binary agree.
func labelName(addr uint16) string {
	return fmt.Sprintf("L%03x", addr)
}

func word(program []byte, off int) uint16 {
	return uint16(program[off])<<8 | uint16(program[off+1])
}
