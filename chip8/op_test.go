package chip8

import (
	"fmt"
	"testing"
)

func TestDecodeEncode(t *testing.T) {
	for _, c := range []struct {
		word uint16
		in   Instruction
		str  string
	}{
		{0x00e0, Instruction{Op: Clear}, "clear"},
		{0x00ee, Instruction{Op: Ret}, "ret"},
		{0x00fd, Instruction{Op: Exit}, "exit"},
		{0x1234, Instruction{Op: Jmp, NNN: 0x234}, "jmp 564"},
		{0x2abc, Instruction{Op: Call, NNN: 0xabc}, "call 2748"},
		{0x3a2a, Instruction{Op: SeImm, X: 0xa, NN: 0x2a}, "se r10 42"},
		{0x4a2a, Instruction{Op: SneImm, X: 0xa, NN: 0x2a}, "sne r10 42"},
		{0x5ab0, Instruction{Op: SeReg, X: 0xa, Y: 0xb}, "se r10 r11"},
		{0x612a, Instruction{Op: MovImm, X: 1, NN: 0x2a}, "mov r1 42"},
		{0x712a, Instruction{Op: AddImm, X: 1, NN: 0x2a}, "add r1 42"},
		{0x8120, Instruction{Op: MovReg, X: 1, Y: 2}, "mov r1 r2"},
		{0x8121, Instruction{Op: Or, X: 1, Y: 2}, "or r1 r2"},
		{0x8122, Instruction{Op: And, X: 1, Y: 2}, "and r1 r2"},
		{0x8123, Instruction{Op: Xor, X: 1, Y: 2}, "xor r1 r2"},
		{0x8124, Instruction{Op: AddReg, X: 1, Y: 2}, "add r1 r2"},
		{0x8125, Instruction{Op: Sub, X: 1, Y: 2}, "sub r1 r2"},
		{0x8126, Instruction{Op: Shr, X: 1, Y: 2}, "shr r1 r2"},
		{0x8127, Instruction{Op: Subn, X: 1, Y: 2}, "subn r1 r2"},
		{0x812e, Instruction{Op: Shl, X: 1, Y: 2}, "shl r1 r2"},
		{0x9ab0, Instruction{Op: SneReg, X: 0xa, Y: 0xb}, "sne r10 r11"},
		{0xa345, Instruction{Op: Ldi, NNN: 0x345}, "ldi 837"},
		{0xd125, Instruction{Op: Draw, X: 1, Y: 2, N: 5}, "draw r1 r2 5"},
		{0xe39e, Instruction{Op: Skp, X: 3}, "skp r3"},
		{0xe3a1, Instruction{Op: Sknp, X: 3}, "sknp r3"},
		{0xf307, Instruction{Op: Ldd, X: 3}, "ldd r3"},
		{0xf30a, Instruction{Op: Input, X: 3}, "input r3"},
		{0xf315, Instruction{Op: Delay, X: 3}, "delay r3"},
		{0xf318, Instruction{Op: Sound, X: 3}, "sound r3"},
		{0xf31e, Instruction{Op: Adi, X: 3}, "adi r3"},
		{0xf329, Instruction{Op: Ldf, X: 3}, "ldf r3"},
		{0xf333, Instruction{Op: Bcd, X: 3}, "bcd r3"},
		{0xf355, Instruction{Op: Str, X: 3}, "str r3"},
		{0xf365, Instruction{Op: Ldr, X: 3}, "ldr r3"},
	} {
		t.Run(fmt.Sprintf("%.4x", c.word), func(t *testing.T) {
			in, ok := Decode(c.word)
			if !ok {
				t.Fatalf("Decode(%.4x) failed", c.word)
			}
			if in != c.in {
				t.Errorf("Decode(%.4x) == %+v, want %+v", c.word, in, c.in)
			}
			if g := in.Encode(); g != c.word {
				t.Errorf("Encode() == %.4x, want %.4x", g, c.word)
			}
			if g := in.String(); g != c.str {
				t.Errorf("String() == %q, want %q", g, c.str)
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, word := range []uint16{
		0x0000,
		0x0001, // machine routine
		0x00ff,
		0x5ab1, // bad low nibble
		0x8128,
		0x812f,
		0x9ab7,
		0xb123, // jump-with-offset is not supported
		0xc123, // nor is rnd
		0xe300,
		0xf300,
		0xf3ff,
	} {
		t.Run(fmt.Sprintf("%.4x", word), func(t *testing.T) {
			if in, ok := Decode(word); ok {
				t.Errorf("Decode(%.4x) == %+v, want failure", word, in)
			}
		})
	}
}

func TestDecodeEncodeAll(t *testing.T) {
	// Every decodable word must survive an encode round trip, and every
	// word must match at most one instruction form.
	n := 0
	for w := 0; w <= 0xffff; w++ {
		word := uint16(w)
		in, ok := Decode(word)
		if !ok {
			continue
		}
		n++
		if g := in.Encode(); g != word {
			t.Fatalf("Encode(Decode(%.4x)) == %.4x", word, g)
		}
	}
	if n == 0 {
		t.Fatal("no words decoded")
	}
}

func TestLookupOp(t *testing.T) {
	for _, c := range []struct {
		name string
		form Form
		op   Op
		ok   bool
	}{
		{"mov", FormRegImm, MovImm, true},
		{"mov", FormRegReg, MovReg, true},
		{"add", FormRegImm, AddImm, true},
		{"add", FormRegReg, AddReg, true},
		{"se", FormRegImm, SeImm, true},
		{"se", FormRegReg, SeReg, true},
		{"jmp", FormAddr, Jmp, true},
		{"draw", FormRegRegNib, Draw, true},
		{"input", FormReg, Input, true},
		{"ret", FormNone, Ret, true},
		{"mov", FormAddr, 0, false},
		{"nonesuch", FormNone, 0, false},
	} {
		t.Run(fmt.Sprintf("%s_%d", c.name, c.form), func(t *testing.T) {
			op, ok := LookupOp(c.name, c.form)
			if ok != c.ok {
				t.Fatalf("LookupOp(%q, %v) ok == %v, want %v", c.name, c.form, ok, c.ok)
			}
			if ok && op != c.op {
				t.Errorf("LookupOp(%q, %v) == %v, want %v", c.name, c.form, op, c.op)
			}
		})
	}
	if !KnownMnemonic("mov") || KnownMnemonic("nonesuch") {
		t.Error("KnownMnemonic misclassifies")
	}
}
