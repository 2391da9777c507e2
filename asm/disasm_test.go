package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	text, err := Disassemble([]byte{
		0x61, 0x05,
		0x81, 0x24,
		0xd1, 0x25,
		0x00, 0xfd,
	})
	assert.NoError(err)
	assert.Equal(src(
		"mov r1 5",
		"add r1 r2",
		"draw r1 r2 5",
		"exit",
		"",
	), text)
}

func TestDisassembleLabels(t *testing.T) {
	assert := assert.New(t)

	text, err := Disassemble([]byte{
		0x22, 0x04, // call 0x204
		0x12, 0x06, // jmp 0x206
		0x00, 0xee, // ret
	})
	assert.NoError(err)
	assert.Equal(src(
		"call L204",
		"jmp L206",
		"L204:",
		"ret",
		"L206:",
		"",
	), text)
}

func TestDisassembleOutOfRangeTarget(t *testing.T) {
	assert := assert.New(t)

	// A jump below the load base stays a numeric operand.
	text, err := Disassemble([]byte{0x11, 0x00})
	assert.NoError(err)
	assert.Equal("jmp 256\n", text)
}

func TestDisassembleErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := Disassemble([]byte{0x61})
	assert.EqualError(err, "program is 1 bytes, not an even number")

	_, err = Disassemble([]byte{0x61, 0x05, 0x0a, 0xbc})
	assert.EqualError(err, "no instruction encoded at offset 0002: 0abc")
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, source := range []string{
		src(
			"mov r1 5",
			"mov r2 10",
			"add r1 r2",
		),
		src(
			"start:",
			"ldf r1",
			"draw r2 r3 5",
			"call blink",
			"sne r1 0",
			"jmp start",
			"input r4",
			"exit",
			"blink: clear",
			"ret",
		),
		src(
			"loop:",
			"delay r0",
			"ldd r1",
			"sne r1 0",
			"jmp loop",
			"sound r2",
			"exit",
		),
	} {
		code, err := Assemble(source)
		assert.NoError(err)

		text, err := Disassemble(code)
		assert.NoError(err)

		// Assembling the disassembly reproduces the binary exactly.
		again, err := Assemble(text)
		assert.NoError(err)
		assert.Equal(code, again)

		// Disassembly is deterministic and stable after one pass.
		text2, err := Disassemble(again)
		assert.NoError(err)
		assert.Equal(text, text2)
	}
}

func TestDisassembleLineCount(t *testing.T) {
	assert := assert.New(t)

	code, err := Assemble(src(
		"a: mov r0 1",
		"b: mov r1 2",
		"jmp a",
		"call b",
	))
	assert.NoError(err)

	text, err := Disassemble(code)
	assert.NoError(err)

	instr, labels := 0, 0
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if strings.HasSuffix(line, ":") {
			labels++
		} else {
			instr++
		}
	}
	assert.Equal(len(code)/2, instr)
	assert.Equal(2, labels)
}
