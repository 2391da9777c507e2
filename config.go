package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/jtmpu/chiprs/emu"
)

// config is the optional TOML configuration: instruction and timer pacing
// plus the terminal-to-keypad mapping.
type config struct {
	CPUHz   int               `toml:"cpu_hz"`
	TimerHz int               `toml:"timer_hz"`
	Keymap  map[string]uint16 `toml:"keymap"` // terminal key to keypad code 0-15
}

// defaultKeymap lays the 4x4 keypad over the left of a QWERTY layout:
// 1234 / qwer / asdf / zxcv.
var defaultKeymap = map[rune]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, fmt.Errorf("reading config: %v", err)
	}
	if un := meta.Undecoded(); len(un) > 0 {
		return c, fmt.Errorf("unknown config key %q in %s", un[0], path)
	}
	for key, code := range c.Keymap {
		if len([]rune(key)) != 1 {
			return c, fmt.Errorf("keymap key %q in %s is not a single character", key, path)
		}
		if code > 0xf {
			return c, fmt.Errorf("keymap code %d for %q in %s exceeds 15", code, key, path)
		}
	}
	return c, nil
}

func (c config) runner() emu.Config {
	return emu.Config{CPUHz: c.CPUHz, TimerHz: c.TimerHz}
}

func (c config) keymap() map[rune]byte {
	if len(c.Keymap) == 0 {
		return defaultKeymap
	}
	m := make(map[rune]byte, len(c.Keymap))
	for key, code := range c.Keymap {
		m[[]rune(key)[0]] = byte(code)
	}
	return m
}
