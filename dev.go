package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/jtmpu/chiprs/emu"
)

// devMode runs asmFile under the debugger, re-assembling and swapping in
// the program whenever the source file changes on disk. The debugger TUI
// owns the terminal, so the framebuffer display is not rendered here; use
// watches and the state pane instead.
func devMode(cfg config, asmFile string) error {
	asmFile = filepath.Clean(asmFile)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(asmFile)); err != nil {
		return err
	}

	debug := newDebugger()
	runner := emu.NewRunner(cfg.runner(), true, debug.StateFunc)
	debug.run = runner
	log.SetPrefix("")
	log.SetOutput(debug.log)
	go func() {
		if err := debug.Run(); err != nil {
			log.Fatalf("debug: %v", err)
		}
		log.SetOutput(os.Stderr)
		log.SetPrefix("chiprs: ")
		runner.Debug("exit", 0)
	}()

	romCh := make(chan []byte)
	go func() {
		started := false
		build := time.After(1 * time.Millisecond)
		for {
			select {
			case <-build:
				log.Printf("dev: assemble %s", filepath.Base(asmFile))
				rom, syms, err := buildProgram(asmFile)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				debug.setSymbols(newSymbols(syms))
				if !started {
					log.Printf("dev: start")
					romCh <- rom
					started = true
				} else {
					log.Printf("dev: reset")
					runner.Swap(rom)
				}
			case ev := <-watcher.Event:
				if ev.Name == asmFile && !ev.IsAttrib() {
					build = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()
	return runner.Run(<-romCh)
}
