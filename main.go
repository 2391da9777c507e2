// Command chiprs executes CHIP-8 programs and translates between their
// binary and assembler source forms.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/jtmpu/chiprs/emu"
)

func main() {
	log.SetPrefix("chiprs: ")
	log.SetFlags(0)

	var (
		cliFlag   = flag.Bool("cli", false, "run without the terminal display")
		devFlag   = flag.Bool("dev", false, "enable developer mode (live re-assemble and run a program)")
		debugFlag = flag.Bool("debug", false, "enable debugger (implies -dev)")

		asmFlag    = flag.Bool("assemble", false, "assemble a program and write the binary to -o")
		disasmFlag = flag.Bool("disassemble", false, "disassemble a binary and write the source to -o")
		outFlag    = flag.String("o", "", "output `file` for -assemble and -disassemble (default stdout)")

		configFlag = flag.String("config", "", "read pacing and keypad mapping from a TOML `file`")
		hzFlag     = flag.Int("hz", 0, "instructions per second (overrides -config)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-cli] <program.rom | program.asm>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [-cli] <-dev | -debug> <program.asm>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s <-assemble | -disassemble> [-o file] <program>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	if *asmFlag || *disasmFlag {
		if *asmFlag == *disasmFlag {
			flag.Usage()
		}
		if err := translate(flag.Arg(0), *outFlag, *asmFlag); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatal(err)
	}
	if *hzFlag > 0 {
		cfg.CPUHz = *hzFlag
	}

	if *devFlag || *debugFlag {
		if err := devMode(cfg, flag.Arg(0)); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err = run(cfg, flag.Arg(0), !*cliFlag)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg config, programFile string, display bool) error {
	rom, err := loadProgram(programFile)
	if err != nil {
		return err
	}
	if !display {
		return consoleRun(cfg, rom)
	}

	runner := emu.NewRunner(cfg.runner(), false, nil)
	scr, err := newScreen(cfg.keymap())
	if err != nil {
		return err
	}
	runner.Frame = scr.Frame

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(rom) }()
	go scr.HandleInput(runner)

	err = <-runErr
	scr.Close()
	return err
}
