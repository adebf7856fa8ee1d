package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikbo/regvm/cpu"
	"github.com/ikbo/regvm/emulator"
)

func main() {
	var compile string
	var output string
	var save bool
	var trace bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&output, "o", "", ".bin file to write")
	flag.BoolVar(&save, "s", false, "Save binary, do not execute")
	flag.BoolVar(&trace, "t", false, "Trace execution and dump final state")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() > 1 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	var prog *cpu.Program

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		prog, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

	case flag.NArg() == 1:
		binary, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatalf("%v: %v", flag.Arg(0), err)
		}
		prog, err = cpu.Disassemble(binary)
		if err != nil {
			log.Fatalf("%v: %v", flag.Arg(0), err)
		}

	default:
		log.Fatalf("%v: no input; use -c file.asm or a .bin argument", os.Args[0])
	}

	if len(output) != 0 {
		err := os.WriteFile(output, prog.Binary(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if save {
		return
	}

	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = verbose

	if trace {
		emu.Cpu.Trace = func(ins cpu.Instruction, pre, post *cpu.Cpu) {
			fmt.Printf("%4d: %v\n", pre.Pc, ins)
		}
	}

	err := emu.Run()
	if err != nil {
		log.Fatal(err)
	}

	if trace {
		fmt.Print(emu.Cpu.String())
	}
}
