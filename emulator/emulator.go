// Package emulator binds an assembled program listing to a machine, so
// that runtime errors and traces report source lines instead of raw
// byte offsets.
package emulator

import (
	"github.com/ikbo/regvm/cpu"
)

// Emulator state. Machine + program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the machine simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	binary []byte
}

// NewEmulator creates a new emulator with an empty program.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Reset re-encodes the program and clears the machine state.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.binary = emu.Program.Binary()
	emu.Cpu.Reset()
}

// LineNo returns the source line number for the instruction at the
// program counter, or 0 past the end of the program.
func (emu *Emulator) LineNo() int {
	ent := emu.Program.Debug(emu.Cpu.Pc)
	if ent == nil {
		return 0
	}

	return ent.LineNo
}

// Tick executes a single instruction of the loaded program.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Pc >= len(emu.binary) {
		done = true
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step(emu.binary)
	if err != nil {
		return
	}

	done = emu.Cpu.Pc >= len(emu.binary)
	return
}

// Run resets the emulator and executes the program to completion.
func (emu *Emulator) Run() (err error) {
	emu.Reset()

	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
