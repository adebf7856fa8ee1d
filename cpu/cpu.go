package cpu

import (
	"fmt"
	"log"
)

// Cpu is the simulation context for the register machine. One Cpu owns
// its register file, memory, and program counter exclusively for the
// duration of an Execute call; independent machines may run in parallel.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Reg [REG_COUNT]uint32 // Register file.
	Ram [RAM_SIZE]uint32  // Flat memory.
	Pc  int               // Byte offset into the current program.

	Steps int // Instructions executed since the last reset.

	// Trace, if set, is called after every completed instruction with
	// the machine state before and after execution.
	Trace func(ins Instruction, pre, post *Cpu)
}

// NewCpu creates a new machine with zeroed registers and memory.
func NewCpu() (cpu *Cpu) {
	return &Cpu{}
}

// Reset clears the registers, memory, program counter, and counters.
func (cpu *Cpu) Reset() {
	clear(cpu.Reg[:])
	clear(cpu.Ram[:])
	cpu.Pc = 0
	cpu.Steps = 0
}

// String returns the non-zero machine state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("pc: %d steps: %d\n", cpu.Pc, cpu.Steps)
	for n, val := range cpu.Reg {
		if val != 0 {
			text += fmt.Sprintf("R%d = %d\n", n, val)
		}
	}
	for n, val := range cpu.Ram {
		if val != 0 {
			text += fmt.Sprintf("[%d] = %d\n", n, val)
		}
	}

	return
}

// Step decodes and executes the single instruction at the program
// counter, then advances the counter by the instruction's byte length.
// A fault leaves registers and memory untouched.
func (cpu *Cpu) Step(program []byte) (err error) {
	ins, err := Decode(program, cpu.Pc)
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%4d: %v", cpu.Pc, ins)
	}

	var pre Cpu
	if cpu.Trace != nil {
		pre = *cpu
		pre.Trace = nil
	}

	switch ins := ins.(type) {
	case Load:
		cpu.Reg[ins.Reg] = ins.Const

	case Read:
		addr := int(cpu.Reg[ins.Src]) + ins.Offset
		if addr >= RAM_SIZE {
			err = &ErrFault{Ins: ins, Addr: addr, Pc: cpu.Pc}
			return
		}
		cpu.Reg[ins.Dst] = cpu.Ram[addr]

	case Write:
		addr := int(cpu.Reg[ins.Dst])
		if addr >= RAM_SIZE {
			err = &ErrFault{Ins: ins, Addr: addr, Pc: cpu.Pc}
			return
		}
		cpu.Ram[addr] = cpu.Reg[ins.Src]

	case Add:
		index := int(cpu.Reg[ins.AddrReg])
		if index >= RAM_SIZE {
			err = &ErrFault{Ins: ins, Addr: index, Pc: cpu.Pc}
			return
		}
		// The addr field is wider than the address space; the bound
		// holds at use.
		if ins.Addr >= RAM_SIZE {
			err = &ErrFault{Ins: ins, Addr: ins.Addr, Pc: cpu.Pc}
			return
		}
		cpu.Ram[ins.Addr] = cpu.Reg[ins.Src] + cpu.Ram[index]
	}

	cpu.Pc += ins.Size()
	cpu.Steps += 1

	if cpu.Trace != nil {
		cpu.Trace(ins, &pre, cpu)
	}

	return
}

// Execute runs a program from a fresh machine state, instruction by
// instruction, until the buffer is exhausted. On error, registers and
// memory hold the state as of the last completed instruction; execution
// cannot resume.
func (cpu *Cpu) Execute(program []byte) (err error) {
	cpu.Reset()

	for cpu.Pc < len(program) {
		err = cpu.Step(program)
		if err != nil {
			return
		}
	}

	return
}
