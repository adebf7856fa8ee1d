package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, lines ...string) []byte {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return prog.Binary()
}

func TestExecuteStore(t *testing.T) {
	assert := assert.New(t)

	// R2 holds the target address for the WRITE.
	program := assemble(t,
		"LOAD 10, R1",
		"LOAD 5, R2",
		"WRITE R1, R2",
	)

	cpu := NewCpu()
	err := cpu.Execute(program)
	assert.NoError(err)

	assert.Equal(uint32(10), cpu.Ram[5])
	assert.Equal(uint32(10), cpu.Reg[1])
	assert.Equal(uint32(5), cpu.Reg[2])
	assert.Equal(3, cpu.Steps)
	assert.Equal(len(program), cpu.Pc)
}

func TestExecuteStoreLoad(t *testing.T) {
	assert := assert.New(t)

	// Write 100 to ram[0], then read it back with zero offset.
	program := assemble(t,
		"LOAD 100, R1",
		"LOAD 0, R2",
		"WRITE R1, R2",
		"LOAD 0, R3",
		"READ R2, 0, R4",
	)

	cpu := NewCpu()
	err := cpu.Execute(program)
	assert.NoError(err)

	assert.Equal(uint32(100), cpu.Reg[4])
	assert.Equal(uint32(100), cpu.Ram[0])
}

func TestExecuteReadOffset(t *testing.T) {
	assert := assert.New(t)

	program := assemble(t,
		"LOAD 77, R1",
		"LOAD 9, R2",
		"WRITE R1, R2",
		"LOAD 2, R5",
		"READ R5, 7, R6 ; 2 + 7 = 9",
	)

	cpu := NewCpu()
	err := cpu.Execute(program)
	assert.NoError(err)

	assert.Equal(uint32(77), cpu.Reg[6])
}

func TestExecuteAdd(t *testing.T) {
	assert := assert.New(t)

	// ram[0] = 100, then ram[10] = R1 + ram[R0] = 5 + 100.
	program := assemble(t,
		"LOAD 100, R2",
		"WRITE R2, R0",
		"LOAD 5, R1",
		"ADD R1, 10, R0",
	)

	cpu := NewCpu()
	err := cpu.Execute(program)
	assert.NoError(err)

	assert.Equal(uint32(105), cpu.Ram[10])
	assert.Equal(uint32(100), cpu.Ram[0])
}

func TestExecuteWriteFault(t *testing.T) {
	assert := assert.New(t)

	program := assemble(t,
		"LOAD 10, R1",
		"LOAD 2000, R2",
		"WRITE R1, R2",
	)

	cpu := NewCpu()
	err := cpu.Execute(program)
	assert.ErrorIs(err, ErrMemoryFault)

	var fault *ErrFault
	if assert.True(errors.As(err, &fault)) {
		assert.Equal(2000, fault.Addr)
		assert.Equal(10, fault.Pc)
	}

	// State as of the last completed instruction; memory untouched.
	assert.Equal([RAM_SIZE]uint32{}, cpu.Ram)
	assert.Equal(uint32(10), cpu.Reg[1])
	assert.Equal(uint32(2000), cpu.Reg[2])
	assert.Equal(2, cpu.Steps)
	assert.Equal(10, cpu.Pc)
}

func TestExecuteReadFault(t *testing.T) {
	assert := assert.New(t)

	program := assemble(t,
		"LOAD 1020, R1",
		"READ R1, 10, R2 ; 1020 + 10 = 1030",
	)

	cpu := NewCpu()
	err := cpu.Execute(program)
	assert.ErrorIs(err, ErrMemoryFault)
	assert.Equal(uint32(0), cpu.Reg[2])
}

func TestExecuteAddFault(t *testing.T) {
	assert := assert.New(t)

	// The 12-bit addr field admits addresses past the end of memory.
	wide := assemble(t,
		"ADD R1, 2048, R0",
	)

	cpu := NewCpu()
	err := cpu.Execute(wide)
	assert.ErrorIs(err, ErrMemoryFault)
	assert.Equal([RAM_SIZE]uint32{}, cpu.Ram)

	// Register-indirect read address is bounds-checked too.
	indirect := assemble(t,
		"LOAD 2000, R3",
		"ADD R1, 0, R3",
	)

	err = cpu.Execute(indirect)
	assert.ErrorIs(err, ErrMemoryFault)
	assert.Equal([RAM_SIZE]uint32{}, cpu.Ram)
}

func TestExecuteIllegal(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	err := cpu.Execute([]byte{0x01})
	assert.ErrorIs(err, ErrIllegalInstruction)
	assert.Equal(0, cpu.Steps)
	assert.Equal(0, cpu.Pc)

	// A truncated tail halts after the instructions before it.
	program := append(assemble(t, "LOAD 10, R1"), 200, 16)
	err = cpu.Execute(program)
	assert.ErrorIs(err, ErrIllegalInstruction)
	assert.Equal(1, cpu.Steps)
	assert.Equal(5, cpu.Pc)
	assert.Equal(uint32(10), cpu.Reg[1])
}

func TestExecuteEmpty(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	err := cpu.Execute(nil)
	assert.NoError(err)
	assert.Equal(0, cpu.Steps)
}

func TestTrace(t *testing.T) {
	assert := assert.New(t)

	program := assemble(t,
		"LOAD 10, R1",
		"LOAD 5, R2",
		"WRITE R1, R2",
	)

	type step struct {
		ins  Instruction
		pre  uint32
		post uint32
	}

	var steps []step

	cpu := NewCpu()
	cpu.Trace = func(ins Instruction, pre, post *Cpu) {
		steps = append(steps, step{ins: ins, pre: pre.Ram[5], post: post.Ram[5]})
	}

	err := cpu.Execute(program)
	assert.NoError(err)

	assert.Equal(3, len(steps))
	assert.Equal(Load{Const: 10, Reg: 1}, steps[0].ins)
	assert.Equal(Load{Const: 5, Reg: 2}, steps[1].ins)
	assert.Equal(Write{Src: 1, Dst: 2}, steps[2].ins)
	assert.Equal(uint32(0), steps[2].pre)
	assert.Equal(uint32(10), steps[2].post)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg[1] = 10
	cpu.Ram[5] = 77

	text := cpu.String()
	assert.Contains(text, "R1 = 10")
	assert.Contains(text, "[5] = 77")
	assert.NotContains(text, "R2 =")
}
