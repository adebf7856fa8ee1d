package emulator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ikbo/regvm/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)

	err := emu.Run()
	assert.NoError(err)
	assert.Equal(0, emu.Cpu.Steps)
}

func doRun(emu *Emulator, program []string, t *testing.T) {
	assert := assert.New(t)

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	emu.Reset()

	for n := range prog.Entries {
		ent := &prog.Entries[n]
		assert.Equal(ent.LineNo, emu.LineNo())
		assert.Equal(ent.Offset, emu.Cpu.Pc)

		done, err := emu.Tick()
		assert.NoError(err)
		if err != nil {
			t.Log(emu.Cpu.String())
			t.Fatal(err)
		}
		assert.Equal(n == len(prog.Entries)-1, done)
	}

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	program := []string{
		"; write then read back",
		"LOAD 100, R1",
		"LOAD 0, R2",
		"WRITE R1, R2",
		"LOAD 0, R3",
		"READ R2, 0, R4",
	}

	doRun(emu, program, t)

	assert.Equal(uint32(100), emu.Cpu.Reg[4])
	assert.Equal(uint32(100), emu.Cpu.Ram[0])
	assert.Equal(5, emu.Cpu.Steps)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	program := []string{
		"LOAD 10, R1",
		"; comment line",
		"LOAD 2000, R2",
		"WRITE R1, R2",
	}

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	emu.Program = prog

	err = emu.Run()
	assert.ErrorIs(err, cpu.ErrMemoryFault)

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(4, rt.LineNo)
	}

	// Memory untouched by the faulting write.
	assert.Equal([cpu.RAM_SIZE]uint32{}, emu.Cpu.Ram)
}

func TestEmulatorTrace(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader("LOAD 7, R1\nLOAD 3, R2\n"))
	assert.NoError(err)
	emu.Program = prog

	var lines []int
	emu.Cpu.Trace = func(ins cpu.Instruction, pre, post *cpu.Cpu) {
		ent := prog.Debug(pre.Pc)
		if assert.NotNil(ent) {
			lines = append(lines, ent.LineNo)
		}
	}

	err = emu.Run()
	assert.NoError(err)
	assert.Equal([]int{1, 2}, lines)
}
