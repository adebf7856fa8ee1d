package cpu

import (
	"fmt"
)

// Opcode is the first byte of an instruction. It selects the instruction
// format and its semantics.
type Opcode byte

const (
	OP_LOAD  = Opcode(67)  // Set a register to a 25-bit constant.
	OP_WRITE = Opcode(80)  // Store a register at a register-indirect address.
	OP_ADD   = Opcode(178) // Add a register to a memory cell, store at an immediate address.
	OP_READ  = Opcode(200) // Load a register from a register-plus-offset address.
)

// Machine limits and field widths.
const (
	REG_COUNT = 32   // Register file size.
	RAM_SIZE  = 1024 // Memory cells.

	CONST_MASK  = 0x1ffffff // 25-bit LOAD constant.
	REG_MASK    = 0x1f      // 5-bit register index.
	OFFSET_MASK = 0x7f      // 7-bit READ offset.
	ADDR_MASK   = 0xfff     // 12-bit ADD address.
)

// Size returns the encoded byte length of the opcode's format, or 0 if
// the opcode is not part of the instruction set.
func (op Opcode) Size() int {
	switch op {
	case OP_LOAD:
		return 5
	case OP_READ:
		return 4
	case OP_WRITE:
		return 3
	case OP_ADD:
		return 4
	}

	return 0
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	switch op {
	case OP_LOAD:
		return "LOAD"
	case OP_READ:
		return "READ"
	case OP_WRITE:
		return "WRITE"
	case OP_ADD:
		return "ADD"
	}

	return fmt.Sprintf("0x%02X", byte(op))
}

// Instruction is one decoded or to-be-encoded machine instruction.
// Encode packs the operand fields into the exact byte representation;
// every field is masked to its declared bit width before packing, so
// out-of-range values truncate silently rather than fail.
type Instruction interface {
	Op() Opcode
	Size() int
	Encode() []byte
	String() string
}

// Load sets a register to a 25-bit constant.
type Load struct {
	Const uint32 // Constant value, truncated to 25 bits on encode.
	Reg   int    // Destination register.
}

func (ins Load) Op() Opcode { return OP_LOAD }
func (ins Load) Size() int  { return OP_LOAD.Size() }

// Encode packs the constant little-endian into bytes 1-3, with the top
// constant bit in bit 0 of byte 4 and the register in bits 1-5.
func (ins Load) Encode() []byte {
	c := ins.Const & CONST_MASK
	reg := byte(ins.Reg) & REG_MASK

	return []byte{
		byte(OP_LOAD),
		byte(c),
		byte(c >> 8),
		byte(c >> 16),
		byte(c>>24) | reg<<1,
	}
}

func (ins Load) String() string {
	return fmt.Sprintf("LOAD %d, R%d", ins.Const, ins.Reg)
}

func decodeLoad(b []byte) Load {
	return Load{
		Const: uint32(b[1]) | uint32(b[2])<<8 | uint32(b[3])<<16 | uint32(b[4]&0x01)<<24,
		Reg:   int(b[4]>>1) & REG_MASK,
	}
}

// Read loads a register from memory at a register-plus-offset address.
type Read struct {
	Src    int // Base address register.
	Offset int // Unsigned offset, truncated to 7 bits on encode.
	Dst    int // Destination register.
}

func (ins Read) Op() Opcode { return OP_READ }
func (ins Read) Size() int  { return OP_READ.Size() }

func (ins Read) Encode() []byte {
	src := byte(ins.Src) & REG_MASK
	off := byte(ins.Offset) & OFFSET_MASK
	dst := byte(ins.Dst) & REG_MASK

	return []byte{
		byte(OP_READ),
		src<<3 | off>>4,
		off<<4 | dst>>1,
		dst << 7,
	}
}

func (ins Read) String() string {
	return fmt.Sprintf("READ R%d, %d, R%d", ins.Src, ins.Offset, ins.Dst)
}

func decodeRead(b []byte) Read {
	return Read{
		Src:    int(b[1]>>3) & REG_MASK,
		Offset: int(b[1]&0x07)<<4 | int(b[2]>>4),
		Dst:    int(b[2]&0x0f)<<1 | int(b[3]>>7),
	}
}

// Write stores a register at a register-indirect memory address.
type Write struct {
	Src int // Value register.
	Dst int // Register holding the target address.
}

func (ins Write) Op() Opcode { return OP_WRITE }
func (ins Write) Size() int  { return OP_WRITE.Size() }

func (ins Write) Encode() []byte {
	src := byte(ins.Src) & REG_MASK
	dst := byte(ins.Dst) & REG_MASK

	return []byte{
		byte(OP_WRITE),
		src<<3 | dst>>2,
		dst << 6,
	}
}

func (ins Write) String() string {
	return fmt.Sprintf("WRITE R%d, R%d", ins.Src, ins.Dst)
}

func decodeWrite(b []byte) Write {
	return Write{
		Src: int(b[1]>>3) & REG_MASK,
		Dst: int(b[1]&0x07)<<2 | int(b[2]>>6),
	}
}

// Add sums a register with a register-indirect memory cell and stores the
// result at an immediate address. The address field is 12 bits wide for
// binary-format compatibility; the interpreter enforces the memory bound
// at use.
type Add struct {
	Src     int // Value register.
	Addr    int // Immediate destination address, truncated to 12 bits on encode.
	AddrReg int // Register holding the read address.
}

func (ins Add) Op() Opcode { return OP_ADD }
func (ins Add) Size() int  { return OP_ADD.Size() }

func (ins Add) Encode() []byte {
	src := byte(ins.Src) & REG_MASK
	addr := uint16(ins.Addr) & ADDR_MASK
	areg := byte(ins.AddrReg) & REG_MASK

	return []byte{
		byte(OP_ADD),
		src<<3 | byte(addr>>9),
		byte(addr >> 1),
		byte(addr&0x01)<<7 | areg<<2,
	}
}

func (ins Add) String() string {
	return fmt.Sprintf("ADD R%d, %d, R%d", ins.Src, ins.Addr, ins.AddrReg)
}

func decodeAdd(b []byte) Add {
	return Add{
		Src:     int(b[1]>>3) & REG_MASK,
		Addr:    int(b[1]&0x07)<<9 | int(b[2])<<1 | int(b[3]>>7),
		AddrReg: int(b[3]>>2) & REG_MASK,
	}
}

// Decode decodes the instruction at byte offset pc in the program.
// An unrecognized opcode byte, or an opcode with fewer bytes remaining
// than its format requires, fails with an illegal instruction error.
func Decode(program []byte, pc int) (ins Instruction, err error) {
	if pc < 0 || pc >= len(program) {
		err = &ErrBadOpcode{Pc: pc}
		return
	}

	op := Opcode(program[pc])
	size := op.Size()
	if size == 0 || pc+size > len(program) {
		err = &ErrBadOpcode{Opcode: byte(op), Pc: pc}
		return
	}

	b := program[pc : pc+size]
	switch op {
	case OP_LOAD:
		ins = decodeLoad(b)
	case OP_READ:
		ins = decodeRead(b)
	case OP_WRITE:
		ins = decodeWrite(b)
	case OP_ADD:
		ins = decodeAdd(b)
	}

	return
}
