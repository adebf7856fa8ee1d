package cpu

// Entry is one assembled source line: its line number, the byte offset
// of its instruction in the binary, the expanded source tokens, and the
// instruction itself.
type Entry struct {
	LineNo int
	Offset int
	Words  []string
	Ins    Instruction
}

// Program is an assembled listing. Its binary form is the concatenation
// of each instruction's encoding, in source order, with no header or
// length field; instruction boundaries are only recoverable by decoding
// opcode bytes sequentially from offset 0.
type Program struct {
	Entries []Entry
}

// Binary returns the encoded program bytes.
func (prog *Program) Binary() (bin []byte) {
	for _, ent := range prog.Entries {
		bin = append(bin, ent.Ins.Encode()...)
	}

	return
}

// Debug returns the entry whose encoding covers the byte offset, or nil.
func (prog *Program) Debug(offset int) (ent *Entry) {
	for n := range prog.Entries {
		e := &prog.Entries[n]
		if offset >= e.Offset && offset < e.Offset+e.Ins.Size() {
			ent = e
			break
		}
	}

	return
}

// Disassemble rebuilds a program listing from its binary form. Line
// numbers count instructions, since the source text is not available.
func Disassemble(binary []byte) (prog *Program, err error) {
	prog = &Program{}

	for pc, n := 0, 1; pc < len(binary); n++ {
		var ins Instruction
		ins, err = Decode(binary, pc)
		if err != nil {
			prog = nil
			return
		}
		prog.Entries = append(prog.Entries, Entry{LineNo: n, Offset: pc, Ins: ins})
		pc += ins.Size()
	}

	return
}
