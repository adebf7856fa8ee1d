// Package cpu implements the instruction set, assembler, and interpreter
// for a minimal register machine.
//
// The machine has 32 integer registers, 1024 memory cells, and four
// instructions (LOAD, READ, WRITE, ADD) packed into dense byte encodings
// with sub-byte operand fields. A program is a flat byte buffer executed
// sequentially from offset 0; there is no control flow.
//
// The assembler translates a line-oriented mnemonic source form into the
// binary encoding, supporting comments, equates, and compile-time
// expression evaluation.
package cpu
