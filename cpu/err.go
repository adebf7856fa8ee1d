package cpu

import (
	"errors"

	"github.com/ikbo/regvm/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrMnemonicUnknown = errors.New(f("mnemonic unknown"))
	ErrOperandCount    = errors.New(f("operand count"))
	ErrOperandInvalid  = errors.New(f("operand invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))

	// Interpreter errors
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	ErrMemoryFault        = errors.New(f("memory fault"))
)

// ErrSyntax locates an assembly error on its source line.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrArity reports a wrong operand count for a mnemonic.
type ErrArity struct {
	Mnemonic string
	Want     int
	Got      int
}

func (err ErrArity) Error() string {
	return f("%v requires %d operands, got %d", err.Mnemonic, err.Want, err.Got)
}

func (err ErrArity) Unwrap() error {
	return ErrOperandCount
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

func (err ErrParseNumber) Unwrap() error {
	return ErrOperandInvalid
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

func (err ErrParseRegister) Unwrap() error {
	return ErrOperandInvalid
}

type ErrRegisterRange int

func (err ErrRegisterRange) Error() string {
	return f("register R%d out of range", int(err))
}

func (err ErrRegisterRange) Unwrap() error {
	return ErrRegisterInvalid
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

func (err ErrParseExpression) Unwrap() error {
	return ErrOperandInvalid
}

// ErrBadOpcode reports an unrecognized or truncated instruction encoding.
type ErrBadOpcode struct {
	Opcode byte
	Pc     int
}

func (err *ErrBadOpcode) Error() string {
	return f("illegal instruction 0x%02X at pc %d", err.Opcode, err.Pc)
}

func (err *ErrBadOpcode) Unwrap() error {
	return ErrIllegalInstruction
}

// ErrFault reports a memory access outside [0, RAM_SIZE).
type ErrFault struct {
	Ins  Instruction
	Addr int
	Pc   int
}

func (err *ErrFault) Error() string {
	return f("%v: address %d outside memory at pc %d", err.Ins, err.Addr, err.Pc)
}

func (err *ErrFault) Unwrap() error {
	return ErrMemoryFault
}
