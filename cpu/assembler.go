package cpu

import (
	"bufio"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":    "0",
	"RAM_SIZE":  strconv.Itoa(RAM_SIZE),
	"REG_COUNT": strconv.Itoa(REG_COUNT),
}

// Assembler is a single-pass assembler for the register machine.
// Apart from the equate table rebuilt on every Parse, it holds no state;
// independent assemblers may run concurrently on independent inputs.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string // Predefines
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var registerRE = regexp.MustCompile(`^[Rr](\d+)$`)

// ParseRegister converts a register token such as "R16" to its index.
// The token pattern is "R" plus decimal digits, case-insensitive.
func ParseRegister(word string) (reg int, err error) {
	m := registerRE.FindStringSubmatch(word)
	if m == nil {
		err = ErrParseRegister(word)
		return
	}

	reg, err = strconv.Atoi(m[1])
	if err != nil {
		err = ErrParseRegister(word)
		return
	}
	if reg >= REG_COUNT {
		err = ErrRegisterRange(reg)
		return
	}

	return
}

// valueOf parses a base-10 numeric operand.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 10, 64)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, verr := strconv.ParseInt(str, 10, 64)
		if verr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// Assemble produces exactly one instruction from a mnemonic and its raw
// operand tokens. Register operands must lie in [0, REG_COUNT); numeric
// operands parse as base-10 integers and truncate to their field width
// when encoded.
func (asm *Assembler) Assemble(mnemo string, args []string) (ins Instruction, err error) {
	mnemo = strings.ToUpper(mnemo)

	switch mnemo {
	case "LOAD":
		// LOAD const, Rn
		if len(args) != 2 {
			err = ErrArity{Mnemonic: mnemo, Want: 2, Got: len(args)}
			return
		}
		var c int64
		c, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		var reg int
		reg, err = ParseRegister(args[1])
		if err != nil {
			return
		}
		ins = Load{Const: uint32(c), Reg: reg}

	case "READ":
		// READ Rsrc, offset, Rdst
		if len(args) != 3 {
			err = ErrArity{Mnemonic: mnemo, Want: 3, Got: len(args)}
			return
		}
		var src, dst int
		src, err = ParseRegister(args[0])
		if err != nil {
			return
		}
		var off int64
		off, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		dst, err = ParseRegister(args[2])
		if err != nil {
			return
		}
		ins = Read{Src: src, Offset: int(off), Dst: dst}

	case "WRITE":
		// WRITE Rsrc, Rdst
		if len(args) != 2 {
			err = ErrArity{Mnemonic: mnemo, Want: 2, Got: len(args)}
			return
		}
		var src, dst int
		src, err = ParseRegister(args[0])
		if err != nil {
			return
		}
		dst, err = ParseRegister(args[1])
		if err != nil {
			return
		}
		ins = Write{Src: src, Dst: dst}

	case "ADD":
		// ADD Rsrc, addr, Raddr
		if len(args) != 3 {
			err = ErrArity{Mnemonic: mnemo, Want: 3, Got: len(args)}
			return
		}
		var src, areg int
		src, err = ParseRegister(args[0])
		if err != nil {
			return
		}
		var addr int64
		addr, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		areg, err = ParseRegister(args[2])
		if err != nil {
			return
		}
		ins = Add{Src: src, Addr: int(addr), AddrReg: areg}

	default:
		err = ErrMnemonicUnknown
	}

	return
}

var spaceRE = regexp.MustCompile(`\s+`)
var parenRE = regexp.MustCompile(`\$\([^\$]*\)`)

// parseLine evaluates one source line, already stripped of comments,
// into zero or one instructions. Equates and $() expressions are
// expanded before the mnemonic and its comma-separated operands are
// assembled.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, ins Instruction, err error) {
	// Set line number.
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	// Do $() evaluations
	line = parenRE.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.FormatInt(value, 10)
	})
	if err != nil {
		return
	}

	fields := spaceRE.Split(line, 2)
	mnemo := fields[0]

	// .equ CONST VALUE
	if mnemo == ".equ" {
		if len(fields) != 2 {
			err = ErrEquateSyntax
			return
		}
		equ := spaceRE.Split(fields[1], -1)
		if len(equ) != 2 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[equ[0]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[equ[0]] = equ[1]
		return
	}

	words = []string{mnemo}
	if len(fields) > 1 {
		for _, arg := range strings.Split(fields[1], ",") {
			arg = strings.TrimSpace(arg)
			equ, ok := asm.Equate[arg]
			if ok {
				arg = equ
			}
			words = append(words, arg)
		}
	}

	ins, err = asm.Assemble(mnemo, words[1:])
	return
}

// Parse assembles an input stream into a Program listing. One
// instruction per line; ';' begins a comment running to end of line;
// blank and comment-only lines produce no instruction. The first error
// aborts the whole pass with its source location; no partial listing is
// returned.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	prog = &Program{}
	var offset int

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		if len(line) == 0 {
			continue
		}

		var words []string
		var ins Instruction
		words, ins, err = asm.parseLine(line, lineno)
		if err != nil {
			prog = nil
			return
		}
		if ins == nil {
			continue
		}

		prog.Entries = append(prog.Entries, Entry{LineNo: lineno, Offset: offset, Words: words, Ins: ins})
		offset += ins.Size()
	}

	return
}
