package dcpu

import (
	"fmt"
	"io"

	"github.com/bshepherdson/coemu/common"
)

// Disassembler. The listing format is:
// ADDR: WORD (WORD (WORD))             disassembly...

var mainOps = map[uint16]string{
	0x01: "SET",
	0x02: "ADD",
	0x03: "SUB",
	0x04: "MUL",
	0x05: "MLI",
	0x06: "DIV",
	0x07: "DVI",
	0x08: "MOD",
	0x09: "MDI",
	0x0a: "AND",
	0x0b: "BOR",
	0x0c: "XOR",
	0x0d: "SHR",
	0x0e: "ASR",
	0x0f: "SHL",

	0x10: "IFB",
	0x11: "IFC",
	0x12: "IFE",
	0x13: "IFN",
	0x14: "IFG",
	0x15: "IFA",
	0x16: "IFL",
	0x17: "IFU",

	0x1a: "ADX",
	0x1b: "SBX",
	0x1e: "STI",
	0x1f: "STD",
}

var specOps = map[uint16]string{
	0x01: "JSR",
	0x08: "INT",
	0x09: "IAG",
	0x0a: "IAS",
	0x0b: "RFI",
	0x0c: "IAQ",
	0x10: "HWN",
	0x11: "HWQ",
	0x12: "HWI",
}

var simpleArgs = map[uint16]string{
	0x00: "A",
	0x01: "B",
	0x02: "C",
	0x03: "X",
	0x04: "Y",
	0x05: "Z",
	0x06: "I",
	0x07: "J",
	0x08: "[A]",
	0x09: "[B]",
	0x0a: "[C]",
	0x0b: "[X]",
	0x0c: "[Y]",
	0x0d: "[Z]",
	0x0e: "[I]",
	0x0f: "[J]",
	0x19: "PEEK",
	0x1b: "SP",
	0x1c: "PC",
	0x1d: "EX",
}

// Format strings with one uint16 argument.
var argFormats = map[uint16]string{
	0x10: "[A + 0x%04x]",
	0x11: "[B + 0x%04x]",
	0x12: "[C + 0x%04x]",
	0x13: "[X + 0x%04x]",
	0x14: "[Y + 0x%04x]",
	0x15: "[Z + 0x%04x]",
	0x16: "[I + 0x%04x]",
	0x17: "[J + 0x%04x]",
	0x1a: "PICK 0x%04x",
	0x1e: "[0x%04x]",
	0x1f: "0x%04x",
}

func printArg(arg, extra uint16, isA bool) string {
	if arg >= 0x20 { // Inline literal.
		return fmt.Sprintf("%d", int16(arg-0x21))
	}
	if arg == 0x18 {
		if isA {
			return "POP"
		}
		return "PUSH"
	}
	if s, ok := simpleArgs[arg]; ok {
		return s
	}
	return fmt.Sprintf(argFormats[arg], extra)
}

// DisassembleOp renders the instruction at pc. Returns the text and the
// number of words it uses.
func DisassembleOp(mem *common.Memory, pc uint16) (string, int) {
	opcode := mem[pc]
	op, b, a := decode(opcode)

	mnemonic, ok := mainOps[op]
	if op == 0 {
		mnemonic, ok = specOps[b]
	}
	if !ok {
		return fmt.Sprintf("DAT 0x%04x", opcode), 1
	}

	// a's next word comes first, since a is resolved first.
	var aExtra, bExtra uint16
	width := uint16(1)
	if nextWords(a) != 0 {
		aExtra = mem[pc+width]
		width++
	}
	if op != 0 && nextWords(b) != 0 {
		bExtra = mem[pc+width]
		width++
	}

	astr := printArg(a, aExtra, true)
	if op == 0 {
		return fmt.Sprintf("%s %s", mnemonic, astr), int(width)
	}
	return fmt.Sprintf("%s %s, %s", mnemonic, printArg(b, bExtra, false), astr), int(width)
}

// Disassemble writes a listing of [start, end) to w.
func Disassemble(w io.Writer, mem *common.Memory, start, end int) error {
	for pc := start; pc < end; {
		text, n := DisassembleOp(mem, uint16(pc))
		words := ""
		for i := 0; i < n; i++ {
			words += fmt.Sprintf("%04x ", mem[uint16(pc+i)])
		}
		if _, err := fmt.Fprintf(w, "%04x: %-15s  %s\n", pc, words, text); err != nil {
			return err
		}
		pc += n
	}
	return nil
}
