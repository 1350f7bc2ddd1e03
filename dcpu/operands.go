package dcpu

type operandKind uint8

const (
	kindLiteral operandKind = iota
	kindRegister
	kindMemory
	kindSP
	kindPC
	kindEX
)

// operand is a resolved argument: where it lives and what it held when it was
// resolved. Writes to literals are dropped.
type operand struct {
	kind  operandKind
	loc   uint16 // Register index or memory address.
	value uint16
}

func (op operand) signed() int16 {
	return int16(op.value)
}

// resolve decodes a 5- or 6-bit argument field, consuming any next word.
// isA selects POP rather than PUSH for 0x18.
func (d *DCPU) resolve(arg uint16, isA bool) operand {
	switch {
	case arg < 0x08:
		return operand{kindRegister, arg, d.regs[arg]}
	case arg < 0x10:
		return d.memOperand(d.regs[arg&7])
	case arg < 0x18:
		return d.memOperand(d.regs[arg&7] + d.pcGet())
	case arg >= 0x20: // Inline literal, -1..30.
		return operand{kind: kindLiteral, value: arg - 0x21}
	}

	switch arg {
	case 0x18: // PUSH / POP
		if isA {
			addr := d.sp
			d.sp++
			return d.memOperand(addr)
		}
		d.sp--
		return d.memOperand(d.sp)
	case 0x19: // PEEK
		return d.memOperand(d.sp)
	case 0x1a: // PICK n
		return d.memOperand(d.sp + d.pcGet())
	case 0x1b:
		return operand{kind: kindSP, value: d.sp}
	case 0x1c:
		return operand{kind: kindPC, value: d.pc}
	case 0x1d:
		return operand{kind: kindEX, value: d.ex}
	case 0x1e: // [next word]
		return d.memOperand(d.pcGet())
	default: // 0x1f, next word as a literal
		return operand{kind: kindLiteral, value: d.pcGet()}
	}
}

func (d *DCPU) memOperand(addr uint16) operand {
	return operand{kindMemory, addr, d.mem[addr]}
}

func (d *DCPU) write(op operand, val uint16) {
	switch op.kind {
	case kindRegister:
		d.regs[op.loc] = val
	case kindMemory:
		d.mem[op.loc] = val
	case kindSP:
		d.sp = val
	case kindPC:
		d.pc = val
	case kindEX:
		d.ex = val
	}
	// Otherwise, silently dropped.
}
