package dcpu

import "github.com/bshepherdson/coemu/common"

// 2-argument instructions. a is always resolved before b.
func (d *DCPU) runMainOp(op, a, b uint16) {
	av := d.resolve(a, true)
	bv := d.resolve(b, false)

	if isConditional(op) {
		var branch bool // true means run the next op! false means skip
		switch op {
		case 0x10: // IFB - branch with bits in common
			branch = av.value&bv.value != 0
		case 0x11: // IFC - branch with no bits in common
			branch = av.value&bv.value == 0
		case 0x12: // IFE - branch if equal
			branch = av.value == bv.value
		case 0x13: // IFN - branch if not equal
			branch = av.value != bv.value
		case 0x14: // IFG - branch if b > a
			branch = bv.value > av.value
		case 0x15: // IFA - branch if b > a, signed
			branch = bv.signed() > av.signed()
		case 0x16: // IFL - branch if b < a
			branch = bv.value < av.value
		case 0x17: // IFU - branch if b < a, signed
			branch = bv.signed() < av.signed()
		}
		if !branch {
			d.skip()
		}
		return
	}

	switch op {
	case 0x01: // SET b, a
		d.write(bv, av.value)

	case 0x02: // ADD b, a
		res := uint32(bv.value) + uint32(av.value)
		d.write(bv, uint16(res))
		d.ex = uint16(res >> 16)

	case 0x03: // SUB b, a  - b=b-a
		res := int32(bv.value) - int32(av.value)
		d.write(bv, uint16(res))
		d.ex = uint16(res >> 16)

	case 0x04: // MUL b, a
		res := uint32(bv.value) * uint32(av.value)
		d.write(bv, uint16(res))
		d.ex = uint16(res >> 16)

	case 0x05: // MLI b, a
		res := int32(bv.signed()) * int32(av.signed())
		d.write(bv, uint16(res))
		d.ex = uint16(res >> 16)

	case 0x06: // DIV b, a    (b = b/a, or 0)
		var res, ex uint16
		if av.value != 0 {
			res = bv.value / av.value
			ex = uint16((uint32(bv.value) << 16) / uint32(av.value))
		}
		d.write(bv, res)
		d.ex = ex

	case 0x07: // DVI b, a    (rounds towards 0)
		var res, ex uint16
		if av.value != 0 {
			res = uint16(int64(bv.signed()) / int64(av.signed()))
			ex = uint16((int64(bv.signed()) << 16) / int64(av.signed()))
		}
		d.write(bv, res)
		d.ex = ex

	case 0x08: // MOD b, a
		var res uint16
		if av.value != 0 {
			res = bv.value % av.value
		}
		d.write(bv, res)

	case 0x09: // MDI b, a    (MDI -7, 16 == -7)
		var res uint16
		if av.value != 0 {
			res = uint16(int64(bv.signed()) % int64(av.signed()))
		}
		d.write(bv, res)

	case 0x0a: // AND b, a
		d.write(bv, bv.value&av.value)
	case 0x0b: // BOR b, a
		d.write(bv, bv.value|av.value)
	case 0x0c: // XOR b, a
		d.write(bv, bv.value^av.value)

	case 0x0d: // SHR b, a
		d.write(bv, bv.value>>av.value)
		d.ex = uint16((uint32(bv.value) << 16) >> av.value)
	case 0x0e: // ASR b, a
		res := (int32(bv.signed()) << 16) >> av.value
		d.write(bv, uint16(res>>16))
		d.ex = uint16(res)
	case 0x0f: // SHL b, a
		res := uint64(bv.value) << av.value
		d.write(bv, uint16(res))
		d.ex = uint16(res >> 16)

	case 0x1a: // ADX b, a
		res := uint32(bv.value) + uint32(av.value) + uint32(d.ex)
		d.write(bv, uint16(res))
		d.ex = 0
		if res > 0xffff {
			d.ex = 1
		}

	case 0x1b: // SBX b, a
		// EX is added as a signed value: a borrow of 0xffff subtracts one and
		// leaves EX 0. Adding it unsigned, as some emulators do, would carry
		// out and leave EX 1 instead.
		res := int32(bv.value) - int32(av.value) + int32(int16(d.ex))
		d.write(bv, uint16(res))
		d.ex = uint16(res >> 16)

	case 0x1e: // STI b, a
		d.write(bv, av.value)
		d.regs[common.RegI]++
		d.regs[common.RegJ]++
	case 0x1f: // STD b, a
		d.write(bv, av.value)
		d.regs[common.RegI]--
		d.regs[common.RegJ]--

	default:
		d.catchFire(ErrInvalidOpcode, "invalid 2OP instruction %02x", op)
	}
}

func (d *DCPU) runSpecialOp(op, a uint16) {
	av := d.resolve(a, true)

	switch op {
	case 0x01: // JSR a
		d.push(d.pc)
		d.pc = av.value

	case 0x08: // INT a - software interrupt
		d.Trigger(av.value, true)

	case 0x09: // IAG a - store IA in a
		d.write(av, d.ia)
	case 0x0a: // IAS a - store a into IA
		d.ia = av.value

	case 0x0b: // RFI a - disable interrupt queueing. A = pop, PC = pop.
		d.queueing = false
		d.regs[common.RegA] = d.pop()
		d.pc = d.pop()
		d.dispatch()

	case 0x0c: // IAQ a - if a != 0, interrupt queueing is on. a == 0, queue off
		d.queueing = av.value != 0
		d.dispatch()

	case 0x10: // HWN a - a = number of connected devices
		d.write(av, uint16(len(d.devices)))

	case 0x11: // HWQ a - Hardware details for device a.
		dev := d.device(av.value)
		if dev == nil {
			return
		}
		id, version, manufacturer := dev.DeviceDetails()
		d.regs[common.RegA] = uint16(id)
		d.regs[common.RegB] = uint16(id >> 16)
		d.regs[common.RegC] = version
		d.regs[common.RegX] = uint16(manufacturer)
		d.regs[common.RegY] = uint16(manufacturer >> 16)

	case 0x12: // HWI a - send interrupt to device a
		if dev := d.device(av.value); dev != nil {
			dev.Receive(d.regs[common.RegA])
		}

	default:
		d.catchFire(ErrInvalidOpcode, "invalid 1OP instruction %02x", op)
	}
}
