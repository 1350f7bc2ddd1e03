package dcpu

// If the queue grows longer than this, the DCPU catches fire.
const maxQueue = 256

// Trigger raises an interrupt. Software interrupts (INT) bypass the queue:
// they turn queueing off and jump to the front. Everything else is appended,
// and the machine faults once the queue overflows.
func (d *DCPU) Trigger(msg uint16, bypass bool) error {
	if d.fault != nil {
		return d.fault
	}

	if bypass {
		d.queueing = false
		d.queue = append(d.queue, 0)
		copy(d.queue[1:], d.queue)
		d.queue[0] = msg
	} else {
		if len(d.queue) >= maxQueue {
			return d.catchFire(ErrInterruptOverflow, "more than %d interrupts pending", maxQueue)
		}
		d.queue = append(d.queue, msg)
	}

	d.dispatch()
	return nil
}

// Interrupt is the hardware side of Trigger. An overflow is reported by the
// Step that is running, or the next one.
func (d *DCPU) Interrupt(msg uint16) {
	_ = d.Trigger(msg, false)
}

// Pending returns a copy of the interrupt queue, oldest first.
func (d *DCPU) Pending() []uint16 {
	return append([]uint16(nil), d.queue...)
}

// dispatch takes the interrupt at the front of the queue, if queueing allows.
// With IA == 0 interrupts are ignored, and the whole queue is dropped.
func (d *DCPU) dispatch() {
	if len(d.queue) == 0 || d.queueing {
		return
	}

	if d.ia == 0 {
		d.queue = d.queue[:0]
		return
	}

	msg := d.queue[0]
	copy(d.queue, d.queue[1:])
	d.queue = d.queue[:len(d.queue)-1]

	d.queueing = true
	d.push(d.pc)
	d.push(d.regs[0])
	d.pc = d.ia
	d.regs[0] = msg
}
