package dcpu

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// DCPU is a single DCPU-16 machine: memory, registers, the interrupt queue
// and the devices attached to it. A DCPU is driven from one goroutine.
type DCPU struct {
	pc   uint16
	ia   uint16
	ex   uint16
	sp   uint16
	regs [8]uint16 // General-purpose registers: A B C X Y Z I J
	mem  common.Memory
	rom  []uint16

	queueing bool
	queue    []uint16 // Pending interrupts.

	devices []common.Device

	budget int    // Overshoot carried from the last Run slice, <= 0.
	cycles uint64 // Total cycles since reset.

	// The instruction being executed, for fault reports.
	instPC   uint16
	instWord uint16
	fault    *Fault

	log *logrus.Entry
}

// Option configures a DCPU at construction.
type Option func(*DCPU)

// WithLogger sets the logger used for faults, bus changes and tracing.
func WithLogger(l *logrus.Entry) Option {
	return func(d *DCPU) {
		d.log = l
	}
}

// NewDCPU returns a freshly created DCPU instance.
func NewDCPU(opts ...Option) *DCPU {
	d := &DCPU{
		queue: make([]uint16, 0, maxQueue),
		log:   logrus.WithField("component", "dcpu"),
	}
	for _, o := range opts {
		o(d)
	}
	d.Reset()
	return d
}

// Implement the common.CPU interface.
func (d *DCPU) Memory() *common.Memory {
	return &d.mem
}
func (d *DCPU) ReadReg(r uint16) uint16 {
	return d.regs[r&7]
}
func (d *DCPU) WriteReg(r, val uint16) {
	d.regs[r&7] = val
}

func (d *DCPU) PC() uint16            { return d.pc }
func (d *DCPU) SetPC(v uint16)        { d.pc = v }
func (d *DCPU) SP() uint16            { return d.sp }
func (d *DCPU) SetSP(v uint16)        { d.sp = v }
func (d *DCPU) EX() uint16            { return d.ex }
func (d *DCPU) SetEX(v uint16)        { d.ex = v }
func (d *DCPU) IA() uint16            { return d.ia }
func (d *DCPU) SetIA(v uint16)        { d.ia = v }
func (d *DCPU) Cycles() uint64        { return d.cycles }
func (d *DCPU) Queueing() bool        { return d.queueing }
func (d *DCPU) Logger() *logrus.Entry { return d.log }

// Fault returns the fault the machine is stopped on, or nil.
func (d *DCPU) Fault() error {
	if d.fault == nil {
		return nil
	}
	return d.fault
}

// Load installs a boot image, which is overlaid at address 0 on every reset,
// and resets the machine.
func (d *DCPU) Load(words []uint16) error {
	if len(words) > 0x10000 {
		return ErrImageTooLarge
	}
	d.rom = append([]uint16(nil), words...)
	d.Reset()
	return nil
}

// LoadImage reads a binary image and loads it with Load. A trailing odd byte
// is ignored.
func (d *DCPU) LoadImage(r io.Reader, order binary.ByteOrder) error {
	words, err := ReadImage(r, order)
	if err != nil {
		return err
	}
	return d.Load(words)
}

// ReadImage decodes a byte stream into words.
func ReadImage(r io.Reader, order binary.ByteOrder) ([]uint16, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data)/2 > 0x10000 {
		return nil, ErrImageTooLarge
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = order.Uint16(data[2*i:])
	}
	return words, nil
}

// Reset reloads the boot image, zeroes everything else and resets every
// attached device.
func (d *DCPU) Reset() {
	d.mem.Clear()
	d.mem.Overlay(d.rom, 0)

	d.regs = [8]uint16{}
	d.pc, d.sp, d.ex, d.ia = 0, 0, 0, 0
	d.queueing = false
	d.queue = d.queue[:0]
	d.budget = 0
	d.cycles = 0
	d.fault = nil

	for _, dev := range d.devices {
		dev.Reset()
	}
}

// Wait burns cycles. Every attached device is clocked by the same amount, so
// device timers advance in lock-step with the CPU.
func (d *DCPU) Wait(cycles int) {
	d.cycles += uint64(cycles)
	for _, dev := range d.devices {
		dev.Clock(cycles)
	}
}

// Run executes instructions until cycles have been spent. Overshoot carries
// into the next call, so a host pacing Run against the wall clock converges on
// ClockSpeed. Cycles spent by Step or Wait outside Run are not charged here.
func (d *DCPU) Run(cycles int) error {
	budget := d.budget + cycles
	start := d.cycles
	for d.cycles >= start && int(d.cycles-start) < budget {
		if err := d.Step(); err != nil {
			d.budget = 0
			return err
		}
	}
	if d.cycles < start { // Reset mid-slice.
		d.budget = 0
		return nil
	}
	d.budget = budget - int(d.cycles-start)
	return nil
}

// Step executes a single instruction, including any skipped conditionals and
// the device clocking it causes.
func (d *DCPU) Step() error {
	if d.fault != nil {
		return d.fault
	}

	d.instPC = d.pc
	x := d.pcGet()
	d.instWord = x

	if d.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		text, _ := DisassembleOp(&d.mem, d.instPC)
		d.log.WithField("pc", fmt.Sprintf("%04x", d.instPC)).Trace(text)
	}

	o, b, a := decode(x)
	if o == 0 {
		d.runSpecialOp(b, a)
	} else {
		d.runMainOp(o, a, b)
	}

	// A fault inside the instruction stops it before it is charged.
	if d.fault != nil {
		return d.fault
	}
	d.Wait(Cost(x))
	if d.fault != nil {
		return d.fault
	}
	return nil
}

// Implementation details.
func (d *DCPU) pcGet() uint16 {
	v := d.mem[d.pc]
	d.pc++
	return v
}

func (d *DCPU) pop() uint16 {
	v := d.mem[d.sp]
	d.sp++
	return v
}

func (d *DCPU) push(v uint16) {
	d.sp--
	d.mem[d.sp] = v
}

// skip passes over the next instruction without running it. Skipped
// conditionals chain, at one cycle per skipped instruction.
func (d *DCPU) skip() {
	n := 0
	for {
		x := d.pcGet()
		d.pc += uint16(instLength[x])
		n++
		if o, _, _ := decode(x); !isConditional(o) {
			break
		}
	}
	d.Wait(n)
}

func (d *DCPU) catchFire(err error, format string, args ...interface{}) *Fault {
	if d.fault != nil {
		return d.fault
	}
	d.fault = &Fault{
		PC:   d.instPC,
		Word: d.instWord,
		Err:  err,
		Msg:  fmt.Sprintf(format, args...),
	}
	d.log.WithFields(logrus.Fields{
		"pc":   fmt.Sprintf("%04x", d.instPC),
		"word": fmt.Sprintf("%04x", d.instWord),
	}).WithError(err).Error(d.fault.Msg)
	return d.fault
}
