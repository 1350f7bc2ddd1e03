package common

// ClockSpeed is the DCPU-16 clock rate in cycles per second.
const ClockSpeed = 100000

// General-purpose register indices, in the order the instruction set
// encodes them.
const (
	RegA uint16 = iota
	RegB
	RegC
	RegX
	RegY
	RegZ
	RegI
	RegJ
)

// CPU is the surface a device sees once it has been attached. It is used by
// the hardware to read and write registers and memory, raise interrupts and
// stall the processor.
type CPU interface {
	Memory() *Memory
	ReadReg(r uint16) uint16
	WriteReg(r, val uint16)

	// Interrupt queues a hardware interrupt with the given message.
	Interrupt(msg uint16)

	// Wait burns the given number of cycles, clocking every attached device.
	Wait(cycles int)

	// Remove detaches a device from the bus.
	Remove(Device) error
}

// Device is the interface to all hardware.
type Device interface {
	// Returns the device ID, version and manufacturer.
	DeviceDetails() (uint32, uint16, uint32)
	Description() string

	Reset()
	Clock(cycles int)
	Receive(msg uint16)

	// Master is called by the CPU when the device is attached to it.
	Master(CPU)
	Detach() error
}
