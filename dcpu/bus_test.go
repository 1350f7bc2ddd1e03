package dcpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshepherdson/coemu/common"
)

type fakeDevice struct {
	cpu      common.CPU
	received []uint16
	clocked  int
	resets   int

	irqOnClock    uint16 // Raised on the next Clock, when nonzero.
	waitOnReceive int
}

func (f *fakeDevice) DeviceDetails() (uint32, uint16, uint32) {
	return 0x12345678, 0x0042, 0x9abcdef0
}

func (f *fakeDevice) Description() string { return "Fake device" }
func (f *fakeDevice) Reset()              { f.resets++ }
func (f *fakeDevice) Master(c common.CPU) { f.cpu = c }
func (f *fakeDevice) Detach() error       { return f.cpu.Remove(f) }

func (f *fakeDevice) Clock(cycles int) {
	f.clocked += cycles
	if f.irqOnClock != 0 {
		msg := f.irqOnClock
		f.irqOnClock = 0
		f.cpu.Interrupt(msg)
	}
}

func (f *fakeDevice) Receive(msg uint16) {
	f.received = append(f.received, msg)
	if f.waitOnReceive > 0 {
		f.cpu.Wait(f.waitOnReceive)
	}
}

func TestAttachResets(t *testing.T) {
	d := newTestCPU(t, 0x1111)
	d.SetPC(5)
	d.Memory()[0] = 0

	dev := &fakeDevice{}
	require.NoError(t, d.Attach(dev))
	assert.Equal(t, uint16(0), d.PC())
	assert.Equal(t, uint16(0x1111), d.Memory()[0])
	assert.Equal(t, 1, dev.resets)
	assert.Equal(t, []common.Device{dev}, d.Devices())

	assert.ErrorIs(t, d.Attach(dev), ErrAlreadyAttached)
	assert.Len(t, d.Devices(), 1)
}

func TestDetach(t *testing.T) {
	d := NewDCPU()
	first, second := &fakeDevice{}, &fakeDevice{}
	require.NoError(t, d.Attach(first))
	require.NoError(t, d.Attach(second))
	assert.Equal(t, 1, second.resets)

	require.NoError(t, first.Detach())
	assert.Equal(t, []common.Device{second}, d.Devices())
	assert.Equal(t, 2, second.resets)

	// The removed device is cut loose and reset.
	assert.Nil(t, first.cpu)
	assert.Equal(t, 3, first.resets)

	assert.ErrorIs(t, d.Remove(first), ErrNotAttached)
}

func TestTooManyDevices(t *testing.T) {
	d := NewDCPU()
	d.devices = make([]common.Device, maxDevices)
	assert.ErrorIs(t, d.Attach(&fakeDevice{}), ErrTooManyDevices)
}

func TestHardwareInstructions(t *testing.T) {
	d := NewDCPU()
	devs := []*fakeDevice{{}, {waitOnReceive: 10}}
	for _, dev := range devs {
		require.NoError(t, d.Attach(dev))
	}
	require.NoError(t, d.Load([]uint16{
		special(0x10, argJ),   // HWN J
		special(0x11, lit(1)), // HWQ 1
		basic(0x01, argA, lit(7)),
		special(0x12, lit(1)), // HWI 1
	}))

	steps(t, d, 1)
	assert.Equal(t, uint16(2), d.ReadReg(common.RegJ))

	steps(t, d, 1)
	assert.Equal(t, uint16(0x5678), d.ReadReg(common.RegA))
	assert.Equal(t, uint16(0x1234), d.ReadReg(common.RegB))
	assert.Equal(t, uint16(0x0042), d.ReadReg(common.RegC))
	assert.Equal(t, uint16(0xdef0), d.ReadReg(common.RegX))
	assert.Equal(t, uint16(0x9abc), d.ReadReg(common.RegY))

	steps(t, d, 2)
	assert.Equal(t, []uint16{7}, devs[1].received)
	assert.Empty(t, devs[0].received)

	// HWN 2 + HWQ 4 + SET 1 + HWI 4, plus the 10 the device waited.
	assert.Equal(t, uint64(21), d.Cycles())
	for _, dev := range devs {
		assert.Equal(t, 21, dev.clocked)
	}
}

func TestMissingDeviceCatchesFire(t *testing.T) {
	for _, word := range []uint16{special(0x11, lit(0)), special(0x12, lit(3))} {
		d := newTestCPU(t, word)
		err := d.Step()
		assert.ErrorIs(t, err, ErrNoSuchDevice)

		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, word, f.Word)
	}
}

func TestDeviceInterruptTakenAfterInstruction(t *testing.T) {
	d := NewDCPU()
	dev := &fakeDevice{}
	require.NoError(t, d.Attach(dev))
	require.NoError(t, d.Load([]uint16{basic(0x01, argA, lit(3))}))
	d.SetIA(handler)
	dev.irqOnClock = 0x42

	steps(t, d, 1)
	assert.Equal(t, uint16(handler), d.PC())
	assert.Equal(t, uint16(0x42), d.ReadReg(common.RegA))
	assert.Equal(t, uint16(1), d.Memory()[0xffff])
	assert.Equal(t, uint16(3), d.Memory()[0xfffe])
}
