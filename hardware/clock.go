package hardware

import (
	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// Clock is the Generic Clock. It ticks 60/B times per second, measured in CPU
// cycles rather than wall time, so it stays in step with the emulated machine
// at any host speed.
type Clock struct {
	cpu common.CPU
	log *logrus.Entry

	cyclesPerTick int // 0 when the clock is off.
	countup       int
	ticks         uint16
	message       uint16
}

func NewClock() *Clock {
	return &Clock{log: deviceLog("clock")}
}

func (c *Clock) DeviceDetails() (uint32, uint16, uint32) {
	return 0x12d0b402, 1, VendorNyaElektriska
}

func (c *Clock) Description() string { return "Generic Clock" }

func (c *Clock) Master(cpu common.CPU) { c.cpu = cpu }
func (c *Clock) Detach() error         { return detach(c.cpu, c) }

func (c *Clock) Reset() {
	c.cyclesPerTick = 0
	c.countup = 0
	c.ticks = 0
	c.message = 0
}

func (c *Clock) Clock(cycles int) {
	if c.cyclesPerTick == 0 {
		return
	}

	c.countup += cycles
	for c.countup >= c.cyclesPerTick {
		c.countup -= c.cyclesPerTick
		c.ticks++
		if c.message != 0 {
			interrupt(c.cpu, c.message)
		}
	}
}

func (c *Clock) Receive(msg uint16) {
	b := c.cpu.ReadReg(common.RegB)
	switch msg {
	case 0: // SET_SPEED
		c.cyclesPerTick = common.ClockSpeed * int(b) / 60
		c.countup = 0
		c.ticks = 0
		c.log.WithField("cycles_per_tick", c.cyclesPerTick).Debug("speed set")
	case 1: // GET_TICKS
		c.cpu.WriteReg(common.RegC, c.ticks)
		c.ticks = 0
	case 2: // SET_INT
		c.message = b
	}
}

// Ticks reports the ticks counted since the last SET_SPEED or GET_TICKS.
func (c *Clock) Ticks() uint16 {
	return c.ticks
}
