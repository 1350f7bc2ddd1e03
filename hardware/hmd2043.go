package hardware

import (
	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// Device flags, set with UPDATE_DEVICE_FLAGS.
const (
	FlagNonBlocking uint16 = 1 << iota
	FlagMediaIRQ
)

// Interrupt types, reported by QUERY_INTERRUPT_TYPE.
const (
	IRQNone uint16 = iota
	IRQMediaStatus
	IRQReadComplete
	IRQWriteComplete
)

// Result codes, returned in A by every command.
const (
	DiskErrorNone uint16 = iota
	DiskErrorNoMedia
	DiskErrorInvalidSector
	DiskErrorPending
)

// Timing, in cycles.
const (
	seekCyclesPerSector = 250
	transferCycles      = 1100
)

type diskJob struct {
	write  bool
	sector int
	addr   uint16
}

// HMD2043 is the Harold Media Drive. Reads and writes are queued one job per
// sector and take time: in blocking mode the drive stalls the CPU until the
// queue drains, otherwise it interrupts on completion.
type HMD2043 struct {
	cpu common.CPU
	log *logrus.Entry

	media      *HMU1440
	flags      uint16
	irqType    uint16
	irqError   uint16
	irqMessage uint16

	head   int // Sector under the head.
	cycles int // Progress on the job at the front of the queue.
	jobs   []diskJob
}

func NewHMD2043() *HMD2043 {
	d := &HMD2043{log: deviceLog("hmd2043")}
	d.Reset()
	return d
}

func (d *HMD2043) DeviceDetails() (uint32, uint16, uint32) {
	return 0x74fa4cae, 0x07c2, VendorHaroldIT
}

func (d *HMD2043) Description() string { return "HMD2043 Harold Media Drive" }

func (d *HMD2043) Master(cpu common.CPU) { d.cpu = cpu }
func (d *HMD2043) Detach() error         { return detach(d.cpu, d) }

// Reset returns the drive to its power-on state. Inserted media stays in the
// drive.
func (d *HMD2043) Reset() {
	d.flags = 0
	d.irqType = IRQNone
	d.irqError = DiskErrorNone
	d.irqMessage = 0xffff
	d.head = 0
	d.cycles = 0
	d.jobs = d.jobs[:0]
}

// Media returns the inserted media, or nil.
func (d *HMD2043) Media() *HMU1440 {
	return d.media
}

// Insert puts media in the drive, replacing anything already there. Any
// operation in flight is abandoned and reported as ERROR_NO_MEDIA.
func (d *HMD2043) Insert(m *HMU1440) {
	if m == d.media {
		return
	}

	abandoned := len(d.jobs) > 0
	var job diskJob
	if abandoned {
		job = d.jobs[0]
	}
	d.jobs = d.jobs[:0]
	d.cycles = 0
	d.media = m
	d.log.WithFields(logrus.Fields{"present": m != nil, "abandoned": abandoned}).Info("media changed")

	errCode := DiskErrorNone
	if abandoned {
		errCode = DiskErrorNoMedia
	}
	switch {
	case d.flags&FlagMediaIRQ != 0:
		d.irqType, d.irqError = IRQMediaStatus, errCode
		interrupt(d.cpu, d.irqMessage)
	case abandoned && d.flags&FlagNonBlocking != 0:
		d.irqType, d.irqError = completion(job), errCode
		interrupt(d.cpu, d.irqMessage)
	}
}

func completion(j diskJob) uint16 {
	if j.write {
		return IRQWriteComplete
	}
	return IRQReadComplete
}

// Eject removes the media, if any.
func (d *HMD2043) Eject() {
	d.Insert(nil)
}

// Busy reports whether jobs are queued.
func (d *HMD2043) Busy() bool {
	return len(d.jobs) > 0
}

func (d *HMD2043) taskLength(j diskJob) int {
	seek := j.sector - d.head
	if seek < 0 {
		seek = -seek
	}
	return seek*seekCyclesPerSector + transferCycles
}

func (d *HMD2043) Clock(cycles int) {
	if len(d.jobs) == 0 {
		return
	}

	d.cycles += cycles
	var job diskJob
	for len(d.jobs) > 0 {
		n := d.taskLength(d.jobs[0])
		if d.cycles < n {
			return
		}
		d.cycles -= n

		job = d.jobs[0]
		d.jobs = append(d.jobs[:0], d.jobs[1:]...)
		d.head = job.sector
		d.transfer(job)
	}
	d.cycles = 0

	if d.flags&FlagNonBlocking != 0 {
		d.irqType = completion(job)
		d.irqError = DiskErrorNone
		interrupt(d.cpu, d.irqMessage)
	}
}

func (d *HMD2043) transfer(j diskJob) {
	mem := d.cpu.Memory()
	sector := d.media.Sector(j.sector)
	if !j.write {
		mem.Overlay(sector, j.addr)
		return
	}
	if d.media.WriteLocked {
		return
	}
	addr := j.addr
	for i := range sector {
		sector[i] = mem[addr]
		addr++
	}
}

// flush stalls the CPU until the queue drains, unless the drive is in
// non-blocking mode. The stall is spent through Wait, so the drive's own Clock
// retires the jobs.
func (d *HMD2043) flush() {
	if d.flags&FlagNonBlocking != 0 {
		return
	}
	for len(d.jobs) > 0 {
		d.cpu.Wait(d.taskLength(d.jobs[0]) - d.cycles)
	}
}

func (d *HMD2043) Receive(msg uint16) {
	c := d.cpu
	b := c.ReadReg(common.RegB)
	c.WriteReg(common.RegA, DiskErrorNone)

	switch msg {
	case 0x0000: // QUERY_MEDIA_PRESENT
		var present uint16
		if d.media != nil {
			present = 1
		}
		c.WriteReg(common.RegB, present)

	case 0x0001: // QUERY_MEDIA_PARAMETERS
		if d.media == nil {
			c.WriteReg(common.RegA, DiskErrorNoMedia)
			return
		}
		var locked uint16
		if d.media.WriteLocked {
			locked = 1
		}
		c.WriteReg(common.RegB, uint16(d.media.SectorLength()))
		c.WriteReg(common.RegC, uint16(d.media.SectorCount()))
		c.WriteReg(common.RegX, locked)

	case 0x0002: // QUERY_DEVICE_FLAGS
		c.WriteReg(common.RegB, d.flags)

	case 0x0003: // UPDATE_DEVICE_FLAGS
		d.flags = b
		d.flush()

	case 0x0004: // QUERY_INTERRUPT_TYPE
		c.WriteReg(common.RegB, d.irqType)
		c.WriteReg(common.RegA, d.irqError)

	case 0x0005: // SET_INTERRUPT_MESSAGE
		d.irqMessage = b

	case 0x0010, 0x0011: // READ_SECTORS, WRITE_SECTORS
		if d.media == nil {
			c.WriteReg(common.RegA, DiskErrorNoMedia)
			return
		}
		if len(d.jobs) > 0 {
			c.WriteReg(common.RegA, DiskErrorPending)
			return
		}

		count := int(c.ReadReg(common.RegC))
		if int(b)+count > d.media.SectorCount() {
			c.WriteReg(common.RegA, DiskErrorInvalidSector)
			return
		}

		write := msg == 0x0011
		addr := c.ReadReg(common.RegX)
		d.log.WithFields(logrus.Fields{
			"write":  write,
			"sector": b,
			"count":  count,
			"addr":   addr,
		}).Debug("disk transfer")

		for i := 0; i < count; i++ {
			d.jobs = append(d.jobs, diskJob{
				write:  write,
				sector: int(b) + i,
				addr:   addr + uint16(d.media.SectorLength()*i),
			})
		}
		d.flush()

	case 0xffff: // QUERY_MEDIA_QUALITY
		if d.media == nil {
			c.WriteReg(common.RegA, DiskErrorNoMedia)
			return
		}
		c.WriteReg(common.RegB, d.media.Quality)
	}
}
