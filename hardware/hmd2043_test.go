package hardware_test

import (
	"testing"

	"github.com/matryer/is"

	"github.com/bshepherdson/coemu/common"
	"github.com/bshepherdson/coemu/dcpu"
	"github.com/bshepherdson/coemu/hardware"
)

// Drive commands.
const (
	mediaPresent    = 0x0000
	mediaParameters = 0x0001
	updateFlags     = 0x0003
	interruptType   = 0x0004
	setMessage      = 0x0005
	readSectors     = 0x0010
	writeSectors    = 0x0011
	mediaQuality    = 0xffff
)

func newDrive(t *testing.T) (*hardware.HMD2043, *hardware.HMU1440, *dcpu.DCPU) {
	t.Helper()
	disk := hardware.NewHMD2043()
	cpu := newMachine(t, disk)
	media := hardware.NewHMU1440()
	disk.Insert(media)
	return disk, media, cpu
}

func TestDiskRoundTrip(t *testing.T) {
	is := is.New(t)
	disk, media, m := newDrive(t)
	mem := m.Memory()

	const words = 3 * hardware.MediaSectorLength
	for i := 0; i < words; i++ {
		mem[0x1000+i] = uint16(i*7 + 3)
	}

	start := m.Cycles()
	hwi(m, disk, writeSectors, 10, 3, 0x1000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.True(!disk.Busy())
	// Seek 10 sectors, then two adjacent ones, plus three transfers.
	is.Equal(m.Cycles()-start, uint64(12*250+3*1100))
	is.Equal(media.Sector(11)[0], uint16(512*7+3))

	start = m.Cycles()
	hwi(m, disk, readSectors, 10, 3, 0x4000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.Equal(m.Cycles()-start, uint64(4*250+3*1100))

	for i := 0; i < words; i++ {
		if mem[0x4000+i] != mem[0x1000+i] {
			t.Fatalf("word %d: read back %04x, wrote %04x", i, mem[0x4000+i], mem[0x1000+i])
		}
	}
	is.Equal(len(m.Pending()), 0) // Blocking transfers do not interrupt.
}

func TestDiskPendingAbortsNewest(t *testing.T) {
	is := is.New(t)
	disk, media, m := newDrive(t)
	mem := m.Memory()
	media.Sector(0)[0] = 0xbeef
	media.Sector(5)[0] = 0xf00d
	mem[0x3000] = 0xdead

	hwi(m, disk, updateFlags, hardware.FlagNonBlocking)
	hwi(m, disk, setMessage, 0x77)

	hwi(m, disk, readSectors, 0, 1, 0x2000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.True(disk.Busy())

	hwi(m, disk, readSectors, 5, 1, 0x3000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorPending)

	m.Wait(1099)
	is.True(disk.Busy())
	is.Equal(mem[0x2000], uint16(0))

	m.Wait(1)
	is.True(!disk.Busy())
	is.Equal(mem[0x2000], uint16(0xbeef))
	is.Equal(mem[0x3000], uint16(0xdead))
	is.Equal(m.Pending(), []uint16{0x77})

	hwi(m, disk, interruptType)
	is.Equal(m.ReadReg(common.RegB), hardware.IRQReadComplete)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
}

func TestDiskSwitchToBlockingDrains(t *testing.T) {
	is := is.New(t)
	disk, _, m := newDrive(t)

	hwi(m, disk, updateFlags, hardware.FlagNonBlocking)
	hwi(m, disk, writeSectors, 0, 2, 0x2000)
	is.True(disk.Busy())

	start := m.Cycles()
	hwi(m, disk, updateFlags, 0)
	is.True(!disk.Busy())
	is.Equal(m.Cycles()-start, uint64(1100+250+1100))
	is.Equal(len(m.Pending()), 0)
}

func TestDiskErrors(t *testing.T) {
	is := is.New(t)
	disk := hardware.NewHMD2043()
	m := newMachine(t, disk)

	hwi(m, disk, mediaPresent)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.Equal(m.ReadReg(common.RegB), uint16(0))

	for _, cmd := range []uint16{mediaParameters, readSectors, writeSectors, mediaQuality} {
		hwi(m, disk, cmd, 0, 1, 0x2000)
		is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNoMedia)
	}

	disk.Insert(hardware.NewHMU1440())
	hwi(m, disk, readSectors, 1439, 2, 0x2000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorInvalidSector)
	hwi(m, disk, readSectors, 1439, 1, 0x2000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)

	hwi(m, disk, mediaParameters)
	is.Equal(m.ReadReg(common.RegB), uint16(512))
	is.Equal(m.ReadReg(common.RegC), uint16(1440))
	is.Equal(m.ReadReg(common.RegX), uint16(0))

	hwi(m, disk, mediaQuality)
	is.Equal(m.ReadReg(common.RegB), hardware.QualityAuthentic)
}

func TestDiskMediaInterrupt(t *testing.T) {
	is := is.New(t)
	disk, media, m := newDrive(t)

	hwi(m, disk, setMessage, 0x33)
	hwi(m, disk, updateFlags, hardware.FlagMediaIRQ)

	disk.Eject()
	is.Equal(m.Pending(), []uint16{0x33})
	hwi(m, disk, interruptType)
	is.Equal(m.ReadReg(common.RegB), hardware.IRQMediaStatus)

	disk.Insert(media)
	disk.Insert(media)
	is.Equal(m.Pending(), []uint16{0x33, 0x33})
	hwi(m, disk, mediaPresent)
	is.Equal(m.ReadReg(common.RegB), uint16(1))
}

func TestDiskEjectAbandonsJobs(t *testing.T) {
	is := is.New(t)
	disk, media, m := newDrive(t)
	media.Sector(0)[0] = 0xbeef

	hwi(m, disk, updateFlags, hardware.FlagNonBlocking)
	hwi(m, disk, setMessage, 0x44)
	hwi(m, disk, readSectors, 0, 1, 0x2000)
	disk.Eject()
	is.True(!disk.Busy())
	is.Equal(m.Pending(), []uint16{0x44})

	hwi(m, disk, interruptType)
	is.Equal(m.ReadReg(common.RegB), hardware.IRQReadComplete)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNoMedia)

	m.Wait(5000)
	is.Equal(m.Memory()[0x2000], uint16(0))
	is.Equal(len(m.Pending()), 1)
}

func TestDiskEjectMediaIRQReportsAbandoned(t *testing.T) {
	is := is.New(t)
	disk, _, m := newDrive(t)

	hwi(m, disk, setMessage, 0x55)
	hwi(m, disk, updateFlags, hardware.FlagNonBlocking|hardware.FlagMediaIRQ)
	hwi(m, disk, writeSectors, 7, 2, 0x2000)
	disk.Eject()
	is.Equal(m.Pending(), []uint16{0x55})

	hwi(m, disk, interruptType)
	is.Equal(m.ReadReg(common.RegB), hardware.IRQMediaStatus)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNoMedia)
}

func TestDiskNonBlockingWriteCompletes(t *testing.T) {
	is := is.New(t)
	disk, media, m := newDrive(t)
	m.Memory()[0x2000] = 0x1234

	hwi(m, disk, updateFlags, hardware.FlagNonBlocking)
	hwi(m, disk, setMessage, 0x66)
	hwi(m, disk, writeSectors, 0, 1, 0x2000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.True(disk.Busy())
	is.Equal(media.Sector(0)[0], uint16(0))

	m.Wait(1100)
	is.True(!disk.Busy())
	is.Equal(media.Sector(0)[0], uint16(0x1234))
	is.Equal(m.Pending(), []uint16{0x66})

	hwi(m, disk, interruptType)
	is.Equal(m.ReadReg(common.RegB), hardware.IRQWriteComplete)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
}

func TestDiskWriteLocked(t *testing.T) {
	is := is.New(t)
	disk, media, m := newDrive(t)
	media.WriteLocked = true
	media.Sector(2)[0] = 0xcafe
	m.Memory()[0x2000] = 0x1234

	hwi(m, disk, mediaParameters)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.Equal(m.ReadReg(common.RegX), uint16(1))

	start := m.Cycles()
	hwi(m, disk, writeSectors, 2, 1, 0x2000)
	is.Equal(m.ReadReg(common.RegA), hardware.DiskErrorNone)
	is.True(!disk.Busy())
	is.Equal(m.Cycles()-start, uint64(2*250+1100)) // The drive still spends the time.
	is.Equal(media.Sector(2)[0], uint16(0xcafe))

	hwi(m, disk, readSectors, 2, 1, 0x3000)
	is.Equal(m.Memory()[0x3000], uint16(0xcafe))
}
