package hardware

import (
	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// Screen geometry.
const (
	WidthChars   = 32
	HeightChars  = 12
	FontWidth    = 4
	FontHeight   = 8
	WidthPixels  = WidthChars * FontWidth
	HeightPixels = HeightChars * FontHeight
)

// Sizes of the regions the LEM1802 maps from memory.
const (
	NametableLen = 386
	FontLen      = 256
	PaletteLen   = 16
)

// Words is read access to a run of words: a view of memory, or the built-in
// ROM tables.
type Words interface {
	At(i int) uint16
}

type rom []uint16

func (r rom) At(i int) uint16 { return r[i] }

// LEM1802 is the register half of the LEM1802 display: it tracks which memory
// the screen, font and palette are mapped to, and leaves drawing to a
// renderer.
type LEM1802 struct {
	cpu common.CPU
	log *logrus.Entry

	nametable common.View
	font      common.View
	palette   common.View
	border    uint16

	bootCycles int // Startup delay left after connecting the screen.
}

func NewLEM1802() *LEM1802 {
	lem := &LEM1802{log: deviceLog("lem1802")}
	lem.Reset()
	return lem
}

func (lem *LEM1802) DeviceDetails() (uint32, uint16, uint32) {
	return 0x7349f615, 0x1802, VendorNyaElektriska
}

func (lem *LEM1802) Description() string { return "LEM-1802 Display Adapter" }

func (lem *LEM1802) Master(cpu common.CPU) { lem.cpu = cpu }
func (lem *LEM1802) Detach() error         { return detach(lem.cpu, lem) }

func (lem *LEM1802) Reset() {
	lem.nametable = common.View{}
	lem.font = common.View{}
	lem.palette = common.View{}
	lem.border = 1
	lem.bootCycles = 0
}

// The screen takes about a second to start after being connected.
func (lem *LEM1802) Clock(cycles int) {
	if lem.bootCycles > 0 {
		lem.bootCycles -= cycles
		if lem.bootCycles < 0 {
			lem.bootCycles = 0
		}
	}
}

func (lem *LEM1802) Receive(msg uint16) {
	b := lem.cpu.ReadReg(common.RegB)
	mem := lem.cpu.Memory()
	lem.log.WithFields(logrus.Fields{"a": msg, "b": b}).Debug("LEM interrupt")

	switch msg {
	case 0: // MEM_MAP_SCREEN
		if b == 0 {
			lem.nametable = common.View{}
			return
		}
		if !lem.nametable.Valid() {
			lem.bootCycles = common.ClockSpeed
		}
		lem.nametable = common.NewView(mem, b, NametableLen)

	case 1: // MEM_MAP_FONT
		lem.font = common.View{}
		if b != 0 {
			lem.font = common.NewView(mem, b, FontLen)
		}

	case 2: // MEM_MAP_PALETTE
		lem.palette = common.View{}
		if b != 0 {
			lem.palette = common.NewView(mem, b, PaletteLen)
		}

	case 3: // SET_BORDER_COLOR
		lem.border = b & 0xf

	case 4: // MEM_DUMP_FONT
		lem.cpu.Wait(256)
		mem.Overlay(romFont, b)

	case 5: // MEM_DUMP_PALETTE
		lem.cpu.Wait(16)
		mem.Overlay(romPalette, b)
	}
}

// Connected reports whether the screen is mapped.
func (lem *LEM1802) Connected() bool {
	return lem.nametable.Valid()
}

// Booting reports whether the screen is still starting up.
func (lem *LEM1802) Booting() bool {
	return lem.Connected() && lem.bootCycles > 0
}

// Nametable is the mapped screen memory. It is only meaningful while
// Connected.
func (lem *LEM1802) Nametable() common.View {
	return lem.nametable
}

// Font returns the mapped font, or the built-in one.
func (lem *LEM1802) Font() Words {
	if lem.font.Valid() {
		return lem.font
	}
	return romFont
}

// Palette returns the mapped palette, or the built-in one.
func (lem *LEM1802) Palette() Words {
	if lem.palette.Valid() {
		return lem.palette
	}
	return romPalette
}

// Border is the palette index of the border colour.
func (lem *LEM1802) Border() uint16 {
	return lem.border
}

// Colors are 0000rrrrggggbbbb.
var romPalette = rom{
	0x0000, 0x000a, 0x00a0, 0x00aa,
	0x0a00, 0x0a0a, 0x0a50, 0x0aaa,
	0x0555, 0x055f, 0x05f5, 0x05ff,
	0x0f55, 0x0f5f, 0x0ff5, 0x0fff,
}

// Two words per glyph, each holding two columns of 8 pixels; the low bit of
// each byte is the top row.
var romFont = rom{
	0xb79e, 0x388e, // 0x00 - blob thingy 1
	0x722c, 0x75f4, // 0x01 - blob thingy 2
	0x19bb, 0x7f8f, // 0x02 - blob thingy 3
	0x85f9, 0xb158, // 0x03 - blob thingy 4
	0x242e, 0x2400, // 0x04 - plus/minus
	0x082a, 0x0800, // 0x05 - division
	0x0008, 0x0000, // 0x06 - centered dot
	0x0808, 0x0808, // 0x07 - centered horizontal line
	0x00ff, 0x0000, // 0x08 - centered vertical line
	0x00f8, 0x0808, // 0x09 - outline SE quarter
	0x08f8, 0x0000, // 0x0a - outline SW quarter
	0x080f, 0x0000, // 0x0b - outline NW quarter
	0x000f, 0x0808, // 0x0c - outline NE quarter
	0x00ff, 0x0808, // 0x0d - vertical bar with E leg
	0x08f8, 0x0808, // 0x0e - horizontal bar with S leg
	0x08ff, 0x0000, // 0x0f - vertical bar with W leg

	0x080f, 0x0808, // 0x10 - horizontal bar with N leg
	0x08ff, 0x0808, // 0x11 - cross
	0x6633, 0x99cc, // 0x12 - cross-diagonal lines
	0x9933, 0x66cc, // 0x13 - main-diagonal lines
	0xfef8, 0xe080, // 0x14 - diagonal SW half
	0x7f1f, 0x0701, // 0x15 - diagonal NW half
	0x0107, 0x1f7f, // 0x16 - diagonal NE half
	0x80e0, 0xf8fe, // 0x17 - diagonal SE half
	0x5500, 0xaa00, // 0x18 - dotted lines
	0x55aa, 0x55aa, // 0x19 - checkerboard
	0xffaa, 0xff55, // 0x1a - negative space dotted lines
	0x0f0f, 0x0f0f, // 0x1b - N half
	0xf0f0, 0xf0f0, // 0x1c - S half
	0x0000, 0xffff, // 0x1d - E half
	0xffff, 0x0000, // 0x1e - W half
	0xffff, 0xffff, // 0x1f - wholly filled

	0x0000, 0x0000, // 0x20 - space (wholly empty)
	0x005f, 0x0000, // 0x21 - !
	0x0300, 0x0300, // 0x22 - "
	0x3e14, 0x3e00, // 0x23 - #
	0x266b, 0x3200, // 0x24 - $
	0x611c, 0x4300, // 0x25 - %
	0x3629, 0x7650, // 0x26 - &
	0x0002, 0x0100, // 0x27 - '
	0x1c22, 0x4100, // 0x28 - (
	0x4122, 0x1c00, // 0x29 - )
	0x1408, 0x1400, // 0x2a - *
	0x081c, 0x0800, // 0x2b - +
	0x4020, 0x0000, // 0x2c - ,
	0x0808, 0x0800, // 0x2d - -
	0x0040, 0x0000, // 0x2e - .
	0x601c, 0x0300, // 0x2f - /

	0x3e49, 0x3e00, // 0x30 - 0
	0x427f, 0x4000, // 0x31 - 1
	0x6259, 0x4600, // 0x32 - 2
	0x2249, 0x3600, // 0x33 - 3
	0x0f08, 0x7f00, // 0x34 - 4
	0x2745, 0x3900, // 0x35 - 5
	0x3e49, 0x3200, // 0x36 - 6
	0x6119, 0x0700, // 0x37 - 7
	0x3649, 0x3600, // 0x38 - 8
	0x2649, 0x3e00, // 0x39 - 9
	0x0024, 0x0000, // 0x3a - :
	0x4024, 0x0000, // 0x3b - ;
	0x0814, 0x2200, // 0x3c - <
	0x1414, 0x1400, // 0x3d - =
	0x2214, 0x0800, // 0x3e - >
	0x0259, 0x0600, // 0x3f - ?

	0x3e59, 0x5e00, // 0x40 - @
	0x7e09, 0x7e00, // 0x41 - A
	0x7f49, 0x3600, // 0x42 - B
	0x3e41, 0x2200, // 0x43 - C
	0x7f41, 0x3e00, // 0x44 - D
	0x7f49, 0x4100, // 0x45 - E
	0x7f09, 0x0100, // 0x46 - F
	0x3e41, 0x7a00, // 0x47 - G
	0x7f08, 0x7f00, // 0x48 - H
	0x417f, 0x4100, // 0x49 - I
	0x2040, 0x3f00, // 0x4a - J
	0x7f08, 0x7700, // 0x4b - K
	0x7f40, 0x4000, // 0x4c - L
	0x7f06, 0x7f00, // 0x4d - M
	0x7f01, 0x7e00, // 0x4e - N
	0x3e41, 0x3e00, // 0x4f - O

	0x7f09, 0x0600, // 0x50 - P
	0x3e61, 0x7e00, // 0x51 - Q
	0x7f09, 0x7600, // 0x52 - R
	0x2649, 0x3200, // 0x53 - S
	0x017f, 0x0100, // 0x54 - T
	0x3f40, 0x7f00, // 0x55 - U
	0x1f60, 0x1f00, // 0x56 - V
	0x7f30, 0x7f00, // 0x57 - W
	0x7708, 0x7700, // 0x58 - X
	0x0778, 0x0700, // 0x59 - Y
	0x7149, 0x4700, // 0x5a - Z
	0x007f, 0x4100, // 0x5b - [
	0x031c, 0x6000, // 0x5c - \
	0x417f, 0x0000, // 0x5d - ]
	0x0201, 0x0200, // 0x5e - ^
	0x8080, 0x8000, // 0x5f - _

	0x0001, 0x0200, // 0x60 - `
	0x2454, 0x7800, // 0x61 - a
	0x7f44, 0x3800, // 0x62 - b
	0x3844, 0x2800, // 0x63 - c
	0x3844, 0x7f00, // 0x64 - d
	0x3854, 0x5800, // 0x65 - e
	0x087e, 0x0900, // 0x66 - f
	0x4854, 0x3c00, // 0x67 - g
	0x7f04, 0x7800, // 0x68 - h
	0x047d, 0x0000, // 0x69 - i
	0x2040, 0x3d00, // 0x6a - j
	0x7f10, 0x6c00, // 0x6b - k
	0x017f, 0x0000, // 0x6c - l
	0x7c18, 0x7c00, // 0x6d - m
	0x7c04, 0x7800, // 0x6e - n
	0x3844, 0x3800, // 0x6f - o

	0x7c14, 0x0800, // 0x70 - p
	0x0814, 0x7c00, // 0x71 - q
	0x7c04, 0x0800, // 0x72 - r
	0x4854, 0x2400, // 0x73 - s
	0x043e, 0x4400, // 0x74 - t
	0x3c40, 0x7c00, // 0x75 - u
	0x1c60, 0x1c00, // 0x76 - v
	0x7c30, 0x7c00, // 0x77 - w
	0x6c10, 0x6c00, // 0x78 - x
	0x4c50, 0x3c00, // 0x79 - y
	0x6454, 0x4c00, // 0x7a - z
	0x0836, 0x4100, // 0x7b - {
	0x0077, 0x0000, // 0x7c - |
	0x4136, 0x0800, // 0x7d - }
	0x0201, 0x0201, // 0x7e - ~
	0x0205, 0x0200, // 0x7f - degrees
}
