package dcpu

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshepherdson/coemu/common"
)

// Argument fields used to hand-assemble test programs.
const (
	argA    = 0x00
	argB    = 0x01
	argC    = 0x02
	argI    = 0x06
	argJ    = 0x07
	argMemA = 0x08
	argPush = 0x18 // POP in a
	argPeek = 0x19
	argSP   = 0x1b
	argPC   = 0x1c
	argEX   = 0x1d
	argMem  = 0x1e
	argNext = 0x1f
)

func lit(n int) uint16 {
	return uint16(n + 0x21)
}

func basic(o, b, a uint16) uint16 {
	return a<<10 | b<<5 | o
}

func special(o, a uint16) uint16 {
	return a<<10 | o<<5
}

func newTestCPU(t *testing.T, program ...uint16) *DCPU {
	t.Helper()
	d := NewDCPU()
	require.NoError(t, d.Load(program))
	return d
}

func steps(t *testing.T, d *DCPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, d.Step())
	}
}

func TestTwoInstructionProgram(t *testing.T) {
	d := newTestCPU(t,
		basic(0x01, argA, lit(0x10)),      // SET A, 0x10
		basic(0x01, argMem, argA), 0x2000, // SET [0x2000], A
	)

	steps(t, d, 2)
	assert.Equal(t, uint16(0x0010), d.Memory()[0x2000])
	assert.Equal(t, uint16(0x0010), d.ReadReg(common.RegA))
	assert.Equal(t, uint16(3), d.PC())
	assert.Equal(t, uint64(1+2), d.Cycles())
}

func TestResetReappliesImage(t *testing.T) {
	d := newTestCPU(t, 0x1234, 0x5678)
	d.Memory()[0] = 0
	d.Memory()[0x8000] = 0xbeef
	d.WriteReg(common.RegJ, 9)
	d.SetPC(0x40)
	d.SetIA(0x99)

	d.Reset()
	assert.Equal(t, uint16(0x1234), d.Memory()[0])
	assert.Equal(t, uint16(0x5678), d.Memory()[1])
	assert.Equal(t, uint16(0), d.Memory()[0x8000])
	assert.Equal(t, uint16(0), d.ReadReg(common.RegJ))
	assert.Equal(t, uint16(0), d.PC())
	assert.Equal(t, uint16(0), d.IA())
}

func TestLoadImageByteOrder(t *testing.T) {
	img := []byte{0x12, 0x34, 0xab, 0xcd, 0xff}

	d := NewDCPU()
	require.NoError(t, d.LoadImage(bytes.NewReader(img), binary.BigEndian))
	assert.Equal(t, uint16(0x1234), d.Memory()[0])
	assert.Equal(t, uint16(0xabcd), d.Memory()[1])
	assert.Equal(t, uint16(0), d.Memory()[2], "odd trailing byte is dropped")

	require.NoError(t, d.LoadImage(bytes.NewReader(img), binary.LittleEndian))
	assert.Equal(t, uint16(0x3412), d.Memory()[0])
	assert.Equal(t, uint16(0xcdab), d.Memory()[1])
}

func TestLoadTooLarge(t *testing.T) {
	d := NewDCPU()
	assert.ErrorIs(t, d.Load(make([]uint16, 0x10001)), ErrImageTooLarge)
}

func TestRunSpendsBudget(t *testing.T) {
	// ADD A, 1 then SET PC, 0, forever.
	d := newTestCPU(t,
		basic(0x02, argA, lit(1)),  // ADD A, 1
		basic(0x01, argPC, lit(0)), // SET PC, 0
	)

	require.NoError(t, d.Run(9))
	// ADD costs 2 and SET 1, so 9 cycles run ADD, SET, ADD, SET, ADD, SET.
	assert.Equal(t, uint16(3), d.ReadReg(common.RegA))
	assert.Equal(t, uint64(9), d.Cycles())

	// Overshoot is carried: the next slice starts in debt.
	require.NoError(t, d.Run(1))
	assert.Equal(t, uint16(4), d.ReadReg(common.RegA))
	require.NoError(t, d.Run(1))
	assert.Equal(t, uint16(4), d.ReadReg(common.RegA))
}

func TestStepsOutsideRunAreNotCharged(t *testing.T) {
	d := newTestCPU(t,
		basic(0x02, argA, lit(1)),  // ADD A, 1
		basic(0x01, argPC, lit(0)), // SET PC, 0
	)

	steps(t, d, 1000)
	d.Wait(500)
	require.Equal(t, uint16(500), d.ReadReg(common.RegA))

	require.NoError(t, d.Run(9))
	assert.Equal(t, uint16(503), d.ReadReg(common.RegA))
	assert.Equal(t, uint64(1500+500+9), d.Cycles())
}

func TestDeterministicDecode(t *testing.T) {
	program := []uint16{
		basic(0x02, 0x10, argNext), 0x0003, 0x0100, // ADD [A+0x100], 3
	}
	a := newTestCPU(t, program...)
	b := newTestCPU(t, program...)
	a.WriteReg(common.RegA, 5)
	b.WriteReg(common.RegA, 5)

	steps(t, a, 1)
	steps(t, b, 1)
	assert.Equal(t, a.PC(), b.PC())
	assert.Equal(t, uint16(3), a.PC())
	assert.Equal(t, uint16(3), a.Memory()[0x105])
	assert.Equal(t, a.Memory()[0x105], b.Memory()[0x105])
	assert.Equal(t, a.Cycles(), b.Cycles())
}

func TestInvalidOpcodeCatchesFire(t *testing.T) {
	d := newTestCPU(t, basic(0x18, argA, argA), basic(0x01, argA, lit(1)))

	err := d.Step()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOpcode)

	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, uint16(0), f.PC)
	assert.Equal(t, uint64(0), d.Cycles())

	// Stays on fire.
	assert.Equal(t, err, d.Step())
	assert.Equal(t, uint16(0), d.ReadReg(common.RegA))

	d.Reset()
	require.NoError(t, d.Fault())
}

func TestInvalidSpecialOpcode(t *testing.T) {
	d := newTestCPU(t, special(0x02, argA))
	assert.ErrorIs(t, d.Step(), ErrInvalidOpcode)
}

func TestRegByName(t *testing.T) {
	d := NewDCPU()
	require.True(t, d.SetRegByName("x", 7))
	require.True(t, d.SetRegByName("PC", 0x20))

	v, name, ok := d.RegByName("X")
	require.True(t, ok)
	assert.Equal(t, "X", name)
	assert.Equal(t, uint16(7), v)

	v, _, ok = d.RegByName("pc")
	require.True(t, ok)
	assert.Equal(t, uint16(0x20), v)

	_, _, ok = d.RegByName("Q")
	assert.False(t, ok)
	assert.False(t, d.SetRegByName("Q", 1))
	assert.Len(t, d.Registers(), 12)
}

func TestDisassemble(t *testing.T) {
	d := newTestCPU(t,
		basic(0x01, argA, lit(0x10)),
		basic(0x01, argMem, argA), 0x2000,
		special(0x01, argNext), 0x0040,
		basic(0x01, argPush, argPush),
		0x0018,
	)

	text, n := DisassembleOp(d.Memory(), 0)
	assert.Equal(t, "SET A, 16", text)
	assert.Equal(t, 1, n)

	text, n = DisassembleOp(d.Memory(), 1)
	assert.Equal(t, "SET [0x2000], A", text)
	assert.Equal(t, 2, n)

	text, n = DisassembleOp(d.Memory(), 3)
	assert.Equal(t, "JSR 0x0040", text)
	assert.Equal(t, 2, n)

	text, _ = DisassembleOp(d.Memory(), 5)
	assert.Equal(t, "SET PUSH, POP", text)

	text, _ = DisassembleOp(d.Memory(), 6)
	assert.Equal(t, "DAT 0x0018", text)

	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, d.Memory(), 0, 3))
	assert.Equal(t, "0000: c401             SET A, 16\n0001: 03c1 2000        SET [0x2000], A\n", buf.String())
}

func TestCosts(t *testing.T) {
	cases := []struct {
		name   string
		word   uint16
		cost   int
		length int
	}{
		{"SET reg, lit", basic(0x01, argA, lit(3)), 1, 1},
		{"SET [next], reg", basic(0x01, argMem, argA), 2, 2},
		{"ADD [A+next], next", basic(0x02, 0x10, argNext), 4, 3},
		{"DIV", basic(0x06, argA, argB), 3, 1},
		{"IFE", basic(0x12, argA, argB), 2, 1},
		{"ADX", basic(0x1a, argA, argB), 3, 1},
		{"STI PICK, reg", basic(0x1e, 0x1a, argA), 3, 2},
		{"JSR next", special(0x01, argNext), 4, 2},
		{"INT", special(0x08, lit(0)), 4, 1},
		{"IAG", special(0x09, argA), 1, 1},
		{"RFI", special(0x0b, lit(0)), 3, 1},
		{"IAQ", special(0x0c, lit(0)), 2, 1},
		{"HWN", special(0x10, argA), 2, 1},
		{"HWQ", special(0x11, argA), 4, 1},
		{"HWI", special(0x12, argA), 4, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.cost, Cost(c.word))
			assert.Equal(t, c.length, Length(c.word))
		})
	}
}
