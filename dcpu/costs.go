package dcpu

// Base cycle costs, indexed by basic opcode and by special opcode. Unused
// opcodes cost 0; they fault before the cost is ever charged.
var basicCost = [32]uint8{
	0, 1, 2, 2, 2, 2, 3, 3, 3, 3, 1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2, 0, 0, 3, 3, 0, 0, 2, 2,
}

var specialCost = [32]uint8{
	0, 3, 0, 0, 0, 0, 0, 0, 4, 1, 1, 3, 2, 0, 0, 0,
	2, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// nextWords reports whether an operand field reads [PC++].
func nextWords(field uint16) uint8 {
	if (0x10 <= field && field < 0x18) || field == 0x1a || field == 0x1e || field == 0x1f {
		return 1
	}
	return 0
}

// Cycle cost and length in extra words of every possible instruction word.
var (
	cycleCost  [0x10000]uint8
	instLength [0x10000]uint8
)

func init() {
	for i := 0; i < 0x10000; i++ {
		w := uint16(i)
		o, b, a := decode(w)
		if o != 0 {
			instLength[i] = nextWords(a) + nextWords(b)
			cycleCost[i] = basicCost[o] + instLength[i]
		} else {
			instLength[i] = nextWords(a)
			cycleCost[i] = specialCost[b] + instLength[i]
		}
	}
}

// Opcode is aaaaaabbbbbooooo
func decode(w uint16) (o, b, a uint16) {
	return w & 0x1f, (w >> 5) & 0x1f, w >> 10
}

// Cost returns the cycles an instruction word takes, excluding skips and any
// time a device spends handling HWI.
func Cost(w uint16) int {
	return int(cycleCost[w])
}

// Length returns the instruction's length in words.
func Length(w uint16) int {
	return 1 + int(instLength[w])
}

func isConditional(o uint16) bool {
	return o&0x18 == 0x10
}
