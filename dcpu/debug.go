package dcpu

import (
	"strings"

	"github.com/bshepherdson/coemu/common"
)

var regNames = map[string]uint16{
	"A": common.RegA,
	"B": common.RegB,
	"C": common.RegC,
	"X": common.RegX,
	"Y": common.RegY,
	"Z": common.RegZ,
	"I": common.RegI,
	"J": common.RegJ,
}

var registers = []string{"A", "B", "C", "X", "Y", "Z", "I", "J", "SP", "EX",
	"IA", "PC"}

// Registers lists the register names RegByName understands.
func (d *DCPU) Registers() []string {
	return registers
}

// RegByName looks up a register case-insensitively, returning its value and
// canonical name.
func (d *DCPU) RegByName(name string) (uint16, string, bool) {
	name = strings.ToUpper(name)
	if r, ok := regNames[name]; ok {
		return d.regs[r], name, true
	}

	switch name {
	case "PC":
		return d.pc, name, true
	case "SP":
		return d.sp, name, true
	case "EX":
		return d.ex, name, true
	case "IA":
		return d.ia, name, true
	}
	return 0, "", false
}

// SetRegByName is the setter matching RegByName.
func (d *DCPU) SetRegByName(name string, val uint16) bool {
	name = strings.ToUpper(name)
	if r, ok := regNames[name]; ok {
		d.regs[r] = val
		return true
	}

	switch name {
	case "PC":
		d.pc = val
	case "SP":
		d.sp = val
	case "EX":
		d.ex = val
	case "IA":
		d.ia = val
	default:
		return false
	}
	return true
}
