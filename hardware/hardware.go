// Package hardware holds the DCPU-16 peripherals: the devices a program finds
// on the bus with HWN and HWQ and drives with HWI.
package hardware

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// Vendor IDs.
const (
	VendorNyaElektriska uint32 = 0x1c6c8b36
	VendorHaroldIT      uint32 = 0x21544948
)

// ErrNoMaster is returned by Detach on a device that was never attached.
var ErrNoMaster = errors.New("device is not attached to a CPU")

// Type is an entry in the device table: a constructor and a human-readable
// description.
type Type struct {
	Description string
	New         func() common.Device
}

// Types lists every device that can be built by name, as used by the --hw
// flag.
var Types = map[string]Type{
	"clock":    {"Generic Clock", func() common.Device { return NewClock() }},
	"keyboard": {"Generic Keyboard", func() common.Device { return NewKeyboard() }},
	"lem1802":  {"LEM-1802 Display Adapter", func() common.Device { return NewLEM1802() }},
	"hmd2043":  {"HMD2043 Harold Media Drive", func() common.Device { return NewHMD2043() }},
	"rng":      {"Random number generator", func() common.Device { return NewRNG() }},
}

// Names returns the device table's keys in sorted order.
func Names() []string {
	names := make([]string, 0, len(Types))
	for name := range Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named device.
func New(name string) (common.Device, error) {
	t, ok := Types[name]
	if !ok {
		return nil, fmt.Errorf("unknown device %q", name)
	}
	return t.New(), nil
}

func deviceLog(name string) *logrus.Entry {
	return logrus.WithField("device", name)
}

// interrupt raises msg on cpu, if the device has been attached.
func interrupt(cpu common.CPU, msg uint16) {
	if cpu != nil {
		cpu.Interrupt(msg)
	}
}

func detach(cpu common.CPU, dev common.Device) error {
	if cpu == nil {
		return ErrNoMaster
	}
	return cpu.Remove(dev)
}
