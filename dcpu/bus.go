package dcpu

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

const maxDevices = 0xffff

// Attach connects a device to the bus. The DCPU-16 does not support hot
// swapping, so the whole machine is reset afterwards.
func (d *DCPU) Attach(dev common.Device) error {
	if len(d.devices) >= maxDevices {
		return ErrTooManyDevices
	}
	if d.index(dev) >= 0 {
		return ErrAlreadyAttached
	}

	dev.Master(d)
	d.devices = append(d.devices, dev)
	d.logDevice(dev, len(d.devices)-1).Info("attached")
	d.Reset()
	return nil
}

// Remove disconnects a device and resets the machine. The device loses its
// master and is reset too, so it can no longer reach this CPU.
func (d *DCPU) Remove(dev common.Device) error {
	i := d.index(dev)
	if i < 0 {
		return ErrNotAttached
	}

	d.logDevice(dev, i).Info("detached")
	d.devices = append(d.devices[:i:i], d.devices[i+1:]...)
	dev.Master(nil)
	dev.Reset()
	d.Reset()
	return nil
}

// Devices returns the attached devices, in bus order.
func (d *DCPU) Devices() []common.Device {
	return d.devices
}

func (d *DCPU) index(dev common.Device) int {
	for i, x := range d.devices {
		if x == dev {
			return i
		}
	}
	return -1
}

// device returns the device at bus index i, or catches fire.
func (d *DCPU) device(i uint16) common.Device {
	if int(i) >= len(d.devices) {
		d.catchFire(ErrNoSuchDevice, "device %d of %d", i, len(d.devices))
		return nil
	}
	return d.devices[i]
}

func (d *DCPU) logDevice(dev common.Device, i int) *logrus.Entry {
	id, _, vendor := dev.DeviceDetails()
	return d.log.WithFields(logrus.Fields{
		"index":  i,
		"device": dev.Description(),
		"id":     fmt.Sprintf("%08x", id),
		"vendor": fmt.Sprintf("%08x", vendor),
	})
}
