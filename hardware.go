package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/dcpu"
	"github.com/bshepherdson/coemu/hardware"
)

// machine is a DCPU and the devices the host talks to directly.
type machine struct {
	cpu      *dcpu.DCPU
	keyboard *hardware.Keyboard
	display  *hardware.LEM1802
	drives   []*hardware.HMD2043
	log      *logrus.Entry

	turbo bool
	quit  bool

	ejected map[int]*hardware.HMU1440 // Last media ejected from each drive.
}

// newMachine builds a DCPU with the named devices attached in bus order.
func newMachine(devices []string, log *logrus.Entry) (*machine, error) {
	m := &machine{
		cpu:     dcpu.NewDCPU(dcpu.WithLogger(log.WithField("component", "dcpu"))),
		log:     log,
		ejected: map[int]*hardware.HMU1440{},
	}

	for _, name := range devices {
		dev, err := hardware.New(name)
		if err != nil {
			return nil, err
		}
		if err := m.cpu.Attach(dev); err != nil {
			return nil, fmt.Errorf("attaching %s: %w", name, err)
		}

		switch d := dev.(type) {
		case *hardware.Keyboard:
			if m.keyboard == nil {
				m.keyboard = d
			}
		case *hardware.LEM1802:
			if m.display == nil {
				m.display = d
			}
		case *hardware.HMD2043:
			m.drives = append(m.drives, d)
		}
	}
	return m, nil
}

func byteOrder(name string) binary.ByteOrder {
	if name == "little" {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// loadROM boots the machine from an image file.
func (m *machine) loadROM(path string, order binary.ByteOrder) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ROM file: %w", err)
	}
	defer f.Close()

	if err := m.cpu.LoadImage(f, order); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (m *machine) drive(i int) (*hardware.HMD2043, error) {
	if i < 0 || i >= len(m.drives) {
		return nil, fmt.Errorf("no disk drive %d (have %d)", i, len(m.drives))
	}
	return m.drives[i], nil
}

// insertDisks puts one image into each drive, in order.
func (m *machine) insertDisks(paths []string) error {
	if len(paths) > len(m.drives) {
		return fmt.Errorf("%d disks but only %d drives", len(paths), len(m.drives))
	}
	for i, path := range paths {
		if err := m.insert(i, path); err != nil {
			return err
		}
	}
	return nil
}

// insert opens an image and puts it in drive i. Whatever was there is ejected
// and saved first, so reinserting the same image sees its latest contents.
func (m *machine) insert(i int, path string) error {
	d, err := m.drive(i)
	if err != nil {
		return err
	}
	if err := m.eject(i); err != nil {
		return err
	}
	media, err := hardware.OpenMedia(path)
	if err != nil {
		return err
	}
	d.Insert(media)
	m.log.WithFields(logrus.Fields{"drive": i, "path": path}).Info("disk inserted")
	return nil
}

// eject removes the media from drive i, saving it back to its image.
func (m *machine) eject(i int) error {
	d, err := m.drive(i)
	if err != nil {
		return err
	}
	media := d.Media()
	if media == nil {
		return nil
	}
	d.Eject()
	m.ejected[i] = media
	m.log.WithField("drive", i).Info("disk ejected")
	return media.Save()
}

// toggleDisk ejects drive i, or puts back the media last ejected from it.
func (m *machine) toggleDisk(i int) error {
	d, err := m.drive(i)
	if err != nil {
		return err
	}
	if d.Media() != nil {
		return m.eject(i)
	}
	if media := m.ejected[i]; media != nil {
		d.Insert(media)
		m.log.WithField("drive", i).Info("disk reinserted")
	}
	return nil
}

// saveDisks writes every inserted disk back to its image.
func (m *machine) saveDisks() error {
	for i, d := range m.drives {
		if media := d.Media(); media != nil {
			if err := media.Save(); err != nil {
				return fmt.Errorf("drive %d: %w", i, err)
			}
		}
	}
	return nil
}
