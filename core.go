// coemu runs DCPU-16 programs with a keyboard, clock, LEM1802 display and
// HMD2043 disk drives attached.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/bshepherdson/coemu/common"
	"github.com/bshepherdson/coemu/dcpu"
	"github.com/bshepherdson/coemu/hardware"
)

type globals struct {
	LogLevel string          `name:"log-level" enum:"trace,debug,info,warn,error" default:"info" env:"COEMU_LOG_LEVEL" help:"Log level (${enum})."`
	Config   kong.ConfigFlag `help:"Load options from a JSON file."`
}

type cli struct {
	globals

	Run     runCmd     `cmd:"" default:"withargs" help:"Boot a ROM image."`
	Disasm  disasmCmd  `cmd:"" help:"Disassemble a ROM image."`
	Devices devicesCmd `cmd:"" help:"List the devices that can be attached."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("coemu"),
		kong.Description("A DCPU-16 emulator."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.coemu.json", ".coemu.json"),
	)

	level, err := logrus.ParseLevel(c.LogLevel)
	ctx.FatalIfErrorf(err)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx.FatalIfErrorf(ctx.Run(&c.globals))
}

type runCmd struct {
	ROM      string   `arg:"" type:"existingfile" help:"ROM image to boot."`
	Endian   string   `enum:"big,little" default:"big" help:"Byte order of the ROM image (${enum})."`
	HW       []string `name:"hw" default:"keyboard,lem1802,hmd2043,clock,rng" env:"COEMU_HW" help:"Devices to attach, in bus order. See 'coemu devices'."`
	Disk     []string `type:"path" env:"COEMU_DISK" help:"Disk images to insert, one per drive."`
	Turbo    bool     `help:"Run unthrottled instead of at 100kHz."`
	Script   string   `type:"existingfile" help:"Lua script to run before the machine starts."`
	Headless bool     `help:"Show the screen as text in this terminal instead of an SDL window."`
}

func (r *runCmd) Run(g *globals) error {
	log := logrus.WithField("component", "coemu")

	m, err := newMachine(r.HW, log)
	if err != nil {
		return err
	}
	if err := m.loadROM(r.ROM, byteOrder(r.Endian)); err != nil {
		return err
	}
	if err := m.insertDisks(r.Disk); err != nil {
		return err
	}
	defer func() {
		if err := m.saveDisks(); err != nil {
			log.WithError(err).Error("saving disks")
		}
	}()
	m.turbo = r.Turbo

	if r.Script != "" {
		if err := runScript(m, r.Script); err != nil {
			return err
		}
		if m.quit {
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	input := make(chan func(*machine), 64)
	var fe frontend
	if r.Headless {
		host := newTerminalHost(input)
		if err := host.Start(); err != nil {
			return err
		}
		fe = host
	} else {
		s, err := newSDLFrontend()
		if err != nil {
			return err
		}
		fe = s
	}
	defer fe.Close()

	return m.run(ctx, input, fe)
}

type disasmCmd struct {
	ROM    string `arg:"" type:"existingfile" help:"ROM image to disassemble."`
	Endian string `enum:"big,little" default:"big" help:"Byte order of the ROM image (${enum})."`
	Start  int    `default:"0" help:"First address to disassemble."`
	End    int    `default:"-1" help:"Address to stop at. Defaults to the end of the image."`
}

func (d *disasmCmd) Run(g *globals) error {
	f, err := os.Open(d.ROM)
	if err != nil {
		return err
	}
	defer f.Close()

	words, err := dcpu.ReadImage(f, byteOrder(d.Endian))
	if err != nil {
		return err
	}
	var mem common.Memory
	mem.Overlay(words, 0)

	end := d.End
	if end < 0 {
		end = len(words)
	}
	return dcpu.Disassemble(os.Stdout, &mem, d.Start, end)
}

type devicesCmd struct{}

func (devicesCmd) Run(g *globals) error {
	for _, name := range hardware.Names() {
		fmt.Printf("%-20s %s\n", name, hardware.Types[name].Description)
	}
	return nil
}

// A frontend shows the machine to the user and collects their input.
type frontend interface {
	// Frame is called after every slice of emulation. It returns false once
	// the user has asked to stop.
	Frame(m *machine) bool
	Close()
}

// The machine runs in slices of cyclesPerTick, one per tick.
const (
	tickInterval  = 10 * time.Millisecond
	cyclesPerTick = common.ClockSpeed / 100
)

// run drives the machine until ctx is done, the frontend closes, a script or
// key asks to quit, or the DCPU catches fire. Host input arrives on input and
// is applied between slices.
func (m *machine) run(ctx context.Context, input <-chan func(*machine), fe frontend) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for !m.quit {
		if m.turbo {
			if ctx.Err() != nil {
				return nil
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}

	drain:
		for {
			select {
			case f := <-input:
				f(m)
			default:
				break drain
			}
		}

		if err := m.cpu.Run(cyclesPerTick); err != nil {
			return err
		}
		if fe != nil && !fe.Frame(m) {
			return nil
		}
	}
	return nil
}

// fKey handles the emulator's own function keys.
func (m *machine) fKey(key int) {
	switch key {
	case 1: // F1 - help
		fmt.Println("=== Emulator commands ===")
		fmt.Println("F1\tShow this help")
		fmt.Println("F4\tTurbo speed toggle")
		fmt.Println("F5\tPaste the clipboard")
		fmt.Println("F6\tEject/reinsert disk")

	case 4: // F4 - toggle turbo
		m.turbo = !m.turbo
		if m.turbo {
			m.log.Info("turbo enabled: speed unlimited")
		} else {
			m.log.Info("turbo disabled: running at 100kHz")
		}

	case 6: // F6 - eject/reinsert disk
		if err := m.toggleDisk(0); err != nil {
			m.log.WithError(err).Warn("F6")
		}
	}
}
