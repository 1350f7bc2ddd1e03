package main

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/bshepherdson/coemu/hardware"
)

const textInterval = 100 * time.Millisecond

// terminalHost is the headless frontend: it reads raw stdin into the keyboard
// and prints the LEM1802's characters as text.
type terminalHost struct {
	input    chan<- func(*machine)
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
	fd       int
	oldState *term.State

	lastText  time.Time
	lastFrame []byte
}

func newTerminalHost(input chan<- func(*machine)) *terminalHost {
	return &terminalHost{
		input:  input,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts stdin into raw, non-blocking mode and begins reading it.
func (h *terminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	h.oldState = oldState

	if err := unix.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldState)
		return fmt.Errorf("failed to set nonblocking stdin: %w", err)
	}

	go h.read()
	return nil
}

func (h *terminalHost) read() {
	defer close(h.done)
	buf := make([]byte, 64)
	var dec keyDecoder

	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := unix.Read(h.fd, buf)
		for _, b := range buf[:max(n, 0)] {
			if ev, ok := dec.feed(b); ok {
				h.send(ev)
			}
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || (err == nil && n == 0) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

func (h *terminalHost) send(ev keyEvent) {
	var f func(*machine)
	switch {
	case ev.quit:
		f = func(m *machine) { m.quit = true }
	case ev.key != 0:
		f = func(m *machine) {
			if m.keyboard != nil {
				m.keyboard.Press(ev.key)
				m.keyboard.Release(ev.key)
			}
		}
	default:
		f = func(m *machine) {
			if m.keyboard != nil {
				m.keyboard.Type(ev.ch)
			}
		}
	}

	select {
	case h.input <- f:
	case <-h.stopCh:
	}
}

// Close stops the reader and restores the terminal.
func (h *terminalHost) Close() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	_ = unix.SetNonblock(h.fd, false)
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}

func (h *terminalHost) Frame(m *machine) bool {
	if m.display == nil || time.Since(h.lastText) < textInterval {
		return true
	}
	h.lastText = time.Now()

	text := screenText(m.display)
	if !bytes.Equal(text, h.lastFrame) {
		h.lastFrame = text
		os.Stdout.Write([]byte("\x1b[H\x1b[2J"))
		os.Stdout.Write(text)
	}
	return true
}

// screenText renders the screen's characters, one line per row. Raw mode
// needs explicit carriage returns.
func screenText(lem *hardware.LEM1802) []byte {
	if !lem.Connected() {
		return nil
	}
	var buf bytes.Buffer
	vram := lem.Nametable()
	for row := 0; row < hardware.HeightChars; row++ {
		for col := 0; col < hardware.WidthChars; col++ {
			c := byte(vram.At(row*hardware.WidthChars+col) & 0x7f)
			if c < 0x20 || c == 0x7f {
				c = ' '
			}
			buf.WriteByte(c)
		}
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

type keyEvent struct {
	ch   rune
	key  uint16
	quit bool
}

// keyDecoder turns raw terminal bytes into key events, including the ANSI
// sequences for the arrow keys.
type keyDecoder struct {
	esc int // Bytes of an escape sequence seen so far.
}

func (d *keyDecoder) feed(b byte) (keyEvent, bool) {
	switch d.esc {
	case 1:
		if b == '[' {
			d.esc = 2
			return keyEvent{}, false
		}
		d.esc = 0
	case 2:
		d.esc = 0
		switch b {
		case 'A':
			return keyEvent{key: hardware.KeyUp}, true
		case 'B':
			return keyEvent{key: hardware.KeyDown}, true
		case 'C':
			return keyEvent{key: hardware.KeyRight}, true
		case 'D':
			return keyEvent{key: hardware.KeyLeft}, true
		}
		return keyEvent{}, false
	}

	switch b {
	case 0x1b:
		d.esc = 1
		return keyEvent{}, false
	case 0x03: // Ctrl-C; raw mode turns off signals.
		return keyEvent{quit: true}, true
	}
	return keyEvent{ch: rune(b)}, true
}
