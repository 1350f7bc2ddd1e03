package hardware

import (
	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// Key numbers for the keys that are not printable ASCII.
const (
	KeyBackspace uint16 = 0x10
	KeyReturn    uint16 = 0x11
	KeyInsert    uint16 = 0x12
	KeyDelete    uint16 = 0x13
	KeyUp        uint16 = 0x80
	KeyDown      uint16 = 0x81
	KeyLeft      uint16 = 0x82
	KeyRight     uint16 = 0x83
	KeyShift     uint16 = 0x90
	KeyControl   uint16 = 0x91
)

const keyBufferSize = 256

// Keyboard is the Generic Keyboard. Host input arrives through Type, Press
// and Release; the program reads it back a key at a time.
type Keyboard struct {
	cpu common.CPU
	log *logrus.Entry

	buffer  []uint16
	down    [0x100]bool
	message uint16
}

func NewKeyboard() *Keyboard {
	return &Keyboard{
		log:    deviceLog("keyboard"),
		buffer: make([]uint16, 0, keyBufferSize),
	}
}

func (k *Keyboard) DeviceDetails() (uint32, uint16, uint32) {
	return 0x30cf7406, 1, VendorNyaElektriska
}

func (k *Keyboard) Description() string { return "Generic Keyboard" }

func (k *Keyboard) Master(cpu common.CPU) { k.cpu = cpu }
func (k *Keyboard) Detach() error         { return detach(k.cpu, k) }
func (k *Keyboard) Clock(cycles int)      {}

func (k *Keyboard) Reset() {
	k.buffer = k.buffer[:0]
	k.down = [0x100]bool{}
	k.message = 0
}

// Type enqueues a typed character. Newlines become Return and DEL becomes
// Backspace; anything else outside printable ASCII is dropped. A key dropped
// because the buffer is full raises no interrupt.
func (k *Keyboard) Type(ch rune) {
	var key uint16
	switch {
	case ch == '\r' || ch == '\n':
		key = KeyReturn
	case ch == '\b' || ch == 0x7f:
		key = KeyBackspace
	case 0x20 <= ch && ch < 0x7f:
		key = uint16(ch)
	default:
		k.log.WithField("char", ch).Debug("untypeable character")
		return
	}
	if k.enqueue(key) {
		k.irq()
	}
}

// Press marks a key as held. Keys with no printable form are also enqueued;
// printable ones arrive through Type.
func (k *Keyboard) Press(key uint16) {
	k.down[key&0xff] = true
	if (key < 0x20 || key >= 0x7f) && !k.enqueue(key) {
		return
	}
	k.irq()
}

// Release marks a key as no longer held.
func (k *Keyboard) Release(key uint16) {
	k.down[key&0xff] = false
	k.irq()
}

// enqueue reports whether the key fit in the buffer.
func (k *Keyboard) enqueue(key uint16) bool {
	if len(k.buffer) >= keyBufferSize {
		k.log.WithField("key", key).Warn("keyboard buffer full, key dropped")
		return false
	}
	k.buffer = append(k.buffer, key)
	return true
}

func (k *Keyboard) irq() {
	if k.message != 0 {
		interrupt(k.cpu, k.message)
	}
}

func (k *Keyboard) Receive(msg uint16) {
	switch msg {
	case 0: // CLEAR_BUFFER
		k.buffer = k.buffer[:0]

	case 1: // GET_NEXT
		var key uint16
		if len(k.buffer) > 0 {
			key = k.buffer[0]
			k.buffer = append(k.buffer[:0], k.buffer[1:]...)
		}
		k.cpu.WriteReg(common.RegC, key)

	case 2: // CHECK_KEY
		var down uint16
		if b := k.cpu.ReadReg(common.RegB); b < 0x100 && k.down[b] {
			down = 1
		}
		k.cpu.WriteReg(common.RegC, down)

	case 3: // SET_INT
		k.message = k.cpu.ReadReg(common.RegB)
	}
}

// Buffered reports how many keys are waiting to be read.
func (k *Keyboard) Buffered() int {
	return len(k.buffer)
}
