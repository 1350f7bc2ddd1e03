package dcpu

import (
	"errors"
	"fmt"
)

// Machine faults. The DCPU-16 documentation describes all of these as the
// machine catching fire; they stop execution until the next Reset.
var (
	ErrInvalidOpcode     = errors.New("invalid opcode")
	ErrNoSuchDevice      = errors.New("accessed device that does not exist")
	ErrInterruptOverflow = errors.New("interrupt queue overflow")
)

// Bus configuration errors. These are returned synchronously and leave the
// machine untouched.
var (
	ErrAlreadyAttached = errors.New("device already attached")
	ErrTooManyDevices  = errors.New("cannot attach more than 65535 devices")
	ErrNotAttached     = errors.New("device not attached")
	ErrImageTooLarge   = errors.New("image larger than 0x10000 words")
)

// Fault is returned by Step once the machine has caught fire.
type Fault struct {
	PC   uint16 // Address of the faulting instruction.
	Word uint16 // The instruction word itself.
	Err  error
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("DCPU has caught fire at %04x (%04x): %v: %s", f.PC, f.Word, f.Err, f.Msg)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
