package emu

import (
	"errors"
	"fmt"

	"nsfplay/hw/apu"
)

var (
	// ErrCPUJammed is returned once the tune code halted the CPU somewhere
	// else than at the end of the driver trampoline. It is sticky.
	ErrCPUJammed = errors.New("cpu jammed")

	ErrInvalidTrack   = errors.New("invalid track")
	ErrBadLoadAddress = errors.New("bad load address")
	ErrNoTrack        = errors.New("no track selected")
	ErrClosed         = errors.New("session closed")

	// ErrFormat reports an unsupported output sample format.
	ErrFormat = apu.ErrBadFormat
)

// JamError describes where the CPU halted.
type JamError struct {
	PC      uint16 // PC is the address of the halt opcode.
	Routine string // Routine is "init" or "play".
	Track   int
}

func (e *JamError) Error() string {
	return fmt.Sprintf("%v at $%04X during %s of track %d", ErrCPUJammed, e.PC, e.Routine, e.Track)
}

func (e *JamError) Unwrap() error { return ErrCPUJammed }
