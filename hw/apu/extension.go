package apu

import "nsfplay/hw/hwio"

// Extension is an expansion sound chip found on some cartridges. It is
// mixed as the Ext channel.
type Extension interface {
	Init()
	Shutdown()
	Reset()

	// Process advances the chip by one sample lasting cycles (16.16 fixed
	// point) CPU cycles, and returns its output.
	Process(cycles int32) int32

	// ReadRanges returns the chip registers the CPU can read. They are
	// read synchronously.
	ReadRanges() []hwio.ReadRange

	// WriteRanges returns the chip audio registers. Writes to them are
	// queued and applied in sync with the sample stream, like the APU ones.
	WriteRanges() []hwio.WriteRange
}

// BusWriter is implemented by extensions having registers or memory the
// CPU must see updated immediately (RAM, multipliers). Writes to these
// ranges bypass the write queue.
type BusWriter interface {
	BusWriteRanges() []hwio.WriteRange
}
