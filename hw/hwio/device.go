package hwio

import "nsfplay/emu/log"

type RWFlags uint8

const (
	ReadOnlyFlag RWFlags = 1 << iota
	WriteOnlyFlag
)

// Device manages a range of memory through callbacks. Accesses in a
// forbidden direction are logged and ignored.
type Device struct {
	Name  string // name of the memory area (for debugging)
	Flags RWFlags

	ReadCb  func(addr uint16) uint8
	WriteCb func(addr uint16, val uint8)
}

func (d *Device) Read8(addr uint16) uint8 {
	switch {
	case d.Flags&WriteOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly device").
			String("name", d.Name).
			Hex16("addr", addr).
			End()
		fallthrough
	case d.ReadCb == nil:
		return 0
	}
	return d.ReadCb(addr)
}

func (d *Device) Write8(addr uint16, val uint8) {
	switch {
	case d.Flags&ReadOnlyFlag != 0:
		log.ModHwIo.WarnZ("invalid Write8 to readonly device").
			String("name", d.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		fallthrough
	case d.WriteCb == nil:
		return
	}
	d.WriteCb(addr, val)
}
