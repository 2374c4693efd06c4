package emu

import (
	"fmt"

	"nsfplay/emu/log"
	"nsfplay/hw"
	"nsfplay/nsf"
)

const (
	bankSize  = hw.PageSize
	bankRegLo = 0x5FF6
	bankRegHi = 0x5FFF

	sramPage = 0x6
	romPage  = 0x8
)

// memory is the tune address space above the APU registers: the program
// image cut in 4KB banks, and RAM.
type memory struct {
	fds   bool
	image []byte // padded program, a multiple of bankSize
	zero  []byte // out of range banks map here

	// Mapped at $6000-$7FFF, or $6000-$FFFF for FDS tunes.
	ram []byte

	init [hw.NumPages]uint8 // banks to map at track start, pages 6 to 15
}

// newMemory lays the program image out in banks.
func newMemory(f *nsf.File) (*memory, error) {
	m := &memory{
		fds:  f.Chips.Has(nsf.FDS),
		zero: make([]byte, bankSize),
	}

	lo := uint16(0x8000)
	if m.fds {
		lo = 0x6000
	}
	if f.LoadAddr < lo {
		return nil, fmt.Errorf("%w: $%04X", ErrBadLoadAddress, f.LoadAddr)
	}

	// Without bankswitching, the image is loaded linearly from lo and banks
	// are mapped in order.
	pad := int(f.LoadAddr - lo)
	if f.IsBankswitched() {
		pad = int(f.LoadAddr & (bankSize - 1))
		for i, b := range f.Banks {
			m.init[romPage+i] = b
		}
		m.init[6], m.init[7] = f.Banks[6], f.Banks[7]
	} else {
		first := uint8(0)
		if m.fds {
			m.init[6], m.init[7] = 0, 1
			first = 2
		}
		for i := range 8 {
			m.init[romPage+i] = first + uint8(i)
		}
	}

	size := pad + len(f.Data)
	size = (size + bankSize - 1) &^ (bankSize - 1)
	m.image = make([]byte, size)
	copy(m.image[pad:], f.Data)

	if m.fds {
		m.ram = make([]byte, (hw.NumPages-sramPage)*bankSize)
	} else {
		m.ram = make([]byte, (romPage-sramPage)*bankSize)
	}

	log.ModEmu.DebugZ("program image").
		Hex16("load", f.LoadAddr).
		Int("banks", m.numBanks()).
		Bool("bankswitched", f.IsBankswitched()).
		Bool("fds", m.fds).
		End()
	return m, nil
}

func (m *memory) numBanks() int { return len(m.image) / bankSize }

// bank returns the storage of bank n.
func (m *memory) bank(n uint8) []byte {
	if int(n) >= m.numBanks() {
		return m.zero
	}
	off := int(n) * bankSize
	return m.image[off : off+bankSize : off+bankSize]
}

// ramPage returns the RAM backing the given CPU page.
func (m *memory) ramPage(page int) []byte {
	off := (page - sramPage) * bankSize
	return m.ram[off : off+bankSize : off+bankSize]
}

// reset clears RAM and maps the initial banks.
func (m *memory) reset(c *hw.CPU) {
	clear(m.ram)
	for page := sramPage; page < hw.NumPages; page++ {
		switch {
		case m.fds:
			c.Pages[page] = m.ramPage(page)
		case page < romPage:
			c.Pages[page] = m.ramPage(page)
		default:
			c.Pages[page] = m.bank(m.init[page])
		}
	}
	if m.fds {
		for page := sramPage; page < hw.NumPages; page++ {
			copy(m.ramPage(page), m.bank(m.init[page]))
		}
	}
}

// switchBank handles writes to $5FF6-$5FFF. For FDS tunes, the bank is
// copied to RAM, other tunes see the page window move.
func (m *memory) switchBank(c *hw.CPU, addr uint16, val uint8) {
	page := int(addr & 0xF)
	if m.fds {
		copy(m.ramPage(page), m.bank(val))
		return
	}
	if page < romPage {
		log.ModEmu.DebugZ("ignored bank switch").Hex16("addr", addr).Hex8("val", val).End()
		return
	}
	c.Pages[page] = m.bank(val)
}
