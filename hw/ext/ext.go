// Package ext implements the expansion sound chips NSF tunes may use.
package ext

import (
	"nsfplay/emu/log"
	"nsfplay/hw/apu"
	"nsfplay/hw/hwio"
	"nsfplay/nsf"
)

var modExt = log.NewModule("ext")

// New returns the extension synthesizing the given chips, or nil if none of
// them is supported. Several chips are mixed together.
func New(chips nsf.Chips) apu.Extension {
	var m multi
	if chips.Has(nsf.VRC6) {
		m = append(m, NewVRC6())
	}
	if chips.Has(nsf.VRC7) {
		m = append(m, NewVRC7())
	}
	if chips.Has(nsf.FDS) {
		m = append(m, NewFDS())
	}
	if chips.Has(nsf.MMC5) {
		m = append(m, NewMMC5())
	}
	if chips.Has(nsf.N163) {
		modExt.WarnZ("expansion chip not supported, it won't be heard").
			Stringer("chip", nsf.N163).
			End()
	}
	if chips.Has(nsf.FME07) {
		m = append(m, NewFME07())
	}

	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

// multi mixes several chips.
type multi []apu.Extension

func (m multi) Init() {
	for _, e := range m {
		e.Init()
	}
}

func (m multi) Shutdown() {
	for _, e := range m {
		e.Shutdown()
	}
}

func (m multi) Reset() {
	for _, e := range m {
		e.Reset()
	}
}

func (m multi) Process(cycles int32) int32 {
	var out int32
	for _, e := range m {
		out += e.Process(cycles)
	}
	return out
}

func (m multi) ReadRanges() []hwio.ReadRange {
	var rr []hwio.ReadRange
	for _, e := range m {
		rr = append(rr, e.ReadRanges()...)
	}
	return rr
}

func (m multi) WriteRanges() []hwio.WriteRange {
	var wr []hwio.WriteRange
	for _, e := range m {
		wr = append(wr, e.WriteRanges()...)
	}
	return wr
}

func (m multi) BusWriteRanges() []hwio.WriteRange {
	var wr []hwio.WriteRange
	for _, e := range m {
		if bw, ok := e.(apu.BusWriter); ok {
			wr = append(wr, bw.BusWriteRanges()...)
		}
	}
	return wr
}

// cycleClock converts sample durations, in 16.16 CPU cycles, to whole
// cycles, carrying the fractional part over.
type cycleClock struct {
	frac int32
}

func (c *cycleClock) advance(cycles int32) int {
	c.frac += cycles
	n := c.frac >> 16
	c.frac &= 0xFFFF
	return int(n)
}

// stub provides the lifecycle methods chips don't need.
type stub struct{}

func (stub) Init()     {}
func (stub) Shutdown() {}

func (stub) ReadRanges() []hwio.ReadRange { return nil }
