package ext

import "nsfplay/hw/hwio"

// MMC5 is the Nintendo MMC5 sound: two pulse channels without sweep, and a
// raw 8-bit PCM channel. The mapper multiplier and extended RAM are exposed
// too, some tunes use them.
type MMC5 struct {
	stub
	clock cycleClock

	pulses [2]mmc5Pulse
	pcm    uint8

	frame    int // CPU cycles to the next quarter frame
	quarters uint8

	mulA, mulB uint8
	exram      *hwio.Mem
}

type mmc5Pulse struct {
	enabled bool
	duty    uint8
	seq     uint8
	period  uint16
	timer   int

	length uint8
	halt   bool // also the envelope loop flag

	constant bool
	volume   uint8
	start    bool
	divider  uint8
	decay    uint8
}

// MMC5 frame sequencer period, in CPU cycles (240Hz).
const mmc5QuarterFrame = 7457

// Length counter loads, in half frames.
var mmc5Lengths = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var mmc5Duties = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

func NewMMC5() *MMC5 {
	m := &MMC5{exram: hwio.NewMem("exram", 0x400)}
	m.Reset()
	return m
}

func (m *MMC5) Reset() {
	m.pulses = [2]mmc5Pulse{}
	m.pcm = 0
	m.frame, m.quarters = mmc5QuarterFrame, 0
	m.mulA, m.mulB = 0xFF, 0xFF
	clear(m.exram.Data)
}

func (m *MMC5) ReadRanges() []hwio.ReadRange {
	return []hwio.ReadRange{
		{Min: 0x5015, Max: 0x5015, Read: m.readStatus},
		{Min: 0x5205, Max: 0x5206, Read: m.readMul},
		{Min: 0x5C00, Max: 0x5FF5, Read: m.exram.Read8},
	}
}

func (m *MMC5) WriteRanges() []hwio.WriteRange {
	return []hwio.WriteRange{
		{Min: 0x5000, Max: 0x5007, Write: m.writePulse},
		{Min: 0x5010, Max: 0x5011, Write: m.writePCM},
		{Min: 0x5015, Max: 0x5015, Write: m.writeStatus},
	}
}

func (m *MMC5) BusWriteRanges() []hwio.WriteRange {
	return []hwio.WriteRange{
		{Min: 0x5205, Max: 0x5206, Write: m.writeMul},
		{Min: 0x5C00, Max: 0x5FF5, Write: m.exram.Write8},
	}
}

func (m *MMC5) readMul(addr uint16) uint8 {
	prod := uint16(m.mulA) * uint16(m.mulB)
	if addr == 0x5205 {
		return uint8(prod)
	}
	return uint8(prod >> 8)
}

func (m *MMC5) writeMul(addr uint16, val uint8) {
	if addr == 0x5205 {
		m.mulA = val
	} else {
		m.mulB = val
	}
}

func (m *MMC5) readStatus(uint16) uint8 {
	var st uint8
	for i := range m.pulses {
		if m.pulses[i].length > 0 {
			st |= 1 << i
		}
	}
	return st
}

func (m *MMC5) writeStatus(_ uint16, val uint8) {
	for i := range m.pulses {
		p := &m.pulses[i]
		p.enabled = val&(1<<i) != 0
		if !p.enabled {
			p.length = 0
		}
	}
}

func (m *MMC5) writePCM(addr uint16, val uint8) {
	// Only write mode is supported: the read mode needs the CPU to read
	// the sample from ROM through the mapper.
	if addr == 0x5011 && val != 0 {
		m.pcm = val
	}
}

func (m *MMC5) writePulse(addr uint16, val uint8) {
	p := &m.pulses[(addr>>2)&1]
	switch addr & 3 {
	case 0:
		p.duty = val >> 6
		p.halt = val&0x20 != 0
		p.constant = val&0x10 != 0
		p.volume = val & 0x0F
	case 2:
		p.period = p.period&0x700 | uint16(val)
	case 3:
		p.period = p.period&0x0FF | uint16(val&0x07)<<8
		if p.enabled {
			p.length = mmc5Lengths[val>>3]
		}
		p.seq = 0
		p.start = true
	}
}

func (p *mmc5Pulse) clockEnvelope() {
	if p.start {
		p.start = false
		p.decay = 15
		p.divider = p.volume
		return
	}
	if p.divider > 0 {
		p.divider--
		return
	}
	p.divider = p.volume
	switch {
	case p.decay > 0:
		p.decay--
	case p.halt:
		p.decay = 15
	}
}

func (p *mmc5Pulse) clockLength() {
	if !p.halt && p.length > 0 {
		p.length--
	}
}

// The sequencer is clocked every other CPU cycle.
func (p *mmc5Pulse) clockTimer() {
	if p.timer--; p.timer < 0 {
		p.timer = 2*int(p.period) + 1
		p.seq = (p.seq + 1) & 7
	}
}

func (p *mmc5Pulse) output() int32 {
	if p.length == 0 || mmc5Duties[p.duty][p.seq] == 0 {
		return 0
	}
	if p.constant {
		return int32(p.volume)
	}
	return int32(p.decay)
}

func (m *MMC5) cycle() int32 {
	if m.frame--; m.frame <= 0 {
		m.frame = mmc5QuarterFrame
		m.quarters++
		for i := range m.pulses {
			m.pulses[i].clockEnvelope()
			if m.quarters&1 == 0 {
				m.pulses[i].clockLength()
			}
		}
	}

	var out int32
	for i := range m.pulses {
		m.pulses[i].clockTimer()
		out += m.pulses[i].output()
	}
	return out<<8 + int32(m.pcm)<<5
}

func (m *MMC5) Process(cycles int32) int32 {
	n := m.clock.advance(cycles)
	if n == 0 {
		return 0
	}
	var total int32
	for range n {
		total += m.cycle()
	}
	return total / int32(n)
}
