package ext

import "nsfplay/hw/hwio"

// VRC6 is the Konami VRC6 sound: two pulse channels with 8 duty cycles and
// a sawtooth channel.
type VRC6 struct {
	stub
	clock cycleClock

	pulses [2]vrc6Pulse
	saw    vrc6Saw

	halt  bool
	shift uint8 // period shift of the frequency control register
}

type vrc6Pulse struct {
	enabled bool
	digital bool // constant output
	duty    uint8
	volume  uint8
	period  uint16
	count   int
	step    uint8
}

type vrc6Saw struct {
	enabled bool
	rate    uint8
	period  uint16
	count   int
	clocks  uint8
	acc     uint8
}

func NewVRC6() *VRC6 { return &VRC6{} }

func (v *VRC6) Reset() { *v = VRC6{} }

func (v *VRC6) WriteRanges() []hwio.WriteRange {
	return []hwio.WriteRange{
		{Min: 0x9000, Max: 0x9003, Write: v.write},
		{Min: 0xA000, Max: 0xA002, Write: v.write},
		{Min: 0xB000, Max: 0xB002, Write: v.write},
	}
}

func (v *VRC6) write(addr uint16, val uint8) {
	if addr == 0x9003 {
		v.halt = val&0x01 != 0
		switch {
		case val&0x04 != 0:
			v.shift = 8
		case val&0x02 != 0:
			v.shift = 4
		default:
			v.shift = 0
		}
		return
	}

	reg := addr & 3
	if addr >= 0xB000 {
		s := &v.saw
		switch reg {
		case 0:
			s.rate = val & 0x3F
		case 1:
			s.period = s.period&0xF00 | uint16(val)
		case 2:
			s.period = s.period&0x0FF | uint16(val&0x0F)<<8
			s.enabled = val&0x80 != 0
			if !s.enabled {
				s.acc, s.clocks = 0, 0
			}
		}
		return
	}

	p := &v.pulses[(addr>>12)-9]
	switch reg {
	case 0:
		p.digital = val&0x80 != 0
		p.duty = (val >> 4) & 0x07
		p.volume = val & 0x0F
	case 1:
		p.period = p.period&0xF00 | uint16(val)
	case 2:
		p.period = p.period&0x0FF | uint16(val&0x0F)<<8
		p.enabled = val&0x80 != 0
		if !p.enabled {
			p.step = 0
		}
	}
}

func (p *vrc6Pulse) output() int32 {
	if !p.enabled {
		return 0
	}
	if p.digital || p.step <= p.duty {
		return int32(p.volume)
	}
	return 0
}

func (p *vrc6Pulse) clock(shift uint8) {
	if !p.enabled {
		return
	}
	if p.count--; p.count < 0 {
		p.count = int(p.period >> shift)
		p.step = (p.step + 1) & 0x0F
	}
}

func (s *vrc6Saw) output() int32 {
	if !s.enabled {
		return 0
	}
	return int32(s.acc >> 3)
}

// The accumulator advances every other period and resets after 7 adds.
func (s *vrc6Saw) clock(shift uint8) {
	if !s.enabled {
		return
	}
	if s.count--; s.count >= 0 {
		return
	}
	s.count = int(s.period >> shift)
	s.clocks++
	switch {
	case s.clocks == 14:
		s.clocks = 0
		s.acc = 0
	case s.clocks&1 == 0:
		s.acc += s.rate
	}
}

// Process averages the chip output over the sample.
func (v *VRC6) Process(cycles int32) int32 {
	n := v.clock.advance(cycles)
	if n == 0 {
		return 0
	}

	var total int32
	for range n {
		if !v.halt {
			v.pulses[0].clock(v.shift)
			v.pulses[1].clock(v.shift)
			v.saw.clock(v.shift)
		}
		total += v.pulses[0].output() + v.pulses[1].output() + v.saw.output()
	}
	return (total << 8) / int32(n)
}
