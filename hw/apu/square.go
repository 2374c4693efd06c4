package apu

import "nsfplay/emu/log"

// pulse is one of the two square channels, at $4000 and $4004.
//
// The 16-step sequencer advances once every period+1 CPU cycles. Its output
// is high while the step is below the duty flip point. Each sample averages
// the levels of all the steps crossed since the previous one, then the
// output decays toward 0 until the next step.
type pulse struct {
	regs    [4]uint8
	name    string
	enabled bool

	// complement is set on pulse 1, whose sweep unit subtracts one more
	// when negating.
	complement bool

	env    envelope
	length lengthCounter

	period uint16 // 11-bit timer period
	duty   uint8
	step   uint8
	phase  int32

	sweepOn    bool
	sweepNeg   bool
	sweepShift uint8
	sweepDelay int
	sweepPhase int

	out int32
}

// reset leaves the dividers as if the control and sweep registers were 0.
func (p *pulse) reset(l *luts) {
	*p = pulse{name: p.name, complement: p.complement}
	p.env.write(0, l)
	p.sweepDelay = l.decay[0]
}

func (p *pulse) write(reg uint8, val uint8, l *luts) {
	p.regs[reg] = val

	switch reg {
	case 0:
		p.env.write(val, l)
		p.length.halt = p.env.loop
		p.duty = dutyFlip[val>>6]
	case 1:
		p.sweepOn = val&0x80 != 0
		p.sweepDelay = l.decay[(val>>4)&0x07]
		p.sweepNeg = val&0x08 != 0
		p.sweepShift = val & 0x07
	case 2:
		p.period = p.period&0x700 | uint16(val)
	case 3:
		p.period = p.period&0x0FF | uint16(val&0x07)<<8
		if p.enabled {
			p.length.load(val>>3, l)
		}
		p.env.restart()
		p.step = 0
	}

	log.ModSound.DebugZ("write pulse").
		String("ch", p.name).
		Uint8("reg", reg).
		Hex8("val", val).
		Uint16("period", p.period).
		End()
}

func (p *pulse) setEnabled(on bool) {
	p.enabled = on
	if !on {
		p.length.count = 0
	}
}

// muted reports whether the period is out of the audible or sweepable
// range, regardless of the sweep unit state.
func (p *pulse) muted() bool {
	return p.period < 8 || (!p.sweepNeg && p.period > sweepLimit[p.sweepShift])
}

func (p *pulse) tickSweep() {
	if !p.sweepOn || p.sweepShift == 0 || p.sweepDelay <= 0 {
		return
	}
	p.sweepPhase -= 2
	for p.sweepPhase < 0 {
		p.sweepPhase += p.sweepDelay
		delta := p.period >> p.sweepShift
		if p.sweepNeg {
			p.period -= delta
			if p.complement {
				p.period--
			}
		} else {
			p.period += delta
		}
	}
}

// tick advances the channel by one sample lasting cycles (16.16) CPU cycles.
func (p *pulse) tick(cycles int32) int32 {
	p.out -= p.out >> 7

	if !p.enabled || !p.length.active() {
		return p.out
	}

	p.length.tick()
	p.env.tick()

	if p.muted() {
		return p.out
	}
	p.tickSweep()

	p.phase -= cycles
	if p.phase >= 0 {
		return p.out
	}

	level := p.env.output() << 8
	var total, n int32
	for p.phase < 0 {
		p.phase += toFixed(int32(p.period) + 1)
		p.step = (p.step + 1) & 0x0F
		if p.step < p.duty {
			total += level
		} else {
			total -= level
		}
		n++
	}
	p.out = total / n
	return p.out
}

func (p *pulse) rescale(num, den int) {
	p.env.rescale(num, den)
	p.length.rescale(num, den)
	p.sweepDelay = max(1, p.sweepDelay*num/den)
	p.sweepPhase = p.sweepPhase * num / den
}
