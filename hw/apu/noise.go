package apu

import "nsfplay/emu/log"

// noise is the channel at $400C-$400F. Its 15-bit LFSR feeds back bit 0
// xor bit 1, or bit 0 xor bit 6 in short mode, which gives a 93 steps
// sequence instead of 32767.
type noise struct {
	regs    [3]uint8 // $400C, $400E, $400F
	enabled bool

	env    envelope
	length lengthCounter

	period int32 // 16.16
	short  bool
	lfsr   uint16
	phase  int32

	out int32
}

func (n *noise) reset(l *luts) {
	*n = noise{lfsr: 1, period: toFixed(noisePeriods[0])}
	n.env.write(0, l)
}

func (n *noise) write(reg uint8, val uint8, l *luts) {
	switch reg {
	case 0:
		n.regs[0] = val
		n.env.write(val, l)
		n.length.halt = n.env.loop
	case 2:
		n.regs[1] = val
		n.period = toFixed(noisePeriods[val&0x0F])
		n.short = val&0x80 != 0
	case 3:
		n.regs[2] = val
		if n.enabled {
			n.length.load(val>>3, l)
		}
		n.env.restart()
	}

	log.ModSound.DebugZ("write noise").
		Uint8("reg", reg).
		Hex8("val", val).
		End()
}

func (n *noise) setEnabled(on bool) {
	n.enabled = on
	if !on {
		n.length.count = 0
	}
}

// shift clocks the LFSR and reports whether the output is high.
func (n *noise) shift() bool {
	tap := uint16(0x02)
	if n.short {
		tap = 0x40
	}
	bit0 := n.lfsr & 1
	fb := bit0
	if n.lfsr&tap != 0 {
		fb ^= 1
	}
	n.lfsr = n.lfsr>>1 | fb<<14
	return bit0 == 0
}

func (n *noise) tick(cycles int32) int32 {
	n.out -= n.out >> 7

	if !n.enabled || !n.length.active() {
		return n.out
	}

	n.length.tick()
	n.env.tick()

	n.phase -= cycles
	if n.phase >= 0 {
		return n.out
	}

	level := n.env.output() << 8
	var total, steps int32
	for n.phase < 0 {
		n.phase += n.period
		if n.shift() {
			total += level
		} else {
			total -= level
		}
		steps++
	}
	n.out = total / steps
	return n.out
}

func (n *noise) rescale(num, den int) {
	n.env.rescale(num, den)
	n.length.rescale(num, den)
}
