package apu

import "nsfplay/emu/log"

// dmc is the delta modulation channel at $4010-$4013. It reads 1-bit
// deltas from CPU memory, least significant bit first, and moves a 7-bit
// level up or down by 2 for each of them. Each byte fetched steals a CPU
// cycle.
type dmc struct {
	regs    [4]uint8
	enabled bool

	period int32 // 16.16 CPU cycles per bit
	phase  int32

	loop   bool
	irqGen bool
	irq    bool // IRQ flag, reported by $4015 bit 7

	level uint8 // 7-bit DAC level

	startAddr uint16
	startBits int
	addr      uint16
	bits      int // bits left to play
	cur       uint8

	out int32
}

func (d *dmc) reset() { *d = dmc{period: toFixed(dmcPeriods[0])} }

func (d *dmc) write(reg uint8, val uint8) {
	d.regs[reg] = val

	switch reg {
	case 0:
		d.period = toFixed(dmcPeriods[val&0x0F])
		d.loop = val&0x40 != 0
		d.irqGen = val&0x80 != 0
		if !d.irqGen {
			d.irq = false
		}
	case 1:
		lvl := val & 0x7F
		d.out += (int32(lvl) - int32(d.level)) << 8
		d.level = lvl
	case 2:
		d.startAddr = 0xC000 | uint16(val)<<6
	case 3:
		d.startBits = (int(val)<<4 + 1) << 3
	}

	log.ModSound.DebugZ("write dmc").
		Uint8("reg", reg).
		Hex8("val", val).
		End()
}

func (d *dmc) reload() {
	d.addr = d.startAddr
	d.bits = d.startBits
	d.irq = false
}

func (d *dmc) setEnabled(on bool) {
	if on {
		if d.bits == 0 {
			d.reload()
		}
		d.enabled = true
		return
	}
	d.bits = 0
	d.enabled = false
}

// active reports whether sample bytes remain.
func (d *dmc) active() bool { return d.bits > 0 }

func (d *dmc) tick(cycles int32, c cpu) int32 {
	d.out -= d.out >> 7

	if d.bits == 0 {
		return d.out
	}

	d.phase -= cycles
	for d.phase < 0 {
		d.phase += d.period

		if d.bits&7 == 0 {
			d.cur = c.Read8(d.addr)
			c.AddDMACycles(1)
			if d.addr == 0xFFFF {
				d.addr = 0x8000
			} else {
				d.addr++
			}
		}

		bit := uint8(d.bits-1)&7 ^ 7
		if d.cur&(1<<bit) != 0 {
			if d.level <= 125 {
				d.level += 2
				d.out += 2 << 8
			}
		} else if d.level >= 2 {
			d.level -= 2
			d.out -= 2 << 8
		}

		d.bits--
		if d.bits == 0 {
			if d.loop {
				d.reload()
				continue
			}
			if d.irqGen {
				d.irq = true
				c.RaiseIRQ()
				log.ModSound.DebugZ("dmc irq").Hex16("addr", d.addr).End()
			}
			d.enabled = false
			break
		}
	}
	return d.out
}
