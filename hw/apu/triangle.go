package apu

import "nsfplay/emu/log"

// triangle is the channel at $4008-$400B. Its 32-step sequencer ramps the
// output up and down by a constant amount per step. Beside the length
// counter, a linear counter gates the output.
//
// The linear counter only starts counting down some time after $400B is
// written, so that a driver writing the period registers before the control
// register doesn't start the note early.
type triangle struct {
	regs    [3]uint8 // $4008, $400A, $400B
	enabled bool

	length lengthCounter
	hold   bool // control flag, halts both counters

	linear  int
	started bool
	latency int // samples before the linear counter starts

	period int32 // 16.16 CPU cycles per step
	phase  int32
	step   uint8

	out int32
}

// Write latency of the linear counter, in CPU cycles.
const triangleLatency = 228

func (t *triangle) reset() { *t = triangle{} }

func (t *triangle) write(reg uint8, val uint8, l *luts, latency int) {
	switch reg {
	case 0:
		t.regs[0] = val
		t.hold = val&0x80 != 0
		t.length.halt = t.hold
		if !t.started && t.length.active() {
			t.linear = l.linear[val&0x7F]
		}
	case 2:
		t.regs[1] = val
		t.period = toFixed(int32(t.regs[2]&0x07)<<8|int32(val)) + toFixed(1)
	case 3:
		t.regs[2] = val
		t.latency = latency
		t.period = toFixed(int32(val&0x07)<<8|int32(t.regs[1])) + toFixed(1)
		if t.enabled {
			t.length.load(val>>3, l)
		}
		t.started = false
		t.linear = l.linear[t.regs[0]&0x7F]
	}

	log.ModSound.DebugZ("write triangle").
		Uint8("reg", reg).
		Hex8("val", val).
		Int("linear", t.linear).
		End()
}

func (t *triangle) setEnabled(on bool) {
	t.enabled = on
	if !on {
		t.length.count = 0
	}
}

func (t *triangle) tick(cycles int32) int32 {
	t.out -= t.out >> 7

	if !t.enabled || !t.length.active() {
		return t.out
	}

	if t.started {
		if t.linear > 0 {
			t.linear--
		}
		t.length.tick()
	} else if !t.hold && t.latency > 0 {
		t.latency--
		if t.latency == 0 {
			t.started = true
		}
	}

	// Ultrasonic periods are silenced.
	if t.linear == 0 || t.period < toFixed(4) {
		return t.out
	}

	t.phase -= cycles
	for t.phase < 0 {
		t.phase += t.period
		t.step = (t.step + 1) & 0x1F
		if t.step&0x10 != 0 {
			t.out -= 2 << 8
		} else {
			t.out += 2 << 8
		}
	}
	return t.out
}

func (t *triangle) rescale(num, den int) {
	t.length.rescale(num, den)
	t.linear = t.linear * num / den
	if t.latency > 0 {
		t.latency = max(1, t.latency*num/den)
	}
}
