package apu

// envelope is the volume generator shared by the pulse and noise channels.
// The decay level counts up, the output level is its complement. The phase
// advances by 4 per sample, the divider reloads are in quarter samples.
type envelope struct {
	constant bool
	volume   uint8 // constant volume
	loop     bool

	delay int
	phase int
	level uint8
}

func (e *envelope) write(val uint8, l *luts) {
	e.constant = val&0x10 != 0
	e.volume = val & 0x0F
	e.loop = val&0x20 != 0
	e.delay = l.decay[val&0x0F]
}

func (e *envelope) restart() { e.level = 0 }

func (e *envelope) tick() {
	if e.delay <= 0 {
		return
	}
	e.phase -= 4
	for e.phase < 0 {
		e.phase += e.delay
		if e.loop {
			e.level = (e.level + 1) & 0x0F
		} else if e.level < 0x0F {
			e.level++
		}
	}
}

// output returns the current volume, 0-15.
func (e *envelope) output() int32 {
	if e.constant {
		return int32(e.volume)
	}
	return int32(e.level ^ 0x0F)
}

func (e *envelope) rescale(num, den int) {
	e.delay = max(1, e.delay*num/den)
	e.phase = e.phase * num / den
}
