package ext

import "nsfplay/hw/hwio"

// FDS is the Famicom Disk System sound: a 64 steps wavetable channel with
// a volume envelope and a frequency modulation unit.
type FDS struct {
	stub
	clock cycleClock

	wave      [64]uint8 // 6-bit samples
	waveWrite bool      // wave RAM writable, output held
	waveHalt  bool
	wavePos   uint32 // 16.6 position in the wave
	envHalt   bool   // both envelopes halted
	master    uint8
	freq      uint16
	lastOut   int32

	vol fdsEnvelope
	mod fdsEnvelope

	modTable [32]int8
	modPos   uint8 // 0-63
	modAcc   uint32
	modFreq  uint16
	modHalt  bool
	counter  int8 // 7-bit signed

	envSpeed uint8
	envClock int
}

type fdsEnvelope struct {
	disabled bool
	increase bool
	speed    uint8
	gain     uint8
	count    int
}

// Modulation table deltas, 4 means reset.
var fdsModDeltas = [8]int8{0, 1, 2, 4, 0, -4, -2, -1}

// Output scale by master volume: 2/2, 2/3, 2/4, 2/5.
var fdsMasterVolume = [4]int32{30, 20, 15, 12}

func NewFDS() *FDS {
	f := &FDS{}
	f.Reset()
	return f
}

func (f *FDS) Reset() {
	*f = FDS{envSpeed: 0xE8}
}

func (f *FDS) ReadRanges() []hwio.ReadRange {
	return []hwio.ReadRange{
		{Min: 0x4040, Max: 0x407F, Read: f.readWave},
		{Min: 0x4090, Max: 0x4090, Read: func(uint16) uint8 { return f.vol.gain | 0x40 }},
		{Min: 0x4092, Max: 0x4092, Read: func(uint16) uint8 { return f.mod.gain | 0x40 }},
	}
}

func (f *FDS) WriteRanges() []hwio.WriteRange {
	return []hwio.WriteRange{
		{Min: 0x4040, Max: 0x407F, Write: f.writeWave},
		{Min: 0x4080, Max: 0x408A, Write: f.write},
	}
}

func (f *FDS) readWave(addr uint16) uint8 {
	return f.wave[addr&0x3F] | 0x40
}

func (f *FDS) writeWave(addr uint16, val uint8) {
	if f.waveWrite {
		f.wave[addr&0x3F] = val & 0x3F
	}
}

func (e *fdsEnvelope) write(val uint8) {
	e.disabled = val&0x80 != 0
	e.increase = val&0x40 != 0
	e.speed = val & 0x3F
	if e.disabled {
		e.gain = val & 0x3F
	}
}

func (f *FDS) write(addr uint16, val uint8) {
	switch addr {
	case 0x4080:
		f.vol.write(val)
	case 0x4082:
		f.freq = f.freq&0xF00 | uint16(val)
	case 0x4083:
		f.freq = f.freq&0x0FF | uint16(val&0x0F)<<8
		f.waveHalt = val&0x80 != 0
		f.envHalt = val&0x40 != 0
		if f.waveHalt {
			f.wavePos = 0
		}
	case 0x4084:
		f.mod.write(val)
	case 0x4085:
		f.counter = int8(val<<1) >> 1
	case 0x4086:
		f.modFreq = f.modFreq&0xF00 | uint16(val)
	case 0x4087:
		f.modFreq = f.modFreq&0x0FF | uint16(val&0x0F)<<8
		f.modHalt = val&0x80 != 0
		if f.modHalt {
			f.modAcc = 0
		}
	case 0x4088:
		// Only while the modulator is halted. An entry covers 2 steps.
		if f.modHalt {
			f.modTable[f.modPos>>1] = int8(val & 0x07)
			f.modPos = (f.modPos + 2) & 0x3F
		}
	case 0x4089:
		f.waveWrite = val&0x80 != 0
		f.master = val & 0x03
	case 0x408A:
		f.envSpeed = val
	}

	modExt.DebugZ("fds write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}

// clock runs the envelope unit once.
func (e *fdsEnvelope) clock() {
	if e.disabled {
		return
	}
	if e.count--; e.count >= 0 {
		return
	}
	e.count = int(e.speed)
	switch {
	case e.increase && e.gain < 32:
		e.gain++
	case !e.increase && e.gain > 0:
		e.gain--
	}
}

// pitch returns the wave frequency adjusted by the modulation unit.
func (f *FDS) pitch() int32 {
	temp := int32(f.counter) * int32(f.mod.gain)
	rem := temp & 0x0F
	temp >>= 4
	if rem > 0 && temp&0x80 == 0 {
		if f.counter < 0 {
			temp--
		} else {
			temp += 2
		}
	}
	switch {
	case temp >= 192:
		temp -= 256
	case temp < -64:
		temp += 256
	}

	temp *= int32(f.freq)
	rem = temp & 0x3F
	temp >>= 6
	if rem >= 32 {
		temp++
	}
	return max(0, int32(f.freq)+temp)
}

func (f *FDS) tickMod() {
	if f.modHalt || f.modFreq == 0 {
		return
	}
	f.modAcc += uint32(f.modFreq)
	for f.modAcc >= 1<<16 {
		f.modAcc -= 1 << 16
		entry := f.modTable[f.modPos>>1&0x1F]
		f.modPos = (f.modPos + 1) & 0x3F
		if entry == 4 {
			f.counter = 0
		} else {
			f.counter = int8((int16(f.counter)+int16(fdsModDeltas[entry]))<<9>>9)
		}
	}
}

func (f *FDS) cycle() {
	if !f.envHalt && !f.waveHalt && f.envSpeed != 0 {
		if f.envClock--; f.envClock < 0 {
			f.envClock = 8*int(f.envSpeed) - 1
			f.vol.clock()
			f.mod.clock()
		}
	}

	f.tickMod()
	if !f.waveHalt && !f.waveWrite {
		f.wavePos = (f.wavePos + uint32(f.pitch())) & (64<<16 - 1)
	}
	if !f.waveWrite {
		gain := min(int32(f.vol.gain), 32)
		f.lastOut = int32(f.wave[f.wavePos>>16]) * gain * fdsMasterVolume[f.master] >> 3
	}
}

func (f *FDS) Process(cycles int32) int32 {
	n := f.clock.advance(cycles)
	if n == 0 {
		return f.lastOut
	}
	var total int32
	for range n {
		f.cycle()
		total += f.lastOut
	}
	return total / int32(n)
}
