package ext

import (
	"math"

	"nsfplay/hw/hwio"
)

// FME07 is the Sunsoft 5B sound (FME-7 mapper), a YM2149 derivative: three
// square tone channels, a noise generator and an envelope generator, all
// mixed per channel.
type FME07 struct {
	stub
	clock cycleClock

	addr uint8
	regs [16]uint8

	tones [3]psgTone
	div   int // the chip runs at half the CPU clock

	noisePeriod int
	noiseCount  int
	lfsr        uint32
	noise       bool

	envCount int
	envLevel int
	envDir   int
	envHold  bool
}

type psgTone struct {
	count int
	high  bool
}

// Logarithmic volume, 3dB per level.
var psgVolume [16]int32

func init() {
	for i := 1; i < len(psgVolume); i++ {
		psgVolume[i] = int32(math.Round(1365 * math.Pow(10, -float64(15-i)*3/20)))
	}
}

func NewFME07() *FME07 {
	f := &FME07{}
	f.Reset()
	return f
}

func (f *FME07) Reset() {
	*f = FME07{lfsr: 1}
	f.resetEnvelope()
}

func (f *FME07) WriteRanges() []hwio.WriteRange {
	return []hwio.WriteRange{
		{Min: 0xC000, Max: 0xC000, Write: f.write},
		{Min: 0xE000, Max: 0xE000, Write: f.write},
	}
}

func (f *FME07) write(addr uint16, val uint8) {
	if addr == 0xC000 {
		f.addr = val & 0x0F
		return
	}
	f.regs[f.addr] = val
	if f.addr == 13 {
		f.resetEnvelope()
	}
}

func (f *FME07) tonePeriod(ch int) int {
	p := int(f.regs[ch*2]) | int(f.regs[ch*2+1]&0x0F)<<8
	return max(1, p)
}

func (f *FME07) envPeriod() int {
	return max(1, int(f.regs[11])|int(f.regs[12])<<8)
}

func (f *FME07) resetEnvelope() {
	f.envCount = 0
	f.envHold = false
	if f.regs[13]&0x04 != 0 {
		f.envLevel, f.envDir = 0, 1
	} else {
		f.envLevel, f.envDir = 15, -1
	}
}

func (f *FME07) stepEnvelope() {
	if f.envHold {
		return
	}
	f.envLevel += f.envDir
	if f.envLevel >= 0 && f.envLevel <= 15 {
		return
	}
	f.envLevel = min(15, max(0, f.envLevel))

	shape := f.regs[13] & 0x0F
	cont := shape&0x08 != 0
	hold := shape&0x01 != 0
	alt := shape&0x02 != 0
	switch {
	case !cont:
		f.envLevel = 0
		f.envHold = true
	case hold:
		if alt {
			f.envLevel = 15 - f.envLevel
		}
		f.envHold = true
	case alt:
		f.envDir = -f.envDir
	default:
		f.envLevel = 15 - f.envLevel
	}
}

// tick runs the chip for one of its clocks (2 CPU cycles).
func (f *FME07) tick() {
	for ch := range f.tones {
		t := &f.tones[ch]
		if t.count--; t.count <= 0 {
			t.count = 16 * f.tonePeriod(ch)
			t.high = !t.high
		}
	}

	if f.noiseCount--; f.noiseCount <= 0 {
		f.noiseCount = 16 * max(1, int(f.regs[6]&0x1F))
		// 17-bit LFSR, taps 0 and 3.
		bit := (f.lfsr ^ f.lfsr>>3) & 1
		f.lfsr = f.lfsr>>1 | bit<<16
		f.noise = f.lfsr&1 != 0
	}

	if f.envCount--; f.envCount <= 0 {
		f.envCount = 16 * f.envPeriod()
		f.stepEnvelope()
	}
}

func (f *FME07) output() int32 {
	mix := f.regs[7]
	var out int32
	for ch := range f.tones {
		toneOff := mix&(1<<ch) != 0
		noiseOff := mix&(8<<ch) != 0
		if (f.tones[ch].high || toneOff) && (f.noise || noiseOff) {
			vol := f.regs[8+ch]
			lvl := int32(vol & 0x0F)
			if vol&0x10 != 0 {
				lvl = int32(f.envLevel)
			}
			out += psgVolume[lvl]
		}
	}
	return out
}

func (f *FME07) Process(cycles int32) int32 {
	n := f.clock.advance(cycles)
	if n == 0 {
		return f.output() << 1
	}
	var total int32
	for range n {
		if f.div ^= 1; f.div == 0 {
			f.tick()
		}
		total += f.output()
	}
	return (total << 1) / int32(n)
}
