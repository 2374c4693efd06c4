package ext

import (
	"math"

	"nsfplay/hw/hwio"
)

// VRC7 is the Konami VRC7 sound, a 6 channels 2-operator FM synthesizer
// derived from the YM2413 (OPLL). Each channel plays one of 15 built-in
// instruments or the user defined one.
type VRC7 struct {
	stub
	clock cycleClock
	div   int // CPU cycles until the next chip sample

	addr   uint8
	custom [8]uint8
	ch     [6]fmChannel

	lfo uint32
	out int32
}

type fmChannel struct {
	fnum    uint16 // 9 bits
	block   uint8
	sustain bool
	key     bool
	inst    uint8
	vol     uint8

	ops [2]fmOp // modulator, carrier
}

type envState uint8

const (
	envOff envState = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

type fmOp struct {
	phase uint32
	env   int32 // 16.16 attenuation, in 0.375dB units
	state envState
	fb    [2]int32 // last 2 outputs, for feedback
}

const (
	vrc7Divider = 36 // CPU cycles per chip sample

	sineBits  = 10
	sineSize  = 1 << sineBits
	phaseBits = 19 // phase units per cycle: 1<<phaseBits

	envMax    = 127 << 16
	maxAtten  = 255
	amPeriod  = 13436 // 3.7Hz
	vibPeriod = 7768  // 6.4Hz
)

// Instrument patches, 1 to 15. Patch 0 is the custom one, at registers
// $00-$07.
var vrc7Patches = [15][8]uint8{
	{0x03, 0x21, 0x05, 0x06, 0xE8, 0x81, 0x42, 0x27}, // buzzy bell
	{0x13, 0x41, 0x14, 0x0D, 0xD8, 0xF6, 0x23, 0x12}, // guitar
	{0x11, 0x11, 0x08, 0x08, 0xFA, 0xB2, 0x20, 0x12}, // wurly
	{0x31, 0x61, 0x0C, 0x07, 0xA8, 0x64, 0x61, 0x27}, // flute
	{0x32, 0x21, 0x1E, 0x06, 0xE1, 0x76, 0x01, 0x28}, // clarinet
	{0x02, 0x01, 0x06, 0x00, 0xA3, 0xE2, 0xF4, 0xF4}, // synth
	{0x21, 0x61, 0x1D, 0x07, 0x82, 0x81, 0x11, 0x07}, // trumpet
	{0x23, 0x21, 0x22, 0x17, 0xA2, 0x72, 0x01, 0x17}, // organ
	{0x35, 0x11, 0x25, 0x00, 0x40, 0x73, 0x72, 0x01}, // bells
	{0xB5, 0x01, 0x0F, 0x0F, 0xA8, 0xA5, 0x51, 0x02}, // vibes
	{0x17, 0xC1, 0x24, 0x07, 0xF8, 0xF8, 0x22, 0x12}, // vibraphone
	{0x71, 0x23, 0x11, 0x06, 0x65, 0x74, 0x18, 0x16}, // tutti
	{0x01, 0x02, 0xD3, 0x05, 0xC9, 0x95, 0x03, 0x02}, // fretless
	{0x61, 0x63, 0x0C, 0x00, 0x94, 0xC0, 0x33, 0xF6}, // synth bass
	{0x21, 0x72, 0x0D, 0x00, 0xC1, 0xD5, 0x56, 0x06}, // sweep
}

// Frequency multipliers, doubled.
var multTable = [16]uint32{1, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 20, 24, 24, 30, 30}

var vibSteps = [8]int32{0, 1, 2, 1, 0, -1, -2, -1}

var (
	sineTable  [sineSize]int32
	attenTable [maxAtten + 1]int32 // 0.375dB units to linear, 4096 = 0dB
	envRates   [16]int32           // envelope increment per chip sample
)

func init() {
	for i := range sineTable {
		sineTable[i] = int32(math.Round(4096 * math.Sin(2*math.Pi*float64(i)/sineSize)))
	}
	for i := range attenTable {
		attenTable[i] = int32(math.Round(4096 * math.Pow(10, -float64(i)*0.375/20)))
	}
	attenTable[maxAtten] = 0

	// A full scale decay lasts 10s at rate 1, half as long at each rate up.
	for r := 1; r < len(envRates); r++ {
		envRates[r] = int32((int64(envMax) << (r - 1)) / 497160)
	}
}

func NewVRC7() *VRC7 { return &VRC7{} }

func (v *VRC7) Reset() { *v = VRC7{} }

func (v *VRC7) WriteRanges() []hwio.WriteRange {
	return []hwio.WriteRange{
		{Min: 0x9010, Max: 0x9010, Write: v.write},
		{Min: 0x9030, Max: 0x9030, Write: v.write},
	}
}

func (v *VRC7) write(addr uint16, val uint8) {
	if addr == 0x9010 {
		v.addr = val
		return
	}
	v.writeReg(v.addr, val)
}

func (v *VRC7) writeReg(reg, val uint8) {
	if reg < 0x08 {
		v.custom[reg] = val
		return
	}

	idx := int(reg & 0x0F)
	if idx >= len(v.ch) {
		return
	}
	c := &v.ch[idx]

	switch reg & 0xF0 {
	case 0x10:
		c.fnum = c.fnum&0x100 | uint16(val)
	case 0x20:
		c.fnum = c.fnum&0x0FF | uint16(val&0x01)<<8
		c.block = (val >> 1) & 0x07
		c.sustain = val&0x20 != 0

		key := val&0x10 != 0
		switch {
		case key && !c.key:
			for i := range c.ops {
				c.ops[i].phase = 0
				c.ops[i].state = envAttack
			}
		case !key && c.key:
			for i := range c.ops {
				if c.ops[i].state != envOff {
					c.ops[i].state = envRelease
				}
			}
		}
		c.key = key
	case 0x30:
		c.inst = val >> 4
		c.vol = val & 0x0F
	default:
		return
	}

	modExt.DebugZ("vrc7 write").
		Hex8("reg", reg).
		Hex8("val", val).
		End()
}

func (v *VRC7) patch(c *fmChannel) *[8]uint8 {
	if c.inst == 0 {
		return &v.custom
	}
	return &vrc7Patches[c.inst-1]
}

func envRate(r, rks uint8) int32 {
	return envRates[min(15, r+rks)]
}

// advance runs the envelope generator of operator op of c.
func (o *fmOp) advance(p *[8]uint8, op int, c *fmChannel) {
	var (
		sustained = p[op]&0x20 != 0
		ar        = p[4+op] >> 4
		dr        = p[4+op] & 0x0F
		sl        = int32(p[6+op] >> 4)
		rr        = p[6+op] & 0x0F
		rks       = c.block >> 3
	)
	if p[op]&0x10 != 0 {
		rks = c.block >> 1
	}

	switch o.state {
	case envAttack:
		switch {
		case ar == 15:
			o.env = 0
		case ar > 0:
			o.env -= envRate(ar, rks) * 8
		}
		if o.env <= 0 {
			o.env = 0
			o.state = envDecay
		}
	case envDecay:
		o.env += envRate(dr, rks)
		// Sustain levels are 3dB steps.
		if lvl := sl * 8 << 16; o.env >= lvl {
			o.env = lvl
			o.state = envSustain
		}
	case envSustain:
		if !sustained {
			o.env += envRate(rr, rks)
		}
	case envRelease:
		r := rr
		if c.sustain {
			r = 5
		}
		o.env += envRate(r, rks)
	}

	if o.env >= envMax {
		o.env = envMax
		if o.state != envAttack {
			o.state = envOff
		}
	}
}

// output returns the operator output for a phase offset of pm (sine table
// units) and a base attenuation of tl.
func (o *fmOp) output(p *[8]uint8, op int, c *fmChannel, am, vib, pm, tl int32) int32 {
	f := int32(c.fnum)
	if p[op]&0x40 != 0 {
		f += f * vib >> 8
	}
	o.phase += (uint32(f) << c.block) * multTable[p[op]&0x0F] / 2

	o.advance(p, op, c)
	if o.state == envOff {
		return 0
	}

	att := o.env>>16 + tl
	if p[op]&0x80 != 0 {
		att += am
	}
	att = min(att, maxAtten)

	idx := (int32(o.phase>>(phaseBits-sineBits)) + pm) & (sineSize - 1)
	s := sineTable[idx]

	// Rectified (half) sine wave.
	halfBit := uint8(0x08) << op
	if s < 0 && p[3]&halfBit != 0 {
		s = 0
	}
	return s * attenTable[att] >> 12
}

func (c *fmChannel) sample(p *[8]uint8, am, vib int32) int32 {
	mod, car := &c.ops[0], &c.ops[1]

	var pm int32
	if fb := p[3] & 0x07; fb != 0 {
		pm = (mod.fb[0] + mod.fb[1]) >> (9 - fb)
	}
	m := mod.output(p, 0, c, am, vib, pm, int32(p[2]&0x3F)*2)
	mod.fb[1] = mod.fb[0]
	mod.fb[0] = m

	return car.output(p, 1, c, am, vib, m>>1, int32(c.vol)*8)
}

// sample computes one chip sample.
func (v *VRC7) sample() int32 {
	v.lfo++

	amPos := int32(v.lfo % amPeriod)
	if amPos >= amPeriod/2 {
		amPos = amPeriod - amPos
	}
	am := amPos * 26 / amPeriod // 0 to 4.8dB
	vib := vibSteps[v.lfo%vibPeriod*8/vibPeriod]

	var out int32
	for i := range v.ch {
		c := &v.ch[i]
		out += c.sample(v.patch(c), am, vib)
	}
	return out >> 1
}

func (v *VRC7) Process(cycles int32) int32 {
	v.div -= v.clock.advance(cycles)

	var total, n int32
	for ; v.div <= 0; v.div += vrc7Divider {
		v.out = v.sample()
		total += v.out
		n++
	}
	if n == 0 {
		return v.out
	}
	return total / n
}
