package ext

import (
	"testing"

	"nsfplay/hw/apu"
	"nsfplay/hw/hwio"
	"nsfplay/nsf"
)

// oneCycle is the duration of a sample lasting exactly 1 CPU cycle.
const oneCycle = 1 << 16

func TestNew(t *testing.T) {
	tests := []struct {
		chips nsf.Chips
		want  string
	}{
		{0, "<nil>"},
		{nsf.N163, "<nil>"},
		{nsf.VRC6, "*ext.VRC6"},
		{nsf.VRC7, "*ext.VRC7"},
		{nsf.FDS, "*ext.FDS"},
		{nsf.MMC5, "*ext.MMC5"},
		{nsf.FME07, "*ext.FME07"},
		{nsf.VRC6 | nsf.N163, "*ext.VRC6"},
		{nsf.VRC6 | nsf.FME07, "ext.multi"},
	}
	for _, tt := range tests {
		got := "<nil>"
		if e := New(tt.chips); e != nil {
			got = typeName(e)
		}
		if got != tt.want {
			t.Errorf("New(%v) = %s, want %s", tt.chips, got, tt.want)
		}
	}
}

func typeName(e apu.Extension) string {
	switch e.(type) {
	case *VRC6:
		return "*ext.VRC6"
	case *VRC7:
		return "*ext.VRC7"
	case *FDS:
		return "*ext.FDS"
	case *MMC5:
		return "*ext.MMC5"
	case *FME07:
		return "*ext.FME07"
	case multi:
		return "ext.multi"
	}
	return "?"
}

func TestRangesDontOverlap(t *testing.T) {
	all := nsf.VRC6 | nsf.VRC7 | nsf.FDS | nsf.MMC5 | nsf.FME07
	e := New(all)
	e.Init()
	defer e.Shutdown()

	bus := hwio.NewTable("test")
	for _, r := range e.ReadRanges() {
		if err := bus.MapRead(r); err != nil {
			t.Errorf("MapRead(%04X-%04X): %v", r.Min, r.Max, err)
		}
	}
	writes := e.WriteRanges()
	writes = append(writes, e.(apu.BusWriter).BusWriteRanges()...)
	for _, w := range writes {
		if err := bus.MapWrite(w); err != nil {
			t.Errorf("MapWrite(%04X-%04X): %v", w.Min, w.Max, err)
		}
	}
}

// run processes n samples of 1 CPU cycle and returns the outputs.
func run(e apu.Extension, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = e.Process(oneCycle)
	}
	return out
}

func TestVRC6Pulse(t *testing.T) {
	v := NewVRC6()
	v.write(0x9000, 0x7F) // duty 7 (8/16), volume 15
	v.write(0x9001, 99)
	v.write(0x9002, 0x80)

	high := 0
	for _, s := range run(v, 1600*4) {
		switch s {
		case 15 << 8:
			high++
		case 0:
		default:
			t.Fatalf("unexpected output %d", s)
		}
	}
	if high != 800*4 {
		t.Errorf("output high for %d cycles, want %d", high, 800*4)
	}

	v.write(0x9000, 0x83) // digitized
	for i, s := range run(v, 500) {
		if s != 3<<8 {
			t.Fatalf("digitized output #%d = %d, want %d", i, s, 3<<8)
		}
	}
}

func TestVRC6Saw(t *testing.T) {
	v := NewVRC6()
	v.write(0xB000, 0x08)
	v.write(0xB001, 0)
	v.write(0xB002, 0x80)

	var seq []int32
	for _, s := range run(v, 14) {
		seq = append(seq, s>>8)
	}
	want := []int32{0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 0}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("saw levels = %v, want %v", seq, want)
		}
	}

	v.write(0x9003, 0x01)
	before := v.saw
	run(v, 100)
	if v.saw != before {
		t.Errorf("saw ran while halted")
	}
}

func TestVRC7Note(t *testing.T) {
	v := NewVRC7()
	write := func(reg, val uint8) {
		v.write(0x9010, reg)
		v.write(0x9030, val)
	}

	write(0x30, 0x10) // instrument 1, full volume
	write(0x10, 0x80)
	write(0x20, 0x18) // key on, block 4

	chipSample := int32(vrc7Divider << 16)
	var peak int32
	for range 2000 {
		s := v.Process(chipSample)
		peak = max(peak, s, -s)
	}
	if peak == 0 {
		t.Fatalf("key on: silent output")
	}

	write(0x20, 0x08) // key off
	for range 49716 {
		v.Process(chipSample)
	}
	if st := v.ch[0].ops[1].state; st != envOff {
		t.Errorf("carrier envelope state = %d after a long release, want off", st)
	}
	if s := v.Process(chipSample); s != 0 {
		t.Errorf("output = %d after release, want 0", s)
	}
}

func TestVRC7CustomPatch(t *testing.T) {
	v := NewVRC7()
	for i := range uint8(8) {
		v.writeReg(i, 0x10+i)
	}
	v.writeReg(0x31, 0x05)
	if p := v.patch(&v.ch[1]); *p != v.custom {
		t.Errorf("instrument 0 doesn't use the custom patch")
	}
	v.writeReg(0x31, 0xF5)
	if p := v.patch(&v.ch[1]); *p != vrc7Patches[14] {
		t.Errorf("instrument 15 = %X, want %X", *p, vrc7Patches[14])
	}
}

func TestFDSWaveRAM(t *testing.T) {
	f := NewFDS()

	f.writeWave(0x4040, 0x3F)
	if got := f.readWave(0x4040); got != 0x40 {
		t.Errorf("wave RAM written while protected: read %02X", got)
	}

	f.write(0x4089, 0x80)
	for i := range uint16(64) {
		f.writeWave(0x4040+i, uint8(i))
	}
	f.write(0x4089, 0x00)
	if got := f.readWave(0x407F); got != 0x7F {
		t.Errorf("$407F = %02X, want 7F", got)
	}

	f.write(0x4080, 0xA0) // envelope off, gain 32
	f.write(0x4082, 0x00)
	f.write(0x4083, 0x04) // period 64 * 64 cycles

	seen := map[int32]bool{}
	for _, s := range run(f, 4096) {
		seen[s] = true
	}
	if len(seen) < 32 {
		t.Errorf("%d distinct output levels over a wave period, want the whole ramp", len(seen))
	}
	if got := f.ReadRanges()[1].Read(0x4090); got != 0x60 {
		t.Errorf("$4090 = %02X, want 60", got)
	}
}

func TestFDSPitch(t *testing.T) {
	f := NewFDS()
	f.freq = 0x100
	if got := f.pitch(); got != 0x100 {
		t.Errorf("pitch without modulation = %X, want 100", got)
	}

	f.mod.gain = 0x20
	f.counter = 0x10
	if got := f.pitch(); got <= 0x100 {
		t.Errorf("pitch with positive modulation = %X, want above 100", got)
	}
	f.counter = -0x10
	if got := f.pitch(); got >= 0x100 {
		t.Errorf("pitch with negative modulation = %X, want below 100", got)
	}
}

func TestMMC5(t *testing.T) {
	m := NewMMC5()

	m.writeMul(0x5205, 0x12)
	m.writeMul(0x5206, 0x34)
	if lo, hi := m.readMul(0x5205), m.readMul(0x5206); lo != 0xA8 || hi != 0x03 {
		t.Errorf("product = %02X%02X, want 03A8", hi, lo)
	}

	m.writeStatus(0x5015, 0x01)
	m.writePulse(0x5000, 0xBF)
	m.writePulse(0x5002, 0x40)
	m.writePulse(0x5003, 0x08)
	m.writePulse(0x5007, 0x08) // disabled
	if st := m.readStatus(0x5015); st != 0x01 {
		t.Errorf("status = %02X, want 01", st)
	}

	var peak int32
	for _, s := range run(m, 2000) {
		peak = max(peak, s)
	}
	if peak != 15<<8 {
		t.Errorf("peak = %d, want %d", peak, 15<<8)
	}

	m.writePCM(0x5011, 0x80)
	m.writeStatus(0x5015, 0x00)
	if s := m.Process(oneCycle); s != 0x80<<5 {
		t.Errorf("PCM output = %d, want %d", s, 0x80<<5)
	}
}

func TestFME07Envelope(t *testing.T) {
	tests := []struct {
		shape    uint8
		first    int
		last     int
		holdsEnd bool
	}{
		{0x00, 15, 0, true},
		{0x04, 0, 0, true},
		{0x09, 15, 0, true},
		{0x0B, 15, 15, true},
		{0x0D, 0, 15, true},
		{0x0F, 0, 0, true},
		{0x08, 15, 15, false}, // repeating saw, restarted
		{0x0E, 0, 15, false},  // triangle, at the top after 1.x periods
	}
	for _, tt := range tests {
		f := NewFME07()
		f.write(0xC000, 13)
		f.write(0xE000, tt.shape)

		if f.envLevel != tt.first {
			t.Errorf("shape %X: first level %d, want %d", tt.shape, f.envLevel, tt.first)
		}
		for range 16 {
			f.stepEnvelope()
		}
		if f.envLevel != tt.last || f.envHold != tt.holdsEnd {
			t.Errorf("shape %X: after a period: level=%d hold=%t, want level=%d hold=%t",
				tt.shape, f.envLevel, f.envHold, tt.last, tt.holdsEnd)
		}
	}
}

func TestFME07Tone(t *testing.T) {
	f := NewFME07()
	regs := []struct{ reg, val uint8 }{
		{0, 10}, // period 10: toggles every 2*16*10 CPU cycles
		{7, 0x3E},
		{8, 0x0F},
	}
	for _, r := range regs {
		f.write(0xC000, r.reg)
		f.write(0xE000, r.val)
	}

	toggles := 0
	prev := f.Process(oneCycle)
	for _, s := range run(f, 3200) {
		if s != prev {
			toggles++
		}
		prev = s
	}
	if toggles < 9 || toggles > 11 {
		t.Errorf("tone toggled %d times in 3200 cycles, want 10", toggles)
	}
}
