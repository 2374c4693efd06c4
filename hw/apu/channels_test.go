package apu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// With 4 samples per frame, a decay step lasts one sample and a sweep
// step two.
func newFrameLUTs() *luts { return newLUTs(4) }

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		ctrl  uint8
		ticks int
		want  int32
	}{
		{"start", 0x00, 0, 15},
		{"decay", 0x00, 1, 14},
		{"decay to 0", 0x00, 15, 0},
		{"stays at 0", 0x00, 20, 0},
		{"loop at 0", 0x20, 15, 0},
		{"loop wraps", 0x20, 16, 15},
		{"loop after wrap", 0x20, 17, 14},
		{"period 3", 0x03, 4, 14},
		{"period 3 next step", 0x03, 5, 13},
		{"constant", 0x17, 9, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e envelope
			e.write(tt.ctrl, newFrameLUTs())
			e.restart()
			for range tt.ticks {
				e.tick()
			}
			if got := e.output(); got != tt.want {
				t.Errorf("output after %d ticks = %d, want %d", tt.ticks, got, tt.want)
			}
		})
	}
}

func TestEnvelopeZeroDelay(t *testing.T) {
	var e envelope
	e.tick()
	if got := e.output(); got != 15 {
		t.Errorf("output = %d, want 15", got)
	}
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name       string
		complement bool
		sweep      uint8
		want       []uint16
	}{
		{"add", false, 0x81, []uint16{0x180, 0x240, 0x360}},
		{"add shift 2", true, 0x82, []uint16{0x140, 0x190, 0x1F4}},
		{"negate pulse2", false, 0x89, []uint16{0x080, 0x040, 0x020}},
		{"negate pulse1", true, 0x89, []uint16{0x07F, 0x03F, 0x01F}},
		{"shift 0", false, 0x88, []uint16{0x100, 0x100, 0x100}},
		{"disabled", false, 0x01, []uint16{0x100, 0x100, 0x100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newFrameLUTs()
			p := pulse{complement: tt.complement}
			p.reset(l)
			p.write(1, tt.sweep, l)
			p.write(2, 0x00, l)
			p.write(3, 0x01, l)

			var got []uint16
			for i := range tt.want {
				if i > 0 {
					p.tickSweep()
				}
				p.tickSweep()
				got = append(got, p.period)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("periods after each sweep step (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSweepMute(t *testing.T) {
	tests := []struct {
		period uint16
		sweep  uint8
		want   bool
	}{
		{0x007, 0x00, true},
		{0x008, 0x00, false},
		{0x3FF, 0x80, false},
		{0x400, 0x80, true},
		{0x555, 0x81, false},
		{0x556, 0x81, true},
		{0x7FF, 0x89, false},
		{0x7F0, 0x87, false},
		{0x7F1, 0x87, true},
	}
	for _, tt := range tests {
		l := newFrameLUTs()
		var p pulse
		p.reset(l)
		p.write(1, tt.sweep, l)
		p.write(2, uint8(tt.period), l)
		p.write(3, uint8(tt.period>>8), l)

		if got := p.muted(); got != tt.want {
			t.Errorf("period=%03X sweep=%02X: muted = %t, want %t", tt.period, tt.sweep, got, tt.want)
		}
	}
}

func TestLengthCounter(t *testing.T) {
	tests := []struct {
		idx  uint8
		halt bool
	}{
		{0, false},
		{1, false},
		{3, false},
		{0x1F, false},
		{0, true},
		{3, true},
	}
	for _, tt := range tests {
		l := newFrameLUTs()
		var p pulse
		p.reset(l)
		p.setEnabled(true)
		if tt.halt {
			p.write(0, 0x20, l)
		}
		p.write(3, tt.idx<<3, l)

		samples := int(lengthTable[tt.idx]) * 4
		for range samples - 1 {
			p.tick(toFixed(100))
		}
		if !p.length.active() {
			t.Fatalf("idx=%d halt=%t: silent after %d samples, want %d", tt.idx, tt.halt, samples-1, samples)
		}
		p.tick(toFixed(100))
		if got := p.length.active(); got != tt.halt {
			t.Errorf("idx=%d halt=%t: active=%t after %d samples, want %t", tt.idx, tt.halt, got, samples, tt.halt)
		}
	}
}

func TestControlRegisterUnwritten(t *testing.T) {
	tests := []struct {
		name   string
		writes []regWrite
		env    func(*APU) *envelope
	}{
		{"pulse1", []regWrite{{0x4015, 0x01}, {0x4003, 0x08}}, func(a *APU) *envelope { return &a.Pulse1.env }},
		{"pulse2", []regWrite{{0x4015, 0x02}, {0x4007, 0x08}}, func(a *APU) *envelope { return &a.Pulse2.env }},
		{"noise", []regWrite{{0x4015, 0x08}, {0x400F, 0x08}}, func(a *APU) *envelope { return &a.Noise.env }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAPU(t, mono16)
			writeRegs(a, tt.writes...)

			// One frame, 4 envelope steps.
			a.Process(make([]int16, mono16.SampleRate/60))
			if got := tt.env(a).level; got != 4 {
				t.Errorf("envelope level after a frame = %d, want 4", got)
			}
		})
	}
}
