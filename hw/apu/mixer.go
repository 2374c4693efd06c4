package apu

import (
	"encoding/binary"
	"math"

	"github.com/arl/blip"
)

const (
	// In band-limited mode, the channels run at this multiple of the
	// output rate.
	oversampling = 4

	blipChunk = 1024 // samples produced per blip frame, at most
	gainShift = 1
)

// mixer filters the sum of the channel outputs and scales it to 16 bits.
type mixer struct {
	filter Filter
	prev   int32 // previous unfiltered sample

	blip *blip.Buffer
	last int32 // last level fed to blip
}

func (m *mixer) configure(f Filter, rate, outRate int) {
	m.filter = f
	if f != FilterBandLimited {
		return
	}
	if m.blip == nil {
		m.blip = blip.NewBuffer(blipChunk * 2)
	}
	m.blip.SetRates(float64(rate), float64(outRate))
	m.blip.Clear()
	m.last = 0
}

func (m *mixer) reset() {
	m.prev = 0
	m.last = 0
	if m.blip != nil {
		m.blip.Clear()
	}
}

func clip(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// mix fills out with samples, calling tick for each internal sample.
func (m *mixer) mix(out []int16, tick func() int32) {
	if m.filter == FilterBandLimited {
		m.mixBandLimited(out, tick)
		return
	}

	for i := range out {
		raw := tick()
		v := raw
		switch m.filter {
		case FilterLowPass:
			v = (raw + m.prev) >> 1
		case FilterWeighted:
			v = (3*raw + m.prev) >> 2
		}
		m.prev = raw
		out[i] = clip(v << gainShift)
	}
}

func (m *mixer) mixBandLimited(out []int16, tick func() int32) {
	for len(out) > 0 {
		n := min(len(out), blipChunk)
		if avail := m.blip.SamplesAvailable(); avail < n {
			clocks := m.blip.ClocksNeeded(n - avail)
			for t := range clocks {
				v := tick() << gainShift
				if d := v - m.last; d != 0 {
					m.blip.AddDelta(uint64(t), d)
					m.last = v
				}
			}
			m.blip.EndFrame(clocks)
		}
		got := m.blip.ReadSamples(out, n, blip.Mono)
		out = out[got:]
	}
}

// Pack converts mono samples to the PCM layout of f, and returns the number
// of bytes written to dst. Stereo duplicates the mono signal. 8-bit samples
// are unsigned.
func Pack(dst []byte, src []int16, f Format) int {
	nch := f.Channels()
	i := 0
	for _, s := range src {
		for range nch {
			if f.Bits == 8 {
				dst[i] = uint8(s>>8) ^ 0x80
				i++
			} else {
				binary.LittleEndian.PutUint16(dst[i:], uint16(s))
				i += 2
			}
		}
	}
	return i
}
