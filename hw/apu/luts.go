package apu

// Length counter loads, in frames, indexed by the upper 5 bits of the
// registers $4003, $4007, $400B and $400F.
var lengthTable = [32]uint8{
	5, 127, 10, 1, 19, 2, 40, 3, 80, 4, 30, 5, 7, 6, 13, 7,
	6, 8, 12, 9, 24, 10, 48, 11, 96, 12, 36, 13, 8, 14, 16, 15,
}

// Highest pulse period an upward sweep leaves in range, by shift count.
var sweepLimit = [8]uint16{0x3FF, 0x555, 0x666, 0x71C, 0x787, 0x7C1, 0x7E0, 0x7F0}

// Noise periods, in CPU cycles.
var noisePeriods = [16]int32{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}

// DMC bit periods, in CPU cycles.
var dmcPeriods = [16]int32{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}

// Pulse sequencer position (out of 16) where the output goes low, by duty.
var dutyFlip = [4]uint8{2, 4, 8, 12}

// luts holds the timing tables, scaled to the number of samples in a frame.
type luts struct {
	length [32]int  // length counter loads
	decay  [16]int  // envelope and sweep divider reloads
	linear [128]int // triangle linear counter loads
}

func newLUTs(samplesPerFrame int) *luts {
	var l luts
	for i, v := range lengthTable {
		l.length[i] = int(v) * samplesPerFrame
	}
	for i := range l.decay {
		l.decay[i] = samplesPerFrame * (i + 1)
	}
	for i := range l.linear {
		l.linear[i] = i * samplesPerFrame / 4
	}
	return &l
}

// Fixed point 16.16 helpers.
const fixedShift = 16

func toFixed(v int32) int32 { return v << fixedShift }
