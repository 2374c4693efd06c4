package apu

// lengthCounter silences a channel once it reaches 0. It counts samples.
type lengthCounter struct {
	count int
	halt  bool
}

func (lc *lengthCounter) load(idx uint8, l *luts) {
	lc.count = l.length[idx&0x1F]
}

func (lc *lengthCounter) tick() {
	if !lc.halt && lc.count > 0 {
		lc.count--
	}
}

func (lc *lengthCounter) active() bool { return lc.count > 0 }

func (lc *lengthCounter) rescale(num, den int) {
	if lc.count > 0 {
		lc.count = max(1, lc.count*num/den)
	}
}
