package hwdefs

import "strings"

// Interrupt is a bitmask of pending CPU interrupt lines.
type Interrupt uint8

const (
	NMI Interrupt = 1 << iota
	IRQ

	numInterrupts = 2
)

var interruptNames = [numInterrupts]string{
	"nmi",
	"irq",
}

func (irq Interrupt) String() string {
	var names []string
	for i := range numInterrupts {
		if irq&(1<<i) != 0 {
			names = append(names, interruptNames[i])
		}
	}
	return strings.Join(names, "|")
}

const NumAudioChannels = 6 // Pulse1, Pulse2, Triangle, Noise, DMC, Ext

// Clock is a clock frequency expressed as the exact ratio Num/Den Hz.
type Clock struct {
	Num, Den uint64
}

var (
	NTSC = Clock{Num: 19687500, Den: 11} // 236.25MHz / 11 / 12
	PAL  = Clock{Num: 53203425, Den: 32} // 26.6017125MHz / 16
)

func (c Clock) Hz() float64 { return float64(c.Num) / float64(c.Den) }

// Stepper splits the ratio num/den into a sequence of integer steps that
// never drifts: the sum of the first n steps is always floor(n*num/den).
type Stepper struct {
	whole, rem, den uint64
	acc             uint64
}

func NewStepper(num, den uint64) Stepper {
	if den == 0 {
		panic("hwdefs: zero denominator")
	}
	return Stepper{whole: num / den, rem: num % den, den: den}
}

// Next returns the next step.
func (s *Stepper) Next() uint64 {
	n := s.whole
	s.acc += s.rem
	if s.acc >= s.den {
		s.acc -= s.den
		n++
	}
	return n
}

// Peek returns the next step without consuming it.
func (s *Stepper) Peek() uint64 {
	if s.acc+s.rem >= s.den {
		return s.whole + 1
	}
	return s.whole
}

// Mean returns the average step, rounded down.
func (s *Stepper) Mean() uint64 { return s.whole }
