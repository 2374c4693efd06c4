package apu

import (
	"errors"
	"fmt"
	"strings"

	"nsfplay/hw/hwdefs"
)

// Channel identifies a mixer input.
type Channel uint8

const (
	Pulse1 Channel = iota
	Pulse2
	Triangle
	Noise
	DMC
	Ext // expansion chip, if any

	NumChannels = hwdefs.NumAudioChannels
)

var channelNames = [NumChannels]string{
	"pulse1",
	"pulse2",
	"triangle",
	"noise",
	"dmc",
	"ext",
}

func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", c)
}

// ParseChannel returns the channel with the given name.
func ParseChannel(s string) (Channel, error) {
	for i, name := range channelNames {
		if strings.EqualFold(s, name) {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q (valid: %s)", s, strings.Join(channelNames[:], ", "))
}

// Filter is the post-mix filter applied to the output stream.
type Filter uint8

const (
	FilterNone     Filter = iota
	FilterLowPass         // single pole, averages with the previous sample
	FilterWeighted        // 3:1 weighted average with the previous sample
	FilterBandLimited     // oversampled then band-limited resampling

	numFilters
)

var filterNames = [numFilters]string{
	"none",
	"lowpass",
	"weighted",
	"bandlimited",
}

func (f Filter) String() string {
	if f < numFilters {
		return filterNames[f]
	}
	return fmt.Sprintf("Filter(%d)", f)
}

func ParseFilter(s string) (Filter, error) {
	for i, name := range filterNames {
		if strings.EqualFold(s, name) {
			return Filter(i), nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q (valid: %s)", s, strings.Join(filterNames[:], ", "))
}

func (f Filter) MarshalText() ([]byte, error) {
	if f >= numFilters {
		return nil, fmt.Errorf("invalid filter %d", f)
	}
	return []byte(f.String()), nil
}

func (f *Filter) UnmarshalText(text []byte) error {
	v, err := ParseFilter(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ErrBadFormat is returned for an unsupported output format.
var ErrBadFormat = errors.New("unsupported sample format")

const (
	MinSampleRate = 8000
	MaxSampleRate = 96000
)

// Format describes the PCM stream produced by the APU.
type Format struct {
	SampleRate int
	Bits       int // 8 (unsigned) or 16 (signed, little endian)
	Stereo     bool
}

func (f Format) Validate() error {
	if f.SampleRate < MinSampleRate || f.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d not in [%d, %d]", ErrBadFormat, f.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if f.Bits != 8 && f.Bits != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrBadFormat, f.Bits)
	}
	return nil
}

// Channels returns the number of interleaved channels.
func (f Format) Channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}

// FrameSize returns the size in bytes of one sample frame.
func (f Format) FrameSize() int {
	return f.Channels() * f.Bits / 8
}

func (f Format) String() string {
	ch := "mono"
	if f.Stereo {
		ch = "stereo"
	}
	return fmt.Sprintf("%dHz/%dbit/%s", f.SampleRate, f.Bits, ch)
}

// cpu is the part of the CPU the APU sees.
type cpu interface {
	Read8(addr uint16) uint8
	AddDMACycles(n int)
	RaiseIRQ()
	ClearIRQ()
	CycleCount() int64
}
