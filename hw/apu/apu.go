package apu

import (
	"fmt"

	"nsfplay/emu/log"
	"nsfplay/hw/hwdefs"
	"nsfplay/hw/hwio"
)

// APU synthesizes the 2A03 sound channels, one sample at a time.
//
// Register writes from the CPU are not applied right away: they're queued
// with the CPU cycle they happened at, and applied by the mixer right before
// the first sample whose time span includes that cycle.
type APU struct {
	cpu cpu
	ext Extension

	extWrites *hwio.Table

	Pulse1   pulse
	Pulse2   pulse
	Triangle triangle
	Noise    noise
	DMC      dmc

	queue     writeQueue
	view      regView
	overflows int

	clock  hwdefs.Clock
	fps    int // frame sequencer rate
	format Format
	filter Filter
	muted  [NumChannels]bool

	rate     int // internal sample rate
	luts     *luts
	step     hwdefs.Stepper // 16.16 CPU cycles per internal sample
	pos      uint64         // 16.16 CPU cycle the next sample starts at
	triDelay int            // triangle write latency, in samples

	mixer mixer
}

// regView is the state of the status register as the CPU sees it, while
// writes affecting it are still queued.
type regView struct {
	enabled uint8
	loaded  uint8
	pending int
}

// New returns an APU clocked at clock, producing samples in the given
// format.
func New(c cpu, clock hwdefs.Clock, f Format) (*APU, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	a := &APU{
		cpu:       c,
		clock:     clock,
		fps:       60,
		format:    f,
		extWrites: hwio.NewTable("ext"),
	}
	if clock == hwdefs.PAL {
		a.fps = 50
	}
	a.Pulse1.name = "pulse1"
	a.Pulse1.complement = true
	a.Pulse2.name = "pulse2"
	a.configure()
	a.Reset()
	return a, nil
}

// configure derives the timing tables from the internal sample rate.
func (a *APU) configure() {
	a.rate = a.format.SampleRate
	if a.filter == FilterBandLimited {
		a.rate *= oversampling
	}
	a.luts = newLUTs(a.rate / a.fps)
	a.step = hwdefs.NewStepper(a.clock.Num<<fixedShift, a.clock.Den*uint64(a.rate))
	a.triDelay = max(1, triangleLatency/int(max(1, a.step.Mean()>>fixedShift)))
	a.mixer.configure(a.filter, a.rate, a.format.SampleRate)

	log.ModSound.DebugZ("apu configured").
		Stringer("format", a.format).
		Stringer("filter", a.filter).
		Int("rate", a.rate).
		Uint64("step", a.step.Mean()).
		End()
}

// Reset silences all channels and drops queued writes.
func (a *APU) Reset() {
	a.Pulse1.reset(a.luts)
	a.Pulse2.reset(a.luts)
	a.Triangle.reset()
	a.Noise.reset(a.luts)
	a.DMC.reset()
	a.queue.reset()
	a.view = regView{}
	a.pos = 0
	a.mixer.reset()
	if a.ext != nil {
		a.ext.Reset()
	}
}

func (a *APU) Format() Format { return a.format }
func (a *APU) Filter() Filter { return a.filter }

// SetFilter changes the output filter. Switching to or from band-limited
// mode changes the internal rate; channel counters are rescaled to it.
func (a *APU) SetFilter(f Filter) {
	if f == a.filter {
		return
	}
	old := a.rate
	a.filter = f
	a.configure()
	if a.rate != old {
		a.Pulse1.rescale(a.rate, old)
		a.Pulse2.rescale(a.rate, old)
		a.Triangle.rescale(a.rate, old)
		a.Noise.rescale(a.rate, old)
	}
}

// SetChannelEnabled includes or excludes a channel from the mix. A muted
// channel keeps running.
func (a *APU) SetChannelEnabled(ch Channel, on bool) {
	if int(ch) >= NumChannels {
		return
	}
	a.muted[ch] = !on
}

func (a *APU) ChannelEnabled(ch Channel) bool {
	return int(ch) < NumChannels && !a.muted[ch]
}

// SetExtension installs the expansion chip, nil removes it.
func (a *APU) SetExtension(ext Extension) error {
	if a.ext != nil {
		a.ext.Shutdown()
	}
	a.ext = ext
	a.extWrites.Reset()
	if ext == nil {
		return nil
	}
	for _, wr := range ext.WriteRanges() {
		if err := a.extWrites.MapWrite(wr); err != nil {
			return fmt.Errorf("extension write range: %w", err)
		}
	}
	ext.Init()
	return nil
}

func (a *APU) Extension() Extension { return a.ext }

// MapBus maps the APU registers, and those of the expansion chip, onto the
// CPU bus.
func (a *APU) MapBus(t *hwio.Table) error {
	writes := []hwio.WriteRange{
		{Min: 0x4000, Max: 0x4013, Write: a.Write8},
		{Min: 0x4015, Max: 0x4015, Write: a.Write8},
		{Min: 0x4017, Max: 0x4017, Write: a.Write8},
	}
	reads := []hwio.ReadRange{
		{Min: 0x4015, Max: 0x4015, Read: a.ReadStatus},
	}
	if a.ext != nil {
		reads = append(reads, a.ext.ReadRanges()...)
		for _, wr := range a.ext.WriteRanges() {
			writes = append(writes, hwio.WriteRange{Min: wr.Min, Max: wr.Max, Write: a.Write8})
		}
		if bw, ok := a.ext.(BusWriter); ok {
			writes = append(writes, bw.BusWriteRanges()...)
		}
	}

	for _, r := range reads {
		if err := t.MapRead(r); err != nil {
			return err
		}
	}
	for _, w := range writes {
		if err := t.MapWrite(w); err != nil {
			return err
		}
	}
	return nil
}

func isStatusWrite(addr uint16) bool {
	return addr == 0x4015 || (addr <= 0x400F && addr&3 == 3)
}

// Write8 queues a register write, timestamped with the current CPU cycle.
func (a *APU) Write8(addr uint16, val uint8) {
	a.recordView(addr, val)

	w := QueuedWrite{Timestamp: a.cpu.CycleCount(), Addr: addr, Val: val}
	if !a.queue.push(w) {
		// Best effort: play the oldest write early rather than lose one.
		old, _ := a.queue.pop()
		a.apply(old)
		a.overflows++
		if a.overflows == 1 || a.overflows%queueCap == 0 {
			log.ModSound.WarnZ("write queue overflow").
				Int("cap", queueCap).
				Int("overflows", a.overflows).
				Stringer("applied", old).
				End()
		}
		a.queue.push(w)
	}
}

// Overflows returns the number of writes applied early because the queue
// was full.
func (a *APU) Overflows() int { return a.overflows }

// Pending returns the number of queued writes.
func (a *APU) Pending() int { return a.queue.len() }

func (a *APU) recordView(addr uint16, val uint8) {
	if !isStatusWrite(addr) {
		return
	}
	if a.view.pending == 0 {
		st := a.audioStatus()
		a.view.enabled = st & 0x10
		a.view.loaded = st & 0x0F
		for i, on := range [4]bool{a.Pulse1.enabled, a.Pulse2.enabled, a.Triangle.enabled, a.Noise.enabled} {
			if on {
				a.view.enabled |= 1 << i
			}
		}
	}
	a.view.pending++

	if addr == 0x4015 {
		a.view.enabled = val & 0x1F
		a.view.loaded &= val
		return
	}
	if bit := uint8(1) << ((addr - 0x4000) >> 2); a.view.enabled&bit != 0 {
		a.view.loaded |= bit
	}
}

// audioStatus returns the channel bits of $4015 from the channel state.
func (a *APU) audioStatus() uint8 {
	var st uint8
	for i, on := range [5]bool{
		a.Pulse1.length.active(),
		a.Pulse2.length.active(),
		a.Triangle.length.active(),
		a.Noise.length.active(),
		a.DMC.active(),
	} {
		if on {
			st |= 1 << i
		}
	}
	return st
}

// ReadStatus reads $4015. Bits 0-4 are set for channels still playing, bit
// 7 is the DMC IRQ flag. Queued writes are accounted for.
func (a *APU) ReadStatus(uint16) uint8 {
	var st uint8
	if a.view.pending > 0 {
		st = a.view.enabled&0x10 | a.view.enabled&a.view.loaded&0x0F
	} else {
		st = a.audioStatus()
	}
	if a.DMC.irq {
		st |= 0x80
	}
	return st
}

// apply applies a register write to the channels.
func (a *APU) apply(w QueuedWrite) {
	if isStatusWrite(w.Addr) {
		a.view.pending--
	}

	reg := uint8(w.Addr & 3)
	switch {
	case w.Addr <= 0x4003:
		a.Pulse1.write(reg, w.Val, a.luts)
	case w.Addr <= 0x4007:
		a.Pulse2.write(reg, w.Val, a.luts)
	case w.Addr <= 0x400B:
		if reg != 1 {
			a.Triangle.write(reg, w.Val, a.luts, a.triDelay)
		}
	case w.Addr <= 0x400F:
		if reg != 1 {
			a.Noise.write(reg, w.Val, a.luts)
		}
	case w.Addr <= 0x4013:
		irq := a.DMC.irq
		a.DMC.write(reg, w.Val)
		if irq && !a.DMC.irq {
			a.cpu.ClearIRQ()
		}
	case w.Addr == 0x4015:
		a.writeStatus(w.Val)
	case w.Addr == 0x4017:
		// The frame sequencer runs at a fixed rate, and its IRQ is never
		// used by NSF drivers.
	default:
		if !a.extWrites.Write8(w.Addr, w.Val) {
			log.ModSound.WarnZ("unmapped queued write").
				Hex16("addr", w.Addr).
				Hex8("val", w.Val).
				End()
		}
	}
}

func (a *APU) writeStatus(val uint8) {
	if a.DMC.irq {
		a.DMC.irq = false
		a.cpu.ClearIRQ()
	}
	a.Pulse1.setEnabled(val&0x01 != 0)
	a.Pulse2.setEnabled(val&0x02 != 0)
	a.Triangle.setEnabled(val&0x04 != 0)
	a.Noise.setEnabled(val&0x08 != 0)
	a.DMC.setEnabled(val&0x10 != 0)
}

// drain applies queued writes happening before the CPU cycle end (16.16).
func (a *APU) drain(end uint64) {
	for {
		w, ok := a.queue.peek()
		if !ok || uint64(w.Timestamp)<<fixedShift >= end {
			return
		}
		a.queue.pop()
		a.apply(w)
	}
}

// Flush applies all queued writes and moves the sample clock to the CPU
// cycle now. Used after running code that isn't part of the sample stream,
// like a tune init routine.
func (a *APU) Flush(now int64) {
	for {
		w, ok := a.queue.pop()
		if !ok {
			break
		}
		a.apply(w)
	}
	a.pos = uint64(now) << fixedShift
	a.queue.last = now
}

// Cycle returns the CPU cycle the next sample starts at.
func (a *APU) Cycle() int64 { return int64(a.pos >> fixedShift) }

// tick produces one internal sample.
func (a *APU) tick() int32 {
	cycles := a.step.Next()
	end := a.pos + cycles
	a.drain(end)
	a.pos = end

	rate := int32(cycles)
	out := [NumChannels]int32{
		Pulse1:   a.Pulse1.tick(rate),
		Pulse2:   a.Pulse2.tick(rate),
		Triangle: a.Triangle.tick(rate),
		Noise:    a.Noise.tick(rate),
		DMC:      a.DMC.tick(rate, a.cpu),
	}
	if a.ext != nil {
		out[Ext] = a.ext.Process(rate)
	}

	var acc int32
	for ch, v := range out {
		if !a.muted[ch] {
			acc += v
		}
	}
	return acc
}

// Process fills out with mono samples.
func (a *APU) Process(out []int16) {
	a.mixer.mix(out, a.tick)
}

// Close shuts the expansion chip down.
func (a *APU) Close() {
	if a.ext != nil {
		a.ext.Shutdown()
		a.ext = nil
	}
}
