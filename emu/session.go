package emu

import (
	"fmt"

	"nsfplay/emu/log"
	"nsfplay/hw"
	"nsfplay/hw/apu"
	"nsfplay/hw/ext"
	"nsfplay/hw/hwdefs"
	"nsfplay/hw/hwio"
	"nsfplay/nsf"
)

// Driver trampoline, at the start of the page the session owns at $5000.
const (
	trampolineAddr = 0x5000
	parkAddr       = trampolineAddr + 3 // where the halt opcode sits
	driverPage     = trampolineAddr >> 12

	opJSR  = 0x20
	opHalt = 0xF2
)

// Session plays the tracks of a NSF file. It owns the CPU, the APU and the
// expansion chips; sessions don't share anything so that several of them
// can run concurrently.
//
// Playback is driven by the caller, alternating AdvanceFrame, which runs the
// play routine for one frame, and FillSamples.
type Session struct {
	cfg  Config
	file *nsf.File
	mem  *memory

	CPU *hw.CPU
	APU *apu.APU

	clock  hwdefs.Clock
	driver []byte

	track   int
	format  apu.Format
	filter  apu.Filter
	muted   [apu.NumChannels]bool
	frame   hwdefs.Stepper // CPU cycles per frame
	samples hwdefs.Stepper // samples per frame
	target  int64          // CPU cycle the current frame ends at
	due     int            // samples left to render for the current frame

	pcm    []int16
	fault  error
	closed bool
}

// Load opens a NSF file and returns a session ready for SelectTrack.
func Load(path string, cfg Config) (*Session, error) {
	f, err := nsf.Open(path)
	if err != nil {
		return nil, err
	}
	return newSession(f, cfg)
}

// LoadBytes is Load for an in-memory NSF file.
func LoadBytes(buf []byte, cfg Config) (*Session, error) {
	f, err := nsf.Read(buf)
	if err != nil {
		return nil, err
	}
	return newSession(f, cfg)
}

func newSession(f *nsf.File, cfg Config) (*Session, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if f.Songs == 0 {
		return nil, fmt.Errorf("%w: no songs", ErrInvalidTrack)
	}
	mem, err := newMemory(f)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		file:   f,
		mem:    mem,
		CPU:    hw.NewCPU(),
		clock:  hwdefs.NTSC,
		driver: make([]byte, hw.PageSize),
		filter: cfg.Audio.Filter,
	}
	if f.IsPAL() {
		s.clock = hwdefs.PAL
	}
	for _, name := range cfg.Playback.Muted {
		ch, _ := apu.ParseChannel(name)
		s.muted[ch] = true
	}
	if cfg.TraceOut != nil {
		s.CPU.SetTraceOutput(cfg.TraceOut)
	}

	log.ModEmu.InfoZ("nsf loaded").
		String("title", f.Title()).
		Uint8("songs", f.Songs).
		Stringer("region", f.Region()).
		Stringer("chips", f.Chips).
		End()
	return s, nil
}

// Header returns the header of the loaded file.
func (s *Session) Header() *nsf.Header { return &s.file.Header }

// Track returns the 1-based selected track, 0 if none.
func (s *Session) Track() int { return s.track }

// Format returns the sample format of the selected track.
func (s *Session) Format() apu.Format { return s.format }

// SamplesPerFrame returns the number of samples the next frame lasts.
func (s *Session) SamplesPerFrame() int { return int(s.samples.Peek()) }

// Fault returns the error that stopped playback, if any.
func (s *Session) Fault() error { return s.fault }

// SelectTrack resets the machine, runs the init routine of the 1-based
// track and prepares the APU to produce samples in the given format.
// Out of range tracks are clamped, unless Config.Playback.StrictTrack is
// set.
func (s *Session) SelectTrack(track int, f apu.Format) error {
	if s.closed {
		return ErrClosed
	}
	if err := f.Validate(); err != nil {
		return err
	}
	track, err := s.checkTrack(track)
	if err != nil {
		return err
	}

	a, err := apu.New(s.CPU, s.clock, f)
	if err != nil {
		return err
	}
	a.SetFilter(s.filter)
	for ch, m := range s.muted {
		a.SetChannelEnabled(apu.Channel(ch), !m)
	}
	if err := a.SetExtension(ext.New(s.file.Chips)); err != nil {
		return err
	}
	if s.APU != nil {
		s.APU.Close()
	}
	s.APU = a
	s.format = f
	s.track = track
	s.fault = nil
	s.due = 0

	if err := s.mapBus(); err != nil {
		return err
	}
	s.reset()

	speed := uint64(s.file.Speed())
	s.frame = hwdefs.NewStepper(s.clock.Num*speed, s.clock.Den*1e6)
	s.samples = hwdefs.NewStepper(uint64(f.SampleRate)*speed, 1e6)

	if err := s.runInit(); err != nil {
		s.fault = err
		return err
	}

	log.ModEmu.InfoZ("track selected").
		Int("track", track).
		Stringer("format", f).
		Uint64("frame cycles", s.frame.Mean()).
		End()
	return nil
}

func (s *Session) checkTrack(track int) (int, error) {
	songs := int(s.file.Songs)
	if track >= 1 && track <= songs {
		return track, nil
	}
	if s.cfg.Playback.StrictTrack {
		return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidTrack, track, songs)
	}
	clamped := min(max(track, 1), songs)
	log.ModEmu.WarnZ("track out of range, clamped").
		Int("track", track).
		Int("clamped", clamped).
		End()
	return clamped, nil
}

// mapBus maps RAM mirrors, bank registers, the APU and the expansion chips
// onto the CPU bus.
func (s *Session) mapBus() error {
	cpu := s.CPU
	cpu.Bus.Reset()

	mirror := &hwio.Device{
		Name: "ram mirror",
		ReadCb: func(addr uint16) uint8 {
			return cpu.RAM[addr&(hw.RAMSize-1)]
		},
		WriteCb: func(addr uint16, val uint8) {
			cpu.RAM[addr&(hw.RAMSize-1)] = val
		},
	}
	if err := cpu.Bus.MapDevice(hw.RAMSize, 0x1FFF, mirror); err != nil {
		return err
	}

	err := cpu.Bus.MapWrite(hwio.WriteRange{
		Min: bankRegLo,
		Max: bankRegHi,
		Write: func(addr uint16, val uint8) {
			s.mem.switchBank(cpu, addr, val)
		},
	})
	if err != nil {
		return err
	}
	if err := s.APU.MapBus(cpu.Bus); err != nil {
		return err
	}

	// ROM is not writable, except where the expansion chips have their
	// registers.
	if !s.mem.fds {
		cpu.Bus.FillWrite(0x8000, 0xFFFF, func(addr uint16, val uint8) {
			log.ModEmu.DebugZ("write to rom").Hex16("addr", addr).Hex8("val", val).End()
		})
	}
	return nil
}

// reset puts the machine in the state NSF tunes expect before init.
func (s *Session) reset() {
	clear(s.CPU.RAM[:])
	clear(s.driver)
	s.CPU.Pages[driverPage] = s.driver
	s.mem.reset(s.CPU)

	s.CPU.Reset()
	s.APU.Reset()
	for addr := uint16(0x4000); addr <= 0x4013; addr++ {
		s.CPU.Write8(addr, 0)
	}
	s.CPU.Write8(0x4015, 0x0F)
	s.CPU.Write8(0x4017, 0x40)
	s.APU.Flush(s.CPU.Cycles)
}

// call sets the CPU up to run the routine at addr, returning into the halt
// opcode of the trampoline.
func (s *Session) call(addr uint16) {
	s.driver[0] = opJSR
	s.driver[1] = uint8(addr)
	s.driver[2] = uint8(addr >> 8)
	s.driver[3] = opHalt

	s.CPU.Resume()
	s.CPU.PC = trampolineAddr
	s.CPU.SP = 0xFF
}

// parked reports whether the last called routine returned. It fails if the
// CPU halted anywhere else.
func (s *Session) parked(routine string) (bool, error) {
	pc, halted := s.CPU.Halted()
	if !halted {
		return false, nil
	}
	if pc != parkAddr {
		err := &JamError{PC: pc, Routine: routine, Track: s.track}
		log.ModEmu.ErrorZ("cpu jammed").
			Hex16("pc", pc).
			String("routine", routine).
			Int("track", s.track).
			End()
		return false, err
	}
	return true, nil
}

func (s *Session) runInit() error {
	s.CPU.A = uint8(s.track - 1)
	s.CPU.X = 0
	if s.clock == hwdefs.PAL {
		s.CPU.X = 1
	}
	s.call(s.file.InitAddr)

	for range s.cfg.Playback.InitFrames {
		s.CPU.Execute(int(s.frame.Next()))
		s.APU.Flush(s.CPU.Cycles)

		done, err := s.parked("init")
		if err != nil {
			return err
		}
		if done {
			s.target = s.CPU.Cycles
			return nil
		}
	}

	log.ModEmu.WarnZ("init routine did not return").
		Int("track", s.track).
		Int("frames", s.cfg.Playback.InitFrames).
		End()
	s.target = s.CPU.Cycles
	return nil
}

// AdvanceFrame runs the play routine for one frame worth of CPU cycles.
// Once the CPU jammed, it keeps returning the same error.
func (s *Session) AdvanceFrame() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.fault != nil:
		return s.fault
	case s.track == 0:
		return ErrNoTrack
	}

	if _, halted := s.CPU.Halted(); !halted {
		log.ModEmu.DebugZ("play routine overran its frame").
			Hex16("pc", s.CPU.PC).
			End()
	}
	s.call(s.file.PlayAddr)

	s.target += int64(s.frame.Next())
	if budget := s.target - s.CPU.Cycles; budget > 0 {
		s.CPU.Execute(int(budget))
	}
	if _, err := s.parked("play"); err != nil {
		s.fault = err
		return err
	}
	return nil
}

// FillSamples renders n sample frames into buf and returns the number of
// bytes written. n is reduced to what fits in buf.
func (s *Session) FillSamples(buf []byte, n int) (int, error) {
	switch {
	case s.closed:
		return 0, ErrClosed
	case s.fault != nil:
		return 0, s.fault
	case s.track == 0:
		return 0, ErrNoTrack
	}

	n = min(n, len(buf)/s.format.FrameSize())
	if n <= 0 {
		return 0, nil
	}
	if cap(s.pcm) < n {
		s.pcm = make([]int16, n)
	}
	pcm := s.pcm[:n]
	s.APU.Process(pcm)
	return apu.Pack(buf, pcm, s.format), nil
}

// Render renders n sample frames, advancing frames as needed.
func (s *Session) Render(n int) ([]byte, error) {
	buf := make([]byte, n*s.format.FrameSize())
	off := 0
	for n > 0 {
		if s.due == 0 {
			if err := s.AdvanceFrame(); err != nil {
				return buf[:off], err
			}
			s.due = int(s.samples.Next())
		}
		k := min(s.due, n)
		written, err := s.FillSamples(buf[off:], k)
		if err != nil {
			return buf[:off], err
		}
		off += written
		s.due -= k
		n -= k
	}
	return buf, nil
}

// SetChannelEnabled includes or excludes a channel from the mix. It lasts
// across track changes.
func (s *Session) SetChannelEnabled(ch apu.Channel, on bool) {
	if int(ch) >= apu.NumChannels {
		return
	}
	s.muted[ch] = !on
	if s.APU != nil {
		s.APU.SetChannelEnabled(ch, on)
	}
}

// SetFilter changes the output filter. It lasts across track changes.
func (s *Session) SetFilter(f apu.Filter) {
	s.filter = f
	if s.APU != nil {
		s.APU.SetFilter(f)
	}
}

// Close releases the expansion chips. The session can't be used afterwards.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.APU != nil {
		s.APU.Close()
	}
	s.CPU.SetTraceOutput(nil)
	return nil
}
