package emu

import (
	"testing"

	"nsfplay/hw/apu"
	"nsfplay/nsf"
)

// Program layout of test tunes.
const (
	initAddr = 0x8000
	playAddr = 0x8010
)

// tune describes a NSF file to build in memory.
type tune struct {
	songs uint8
	load  uint16
	banks [8]uint8
	flags uint8
	chips nsf.Chips
	init  []byte
	play  []byte
	prg   []byte // overrides init and play when set
}

func (tn tune) bytes(tb testing.TB) []byte {
	tb.Helper()

	hdr := nsf.Header{
		Version:  1,
		Songs:    max(tn.songs, 1),
		Start:    1,
		LoadAddr: tn.load,
		InitAddr: initAddr,
		PlayAddr: playAddr,
		Banks:    tn.banks,
		Flags:    tn.flags,
		Chips:    tn.chips,
	}
	if hdr.LoadAddr == 0 {
		hdr.LoadAddr = 0x8000
	}
	hdr.SetStrings("test", "nsfplay", "")

	prg := tn.prg
	if prg == nil {
		prg = make([]byte, 0x20)
		copy(prg[initAddr-0x8000:], orRTS(tn.init))
		copy(prg[playAddr-0x8000:], orRTS(tn.play))
	}

	buf, err := hdr.MarshalBinary()
	if err != nil {
		tb.Fatal(err)
	}
	return append(buf, prg...)
}

func orRTS(code []byte) []byte {
	if code == nil {
		return []byte{0x60}
	}
	return code
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Playback.InitFrames = 4
	return cfg
}

var mono16 = apu.Format{SampleRate: 44100, Bits: 16}

// newTestSession loads tn and selects its first track.
func newTestSession(tb testing.TB, tn tune, cfg Config) *Session {
	tb.Helper()

	s, err := LoadBytes(tn.bytes(tb), cfg)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { s.Close() })
	if err := s.SelectTrack(1, mono16); err != nil {
		tb.Fatal(err)
	}
	return s
}

// pulseTune plays a constant square wave on pulse 1.
var pulseTune = tune{
	init: []byte{
		0xA9, 0xBF, // LDA #$BF
		0x8D, 0x00, 0x40, // STA $4000
		0xA9, 0xFD, // LDA #$FD
		0x8D, 0x02, 0x40, // STA $4002
		0xA9, 0x00, // LDA #$00
		0x8D, 0x03, 0x40, // STA $4003
		0x60, // RTS
	},
}
