// Package nsf implements a reader for the NES Sound Format, used for the
// distribution of NES music rips.
package nsf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nsfplay/emu/log"
)

var modNSF = log.NewModule("nsf")

var (
	ErrBadMagic  = errors.New("invalid magic number")
	ErrTruncated = errors.New("truncated file")
)

const (
	Magic      = "NESM\x1a"
	HeaderSize = 0x80
)

// Default play rates, in microseconds per call to the play routine.
const (
	DefaultNTSCSpeed = 16639
	DefaultPALSpeed  = 19997
)

// Region tells which TV systems a tune has been written for.
type Region uint8

const (
	NTSC Region = iota
	PAL
	Dual
)

func (r Region) String() string {
	switch r {
	case NTSC:
		return "ntsc"
	case PAL:
		return "pal"
	case Dual:
		return "dual"
	}
	return fmt.Sprintf("Region(%d)", uint8(r))
}

// Chips is the set of expansion sound chips used by a tune.
type Chips uint8

const (
	VRC6 Chips = 1 << iota
	VRC7
	FDS
	MMC5
	N163
	FME07
)

var chipNames = [...]string{"vrc6", "vrc7", "fds", "mmc5", "n163", "fme07"}

// Has reports whether all chips in o are set in c.
func (c Chips) Has(o Chips) bool {
	return c&o == o
}

func (c Chips) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for i, name := range chipNames {
		if c&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := c &^ (1<<len(chipNames) - 1); rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(names, "|")
}

// Header is the 128 bytes header starting every NSF file.
type Header struct {
	Version   uint8
	Songs     uint8 // Songs is the total number of songs.
	Start     uint8 // Start is the 1-based song to play first.
	LoadAddr  uint16
	InitAddr  uint16
	PlayAddr  uint16
	NTSCSpeed uint16 // NTSCSpeed is the play period on NTSC, in µs.
	PALSpeed  uint16 // PALSpeed is the play period on PAL, in µs.
	Banks     [8]uint8
	Flags     uint8 // Flags is the raw PAL/NTSC byte.
	Chips     Chips

	// Strings are stored with their padding so that marshaling gives back
	// the bytes that have been read.
	RawTitle     [32]byte
	RawArtist    [32]byte
	RawCopyright [32]byte
	Reserved     [4]byte
}

// File is a decoded NSF file.
type File struct {
	Header
	Data []byte // Data is the program image, to be loaded at LoadAddr.
}

// Open loads a NSF file from disk.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nsf := new(File)
	if _, err := nsf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nsf, nil
}

// Read decodes a NSF file from buf. The returned File references buf.
func Read(buf []byte) (*File, error) {
	nsf := new(File)
	if err := nsf.decode(buf); err != nil {
		return nil, err
	}
	return nsf, nil
}

// ReadFrom implements io.ReaderFrom interface
func (f *File) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := f.decode(buf); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

func (f *File) decode(buf []byte) error {
	if err := f.Header.UnmarshalBinary(buf); err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	f.Data = buf[HeaderSize:]
	if len(f.Data) == 0 {
		return fmt.Errorf("empty program: %w", ErrTruncated)
	}
	if f.Version != 1 {
		modNSF.WarnZ("unexpected version").Uint8("version", f.Version).End()
	}
	return nil
}

// UnmarshalBinary decodes the header from the first HeaderSize bytes of p.
func (hdr *Header) UnmarshalBinary(p []byte) error {
	if len(p) < len(Magic) {
		return ErrTruncated
	}
	if string(p[:len(Magic)]) != Magic {
		return ErrBadMagic
	}
	if len(p) < HeaderSize {
		return fmt.Errorf("%d bytes, needs %d: %w", len(p), HeaderSize, ErrTruncated)
	}

	le := binary.LittleEndian
	hdr.Version = p[0x05]
	hdr.Songs = p[0x06]
	hdr.Start = p[0x07]
	hdr.LoadAddr = le.Uint16(p[0x08:])
	hdr.InitAddr = le.Uint16(p[0x0A:])
	hdr.PlayAddr = le.Uint16(p[0x0C:])
	copy(hdr.RawTitle[:], p[0x0E:])
	copy(hdr.RawArtist[:], p[0x2E:])
	copy(hdr.RawCopyright[:], p[0x4E:])
	hdr.NTSCSpeed = le.Uint16(p[0x6E:])
	copy(hdr.Banks[:], p[0x70:])
	hdr.PALSpeed = le.Uint16(p[0x78:])
	hdr.Flags = p[0x7A]
	hdr.Chips = Chips(p[0x7B])
	copy(hdr.Reserved[:], p[0x7C:])
	return nil
}

// MarshalBinary encodes the header into its HeaderSize bytes form.
func (hdr *Header) MarshalBinary() ([]byte, error) {
	p := make([]byte, HeaderSize)
	le := binary.LittleEndian
	copy(p, Magic)
	p[0x05] = hdr.Version
	p[0x06] = hdr.Songs
	p[0x07] = hdr.Start
	le.PutUint16(p[0x08:], hdr.LoadAddr)
	le.PutUint16(p[0x0A:], hdr.InitAddr)
	le.PutUint16(p[0x0C:], hdr.PlayAddr)
	copy(p[0x0E:], hdr.RawTitle[:])
	copy(p[0x2E:], hdr.RawArtist[:])
	copy(p[0x4E:], hdr.RawCopyright[:])
	le.PutUint16(p[0x6E:], hdr.NTSCSpeed)
	copy(p[0x70:], hdr.Banks[:])
	le.PutUint16(p[0x78:], hdr.PALSpeed)
	p[0x7A] = hdr.Flags
	p[0x7B] = uint8(hdr.Chips)
	copy(p[0x7C:], hdr.Reserved[:])
	return p, nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (hdr *Header) Title() string     { return cstring(hdr.RawTitle[:]) }
func (hdr *Header) Artist() string    { return cstring(hdr.RawArtist[:]) }
func (hdr *Header) Copyright() string { return cstring(hdr.RawCopyright[:]) }

// SetStrings sets title, artist and copyright, truncating them to 31 bytes.
func (hdr *Header) SetStrings(title, artist, copyright string) {
	set := func(dst *[32]byte, s string) {
		*dst = [32]byte{}
		copy(dst[:31], s)
	}
	set(&hdr.RawTitle, title)
	set(&hdr.RawArtist, artist)
	set(&hdr.RawCopyright, copyright)
}

// Region returns the TV system the tune has been written for.
func (hdr *Header) Region() Region {
	switch {
	case hdr.Flags&0x02 != 0:
		return Dual
	case hdr.Flags&0x01 != 0:
		return PAL
	}
	return NTSC
}

// IsPAL reports whether the tune should be played at PAL rate. Dual region
// tunes are played as NTSC.
func (hdr *Header) IsPAL() bool {
	return hdr.Region() == PAL
}

// Speed returns the play routine period in microseconds for the region the
// tune is played at, falling back to the standard rate when the header
// carries 0.
func (hdr *Header) Speed() uint16 {
	if hdr.IsPAL() {
		if hdr.PALSpeed == 0 {
			return DefaultPALSpeed
		}
		return hdr.PALSpeed
	}
	if hdr.NTSCSpeed == 0 {
		return DefaultNTSCSpeed
	}
	return hdr.NTSCSpeed
}

// IsBankswitched reports whether the tune uses the $5FF8-$5FFF bank
// registers.
func (hdr *Header) IsBankswitched() bool {
	return hdr.Banks != [8]uint8{}
}
