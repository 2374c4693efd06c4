package nsf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testHeader() Header {
	hdr := Header{
		Version:   1,
		Songs:     3,
		Start:     2,
		LoadAddr:  0x8000,
		InitAddr:  0x8003,
		PlayAddr:  0x8010,
		NTSCSpeed: 16639,
		PALSpeed:  19997,
		Banks:     [8]uint8{0, 1, 2, 3, 4, 5, 6, 7},
		Flags:     0x02,
		Chips:     VRC6 | FME07,
		Reserved:  [4]byte{1, 2, 3, 4},
	}
	hdr.SetStrings("Title", "Artist", "2024 Someone")
	return hdr
}

func testImage(t *testing.T, hdr Header, prg []byte) []byte {
	t.Helper()

	buf, err := hdr.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	return append(buf, prg...)
}

func TestHeaderRoundTrip(t *testing.T) {
	hdr := testHeader()
	raw := testImage(t, hdr, []byte{0xEA, 0x60})

	f, err := Read(raw)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(hdr, f.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(f.Data, []byte{0xEA, 0x60}) {
		t.Errorf("Data = % x", f.Data)
	}

	got, err := f.Header.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw[:HeaderSize]) {
		t.Errorf("MarshalBinary doesn't give back the original bytes:\n%s", cmp.Diff(raw[:HeaderSize], got))
	}
}

func TestRoundTripKeepsPadding(t *testing.T) {
	// Garbage after the string terminator must survive.
	hdr := testHeader()
	raw := testImage(t, hdr, []byte{0x60})
	copy(raw[0x0E+10:], "junk")

	f, err := Read(raw)
	if err != nil {
		t.Fatal(err)
	}
	if f.Title() != "Title" {
		t.Errorf("Title() = %q", f.Title())
	}
	got, _ := f.Header.MarshalBinary()
	if !bytes.Equal(got, raw[:HeaderSize]) {
		t.Errorf("padding lost")
	}
}

func TestAccessors(t *testing.T) {
	hdr := testHeader()
	if hdr.Title() != "Title" || hdr.Artist() != "Artist" || hdr.Copyright() != "2024 Someone" {
		t.Errorf("strings = %q %q %q", hdr.Title(), hdr.Artist(), hdr.Copyright())
	}
	if !hdr.IsBankswitched() {
		t.Errorf("IsBankswitched() = false")
	}
	if !hdr.Chips.Has(VRC6) || hdr.Chips.Has(FDS) {
		t.Errorf("Chips = %v", hdr.Chips)
	}
	if s := hdr.Chips.String(); s != "vrc6|fme07" {
		t.Errorf("Chips.String() = %q", s)
	}

	tests := []struct {
		flags  uint8
		ntsc   uint16
		pal    uint16
		region Region
		speed  uint16
	}{
		{flags: 0x00, ntsc: 10000, region: NTSC, speed: 10000},
		{flags: 0x00, ntsc: 0, region: NTSC, speed: DefaultNTSCSpeed},
		{flags: 0x01, pal: 20000, region: PAL, speed: 20000},
		{flags: 0x01, pal: 0, region: PAL, speed: DefaultPALSpeed},
		{flags: 0x02, ntsc: 12345, pal: 20000, region: Dual, speed: 12345},
		{flags: 0x03, ntsc: 12345, region: Dual, speed: 12345},
	}
	for _, tt := range tests {
		hdr := Header{Flags: tt.flags, NTSCSpeed: tt.ntsc, PALSpeed: tt.pal}
		if got := hdr.Region(); got != tt.region {
			t.Errorf("flags 0x%02x: Region() = %v, want %v", tt.flags, got, tt.region)
		}
		if got := hdr.Speed(); got != tt.speed {
			t.Errorf("flags 0x%02x: Speed() = %d, want %d", tt.flags, got, tt.speed)
		}
	}
}

func TestReadErrors(t *testing.T) {
	valid := testImage(t, testHeader(), []byte{0x60})
	badMagic := bytes.Clone(valid)
	badMagic[3] = 'X'

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short magic", []byte("NES"), ErrTruncated},
		{"bad magic", badMagic, ErrBadMagic},
		{"short header", valid[:0x40], ErrTruncated},
		{"no program", valid[:HeaderSize], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Errorf("Read() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.nsf")
	raw := testImage(t, testHeader(), []byte{0xA9, 0x00, 0x60})
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Songs != 3 || len(f.Data) != 3 {
		t.Errorf("Open() = %+v", f.Header)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.nsf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v", err)
	}
}

func TestChipsString(t *testing.T) {
	tests := []struct {
		c    Chips
		want string
	}{
		{0, "none"},
		{N163, "n163"},
		{VRC6 | VRC7 | FDS | MMC5 | N163 | FME07, "vrc6|vrc7|fds|mmc5|n163|fme07"},
		{FDS | 0x80, "fds|0x80"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Chips(0x%02x).String() = %q, want %q", uint8(tt.c), got, tt.want)
		}
	}
}
