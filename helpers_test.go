package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"nsfplay/nsf"
)

/* general testing helpers */

func tcheck(tb testing.TB, err error) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s\n", err)
}

func tcheckf(tb testing.TB, err error, format string, args ...any) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s: %s\n", fmt.Sprintf(format, args...), err)
}

// writeTestNSF writes a 2 songs tune playing a square wave on pulse 1, and
// returns its path.
func writeTestNSF(tb testing.TB) string {
	tb.Helper()

	hdr := nsf.Header{
		Version:  1,
		Songs:    2,
		Start:    2,
		LoadAddr: 0x8000,
		InitAddr: 0x8000,
		PlayAddr: 0x8010,
		Chips:    nsf.VRC6,
	}
	hdr.SetStrings("Square", "Someone", "2024")
	raw, err := hdr.MarshalBinary()
	tcheck(tb, err)

	prg := make([]byte, 0x20)
	copy(prg, []byte{
		0xA9, 0xBF, // LDA #$BF
		0x8D, 0x00, 0x40, // STA $4000
		0xA9, 0xFD, // LDA #$FD
		0x8D, 0x02, 0x40, // STA $4002
		0xA9, 0x00, // LDA #$00
		0x8D, 0x03, 0x40, // STA $4003
		0x60, // RTS
	})
	prg[0x10] = 0x60

	path := filepath.Join(tb.TempDir(), "square.nsf")
	tcheckf(tb, os.WriteFile(path, append(raw, prg...), 0644), "write %s", path)
	return path
}
