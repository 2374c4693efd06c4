//go:build !nsfdebug

package apu

import "nsfplay/emu/log"

// invariant logs a broken invariant. The caller clamps the offending value.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		log.ModSound.Errorf(format, args...)
	}
}
